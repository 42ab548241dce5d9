package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gamehub-ledger/internal/domain"
)

const uniqueViolation = "23505"

// CreateUser inserts a new user row. Username and email collisions surface
// as domain.ErrUsernameTaken.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, status, total_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, status, total_score, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.TotalScore,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// ListPlayers returns player accounts, optionally filtered by status and a
// username/email substring search.
func (r *Repository) ListPlayers(ctx context.Context, status domain.Status, search string) ([]domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, status, total_score, created_at
		FROM users
		WHERE role = 'player'
	`
	args := []any{}
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND (username ILIKE $%d OR email ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Status,
			&user.TotalScore,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, user)
	}
	return players, rows.Err()
}

// SetStatusWithNotice updates a user's lifecycle status and writes the
// accompanying notification in the same transaction.
func (r *Repository) SetStatusWithNotice(ctx context.Context, userID uuid.UUID, status domain.Status, message, category string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, string(status), userID)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO notifications (user_id, message, category) VALUES ($1, $2, $3)`,
		userID, message, category,
	)
	if err != nil {
		return fmt.Errorf("inserting status notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing status change: %w", err)
	}
	return nil
}

// HubStats returns the admin dashboard counters
func (r *Repository) HubStats(ctx context.Context) (*domain.HubStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'player'),
			(SELECT COUNT(*) FROM users WHERE role = 'player' AND status = 'active'),
			(SELECT COUNT(*) FROM users WHERE role = 'player' AND status = 'archived'),
			(SELECT COUNT(*) FROM score_entries)
	`
	var stats domain.HubStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalPlayers,
		&stats.ActivePlayers,
		&stats.ArchivedPlayers,
		&stats.LedgerEntries,
	)
	if err != nil {
		return nil, fmt.Errorf("getting hub stats: %w", err)
	}
	return &stats, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamehub-ledger/internal/domain"
)

// ApplyScore records a score contribution for a (user, activity) pair. The
// ledger row is inserted or incremented in a single statement so concurrent
// submissions for the same pair cannot lose updates; the user's cached total
// is bumped inside the same transaction.
func (r *Repository) ApplyScore(ctx context.Context, userID uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO score_entries (user_id, activity, points, created_at, last_played_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, activity)
		DO UPDATE SET points = score_entries.points + EXCLUDED.points, last_played_at = $4
		RETURNING points, created_at, last_played_at
	`
	now := time.Now()
	entry := domain.ScoreEntry{UserID: userID, Activity: activity}
	err = tx.QueryRow(ctx, query, userID, activity, points, now).Scan(
		&entry.Points,
		&entry.CreatedAt,
		&entry.LastPlayedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting score entry: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE users SET total_score = total_score + $1 WHERE id = $2`, points, userID)
	if err != nil {
		return nil, fmt.Errorf("updating cached total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing score entry: %w", err)
	}
	return &entry, nil
}

// UserStats aggregates a user's ledger rows. Users with no rows get zeroes,
// never an error.
func (r *Repository) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats := domain.UserStats{UserID: userID, Activities: []domain.ActivityScore{}}

	// One row per (user, activity), so COUNT(*) is the distinct-activity count.
	query := `SELECT COUNT(*), COALESCE(SUM(points), 0) FROM score_entries WHERE user_id = $1`
	err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.ActivitiesPlayed, &stats.TotalScore)
	if err != nil {
		return nil, fmt.Errorf("aggregating user stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT activity, points, last_played_at
		FROM score_entries
		WHERE user_id = $1
		ORDER BY points DESC, activity
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activity scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var as domain.ActivityScore
		if err := rows.Scan(&as.Activity, &as.Points, &as.LastPlayedAt); err != nil {
			return nil, fmt.Errorf("scanning activity score: %w", err)
		}
		stats.Activities = append(stats.Activities, as)
	}
	return &stats, rows.Err()
}

// Totals returns per-user aggregate totals for the leaderboard, ordered by
// total score descending with most-recent-play as the tie key. Only active
// users qualify; archived users keep their rows but drop out of the view.
// An empty activity aggregates across all activities; limit <= 0 returns the
// full ordering (used for rank lookups).
func (r *Repository) Totals(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	query := `
		SELECT u.id, u.username, SUM(s.points) AS total_score, MAX(s.last_played_at) AS last_played
		FROM score_entries s
		JOIN users u ON s.user_id = u.id
		WHERE u.status = 'active'
	`
	args := []any{}
	if activity != "" {
		query += ` AND s.activity = $1`
		args = append(args, activity)
	}
	query += `
		GROUP BY u.id
		ORDER BY total_score DESC, last_played DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard totals: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardRow
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.TotalScore, &row.LastPlayedAt); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, row)
	}
	return entries, rows.Err()
}

// ResetAll deletes every ledger row, zeroes every cached total, and notifies
// each currently active player, all in one transaction.
func (r *Repository) ResetAll(ctx context.Context, message string) (*domain.ResetResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	players, err := activePlayerIDs(ctx, tx)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM score_entries`)
	if err != nil {
		return nil, fmt.Errorf("deleting ledger rows: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET total_score = 0`); err != nil {
		return nil, fmt.Errorf("zeroing cached totals: %w", err)
	}

	if err := insertNotifications(ctx, tx, players, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing reset: %w", err)
	}
	return &domain.ResetResult{
		Scope:           domain.ResetScopeAll,
		EntriesDeleted:  tag.RowsAffected(),
		PlayersNotified: int64(len(players)),
	}, nil
}

// ResetActivity deletes one activity's ledger rows and notifies only the
// users who held a row for it. The affected set is captured before the
// delete; cached totals are recomputed for exactly that set.
func (r *Repository) ResetActivity(ctx context.Context, activity, message string) (*domain.ResetResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT DISTINCT user_id FROM score_entries WHERE activity = $1`, activity)
	if err != nil {
		return nil, fmt.Errorf("selecting affected users: %w", err)
	}
	affected, err := scanUserIDs(rows)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM score_entries WHERE activity = $1`, activity)
	if err != nil {
		return nil, fmt.Errorf("deleting ledger rows: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users u
		SET total_score = COALESCE((SELECT SUM(points) FROM score_entries s WHERE s.user_id = u.id), 0)
		WHERE u.id = ANY($1)
	`, affected)
	if err != nil {
		return nil, fmt.Errorf("recomputing cached totals: %w", err)
	}

	if err := insertNotifications(ctx, tx, affected, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing reset: %w", err)
	}
	return &domain.ResetResult{
		Scope:           activity,
		EntriesDeleted:  tag.RowsAffected(),
		PlayersNotified: int64(len(affected)),
	}, nil
}

// ReconcileTotals overwrites drifted cached totals with the ledger sum. The
// ledger is the source of truth; the returned count is how many users had
// drifted. Running it twice in a row repairs nothing the second time.
func (r *Repository) ReconcileTotals(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users u
		SET total_score = COALESCE((SELECT SUM(points) FROM score_entries s WHERE s.user_id = u.id), 0)
		WHERE u.total_score IS DISTINCT FROM
			COALESCE((SELECT SUM(points) FROM score_entries s WHERE s.user_id = u.id), 0)
	`)
	if err != nil {
		return 0, fmt.Errorf("reconciling cached totals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func activePlayerIDs(ctx context.Context, tx pgx.Tx) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM users WHERE role = 'player' AND status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("selecting active players: %w", err)
	}
	return scanUserIDs(rows)
}

func scanUserIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertNotifications(ctx context.Context, tx pgx.Tx, userIDs []uuid.UUID, message string) error {
	if len(userIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO notifications (user_id, message, category) VALUES ($1, $2, $3)`
	for _, id := range userIDs {
		batch.Queue(query, id, message, domain.CategoryAnnouncement)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range userIDs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting reset notification: %w", err)
		}
	}
	return nil
}

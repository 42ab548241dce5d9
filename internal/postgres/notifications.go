package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gamehub-ledger/internal/domain"
)

// NotifyUser writes a notification for a single user
func (r *Repository) NotifyUser(ctx context.Context, userID uuid.UUID, message, category string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, message, category) VALUES ($1, $2, $3)`,
		userID, message, category,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// NotifyActivePlayers fans a message out to every active player and returns
// how many rows were written.
func (r *Repository) NotifyActivePlayers(ctx context.Context, message, category string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (user_id, message, category)
		SELECT id, $1, $2 FROM users WHERE role = 'player' AND status = 'active'
	`, message, category)
	if err != nil {
		return 0, fmt.Errorf("broadcasting notification: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListNotifications returns a user's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, message, category, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadCount returns the number of unread notifications for a user
func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flags one notification as read
func (r *Repository) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`,
		notificationID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags all of a user's notifications as read
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

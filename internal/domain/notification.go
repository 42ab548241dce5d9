package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification categories
const (
	CategoryAnnouncement = "announcement"
	CategoryWarning      = "warning"
)

// Notification is a message emitted to a player by an administrative action
// (reset, deactivate, reactivate, broadcast). A nil UserID marks a broadcast
// row. Rows are only ever mutated by read-marking.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Message   string     `json:"message"`
	Category  string     `json:"category"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// BroadcastRequest represents an admin request to notify one or all players
type BroadcastRequest struct {
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Message  string     `json:"message"`
	Category string     `json:"category,omitempty"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role in the hub
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Status represents a user's lifecycle status
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// User represents a registered player or admin. Users are never hard-deleted;
// deactivation archives them and hides them from ranking output.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	// TotalScore is the redundant cached aggregate. The ledger sum is the
	// source of truth; this field is repaired by the reconcile operation.
	TotalScore int64     `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsActive reports whether the user may submit scores and appear in rankings.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CreateUserRequest represents a signup-shaped request to create a player
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HubStats contains the admin dashboard counters
type HubStats struct {
	TotalPlayers    int64 `json:"total_players"`
	ActivePlayers   int64 `json:"active_players"`
	ArchivedPlayers int64 `json:"archived_players"`
	LedgerEntries   int64 `json:"ledger_entries"`
}

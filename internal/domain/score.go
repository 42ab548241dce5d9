package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResetScopeAll is the explicit scope argument that wipes the whole ledger.
// Any other non-empty scope names a single activity.
const ResetScopeAll = "all"

// ScoreEntry represents one ledger row: the running point counter for a
// (user, activity) pair. New submissions add to Points in place.
type ScoreEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	Activity     string    `json:"activity"`
	Points       int64     `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// ActivityScore is a user's accumulated value for one activity
type ActivityScore struct {
	Activity     string    `json:"activity"`
	Points       int64     `json:"points"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// UserStats is the aggregate view of a user's ledger rows
type UserStats struct {
	UserID           uuid.UUID       `json:"user_id"`
	ActivitiesPlayed int             `json:"activities_played"`
	TotalScore       int64           `json:"total_score"`
	Activities       []ActivityScore `json:"activities"`
}

// LeaderboardRow is a ranked aggregate for one user, scoped globally or to
// one activity. Rank uses competition ranking: equal totals share a rank and
// the next distinct total resumes at its 1-based list position.
type LeaderboardRow struct {
	Rank         int       `json:"rank"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	TotalScore   int64     `json:"total_score"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// ScoreSubmission represents a request to record a score event
type ScoreSubmission struct {
	UserID   uuid.UUID `json:"user_id"`
	Activity string    `json:"activity"`
	Points   int64     `json:"points"`
}

// BatchScoreSubmission represents multiple score submissions
type BatchScoreSubmission struct {
	Scores []ScoreSubmission `json:"scores"`
}

// ResetResult reports what a bulk reset touched
type ResetResult struct {
	Scope           string `json:"scope"`
	EntriesDeleted  int64  `json:"entries_deleted"`
	PlayersNotified int64  `json:"players_notified"`
}

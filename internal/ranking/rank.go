// Package ranking assigns competition ranks to score-sorted leaderboard rows.
package ranking

import (
	"github.com/google/uuid"

	"github.com/gamehub-ledger/internal/domain"
)

// Assign walks rows already sorted by total score descending and fills in
// competition ranks: equal totals share a rank, and the row after a tie block
// resumes at its 1-based position. Scores [100,100,90] rank as [1,1,3].
func Assign(rows []domain.LeaderboardRow) {
	for i := range rows {
		if i > 0 && rows[i].TotalScore == rows[i-1].TotalScore {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}

// Find returns the competition rank of the given user within rows, assigning
// ranks first. The second return is false if the user has no row.
func Find(rows []domain.LeaderboardRow, userID uuid.UUID) (int, bool) {
	Assign(rows)
	for i := range rows {
		if rows[i].UserID == userID {
			return rows[i].Rank, true
		}
	}
	return 0, false
}

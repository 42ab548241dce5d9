package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gamehub-ledger/internal/config"
	"github.com/gamehub-ledger/internal/domain"
	"github.com/gamehub-ledger/internal/ranking"
)

// Store is the persistence boundary the ledger operates against
type Store interface {
	ApplyScore(ctx context.Context, userID uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error)
	UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	Totals(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error)
	ResetAll(ctx context.Context, message string) (*domain.ResetResult, error)
	ResetActivity(ctx context.Context, activity, message string) (*domain.ResetResult, error)
	ReconcileTotals(ctx context.Context) (int64, error)

	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListPlayers(ctx context.Context, status domain.Status, search string) ([]domain.User, error)
	SetStatusWithNotice(ctx context.Context, userID uuid.UUID, status domain.Status, message, category string) error
	HubStats(ctx context.Context) (*domain.HubStats, error)

	NotifyUser(ctx context.Context, userID uuid.UUID, message, category string) error
	NotifyActivePlayers(ctx context.Context, message, category string) (int64, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
}

// PageCache caches assembled leaderboard pages
type PageCache interface {
	GetPage(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error)
	SetPage(ctx context.Context, activity string, limit int, rows []domain.LeaderboardRow) error
	InvalidateActivity(ctx context.Context, activity string) error
	InvalidateAll(ctx context.Context) error
}

// Broadcaster pushes live events to connected clients
type Broadcaster interface {
	BroadcastScoreUpdate(activity, username string, userID uuid.UUID, points, total int64)
	BroadcastReset(scope string)
}

// Notification messages emitted by administrative actions
const (
	msgResetAll    = "All scores have been reset by admin."
	msgResetOne    = "Scores for %s have been reset by admin."
	msgDeactivated = "Your account has been deactivated by admin."
	msgReactivated = "Your account has been reactivated by admin."
)

// LedgerService provides business logic for the score ledger and rankings
type LedgerService struct {
	store  Store
	cache  PageCache
	hub    Broadcaster
	config *config.LeaderboardConfig
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service. cache may be nil; the
// service then reads straight from the store.
func NewLedgerService(store Store, cache PageCache, cfg *config.LeaderboardConfig, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// SetHub attaches the live-event broadcaster
func (s *LedgerService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// RecordScore records a score contribution and returns the user's refreshed
// aggregate so the caller can update a display without a second round trip.
func (s *LedgerService) RecordScore(ctx context.Context, sub domain.ScoreSubmission) (*domain.UserStats, error) {
	activity := strings.TrimSpace(sub.Activity)
	if activity == "" {
		return nil, domain.ErrInvalidActivity
	}

	user, err := s.store.GetUser(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUserArchived
	}

	entry, err := s.store.ApplyScore(ctx, sub.UserID, activity, sub.Points)
	if err != nil {
		return nil, fmt.Errorf("applying score: %w", err)
	}

	stats, err := s.store.UserStats(ctx, sub.UserID)
	if err != nil {
		return nil, fmt.Errorf("refreshing user stats: %w", err)
	}

	s.invalidateActivity(ctx, activity)

	if s.hub != nil {
		s.hub.BroadcastScoreUpdate(activity, user.Username, user.ID, entry.Points, stats.TotalScore)
	}

	return stats, nil
}

// RecordScoreBatch records multiple score submissions, logging and skipping
// the ones that fail.
func (s *LedgerService) RecordScoreBatch(ctx context.Context, batch domain.BatchScoreSubmission) error {
	for _, sub := range batch.Scores {
		if _, err := s.RecordScore(ctx, sub); err != nil {
			s.logger.Error("failed to record score in batch",
				"user_id", sub.UserID,
				"activity", sub.Activity,
				"error", err,
			)
			// Continue processing other submissions
		}
	}
	return nil
}

// GetUserStats returns a user's aggregate ledger view. Users with no ledger
// rows get zero totals and an empty activity list.
func (s *LedgerService) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.UserStats(ctx, userID)
}

// GetLeaderboard returns the ranked top players, globally or for one
// activity. Results come from the page cache when fresh.
func (s *LedgerService) GetLeaderboard(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	if s.cache != nil {
		rows, err := s.cache.GetPage(ctx, activity, limit)
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", "error", err)
		} else if rows != nil {
			return rows, nil
		}
	}

	rows, err := s.store.Totals(ctx, activity, limit)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard totals: %w", err)
	}
	if rows == nil {
		rows = []domain.LeaderboardRow{}
	}
	ranking.Assign(rows)

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, activity, limit, rows); err != nil {
			s.logger.Warn("leaderboard cache write failed", "error", err)
		}
	}

	return rows, nil
}

// GetUserRank computes the caller's competition rank over the full ordering,
// unfiltered by the display limit. Archived users and users with no
// qualifying rows are unranked.
func (s *LedgerService) GetUserRank(ctx context.Context, userID uuid.UUID, activity string) (int, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !user.IsActive() {
		return 0, domain.ErrUnranked
	}

	rows, err := s.store.Totals(ctx, activity, 0)
	if err != nil {
		return 0, fmt.Errorf("loading rank ordering: %w", err)
	}

	rank, ok := ranking.Find(rows, userID)
	if !ok {
		return 0, domain.ErrUnranked
	}
	return rank, nil
}

// ResetScores wipes the ledger for the given scope and notifies the affected
// players. The scope must be explicit: "all" or one activity identifier.
func (s *LedgerService) ResetScores(ctx context.Context, scope string) (*domain.ResetResult, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, domain.ErrInvalidRequest
	}

	var (
		result *domain.ResetResult
		err    error
	)
	if scope == domain.ResetScopeAll {
		result, err = s.store.ResetAll(ctx, msgResetAll)
	} else {
		result, err = s.store.ResetActivity(ctx, scope, fmt.Sprintf(msgResetOne, scope))
	}
	if err != nil {
		return nil, fmt.Errorf("resetting scores: %w", err)
	}

	s.invalidateAll(ctx)

	if s.hub != nil {
		s.hub.BroadcastReset(scope)
	}

	s.logger.Info("scores reset",
		"scope", scope,
		"entries_deleted", result.EntriesDeleted,
		"players_notified", result.PlayersNotified,
	)
	return result, nil
}

// ReconcileTotals repairs every drifted cached total from the ledger sum and
// returns how many users needed repair. Idempotent; safe to retry wholesale.
func (s *LedgerService) ReconcileTotals(ctx context.Context) (int64, error) {
	repaired, err := s.store.ReconcileTotals(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconciling totals: %w", err)
	}
	if repaired > 0 {
		s.logger.Warn("cached totals had drifted from ledger", "repaired", repaired)
	}
	return repaired, nil
}

func (s *LedgerService) invalidateActivity(ctx context.Context, activity string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateActivity(ctx, activity); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", "activity", activity, "error", err)
	}
}

func (s *LedgerService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gamehub-ledger/internal/domain"
)

// MockStore is a mock implementation of the Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ApplyScore(ctx context.Context, userID uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error) {
	args := m.Called(ctx, userID, activity, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoreEntry), args.Error(1)
}

func (m *MockStore) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

func (m *MockStore) Totals(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	args := m.Called(ctx, activity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardRow), args.Error(1)
}

func (m *MockStore) ResetAll(ctx context.Context, message string) (*domain.ResetResult, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResetResult), args.Error(1)
}

func (m *MockStore) ResetActivity(ctx context.Context, activity, message string) (*domain.ResetResult, error) {
	args := m.Called(ctx, activity, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResetResult), args.Error(1)
}

func (m *MockStore) ReconcileTotals(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockStore) ListPlayers(ctx context.Context, status domain.Status, search string) ([]domain.User, error) {
	args := m.Called(ctx, status, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockStore) SetStatusWithNotice(ctx context.Context, userID uuid.UUID, status domain.Status, message, category string) error {
	args := m.Called(ctx, userID, status, message, category)
	return args.Error(0)
}

func (m *MockStore) HubStats(ctx context.Context) (*domain.HubStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HubStats), args.Error(1)
}

func (m *MockStore) NotifyUser(ctx context.Context, userID uuid.UUID, message, category string) error {
	args := m.Called(ctx, userID, message, category)
	return args.Error(0)
}

func (m *MockStore) NotifyActivePlayers(ctx context.Context, message, category string) (int64, error) {
	args := m.Called(ctx, message, category)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockPageCache is a mock implementation of the PageCache interface
type MockPageCache struct {
	mock.Mock
}

func (m *MockPageCache) GetPage(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	args := m.Called(ctx, activity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardRow), args.Error(1)
}

func (m *MockPageCache) SetPage(ctx context.Context, activity string, limit int, rows []domain.LeaderboardRow) error {
	args := m.Called(ctx, activity, limit, rows)
	return args.Error(0)
}

func (m *MockPageCache) InvalidateActivity(ctx context.Context, activity string) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockPageCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBroadcaster is a mock implementation of the Broadcaster interface
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastScoreUpdate(activity, username string, userID uuid.UUID, points, total int64) {
	m.Called(activity, username, userID, points, total)
}

func (m *MockBroadcaster) BroadcastReset(scope string) {
	m.Called(scope)
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamehub-ledger/internal/domain"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active player with a hashed password", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		var created *domain.User
		store.On("CreateUser", ctx, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.User)
		}).Return(nil)

		user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
			Username: "  alice  ",
			Email:    "alice@example.com",
			Password: "hunter2",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, domain.RolePlayer, user.Role)
		assert.Equal(t, domain.StatusActive, user.Status)
		assert.NotEqual(t, uuid.Nil, user.ID)

		require.NotNil(t, created)
		assert.NotEqual(t, "hunter2", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2")))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		cases := []domain.CreateUserRequest{
			{Username: "", Email: "a@b.c", Password: "pw"},
			{Username: "bob", Email: "not-an-email", Password: "pw"},
			{Username: "bob", Email: "a@b.c", Password: ""},
		}
		for _, req := range cases {
			_, err := svc.CreateUser(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		}
		store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("surfaces duplicate username", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("CreateUser", ctx, mock.AnythingOfType("*domain.User")).Return(domain.ErrUsernameTaken)

		_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "pw",
		})

		assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	})
}

func TestListPlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("passes status and search through", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("ListPlayers", ctx, domain.StatusArchived, "ali").Return([]domain.User{}, nil)

		_, err := svc.ListPlayers(ctx, domain.StatusArchived, "ali")

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		_, err := svc.ListPlayers(ctx, domain.Status("banned"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestPlayerLifecycle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("deactivate archives and warns the player", func(t *testing.T) {
		store := new(MockStore)
		cache := new(MockPageCache)
		svc := NewLedgerService(store, cache, testConfig(), testLogger())

		store.On("SetStatusWithNotice", ctx, userID, domain.StatusArchived,
			"Your account has been deactivated by admin.", domain.CategoryWarning).Return(nil)
		cache.On("InvalidateAll", ctx).Return(nil)

		require.NoError(t, svc.DeactivatePlayer(ctx, userID))
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("reactivate restores and announces", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("SetStatusWithNotice", ctx, userID, domain.StatusActive,
			"Your account has been reactivated by admin.", domain.CategoryAnnouncement).Return(nil)

		require.NoError(t, svc.ReactivatePlayer(ctx, userID))
		store.AssertExpectations(t)
	})

	t.Run("deactivate of unknown user surfaces not found", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("SetStatusWithNotice", ctx, userID, domain.StatusArchived,
			mock.Anything, mock.Anything).Return(domain.ErrUserNotFound)

		err := svc.DeactivatePlayer(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	t.Run("targeted broadcast notifies one player", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		userID := uuid.New()
		store.On("GetUser", ctx, userID).Return(activeUser(userID), nil)
		store.On("NotifyUser", ctx, userID, "maintenance tonight", domain.CategoryAnnouncement).Return(nil)

		notified, err := svc.Broadcast(ctx, domain.BroadcastRequest{
			UserID:  &userID,
			Message: "maintenance tonight",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), notified)
	})

	t.Run("untargeted broadcast reaches all active players", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("NotifyActivePlayers", ctx, "new game added", domain.CategoryAnnouncement).Return(int64(12), nil)

		notified, err := svc.Broadcast(ctx, domain.BroadcastRequest{Message: "new game added"})

		require.NoError(t, err)
		assert.Equal(t, int64(12), notified)
	})

	t.Run("rejects blank message", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		_, err := svc.Broadcast(ctx, domain.BroadcastRequest{Message: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("keeps the explicit category", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("NotifyActivePlayers", ctx, "cheating detected", domain.CategoryWarning).Return(int64(3), nil)

		_, err := svc.Broadcast(ctx, domain.BroadcastRequest{
			Message:  "cheating detected",
			Category: domain.CategoryWarning,
		})

		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("list checks the user exists", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("GetUser", ctx, userID).Return(nil, domain.ErrUserNotFound)

		_, err := svc.ListNotifications(ctx, userID, false)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("unread filter is passed through", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("GetUser", ctx, userID).Return(activeUser(userID), nil)
		store.On("ListNotifications", ctx, userID, true, notificationPageSize).Return([]domain.Notification{}, nil)

		_, err := svc.ListNotifications(ctx, userID, true)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("mark read surfaces missing notification", func(t *testing.T) {
		store := new(MockStore)
		svc := NewLedgerService(store, nil, testConfig(), testLogger())

		store.On("MarkNotificationRead", ctx, int64(99)).Return(domain.ErrNotificationNotFound)

		err := svc.MarkNotificationRead(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
	})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-ledger/internal/config"
	"github.com/gamehub-ledger/internal/domain"
	"github.com/gamehub-ledger/internal/service"
)

// stubStore implements service.Store with overridable behavior per test.
// Unset methods fail loudly so a test cannot silently hit the wrong path.
type stubStore struct {
	applyScore     func(ctx context.Context, userID uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error)
	userStats      func(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	totals         func(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error)
	resetAll       func(ctx context.Context, message string) (*domain.ResetResult, error)
	resetActivity  func(ctx context.Context, activity, message string) (*domain.ResetResult, error)
	reconcile      func(ctx context.Context) (int64, error)
	createUser     func(ctx context.Context, user *domain.User) error
	getUser        func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	listPlayers    func(ctx context.Context, status domain.Status, search string) ([]domain.User, error)
	setStatus      func(ctx context.Context, userID uuid.UUID, status domain.Status, message, category string) error
	hubStats       func(ctx context.Context) (*domain.HubStats, error)
	notifyUser     func(ctx context.Context, userID uuid.UUID, message, category string) error
	notifyActive   func(ctx context.Context, message, category string) (int64, error)
	listNotifs     func(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	unreadCount    func(ctx context.Context, userID uuid.UUID) (int64, error)
	markRead       func(ctx context.Context, notificationID int64) error
	markAllRead    func(ctx context.Context, userID uuid.UUID) error
}

var errStubUnset = fmt.Errorf("stub method not set")

func (s *stubStore) ApplyScore(ctx context.Context, userID uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error) {
	if s.applyScore == nil {
		return nil, errStubUnset
	}
	return s.applyScore(ctx, userID, activity, points)
}

func (s *stubStore) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	if s.userStats == nil {
		return nil, errStubUnset
	}
	return s.userStats(ctx, userID)
}

func (s *stubStore) Totals(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
	if s.totals == nil {
		return nil, errStubUnset
	}
	return s.totals(ctx, activity, limit)
}

func (s *stubStore) ResetAll(ctx context.Context, message string) (*domain.ResetResult, error) {
	if s.resetAll == nil {
		return nil, errStubUnset
	}
	return s.resetAll(ctx, message)
}

func (s *stubStore) ResetActivity(ctx context.Context, activity, message string) (*domain.ResetResult, error) {
	if s.resetActivity == nil {
		return nil, errStubUnset
	}
	return s.resetActivity(ctx, activity, message)
}

func (s *stubStore) ReconcileTotals(ctx context.Context) (int64, error) {
	if s.reconcile == nil {
		return 0, errStubUnset
	}
	return s.reconcile(ctx)
}

func (s *stubStore) CreateUser(ctx context.Context, user *domain.User) error {
	if s.createUser == nil {
		return errStubUnset
	}
	return s.createUser(ctx, user)
}

func (s *stubStore) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if s.getUser == nil {
		return nil, errStubUnset
	}
	return s.getUser(ctx, userID)
}

func (s *stubStore) ListPlayers(ctx context.Context, status domain.Status, search string) ([]domain.User, error) {
	if s.listPlayers == nil {
		return nil, errStubUnset
	}
	return s.listPlayers(ctx, status, search)
}

func (s *stubStore) SetStatusWithNotice(ctx context.Context, userID uuid.UUID, status domain.Status, message, category string) error {
	if s.setStatus == nil {
		return errStubUnset
	}
	return s.setStatus(ctx, userID, status, message, category)
}

func (s *stubStore) HubStats(ctx context.Context) (*domain.HubStats, error) {
	if s.hubStats == nil {
		return nil, errStubUnset
	}
	return s.hubStats(ctx)
}

func (s *stubStore) NotifyUser(ctx context.Context, userID uuid.UUID, message, category string) error {
	if s.notifyUser == nil {
		return errStubUnset
	}
	return s.notifyUser(ctx, userID, message, category)
}

func (s *stubStore) NotifyActivePlayers(ctx context.Context, message, category string) (int64, error) {
	if s.notifyActive == nil {
		return 0, errStubUnset
	}
	return s.notifyActive(ctx, message, category)
}

func (s *stubStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if s.listNotifs == nil {
		return nil, errStubUnset
	}
	return s.listNotifs(ctx, userID, unreadOnly, limit)
}

func (s *stubStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.unreadCount == nil {
		return 0, errStubUnset
	}
	return s.unreadCount(ctx, userID)
}

func (s *stubStore) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	if s.markRead == nil {
		return errStubUnset
	}
	return s.markRead(ctx, notificationID)
}

func (s *stubStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	if s.markAllRead == nil {
		return errStubUnset
	}
	return s.markAllRead(ctx, userID)
}

func newTestRouter(store *stubStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewLedgerService(store, nil, &config.LeaderboardConfig{
		DefaultLimit: 50,
		MaxLimit:     100,
	}, logger)
	h := NewHandler(svc, nil, logger)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rec, resp := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordScoreEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("returns refreshed stats", func(t *testing.T) {
		store := &stubStore{
			getUser: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id, Username: "alice", Status: domain.StatusActive}, nil
			},
			applyScore: func(ctx context.Context, id uuid.UUID, activity string, points int64) (*domain.ScoreEntry, error) {
				return &domain.ScoreEntry{UserID: id, Activity: activity, Points: points}, nil
			},
			userStats: func(ctx context.Context, id uuid.UUID) (*domain.UserStats, error) {
				return &domain.UserStats{UserID: id, TotalScore: 25, ActivitiesPlayed: 1}, nil
			},
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/scores", domain.ScoreSubmission{
			UserID:   userID,
			Activity: "snake",
			Points:   25,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(25), data["total_score"])
	})

	t.Run("missing user id is a bad request", func(t *testing.T) {
		router := newTestRouter(&stubStore{})

		rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/scores", map[string]interface{}{
			"activity": "snake",
			"points":   10,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("archived player gets forbidden", func(t *testing.T) {
		store := &stubStore{
			getUser: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id, Status: domain.StatusArchived}, nil
			},
		}
		router := newTestRouter(store)

		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/scores", domain.ScoreSubmission{
			UserID:   userID,
			Activity: "snake",
			Points:   10,
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown player gets not found", func(t *testing.T) {
		store := &stubStore{
			getUser: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
				return nil, domain.ErrUserNotFound
			},
		}
		router := newTestRouter(store)

		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/scores", domain.ScoreSubmission{
			UserID:   userID,
			Activity: "snake",
			Points:   10,
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	store := &stubStore{
		totals: func(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
			return []domain.LeaderboardRow{
				{UserID: uuid.New(), Username: "a", TotalScore: 100, LastPlayedAt: time.Now()},
				{UserID: uuid.New(), Username: "b", TotalScore: 100, LastPlayedAt: time.Now()},
				{UserID: uuid.New(), Username: "c", TotalScore: 90, LastPlayedAt: time.Now()},
			}, nil
		},
	}
	router := newTestRouter(store)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/leaderboard?activity=snake&limit=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	rows := resp.Data.([]interface{})
	require.Len(t, rows, 3)
	assert.Equal(t, float64(1), rows[0].(map[string]interface{})["rank"])
	assert.Equal(t, float64(1), rows[1].(map[string]interface{})["rank"])
	assert.Equal(t, float64(3), rows[2].(map[string]interface{})["rank"])
}

func TestUserRankEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("ranked user", func(t *testing.T) {
		store := &stubStore{
			getUser: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id, Status: domain.StatusActive}, nil
			},
			totals: func(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
				return []domain.LeaderboardRow{
					{UserID: uuid.New(), TotalScore: 200},
					{UserID: userID, TotalScore: 150},
				}, nil
			},
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/users/"+userID.String()+"/rank", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, true, data["ranked"])
		assert.Equal(t, float64(2), data["rank"])
	})

	t.Run("unranked user still gets a 200", func(t *testing.T) {
		store := &stubStore{
			getUser: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id, Status: domain.StatusActive}, nil
			},
			totals: func(ctx context.Context, activity string, limit int) ([]domain.LeaderboardRow, error) {
				return nil, nil
			},
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/users/"+userID.String()+"/rank", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, false, data["ranked"])
		assert.NotContains(t, data, "rank")
	})

	t.Run("malformed user id", func(t *testing.T) {
		router := newTestRouter(&stubStore{})

		rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/users/not-a-uuid/rank", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateUserEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		store := &stubStore{
			createUser: func(ctx context.Context, user *domain.User) error { return nil },
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/users", domain.CreateUserRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "hunter2",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "alice", data["username"])
		assert.NotContains(t, data, "password_hash")
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		store := &stubStore{
			createUser: func(ctx context.Context, user *domain.User) error { return domain.ErrUsernameTaken },
		}
		router := newTestRouter(store)

		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/users", domain.CreateUserRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "hunter2",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestResetEndpoint(t *testing.T) {
	t.Run("scope all", func(t *testing.T) {
		store := &stubStore{
			resetAll: func(ctx context.Context, message string) (*domain.ResetResult, error) {
				return &domain.ResetResult{Scope: "all", EntriesDeleted: 10, PlayersNotified: 4}, nil
			},
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/reset", map[string]string{"scope": "all"})

		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(10), data["entries_deleted"])
		assert.Equal(t, float64(4), data["players_notified"])
	})

	t.Run("missing scope is a bad request", func(t *testing.T) {
		router := newTestRouter(&stubStore{})

		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/admin/reset", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReconcileEndpoint(t *testing.T) {
	store := &stubStore{
		reconcile: func(ctx context.Context) (int64, error) { return 2, nil },
	}
	router := newTestRouter(store)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/reconcile", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["repaired"])
}

func TestNotificationEndpoints(t *testing.T) {
	userID := uuid.New()

	t.Run("mark read not found", func(t *testing.T) {
		store := &stubStore{
			markRead: func(ctx context.Context, id int64) error { return domain.ErrNotificationNotFound },
		}
		router := newTestRouter(store)

		rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/notifications/42/read", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unread count", func(t *testing.T) {
		store := &stubStore{
			unreadCount: func(ctx context.Context, id uuid.UUID) (int64, error) { return 3, nil },
		}
		router := newTestRouter(store)

		rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/users/"+userID.String()+"/notifications/unread-count", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["unread"])
	})
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamehub-ledger/internal/domain"
)

const notificationPageSize = 50

// CreateUser registers a new player account. The password is stored only as
// a bcrypt hash; session handling is the caller's concern.
func (s *LedgerService) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || req.Password == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RolePlayer,
		Status:       domain.StatusActive,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser returns a user by ID
func (s *LedgerService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListPlayers returns player accounts filtered by status and search string
func (s *LedgerService) ListPlayers(ctx context.Context, status domain.Status, search string) ([]domain.User, error) {
	switch status {
	case "", domain.StatusActive, domain.StatusArchived:
	default:
		return nil, domain.ErrInvalidRequest
	}
	return s.store.ListPlayers(ctx, status, search)
}

// DeactivatePlayer archives a player. Their ledger rows survive but they
// disappear from ranking output until reactivated.
func (s *LedgerService) DeactivatePlayer(ctx context.Context, userID uuid.UUID) error {
	err := s.store.SetStatusWithNotice(ctx, userID, domain.StatusArchived, msgDeactivated, domain.CategoryWarning)
	if err != nil {
		return err
	}
	s.invalidateAll(ctx)
	s.logger.Info("player deactivated", "user_id", userID)
	return nil
}

// ReactivatePlayer restores an archived player to active status
func (s *LedgerService) ReactivatePlayer(ctx context.Context, userID uuid.UUID) error {
	err := s.store.SetStatusWithNotice(ctx, userID, domain.StatusActive, msgReactivated, domain.CategoryAnnouncement)
	if err != nil {
		return err
	}
	s.invalidateAll(ctx)
	s.logger.Info("player reactivated", "user_id", userID)
	return nil
}

// HubStats returns the admin dashboard counters
func (s *LedgerService) HubStats(ctx context.Context) (*domain.HubStats, error) {
	return s.store.HubStats(ctx)
}

// Broadcast sends a message to one player, or to every active player when no
// target is given. Returns the number of notifications written.
func (s *LedgerService) Broadcast(ctx context.Context, req domain.BroadcastRequest) (int64, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return 0, domain.ErrInvalidRequest
	}
	category := req.Category
	if category == "" {
		category = domain.CategoryAnnouncement
	}

	if req.UserID != nil {
		if _, err := s.store.GetUser(ctx, *req.UserID); err != nil {
			return 0, err
		}
		if err := s.store.NotifyUser(ctx, *req.UserID, message, category); err != nil {
			return 0, err
		}
		return 1, nil
	}

	return s.store.NotifyActivePlayers(ctx, message, category)
}

// ListNotifications returns a user's notifications, newest first
func (s *LedgerService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly, notificationPageSize)
}

// UnreadCount returns the number of unread notifications for a user
func (s *LedgerService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

// MarkNotificationRead flags one notification as read
func (s *LedgerService) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	return s.store.MarkNotificationRead(ctx, notificationID)
}

// MarkAllNotificationsRead flags all of a user's notifications as read
func (s *LedgerService) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

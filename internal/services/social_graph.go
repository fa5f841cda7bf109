package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/anonto42/wagwan/backend/validators"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	searchMinLength = 2
	searchLimit     = 10
	listLimit       = 50

	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// SocialGraph manages user profiles and the follow graph.
type SocialGraph struct {
	users         repositories.UserRepository
	follows       repositories.FollowRepository
	cache         repositories.UserCache
	notifications repositories.NotificationRepository
	validator     *validators.Validator
}

func NewSocialGraph(
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	cache repositories.UserCache,
	notifications repositories.NotificationRepository,
	validator *validators.Validator,
) *SocialGraph {
	return &SocialGraph{
		users:         users,
		follows:       follows,
		cache:         cache,
		notifications: notifications,
		validator:     validator,
	}
}

// UpsertUser creates the user or overwrites its profile fields with req.
func (s *SocialGraph) UpsertUser(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, newValidationError(err)
	}

	user, err := s.users.UpsertUser(ctx, &models.User{
		ID:        req.ID,
		Username:  req.Username,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newConflictError("username already taken", err)
		}
		return nil, newStoreError("failed to sync user", err)
	}

	storeUser(ctx, s.cache, user)
	return user, nil
}

func (s *SocialGraph) GetUser(ctx context.Context, id string) (*models.User, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		logger.WithField("user_id", id).WithError(err).Warn("user cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFoundError("user not found")
		}
		return nil, newStoreError("failed to fetch user", err)
	}

	// Fill never replaces an entry, so a row read before a concurrent
	// write cannot overwrite the writer's copy.
	if err := s.cache.Fill(ctx, user); err != nil {
		logger.WithField("user_id", id).WithError(err).Warn("user cache write failed")
	}
	return user, nil
}

// SearchUsers returns at most 10 users whose username contains query,
// ignoring case. Queries shorter than two characters match nothing.
func (s *SocialGraph) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < searchMinLength {
		return []models.User{}, nil
	}

	users, err := s.users.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, newStoreError("failed to search users", err)
	}
	return users, nil
}

func (s *SocialGraph) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.GetUsers(ctx, listLimit)
	if err != nil {
		return nil, newStoreError("failed to list users", err)
	}
	return users, nil
}

func (s *SocialGraph) Follow(ctx context.Context, req models.FollowRequest) error {
	if err := s.validateFollow(&req); err != nil {
		return err
	}
	if req.FollowerID == req.FollowingID {
		return newInvalidOperationError("cannot follow self")
	}

	err := s.follows.CreateFollow(ctx, &models.Follow{
		FollowerID:  req.FollowerID,
		FollowingID: req.FollowingID,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return newNotFoundError("user not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return newConflictError("already following this user", err)
		default:
			return newStoreError("failed to follow user", err)
		}
	}

	s.notify(ctx, []models.Notification{{
		Type:        models.NotificationTypeFollow,
		ActorID:     req.FollowerID,
		RecipientID: req.FollowingID,
		Message:     "started following you",
	}})
	return nil
}

// Unfollow removes the edge; it succeeds when there was nothing to remove.
func (s *SocialGraph) Unfollow(ctx context.Context, req models.FollowRequest) error {
	if err := s.validateFollow(&req); err != nil {
		return err
	}
	if err := s.follows.DeleteFollow(ctx, req.FollowerID, req.FollowingID); err != nil {
		return newStoreError("failed to unfollow user", err)
	}
	return nil
}

func (s *SocialGraph) IsFollowing(ctx context.Context, req models.FollowRequest) (bool, error) {
	if err := s.validateFollow(&req); err != nil {
		return false, err
	}
	following, err := s.follows.IsFollowing(ctx, req.FollowerID, req.FollowingID)
	if err != nil {
		return false, newStoreError("failed to check follow status", err)
	}
	return following, nil
}

func (s *SocialGraph) GetFollowStats(ctx context.Context, userID string) (*models.FollowStats, error) {
	stats, err := s.follows.GetFollowStats(ctx, userID)
	if err != nil {
		return nil, newStoreError("failed to fetch follow stats", err)
	}
	return stats, nil
}

func (s *SocialGraph) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	users, err := s.follows.GetFollowers(ctx, userID, listLimit)
	if err != nil {
		return nil, newStoreError("failed to list followers", err)
	}
	return users, nil
}

func (s *SocialGraph) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	users, err := s.follows.GetFollowing(ctx, userID, listLimit)
	if err != nil {
		return nil, newStoreError("failed to list followed users", err)
	}
	return users, nil
}

// ListNotifications returns the newest notifications for userID. limit is
// clamped to [1, MaxNotificationLimit]; zero means the default.
func (s *SocialGraph) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	notifications, err := s.notifications.GetByRecipientID(ctx, userID, limit)
	if err != nil {
		return nil, newStoreError("failed to fetch notifications", err)
	}
	return notifications, nil
}

func (s *SocialGraph) MarkNotificationsRead(ctx context.Context, userID string) error {
	if _, err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return newStoreError("failed to update notifications", err)
	}
	return nil
}

func (s *SocialGraph) validateFollow(req *models.FollowRequest) error {
	req.FollowerID = strings.TrimSpace(req.FollowerID)
	req.FollowingID = strings.TrimSpace(req.FollowingID)
	if err := s.validator.Validate(*req); err != nil {
		return newValidationError(err)
	}
	return nil
}

// storeUser writes a committed row through to the cache. If the write
// fails the entry is dropped so readers fall back to the database.
func storeUser(ctx context.Context, cache repositories.UserCache, user *models.User) {
	err := cache.Set(ctx, user)
	if err == nil {
		return
	}
	entry := logger.WithField("user_id", user.ID).WithError(err)
	entry.Warn("user cache write failed")
	if err := cache.Delete(ctx, user.ID); err != nil {
		entry.WithField("evict_error", err.Error()).Warn("user cache eviction failed")
	}
}

func (s *SocialGraph) notify(ctx context.Context, notifications []models.Notification) {
	sendNotifications(ctx, s.notifications, notifications)
}

// sendNotifications logs and drops failures; the triggering write stays
// committed either way.
func sendNotifications(ctx context.Context, repo repositories.NotificationRepository, notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}
	if err := repo.CreateNotifications(ctx, notifications); err != nil {
		logger.WithFields(logrus.Fields{
			"type":  notifications[0].Type,
			"actor": notifications[0].ActorID,
			"count": len(notifications),
		}).WithError(err).Warn("failed to store notifications")
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/anonto42/wagwan/backend/validators"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StreamLifecycle creates stream records and tracks their live status and
// viewer counts. Status is plain data: any transition the caller asks for
// is accepted.
type StreamLifecycle struct {
	streams       repositories.StreamRepository
	follows       repositories.FollowRepository
	cache         repositories.UserCache
	notifications repositories.NotificationRepository
	validator     *validators.Validator
	now           func() time.Time
}

func NewStreamLifecycle(
	streams repositories.StreamRepository,
	follows repositories.FollowRepository,
	cache repositories.UserCache,
	notifications repositories.NotificationRepository,
	validator *validators.Validator,
) *StreamLifecycle {
	return &StreamLifecycle{
		streams:       streams,
		follows:       follows,
		cache:         cache,
		notifications: notifications,
		validator:     validator,
		now:           time.Now,
	}
}

// CreateStream records a new broadcast. Streams start live unless the
// caller says otherwise, and get a room name of the form
// stream_<userId>_<unixMillis> when none is supplied.
func (s *StreamLifecycle) CreateStream(ctx context.Context, req models.CreateStreamRequest) (*models.Stream, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Validate(req); err != nil {
		return nil, newValidationError(err)
	}

	status := req.Status
	if status == "" {
		status = models.StreamStatusLive
	}
	roomName := req.LivekitRoomName
	if roomName == nil || strings.TrimSpace(*roomName) == "" {
		generated := fmt.Sprintf("stream_%s_%d", req.UserID, s.now().UnixMilli())
		roomName = &generated
	}

	stream := &models.Stream{
		UserID:          req.UserID,
		Title:           req.Title,
		Category:        req.Category,
		Status:          status,
		ViewerCount:     0,
		ThumbnailURL:    req.ThumbnailURL,
		LivekitRoomName: roomName,
	}
	owner, err := s.streams.CreateStream(ctx, stream)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, newNotFoundError("user not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, newConflictError("user already has a live stream", err)
		default:
			return nil, newStoreError("failed to create stream", err)
		}
	}

	// The owner's isStreamer flag may have flipped.
	storeUser(ctx, s.cache, owner)

	logger.WithFields(logrus.Fields{
		"stream_id": stream.ID,
		"user_id":   stream.UserID,
		"status":    stream.Status,
		"room":      *stream.LivekitRoomName,
	}).Info("stream created")

	if stream.Status == models.StreamStatusLive {
		s.notifyFollowers(ctx, stream)
	}
	return stream, nil
}

func (s *StreamLifecycle) GetStream(ctx context.Context, id uint) (*models.Stream, error) {
	stream, err := s.streams.GetStreamByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "failed to fetch stream")
	}
	return stream, nil
}

func (s *StreamLifecycle) ListLiveStreams(ctx context.Context) ([]models.Stream, error) {
	streams, err := s.streams.GetLiveStreams(ctx, listLimit)
	if err != nil {
		return nil, newStoreError("failed to list live streams", err)
	}
	return streams, nil
}

func (s *StreamLifecycle) ListUserStreams(ctx context.Context, userID string) ([]models.Stream, error) {
	streams, err := s.streams.GetStreamsByUserID(ctx, userID, listLimit)
	if err != nil {
		return nil, newStoreError("failed to list streams", err)
	}
	return streams, nil
}

// EndStream takes the stream offline and zeroes its viewer count.
func (s *StreamLifecycle) EndStream(ctx context.Context, id uint) (*models.Stream, error) {
	stream, err := s.streams.EndStream(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "failed to end stream")
	}
	logger.WithFields(logrus.Fields{"stream_id": id, "user_id": stream.UserID}).Info("stream ended")
	return stream, nil
}

func (s *StreamLifecycle) UpdateViewerCount(ctx context.Context, id uint, req models.UpdateViewerCountRequest) (*models.Stream, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, newValidationError(err)
	}
	stream, err := s.streams.UpdateViewerCount(ctx, id, *req.ViewerCount)
	if err != nil {
		return nil, s.lookupError(err, "failed to update viewer count")
	}
	return stream, nil
}

func (s *StreamLifecycle) lookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newNotFoundError("stream not found")
	}
	return newStoreError(message, err)
}

func (s *StreamLifecycle) notifyFollowers(ctx context.Context, stream *models.Stream) {
	followerIDs, err := s.follows.GetFollowerIDs(ctx, stream.UserID)
	if err != nil {
		logger.WithField("user_id", stream.UserID).WithError(err).Warn("failed to load followers for live notification")
		return
	}

	notifications := make([]models.Notification, 0, len(followerIDs))
	for _, followerID := range followerIDs {
		notifications = append(notifications, models.Notification{
			Type:        models.NotificationTypeLive,
			ActorID:     stream.UserID,
			RecipientID: followerID,
			StreamID:    stream.ID,
			Message:     "is live: " + stream.Title,
		})
	}
	sendNotifications(ctx, s.notifications, notifications)
}

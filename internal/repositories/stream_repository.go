package repositories

import (
	"context"

	"github.com/anonto42/wagwan/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreamRepository defines the interface for stream data operations
type StreamRepository interface {
	CreateStream(ctx context.Context, stream *models.Stream) (*models.User, error)
	GetStreamByID(ctx context.Context, id uint) (*models.Stream, error)
	GetLiveStreams(ctx context.Context, limit int) ([]models.Stream, error)
	GetStreamsByUserID(ctx context.Context, userID string, limit int) ([]models.Stream, error)
	EndStream(ctx context.Context, id uint) (*models.Stream, error)
	UpdateViewerCount(ctx context.Context, id uint, viewerCount int) (*models.Stream, error)
}

// PostgresStreamRepository implements StreamRepository for PostgreSQL
type PostgresStreamRepository struct {
	db *gorm.DB
}

// NewPostgresStreamRepository creates a new PostgresStreamRepository
func NewPostgresStreamRepository(db *gorm.DB) *PostgresStreamRepository {
	return &PostgresStreamRepository{db: db}
}

// CreateStream inserts stream and marks its owner as a streamer, returning
// the owner as committed. A live stream takes over from any stream the owner
// still has live. Returns gorm.ErrRecordNotFound for an unknown owner.
func (r *PostgresStreamRepository) CreateStream(ctx context.Context, stream *models.Stream) (*models.User, error) {
	var owner models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", stream.UserID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return gorm.ErrRecordNotFound
		}

		if stream.Status == models.StreamStatusLive {
			if err := tx.Model(&models.Stream{}).
				Where("user_id = ? AND status = ?", stream.UserID, models.StreamStatusLive).
				Updates(map[string]interface{}{
					"status":       models.StreamStatusOffline,
					"viewer_count": 0,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(stream).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", stream.UserID).Update("is_streamer", true).Error; err != nil {
			return err
		}
		return tx.First(&owner, "id = ?", stream.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// GetStreamByID retrieves a stream by ID; gorm.ErrRecordNotFound if absent.
func (r *PostgresStreamRepository) GetStreamByID(ctx context.Context, id uint) (*models.Stream, error) {
	var stream models.Stream
	if err := r.db.WithContext(ctx).First(&stream, id).Error; err != nil {
		return nil, err
	}
	return &stream, nil
}

// GetLiveStreams returns live streams, most watched first.
func (r *PostgresStreamRepository) GetLiveStreams(ctx context.Context, limit int) ([]models.Stream, error) {
	streams := []models.Stream{}
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StreamStatusLive).
		Order("viewer_count DESC").Order("id DESC").
		Limit(limit).
		Find(&streams).Error
	return streams, err
}

// GetStreamsByUserID returns the user's streams, newest first.
func (r *PostgresStreamRepository) GetStreamsByUserID(ctx context.Context, userID string, limit int) ([]models.Stream, error) {
	streams := []models.Stream{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&streams).Error
	return streams, err
}

// EndStream takes the stream offline and resets its viewer count.
func (r *PostgresStreamRepository) EndStream(ctx context.Context, id uint) (*models.Stream, error) {
	return r.update(ctx, id, map[string]interface{}{
		"status":       models.StreamStatusOffline,
		"viewer_count": 0,
	})
}

func (r *PostgresStreamRepository) UpdateViewerCount(ctx context.Context, id uint, viewerCount int) (*models.Stream, error) {
	return r.update(ctx, id, map[string]interface{}{"viewer_count": viewerCount})
}

func (r *PostgresStreamRepository) update(ctx context.Context, id uint, values map[string]interface{}) (*models.Stream, error) {
	var stream models.Stream
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stream, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Stream{}).Where("id = ?", id).Updates(values).Error; err != nil {
			return err
		}
		return tx.First(&stream, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &stream, nil
}

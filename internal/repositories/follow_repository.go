package repositories

import (
	"context"

	"github.com/anonto42/wagwan/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowStats(ctx context.Context, userID string) (*models.FollowStats, error)
	GetFollowers(ctx context.Context, userID string, limit int) ([]models.User, error)
	GetFollowing(ctx context.Context, userID string, limit int) ([]models.User, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge. It returns gorm.ErrRecordNotFound when
// either user is unknown and gorm.ErrDuplicatedKey when the edge exists.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).
			Where("id IN ?", []string{follow.FollowerID, follow.FollowingID}).
			Count(&users).Error; err != nil {
			return err
		}
		if users < 2 {
			return gorm.ErrRecordNotFound
		}

		var existing int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", follow.FollowerID, follow.FollowingID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return gorm.ErrDuplicatedKey
		}

		// A concurrent insert of the same pair still trips the primary key.
		return tx.Omit(clause.Associations).Create(follow).Error
	})
}

// DeleteFollow removes the edge if present. Removing a missing edge is not an error.
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowStats counts both sides of userID's edges in one statement so the
// pair comes from a single snapshot.
func (r *PostgresFollowRepository) GetFollowStats(ctx context.Context, userID string) (*models.FollowStats, error) {
	var stats models.FollowStats
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM follows WHERE following_id = ?) AS followers,
		(SELECT COUNT(*) FROM follows WHERE follower_id = ?) AS following`,
		userID, userID,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID string, limit int) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	users := []models.User{}
	err := db.Where("id IN (?)",
		db.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", userID),
	).Order("username").Limit(limit).Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID string, limit int) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	users := []models.User{}
	err := db.Where("id IN (?)",
		db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID),
	).Order("username").Limit(limit).Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

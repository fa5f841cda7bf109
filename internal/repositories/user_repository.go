package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/wagwan/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, limit int) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// UpsertUser inserts user or, when the ID already exists, overwrites its
// username, email, avatar and bio. It returns the stored row. A username held
// by another ID yields gorm.ErrDuplicatedKey.
func (r *PostgresUserRepository) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	var saved models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("username = ? AND id <> ?", user.Username, user.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "avatar_url", "bio"}),
		}).Create(user).Error; err != nil {
			return err
		}
		return tx.First(&saved, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetUserByID retrieves a user by ID; gorm.ErrRecordNotFound if absent.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers returns up to limit users in no particular order.
func (r *PostgresUserRepository) GetUsers(ctx context.Context, limit int) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchUsers matches query as a case-insensitive substring of the username.
// LIKE wildcards in query are matched literally.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	users := []models.User{}
	if err := r.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern).
		Order("username").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

package repositories

import (
	"fmt"

	"github.com/anonto42/wagwan/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate brings the relational schema up to date. It is safe to run
// repeatedly.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Stream{},
		&models.Follow{},
		&models.Subscription{},
		&models.ChatMessage{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Older deployments could hold several live rows per user; keep the
	// newest so the unique index below can be built.
	if err := db.Exec(`UPDATE streams SET status = 'offline'
		WHERE status = 'live' AND id NOT IN (
			SELECT MAX(id) FROM streams WHERE status = 'live' GROUP BY user_id
		)`).Error; err != nil {
		return fmt.Errorf("close duplicate live streams: %w", err)
	}

	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_streams_one_live_per_user
		ON streams (user_id) WHERE status = 'live'`).Error; err != nil {
		return fmt.Errorf("create live stream index: %w", err)
	}
	return nil
}

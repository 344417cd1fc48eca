package db

import (
	"errors"
	"fmt"

	"network/models"

	"gorm.io/gorm"
)

type namedMigration struct {
	name string
	run  func(tx *gorm.DB) error
}

// migrations run once each, in order, after AutoMigrate. Applied names are
// recorded in the migrations table.
var migrations = []namedMigration{
	{name: "0001_posts_timestamp_desc", run: createPostsTimestampIndex},
}

func (m *Manager) Migrate() error {
	err := m.ORM.AutoMigrate(
		&models.Migration{},
		&models.User{},
		&models.UserToken{},
		&models.Post{},
		&models.Like{},
		&models.Follow{},
		&models.Comment{},
	)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration %s: %w", mig.name, err)
		}
	}
	return nil
}

func (m *Manager) apply(mig namedMigration) error {
	return m.ORM.Transaction(func(tx *gorm.DB) error {
		var applied models.Migration
		err := tx.Where("name = ?", mig.name).First(&applied).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := mig.run(tx); err != nil {
			return err
		}
		return tx.Create(&models.Migration{Name: mig.name}).Error
	})
}

// createPostsTimestampIndex backs the newest-first feed ordering.
func createPostsTimestampIndex(tx *gorm.DB) error {
	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_posts_timestamp_id ON posts (timestamp DESC, id DESC);
	`
	if err := tx.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create index idx_posts_timestamp_id: %w", err)
	}
	return nil
}

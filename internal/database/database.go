package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// Migrate runs auto-migration for all entities and creates the indexes
// GORM tags cannot express. Shelf name uniqueness is per user and
// case-insensitive, so it needs a functional unique index; relying on an
// application-level scan alone would leave a check-then-act race between
// concurrent creates.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Shelf{},
		&entities.ShelfItem{},
		&entities.Review{},
		&entities.ActivityEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shelves_user_lower_name ON shelves(user_id, LOWER(name))`,
	).Error
	if err != nil {
		return fmt.Errorf("failed to create shelf name index: %w", err)
	}

	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

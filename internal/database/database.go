package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealbridge/backend/config"
	"github.com/mealbridge/backend/internal/models"
)

// New opens the configured database backend and runs migrations. The sqlite
// driver covers the single-binary deployment, postgres the server one; both
// are served by the same GORM store.
func New(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		)
		log.Printf("Connecting to database at %s:%s as user %s", cfg.DBHost, cfg.DBPort, cfg.DBUser)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Successfully connected to %s database", cfg.DBDriver)
	return db, nil
}

// Migrate creates or updates the bridge's tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Token{},
		&models.Food{},
		&models.IdempotencyKey{},
		&models.MealLog{},
	); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/models"
)

// RunMigrations brings the schema up to date. Postgres needs the pgvector
// extension before the recipes table can be created.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log = logger.OrNop(log)

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Applied migrations", zap.String("driver", db.Dialector.Name()), zap.Int("models", len(models.All())))
	return nil
}

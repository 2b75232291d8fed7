package team

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Setup migrates the teams table and seeds the default clubs.
func Setup(ctx context.Context, db *gorm.DB) error {
	if err := db.AutoMigrate(&Team{}); err != nil {
		return fmt.Errorf("migrate teams: %w", err)
	}
	n, err := NewRepository(db).Seed(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("teams", n).Msg("seeded teams")
	}
	return nil
}

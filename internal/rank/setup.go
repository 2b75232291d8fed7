package rank

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Migrate creates or updates the rank ledger table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrate rank_records: %w", err)
	}
	log.Info().Msg("rank ledger table migrated")
	return nil
}

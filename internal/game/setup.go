package game

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Game{}); err != nil {
		return fmt.Errorf("migrate games: %w", err)
	}
	return nil
}

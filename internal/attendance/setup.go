package attendance

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RegisteredGame{}); err != nil {
		return fmt.Errorf("migrate registered games: %w", err)
	}
	return nil
}

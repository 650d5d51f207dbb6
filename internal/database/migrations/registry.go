package migrations

import (
	"gorm.io/gorm"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// AllMigrations returns the registered migrations in order.
func AllMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "create jobs and cost ledger tables",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Job{},
					&models.CostLedgerEntry{},
				)
			},
		},
	}
}

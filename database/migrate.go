package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// requiredIndexes are the indexes the availability lookup and the
// reconciler sweep depend on, keyed by the model that declares them.
var requiredIndexes = []struct {
	model interface{}
	name  string
}{
	{&models.Assignment{}, "idx_assignments_table_date"},
	{&models.Assignment{}, "idx_assignments_reservation_table"},
	{&models.Reservation{}, "idx_reservations_date_status"},
}

// Migrate creates or updates the schema and then verifies the indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Table{},
		&models.Reservation{},
		&models.Assignment{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	m := db.Migrator()
	for _, idx := range requiredIndexes {
		if m.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := m.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
		utils.InfoLogger.Infof("Index created: %s", idx.name)
	}
	return nil
}

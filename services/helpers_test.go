package services

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-reservations/models"
)

var staff = Caller{UserID: 42, Role: "staff"}

// setupTestDB opens a private in-memory database. A single connection keeps
// every query on the same database and serializes transactions.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Table{}, &models.Reservation{}, &models.Assignment{}))
	return db
}

func seedTable(t *testing.T, db *gorm.DB, number string, capacity int, active bool) models.Table {
	t.Helper()
	table := models.Table{Number: number, Capacity: capacity, Zone: models.ZoneIndoor, Active: active}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func seedReservation(t *testing.T, db *gorm.DB, date, start string, end *string, status models.ReservationStatus) models.Reservation {
	t.Helper()
	r := models.Reservation{Date: date, StartTime: start, EndTime: end, PartySize: 4, Status: status}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func strPtr(s string) *string { return &s }

// countWrites counts every create, update and delete statement that runs
// against db from now on.
func countWrites(t *testing.T, db *gorm.DB) *int64 {
	t.Helper()
	var n int64
	inc := func(tx *gorm.DB) {
		if tx.Error == nil {
			atomic.AddInt64(&n, 1)
		}
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:count_create", inc))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:count_update", inc))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:count_delete", inc))
	return &n
}

func tableIDs(tables []models.Table) []uint {
	ids := make([]uint, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	return ids
}

func assignedIDs(t *testing.T, db *gorm.DB, reservationID uint) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, db.Model(&models.Assignment{}).
		Where("reservation_id = ?", reservationID).
		Order("table_id").
		Pluck("table_id", &ids).Error)
	return ids
}

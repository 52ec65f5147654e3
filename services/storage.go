package services

import (
	"database/sql"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-reservations/models"
)

// forUpdate row-locks the selected rows until the transaction ends. SQLite
// has no row locks; its single writer already serializes transactions.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// assignTxOptions runs assignment transactions at READ COMMITTED on server
// databases. Under MySQL's default REPEATABLE READ a plain read after a row
// lock wait still sees the snapshot taken before the wait, missing rows a
// competing writer has just committed.
func assignTxOptions(dialect string) []*sql.TxOptions {
	if dialect == "sqlite" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelReadCommitted}}
}

// busyTableIDs returns every table with an assignment on date that belongs
// to a non-cancelled reservation other than exclude and overlaps w.
func busyTableIDs(tx *gorm.DB, date string, w TimeWindow, exclude uint) ([]uint, error) {
	q := tx.Model(&models.Assignment{}).
		Joins("JOIN reservations ON reservations.id = assignments.reservation_id").
		Where("assignments.date = ?", date).
		Where("reservations.status <> ?", models.ReservationStatusCancelled).
		Where("assignments.start_time < ? AND assignments.end_time > ?", w.End.String(), w.Start.String())
	if exclude != 0 {
		q = q.Where("assignments.reservation_id <> ?", exclude)
	}

	var ids []uint
	if err := q.Pluck("assignments.table_id", &ids).Error; err != nil {
		return nil, err
	}
	return uniqueIDs(ids), nil
}

// uniqueIDs returns ids sorted ascending without duplicates.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

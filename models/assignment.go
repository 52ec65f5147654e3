package models

import "time"

// Assignment links one reservation to one table. The window is copied from
// the reservation when the assignment is committed and is not recomputed.
type Assignment struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ReservationID uint         `gorm:"not null;uniqueIndex:idx_assignments_reservation_table,priority:1" json:"reservation_id"`
	Reservation   *Reservation `gorm:"foreignKey:ReservationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TableID       uint         `gorm:"not null;uniqueIndex:idx_assignments_reservation_table,priority:2;index:idx_assignments_table_date,priority:1" json:"table_id"`
	Table         *Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	Date          string       `gorm:"type:varchar(10);not null;index:idx_assignments_table_date,priority:2" json:"date"`
	StartTime     string       `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime       string       `gorm:"type:varchar(5);not null" json:"end_time"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

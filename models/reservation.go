package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationStatusNew       ReservationStatus = "new"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCompleted || s == ReservationStatusCancelled
}

// IsValid reports whether s is a known status.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusNew, ReservationStatusConfirmed, ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation dates are stored as YYYY-MM-DD and times as HH:MM so that
// lexical comparison in SQL matches chronological order on every driver.
type Reservation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Date        string            `gorm:"type:varchar(10);not null;index:idx_reservations_date_status,priority:1" json:"date"`
	StartTime   string            `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     *string           `gorm:"type:varchar(5)" json:"end_time"`
	PartySize   int               `gorm:"not null" json:"party_size"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;index:idx_reservations_date_status,priority:2" json:"status"`
	Assignments []Assignment      `gorm:"foreignKey:ReservationID" json:"assignments,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

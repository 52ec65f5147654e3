package models

import "time"

// Zone is the coarse physical location category of a table.
type Zone string

const (
	ZoneIndoor    Zone = "indoor"
	ZoneGarden    Zone = "garden"
	ZoneRoom      Zone = "room"
	ZoneMezzanine Zone = "mezzanine"
	ZoneTerrace   Zone = "terrace"
	ZoneBar       Zone = "bar"
)

// Zones lists every zone accepted by table management.
var Zones = []Zone{ZoneIndoor, ZoneGarden, ZoneRoom, ZoneMezzanine, ZoneTerrace, ZoneBar}

// IsValidZone reports whether z is one of Zones.
func IsValidZone(z string) bool {
	for _, zone := range Zones {
		if string(zone) == z {
			return true
		}
	}
	return false
}

// Table is a physical table. Inactive tables are never offered for new
// assignments but stay attached to the reservations that already hold them.
type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    string    `gorm:"type:varchar(50);not null;index" json:"number"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Zone      Zone      `gorm:"type:varchar(20);not null" json:"zone"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

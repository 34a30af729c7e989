package models

import "time"

// Room represents a bookable room in the catalog.
type Room struct {
	ID               string    `bson:"id" json:"id"`
	Number           string    `bson:"number" json:"number"`
	Type             string    `bson:"type" json:"type"` // e.g. "standard", "deluxe", "suite"
	NightlyRate      int64     `bson:"nightlyRate" json:"nightlyRate"` // minor units
	UnderMaintenance bool      `bson:"underMaintenance" json:"underMaintenance"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionModel represents the database model for vehicle connections
type ConnectionModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	VehicleID    string    `gorm:"type:text;not null;index"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text;not null"`
	Make         *string   `gorm:"type:text"`
	Model        *string   `gorm:"type:text"`
	Year         *int
	VIN          *string   `gorm:"type:text"`
	IsActive     bool      `gorm:"not null;default:true;index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (ConnectionModel) TableName() string {
	return "vehicle_connections"
}

// VehicleStateModel represents the database model for per-connection vehicle
// state. Connection id is the unique key; the row is overwritten every poll.
type VehicleStateModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ConnectionID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	LastOdometerKm   *float64   `gorm:"type:decimal(12,3)"`
	LastLatitude     *float64   `gorm:"type:decimal(9,6)"`
	LastLongitude    *float64   `gorm:"type:decimal(9,6)"`
	LastPollAt       *time.Time `gorm:"type:timestamptz"`
	CurrentTripID    *uuid.UUID `gorm:"type:uuid"`
	PollFrequencySec int        `gorm:"not null;default:120"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (VehicleStateModel) TableName() string {
	return "vehicle_states"
}

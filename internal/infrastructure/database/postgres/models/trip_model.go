package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
)

// Route stores an ordered list of coordinates as a JSON column.
type Route []trip.LatLng

func (r Route) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Route) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported route column type %T", value)
	}
}

// GormDataType keeps AutoMigrate producing a JSON-ish column on both
// postgres and the sqlite test driver.
func (Route) GormDataType() string {
	return "json"
}

// TripModel represents the database model for trips
type TripModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ConnectionID *uuid.UUID `gorm:"type:uuid;index"`

	StartTime time.Time  `gorm:"not null;index"`
	EndTime   *time.Time `gorm:"type:timestamptz"`

	StartLat float64  `gorm:"type:decimal(9,6);not null"`
	StartLng float64  `gorm:"type:decimal(9,6);not null"`
	EndLat   *float64 `gorm:"type:decimal(9,6)"`
	EndLng   *float64 `gorm:"type:decimal(9,6)"`

	DistanceKm      float64 `gorm:"type:decimal(10,3);not null;default:0"`
	DurationMinutes float64 `gorm:"type:decimal(10,2);not null;default:0"`
	OdometerKm      float64 `gorm:"type:decimal(12,3);not null"`
	Route           Route   `gorm:"type:json"`

	Status      string  `gorm:"type:text;not null;default:'active';index"`
	Type        string  `gorm:"type:text;not null;default:'unknown'"`
	IsAutomatic bool    `gorm:"not null;default:false"`
	Notes       *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (TripModel) TableName() string {
	return "sense_trips"
}

// ProfileModel represents the per-user trip detection settings row
type ProfileModel struct {
	UserID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	MovementThresholdM   *float64  `gorm:"type:decimal(8,2)"`
	StationaryTimeoutMin *int
	MinimumDistanceM     *float64 `gorm:"type:decimal(8,2)"`
	MaxDurationHours     *int
	UpdatedAt            time.Time `gorm:"not null"`
}

func (ProfileModel) TableName() string {
	return "sense_profiles"
}

// VehicleDataHistoryModel is an append-only log of raw provider readings,
// kept for observability only.
type VehicleDataHistoryModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConnectionID uuid.UUID `gorm:"type:uuid;not null;index"`
	OdometerKm   *float64  `gorm:"type:decimal(12,3)"`
	Latitude     *float64  `gorm:"type:decimal(9,6)"`
	Longitude    *float64  `gorm:"type:decimal(9,6)"`
	Errors       *string   `gorm:"type:text"`
	RecordedAt   time.Time `gorm:"not null;index"`
}

func (VehicleDataHistoryModel) TableName() string {
	return "vehicle_data_history"
}

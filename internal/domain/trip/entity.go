package trip

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the status of a trip
type TripStatus string

const (
	StatusActive    TripStatus = "active"
	StatusPaused    TripStatus = "paused"
	StatusCompleted TripStatus = "completed"
)

// TripType is the user-facing classification of a trip
type TripType string

const (
	TypeWork     TripType = "work"
	TypePersonal TripType = "personal"
	TypeUnknown  TripType = "unknown"
)

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is a usable GPS fix. NaN/Inf and
// out-of-range values coming back from the provider are rejected at the
// boundary instead of ending up in a route.
func (l LatLng) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0) || math.IsNaN(l.Lng) || math.IsInf(l.Lng, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Trip represents a recorded journey entity in the domain
type Trip struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ConnectionID *uuid.UUID

	StartTime time.Time
	EndTime   *time.Time

	StartLocation LatLng
	EndLocation   *LatLng

	DistanceKm      float64
	DurationMinutes float64
	OdometerKm      float64 // odometer reading at trip start
	Route           []LatLng

	Status      TripStatus
	Type        TripType
	IsAutomatic bool
	Notes       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age returns how long the trip has been running.
func (t *Trip) Age(now time.Time) time.Duration {
	return now.Sub(t.StartTime)
}

// IsActive reports whether the trip is still being recorded.
func (t *Trip) IsActive() bool {
	return t.Status == StatusActive
}

package connection

import (
	"time"

	"github.com/google/uuid"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
)

// VehicleConnection represents a linked vehicle entity in the domain.
// Created on a successful OAuth exchange with the telematics provider;
// deactivated (never hard-deleted) on disconnect.
type VehicleConnection struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// VehicleID is the provider's identifier for the vehicle.
	VehicleID string

	// Provider tokens, mutated in place on refresh.
	AccessToken  string
	RefreshToken string

	Make  *string
	Model *string
	Year  *int
	VIN   *string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VehicleState is the last-known snapshot for a connection, one row per
// connection. It is continuously overwritten and never historical.
type VehicleState struct {
	ConnectionID uuid.UUID

	// LastOdometerKm is the movement anchor: it only advances when a real
	// movement is observed, so sub-threshold creep accumulates against it.
	LastOdometerKm *float64

	LastLocation *trip.LatLng
	LastPollAt   *time.Time

	// CurrentTripID is the trip currently considered in progress, if any.
	CurrentTripID *uuid.UUID

	// PollFrequencySec is the adaptive polling interval for this vehicle.
	PollFrequencySec int

	UpdatedAt time.Time
}

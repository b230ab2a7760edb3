package trip

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for trip repository operations
type Repository interface {
	Create(ctx context.Context, trip *Trip) error
	GetByID(ctx context.Context, tripID uuid.UUID) (*Trip, error)

	// GetActiveByConnection returns the active trip for a connection, or
	// (nil, nil) when there is none.
	GetActiveByConnection(ctx context.Context, connectionID uuid.UUID) (*Trip, error)

	Update(ctx context.Context, trip *Trip) error

	// ExtendStationary updates distance, duration and route of an active trip
	// without touching updated_at, so the stationary-timeout clock keeps
	// running.
	ExtendStationary(ctx context.Context, tripID uuid.UUID, distanceKm, durationMinutes float64, route []LatLng) error

	Delete(ctx context.Context, tripID uuid.UUID) error
	List(ctx context.Context, filter *Filter) ([]*Trip, int64, error)
}

// ProfileRepository reads per-user trip detection settings.
type ProfileRepository interface {
	// GetByUserID returns (nil, nil) when the user has no profile row.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// Filter represents filtering options for listing trips
type Filter struct {
	UserID       *uuid.UUID
	ConnectionID *uuid.UUID
	Status       *TripStatus
	Type         *TripType
	IsAutomatic  *bool

	StartedAfter  *time.Time
	StartedBefore *time.Time

	Page     int
	PageSize int
}

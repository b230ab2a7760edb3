package connection

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for vehicle connection operations
type Repository interface {
	Create(ctx context.Context, conn *VehicleConnection) error
	GetByID(ctx context.Context, connectionID uuid.UUID) (*VehicleConnection, error)
	ListActive(ctx context.Context) ([]*VehicleConnection, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*VehicleConnection, error)
	UpdateTokens(ctx context.Context, connectionID uuid.UUID, accessToken, refreshToken string) error
	Deactivate(ctx context.Context, connectionID uuid.UUID) error
}

// StateRepository persists the per-connection vehicle state snapshot.
type StateRepository interface {
	// Get returns (nil, nil) when no state row exists yet.
	Get(ctx context.Context, connectionID uuid.UUID) (*VehicleState, error)

	// Upsert writes the snapshot: update by connection id, insert when no row
	// was affected. Idempotent under retries; connection id is the unique key.
	Upsert(ctx context.Context, state *VehicleState) error
}

package connections

import (
	"time"

	"github.com/google/uuid"

	domainConn "github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
)

type RegisterConnectionRequest struct {
	VehicleID    string  `json:"vehicle_id" validate:"required,min=1,max=255"`
	AccessToken  string  `json:"access_token" validate:"required"`
	RefreshToken string  `json:"refresh_token" validate:"required"`
	Make         *string `json:"make" validate:"omitempty,max=50"`
	Model        *string `json:"model" validate:"omitempty,max=50"`
	Year         *int    `json:"year" validate:"omitempty,min=1900,max=2100"`
	VIN          *string `json:"vin" validate:"omitempty,max=17"`
}

type ConnectionResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	VehicleID string    `json:"vehicle_id"`
	Make      *string   `json:"make"`
	Model     *string   `json:"model"`
	Year      *int      `json:"year"`
	VIN       *string   `json:"vin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConnectionStatusResponse struct {
	ConnectionID     uuid.UUID          `json:"connection_id"`
	OdometerKm       *float64           `json:"odometer_km"`
	Location         *domainTrip.LatLng `json:"location"`
	CurrentTripID    *uuid.UUID         `json:"current_trip_id"`
	PollFrequencySec int                `json:"poll_frequency_sec"`
	LastPollAt       *time.Time         `json:"last_poll_at"`
}

func ToConnectionResponse(c *domainConn.VehicleConnection) *ConnectionResponse {
	return &ConnectionResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		VehicleID: c.VehicleID,
		Make:      c.Make,
		Model:     c.Model,
		Year:      c.Year,
		VIN:       c.VIN,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

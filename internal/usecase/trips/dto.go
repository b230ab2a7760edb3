package trips

import (
	"time"

	"github.com/google/uuid"

	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
)

type ListTripsRequest struct {
	ConnectionID  *uuid.UUID             `form:"connection_id"`
	Status        *domainTrip.TripStatus `form:"status" validate:"omitempty,oneof=active paused completed"`
	Type          *domainTrip.TripType   `form:"type" validate:"omitempty,oneof=work personal unknown"`
	IsAutomatic   *bool                  `form:"is_automatic"`
	StartedAfter  *time.Time             `form:"started_after" time_format:"2006-01-02T15:04:05Z07:00"`
	StartedBefore *time.Time             `form:"started_before" time_format:"2006-01-02T15:04:05Z07:00"`
	Page          int                    `form:"page" validate:"omitempty,min=1"`
	PageSize      int                    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type ClassifyTripRequest struct {
	Type  domainTrip.TripType `json:"type" validate:"required,oneof=work personal"`
	Notes *string             `json:"notes" validate:"omitempty,max=500"`
}

type TripResponse struct {
	ID              uuid.UUID            `json:"id"`
	UserID          uuid.UUID            `json:"user_id"`
	ConnectionID    *uuid.UUID           `json:"connection_id"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         *time.Time           `json:"end_time"`
	StartLocation   domainTrip.LatLng    `json:"start_location"`
	EndLocation     *domainTrip.LatLng   `json:"end_location"`
	DistanceKm      float64              `json:"distance_km"`
	DurationMinutes float64              `json:"duration_minutes"`
	Route           []domainTrip.LatLng  `json:"route"`
	Status          domainTrip.TripStatus `json:"status"`
	Type            domainTrip.TripType  `json:"type"`
	IsAutomatic     bool                 `json:"is_automatic"`
	Notes           *string              `json:"notes"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type TripListResponse struct {
	Trips      []TripResponse `json:"trips"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

func ToTripResponse(t *domainTrip.Trip) *TripResponse {
	return &TripResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		ConnectionID:    t.ConnectionID,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		StartLocation:   t.StartLocation,
		EndLocation:     t.EndLocation,
		DistanceKm:      t.DistanceKm,
		DurationMinutes: t.DurationMinutes,
		Route:           t.Route,
		Status:          t.Status,
		Type:            t.Type,
		IsAutomatic:     t.IsAutomatic,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

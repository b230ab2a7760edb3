package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
	appErrors "github.com/magnusfroste/auto-sense-sub000/pkg/apperrors"
	"github.com/magnusfroste/auto-sense-sub000/pkg/utils"
)

// Service implements trip use cases for the HTTP surface. The automatic
// engine writes trips directly through the repository; this service only
// covers reads and user-driven edits.
type Service struct {
	tripRepo domainTrip.Repository
}

func NewService(tripRepo domainTrip.Repository) *Service {
	return &Service{tripRepo: tripRepo}
}

func (s *Service) ListTrips(ctx context.Context, userID uuid.UUID, req *ListTripsRequest) (*TripListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	filter := &domainTrip.Filter{
		UserID:        &userID,
		ConnectionID:  req.ConnectionID,
		Status:        req.Status,
		Type:          req.Type,
		IsAutomatic:   req.IsAutomatic,
		StartedAfter:  req.StartedAfter,
		StartedBefore: req.StartedBefore,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}

	trips, total, err := s.tripRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]TripResponse, len(trips))
	for i, t := range trips {
		responses[i] = *ToTripResponse(t)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize > 0 {
		totalPages++
	}

	return &TripListResponse{
		Trips:      responses,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*TripResponse, error) {
	t, err := s.getOwnedTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	return ToTripResponse(t), nil
}

// ClassifyTrip sets the work/personal type on a completed trip.
func (s *Service) ClassifyTrip(ctx context.Context, userID, tripID uuid.UUID, req *ClassifyTripRequest) (*TripResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	t, err := s.getOwnedTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if t.IsActive() {
		return nil, appErrors.NewAppError("TRIP_ACTIVE", "Cannot classify a trip that is still recording", nil)
	}

	t.Type = req.Type
	if req.Notes != nil {
		t.Notes = req.Notes
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.tripRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	logger.Info("Trip classified",
		zap.String("trip_id", t.ID.String()),
		zap.String("type", string(t.Type)),
	)

	return ToTripResponse(t), nil
}

func (s *Service) DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	t, err := s.getOwnedTrip(ctx, userID, tripID)
	if err != nil {
		return err
	}

	if t.IsActive() {
		return appErrors.NewAppError("TRIP_ACTIVE", "Cannot delete a trip that is still recording", nil)
	}

	if err := s.tripRepo.Delete(ctx, t.ID); err != nil {
		return err
	}

	logger.Info("Trip deleted", zap.String("trip_id", t.ID.String()))
	return nil
}

// getOwnedTrip loads a trip and checks ownership. A trip belonging to
// another user is reported as not found, never as forbidden.
func (s *Service) getOwnedTrip(ctx context.Context, userID, tripID uuid.UUID) (*domainTrip.Trip, error) {
	t, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domainTrip.ErrTripNotFound
	}
	return t, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres/models"
)

type TripRepository struct {
	db *DB
}

func NewTripRepository(db *DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	if t.Status == "" {
		t.Status = trip.StatusActive
	}
	if t.Type == "" {
		t.Type = trip.TypeUnknown
	}

	dbModel := toTripModel(t)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, tripID uuid.UUID) (*trip.Trip, error) {
	var dbModel models.TripModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", tripID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, trip.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return toTripEntity(&dbModel), nil
}

func (r *TripRepository) GetActiveByConnection(ctx context.Context, connectionID uuid.UUID) (*trip.Trip, error) {
	var dbModel models.TripModel
	err := r.db.DB.WithContext(ctx).
		Where("connection_id = ? AND status = ?", connectionID, string(trip.StatusActive)).
		Order("start_time DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active trip: %w", err)
	}

	return toTripEntity(&dbModel), nil
}

func (r *TripRepository) Update(ctx context.Context, t *trip.Trip) error {
	t.UpdatedAt = time.Now()

	var endLat, endLng *float64
	if t.EndLocation != nil {
		endLat = &t.EndLocation.Lat
		endLng = &t.EndLocation.Lng
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.TripModel{ID: t.ID}).
		Select("end_time", "end_lat", "end_lng", "distance_km", "duration_minutes",
			"route", "status", "type", "notes", "updated_at").
		Updates(map[string]interface{}{
			"end_time":         t.EndTime,
			"end_lat":          endLat,
			"end_lng":          endLng,
			"distance_km":      t.DistanceKm,
			"duration_minutes": t.DurationMinutes,
			"route":            models.Route(t.Route),
			"status":           string(t.Status),
			"type":             string(t.Type),
			"notes":            t.Notes,
			"updated_at":       t.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update trip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return trip.ErrTripNotFound
	}

	return nil
}

// ExtendStationary grows distance, duration and route of a trip that is
// sitting still. UpdateColumns keeps updated_at untouched: it marks the last
// real movement, and advancing it here would reset the stationary-timeout
// clock every poll.
func (r *TripRepository) ExtendStationary(ctx context.Context, tripID uuid.UUID, distanceKm, durationMinutes float64, route []trip.LatLng) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.TripModel{ID: tripID}).
		Select("distance_km", "duration_minutes", "route").
		UpdateColumns(&models.TripModel{
			DistanceKm:      distanceKm,
			DurationMinutes: durationMinutes,
			Route:           models.Route(route),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to extend trip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return trip.ErrTripNotFound
	}

	return nil
}

func (r *TripRepository) Delete(ctx context.Context, tripID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", tripID).
		Delete(&models.TripModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete trip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return trip.ErrTripNotFound
	}

	return nil
}

func (r *TripRepository) List(ctx context.Context, filter *trip.Filter) ([]*trip.Trip, int64, error) {
	query := r.db.DB.WithContext(ctx).Model(&models.TripModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ConnectionID != nil {
		query = query.Where("connection_id = ?", *filter.ConnectionID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.IsAutomatic != nil {
		query = query.Where("is_automatic = ?", *filter.IsAutomatic)
	}
	if filter.StartedAfter != nil {
		query = query.Where("start_time >= ?", *filter.StartedAfter)
	}
	if filter.StartedBefore != nil {
		query = query.Where("start_time <= ?", *filter.StartedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var dbModels []models.TripModel
	err := query.
		Order("start_time DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}

	trips := make([]*trip.Trip, 0, len(dbModels))
	for i := range dbModels {
		trips = append(trips, toTripEntity(&dbModels[i]))
	}
	return trips, total, nil
}

func toTripModel(t *trip.Trip) *models.TripModel {
	m := &models.TripModel{
		ID:              t.ID,
		UserID:          t.UserID,
		ConnectionID:    t.ConnectionID,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		StartLat:        t.StartLocation.Lat,
		StartLng:        t.StartLocation.Lng,
		DistanceKm:      t.DistanceKm,
		DurationMinutes: t.DurationMinutes,
		OdometerKm:      t.OdometerKm,
		Route:           models.Route(t.Route),
		Status:          string(t.Status),
		Type:            string(t.Type),
		IsAutomatic:     t.IsAutomatic,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.EndLocation != nil {
		m.EndLat = &t.EndLocation.Lat
		m.EndLng = &t.EndLocation.Lng
	}
	return m
}

func toTripEntity(m *models.TripModel) *trip.Trip {
	t := &trip.Trip{
		ID:              m.ID,
		UserID:          m.UserID,
		ConnectionID:    m.ConnectionID,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		StartLocation:   trip.LatLng{Lat: m.StartLat, Lng: m.StartLng},
		DistanceKm:      m.DistanceKm,
		DurationMinutes: m.DurationMinutes,
		OdometerKm:      m.OdometerKm,
		Route:           []trip.LatLng(m.Route),
		Status:          trip.TripStatus(m.Status),
		Type:            trip.TripType(m.Type),
		IsAutomatic:     m.IsAutomatic,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.EndLat != nil && m.EndLng != nil {
		t.EndLocation = &trip.LatLng{Lat: *m.EndLat, Lng: *m.EndLng}
	}
	return t
}

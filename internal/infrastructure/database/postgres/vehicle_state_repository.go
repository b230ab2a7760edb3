package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres/models"
)

type VehicleStateRepository struct {
	db *DB
}

func NewVehicleStateRepository(db *DB) *VehicleStateRepository {
	return &VehicleStateRepository{db: db}
}

func (r *VehicleStateRepository) Get(ctx context.Context, connectionID uuid.UUID) (*connection.VehicleState, error) {
	var dbModel models.VehicleStateModel
	err := r.db.DB.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle state: %w", err)
	}

	return toStateEntity(&dbModel), nil
}

// Upsert writes the state snapshot as update-then-insert. Connection id is
// unique, so retrying the same payload can never produce a second row; a
// concurrent insert losing the race falls back to the update path.
func (r *VehicleStateRepository) Upsert(ctx context.Context, state *connection.VehicleState) error {
	state.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.VehicleStateModel{}).
		Where("connection_id = ?", state.ConnectionID).
		Updates(stateColumns(state))

	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle state: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	dbModel := toStateModel(state)
	dbModel.ID = uuid.New()
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err == nil {
		return nil
	}

	// Lost an insert race: the row exists now, update it instead.
	result = r.db.DB.WithContext(ctx).
		Model(&models.VehicleStateModel{}).
		Where("connection_id = ?", state.ConnectionID).
		Updates(stateColumns(state))
	if result.Error != nil {
		return fmt.Errorf("failed to upsert vehicle state: %w", result.Error)
	}

	return nil
}

func stateColumns(s *connection.VehicleState) map[string]interface{} {
	var lat, lng *float64
	if s.LastLocation != nil {
		lat = &s.LastLocation.Lat
		lng = &s.LastLocation.Lng
	}
	return map[string]interface{}{
		"last_odometer_km":   s.LastOdometerKm,
		"last_latitude":      lat,
		"last_longitude":     lng,
		"last_poll_at":       s.LastPollAt,
		"current_trip_id":    s.CurrentTripID,
		"poll_frequency_sec": s.PollFrequencySec,
		"updated_at":         s.UpdatedAt,
	}
}

func toStateModel(s *connection.VehicleState) *models.VehicleStateModel {
	m := &models.VehicleStateModel{
		ConnectionID:     s.ConnectionID,
		LastOdometerKm:   s.LastOdometerKm,
		LastPollAt:       s.LastPollAt,
		CurrentTripID:    s.CurrentTripID,
		PollFrequencySec: s.PollFrequencySec,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.LastLocation != nil {
		m.LastLatitude = &s.LastLocation.Lat
		m.LastLongitude = &s.LastLocation.Lng
	}
	return m
}

func toStateEntity(m *models.VehicleStateModel) *connection.VehicleState {
	s := &connection.VehicleState{
		ConnectionID:     m.ConnectionID,
		LastOdometerKm:   m.LastOdometerKm,
		LastPollAt:       m.LastPollAt,
		CurrentTripID:    m.CurrentTripID,
		PollFrequencySec: m.PollFrequencySec,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.LastLatitude != nil && m.LastLongitude != nil {
		s.LastLocation = &trip.LatLng{Lat: *m.LastLatitude, Lng: *m.LastLongitude}
	}
	return s
}

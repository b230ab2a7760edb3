package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres/models"
)

// HistoryRepository appends raw provider readings to vehicle_data_history.
// Write-only from the service; the table exists for observability.
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, connectionID uuid.UUID, odometerKm *float64, location *trip.LatLng, readErrors []string) error {
	record := &models.VehicleDataHistoryModel{
		ID:           uuid.New(),
		ConnectionID: connectionID,
		OdometerKm:   odometerKm,
		RecordedAt:   time.Now(),
	}
	if location != nil {
		record.Latitude = &location.Lat
		record.Longitude = &location.Lng
	}
	if len(readErrors) > 0 {
		joined := strings.Join(readErrors, "; ")
		record.Errors = &joined
	}

	if err := r.db.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append vehicle data history: %w", err)
	}
	return nil
}

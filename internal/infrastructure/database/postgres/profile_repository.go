package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres/models"
)

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*trip.Profile, error) {
	var dbModel models.ProfileModel
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip profile: %w", err)
	}

	return &trip.Profile{
		UserID:               dbModel.UserID,
		MovementThresholdM:   dbModel.MovementThresholdM,
		StationaryTimeoutMin: dbModel.StationaryTimeoutMin,
		MinimumDistanceM:     dbModel.MinimumDistanceM,
		MaxDurationHours:     dbModel.MaxDurationHours,
		UpdatedAt:            dbModel.UpdatedAt,
	}, nil
}

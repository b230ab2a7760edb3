package autotrip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

// ConfigResolver loads per-user detection thresholds. It never fails: a
// missing profile, a missing field or a repository error all fall back to
// the documented defaults.
type ConfigResolver struct {
	profiles trip.ProfileRepository
}

func NewConfigResolver(profiles trip.ProfileRepository) *ConfigResolver {
	return &ConfigResolver{profiles: profiles}
}

func (r *ConfigResolver) Resolve(ctx context.Context, userID uuid.UUID) trip.TripConfig {
	cfg := trip.DefaultTripConfig()

	profile, err := r.profiles.GetByUserID(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load trip profile, using defaults",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return cfg
	}
	if profile == nil {
		return cfg
	}

	if profile.MovementThresholdM != nil && *profile.MovementThresholdM > 0 {
		cfg.MovementThresholdM = *profile.MovementThresholdM
	}
	if profile.StationaryTimeoutMin != nil && *profile.StationaryTimeoutMin > 0 {
		cfg.StationaryTimeout = time.Duration(*profile.StationaryTimeoutMin) * time.Minute
	}
	if profile.MinimumDistanceM != nil && *profile.MinimumDistanceM > 0 {
		cfg.MinimumDistanceM = *profile.MinimumDistanceM
	}
	if profile.MaxDurationHours != nil && *profile.MaxDurationHours > 0 {
		cfg.MaxDuration = time.Duration(*profile.MaxDurationHours) * time.Hour
	}

	return cfg
}

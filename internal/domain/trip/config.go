package trip

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a user profile is missing or leaves a field unset.
const (
	DefaultMovementThresholdM = 150.0
	DefaultStationaryTimeout  = 3 * time.Minute
	DefaultMinimumDistanceM   = 500.0
	DefaultMaxDuration        = 12 * time.Hour
)

// TripConfig holds the per-user detection thresholds.
type TripConfig struct {
	// MovementThresholdM is the odometer delta (meters) that separates real
	// driving from sensor jitter.
	MovementThresholdM float64

	// StationaryTimeout is how long a trip may sit still before it is
	// considered finished.
	StationaryTimeout time.Duration

	// MinimumDistanceM is the shortest trip (meters) worth keeping; anything
	// below it is deleted instead of completed.
	MinimumDistanceM float64

	// MaxDuration is a hard safety cap: a trip older than this is force-ended
	// no matter what the vehicle is doing.
	MaxDuration time.Duration
}

// DefaultTripConfig returns the documented defaults.
func DefaultTripConfig() TripConfig {
	return TripConfig{
		MovementThresholdM: DefaultMovementThresholdM,
		StationaryTimeout:  DefaultStationaryTimeout,
		MinimumDistanceM:   DefaultMinimumDistanceM,
		MaxDuration:        DefaultMaxDuration,
	}
}

// Profile is the per-user settings row backing TripConfig. Every field is
// optional; nil means "use the default".
type Profile struct {
	UserID               uuid.UUID
	MovementThresholdM   *float64
	StationaryTimeoutMin *int
	MinimumDistanceM     *float64
	MaxDurationHours     *int
	UpdatedAt            time.Time
}

package autotrip

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

// Adaptive polling intervals. Vehicles in motion are sampled often, parked
// vehicles rarely.
const (
	freqActiveMovingSec       = 20
	freqActiveStationarySec   = 45
	freqIdleRecentMovementSec = 60
	freqIdleSec               = 120
)

// Gate before a stationary timeout may close a trip: the trip must have
// covered at least 1 km or run for at least an hour. Short traffic stops
// early in a trip therefore never close it. The asymmetry is intentional
// and pending product review; do not tune these without checking the
// downstream trip reports.
const (
	stationaryCloseMinKm       = 1.0
	stationaryCloseMinDuration = 60 * time.Minute
)

// Reading is one sampled snapshot from the provider. Either field may be
// nil when the corresponding fetch failed.
type Reading struct {
	OdometerKm *float64
	Location   *trip.LatLng
}

// Action says what the engine did with the trip on this poll.
type Action string

const (
	ActionNone       Action = "none"
	ActionStarted    Action = "trip_started"
	ActionUpdated    Action = "trip_updated"
	ActionEnded      Action = "trip_ended"
	ActionDiscarded  Action = "trip_discarded"
	ActionForceEnded Action = "trip_force_ended"
)

// Outcome reports the engine decision for one poll.
type Outcome struct {
	Action           Action
	Trip             *trip.Trip
	MovementM        float64
	PollFrequencySec int
}

// Engine is the trip lifecycle state machine. Each poll it compares the
// current odometer against the movement anchor in the vehicle state, decides
// whether to start, continue, end or discard a trip, and writes the new
// state snapshot.
//
// Movement detection is odometer-based on purpose: odometer deltas are
// monotonic and immune to GPS drift, so they give a low-false-positive
// signal. GPS is used for route shape only, never as a trip-start trigger.
type Engine struct {
	trips  trip.Repository
	states connection.StateRepository
}

func NewEngine(trips trip.Repository, states connection.StateRepository) *Engine {
	return &Engine{trips: trips, states: states}
}

// Process runs one poll decision for a connection. prev may be nil on the
// first ever poll. The active trip is looked up structurally (by status,
// not via the state row) so a second active trip can never be created even
// after a partial state write.
func (e *Engine) Process(ctx context.Context, conn *connection.VehicleConnection, reading Reading, prev *connection.VehicleState, cfg trip.TripConfig, now time.Time) (*Outcome, error) {
	out := &Outcome{Action: ActionNone}

	var lastOdo *float64
	var lastLoc *trip.LatLng
	if prev != nil {
		lastOdo = prev.LastOdometerKm
		lastLoc = prev.LastLocation
	}

	active, err := e.trips.GetActiveByConnection(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	log := logger.WithConnection(conn.ID.String())

	// No odometer this poll: skip trip decisions, but still recover trips
	// stuck past the hard duration cap.
	if reading.OdometerKm == nil {
		if active != nil && active.Age(now) >= cfg.MaxDuration {
			action, err := e.endTrip(ctx, active, nil, coalesceLocation(reading.Location, lastLoc), cfg, now, true)
			if err != nil {
				return nil, err
			}
			out.Action = action
			out.Trip = active
			active = nil
			log.Warn("Force-ended stale trip with no odometer data",
				zap.String("trip_id", out.Trip.ID.String()),
			)
		}

		freq := freqIdleSec
		if active != nil {
			freq = freqActiveStationarySec
		}
		out.PollFrequencySec = freq
		if err := e.persistState(ctx, conn.ID, lastOdo, coalesceLocation(reading.Location, lastLoc), active, freq, now); err != nil {
			return nil, err
		}
		return out, nil
	}

	cur := *reading.OdometerKm

	// hasMoved bootstraps to true on the very first reading; the anchor only
	// advances on real movement so sub-threshold creep accumulates.
	movementM := 0.0
	hasMoved := true
	if lastOdo != nil {
		movementM = math.Abs(cur-*lastOdo) * 1000
		hasMoved = movementM >= cfg.MovementThresholdM
	}
	out.MovementM = movementM

	anchorReset := lastOdo == nil || hasMoved

	switch {
	case active != nil:
		if active.Age(now) >= cfg.MaxDuration {
			// Hard cap: terminate regardless of movement, bypassing the
			// minimum-distance discard.
			action, err := e.endTrip(ctx, active, &cur, coalesceLocation(reading.Location, lastLoc), cfg, now, true)
			if err != nil {
				return nil, err
			}
			out.Action = action
			out.Trip = active
			active = nil
			anchorReset = true
		} else if !hasMoved {
			idle := now.Sub(active.UpdatedAt)
			closeAllowed := active.DistanceKm >= stationaryCloseMinKm || active.Age(now) >= stationaryCloseMinDuration
			if idle >= cfg.StationaryTimeout && closeAllowed {
				action, err := e.endTrip(ctx, active, &cur, coalesceLocation(reading.Location, lastLoc), cfg, now, false)
				if err != nil {
					return nil, err
				}
				out.Action = action
				out.Trip = active
				active = nil
				anchorReset = true
			} else {
				// Still within the stationary window (or under the close
				// gate): extend the trip without resetting the stationary
				// clock. Distance is recomputed so sub-threshold creep is
				// not lost from the running total.
				route := active.Route
				if reading.Location != nil {
					route = append(route, *reading.Location)
				}
				distance := math.Max(0, cur-active.OdometerKm)
				duration := now.Sub(active.StartTime).Minutes()
				if err := e.trips.ExtendStationary(ctx, active.ID, distance, duration, route); err != nil {
					return nil, err
				}
				active.DistanceKm = distance
				active.DurationMinutes = duration
				active.Route = route
				out.Action = ActionUpdated
				out.Trip = active
			}
		} else {
			// Moving: append the reading to the ongoing trip.
			active.DistanceKm = math.Max(0, cur-active.OdometerKm)
			active.DurationMinutes = now.Sub(active.StartTime).Minutes()
			if reading.Location != nil {
				active.Route = append(active.Route, *reading.Location)
			}
			if err := e.trips.Update(ctx, active); err != nil {
				return nil, err
			}
			out.Action = ActionUpdated
			out.Trip = active
		}

	case hasMoved && movementM > 0:
		started, err := e.startTrip(ctx, conn, cur, reading.Location, now)
		if err != nil {
			return nil, err
		}
		active = started
		out.Action = ActionStarted
		out.Trip = started
		log.Info("Trip started",
			zap.String("trip_id", started.ID.String()),
			zap.Float64("odometer_km", cur),
			zap.Float64("movement_m", movementM),
		)
	}

	moved := hasMoved && movementM > 0
	var freq int
	switch {
	case active != nil && moved:
		freq = freqActiveMovingSec
	case active != nil:
		freq = freqActiveStationarySec
	case moved:
		freq = freqIdleRecentMovementSec
	default:
		freq = freqIdleSec
	}
	out.PollFrequencySec = freq

	anchor := lastOdo
	if anchorReset {
		anchor = &cur
	}
	if err := e.persistState(ctx, conn.ID, anchor, coalesceLocation(reading.Location, lastLoc), active, freq, now); err != nil {
		return nil, err
	}

	return out, nil
}

func (e *Engine) startTrip(ctx context.Context, conn *connection.VehicleConnection, odometerKm float64, location *trip.LatLng, now time.Time) (*trip.Trip, error) {
	startLocation := trip.LatLng{}
	var route []trip.LatLng
	if location != nil {
		startLocation = *location
		route = []trip.LatLng{*location}
	}

	connID := conn.ID
	t := &trip.Trip{
		ID:            uuid.New(),
		UserID:        conn.UserID,
		ConnectionID:  &connID,
		StartTime:     now,
		StartLocation: startLocation,
		OdometerKm:    odometerKm,
		Route:         route,
		Status:        trip.StatusActive,
		Type:          trip.TypeUnknown,
		IsAutomatic:   true,
	}
	if err := e.trips.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// endTrip finalizes a trip. With endOdometerKm present the final distance is
// recomputed from the odometer; otherwise the accumulated distance stands.
// Non-forced endings below the minimum distance delete the trip row: short,
// noisy trips are not worth keeping.
func (e *Engine) endTrip(ctx context.Context, t *trip.Trip, endOdometerKm *float64, endLocation *trip.LatLng, cfg trip.TripConfig, now time.Time, forced bool) (Action, error) {
	distance := t.DistanceKm
	if endOdometerKm != nil {
		distance = math.Max(0, *endOdometerKm-t.OdometerKm)
	}

	if !forced && distance*1000 < cfg.MinimumDistanceM {
		if err := e.trips.Delete(ctx, t.ID); err != nil {
			return ActionNone, err
		}
		// The row is gone; mark the in-memory trip terminal as well so
		// callers never surface the deleted ID as a current trip.
		t.Status = trip.StatusCompleted
		t.DistanceKm = distance
		logger.Info("Trip discarded below minimum distance",
			zap.String("trip_id", t.ID.String()),
			zap.Float64("distance_km", distance),
		)
		return ActionDiscarded, nil
	}

	end := now
	t.EndTime = &end
	t.EndLocation = endLocation
	t.DistanceKm = distance
	t.DurationMinutes = now.Sub(t.StartTime).Minutes()
	t.Status = trip.StatusCompleted
	if err := e.trips.Update(ctx, t); err != nil {
		return ActionNone, err
	}

	action := ActionEnded
	if forced {
		action = ActionForceEnded
	}
	logger.Info("Trip ended",
		zap.String("trip_id", t.ID.String()),
		zap.Float64("distance_km", distance),
		zap.Float64("duration_min", t.DurationMinutes),
		zap.Bool("forced", forced),
	)
	return action, nil
}

func (e *Engine) persistState(ctx context.Context, connectionID uuid.UUID, anchor *float64, location *trip.LatLng, active *trip.Trip, freq int, now time.Time) error {
	state := &connection.VehicleState{
		ConnectionID:     connectionID,
		LastOdometerKm:   anchor,
		LastLocation:     location,
		LastPollAt:       &now,
		PollFrequencySec: freq,
	}
	if active != nil {
		tripID := active.ID
		state.CurrentTripID = &tripID
	}
	return e.states.Upsert(ctx, state)
}

func coalesceLocation(primary, fallback *trip.LatLng) *trip.LatLng {
	if primary != nil {
		return primary
	}
	return fallback
}

package autotrip

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
	"github.com/magnusfroste/auto-sense-sub000/internal/telematics"
)

// ReadingsFetcher pulls the current readings for a connection.
type ReadingsFetcher interface {
	FetchReadings(ctx context.Context, conn *connection.VehicleConnection) *telematics.Readings
}

// HistoryRecorder appends raw readings to the observability log.
type HistoryRecorder interface {
	Append(ctx context.Context, connectionID uuid.UUID, odometerKm *float64, location *trip.LatLng, readErrors []string) error
}

// StatusCache keeps the latest poll snapshot for fast UI reads.
type StatusCache interface {
	SetLatest(ctx context.Context, connectionID uuid.UUID, snapshot interface{}) error
}

// EventPublisher pushes trip lifecycle events to interested consumers.
type EventPublisher interface {
	PublishTripEvent(event TripEvent) error
}

// TripEvent is the payload published on every trip lifecycle change.
type TripEvent struct {
	Action       string    `json:"action"`
	TripID       string    `json:"trip_id"`
	ConnectionID string    `json:"connection_id"`
	UserID       string    `json:"user_id"`
	DistanceKm   float64   `json:"distance_km"`
	At           time.Time `json:"at"`
}

// StatusSnapshot is what lands in the status cache after each poll.
type StatusSnapshot struct {
	ConnectionID     string       `json:"connection_id"`
	OdometerKm       *float64     `json:"odometer_km,omitempty"`
	Location         *trip.LatLng `json:"location,omitempty"`
	TripID           *string      `json:"trip_id,omitempty"`
	PollFrequencySec int          `json:"poll_frequency_sec"`
	PolledAt         time.Time    `json:"polled_at"`
}

// Orchestrator drives polling across vehicle connections. Each invocation
// processes a batch and returns; no long-lived worker state survives between
// runs except the lock registry.
type Orchestrator struct {
	connections connection.Repository
	states      connection.StateRepository
	fetcher     ReadingsFetcher
	engine      *Engine
	resolver    *ConfigResolver
	locks       *LockRegistry
	concurrency int

	// Optional side channels; any of these may be nil.
	history HistoryRecorder
	cache   StatusCache
	events  EventPublisher
}

func NewOrchestrator(
	connections connection.Repository,
	states connection.StateRepository,
	fetcher ReadingsFetcher,
	engine *Engine,
	resolver *ConfigResolver,
	concurrency int,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		connections: connections,
		states:      states,
		fetcher:     fetcher,
		engine:      engine,
		resolver:    resolver,
		locks:       NewLockRegistry(),
		concurrency: concurrency,
	}
}

func (o *Orchestrator) WithHistory(h HistoryRecorder) *Orchestrator {
	o.history = h
	return o
}

func (o *Orchestrator) WithCache(c StatusCache) *Orchestrator {
	o.cache = c
	return o
}

func (o *Orchestrator) WithEvents(p EventPublisher) *Orchestrator {
	o.events = p
	return o
}

// PollAll polls every active connection. Connections are processed
// concurrently up to the configured limit; one vehicle failing never stops
// the others. The returned error covers only the listing itself.
func (o *Orchestrator) PollAll(ctx context.Context) error {
	conns, err := o.connections.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active connections: %w", err)
	}

	if len(conns) == 0 {
		return nil
	}

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for _, conn := range conns {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *connection.VehicleConnection) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := o.pollConnection(ctx, c); err != nil {
				logger.Error("Poll failed for connection",
					zap.String("connection_id", c.ID.String()),
					zap.Error(err),
				)
			}
		}(conn)
	}

	wg.Wait()
	return nil
}

// PollOne polls a single connection, used for manual triggers.
func (o *Orchestrator) PollOne(ctx context.Context, connectionID uuid.UUID) error {
	conn, err := o.connections.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.IsActive {
		return connection.ErrConnectionInactive
	}
	return o.pollConnection(ctx, conn)
}

func (o *Orchestrator) pollConnection(ctx context.Context, conn *connection.VehicleConnection) error {
	release, ok := o.locks.TryAcquire(conn.ID)
	if !ok {
		// Someone else is already handling this vehicle.
		logger.Debug("Skipping connection, already being processed",
			zap.String("connection_id", conn.ID.String()),
		)
		return nil
	}
	defer release()

	log := logger.WithConnection(conn.ID.String())

	readings := o.fetcher.FetchReadings(ctx, conn)
	for _, msg := range readings.Errors {
		log.Warn("Provider reading error", zap.String("detail", msg))
	}

	if o.history != nil {
		if err := o.history.Append(ctx, conn.ID, readings.OdometerKm, readings.Location, readings.Errors); err != nil {
			log.Warn("Failed to append vehicle data history", zap.Error(err))
		}
	}

	prev, err := o.states.Get(ctx, conn.ID)
	if err != nil {
		return err
	}

	cfg := o.resolver.Resolve(ctx, conn.UserID)
	now := time.Now().UTC()

	out, err := o.engine.Process(ctx, conn, Reading{
		OdometerKm: readings.OdometerKm,
		Location:   readings.Location,
	}, prev, cfg, now)
	if err != nil {
		return err
	}

	o.notify(ctx, conn, readings, out, now)

	log.Debug("Poll completed",
		zap.String("action", string(out.Action)),
		zap.Float64("movement_m", out.MovementM),
		zap.Int("poll_frequency_sec", out.PollFrequencySec),
	)
	return nil
}

// notify feeds the optional side channels. Failures here are logged only;
// the poll itself already succeeded.
func (o *Orchestrator) notify(ctx context.Context, conn *connection.VehicleConnection, readings *telematics.Readings, out *Outcome, now time.Time) {
	if o.cache != nil {
		snapshot := StatusSnapshot{
			ConnectionID:     conn.ID.String(),
			OdometerKm:       readings.OdometerKm,
			Location:         readings.Location,
			PollFrequencySec: out.PollFrequencySec,
			PolledAt:         now,
		}
		if out.Trip != nil && out.Trip.IsActive() {
			id := out.Trip.ID.String()
			snapshot.TripID = &id
		}
		if err := o.cache.SetLatest(ctx, conn.ID, snapshot); err != nil {
			logger.Warn("Failed to cache vehicle status",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err),
			)
		}
	}

	if o.events != nil && out.Action != ActionNone && out.Action != ActionUpdated && out.Trip != nil {
		event := TripEvent{
			Action:       string(out.Action),
			TripID:       out.Trip.ID.String(),
			ConnectionID: conn.ID.String(),
			UserID:       conn.UserID.String(),
			DistanceKm:   out.Trip.DistanceKm,
			At:           now,
		}
		if err := o.events.PublishTripEvent(event); err != nil {
			logger.Warn("Failed to publish trip event",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err),
			)
		}
	}
}

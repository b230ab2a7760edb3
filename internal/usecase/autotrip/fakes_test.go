package autotrip

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
)

type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*trip.Trip

	createCount  int
	deleteCount  int
	extendCount  int
	updateCount  int
	lastExtendID uuid.UUID

	createErr error
	updateErr error
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[uuid.UUID]*trip.Trip)}
}

func (f *fakeTripRepo) Create(ctx context.Context, t *trip.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.createCount++
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTripRepo) GetByID(ctx context.Context, tripID uuid.UUID) (*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTripRepo) GetActiveByConnection(ctx context.Context, connectionID uuid.UUID) (*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trips {
		if t.Status == trip.StatusActive && t.ConnectionID != nil && *t.ConnectionID == connectionID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTripRepo) Update(ctx context.Context, t *trip.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updateCount++
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTripRepo) ExtendStationary(ctx context.Context, tripID uuid.UUID, distanceKm, durationMinutes float64, route []trip.LatLng) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extendCount++
	f.lastExtendID = tripID
	t, ok := f.trips[tripID]
	if !ok {
		return trip.ErrTripNotFound
	}
	// Same contract as the real repository: updated_at is left alone.
	t.DistanceKm = distanceKm
	t.DurationMinutes = durationMinutes
	t.Route = route
	return nil
}

func (f *fakeTripRepo) Delete(ctx context.Context, tripID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCount++
	delete(f.trips, tripID)
	return nil
}

func (f *fakeTripRepo) List(ctx context.Context, filter *trip.Filter) ([]*trip.Trip, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*trip.Trip
	for _, t := range f.trips {
		cp := *t
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[uuid.UUID]*connection.VehicleState

	getErr    error
	upsertErr error
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[uuid.UUID]*connection.VehicleState)}
}

func (f *fakeStateRepo) Get(ctx context.Context, connectionID uuid.UUID) (*connection.VehicleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.states[connectionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStateRepo) Upsert(ctx context.Context, state *connection.VehicleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *state
	f.states[state.ConnectionID] = &cp
	return nil
}

func (f *fakeStateRepo) stored(connectionID uuid.UUID) *connection.VehicleState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[connectionID]
}

type fakeProfileRepo struct {
	profile *trip.Profile
	err     error
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*trip.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func testConnection() *connection.VehicleConnection {
	return &connection.VehicleConnection{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		VehicleID:    "veh-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
		IsActive:     true,
	}
}

func float64Ptr(v float64) *float64 { return &v }

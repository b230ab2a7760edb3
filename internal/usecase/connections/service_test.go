package connections

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainConn "github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type stubConnRepo struct {
	conns       map[uuid.UUID]*domainConn.VehicleConnection
	deactivated []uuid.UUID
}

func newStubConnRepo(conns ...*domainConn.VehicleConnection) *stubConnRepo {
	s := &stubConnRepo{conns: make(map[uuid.UUID]*domainConn.VehicleConnection)}
	for _, c := range conns {
		s.conns[c.ID] = c
	}
	return s
}

func (s *stubConnRepo) Create(ctx context.Context, conn *domainConn.VehicleConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	s.conns[conn.ID] = conn
	return nil
}

func (s *stubConnRepo) GetByID(ctx context.Context, connectionID uuid.UUID) (*domainConn.VehicleConnection, error) {
	c, ok := s.conns[connectionID]
	if !ok {
		return nil, domainConn.ErrConnectionNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubConnRepo) ListActive(ctx context.Context) ([]*domainConn.VehicleConnection, error) {
	return nil, nil
}

func (s *stubConnRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domainConn.VehicleConnection, error) {
	var out []*domainConn.VehicleConnection
	for _, c := range s.conns {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubConnRepo) UpdateTokens(ctx context.Context, connectionID uuid.UUID, accessToken, refreshToken string) error {
	return nil
}

func (s *stubConnRepo) Deactivate(ctx context.Context, connectionID uuid.UUID) error {
	s.deactivated = append(s.deactivated, connectionID)
	return nil
}

type stubStateRepo struct {
	state *domainConn.VehicleState
}

func (s *stubStateRepo) Get(ctx context.Context, connectionID uuid.UUID) (*domainConn.VehicleState, error) {
	return s.state, nil
}

func (s *stubStateRepo) Upsert(ctx context.Context, state *domainConn.VehicleState) error {
	s.state = state
	return nil
}

type stubSnapshots struct {
	payload []byte
	err     error
}

func (s *stubSnapshots) GetLatest(ctx context.Context, connectionID uuid.UUID) ([]byte, error) {
	return s.payload, s.err
}

func ownedConnection(userID uuid.UUID) *domainConn.VehicleConnection {
	return &domainConn.VehicleConnection{
		ID:        uuid.New(),
		UserID:    userID,
		VehicleID: "veh-1",
		IsActive:  true,
	}
}

func TestRegisterConnectionValidatesInput(t *testing.T) {
	svc := NewService(newStubConnRepo(), &stubStateRepo{}, nil)

	_, err := svc.RegisterConnection(context.Background(), uuid.New(), &RegisterConnectionRequest{
		VehicleID: "veh-1",
		// Tokens missing.
	})
	assert.Error(t, err)
}

func TestRegisterConnection(t *testing.T) {
	repo := newStubConnRepo()
	svc := NewService(repo, &stubStateRepo{}, nil)
	userID := uuid.New()

	resp, err := svc.RegisterConnection(context.Background(), userID, &RegisterConnectionRequest{
		VehicleID:    "veh-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
	})

	require.NoError(t, err)
	assert.Equal(t, userID, resp.UserID)
	assert.True(t, resp.IsActive)
	assert.Len(t, repo.conns, 1)
}

func TestDisconnectEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	conn := ownedConnection(owner)
	repo := newStubConnRepo(conn)
	svc := NewService(repo, &stubStateRepo{}, nil)

	err := svc.Disconnect(context.Background(), uuid.New(), conn.ID)
	assert.ErrorIs(t, err, domainConn.ErrConnectionNotFound)
	assert.Empty(t, repo.deactivated)

	require.NoError(t, svc.Disconnect(context.Background(), owner, conn.ID))
	assert.Equal(t, []uuid.UUID{conn.ID}, repo.deactivated)
}

func TestGetStatusPrefersCachedSnapshot(t *testing.T) {
	owner := uuid.New()
	conn := ownedConnection(owner)
	tripID := uuid.New()

	cached, err := json.Marshal(map[string]interface{}{
		"odometer_km":        123.4,
		"location":           map[string]float64{"lat": 59.33, "lng": 18.07},
		"trip_id":            tripID.String(),
		"poll_frequency_sec": 20,
	})
	require.NoError(t, err)

	lastPoll := time.Now().Add(-time.Minute)
	stateOdo := 99.0
	svc := NewService(newStubConnRepo(conn), &stubStateRepo{state: &domainConn.VehicleState{
		ConnectionID:     conn.ID,
		LastOdometerKm:   &stateOdo,
		LastPollAt:       &lastPoll,
		PollFrequencySec: 120,
	}}, &stubSnapshots{payload: cached})

	resp, err := svc.GetStatus(context.Background(), owner, conn.ID)
	require.NoError(t, err)

	require.NotNil(t, resp.OdometerKm)
	assert.Equal(t, 123.4, *resp.OdometerKm)
	require.NotNil(t, resp.Location)
	assert.Equal(t, domainTrip.LatLng{Lat: 59.33, Lng: 18.07}, *resp.Location)
	require.NotNil(t, resp.CurrentTripID)
	assert.Equal(t, tripID, *resp.CurrentTripID)
	assert.Equal(t, 20, resp.PollFrequencySec)
	// LastPollAt only lives in the state row.
	require.NotNil(t, resp.LastPollAt)
}

func TestGetStatusFallsBackToStateRow(t *testing.T) {
	owner := uuid.New()
	conn := ownedConnection(owner)

	stateOdo := 99.0
	svc := NewService(newStubConnRepo(conn), &stubStateRepo{state: &domainConn.VehicleState{
		ConnectionID:     conn.ID,
		LastOdometerKm:   &stateOdo,
		LastLocation:     &domainTrip.LatLng{Lat: 1, Lng: 2},
		PollFrequencySec: 120,
	}}, &stubSnapshots{err: errors.New("redis down")})

	resp, err := svc.GetStatus(context.Background(), owner, conn.ID)
	require.NoError(t, err)

	require.NotNil(t, resp.OdometerKm)
	assert.Equal(t, 99.0, *resp.OdometerKm)
	require.NotNil(t, resp.Location)
	assert.Equal(t, 120, resp.PollFrequencySec)
}

func TestGetStatusWithoutCacheOrState(t *testing.T) {
	owner := uuid.New()
	conn := ownedConnection(owner)

	svc := NewService(newStubConnRepo(conn), &stubStateRepo{}, nil)

	resp, err := svc.GetStatus(context.Background(), owner, conn.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.OdometerKm)
	assert.Nil(t, resp.CurrentTripID)
}

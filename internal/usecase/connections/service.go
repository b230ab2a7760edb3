package connections

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainConn "github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	domainTrip "github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
	appErrors "github.com/magnusfroste/auto-sense-sub000/pkg/apperrors"
	"github.com/magnusfroste/auto-sense-sub000/pkg/utils"
)

// SnapshotReader reads the latest cached poll snapshot for a connection.
type SnapshotReader interface {
	GetLatest(ctx context.Context, connectionID uuid.UUID) ([]byte, error)
}

// Service implements vehicle connection use cases.
type Service struct {
	connRepo  domainConn.Repository
	stateRepo domainConn.StateRepository
	snapshots SnapshotReader
}

func NewService(connRepo domainConn.Repository, stateRepo domainConn.StateRepository, snapshots SnapshotReader) *Service {
	return &Service{
		connRepo:  connRepo,
		stateRepo: stateRepo,
		snapshots: snapshots,
	}
}

// RegisterConnection stores a vehicle link after the client completed the
// OAuth exchange with the provider.
func (s *Service) RegisterConnection(ctx context.Context, userID uuid.UUID, req *RegisterConnectionRequest) (*ConnectionResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	conn := &domainConn.VehicleConnection{
		UserID:       userID,
		VehicleID:    req.VehicleID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		VIN:          req.VIN,
		IsActive:     true,
	}

	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}

	logger.Info("Vehicle connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.String("vehicle_id", conn.VehicleID),
	)

	return ToConnectionResponse(conn), nil
}

func (s *Service) ListConnections(ctx context.Context, userID uuid.UUID) ([]ConnectionResponse, error) {
	conns, err := s.connRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]ConnectionResponse, len(conns))
	for i, c := range conns {
		responses[i] = *ToConnectionResponse(c)
	}
	return responses, nil
}

// Disconnect deactivates a connection. The row and its trips are kept.
func (s *Service) Disconnect(ctx context.Context, userID, connectionID uuid.UUID) error {
	conn, err := s.getOwnedConnection(ctx, userID, connectionID)
	if err != nil {
		return err
	}

	if err := s.connRepo.Deactivate(ctx, conn.ID); err != nil {
		return err
	}

	logger.Info("Vehicle connection deactivated",
		zap.String("connection_id", conn.ID.String()),
	)
	return nil
}

// GetStatus returns the latest known vehicle status. The cached snapshot is
// preferred; on a miss the state row is read instead.
func (s *Service) GetStatus(ctx context.Context, userID, connectionID uuid.UUID) (*ConnectionStatusResponse, error) {
	conn, err := s.getOwnedConnection(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}

	resp := &ConnectionStatusResponse{ConnectionID: conn.ID}

	if s.snapshots != nil {
		b, err := s.snapshots.GetLatest(ctx, conn.ID)
		if err != nil {
			logger.Warn("Status cache read failed, falling back to database",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err),
			)
		} else if b != nil {
			var cached struct {
				OdometerKm       *float64           `json:"odometer_km"`
				Location         *domainTrip.LatLng `json:"location"`
				TripID           *uuid.UUID         `json:"trip_id"`
				PollFrequencySec int                `json:"poll_frequency_sec"`
			}
			if err := json.Unmarshal(b, &cached); err == nil {
				resp.OdometerKm = cached.OdometerKm
				resp.Location = cached.Location
				resp.CurrentTripID = cached.TripID
				resp.PollFrequencySec = cached.PollFrequencySec
			}
		}
	}

	state, err := s.stateRepo.Get(ctx, conn.ID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		if resp.OdometerKm == nil {
			resp.OdometerKm = state.LastOdometerKm
		}
		if resp.Location == nil {
			resp.Location = state.LastLocation
		}
		if resp.CurrentTripID == nil {
			resp.CurrentTripID = state.CurrentTripID
		}
		if resp.PollFrequencySec == 0 {
			resp.PollFrequencySec = state.PollFrequencySec
		}
		resp.LastPollAt = state.LastPollAt
	}

	return resp, nil
}

func (s *Service) getOwnedConnection(ctx context.Context, userID, connectionID uuid.UUID) (*domainConn.VehicleConnection, error) {
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.UserID != userID {
		return nil, domainConn.ErrConnectionNotFound
	}
	return conn, nil
}

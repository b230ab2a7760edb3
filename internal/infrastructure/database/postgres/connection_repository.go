package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres/models"
)

type ConnectionRepository struct {
	db *DB
}

func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *connection.VehicleConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = time.Now()

	dbModel := toConnectionModel(conn)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create vehicle connection: %w", err)
	}

	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, connectionID uuid.UUID) (*connection.VehicleConnection, error) {
	var dbModel models.ConnectionModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", connectionID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, connection.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle connection: %w", err)
	}

	return toConnectionEntity(&dbModel), nil
}

func (r *ConnectionRepository) ListActive(ctx context.Context) ([]*connection.VehicleConnection, error) {
	var dbModels []models.ConnectionModel
	err := r.db.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active connections: %w", err)
	}

	conns := make([]*connection.VehicleConnection, 0, len(dbModels))
	for i := range dbModels {
		conns = append(conns, toConnectionEntity(&dbModels[i]))
	}
	return conns, nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*connection.VehicleConnection, error) {
	var dbModels []models.ConnectionModel
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user connections: %w", err)
	}

	conns := make([]*connection.VehicleConnection, 0, len(dbModels))
	for i := range dbModels {
		conns = append(conns, toConnectionEntity(&dbModels[i]))
	}
	return conns, nil
}

func (r *ConnectionRepository) UpdateTokens(ctx context.Context, connectionID uuid.UUID, accessToken, refreshToken string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("id = ?", connectionID).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return connection.ErrConnectionNotFound
	}

	return nil
}

func (r *ConnectionRepository) Deactivate(ctx context.Context, connectionID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("id = ?", connectionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return connection.ErrConnectionNotFound
	}

	return nil
}

func toConnectionModel(c *connection.VehicleConnection) *models.ConnectionModel {
	return &models.ConnectionModel{
		ID:           c.ID,
		UserID:       c.UserID,
		VehicleID:    c.VehicleID,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Make:         c.Make,
		Model:        c.Model,
		Year:         c.Year,
		VIN:          c.VIN,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toConnectionEntity(m *models.ConnectionModel) *connection.VehicleConnection {
	return &connection.VehicleConnection{
		ID:           m.ID,
		UserID:       m.UserID,
		VehicleID:    m.VehicleID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		Make:         m.Make,
		Model:        m.Model,
		Year:         m.Year,
		VIN:          m.VIN,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

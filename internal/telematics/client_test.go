package telematics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/config"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type tokenRecorder struct {
	mu       sync.Mutex
	refreshs int
	updates  int
	access   string
	refresh  string
}

func (r *tokenRecorder) UpdateTokens(ctx context.Context, connectionID uuid.UUID, accessToken, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.access = accessToken
	r.refresh = refreshToken
	return nil
}

func (r *tokenRecorder) Create(ctx context.Context, conn *connection.VehicleConnection) error {
	return nil
}
func (r *tokenRecorder) GetByID(ctx context.Context, connectionID uuid.UUID) (*connection.VehicleConnection, error) {
	return nil, connection.ErrConnectionNotFound
}
func (r *tokenRecorder) ListActive(ctx context.Context) ([]*connection.VehicleConnection, error) {
	return nil, nil
}
func (r *tokenRecorder) ListByUser(ctx context.Context, userID uuid.UUID) ([]*connection.VehicleConnection, error) {
	return nil, nil
}
func (r *tokenRecorder) Deactivate(ctx context.Context, connectionID uuid.UUID) error {
	return nil
}

func testConn() *connection.VehicleConnection {
	return &connection.VehicleConnection{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		VehicleID:    "veh-42",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		IsActive:     true,
	}
}

func newTestClient(baseURL, tokenURL string, repo connection.Repository) *Client {
	return NewClient(&config.TelematicsConfig{
		BaseURL:        baseURL,
		TokenURL:       tokenURL,
		ClientID:       "cid",
		ClientSecret:   "secret",
		RequestTimeout: 5 * time.Second,
	}, repo)
}

func TestFetchReadingsHappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer old-access", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/vehicles/veh-42/location":
			json.NewEncoder(w).Encode(map[string]float64{"latitude": 59.33, "longitude": 18.07})
		case "/vehicles/veh-42/odometer":
			json.NewEncoder(w).Encode(map[string]float64{"distance": 12345.6})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL+"/token", &tokenRecorder{})

	readings := client.FetchReadings(context.Background(), testConn())

	require.NotNil(t, readings.OdometerKm)
	assert.Equal(t, 12345.6, *readings.OdometerKm)
	require.NotNil(t, readings.Location)
	assert.Equal(t, 59.33, readings.Location.Lat)
	assert.Equal(t, 18.07, readings.Location.Lng)
	assert.Empty(t, readings.Errors)
}

func TestFetchReadingsPartialData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vehicles/veh-42/location":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/vehicles/veh-42/odometer":
			json.NewEncoder(w).Encode(map[string]float64{"distance": 500.0})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL+"/token", &tokenRecorder{})

	readings := client.FetchReadings(context.Background(), testConn())

	require.NotNil(t, readings.OdometerKm)
	assert.Equal(t, 500.0, *readings.OdometerKm)
	assert.Nil(t, readings.Location)
	assert.Len(t, readings.Errors, 1)
	assert.Contains(t, readings.Errors[0], "location")
}

func TestFetchReadingsRejectsInvalidCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vehicles/veh-42/location":
			json.NewEncoder(w).Encode(map[string]float64{"latitude": 200.0, "longitude": 18.07})
		case "/vehicles/veh-42/odometer":
			json.NewEncoder(w).Encode(map[string]float64{"distance": 500.0})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL+"/token", &tokenRecorder{})

	readings := client.FetchReadings(context.Background(), testConn())

	assert.Nil(t, readings.Location)
	require.NotNil(t, readings.OdometerKm)
	assert.Len(t, readings.Errors, 1)
}

func TestFetchReadingsRefreshesTokenOnceOn401(t *testing.T) {
	var mu sync.Mutex
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokenCalls++
		mu.Unlock()

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "old-refresh", r.FormValue("refresh_token"))
		assert.Equal(t, "cid", r.FormValue("client_id"))

		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
		})
	})
	serveField := func(payload map[string]float64) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer new-access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(payload)
		}
	}
	mux.HandleFunc("/vehicles/veh-42/location", serveField(map[string]float64{"latitude": 59.33, "longitude": 18.07}))
	mux.HandleFunc("/vehicles/veh-42/odometer", serveField(map[string]float64{"distance": 777.0}))

	server := httptest.NewServer(mux)
	defer server.Close()

	repo := &tokenRecorder{}
	client := newTestClient(server.URL, server.URL+"/token", repo)
	conn := testConn()

	readings := client.FetchReadings(context.Background(), conn)

	// Both fields got 401 but the session shares the refreshed token, so the
	// refresh grant is spent exactly once.
	assert.Equal(t, 1, tokenCalls)
	assert.Empty(t, readings.Errors)
	require.NotNil(t, readings.OdometerKm)
	assert.Equal(t, 777.0, *readings.OdometerKm)
	require.NotNil(t, readings.Location)

	assert.Equal(t, "new-access", conn.AccessToken)
	assert.Equal(t, "new-refresh", conn.RefreshToken)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, "new-access", repo.access)
}

func TestFetchReadingsRefreshFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	conn := testConn()
	client := newTestClient(server.URL, server.URL+"/token", &tokenRecorder{})

	readings := client.FetchReadings(context.Background(), conn)

	assert.Nil(t, readings.OdometerKm)
	assert.Nil(t, readings.Location)
	assert.Len(t, readings.Errors, 2)
	// Tokens stay untouched when the refresh grant is rejected.
	assert.Equal(t, "old-access", conn.AccessToken)
	assert.Equal(t, "old-refresh", conn.RefreshToken)
}

func TestFetchReadingsKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "new-access"})
	})
	mux.HandleFunc("/vehicles/veh-42/location", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/vehicles/veh-42/odometer", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"distance": 10.0})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	conn := testConn()
	client := newTestClient(server.URL, server.URL+"/token", &tokenRecorder{})

	readings := client.FetchReadings(context.Background(), conn)

	require.NotNil(t, readings.OdometerKm)
	assert.Equal(t, "new-access", conn.AccessToken)
	assert.Equal(t, "old-refresh", conn.RefreshToken)
}

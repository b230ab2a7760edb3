package telematics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/config"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/connection"
	"github.com/magnusfroste/auto-sense-sub000/internal/domain/trip"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
)

// Readings is the result of one provider poll. Either field may be missing;
// callers must tolerate partial data. Errors collects what went wrong per
// field instead of failing the poll.
type Readings struct {
	Location   *trip.LatLng
	OdometerKm *float64
	Errors     []string
}

// Client talks to the vehicle data provider. It never returns an error from
// FetchReadings: upstream failures degrade to missing fields.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	connections  connection.Repository
}

func NewClient(cfg *config.TelematicsConfig, connections connection.Repository) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		connections:  connections,
	}
}

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type odometerPayload struct {
	// Distance is the odometer reading in kilometers.
	Distance float64 `json:"distance"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// session shares token state between the concurrent field fetches of one
// poll, so a refresh triggered by one field is visible to the other.
type session struct {
	mu   sync.Mutex
	conn *connection.VehicleConnection
}

func (s *session) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.AccessToken
}

// FetchReadings pulls location and odometer concurrently. A 401 on either
// field triggers one token refresh followed by one retry for that field;
// anything else that fails leaves the field nil with an error recorded.
func (c *Client) FetchReadings(ctx context.Context, conn *connection.VehicleConnection) *Readings {
	sess := &session{conn: conn}
	readings := &Readings{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	addError := func(msg string) {
		mu.Lock()
		readings.Errors = append(readings.Errors, msg)
		mu.Unlock()
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		var payload locationPayload
		if err := c.fetchField(ctx, sess, "location", &payload); err != nil {
			addError(fmt.Sprintf("location: %v", err))
			return
		}
		loc := trip.LatLng{Lat: payload.Latitude, Lng: payload.Longitude}
		if !loc.Valid() {
			addError(fmt.Sprintf("location: %v", trip.ErrInvalidCoordinate))
			return
		}
		mu.Lock()
		readings.Location = &loc
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		var payload odometerPayload
		if err := c.fetchField(ctx, sess, "odometer", &payload); err != nil {
			addError(fmt.Sprintf("odometer: %v", err))
			return
		}
		mu.Lock()
		readings.OdometerKm = &payload.Distance
		mu.Unlock()
	}()

	wg.Wait()
	return readings
}

// fetchField issues one authorized GET and retries exactly once after a
// token refresh when the provider answers 401.
func (c *Client) fetchField(ctx context.Context, sess *session, field string, out interface{}) error {
	endpoint := fmt.Sprintf("%s/vehicles/%s/%s", c.baseURL, sess.conn.VehicleID, field)

	token := sess.token()
	status, err := c.getJSON(ctx, endpoint, token, out)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusUnauthorized {
		return fmt.Errorf("provider returned status %d", status)
	}

	newToken, err := c.refreshIfStale(ctx, sess, token)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	status, err = c.getJSON(ctx, endpoint, newToken, out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("provider returned status %d after token refresh", status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

// refreshIfStale exchanges the refresh token for a new pair, unless another
// field already refreshed since staleToken was issued — then the fresh token
// is reused instead of burning a second refresh grant.
func (c *Client) refreshIfStale(ctx context.Context, sess *session, staleToken string) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.conn.AccessToken != staleToken {
		return sess.conn.AccessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", sess.conn.RefreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var payload tokenPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken = sess.conn.RefreshToken
	}

	if err := c.connections.UpdateTokens(ctx, sess.conn.ID, payload.AccessToken, payload.RefreshToken); err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	sess.conn.AccessToken = payload.AccessToken
	sess.conn.RefreshToken = payload.RefreshToken

	logger.Debug("Provider token refreshed",
		zap.String("connection_id", sess.conn.ID.String()),
	)

	return payload.AccessToken, nil
}

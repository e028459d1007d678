// Package gateway is the sole boundary to the gaming-center backend.
// Every operation returns a typed result or a *gateway.Error; transport
// details stay inside.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"

	"github.com/Mohammad-Mahdi82/GameDesk/models"
)

const requestTimeout = 10 * time.Second

// retryAttempts bounds the backoff loop on idempotent writes. Close and
// device-status edits are safe to resend; add and extend are not and are
// never retried here.
const retryAttempts = 3

// Client talks to the backend over HTTP JSON. Successful responses come
// wrapped in an {"output": ...} envelope.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger.With().Str("component", "gateway").Logger(),
	}
}

type envelope struct {
	Output json.RawMessage `json:"output"`
}

// call performs one request. body may be nil; when out is non-nil the
// envelope payload is decoded into it.
func (c *Client) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return shapeErr(op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return networkErr(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("request failed")
		return networkErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("backend refused")
		return statusErr(op, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("undecodable response")
		return shapeErr(op, err)
	}
	if err := json.Unmarshal(env.Output, out); err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("undecodable output payload")
		return shapeErr(op, err)
	}
	return nil
}

// callIdempotent retries transport failures with exponential backoff.
// Backend refusals are permanent.
func (c *Client) callIdempotent(ctx context.Context, op, method, path string, body interface{}) error {
	attempt := func() error {
		err := c.call(ctx, op, method, path, body, nil)
		if err != nil && KindOf(err) != KindNetwork {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retryAttempts),
		ctx,
	)
	return backoff.Retry(attempt, policy)
}

// ListCategories fetches the device categories in backend order.
func (c *Client) ListCategories(ctx context.Context) ([]models.DeviceCategory, error) {
	var out []models.DeviceCategory
	if err := c.call(ctx, "listCategories", http.MethodGet, "/api/device_types/fetch", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDevices fetches every device with its embedded category.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var out []models.Device
	if err := c.call(ctx, "listDevices", http.MethodGet, "/api/devices/fetch", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddDevice registers a new station under a category and returns its id.
func (c *Client) AddDevice(ctx context.Context, req models.AddDeviceRequest) (string, error) {
	var out models.Device
	if err := c.call(ctx, "addDevice", http.MethodPost, "/api/devices/add", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// SetDeviceStatus enables or disables a station. Safe to retry.
func (c *Client) SetDeviceStatus(ctx context.Context, req models.DeviceStatusRequest) error {
	return c.callIdempotent(ctx, "setDeviceStatus", http.MethodPut, "/api/devices/edit/status", req)
}

// ListOpenSessions fetches sessions with status Open or Extended.
func (c *Client) ListOpenSessions(ctx context.Context) ([]models.GamingSession, error) {
	var out []models.GamingSession
	if err := c.call(ctx, "listOpenSessions", http.MethodGet, "/api/gaming_session/fetch/open", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListClosedSessions fetches the closed history.
func (c *Client) ListClosedSessions(ctx context.Context) ([]models.GamingSession, error) {
	var out []models.GamingSession
	if err := c.call(ctx, "listClosedSessions", http.MethodGet, "/api/gaming_session/fetch/closed", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSession opens a new session. Not idempotent: never retried, and any
// backend refusal is reported as a conflict because the documented reason
// for one is a device that is already in use.
func (c *Client) AddSession(ctx context.Context, req models.AddSessionRequest) error {
	err := c.call(ctx, "addSession", http.MethodPost, "/api/gaming_session/add", req, nil)
	if err != nil && KindOf(err) == KindBadStatus {
		ge := err.(*Error)
		return &Error{Kind: KindConflict, Op: ge.Op, Status: ge.Status}
	}
	return err
}

// ExtendSession grows a running session. Not idempotent: never retried.
func (c *Client) ExtendSession(ctx context.Context, req models.ExtendSessionRequest) error {
	return c.call(ctx, "extendSession", http.MethodPut, "/api/gaming_session/extend", req, nil)
}

// SetSessionItems updates consumable quantities to absolute values.
func (c *Client) SetSessionItems(ctx context.Context, req models.SessionItemsRequest) error {
	return c.call(ctx, "setSessionItems", http.MethodPut, "/api/gaming_session/snacks", req, nil)
}

// CloseSession is the terminal transition. Safe to retry.
func (c *Client) CloseSession(ctx context.Context, req models.CloseSessionRequest) error {
	if req.SessionID == "" {
		return shapeErr("closeSession", fmt.Errorf("empty session id"))
	}
	return c.callIdempotent(ctx, "closeSession", http.MethodPut, "/api/gaming_session/close", req)
}

package dinodial

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arogya-health/booking-platform/pkg/logging"
)

const (
	defaultBaseURL   = "https://api-dinodial-proxy.cyces.co"
	defaultUserAgent = "hospital-booking-agent/0.1"
	defaultVADEngine = "CAWL"
)

// Config controls how the Dinodial proxy client behaves.
type Config struct {
	BaseURL     string
	Token       string
	AdminToken  string
	PhoneNumber string
	VADEngine   string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logging.Logger
	UserAgent   string
}

// Client wraps the Dinodial proxy endpoints used for outbound voice calls.
//
// The bearer token is process-local mutable state guarded by a mutex: it is
// re-derived from the admin credential on startup or when the proxy rejects
// it, and is never persisted.
type Client struct {
	baseURL     string
	adminToken  string
	phoneNumber string
	vadEngine   string
	httpClient  *http.Client
	logger      *logging.Logger
	userAgent   string

	mu    sync.RWMutex
	token string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" && strings.TrimSpace(cfg.AdminToken) == "" {
		return nil, errors.New("dinodial: a token or admin token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	vadEngine := strings.TrimSpace(cfg.VADEngine)
	if vadEngine == "" {
		vadEngine = defaultVADEngine
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:     baseURL,
		adminToken:  cfg.AdminToken,
		phoneNumber: cfg.PhoneNumber,
		vadEngine:   vadEngine,
		httpClient:  httpClient,
		logger:      logger,
		userAgent:   userAgent,
		token:       cfg.Token,
	}, nil
}

// Token returns the currently active bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// InitiateCall places an outbound voice call with the given prompt and
// evaluation schema. If the proxy rejects the bearer token, the client makes
// exactly one refresh-and-retry attempt using the admin credential; if the
// refresh cannot be performed, the original rejection is surfaced unchanged.
func (c *Client) InitiateCall(ctx context.Context, req CallRequest) (*CallHandle, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("dinodial: call prompt is required")
	}
	if req.VADEngine == "" {
		req.VADEngine = c.vadEngine
	}
	if err := c.ensureToken(ctx); err != nil {
		c.logger.Warn("dinodial: token derivation failed, proceeding with stored token", "error", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("dinodial: marshal call request: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/api/proxy/make-call/", body, c.Token())
	if err != nil {
		return nil, err
	}

	if isTokenRejection(status, raw) {
		original := decodeAPIError(status, raw)
		refreshed, refreshErr := c.refreshToken(ctx)
		if refreshErr != nil {
			c.logger.Warn("dinodial: token refresh failed", "error", refreshErr)
			return nil, original
		}
		c.setToken(refreshed)
		c.logger.Info("dinodial: token refreshed, retrying call")
		status, raw, err = c.do(ctx, http.MethodPost, "/api/proxy/make-call/", body, refreshed)
		if err != nil {
			return nil, err
		}
	}

	if isRateLimitBody(status, raw) {
		return nil, &RateLimitError{Message: strings.TrimSpace(string(raw))}
	}

	data, err := decodeEnvelope(status, raw)
	if err != nil {
		return nil, err
	}
	var handle CallHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, fmt.Errorf("dinodial: decode call handle: %w", err)
	}
	return &handle, nil
}

// GenerateToken mints a bearer token for a phone number using the admin
// credential.
func (c *Client) GenerateToken(ctx context.Context, phone string) (string, error) {
	if strings.TrimSpace(c.adminToken) == "" {
		return "", errors.New("dinodial: admin token not configured")
	}
	if strings.TrimSpace(phone) == "" {
		return "", errors.New("dinodial: phone number required for token generation")
	}
	body, err := json.Marshal(map[string]string{"phone_number": phone})
	if err != nil {
		return "", fmt.Errorf("dinodial: marshal token request: %w", err)
	}
	status, raw, err := c.do(ctx, http.MethodPost, "/api/proxy/token/generate/", body, c.adminToken)
	if err != nil {
		return "", err
	}
	data, err := decodeEnvelope(status, raw)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", fmt.Errorf("dinodial: decode token: %w", err)
	}
	if td.Token == "" {
		return "", errors.New("dinodial: token generation returned empty token")
	}
	return td.Token, nil
}

// GetCallDetail fetches the status and evaluation payload for a call.
// No retry logic; failures pass through.
func (c *Client) GetCallDetail(ctx context.Context, callID int64) (*CallDetail, error) {
	status, raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/proxy/call/detail/%d/", callID), nil, c.Token())
	if err != nil {
		return nil, err
	}
	data, err := decodeEnvelope(status, raw)
	if err != nil {
		return nil, err
	}
	detail := CallDetail{ID: callID}
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("dinodial: decode call detail: %w", err)
	}
	return &detail, nil
}

// GetCallRecording fetches the recording URL for a call.
func (c *Client) GetCallRecording(ctx context.Context, callID int64) (*Recording, error) {
	status, raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/proxy/call/recording/%d/", callID), nil, c.Token())
	if err != nil {
		return nil, err
	}
	data, err := decodeEnvelope(status, raw)
	if err != nil {
		return nil, err
	}
	rec := Recording{CallID: callID}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("dinodial: decode recording: %w", err)
	}
	return &rec, nil
}

// ListCalls returns the provider's call log for the active token.
func (c *Client) ListCalls(ctx context.Context) ([]CallSummary, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/api/proxy/calls/list/", nil, c.Token())
	if err != nil {
		return nil, err
	}
	data, err := decodeEnvelope(status, raw)
	if err != nil {
		return nil, err
	}
	var calls []CallSummary
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("dinodial: decode call list: %w", err)
	}
	return calls, nil
}

// ensureToken lazily derives a bearer token from the admin credential when
// none is held, e.g. on the first call after a process restart.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.Token() != "" {
		return nil
	}
	if c.adminToken == "" || c.phoneNumber == "" {
		return nil
	}
	token, err := c.GenerateToken(ctx, c.phoneNumber)
	if err != nil {
		return err
	}
	c.setToken(token)
	return nil
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	if c.adminToken == "" {
		return "", errors.New("dinodial: no admin credential for refresh")
	}
	if c.phoneNumber == "" {
		return "", errors.New("dinodial: no phone of record for refresh")
	}
	return c.GenerateToken(ctx, c.phoneNumber)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, bearer string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("dinodial: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, fmt.Errorf("dinodial: http error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("dinodial: read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func decodeEnvelope(status int, raw []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeAPIError(status, raw)
	}
	if status < 200 || status >= 300 || (env.Status != "" && env.Status != "success") {
		return nil, decodeAPIError(status, raw)
	}
	if env.Error != "" {
		return nil, decodeAPIError(status, raw)
	}
	return env.Data, nil
}

func decodeAPIError(status int, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{StatusCode: status, Body: string(raw)}
	}
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	return &APIError{StatusCode: status, Message: msg, Detail: env.Detail, Body: string(raw)}
}

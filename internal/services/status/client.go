// Package status queries whether hosts are online through the wake backend
// and runs the polling loops built on that query.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

// CheckError is returned when a single status query fails.
type CheckError struct {
	Address    string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *CheckError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status check for %s failed with status %d: %v", e.Address, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("status check for %s failed: %v", e.Address, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// Checker answers whether address is online.
type Checker interface {
	CheckStatus(ctx context.Context, address string) (bool, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements Checker against GET /api/status.
type Client struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new status client.
func New(logger zerolog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewWithClient creates a new status client with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type statusResponse struct {
	Online *bool  `json:"online"`
	Method string `json:"method"`
}

// CheckStatus performs one status query. Any failure is a *CheckError.
func (c *Client) CheckStatus(ctx context.Context, address string) (bool, error) {
	endpoint := c.baseURL + "/api/status?" + url.Values{"ip": {address}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &CheckError{Address: address, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &CheckError{Address: address, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &CheckError{
			Address:    address,
			StatusCode: resp.StatusCode,
			Err:        errors.New("unexpected response"),
		}
	}

	var body statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return false, &CheckError{Address: address, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if body.Online == nil {
		return false, &CheckError{Address: address, StatusCode: resp.StatusCode, Err: errors.New("response has no online field")}
	}

	c.logger.Debug().
		Str("address", address).
		Bool("online", *body.Online).
		Str("method", body.Method).
		Msg("status checked")

	return *body.Online, nil
}

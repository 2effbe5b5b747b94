// Package wake asks a remote Wake-on-LAN backend to wake a device.
package wake

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

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultSuccessMessage = "Wake-on-LAN packet sent"
	defaultErrorMessage   = "failed to send wake packet"
	maxBodyBytes          = 64 << 10
)

// Service defines the interface for wake requests.
type Service interface {
	SendWake(ctx context.Context, mac string) (*models.WakeResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the wake Service interface against GET /api/wake.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new wake client.
func New(logger zerolog.Logger, baseURL string, timeout time.Duration) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewWithClient creates a new wake client with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// wakeResponse is the body of /api/wake. Exactly one field is expected to be
// set, selected by the status code.
type wakeResponse struct {
	Message *string `json:"message"`
	Error   *string `json:"error"`
}

// SendWake issues a single wake request for mac. The address is not validated
// here. Failures are *RejectedError or *TransportError.
func (s *Impl) SendWake(ctx context.Context, mac string) (*models.WakeResult, error) {
	endpoint := s.baseURL + "/api/wake?" + url.Values{"mac": {mac}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	s.logger.Debug().Str("mac", mac).Str("url", endpoint).Msg("sending wake request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := decodeResponse(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := defaultErrorMessage
		if body.Error != nil && *body.Error != "" {
			msg = *body.Error
		}
		s.logger.Warn().
			Str("mac", mac).
			Int("status", resp.StatusCode).
			Str("error", msg).
			Msg("wake request rejected")
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: msg}
	}

	msg := defaultSuccessMessage
	if body.Message != nil && *body.Message != "" {
		msg = *body.Message
	}

	s.logger.Info().Str("mac", mac).Str("message", msg).Msg("wake request accepted")

	return &models.WakeResult{Message: msg}, nil
}

func decodeResponse(r io.Reader) (*wakeResponse, error) {
	var body wakeResponse
	if err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty response body")
		}
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &body, nil
}

// Package probe checks whether the BasicFit backend can be reached.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	bferrors "github.com/infodancer/basicfit/errors"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://basicfit-production.up.railway.app/"

// healthPath is relative to the base URL.
const healthPath = "api/core/health/"

// drainLimit bounds how much of an unread body is consumed so the
// connection can be reused.
const drainLimit = 64 << 10

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Health is the backend's health document.
type Health struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	APIVersion string `json:"api_version"`
	Service    string `json:"service"`
}

// OK reports whether the backend and its database both report "OK".
func (h *Health) OK() bool {
	return h.Status == "OK" && h.Database == "OK"
}

// Prober issues single, unretried GET requests against a base URL.
type Prober struct {
	client  Doer
	baseURL url.URL
	logger  *slog.Logger
}

// NewProber creates a Prober. A nil client uses http.DefaultClient; a nil
// logger uses slog.Default().
func NewProber(client Doer, baseURL *url.URL, logger *slog.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		client:  client,
		baseURL: *baseURL,
		logger:  logger,
	}
}

// TestConnection reports whether a GET to the base URL returned 2xx.
// Transport failures and error statuses both yield false.
func (p *Prober) TestConnection(ctx context.Context) bool {
	if err := p.Check(ctx); err != nil {
		p.logger.Debug("connection test failed",
			slog.String("url", p.baseURL.String()),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// Check performs the same request as TestConnection.
// Returns errors.ErrUnreachable if no response arrived, or
// errors.ErrUnexpectedStatus if the status was not 2xx.
func (p *Prober) Check(ctx context.Context) error {
	resp, err := p.get(ctx, &p.baseURL)
	if err != nil {
		return err
	}
	defer release(resp)

	return checkStatus(resp)
}

// Health fetches and decodes the backend health document.
func (p *Prober) Health(ctx context.Context) (*Health, error) {
	resp, err := p.get(ctx, p.baseURL.JoinPath(healthPath))
	if err != nil {
		return nil, err
	}
	defer release(resp)

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	h := new(Health)
	if err := json.NewDecoder(resp.Body).Decode(h); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

func (p *Prober) get(ctx context.Context, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bferrors.ErrUnreachable, err)
	}

	p.logger.Debug("probe response",
		slog.String("url", target.String()),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode))
	return resp, nil
}

// statusError carries the code of a non-2xx response and unwraps to
// errors.ErrUnexpectedStatus.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return bferrors.ErrUnexpectedStatus.Error() + ": " + e.status
}

func (e *statusError) Unwrap() error {
	return bferrors.ErrUnexpectedStatus
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}
	return nil
}

// StatusCode extracts the HTTP status from an error returned by Check or
// Health. Returns 0 if err carries none.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

// release drains a bounded amount of the body and closes it.
func release(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}

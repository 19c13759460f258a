package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/writequeue"
)

// ErrUnavailable wraps transport-level failures; the caller retries on the
// next flush.
var ErrUnavailable = errors.New("remote: unavailable")

// Options configures a Client.
type Options struct {
	// BaseURL of the remote system of record, e.g. "https://records.example.com".
	BaseURL string
	// Timeout per request. Zero means 10s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client; mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the remote system of record. One logical operation matters
// to the resiliency core: apply a mutation. Health probing rides along for
// the connectivity monitor.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("remote: Options.BaseURL is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: strings.TrimRight(opts.BaseURL, "/"), http: hc}, nil
}

// Apply sends one mutation to the remote system. Any transport error or
// non-2xx response is a failed apply; 4xx responses are still retried by the
// caller because dropping the mutation silently is worse than re-sending it.
func (c *Client) Apply(ctx context.Context, m writequeue.Mutation) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("remote: encode mutation %s: %w", m.ID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/records/apply", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// the mutation id doubles as an idempotency key on re-sends
	req.Header.Set("Idempotency-Key", m.ID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote: apply %s: status %d", m.ID, resp.StatusCode)
	}
	return nil
}

// Probe reports whether the remote health endpoint answers. It satisfies the
// connectivity monitor's Prober contract.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Package geofix acquires position fixes from a positioning gateway over
// HTTP. The gateway sits in front of the device's GNSS receiver and answers
// a single-shot position request.
package geofix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dairydesk/milk-orders/internal/domain/location"
)

// Client implements location.Acquirer against a positioning gateway.
//
// At most one gateway request is outstanding at a time: concurrent Acquire
// calls share a single in-flight request. A fix younger than the configured
// cached-fix tolerance is served from memory without touching the gateway.
type Client struct {
	baseURL string
	opts    location.Options
	httpc   *http.Client
	lg      *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	lastFix   location.Captured
	lastFixAt time.Time
}

var _ location.Acquirer = (*Client)(nil)

// New creates a gateway client with the given acquisition options.
func New(baseURL string, opts location.Options, lg *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		opts:    opts,
		httpc:   &http.Client{Timeout: opts.Timeout},
		lg:      lg,
	}
}

type positionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Acquire returns a position fix, reusing a cached fix within the tolerance
// window. Failures map to the location package's sentinel reasons.
func (c *Client) Acquire(ctx context.Context) (location.Captured, error) {
	c.mu.Lock()
	if !c.lastFixAt.IsZero() && time.Since(c.lastFixAt) <= c.opts.MaxCachedAge {
		fix := c.lastFix
		c.mu.Unlock()
		return fix, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("position", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return location.Captured{}, err
	}
	return v.(location.Captured), nil
}

func (c *Client) fetch(ctx context.Context) (location.Captured, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	u := c.baseURL + "/v1/position"
	if c.opts.HighAccuracy {
		u += "?" + url.Values{"accuracy": {"high"}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return location.Captured{}, errors.Wrap(err, "build position request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return location.Captured{}, location.ErrTimeout
		}
		c.lg.Warn("position gateway unreachable", zap.Error(err))
		return location.Captured{}, location.ErrUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return location.Captured{}, location.ErrPermissionDenied
	default:
		c.lg.Warn("position gateway error", zap.Int("status", resp.StatusCode))
		return location.Captured{}, location.ErrUnavailable
	}

	var pos positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		c.lg.Warn("malformed position response", zap.Error(err))
		return location.Captured{}, location.ErrUnavailable
	}

	fix, err := location.New(pos.Latitude, pos.Longitude, pos.Address)
	if err != nil {
		c.lg.Warn("gateway returned out-of-range coordinates", zap.Error(err))
		return location.Captured{}, location.ErrUnavailable
	}

	c.mu.Lock()
	c.lastFix = fix
	c.lastFixAt = time.Now()
	c.mu.Unlock()

	return fix, nil
}

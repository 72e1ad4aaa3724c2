// Package query builds and dispatches sensor telemetry queries. The composer
// guarantees last-issued-wins: responses to superseded requests are discarded
// at the consumption point, so an older range can never overwrite a newer
// one no matter the arrival order.
package query

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mrseck/AQ54-fe/internal/identity/gateway"
	"github.com/mrseck/AQ54-fe/internal/sensor/domain"
	"github.com/mrseck/AQ54-fe/internal/telemetry"
)

// Composer condition errors. ErrSuperseded and ErrSessionExpired are
// conditions the UI renders, not faults of the composer.
var (
	// ErrSuperseded means a newer request was issued while this one was in
	// flight; its response was dropped and the current result is untouched.
	ErrSuperseded = errors.New("response superseded by a newer request")
	// ErrSessionExpired means the server answered 401; the local session has
	// already been invalidated and the user must re-authenticate.
	ErrSessionExpired = errors.New("session expired")
)

// Requester is the authenticated-request primitive the composer builds on.
// *gateway.Client satisfies it.
type Requester interface {
	AuthorizedJSON(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Result is one settled query outcome. NoData marks an empty but well-formed
// result set, a first-class state distinct from failure.
type Result struct {
	Window      domain.QueryWindow
	Samples     []domain.Sample
	NoData      bool
	RetrievedAt time.Time
}

// Composer issues at most one request per explicit refresh and tracks the
// most recently issued request so stale responses cannot win.
type Composer struct {
	req     Requester
	metrics *telemetry.Metrics

	mu         sync.Mutex
	lastIssued uint64
	applied    uint64
	current    *Result
}

// NewComposer returns a composer over the given authenticated requester.
// metrics may be nil.
func NewComposer(req Requester, metrics *telemetry.Metrics) *Composer {
	return &Composer{req: req, metrics: metrics}
}

// Refresh validates the window, dispatches one authenticated request, and
// normalizes the response. A window failing validation never reaches the
// network. The returned result is also retained as Current unless a newer
// request was issued while this one was in flight, in which case the response
// is dropped and ErrSuperseded is returned.
func (c *Composer) Refresh(ctx context.Context, w domain.QueryWindow) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastIssued++
	seq := c.lastIssued
	c.mu.Unlock()

	c.metrics.CountQuery(ctx, w.Station)
	var raw []domain.RawSample
	err := c.req.AuthorizedJSON(ctx, http.MethodGet, "/sensor", w.QueryParams(), nil, &raw)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	res := &Result{
		Window:      w,
		Samples:     domain.NormalizeAll(raw),
		RetrievedAt: time.Now().UTC(),
	}
	res.NoData = len(res.Samples) == 0

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.lastIssued {
		return nil, ErrSuperseded
	}
	c.applied = seq
	c.current = res
	return res, nil
}

// Current returns the latest accepted result, or ok false when no query has
// settled yet.
func (c *Composer) Current() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Result{}, false
	}
	return *c.current, true
}

// Reset forgets the current result. Called on logout so telemetry fetched
// under a dropped session is not shown again.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

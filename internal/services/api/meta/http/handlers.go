// Package http serves the meta endpoints: liveness, readiness, build info and session counts
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"insightboard/internal/core/version"
	"insightboard/internal/modkit/httpkit"
)

// Check is one readiness probe; a nil Ping is reported as skipped
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      []Check
	// Sessions lists the live dashboard sessions; nil reports none
	Sessions func() []string
	// ProbeTimeout bounds every readiness probe, 2s when zero
	ProbeTimeout time.Duration
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ProbeTimeout <= 0 {
		d.ProbeTimeout = 2 * time.Second
	}
	h := &handlers{Deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/sessions", h.sessions)
}

type handlers struct{ Deps }

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"insightboard-api"`
	Started string `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// ProbeResult is one dependency outcome: ok, fail or skipped
type ProbeResult struct {
	Name   string `json:"name"            example:"data"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"data api returned 503"`
	Millis int64  `json:"ms"              example:"12"`
}

// ReadyResponse rolls the probes up: fail beats skipped beats ok
type ReadyResponse struct {
	Status string        `json:"status" example:"ok"`
	Checks []ProbeResult `json:"checks"`
}

// SessionsResponse lists the live dashboard sessions
type SessionsResponse struct {
	Count    int      `json:"count"    example:"2"`
	Sessions []string `json:"sessions" example:"default"`
}

// @Summary Liveness and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.ServiceName,
		Started: h.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness, probing every dependency in parallel
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	ctx, cancel := context.WithTimeout(ctx, h.ProbeTimeout)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ProbeResult, len(h.Checks))}
	var wg sync.WaitGroup
	for i, c := range h.Checks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Checks[i] = probe(ctx, c)
		}()
	}
	wg.Wait()

	for _, c := range out.Checks {
		switch {
		case c.Status == "fail":
			out.Status = "fail"
		case c.Status == "skipped" && out.Status == "ok":
			out.Status = "degraded"
		}
	}
	return out, nil
}

func probe(ctx context.Context, c Check) ProbeResult {
	res := ProbeResult{Name: c.Name, Status: "skipped"}
	if c.Ping == nil {
		return res
	}
	start := time.Now()
	err := c.Ping(ctx)
	res.Millis = time.Since(start).Milliseconds()
	res.Status = "ok"
	if err != nil {
		res.Status, res.Error = "fail", err.Error()
	}
	return res
}

// @Summary Build info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) { return version.Info(), nil }

// @Summary Live dashboard sessions
// @Tags Meta
// @Produce json
// @Success 200 {object} SessionsResponse
// @Router /meta/sessions [get]
func (h *handlers) sessions(_ *http.Request) (any, error) {
	ids := []string{}
	if h.Sessions != nil {
		ids = append(ids, h.Sessions()...)
	}
	return SessionsResponse{Count: len(ids), Sessions: ids}, nil
}

// Package health provides health check endpoints for the Fern service.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Response struct {
	Status      Status                 `json:"status"`
	Version     string                 `json:"version,omitempty"`
	Uptime      string                 `json:"uptime,omitempty"`
	Maintenance bool                   `json:"maintenance,omitempty"`
	Checks      map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt  time.Time              `json:"reported_at"`
}

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type dependency struct {
	name     string
	ping     PingFunc
	critical bool
}

// Checker reports on the warehouse and the optional cache backends.
type Checker struct {
	deps        []dependency
	maintenance func() bool
	startTime   time.Time
	version     string
	mu          sync.RWMutex
	ready       bool
}

func NewChecker(version string) *Checker {
	return &Checker{
		startTime:   time.Now(),
		version:     version,
		maintenance: func() bool { return false },
	}
}

// Require adds a dependency whose failure makes the service unhealthy.
func (c *Checker) Require(name string, ping PingFunc) *Checker {
	c.deps = append(c.deps, dependency{name: name, ping: ping, critical: true})
	return c
}

// Optional adds a dependency whose failure only degrades the service.
func (c *Checker) Optional(name string, ping PingFunc) *Checker {
	c.deps = append(c.deps, dependency{name: name, ping: ping})
	return c
}

// WithMaintenance reports the maintenance switch alongside the checks.
func (c *Checker) WithMaintenance(maintenance func() bool) *Checker {
	c.maintenance = maintenance
	return c
}

func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Checker) LivenessHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     c.uptime(),
		ReportedAt: time.Now(),
	})
}

func (c *Checker) ReadinessHandler(ctx echo.Context) error {
	if !c.IsReady() {
		return ctx.JSON(http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			ReportedAt: time.Now(),
			Checks: map[string]CheckResult{
				"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
			},
		})
	}
	return c.HealthHandler(ctx)
}

func (c *Checker) HealthHandler(ctx echo.Context) error {
	checks := c.RunChecks(ctx.Request().Context())
	status := Overall(checks)

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, Response{
		Status:      status,
		Version:     c.version,
		Uptime:      c.uptime(),
		Maintenance: c.maintenance(),
		Checks:      checks,
		ReportedAt:  time.Now(),
	})
}

// RunChecks pings every dependency concurrently.
func (c *Checker) RunChecks(ctx context.Context) map[string]CheckResult {
	results := make([]CheckResult, len(c.deps))
	var g errgroup.Group
	for i, dep := range c.deps {
		g.Go(func() error {
			results[i] = check(ctx, dep)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(c.deps))
	for i, dep := range c.deps {
		checks[dep.name] = results[i]
	}
	return checks
}

func check(ctx context.Context, dep dependency) CheckResult {
	failed := StatusDegraded
	if dep.critical {
		failed = StatusUnhealthy
	}
	if dep.ping == nil {
		return CheckResult{Status: failed, Message: dep.name + " not configured"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := dep.ping(ctx); err != nil {
		return CheckResult{Status: failed, Message: err.Error(), Latency: time.Since(start).String()}
	}
	return CheckResult{Status: StatusHealthy, Latency: time.Since(start).String()}
}

// Overall is the worst status among checks.
func Overall(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range checks {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

func (c *Checker) uptime() string {
	return time.Since(c.startTime).Round(time.Second).String()
}

func (c *Checker) RegisterRoutes(e *echo.Echo) {
	health := e.Group("/health")
	health.GET("", c.HealthHandler)
	health.GET("/live", c.LivenessHandler)
	health.GET("/ready", c.ReadinessHandler)
}

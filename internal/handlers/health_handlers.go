package handlers

import (
	"context"
	"net/http"
	"time"

	"orderhub/internal/messaging"

	"github.com/labstack/echo/v4"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus exposes the broker connection state.
type BrokerStatus interface {
	State() messaging.State
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	broker  BrokerStatus
	started time.Time
	version string
}

// NewHealthHandlers accepts a nil cache when the product cache is disabled.
func NewHealthHandlers(db Pinger, cache Pinger, broker BrokerStatus, version string) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache, broker: broker, started: time.Now(), version: version}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/health", h.Live)
	e.GET("/health/ready", h.Ready)
}

// Live reports that the process is serving requests.
func (h *HealthHandlers) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status("healthy", nil))
}

// Ready reports dependency state. The database and broker are required for
// the write path; the product cache only degrades reads.
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	services := make(map[string]string, 3)
	status := "healthy"

	if err := h.db.Ping(ctx); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	state := h.broker.State()
	services["broker"] = state.String()
	if state != messaging.StateConnected {
		status = "unhealthy"
	}

	switch {
	case h.cache == nil:
		services["redis"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		services["redis"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
		}
	default:
		services["redis"] = "healthy"
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, h.status(status, services))
}

func (h *HealthHandlers) status(status string, services map[string]string) HealthStatus {
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
}

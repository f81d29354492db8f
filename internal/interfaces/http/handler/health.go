package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service liveness and dependency health
type HealthHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	timeout   time.Duration
	checks    map[string]HealthCheck
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
		checks:    make(map[string]HealthCheck),
	}
}

// WithCheck registers a named dependency probe
func (h *HealthHandler) WithCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health answers 200 when every probe passes and 503 otherwise
//
//	@Summary	Health check
//	@Tags		system
//	@Router		/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	h "campusevents/internal/delivery/http/helpers"
)

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

type HealthController struct {
	Logger  *slog.Logger
	Checks  map[string]Check
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, checks map[string]Check) *HealthController {
	return &HealthController{Logger: logger, Checks: checks, Timeout: 2 * time.Second}
}

// Health godoc
// @Summary Health check
// @Description Reports the status of each backing store. Returns 503 when any is down.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range c.Checks {
		if err := check(ctx); err != nil {
			c.Logger.WarnContext(ctx, "health check failed", "check", name, "err", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		h.WriteJSONSuccess(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": status})
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]any{"status": "ok", "checks": status})
}

// Package handler provides HTTP handlers for platform-level endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freshreceipt_backend/internal/api"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency, such as the database or Redis.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Health returns the /healthz handler. It answers 503 when any check fails.
func Health(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		status, body := http.StatusOK, api.HealthResponse{Status: "ok"}
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()
		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				slog.Error("health check failed", "check", check.Name, "error", err)
				status, body = http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"}
				break
			}
		}

		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}
		c.JSON(status, body)
	}
}

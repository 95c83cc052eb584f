package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports "busy" while an acquisition run holds the browser identity.
func Health(svc *acquisition.Service, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		running := svc.Running()
		if running {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Providers: svc.Providers(),
			Running:   running,
			Version:   Version,
		})
	}
}

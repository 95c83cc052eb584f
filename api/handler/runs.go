package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/models"
)

// Run returns a handler for GET /api/v1/runs/:id, which reads a finished
// run back from the record store.
func Run(svc *acquisition.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		runID := c.Param("id")

		records, err := svc.Store().Records(c.Request.Context(), runID)
		if err != nil {
			respondError(c, models.NewAcquireError(models.ErrCodeStorage, "failed to read run records", err),
				models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}
		if len(records) == 0 {
			respondError(c, models.NewAcquireError(models.ErrCodeNotFound, "run not found", nil),
				models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}

		var keywords []string
		seen := make(map[string]bool)
		for _, r := range records {
			if !seen[r.Keyword] {
				seen[r.Keyword] = true
				keywords = append(keywords, r.Keyword)
			}
		}

		c.JSON(http.StatusOK, models.SerpResponse{
			Success: true,
			RunID:   runID,
			Records: records,
			Meta:    models.NewRunMeta(keywords, 0, records),
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}

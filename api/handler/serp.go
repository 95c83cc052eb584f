package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/cache"
	"github.com/use-agent/serpscout/models"
)

// Serp returns a handler for POST /api/v1/serp.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Serve from cache when max_age allows it.
//  3. Run the acquisition synchronously; blocked keywords still yield 200.
//  4. Fill meta and timing, store in cache, return 200.
func Serp(svc *acquisition.Service, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SerpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SerpResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		maxAge := time.Duration(req.MaxAge) * time.Millisecond
		cacheKey := cache.Key(req.Keywords, req.PerKeyword, req.Options)
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Acquire ──────────────────────────────────────────────
		run, err := svc.Run(c.Request.Context(), req.Keywords, req.PerKeyword, req.Options, nil)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		resp := &models.SerpResponse{
			Success: true,
			RunID:   run.ID,
			Records: run.Records,
			Meta:    models.NewRunMeta(req.Keywords, req.PerKeyword, run.Records),
			Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		}

		if cc != nil && maxAge > 0 {
			cc.Set(cacheKey, resp)
			out := *resp
			out.CacheStatus = "miss"
			c.JSON(http.StatusOK, out)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps an AcquireError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	var acqErr *models.AcquireError
	if !errors.As(err, &acqErr) {
		acqErr = models.NewAcquireError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(acqErr), models.SerpResponse{
		Success: false,
		Error:   acqErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AcquireError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeBrowserLaunch:
		return http.StatusBadGateway // 502
	case models.ErrCodeBusy, models.ErrCodeNoProviders:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

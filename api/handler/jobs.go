package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/webhook"
)

// Job states.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobPartial    = "partial"
	JobFailed     = "failed"
)

const jobTTL = time.Hour

// Jobs runs acquisitions in the background and keeps their progress for an
// hour after they were created.
type Jobs struct {
	ctx      context.Context
	svc      *acquisition.Service
	notifier *webhook.Notifier

	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewJobs creates the job registry. Running jobs and the expiry sweep stop
// when ctx is done. A nil notifier disables webhooks.
func NewJobs(ctx context.Context, svc *acquisition.Service, notifier *webhook.Notifier) *Jobs {
	j := &Jobs{
		ctx:      ctx,
		svc:      svc,
		notifier: notifier,
		jobs:     make(map[string]*models.Job),
	}
	go j.cleanupLoop()
	return j
}

// Post returns a handler for POST /api/v1/serp/jobs.
func (j *Jobs) Post() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SerpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		job := &models.Job{
			ID:        "job-" + uuid.NewString(),
			Status:    JobQueued,
			Total:     len(req.Keywords),
			CreatedAt: time.Now().Unix(),
		}
		j.mu.Lock()
		j.jobs[job.ID] = job
		j.mu.Unlock()

		go j.run(job, req)

		c.JSON(http.StatusAccepted, models.JobResponse{
			ID:     job.ID,
			Status: JobQueued,
			Total:  job.Total,
		})
	}
}

// Get returns a handler for GET /api/v1/serp/jobs/:id.
func (j *Jobs) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := j.status(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func (j *Jobs) status(id string) (models.JobStatusResponse, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	job, ok := j.jobs[id]
	if !ok {
		return models.JobStatusResponse{}, false
	}
	return models.JobStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Records:   append([]models.SearchResultRecord(nil), job.Records...),
		Error:     job.Error,
	}, true
}

// run waits for the acquisition slot, then processes the job's keywords.
func (j *Jobs) run(job *models.Job, req models.SerpRequest) {
	j.locked(func() { job.Status = JobProcessing })

	_, err := j.svc.Run(j.ctx, req.Keywords, req.PerKeyword, req.Options,
		func(done, _ int, recs []models.SearchResultRecord) {
			j.locked(func() {
				job.Completed = done
				job.Records = append(job.Records, recs...)
			})
		})

	j.locked(func() {
		if err != nil {
			var acqErr *models.AcquireError
			if !errors.As(err, &acqErr) {
				acqErr = models.NewAcquireError(models.ErrCodeInternal, err.Error(), err)
			}
			job.Status = JobFailed
			job.Error = acqErr.ToDetail()
			return
		}
		job.Status = finalStatus(job)
	})

	final, _ := j.status(job.ID)
	slog.Info("job finished",
		"id", job.ID,
		"status", final.Status,
		"completed", final.Completed,
		"total", final.Total,
		"records", len(final.Records),
	)

	if j.notifier != nil && req.WebhookURL != "" {
		eventType := webhook.EventJobCompleted
		if final.Status == JobFailed {
			eventType = webhook.EventJobFailed
		}
		j.notifier.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      eventType,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      final,
		})
	}
}

// finalStatus is failed when every keyword ended blocked, partial when
// some did, and completed otherwise.
func finalStatus(job *models.Job) string {
	blocked := 0
	for _, r := range job.Records {
		if r.Blocked {
			blocked++
		}
	}
	switch {
	case job.Total > 0 && blocked == job.Total:
		return JobFailed
	case blocked > 0:
		return JobPartial
	default:
		return JobCompleted
	}
}

func (j *Jobs) locked(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn()
}

func (j *Jobs) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-jobTTL).Unix()
			j.mu.Lock()
			for id, job := range j.jobs {
				if job.CreatedAt < cutoff {
					delete(j.jobs, id)
				}
			}
			j.mu.Unlock()
		}
	}
}

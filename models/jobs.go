package models

// JobResponse is the immediate response for POST /api/v1/serp/jobs.
type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// JobStatusResponse is the response for GET /api/v1/serp/jobs/:id.
type JobStatusResponse struct {
	ID        string               `json:"id"`
	Status    string               `json:"status"`
	Completed int                  `json:"completed"`
	Total     int                  `json:"total"`
	Records   []SearchResultRecord `json:"records,omitempty"`
	Error     *ErrorDetail         `json:"error,omitempty"`
}

// Job tracks an asynchronous acquisition run.
type Job struct {
	ID        string
	Status    string // "queued", "processing", "completed", "partial", "failed"
	Total     int
	Completed int
	Records   []SearchResultRecord
	Error     *ErrorDetail
	CreatedAt int64 // unix timestamp
}

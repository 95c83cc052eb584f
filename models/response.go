package models

// SerpResponse is the response for POST /api/v1/serp.
type SerpResponse struct {
	// Success is false only when the run could not start at all.
	// Blocked keywords still produce a successful response with sentinel records.
	Success bool `json:"success"`

	// RunID identifies the run in the record store.
	RunID string `json:"run_id,omitempty"`

	// Records holds every record in keyword order.
	Records []SearchResultRecord `json:"records"`

	// Meta summarises the run.
	Meta RunMeta `json:"meta"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// RunMeta summarises one acquisition run.
type RunMeta struct {
	Keywords        []string       `json:"keywords"`
	PerKeyword      int            `json:"per_keyword"`
	BlockedKeywords int            `json:"blocked_keywords"`
	Sources         map[Source]int `json:"sources"`
}

// NewRunMeta counts records per source and blocked keywords.
func NewRunMeta(keywords []string, perKeyword int, records []SearchResultRecord) RunMeta {
	meta := RunMeta{
		Keywords:   keywords,
		PerKeyword: perKeyword,
		Sources:    make(map[Source]int),
	}
	for _, r := range records {
		meta.Sources[r.Source]++
		if r.Blocked {
			meta.BlockedKeywords++
		}
	}
	return meta
}

// TimingInfo breaks down the time spent in a run.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string   `json:"status"` // "healthy" or "busy"
	Uptime    string   `json:"uptime"`
	Providers []string `json:"providers"`
	Running   bool     `json:"running"`
	Version   string   `json:"version"`
}

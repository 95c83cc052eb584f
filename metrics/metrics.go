// Package metrics exposes Prometheus counters for the acquisition pipeline.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpscout_attempts_total",
			Help: "Total number of provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serpscout_attempt_duration_seconds",
			Help:    "Duration of a single provider attempt in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"provider"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpscout_provider_calls_total",
			Help: "Total number of fallback chain provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	KeywordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpscout_keywords_total",
			Help: "Total number of keywords acquired by the source that answered",
		},
		[]string{"source"},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpscout_records_total",
			Help: "Total number of records emitted by source",
		},
		[]string{"source"},
	)

	BlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpscout_blocks_total",
			Help: "Total number of attempts the search engine blocked, by reason",
		},
		[]string{"provider", "reason"},
	)

	StorageFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serpscout_storage_failures_total",
			Help: "Total number of failed record persistence attempts",
		},
	)

	BrowserSessions = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "serpscout_browser_sessions",
			Help: "Number of browser sessions currently open",
		},
		func() float64 {
			if fn := sessionsFn.Load(); fn != nil {
				return float64((*fn)())
			}
			return 0
		},
	)
)

var sessionsFn atomic.Pointer[func() int]

// TrackBrowserSessions makes the browser_sessions gauge report fn.
func TrackBrowserSessions(fn func() int) {
	sessionsFn.Store(&fn)
}

// OutcomeSuccess labels a successful attempt; failures use their reason.
const OutcomeSuccess = "success"

// RecordAttempt counts one provider attempt and its duration.
func RecordAttempt(provider, outcome string, d time.Duration) {
	AttemptsTotal.WithLabelValues(provider, outcome).Inc()
	AttemptDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordBlock counts one attempt that ended on a block page.
func RecordBlock(provider, reason string) {
	BlocksTotal.WithLabelValues(provider, reason).Inc()
}

// RecordProviderCall counts one provider call made by the fallback chain.
func RecordProviderCall(provider, outcome string) {
	ProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordKeyword counts a finished keyword and the records it produced.
func RecordKeyword(source string, records int) {
	KeywordsTotal.WithLabelValues(source).Inc()
	RecordsTotal.WithLabelValues(source).Add(float64(records))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/serpscout/engine"
)

// Event types.
const (
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// SignatureHeader carries "sha256=<hex hmac of the body>" when a secret is set.
const SignatureHeader = "X-Serpscout-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// DefaultDelays are the waits before each delivery attempt.
var DefaultDelays = []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second}

// Notifier delivers events to caller-supplied endpoints.
type Notifier struct {
	client  *resty.Client
	sleeper engine.Sleeper
	delays  []time.Duration
}

// New creates a Notifier. A nil sleeper uses real timers and nil delays
// use DefaultDelays.
func New(sleeper engine.Sleeper, delays []time.Duration) *Notifier {
	if sleeper == nil {
		sleeper = engine.RealSleep
	}
	if len(delays) == 0 {
		delays = DefaultDelays
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "Serpscout-Webhook/1.0")
	return &Notifier{client: client, sleeper: sleeper, delays: delays}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends one event synchronously.
func (n *Notifier) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req := n.client.R().SetContext(ctx).SetBody(body)
	if secret != "" {
		req.SetHeader(SignatureHeader, Sign(secret, body))
	}

	resp, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// DeliverWithRetry tries every configured delay in turn and reports
// whether any attempt succeeded.
func (n *Notifier) DeliverWithRetry(ctx context.Context, url, secret string, event *Event) bool {
	for attempt, delay := range n.delays {
		if err := n.sleeper.Sleep(ctx, delay); err != nil {
			slog.Warn("webhook delivery abandoned", "url", url, "event", event.Type, "job_id", event.JobID, "error", err)
			return false
		}
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := n.Deliver(attemptCtx, url, secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
			)
			return true
		}
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", url,
		"event", event.Type,
		"job_id", event.JobID,
	)
	return false
}

// DeliverAsync runs DeliverWithRetry in the background.
func (n *Notifier) DeliverAsync(url, secret string, event *Event) {
	go n.DeliverWithRetry(context.Background(), url, secret, event)
}

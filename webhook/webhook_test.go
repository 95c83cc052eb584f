package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/serpscout/engine"
)

func TestDeliver_SignsBody(t *testing.T) {
	var gotSig, gotUA string
	var gotEvent Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotUA = r.Header.Get("User-Agent")
		if gotSig != Sign("s3cret", body) {
			t.Errorf("signature %q does not match body", gotSig)
		}
		_ = json.Unmarshal(body, &gotEvent)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(engine.NoSleep, nil)
	ev := &Event{Type: EventJobCompleted, JobID: "job-1", Timestamp: 1700000000, Data: map[string]int{"records": 10}}
	if err := n.Deliver(context.Background(), srv.URL, "s3cret", ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotUA != "Serpscout-Webhook/1.0" {
		t.Errorf("unexpected user agent %q", gotUA)
	}
	if gotEvent.Type != EventJobCompleted || gotEvent.JobID != "job-1" {
		t.Errorf("unexpected event %+v", gotEvent)
	}
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sig := r.Header.Get(SignatureHeader); sig != "" {
			t.Errorf("unexpected signature %q", sig)
		}
	}))
	defer srv.Close()

	if err := New(engine.NoSleep, nil).Deliver(context.Background(), srv.URL, "", &Event{Type: EventJobFailed}); err != nil {
		t.Fatal(err)
	}
}

func TestDeliverWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int32
		wantOK    bool
		wantCalls int32
	}{
		{"first attempt", 0, true, 1},
		{"third attempt", 2, true, 3},
		{"exhausted", 10, false, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failFirst {
					w.WriteHeader(http.StatusBadGateway)
				}
			}))
			defer srv.Close()

			var slept []time.Duration
			sleeper := engine.SleepFunc(func(ctx context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			})
			n := New(sleeper, nil)

			ok := n.DeliverWithRetry(context.Background(), srv.URL, "", &Event{Type: EventJobCompleted})
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if int32(len(slept)) != tt.wantCalls || slept[len(slept)-1] != DefaultDelays[tt.wantCalls-1] {
				t.Errorf("unexpected delays %v", slept)
			}
		})
	}
}

func TestDeliverWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if New(engine.NoSleep, nil).DeliverWithRetry(ctx, "http://127.0.0.1:1", "", &Event{}) {
		t.Error("expected delivery to be abandoned")
	}
}

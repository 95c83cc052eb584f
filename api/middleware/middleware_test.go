package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpscout/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyAPIKey))
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"alpha", "beta"}))

	tests := []struct {
		name    string
		headers map[string]string
		want    int
		wantKey string
	}{
		{"x-api-key", map[string]string{"X-API-Key": "alpha"}, http.StatusOK, "alpha"},
		{"bearer", map[string]string{"Authorization": "Bearer beta"}, http.StatusOK, "beta"},
		{"missing", nil, http.StatusUnauthorized, ""},
		{"wrong", map[string]string{"X-API-Key": "gamma"}, http.StatusUnauthorized, ""},
		{"basic scheme", map[string]string{"Authorization": "Basic alpha"}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && w.Body.String() != tt.wantKey {
				t.Errorf("context key = %q, want %q", w.Body.String(), tt.wantKey)
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth(nil))
	if w := get(r, nil); w.Code != http.StatusOK {
		t.Errorf("expected open access, got %d", w.Code)
	}
}

func TestRateLimit_PerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	for i := 0; i < 2; i++ {
		if w := get(r, map[string]string{"X-API-Key": "a"}); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := get(r, map[string]string{"X-API-Key": "a"}); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", w.Code)
	}
	if w := get(r, map[string]string{"X-API-Key": "b"}); w.Code != http.StatusOK {
		t.Errorf("other key should have its own bucket, got %d", w.Code)
	}
}

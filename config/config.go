package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is built once at startup
// and injected into every component; nothing below cmd/ reads the environment.
type Config struct {
	Server      ServerConfig
	Browser     BrowserConfig
	Acquisition AcquisitionConfig
	Retry       RetryConfig
	Providers   ProvidersConfig
	Debug       DebugConfig
	Storage     StorageConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Log         LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the automated browser session.
type BrowserConfig struct {
	// Enabled toggles the browser provider.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless. Headful sessions
	// are blocked less often, so this defaults to false.
	Headless bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy used when a run does not set one.
	DefaultProxy string

	// UserAgentPoolFile points at a file with one user-agent per line.
	UserAgentPoolFile string

	// LandingURL is the neutral page visited before the query to pick up
	// baseline cookies.
	LandingURL string // default: "https://www.google.com/ncr"

	// SearchURL is the query endpoint; q, num, hl and gl are appended.
	SearchURL string // default: "https://www.google.com/search"

	// Language and Region are sent as hl and gl.
	Language string // default: "en"
	Region   string // default: "us"

	// NavigationTimeout bounds a single navigation.
	NavigationTimeout time.Duration // default: 30s

	// ResultTimeout bounds the wait for a result marker after navigation.
	ResultTimeout time.Duration // default: 15s

	// AttemptTimeout bounds one whole browser attempt.
	AttemptTimeout time.Duration // default: 90s

	// BlockedResourceTypes lists resource types the session refuses to load.
	// default: none
	BlockedResourceTypes []string
}

// AcquisitionConfig controls keyword iteration.
type AcquisitionConfig struct {
	// PerKeyword is the default result count per keyword.
	PerKeyword int // default: 10

	// PolitenessMin and PolitenessMax bound the randomized pause between keywords.
	PolitenessMin time.Duration // default: 1.5s
	PolitenessMax time.Duration // default: 3.5s

	// APIFirst tries API providers before the browser by default.
	APIFirst bool // default: false

	// RulesFile is an optional YAML file overriding the block-detection markers.
	RulesFile string
}

// RetryConfig controls browser attempt retries.
type RetryConfig struct {
	MaxAttempts int           // default: 4
	BackoffBase time.Duration // default: 1s
	Jitter      time.Duration // default: 1s
}

// ProvidersConfig holds the external search API credentials.
type ProvidersConfig struct {
	SerpAPI SerpAPIConfig
	CSE     CSEConfig
}

// SerpAPIConfig configures provider A.
type SerpAPIConfig struct {
	APIKey  string
	BaseURL string        // default: "https://serpapi.com"
	Timeout time.Duration // default: 30s
}

// CSEConfig configures provider B (Google Custom Search JSON API).
type CSEConfig struct {
	APIKey  string
	CX      string
	BaseURL string        // default: "https://www.googleapis.com"
	Timeout time.Duration // default: 30s
}

// DebugConfig controls where blocked-page evidence is written.
type DebugConfig struct {
	Dir string // default: "debug"
}

// StorageConfig controls persistence of acquired records.
type StorageConfig struct {
	// Backend is "json", "sqlite" or "none".
	Backend string // default: "json"

	// Path is the JSON file or SQLite database path.
	Path string // default: "data/raw/records.json"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 200
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("SERPSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("SERPSCOUT_PORT", 8080),
			Mode: envOr("SERPSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:              envBoolOr("SERPSCOUT_BROWSER_ENABLED", true),
			Headless:             envBoolOr("SERPSCOUT_HEADLESS", false),
			NoSandbox:            envBoolOr("SERPSCOUT_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("SERPSCOUT_BROWSER_BIN"),
			DefaultProxy:         os.Getenv("SERPSCOUT_PROXY"),
			UserAgentPoolFile:    os.Getenv("SERPSCOUT_UA_POOL_FILE"),
			LandingURL:           envOr("SERPSCOUT_LANDING_URL", "https://www.google.com/ncr"),
			SearchURL:            envOr("SERPSCOUT_SEARCH_URL", "https://www.google.com/search"),
			Language:             envOr("SERPSCOUT_LANGUAGE", "en"),
			Region:               envOr("SERPSCOUT_REGION", "us"),
			NavigationTimeout:    envDurationOr("SERPSCOUT_NAV_TIMEOUT", 30*time.Second),
			ResultTimeout:        envDurationOr("SERPSCOUT_RESULT_TIMEOUT", 15*time.Second),
			AttemptTimeout:       envDurationOr("SERPSCOUT_ATTEMPT_TIMEOUT", 90*time.Second),
			BlockedResourceTypes: envSliceOr("SERPSCOUT_BLOCKED_RESOURCES", nil),
		},
		Acquisition: AcquisitionConfig{
			PerKeyword:    envIntOr("SERPSCOUT_PER_KEYWORD", 10),
			PolitenessMin: envDurationOr("SERPSCOUT_POLITENESS_MIN", 1500*time.Millisecond),
			PolitenessMax: envDurationOr("SERPSCOUT_POLITENESS_MAX", 3500*time.Millisecond),
			APIFirst:      envBoolOr("SERPSCOUT_API_FIRST", false),
			RulesFile:     os.Getenv("SERPSCOUT_RULES_FILE"),
		},
		Retry: RetryConfig{
			MaxAttempts: envIntOr("SERPSCOUT_RETRY_ATTEMPTS", 4),
			BackoffBase: envDurationOr("SERPSCOUT_RETRY_BACKOFF", time.Second),
			Jitter:      envDurationOr("SERPSCOUT_RETRY_JITTER", time.Second),
		},
		Providers: ProvidersConfig{
			SerpAPI: SerpAPIConfig{
				APIKey:  os.Getenv("SERP_API_KEY"),
				BaseURL: envOr("SERP_API_BASE_URL", "https://serpapi.com"),
				Timeout: envDurationOr("SERP_API_TIMEOUT", 30*time.Second),
			},
			CSE: CSEConfig{
				APIKey:  os.Getenv("GOOGLE_CSE_KEY"),
				CX:      os.Getenv("GOOGLE_CSE_CX"),
				BaseURL: envOr("GOOGLE_CSE_BASE_URL", "https://www.googleapis.com"),
				Timeout: envDurationOr("GOOGLE_CSE_TIMEOUT", 30*time.Second),
			},
		},
		Debug: DebugConfig{
			Dir: envOr("SERPSCOUT_DEBUG_DIR", "debug"),
		},
		Storage: StorageConfig{
			Backend: envOr("SERPSCOUT_STORAGE", "json"),
			Path:    envOr("SERPSCOUT_STORAGE_PATH", "data/raw/records.json"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SERPSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SERPSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SERPSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("SERPSCOUT_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SERPSCOUT_CACHE_MAX_ENTRIES", 200),
		},
		Log: LogConfig{
			Level:  envOr("SERPSCOUT_LOG_LEVEL", "info"),
			Format: envOr("SERPSCOUT_LOG_FORMAT", "json"),
		},
	}
	cfg.Acquisition.clampPoliteness(cfg.Retry.BackoffBase)
	return cfg
}

// clampPoliteness keeps the pause between keywords at or above the retry
// backoff base, and keeps the range non-empty.
func (a *AcquisitionConfig) clampPoliteness(backoffBase time.Duration) {
	if a.PolitenessMin < backoffBase {
		a.PolitenessMin = backoffBase
	}
	if a.PolitenessMax < a.PolitenessMin {
		a.PolitenessMax = a.PolitenessMin
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

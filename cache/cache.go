package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/serpscout/models"
)

const (
	sweepInterval = 5 * time.Minute
	maxLifetime   = time.Hour
)

// entry holds a finished run with its creation timestamp.
type entry struct {
	response  *models.SerpResponse
	createdAt time.Time
}

// Cache keeps recent SERP responses in memory so a repeated request
// within max_age does not drive the browser again. Safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries responses. Entries older
// than an hour are swept in the background until ctx is done.
func New(ctx context.Context, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}

	go c.cleanupLoop(ctx)
	return c
}

// Key derives a cache key from everything that changes the result set.
// Keyword order matters: it is the order of the returned records.
func Key(keywords []string, perKeyword int, opts models.FetchOptions) string {
	h := sha256.New()
	for _, kw := range keywords {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(kw))))
		h.Write([]byte{0})
	}
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(perKeyword)))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatBool(opts.APIFirst)))
	h.Write([]byte("|"))
	h.Write([]byte(opts.Proxy))
	h.Write([]byte("|"))
	if opts.Headless != nil {
		h.Write([]byte(strconv.FormatBool(*opts.Headless)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached response younger than maxAge. A non-positive
// maxAge disables the lookup.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.SerpResponse, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity the oldest entry is evicted.
func (c *Cache) Set(key string, resp *models.SerpResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{
		response:  resp,
		createdAt: c.now(),
	}
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) sweep() {
	cutoff := c.now().Add(-maxLifetime)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

package scraper

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

// DefaultUserAgents is a small set of current desktop Chrome user-agents.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// DefaultViewports are common screen sizes, including one phone.
var DefaultViewports = []Viewport{
	{1366, 768},
	{1440, 900},
	{1536, 864},
	{1280, 800},
	{360, 800},
}

// IdentityPool hands out randomized session identities.
// It is read-only after construction and safe for concurrent use.
type IdentityPool struct {
	userAgents []string
	viewports  []Viewport
	language   string
}

// NewIdentityPool creates a pool. Empty slices fall back to the defaults.
func NewIdentityPool(userAgents []string, viewports []Viewport, language string) *IdentityPool {
	if len(userAgents) == 0 {
		userAgents = DefaultUserAgents
	}
	if len(viewports) == 0 {
		viewports = DefaultViewports
	}
	uas := make([]string, len(userAgents))
	copy(uas, userAgents)
	vps := make([]Viewport, len(viewports))
	copy(vps, viewports)
	return &IdentityPool{userAgents: uas, viewports: vps, language: language}
}

// Pick builds an identity with a random user-agent and viewport. A
// non-empty userAgent pins the user-agent instead.
func (p *IdentityPool) Pick(userAgent, proxy string, headless bool) Identity {
	if userAgent == "" {
		userAgent = p.userAgents[rand.IntN(len(p.userAgents))]
	}
	return Identity{
		UserAgent: userAgent,
		Viewport:  p.viewports[rand.IntN(len(p.viewports))],
		Proxy:     proxy,
		Headless:  headless,
		Language:  p.language,
	}
}

// UserAgents returns a copy of the pool's user-agents.
func (p *IdentityPool) UserAgents() []string {
	out := make([]string, len(p.userAgents))
	copy(out, p.userAgents)
	return out
}

// LoadUserAgents reads one user-agent per line, skipping blank lines and
// lines starting with '#'. An empty path returns nil.
func LoadUserAgents(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open user-agent pool: %w", err)
	}
	defer f.Close()

	var uas []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		uas = append(uas, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read user-agent pool: %w", err)
	}
	return uas, nil
}

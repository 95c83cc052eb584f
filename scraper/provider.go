package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/use-agent/serpscout/classifier"
	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/extractor"
	"github.com/use-agent/serpscout/models"
)

// EvidenceStore persists raw page content and returns where it went.
type EvidenceStore interface {
	Save(keyword, content, ext string) (string, error)
}

// Settings configures the browser provider.
type Settings struct {
	Enabled        bool
	Headless       bool
	Proxy          string
	LandingURL     string
	SearchURL      string
	Language       string
	Region         string
	ResultSelector string
	ResultTimeout  time.Duration
	AttemptTimeout time.Duration
}

// captureTimeout bounds the best-effort read of page content after a
// failure, which may run after the attempt's own deadline has passed.
const captureTimeout = 5 * time.Second

// BrowserProvider fetches one results page per attempt through a fresh
// automated browser session.
type BrowserProvider struct {
	factory    SessionFactory
	identities *IdentityPool
	classifier *classifier.Classifier
	evidence   EvidenceStore
	settings   Settings
	human      human
}

// NewBrowserProvider wires a browser provider. A nil sleeper uses real
// timers.
func NewBrowserProvider(
	factory SessionFactory,
	identities *IdentityPool,
	cls *classifier.Classifier,
	evidence EvidenceStore,
	sleeper engine.Sleeper,
	settings Settings,
) *BrowserProvider {
	if sleeper == nil {
		sleeper = engine.RealSleep
	}
	if identities == nil {
		identities = NewIdentityPool(nil, nil, settings.Language)
	}
	if cls == nil {
		cls = classifier.Default()
	}
	if settings.ResultSelector == "" {
		settings.ResultSelector = "h3"
	}
	return &BrowserProvider{
		factory:    factory,
		identities: identities,
		classifier: cls,
		evidence:   evidence,
		settings:   settings,
		human:      human{pacing: DefaultPacing, sleeper: sleeper},
	}
}

// WithPacing overrides the human wait ranges.
func (p *BrowserProvider) WithPacing(pacing Pacing) *BrowserProvider {
	p.human.pacing = pacing
	return p
}

func (p *BrowserProvider) Name() string          { return "browser" }
func (p *BrowserProvider) Source() models.Source { return models.SourceBrowser }
func (p *BrowserProvider) Available() bool       { return p.settings.Enabled && p.factory != nil }

// Fetch runs one attempt. The session is closed on every return path,
// including a panic inside the protocol.
func (p *BrowserProvider) Fetch(ctx context.Context, req *engine.FetchRequest) (out engine.Outcome) {
	if err := ctx.Err(); err != nil {
		return engine.Failure(models.ReasonTimeout, "", err)
	}
	if p.settings.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.settings.AttemptTimeout)
		defer cancel()
	}

	id := p.identity(req.Options)
	if id.Headless {
		slog.Warn("browser running headless, blocks are more likely", "keyword", req.Keyword)
	}

	sess, err := p.factory.Open(ctx, id)
	if err != nil {
		return engine.Failure(reasonFor(ctx, err), "", err)
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("browser attempt panicked", "keyword", req.Keyword, "panic", r)
			out = p.fail(ctx, sess, req.Keyword, models.ReasonException, fmt.Errorf("browser attempt panic: %v", r))
		}
		if cerr := sess.Close(); cerr != nil {
			slog.Warn("failed to release browser session", "keyword", req.Keyword, "error", cerr)
		}
	}()

	return p.run(ctx, sess, req)
}

func (p *BrowserProvider) identity(opts models.FetchOptions) Identity {
	headless := p.settings.Headless
	if opts.Headless != nil {
		headless = *opts.Headless
	}
	proxy := p.settings.Proxy
	if opts.Proxy != "" {
		proxy = opts.Proxy
	}
	return p.identities.Pick(opts.UserAgent, proxy, headless)
}

// run is the per-attempt protocol on an open session.
func (p *BrowserProvider) run(ctx context.Context, sess Session, req *engine.FetchRequest) engine.Outcome {
	kw := req.Keyword

	// Warm up on the landing page for baseline cookies. Best-effort.
	if p.settings.LandingURL != "" {
		if err := sess.Navigate(ctx, p.settings.LandingURL); err != nil {
			slog.Debug("landing page failed, continuing", "keyword", kw, "error", err)
		} else {
			if err := p.human.short(ctx); err != nil {
				return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
			}
			if sess.DismissConsent(ctx) {
				if err := p.human.short(ctx); err != nil {
					return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
				}
			}
		}
	}

	if err := sess.Navigate(ctx, p.searchURL(kw, req.MaxItems)); err != nil {
		return p.fail(ctx, sess, kw, reasonFor(ctx, err), err)
	}
	if err := p.human.medium(ctx); err != nil {
		return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
	}

	if out, done := p.check(ctx, sess, kw, "initial"); done {
		return out
	}

	if err := sess.WaitFor(ctx, p.settings.ResultSelector, p.settings.ResultTimeout); err != nil {
		if ctx.Err() != nil {
			return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
		}
		slog.Debug("result marker did not appear, using current content", "keyword", kw, "error", err)
	}

	if err := p.human.scroll(ctx, sess); err != nil {
		return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
	}
	if err := p.human.short(ctx); err != nil {
		return p.fail(ctx, sess, kw, models.ReasonTimeout, err)
	}

	content, err := sess.Content(ctx)
	if err != nil {
		return p.fail(ctx, sess, kw, reasonFor(ctx, err), err)
	}
	if v := p.classifier.Classify(content); v.Blocked {
		return p.blocked(kw, content, v.Reason, "after scroll")
	}

	results := extractor.Extract(content, req.MaxItems)
	if len(results) == 0 {
		path := p.save(kw, content)
		slog.Warn("no extractable results", "keyword", kw, "debugPath", path)
		return engine.Failure(models.ReasonNoResults, path, nil)
	}
	return engine.Success(results)
}

// check reads and classifies the current content. done is true when the
// attempt must stop with out.
func (p *BrowserProvider) check(ctx context.Context, sess Session, kw, stage string) (out engine.Outcome, done bool) {
	content, err := sess.Content(ctx)
	if err != nil {
		return p.fail(ctx, sess, kw, reasonFor(ctx, err), err), true
	}
	if v := p.classifier.Classify(content); v.Blocked {
		return p.blocked(kw, content, v.Reason, stage), true
	}
	return engine.Outcome{}, false
}

func (p *BrowserProvider) blocked(kw, content string, reason models.Reason, stage string) engine.Outcome {
	path := p.save(kw, content)
	slog.Warn("blocked while fetching results", "keyword", kw, "reason", reason, "stage", stage, "debugPath", path)
	return engine.Failure(reason, path, nil)
}

// fail captures whatever content the session still has and builds the
// failure outcome. The capture ignores the attempt's cancellation.
func (p *BrowserProvider) fail(ctx context.Context, sess Session, kw string, reason models.Reason, err error) engine.Outcome {
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	var path string
	if content, cerr := sess.Content(captureCtx); cerr == nil && content != "" {
		path = p.save(kw, content)
	}
	if reason == models.ReasonException {
		slog.Error("browser attempt failed", "keyword", kw, "error", err, "debugPath", path)
	}
	return engine.Failure(reason, path, err)
}

func (p *BrowserProvider) save(kw, content string) string {
	if p.evidence == nil {
		return ""
	}
	path, err := p.evidence.Save(kw, content, "html")
	if err != nil {
		slog.Warn("failed to save debug evidence", "keyword", kw, "error", err)
		return ""
	}
	return path
}

func (p *BrowserProvider) searchURL(keyword string, num int) string {
	v := url.Values{}
	v.Set("q", keyword)
	v.Set("num", strconv.Itoa(num))
	if p.settings.Language != "" {
		v.Set("hl", p.settings.Language)
	}
	if p.settings.Region != "" {
		v.Set("gl", p.settings.Region)
	}
	return p.settings.SearchURL + "?" + v.Encode()
}

// reasonFor maps an attempt error to timeout when the attempt's deadline
// or the caller's cancellation caused it, and to exception otherwise.
func reasonFor(ctx context.Context, err error) models.Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return models.ReasonTimeout
	}
	return models.ReasonException
}

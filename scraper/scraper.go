package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/models"
)

// RodLauncher opens a fresh Chrome process for every session. A browser is
// never shared between attempts, so cookies and fingerprint state from a
// blocked attempt cannot leak into the next one.
type RodLauncher struct {
	cfg    config.BrowserConfig
	active atomic.Int32
}

// NewRodLauncher creates a launcher for the given browser config.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Active returns the number of sessions currently open.
func (l *RodLauncher) Active() int { return int(l.active.Load()) }

// Open launches Chrome with the identity applied and returns a session on
// a single prepared tab. On failure every partially acquired resource is
// released before returning.
func (l *RodLauncher) Open(ctx context.Context, id Identity) (Session, error) {
	lc := launcher.New().
		Context(ctx).
		Headless(id.Headless).
		NoSandbox(l.cfg.NoSandbox)

	if l.cfg.BrowserBin != "" {
		lc = lc.Bin(l.cfg.BrowserBin)
	}
	if id.Proxy != "" {
		lc = lc.Proxy(id.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	lc.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	lc.Delete(flags.Flag("enable-automation"))
	lc.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	lc.Set(flags.Flag("disable-ipc-flooding-protection"))
	lc.Set(flags.Flag("disable-popup-blocking"))
	lc.Set(flags.Flag("disable-renderer-backgrounding"))
	lc.Set(flags.Flag("disable-background-timer-throttling"))
	lc.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	lc.Set(flags.Flag("disable-component-update"))
	lc.Set(flags.Flag("disable-default-apps"))
	lc.Set(flags.Flag("disable-dev-shm-usage"))
	lc.Set(flags.Flag("disable-extensions"))
	lc.Set(flags.Flag("no-first-run"))
	lc.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", id.Viewport.Width, id.Viewport.Height))
	if id.Language != "" {
		lc.Set(flags.Flag("lang"), id.Language)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		lc.Kill()
		lc.Cleanup()
		return nil, models.NewAcquireError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "headless", id.Headless, "proxy", id.Proxy != "")

	s := &rodSession{
		launcher:   lc,
		navTimeout: l.cfg.NavigationTimeout,
		onClose:    func() { l.active.Add(-1) },
	}
	l.active.Add(1)

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		_ = s.Close()
		return nil, models.NewAcquireError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, models.NewAcquireError(models.ErrCodeBrowserLaunch, "failed to open tab", err)
	}
	s.page = page

	if err := s.prepare(id, l.cfg.BlockedResourceTypes); err != nil {
		_ = s.Close()
		return nil, models.NewAcquireError(models.ErrCodeBrowserLaunch, "failed to configure tab", err)
	}
	return s, nil
}

// prepare applies stealth, identity and resource blocking to the tab. All
// of it must happen before the first navigation.
func (s *rodSession) prepare(id Identity, blockedTypes []string) error {
	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	acceptLanguage := acceptLanguageFor(id.Language)
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: acceptLanguage,
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.Viewport.Width,
		Height:            id.Viewport.Height,
		DeviceScaleFactor: 1,
		Mobile:            id.Viewport.Mobile(),
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": acceptLanguage}),
	}.Call(s.page)

	s.router = setupHijack(s.page, blockedTypes)
	return nil
}

func acceptLanguageFor(lang string) string {
	if lang == "" || lang == "en" {
		return "en-US,en;q=0.9"
	}
	return lang + ",en;q=0.8"
}

// closeTimeout bounds how long Close waits on a wedged browser.
const closeTimeout = 5 * time.Second

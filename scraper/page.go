package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// rodSession is a Session backed by one Chrome process and one tab.
type rodSession struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	router     *rod.HijackRouter
	navTimeout time.Duration
	onClose    func()

	closeOnce sync.Once
}

// Navigate loads url under the navigation timeout, then waits briefly for
// the DOM to settle. A DOM that never settles is not an error.
func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if s.navTimeout > 0 {
		p = p.Timeout(s.navTimeout)
		defer p.CancelTimeout()
	}

	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

func (s *rodSession) Content(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) PageHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => {
		const b = document.body, d = document.documentElement;
		return Math.max(b ? b.scrollHeight : 0, d ? d.scrollHeight : 0);
	}`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (s *rodSession) ScrollTo(ctx context.Context, y int) error {
	_, err := s.page.Context(ctx).Eval(`(y) => window.scrollTo(0, y)`, y)
	return err
}

// ScrollBy uses wheel events rather than script so the scroll looks like
// input to the page.
func (s *rodSession) ScrollBy(ctx context.Context, dy int) error {
	p := s.page.Context(ctx)
	return p.Mouse.Scroll(0, float64(dy), 3)
}

func (s *rodSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	return p.WaitElementsMoreThan(selector, 0)
}

// DismissConsent clicks the first visible consent button. Lookups do not
// wait, so a page without a banner costs one round trip per selector.
func (s *rodSession) DismissConsent(ctx context.Context) bool {
	p := s.page.Context(ctx)
	for _, selector := range consentSelectors {
		has, el, err := p.Has(selector)
		if err != nil || !has {
			continue
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			slog.Debug("failed to click consent button", "selector", selector, "error", err)
			continue
		}
		slog.Info("dismissed consent dialog", "selector", selector)
		return true
	}
	return false
}

// Close stops the hijack router, closes the tab and browser, and kills
// the Chrome process. It never uses the attempt's context, so it still
// works after that context has expired.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.page != nil {
			_ = s.page.Timeout(closeTimeout).Close()
		}
		if s.browser != nil {
			if err := s.browser.Timeout(closeTimeout).Close(); err != nil {
				slog.Debug("browser close failed, killing process", "error", err)
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

package scraper

import (
	"context"
	"time"
)

// Session is one automated browsing session: a browser process, a single
// tab and the identity it was configured with. A Session is owned by
// exactly one fetch attempt and must be closed when that attempt ends.
type Session interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error

	// Content returns the current rendered HTML.
	Content(ctx context.Context) (string, error)

	// PageHeight returns the scrollable height of the document in pixels.
	PageHeight(ctx context.Context) (int, error)

	// ScrollTo scrolls the window to vertical offset y.
	ScrollTo(ctx context.Context, y int) error

	// ScrollBy scrolls the window by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	// WaitFor blocks until selector matches at least one element or the
	// timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// DismissConsent clicks a visible cookie-consent button if there is one.
	DismissConsent(ctx context.Context) bool

	// Close releases every resource held by the session. It is safe to
	// call more than once.
	Close() error
}

// SessionFactory opens sessions configured with an identity.
type SessionFactory interface {
	Open(ctx context.Context, id Identity) (Session, error)
}

// Viewport is a window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Mobile reports whether the viewport is phone-sized.
func (v Viewport) Mobile() bool { return v.Width < 600 }

// Identity is everything the remote side can fingerprint about a session
// that we choose per attempt.
type Identity struct {
	UserAgent string
	Viewport  Viewport
	Proxy     string
	Headless  bool
	Language  string
}

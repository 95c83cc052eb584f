package scraper

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/use-agent/serpscout/engine"
)

// Pacing holds the randomized wait ranges that stand in for human
// reaction time. No wait in the browser protocol is a fixed constant.
type Pacing struct {
	ShortMin, ShortMax   time.Duration
	MediumMin, MediumMax time.Duration

	// ScrollPassesMin and ScrollPassesMax bound the number of scroll passes.
	ScrollPassesMin, ScrollPassesMax int

	// ScrollJitter bounds the small corrective scroll after each pass.
	ScrollJitter int

	// FallbackHeight is used when the page height cannot be read.
	FallbackHeight int
}

// DefaultPacing mirrors a person skimming a results page.
var DefaultPacing = Pacing{
	ShortMin:        600 * time.Millisecond,
	ShortMax:        1600 * time.Millisecond,
	MediumMin:       2200 * time.Millisecond,
	MediumMax:       4100 * time.Millisecond,
	ScrollPassesMin: 2,
	ScrollPassesMax: 4,
	ScrollJitter:    60,
	FallbackHeight:  1200,
}

type human struct {
	pacing  Pacing
	sleeper engine.Sleeper
}

func (h human) short(ctx context.Context) error {
	return h.sleeper.Sleep(ctx, engine.Between(h.pacing.ShortMin, h.pacing.ShortMax))
}

func (h human) medium(ctx context.Context) error {
	return h.sleeper.Sleep(ctx, engine.Between(h.pacing.MediumMin, h.pacing.MediumMax))
}

// scroll makes 2-4 passes, each jumping to a random fraction of the page
// height and then nudging by a small random offset. Scroll errors are
// ignored; only cancellation stops the passes.
func (h human) scroll(ctx context.Context, s Session) error {
	height, err := s.PageHeight(ctx)
	if err != nil || height <= 0 {
		height = h.pacing.FallbackHeight
	}

	passes := h.pacing.ScrollPassesMin
	if spread := h.pacing.ScrollPassesMax - h.pacing.ScrollPassesMin; spread > 0 {
		passes += rand.IntN(spread + 1)
	}

	for i := 0; i < passes; i++ {
		frac := 0.25 + rand.Float64()*0.65
		_ = s.ScrollTo(ctx, int(float64(height)*frac))
		if err := h.short(ctx); err != nil {
			return err
		}

		if j := h.pacing.ScrollJitter; j > 0 {
			_ = s.ScrollBy(ctx, rand.IntN(2*j+1)-j)
		}
		if err := h.short(ctx); err != nil {
			return err
		}
	}
	return nil
}

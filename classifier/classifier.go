// Package classifier decides whether a fetched results page is usable or
// whether the search engine served a block page instead.
package classifier

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/serpscout/models"
)

// Verdict is the result of classifying one page.
type Verdict struct {
	Blocked bool
	Reason  models.Reason
}

// OK reports whether the page looked usable.
func (v Verdict) OK() bool { return !v.Blocked }

// Classifier applies an ordered rule set to raw page content. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	unusualTraffic []string
	captcha        []string
	jsPrompt       []string
	jsProvider     []string
	robot          []string
	results        []cascadia.Sel
}

// New compiles rules into a Classifier. It fails only when a result
// selector is not valid CSS.
func New(rules Rules) (*Classifier, error) {
	rules = rules.withDefaults()

	sels := make([]cascadia.Sel, 0, len(rules.ResultSelectors))
	for _, s := range rules.ResultSelectors {
		sel, err := cascadia.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("result selector %q: %w", s, err)
		}
		sels = append(sels, sel)
	}

	return &Classifier{
		unusualTraffic: lowerAll(rules.UnusualTraffic),
		captcha:        lowerAll(rules.Captcha),
		jsPrompt:       lowerAll(rules.JSChallengePrompt),
		jsProvider:     lowerAll(rules.JSChallengeProvider),
		robot:          lowerAll(rules.RobotChallenge),
		results:        sels,
	}, nil
}

// Default returns a Classifier built from DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify inspects content and reports the first matching block reason.
// Adversarial markers are checked before the structural check so that a
// CAPTCHA page is reported as captcha rather than as missing results.
func (c *Classifier) Classify(content string) Verdict {
	if strings.TrimSpace(content) == "" {
		return blocked(models.ReasonEmptyContent)
	}

	lower := strings.ToLower(content)

	switch {
	case containsAny(lower, c.unusualTraffic):
		return blocked(models.ReasonUnusualTraffic)
	case containsAny(lower, c.captcha):
		return blocked(models.ReasonCaptcha)
	case containsAny(lower, c.jsPrompt) && containsAny(lower, c.jsProvider):
		return blocked(models.ReasonJSChallenge)
	case containsAny(lower, c.robot):
		return blocked(models.ReasonRobotChallenge)
	}

	if !c.hasResultNodes(content) {
		return blocked(models.ReasonNoResultNodes)
	}
	return Verdict{}
}

func (c *Classifier) hasResultNodes(content string) bool {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return false
	}
	for _, sel := range c.results {
		if cascadia.Query(doc, sel) != nil {
			return true
		}
	}
	return false
}

func blocked(reason models.Reason) Verdict {
	return Verdict{Blocked: true, Reason: reason}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

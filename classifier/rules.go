package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the marker literals the classifier matches against. Markers
// are matched case-insensitively as substrings. The target markup drifts
// over time, so operators can override any list from a YAML file.
type Rules struct {
	// UnusualTraffic markers indicate a rate/traffic interstitial.
	UnusualTraffic []string `yaml:"unusual_traffic"`

	// Captcha markers indicate an embedded CAPTCHA widget.
	Captcha []string `yaml:"captcha"`

	// JSChallengePrompt and JSChallengeProvider must both match for a
	// page to count as a JS challenge.
	JSChallengePrompt   []string `yaml:"js_challenge_prompt"`
	JSChallengeProvider []string `yaml:"js_challenge_provider"`

	// RobotChallenge markers indicate a generic "prove you're human" page.
	RobotChallenge []string `yaml:"robot_challenge"`

	// ResultSelectors are CSS selectors; a page matching none of them has
	// no recognizable result nodes.
	ResultSelectors []string `yaml:"result_selectors"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		UnusualTraffic: []string{
			"unusual traffic",
			"our systems have detected",
		},
		Captcha: []string{
			"recaptcha",
			"g-recaptcha",
			"hcaptcha",
			"captcha-form",
		},
		JSChallengePrompt: []string{
			"please enable javascript",
			"enable javascript and cookies",
		},
		JSChallengeProvider: []string{
			"cloudflare",
			"cf-challenge",
			"challenge-platform",
		},
		RobotChallenge: []string{
			"are you a robot",
			"press and hold",
			"verify you are human",
		},
		ResultSelectors: []string{
			"h3",
			".VwiC3b",
			"div.g",
		},
	}
}

// LoadRules reads a YAML rule file. Lists left empty in the file keep
// their default values.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return r.withDefaults(), nil
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if len(r.UnusualTraffic) == 0 {
		r.UnusualTraffic = d.UnusualTraffic
	}
	if len(r.Captcha) == 0 {
		r.Captcha = d.Captcha
	}
	if len(r.JSChallengePrompt) == 0 {
		r.JSChallengePrompt = d.JSChallengePrompt
	}
	if len(r.JSChallengeProvider) == 0 {
		r.JSChallengeProvider = d.JSChallengeProvider
	}
	if len(r.RobotChallenge) == 0 {
		r.RobotChallenge = d.RobotChallenge
	}
	if len(r.ResultSelectors) == 0 {
		r.ResultSelectors = d.ResultSelectors
	}
	return r
}

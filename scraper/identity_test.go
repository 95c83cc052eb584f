package scraper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUserAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uas.txt")
	data := "# desktop\nUA-A\n\n  UA-B  \n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	uas, err := LoadUserAgents(path)
	if err != nil {
		t.Fatalf("LoadUserAgents: %v", err)
	}
	if len(uas) != 2 || uas[0] != "UA-A" || uas[1] != "UA-B" {
		t.Errorf("unexpected pool %v", uas)
	}

	if uas, err := LoadUserAgents(""); err != nil || uas != nil {
		t.Errorf("empty path: got %v, %v", uas, err)
	}
	if _, err := LoadUserAgents(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIdentityPool_Pick(t *testing.T) {
	vps := []Viewport{{1280, 800}, {360, 800}}
	p := NewIdentityPool([]string{"A", "B"}, vps, "en")

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := p.Pick("", "", false)
		seen[id.UserAgent] = true
		if id.Viewport != vps[0] && id.Viewport != vps[1] {
			t.Fatalf("viewport %v not from pool", id.Viewport)
		}
		if id.Language != "en" {
			t.Fatalf("language not carried: %q", id.Language)
		}
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected both user-agents to be picked, saw %v", seen)
	}

	if id := p.Pick("Pinned", "http://proxy:8080", true); id.UserAgent != "Pinned" || id.Proxy != "http://proxy:8080" || !id.Headless {
		t.Errorf("overrides not applied: %+v", id)
	}
}

func TestIdentityPool_Defaults(t *testing.T) {
	p := NewIdentityPool(nil, nil, "")
	if len(p.UserAgents()) != len(DefaultUserAgents) {
		t.Errorf("expected default pool")
	}
	if !(Viewport{360, 800}).Mobile() || (Viewport{1366, 768}).Mobile() {
		t.Error("Mobile() misclassifies viewports")
	}
}

func TestBlockedResourceSet(t *testing.T) {
	set := blockedResourceSet([]string{"Image", "Font", "Script", "Bogus"})
	if len(set) != 2 {
		t.Errorf("expected Image and Font only, got %d entries", len(set))
	}
}

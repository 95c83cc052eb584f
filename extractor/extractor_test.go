package extractor

import (
	"fmt"
	"strings"
	"testing"
)

func resultBlock(i int) string {
	return fmt.Sprintf(`<div class="g" data-hveid="h%d"><div data-ved="v%d">
<a href="/url?q=https://example.com/%d&amp;sa=U"><h3>Result %d</h3></a>
<div class="VwiC3b">Snippet  for
 result %d</div></div></div>`, i, i, i, i, i)
}

func page(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="search">`)
	for i := 1; i <= n; i++ {
		b.WriteString(resultBlock(i))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestExtract_Containers(t *testing.T) {
	got := Extract(page(3), 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(got), got)
	}
	for i, r := range got {
		n := i + 1
		if r.Position != n {
			t.Errorf("result %d: position %d", n, r.Position)
		}
		if r.Title != fmt.Sprintf("Result %d", n) {
			t.Errorf("result %d: title %q", n, r.Title)
		}
		if r.URL != fmt.Sprintf("https://example.com/%d", n) {
			t.Errorf("result %d: url %q", n, r.URL)
		}
		if r.Snippet != fmt.Sprintf("Snippet for result %d", n) {
			t.Errorf("result %d: snippet %q", n, r.Snippet)
		}
	}
}

func TestExtract_MaxItems(t *testing.T) {
	for _, max := range []int{0, 1, 4, 7, 20} {
		got := Extract(page(7), max)
		want := max
		if want > 7 {
			want = 7
		}
		if len(got) != want {
			t.Errorf("max=%d: got %d results, want %d", max, len(got), want)
		}
		for i, r := range got {
			if r.Position != i+1 {
				t.Errorf("max=%d: result %d has position %d", max, i, r.Position)
			}
		}
	}
}

func TestExtract_Dedup(t *testing.T) {
	html := `<html><body>` + resultBlock(1) + resultBlock(1) + resultBlock(2) + `</body></html>`
	got := Extract(html, 10)
	if len(got) != 2 {
		t.Fatalf("expected duplicates removed, got %d: %+v", len(got), got)
	}
	if got[1].Title != "Result 2" || got[1].Position != 2 {
		t.Errorf("unexpected second result %+v", got[1])
	}
}

func TestExtract_WrapperWithSeveralResults(t *testing.T) {
	content := `<html><body><div data-hveid="wrap">
<div class="g"><a href="https://a.test/"><h3>A</h3></a></div>
<div class="g"><a href="https://b.test/"><h3>B</h3></a><div class="VwiC3b">about B</div></div>
</div></body></html>`

	got := Extract(content, 10)
	want := []struct{ title, url, snippet string }{
		{"A", "https://a.test/", ""},
		{"B", "https://b.test/", "about B"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		r := got[i]
		if r.Title != w.title || r.URL != w.url || r.Snippet != w.snippet || r.Position != i+1 {
			t.Errorf("result %d = %+v, want %+v", i, r, w)
		}
	}
}

func TestExtract_HeadingFallback(t *testing.T) {
	html := `<html><body>
<a href="https://one.example/"><h3>One</h3></a>
<section><h3>Two</h3></section>
</body></html>`

	got := Extract(html, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 fallback results, got %d", len(got))
	}
	if got[0].URL != "https://one.example/" || got[0].Snippet != "" {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[1].Title != "Two" || got[1].URL != "" || got[1].Position != 2 {
		t.Errorf("unexpected second result %+v", got[1])
	}
}

func TestExtract_ContainerWithoutHeading(t *testing.T) {
	html := `<html><body><div class="g"><a href="https://ad.example">Ad</a></div>` + resultBlock(1) + `</body></html>`
	got := Extract(html, 10)
	if len(got) != 1 || got[0].Title != "Result 1" {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestExtract_Nothing(t *testing.T) {
	for _, content := range []string{"", "   ", "<html><body><p>nothing</p></body></html>"} {
		got := Extract(content, 10)
		if got == nil || len(got) != 0 {
			t.Errorf("content %q: expected empty non-nil slice, got %#v", content, got)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	content := page(5)
	first := Extract(content, 5)
	second := Extract(content, 5)
	if len(first) != len(second) {
		t.Fatal("length changed between runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/url?q=https://example.com/page&sa=U", "https://example.com/page"},
		{"https://www.google.com/url?url=https://example.org/&rct=j", "https://example.org/"},
		{"/url?sa=U", "/url?sa=U"},
		{"https://example.com/direct", "https://example.com/direct"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UnwrapRedirect(tt.in); got != tt.want {
			t.Errorf("UnwrapRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Package extractor turns a results page into ordered organic results.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/serpscout/models"
)

const (
	containerSelector = "div.g, div[data-hveid], div[data-ved]"
	snippetSelector   = ".VwiC3b, .IsZvec, .aCOpRe, .s3v9rd"
)

type dedupKey struct {
	title, url, snippet string
}

// Extract parses content and returns at most maxItems results in document
// order with positions 1..n. Result containers are tried first; if none
// yields anything, bare h3 headings are used instead. An unparseable or
// unrecognizable page yields an empty slice.
func Extract(content string, maxItems int) []models.Result {
	if maxItems <= 0 || strings.TrimSpace(content) == "" {
		return []models.Result{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return []models.Result{}
	}

	c := collector{
		max:      maxItems,
		seen:     make(map[dedupKey]struct{}),
		consumed: make(map[*html.Node]struct{}),
	}

	doc.Find(containerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h3 := s.Find("h3").First()
		if h3.Length() == 0 {
			return true
		}
		if _, ok := c.consumed[h3.Get(0)]; ok {
			return true
		}
		// Wrappers can hold several results; read link and snippet from the
		// innermost container around the heading.
		scope := h3.Closest(containerSelector)

		link := h3.Closest("a[href]")
		if link.Length() == 0 {
			link = scope.Find("a[href]").First()
		}
		snippet := scope.Find(snippetSelector).First()

		c.add(h3.Get(0), textOf(h3), hrefOf(link), textOf(snippet))
		return !c.full()
	})

	if len(c.out) == 0 {
		doc.Find("h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
			c.add(h3.Get(0), textOf(h3), hrefOf(h3.Closest("a[href]")), "")
			return !c.full()
		})
	}

	return c.out
}

type collector struct {
	max      int
	out      []models.Result
	seen     map[dedupKey]struct{}
	consumed map[*html.Node]struct{}
}

func (c *collector) add(node *html.Node, title, link, snippet string) {
	c.consumed[node] = struct{}{}
	if title == "" {
		return
	}
	key := dedupKey{title: title, url: link, snippet: snippet}
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.out = append(c.out, models.Result{
		Title:    title,
		Snippet:  snippet,
		URL:      link,
		Position: len(c.out) + 1,
	})
}

func (c *collector) full() bool { return len(c.out) >= c.max }

func textOf(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

func hrefOf(s *goquery.Selection) string {
	href, ok := s.Attr("href")
	if !ok {
		return ""
	}
	return UnwrapRedirect(strings.TrimSpace(href))
}

// UnwrapRedirect returns the destination of a search-engine redirect link
// such as "/url?q=https://example.com/&sa=U". Other links are returned as-is.
func UnwrapRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path != "/url" && !strings.HasSuffix(u.Path, "/url") {
		return href
	}
	q := u.Query()
	for _, key := range []string{"q", "url"} {
		if dest := q.Get(key); dest != "" {
			return dest
		}
	}
	return href
}

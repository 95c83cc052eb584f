package models

import (
	"errors"
	"fmt"
	"strings"
)

// Source identifies which provider produced a record.
type Source string

const (
	SourceBrowser      Source = "browser"
	SourceAPIProviderA Source = "api_provider_a"
	SourceAPIProviderB Source = "api_provider_b"
	SourceBlocked      Source = "blocked"
)

// Reason explains why a provider attempt failed.
type Reason string

const (
	ReasonEmptyContent   Reason = "empty_content"
	ReasonUnusualTraffic Reason = "unusual_traffic"
	ReasonCaptcha        Reason = "captcha"
	ReasonJSChallenge    Reason = "js_challenge"
	ReasonRobotChallenge Reason = "robot_challenge"
	ReasonNoResultNodes  Reason = "no_result_nodes"
	ReasonNoResults      Reason = "no_results"
	ReasonTimeout        Reason = "timeout"
	ReasonException      Reason = "exception"
	ReasonNoProviders    Reason = "no_providers"
)

// IsBlock reports whether the reason is an adversarial signal from the page
// itself, as opposed to an operational failure.
func (r Reason) IsBlock() bool {
	switch r {
	case ReasonEmptyContent, ReasonUnusualTraffic, ReasonCaptcha,
		ReasonJSChallenge, ReasonRobotChallenge, ReasonNoResultNodes:
		return true
	}
	return false
}

// Result is one organic result as produced by the extractor or an API
// provider, before it is tagged with keyword and source.
type Result struct {
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// SearchResultRecord is one unified result row. Records are values: build them
// with NewResultRecord or NewBlockedRecord and never mutate them afterwards.
type SearchResultRecord struct {
	Keyword       string  `json:"keyword"`
	Title         string  `json:"title"`
	Snippet       string  `json:"snippet"`
	URL           string  `json:"url"`
	Position      int     `json:"position"`
	Source        Source  `json:"source"`
	Blocked       bool    `json:"blocked"`
	BlockedReason *string `json:"blocked_reason"`
	DebugPath     *string `json:"debug_path"`
}

// NewResultRecord tags an extracted result with its keyword and source.
func NewResultRecord(keyword string, source Source, r Result) SearchResultRecord {
	return SearchResultRecord{
		Keyword:  keyword,
		Title:    r.Title,
		Snippet:  r.Snippet,
		URL:      r.URL,
		Position: r.Position,
		Source:   source,
	}
}

// NewBlockedRecord builds the sentinel record emitted when every provider
// failed for a keyword.
func NewBlockedRecord(keyword string, reason Reason, debugPath string) SearchResultRecord {
	rec := SearchResultRecord{
		Keyword: keyword,
		Source:  SourceBlocked,
		Blocked: true,
	}
	r := string(reason)
	rec.BlockedReason = &r
	if debugPath != "" {
		rec.DebugPath = &debugPath
	}
	return rec
}

// Validate checks the blocked/source invariants of a record.
func (r SearchResultRecord) Validate() error {
	if r.Blocked {
		if r.Source != SourceBlocked {
			return fmt.Errorf("blocked record has source %q", r.Source)
		}
		if r.Title != "" || r.Snippet != "" || r.URL != "" {
			return errors.New("blocked record carries result content")
		}
		return nil
	}
	switch r.Source {
	case SourceBrowser, SourceAPIProviderA, SourceAPIProviderB:
	default:
		return fmt.Errorf("unblocked record has source %q", r.Source)
	}
	if r.Position < 1 {
		return fmt.Errorf("unblocked record has position %d", r.Position)
	}
	return nil
}

// ClusterDocument is one text unit handed to the clustering stage. Index
// points back into the record slice it was built from.
type ClusterDocument struct {
	Index int
	Text  string
}

// ClusterDocuments builds clustering input from records, skipping records
// whose title and snippet are both empty (which includes every sentinel).
func ClusterDocuments(records []SearchResultRecord) []ClusterDocument {
	docs := make([]ClusterDocument, 0, len(records))
	for i, r := range records {
		text := strings.TrimSpace(strings.Join(strings.Fields(r.Title+" "+r.Snippet), " "))
		if text == "" {
			continue
		}
		docs = append(docs, ClusterDocument{Index: i, Text: text})
	}
	return docs
}

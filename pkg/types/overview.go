// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the gapfinder pipeline:
// the extracted AI Overview, topic sets, gap reports, fetched articles, and
// stage configuration. JSON field names are the durable artifact contract
// between pipeline runs.
package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ExtractionResult is the outcome of extracting an AI Overview panel from a
// results page. Once returned it is treated as immutable.
type ExtractionResult struct {
	// Found reports whether any overview content was located.
	Found bool `json:"found" yaml:"found"`

	// Text is the merged content found before any expansion.
	Text string `json:"text" yaml:"text"`

	// ExpandedText is the primary element's text after a successful expand
	// click, kept only when it is longer than Text.
	ExpandedText string `json:"expanded_text" yaml:"expanded_text"`

	// FullContent is the longest of Text and ExpandedText.
	FullContent string `json:"full_content" yaml:"full_content"`

	// Query is the search query that produced this result, when known.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// ExtractedAt is when the extraction finished.
	ExtractedAt time.Time `json:"extracted_at,omitempty" yaml:"extracted_at,omitempty"`

	// DurationMS is the wall-clock extraction time in milliseconds.
	DurationMS int64 `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// Normalize enforces the result invariants: a not-found result carries no
// text, and FullContent is the longest of Text and ExpandedText.
func (r *ExtractionResult) Normalize() {
	if !r.Found {
		r.Text, r.ExpandedText, r.FullContent = "", "", ""
		return
	}
	longest := r.Text
	if utf8.RuneCountInString(r.ExpandedText) > utf8.RuneCountInString(longest) {
		longest = r.ExpandedText
	}
	if utf8.RuneCountInString(r.FullContent) < utf8.RuneCountInString(longest) {
		r.FullContent = longest
	}
	if strings.TrimSpace(r.FullContent) == "" {
		r.Found = false
		r.Text, r.ExpandedText, r.FullContent = "", "", ""
	}
}

// Content returns the text the gap analysis should use.
func (r ExtractionResult) Content() string {
	if !r.Found {
		return ""
	}
	return r.FullContent
}

// TopicSet is an ordered sequence of distinct topics derived from one text
// corpus. Order is first-seen order.
type TopicSet []string

// Contains reports whether t is in the set.
func (s TopicSet) Contains(t string) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// Head returns at most the first n topics.
func (s TopicSet) Head(n int) TopicSet {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package overview

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/gapfinder/internal/browser"
)

// Fragment is one accepted piece of overview text.
type Fragment struct {
	Text    string
	Locator string
	Element browser.Element
}

// fragmentSet accepts fragments in discovery order, rejecting duplicates.
// A candidate is a duplicate when its lowercased, trimmed form equals an
// accepted one or, when both exceed longChars, when either contains the
// other or their word sets (both larger than minWords) overlap by more than
// the overlap ratio of the smaller set.
type fragmentSet struct {
	overlap   float64
	longChars int
	minWords  int

	seen  map[string]struct{}
	clean []string
	words []map[string]struct{}
	frags []Fragment
}

func newFragmentSet(overlap float64, longChars, minWords int) *fragmentSet {
	return &fragmentSet{
		overlap:   overlap,
		longChars: longChars,
		minWords:  minWords,
		seen:      make(map[string]struct{}),
	}
}

func (s *fragmentSet) Len() int { return len(s.frags) }

func (s *fragmentSet) Fragments() []Fragment { return s.frags }

// Duplicate reports whether text would be rejected.
func (s *fragmentSet) Duplicate(text string) bool {
	c := strings.ToLower(strings.TrimSpace(text))
	if _, ok := s.seen[c]; ok {
		return true
	}
	if utf8.RuneCountInString(c) <= s.longChars {
		return false
	}
	var w map[string]struct{}
	for i, prev := range s.clean {
		if utf8.RuneCountInString(prev) <= s.longChars {
			continue
		}
		if strings.Contains(prev, c) || strings.Contains(c, prev) {
			return true
		}
		if w == nil {
			w = wordSet(c)
		}
		if len(w) > s.minWords && len(s.words[i]) > s.minWords && overlapRatio(w, s.words[i]) > s.overlap {
			return true
		}
	}
	return false
}

// Add accepts f if it is not a duplicate and reports whether it was added.
func (s *fragmentSet) Add(f Fragment) bool {
	if s.Duplicate(f.Text) {
		return false
	}
	c := strings.ToLower(strings.TrimSpace(f.Text))
	s.seen[c] = struct{}{}
	s.clean = append(s.clean, c)
	s.words = append(s.words, wordSet(c))
	s.frags = append(s.frags, f)
	return true
}

// Merge joins the accepted fragments with blank lines.
func (s *fragmentSet) Merge() string {
	parts := make([]string, len(s.frags))
	for i, f := range s.frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, "\n\n")
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// overlapRatio is |a ∩ b| / min(|a|, |b|).
func overlapRatio(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	if len(small) == 0 {
		return 0
	}
	n := 0
	for w := range small {
		if _, ok := large[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(small))
}

// navFilter matches navigation chrome by whole word or phrase.
type navFilter struct {
	re *regexp.Regexp
}

func newNavFilter(words []string) navFilter {
	var alts []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		alts = append(alts, strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`))
	}
	if len(alts) == 0 {
		return navFilter{}
	}
	return navFilter{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)}
}

func (f navFilter) Match(text string) bool {
	return f.re != nil && f.re.MatchString(text)
}

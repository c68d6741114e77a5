// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics derives an ordered topic set from free text: the most
// frequent content words followed by known domain phrases.
package topics

import (
	"sort"
	"strings"

	"github.com/pdiddy/gapfinder/pkg/types"
)

const (
	defaultMaxFrequent = 20
	minWordLen         = 3
)

// Extractor turns text into a TopicSet. It is stateless after construction
// and safe for concurrent use.
type Extractor struct {
	maxFrequent int
	stop        map[string]struct{}
}

// New returns an Extractor keeping at most cfg.MaxFrequentTopics frequent
// words.
func New(cfg types.AnalysisConfig) *Extractor {
	n := cfg.MaxFrequentTopics
	if n <= 0 {
		n = defaultMaxFrequent
	}
	return &Extractor{maxFrequent: n, stop: stopwordSet()}
}

// Extract returns the frequent words (appearing more than once, most
// frequent first, ties by first occurrence) followed by phrase matches in
// sentence order, without duplicates. Empty text yields an empty set.
func (x *Extractor) Extract(text string) types.TopicSet {
	if strings.TrimSpace(text) == "" {
		return types.TopicSet{}
	}
	lower := normalize(text)

	var topics []string
	for _, wc := range x.frequent(stripPunctuation(lower)) {
		if wc.count > 1 {
			topics = append(topics, wc.word)
		}
	}
	// Sentences are split before punctuation is stripped so their
	// boundaries survive; "deep-learning" is then scanned as "deep learning".
	for _, s := range sentences(lower) {
		clean := stripPunctuation(s)
		for _, group := range keyPhrases {
			topics = append(topics, findPhrases(clean, group)...)
		}
	}
	return dedupe(topics)
}

type wordCount struct {
	word  string
	count int
}

// frequent counts content words and returns the top maxFrequent by count.
func (x *Extractor) frequent(clean string) []wordCount {
	index := make(map[string]int)
	var counts []wordCount
	for _, w := range strings.Fields(clean) {
		if _, stop := x.stop[w]; stop || len([]rune(w)) < minWordLen || !isAlpha(w) {
			continue
		}
		if i, ok := index[w]; ok {
			counts[i].count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, wordCount{word: w, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	if len(counts) > x.maxFrequent {
		counts = counts[:x.maxFrequent]
	}
	return counts
}

func dedupe(in []string) types.TopicSet {
	seen := make(map[string]struct{}, len(in))
	out := make(types.TopicSet, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

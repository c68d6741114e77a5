// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gap compares the topics of a reference text (the AI Overview)
// against an article and reports which are covered, partially covered, or
// missing, with editorial recommendations. It also aggregates reports
// across a batch of articles.
package gap

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/gapfinder/internal/textsim"
	"github.com/pdiddy/gapfinder/pkg/types"
)

const (
	defaultThreshold = 0.7

	// articleTopicsPreview is how many article topics a report carries.
	articleTopicsPreview = 10
)

// TopicExtractor derives a topic set from text.
type TopicExtractor interface {
	Extract(text string) types.TopicSet
}

// Analyzer classifies reference topics against article text.
type Analyzer struct {
	threshold float64
	lang      string
	topics    TopicExtractor
}

// New returns an Analyzer. A non-positive threshold selects 0.7.
func New(cfg types.AnalysisConfig, topics TopicExtractor) *Analyzer {
	th := cfg.PartialMatchThreshold
	if th <= 0 {
		th = defaultThreshold
	}
	return &Analyzer{threshold: th, lang: cfg.Language, topics: topics}
}

// FindMissingTopics extracts the article's own topics and classifies every
// reference topic.
func (a *Analyzer) FindMissingTopics(reference types.TopicSet, articleText string) types.GapReport {
	articleTopics := a.topics.Extract(articleText)
	report := a.Classify(reference, articleTopics, articleText)
	report.ArticleTopics = articleTopics.Head(articleTopicsPreview)
	return report
}

// Classify buckets each reference topic: covered when it appears literally
// in articleText (ignoring case), partially covered when its similarity to
// some article topic is strictly above the threshold (the first such topic
// wins), missing otherwise.
func (a *Analyzer) Classify(reference, articleTopics types.TopicSet, articleText string) types.GapReport {
	report := types.GapReport{
		TotalTopics:      len(reference),
		Covered:          []string{},
		PartiallyCovered: []types.PartialMatch{},
		Missing:          []string{},
	}
	text := fold(articleText)

	for _, topic := range reference {
		t := fold(topic)
		if strings.Contains(text, t) {
			report.Covered = append(report.Covered, topic)
			continue
		}
		if m, ok := a.partial(topic, t, articleTopics); ok {
			report.PartiallyCovered = append(report.PartiallyCovered, m)
			continue
		}
		report.Missing = append(report.Missing, topic)
	}

	report.CoveragePercentage = Coverage(len(report.Covered), len(report.PartiallyCovered), report.TotalTopics)
	report.Recommendations = Recommend(report.Missing, a.lang)
	return report
}

func (a *Analyzer) partial(topic, folded string, articleTopics types.TopicSet) (types.PartialMatch, bool) {
	for _, at := range articleTopics {
		sim := textsim.Ratio(folded, fold(at))
		if sim > a.threshold {
			return types.PartialMatch{Topic: topic, MatchedAgainst: at, Similarity: sim}, true
		}
	}
	return types.PartialMatch{}, false
}

// Coverage returns (covered + partial/2) / total as a percentage rounded to
// two decimals, or 0 when total is 0.
func Coverage(covered, partial, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2((float64(covered) + 0.5*float64(partial)) / float64(total) * 100)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

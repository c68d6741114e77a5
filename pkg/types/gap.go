// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PartialMatch records a reference topic that is not literally present in
// the article but is similar to one of the article's own topics.
type PartialMatch struct {
	// Topic is the reference topic.
	Topic string `json:"topic" yaml:"topic"`

	// MatchedAgainst is the article topic it matched.
	MatchedAgainst string `json:"matched_against" yaml:"matched_against"`

	// Similarity is the sequence-similarity ratio in (threshold, 1].
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// GapReport classifies every reference topic as covered, partially covered,
// or missing for one article. The three buckets partition TotalTopics.
type GapReport struct {
	TotalTopics        int            `json:"total_topics" yaml:"total_topics"`
	Covered            []string       `json:"covered" yaml:"covered"`
	PartiallyCovered   []PartialMatch `json:"partially_covered" yaml:"partially_covered"`
	Missing            []string       `json:"missing" yaml:"missing"`
	CoveragePercentage float64        `json:"coverage_percentage" yaml:"coverage_percentage"`
	Recommendations    []string       `json:"recommendations" yaml:"recommendations"`

	// ArticleTopics previews the first topics derived from the article.
	ArticleTopics []string `json:"article_topics,omitempty" yaml:"article_topics,omitempty"`
}

// ArticleDocument is a fetched article: read-only input to the gap analyzer.
type ArticleDocument struct {
	URL       string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"`
	WordCount int    `json:"word_count" yaml:"word_count"`
}

// ArticleResult is one entry of a batch analysis. Exactly one of Error or
// GapAnalysis is meaningful, selected by Success.
type ArticleResult struct {
	URL         string     `json:"url" yaml:"url"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	WordCount   int        `json:"word_count,omitempty" yaml:"word_count,omitempty"`
	Success     bool       `json:"success" yaml:"success"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	GapAnalysis *GapReport `json:"gap_analysis,omitempty" yaml:"gap_analysis,omitempty"`
}

// TopicCount pairs a topic with how many articles were missing it.
type TopicCount struct {
	Topic string `json:"topic" yaml:"topic"`
	Count int    `json:"count" yaml:"count"`
}

// LowCoverage names an article whose coverage fell below the low-coverage
// threshold.
type LowCoverage struct {
	URL      string  `json:"url" yaml:"url"`
	Coverage float64 `json:"coverage" yaml:"coverage"`
}

// BatchSummary aggregates the successful entries of a batch analysis.
type BatchSummary struct {
	TotalArticlesAnalyzed     int           `json:"total_articles_analyzed" yaml:"total_articles_analyzed"`
	AverageCoveragePercentage float64       `json:"average_coverage_percentage" yaml:"average_coverage_percentage"`
	MostCommonMissingTopics   []TopicCount  `json:"most_common_missing_topics" yaml:"most_common_missing_topics"`
	ArticlesWithLowCoverage   []LowCoverage `json:"articles_with_low_coverage" yaml:"articles_with_low_coverage"`

	// Error is set when no article could be analyzed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchReport holds one result per input article plus the summary.
type BatchReport struct {
	IndividualResults []ArticleResult `json:"individual_results" yaml:"individual_results"`
	Summary           BatchSummary    `json:"summary" yaml:"summary"`
}

// Succeeded returns the number of successful entries.
func (b BatchReport) Succeeded() int {
	n := 0
	for _, r := range b.IndividualResults {
		if r.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed entries.
func (b BatchReport) Failed() int {
	return len(b.IndividualResults) - b.Succeeded()
}

package gap

import (
	"sort"

	"github.com/pdiddy/gapfinder/pkg/types"
)

const (
	// LowCoverageThreshold is the coverage percentage below which an article
	// is flagged in a batch summary.
	LowCoverageThreshold = 50.0

	topMissing = 10
)

// Aggregate summarizes the successful results of a batch: mean coverage,
// the most often missing topics, and the articles under
// LowCoverageThreshold. With no successes only Error is set.
func Aggregate(results []types.ArticleResult) types.BatchSummary {
	var ok []types.ArticleResult
	for _, r := range results {
		if r.Success && r.GapAnalysis != nil {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return types.BatchSummary{Error: "no successful analyses"}
	}

	summary := types.BatchSummary{
		TotalArticlesAnalyzed:   len(ok),
		MostCommonMissingTopics: []types.TopicCount{},
		ArticlesWithLowCoverage: []types.LowCoverage{},
	}

	var sum float64
	index := make(map[string]int)
	var counts []types.TopicCount
	for _, r := range ok {
		g := r.GapAnalysis
		sum += g.CoveragePercentage
		for _, topic := range g.Missing {
			if i, seen := index[topic]; seen {
				counts[i].Count++
				continue
			}
			index[topic] = len(counts)
			counts = append(counts, types.TopicCount{Topic: topic, Count: 1})
		}
		if g.CoveragePercentage < LowCoverageThreshold {
			summary.ArticlesWithLowCoverage = append(summary.ArticlesWithLowCoverage,
				types.LowCoverage{URL: r.URL, Coverage: g.CoveragePercentage})
		}
	}
	summary.AverageCoveragePercentage = round2(sum / float64(len(ok)))

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > topMissing {
		counts = counts[:topMissing]
	}
	summary.MostCommonMissingTopics = append(summary.MostCommonMissingTopics, counts...)
	return summary
}

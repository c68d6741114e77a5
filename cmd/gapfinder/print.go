package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/gapfinder/pkg/types"
)

const rule = "============================================================"

func printOverview(w io.Writer, res types.ExtractionResult) {
	if !res.Found {
		fmt.Fprintln(w, "AI Overview: not found")
		return
	}
	fmt.Fprintf(w, "AI Overview (%d characters", len([]rune(res.FullContent)))
	if res.ExpandedText != "" {
		fmt.Fprint(w, ", expanded")
	}
	fmt.Fprintln(w, "):")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, res.FullContent)
	fmt.Fprintln(w, rule)
}

func printGapReport(w io.Writer, r types.GapReport) {
	fmt.Fprintf(w, "  coverage:  %.2f%% of %d topics\n", r.CoveragePercentage, r.TotalTopics)
	if len(r.Covered) > 0 {
		fmt.Fprintf(w, "  covered:   %s\n", strings.Join(r.Covered, ", "))
	}
	for _, p := range r.PartiallyCovered {
		fmt.Fprintf(w, "  partial:   %s ~ %s (%.2f)\n", p.Topic, p.MatchedAgainst, p.Similarity)
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "  missing:   %s\n", strings.Join(r.Missing, ", "))
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
}

func printBatch(w io.Writer, b types.BatchReport) {
	for _, r := range b.IndividualResults {
		if !r.Success {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(w, "\n%s\n  url:       %s (%d words)\n", title, r.URL, r.WordCount)
		printGapReport(w, *r.GapAnalysis)
	}

	s := b.Summary
	fmt.Fprintln(w)
	if s.Error != "" {
		fmt.Fprintf(w, "Summary: %s\n", s.Error)
		return
	}
	fmt.Fprintf(w, "Summary: %d article(s), average coverage %.2f%%\n", s.TotalArticlesAnalyzed, s.AverageCoveragePercentage)
	for _, tc := range s.MostCommonMissingTopics {
		fmt.Fprintf(w, "  %-30s missing in %d\n", tc.Topic, tc.Count)
	}
	for _, lc := range s.ArticlesWithLowCoverage {
		fmt.Fprintf(w, "  low coverage: %s (%.2f%%)\n", lc.URL, lc.Coverage)
	}
}

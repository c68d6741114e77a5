package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/gapfinder/internal/gap"
	"github.com/pdiddy/gapfinder/internal/topics"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// ReferenceTopics derives the topic set of an extracted overview.
func (p *Pipeline) ReferenceTopics(res types.ExtractionResult) types.TopicSet {
	return topics.New(p.cfg.Analysis).Extract(res.Content())
}

// AnalyzeArticles fetches every URL and compares its topics against the
// overview. A failed article becomes an unsuccessful entry; the batch is
// never aborted by one article. Fetches run with cfg.Article.Concurrency
// workers but results keep input order. A progress line per article and a
// closing summary line are written to w.
func (p *Pipeline) AnalyzeArticles(ctx context.Context, res types.ExtractionResult, urls []string, w io.Writer) (types.BatchReport, error) {
	if !res.Found {
		return types.BatchReport{}, ErrNoOverview
	}

	reference := p.ReferenceTopics(res)
	analyzer := gap.New(p.cfg.Analysis, topics.New(p.cfg.Analysis))
	results := make([]types.ArticleResult, len(urls))

	var mu sync.Mutex
	progress := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	limit := p.cfg.Article.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = p.analyzeOne(gctx, analyzer, reference, u)
			if r := results[i]; r.Success {
				progress("analyzed  %s (%.2f%% coverage)\n", u, r.GapAnalysis.CoveragePercentage)
			} else {
				progress("failed  %s: %s\n", u, r.Error)
			}
			return nil
		})
	}
	g.Wait()

	report := types.BatchReport{
		IndividualResults: results,
		Summary:           gap.Aggregate(results),
	}
	fmt.Fprintf(w, "Analyzed %d article(s): %d succeeded, %d failed\n",
		len(results), report.Succeeded(), report.Failed())
	return report, ctx.Err()
}

func (p *Pipeline) analyzeOne(ctx context.Context, analyzer *gap.Analyzer, reference types.TopicSet, url string) types.ArticleResult {
	if err := ctx.Err(); err != nil {
		return types.ArticleResult{URL: url, Error: err.Error()}
	}
	doc, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.log.Debug().Err(err).Str("url", url).Msg("article fetch failed")
		return types.ArticleResult{URL: url, Error: err.Error()}
	}
	report := analyzer.FindMissingTopics(reference, doc.Content)
	return types.ArticleResult{
		URL:         url,
		Title:       doc.Title,
		WordCount:   doc.WordCount,
		Success:     true,
		GapAnalysis: &report,
	}
}

// Run is the complete workflow: extract the overview for query, then
// analyze urls against it. The overview is returned even when the batch
// cannot run.
func (p *Pipeline) Run(ctx context.Context, query string, urls []string, w io.Writer) (types.ExtractionResult, types.BatchReport, error) {
	res, err := p.ExtractOverview(ctx, query)
	if err != nil {
		return res, types.BatchReport{}, err
	}
	if !res.Found {
		fmt.Fprintf(w, "no AI Overview found for %q\n", query)
		return res, types.BatchReport{}, ErrNoOverview
	}
	fmt.Fprintf(w, "overview: %d characters\n", len([]rune(res.FullContent)))

	report, err := p.AnalyzeArticles(ctx, res, urls, w)
	return res, report, err
}

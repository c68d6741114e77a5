// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/browser/browsertest"
	"github.com/pdiddy/gapfinder/pkg/types"
)

const (
	intro   = "L'intelligenza artificiale è la capacità di una macchina di imitare il ragionamento umano, grazie al machine learning."
	details = "Le applicazioni includono la sanità, i trasporti e la finanza, con vantaggi e sfide etiche."
)

func testConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.Consent = types.ConsentConfig{}
	cfg.Search.SettleDelay = 0
	cfg.Search.ResultsWait = 50 * time.Millisecond
	cfg.Overview.ExpandWait = 0
	cfg.Overview.ClickTimeout = 100 * time.Millisecond
	cfg.Pipeline.RequestDeadline = 10 * time.Second
	return cfg
}

type stubFetcher map[string]types.ArticleDocument

func (f stubFetcher) Fetch(_ context.Context, url string) (types.ArticleDocument, error) {
	doc, ok := f[url]
	if !ok {
		return types.ArticleDocument{}, errors.New("HTTP 404")
	}
	doc.URL = url
	return doc, nil
}

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serp.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>"+body+"</body></html>"), 0o644))
	return path
}

func fakeLauncher(s *browsertest.Session) Launcher {
	return func(context.Context, types.BrowserConfig) (browser.Session, error) { return s, nil }
}

func resultsPage() *browsertest.Page {
	page := browsertest.NewPage()
	page.Add("textarea[name='q']", browsertest.NewElement(""))
	page.Add("div[id='search']", browsertest.NewElement("results"))
	page.Add(".LT6XE", browsertest.NewElement(intro))
	page.Add(".pyPiTc", browsertest.NewElement(details))
	return page
}

func TestExtractOverview_Snapshot(t *testing.T) {
	cfg := testConfig()
	cfg.Browser.Driver = types.DriverSnapshot
	cfg.Browser.SnapshotPath = writeSnapshot(t,
		`<div class="LT6XE">`+intro+`</div><div class="pyPiTc">`+details+`</div>`)

	p, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	res, err := p.ExtractOverview(context.Background(), "intelligenza artificiale")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, intro+"\n\n"+details, res.Text)
	assert.Equal(t, res.Text, res.FullContent)
	assert.Equal(t, "intelligenza artificiale", res.Query)
}

func TestExtractOverview_SearchesThenExtracts(t *testing.T) {
	page := resultsPage()
	session := browsertest.NewSession(page)

	p, err := New(testConfig(), zerolog.Nop(), WithLauncher(fakeLauncher(session)))
	require.NoError(t, err)

	res, err := p.ExtractOverview(context.Background(), "ia")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{"https://www.google.com"}, page.Navigated())
	assert.Equal(t, 1, session.Closed())
}

func TestExtractOverview_SearchFailure(t *testing.T) {
	page := browsertest.NewPage()
	page.Add(".LT6XE", browsertest.NewElement(intro))
	session := browsertest.NewSession(page)

	p, err := New(testConfig(), zerolog.Nop(), WithLauncher(fakeLauncher(session)))
	require.NoError(t, err)

	res, err := p.ExtractOverview(context.Background(), "ia")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.FullContent)
	assert.Equal(t, "ia", res.Query)
	assert.Equal(t, 1, session.Closed())
}

func TestExtractOverview_LaunchFailure(t *testing.T) {
	boom := errors.New("no chrome")
	p, err := New(testConfig(), zerolog.Nop(), WithLauncher(func(context.Context, types.BrowserConfig) (browser.Session, error) {
		return nil, boom
	}))
	require.NoError(t, err)

	_, err = p.ExtractOverview(context.Background(), "ia")
	assert.ErrorIs(t, err, boom)
}

func TestNew_BadLocatorsFile(t *testing.T) {
	cfg := testConfig()
	cfg.Overview.LocatorsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "loading locators")
}

func TestAnalyzeArticles_KeepsOrderAndSummarizes(t *testing.T) {
	cfg := testConfig()
	cfg.Article.Concurrency = 3
	fetcher := stubFetcher{
		"https://a.example": {Title: "A", Content: "Il machine learning nella sanità e nella finanza.", WordCount: 8},
		"https://c.example": {Title: "C", Content: "Un testo che parla d'altro.", WordCount: 5},
	}
	p, err := New(cfg, zerolog.Nop(), WithFetcher(fetcher))
	require.NoError(t, err)

	overview := types.ExtractionResult{Found: true, Text: intro + " " + details, FullContent: intro + " " + details}
	urls := []string{"https://a.example", "https://b.example", "https://c.example"}

	var out bytes.Buffer
	report, err := p.AnalyzeArticles(context.Background(), overview, urls, &out)
	require.NoError(t, err)

	require.Len(t, report.IndividualResults, 3)
	for i, u := range urls {
		assert.Equal(t, u, report.IndividualResults[i].URL)
	}
	a, b, c := report.IndividualResults[0], report.IndividualResults[1], report.IndividualResults[2]

	assert.True(t, a.Success)
	assert.Equal(t, "A", a.Title)
	require.NotNil(t, a.GapAnalysis)
	assert.Contains(t, a.GapAnalysis.Covered, "machine learning")
	assert.Contains(t, a.GapAnalysis.Covered, "sanità")

	assert.False(t, b.Success)
	assert.Equal(t, "HTTP 404", b.Error)
	assert.Nil(t, b.GapAnalysis)

	assert.True(t, c.Success)
	assert.Greater(t, a.GapAnalysis.CoveragePercentage, c.GapAnalysis.CoveragePercentage)

	assert.Equal(t, 2, report.Summary.TotalArticlesAnalyzed)
	assert.Contains(t, out.String(), "failed  https://b.example: HTTP 404\n")
	assert.Contains(t, out.String(), "analyzed  https://a.example (")
	assert.True(t, strings.HasSuffix(out.String(), "Analyzed 3 article(s): 2 succeeded, 1 failed\n"))
}

func TestAnalyzeArticles_AllFail(t *testing.T) {
	p, err := New(testConfig(), zerolog.Nop(), WithFetcher(stubFetcher{}))
	require.NoError(t, err)

	overview := types.ExtractionResult{Found: true, Text: intro, FullContent: intro}
	report, err := p.AnalyzeArticles(context.Background(), overview, []string{"https://x.example"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "no successful analyses", report.Summary.Error)
	assert.Equal(t, 1, report.Failed())
}

func TestAnalyzeArticles_NoOverview(t *testing.T) {
	p, err := New(testConfig(), zerolog.Nop(), WithFetcher(stubFetcher{}))
	require.NoError(t, err)

	_, err = p.AnalyzeArticles(context.Background(), types.ExtractionResult{}, []string{"https://x.example"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoOverview)
}

func TestAnalyzeArticles_Cancelled(t *testing.T) {
	p, err := New(testConfig(), zerolog.Nop(), WithFetcher(stubFetcher{"https://a.example": {Content: "x"}}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	overview := types.ExtractionResult{Found: true, Text: intro, FullContent: intro}
	report, err := p.AnalyzeArticles(ctx, overview, []string{"https://a.example"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.IndividualResults, 1)
	assert.False(t, report.IndividualResults[0].Success)
}

func TestReferenceTopics(t *testing.T) {
	p, err := New(testConfig(), zerolog.Nop(), WithFetcher(stubFetcher{}))
	require.NoError(t, err)

	got := p.ReferenceTopics(types.ExtractionResult{Found: true, Text: intro, FullContent: intro})
	assert.Contains(t, got, "machine learning")
	assert.Empty(t, p.ReferenceTopics(types.ExtractionResult{}))
}

func TestRun(t *testing.T) {
	session := browsertest.NewSession(resultsPage())
	fetcher := stubFetcher{"https://a.example": {Content: "Tutto sul machine learning.", WordCount: 4}}

	p, err := New(testConfig(), zerolog.Nop(), WithLauncher(fakeLauncher(session)), WithFetcher(fetcher))
	require.NoError(t, err)

	var out bytes.Buffer
	res, report, err := p.Run(context.Background(), "ia", []string{"https://a.example"}, &out)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 1, report.Succeeded())
	assert.True(t, strings.HasPrefix(out.String(), "overview: "))
}

func TestRun_NoOverview(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("textarea[name='q']", browsertest.NewElement(""))
	page.Add("div[id='search']", browsertest.NewElement("results"))
	session := browsertest.NewSession(page)

	cfg := testConfig()
	cfg.Overview.Deadline = 500 * time.Millisecond
	p, err := New(cfg, zerolog.Nop(), WithLauncher(fakeLauncher(session)), WithFetcher(stubFetcher{}))
	require.NoError(t, err)

	var out bytes.Buffer
	res, _, err := p.Run(context.Background(), "ia", []string{"https://a.example"}, &out)
	assert.ErrorIs(t, err, ErrNoOverview)
	assert.False(t, res.Found)
	assert.Contains(t, out.String(), `no AI Overview found for "ia"`)
}

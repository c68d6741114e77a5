// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// --- artifacts ---

func TestSaveJSONKeepsUnicodeAndIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "overview.json")
	r := types.ExtractionResult{Found: true, Text: "Sanità & <IA>", FullContent: "Sanità & <IA>"}

	require.NoError(t, SaveJSON(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "Sanità & <IA>"`)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"found\": true"))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadExtractionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overview.json")
	want := types.ExtractionResult{
		Found: true, Text: "short", ExpandedText: "short and expanded", FullContent: "short and expanded",
		Query: "ai", ExtractedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), DurationMS: 1200,
	}
	require.NoError(t, SaveJSON(path, want))

	got, err := LoadExtraction(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeExtractionNormalizes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want types.ExtractionResult
	}{
		{
			name: "not found clears text",
			in:   `{"found": false, "text": "stale", "full_content": "stale"}`,
			want: types.ExtractionResult{},
		},
		{
			name: "full content raised to longest",
			in:   `{"found": true, "text": "abc", "expanded_text": "abcdef", "full_content": ""}`,
			want: types.ExtractionResult{Found: true, Text: "abc", ExpandedText: "abcdef", FullContent: "abcdef"},
		},
		{
			name: "legacy ai_overview",
			in:   `{"query": "ia", "ai_overview": " L'IA nella sanità ", "extraction_time": "not a time"}`,
			want: types.ExtractionResult{Found: true, Text: "L'IA nella sanità", FullContent: "L'IA nella sanità", Query: "ia"},
		},
		{
			name: "legacy empty ai_overview",
			in:   `{"ai_overview": ""}`,
			want: types.ExtractionResult{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeExtraction([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeExtractionLegacyTime(t *testing.T) {
	got, err := DecodeExtraction([]byte(`{"ai_overview": "x", "extraction_time": "2025-06-01 10:30:00"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local).UTC(), got.ExtractedAt)
}

func TestLoadExtractionErrors(t *testing.T) {
	_, err := LoadExtraction(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadExtraction(path)
	assert.ErrorContains(t, err, "parsing overview")
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "overview_ai_in_healthcare_20260115_0930.json", Filename("overview", "AI in Healthcare?", at))
	assert.Equal(t, "report_sanità_digitale_20260115_0930.json", Filename("report", "Sanità digitale", at))
	assert.Equal(t, "report_query_20260115_0930.json", Filename("report", "  ?! ", at))
	assert.Len(t, []rune(strings.TrimSuffix(Filename("x", strings.Repeat("ab ", 40), at), "_20260115_0930.json")), 61)
}

// --- store ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "db", "gapfinder.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBatch() *types.BatchReport {
	return &types.BatchReport{
		IndividualResults: []types.ArticleResult{
			{
				URL: "https://a.example/post", Title: "A", WordCount: 120, Success: true,
				GapAnalysis: &types.GapReport{
					TotalTopics: 2, Covered: []string{"etica"}, PartiallyCovered: []types.PartialMatch{},
					Missing: []string{"sanità"}, CoveragePercentage: 50, Recommendations: []string{"x"},
				},
			},
			{URL: "https://b.example/post", Success: false, Error: "HTTP 404"},
		},
		Summary: types.BatchSummary{
			TotalArticlesAnalyzed:     1,
			AverageCoveragePercentage: 50,
			MostCommonMissingTopics:   []types.TopicCount{{Topic: "sanità", Count: 1}},
			ArticlesWithLowCoverage:   []types.LowCoverage{},
		},
	}
}

func TestOpenStoreCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"runs", "articles"} {
		var n int
		err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &Run{
		Kind:     KindRun,
		Query:    "intelligenza artificiale",
		Overview: types.ExtractionResult{Found: true, Text: "testo", FullContent: "testo"},
		Batch:    sampleBatch(),
	}
	id, err := s.Record(ctx, run)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, KindRun, got.Kind)
	assert.Equal(t, run.Query, got.Query)
	assert.Equal(t, run.Overview, got.Overview)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Batch)
	assert.Equal(t, *run.Batch, *got.Batch)
}

func TestGetByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"abc-111", "abc-222", "def-333"} {
		_, err := s.Record(ctx, &Run{ID: id, Kind: KindExtract})
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, "def")
	require.NoError(t, err)
	assert.Equal(t, "def-333", got.ID)
	assert.Nil(t, got.Batch)

	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, q := range []string{"first", "second", "third"} {
		run := &Run{Kind: KindAnalyze, Query: q, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if q == "third" {
			run.Batch = sampleBatch()
		}
		_, err := s.Record(ctx, run)
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Query)
	assert.Equal(t, 2, all[0].Articles)
	assert.Equal(t, 50.0, all[0].AverageCoverage)
	assert.Equal(t, "first", all[2].Query)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestRecordDuplicateID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, &Run{ID: "same", Kind: KindExtract})
	require.NoError(t, err)
	_, err = s.Record(ctx, &Run{ID: "same", Kind: KindExtract})
	assert.Error(t, err)
}

func TestCoverageHistory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := sampleBatch()
	second := sampleBatch()
	second.IndividualResults[0].GapAnalysis.CoveragePercentage = 75
	second.IndividualResults[0].GapAnalysis.Missing = []string{}

	_, err := s.Record(ctx, &Run{ID: "r1", Kind: KindRun, Query: "q", CreatedAt: base, Batch: first})
	require.NoError(t, err)
	_, err = s.Record(ctx, &Run{ID: "r2", Kind: KindRun, Query: "q", CreatedAt: base.Add(time.Hour), Batch: second})
	require.NoError(t, err)

	points, err := s.Coverage(ctx, "https://a.example/post")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "r1", points[0].RunID)
	assert.Equal(t, 50.0, points[0].Coverage)
	assert.Equal(t, []string{"sanità"}, points[0].Missing)
	assert.Equal(t, 75.0, points[1].Coverage)
	assert.Empty(t, points[1].Missing)

	failed, err := s.Coverage(ctx, "https://b.example/post")
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestDeleteCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, &Run{ID: "gone", Kind: KindRun, Batch: sampleBatch()})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "gone"))

	_, err = s.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrRunNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM articles`).Scan(&n))
	assert.Zero(t, n)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Record(ctx, &Run{ID: "old", Kind: KindExtract, Query: "uno", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.Record(ctx, &Run{ID: "new", Kind: KindRun, Query: "due", CreatedAt: base.Add(time.Minute), Batch: sampleBatch()})
	require.NoError(t, err)

	var js bytes.Buffer
	require.NoError(t, s.Export(ctx, &js, FormatJSON))
	var runs []Run
	require.NoError(t, json.Unmarshal(js.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "old", runs[0].ID)
	assert.Equal(t, "new", runs[1].ID)
	assert.Len(t, runs[1].Batch.IndividualResults, 2)

	var ym bytes.Buffer
	require.NoError(t, s.Export(ctx, &ym, FormatYAML))
	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "uno", decoded[0]["query"])
	assert.Contains(t, ym.String(), "sanità")

	assert.Error(t, s.Export(ctx, &ym, Format("csv")))
}

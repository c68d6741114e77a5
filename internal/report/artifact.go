// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report persists pipeline artifacts: JSON files for extracted
// overviews and gap reports, and a SQLite run history.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// SaveJSON writes v to path as indented UTF-8 JSON. Non-ASCII text and HTML
// characters are written as-is. The file is written to a temporary name and
// renamed so readers never see a partial artifact.
func SaveJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// legacyOverview is the export shape written by earlier tooling, where the
// overview text lived under "ai_overview".
type legacyOverview struct {
	types.ExtractionResult
	AIOverview     *string `json:"ai_overview"`
	ExtractionTime string  `json:"extraction_time"`
}

// LoadExtraction reads a saved overview and normalizes it. Files in the
// legacy "ai_overview" shape are accepted: a non-empty ai_overview becomes a
// found result whose text and full content are that string.
func LoadExtraction(path string) (types.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("reading overview: %w", err)
	}
	return DecodeExtraction(data)
}

// DecodeExtraction is LoadExtraction over an in-memory document.
func DecodeExtraction(data []byte) (types.ExtractionResult, error) {
	var raw legacyOverview
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.ExtractionResult{}, fmt.Errorf("parsing overview: %w", err)
	}
	r := raw.ExtractionResult
	if r.FullContent == "" && r.Text == "" && raw.AIOverview != nil {
		text := strings.TrimSpace(*raw.AIOverview)
		r.Found = text != ""
		r.Text, r.FullContent = text, text
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", raw.ExtractionTime, time.Local); err == nil {
			r.ExtractedAt = t.UTC()
		}
	}
	r.Normalize()
	return r, nil
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Filename builds an artifact name like "overview_ai_in_healthcare_20260115_0930.json".
func Filename(kind, query string, at time.Time) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(query), "_"), "_")
	if slug == "" {
		slug = "query"
	}
	if r := []rune(slug); len(r) > 60 {
		slug = strings.TrimRight(string(r[:60]), "_")
	}
	return fmt.Sprintf("%s_%s_%s.json", kind, slug, at.Format("20060102_1504"))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package overview extracts the AI Overview panel from a settled results
// page. Extraction runs as a sequence of states under one deadline:
// locate fragments, fall back to frames and generic containers, expand the
// panel, and reconcile the expanded text. Every state degrades to "skip"
// on failure; hitting the deadline returns what has been gathered so far.
package overview

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// ErrDeadline marks a state cut short by the extraction deadline.
var ErrDeadline = errors.New("extraction deadline exceeded")

// Extractor pulls overview text from a results page.
type Extractor struct {
	cfg    types.OverviewConfig
	tables *locate.Tables
	nav    navFilter
	log    zerolog.Logger
	now    func() time.Time
}

// New returns an Extractor.
func New(cfg types.OverviewConfig, tables *locate.Tables, log zerolog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		tables: tables,
		nav:    newNavFilter(tables.NavBlocklist),
		log:    log.With().Str("stage", "overview").Logger(),
		now:    time.Now,
	}
}

// Extract runs the extraction state machine. It never fails: a page without
// an overview, or one that runs out of time, yields Found=false or a
// partial result.
func (x *Extractor) Extract(ctx context.Context, page browser.Page) types.ExtractionResult {
	start := x.now()
	ctx, cancel := context.WithTimeout(ctx, x.cfg.Deadline)
	defer cancel()

	var res types.ExtractionResult
	set, err := x.locate(ctx, page)
	if err != nil {
		x.log.Warn().Err(err).Int("fragments", set.Len()).Msg("locate stopped early")
	}

	var primary browser.Element
	switch {
	case set.Len() > 0:
		res.Found = true
		res.Text = set.Merge()
		primary = set.Fragments()[0].Element
		x.log.Info().Int("fragments", set.Len()).Int("chars", len(res.Text)).Msg("overview located")

	default:
		if text, ok := x.frameFallback(ctx, page); ok {
			// Frame content is read whole; there is nothing to expand.
			res.Found = true
			res.Text = text
			res.FullContent = text
			return x.finish(res, start)
		}
		if el, text, ok := x.genericFallback(ctx, page); ok {
			res.Found = true
			res.Text = text
			primary = el
		}
	}

	if !res.Found {
		x.log.Info().Msg("no overview on page")
		return x.finish(res, start)
	}

	if expanded, ok := x.expand(ctx, page, primary); ok {
		res.ExpandedText = x.reconcile(res.Text, expanded)
	}
	res.FullContent = res.Text
	if len(res.ExpandedText) > len(res.FullContent) {
		res.FullContent = res.ExpandedText
	}
	return x.finish(res, start)
}

func (x *Extractor) finish(res types.ExtractionResult, start time.Time) types.ExtractionResult {
	res.Normalize()
	end := x.now()
	res.ExtractedAt = end.UTC()
	res.DurationMS = end.Sub(start).Milliseconds()
	return res
}

// locate scans every overview locator, accepting visible, long enough,
// non-duplicate, non-navigation texts until the fragment cap is reached.
// The deadline is checked before every locator and every candidate.
func (x *Extractor) locate(ctx context.Context, page browser.Page) (*fragmentSet, error) {
	set := newFragmentSet(x.cfg.DedupOverlap, x.cfg.LongFragmentChars, x.cfg.MinOverlapWords)
	for _, loc := range x.tables.Overview {
		if ctx.Err() != nil {
			return set, ErrDeadline
		}
		els, err := loc.Find(ctx, page, x.cfg.MaxPerLocator)
		if err != nil {
			x.log.Debug().Err(err).Stringer("locator", loc).Msg("overview locator failed")
			continue
		}
		for _, el := range els {
			if ctx.Err() != nil {
				return set, ErrDeadline
			}
			text, ok := x.candidateText(ctx, el)
			if !ok || len([]rune(text)) <= x.cfg.MinFragmentChars || x.nav.Match(text) {
				continue
			}
			if set.Add(Fragment{Text: text, Locator: loc.String(), Element: el}) {
				x.log.Debug().Stringer("locator", loc).Int("chars", len(text)).Msg("fragment accepted")
			}
			if x.cfg.MaxFragments > 0 && set.Len() >= x.cfg.MaxFragments {
				return set, nil
			}
		}
	}
	return set, nil
}

// candidateText returns the trimmed text of a visible element.
func (x *Extractor) candidateText(ctx context.Context, el browser.Element) (string, bool) {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return "", false
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(text), true
}

// frameFallback reads the body of a frame whose source hints at overview
// content.
func (x *Extractor) frameFallback(ctx context.Context, page browser.Page) (string, bool) {
	for _, loc := range x.tables.OverviewFrames {
		if ctx.Err() != nil {
			return "", false
		}
		frames, err := loc.Find(ctx, page, 1)
		if err != nil || len(frames) == 0 {
			continue
		}
		doc, err := frames[0].Frame(ctx)
		if err != nil {
			x.log.Debug().Err(err).Stringer("frame", loc).Msg("cannot enter overview frame")
			continue
		}
		bodies, err := doc.QueryAll(ctx, "body", browser.ByCSS)
		if err != nil || len(bodies) == 0 {
			continue
		}
		text, err := bodies[0].Text(ctx)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if len([]rune(text)) > x.cfg.MinFrameChars {
			x.log.Info().Stringer("frame", loc).Int("chars", len(text)).Msg("overview read from frame")
			return text, true
		}
	}
	return "", false
}

// genericFallback accepts the first visible container with substantial
// text that is not a bare URL.
func (x *Extractor) genericFallback(ctx context.Context, page browser.Page) (browser.Element, string, bool) {
	for _, loc := range x.tables.Fallback {
		if ctx.Err() != nil {
			return nil, "", false
		}
		els, err := loc.Find(ctx, page, x.cfg.MaxFallbackScan)
		if err != nil {
			continue
		}
		for _, el := range els {
			if ctx.Err() != nil {
				return nil, "", false
			}
			text, ok := x.candidateText(ctx, el)
			if !ok || len([]rune(text)) <= x.cfg.MinFallbackChars || strings.HasPrefix(text, "http") {
				continue
			}
			x.log.Info().Stringer("locator", loc).Int("chars", len(text)).Msg("overview found by fallback")
			return el, text, true
		}
	}
	return nil, "", false
}

// reconcile keeps the expanded text only when it is longer than what was
// merged before expanding.
func (x *Extractor) reconcile(merged, expanded string) string {
	before, after := utf8.RuneCountInString(merged), utf8.RuneCountInString(expanded)
	if after > before {
		x.log.Info().Int("before", before).Int("after", after).Msg("expansion kept")
		return expanded
	}
	x.log.Debug().Int("before", before).Int("after", after).Msg("expansion shorter, discarded")
	return ""
}

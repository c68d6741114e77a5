// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package navigate drives the search engine from its home page to a
// settled results page.
package navigate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// PopupResolver dismisses blocking popups on the current page.
type PopupResolver interface {
	Resolve(ctx context.Context, page browser.Page) bool
}

// Navigator submits a query and waits for results.
type Navigator struct {
	cfg    types.SearchConfig
	tables *locate.Tables
	popups PopupResolver
	log    zerolog.Logger
}

// New returns a Navigator.
func New(cfg types.SearchConfig, tables *locate.Tables, popups PopupResolver, log zerolog.Logger) *Navigator {
	return &Navigator{
		cfg:    cfg,
		tables: tables,
		popups: popups,
		log:    log.With().Str("stage", "search").Logger(),
	}
}

// Search runs the query and reports whether a results page is showing.
// Every step shares one deadline; the first failed step ends the search.
func (n *Navigator) Search(ctx context.Context, page browser.Page, query string) bool {
	start := time.Now()
	if n.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Deadline)
		defer cancel()
	}
	log := n.log.With().Str("query", query).Logger()

	if err := n.open(ctx, page); err != nil {
		log.Warn().Err(err).Str("url", n.cfg.HomeURL).Msg("home page did not load")
		return false
	}

	if n.popups != nil {
		n.popups.Resolve(ctx, page)
	}
	if ctx.Err() != nil {
		log.Warn().Msg("deadline reached after popup handling")
		return false
	}

	input, loc, err := locate.First(ctx, page, n.tables.SearchInput)
	if err != nil {
		log.Warn().Err(err).Msg("search input not found")
		return false
	}
	log.Debug().Stringer("locator", loc).Msg("search input found")

	if err := input.Fill(ctx, query); err != nil {
		log.Warn().Err(err).Msg("typing query failed")
		return false
	}
	if err := input.Press(ctx, "Enter"); err != nil {
		log.Warn().Err(err).Msg("submitting query failed")
		return false
	}

	if err := n.waitResults(ctx, page); err != nil {
		log.Warn().Err(err).Msg("results did not appear")
		return false
	}
	if err := browser.Pause(ctx, n.cfg.SettleDelay); err != nil {
		log.Warn().Msg("deadline reached while results settled")
		return false
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("results page ready")
	return true
}

func (n *Navigator) open(ctx context.Context, page browser.Page) error {
	if n.cfg.NavigateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.NavigateTimeout)
		defer cancel()
	}
	return page.Navigate(ctx, n.cfg.HomeURL)
}

func (n *Navigator) waitResults(ctx context.Context, page browser.Page) error {
	if n.cfg.ResultsWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.ResultsWait)
		defer cancel()
	}
	return page.WaitVisible(ctx, n.tables.ResultsMarker)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the end-to-end workflow: search a query, extract
// the AI Overview from the results page, then fetch target articles and
// compare their topics against the overview.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/gapfinder/internal/article"
	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/consent"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/internal/navigate"
	"github.com/pdiddy/gapfinder/internal/overview"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// ErrNoOverview is returned when an analysis is requested against an
// overview that was not found.
var ErrNoOverview = errors.New("no AI Overview content to compare against")

// Launcher starts a browser session.
type Launcher func(ctx context.Context, cfg types.BrowserConfig) (browser.Session, error)

// ArticleFetcher downloads one article.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (types.ArticleDocument, error)
}

// Pipeline holds the configuration and collaborators shared by every
// request. Stage components are built per request.
type Pipeline struct {
	cfg     types.Config
	tables  *locate.Tables
	launch  Launcher
	fetcher ArticleFetcher
	log     zerolog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLauncher replaces browser.Launch.
func WithLauncher(l Launcher) Option {
	return func(p *Pipeline) { p.launch = l }
}

// WithFetcher replaces the HTTP article fetcher.
func WithFetcher(f ArticleFetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithTables replaces the locator tables.
func WithTables(t *locate.Tables) Option {
	return func(p *Pipeline) { p.tables = t }
}

// New returns a Pipeline. The locator tables come from
// cfg.Overview.LocatorsFile when set, otherwise from the built-in table.
func New(cfg types.Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:    cfg,
		launch: browser.Launch,
		log:    log,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.tables == nil {
		var err error
		if cfg.Overview.LocatorsFile != "" {
			p.tables, err = locate.Load(cfg.Overview.LocatorsFile)
		} else {
			p.tables, err = locate.Default()
		}
		if err != nil {
			return nil, fmt.Errorf("loading locators: %w", err)
		}
	}
	if p.fetcher == nil {
		p.fetcher = article.New(nil, cfg.Article, log)
	}
	return p, nil
}

// ExtractOverview opens a browser session, searches query, and extracts the
// overview from the results page, all under the request deadline. With the
// snapshot driver the search step is skipped and the saved page is read as
// is. A search that fails yields Found=false; only a session that cannot be
// started is an error.
func (p *Pipeline) ExtractOverview(ctx context.Context, query string) (types.ExtractionResult, error) {
	if d := p.cfg.Pipeline.RequestDeadline; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	start := time.Now()
	log := p.log.With().Str("query", query).Logger()

	session, err := p.launch(ctx, p.cfg.Browser)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("starting browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug().Err(err).Msg("closing browser session")
		}
	}()
	page := session.Page()

	if p.cfg.Browser.Driver != types.DriverSnapshot {
		popups := consent.New(p.cfg.Consent, p.tables, p.log)
		nav := navigate.New(p.cfg.Search, p.tables, popups, p.log)
		if !nav.Search(ctx, page, query) {
			log.Warn().Dur("elapsed", time.Since(start)).Msg("search failed, no results page")
			return types.ExtractionResult{Query: query}, nil
		}
	}

	res := overview.New(p.cfg.Overview, p.tables, p.log).Extract(ctx, page)
	res.Query = query
	log.Info().
		Bool("found", res.Found).
		Int("chars", len([]rune(res.FullContent))).
		Dur("elapsed", time.Since(start)).
		Msg("overview extraction finished")
	return res, nil
}

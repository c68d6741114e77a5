// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article fetches target articles over HTTP and reduces them to the
// plain text the gap analyzer compares against.
package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/pdiddy/gapfinder/internal/httputil"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// ErrDisallowed is returned when robots.txt forbids fetching a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher downloads articles and extracts their text.
type Fetcher struct {
	client *http.Client
	cfg    types.ArticleConfig
	robots *robotsCache
	log    zerolog.Logger
}

// New returns a Fetcher. A nil client is replaced by one using cfg.Timeout.
func New(client *http.Client, cfg types.ArticleConfig, log zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}
	if cfg.Mode == "" {
		cfg.Mode = types.ArticleSelectors
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		robots: newRobotsCache(),
		log:    log.With().Str("stage", "article").Logger(),
	}
}

// Fetch downloads rawURL and returns its title and text. Non-2xx responses,
// transport failures, and robots.txt refusals are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (types.ArticleDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return types.ArticleDocument{}, fmt.Errorf("invalid article URL %q", rawURL)
	}

	if f.cfg.RespectRobots && !f.allowed(ctx, u) {
		return types.ArticleDocument{}, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}

	body, err := f.get(ctx, rawURL)
	if err != nil {
		return types.ArticleDocument{}, err
	}

	var doc types.ArticleDocument
	switch f.cfg.Mode {
	case types.ArticleReadability:
		doc, err = readable(body, u)
	default:
		doc, err = parse(body)
	}
	if err != nil {
		return types.ArticleDocument{}, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	doc.URL = rawURL
	f.log.Debug().Str("url", rawURL).Int("words", doc.WordCount).Msg("article fetched")
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(f.log.WithContext(ctx), f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package consent dismisses cookie and consent popups that block the
// search page. Resolution is best effort: a page without a popup is the
// normal case and nothing here ever fails the caller.
package consent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// Resolver clicks through consent popups.
type Resolver struct {
	cfg    types.ConsentConfig
	tables *locate.Tables
	log    zerolog.Logger
}

// New returns a Resolver using the given waits and locator tables.
func New(cfg types.ConsentConfig, tables *locate.Tables, log zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg, tables: tables, log: log.With().Str("stage", "consent").Logger()}
}

// Resolve lets the page settle, then tries in order: top-level consent
// buttons, buttons inside consent iframes, and accept-worded buttons in
// generic dialogs. It reports whether a popup was dismissed. A captcha
// frame, if present, gets a fixed grace wait; it is never interacted with.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page) bool {
	if err := browser.Pause(ctx, r.cfg.InitialSettle); err != nil {
		return false
	}

	dismissed := r.topLevel(ctx, page) || r.frames(ctx, page) || r.overlays(ctx, page)
	if dismissed {
		browser.Pause(ctx, r.cfg.DismissWait)
	} else {
		r.log.Debug().Msg("no consent popup dismissed")
	}

	if r.captchaPresent(ctx, page) {
		r.log.Warn().Dur("grace", r.cfg.CaptchaGrace).Msg("captcha detected, waiting")
		browser.Pause(ctx, r.cfg.CaptchaGrace)
	}
	return dismissed
}

func (r *Resolver) topLevel(ctx context.Context, page browser.Page) bool {
	for _, loc := range r.tables.Consent {
		if ctx.Err() != nil {
			return false
		}
		els, err := loc.Find(ctx, page, 0)
		if err != nil {
			r.log.Debug().Err(err).Stringer("locator", loc).Msg("consent locator failed")
			continue
		}
		el, ok := browser.FirstVisible(ctx, els)
		if !ok {
			continue
		}
		if err := el.Click(ctx); err != nil {
			r.log.Debug().Err(err).Stringer("locator", loc).Msg("consent click failed")
			continue
		}
		r.log.Info().Stringer("locator", loc).Msg("consent popup dismissed")
		return true
	}
	return false
}

// frames looks one level into consent iframes.
func (r *Resolver) frames(ctx context.Context, page browser.Page) bool {
	for _, frameLoc := range r.tables.ConsentFrames {
		if ctx.Err() != nil {
			return false
		}
		iframes, err := frameLoc.Find(ctx, page, 1)
		if err != nil || len(iframes) == 0 {
			continue
		}
		doc, err := iframes[0].Frame(ctx)
		if err != nil {
			r.log.Debug().Err(err).Stringer("frame", frameLoc).Msg("cannot enter consent frame")
			continue
		}
		for _, btnLoc := range r.tables.ConsentFrameButtons {
			btns, err := btnLoc.Find(ctx, doc, 1)
			if err != nil || len(btns) == 0 {
				continue
			}
			if err := btns[0].Click(ctx); err != nil {
				r.log.Debug().Err(err).Stringer("locator", btnLoc).Msg("consent frame click failed")
				continue
			}
			r.log.Info().Stringer("frame", frameLoc).Stringer("locator", btnLoc).Msg("consent popup dismissed in frame")
			return true
		}
	}
	return false
}

// overlays scans dialog-like containers for a visible button whose text
// contains an accept word.
func (r *Resolver) overlays(ctx context.Context, page browser.Page) bool {
	for _, loc := range r.tables.Overlays {
		if ctx.Err() != nil {
			return false
		}
		btns, err := loc.Find(ctx, page, 0)
		if err != nil {
			continue
		}
		for _, btn := range btns {
			if ok, err := btn.Visible(ctx); err != nil || !ok {
				continue
			}
			text, err := btn.Text(ctx)
			if err != nil || !locate.ContainsAny(strings.TrimSpace(text), r.tables.AcceptWords) {
				continue
			}
			if err := btn.Click(ctx); err != nil {
				r.log.Debug().Err(err).Str("text", text).Msg("overlay click failed")
				continue
			}
			r.log.Info().Str("text", text).Msg("overlay dismissed")
			return true
		}
	}
	return false
}

func (r *Resolver) captchaPresent(ctx context.Context, page browser.Page) bool {
	for _, loc := range r.tables.Captcha {
		if els, err := loc.Find(ctx, page, 1); err == nil && len(els) > 0 {
			return true
		}
	}
	return false
}

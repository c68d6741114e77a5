// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package overview

import (
	"context"
	"strings"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/locate"
)

// expand finds and activates the panel's "show more" control, waits for the
// re-render, and returns the primary element's new text. It reports false
// when no control was found, every click strategy failed, or time ran out.
func (x *Extractor) expand(ctx context.Context, page browser.Page, primary browser.Element) (string, bool) {
	if primary == nil {
		return "", false
	}
	btn, where := x.findShowMore(ctx, page, primary)
	if btn == nil {
		x.log.Debug().Msg("no show-more control")
		return "", false
	}
	x.log.Debug().Str("found", where).Msg("show-more control found")

	if !x.activate(ctx, btn) {
		x.log.Info().Msg("expansion abandoned, every click strategy failed")
		return "", false
	}
	if err := browser.Pause(ctx, x.cfg.ExpandWait); err != nil {
		x.log.Warn().Msg("deadline reached while waiting for expansion")
		return "", false
	}
	text, err := primary.Text(ctx)
	if err != nil {
		x.log.Debug().Err(err).Msg("rereading primary element failed")
		return "", false
	}
	return strings.TrimSpace(text), true
}

// findShowMore searches the primary element first, then the whole page,
// then scans generic clickables for expand wording.
func (x *Extractor) findShowMore(ctx context.Context, page browser.Page, primary browser.Element) (browser.Element, string) {
	for _, scope := range []struct {
		name  string
		scope browser.Scope
	}{{"in panel", primary}, {"on page", page}} {
		for _, loc := range x.tables.ShowMore {
			if ctx.Err() != nil {
				return nil, ""
			}
			els, err := loc.Find(ctx, scope.scope, 1)
			if err != nil || len(els) == 0 {
				continue
			}
			if ok, err := els[0].Visible(ctx); err == nil && ok {
				return els[0], scope.name + " " + loc.String()
			}
		}
	}

	for _, loc := range x.tables.Clickables {
		if ctx.Err() != nil {
			return nil, ""
		}
		els, err := loc.Find(ctx, page, x.cfg.MaxClickableScan)
		if err != nil {
			continue
		}
		for _, el := range els {
			if ctx.Err() != nil {
				return nil, ""
			}
			text, ok := x.candidateText(ctx, el)
			if !ok || !locate.ContainsAny(text, x.tables.ExpandWords) {
				continue
			}
			if enabled, err := el.Enabled(ctx); err != nil || !enabled {
				continue
			}
			return el, "clickable " + loc.String()
		}
	}
	return nil, ""
}

// activate tries a direct click, a forced click, and a script click in
// that order, each bounded by the click timeout.
func (x *Extractor) activate(ctx context.Context, btn browser.Element) bool {
	strategies := []struct {
		name  string
		click func(context.Context) error
	}{
		{"click", btn.Click},
		{"force", btn.ForceClick},
		{"script", btn.ScriptClick},
	}
	for _, s := range strategies {
		if ctx.Err() != nil {
			return false
		}
		if err := x.clickWithin(ctx, s.click); err != nil {
			x.log.Debug().Err(err).Str("strategy", s.name).Msg("expand click failed")
			continue
		}
		x.log.Info().Str("strategy", s.name).Msg("expand clicked")
		return true
	}
	return false
}

func (x *Extractor) clickWithin(ctx context.Context, click func(context.Context) error) error {
	if x.cfg.ClickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.ClickTimeout)
		defer cancel()
	}
	return click(ctx)
}

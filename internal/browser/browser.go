// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser is the browser automation boundary. It exposes a small
// page/element capability set (query, visibility, text, three escalating
// click strategies, iframe traversal, typing) implemented by interchangeable
// drivers: chromedp (default), playwright, and a static snapshot driver
// over saved HTML.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/gapfinder/pkg/types"
)

var (
	// ErrNotInteractable is returned when a click cannot reach the element,
	// e.g. it is hidden or another element sits on top of it.
	ErrNotInteractable = errors.New("element not interactable")

	// ErrUnsupported is returned by drivers for operations they cannot perform.
	ErrUnsupported = errors.New("operation not supported by driver")
)

// SelectorKind selects how a selector string is interpreted.
type SelectorKind int

const (
	ByCSS SelectorKind = iota
	ByXPath
)

func (k SelectorKind) String() string {
	if k == ByXPath {
		return "xpath"
	}
	return "css"
}

// Scope is anything elements can be queried under: a page, an iframe
// document, or an element.
type Scope interface {
	// QueryAll returns the elements matching selector without waiting for
	// them to appear. An empty result is not an error.
	QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error)
}

// Element is a handle on one DOM element.
type Element interface {
	Scope

	// Text returns the rendered inner text.
	Text(ctx context.Context) (string, error)

	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)

	// Click performs a regular user click. It fails with ErrNotInteractable
	// when the element is hidden or covered.
	Click(ctx context.Context) error

	// ForceClick dispatches pointer events at the element itself, ignoring
	// visibility and interception.
	ForceClick(ctx context.Context) error

	// ScriptClick invokes the element's click() from page script.
	ScriptClick(ctx context.Context) error

	// Fill clears the element's value and types value into it.
	Fill(ctx context.Context, value string) error

	// Press sends a named key (e.g. "Enter") to the element.
	Press(ctx context.Context, key string) error

	// Frame returns the document of a same-origin iframe element.
	Frame(ctx context.Context) (Scope, error)
}

// Page is the top-level document of a browser tab.
type Page interface {
	Scope

	// Navigate loads url and waits for the DOM content to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until an element matching the CSS selector is
	// visible or ctx expires.
	WaitVisible(ctx context.Context, selector string) error
}

// Session owns a browser process (or equivalent) and its single page. It
// must be closed on every exit path.
type Session interface {
	Page() Page
	Close() error
}

// Launch starts a session with the configured driver. A failure here is
// fatal for the pipeline: no stage can run without a live page.
func Launch(ctx context.Context, cfg types.BrowserConfig) (Session, error) {
	switch cfg.Driver {
	case types.DriverChromedp, "":
		return launchChromedp(ctx, cfg)
	case types.DriverPlaywright:
		return launchPlaywright(ctx, cfg)
	case types.DriverSnapshot:
		return OpenSnapshot(cfg.SnapshotPath)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}

// Pause waits for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when the wait was cut short.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FirstVisible returns the first element in els that reports visible.
// Elements whose visibility cannot be determined are skipped.
func FirstVisible(ctx context.Context, els []Element) (Element, bool) {
	for _, el := range els {
		if ctx.Err() != nil {
			return nil, false
		}
		if ok, err := el.Visible(ctx); err == nil && ok {
			return el, true
		}
	}
	return nil, false
}

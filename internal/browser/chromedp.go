// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// setupTimeout bounds the per-tab emulation setup after the browser starts.
const setupTimeout = 15 * time.Second

const (
	innerTextJS = `function() { return (this.innerText || this.textContent || "").trim(); }`

	visibleJS = `function() {
	const s = window.getComputedStyle(this);
	if (s.visibility === 'hidden' || s.display === 'none' || parseFloat(s.opacity) === 0) return false;
	const r = this.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

	enabledJS = `function() { return !this.disabled && this.getAttribute('aria-disabled') !== 'true'; }`

	// reachableJS scrolls the element into view and reports whether the
	// topmost element at its center is the element itself or a descendant.
	reachableJS = `function() {
	this.scrollIntoView({block: 'center', inline: 'center'});
	const r = this.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) return false;
	const hit = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	return hit === null || hit === this || this.contains(hit);
}`

	dispatchClickJS = `function() {
	for (const type of ['pointerdown', 'mousedown', 'pointerup', 'mouseup', 'click']) {
		this.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
	}
	return true;
}`

	scriptClickJS = `function() { this.click(); return true; }`
)

type chromeSession struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	page        *chromePage
}

// launchChromedp starts Chrome with anti-automation flags, applies viewport,
// locale, timezone, headers, permissions, and the init script, and returns
// a session bound to one tab.
func launchChromedp(ctx context.Context, cfg types.BrowserConfig) (*chromeSession, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	}
	if cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if cfg.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ChromePath))
	}

	// The browser outlives the launch call, so it must not inherit ctx's
	// deadline; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &chromeSession{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		page:        &chromePage{tab: tabCtx},
	}

	// The first Run allocates the browser; a timeout here would kill it.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	setupCtx, cancel := s.page.bind(ctx)
	defer cancel()
	setupCtx, cancelSetup := context.WithTimeout(setupCtx, setupTimeout)
	defer cancelSetup()

	if err := chromedp.Run(setupCtx, tabSetup(cfg)...); err != nil {
		s.Close()
		return nil, fmt.Errorf("configuring chrome tab: %w", err)
	}
	return s, nil
}

func tabSetup(cfg types.BrowserConfig) []chromedp.Action {
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(initScript(cfg.InitScript, cfg.AcceptLanguage)).Do(ctx)
			return err
		}),
		emulation.SetDeviceMetricsOverride(int64(cfg.ViewportWidth), int64(cfg.ViewportHeight), 1, false),
	}
	if cfg.AcceptLanguage != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": cfg.AcceptLanguage,
		}))
	}
	if cfg.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(cfg.Locale))
	}
	if cfg.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(cfg.Timezone))
	}
	if len(cfg.Permissions) > 0 {
		perms := make([]cdpbrowser.PermissionType, 0, len(cfg.Permissions))
		for _, p := range cfg.Permissions {
			perms = append(perms, cdpbrowser.PermissionType(p))
		}
		actions = append(actions, cdpbrowser.GrantPermissions(perms))
	}
	return actions
}

func (s *chromeSession) Page() Page { return s.page }

// Close shuts the tab and the browser process. It is safe to call twice.
func (s *chromeSession) Close() error {
	var err error
	if s.tabCancel != nil {
		err = chromedp.Cancel(s.tabCtx)
		s.tabCancel()
		s.tabCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	return err
}

type chromePage struct {
	tab context.Context
}

// bind derives a chromedp context for one operation: it targets the tab but
// carries the caller's deadline and cancellation. Cancelling it does not
// close the tab.
func (p *chromePage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(p.tab)
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		c, cancelDL = context.WithDeadline(c, dl)
		prev := cancel
		cancel = func() { cancelDL(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	c, cancel := p.bind(ctx)
	defer cancel()
	return chromedp.Run(c,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string) error {
	c, cancel := p.bind(ctx)
	defer cancel()
	return chromedp.Run(c, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	return p.query(ctx, selector, kind, nil)
}

func (p *chromePage) query(ctx context.Context, selector string, kind SelectorKind, from *cdp.Node) ([]Element, error) {
	c, cancel := p.bind(ctx)
	defer cancel()

	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	switch kind {
	case ByXPath:
		// DOM.performSearch is document-wide; from is ignored.
		opts = append(opts, chromedp.BySearch)
	default:
		opts = append(opts, chromedp.ByQueryAll)
		if from != nil {
			opts = append(opts, chromedp.FromNode(from))
		}
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(c, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("querying %s %q: %w", kind, selector, err)
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromeElement{page: p, node: n})
	}
	return els, nil
}

type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

func (e *chromeElement) call(ctx context.Context, fn string, res interface{}) error {
	c, cancel := e.page.bind(ctx)
	defer cancel()
	return chromedp.Run(c, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, e.node, fn, res)
	}))
}

func (e *chromeElement) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	return e.page.query(ctx, selector, kind, e.node)
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var s string
	if err := e.call(ctx, innerTextJS, &s); err != nil {
		return "", err
	}
	return s, nil
}

func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, visibleJS, &ok)
	return ok, err
}

func (e *chromeElement) Enabled(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, enabledJS, &ok)
	return ok, err
}

func (e *chromeElement) Click(ctx context.Context) error {
	visible, err := e.Visible(ctx)
	if err != nil {
		return err
	}
	if !visible {
		return ErrNotInteractable
	}
	var reachable bool
	if err := e.call(ctx, reachableJS, &reachable); err != nil {
		return err
	}
	if !reachable {
		return fmt.Errorf("click intercepted by another element: %w", ErrNotInteractable)
	}
	c, cancel := e.page.bind(ctx)
	defer cancel()
	return chromedp.Run(c, chromedp.MouseClickNode(e.node))
}

func (e *chromeElement) ForceClick(ctx context.Context) error {
	var ok bool
	return e.call(ctx, dispatchClickJS, &ok)
}

func (e *chromeElement) ScriptClick(ctx context.Context) error {
	var ok bool
	return e.call(ctx, scriptClickJS, &ok)
}

func (e *chromeElement) Fill(ctx context.Context, value string) error {
	c, cancel := e.page.bind(ctx)
	defer cancel()
	ids := []cdp.NodeID{e.node.NodeID}
	return chromedp.Run(c,
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, value, chromedp.ByNodeID),
	)
}

func (e *chromeElement) Press(ctx context.Context, key string) error {
	c, cancel := e.page.bind(ctx)
	defer cancel()
	return chromedp.Run(c, chromedp.SendKeys([]cdp.NodeID{e.node.NodeID}, keyCode(key), chromedp.ByNodeID))
}

// Frame returns the element itself as the query scope: chromedp resolves
// queries from an iframe node into its content document.
func (e *chromeElement) Frame(ctx context.Context) (Scope, error) {
	if !strings.EqualFold(e.node.NodeName, "iframe") {
		return nil, fmt.Errorf("%s is not an iframe: %w", strings.ToLower(e.node.NodeName), ErrUnsupported)
	}
	return e, nil
}

func keyCode(key string) string {
	switch strings.ToLower(key) {
	case "enter", "return":
		return kb.Enter
	case "tab":
		return kb.Tab
	case "escape", "esc":
		return kb.Escape
	default:
		return key
	}
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// defaultPlaywrightTimeout applies when the caller's context has no deadline.
const defaultPlaywrightTimeout = 30 * time.Second

var playwrightArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-blink-features=AutomationControlled",
	"--disable-extensions",
	"--disable-default-apps",
	"--disable-sync",
	"--disable-translate",
	"--disable-popup-blocking",
	"--disable-notifications",
	"--disable-infobars",
	"--no-first-run",
	"--no-default-browser-check",
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    *playwrightPage
}

func launchPlaywright(ctx context.Context, cfg types.BrowserConfig) (*playwrightSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	s := &playwrightSession{pw: pw}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     playwrightArgs,
	}
	if cfg.ChromePath != "" {
		launch.ExecutablePath = playwright.String(cfg.ChromePath)
	}
	s.browser, err = pw.Chromium.Launch(launch)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		},
		UserAgent:   playwright.String(cfg.UserAgent),
		Permissions: cfg.Permissions,
	}
	if cfg.Locale != "" {
		opts.Locale = playwright.String(cfg.Locale)
	}
	if cfg.Timezone != "" {
		opts.TimezoneId = playwright.String(cfg.Timezone)
	}
	if cfg.AcceptLanguage != "" {
		opts.ExtraHttpHeaders = map[string]string{"Accept-Language": cfg.AcceptLanguage}
	}
	s.context, err = s.browser.NewContext(opts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	script := initScript(cfg.InitScript, cfg.AcceptLanguage)
	if err := s.context.AddInitScript(playwright.Script{Content: &script}); err != nil {
		s.Close()
		return nil, fmt.Errorf("adding init script: %w", err)
	}

	p, err := s.context.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating page: %w", err)
	}
	s.page = &playwrightPage{page: p}
	return s, nil
}

func (s *playwrightSession) Page() Page { return s.page }

// Close releases the page, context, browser, and driver process, in that
// order, collecting every error.
func (s *playwrightSession) Close() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.page.Close())
		s.page = nil
	}
	if s.context != nil {
		errs = append(errs, s.context.Close())
		s.context = nil
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
		s.browser = nil
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
		s.pw = nil
	}
	return errors.Join(errs...)
}

// timeoutMS converts the remaining time on ctx into a Playwright timeout.
func timeoutMS(ctx context.Context) *float64 {
	d := defaultPlaywrightTimeout
	if dl, ok := ctx.Deadline(); ok {
		d = time.Until(dl)
		if d < time.Millisecond {
			d = time.Millisecond
		}
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func pwSelector(selector string, kind SelectorKind) string {
	if kind == ByXPath {
		return "xpath=" + selector
	}
	return selector
}

func wrapHandles(hs []playwright.ElementHandle) []Element {
	els := make([]Element, 0, len(hs))
	for _, h := range hs {
		els = append(els, &playwrightElement{h: h})
	}
	return els
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMS(ctx),
	})
	return err
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutMS(ctx),
	})
	return err
}

func (p *playwrightPage) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hs, err := p.page.QuerySelectorAll(pwSelector(selector, kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s %q: %w", kind, selector, err)
	}
	return wrapHandles(hs), nil
}

type playwrightFrame struct {
	frame playwright.Frame
}

func (f *playwrightFrame) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hs, err := f.frame.QuerySelectorAll(pwSelector(selector, kind))
	if err != nil {
		return nil, fmt.Errorf("querying frame %s %q: %w", kind, selector, err)
	}
	return wrapHandles(hs), nil
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e *playwrightElement) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hs, err := e.h.QuerySelectorAll(pwSelector(selector, kind))
	if err != nil {
		return nil, fmt.Errorf("querying %s %q: %w", kind, selector, err)
	}
	return wrapHandles(hs), nil
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.h.InnerText()
}

func (e *playwrightElement) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.h.IsVisible()
}

func (e *playwrightElement) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.h.IsEnabled()
}

func (e *playwrightElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.h.Click(playwright.ElementHandleClickOptions{Timeout: timeoutMS(ctx)}); err != nil {
		return fmt.Errorf("%w: %v", ErrNotInteractable, err)
	}
	return nil
}

func (e *playwrightElement) ForceClick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Click(playwright.ElementHandleClickOptions{
		Force:   playwright.Bool(true),
		Timeout: timeoutMS(ctx),
	})
}

func (e *playwrightElement) ScriptClick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.h.Evaluate("el => el.click()")
	return err
}

func (e *playwrightElement) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Fill(value, playwright.ElementHandleFillOptions{Timeout: timeoutMS(ctx)})
}

func (e *playwrightElement) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Press(key, playwright.ElementHandlePressOptions{Timeout: timeoutMS(ctx)})
}

func (e *playwrightElement) Frame(ctx context.Context) (Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := e.h.ContentFrame()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("element has no content frame: %w", ErrUnsupported)
	}
	return &playwrightFrame{frame: f}, nil
}

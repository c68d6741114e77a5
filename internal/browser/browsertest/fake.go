// Package browsertest provides in-memory fakes of the browser boundary for
// stage tests. A fake page maps selectors to scripted elements.
package browsertest

import (
	"context"
	"sync"

	"github.com/pdiddy/gapfinder/internal/browser"
)

func key(selector string, kind browser.SelectorKind) string {
	if kind == browser.ByXPath {
		return "xpath=" + selector
	}
	return selector
}

// Scope maps selectors to elements. XPath selectors are registered with an
// "xpath=" prefix.
type Scope struct {
	mu       sync.Mutex
	elements map[string][]*Element
	errs     map[string]error
	queries  []string
}

func (s *Scope) init() {
	if s.elements == nil {
		s.elements = make(map[string][]*Element)
		s.errs = make(map[string]error)
	}
}

// Add registers els as the result of selector.
func (s *Scope) Add(selector string, els ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.elements[selector] = append(s.elements[selector], els...)
}

// Fail makes queries for selector return err.
func (s *Scope) Fail(selector string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.errs[selector] = err
}

// Queries returns every selector queried so far, in order.
func (s *Scope) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *Scope) QueryAll(ctx context.Context, selector string, kind browser.SelectorKind) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := key(selector, kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.queries = append(s.queries, k)
	if err := s.errs[k]; err != nil {
		return nil, err
	}
	els := make([]browser.Element, 0, len(s.elements[k]))
	for _, el := range s.elements[k] {
		els = append(els, el)
	}
	return els, nil
}

// Page is a scripted browser.Page.
type Page struct {
	Scope

	// NavigateErr is returned by every Navigate call.
	NavigateErr error

	mu        sync.Mutex
	navigated []string
}

func NewPage() *Page { return &Page{} }

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.mu.Unlock()
	return p.NavigateErr
}

// Navigated returns the URLs passed to Navigate.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// WaitVisible succeeds when a visible element is registered for selector,
// otherwise it blocks until ctx is done.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	els, err := p.QueryAll(ctx, selector, browser.ByCSS)
	if err != nil {
		return err
	}
	if _, ok := browser.FirstVisible(ctx, els); ok {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// Session wraps a Page and records Close.
type Session struct {
	P      *Page
	mu     sync.Mutex
	closed int
}

func NewSession(p *Page) *Session { return &Session{P: p} }

func (s *Session) Page() browser.Page { return s.P }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Closed reports how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Element is a scripted browser.Element. Zero values describe a visible,
// enabled element whose clicks succeed.
type Element struct {
	Scope

	Content  string
	Hidden   bool
	Disabled bool

	TextErr, ClickErr, ForceErr, ScriptErr, FillErr, PressErr error

	// OnClick runs after any click strategy succeeds.
	OnClick func()

	// Doc is returned by Frame; nil means the element is not an iframe.
	Doc *Scope

	mu      sync.Mutex
	clicks  []string
	filled  []string
	pressed []string
}

// NewElement returns a visible element with the given text.
func NewElement(text string) *Element { return &Element{Content: text} }

// Hide marks the element hidden and returns it.
func (e *Element) Hide() *Element {
	e.Hidden = true
	return e
}

// SetText replaces the element's text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Content = text
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Content, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return !e.Hidden, nil
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return !e.Disabled, nil
}

func (e *Element) click(ctx context.Context, strategy string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	e.mu.Lock()
	e.clicks = append(e.clicks, strategy)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	err := e.ClickErr
	if err == nil && e.Hidden {
		err = browser.ErrNotInteractable
	}
	return e.click(ctx, "click", err)
}

func (e *Element) ForceClick(ctx context.Context) error {
	return e.click(ctx, "force", e.ForceErr)
}

func (e *Element) ScriptClick(ctx context.Context) error {
	return e.click(ctx, "script", e.ScriptErr)
}

// Clicks returns the click strategies attempted, in order.
func (e *Element) Clicks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.clicks...)
}

func (e *Element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FillErr != nil {
		return e.FillErr
	}
	e.filled = append(e.filled, value)
	return nil
}

// Filled returns every value typed into the element.
func (e *Element) Filled() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.filled...)
}

func (e *Element) Press(ctx context.Context, k string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.PressErr != nil {
		return e.PressErr
	}
	e.pressed = append(e.pressed, k)
	return nil
}

// Pressed returns every key sent to the element.
func (e *Element) Pressed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.pressed...)
}

func (e *Element) Frame(ctx context.Context) (browser.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Doc == nil {
		return nil, browser.ErrUnsupported
	}
	return e.Doc, nil
}

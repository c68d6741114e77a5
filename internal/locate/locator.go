// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locate describes how page elements are found. Every stage keeps
// its selectors in an ordered, data-driven table of locators instead of
// hard-coding them, so the table can be tuned when the page markup drifts.
package locate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gapfinder/internal/browser"
)

// ErrNotFound is returned when no locator in a list yields a visible element.
var ErrNotFound = errors.New("no matching element")

// textScanLimit bounds how many candidates a text locator inspects.
const textScanLimit = 50

// Locator finds candidate elements under a scope.
type Locator interface {
	fmt.Stringer

	// Find returns up to limit matches in document order. limit <= 0 means
	// no limit.
	Find(ctx context.Context, scope browser.Scope, limit int) ([]browser.Element, error)
}

// CSS matches a CSS selector.
type CSS struct {
	Selector string
}

func (l CSS) String() string { return "css:" + l.Selector }

func (l CSS) Find(ctx context.Context, scope browser.Scope, limit int) ([]browser.Element, error) {
	els, err := scope.QueryAll(ctx, l.Selector, browser.ByCSS)
	if err != nil {
		return nil, err
	}
	return truncate(els, limit), nil
}

// XPath matches an XPath expression.
type XPath struct {
	Expr string
}

func (l XPath) String() string { return "xpath:" + l.Expr }

func (l XPath) Find(ctx context.Context, scope browser.Scope, limit int) ([]browser.Element, error) {
	els, err := scope.QueryAll(ctx, l.Expr, browser.ByXPath)
	if err != nil {
		return nil, err
	}
	return truncate(els, limit), nil
}

// Text matches elements of a base CSS selector whose text contains any of
// the given phrases, case-insensitively. MaxChars, when set, rejects
// elements with longer text so large containers that merely include the
// phrase are skipped.
type Text struct {
	In       string
	Contains []string
	MaxChars int
}

func (l Text) String() string {
	return fmt.Sprintf("text:%s%q", l.In, l.Contains)
}

func (l Text) Find(ctx context.Context, scope browser.Scope, limit int) ([]browser.Element, error) {
	base := l.In
	if base == "" {
		base = "*"
	}
	els, err := scope.QueryAll(ctx, base, browser.ByCSS)
	if err != nil {
		return nil, err
	}
	var out []browser.Element
	for i, el := range els {
		if i >= textScanLimit || (limit > 0 && len(out) >= limit) {
			break
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if l.MaxChars > 0 && len([]rune(text)) > l.MaxChars {
			continue
		}
		if ContainsAny(text, l.Contains) {
			out = append(out, el)
		}
	}
	return out, nil
}

// ContainsAny reports whether text contains any of words, ignoring case.
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func truncate(els []browser.Element, limit int) []browser.Element {
	if limit > 0 && len(els) > limit {
		return els[:limit]
	}
	return els
}

// List is an ordered set of locators, tried in order.
type List []Locator

// locatorSpec is the YAML form of one locator. A bare string is a CSS
// selector.
type locatorSpec struct {
	CSS      string   `yaml:"css"`
	XPath    string   `yaml:"xpath"`
	Text     []string `yaml:"text"`
	In       string   `yaml:"in"`
	MaxChars int      `yaml:"max_chars"`
}

func (s locatorSpec) locator() (Locator, error) {
	switch {
	case len(s.Text) > 0:
		return Text{In: s.In, Contains: s.Text, MaxChars: s.MaxChars}, nil
	case s.CSS != "" && s.XPath != "":
		return nil, fmt.Errorf("locator sets both css and xpath")
	case s.CSS != "":
		return CSS{Selector: s.CSS}, nil
	case s.XPath != "":
		return XPath{Expr: s.XPath}, nil
	default:
		return nil, fmt.Errorf("empty locator")
	}
}

// UnmarshalYAML decodes a sequence of locators.
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: locator list must be a sequence", node.Line)
	}
	out := make(List, 0, len(node.Content))
	for _, item := range node.Content {
		var spec locatorSpec
		if item.Kind == yaml.ScalarNode {
			spec.CSS = item.Value
		} else if err := item.Decode(&spec); err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		loc, err := spec.locator()
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		out = append(out, loc)
	}
	*l = out
	return nil
}

// First returns the first visible element found by the locators in order,
// together with the locator that found it. Locator errors are skipped.
func First(ctx context.Context, scope browser.Scope, list List) (browser.Element, Locator, error) {
	for _, loc := range list {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		els, err := loc.Find(ctx, scope, 0)
		if err != nil {
			continue
		}
		if el, ok := browser.FirstVisible(ctx, els); ok {
			return el, loc, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return nil, nil, ErrNotFound
}

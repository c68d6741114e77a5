// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// snapshotSession serves a saved results page. It answers queries,
// visibility, and text from the static DOM; anything that would need a live
// page (navigation, clicks, typing) fails with ErrUnsupported.
type snapshotSession struct {
	page *snapshotPage
}

// OpenSnapshot loads a saved HTML page from path.
func OpenSnapshot(path string) (Session, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot driver needs a snapshot path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snapshotSession{page: &snapshotPage{root: doc.Selection}}, nil
}

// SnapshotFromHTML builds a snapshot session from an HTML string.
func SnapshotFromHTML(markup string) (Session, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot html: %w", err)
	}
	return &snapshotSession{page: &snapshotPage{root: doc.Selection}}, nil
}

func (s *snapshotSession) Page() Page   { return s.page }
func (s *snapshotSession) Close() error { return nil }

type snapshotPage struct {
	root *goquery.Selection
}

func (p *snapshotPage) Navigate(ctx context.Context, url string) error {
	return fmt.Errorf("navigate %s: %w", url, ErrUnsupported)
}

// WaitVisible succeeds when a visible match is already present. A static
// document never changes, so there is nothing to wait for.
func (p *snapshotPage) WaitVisible(ctx context.Context, selector string) error {
	els, err := p.QueryAll(ctx, selector, ByCSS)
	if err != nil {
		return err
	}
	if _, ok := FirstVisible(ctx, els); ok {
		return nil
	}
	return fmt.Errorf("no visible element matches %q", selector)
}

func (p *snapshotPage) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	return queryNodes(ctx, p.root, selector, kind)
}

func queryNodes(ctx context.Context, root *goquery.Selection, selector string, kind SelectorKind) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var nodes []*html.Node
	switch kind {
	case ByXPath:
		for _, top := range root.Nodes {
			found, err := htmlquery.QueryAll(top, selector)
			if err != nil {
				return nil, fmt.Errorf("querying xpath %q: %w", selector, err)
			}
			nodes = append(nodes, found...)
		}
	default:
		nodes = root.Find(selector).Nodes
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &snapshotElement{sel: goquery.NewDocumentFromNode(n).Selection})
	}
	return els, nil
}

type snapshotElement struct {
	sel *goquery.Selection
}

func (e *snapshotElement) QueryAll(ctx context.Context, selector string, kind SelectorKind) ([]Element, error) {
	return queryNodes(ctx, e.sel, selector, kind)
}

// Text approximates innerText: whitespace runs collapse to one space and
// script and style contents are skipped.
func (e *snapshotElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !isVisible(e.sel.Nodes[0]) {
		return "", nil
	}
	var b strings.Builder
	collectText(e.sel.Nodes[0], &b)
	return strings.Join(strings.Fields(b.String()), " "), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "iframe":
			return
		}
		if hiddenByMarkup(n) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		b.WriteByte(' ')
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "br", "h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "tr", "td":
		return true
	}
	return false
}

func (e *snapshotElement) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return isVisible(e.sel.Nodes[0]), nil
}

func (e *snapshotElement) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return false, nil
	}
	return e.sel.AttrOr("aria-disabled", "") != "true", nil
}

func (e *snapshotElement) Click(context.Context) error       { return ErrUnsupported }
func (e *snapshotElement) ForceClick(context.Context) error  { return ErrUnsupported }
func (e *snapshotElement) ScriptClick(context.Context) error { return ErrUnsupported }

func (e *snapshotElement) Fill(context.Context, string) error  { return ErrUnsupported }
func (e *snapshotElement) Press(context.Context, string) error { return ErrUnsupported }

// Frame parses an iframe's srcdoc. Frames loaded from a src URL are not part
// of the snapshot.
func (e *snapshotElement) Frame(ctx context.Context) (Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if goquery.NodeName(e.sel) != "iframe" {
		return nil, fmt.Errorf("%s is not an iframe: %w", goquery.NodeName(e.sel), ErrUnsupported)
	}
	srcdoc, ok := e.sel.Attr("srcdoc")
	if !ok {
		return nil, fmt.Errorf("iframe without srcdoc: %w", ErrUnsupported)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(srcdoc))
	if err != nil {
		return nil, fmt.Errorf("parsing iframe srcdoc: %w", err)
	}
	return &snapshotPage{root: doc.Selection}, nil
}

// isVisible reports whether neither n nor any ancestor is hidden by markup.
func isVisible(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hiddenByMarkup(n) {
			return false
		}
	}
	return true
}

func hiddenByMarkup(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return n.Type == html.ElementNode && n.Data == "input" && attr(n, "type") == "hidden"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

package article

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// containers are tried in order; the first present one holds the article.
var containers = []string{
	"article",
	".post-content",
	".entry-content",
	".content",
	".main-content",
	"#content",
	".article-body",
	".post-body",
	"main",
}

const blocks = "p, h1, h2, h3, h4, h5, h6"

func parse(body []byte) (types.ArticleDocument, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.ArticleDocument{}, err
	}
	doc.Find("script, style").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	root := doc.Find("body").First()
	for _, sel := range containers {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	return document(title, blockText(root)), nil
}

// readable runs the readability algorithm and collects the block text of the
// cleaned article, falling back to its flattened text.
func readable(body []byte, u *url.URL) (types.ArticleDocument, error) {
	art, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return types.ArticleDocument{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(art.Content))
	if err != nil {
		return types.ArticleDocument{}, err
	}
	text := blockText(doc.Selection)
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	return document(strings.TrimSpace(art.Title), text), nil
}

// blockText joins the trimmed, non-empty text of every paragraph and heading
// under root with single spaces.
func blockText(root *goquery.Selection) string {
	var parts []string
	root.Find(blocks).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

func document(title, content string) types.ArticleDocument {
	return types.ArticleDocument{
		Title:     title,
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}
}

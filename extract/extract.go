// Package extract renders a page's DOM into sanitized markdown so the
// agent can read page content alongside the accessibility diff.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Result is the extracted view of a page.
type Result struct {
	URL      string `json:"url,omitempty"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Hash     string `json:"hash"`
}

// Extractor converts raw page HTML into a Result. Safe for concurrent use.
type Extractor struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// New creates an Extractor with the default sanitization policy.
func New() *Extractor {
	return &Extractor{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Page sanitizes the HTML and converts it to markdown. The hash covers the
// sanitized HTML, so cosmetic attribute churn stripped by the policy does
// not register as a new page version.
func (e *Extractor) Page(rawHTML string) (*Result, error) {
	title := pageTitle(rawHTML)

	clean := e.policy.Sanitize(rawHTML)

	md, err := e.conv.ConvertString(clean)
	if err != nil {
		return nil, fmt.Errorf("extract: convert to markdown: %w", err)
	}

	sum := sha256.Sum256([]byte(clean))

	return &Result{
		Title:    title,
		Markdown: strings.TrimSpace(md),
		Hash:     hex.EncodeToString(sum[:]),
	}, nil
}

// pageTitle pulls the <title> text out of the document, empty when absent.
func pageTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(sb.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

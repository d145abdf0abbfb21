// Package extract pulls readable article text out of HTML pages so headline
// sentiment can be compared against what the article actually says.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxContentLen bounds the extracted text; sentiment analysis does not need
// more than the opening of the article.
const maxContentLen = 5000

// nonContentSelectors lists elements stripped before extracting body text.
const nonContentSelectors = "script, style, nav, header, footer, aside, form"

// Extractor fetches article pages and extracts their main text.
type Extractor struct {
	client *http.Client
}

// New creates an Extractor. A nil client uses http.DefaultClient.
func New(client *http.Client) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client}
}

// FromURL fetches the page and returns its article text, truncated to a
// bounded length. Returns "" with no error when the page has no extractable
// text.
func (e *Extractor) FromURL(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch article page: status %d", resp.StatusCode)
	}

	return FromHTML(resp.Body)
}

// FromHTML extracts article text from an HTML document. Prefers paragraph
// text inside <article>; falls back to all paragraphs, then to the stripped
// <body> text.
func FromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	if text := paragraphText(doc.Find("article").First()); text != "" {
		return truncate(text), nil
	}

	if text := paragraphText(doc.Selection); text != "" {
		return truncate(text), nil
	}

	body := doc.Find("body").First()
	if body.Length() > 0 {
		body.Find(nonContentSelectors).Remove()
		return truncate(collapseWhitespace(body.Text())), nil
	}

	return "", nil
}

// paragraphText joins the text of every <p> under sel, skipping boilerplate
// fragments too short to carry article content.
func paragraphText(sel *goquery.Selection) string {
	const minParagraphLen = 30

	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) >= minParagraphLen {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxContentLen {
		return s
	}
	return s[:maxContentLen]
}

package extractor

import (
	"bytes"
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/bazar-khobor/pkg/httpclient"
)

const maxPageBodyBytes = 1 << 20 // 1 MiB

// pageFetcher fetches an HTML page and converts it to markdown text.
type pageFetcher struct {
	client httpclient.Client
}

// NewPageFetcher builds a fetcher for plain HTML page sources.
func NewPageFetcher(client httpclient.Client) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &pageFetcher{client: client}
}

func (f *pageFetcher) Kind() string {
	return KindPage
}

// Fetch retrieves the page and returns its content as markdown, prefixed with
// the page title when one can be extracted.
func (f *pageFetcher) Fetch(ctx context.Context, src Source) (string, error) {
	body, err := fetchBody(ctx, f.client, src)
	if err != nil {
		return "", err
	}
	if len(body) > maxPageBodyBytes {
		body = body[:maxPageBodyBytes]
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		// Not every source serves clean HTML; degrade to the raw body so the
		// LLM still sees the content.
		return string(body), nil
	}

	if title := pageTitle(body); title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return markdown, nil
}

// pageTitle extracts the og:title or <title> of the page.
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	if node := doc.Find(`meta[property="og:title"]`).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

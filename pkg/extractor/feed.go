package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/bazar-khobor/pkg/httpclient"
)

// feedFetcher fetches an RSS/Atom feed and flattens its entries to text.
type feedFetcher struct {
	client httpclient.Client
	parser *gofeed.Parser
}

// NewFeedFetcher builds a fetcher for RSS/Atom feed sources.
func NewFeedFetcher(client httpclient.Client) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &feedFetcher{
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (f *feedFetcher) Kind() string {
	return KindFeed
}

// Fetch retrieves and parses the feed, rendering each entry as a markdown
// block of title, link, and description.
func (f *feedFetcher) Fetch(ctx context.Context, src Source) (string, error) {
	body, err := fetchBody(ctx, f.client, src)
	if err != nil {
		return "", err
	}

	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return "", fmt.Errorf("parse feed %s: %w", src.URL, err)
	}
	if len(feed.Items) == 0 {
		return "", fmt.Errorf("feed %s returned no items", src.URL)
	}

	var b strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", feed.Title)
	}
	for _, item := range feed.Items {
		fmt.Fprintf(&b, "## %s\n", strings.TrimSpace(item.Title))
		if item.Link != "" {
			fmt.Fprintf(&b, "Link: %s\n", item.Link)
		}
		if desc := strings.TrimSpace(item.Description); desc != "" {
			fmt.Fprintf(&b, "%s\n", desc)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

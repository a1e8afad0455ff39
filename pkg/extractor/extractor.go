// Package extractor turns configured news sources into raw text for the
// normalization pipeline. Each source kind has its own fetcher; all of them
// return plain text (markdown for HTML pages) rather than structured data.
package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/bazar-khobor/pkg/httpclient"
)

const (
	// Supported source kinds.
	KindPage    = "page"
	KindFeed    = "feed"
	KindSitemap = "sitemap"

	defaultUserAgent = "bazar-khobor/1.0 (+https://github.com/Adda-Baaj/bazar-khobor)"
)

// Source is one configured crawl target.
type Source struct {
	ID      string            `mapstructure:"id" yaml:"id"`
	URL     string            `mapstructure:"url" yaml:"url"`
	Kind    string            `mapstructure:"kind" yaml:"kind"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// Fetcher retrieves the raw text content for sources of one kind.
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, src Source) (string, error)
}

// Registry selects a fetcher by source kind.
type Registry interface {
	FetcherFor(src Source) (Fetcher, error)
}

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewRegistry builds a registry for the provided fetcher implementations.
func NewRegistry(fetchers ...Fetcher) Registry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.Kind()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given source based on its kind.
// Sources with no kind default to page fetching.
func (r *fetcherRegistry) FetcherFor(src Source) (Fetcher, error) {
	kind := strings.ToLower(strings.TrimSpace(src.Kind))
	if kind == "" {
		kind = KindPage
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for source kind %q", kind)
}

// DefaultHTTPClient returns a tuned HTTP client for source fetchers.
func DefaultHTTPClient() httpclient.Client { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultRegistry wires up the known source fetchers.
func DefaultRegistry(client httpclient.Client) Registry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewRegistry(
		NewPageFetcher(client),
		NewFeedFetcher(client),
		NewSitemapFetcher(client),
	)
}

// Headers returns the request headers for a source, with a default user agent.
func Headers(src Source) map[string]string {
	headers := map[string]string{
		"User-Agent": defaultUserAgent,
	}
	for k, v := range src.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = v
		}
	}
	return headers
}

// fetchBody retrieves the source URL and returns the body on a 200 response.
func fetchBody(ctx context.Context, client httpclient.Client, src Source) ([]byte, error) {
	if strings.TrimSpace(src.URL) == "" {
		return nil, fmt.Errorf("source %q url is empty", src.ID)
	}

	resp, err := client.Get(ctx, src.URL, Headers(src))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.URL, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d body: %s", src.URL, resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

// responseSnippet returns a truncated snippet of the response body for errors.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

package extractor

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/bazar-khobor/pkg/httpclient"
)

// sitemapFetcher fetches Google News sitemap sources and flattens their
// entries to text. Sitemap indexes are followed one level of nesting at a
// time, skipping already-visited URLs.
type sitemapFetcher struct {
	client httpclient.Client
}

// NewSitemapFetcher builds a fetcher for Google News sitemap sources.
func NewSitemapFetcher(client httpclient.Client) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &sitemapFetcher{client: client}
}

func (f *sitemapFetcher) Kind() string {
	return KindSitemap
}

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc  string           `xml:"loc"`
	News googleNewsDetail `xml:"news"`
}

type googleNewsDetail struct {
	PublicationDate string `xml:"publication_date"`
	Keywords        string `xml:"keywords"`
	Title           string `xml:"title"`
}

type sitemapIndex struct {
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

// Fetch resolves the sitemap into a markdown listing of its entries.
func (f *sitemapFetcher) Fetch(ctx context.Context, src Source) (string, error) {
	urls, err := f.collect(ctx, src, src.URL, nil)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("sitemap %s returned no records", src.URL)
	}

	var b strings.Builder
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", strings.TrimSpace(entry.News.Title))
		fmt.Fprintf(&b, "Link: %s\n", loc)
		if kw := strings.TrimSpace(entry.News.Keywords); kw != "" {
			fmt.Fprintf(&b, "Keywords: %s\n", kw)
		}
		if at := strings.TrimSpace(entry.News.PublicationDate); at != "" {
			fmt.Fprintf(&b, "Published: %s\n", at)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// collect resolves a sitemap URL into entries, following sitemap indexes.
func (f *sitemapFetcher) collect(ctx context.Context, src Source, url string, visited map[string]struct{}) ([]googleNewsURL, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	if _, seen := visited[url]; seen {
		return nil, nil
	}
	visited[url] = struct{}{}

	nested := src
	nested.URL = url
	raw, err := fetchBody(ctx, f.client, nested)
	if err != nil {
		return nil, err
	}

	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(raw, &sitemap); err != nil {
		return nil, fmt.Errorf("decode google news sitemap: %w", err)
	}
	if len(sitemap.URLs) > 0 {
		return sitemap.URLs, nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("decode sitemap index: %w", err)
	}

	var all []googleNewsURL
	for _, entry := range index.Sitemaps {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		entries, err := f.collect(ctx, src, loc, visited)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

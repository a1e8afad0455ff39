// Package digest renders the HTML email body for a user's matched articles.
// The layout comes from a template that carries one prototype article block
// (div.columns); rendering splits the template around that block and stamps
// out a filled copy per article.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
)

//go:embed email_template.html
var defaultTemplate string

// Renderer produces digest HTML from a parsed template. It is immutable
// after construction and safe for concurrent use.
type Renderer struct {
	prefix  string
	article string
	suffix  string
}

// NewRenderer parses the default embedded template.
func NewRenderer() (*Renderer, error) {
	return NewRendererFromTemplate(defaultTemplate)
}

// NewRendererFromTemplate parses an HTML template that must contain exactly
// one element with class "columns" to act as the article prototype.
func NewRendererFromTemplate(tmpl string) (*Renderer, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}

	block := doc.Find("div.columns").First()
	if block.Length() == 0 {
		return nil, fmt.Errorf("digest template has no div with class %q", "columns")
	}

	articleHTML, err := goquery.OuterHtml(block)
	if err != nil {
		return nil, fmt.Errorf("serialize article block: %w", err)
	}

	full, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize digest template: %w", err)
	}

	prefix, suffix, found := strings.Cut(full, articleHTML)
	if !found {
		return nil, fmt.Errorf("article block not found in serialized template")
	}

	return &Renderer{
		prefix:  strings.ReplaceAll(prefix, "\n", ""),
		article: articleHTML,
		suffix:  strings.ReplaceAll(suffix, "\n", ""),
	}, nil
}

// Render builds the full email body for the given articles. An empty slice
// yields the template shell with no article blocks.
func (r *Renderer) Render(items []domain.DigestItem) (string, error) {
	var out bytes.Buffer
	out.WriteString(r.prefix)

	for _, item := range items {
		block, err := r.renderArticle(item)
		if err != nil {
			return "", err
		}
		out.WriteString(block)
	}

	out.WriteString(r.suffix)
	return out.String(), nil
}

func (r *Renderer) renderArticle(item domain.DigestItem) (string, error) {
	// Re-parse the prototype per article so fills never leak between items.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.article))
	if err != nil {
		return "", fmt.Errorf("parse article block: %w", err)
	}

	block := doc.Find("div.columns").First()
	block.Find("h1").First().SetText(item.Title)
	block.Find("p").First().SetText(item.Summary)

	link := block.Find("a").First()
	link.SetAttr("href", item.Link)
	link.SetText("Read More on " + item.Source)

	spans := block.Find("span")
	if spans.Length() > 0 {
		spans.Eq(0).SetText(string(item.Topic))
	}
	if spans.Length() > 1 {
		spans.Eq(1).SetText(item.Source)
	}

	block.Find("img").First().SetAttr("src", ImageURL(item.Title))

	return goquery.OuterHtml(block)
}

// ImageURL derives a deterministic placeholder image for an article title.
func ImageURL(title string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/400", url.PathEscape(title))
}

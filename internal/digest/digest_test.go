package digest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
)

func TestRenderFillsArticleFields(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.Render([]domain.DigestItem{
		{
			Title:   "Grid upgrade approved",
			Summary: "Regulators cleared the new transmission line.",
			Link:    "example.com/grid",
			Topic:   "Energy",
			Source:  "Yahoo News",
		},
	})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	blocks := doc.Find("div.columns")
	require.Equal(t, 1, blocks.Length())

	assert.Equal(t, "Grid upgrade approved", blocks.Find("h1").Text())
	assert.Equal(t, "Regulators cleared the new transmission line.", blocks.Find("p").Text())

	link := blocks.Find("a").First()
	href, _ := link.Attr("href")
	assert.Equal(t, "example.com/grid", href)
	assert.Equal(t, "Read More on Yahoo News", link.Text())

	spans := blocks.Find("span")
	assert.Equal(t, "Energy", spans.Eq(0).Text())
	assert.Equal(t, "Yahoo News", spans.Eq(1).Text())

	src, _ := blocks.Find("img").First().Attr("src")
	assert.Equal(t, "https://picsum.photos/seed/Grid%20upgrade%20approved/800/400", src)
}

func TestRenderRepeatsBlockPerArticle(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	items := []domain.DigestItem{
		{Title: "First", Summary: "s1", Link: "l1", Topic: "Energy", Source: "A"},
		{Title: "Second", Summary: "s2", Link: "l2", Topic: "Politics", Source: "B"},
		{Title: "Third", Summary: "s3", Link: "l3", Topic: "Minerals", Source: "C"},
	}

	html, err := r.Render(items)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, 3, doc.Find("div.columns").Length())

	titles := doc.Find("div.columns h1").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	assert.Equal(t, []string{"First", "Second", "Third"}, titles)
}

func TestRenderEmptyListKeepsShell(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.Render(nil)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("div.columns").Length())
	assert.Contains(t, html, "Bazar Khobor")
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	first, err := r.Render([]domain.DigestItem{{Title: "Only once", Summary: "s", Link: "l", Topic: "Energy", Source: "A"}})
	require.NoError(t, err)

	second, err := r.Render([]domain.DigestItem{{Title: "Only once", Summary: "s", Link: "l", Topic: "Energy", Source: "A"}})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, strings.Count(second, "Only once"))
}

func TestNewRendererRejectsTemplateWithoutBlock(t *testing.T) {
	_, err := NewRendererFromTemplate("<html><body><div class='other'></div></body></html>")
	require.Error(t, err)
}

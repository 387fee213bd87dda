package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-tracker-web/internal/client"
	"price-tracker-web/internal/models"
	"price-tracker-web/internal/navigation"
	"price-tracker-web/internal/query"
	"price-tracker-web/internal/render"
	"price-tracker-web/internal/viewmodel"
)

func renderDoc(t *testing.T, p render.Page) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, render.Templates(), p))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func loaded(filters models.SearchFilters, page models.ResultPage) navigation.State {
	vm := viewmodel.Build(filters, page, viewmodel.Options{SearchPath: "/search"})
	return navigation.State{Status: navigation.StatusLoaded, ViewModel: &vm}
}

func TestRenderResults(t *testing.T) {
	filters := query.Parse("search=phone&min_price=10&page=10")
	products := []models.Product{
		{ID: "1", Title: strings.Repeat("x", 120), Price: 5, Currency: "$", Tracked: models.TrackTracked},
		{ID: "2", Title: "B", Tracked: models.TrackUntracked},
		{ID: "3", Title: "C", Tracked: models.TrackUntracked},
		{ID: "4", Title: "D", Tracked: models.TrackAnonymous},
	}
	st := loaded(filters, models.ResultPage{Products: products, TotalPages: 20, CurrentPage: 10})

	doc := renderDoc(t, render.NewPage("/search", filters, st))

	assert.Equal(t, 2, doc.Find(".product-row").Length())
	assert.Equal(t, 4, doc.Find(".product-card").Length())
	assert.Equal(t, strings.Repeat("x", 100)+"...", doc.Find(".product-title").First().Text())

	tracked := doc.Find(`.track-button[data-product-id="1"]`)
	assert.True(t, tracked.HasClass("tracked"))
	assert.Equal(t, "Tracked", tracked.Text())
	assert.Equal(t, "Track", doc.Find(`.track-button[data-product-id="2"]`).Text())
	assert.Equal(t, 1, doc.Find(".login-to-track").Length())

	val, _ := doc.Find("#search").Attr("value")
	assert.Equal(t, "phone", val)
	val, _ = doc.Find("#min_price").Attr("value")
	assert.Equal(t, "10", val)

	var pages []string
	doc.Find("ul.pagination li").Each(func(_ int, s *goquery.Selection) {
		pages = append(pages, strings.TrimSpace(s.Text()))
	})
	assert.Equal(t, []string{"1", "2", "…", "9", "10", "11", "…", "19", "20"}, pages)
	assert.Equal(t, "10", doc.Find("li.active a.page-link").Text())

	href, ok := doc.Find("a.page-link").Last().Attr("href")
	require.True(t, ok)
	assert.Contains(t, href, "page=20")
	assert.Contains(t, href, "search=phone")
}

func TestRenderEmptyInitial(t *testing.T) {
	filters := query.Parse("")
	doc := renderDoc(t, render.NewPage("/search", filters, loaded(filters, models.ResultPage{CurrentPage: 1})))

	assert.Equal(t, 1, doc.Find("#promo").Length())
	assert.Zero(t, doc.Find(".product-card").Length())
	assert.Zero(t, doc.Find("ul.pagination").Length())
}

func TestRenderNoResults(t *testing.T) {
	filters := query.Parse("brand=nobody")
	doc := renderDoc(t, render.NewPage("/search", filters, loaded(filters, models.ResultPage{CurrentPage: 1})))

	assert.Equal(t, 1, doc.Find("#no-results").Length())
	assert.Zero(t, doc.Find("#promo").Length())
}

func TestRenderFailed(t *testing.T) {
	err := client.ServerError{StatusCode: 502}
	st := navigation.State{Status: navigation.StatusFailed, Err: err, Reason: client.Reason(err)}

	doc := renderDoc(t, render.NewPage("/search", query.Parse("search=<b>"), st))

	assert.Equal(t, client.Reason(err), doc.Find("#search-error").Text())
	val, _ := doc.Find("#search").Attr("value")
	assert.Equal(t, "<b>", val)
	assert.Zero(t, doc.Find("b").Length(), "filter values must be escaped")
}

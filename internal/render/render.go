// Package render turns a search view model into the search page's HTML.
package render

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/navigation"
	"price-tracker-web/internal/viewmodel"
)

const SearchTemplate = "search"

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"num": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
}

// Templates parses the embedded page templates. It panics on a malformed
// template, which can only happen at build time.
func Templates() *template.Template {
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Page is everything the search template reads.
type Page struct {
	SearchPath string
	Filters    models.SearchFilters
	Failed     bool
	Reason     string
	ViewModel  *viewmodel.ViewModel
}

// NewPage adapts a navigation state to the template's input.
func NewPage(searchPath string, filters models.SearchFilters, st navigation.State) Page {
	return Page{
		SearchPath: searchPath,
		Filters:    filters,
		Failed:     st.Status == navigation.StatusFailed,
		Reason:     st.Reason,
		ViewModel:  st.ViewModel,
	}
}

// Render writes the search page for p to w.
func Render(w io.Writer, tmpl *template.Template, p Page) error {
	return tmpl.ExecuteTemplate(w, SearchTemplate, p)
}

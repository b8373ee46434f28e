package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/photogallery/server/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page templates
const (
	pageHome                  = "home.html"
	pageCollection            = "collection.html"
	pagePhoto                 = "photo.html"
	pageError                 = "error.html"
	pageAdminIndex            = "admin_index.html"
	pageAdminCollectionPhotos = "admin_collection_photos.html"
)

var templateFuncs = template.FuncMap{
	"price": func(p *decimal.Decimal) string {
		if p == nil {
			return ""
		}
		return "$" + p.String()
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("January 2, 2006")
	},
	"plural": func(n int, singular, plural string) string {
		if n == 1 {
			return singular
		}
		return plural
	},
}

// Templates holds one parsed template set per page, each sharing the layout and partials
type Templates struct {
	pages map[string]*template.Template
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*Templates, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := []string{pageHome, pageCollection, pagePhoto, pageError, pageAdminIndex, pageAdminCollectionPhotos}
	t := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+page); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		t.pages[page] = clone
	}
	return t, nil
}

// MustLoadTemplates is LoadTemplates for static embedded content
func MustLoadTemplates() *Templates {
	t, err := LoadTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// render executes a page into a buffer first so a template failure can still become a 500
func (t *Templates) render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{}) {
	tmpl, ok := t.pages[page]
	if !ok {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		observability.WithContext(r.Context()).WithError(err).Errorf("Failed to render %s", page)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type errorPage struct {
	Title   string
	Message string
}

func (t *Templates) renderNotFound(w http.ResponseWriter, r *http.Request, message string) {
	t.render(w, r, http.StatusNotFound, pageError, errorPage{Title: "Not found", Message: message})
}

func (t *Templates) renderUnavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "30")
	t.render(w, r, http.StatusServiceUnavailable, pageError, errorPage{
		Title:   "Temporarily unavailable",
		Message: "The gallery could not be loaded right now. Please try again in a moment.",
	})
}

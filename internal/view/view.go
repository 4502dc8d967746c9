// Package view owns the HTML pages: the search form and the results list.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/you/go-flight-finder/internal/service"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageIndex   = "index.html"
	PageFlights = "flights.html"
)

type SearchForm struct {
	From       string
	To         string
	Date       string
	Passengers string
}

type FlightsPage struct {
	Form             SearchForm
	Flights          []service.DisplayFlight
	NamesUnavailable bool
}

var funcs = template.FuncMap{
	"money": FormatMoney,
}

// FormatMoney renders a price like "1,234.50 EUR".
func FormatMoney(amount float64, currency string) string {
	s := humanize.FormatFloat("#,###.##", amount)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{PageIndex, PageFlights} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

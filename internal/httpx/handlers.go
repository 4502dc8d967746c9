package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/you/go-flight-finder/internal/providers"
	"github.com/you/go-flight-finder/internal/service"
	"github.com/you/go-flight-finder/internal/view"
)

type searcher interface {
	Search(ctx context.Context, q providers.SearchQuery) (service.SearchResult, error)
}

type renderer interface {
	Render(w io.Writer, page string, data any) error
}

func IndexHandler(rnd renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, rnd, view.PageIndex, nil)
	}
}

// FlightsHandler answers GET /flights?from=&to=&date=&passengers=. The query
// is not validated here: whatever the provider rejects, and any other
// pipeline failure, becomes a plain 500. Partial results are never shown.
func FlightsHandler(svc searcher, rnd renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := providers.SearchQuery{
			Origin:      strings.ToUpper(strings.TrimSpace(q.Get("from"))),
			Destination: strings.ToUpper(strings.TrimSpace(q.Get("to"))),
			Date:        strings.TrimSpace(q.Get("date")),
			Passengers:  q.Get("passengers"),
		}

		res, err := svc.Search(r.Context(), query)
		if err != nil {
			slog.ErrorContext(r.Context(), "error fetching flights",
				"request_id", RequestID(r.Context()), "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		render(w, r, rnd, view.PageFlights, view.FlightsPage{
			Form: view.SearchForm{
				From:       query.Origin,
				To:         query.Destination,
				Date:       query.Date,
				Passengers: query.Passengers,
			},
			Flights:          res.Flights,
			NamesUnavailable: res.AirlineLookup.Failed(),
		})
	}
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func render(w http.ResponseWriter, r *http.Request, rnd renderer, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rnd.Render(w, page, data); err != nil {
		slog.ErrorContext(r.Context(), "render failed",
			"request_id", RequestID(r.Context()), "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

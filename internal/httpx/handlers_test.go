package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/go-flight-finder/internal/config"
	"github.com/you/go-flight-finder/internal/providers"
	"github.com/you/go-flight-finder/internal/service"
	"github.com/you/go-flight-finder/internal/view"
)

type searchFunc func(ctx context.Context, q providers.SearchQuery) (service.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, q providers.SearchQuery) (service.SearchResult, error) {
	return f(ctx, q)
}

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer, string, any) error { return errors.New("template exploded") }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(t *testing.T, svc searcher) http.Handler {
	t.Helper()
	rnd, err := view.NewRenderer()
	require.NoError(t, err)
	return NewRouter(svc, rnd, RouterConfig{Logger: quietLogger})
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestRouter(t, searchFunc(func(context.Context, providers.SearchQuery) (service.SearchResult, error) {
		t.Fatal("search must not run for the index page")
		return service.SearchResult{}, nil
	}))

	rec := do(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), `action="/flights"`)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestFlights_Success(t *testing.T) {
	var got providers.SearchQuery
	h := newTestRouter(t, searchFunc(func(_ context.Context, q providers.SearchQuery) (service.SearchResult, error) {
		got = q
		return service.SearchResult{Query: q, Flights: []service.DisplayFlight{{
			ID: "7", Airline: "IBERIA", AirlineCode: "IB", FlightNo: "IB 3170",
			DepTime: "06:45", From: "MAD", ArrTime: "09:50", To: "BER",
			Stops: "Non-stop", Price: 89.99, Currency: "EUR",
		}}}, nil
	}))

	rec := do(h, http.MethodGet, "/flights?from=mad&to=ber&date=2025-10-01&passengers=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, providers.SearchQuery{Origin: "MAD", Destination: "BER", Date: "2025-10-01", Passengers: "3"}, got)
	body := rec.Body.String()
	assert.Contains(t, body, "IBERIA")
	assert.Contains(t, body, "IB 3170")
	assert.Contains(t, body, "89.99 EUR")
	assert.NotContains(t, body, "Airline names are unavailable")
}

func TestFlights_PassengersForwardedAsGiven(t *testing.T) {
	var got []string
	h := newTestRouter(t, searchFunc(func(_ context.Context, q providers.SearchQuery) (service.SearchResult, error) {
		got = append(got, q.Passengers)
		return service.SearchResult{}, nil
	}))

	for _, target := range []string{
		"/flights?from=MAD&to=BER&date=2025-10-01",
		"/flights?from=MAD&to=BER&date=2025-10-01&passengers=0",
		"/flights?from=MAD&to=BER&date=2025-10-01&passengers=-2",
		"/flights?from=MAD&to=BER&date=2025-10-01&passengers=zero",
	} {
		require.Equal(t, http.StatusOK, do(h, http.MethodGet, target).Code, target)
	}
	require.Equal(t, []string{"", "0", "-2", "zero"}, got)
}

// Passenger counts the provider refuses surface as a plain 500 once the
// offers call has been made.
func TestFlights_PassengersRejectedUpstreamIs500(t *testing.T) {
	var (
		mu     sync.Mutex
		adults []string
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			_, _ = io.WriteString(w, `{"access_token":"tok","expires_in":1799}`)
		case "/v2/shopping/flight-offers":
			mu.Lock()
			adults = append(adults, r.URL.Query().Get("adults"))
			mu.Unlock()
			http.Error(w, `{"errors":[{"status":400,"code":477,"title":"INVALID FORMAT"}]}`, http.StatusBadRequest)
		}
	}))
	defer upstream.Close()

	cfg := &config.Config{
		AmadeusURL:  upstream.URL,
		Credentials: config.Credentials{ClientID: "id", ClientSecret: "secret"},
	}
	amadeus := providers.NewAmadeus(cfg, upstream.Client(), quietLogger)
	h := newTestRouter(t, service.NewSearchService(amadeus, service.Formatter{}, quietLogger))

	for _, v := range []string{"0", "-2", "zero"} {
		rec := do(h, http.MethodGet, "/flights?from=MAD&to=BER&date=2025-10-01&passengers="+v)
		require.Equal(t, http.StatusInternalServerError, rec.Code, v)
		require.Equal(t, "Internal Server Error", strings.TrimSpace(rec.Body.String()))
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"0", "-2", "zero"}, adults)
}

func TestFlights_UpstreamFailureIs500(t *testing.T) {
	errs := []error{
		&service.StageError{Stage: service.StageToken, Err: fmt.Errorf("%w: 401", providers.ErrUpstreamAuth)},
		&service.StageError{Stage: service.StageOffers, Err: fmt.Errorf("%w: 502", providers.ErrUpstreamSearch)},
	}
	for _, e := range errs {
		h := newTestRouter(t, searchFunc(func(context.Context, providers.SearchQuery) (service.SearchResult, error) {
			return service.SearchResult{}, e
		}))

		rec := do(h, http.MethodGet, "/flights?from=MAD&to=BER&date=2025-10-01")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		require.Equal(t, "Internal Server Error", strings.TrimSpace(rec.Body.String()))
	}
}

func TestFlights_NamesUnavailableNotice(t *testing.T) {
	h := newTestRouter(t, searchFunc(func(context.Context, providers.SearchQuery) (service.SearchResult, error) {
		return service.SearchResult{
			Flights:       []service.DisplayFlight{{ID: "1", Airline: "LH", AirlineCode: "LH", Stops: "Non-stop"}},
			AirlineLookup: providers.AirlineLookup{Names: providers.AirlineNameMap{}, Err: errors.New("down")},
		}, nil
	}))

	rec := do(h, http.MethodGet, "/flights?from=MAD&to=BER&date=2025-10-01")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Airline names are unavailable")
}

func TestFlights_RenderFailureIs500(t *testing.T) {
	h := FlightsHandler(searchFunc(func(context.Context, providers.SearchQuery) (service.SearchResult, error) {
		return service.SearchResult{}, nil
	}), failingRenderer{})

	rec := do(h, http.MethodGet, "/flights?from=MAD&to=BER&date=2025-10-01")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_MethodsAndPaths(t *testing.T) {
	h := newTestRouter(t, searchFunc(func(context.Context, providers.SearchQuery) (service.SearchResult, error) {
		return service.SearchResult{}, nil
	}))

	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/nope").Code)
	require.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/flights").Code)

	rec := do(h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestAccessLog_KeepsIncomingRequestID(t *testing.T) {
	var seen string
	h := AccessLog(quietLogger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// A rejected credential exchange must end in a 500 without ever reaching
// the flight-offers endpoint.
func TestFlights_TokenRejectedEndToEnd(t *testing.T) {
	var offerCalls, airlineCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		case "/v2/shopping/flight-offers":
			atomic.AddInt32(&offerCalls, 1)
		case "/v1/reference-data/airlines":
			atomic.AddInt32(&airlineCalls, 1)
		}
	}))
	defer upstream.Close()

	cfg := &config.Config{
		AmadeusURL:  upstream.URL,
		Credentials: config.Credentials{ClientID: "id", ClientSecret: "wrong"},
	}
	amadeus := providers.NewAmadeus(cfg, upstream.Client(), quietLogger)
	svc := service.NewSearchService(amadeus, service.Formatter{}, quietLogger)

	rec := do(newTestRouter(t, svc), http.MethodGet, "/flights?from=MAD&to=BER&date=2025-10-01&passengers=1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Zero(t, atomic.LoadInt32(&offerCalls))
	require.Zero(t, atomic.LoadInt32(&airlineCalls))
}

func TestFlights_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			_, _ = io.WriteString(w, `{"access_token":"tok","expires_in":1799}`)
		case "/v2/shopping/flight-offers":
			_, _ = io.WriteString(w, `{"data":[{"id":"1","validatingAirlineCodes":["LH"],
				"price":{"currency":"EUR","total":"412.30"},
				"itineraries":[{"duration":"PT2H30M","segments":[{"carrierCode":"LH","number":"1234",
				"departure":{"iataCode":"MAD","at":"2025-10-01T07:10:00"},
				"arrival":{"iataCode":"FRA","at":"2025-10-01T09:40:00"}}]}]}]}`)
		case "/v1/reference-data/airlines":
			http.Error(w, "down", http.StatusBadGateway)
		}
	}))
	defer upstream.Close()

	cfg := &config.Config{
		AmadeusURL:  upstream.URL,
		Credentials: config.Credentials{ClientID: "id", ClientSecret: "secret"},
	}
	amadeus := providers.NewAmadeus(cfg, upstream.Client(), quietLogger)
	svc := service.NewSearchService(amadeus, service.Formatter{}, quietLogger)

	rec := do(newTestRouter(t, svc), http.MethodGet, "/flights?from=MAD&to=FRA&date=2025-10-01")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "LH 1234")
	assert.Contains(t, body, "Non-stop")
	assert.Contains(t, body, "2h 30m")
	assert.Contains(t, body, "412.30 EUR")
	assert.Contains(t, body, "Airline names are unavailable")
}

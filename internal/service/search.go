package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/you/go-flight-finder/internal/providers"
)

// Stage names one step of the search pipeline.
type Stage string

const (
	StageToken    Stage = "token"
	StageOffers   Stage = "offers"
	StageAirlines Stage = "airlines"
	StageFormat   Stage = "format"
)

// StageError is a fatal pipeline failure. It unwraps to the provider error
// (providers.ErrUpstreamAuth, providers.ErrUpstreamSearch).
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("search %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type SearchResult struct {
	Query         providers.SearchQuery   `json:"query"`
	Flights       []DisplayFlight         `json:"flights"`
	AirlineLookup providers.AirlineLookup `json:"-"`
	Skipped       int                     `json:"skipped"`
}

// SearchService runs token -> offers -> airline names -> format, strictly
// in that order. It holds no per-request state.
type SearchService struct {
	provider  providers.FlightProvider
	formatter Formatter
	logger    *slog.Logger
}

func NewSearchService(prov providers.FlightProvider, formatter Formatter, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		provider:  prov,
		formatter: formatter,
		logger:    logger,
	}
}

func (s *SearchService) Search(ctx context.Context, q providers.SearchQuery) (SearchResult, error) {
	start := time.Now()

	tok, err := s.stageToken(ctx)
	if err != nil {
		return SearchResult{}, err
	}

	offers, err := s.stageOffers(ctx, tok, q)
	if err != nil {
		return SearchResult{}, err
	}

	lookup := s.stageAirlines(ctx, tok, offers)
	flights := s.stageFormat(offers, lookup.Names)

	s.logger.InfoContext(ctx, "search completed",
		"provider", s.provider.Name(),
		"origin", q.Origin,
		"destination", q.Destination,
		"date", q.Date,
		"offers", len(offers),
		"flights", len(flights),
		"airline_lookup_failed", lookup.Failed(),
		"elapsed", time.Since(start))

	return SearchResult{
		Query:         q,
		Flights:       flights,
		AirlineLookup: lookup,
		Skipped:       len(offers) - len(flights),
	}, nil
}

func (s *SearchService) stageToken(ctx context.Context) (providers.AccessToken, error) {
	tok, err := s.provider.Token(ctx)
	if err != nil {
		return providers.AccessToken{}, &StageError{Stage: StageToken, Err: err}
	}
	return tok, nil
}

func (s *SearchService) stageOffers(ctx context.Context, tok providers.AccessToken, q providers.SearchQuery) ([]providers.RawOffer, error) {
	offers, err := s.provider.SearchOffers(ctx, tok, q)
	if err != nil {
		return nil, &StageError{Stage: StageOffers, Err: err}
	}
	return offers, nil
}

// stageAirlines is best effort; a failed lookup yields an empty map.
func (s *SearchService) stageAirlines(ctx context.Context, tok providers.AccessToken, offers []providers.RawOffer) providers.AirlineLookup {
	lookup := s.provider.AirlineNames(ctx, tok, airlineCodes(offers))
	if lookup.Names == nil {
		lookup.Names = providers.AirlineNameMap{}
	}
	if lookup.Failed() {
		s.logger.WarnContext(ctx, "airline names unavailable, falling back to codes",
			"stage", StageAirlines, "error", lookup.Err)
	}
	return lookup
}

func (s *SearchService) stageFormat(offers []providers.RawOffer, names providers.AirlineNameMap) []DisplayFlight {
	flights := s.formatter.Format(offers, names)
	if skipped := len(offers) - len(flights); skipped > 0 {
		s.logger.Warn("skipped malformed offers", "stage", StageFormat, "count", skipped)
	}
	return flights
}

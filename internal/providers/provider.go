package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUpstreamAuth   = errors.New("upstream auth failed")
	ErrUpstreamSearch = errors.New("upstream search failed")
)

// AirlineLookupError records why an airline reference lookup produced no
// names. It never fails a search.
type AirlineLookupError struct {
	Codes []string
	Err   error
}

func (e *AirlineLookupError) Error() string {
	return fmt.Sprintf("airline lookup %s: %v", strings.Join(e.Codes, ","), e.Err)
}

func (e *AirlineLookupError) Unwrap() error { return e.Err }

type AccessToken struct {
	Value     string
	ExpiresIn time.Duration
}

// SearchQuery is forwarded as given; the provider is the only validator.
type SearchQuery struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"` // YYYY-MM-DD
	Passengers  string `json:"passengers"`
}

type AirlineNameMap map[string]string

// AirlineLookup is the result of resolving airline names. A failed lookup
// carries an empty map and the reason in Err, so "no matches" and "lookup
// failed" stay distinguishable.
type AirlineLookup struct {
	Names AirlineNameMap
	Err   error
}

func (l AirlineLookup) Failed() bool { return l.Err != nil }

type RawOffer struct {
	ID                     string      `json:"id"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
	Price                  OfferPrice  `json:"price"`
	Itineraries            []Itinerary `json:"itineraries"`
}

type OfferPrice struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

type Itinerary struct {
	Duration string    `json:"duration"` // ISO8601 e.g. PT2H10M
	Segments []Segment `json:"segments"`
}

type Segment struct {
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

// PrimaryAirline returns the first validating airline code, or "" if the
// offer has none.
func (o RawOffer) PrimaryAirline() string {
	if len(o.ValidatingAirlineCodes) == 0 {
		return ""
	}
	return o.ValidatingAirlineCodes[0]
}

func (it Itinerary) DurationMinutes() int {
	return parseISODurationMinutes(it.Duration)
}

// Time parses the endpoint instant. Amadeus returns airport-local time
// without an offset, so the wall clock is kept as-is.
func (e Endpoint) Time() (time.Time, error) {
	return parseAmadeusTime(e.At)
}

type FlightProvider interface {
	Name() string
	Token(ctx context.Context) (AccessToken, error)
	SearchOffers(ctx context.Context, tok AccessToken, q SearchQuery) ([]RawOffer, error)
	AirlineNames(ctx context.Context, tok AccessToken, codes []string) AirlineLookup
}

func parseISODurationMinutes(s string) int {
	// very small parser for formats like PT2H10M, PT150M, P1DT2H
	s = strings.TrimPrefix(s, "P")
	total := 0
	var num strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num.WriteRune(r)
			continue
		}
		v, _ := strconv.Atoi(num.String())
		num.Reset()
		switch r {
		case 'D':
			total += v * 24 * 60
		case 'H':
			total += v * 60
		case 'M':
			total += v
		}
	}
	return total
}

func parseAmadeusTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return t, nil
	}
	// Fallbacks if they ever include zone
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}

package service

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/you/go-flight-finder/internal/providers"
)

const (
	clockLayout        = "15:04"
	defaultLogoBaseURL = "https://placehold.co/40x40/333/fff"
)

// DisplayFlight is the view model for one offer.
type DisplayFlight struct {
	ID          string  `json:"id"`
	Airline     string  `json:"airline"`
	AirlineCode string  `json:"airline_code"`
	FlightNo    string  `json:"flight_no"`
	DepTime     string  `json:"dep_time"` // 24-hour "15:04" airport-local wall clock, no locale applied
	From        string  `json:"from"`
	ArrTime     string  `json:"arr_time"`
	To          string  `json:"to"`
	Duration    string  `json:"duration"`
	Stops       string  `json:"stops"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Logo        string  `json:"logo"`
}

type Formatter struct {
	LogoBaseURL string
}

// Format turns raw offers into display records. It is pure: the same
// offers and names always give the same output. Offers without an
// itinerary, a segment, a parseable price or parseable times are skipped.
func (f Formatter) Format(offers []providers.RawOffer, names providers.AirlineNameMap) []DisplayFlight {
	out := make([]DisplayFlight, 0, len(offers))
	for _, o := range offers {
		df, ok := f.formatOffer(o, names)
		if !ok {
			continue
		}
		out = append(out, df)
	}
	return out
}

func (f Formatter) formatOffer(o providers.RawOffer, names providers.AirlineNameMap) (DisplayFlight, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return DisplayFlight{}, false
	}
	itin := o.Itineraries[0]
	segFirst := itin.Segments[0]
	segLast := itin.Segments[len(itin.Segments)-1]

	depart, err := segFirst.Departure.Time()
	if err != nil {
		return DisplayFlight{}, false
	}
	arrive, err := segLast.Arrival.Time()
	if err != nil {
		return DisplayFlight{}, false
	}
	price, err := strconv.ParseFloat(o.Price.Total, 64)
	if err != nil {
		return DisplayFlight{}, false
	}

	code := airlineCode(o)
	name, ok := names[code]
	if !ok || name == "" {
		name = code
	}

	return DisplayFlight{
		ID:          o.ID,
		Airline:     name,
		AirlineCode: code,
		FlightNo:    segFirst.CarrierCode + " " + segFirst.Number,
		DepTime:     depart.Format(clockLayout),
		From:        segFirst.Departure.IATACode,
		ArrTime:     arrive.Format(clockLayout),
		To:          segLast.Arrival.IATACode,
		Duration:    formatDuration(itin.DurationMinutes()),
		Stops:       stopLabel(len(itin.Segments)),
		Price:       price,
		Currency:    o.Price.Currency,
		Logo:        f.logoURL(code),
	}, true
}

func (f Formatter) logoURL(code string) string {
	base := f.LogoBaseURL
	if base == "" {
		base = defaultLogoBaseURL
	}
	return base + "?text=" + url.QueryEscape(code)
}

func stopLabel(segments int) string {
	if segments <= 1 {
		return "Non-stop"
	}
	return fmt.Sprintf("%d Stop(s)", segments-1)
}

func formatDuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// airlineCode is the validating airline, or the first segment's carrier
// when the offer names none.
func airlineCode(o providers.RawOffer) string {
	if code := o.PrimaryAirline(); code != "" {
		return code
	}
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return ""
	}
	return o.Itineraries[0].Segments[0].CarrierCode
}

// airlineCodes returns the distinct display airline codes in first-seen order.
func airlineCodes(offers []providers.RawOffer) []string {
	seen := make(map[string]struct{}, len(offers))
	var codes []string
	for _, o := range offers {
		code := airlineCode(o)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

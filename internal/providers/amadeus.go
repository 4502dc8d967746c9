package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/you/go-flight-finder/internal/config"
)

type Amadeus struct {
	host         string
	authPath     string
	searchPath   string
	airlinesPath string
	client       *http.Client
	creds        config.Credentials
	logger       *slog.Logger
}

func NewAmadeus(cfg *config.Config, client *http.Client, logger *slog.Logger) *Amadeus {
	if client == nil {
		client = NewHTTPClient(cfg.HTTPTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Amadeus{host: cfg.AmadeusURL,
		authPath:     "/v1/security/oauth2/token",
		searchPath:   "/v2/shopping/flight-offers",
		airlinesPath: "/v1/reference-data/airlines",
		client:       client,
		creds:        cfg.Credentials,
		logger:       logger,
	}
}

func (a *Amadeus) Name() string { return "amadeus" }

// Token exchanges the client credentials for a bearer token. Tokens are
// not cached; every search asks for a fresh one.
func (a *Amadeus) Token(ctx context.Context) (AccessToken, error) {
	if a.creds.ClientID == "" || a.creds.ClientSecret == "" {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrUpstreamAuth, config.ErrMissingCredentials)
	}
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+a.authPath, strings.NewReader(data.Encode()))
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.client.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return AccessToken{}, fmt.Errorf("%w: amadeus token: %s", ErrUpstreamAuth, statusDetail(resp))
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return AccessToken{}, fmt.Errorf("%w: decode token: %w", ErrUpstreamAuth, err)
	}
	if tr.AccessToken == "" {
		return AccessToken{}, fmt.Errorf("%w: empty access token", ErrUpstreamAuth)
	}
	return AccessToken{
		Value:     tr.AccessToken,
		ExpiresIn: time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}

// SearchOffers returns every offer the provider sends back for q, unfiltered.
func (a *Amadeus) SearchOffers(ctx context.Context, tok AccessToken, q SearchQuery) ([]RawOffer, error) {
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.Date)
	params.Set("adults", q.Passengers)
	u := a.host + a.searchPath + "?" + params.Encode()

	var payload struct {
		Data []RawOffer `json:"data"`
	}
	if err := a.getJSON(ctx, tok, u, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamSearch, err)
	}
	return payload.Data, nil
}

// AirlineNames resolves airline codes to display names, preferring the
// common name over the business name. Failures are logged and reported
// through the returned lookup; they never abort the caller.
func (a *Amadeus) AirlineNames(ctx context.Context, tok AccessToken, codes []string) AirlineLookup {
	names := AirlineNameMap{}
	if len(codes) == 0 {
		return AirlineLookup{Names: names}
	}

	params := url.Values{}
	params.Set("airlineCodes", strings.Join(codes, ","))
	u := a.host + a.airlinesPath + "?" + params.Encode()

	var payload struct {
		Data []struct {
			IATACode     string `json:"iataCode"`
			BusinessName string `json:"businessName"`
			CommonName   string `json:"commonName"`
		} `json:"data"`
	}
	if err := a.getJSON(ctx, tok, u, &payload); err != nil {
		lookupErr := &AirlineLookupError{Codes: codes, Err: err}
		a.logger.ErrorContext(ctx, "error fetching airline names", "codes", codes, "error", err)
		return AirlineLookup{Names: AirlineNameMap{}, Err: lookupErr}
	}

	for _, d := range payload.Data {
		name := d.CommonName
		if name == "" {
			name = d.BusinessName
		}
		if d.IATACode == "" || name == "" {
			continue
		}
		names[d.IATACode] = name
	}
	return AirlineLookup{Names: names}
}

func (a *Amadeus) getJSON(ctx context.Context, tok AccessToken, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	req.Header.Set("Accept", "application/vnd.amadeus+json, application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("amadeus %s: %s", req.URL.Path, statusDetail(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// statusDetail renders the status plus the first bytes of the error body.
func statusDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.Status
	}
	return resp.Status + " - " + string(bytes.TrimSpace(body))
}

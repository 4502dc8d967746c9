package service

import (
	"context"
	"errors"
	"sync"

	"github.com/you/go-flight-finder/internal/providers"
)

type ProviderMock struct {
	name      string
	token     providers.AccessToken
	tokenErr  error
	offers    []providers.RawOffer
	offersErr error
	lookup    providers.AirlineLookup

	mu    sync.Mutex
	calls []string
	codes []string
}

func (p *ProviderMock) Name() string {
	return p.name
}

func (p *ProviderMock) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *ProviderMock) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *ProviderMock) Token(ctx context.Context) (providers.AccessToken, error) {
	p.record("token")
	if p.tokenErr != nil {
		return providers.AccessToken{}, p.tokenErr
	}
	return p.token, nil
}

func (p *ProviderMock) SearchOffers(ctx context.Context, tok providers.AccessToken, q providers.SearchQuery) ([]providers.RawOffer, error) {
	p.record("offers")
	if tok != p.token {
		return nil, errors.New("unexpected token")
	}
	if p.offersErr != nil {
		return nil, p.offersErr
	}
	return p.offers, nil
}

func (p *ProviderMock) AirlineNames(ctx context.Context, tok providers.AccessToken, codes []string) providers.AirlineLookup {
	p.record("airlines")
	p.mu.Lock()
	p.codes = append([]string(nil), codes...)
	p.mu.Unlock()
	return p.lookup
}

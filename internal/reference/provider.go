package reference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/cache"
	"github.com/ppiankov/crmimport/internal/payload"
)

// Provider loads reference tables from the backend, caching them between runs
type Provider struct {
	client backend.Client
	store  cache.Store
	key    string
	ttl    time.Duration
}

// NewProvider creates a provider. backendURL scopes the cache entries.
func NewProvider(client backend.Client, store cache.Store, backendURL string, ttl time.Duration) *Provider {
	return &Provider{
		client: client,
		store:  store,
		key:    cache.Key(backendURL, "countries"),
		ttl:    ttl,
	}
}

// Countries returns the backend's country list keyed by ISO code
func (p *Provider) Countries(ctx context.Context) (Countries, error) {
	var cached Countries
	if p.store != nil && cache.GetJSON(p.store, p.key, &cached) && len(cached) > 0 {
		logrus.WithField("countries", len(cached)).Debug("country list from cache")
		return cached, nil
	}

	res, err := p.client.Find(ctx, payload.EntityCountry, payload.Payload{
		"options[limit]": 0,
		"return":         "id,iso_code",
	})
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}

	countries := make(Countries, len(res.Values))
	for _, rec := range res.Values {
		code := strings.ToUpper(strings.TrimSpace(rec.String("iso_code")))
		id, ok := rec.Int("id")
		if code == "" || !ok || id <= 0 {
			continue
		}
		countries[code] = id
	}

	if p.store != nil && len(countries) > 0 {
		if err := cache.SetJSON(p.store, p.key, countries, p.ttl); err != nil {
			logrus.WithError(err).Warn("could not cache country list")
		}
	}
	return countries, nil
}

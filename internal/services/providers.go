package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// Providers bundles the clients configured for a run.
type Providers struct {
	Catalog   *DiscogsService
	Enrichers []Enricher
}

// NewProviders builds the catalog client and the enrichers listed in merge.provider_order.
//
// Each provider gets its own [Caller] so pacing is per upstream. An enricher without
// credentials is left out with a warning.
func NewProviders(cfg *shared.Config, client *http.Client, clock shared.Clock, logger *log.Logger) (*Providers, error) {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	policy := DefaultRetryPolicy(cfg.Sync)
	newCaller := func(name string) *Caller {
		return NewCaller(name, cfg.Sync.Delay(), policy, clock, logger)
	}

	catalog, err := NewDiscogsService(cfg.Credentials.Discogs, client, newCaller(models.ProviderDiscogs))
	if err != nil {
		return nil, err
	}

	p := &Providers{Catalog: catalog}
	denylist := cfg.Sync.Denylist

	for _, name := range cfg.Merge.ProviderOrder {
		var (
			e   Enricher
			err error
		)
		switch name {
		case models.ProviderAppleMusic:
			e, err = NewAppleMusicService(cfg.Credentials.AppleMusic, denylist, client, newCaller(name), clock)
		case models.ProviderSpotify:
			e, err = NewSpotifyService(cfg.Credentials.Spotify, denylist, client, newCaller(name))
		case models.ProviderWikipedia:
			e, err = NewWikipediaService(cfg.Credentials.Wikipedia, denylist, client, newCaller(name))
		default:
			return nil, fmt.Errorf("%w: unknown provider %q in merge.provider_order", shared.ErrInvalidConfig, name)
		}

		if errors.Is(err, shared.ErrMissingCredentials) || errors.Is(err, shared.ErrMissingConfig) {
			logger.Warn("enrichment provider disabled", "provider", name, "reason", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s: %w", name, err)
		}
		p.Enrichers = append(p.Enrichers, e)
	}

	return p, nil
}

// Names lists the enabled enrichers in lookup order.
func (p *Providers) Names() []string {
	names := make([]string, len(p.Enrichers))
	for i, e := range p.Enrichers {
		names[i] = e.Name()
	}
	return names
}

// Package merge folds enrichment blocks into canonical records.
//
// Rules, in order:
//  1. Catalog fields (title, artist, tracks, formats, ...) are never overwritten.
//  2. Narrative text present in several sources is decided by the [Policy] (longest by default).
//  3. Empty image and URL fields are filled by the first provider, in priority order, that has one.
//  4. Every block is kept verbatim under its provider namespace.
package merge

import (
	"maps"
	"slices"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// Narrative rules.
const (
	NarrativeLongest  = "longest"
	NarrativePriority = "priority"
)

// Policy holds the configurable parts of the merge.
type Policy struct {
	// Narrative is [NarrativeLongest] or [NarrativePriority].
	Narrative string
	// ProviderOrder ranks enrichment providers after the catalog.
	ProviderOrder []string
}

// NewPolicy builds a policy from the [merge] configuration.
func NewPolicy(cfg shared.MergeConfig) Policy {
	return Policy{Narrative: cfg.Narrative, ProviderOrder: cfg.ProviderOrder}
}

// Release returns a new record; primary and blocks are not modified.
func (p Policy) Release(primary *models.Release, blocks []models.EnrichmentBlock) *models.Release {
	out := *primary
	out.Enrichments = maps.Clone(primary.Enrichments)
	if out.Enrichments == nil {
		out.Enrichments = map[string]models.EnrichmentBlock{}
	}

	ordered := p.order(blocks)

	out.Notes = p.narrative(primary.Notes, ordered)

	if isEmptyImage(out.CoverURL) {
		if img := firstPresent(ordered, func(b models.EnrichmentBlock) string { return b.ImageURL }); img != "" {
			out.CoverURL = img
		}
	}
	if out.ReleaseURL == "" {
		out.ReleaseURL = firstPresent(ordered, func(b models.EnrichmentBlock) string { return b.URL })
	}

	for _, b := range ordered {
		out.Enrichments[b.Provider] = b
	}
	return &out
}

// Contributor returns a new contributor record with enrichment fields resolved.
//
// Profile competes with the provider texts under rule 2; ExternalBio is the best provider text alone.
func (p Policy) Contributor(primary *models.Contributor, blocks []models.EnrichmentBlock) *models.Contributor {
	out := *primary
	out.Enrichments = maps.Clone(primary.Enrichments)
	if out.Enrichments == nil {
		out.Enrichments = map[string]models.EnrichmentBlock{}
	}

	ordered := p.order(blocks)

	out.Profile = p.narrative(primary.Profile, ordered)
	if bio := p.narrative("", ordered); bio != "" || out.ExternalBio == "" {
		out.ExternalBio = bio
	}
	if out.ExternalImageURL == "" {
		out.ExternalImageURL = firstPresent(ordered, func(b models.EnrichmentBlock) string { return b.ImageURL })
	}
	if out.ExternalURL == "" {
		out.ExternalURL = firstPresent(ordered, func(b models.EnrichmentBlock) string { return b.URL })
	}

	for _, b := range ordered {
		out.Enrichments[b.Provider] = b
	}
	return &out
}

// order sorts blocks by provider priority. Unknown providers go last, keeping their input order.
func (p Policy) order(blocks []models.EnrichmentBlock) []models.EnrichmentBlock {
	rank := func(provider string) int {
		if i := slices.Index(p.ProviderOrder, provider); i >= 0 {
			return i
		}
		return len(p.ProviderOrder)
	}
	ordered := slices.Clone(blocks)
	slices.SortStableFunc(ordered, func(a, b models.EnrichmentBlock) int {
		return rank(a.Provider) - rank(b.Provider)
	})
	return ordered
}

// narrative picks the winning text among the catalog text and the ordered blocks.
func (p Policy) narrative(catalog string, ordered []models.EnrichmentBlock) string {
	candidates := make([]string, 0, len(ordered)+1)
	candidates = append(candidates, catalog)
	for _, b := range ordered {
		candidates = append(candidates, b.Text)
	}

	winner := ""
	switch p.Narrative {
	case NarrativePriority:
		for _, c := range candidates {
			if shared.NormalizedLength(c) > 0 {
				winner = c
				break
			}
		}
	default:
		best := 0
		for _, c := range candidates {
			if n := shared.NormalizedLength(c); n > best {
				winner, best = c, n
			}
		}
	}
	return shared.TidyText(winner)
}

func firstPresent(ordered []models.EnrichmentBlock, field func(models.EnrichmentBlock) string) string {
	for _, b := range ordered {
		if v := field(b); v != "" {
			return v
		}
	}
	return ""
}

// isEmptyImage treats the missing-cover sentinel as no image.
func isEmptyImage(url string) bool {
	return url == "" || url == models.MissingCoverURL
}

package services

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// Catalog is the primary provider: it owns collection membership and the authoritative fields.
type Catalog interface {
	// Count returns the current size of the collection.
	Count(ctx context.Context) (int, error)

	// Page returns one page of the collection walk with positions filled in (1-based).
	Page(ctx context.Context, page, perPage int) ([]models.CollectionItem, error)

	// Release resolves the raw payload for a release id.
	Release(ctx context.Context, id int64) (*DiscogsRelease, error)

	// Artist resolves the raw payload for an artist id.
	Artist(ctx context.Context, id int64) (*DiscogsArtist, error)
}

// Enricher is a secondary provider. It contributes attributes, never membership.
type Enricher interface {
	// Name is the provider namespace, e.g. "apple_music".
	Name() string

	// SearchAlbum looks up a release by artist and title.
	// Returns [shared.ErrNotFound] when no candidate survives ranking.
	SearchAlbum(ctx context.Context, artist, title string) (ProviderResult, error)

	// SearchArtist looks up a contributor by name.
	SearchArtist(ctx context.Context, name string) (ProviderResult, error)
}

// ProviderResult is the tagged result of an enrichment lookup. The concrete types are
// [AppleMusicAlbum], [AppleMusicArtist], [SpotifyAlbum], [SpotifyArtist] and [WikipediaSummary].
type ProviderResult interface {
	Provider() string
}

// BestMatch picks the candidate name closest to query.
//
// Names containing a denylisted marker are dropped first, unless the query carries the same
// marker. A case-insensitive exact match beats any similarity score, and among the rest the
// highest Levenshtein similarity wins, earliest candidate first on ties.
//
// Returns -1 when nothing is left to rank.
func BestMatch(query string, names []string, denylist []string) int {
	q := strings.ToLower(strings.TrimSpace(query))

	var allowed []string
	for _, d := range denylist {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && !strings.Contains(q, d) {
			allowed = append(allowed, d)
		}
	}

	best, bestScore := -1, -1.0
	for i, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" || shared.ContainsFold(n, allowed) {
			continue
		}
		if n == q {
			return i
		}
		if score := Similarity(q, n); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Similarity is 1 minus the normalised Levenshtein distance between a and b, in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

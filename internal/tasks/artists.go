package tasks

import "github.com/desertthunder/crates/internal/models"

// ArtistIndex remembers which contributor ids a run has already resolved.
//
// Only the first occurrence of an id fetches and enriches the contributor. Later releases by the
// same artist reuse the stored value, which is nil when the first attempt degraded.
type ArtistIndex struct {
	seen    map[int64]*models.Contributor
	emitted map[int64]bool
}

func NewArtistIndex() *ArtistIndex {
	return &ArtistIndex{seen: make(map[int64]*models.Contributor), emitted: make(map[int64]bool)}
}

// Lookup returns the contributor resolved earlier in the run and whether the id was seen at all.
func (x *ArtistIndex) Lookup(id int64) (*models.Contributor, bool) {
	c, ok := x.seen[id]
	return c, ok
}

// Remember records the outcome for id. A nil contributor marks a degraded lookup.
func (x *ArtistIndex) Remember(id int64, c *models.Contributor) {
	x.seen[id] = c
}

// Len is the number of distinct contributor ids met.
func (x *ArtistIndex) Len() int { return len(x.seen) }

// FirstHandoff reports whether id has not been handed to the emitter yet in this run, and marks it.
func (x *ArtistIndex) FirstHandoff(id int64) bool {
	if x.emitted[id] {
		return false
	}
	x.emitted[id] = true
	return true
}

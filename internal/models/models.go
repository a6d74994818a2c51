package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/shared"
)

// MissingCoverURL replaces the cover image of releases the catalog lists without images.
const MissingCoverURL = "https://github.com/russmckendrick/records/raw/b00f1d9fc0a67b391bde0b0fa93284c8e64d3dfe/assets/images/missing.jpg"

// Provider names double as enrichment namespaces.
const (
	ProviderDiscogs    = "discogs"
	ProviderAppleMusic = "apple_music"
	ProviderSpotify    = "spotify"
	ProviderWikipedia  = "wikipedia"
)

// CollectionItem is one position of the remote collection walk.
type CollectionItem struct {
	ReleaseID   int64  `json:"release_id"`
	InstanceID  int64  `json:"instance_id"`
	Position    int    `json:"position"` // 1-based, in walk order
	DateAdded   string `json:"date_added"`
	Rating      int    `json:"rating"`
	ResourceURL string `json:"resource_url"`
}

// Format is a physical format descriptor, e.g. "Vinyl, LP, Album".
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Text         string   `json:"text"`
	Descriptions []string `json:"descriptions"`
}

// Track is one entry of a release track list.
type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Video is a catalog-linked video.
type Video struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Credit is an extra artist credited on a release.
type Credit struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// EnrichmentBlock holds what one secondary provider knows about a release or contributor.
//
// Every field is always present. Absent values are empty strings, never omitted keys.
type EnrichmentBlock struct {
	Provider   string            `json:"provider"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	ImageURL   string            `json:"image_url"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}

// IsZero reports whether the block carries no information at all.
func (b EnrichmentBlock) IsZero() bool {
	if b.Name != "" || b.URL != "" || b.ImageURL != "" || b.Text != "" {
		return false
	}
	for _, v := range b.Attributes {
		if v != "" {
			return false
		}
	}
	return true
}

// Release is the canonical record persisted for one catalog release.
//
// Catalog fields (title, artist, tracks, formats) are authoritative. Enrichments only fill
// empty image and URL fields, compete for Notes, and are otherwise kept under their namespace.
type Release struct {
	ReleaseID     int64                      `json:"release_id"`
	Slug          string                     `json:"slug"`
	Title         string                     `json:"title"`
	ArtistName    string                     `json:"artist_name"`
	ArtistID      int64                      `json:"artist_id"`
	DateAdded     string                     `json:"date_added"`
	Genres        []string                   `json:"genres"`
	Styles        []string                   `json:"styles"`
	Label         string                     `json:"label"`
	CatalogNumber string                     `json:"catalog_number"`
	Formats       []Format                   `json:"formats"`
	ReleaseYear   int                        `json:"release_year"`
	Country       string                     `json:"country"`
	Rating        int                        `json:"rating"`
	Tracks        []Track                    `json:"tracks"`
	Images        []string                   `json:"images"`
	CoverURL      string                     `json:"cover_url"`
	Videos        []Video                    `json:"videos"`
	Credits       []Credit                   `json:"credits"`
	ReleaseURL    string                     `json:"release_url"`
	Notes         string                     `json:"notes"`
	Enrichments   map[string]EnrichmentBlock `json:"enrichments"`
	Artist        *Contributor               `json:"artist"`
}

// Validate checks the fields every stored release must carry.
func (r *Release) Validate() error {
	if r.ReleaseID <= 0 {
		return fmt.Errorf("release_id must be positive, got %d", r.ReleaseID)
	}
	if r.Title == "" {
		return fmt.Errorf("release %d: title is required", r.ReleaseID)
	}
	return nil
}

// Fill replaces nil collections with empty ones.
func (r *Release) Fill() {
	if r.Genres == nil {
		r.Genres = []string{}
	}
	if r.Styles == nil {
		r.Styles = []string{}
	}
	if r.Formats == nil {
		r.Formats = []Format{}
	}
	for i := range r.Formats {
		if r.Formats[i].Descriptions == nil {
			r.Formats[i].Descriptions = []string{}
		}
	}
	if r.Tracks == nil {
		r.Tracks = []Track{}
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Videos == nil {
		r.Videos = []Video{}
	}
	if r.Credits == nil {
		r.Credits = []Credit{}
	}
	if r.Enrichments == nil {
		r.Enrichments = map[string]EnrichmentBlock{}
	}
	if r.Artist != nil {
		r.Artist.Fill()
	}
}

// Contributor is the artist record, keyed by the catalog's artist id.
type Contributor struct {
	ID               int64                      `json:"id"`
	Name             string                     `json:"name"`
	Slug             string                     `json:"slug"`
	Profile          string                     `json:"profile"`
	Aliases          []string                   `json:"aliases"`
	Members          []string                   `json:"members"`
	Images           []string                   `json:"images"`
	URL              string                     `json:"url"`
	ExternalBio      string                     `json:"external_bio"`
	ExternalImageURL string                     `json:"external_image_url"`
	ExternalURL      string                     `json:"external_url"`
	Enrichments      map[string]EnrichmentBlock `json:"enrichments"`
}

// Validate checks the fields every stored contributor must carry.
func (c *Contributor) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("contributor id must be positive, got %d", c.ID)
	}
	if c.Name == "" {
		return fmt.Errorf("contributor %d: name is required", c.ID)
	}
	return nil
}

// ContributorSlug slugifies name. Names with no Latin letters or digits fall back to "artist-<id>".
func ContributorSlug(id int64, name string) string {
	if slug := shared.Slugify(name); slug != "" {
		return slug
	}
	return fmt.Sprintf("artist-%d", id)
}

// Fill replaces nil collections with empty ones and derives a missing slug.
func (c *Contributor) Fill() {
	if c.Slug == "" && c.ID > 0 {
		c.Slug = ContributorSlug(c.ID, c.Name)
	}
	if c.Aliases == nil {
		c.Aliases = []string{}
	}
	if c.Members == nil {
		c.Members = []string{}
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.Enrichments == nil {
		c.Enrichments = map[string]EnrichmentBlock{}
	}
}

// SkipEntry is a release id excluded from processing until an operator clears it.
type SkipEntry struct {
	ReleaseID int64     `json:"release_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunPaused      RunStatus = "paused"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// SyncRun is the persisted history of one pipeline invocation.
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     RunStatus  `json:"status"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Cached     int        `json:"cached"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Checkpoint int        `json:"checkpoint"`
	Error      string     `json:"error"`
}

// Duration is the wall time of a finished run, or zero while it is still running.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

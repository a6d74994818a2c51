package normalize

import (
	"errors"
	"testing"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
)

func sampleRelease() *services.DiscogsRelease {
	return &services.DiscogsRelease{
		ID:      30,
		Title:   "Nevermind",
		Artists: []services.DiscogsArtistRef{{ID: 125246, Name: "Nirvana (2)"}},
		Year:    1991,
		Country: "US",
		Genres:  []string{"Rock"},
		Labels:  []services.DiscogsLabel{{Name: "DGC (3)", CatNo: "DGC-24425"}},
		Formats: []services.DiscogsFormat{{Name: "Vinyl", Qty: "1", Descriptions: []string{"LP", "Album"}}},
		Tracklist: []services.DiscogsTrack{
			{Type: "heading", Title: "Side A"},
			{Position: "A1", Type: "track", Title: "Smells Like Teen Spirit", Duration: "5:01"},
		},
		Images: []services.DiscogsImage{
			{Type: "secondary", URI: "back.jpg"},
			{Type: "primary", URI: "front.jpg"},
		},
		Videos:       []services.DiscogsVideo{{URI: "https://youtu.be/x", Title: "Video"}},
		ExtraArtists: []services.DiscogsArtistRef{{Name: "Butch Vig", Role: "Producer"}},
		Notes:        "[b]Remastered[/b] edition",
		URI:          "https://www.discogs.com/release/30",
	}
}

func TestRelease(t *testing.T) {
	item := models.CollectionItem{ReleaseID: 30, Position: 1, DateAdded: "2024-01-01T00:00:00-08:00", Rating: 5}

	t.Run("Maps Catalog Fields", func(t *testing.T) {
		r, err := Release(item, sampleRelease())
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}

		if r.Slug != "nevermind-30" {
			t.Errorf("expected slug nevermind-30, got %s", r.Slug)
		}
		if r.ArtistName != "Nirvana" || r.ArtistID != 125246 {
			t.Errorf("unexpected artist %s/%d", r.ArtistName, r.ArtistID)
		}
		if r.Label != "DGC" || r.CatalogNumber != "DGC-24425" {
			t.Errorf("unexpected label %s %s", r.Label, r.CatalogNumber)
		}
		if len(r.Tracks) != 1 || r.Tracks[0].Position != "A1" {
			t.Errorf("headings should be dropped, got %+v", r.Tracks)
		}
		if r.CoverURL != "front.jpg" {
			t.Errorf("expected primary image as cover, got %s", r.CoverURL)
		}
		if len(r.Images) != 2 {
			t.Errorf("expected all images kept, got %v", r.Images)
		}
		if r.Notes != "**Remastered** edition" {
			t.Errorf("notes not tidied: %q", r.Notes)
		}
		if r.Rating != 5 || r.DateAdded != item.DateAdded {
			t.Error("collection fields should come from the item")
		}
		if r.Styles == nil || r.Enrichments == nil {
			t.Error("collections must be non-nil")
		}
	})

	t.Run("Missing Cover Sentinel", func(t *testing.T) {
		raw := sampleRelease()
		raw.Images = nil
		r, err := Release(item, raw)
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}
		if r.CoverURL != models.MissingCoverURL {
			t.Errorf("expected sentinel cover, got %s", r.CoverURL)
		}
	})

	t.Run("Shape Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*services.DiscogsRelease)
		}{
			{"no title", func(r *services.DiscogsRelease) { r.Title = " " }},
			{"no artists", func(r *services.DiscogsRelease) { r.Artists = nil }},
			{"blank artist", func(r *services.DiscogsRelease) { r.Artists[0].Name = "" }},
			{"no id", func(r *services.DiscogsRelease) { r.ID = 0 }},
			{"wrong id", func(r *services.DiscogsRelease) { r.ID = 31 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				raw := sampleRelease()
				tt.mutate(raw)
				if _, err := Release(item, raw); !errors.Is(err, shared.ErrDataShape) {
					t.Errorf("expected ErrDataShape, got %v", err)
				}
			})
		}

		if _, err := Release(item, nil); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("nil payload: expected ErrDataShape, got %v", err)
		}
	})
}

func TestArtist(t *testing.T) {
	t.Run("Maps Fields", func(t *testing.T) {
		c, err := Artist(&services.DiscogsArtist{
			ID:      125246,
			Name:    "Nirvana (2)",
			Profile: "Grunge band from [i]Aberdeen[/i].",
			Members: []services.DiscogsMember{{Name: "Kurt Cobain"}, {Name: "Dave Grohl (2)"}},
			Images:  []services.DiscogsImage{{URI: "nirvana.jpg"}},
		})
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}
		if c.Name != "Nirvana" || c.Slug != "nirvana" {
			t.Errorf("unexpected name/slug %s/%s", c.Name, c.Slug)
		}
		if c.Profile != "Grunge band from *Aberdeen*." {
			t.Errorf("unexpected profile %q", c.Profile)
		}
		if len(c.Members) != 2 || c.Members[1] != "Dave Grohl" {
			t.Errorf("unexpected members %v", c.Members)
		}
		if c.Aliases == nil {
			t.Error("aliases must be non-nil")
		}
	})

	t.Run("Non Latin Name Gets Id Slug", func(t *testing.T) {
		c, err := Artist(&services.DiscogsArtist{ID: 254117, Name: "東京事変"})
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}
		if c.Name != "東京事変" || c.Slug != "artist-254117" {
			t.Errorf("unexpected name/slug %s/%s", c.Name, c.Slug)
		}
	})

	t.Run("Shape Errors", func(t *testing.T) {
		for _, raw := range []*services.DiscogsArtist{nil, {ID: 0, Name: "x"}, {ID: 1}} {
			if _, err := Artist(raw); !errors.Is(err, shared.ErrDataShape) {
				t.Errorf("expected ErrDataShape for %+v, got %v", raw, err)
			}
		}
	})
}

func TestEnrichment(t *testing.T) {
	t.Run("All Keys Present", func(t *testing.T) {
		b, err := Enrichment(services.SpotifyAlbum{Name: "Nevermind", URL: "https://open.spotify.com/album/x"})
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}
		if b.Provider != models.ProviderSpotify {
			t.Errorf("expected spotify namespace, got %s", b.Provider)
		}
		for _, key := range []string{"id", "artist_name", "release_date", "album_type", "total_tracks", "uri"} {
			if _, ok := b.Attributes[key]; !ok {
				t.Errorf("attribute %q should be present even when empty", key)
			}
		}
	})

	t.Run("Providers", func(t *testing.T) {
		results := map[string]services.ProviderResult{
			models.ProviderAppleMusic: services.AppleMusicAlbum{Name: "Nevermind", EditorialNotes: "notes"},
			models.ProviderSpotify:    services.SpotifyArtist{Name: "Nirvana", Followers: 10},
			models.ProviderWikipedia:  services.WikipediaSummary{Title: "Nirvana", Extract: "band"},
		}
		for provider, result := range results {
			b, err := Enrichment(result)
			if err != nil {
				t.Errorf("%s: %v", provider, err)
				continue
			}
			if b.Provider != provider {
				t.Errorf("expected %s, got %s", provider, b.Provider)
			}
		}
	})

	t.Run("Shape Errors", func(t *testing.T) {
		if _, err := Enrichment(nil); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("nil result: expected ErrDataShape, got %v", err)
		}
		if _, err := Enrichment(services.AppleMusicArtist{}); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("nameless result: expected ErrDataShape, got %v", err)
		}
	})
}

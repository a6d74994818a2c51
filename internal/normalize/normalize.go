// Package normalize maps provider payloads into the canonical record schema.
//
// Every function is pure. Shape problems (missing ids, titles, artist credits, unknown result
// types) are reported as [shared.ErrDataShape] so the pipeline can isolate the item instead of
// failing deep inside the merge.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
)

func shapeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrDataShape, fmt.Sprintf(format, args...))
}

// Release builds the canonical skeleton for a collection item from its catalog payload.
//
// Enrichments are empty; the artist sub-record is attached later by the pipeline.
func Release(item models.CollectionItem, raw *services.DiscogsRelease) (*models.Release, error) {
	if raw == nil {
		return nil, shapeErr("release %d: empty payload", item.ReleaseID)
	}
	if raw.ID <= 0 {
		return nil, shapeErr("release %d: payload without id", item.ReleaseID)
	}
	if item.ReleaseID > 0 && raw.ID != item.ReleaseID {
		return nil, shapeErr("release %d: payload is for release %d", item.ReleaseID, raw.ID)
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, shapeErr("release %d: missing title", raw.ID)
	}
	if len(raw.Artists) == 0 || strings.TrimSpace(raw.Artists[0].Name) == "" {
		return nil, shapeErr("release %d: missing artist credit", raw.ID)
	}

	primary := raw.Artists[0]
	r := &models.Release{
		ReleaseID:   raw.ID,
		Slug:        shared.Slugify(fmt.Sprintf("%s-%d", title, raw.ID)),
		Title:       title,
		ArtistName:  shared.SanitizeArtistName(primary.Name),
		ArtistID:    primary.ID,
		DateAdded:   item.DateAdded,
		Genres:      nonNil(raw.Genres),
		Styles:      nonNil(raw.Styles),
		ReleaseYear: raw.Year,
		Country:     raw.Country,
		Rating:      item.Rating,
		ReleaseURL:  raw.URI,
		Notes:       shared.TidyText(raw.Notes),
		Enrichments: map[string]models.EnrichmentBlock{},
	}

	if len(raw.Labels) > 0 {
		r.Label = shared.SanitizeArtistName(raw.Labels[0].Name)
		r.CatalogNumber = raw.Labels[0].CatNo
	}

	r.Formats = make([]models.Format, 0, len(raw.Formats))
	for _, f := range raw.Formats {
		r.Formats = append(r.Formats, models.Format{
			Name:         f.Name,
			Qty:          f.Qty,
			Text:         f.Text,
			Descriptions: nonNil(f.Descriptions),
		})
	}

	r.Tracks = make([]models.Track, 0, len(raw.Tracklist))
	for _, t := range raw.Tracklist {
		if t.Type == "heading" {
			continue
		}
		r.Tracks = append(r.Tracks, models.Track{Position: t.Position, Title: t.Title, Duration: t.Duration})
	}

	r.Images = make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		if img.URI != "" {
			r.Images = append(r.Images, img.URI)
		}
	}
	r.CoverURL = coverURL(raw.Images)

	r.Videos = make([]models.Video, 0, len(raw.Videos))
	for _, v := range raw.Videos {
		r.Videos = append(r.Videos, models.Video{Title: v.Title, URL: v.URI})
	}

	r.Credits = make([]models.Credit, 0, len(raw.ExtraArtists))
	for _, c := range raw.ExtraArtists {
		r.Credits = append(r.Credits, models.Credit{Name: shared.SanitizeArtistName(c.Name), Role: c.Role})
	}

	return r, nil
}

// coverURL prefers the primary image, then the first one, then the missing-cover sentinel.
func coverURL(images []services.DiscogsImage) string {
	for _, img := range images {
		if img.Type == "primary" && img.URI != "" {
			return img.URI
		}
	}
	for _, img := range images {
		if img.URI != "" {
			return img.URI
		}
	}
	return models.MissingCoverURL
}

// Artist builds a contributor from the catalog artist payload.
func Artist(raw *services.DiscogsArtist) (*models.Contributor, error) {
	if raw == nil {
		return nil, shapeErr("artist: empty payload")
	}
	if raw.ID <= 0 {
		return nil, shapeErr("artist payload without id")
	}
	name := shared.SanitizeArtistName(raw.Name)
	if name == "" {
		return nil, shapeErr("artist %d: missing name", raw.ID)
	}

	c := &models.Contributor{
		ID:          raw.ID,
		Name:        name,
		Slug:        models.ContributorSlug(raw.ID, name),
		Profile:     shared.TidyText(raw.Profile),
		URL:         raw.URI,
		Aliases:     make([]string, 0, len(raw.Aliases)),
		Members:     make([]string, 0, len(raw.Members)),
		Images:      make([]string, 0, len(raw.Images)),
		Enrichments: map[string]models.EnrichmentBlock{},
	}
	for _, a := range raw.Aliases {
		c.Aliases = append(c.Aliases, shared.SanitizeArtistName(a.Name))
	}
	for _, m := range raw.Members {
		c.Members = append(c.Members, shared.SanitizeArtistName(m.Name))
	}
	for _, img := range raw.Images {
		if img.URI != "" {
			c.Images = append(c.Images, img.URI)
		}
	}
	return c, nil
}

// Enrichment converts a tagged provider result into its namespaced block.
//
// Every attribute key of the provider is present, empty when the provider had no value.
func Enrichment(result services.ProviderResult) (models.EnrichmentBlock, error) {
	switch r := result.(type) {
	case services.AppleMusicAlbum:
		return block(models.ProviderAppleMusic, r.Name, r.URL, r.ArtworkURL, r.EditorialNotes, map[string]string{
			"id":           r.ID,
			"artist_name":  r.ArtistName,
			"release_date": r.ReleaseDate,
			"record_label": r.RecordLabel,
			"copyright":    r.Copyright,
			"track_count":  itoa(r.TrackCount),
			"genres":       strings.Join(r.GenreNames, ", "),
			"upc":          r.UPC,
		})
	case services.AppleMusicArtist:
		return block(models.ProviderAppleMusic, r.Name, r.URL, r.ArtworkURL, r.EditorialNotes, map[string]string{
			"id":     r.ID,
			"genres": strings.Join(r.GenreNames, ", "),
		})
	case services.SpotifyAlbum:
		return block(models.ProviderSpotify, r.Name, r.URL, r.ImageURL, "", map[string]string{
			"id":           r.ID,
			"artist_name":  r.ArtistName,
			"release_date": r.ReleaseDate,
			"album_type":   r.AlbumType,
			"total_tracks": itoa(r.TotalTracks),
			"uri":          r.URI,
		})
	case services.SpotifyArtist:
		return block(models.ProviderSpotify, r.Name, r.URL, r.ImageURL, "", map[string]string{
			"id":         r.ID,
			"genres":     strings.Join(r.Genres, ", "),
			"popularity": itoa(r.Popularity),
			"followers":  itoa(r.Followers),
			"uri":        r.URI,
		})
	case services.WikipediaSummary:
		return block(models.ProviderWikipedia, r.Title, r.URL, r.ImageURL, r.Extract, map[string]string{
			"description": r.Description,
		})
	case nil:
		return models.EnrichmentBlock{}, shapeErr("nil provider result")
	default:
		return models.EnrichmentBlock{}, shapeErr("unknown provider result %T", result)
	}
}

func block(provider, name, url, image, text string, attrs map[string]string) (models.EnrichmentBlock, error) {
	if strings.TrimSpace(name) == "" {
		return models.EnrichmentBlock{}, shapeErr("%s result without a name", provider)
	}
	return models.EnrichmentBlock{
		Provider:   provider,
		Name:       name,
		URL:        url,
		ImageURL:   image,
		Text:       text,
		Attributes: attrs,
	}, nil
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}

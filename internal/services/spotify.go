// Spotify search implementation of [Enricher]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifySearchN  = 5
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbumItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	AlbumType    string             `json:"album_type"`
	Artists      []spotifyArtistRef `json:"artists"`
	ExternalURLs externalURLs       `json:"external_urls"`
	Images       []SpotifyImage     `json:"images"`
	ReleaseDate  string             `json:"release_date"`
	TotalTracks  int                `json:"total_tracks"`
	URI          string             `json:"uri"`
}

type spotifyArtistItem struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ExternalURLs externalURLs   `json:"external_urls"`
	Images       []SpotifyImage `json:"images"`
	Genres       []string       `json:"genres"`
	Popularity   int            `json:"popularity"`
	Followers    struct {
		Total int `json:"total"`
	} `json:"followers"`
	URI string `json:"uri"`
}

type spotifySearchResponse struct {
	Albums *struct {
		Items []spotifyAlbumItem `json:"items"`
	} `json:"albums"`
	Artists *struct {
		Items []spotifyArtistItem `json:"items"`
	} `json:"artists"`
}

// SpotifyAlbum is the album match returned by [SpotifyService.SearchAlbum].
type SpotifyAlbum struct {
	ID          string
	Name        string
	ArtistName  string
	URL         string
	ImageURL    string
	ReleaseDate string
	AlbumType   string
	TotalTracks int
	URI         string
}

func (SpotifyAlbum) Provider() string { return models.ProviderSpotify }

// SpotifyArtist is the artist match returned by [SpotifyService.SearchArtist].
type SpotifyArtist struct {
	ID         string
	Name       string
	URL        string
	ImageURL   string
	Genres     []string
	Popularity int
	Followers  int
	URI        string
}

func (SpotifyArtist) Provider() string { return models.ProviderSpotify }

// SpotifyService searches the Spotify catalog with an app-only (client credentials) token.
type SpotifyService struct {
	denylist []string
	api      *endpoint
}

// NewSpotifyService builds a client whose transport fetches and refreshes the app token.
//
// base, when non-nil, is the HTTP client used both for the token endpoint and the API.
func NewSpotifyService(cfg shared.SpotifyConfig, denylist []string, base *http.Client, caller *Caller) (*SpotifyService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cmp.Or(cfg.TokenURL, spotifyTokenURL),
	}

	ctx := context.Background()
	base = newHTTPClient(base)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout

	return &SpotifyService{
		denylist: denylist,
		api: &endpoint{
			name:    models.ProviderSpotify,
			baseURL: cmp.Or(cfg.BaseURL, spotifyBaseURL),
			client:  client,
			caller:  caller,
		},
	}, nil
}

func (s *SpotifyService) Name() string { return models.ProviderSpotify }

func (s *SpotifyService) search(ctx context.Context, q, kind string) (*spotifySearchResponse, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("type", kind)
	params.Set("limit", fmt.Sprint(spotifySearchN))

	var resp spotifySearchResponse
	if err := s.api.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAlbum queries "artist:<artist> album:<title>".
func (s *SpotifyService) SearchAlbum(ctx context.Context, artist, title string) (ProviderResult, error) {
	resp, err := s.search(ctx, fmt.Sprintf("artist:%s album:%s", artist, title), "album")
	if err != nil {
		return nil, err
	}
	if resp.Albums == nil || len(resp.Albums.Items) == 0 {
		return nil, fmt.Errorf("%w: spotify album %q", shared.ErrNotFound, title)
	}

	items := resp.Albums.Items
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	idx := BestMatch(title, names, s.denylist)
	if idx < 0 {
		return nil, fmt.Errorf("%w: spotify album %q", shared.ErrNotFound, title)
	}

	a := items[idx]
	album := SpotifyAlbum{
		ID:          a.ID,
		Name:        a.Name,
		URL:         a.ExternalURLs.Spotify,
		ImageURL:    largestImage(a.Images),
		ReleaseDate: a.ReleaseDate,
		AlbumType:   a.AlbumType,
		TotalTracks: a.TotalTracks,
		URI:         a.URI,
	}
	if len(a.Artists) > 0 {
		album.ArtistName = a.Artists[0].Name
	}
	return album, nil
}

// SearchArtist queries "artist:<name>".
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (ProviderResult, error) {
	resp, err := s.search(ctx, "artist:"+name, "artist")
	if err != nil {
		return nil, err
	}
	if resp.Artists == nil || len(resp.Artists.Items) == 0 {
		return nil, fmt.Errorf("%w: spotify artist %q", shared.ErrNotFound, name)
	}

	items := resp.Artists.Items
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	idx := BestMatch(name, names, s.denylist)
	if idx < 0 {
		return nil, fmt.Errorf("%w: spotify artist %q", shared.ErrNotFound, name)
	}

	a := items[idx]
	return SpotifyArtist{
		ID:         a.ID,
		Name:       a.Name,
		URL:        a.ExternalURLs.Spotify,
		ImageURL:   largestImage(a.Images),
		Genres:     a.Genres,
		Popularity: a.Popularity,
		Followers:  a.Followers.Total,
		URI:        a.URI,
	}, nil
}

func largestImage(images []SpotifyImage) string {
	best, area := "", -1
	for _, img := range images {
		if a := img.Width * img.Height; a > area {
			best, area = img.URL, a
		}
	}
	return best
}

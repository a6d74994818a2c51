// Apple Music catalog search implementation of [Enricher]
//
// Response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"cmp"
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

const (
	appleMusicBaseURL  = "https://api.music.apple.com/v1"
	appleMusicSearchN  = 5
	developerTokenTTL  = 12 * time.Hour
	developerTokenSkew = 5 * time.Minute
)

// AppleMusicArtwork is an artwork template; URL contains {w}x{h}.
type AppleMusicArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type appleMusicEditorialNotes struct {
	Standard string `json:"standard"`
	Short    string `json:"short"`
}

type appleMusicAlbumResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name           string                   `json:"name"`
		ArtistName     string                   `json:"artistName"`
		URL            string                   `json:"url"`
		Artwork        AppleMusicArtwork        `json:"artwork"`
		ReleaseDate    string                   `json:"releaseDate"`
		RecordLabel    string                   `json:"recordLabel"`
		Copyright      string                   `json:"copyright"`
		TrackCount     int                      `json:"trackCount"`
		GenreNames     []string                 `json:"genreNames"`
		UPC            string                   `json:"upc"`
		EditorialNotes appleMusicEditorialNotes `json:"editorialNotes"`
	} `json:"attributes"`
}

type appleMusicArtistResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name           string                   `json:"name"`
		URL            string                   `json:"url"`
		Artwork        AppleMusicArtwork        `json:"artwork"`
		GenreNames     []string                 `json:"genreNames"`
		EditorialNotes appleMusicEditorialNotes `json:"editorialNotes"`
	} `json:"attributes"`
}

type appleMusicSearchResponse struct {
	Results struct {
		Albums *struct {
			Data []appleMusicAlbumResource `json:"data"`
		} `json:"albums"`
		Artists *struct {
			Data []appleMusicArtistResource `json:"data"`
		} `json:"artists"`
	} `json:"results"`
}

// AppleMusicAlbum is the album match returned by [AppleMusicService.SearchAlbum].
type AppleMusicAlbum struct {
	ID             string
	Name           string
	ArtistName     string
	URL            string
	ArtworkURL     string
	ReleaseDate    string
	RecordLabel    string
	Copyright      string
	TrackCount     int
	GenreNames     []string
	UPC            string
	EditorialNotes string
}

func (AppleMusicAlbum) Provider() string { return models.ProviderAppleMusic }

// AppleMusicArtist is the artist match returned by [AppleMusicService.SearchArtist].
type AppleMusicArtist struct {
	ID             string
	Name           string
	URL            string
	ArtworkURL     string
	GenreNames     []string
	EditorialNotes string
}

func (AppleMusicArtist) Provider() string { return models.ProviderAppleMusic }

// AppleMusicService searches one Apple Music storefront with a self-signed developer token.
type AppleMusicService struct {
	teamID      string
	keyID       string
	key         *ecdsa.PrivateKey
	storefront  string
	artworkSize string
	denylist    []string
	clock       shared.Clock
	api         *endpoint

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewAppleMusicService loads the MusicKit private key and builds the client.
//
// Returns [shared.ErrMissingCredentials] when team id, key id or key path are unset.
func NewAppleMusicService(cfg shared.AppleMusicConfig, denylist []string, client *http.Client, caller *Caller, clock shared.Clock) (*AppleMusicService, error) {
	if cfg.TeamID == "" || cfg.KeyID == "" || cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: apple music team_id, key_id and private_key_path are required", shared.ErrMissingCredentials)
	}

	pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple music key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: apple music key: %v", shared.ErrInvalidCredentials, err)
	}

	if clock == nil {
		clock = shared.SystemClock{}
	}

	s := &AppleMusicService{
		teamID:      cfg.TeamID,
		keyID:       cfg.KeyID,
		key:         key,
		storefront:  strings.ToLower(cmp.Or(cfg.Storefront, "gb")),
		artworkSize: cmp.Or(cfg.ArtworkSize, "1425x1425"),
		denylist:    denylist,
		clock:       clock,
	}
	s.api = &endpoint{
		name:    models.ProviderAppleMusic,
		baseURL: cmp.Or(cfg.BaseURL, appleMusicBaseURL),
		client:  newHTTPClient(client),
		caller:  caller,
		authorize: func(_ context.Context, req *http.Request) error {
			token, err := s.DeveloperToken()
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			return nil
		},
	}
	return s, nil
}

func (s *AppleMusicService) Name() string { return models.ProviderAppleMusic }

// DeveloperToken returns a cached ES256 developer token, signing a new one near expiry.
func (s *AppleMusicService) DeveloperToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.token != "" && now.Before(s.expiresAt.Add(-developerTokenSkew)) {
		return s.token, nil
	}

	expiresAt := now.Add(developerTokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.teamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	s.token, s.expiresAt = signed, expiresAt
	return signed, nil
}

// ArtworkURL fills the {w}x{h} template with the configured size.
func (s *AppleMusicService) ArtworkURL(a AppleMusicArtwork) string {
	return strings.ReplaceAll(a.URL, "{w}x{h}", s.artworkSize)
}

func (s *AppleMusicService) search(ctx context.Context, term, types string) (*appleMusicSearchResponse, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("types", types)
	params.Set("limit", fmt.Sprint(appleMusicSearchN))

	var resp appleMusicSearchResponse
	path := fmt.Sprintf("/catalog/%s/search", url.PathEscape(s.storefront))
	if err := s.api.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAlbum searches albums for "artist title" and ranks them by name against title.
func (s *AppleMusicService) SearchAlbum(ctx context.Context, artist, title string) (ProviderResult, error) {
	resp, err := s.search(ctx, strings.TrimSpace(artist+" "+title), "albums")
	if err != nil {
		return nil, err
	}
	if resp.Results.Albums == nil || len(resp.Results.Albums.Data) == 0 {
		return nil, fmt.Errorf("%w: apple music album %q", shared.ErrNotFound, title)
	}

	data := resp.Results.Albums.Data
	names := make([]string, len(data))
	for i, d := range data {
		names[i] = d.Attributes.Name
	}
	idx := BestMatch(title, names, s.denylist)
	if idx < 0 {
		return nil, fmt.Errorf("%w: apple music album %q", shared.ErrNotFound, title)
	}

	a := data[idx]
	return AppleMusicAlbum{
		ID:             a.ID,
		Name:           a.Attributes.Name,
		ArtistName:     a.Attributes.ArtistName,
		URL:            a.Attributes.URL,
		ArtworkURL:     s.ArtworkURL(a.Attributes.Artwork),
		ReleaseDate:    a.Attributes.ReleaseDate,
		RecordLabel:    a.Attributes.RecordLabel,
		Copyright:      a.Attributes.Copyright,
		TrackCount:     a.Attributes.TrackCount,
		GenreNames:     a.Attributes.GenreNames,
		UPC:            a.Attributes.UPC,
		EditorialNotes: cmp.Or(a.Attributes.EditorialNotes.Standard, a.Attributes.EditorialNotes.Short),
	}, nil
}

// SearchArtist searches artists by name.
func (s *AppleMusicService) SearchArtist(ctx context.Context, name string) (ProviderResult, error) {
	resp, err := s.search(ctx, name, "artists")
	if err != nil {
		return nil, err
	}
	if resp.Results.Artists == nil || len(resp.Results.Artists.Data) == 0 {
		return nil, fmt.Errorf("%w: apple music artist %q", shared.ErrNotFound, name)
	}

	data := resp.Results.Artists.Data
	names := make([]string, len(data))
	for i, d := range data {
		names[i] = d.Attributes.Name
	}
	idx := BestMatch(name, names, s.denylist)
	if idx < 0 {
		return nil, fmt.Errorf("%w: apple music artist %q", shared.ErrNotFound, name)
	}

	a := data[idx]
	return AppleMusicArtist{
		ID:             a.ID,
		Name:           a.Attributes.Name,
		URL:            a.Attributes.URL,
		ArtworkURL:     s.ArtworkURL(a.Attributes.Artwork),
		GenreNames:     a.Attributes.GenreNames,
		EditorialNotes: cmp.Or(a.Attributes.EditorialNotes.Standard, a.Attributes.EditorialNotes.Short),
	}, nil
}

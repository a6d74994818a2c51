// Discogs API implementation of [Catalog]
//
// Response types based on https://www.discogs.com/developers
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

const discogsBaseURL = "https://api.discogs.com"

// DiscogsPagination is the pagination block of collection listings.
type DiscogsPagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// DiscogsCollectionItem is one entry of a collection folder listing.
type DiscogsCollectionItem struct {
	ID               int64  `json:"id"`
	InstanceID       int64  `json:"instance_id"`
	DateAdded        string `json:"date_added"`
	Rating           int    `json:"rating"`
	BasicInformation struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		ResourceURL string `json:"resource_url"`
	} `json:"basic_information"`
}

type discogsCollectionPage struct {
	Pagination DiscogsPagination       `json:"pagination"`
	Releases   []DiscogsCollectionItem `json:"releases"`
}

// DiscogsArtistRef is an artist credit as embedded in a release.
type DiscogsArtistRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ANV  string `json:"anv"`
	Role string `json:"role"`
}

// DiscogsLabel is a label credit on a release.
type DiscogsLabel struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

// DiscogsFormat describes a physical format.
type DiscogsFormat struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Text         string   `json:"text"`
	Descriptions []string `json:"descriptions"`
}

// DiscogsTrack is one tracklist entry.
type DiscogsTrack struct {
	Position string `json:"position"`
	Type     string `json:"type_"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// DiscogsImage is an image resource.
type DiscogsImage struct {
	Type   string `json:"type"`
	URI    string `json:"uri"`
	URI150 string `json:"uri150"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DiscogsVideo is a linked video.
type DiscogsVideo struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// DiscogsRelease is the raw release payload.
type DiscogsRelease struct {
	ID           int64              `json:"id"`
	Title        string             `json:"title"`
	Artists      []DiscogsArtistRef `json:"artists"`
	Year         int                `json:"year"`
	Released     string             `json:"released"`
	Country      string             `json:"country"`
	Genres       []string           `json:"genres"`
	Styles       []string           `json:"styles"`
	Labels       []DiscogsLabel     `json:"labels"`
	Formats      []DiscogsFormat    `json:"formats"`
	Tracklist    []DiscogsTrack     `json:"tracklist"`
	Images       []DiscogsImage     `json:"images"`
	Videos       []DiscogsVideo     `json:"videos"`
	ExtraArtists []DiscogsArtistRef `json:"extraartists"`
	Notes        string             `json:"notes"`
	URI          string             `json:"uri"`
}

// DiscogsMember is a band member or alias reference.
type DiscogsMember struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DiscogsArtist is the raw artist payload.
type DiscogsArtist struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	RealName       string          `json:"realname"`
	Profile        string          `json:"profile"`
	URLs           []string        `json:"urls"`
	NameVariations []string        `json:"namevariations"`
	Aliases        []DiscogsMember `json:"aliases"`
	Members        []DiscogsMember `json:"members"`
	Images         []DiscogsImage  `json:"images"`
	URI            string          `json:"uri"`
}

// DiscogsService reads a user's collection through the Discogs API.
type DiscogsService struct {
	username string
	api      *endpoint
}

// NewDiscogsService creates the primary catalog client.
func NewDiscogsService(cfg shared.DiscogsConfig, client *http.Client, caller *Caller) (*DiscogsService, error) {
	if cfg.Token == "" || cfg.Username == "" {
		return nil, fmt.Errorf("%w: discogs token and username are required", shared.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = discogsBaseURL
	}

	token := cfg.Token
	return &DiscogsService{
		username: cfg.Username,
		api: &endpoint{
			name:      models.ProviderDiscogs,
			baseURL:   baseURL,
			client:    newHTTPClient(client),
			caller:    caller,
			userAgent: cfg.UserAgent,
			authorize: func(_ context.Context, req *http.Request) error {
				req.Header.Set("Authorization", "Discogs token="+token)
				return nil
			},
		},
	}, nil
}

func (s *DiscogsService) Name() string { return models.ProviderDiscogs }

func (s *DiscogsService) folderPath() string {
	return fmt.Sprintf("/users/%s/collection/folders/0", url.PathEscape(s.username))
}

// Count returns the number of items in the "All" folder.
func (s *DiscogsService) Count(ctx context.Context) (int, error) {
	var folder struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Count *int   `json:"count"`
	}
	if err := s.api.getJSON(ctx, s.folderPath(), nil, &folder); err != nil {
		return 0, err
	}
	if folder.Count == nil {
		return 0, fmt.Errorf("%w: collection folder without count", shared.ErrDataShape)
	}
	return *folder.Count, nil
}

// Page returns one page of the collection sorted by date added, oldest first.
func (s *DiscogsService) Page(ctx context.Context, page, perPage int) ([]models.CollectionItem, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("%w: page %d per_page %d", shared.ErrInvalidArgument, page, perPage)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "added")
	params.Set("sort_order", "asc")

	var resp discogsCollectionPage
	if err := s.api.getJSON(ctx, s.folderPath()+"/releases", params, &resp); err != nil {
		return nil, err
	}

	items := make([]models.CollectionItem, 0, len(resp.Releases))
	for i, r := range resp.Releases {
		id := r.ID
		if id == 0 {
			id = r.BasicInformation.ID
		}
		items = append(items, models.CollectionItem{
			ReleaseID:   id,
			InstanceID:  r.InstanceID,
			Position:    (page-1)*perPage + i + 1,
			DateAdded:   r.DateAdded,
			Rating:      r.Rating,
			ResourceURL: r.BasicInformation.ResourceURL,
		})
	}

	s.api.caller.logger.Debug("fetched collection page", "page", page, "items", len(items), "pages", resp.Pagination.Pages)
	return items, nil
}

// Release fetches a release payload.
func (s *DiscogsService) Release(ctx context.Context, id int64) (*DiscogsRelease, error) {
	var release DiscogsRelease
	if err := s.api.getJSON(ctx, fmt.Sprintf("/releases/%d", id), nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// Artist fetches an artist payload.
func (s *DiscogsService) Artist(ctx context.Context, id int64) (*DiscogsArtist, error) {
	var artist DiscogsArtist
	if err := s.api.getJSON(ctx, fmt.Sprintf("/artists/%d", id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

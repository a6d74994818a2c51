// Wikipedia lookup implementation of [Enricher]
//
// Uses the MediaWiki opensearch action for candidates and the REST page summary endpoint.
package services

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

const wikipediaSearchN = 5

type wikipediaSummaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// WikipediaSummary is the page summary returned by [WikipediaService].
type WikipediaSummary struct {
	Title       string
	Description string
	Extract     string
	URL         string
	ImageURL    string
}

func (WikipediaSummary) Provider() string { return models.ProviderWikipedia }

// WikipediaService finds a page by title search and returns its summary.
type WikipediaService struct {
	denylist []string
	api      *endpoint
}

// NewWikipediaService builds the client for the configured language edition.
func NewWikipediaService(cfg shared.WikipediaConfig, denylist []string, client *http.Client, caller *Caller) (*WikipediaService, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: wikipedia lookups are disabled", shared.ErrMissingConfig)
	}
	lang := cmp.Or(cfg.Language, "en")
	return &WikipediaService{
		denylist: denylist,
		api: &endpoint{
			name:      models.ProviderWikipedia,
			baseURL:   strings.TrimRight(cmp.Or(cfg.BaseURL, fmt.Sprintf("https://%s.wikipedia.org", lang)), "/"),
			client:    newHTTPClient(client),
			caller:    caller,
			userAgent: cfg.UserAgent,
		},
	}, nil
}

func (s *WikipediaService) Name() string { return models.ProviderWikipedia }

// candidates returns the page titles matching term.
func (s *WikipediaService) candidates(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", term)
	params.Set("limit", fmt.Sprint(wikipediaSearchN))
	params.Set("namespace", "0")
	params.Set("format", "json")

	// [term, [titles], [descriptions], [urls]]
	var raw []json.RawMessage
	if err := s.api.getJSON(ctx, "/w/api.php", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: wikipedia opensearch returned %d elements", shared.ErrDataShape, len(raw))
	}

	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("%w: wikipedia opensearch titles: %v", shared.ErrDataShape, err)
	}
	return titles, nil
}

// Summary fetches the REST summary of a page title.
func (s *WikipediaService) Summary(ctx context.Context, title string) (*WikipediaSummary, error) {
	var resp wikipediaSummaryResponse
	path := "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := s.api.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Type == "disambiguation" {
		return nil, fmt.Errorf("%w: wikipedia %q is a disambiguation page", shared.ErrNotFound, title)
	}

	summary := &WikipediaSummary{
		Title:       resp.Title,
		Description: resp.Description,
		Extract:     resp.Extract,
		URL:         resp.ContentURLs.Desktop.Page,
	}
	switch {
	case resp.OriginalImage != nil:
		summary.ImageURL = resp.OriginalImage.Source
	case resp.Thumbnail != nil:
		summary.ImageURL = resp.Thumbnail.Source
	}
	return summary, nil
}

func (s *WikipediaService) lookup(ctx context.Context, term, match string) (ProviderResult, error) {
	titles, err := s.candidates(ctx, term)
	if err != nil {
		return nil, err
	}
	idx := BestMatch(match, titles, s.denylist)
	if idx < 0 {
		return nil, fmt.Errorf("%w: wikipedia %q", shared.ErrNotFound, term)
	}
	summary, err := s.Summary(ctx, titles[idx])
	if err != nil {
		return nil, err
	}
	return *summary, nil
}

// SearchAlbum searches "<title> <artist> album" and ranks titles against the album title.
func (s *WikipediaService) SearchAlbum(ctx context.Context, artist, title string) (ProviderResult, error) {
	return s.lookup(ctx, fmt.Sprintf("%s %s album", title, artist), title)
}

// SearchArtist searches the artist name.
func (s *WikipediaService) SearchArtist(ctx context.Context, name string) (ProviderResult, error) {
	return s.lookup(ctx, name, name)
}

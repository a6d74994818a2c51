package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/crates/internal/shared"
	tu "github.com/desertthunder/crates/internal/testing"
)

func newTestDiscogs(t *testing.T, handler http.HandlerFunc) *DiscogsService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := shared.DiscogsConfig{Token: "secret", Username: "digger", UserAgent: "crates-test", BaseURL: srv.URL}
	caller := NewCaller("discogs", 0, testPolicy(), tu.NewFakeClock(epoch), nil)
	svc, err := NewDiscogsService(cfg, srv.Client(), caller)
	if err != nil {
		t.Fatalf("failed to create discogs service: %v", err)
	}
	return svc
}

func TestDiscogsService(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		_, err := NewDiscogsService(shared.DiscogsConfig{}, nil, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Count", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/digger/collection/folders/0" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Discogs token=secret" {
				t.Errorf("unexpected auth header %q", got)
			}
			if got := r.Header.Get("User-Agent"); got != "crates-test" {
				t.Errorf("unexpected user agent %q", got)
			}
			fmt.Fprint(w, `{"id": 0, "name": "All", "count": 3}`)
		})

		n, err := svc.Count(context.Background())
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3, got %d", n)
		}
	})

	t.Run("Count Missing Field", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 0, "name": "All"}`)
		})
		if _, err := svc.Count(context.Background()); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("expected ErrDataShape, got %v", err)
		}
	})

	t.Run("Page", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("sort") != "added" || q.Get("sort_order") != "asc" {
				t.Errorf("collection must be walked oldest first, got %s", r.URL.RawQuery)
			}
			if q.Get("page") != "2" || q.Get("per_page") != "2" {
				t.Errorf("unexpected paging %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{
				"pagination": {"page": 2, "pages": 2, "per_page": 2, "items": 3},
				"releases": [{"id": 30, "instance_id": 9, "date_added": "2024-01-03T00:00:00-08:00", "rating": 4,
					"basic_information": {"id": 30, "title": "C", "resource_url": "https://api.discogs.com/releases/30"}}]
			}`)
		})

		items, err := svc.Page(context.Background(), 2, 2)
		if err != nil {
			t.Fatalf("page failed: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected one item, got %d", len(items))
		}
		if items[0].Position != 3 || items[0].ReleaseID != 30 || items[0].Rating != 4 {
			t.Errorf("unexpected item %+v", items[0])
		}
	})

	t.Run("Page Invalid", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {})
		if _, err := svc.Page(context.Background(), 0, 50); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Release", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/releases/30" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"id": 30, "title": "Nevermind", "artists": [{"id": 125246, "name": "Nirvana"}],
				"tracklist": [{"position": "A1", "type_": "track", "title": "Smells Like Teen Spirit", "duration": "5:01"}]}`)
		})

		release, err := svc.Release(context.Background(), 30)
		if err != nil {
			t.Fatalf("release failed: %v", err)
		}
		if release.Title != "Nevermind" || len(release.Tracklist) != 1 || release.Artists[0].ID != 125246 {
			t.Errorf("unexpected release %+v", release)
		}
	})

	t.Run("Status Classification", func(t *testing.T) {
		tests := []struct {
			status int
			want   error
		}{
			{http.StatusNotFound, shared.ErrNotFound},
			{http.StatusServiceUnavailable, shared.ErrUnavailable},
		}
		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				calls := 0
				svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
					calls++
					w.WriteHeader(tt.status)
				})
				if _, err := svc.Release(context.Background(), 1); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if tt.want == shared.ErrUnavailable && calls != 3 {
					t.Errorf("expected 3 attempts for unavailable, got %d", calls)
				}
			})
		}
	})

	t.Run("Throttled Then OK", func(t *testing.T) {
		calls := 0
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.Header().Set("Retry-After", "5")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"id": 7, "name": "Nirvana"}`)
		})

		artist, err := svc.Artist(context.Background(), 7)
		if err != nil {
			t.Fatalf("artist failed: %v", err)
		}
		if artist.Name != "Nirvana" || calls != 2 {
			t.Errorf("expected one retry, got %d calls", calls)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		svc := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": "not a number"`)
		})
		if _, err := svc.Release(context.Background(), 1); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("expected ErrDataShape, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		cfg := shared.DiscogsConfig{Token: "t", Username: "u", BaseURL: "http://discogs.invalid"}
		caller := NewCaller("discogs", 0, RetryPolicy{MaxAttempts: 1}, tu.NewFakeClock(epoch), nil)
		svc, err := NewDiscogsService(cfg, client, caller)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, err = svc.Release(context.Background(), 1)
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected transport cause in error, got %v", err)
		}
	})

	t.Run("Artist Through Transport", func(t *testing.T) {
		var seen *http.Request
		client := &http.Client{Transport: tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			seen = r
			return tu.JSONResponse(http.StatusOK, `{"id": 125246, "name": "Nirvana", "profile": "Grunge band."}`), nil
		})}
		cfg := shared.DiscogsConfig{Token: "t", Username: "u", BaseURL: "http://discogs.invalid"}
		caller := NewCaller("discogs", 0, RetryPolicy{MaxAttempts: 1}, tu.NewFakeClock(epoch), nil)
		svc, err := NewDiscogsService(cfg, client, caller)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		artist, err := svc.Artist(context.Background(), 125246)
		if err != nil {
			t.Fatalf("artist failed: %v", err)
		}
		if artist.Name != "Nirvana" {
			t.Errorf("unexpected artist %+v", artist)
		}
		if seen == nil || seen.URL.String() != "http://discogs.invalid/artists/125246" {
			t.Errorf("unexpected request %v", seen)
		}
	})

	t.Run("Unreadable Body", func(t *testing.T) {
		client := &http.Client{Transport: tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}, nil
		})}
		cfg := shared.DiscogsConfig{Token: "t", Username: "u", BaseURL: "http://discogs.invalid"}
		caller := NewCaller("discogs", 0, RetryPolicy{MaxAttempts: 1}, tu.NewFakeClock(epoch), nil)
		svc, err := NewDiscogsService(cfg, client, caller)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := svc.Release(context.Background(), 1); !errors.Is(err, shared.ErrDataShape) {
			t.Errorf("expected ErrDataShape for a body that cannot be read, got %v", err)
		}
	})
}

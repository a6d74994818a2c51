package shared

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusTooManyRequests, ErrThrottled},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusRequestTimeout, ErrUnavailable},
		{http.StatusUnauthorized, ErrInvalidCredentials},
		{http.StatusBadRequest, ErrAPIRequest},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := ClassifyStatus("discogs", tt.code, http.Header{})
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.code, tt.want, err)
			}
		})
	}

	t.Run("OK", func(t *testing.T) {
		if err := ClassifyStatus("discogs", http.StatusOK, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("Retry-After", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "5")
		err := ClassifyStatus("spotify", http.StatusTooManyRequests, h)

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			t.Fatalf("expected RateLimitError, got %T", err)
		}
		if rle.RetryAfter != 5*time.Second {
			t.Errorf("expected 5s, got %s", rle.RetryAfter)
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"3":                             3 * time.Second,
		"1.5":                           1500 * time.Millisecond,
		"-2":                            0,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	}
	for in, want := range tests {
		if got := ParseRetryAfter(in); got != want {
			t.Errorf("ParseRetryAfter(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestIsItemFailure(t *testing.T) {
	if !IsItemFailure(ErrDataShape) || !IsItemFailure(ErrPermanent) {
		t.Error("data shape and permanent errors isolate the item")
	}
	if IsItemFailure(ErrStoreUnavailable) {
		t.Error("store failures are fatal, not item failures")
	}
	if IsItemFailure(&RateLimitError{Provider: "discogs"}) {
		t.Error("throttling is not an item failure")
	}
}

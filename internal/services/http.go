package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/crates/internal/shared"
)

const defaultHTTPTimeout = 30 * time.Second

// endpoint performs paced JSON GET requests against one provider.
type endpoint struct {
	name      string
	baseURL   string
	client    *http.Client
	caller    *Caller
	userAgent string
	authorize func(ctx context.Context, req *http.Request) error
}

// getJSON fetches path (relative to baseURL) with query params and decodes the body into out.
//
// Transport failures map to [shared.ErrUnavailable], undecodable bodies to [shared.ErrDataShape]
// and HTTP statuses through [shared.ClassifyStatus].
func (e *endpoint) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := e.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	return e.caller.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if e.userAgent != "" {
			req.Header.Set("User-Agent", e.userAgent)
		}
		if e.authorize != nil {
			if err := e.authorize(ctx, req); err != nil {
				return err
			}
		}

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s: %v", shared.ErrUnavailable, e.name, err)
		}
		defer resp.Body.Close()

		if err := shared.ClassifyStatus(e.name, resp.StatusCode, resp.Header); err != nil {
			io.Copy(io.Discard, resp.Body)
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %s: failed to decode response: %v", shared.ErrDataShape, e.name, err)
		}
		return nil
	})
}

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// Package services implements the rate-limited provider clients the sync pipeline talks to.
//
// # Primary Catalog
//
// [DiscogsService] enumerates the collection (folder 0, oldest first so positions are stable
// across runs) and resolves release and artist payloads.
//
// # Enrichment Providers
//
// [AppleMusicService], [SpotifyService] and [WikipediaService] implement [Enricher]. Each runs
// one keyword search, ranks the candidates with [BestMatch] and returns a tagged [ProviderResult].
//
// # Pacing And Retries
//
// Every request goes through a [Caller]: a [rate.Limiter] spaces requests to the same provider and
// a [RetryPolicy] decides what happens on failure.
//   - [shared.ErrThrottled] : sleep for Retry-After (or the default) and resend, without limit
//   - [shared.ErrUnavailable] : bounded retries with a fixed delay, then surfaced
//   - [shared.ErrNotFound] : returned at once
//
// The clock is injected so tests never sleep.
package services

// Package tasks runs the incremental collection sync with real-time progress reporting.
//
// # Walk
//
// [Pipeline.Run] captures the collection size once, reads the stored checkpoint and pages through
// the catalog collection in date-added order. Items at or before the checkpoint are skipped
// without any network call. Every other item goes through:
//
//  1. CacheCheck: a release in the skip set or already stored is not fetched again
//  2. Fetching: the catalog payload is fetched and normalized
//  3. Enriching: each enricher is asked in order; misses and failures only drop that block
//  4. Persisting: the merged record and, once per run, its contributor are written
//  5. Checkpointing: the checkpoint moves to the item position, whatever happened to the item
//
// Reaching the end of the collection resets the checkpoint to zero.
//
// # Failures
//
// A catalog error for one item (unavailable after retries, not found, bad payload) puts the
// release id in the skip set and the walk continues. Only store failures and a collection
// listing failure end a run early, and cancellation stops it between items.
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent with select/default so a slow consumer never blocks the run.
// The final update carries the [RunSummary].
package tasks

// Package models defines the records the sync pipeline reads, merges and persists.
//
// The package contains two categories of types:
//
// 1. Ephemeral walk types, never persisted directly
//   - [CollectionItem] : One entry of the remote collection walk with its ordinal position
//
// 2. Persisted records, stored whole (never patched field by field)
//   - [Release] : The canonical, merged record for one catalog release
//   - [Contributor] : Artist information shared by many releases
//   - [EnrichmentBlock] : A secondary provider's attributes, kept verbatim under its namespace
//   - [SkipEntry] : A release id isolated after a permanent failure
//   - [SyncRun] : History row for one invocation of the pipeline
//
// Slices and maps on persisted records are always non-nil so that encoding the same record twice
// produces the same bytes.
package models

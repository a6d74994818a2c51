// Package repositories implements SQLite persistence for the sync pipeline.
//
// Records are stored as whole JSON documents and written with a single upsert statement, so a
// concurrent reader sees either the previous or the next full value of a row.
//
// Key Implementations:
//   - [ReleaseRepository] : Canonical release records keyed by catalog release id
//   - [ContributorRepository] : Artist records keyed by catalog artist id
//   - [SkipRepository] : Release ids isolated after a permanent failure
//   - [CheckpointRepository] : The single resume position of the collection walk
//   - [RunRepository] : Sync run history
//
// [Store] bundles them behind the operations the pipeline and the editing API use.
package repositories

// Package ui implements the sync progress screen using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [SyncView] : Spinner, progress bar and the latest pipeline messages while a run is active
//  2. [ResultView] : Run counts and a filterable list of failed items and empty or degraded lookups
//
// The [Model] starts the run in a goroutine and receives [tasks.ProgressUpdate] values through a
// channel, one message per Update. Pressing q during a run cancels its context, so the pipeline stops
// after the current item and the checkpoint stays resumable.
package ui

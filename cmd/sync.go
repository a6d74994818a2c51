package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/crates/internal/formatter"
	"github.com/desertthunder/crates/internal/merge"
	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/repositories"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/desertthunder/crates/internal/tasks"
)

// SyncRun walks the collection from the stored checkpoint.
//
// The run lock is held for the whole walk. SIGINT and SIGTERM stop the run between items.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	limit := r.config.Sync.NumItems
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}
	if cmd.Bool("all") {
		limit = 0
	}
	if limit < 0 {
		return fmt.Errorf("%w: --limit cannot be negative", shared.ErrInvalidArgument)
	}

	lock, err := shared.AcquireRunLock(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	useTUI := cmd.Bool("tui")
	logger := r.logger
	if useTUI {
		path := filepath.Join(filepath.Dir(r.config.Database.Path), "crates-sync.log")
		fileLogger, closer, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer closer.Close()
		fileLogger.SetLevel(r.logger.GetLevel())
		logger = fileLogger
	}

	pipeline, err := r.newPipeline(store, cmp.Or(cmd.String("emit"), r.config.Sync.EmitDir), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := tasks.RunOptions{PageSize: r.config.Sync.PageSize, Limit: limit}

	var summary *tasks.RunSummary
	switch {
	case useTUI:
		summary, err = r.runTUI(ctx, pipeline, opts)
	case cmd.Bool("json"):
		summary, err = pipeline.Run(ctx, nil, opts)
	default:
		summary, err = r.runPlain(ctx, pipeline, opts)
	}

	if summary != nil {
		if cmd.Bool("json") {
			if werr := r.writeJSON(summary, true); werr != nil {
				return werr
			}
		} else if !useTUI {
			r.writeSummary(summary, skipReasons(store, summary))
		}
	}
	return err
}

// newPipeline wires the configured providers, merge policy, run history and optional emitter.
func (r *Runner) newPipeline(store *repositories.Store, emitDir string, logger *log.Logger) (*tasks.Pipeline, error) {
	providers, err := services.NewProviders(r.config, r.httpClient, r.clock, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("providers configured", "catalog", models.ProviderDiscogs, "enrichers", providers.Names())

	opts := tasks.PipelineOpts{
		Policy:         merge.NewPolicy(r.config.Merge),
		VariousMarkers: r.config.Sync.VariousMarkers,
		Runs:           store.Runs,
		Clock:          r.clock,
		Logger:         logger,
	}
	if emitDir != "" {
		emitter, err := formatter.NewDirEmitter(emitDir)
		if err != nil {
			return nil, err
		}
		opts.Emitter = emitter
		logger.Info("emitting records", "dir", emitDir)
	}

	return tasks.NewPipeline(store, providers.Catalog, providers.Enrichers, opts), nil
}

// runPlain prints progress lines while the pipeline runs.
func (r *Runner) runPlain(ctx context.Context, pipeline *tasks.Pipeline, opts tasks.RunOptions) (*tasks.RunSummary, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Idle:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Paging:
				r.writePlain("\n📄 %s\n", update.Message)
			case tasks.Persisting, tasks.CacheCheck:
				r.writePlain("   %s\n", update.Message)
			case tasks.Done:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	summary, err := pipeline.Run(ctx, progressCh, opts)
	close(progressCh)
	<-done

	return summary, err
}

// skipReasons looks up why the skip entries met by the run were added. Lookup failures leave the
// reasons blank.
func skipReasons(store *repositories.Store, s *tasks.RunSummary) map[int64]string {
	reasons := map[int64]string{}
	if len(s.Skipped) == 0 {
		return reasons
	}
	entries, err := store.ListSkips()
	if err != nil {
		return reasons
	}
	for _, e := range entries {
		reasons[e.ReleaseID] = e.Reason
	}
	return reasons
}

func (r *Runner) writeSummary(s *tasks.RunSummary, reasons map[int64]string) {
	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Sync %s", s.Status))
	r.writePlain("%s\n", formatter.RenderKeyValues([][2]string{
		{"Run", s.RunID},
		{"Collection size", strconv.Itoa(s.Total)},
		{"Checkpoint", fmt.Sprintf("%d → %d", s.StartCheckpoint, s.Checkpoint)},
		{"Fetched", strconv.Itoa(len(s.Fetched))},
		{"Cached", strconv.Itoa(len(s.Cached))},
		{"Skipped", strconv.Itoa(len(s.Skipped))},
		{"Failed", strconv.Itoa(len(s.Failed))},
		{"Contributors", strconv.Itoa(len(s.Contributors))},
		{"Duration", s.Duration().String()},
	}))

	if len(s.Failed) > 0 {
		rows := make([][]string, len(s.Failed))
		for i, f := range s.Failed {
			rows[i] = []string{strconv.Itoa(f.Position), strconv.FormatInt(f.ReleaseID, 10), f.Reason}
		}
		r.writePlain("\nNewly skipped:\n%s\n", formatter.RenderTable(
			[]string{"Position", "Release", "Reason"}, rows,
			[]formatter.Alignment{formatter.AlignRight, formatter.AlignRight, formatter.AlignLeft},
		))
	}

	if len(s.Skipped) > 0 {
		rows := make([][]string, len(s.Skipped))
		for i, id := range s.Skipped {
			rows[i] = []string{strconv.FormatInt(id, 10), reasons[id]}
		}
		r.writePlain("\nSkipped:\n%s\n", formatter.RenderTable(
			[]string{"Release", "Reason"}, rows,
			[]formatter.Alignment{formatter.AlignRight, formatter.AlignLeft},
		))
	}

	lookups := append(append([]tasks.Lookup{}, s.Degraded...), s.Unresolved...)
	if len(lookups) > 0 {
		rows := make([][]string, len(lookups))
		for i, l := range lookups {
			outcome := "no match"
			if l.Reason != "" {
				outcome = l.Reason
			}
			rows[i] = []string{l.Provider, l.Subject, strconv.FormatInt(l.ID, 10), l.Query, outcome}
		}
		r.writePlain("\nEnrichment gaps:\n%s\n", formatter.RenderTable(
			[]string{"Provider", "Subject", "ID", "Query", "Outcome"}, rows,
			[]formatter.Alignment{formatter.AlignLeft, formatter.AlignLeft, formatter.AlignRight},
		))
	}

	if s.Error != "" {
		r.writePlain("\nError: %s\n", s.Error)
	}
}

// SyncStatus prints the checkpoint, record counts and recent run history.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	checkpoint, err := store.Checkpoint()
	if err != nil {
		return err
	}
	releases, err := store.Releases.Count()
	if err != nil {
		return err
	}
	contributors, err := store.Contributors.Count()
	if err != nil {
		return err
	}
	skips, err := store.Skips.Count()
	if err != nil {
		return err
	}

	r.writePlain("%s\n", formatter.RenderKeyValues([][2]string{
		{"Database", r.config.Database.Path},
		{"Checkpoint", strconv.Itoa(checkpoint)},
		{"Releases", strconv.Itoa(releases)},
		{"Contributors", strconv.Itoa(contributors)},
		{"Skipped", strconv.Itoa(skips)},
	}))

	runs, err := store.Runs.List(cmd.Int("runs"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.writePlainln("No sync runs recorded yet.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			string(run.Status),
			strconv.Itoa(run.Processed),
			strconv.Itoa(run.Cached),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			fmt.Sprintf("%d/%d", run.Checkpoint, run.Total),
			run.Duration().Round(time.Second).String(),
		}
	}
	r.writePlain("\nRecent runs:\n%s\n", formatter.RenderTable(
		[]string{"Started", "Status", "Fetched", "Cached", "Skipped", "Failed", "Checkpoint", "Duration"}, rows,
		[]formatter.Alignment{
			formatter.AlignLeft, formatter.AlignLeft, formatter.AlignRight, formatter.AlignRight,
			formatter.AlignRight, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight,
		},
	))
	return nil
}

// SyncReset moves the checkpoint back to zero so the next run walks the whole collection.
//
// Stored records stay cached, so the rerun only fetches releases it has not seen.
func (r *Runner) SyncReset(ctx context.Context, cmd *cli.Command) error {
	lock, err := shared.AcquireRunLock(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.DB().Close()

	previous, err := store.Checkpoint()
	if err != nil {
		return err
	}
	if err := store.SetCheckpoint(0); err != nil {
		return err
	}

	r.logger.Info("checkpoint reset", "previous", previous)
	r.writePlain("✓ Checkpoint reset (was %d)\n", previous)
	return nil
}

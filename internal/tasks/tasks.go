package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/crates/internal/merge"
	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/normalize"
	"github.com/desertthunder/crates/internal/services"
	"github.com/desertthunder/crates/internal/shared"
)

// DefaultPageSize is the collection page size used when [RunOptions] leaves it unset.
const DefaultPageSize = 50

// Store is the persistence the pipeline writes through. [repositories.Store] implements it.
type Store interface {
	GetRelease(id int64) (*models.Release, error)
	HasRelease(id int64) (bool, error)
	PutRelease(r *models.Release) error
	GetContributor(id int64) (*models.Contributor, error)
	PutContributor(c *models.Contributor) error
	IsSkipped(id int64) (bool, error)
	MarkSkipped(id int64, reason string) error
	Checkpoint() (int, error)
	SetCheckpoint(position int) error
}

// RunRecorder persists run history. [repositories.RunRepository] implements it.
type RunRecorder interface {
	Create(run *models.SyncRun) error
	Update(run *models.SyncRun) error
}

// Emitter receives records once they are persisted and structurally complete.
type Emitter interface {
	EmitRelease(r *models.Release) error
	EmitContributor(c *models.Contributor) error
}

// PipelineOpts holds the optional collaborators of a [Pipeline].
type PipelineOpts struct {
	Policy         merge.Policy // Merge rules; longest narrative when zero
	VariousMarkers []string     // Artist names containing one of these are never looked up
	Runs           RunRecorder  // Run history, optional
	Emitter        Emitter      // Handoff of persisted records, optional
	Clock          shared.Clock // Defaults to the wall clock
	Logger         *log.Logger  // Defaults to a discarding logger
}

// RunOptions bounds a single run.
type RunOptions struct {
	PageSize int // Collection page size, 1-100
	Limit    int // Stop after this many items past the checkpoint; 0 walks to the end
}

// Pipeline walks the catalog collection, enriches new releases and persists them, moving the
// checkpoint after every item.
//
// It is single-threaded: items are handled strictly in collection order, one at a time.
type Pipeline struct {
	store     Store
	catalog   services.Catalog
	enrichers []services.Enricher
	opts      PipelineOpts
}

// NewPipeline creates a Pipeline. Enrichers are consulted in the order given.
func NewPipeline(store Store, catalog services.Catalog, enrichers []services.Enricher, opts PipelineOpts) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Policy.Narrative == "" {
		opts.Policy.Narrative = merge.NarrativeLongest
	}
	return &Pipeline{store: store, catalog: catalog, enrichers: enrichers, opts: opts}
}

// run is the state owned by one invocation of [Pipeline.Run].
type run struct {
	summary  *RunSummary
	artists  *ArtistIndex
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// sendProgress sends a progress update through the channel without blocking.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one sync run and returns its summary.
//
// The summary is returned even when err is non-nil. A cancelled ctx stops the run between items
// with status interrupted; the checkpoint then points at the last finished item. Only store and
// collection listing failures end a run as failed.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOptions) (*RunSummary, error) {
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize < 0 || opts.PageSize > 100 {
		return nil, fmt.Errorf("%w: page size must be between 1 and 100, got %d", shared.ErrInvalidArgument, opts.PageSize)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit cannot be negative", shared.ErrInvalidArgument)
	}

	id := shared.GenerateID()
	r := &run{
		summary:  newRunSummary(id, p.opts.Clock.Now()),
		artists:  NewArtistIndex(),
		logger:   shared.WithLogger(p.opts.Logger, "run_id", id),
		progress: progress,
	}

	if p.opts.Runs != nil {
		if err := p.opts.Runs.Create(r.summary.SyncRun()); err != nil {
			r.summary.finish(models.RunFailed, p.opts.Clock.Now(), err)
			return r.summary, err
		}
	}

	r.logger.Info("sync run started", "page_size", opts.PageSize, "limit", opts.Limit, "enrichers", len(p.enrichers))

	status, err := p.walk(ctx, r, opts.PageSize, opts.Limit)
	r.summary.finish(status, p.opts.Clock.Now(), err)

	if p.opts.Runs != nil {
		if uerr := p.opts.Runs.Update(r.summary.SyncRun()); uerr != nil {
			r.logger.Warn("failed to record run", "error", uerr)
		}
	}

	p.sendProgress(progress, doneUpdate(r.summary))

	s := r.summary
	kv := []any{
		"status", s.Status, "checkpoint", s.Checkpoint, "fetched", len(s.Fetched), "cached", len(s.Cached),
		"skipped", len(s.Skipped), "failed", len(s.Failed), "unresolved", len(s.Unresolved), "duration", s.Duration(),
	}
	switch status {
	case models.RunFailed:
		r.logger.Error("sync run failed", append(kv, "error", err)...)
	case models.RunInterrupted:
		r.logger.Warn("sync run interrupted", kv...)
	default:
		r.logger.Info("sync run finished", kv...)
	}

	return s, err
}

// walk drives the Paging and per-item states and returns the terminal status.
func (p *Pipeline) walk(ctx context.Context, r *run, pageSize, limit int) (models.RunStatus, error) {
	s := r.summary

	total, err := p.catalog.Count(ctx)
	if err != nil {
		return p.abort(ctx, fmt.Errorf("%w: %w", shared.ErrCollectionUnavailable, err))
	}
	checkpoint, err := p.store.Checkpoint()
	if err != nil {
		return models.RunFailed, err
	}

	s.Total, s.StartCheckpoint, s.Checkpoint = total, checkpoint, checkpoint
	p.sendProgress(r.progress, startUpdate(total, checkpoint))

	if checkpoint > total {
		r.logger.Warn("checkpoint is past the end of the collection", "checkpoint", checkpoint, "total", total)
	}

	if checkpoint < total {
		pages := (total + pageSize - 1) / pageSize
	walk:
		for page := checkpoint/pageSize + 1; page <= pages; page++ {
			if limit > 0 && s.Attempted() >= limit {
				return models.RunPaused, nil
			}
			if err := ctx.Err(); err != nil {
				return models.RunInterrupted, err
			}

			p.sendProgress(r.progress, pagingUpdate(page, pages))
			items, err := p.catalog.Page(ctx, page, pageSize)
			if err != nil {
				return p.abort(ctx, fmt.Errorf("%w: page %d: %w", shared.ErrCollectionUnavailable, page, err))
			}
			if len(items) == 0 {
				r.logger.Warn("collection ended before the captured size", "page", page, "total", total)
				break
			}

			for _, item := range items {
				if item.Position > total {
					break walk
				}
				if item.Position <= checkpoint {
					s.FastForwarded++
					continue
				}
				if limit > 0 && s.Attempted() >= limit {
					return models.RunPaused, nil
				}
				if err := ctx.Err(); err != nil {
					return models.RunInterrupted, err
				}

				if err := p.process(ctx, r, item, total); err != nil {
					return p.abort(ctx, err)
				}

				if err := p.store.SetCheckpoint(item.Position); err != nil {
					return models.RunFailed, err
				}
				checkpoint = item.Position
				s.Checkpoint = checkpoint
				p.sendProgress(r.progress, checkpointUpdate(checkpoint, total))
			}
		}
	}

	if err := p.store.SetCheckpoint(0); err != nil {
		return models.RunFailed, err
	}
	s.Checkpoint = 0
	return models.RunCompleted, nil
}

// abort maps a fatal error to a terminal status, preferring interruption when ctx is done.
func (p *Pipeline) abort(ctx context.Context, err error) (models.RunStatus, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.RunInterrupted, ctxErr
	}
	return models.RunFailed, err
}

// process handles one item. It returns an error only for store failures and cancellation;
// item failures go to the skip set.
func (p *Pipeline) process(ctx context.Context, r *run, item models.CollectionItem, total int) error {
	s := r.summary
	logger := shared.WithLogger(r.logger, "release_id", item.ReleaseID, "position", item.Position)

	p.sendProgress(r.progress, itemUpdate(CacheCheck, item, total, "checking store"))
	skipped, err := p.store.IsSkipped(item.ReleaseID)
	if err != nil {
		return err
	}
	if skipped {
		logger.Debug("release is in the skip set")
		s.Skipped = append(s.Skipped, item.ReleaseID)
		return nil
	}
	cached, err := p.store.HasRelease(item.ReleaseID)
	if err != nil {
		return err
	}
	if cached {
		logger.Debug("release already stored")
		s.Cached = append(s.Cached, item.ReleaseID)
		return p.handOffCached(r, logger, item.ReleaseID)
	}

	p.sendProgress(r.progress, itemUpdate(Fetching, item, total, "fetching release"))
	raw, err := p.catalog.Release(ctx, item.ReleaseID)
	if err != nil {
		return p.skip(ctx, r, logger, item, total, err)
	}
	release, err := normalize.Release(item, raw)
	if err != nil {
		return p.skip(ctx, r, logger, item, total, err)
	}

	var blocks []models.EnrichmentBlock
	various := shared.ContainsFold(release.ArtistName, p.opts.VariousMarkers)
	if various {
		logger.Debug("various artists release, skipping lookups", "artist", release.ArtistName)
	} else {
		p.sendProgress(r.progress, itemUpdate(Enriching, item, total, release.ArtistName+" - "+release.Title))
		blocks, err = p.enrich(ctx, r, logger, SubjectRelease, release.ReleaseID, release.ArtistName+" "+release.Title,
			func(e services.Enricher) (services.ProviderResult, error) {
				return e.SearchAlbum(ctx, release.ArtistName, release.Title)
			})
		if err != nil {
			return err
		}
	}

	merged := p.opts.Policy.Release(release, blocks)

	if !various && release.ArtistID > 0 {
		artist, err := p.contributor(ctx, r, logger, release.ArtistID)
		if err != nil {
			return err
		}
		merged.Artist = artist
	}

	if err := p.store.PutRelease(merged); err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return p.skip(ctx, r, logger, item, total, err)
		}
		return err
	}
	s.Fetched = append(s.Fetched, item.ReleaseID)
	p.sendProgress(r.progress, persistedUpdate(item, total, merged))

	p.emitRelease(logger, merged)
	return nil
}

// handOffCached passes a stored release and its contributor to the emitter, so a cached item
// reaches the renderer the same way a fetched one does. It makes no network calls.
func (p *Pipeline) handOffCached(r *run, logger *log.Logger, id int64) error {
	if p.opts.Emitter == nil {
		return nil
	}

	release, err := p.store.GetRelease(id)
	if err != nil {
		if errors.Is(err, shared.ErrStoreUnavailable) {
			return err
		}
		logger.Warn("stored release cannot be handed off", "reason", err)
		return nil
	}
	p.emitRelease(logger, release)

	if release.Artist == nil || release.Artist.ID <= 0 {
		return nil
	}
	artist := release.Artist
	if c, ok := r.artists.Lookup(artist.ID); ok {
		if c != nil {
			artist = c
		}
	} else {
		stored, err := p.store.GetContributor(artist.ID)
		switch {
		case err == nil:
			r.artists.Remember(artist.ID, stored)
			artist = stored
		case errors.Is(err, shared.ErrStoreUnavailable):
			return err
		default:
			logger.Debug("handing off the artist copy kept on the release", "artist_id", artist.ID, "reason", err)
		}
	}
	p.emitContributor(r, logger, artist)
	return nil
}

func (p *Pipeline) emitRelease(logger *log.Logger, rel *models.Release) {
	if p.opts.Emitter == nil {
		return
	}
	if err := p.opts.Emitter.EmitRelease(rel); err != nil {
		logger.Warn("failed to hand off release", "slug", rel.Slug, "error", err)
	}
}

// emitContributor hands c to the emitter at most once per run.
func (p *Pipeline) emitContributor(r *run, logger *log.Logger, c *models.Contributor) {
	if p.opts.Emitter == nil || c == nil || !r.artists.FirstHandoff(c.ID) {
		return
	}
	if err := p.opts.Emitter.EmitContributor(c); err != nil {
		logger.Warn("failed to hand off artist", "slug", c.Slug, "error", err)
	}
}

// skip isolates a failed item: it is logged, added to the skip set and the walk moves on.
func (p *Pipeline) skip(ctx context.Context, r *run, logger *log.Logger, item models.CollectionItem, total int, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if errors.Is(cause, shared.ErrStoreUnavailable) {
		return cause
	}

	if shared.IsItemFailure(cause) {
		logger.Warn("skipping release", "reason", cause)
	} else {
		logger.Error("skipping release after unexpected error", "reason", cause)
	}

	if err := p.store.MarkSkipped(item.ReleaseID, cause.Error()); err != nil {
		return err
	}
	r.summary.fail(item, cause)
	p.sendProgress(r.progress, failedUpdate(item, total, cause))
	return nil
}

// contributor resolves the release artist once per run. A contributor already in the store is
// reused as is and an unreadable stored row is fetched again. A failed catalog lookup degrades to
// no contributor.
func (p *Pipeline) contributor(ctx context.Context, r *run, logger *log.Logger, id int64) (*models.Contributor, error) {
	if c, ok := r.artists.Lookup(id); ok {
		return c, nil
	}

	stored, err := p.store.GetContributor(id)
	switch {
	case err == nil:
		r.artists.Remember(id, stored)
		p.emitContributor(r, logger, stored)
		return stored, nil
	case errors.Is(err, shared.ErrStoreUnavailable):
		return nil, err
	case !errors.Is(err, shared.ErrRecordNotFound):
		logger.Warn("stored artist is unreadable, fetching it again", "artist_id", id, "reason", err)
	}

	var c *models.Contributor
	raw, err := p.catalog.Artist(ctx, id)
	if err == nil {
		c, err = normalize.Artist(raw)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("artist lookup degraded", "artist_id", id, "reason", err)
		r.summary.degrade(models.ProviderDiscogs, SubjectArtist, id, "", err)
		r.artists.Remember(id, nil)
		return nil, nil
	}

	blocks, err := p.enrich(ctx, r, logger, SubjectArtist, id, c.Name,
		func(e services.Enricher) (services.ProviderResult, error) {
			return e.SearchArtist(ctx, c.Name)
		})
	if err != nil {
		return nil, err
	}

	merged := p.opts.Policy.Contributor(c, blocks)
	if err := p.store.PutContributor(merged); err != nil {
		if !errors.Is(err, shared.ErrInvalidInput) {
			return nil, err
		}
		logger.Warn("artist record rejected", "artist_id", id, "reason", err)
		r.summary.degrade(models.ProviderDiscogs, SubjectArtist, id, c.Name, err)
		r.artists.Remember(id, nil)
		return nil, nil
	}

	r.artists.Remember(id, merged)
	r.summary.Contributors = append(r.summary.Contributors, id)
	p.emitContributor(r, logger, merged)
	return merged, nil
}

// enrich asks every enricher in order. A miss is recorded as unresolved and any other failure
// as degraded; neither stops the item.
func (p *Pipeline) enrich(
	ctx context.Context,
	r *run,
	logger *log.Logger,
	subject string,
	id int64,
	query string,
	search func(services.Enricher) (services.ProviderResult, error),
) ([]models.EnrichmentBlock, error) {
	blocks := make([]models.EnrichmentBlock, 0, len(p.enrichers))
	for _, e := range p.enrichers {
		block, err := lookup(e, search)
		if err == nil {
			blocks = append(blocks, block)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, shared.ErrNotFound) {
			logger.Debug("no match", "provider", e.Name(), "subject", subject, "query", query)
			r.summary.unresolved(e.Name(), subject, id, query)
			continue
		}
		logger.Warn("enrichment degraded", "provider", e.Name(), "subject", subject, "reason", err)
		r.summary.degrade(e.Name(), subject, id, query, err)
	}
	return blocks, nil
}

func lookup(e services.Enricher, search func(services.Enricher) (services.ProviderResult, error)) (models.EnrichmentBlock, error) {
	result, err := search(e)
	if err != nil {
		return models.EnrichmentBlock{}, err
	}
	return normalize.Enrichment(result)
}

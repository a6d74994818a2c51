package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// storeErr marks a database failure as [shared.ErrStoreUnavailable].
func storeErr(action string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrStoreUnavailable, err)
}

// notFound reports whether err is the no-rows result of a single-row query.
func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// likePattern builds a LIKE argument matching query anywhere, case-insensitively in SQLite.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}

// Store groups the repositories over one database.
type Store struct {
	db           *sql.DB
	Releases     *ReleaseRepository
	Contributors *ContributorRepository
	Skips        *SkipRepository
	Checkpoints  *CheckpointRepository
	Runs         *RunRepository
}

// NewStore creates a Store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Releases:     NewReleaseRepository(db),
		Contributors: NewContributorRepository(db),
		Skips:        NewSkipRepository(db),
		Checkpoints:  NewCheckpointRepository(db),
		Runs:         NewRunRepository(db),
	}
}

// DB exposes the underlying handle, mostly for closing.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies the database is reachable.
func (s *Store) Ping() error {
	if err := s.db.Ping(); err != nil {
		return storeErr("reach database", err)
	}
	return nil
}

// GetRelease returns the stored release or [shared.ErrRecordNotFound].
func (s *Store) GetRelease(id int64) (*models.Release, error) { return s.Releases.Get(id) }

// HasRelease reports whether a record exists for id.
func (s *Store) HasRelease(id int64) (bool, error) { return s.Releases.Exists(id) }

// PutRelease overwrites the whole record for r.ReleaseID.
func (s *Store) PutRelease(r *models.Release) error { return s.Releases.Put(r) }

// GetContributor returns the stored contributor or [shared.ErrRecordNotFound].
func (s *Store) GetContributor(id int64) (*models.Contributor, error) {
	return s.Contributors.Get(id)
}

// PutContributor overwrites the whole record for c.ID.
func (s *Store) PutContributor(c *models.Contributor) error { return s.Contributors.Put(c) }

// IsSkipped reports whether id is in the skip set.
func (s *Store) IsSkipped(id int64) (bool, error) { return s.Skips.Contains(id) }

// MarkSkipped adds id to the skip set.
func (s *Store) MarkSkipped(id int64, reason string) error { return s.Skips.Add(id, reason) }

// Checkpoint returns the stored walk position.
func (s *Store) Checkpoint() (int, error) { return s.Checkpoints.Get() }

// SetCheckpoint stores the walk position.
func (s *Store) SetCheckpoint(position int) error { return s.Checkpoints.Set(position) }

// ListReleases returns releases whose title or artist contains query, ordered by id.
// A limit of zero returns everything.
func (s *Store) ListReleases(query string, limit, offset int) ([]*models.Release, error) {
	return s.Releases.List(map[string]any{"query": query, "limit": limit, "offset": offset})
}

// ListSkips returns the skip set.
func (s *Store) ListSkips() ([]models.SkipEntry, error) { return s.Skips.List() }

// ClearSkip removes id from the skip set or returns [shared.ErrRecordNotFound].
func (s *Store) ClearSkip(id int64) error { return s.Skips.Remove(id) }

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// RunRepository persists [models.SyncRun] history rows.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, started_at, finished_at, status, total, processed,
	cached, skipped, failed, checkpoint, error
`

// Create inserts a new run, generating its id when empty.
func (r *RunRepository) Create(run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}

	query := `INSERT INTO sync_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID,
		run.StartedAt,
		nullTime(run.FinishedAt),
		string(run.Status),
		run.Total,
		run.Processed,
		run.Cached,
		run.Skipped,
		run.Failed,
		run.Checkpoint,
		run.Error,
	)
	if err != nil {
		return storeErr("insert run", err)
	}
	return nil
}

// Update writes the mutable columns of an existing run.
func (r *RunRepository) Update(run *models.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET finished_at = ?, status = ?, total = ?, processed = ?, cached = ?,
			skipped = ?, failed = ?, checkpoint = ?, error = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullTime(run.FinishedAt),
		string(run.Status),
		run.Total,
		run.Processed,
		run.Cached,
		run.Skipped,
		run.Failed,
		run.Checkpoint,
		run.Error,
		run.ID,
	)
	if err != nil {
		return storeErr("update run", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", run.ID, shared.ErrRecordNotFound)
	}
	return nil
}

// Get retrieves a run by id.
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// Latest returns the most recently started run.
func (r *RunRepository) Latest() (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs ORDER BY started_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query))
}

// List returns up to limit runs, newest first. A non-positive limit returns all of them.
func (r *RunRepository) List(limit int) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storeErr("query runs", err)
	}
	defer rows.Close()

	runs := []*models.SyncRun{}
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// scanOne scans a single [sql.Row] into a [models.SyncRun]
func (r *RunRepository) scanOne(row *sql.Row) (*models.SyncRun, error) {
	run, err := scanRun(row.Scan)
	if notFound(err) {
		return nil, fmt.Errorf("run: %w", shared.ErrRecordNotFound)
	}
	return run, err
}

// scanRow scans a row from [sql.Rows] into a [models.SyncRun]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.SyncRun, error) {
	return scanRun(rows.Scan)
}

func scanRun(scan func(dest ...any) error) (*models.SyncRun, error) {
	var (
		run        models.SyncRun
		status     string
		finishedAt sql.NullTime
	)

	err := scan(
		&run.ID, &run.StartedAt, &finishedAt, &status, &run.Total, &run.Processed,
		&run.Cached, &run.Skipped, &run.Failed, &run.Checkpoint, &run.Error,
	)
	if notFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, storeErr("scan run", err)
	}

	run.Status = models.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

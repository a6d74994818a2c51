package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/shared"
)

// CheckpointRepository reads and writes the single-row checkpoint table.
type CheckpointRepository struct {
	db *sql.DB
}

// NewCheckpointRepository creates a new CheckpointRepository with the given database connection
func NewCheckpointRepository(db *sql.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// Get returns the stored position, zero when none was ever written.
func (r *CheckpointRepository) Get() (int, error) {
	var position int
	err := r.db.QueryRow("SELECT position FROM checkpoint WHERE id = 1").Scan(&position)
	if notFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("get checkpoint", err)
	}
	return position, nil
}

// Set stores the position.
func (r *CheckpointRepository) Set(position int) error {
	if position < 0 {
		return fmt.Errorf("%w: checkpoint cannot be negative, got %d", shared.ErrInvalidInput, position)
	}
	query := `
		INSERT INTO checkpoint (id, position, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, position, time.Now().UTC()); err != nil {
		return storeErr("set checkpoint", err)
	}
	return nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// SkipRepository manages the skip_releases table.
type SkipRepository struct {
	db *sql.DB
}

// NewSkipRepository creates a new SkipRepository with the given database connection
func NewSkipRepository(db *sql.DB) *SkipRepository {
	return &SkipRepository{db: db}
}

// Contains reports whether id is in the skip set.
func (r *SkipRepository) Contains(id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM skip_releases WHERE release_id = ?)", id).Scan(&exists)
	if err != nil {
		return false, storeErr("check skip set", err)
	}
	return exists, nil
}

// Add puts id in the skip set. Adding an id twice keeps the original timestamp and the latest reason.
func (r *SkipRepository) Add(id int64, reason string) error {
	query := `
		INSERT INTO skip_releases (release_id, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(release_id) DO UPDATE SET reason = excluded.reason
	`
	if _, err := r.db.Exec(query, id, reason, time.Now().UTC()); err != nil {
		return storeErr("mark skipped", err)
	}
	return nil
}

// Remove clears id from the skip set.
func (r *SkipRepository) Remove(id int64) error {
	result, err := r.db.Exec("DELETE FROM skip_releases WHERE release_id = ?", id)
	if err != nil {
		return storeErr("clear skipped", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("skip entry %d: %w", id, shared.ErrRecordNotFound)
	}
	return nil
}

// List returns every skip entry, oldest first.
func (r *SkipRepository) List() ([]models.SkipEntry, error) {
	rows, err := r.db.Query("SELECT release_id, reason, created_at FROM skip_releases ORDER BY created_at ASC, release_id ASC")
	if err != nil {
		return nil, storeErr("query skip set", err)
	}
	defer rows.Close()

	entries := []models.SkipEntry{}
	for rows.Next() {
		var e models.SkipEntry
		if err := rows.Scan(&e.ReleaseID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, storeErr("scan skip entry", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate skip set", err)
	}
	return entries, nil
}

// Count returns the size of the skip set.
func (r *SkipRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM skip_releases").Scan(&n); err != nil {
		return 0, storeErr("count skip set", err)
	}
	return n, nil
}

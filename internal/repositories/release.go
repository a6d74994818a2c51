package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// ReleaseRepository persists [models.Release] documents in the releases table.
type ReleaseRepository struct {
	db *sql.DB
}

// NewReleaseRepository creates a new ReleaseRepository with the given database connection
func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

// Get retrieves a release by catalog id.
func (r *ReleaseRepository) Get(id int64) (*models.Release, error) {
	var data string
	err := r.db.QueryRow("SELECT data FROM releases WHERE release_id = ?", id).Scan(&data)
	if notFound(err) {
		return nil, fmt.Errorf("release %d: %w", id, shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, storeErr("get release", err)
	}
	return decodeRelease(data)
}

// Exists reports whether a release row is present without decoding it.
func (r *ReleaseRepository) Exists(id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM releases WHERE release_id = ?)", id).Scan(&exists)
	if err != nil {
		return false, storeErr("check release", err)
	}
	return exists, nil
}

// Put inserts or replaces the whole document for release.ReleaseID.
func (r *ReleaseRepository) Put(release *models.Release) error {
	if err := release.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	release.Fill()

	data, err := json.Marshal(release)
	if err != nil {
		return fmt.Errorf("failed to encode release %d: %w", release.ReleaseID, err)
	}

	query := `
		INSERT INTO releases (release_id, slug, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(release_id) DO UPDATE SET
			slug = excluded.slug,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, release.ReleaseID, release.Slug, string(data), time.Now().UTC()); err != nil {
		return storeErr("put release", err)
	}
	return nil
}

// Delete removes a release. Operator action only; the pipeline never deletes.
func (r *ReleaseRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM releases WHERE release_id = ?", id)
	if err != nil {
		return storeErr("delete release", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("release %d: %w", id, shared.ErrRecordNotFound)
	}
	return nil
}

// Count returns the number of stored releases.
func (r *ReleaseRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM releases").Scan(&n); err != nil {
		return 0, storeErr("count releases", err)
	}
	return n, nil
}

// List retrieves releases ordered by id.
//
// Supported criteria: "query" (matched against title and artist name), "limit" and "offset".
func (r *ReleaseRepository) List(criteria map[string]any) ([]*models.Release, error) {
	query := "SELECT data FROM releases WHERE 1 = 1"
	args := []any{}

	if q, ok := criteria["query"].(string); ok && q != "" {
		query += ` AND (json_extract(data, '$.title') LIKE ? ESCAPE '\'
			OR json_extract(data, '$.artist_name') LIKE ? ESCAPE '\')`
		pattern := likePattern(q)
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY release_id ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset, ok := criteria["offset"].(int); ok && offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storeErr("query releases", err)
	}
	defer rows.Close()

	releases := []*models.Release{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, storeErr("scan release", err)
		}
		release, err := decodeRelease(data)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate releases", err)
	}

	return releases, nil
}

func decodeRelease(data string) (*models.Release, error) {
	var release models.Release
	if err := json.Unmarshal([]byte(data), &release); err != nil {
		return nil, fmt.Errorf("%w: stored release: %v", shared.ErrDataShape, err)
	}
	release.Fill()
	return &release, nil
}

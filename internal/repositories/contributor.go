package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// ContributorRepository persists [models.Contributor] documents in the contributors table.
type ContributorRepository struct {
	db *sql.DB
}

// NewContributorRepository creates a new ContributorRepository with the given database connection
func NewContributorRepository(db *sql.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

// Get retrieves a contributor by catalog artist id.
func (r *ContributorRepository) Get(id int64) (*models.Contributor, error) {
	var data string
	err := r.db.QueryRow("SELECT data FROM contributors WHERE contributor_id = ?", id).Scan(&data)
	if notFound(err) {
		return nil, fmt.Errorf("contributor %d: %w", id, shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, storeErr("get contributor", err)
	}

	var c models.Contributor
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("%w: stored contributor: %v", shared.ErrDataShape, err)
	}
	c.Fill()
	return &c, nil
}

// Put inserts or replaces the whole document for c.ID.
func (r *ContributorRepository) Put(c *models.Contributor) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	c.Fill()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode contributor %d: %w", c.ID, err)
	}

	query := `
		INSERT INTO contributors (contributor_id, slug, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(contributor_id) DO UPDATE SET
			slug = excluded.slug,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, c.ID, c.Slug, string(data), time.Now().UTC()); err != nil {
		return storeErr("put contributor", err)
	}
	return nil
}

// Count returns the number of stored contributors.
func (r *ContributorRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM contributors").Scan(&n); err != nil {
		return 0, storeErr("count contributors", err)
	}
	return n, nil
}

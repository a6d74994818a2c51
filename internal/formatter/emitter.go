package formatter

import (
	"fmt"
	"path/filepath"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// DirEmitter hands persisted records to a site generator as JSON files:
// {dir}/releases/{slug}.json and {dir}/artists/{slug}.json.
type DirEmitter struct {
	dir string
}

// NewDirEmitter creates an emitter rooted at dir. Subdirectories are created on first write.
func NewDirEmitter(dir string) (*DirEmitter, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: emit directory", shared.ErrMissingArgument)
	}
	return &DirEmitter{dir: dir}, nil
}

// Dir returns the root directory.
func (e *DirEmitter) Dir() string { return e.dir }

// ReleasePath is where the release with slug is written.
func (e *DirEmitter) ReleasePath(slug string) string {
	return filepath.Join(e.dir, "releases", slug+".json")
}

// ArtistPath is where the contributor with slug is written.
func (e *DirEmitter) ArtistPath(slug string) string {
	return filepath.Join(e.dir, "artists", slug+".json")
}

func (e *DirEmitter) EmitRelease(r *models.Release) error {
	if r.Slug == "" {
		return fmt.Errorf("%w: release %d has no slug", shared.ErrInvalidInput, r.ReleaseID)
	}
	return e.write(e.ReleasePath(r.Slug), r)
}

func (e *DirEmitter) EmitContributor(c *models.Contributor) error {
	if c.Slug == "" {
		return fmt.Errorf("%w: artist %d has no slug", shared.ErrInvalidInput, c.ID)
	}
	return e.write(e.ArtistPath(c.Slug), c)
}

func (e *DirEmitter) write(path string, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

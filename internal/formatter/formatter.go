// package formatter renders stored records for export (JSON, YAML, CSV, Markdown) and for the terminal
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the values accepted by [Export].
var Formats = []string{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown}

var csvHeaders = []string{
	"release_id", "slug", "artist", "title", "year", "label", "catalog_number",
	"genres", "styles", "formats", "rating", "date_added", "cover_url", "release_url",
}

// Export renders releases in the named format.
func Export(releases []*models.Release, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return ExportToJSON(releases)
	case FormatYAML, "yml":
		return ExportToYAML(releases)
	case FormatCSV:
		return ExportToCSV(releases)
	case FormatMarkdown, "md":
		var buf bytes.Buffer
		for i, r := range releases {
			if i > 0 {
				buf.WriteString("\n---\n\n")
			}
			buf.Write(ExportToMarkdown(r))
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// ExportToJSON renders releases as an indented JSON array.
func ExportToJSON(releases []*models.Release) ([]byte, error) {
	if releases == nil {
		releases = []*models.Release{}
	}
	return shared.MarshalJSON(releases, true)
}

// ExportToYAML renders releases as a YAML sequence using the same keys as the JSON form.
func ExportToYAML(releases []*models.Release) ([]byte, error) {
	data, err := ExportToJSON(releases)
	if err != nil {
		return nil, err
	}

	var doc []any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to prepare YAML document: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV flattens releases into one row each. List fields are joined with "; ".
func ExportToCSV(releases []*models.Release) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range releases {
		formats := make([]string, 0, len(r.Formats))
		for _, f := range r.Formats {
			formats = append(formats, f.Name)
		}
		record := []string{
			strconv.FormatInt(r.ReleaseID, 10),
			r.Slug,
			r.ArtistName,
			r.Title,
			yearString(r.ReleaseYear),
			r.Label,
			r.CatalogNumber,
			strings.Join(r.Genres, "; "),
			strings.Join(r.Styles, "; "),
			strings.Join(formats, "; "),
			strconv.Itoa(r.Rating),
			r.DateAdded,
			r.CoverURL,
			r.ReleaseURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders one release as a page with cover, track list, notes and sources.
func ExportToMarkdown(r *models.Release) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s - %s\n\n", r.ArtistName, r.Title)

	if r.CoverURL != "" && r.CoverURL != models.MissingCoverURL {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", r.CoverURL)
	}

	if y := yearString(r.ReleaseYear); y != "" {
		fmt.Fprintf(&buf, "**Year**: %s\n", y)
	}
	if r.Label != "" {
		fmt.Fprintf(&buf, "**Label**: %s", r.Label)
		if r.CatalogNumber != "" {
			fmt.Fprintf(&buf, " (%s)", r.CatalogNumber)
		}
		buf.WriteString("\n")
	}
	if len(r.Genres) > 0 {
		fmt.Fprintf(&buf, "**Genres**: %s\n", strings.Join(r.Genres, ", "))
	}
	if len(r.Styles) > 0 {
		fmt.Fprintf(&buf, "**Styles**: %s\n", strings.Join(r.Styles, ", "))
	}
	buf.WriteString("\n")

	if len(r.Tracks) > 0 {
		buf.WriteString("## Tracks\n\n")
		for _, t := range r.Tracks {
			duration := ""
			if t.Duration != "" {
				duration = fmt.Sprintf(" [%s]", t.Duration)
			}
			fmt.Fprintf(&buf, "- %s %s%s\n", t.Position, t.Title, duration)
		}
		buf.WriteString("\n")
	}

	if r.Notes != "" {
		fmt.Fprintf(&buf, "## Notes\n\n%s\n\n", r.Notes)
	}

	if len(r.Enrichments) > 0 {
		buf.WriteString("## Sources\n\n")
		if r.ReleaseURL != "" {
			fmt.Fprintf(&buf, "- discogs: %s\n", r.ReleaseURL)
		}
		for _, provider := range slices.Sorted(maps.Keys(r.Enrichments)) {
			b := r.Enrichments[provider]
			if b.URL != "" {
				fmt.Fprintf(&buf, "- %s: %s\n", provider, b.URL)
			} else {
				fmt.Fprintf(&buf, "- %s: %s\n", provider, b.Name)
			}
		}
	}

	return buf.Bytes()
}

// WriteExport renders releases and writes them to path, creating parent directories.
func WriteExport(releases []*models.Release, format, path string) (string, error) {
	data, err := Export(releases, format)
	if err != nil {
		return "", err
	}
	if path == "" {
		ext := format
		if format == FormatMarkdown {
			ext = "md"
		}
		path = "crates_export." + ext
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes through a temp file and rename so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

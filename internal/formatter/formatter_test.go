package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
	th "github.com/desertthunder/crates/internal/testing"
)

func sampleReleases() []*models.Release {
	return []*models.Release{
		{
			ReleaseID:     101,
			Slug:          "nevermind-101",
			Title:         "Nevermind",
			ArtistName:    "Nirvana",
			ArtistID:      1,
			Genres:        []string{"Rock"},
			Styles:        []string{"Grunge", "Alternative Rock"},
			Label:         "DGC",
			CatalogNumber: "DGC-24425",
			Formats:       []models.Format{{Name: "Vinyl", Qty: "1"}},
			ReleaseYear:   1991,
			Rating:        5,
			Tracks: []models.Track{
				{Position: "A1", Title: "Smells Like Teen Spirit", Duration: "5:01"},
				{Position: "A2", Title: "In Bloom"},
			},
			CoverURL:   "https://img.example/101.jpg",
			ReleaseURL: "https://www.discogs.com/release/101",
			Notes:      "Second studio album, with **Butch Vig**.",
			Enrichments: map[string]models.EnrichmentBlock{
				models.ProviderSpotify:    {Provider: models.ProviderSpotify, Name: "Nevermind", URL: "https://open.spotify.com/album/x"},
				models.ProviderAppleMusic: {Provider: models.ProviderAppleMusic, Name: "Nevermind"},
			},
		},
		{
			ReleaseID:  102,
			Slug:       "dummy-102",
			Title:      "Dummy, Deluxe",
			ArtistName: "Portishead",
			CoverURL:   models.MissingCoverURL,
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleReleases())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []models.Release
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Title != "Nevermind" {
			t.Errorf("unexpected releases %+v", decoded)
		}
		if !strings.Contains(string(data), "\n  {") {
			t.Errorf("expected indented output")
		}
	})

	t.Run("ExportToJSON Empty", func(t *testing.T) {
		data, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("ExportToYAML Uses JSON Keys", func(t *testing.T) {
		data, err := ExportToYAML(sampleReleases())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		var decoded []map[string]any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid YAML: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 documents, got %d", len(decoded))
		}
		if decoded[0]["artist_name"] != "Nirvana" {
			t.Errorf("expected artist_name key, got %v", decoded[0])
		}
		if _, ok := decoded[0]["ArtistName"]; ok {
			t.Errorf("Go field names must not leak into YAML")
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleReleases())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != strings.Join(csvHeaders, ",") {
			t.Errorf("unexpected headers %v", records[0])
		}

		first := records[1]
		if first[0] != "101" || first[3] != "Nevermind" || first[4] != "1991" {
			t.Errorf("unexpected first row %v", first)
		}
		if first[8] != "Grunge; Alternative Rock" {
			t.Errorf("expected joined styles, got %q", first[8])
		}
		if records[2][3] != "Dummy, Deluxe" {
			t.Errorf("comma in title should survive quoting, got %q", records[2][3])
		}
		if records[2][4] != "" {
			t.Errorf("missing year should be empty, got %q", records[2][4])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		releases := sampleReleases()
		output := string(ExportToMarkdown(releases[0]))

		for _, want := range []string{
			"# Nirvana - Nevermind",
			"![Cover](https://img.example/101.jpg)",
			"**Label**: DGC (DGC-24425)",
			"- A1 Smells Like Teen Spirit [5:01]",
			"- A2 In Bloom\n",
			"## Notes",
			"- apple_music: Nevermind",
			"- spotify: https://open.spotify.com/album/x",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q:\n%s", want, output)
			}
		}
		if strings.Index(output, "apple_music") > strings.Index(output, "spotify:") {
			t.Errorf("sources should be sorted")
		}

		missing := string(ExportToMarkdown(releases[1]))
		if strings.Contains(missing, "![Cover]") {
			t.Errorf("missing-cover sentinel should not be rendered")
		}
	})

	t.Run("Export Dispatch", func(t *testing.T) {
		tests := []struct {
			format string
			prefix string
		}{
			{FormatJSON, "["},
			{FormatYAML, "- "},
			{"yml", "- "},
			{FormatCSV, "release_id,"},
			{FormatMarkdown, "# Nirvana"},
			{"MD", "# Nirvana"},
		}
		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				data, err := Export(sampleReleases(), tt.format)
				if err != nil {
					t.Fatalf("Export(%s) failed: %v", tt.format, err)
				}
				if !strings.HasPrefix(string(data), tt.prefix) {
					t.Errorf("expected prefix %q, got %q", tt.prefix, string(data)[:min(len(data), 20)])
				}
			})
		}

		if _, err := Export(sampleReleases(), "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes Nested Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "collection.csv")

		written, err := WriteExport(sampleReleases(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		th.AssertFileExists(t, path)
		if !strings.HasPrefix(th.MustReadFile(t, path), "release_id,") {
			t.Errorf("unexpected file content")
		}
	})

	t.Run("Default Filename", func(t *testing.T) {
		orig := th.MustGetwd(t)
		defer th.MustChdir(t, orig)
		th.MustChdir(t, t.TempDir())

		written, err := WriteExport(sampleReleases(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "crates_export.md" {
			t.Errorf("expected crates_export.md, got %s", written)
		}
		th.AssertFileExists(t, written)
	})

	t.Run("Unknown Format Writes Nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		if _, err := WriteExport(sampleReleases(), "xml", path); err == nil {
			t.Fatalf("expected error")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("no file should be written on error")
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := WriteExport(sampleReleases(), FormatJSON, filepath.Join(dir, "a.json")); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "a.json" {
			t.Errorf("expected only a.json, got %v", entries)
		}
	})
}

func TestDirEmitter(t *testing.T) {
	t.Run("Requires Directory", func(t *testing.T) {
		if _, err := NewDirEmitter(""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Writes Release And Artist", func(t *testing.T) {
		dir := t.TempDir()
		e, err := NewDirEmitter(dir)
		if err != nil {
			t.Fatalf("NewDirEmitter failed: %v", err)
		}

		release := sampleReleases()[0]
		if err := e.EmitRelease(release); err != nil {
			t.Fatalf("EmitRelease failed: %v", err)
		}
		artist := &models.Contributor{ID: 1, Name: "Nirvana", Slug: "nirvana"}
		if err := e.EmitContributor(artist); err != nil {
			t.Fatalf("EmitContributor failed: %v", err)
		}

		releasePath := filepath.Join(dir, "releases", "nevermind-101.json")
		th.AssertFileExists(t, releasePath)
		th.AssertFileExists(t, filepath.Join(dir, "artists", "nirvana.json"))

		var decoded models.Release
		if err := json.Unmarshal([]byte(th.MustReadFile(t, releasePath)), &decoded); err != nil {
			t.Fatalf("emitted release is not JSON: %v", err)
		}
		if decoded.ReleaseID != 101 || decoded.Slug != "nevermind-101" {
			t.Errorf("unexpected release %+v", decoded)
		}
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		e, _ := NewDirEmitter(t.TempDir())
		release := sampleReleases()[0]
		if err := e.EmitRelease(release); err != nil {
			t.Fatalf("EmitRelease failed: %v", err)
		}
		release.Title = "Nevermind (Remaster)"
		if err := e.EmitRelease(release); err != nil {
			t.Fatalf("EmitRelease failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, e.ReleasePath(release.Slug)), "Remaster") {
			t.Errorf("expected second write to win")
		}
	})

	t.Run("Rejects Missing Slug", func(t *testing.T) {
		e, _ := NewDirEmitter(t.TempDir())
		if err := e.EmitRelease(&models.Release{ReleaseID: 9}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := e.EmitContributor(&models.Contributor{ID: 9}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestRenderTable(t *testing.T) {
	t.Run("Renders Headers And Rows", func(t *testing.T) {
		out := RenderTable([]string{"ID", "Title"}, [][]string{{"101", "Nevermind"}, {"102"}}, []Alignment{AlignRight})
		for _, want := range []string{"ID", "TITLE", "101", "Nevermind", "102", "╭"} {
			if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
				t.Errorf("table missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("No Headers", func(t *testing.T) {
		if out := RenderTable(nil, [][]string{{"x"}}, nil); out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})

	t.Run("Key Values Keep Order", func(t *testing.T) {
		out := RenderKeyValues([][2]string{{"status", "completed"}, {"checkpoint", "0"}})
		if strings.Index(out, "status") > strings.Index(out, "checkpoint") {
			t.Errorf("pairs should keep their order:\n%s", out)
		}
	})
}

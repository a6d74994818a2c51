package shared

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nirvana", "nirvana"},
		{"Nirvana (2)", "nirvana"},
		{"The Jesus And Mary Chain", "the-jesus-and-mary-chain"},
		{"Björk", "bjork"},
		{"Sigur Rós", "sigur-ros"},
		{"AC/DC", "ac-dc"},
		{"  --Hello, World!--  ", "hello-world"},
		{"Motörhead (12)", "motorhead"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeArtistName(t *testing.T) {
	if got := SanitizeArtistName("Nirvana (2)"); got != "Nirvana" {
		t.Errorf("expected Nirvana, got %q", got)
	}
	if got := SanitizeArtistName("Sunn O)))"); got != "Sunn O)))" {
		t.Errorf("non-numeric suffix should survive, got %q", got)
	}
}

func TestTidyText(t *testing.T) {
	t.Run("BBCode", func(t *testing.T) {
		got := TidyText("[b]Loud[/b] band from [i]Seattle[/i] featuring [a=Kurt Cobain].")
		want := "**Loud** band from *Seattle* featuring Kurt Cobain."
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("Numeric References Dropped", func(t *testing.T) {
		got := TidyText("Produced with [a123456] at [url=http://example.com]the studio[/url].")
		if strings.Contains(got, "[") {
			t.Errorf("tags should be removed, got %q", got)
		}
		if !strings.Contains(got, "the studio") {
			t.Errorf("url text should be kept, got %q", got)
		}
	})

	t.Run("HTML", func(t *testing.T) {
		got := TidyText("<p>An <b>essential</b> record.</p>")
		if strings.Contains(got, "<") {
			t.Errorf("html should be converted, got %q", got)
		}
		if !strings.Contains(got, "essential") {
			t.Errorf("text should be kept, got %q", got)
		}
	})

	t.Run("Whitespace", func(t *testing.T) {
		got := TidyText("one\r\n\r\n\r\ntwo   three  ")
		if got != "one\n\ntwo three" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := TidyText("   "); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"html", "<p>Rock &amp; roll</p>", "Rock & roll"},
		{"bbcode", "[b]bold[/b] move", "bold move"},
		{"markdown emphasis", "**bold** and *italic*", "bold and italic"},
		{"whitespace", "a\n\n  b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("NormalizedLength ignores markup", func(t *testing.T) {
		if NormalizedLength("<b>abc</b>") != NormalizedLength("abc") {
			t.Error("markup should not count toward length")
		}
	})
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Various Artists", []string{"various"}) {
		t.Error("expected match ignoring case")
	}
	if ContainsFold("Nirvana", []string{"various", ""}) {
		t.Error("unexpected match")
	}
}

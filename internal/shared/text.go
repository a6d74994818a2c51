package shared

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disambiguationSuffix = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	nonSlugChars         = regexp.MustCompile(`[^a-z0-9]+`)
	htmlTag              = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

	bbBold      = regexp.MustCompile(`(?is)\[b\](.*?)\[/b\]`)
	bbItalic    = regexp.MustCompile(`(?is)\[i\](.*?)\[/i\]`)
	bbUnderline = regexp.MustCompile(`(?is)\[u\](.*?)\[/u\]`)
	bbURL       = regexp.MustCompile(`(?is)\[url=[^\]]*\](.*?)\[/url\]`)
	bbNamedRef  = regexp.MustCompile(`\[[alm]=([^\]]+)\]`)
	bbAnyTag    = regexp.MustCompile(`\[[^\]]*\]`)

	emphasisRun   = regexp.MustCompile(`[*_]{1,3}`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
	spaceRun      = regexp.MustCompile(`[ \t]{2,}`)
	anyWhitespace = regexp.MustCompile(`\s+`)

	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeArtistName removes the Discogs disambiguation suffix, e.g. "Nirvana (2)" -> "Nirvana".
func SanitizeArtistName(name string) string {
	return strings.TrimSpace(disambiguationSuffix.ReplaceAllString(name, ""))
}

// Slugify converts text into a URL-safe slug.
//
// Diacritics fold to ASCII, the disambiguation suffix is dropped and any run of other characters
// becomes a single hyphen. Two different names may produce the same slug.
func Slugify(text string) string {
	text = disambiguationSuffix.ReplaceAllString(text, "")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, text); err == nil {
		text = folded
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(slug, "-")
}

// HTMLToMarkdown converts an HTML fragment to markdown. Text without tags is returned trimmed.
func HTMLToMarkdown(s string) string {
	if !htmlTag.MatchString(s) {
		return strings.TrimSpace(s)
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil || strings.TrimSpace(md) == "" {
		return StripMarkup(s)
	}
	return strings.TrimSpace(md)
}

// TidyText turns provider narrative text (Discogs BBCode, Apple Music HTML) into plain markdown.
func TidyText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = HTMLToMarkdown(s)
	s = bbBold.ReplaceAllString(s, "**$1**")
	s = bbItalic.ReplaceAllString(s, "*$1*")
	s = bbUnderline.ReplaceAllString(s, "*$1*")
	s = bbURL.ReplaceAllString(s, "$1")
	s = bbNamedRef.ReplaceAllString(s, "$1")
	s = bbAnyTag.ReplaceAllString(s, "")
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripMarkup reduces text to its readable characters: no HTML, BBCode or emphasis markers,
// whitespace collapsed to single spaces.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	s = bbURL.ReplaceAllString(s, "$1")
	s = bbNamedRef.ReplaceAllString(s, "$1")
	s = bbAnyTag.ReplaceAllString(s, "")
	s = emphasisRun.ReplaceAllString(s, "")
	s = anyWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizedLength counts the runes left after [StripMarkup].
func NormalizedLength(s string) int {
	return utf8.RuneCountInString(StripMarkup(s))
}

// ContainsFold reports whether s contains any of the markers, ignoring case.
func ContainsFold(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Package catalog loads the artwork catalog into typed, immutable records and
// watches the catalog file for changes.
package catalog

import (
	"errors"
	"strings"
)

// ErrCatalog is returned when the catalog is missing, unreadable, or has no
// usable rows. It is fatal at startup.
var ErrCatalog = errors.New("catalog error")

// Artwork is one catalog row. Values are never mutated after Load.
type Artwork struct {
	// ID is the catalog identifier, or a deterministic UUID when the
	// catalog has no id column.
	ID string

	// Position is the zero-based row order among usable records. Retrieval
	// uses it to break score ties.
	Position int

	Title       string
	Artist      string
	Year        string
	Style       string
	Genre       string
	Description string
	ImageURL    string
}

// Label is the short citation used in prompts and listings.
func (a Artwork) Label() string {
	title := a.Title
	if title == "" {
		title = "Untitled"
	}
	if a.Artist == "" {
		return title
	}
	return title + " by " + a.Artist
}

// EmbeddingText renders the fixed template used to embed a record:
// "{title} by {artist} - {style} ({year}): {description}". Absent parts are
// omitted along with their punctuation.
func (a Artwork) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(a.Label())

	if a.Style != "" {
		b.WriteString(" - ")
		b.WriteString(a.Style)
	}
	if a.Year != "" {
		b.WriteString(" (")
		b.WriteString(a.Year)
		b.WriteString(")")
	}
	if a.Description != "" {
		b.WriteString(": ")
		b.WriteString(a.Description)
	}

	return strings.TrimSpace(b.String())
}

// ContextBlock renders the record for inclusion in a prompt.
func (a Artwork) ContextBlock() string {
	lines := make([]string, 0, 6)
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, key+": "+value)
		}
	}

	add("Title", a.Title)
	add("Artist", a.Artist)
	add("Year", a.Year)
	add("Style", a.Style)
	add("Genre", a.Genre)
	add("Description", a.Description)

	return strings.Join(lines, "\n")
}

// hasText reports whether the record carries any textual content worth
// indexing.
func (a Artwork) hasText() bool {
	return a.Title != "" || a.Description != ""
}

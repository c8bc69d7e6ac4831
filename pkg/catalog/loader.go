package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes derived record ids.
var idNamespace = uuid.MustParse("6f1c9a52-3f0e-4c51-9a55-7d0c6c7f1b2e")

// Options configures Load.
type Options struct {
	// Delimiter is the field separator. Defaults to ','.
	Delimiter rune

	// Logger receives warnings for skipped rows. Defaults to slog.Default().
	Logger *slog.Logger
}

// columns maps header names (lowercased) to record fields.
var columns = map[string]func(a *Artwork, v string){
	"id":          func(a *Artwork, v string) { a.ID = v },
	"title":       func(a *Artwork, v string) { a.Title = v },
	"artist":      func(a *Artwork, v string) { a.Artist = v },
	"year":        func(a *Artwork, v string) { a.Year = v },
	"date":        func(a *Artwork, v string) { a.Year = v },
	"style":       func(a *Artwork, v string) { a.Style = v },
	"genre":       func(a *Artwork, v string) { a.Genre = v },
	"description": func(a *Artwork, v string) { a.Description = v },
	"image_url":   func(a *Artwork, v string) { a.ImageURL = v },
	"image":       func(a *Artwork, v string) { a.ImageURL = v },
}

// Load reads the catalog at path and returns its usable records in file
// order. Rows with neither a title nor a description are skipped with a
// warning. A missing file, a header without title or description columns, or
// a catalog with zero usable rows fails with ErrCatalog.
func Load(path string, opts Options) ([]Artwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrCatalog, path, err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read parses catalog rows from r. See Load.
func Read(r io.Reader, opts Options) ([]Artwork, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: catalog is empty", ErrCatalog)
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrCatalog, err)
	}

	setters := make([]func(a *Artwork, v string), len(header))
	var hasTitle, hasDescription bool
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		setters[i] = columns[name]
		hasTitle = hasTitle || name == "title"
		hasDescription = hasDescription || name == "description"
	}
	if !hasTitle && !hasDescription {
		return nil, fmt.Errorf("%w: header has neither a title nor a description column", ErrCatalog)
	}

	var records []Artwork
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("skipping malformed catalog row", "line", line, "error", err)
			continue
		}

		var a Artwork
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&a, strings.TrimSpace(v))
			}
		}

		if !a.hasText() {
			log.Warn("skipping catalog row without textual content", "line", line)
			continue
		}

		a.Position = len(records)
		if a.ID == "" {
			a.ID = deriveID(a)
		}
		if prev, dup := seen[a.ID]; dup {
			log.Warn("duplicate catalog id, deriving a new one",
				"line", line,
				"id", a.ID,
				"first_position", prev,
			)
			a.ID = deriveID(a)
		}
		seen[a.ID] = a.Position

		records = append(records, a)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable rows", ErrCatalog)
	}

	return records, nil
}

// deriveID is stable across rebuilds of an unchanged catalog.
func deriveID(a Artwork) string {
	key := strconv.Itoa(a.Position) + "\x00" + a.Title + "\x00" + a.Artist
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Digest returns the hex SHA-256 of the catalog file. The persisted index
// records it to detect a changed catalog.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrCatalog, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: hashing %s: %v", ErrCatalog, path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

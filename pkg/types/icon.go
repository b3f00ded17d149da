package types

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCategory is applied to icons created without a category.
const DefaultCategory = "objects"

// Icon is a single stroke-based SVG icon record. The same shape is used for
// curated baseline records, model-generated records, the local snapshot file
// and the remote icons table.
type Icon struct {
	ID          string   `json:"id" yaml:"id"`                                       // Slug derived from the name; primary key everywhere
	Name        string   `json:"name" yaml:"name"`                                   // Display name, first letter capitalized
	Category    string   `json:"category" yaml:"category"`                           // Grouping label (default: objects)
	Tags        []string `json:"tags" yaml:"tags"`                                   // Search tags, order irrelevant
	Path        string   `json:"path" yaml:"path"`                                   // SVG path "d" attribute for a 24x24 viewBox
	Generated   bool     `json:"generated" yaml:"generated"`                         // True for model-produced records
	GeneratedAt int64    `json:"generatedAt,omitempty" yaml:"generatedAt,omitempty"` // Epoch milliseconds; zero for baseline records
}

var (
	// ErrMissingID indicates an icon record without an id.
	ErrMissingID = errors.New("icon id is required")

	// ErrMissingPath indicates an icon record without path data.
	ErrMissingPath = errors.New("icon path is required")

	// ErrInvalidID indicates an id containing characters outside [a-z0-9-].
	ErrInvalidID = errors.New("icon id must contain only lowercase letters, digits and hyphens")
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
	validSlug     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Slugify derives an icon id from a display name: lowercase, each run of
// whitespace becomes a single hyphen, and anything outside [a-z0-9-] is
// dropped. Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// Capitalize upper-cases the first letter of name and leaves the rest as is.
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Validate checks the fields a record needs before it can be persisted.
func (i *Icon) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrMissingID
	}
	if !validSlug.MatchString(i.ID) {
		return ErrInvalidID
	}
	if strings.TrimSpace(i.Path) == "" {
		return ErrMissingPath
	}
	return nil
}

// Normalize fills defaults that every stored record carries: the default
// category and a non-nil tag list.
func (i *Icon) Normalize() {
	if strings.TrimSpace(i.Category) == "" {
		i.Category = DefaultCategory
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
}

package compiler

import (
	"strings"

	"github.com/erraggy/refc/refcerrors"
)

// Format identifies which merge pipeline a base document uses.
type Format int

const (
	// FormatUnknown is the zero value.
	FormatUnknown Format = iota
	// FormatYAML selects the text (sentinel-splicing) pipeline.
	FormatYAML
	// FormatJSON selects the parsed-tree pipeline.
	FormatJSON
)

// String returns "yaml", "json" or "unknown".
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Extension returns the file extension scanned for this format, including
// the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatJSON:
		return ".json"
	default:
		return ""
	}
}

// Matches reports whether fileName carries this format's extension.
// The comparison ignores case and requires a non-empty stem.
func (f Format) Matches(fileName string) bool {
	ext := f.Extension()
	return ext != "" && hasExtFold(fileName, ext)
}

// DetectFormat returns the format for a base document file name.
func DetectFormat(fileName string) (Format, error) {
	for _, f := range []Format{FormatYAML, FormatJSON} {
		if f.Matches(fileName) {
			return f, nil
		}
	}
	return FormatUnknown, &refcerrors.UnsupportedFormatError{Path: fileName}
}

func hasExtFold(name, ext string) bool {
	return len(name) > len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

// Category is a fragment category, which is also the name of the
// subdirectory scanned under each reference root.
type Category string

// The three fragment categories.
const (
	CategoryDefinitions Category = "definitions"
	CategoryResponses   Category = "responses"
	CategoryParameters  Category = "parameters"
)

// Categories returns the fragment categories in the order they are scanned
// and emitted.
func Categories() []Category {
	return []Category{CategoryDefinitions, CategoryResponses, CategoryParameters}
}

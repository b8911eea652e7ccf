package compiler

import (
	"fmt"

	"github.com/erraggy/refc"
)

// Merged is the result of injecting fragment references into a base
// document.
type Merged struct {
	// Content is the merged document, ready to be written.
	Content []byte
	// Fragments lists every fragment that was injected, in emission order.
	Fragments []FragmentRef
	// Duplicates lists fragments whose name was already registered in the
	// same category. The YAML pipeline emits them as duplicate keys; the JSON
	// pipeline lets the later one win.
	Duplicates []FragmentRef
}

// Merger injects fragment references into a base document.
type Merger interface {
	// Format reports the document format the merger handles.
	Format() Format
	// Merge returns the merged document for base. source names the base
	// document in error messages.
	Merge(base []byte, source string) (*Merged, error)
}

// NewMerger returns the Merger for format. Fragments are listed by d.
func NewMerger(format Format, d *Discoverer, logger refc.Logger) (Merger, error) {
	logger = refc.OrNop(logger)
	switch format {
	case FormatYAML:
		return &markupMerger{discoverer: d, logger: logger}, nil
	case FormatJSON:
		return &structuredMerger{discoverer: d, logger: logger}, nil
	default:
		return nil, fmt.Errorf("compiler: no merger for format %s", format)
	}
}

// collect discovers every category and records duplicate names.
func collect(d *Discoverer, logger refc.Logger) (map[Category][]FragmentRef, []FragmentRef, error) {
	all, err := d.DiscoverAll()
	if err != nil {
		return nil, nil, err
	}

	var dups []FragmentRef
	for _, cat := range Categories() {
		seen := make(map[string]string, len(all[cat]))
		for _, ref := range all[cat] {
			if prev, ok := seen[ref.Name]; ok {
				logger.Warn("duplicate fragment name",
					"category", string(cat),
					"name", ref.Name,
					"path", ref.Path,
					"previous", prev)
				dups = append(dups, ref)
			}
			seen[ref.Name] = ref.Path
		}
	}
	return all, dups, nil
}

func flatten(all map[Category][]FragmentRef) []FragmentRef {
	var out []FragmentRef
	for _, cat := range Categories() {
		out = append(out, all[cat]...)
	}
	return out
}

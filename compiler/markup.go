package compiler

import (
	"strings"

	"github.com/erraggy/refc"
)

// SentinelMarker separates the hand-written part of a YAML base document
// from the generated reference block.
const SentinelMarker = "### ref-compiler: BEGIN"

// markupMerger splices the reference block into the base text without
// parsing it, so comments and formatting of the prefix survive unchanged.
type markupMerger struct {
	discoverer *Discoverer
	logger     refc.Logger
}

func (m *markupMerger) Format() Format { return FormatYAML }

func (m *markupMerger) Merge(base []byte, _ string) (*Merged, error) {
	all, dups, err := collect(m.discoverer, m.logger)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(Prefix(string(base)))
	b.WriteString(ReferenceBlock(all))

	return &Merged{
		Content:    []byte(b.String()),
		Fragments:  flatten(all),
		Duplicates: dups,
	}, nil
}

// Prefix returns the part of a YAML base document that is kept verbatim:
// everything before the first SentinelMarker. Without a marker the whole
// text is kept. If that text is non-empty and lacks a final newline, one is
// appended so the marker starts its own line; the prefix is then the input
// plus that single byte.
func Prefix(text string) string {
	if before, _, found := strings.Cut(text, SentinelMarker); found {
		return before
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		return text + "\n"
	}
	return text
}

// ReferenceBlock renders the generated block: the marker line, then one
// mapping per non-empty category with a $ref entry per fragment.
func ReferenceBlock(all map[Category][]FragmentRef) string {
	var b strings.Builder
	b.WriteString(SentinelMarker)
	b.WriteByte('\n')
	for _, cat := range Categories() {
		refs := all[cat]
		if len(refs) == 0 {
			continue
		}
		b.WriteString(string(cat))
		b.WriteString(":\n")
		for _, ref := range refs {
			b.WriteString("  ")
			b.WriteString(ref.Name)
			b.WriteString(":\n    $ref: '")
			b.WriteString(ref.Path)
			b.WriteString("'\n")
		}
	}
	return b.String()
}

package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/docnode"
	"github.com/erraggy/refc/refcerrors"
)

// structuredIndent is the indentation of the merged JSON document.
const structuredIndent = "  "

// structuredMerger parses the base document and sets one {"$ref": path}
// entry per fragment under each category object.
type structuredMerger struct {
	discoverer *Discoverer
	logger     refc.Logger
}

func (m *structuredMerger) Format() Format { return FormatJSON }

func (m *structuredMerger) Merge(base []byte, source string) (*Merged, error) {
	root, err := parseJSONObject(base, source)
	if err != nil {
		return nil, err
	}

	all, dups, err := collect(m.discoverer, m.logger)
	if err != nil {
		return nil, err
	}

	for _, cat := range Categories() {
		section, err := ensureSection(root, cat, source)
		if err != nil {
			return nil, err
		}
		for _, ref := range all[cat] {
			if docnode.Set(section, ref.Name, docnode.NewRef(ref.Path)) {
				m.logger.Warn("fragment overrides existing entry",
					"category", string(cat),
					"name", ref.Name,
					"path", ref.Path)
			}
		}
	}

	out, err := docnode.MarshalJSONIndent(root, structuredIndent)
	if err != nil {
		return nil, &refcerrors.ParseError{Path: source, Message: "encoding merged document", Cause: err}
	}

	return &Merged{
		Content:    out,
		Fragments:  flatten(all),
		Duplicates: dups,
	}, nil
}

// parseJSONObject parses data as strict JSON and returns its root, which
// must be an object.
func parseJSONObject(data []byte, source string) (*yaml.Node, error) {
	root, err := docnode.ParseJSON(data)
	if err != nil {
		perr := &refcerrors.ParseError{Path: source, Cause: err}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			perr.Line, perr.Column = position(data, syn.Offset)
		}
		return nil, perr
	}
	if root.Kind != yaml.MappingNode {
		return nil, &refcerrors.ParseError{Path: source, Line: root.Line, Column: root.Column, Message: "root is not an object"}
	}
	return root, nil
}

// ensureSection returns the mapping stored under cat, creating it when the
// key is missing or null.
func ensureSection(root *yaml.Node, cat Category, source string) (*yaml.Node, error) {
	section := docnode.Get(root, string(cat))
	switch {
	case section == nil || docnode.IsNull(section):
		section = docnode.NewMapping()
		docnode.Set(root, string(cat), section)
	case section.Kind != yaml.MappingNode:
		return nil, &refcerrors.ParseError{
			Path:    source,
			Line:    section.Line,
			Column:  section.Column,
			Message: fmt.Sprintf("%q is not an object", cat),
		}
	}
	return section, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte{'\n'}) + 1
	col = int(offset) - bytes.LastIndexByte(prefix, '\n')
	return line, col
}

// Package docnode provides helpers for working with YAML/JSON documents as
// order-preserving yaml.Node trees.
package docnode

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// RefKey is the mapping key of a reference pointer.
const RefKey = "$ref"

// ErrEmptyDocument is returned by Parse when the input holds no document.
var ErrEmptyDocument = errors.New("docnode: empty document")

// Parse decodes YAML and returns the root content node, with the enclosing
// document node stripped. Use ParseJSON for .json files.
func Parse(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		return doc.Content[0], nil
	}
	if doc.Kind == 0 {
		return nil, ErrEmptyDocument
	}
	return &doc, nil
}

// NewMapping returns an empty mapping node.
func NewMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NewString returns a string scalar node.
func NewString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// NewRef returns a mapping node of the form {"$ref": path}.
func NewRef(path string) *yaml.Node {
	m := NewMapping()
	m.Content = append(m.Content, NewString(RefKey), NewString(path))
	return m
}

// IsNull reports whether n is a null scalar.
func IsNull(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// Get returns the value stored under key in mapping m, or nil.
func Get(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Set stores v under key in mapping m. An existing key keeps its position and
// has its value replaced; a new key is appended. Set reports whether an
// existing value was replaced.
func Set(m *yaml.Node, key string, v *yaml.Node) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return true
		}
	}
	m.Content = append(m.Content, NewString(key), v)
	return false
}

// RefValue returns the "$ref" string of mapping n, if it has one.
func RefValue(n *yaml.Node) (string, bool) {
	v := Get(n, RefKey)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// DeepCopy returns a copy of n that shares no mutable state with it.
// Alias targets are not copied; the copy points at the same anchor node.
func DeepCopy(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = DeepCopy(child)
		}
	}
	return &c
}

// Lookup resolves a JSON pointer (RFC 6901) such as "/definitions/Pet"
// against root. The leading "#" is optional. Tokens are percent-decoded and
// then have "~1" and "~0" unescaped.
func Lookup(root *yaml.Node, pointer string) (*yaml.Node, error) {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" || pointer == "/" {
		return root, nil
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")

	current := resolveAlias(root)
	for i, part := range parts {
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		part = unescapeJSONPointer(part)

		switch current.Kind {
		case yaml.MappingNode:
			next := Get(current, part)
			if next == nil {
				return nil, fmt.Errorf("reference not found: #/%s (missing key: %s)", strings.Join(parts[:i+1], "/"), part)
			}
			current = resolveAlias(next)
		case yaml.SequenceNode:
			index, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid array index '%s' in reference: #/%s (must be a non-negative integer)", part, strings.Join(parts[:i+1], "/"))
			}
			if index < 0 || index >= len(current.Content) {
				return nil, fmt.Errorf("array index %d out of bounds (length %d) in reference: #/%s", index, len(current.Content), strings.Join(parts[:i+1], "/"))
			}
			current = resolveAlias(current.Content[index])
		default:
			return nil, fmt.Errorf("cannot traverse into scalar at #/%s", strings.Join(parts[:i], "/"))
		}
	}
	return current, nil
}

// DuplicateKeyError reports a mapping that defines the same key twice.
type DuplicateKeyError struct {
	Key    string
	Line   int
	Column int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicated mapping key %q at line %d, column %d", e.Key, e.Line, e.Column)
}

// CheckDuplicateKeys walks n and returns a *DuplicateKeyError for the first
// mapping that repeats a key.
func CheckDuplicateKeys(n *yaml.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.ShortTag() == "!!merge" {
				continue
			}
			if seen[k.Value] {
				return &DuplicateKeyError{Key: k.Value, Line: k.Line, Column: k.Column}
			}
			seen[k.Value] = true
		}
	}
	for _, child := range n.Content {
		if err := CheckDuplicateKeys(child); err != nil {
			return err
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// unescapeJSONPointer unescapes JSON Pointer tokens
// Per RFC 6901, ~1 represents / and ~0 represents ~
func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}

package docnode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"go.yaml.in/yaml/v4"
)

// MarshalJSON writes n as compact JSON, keeping mapping keys in node order.
func MarshalJSON(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSONIndent is like MarshalJSON but indents the output with indent
// and terminates it with a newline.
func MarshalJSONIndent(n *yaml.Node, indent string) ([]byte, error) {
	data, err := MarshalJSON(n)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", indent); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// maxAliasDepth bounds alias expansion so self-referencing anchors cannot
// recurse forever.
const maxAliasDepth = 64

func writeNode(buf *bytes.Buffer, n *yaml.Node, aliasDepth int) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, n.Content[0], aliasDepth)

	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth {
			return fmt.Errorf("docnode: alias nesting exceeds %d levels", maxAliasDepth)
		}
		return writeNode(buf, n.Alias, aliasDepth+1)

	case yaml.MappingNode:
		buf.WriteByte('{')
		first := true
		for _, pair := range mappingPairs(n) {
			if !first {
				buf.WriteByte(',')
			}
			first = false

			if err := writeJSON(buf, pair.key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNode(buf, pair.value, aliasDepth); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item, aliasDepth); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return writeScalar(buf, n)

	default:
		return fmt.Errorf("docnode: unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

type pair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns the entries of mapping n in source order with YAML
// merge keys ("<<") expanded. Explicit keys win over merged ones.
func mappingPairs(n *yaml.Node) []pair {
	pairs := make([]pair, 0, len(n.Content)/2)
	explicit := make(map[string]bool, len(n.Content)/2)
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		explicit[k.Value] = true
		pairs = append(pairs, pair{key: k.Value, value: v})
	}

	for _, m := range merges {
		for _, src := range mergeSources(m) {
			for _, p := range mappingPairs(src) {
				if explicit[p.key] {
					continue
				}
				explicit[p.key] = true
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

func mergeSources(v *yaml.Node) []*yaml.Node {
	v = resolveAlias(v)
	switch v.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{v}
	case yaml.SequenceNode:
		var out []*yaml.Node
		for _, item := range v.Content {
			if item = resolveAlias(item); item.Kind == yaml.MappingNode {
				out = append(out, item)
			}
		}
		return out
	}
	return nil
}

// jsonNumber matches number literals that are already valid JSON. They are
// copied as written so large integers keep every digit.
var jsonNumber = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!int", "!!float":
		if jsonNumber.MatchString(n.Value) {
			buf.WriteString(n.Value)
			return nil
		}
		fallthrough
	case "!!bool":
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("docnode: decoding %s at line %d: %w", n.ShortTag(), n.Line, err)
		}
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return fmt.Errorf("docnode: value %q at line %d has no JSON representation", n.Value, n.Line)
		}
		return writeJSON(buf, v)
	default:
		// Strings, timestamps, binary and custom tags are emitted verbatim.
		return writeJSON(buf, n.Value)
	}
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder always appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

package docnode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v4"
)

// ParseJSON decodes strict JSON into a node tree. Unlike Parse it accepts
// every JSON string escape, including "\/". Keys keep document order and
// numbers keep their literal text. A repeated key keeps its first position
// and takes the last value. Nodes carry 1-based line and column positions.
func ParseJSON(data []byte) (*yaml.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	root, err := parseJSON(data)
	if err != nil {
		// Decoder offsets can be relative to the current value; Unmarshal
		// reports the offset within data.
		var syn *json.SyntaxError
		if uerr := json.Unmarshal(data, new(any)); errors.As(uerr, &syn) {
			return nil, syn
		}
		return nil, err
	}
	return root, nil
}

func parseJSON(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &jsonParser{dec: dec, data: data, lines: lineStarts(data)}

	root, err := p.next()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, &json.SyntaxError{Offset: dec.InputOffset()}
	}
	return root, nil
}

type jsonParser struct {
	dec   *json.Decoder
	data  []byte
	lines []int
}

var errUnexpectedEnd = errors.New("docnode: unexpected end of JSON input")

// token reads the next token together with the offset it starts at.
func (p *jsonParser) token() (json.Token, int, error) {
	off := p.skip(int(p.dec.InputOffset()))
	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, off, errUnexpectedEnd
	}
	return tok, off, err
}

// skip advances off past whitespace and the separators Token consumes
// silently.
func (p *jsonParser) skip(off int) int {
	for off < len(p.data) {
		switch p.data[off] {
		case ' ', '\t', '\r', '\n', ',', ':':
			off++
		default:
			return off
		}
	}
	return off
}

func (p *jsonParser) position(n *yaml.Node, off int) *yaml.Node {
	line := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > off })
	n.Line = line
	n.Column = off - p.lines[line-1] + 1
	return n
}

func (p *jsonParser) next() (*yaml.Node, error) {
	tok, off, err := p.token()
	if err != nil {
		return nil, err
	}
	return p.value(tok, off)
}

func (p *jsonParser) value(tok json.Token, off int) (*yaml.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return p.object(off)
		case '[':
			return p.array(off)
		}
		return nil, &json.SyntaxError{Offset: int64(off)}
	case string:
		return p.position(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}, off), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(v), ".eE") {
			tag = "!!float"
		}
		return p.position(&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v)}, off), nil
	case bool:
		return p.position(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(v)}, off), nil
	case nil:
		return p.position(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, off), nil
	default:
		return nil, fmt.Errorf("docnode: unexpected JSON token %T", tok)
	}
}

func (p *jsonParser) object(off int) (*yaml.Node, error) {
	m := p.position(NewMapping(), off)
	index := make(map[string]int)
	for {
		tok, keyOff, err := p.token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim('}') {
			return m, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &json.SyntaxError{Offset: int64(keyOff)}
		}
		val, err := p.next()
		if err != nil {
			return nil, err
		}
		if i, dup := index[key]; dup {
			m.Content[i+1] = val
			continue
		}
		index[key] = len(m.Content)
		m.Content = append(m.Content, p.position(NewString(key), keyOff), val)
	}
}

func (p *jsonParser) array(off int) (*yaml.Node, error) {
	s := p.position(&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}, off)
	for {
		tok, itemOff, err := p.token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			return s, nil
		}
		item, err := p.value(tok, itemOff)
		if err != nil {
			return nil, err
		}
		s.Content = append(s.Content, item)
	}
}

// lineStarts returns the byte offset of the first byte of every line.
func lineStarts(data []byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

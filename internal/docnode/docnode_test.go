package docnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func mustParse(t *testing.T, src string) *yaml.Node {
	t.Helper()
	n, err := Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestParse(t *testing.T) {
	t.Run("json object", func(t *testing.T) {
		n := mustParse(t, `{"swagger": "2.0"}`)
		assert.Equal(t, yaml.MappingNode, n.Kind)
		assert.Equal(t, "2.0", Get(n, "swagger").Value)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Parse([]byte(""))
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := Parse([]byte(`{"a": [1, 2}`))
		assert.Error(t, err)
	})
}

func TestGetSet(t *testing.T) {
	m := mustParse(t, `{"a": 1, "b": 2}`)

	assert.Nil(t, Get(m, "missing"))
	assert.Nil(t, Get(NewString("scalar"), "a"))

	replaced := Set(m, "a", NewString("one"))
	assert.True(t, replaced)
	replaced = Set(m, "c", NewString("three"))
	assert.False(t, replaced)

	out, err := MarshalJSON(m)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"one","b":2,"c":"three"}`, string(out))
}

func TestNewRef(t *testing.T) {
	ref := NewRef("definitions/Widget.json")

	v, ok := RefValue(ref)
	assert.True(t, ok)
	assert.Equal(t, "definitions/Widget.json", v)

	_, ok = RefValue(NewMapping())
	assert.False(t, ok)
}

func TestIsNull(t *testing.T) {
	n := mustParse(t, `{"a": null, "b": "null"}`)
	assert.True(t, IsNull(Get(n, "a")))
	assert.False(t, IsNull(Get(n, "b")))
	assert.False(t, IsNull(nil))
}

func TestDeepCopy(t *testing.T) {
	orig := mustParse(t, `{"a": {"b": [1, 2]}}`)
	cp := DeepCopy(orig)

	Set(Get(cp, "a"), "c", NewString("added"))
	Get(Get(cp, "a"), "b").Content[0].Value = "9"

	out, err := MarshalJSON(orig)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":[1,2]}}`, string(out))

	out, err = MarshalJSON(cp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":[9,2],"c":"added"}}`, string(out))
}

func TestLookup(t *testing.T) {
	root := mustParse(t, `
definitions:
  Pet:
    type: object
  a/b:
    type: string
  "100%":
    type: integer
tags:
  - name: first
  - name: second
`)

	tests := []struct {
		name     string
		pointer  string
		wantType string
	}{
		{"plain path", "#/definitions/Pet", "object"},
		{"without hash", "/definitions/Pet", "object"},
		{"escaped slash", "#/definitions/a~1b", "string"},
		{"percent encoded", "#/definitions/100%25", "integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Lookup(root, tt.pointer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, Get(n, "type").Value)
		})
	}

	t.Run("array index", func(t *testing.T) {
		n, err := Lookup(root, "#/tags/1")
		require.NoError(t, err)
		assert.Equal(t, "second", Get(n, "name").Value)
	})

	t.Run("root", func(t *testing.T) {
		n, err := Lookup(root, "#")
		require.NoError(t, err)
		assert.Same(t, root, n)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := Lookup(root, "#/definitions/Missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing key: Missing")
	})

	t.Run("index out of bounds", func(t *testing.T) {
		_, err := Lookup(root, "#/tags/5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of bounds")
	})

	t.Run("traverse scalar", func(t *testing.T) {
		_, err := Lookup(root, "#/definitions/Pet/type/deeper")
		require.Error(t, err)
	})
}

func TestCheckDuplicateKeys(t *testing.T) {
	t.Run("unique keys", func(t *testing.T) {
		assert.NoError(t, CheckDuplicateKeys(mustParse(t, "a: 1\nb:\n  a: 2\n")))
	})

	t.Run("duplicate nested key", func(t *testing.T) {
		n := mustParse(t, "definitions:\n  Foo:\n    $ref: 'a/Foo.yaml'\n  Foo:\n    $ref: 'b/Foo.yaml'\n")
		err := CheckDuplicateKeys(n)
		var dupErr *DuplicateKeyError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "Foo", dupErr.Key)
		assert.Equal(t, 4, dupErr.Line)
	})
}

package compiler

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/refc/internal/testutil"
	"github.com/erraggy/refc/refcerrors"
)

func TestDiscover(t *testing.T) {
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"api.yaml":                       "swagger: '2.0'\n",
		"definitions/Zebra.yaml":         "type: object\n",
		"definitions/Apple.yaml":         "type: object\n",
		"definitions/Mango.YAML":         "type: object\n",
		"definitions/notes.txt":          "ignored",
		"definitions/Widget.json":        "{}",
		"definitions/.yaml":              "ignored",
		"definitions/nested.yaml/":       "",
		"shared/definitions/Pear.yaml":   "type: object\n",
		"shared/responses/NotFound.yaml": "description: not found\n",
	})
	cfg := testConfig(t, dir, "api.yaml", "shared")

	d := NewDiscoverer(cfg, FormatYAML, nil)

	defs, err := d.Discover(CategoryDefinitions)
	require.NoError(t, err)
	want := []FragmentRef{
		{Category: CategoryDefinitions, Name: "Apple", Path: "definitions/Apple.yaml", Root: "", FileName: "Apple.yaml"},
		{Category: CategoryDefinitions, Name: "Mango", Path: "definitions/Mango.YAML", Root: "", FileName: "Mango.YAML"},
		{Category: CategoryDefinitions, Name: "Zebra", Path: "definitions/Zebra.yaml", Root: "", FileName: "Zebra.yaml"},
		{Category: CategoryDefinitions, Name: "Pear", Path: "shared/definitions/Pear.yaml", Root: "shared", FileName: "Pear.yaml"},
	}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Errorf("Discover(definitions) mismatch (-want +got):\n%s", diff)
	}

	responses, err := d.Discover(CategoryResponses)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "NotFound", responses[0].Name)
	assert.Equal(t, "shared/responses/NotFound.yaml", responses[0].Path)

	params, err := d.Discover(CategoryParameters)
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestDiscoverJSONOnly(t *testing.T) {
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"definitions/Widget.json": "{}",
		"definitions/Gadget.yaml": "type: object\n",
	})
	cfg := testConfig(t, dir, "api.json")

	refs, err := NewDiscoverer(cfg, FormatJSON, nil).Discover(CategoryDefinitions)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Widget", refs[0].Name)
}

func TestDiscoverSiblingRefDir(t *testing.T) {
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"api/api.yaml":                    "swagger: '2.0'\n",
		"common/parameters/PageSize.yaml": "name: pageSize\n",
	})
	cfg := testConfig(t, dir, "api/api.yaml", "common")

	refs, err := NewDiscoverer(cfg, FormatYAML, nil).Discover(CategoryParameters)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "../common/parameters/PageSize.yaml", refs[0].Path)
	assert.Equal(t, "../common", refs[0].Root)
}

func TestDiscoverMissingDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "api.yaml")

	var buf bytes.Buffer
	refs, err := NewDiscoverer(cfg, FormatYAML, bufferLogger(&buf)).Discover(CategoryResponses)
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.Contains(t, buf.String(), "fragment directory not found")
}

func TestDiscoverFilesystemError(t *testing.T) {
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"definitions": "a file where a directory belongs",
	})
	cfg := testConfig(t, dir, "api.yaml")

	_, err := NewDiscoverer(cfg, FormatYAML, nil).Discover(CategoryDefinitions)
	require.ErrorIs(t, err, refcerrors.ErrFilesystem)

	var fsErr *refcerrors.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "read directory", fsErr.Op)
}

func TestDiscoverAll(t *testing.T) {
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"definitions/A.yaml": "type: object\n",
		"parameters/B.yaml":  "name: b\n",
	})
	cfg := testConfig(t, dir, "api.yaml")

	all, err := NewDiscoverer(cfg, FormatYAML, nil).DiscoverAll()
	require.NoError(t, err)
	assert.Len(t, all[CategoryDefinitions], 1)
	assert.Empty(t, all[CategoryResponses])
	assert.Len(t, all[CategoryParameters], 1)
}

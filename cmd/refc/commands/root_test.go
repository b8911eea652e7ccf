package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/refc/internal/testutil"
	"github.com/erraggy/refc/refcerrors"
)

const apiYAML = `swagger: "2.0"
info:
  title: Widgets
  version: "1.0.0"
paths: {}
`

// project writes a small fragment tree, changes into it, and isolates the
// command from ambient config files and REFC_* variables.
func project(t *testing.T) string {
	t.Helper()
	dir := testutil.WriteTree(t, t.TempDir(), testutil.Tree{
		"api/api.yaml":                    apiYAML,
		"api/definitions/Widget.yaml":     "type: object\n",
		"api/responses/NotFound.yaml":     "description: not found\n",
		"shared/parameters/PageSize.yaml": "name: page_size\nin: query\ntype: integer\n",
	})
	for _, key := range []string{
		"REFC_REF_DIRS", "REFC_VERBOSE", "REFC_LOG_FORMAT", "REFC_INDENT",
		"REFC_KEEP_MERGED", "REFC_MAX_REF_DEPTH", "REFC_WATCH_DEBOUNCE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestSetupRootFlags(t *testing.T) {
	cmd := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	fs := cmd.Flags()

	require.NoError(t, fs.Parse([]string{
		"-i", "api.yaml", "-o", "out.json", "-r", "a:b", "-v", "-t",
		"--watch", "--keep-merged", "--log-format", "json", "--indent", "2", "--max-ref-depth", "7",
	}))

	for _, name := range []string{"input-file", "output-file", "ref-dirs", "verbose", "test", "watch", "keep-merged", "log-format", "indent", "max-ref-depth"} {
		assert.True(t, fs.Changed(name), name)
	}
	indent, err := fs.GetInt("indent")
	require.NoError(t, err)
	assert.Equal(t, 2, indent)
}

func TestSplitRefDirs(t *testing.T) {
	assert.Equal(t, []string{"a", "b/c"}, splitRefDirs("a:b/c"))
	assert.Equal(t, []string{"a"}, splitRefDirs(":a: :"))
	assert.Nil(t, splitRefDirs(""))
}

func TestRootCommand_Compile(t *testing.T) {
	dir := project(t)
	out := filepath.Join(dir, "dist", "api.json")

	stdout, stderr, err := run(t, "-i", "api/api.yaml", "-o", "dist/api.json", "-r", "shared")
	require.NoError(t, err)

	assert.Equal(t, "JSON for OpenAPI written to "+out+"\n", stdout)
	assert.Empty(t, stderr)

	data := testutil.ReadFile(t, out)
	assert.True(t, strings.HasPrefix(data, "{\n    \"swagger\": \"2.0\","), data)
	assert.Contains(t, data, `"PageSize": {`)
	assert.Contains(t, data, `"description": "not found"`)

	entries, err := os.ReadDir(filepath.Join(dir, "api"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".refc-"), "temp file %s left behind", e.Name())
	}
}

func TestRootCommand_DryRun(t *testing.T) {
	dir := project(t)

	stdout, _, err := run(t, "-t", "-i", "api/api.yaml", "-o", "dist/api.json", "-r", "shared")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "opts: {\n"), stdout)
	assert.Contains(t, stdout, `"baseFile": "api.yaml"`)
	assert.Contains(t, stdout, `"../shared"`)
	assert.True(t, strings.HasSuffix(stdout, "outDir: "+filepath.Join(dir, "dist")+"\n"), stdout)

	assert.NoDirExists(t, filepath.Join(dir, "dist"))
	entries, err := os.ReadDir(filepath.Join(dir, "api"))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "dry run must not create files")
}

func TestRootCommand_KeepMerged(t *testing.T) {
	dir := project(t)

	stdout, _, err := run(t, "-i", "api/api.yaml", "-o", "api.json", "--keep-merged")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	merged, ok := strings.CutPrefix(lines[1], "Merged document kept at ")
	require.True(t, ok, lines[1])
	assert.Equal(t, filepath.Join(dir, "api"), filepath.Dir(merged))
	assert.Contains(t, testutil.ReadFile(t, merged), "### ref-compiler: BEGIN\n")
}

func TestRootCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"missing input", []string{"-o", "out.json"}, refcerrors.ErrConfig},
		{"missing output", []string{"-i", "api/api.yaml"}, refcerrors.ErrConfig},
		{"missing ref dir", []string{"-i", "api/api.yaml", "-o", "out.json", "-r", "nope"}, refcerrors.ErrConfig},
		{"unsupported format", []string{"-i", "api/api.txt", "-o", "out.json"}, refcerrors.ErrUnsupportedFormat},
		{"missing base", []string{"-i", "api/other.yaml", "-o", "out.json"}, refcerrors.ErrFilesystem},
		{"bad indent", []string{"-i", "api/api.yaml", "-o", "out.json", "--indent", "9"}, refcerrors.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := project(t)

			stdout, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Empty(t, stdout)
			assert.NoFileExists(t, filepath.Join(dir, "out.json"))
		})
	}
}

func TestRootCommand_LogFormat(t *testing.T) {
	project(t)

	_, _, err := run(t, "-i", "api/api.yaml", "-o", "out.json", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRootCommand_Verbose(t *testing.T) {
	project(t)

	_, stderr, err := run(t, "-v", "-i", "api/api.yaml", "-o", "out.json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "compiling references")
	assert.Contains(t, stderr, "ref compiler temp file")

	_, stderr, err = run(t, "-v", "--log-format", "json", "-i", "api/api.yaml", "-o", "out.json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"compiling references"`)
}

func TestRootCommand_ConfigFile(t *testing.T) {
	dir := project(t)
	testutil.WriteFile(t, filepath.Join(dir, ".refc.toml"), "indent = 2\nref_dirs = [\"shared\"]\n")

	_, _, err := run(t, "-i", "api/api.yaml", "-o", "out.json")
	require.NoError(t, err)
	data := testutil.ReadFile(t, filepath.Join(dir, "out.json"))
	assert.True(t, strings.HasPrefix(data, "{\n  \"swagger\""), data)
	assert.Contains(t, data, "PageSize")

	// Flags win over the file.
	_, _, err = run(t, "-i", "api/api.yaml", "-o", "out.json", "--indent", "3", "-r", "")
	require.NoError(t, err)
	data = testutil.ReadFile(t, filepath.Join(dir, "out.json"))
	assert.True(t, strings.HasPrefix(data, "{\n   \"swagger\""), data)
	assert.NotContains(t, data, "PageSize")
}

func TestRootCommand_ExplicitConfigMissing(t *testing.T) {
	project(t)

	_, _, err := run(t, "--config", "missing.toml", "-i", "api/api.yaml", "-o", "out.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, refcerrors.ErrConfig))
}

func TestRootCommand_Environment(t *testing.T) {
	dir := project(t)
	t.Setenv("REFC_INDENT", "2")

	_, _, err := run(t, "-i", "api/api.yaml", "-o", "out.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(testutil.ReadFile(t, filepath.Join(dir, "out.json")), "{\n  \"swagger\""))
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "refc dev\n", stdout)
}

func TestExecute_ExitCode(t *testing.T) {
	project(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, Execute(context.Background(), []string{"-i", "api/api.yaml", "-o", "out.json"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "JSON for OpenAPI written to")

	stdout.Reset()
	assert.Equal(t, 1, Execute(context.Background(), []string{"-i", "api/api.txt", "-o", "out.json"}, &stdout, &stderr))
	assert.NotContains(t, stdout.String(), "JSON for OpenAPI written to")
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRootCommand_Watch(t *testing.T) {
	dir := project(t)
	t.Setenv("REFC_WATCH_DEBOUNCE", "20ms")

	var stdout, stderr syncBuffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--watch", "-i", "api/api.yaml", "-o", "out.json"})

	ctx, cancel := context.WithCancel(context.Background())
	var runErr error
	finished := make(chan struct{})
	go func() {
		runErr = cmd.ExecuteContext(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Watching 1 directory for changes")
	}, 5*time.Second, 10*time.Millisecond)

	testutil.WriteFile(t, filepath.Join(dir, "api", "definitions", "Gadget.yaml"), "type: string\n")

	require.Eventually(t, func() bool {
		return strings.Count(stdout.String(), "JSON for OpenAPI written to") >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, testutil.ReadFile(t, filepath.Join(dir, "out.json")), "Gadget")

	cancel()
	select {
	case <-finished:
		assert.NoError(t, runErr)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

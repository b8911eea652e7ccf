package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/refc/internal/testutil"
	"github.com/erraggy/refc/refcerrors"
)

// isolate points every config search location at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	s, used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, &Settings{
		RefDirs:     []string{},
		LogFormat:   DefaultLogFormat,
		Indent:      DefaultIndent,
		MaxRefDepth: DefaultMaxRefDepth,
		Watch:       WatchSettings{Debounce: DefaultDebounce},
	}, s)
}

func TestLoadFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	testutil.WriteFile(t, filepath.Join(dir, FileName), `ref_dirs = ["shared", "private"]
verbose = true
log_format = "json"
indent = 2

[watch]
debounce = "1s"
`)

	s, used, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, FileName, filepath.Base(used))
	assert.Equal(t, []string{filepath.Join(filepath.Dir(used), "shared"), filepath.Join(filepath.Dir(used), "private")}, s.RefDirs)
	assert.True(t, s.Verbose)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, 2, s.Indent)
	assert.Equal(t, time.Second, s.Watch.Debounce)
}

func TestLoadFileInConfigHome(t *testing.T) {
	dir := isolate(t)
	testutil.WriteFile(t, filepath.Join(dir, "xdg", "refc", FileName), "keep_merged = true\n")

	s, used, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xdg", "refc", FileName), used)
	assert.True(t, s.KeepMerged)
}

func TestLoadRefDirsRelativeToConfigFile(t *testing.T) {
	dir := isolate(t)
	abs := filepath.Join(dir, "elsewhere")
	testutil.WriteFile(t, filepath.Join(dir, "xdg", "refc", FileName),
		"ref_dirs = [\"shared\", \"../common\", \""+filepath.ToSlash(abs)+"\"]\n")

	s, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "xdg", "refc", "shared"),
		filepath.Join(dir, "xdg", "common"),
		abs,
	}, s.RefDirs)

	// Environment entries stay relative to the working directory.
	t.Setenv("REFC_REF_DIRS", "shared")
	s, _, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, s.RefDirs)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("REFC_REF_DIRS", "shared:private")
	t.Setenv("REFC_VERBOSE", "true")
	t.Setenv("REFC_MAX_REF_DEPTH", "12")
	t.Setenv("REFC_WATCH_DEBOUNCE", "50ms")

	s, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "private"}, s.RefDirs)
	assert.True(t, s.Verbose)
	assert.Equal(t, 12, s.MaxRefDepth)
	assert.Equal(t, 50*time.Millisecond, s.Watch.Debounce)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := testutil.WriteFile(t, filepath.Join(dir, "custom.toml"), "indent = 2\n")
	t.Setenv("REFC_INDENT", "8")

	s, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 8, s.Indent)
}

func TestLoadErrors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		dir := isolate(t)
		_, _, err := Load(filepath.Join(dir, "missing.toml"))
		assert.ErrorIs(t, err, refcerrors.ErrConfig)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := isolate(t)
		testutil.WriteFile(t, filepath.Join(dir, FileName), "indent = = 2\n")
		_, _, err := Load("")
		assert.ErrorIs(t, err, refcerrors.ErrConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		for env, value := range map[string]string{
			"REFC_LOG_FORMAT":     "xml",
			"REFC_INDENT":         "0",
			"REFC_MAX_REF_DEPTH":  "-1",
			"REFC_WATCH_DEBOUNCE": "-1s",
		} {
			t.Run(env, func(t *testing.T) {
				isolate(t)
				t.Setenv(env, value)
				_, _, err := Load("")
				var cerr *refcerrors.ConfigError
				require.ErrorAs(t, err, &cerr)
			})
		}
	})
}

package compiler

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erraggy/refc"
)

// testConfig builds a Config for a base file inside dir with the given
// reference directories, all relative to dir.
func testConfig(t *testing.T, dir, baseFile string, refDirs ...string) *Config {
	t.Helper()
	abs := make([]string, 0, len(refDirs))
	for _, d := range refDirs {
		abs = append(abs, filepath.Join(dir, d))
	}
	cfg, err := NewConfig(filepath.Join(dir, baseFile), filepath.Join(dir, "dist", "out.json"), abs)
	require.NoError(t, err)
	return cfg
}

// bufferLogger returns a debug-level logger writing text records to buf.
func bufferLogger(buf *bytes.Buffer) refc.Logger {
	return refc.NewSlogAdapter(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

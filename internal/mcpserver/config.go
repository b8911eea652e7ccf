package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/erraggy/refc/compiler"
)

// serverConfig holds the MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Indent is the default indent of compiled documents.
	Indent int
	// MaxRefDepth bounds reference nesting during bundling.
	MaxRefDepth int
	// MaxRefDirs bounds the number of reference directories per call.
	MaxRefDirs int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from REFC_MCP_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		Indent:      envIntRange("REFC_MCP_INDENT", compiler.DefaultIndent, 1, compiler.MaxIndent),
		MaxRefDepth: envIntRange("REFC_MCP_MAX_REF_DEPTH", 100, 1, 10000),
		MaxRefDirs:  envIntRange("REFC_MCP_MAX_REF_DIRS", 32, 1, 1024),
	}
}

func envIntRange(key string, fallback, lo, hi int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

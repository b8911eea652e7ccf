package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// clearRefcMCPEnv clears all REFC_MCP_* env vars to isolate tests from the ambient environment.
func clearRefcMCPEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REFC_MCP_INDENT", "REFC_MCP_MAX_REF_DEPTH", "REFC_MCP_MAX_REF_DIRS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearRefcMCPEnv(t)

	c := loadConfig()

	assert.Equal(t, 4, c.Indent)
	assert.Equal(t, 100, c.MaxRefDepth)
	assert.Equal(t, 32, c.MaxRefDirs)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearRefcMCPEnv(t)
	t.Setenv("REFC_MCP_INDENT", "2")
	t.Setenv("REFC_MCP_MAX_REF_DEPTH", "20")
	t.Setenv("REFC_MCP_MAX_REF_DIRS", "4")

	c := loadConfig()

	assert.Equal(t, 2, c.Indent)
	assert.Equal(t, 20, c.MaxRefDepth)
	assert.Equal(t, 4, c.MaxRefDirs)
}

func TestLoadConfig_InvalidFallsBack(t *testing.T) {
	clearRefcMCPEnv(t)
	t.Setenv("REFC_MCP_INDENT", "9")
	t.Setenv("REFC_MCP_MAX_REF_DEPTH", "deep")
	t.Setenv("REFC_MCP_MAX_REF_DIRS", "0")

	c := loadConfig()

	assert.Equal(t, 4, c.Indent)
	assert.Equal(t, 100, c.MaxRefDepth)
	assert.Equal(t, 32, c.MaxRefDirs)
}

func TestSanitizeError(t *testing.T) {
	assert.Empty(t, sanitizeError(nil))
	assert.Equal(t, "filesystem error: read <path>: no such file",
		sanitizeError(errString("filesystem error: read /home/dev/api/api.yaml: no such file")))
}

type errString string

func (e errString) Error() string { return string(e) }

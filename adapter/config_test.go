package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fabledbg.toml")
	content := `
[server]
transport = "tcp"
port = 4712
log_level = "debug"

[story]
dialect = "ink"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Server.Transport)
	assert.Equal(t, 4712, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "ink", cfg.Story.Dialect)
}

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fabledbg.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport="), 0o644))
	_, err := LoadConfigFromFile(path)
	assert.Error(t, err)
}

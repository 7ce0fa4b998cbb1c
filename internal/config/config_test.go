package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.toml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written to disk")

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfigFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[input]
directory = "classes"

[chart]
font_path = "fonts/msyh.ttf"
width = 900

[ai]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "classes", cfg.Input.Directory)
	assert.Equal(t, def.Input.Extensions, cfg.Input.Extensions)
	assert.Equal(t, "fonts/msyh.ttf", cfg.Chart.FontPath)
	assert.Equal(t, 900, cfg.Chart.Width)
	assert.Equal(t, def.Chart.Height, cfg.Chart.Height)
	assert.Equal(t, "%s的错题统计", cfg.Chart.OverviewTitle)
	assert.Equal(t, "%s的错题直方图", cfg.Chart.StudentTitle)
	assert.Equal(t, def.UI, cfg.UI)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, def.AI.Model, cfg.AI.Model)
	assert.Equal(t, def.Log, cfg.Log)
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[input\ndirectory = 1"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoggerOptions(t *testing.T) {
	opts := Default().LoggerOptions()
	assert.Equal(t, filepath.Join("logs", "sheetstat.log"), opts.File)
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, 10, opts.MaxSizeMB)
}

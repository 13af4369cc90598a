package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rex-nihilo/chatlens/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 0, cfg.Priority)
	assert.True(t, cfg.Capture.Inlet)
	assert.True(t, cfg.Capture.Outlet)
	assert.False(t, cfg.Capture.Stream)
	assert.True(t, cfg.Sinks.Chat)
	assert.True(t, cfg.Sinks.Console)
	assert.False(t, cfg.Sinks.File)
	assert.Equal(t, 10, cfg.Sinks.FileMaxSizeMB)
	assert.Equal(t, 5, cfg.Sinks.FileBackups)
	assert.True(t, cfg.Fields.Summary)
	assert.False(t, cfg.Fields.Body)
	assert.True(t, cfg.Redact.Enabled)
	assert.Equal(t, []string{"email", "date_of_birth", "api_key"}, cfg.Redact.Keys)
	assert.Equal(t, "**** OBFUSCATED ****", cfg.Redact.Mask)
	assert.Equal(t, 10, cfg.Redact.MaxDepth)
	assert.Equal(t, "---- DFD REPORT BEGIN ----", cfg.Report.MarkerBegin)
	assert.Equal(t, "---- DFD REPORT END ----", cfg.Report.MarkerEnd)
	assert.True(t, cfg.Status.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytes_OverridesDefaults(t *testing.T) {
	yaml := `
priority: 5
capture:
  stream: true
fields:
  body: true
  custom_path: "body.messages[0].content"
redact:
  keys: [password]
`
	cfg, err := config.LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Priority)
	assert.True(t, cfg.Capture.Stream)
	assert.True(t, cfg.Capture.Inlet, "untouched defaults survive")
	assert.True(t, cfg.Fields.Body)
	assert.True(t, cfg.Fields.Summary)
	assert.Equal(t, "body.messages[0].content", cfg.Fields.CustomPath)
	assert.Equal(t, []string{"password"}, cfg.Redact.Keys)
	assert.Equal(t, "**** OBFUSCATED ****", cfg.Redact.Mask)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CHATLENS_PATH", "/tmp/from-env.log")

	yaml := `
sinks:
  file: true
  file_path: ${TEST_CHATLENS_PATH:-/tmp/fallback.log}
logging:
  level: ${TEST_CHATLENS_MISSING:-debug}
`
	cfg, err := config.LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.log", cfg.Sinks.FilePath)
	assert.Equal(t, "debug", cfg.Logging.Level, "unset variable falls back to the default")
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	t.Setenv("CHATLENS_LOG_FILE", "/tmp/override.log")
	t.Setenv("CHATLENS_LOG_LEVEL", "trace")

	cfg, err := config.LoadFromBytes([]byte("{}"))
	require.NoError(t, err)

	assert.True(t, cfg.Sinks.File, "setting the env path enables the file sink")
	assert.Equal(t, "/tmp/override.log", cfg.Sinks.FilePath)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("")
	assert.Error(t, err)

	_, err = config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("priority: 3\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Priority)
}

func TestLoadFromBytes_MalformedYAML(t *testing.T) {
	_, err := config.LoadFromBytes([]byte("capture: [not a map"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		errSub string
	}{
		{
			name:   "file sink without path",
			mutate: func(c *config.Config) { c.Sinks.File = true; c.Sinks.FilePath = "" },
			errSub: "file_path",
		},
		{
			name:   "negative max size",
			mutate: func(c *config.Config) { c.Sinks.FileMaxSizeMB = -1 },
			errSub: "file_max_size_mb",
		},
		{
			name:   "negative backups",
			mutate: func(c *config.Config) { c.Sinks.FileBackups = -1 },
			errSub: "file_backups",
		},
		{
			name:   "zero redaction depth",
			mutate: func(c *config.Config) { c.Redact.MaxDepth = 0 },
			errSub: "max_depth",
		},
		{
			name:   "redaction without mask",
			mutate: func(c *config.Config) { c.Redact.Mask = "" },
			errSub: "mask",
		},
		{
			name:   "begin marker without end marker",
			mutate: func(c *config.Config) { c.Report.MarkerEnd = "" },
			errSub: "marker",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}

func TestValidate_BothMarkersEmptyIsValid(t *testing.T) {
	cfg := config.Default()
	cfg.Report.MarkerBegin = ""
	cfg.Report.MarkerEnd = ""

	assert.NoError(t, cfg.Validate())
}

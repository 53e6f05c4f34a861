package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"jukebox/internal/logging"
	"jukebox/internal/startup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jukebox "+startup.Version)

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info startup.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, startup.Version, info.Version)
}

func TestCheckCommand(t *testing.T) {
	path := writeConfig(t, `
backend = "gstreamer"
log_level = "warn"

[mpd]
port = 6601

[local]
path = "/music"
`)
	defer logging.SetLevel(logging.LevelInfo)

	out, err := execute(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+": ok")
	assert.Contains(t, out, "providers: local")
	assert.Contains(t, out, "frontends: mpd")
	assert.Contains(t, out, "backend:   gstreamer")
	assert.Equal(t, logging.LevelWarn, logging.GetLevel())
}

func TestCheckCommandEnvironment(t *testing.T) {
	path := writeConfig(t, "log_level = \"warn\"\n")
	t.Setenv("JUKEBOX_CONFIG", path)
	t.Setenv("JUKEBOX_LOG_LEVEL", "error")
	defer logging.SetLevel(logging.LevelInfo)

	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "providers: none")
	assert.Equal(t, logging.LevelError, logging.GetLevel(), "environment beats the file")
}

func TestCheckCommandRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "volume = 11\n"},
		{"malformed", "[mpd\n"},
		{"sqlite without path", "[library]\nstore = \"sqlite\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "check", "--config", writeConfig(t, tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fwreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "title: Quarterly audit\nservices: true\nlog_level: debug\n")

	opts, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Quarterly audit", opts.Title)
	require.True(t, opts.Services)
	require.Equal(t, "debug", opts.LogLevel)
	require.Empty(t, opts.DB)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, "out: report.html\n")

	opts, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, Default().Title, opts.Title)
	require.Equal(t, "INFO", opts.LogLevel)
	require.Equal(t, "report.html", opts.Out)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "titel: typo\n")

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

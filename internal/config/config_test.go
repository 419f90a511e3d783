package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagref/internal/compile"
	"diagref/internal/report"
)

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestApplyOverlaysDefinedKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `# course defaults
[compiler]
command = "clang -Wall -Wextra"
extension = ".c"
language = "C"
timeout = "30s"

[report]
format = "plain"

[run]
jobs = 4
scratch_dir = "tmp"
`)
	m, err := Load(path)
	require.NoError(t, err)

	s, err := m.Apply(Defaults())
	require.NoError(t, err)
	assert.Equal(t, compile.Spec{
		Command:    "clang -Wall -Wextra",
		Extension:  ".c",
		Language:   "C",
		ScratchDir: filepath.Join(dir, "tmp"),
		Timeout:    30 * time.Second,
	}, s.Spec)
	assert.Equal(t, report.FormatPlain, s.Format)
	assert.Equal(t, 4, s.Jobs)
}

func TestApplyKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[compiler]\nlanguage = \"C\"\n")
	m, err := Load(path)
	require.NoError(t, err)

	s, err := m.Apply(Defaults())
	require.NoError(t, err)
	assert.Equal(t, compile.DefaultCommand, s.Spec.Command)
	assert.Equal(t, compile.DefaultExtension, s.Spec.Extension)
	assert.Equal(t, "C", s.Spec.Language)
	assert.Equal(t, report.FormatLaTeX, s.Format)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[compiler]\ncomand = \"gcc\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler.comand")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, data := range map[string]string{
		"empty command": "[compiler]\ncommand = \"  \"\n",
		"negative jobs": "[run]\njobs = -1\n",
		"bad toml":      "[compiler\n",
	} {
		path := writeConfig(t, t.TempDir(), data)
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	for name, data := range map[string]string{
		"bad timeout": "[compiler]\ntimeout = \"soon\"\n",
		"bad format":  "[report]\nformat = \"html\"\n",
	} {
		path := writeConfig(t, t.TempDir(), data)
		m, err := Load(path)
		require.NoError(t, err, name)
		_, err = m.Apply(Defaults())
		assert.Error(t, err, name)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[report]\nformat = \"plain\"\n")
	nested := filepath.Join(root, "week1", "hello")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := Discover("", filepath.Join(nested, "main.cpp"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, filepath.Join(root, FileName), m.Path)
}

func TestDiscoverExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[run]\njobs = 2\n")
	m, err := Discover(path, "/nowhere/main.cpp")
	require.NoError(t, err)
	s, err := m.Apply(Defaults())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs)
}

func TestNilManifestApply(t *testing.T) {
	var m *Manifest
	s, err := m.Apply(Defaults())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

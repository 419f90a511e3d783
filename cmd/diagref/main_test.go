package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagref/internal/compile"
	"diagref/internal/report"
)

const returnCheckingCC = `#!/bin/sh
if ! grep -q return "$1"; then
  echo "$1: error: no return statement" >&2
fi
`

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func writeTestFile(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func TestGenPlainAndRenderArchive(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	cc := writeTestFile(t, dir, "fakecc", returnCheckingCC, 0o700)
	src := writeTestFile(t, dir, "main.cpp", "int main() {\n\n  return 0;\n}\n", 0o600)
	archivePath := filepath.Join(dir, "out", "main.mp")

	got, err := execute(t, "gen", "--compiler", cc, "--plain", "--ui", "off", "--save", archivePath, src)
	require.NoError(t, err)

	want := "Iterative Line Removal: Compiler Output Messages using " + cc + "\n\n" +
		"Original Source:\n" +
		"int main() {\n" +
		"\n" +
		"  return 0;\n" +
		"}\n" +
		"\n" +
		"Line 1: \t int main() { : \n" +
		"No Warnings or Errors\n" +
		"Line 3: \t return 0; : \n" +
		"main.cpp: error: no return statement\n" +
		"Line 4: \t } : \n" +
		"No Warnings or Errors\n"
	assert.Equal(t, want, got)

	rendered, err := execute(t, "render", "--plain", archivePath)
	require.NoError(t, err)
	assert.Equal(t, want, rendered)

	latex, err := execute(t, "render", archivePath)
	require.NoError(t, err)
	assert.Contains(t, latex, "\\section{return 0; [Line 3]}\n")
	assert.True(t, strings.HasSuffix(latex, "\\end{document}\n"))
}

func TestGenBaselineFailureWritesNoReport(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	cc := writeTestFile(t, dir, "fakecc", returnCheckingCC, 0o700)
	src := writeTestFile(t, dir, "main.cpp", "int main() {\n}\n", 0o600)

	got, err := execute(t, "gen", "--compiler", cc, "--ui", "off", src)
	var baseErr *compile.BaselineCompileError
	require.ErrorAs(t, err, &baseErr)
	assert.Empty(t, got)
}

func TestGenEmptySource(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "main.cpp", "", 0o600)

	got, err := execute(t, "gen", "--ui", "off", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty source")
	assert.Empty(t, got)
}

func TestGenMissingCompiler(t *testing.T) {
	dir := t.TempDir()
	src := writeTestFile(t, dir, "main.cpp", "int main() { return 0; }\n", 0o600)

	got, err := execute(t, "gen", "--compiler", "diagref-no-such-compiler", "--ui", "off", src)
	var invErr *compile.CompilerInvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Empty(t, got)
}

func TestResolveSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "diagref.toml", `[compiler]
command = "gcc -Wall"
extension = "c"
language = "C"

[report]
format = "plain"

[run]
jobs = 2
`, 0o600)
	src := writeTestFile(t, dir, "hello.c", "int main(void) { return 0; }\n", 0o600)

	root := newRootCmd()
	gen, _, err := root.Find([]string{"gen"})
	require.NoError(t, err)
	require.NoError(t, gen.ParseFlags([]string{"--compiler", "clang -Weverything", "-j", "3"}))

	settings, err := resolveSettings(gen, src)
	require.NoError(t, err)
	assert.Equal(t, "clang -Weverything", settings.Spec.Command)
	assert.Equal(t, ".c", settings.Spec.Extension)
	assert.Equal(t, "C", settings.Spec.Language)
	assert.Equal(t, report.FormatPlain, settings.Format)
	assert.Equal(t, 3, settings.Jobs)
}

func TestResolveSettingsDefaults(t *testing.T) {
	src := writeTestFile(t, t.TempDir(), "main.cpp", "x\n", 0o600)

	root := newRootCmd()
	gen, _, err := root.Find([]string{"gen"})
	require.NoError(t, err)
	require.NoError(t, gen.ParseFlags(nil))

	settings, err := resolveSettings(gen, src)
	require.NoError(t, err)
	assert.Equal(t, compile.DefaultSpec(), settings.Spec)
	assert.Equal(t, report.FormatLaTeX, settings.Format)
	assert.Zero(t, settings.Jobs)
}

func TestResolveSettingsRejectsConflicts(t *testing.T) {
	src := writeTestFile(t, t.TempDir(), "main.cpp", "x\n", 0o600)

	for _, args := range [][]string{
		{"--plain", "--format", "latex"},
		{"--format", "html"},
		{"--jobs=-2"},
	} {
		root := newRootCmd()
		gen, _, err := root.Find([]string{"gen"})
		require.NoError(t, err)
		require.NoError(t, gen.ParseFlags(args))
		_, err = resolveSettings(gen, src)
		assert.Error(t, err, "%v", args)
	}
}

func TestReportErrorPrintsBaselineDiagnostics(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, &compile.BaselineCompileError{Path: "main.cpp", Diagnostics: "main.cpp:1:1: error: boom"})
	assert.Contains(t, out.String(), "error: the unmodified source main.cpp compiles with warnings or errors\n")
	assert.True(t, strings.HasSuffix(out.String(), "main.cpp:1:1: error: boom\n"))

	out.Reset()
	reportError(&out, errors.New("plain failure"))
	assert.Contains(t, out.String(), "plain failure\n")
}

func TestReadUIMode(t *testing.T) {
	for input, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readUIMode("sometimes")
	assert.Error(t, err)
	assert.True(t, shouldUseTUI(uiModeOn))
	assert.False(t, shouldUseTUI(uiModeOff))
}

func TestVersionJSON(t *testing.T) {
	got, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &payload))
	assert.Equal(t, "diagref", payload["tool"])
	assert.NotEmpty(t, payload["version"])

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestInvalidColorFlag(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--color", "rainbow", "version"})
	root.SetOut(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestRenderRejectsPlainWithOtherFormat(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	cc := writeTestFile(t, dir, "fakecc", returnCheckingCC, 0o700)
	src := writeTestFile(t, dir, "main.cpp", "int main() {\n  return 0;\n}\n", 0o600)
	archivePath := filepath.Join(dir, "main.mp")

	_, err := execute(t, "gen", "--compiler", cc, "--ui", "off", "--save", archivePath, src)
	require.NoError(t, err)

	got, err := execute(t, "render", "--plain", "--format", "latex", archivePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")
	assert.Empty(t, got)

	got, err = execute(t, "render", "--plain", "--format", "plain", archivePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Iterative Line Removal"))
}

func TestGenHelpNamesScratchCopyLimitation(t *testing.T) {
	root := newRootCmd()
	gen, _, err := root.Find([]string{"gen"})
	require.NoError(t, err)
	assert.Contains(t, gen.Long, "scratch directory")
	assert.Contains(t, gen.Long, "-I")
}

// Package config resolves run settings from built-in defaults and an optional
// diagref.toml found next to (or above) the subject file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"diagref/internal/compile"
	"diagref/internal/report"
)

// FileName is the config file looked up from the source directory upward.
const FileName = "diagref.toml"

// Settings is the resolved, immutable configuration of a run.
type Settings struct {
	Spec   compile.Spec
	Format report.Format
	Jobs   int
}

// Defaults returns the built-in settings: g++ -Wall, C++, LaTeX, auto jobs.
func Defaults() Settings {
	return Settings{
		Spec:   compile.DefaultSpec(),
		Format: report.FormatLaTeX,
	}
}

// Manifest is a decoded config file.
type Manifest struct {
	Path   string
	Config fileConfig
	meta   toml.MetaData
}

type fileConfig struct {
	Compiler compilerConfig `toml:"compiler"`
	Report   reportConfig   `toml:"report"`
	Run      runConfig      `toml:"run"`
}

type compilerConfig struct {
	Command   string `toml:"command"`
	Extension string `toml:"extension"`
	Language  string `toml:"language"`
	Timeout   string `toml:"timeout"`
}

type reportConfig struct {
	Format string `toml:"format"`
}

type runConfig struct {
	Jobs       int    `toml:"jobs"`
	ScratchDir string `toml:"scratch_dir"`
}

// Find walks from startDir up to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes and validates a config file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func Load(path string) (*Manifest, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("compiler", "command") && strings.TrimSpace(cfg.Compiler.Command) == "" {
		return nil, fmt.Errorf("%s: [compiler].command must not be empty", path)
	}
	if cfg.Run.Jobs < 0 {
		return nil, fmt.Errorf("%s: [run].jobs must be >= 0", path)
	}
	return &Manifest{Path: path, Config: cfg, meta: meta}, nil
}

// Discover loads the config for sourcePath: explicit wins, otherwise the
// nearest FileName above the source. A nil manifest means none was found.
func Discover(explicit, sourcePath string) (*Manifest, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(filepath.Dir(sourcePath))
	if err != nil || !ok {
		return nil, err
	}
	return Load(path)
}

// Apply overlays the keys present in the manifest onto s.
func (m *Manifest) Apply(s Settings) (Settings, error) {
	if m == nil {
		return s, nil
	}
	c := m.Config
	if m.meta.IsDefined("compiler", "command") {
		s.Spec.Command = c.Compiler.Command
	}
	if m.meta.IsDefined("compiler", "extension") {
		s.Spec.Extension = c.Compiler.Extension
	}
	if m.meta.IsDefined("compiler", "language") {
		s.Spec.Language = c.Compiler.Language
	}
	if m.meta.IsDefined("compiler", "timeout") {
		d, err := time.ParseDuration(c.Compiler.Timeout)
		if err != nil || d < 0 {
			return s, fmt.Errorf("%s: invalid [compiler].timeout %q", m.Path, c.Compiler.Timeout)
		}
		s.Spec.Timeout = d
	}
	if m.meta.IsDefined("report", "format") {
		format, err := report.ParseFormat(c.Report.Format)
		if err != nil {
			return s, fmt.Errorf("%s: %w", m.Path, err)
		}
		s.Format = format
	}
	if m.meta.IsDefined("run", "jobs") {
		s.Jobs = c.Run.Jobs
	}
	if m.meta.IsDefined("run", "scratch_dir") {
		dir := c.Run.ScratchDir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(m.Path), dir)
		}
		s.Spec.ScratchDir = dir
	}
	return s, nil
}

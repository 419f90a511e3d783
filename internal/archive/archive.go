// Package archive stores the outcome of a run on disk so a report can be
// rendered again, in either format, without recompiling anything.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"diagref/internal/compile"
	"diagref/internal/report"
	"diagref/internal/source"
)

// SchemaVersion must be bumped whenever the Archive layout changes.
const SchemaVersion uint16 = 1

// ErrSchemaMismatch is returned for archives written by an incompatible version.
var ErrSchemaMismatch = errors.New("archive schema mismatch")

// Archive is the serialized form of a finished run.
type Archive struct {
	Schema    uint16 `msgpack:"schema"`
	Tool      string `msgpack:"tool"`
	CreatedAt int64  `msgpack:"created_at"`

	Command   string `msgpack:"command"`
	Extension string `msgpack:"extension"`
	Language  string `msgpack:"language"`

	SourcePath string   `msgpack:"source_path"`
	Lines      []string `msgpack:"lines"`

	Sections []Record `msgpack:"sections"`
}

// Record is one archived section.
type Record struct {
	Line     uint32 `msgpack:"line"`
	Label    string `msgpack:"label"`
	Kind     uint8  `msgpack:"kind"`
	Text     string `msgpack:"text,omitempty"`
	Stdout   string `msgpack:"stdout,omitempty"`
	ExitCode int32  `msgpack:"exit_code"`
	Elapsed  int64  `msgpack:"elapsed_ns"`
}

// New captures a run's document, invocation and sections.
func New(tool string, doc *source.Document, spec compile.Spec, sections []report.Section) (*Archive, error) {
	if doc == nil {
		return nil, fmt.Errorf("missing document")
	}
	a := &Archive{
		Schema:     SchemaVersion,
		Tool:       tool,
		CreatedAt:  time.Now().Unix(),
		Command:    spec.Command,
		Extension:  spec.Extension,
		Language:   spec.Language,
		SourcePath: doc.Path,
		Lines:      append([]string(nil), doc.Lines...),
		Sections:   make([]Record, 0, len(sections)),
	}
	for _, s := range sections {
		line, err := safecast.Conv[uint32](s.Line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.Line, err)
		}
		exitCode, err := safecast.Conv[int32](s.Outcome.ExitCode)
		if err != nil {
			return nil, fmt.Errorf("line %d exit code: %w", s.Line, err)
		}
		a.Sections = append(a.Sections, Record{
			Line:     line,
			Label:    s.Label,
			Kind:     uint8(s.Outcome.Kind),
			Text:     s.Outcome.Text,
			Stdout:   s.Outcome.Stdout,
			ExitCode: exitCode,
			Elapsed:  int64(s.Outcome.Elapsed),
		})
	}
	return a, nil
}

// Document rebuilds the archived source document.
func (a *Archive) Document() *source.Document {
	return &source.Document{
		Path:  a.SourcePath,
		Lines: append([]string(nil), a.Lines...),
		Flags: source.FlagVirtual,
	}
}

// Spec rebuilds the invocation spec the run used.
func (a *Archive) Spec() compile.Spec {
	return compile.Spec{
		Command:   a.Command,
		Extension: a.Extension,
		Language:  a.Language,
	}
}

// ReportSections converts the records back into report sections.
func (a *Archive) ReportSections() []report.Section {
	out := make([]report.Section, 0, len(a.Sections))
	for _, r := range a.Sections {
		out = append(out, report.Section{
			Label: r.Label,
			Line:  int(r.Line),
			Outcome: compile.Outcome{
				Kind:     compile.Kind(r.Kind),
				Text:     r.Text,
				Stdout:   r.Stdout,
				ExitCode: int(r.ExitCode),
				Elapsed:  time.Duration(r.Elapsed),
			},
		})
	}
	return out
}

// Save writes a to path atomically.
func Save(path string, a *Archive) error {
	if a == nil {
		return fmt.Errorf("missing archive")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".diagref-*.tmp")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	// после успешного Rename файла уже нет
	defer func() { _ = os.Remove(tmpName) }()

	if err := msgpack.NewEncoder(f).Encode(a); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmpName, path)
}

// Load reads an archive written by Save.
func Load(path string) (*Archive, error) {
	// #nosec G304 -- path is provided by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var a Archive
	if err := msgpack.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("%s: failed to decode archive: %w", path, err)
	}
	if a.Schema != SchemaVersion {
		return nil, fmt.Errorf("%s: %w (got %d, want %d)", path, ErrSchemaMismatch, a.Schema, SchemaVersion)
	}
	return &a, nil
}

// Package report renders the per-line compilation reference as a LaTeX
// document or as plain text.
package report

import (
	"fmt"
	"io"
	"strings"

	"diagref/internal/compile"
	"diagref/internal/source"
)

// Format selects an Emitter realization.
type Format string

const (
	// FormatLaTeX emits a complete LaTeX article.
	FormatLaTeX Format = "latex"
	// FormatPlain emits plain text.
	FormatPlain Format = "plain"
)

// ParseFormat maps a flag or config value to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "latex", "tex":
		return FormatLaTeX, nil
	case "plain", "text", "txt":
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected latex|plain)", value)
	}
}

// Meta carries the run settings a report names in its header and listing.
type Meta struct {
	Compiler string
	Language string
	Author   string
}

// Emitter writes a report. Calls come in a fixed order: Header,
// IncludeSource, then Section followed by Diagnostic or Clean for each case,
// and finally Footer.
type Emitter interface {
	Header() error
	IncludeSource(doc *source.Document) error
	Section(label string, line int) error
	Diagnostic(text string) error
	Clean() error
	Footer() error
}

// Section pairs a removed line with its classification.
type Section struct {
	Label   string
	Line    int
	Outcome compile.Outcome
}

// New returns the Emitter for format writing to w.
func New(format Format, w io.Writer, meta Meta) (Emitter, error) {
	if meta.Author == "" {
		meta.Author = "diagref"
	}
	switch format {
	case FormatLaTeX:
		return &LaTeX{w: w, meta: meta}, nil
	case FormatPlain:
		return &Plain{w: w, meta: meta}, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// Render drives e through a whole report. Sections are written in the order
// given; callers sort them by line.
func Render(e Emitter, doc *source.Document, sections []Section) error {
	if err := e.Header(); err != nil {
		return err
	}
	if err := e.IncludeSource(doc); err != nil {
		return err
	}
	for _, s := range sections {
		if err := e.Section(s.Label, s.Line); err != nil {
			return err
		}
		var err error
		if s.Outcome.Kind == compile.Diagnostic {
			err = e.Diagnostic(s.Outcome.Text)
		} else {
			err = e.Clean()
		}
		if err != nil {
			return err
		}
	}
	return e.Footer()
}

const (
	titlePrefix = "Iterative Line Removal: Compiler Output Messages using "
	noProblems  = "No Warnings or Errors"
)

func withNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

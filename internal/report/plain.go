package report

import (
	"fmt"
	"io"

	"diagref/internal/source"
)

// Plain emits a plain-text report with the source transcribed inline.
type Plain struct {
	w    io.Writer
	meta Meta
}

func (p *Plain) Header() error {
	_, err := fmt.Fprintf(p.w, "%s%s\n\n", titlePrefix, p.meta.Compiler)
	return err
}

func (p *Plain) IncludeSource(doc *source.Document) error {
	if _, err := io.WriteString(p.w, "Original Source:\n"); err != nil {
		return err
	}
	for _, line := range doc.Lines {
		if _, err := io.WriteString(p.w, line+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, "\n")
	return err
}

func (p *Plain) Section(label string, line int) error {
	_, err := fmt.Fprintf(p.w, "Line %d: \t %s : \n", line, label)
	return err
}

func (p *Plain) Diagnostic(text string) error {
	_, err := io.WriteString(p.w, withNewline(text))
	return err
}

func (p *Plain) Clean() error {
	_, err := io.WriteString(p.w, noProblems+"\n")
	return err
}

// Footer writes nothing; plain reports simply end.
func (p *Plain) Footer() error { return nil }

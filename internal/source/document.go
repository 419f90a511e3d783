package source

import (
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
)

// Load reads a file from disk, strips a UTF-8 BOM, normalizes CRLF and splits
// it into lines.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the operator
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnreadableSourceError{Path: path, Err: err}
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := Flags(0)
	if hadBOM {
		flags |= FlagHadBOM
	}
	if hadCRLF {
		flags |= FlagNormalizedCRLF
	}
	doc := &Document{
		Path:  normalizePath(path),
		Lines: splitLines(content),
		Flags: flags,
	}
	if doc.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptySource)
	}
	return doc, nil
}

// FromString builds a virtual document from in-memory text.
func FromString(path, content string) *Document {
	normalized, _ := normalizeCRLF([]byte(content))
	return &Document{
		Path:  path,
		Lines: splitLines(normalized),
		Flags: FlagVirtual,
	}
}

// Len returns the number of lines.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Lines)
}

// Line returns the text of line n (1-based) or "" when n is out of range.
func (d *Document) Line(n int) string {
	if n < 1 || n > d.Len() {
		return ""
	}
	return d.Lines[n-1]
}

// Blank reports whether line n has no content once its terminator is gone.
func (d *Document) Blank(n int) bool {
	return d.Line(n) == ""
}

// Without returns a copy of the document with line n (1-based) removed.
func (d *Document) Without(n int) *Document {
	if n < 1 || n > d.Len() {
		panic(fmt.Errorf("line %d out of range [1, %d]", n, d.Len()))
	}
	lines := make([]string, 0, d.Len()-1)
	lines = append(lines, d.Lines[:n-1]...)
	lines = append(lines, d.Lines[n:]...)
	return &Document{
		Path:  d.Path,
		Lines: lines,
		Flags: d.Flags | FlagVirtual,
	}
}

// Bytes renders the document with every line terminated by '\n'.
// A document without lines renders as an empty slice.
func (d *Document) Bytes() []byte {
	if d.Len() == 0 {
		return []byte{}
	}
	var b strings.Builder
	for _, line := range d.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// LineNumber converts a 1-based line index to the compact form used in
// archives and progress events.
func LineNumber(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return v
}

// Package mutate derives single-line-removal cases from a source document.
package mutate

import (
	"iter"
	"strings"

	"diagref/internal/source"
)

// Case is one trial: the document with exactly one non-blank line removed.
type Case struct {
	Line    int              // 1-based line number of the removed line
	Removed string           // removed text, without terminator
	Reduced *source.Document // original minus Line
}

// Label returns the removed text trimmed of surrounding whitespace, the form
// used as a section title.
func (c Case) Label() string {
	return strings.TrimSpace(c.Removed)
}

// Cases yields one Case per non-blank line in ascending line order.
// The sequence is lazy and may be ranged over any number of times.
func Cases(doc *source.Document) iter.Seq[Case] {
	return func(yield func(Case) bool) {
		for n := 1; n <= doc.Len(); n++ {
			if doc.Blank(n) {
				continue
			}
			c := Case{
				Line:    n,
				Removed: doc.Line(n),
				Reduced: doc.Without(n),
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Count returns how many cases Cases would yield.
func Count(doc *source.Document) int {
	total := 0
	for n := 1; n <= doc.Len(); n++ {
		if !doc.Blank(n) {
			total++
		}
	}
	return total
}

// Lines returns the line numbers Cases would yield, without building the
// reduced documents.
func Lines(doc *source.Document) []int {
	out := make([]int, 0, Count(doc))
	for n := 1; n <= doc.Len(); n++ {
		if !doc.Blank(n) {
			out = append(out, n)
		}
	}
	return out
}

package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"diagref/internal/source"
)

const latexPreamble = `\documentclass{article}

\usepackage[pdftex, pdfusetitle, colorlinks, urlcolor=blue,]{hyperref}
\usepackage{listings}

\author{%s}
\title{%s}

\begin{document}
\maketitle
\tableofcontents
\newpage
`

var latexReplacer = strings.NewReplacer(
	`#`, `\#`,
	`%`, `\%`,
	`{`, `\{`,
	`}`, `\}`,
)

// Escape prefixes every '#', '%', '{' and '}' with a backslash. Text without
// those characters comes back unchanged.
func Escape(text string) string {
	return latexReplacer.Replace(text)
}

// LaTeX emits a listings-based LaTeX article.
type LaTeX struct {
	w    io.Writer
	meta Meta
}

// command writes \name{arg} with arg trimmed, NFC-normalized and escaped.
func (l *LaTeX) command(name, arg string) error {
	arg = norm.NFC.String(strings.TrimSpace(arg))
	_, err := fmt.Fprintf(l.w, "\\%s{%s}\n", name, Escape(arg))
	return err
}

func (l *LaTeX) Header() error {
	title := Escape(titlePrefix + l.meta.Compiler)
	_, err := fmt.Fprintf(l.w, latexPreamble, Escape(l.meta.Author), title)
	return err
}

// IncludeSource embeds the original file by path as a numbered listing.
func (l *LaTeX) IncludeSource(doc *source.Document) error {
	steps := []struct{ name, arg string }{
		{"begin", "center"},
		{"large", "Original Source"},
		{"end", "center"},
		{"lstset", "numbers=left"},
		{fmt.Sprintf("lstinputlisting[language=%s]", l.meta.Language), doc.Path},
	}
	for _, s := range steps {
		if err := l.command(s.name, s.arg); err != nil {
			return err
		}
	}
	_, err := io.WriteString(l.w, "\\newpage\n")
	return err
}

func (l *LaTeX) Section(label string, line int) error {
	return l.command("section", fmt.Sprintf("%s [Line %d]", label, line))
}

// Diagnostic writes text verbatim; it is not escaped.
func (l *LaTeX) Diagnostic(text string) error {
	if err := l.command("begin", "verbatim"); err != nil {
		return err
	}
	if _, err := io.WriteString(l.w, withNewline(text)); err != nil {
		return err
	}
	if err := l.command("end", "verbatim"); err != nil {
		return err
	}
	_, err := io.WriteString(l.w, "\n")
	return err
}

func (l *LaTeX) Clean() error {
	_, err := io.WriteString(l.w, noProblems+"\n\n")
	return err
}

func (l *LaTeX) Footer() error {
	_, err := io.WriteString(l.w, "\\end{document}\n")
	return err
}

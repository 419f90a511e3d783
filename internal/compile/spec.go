// Package compile materializes sources, invokes an external compiler and
// classifies what it reports.
package compile

import (
	"fmt"
	"strings"
	"time"
)

// Default invocation settings.
const (
	DefaultCommand   = "g++ -Wall"
	DefaultExtension = ".cpp"
	DefaultLanguage  = "C++"
)

// Spec describes how the external compiler is invoked. It is built once from
// CLI and config input and never mutated afterwards.
type Spec struct {
	// Command is the compiler invocation; the materialized file name is
	// appended as the last argument.
	Command string
	// Extension is the file name extension materialized sources get.
	Extension string
	// Language annotates the source listing in structured reports.
	Language string
	// ScratchDir is the parent for the per-run scratch directory ("" = os temp dir).
	ScratchDir string
	// Timeout bounds a single compiler invocation (0 = none).
	Timeout time.Duration
}

// DefaultSpec returns the stock g++ invocation.
func DefaultSpec() Spec {
	return Spec{
		Command:   DefaultCommand,
		Extension: DefaultExtension,
		Language:  DefaultLanguage,
	}
}

// Normalized fills empty fields with defaults and makes sure the extension
// starts with a dot.
func (s Spec) Normalized() Spec {
	if strings.TrimSpace(s.Command) == "" {
		s.Command = DefaultCommand
	}
	s.Command = strings.TrimSpace(s.Command)
	if s.Extension == "" {
		s.Extension = DefaultExtension
	}
	if !strings.HasPrefix(s.Extension, ".") {
		s.Extension = "." + s.Extension
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	return s
}

// Argv splits Command on whitespace.
// TODO: honour shell quoting so compiler flags may contain spaces.
func (s Spec) Argv() ([]string, error) {
	argv := strings.Fields(s.Command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty compiler command")
	}
	return argv, nil
}

package compile

import "time"

// Kind classifies a compilation.
type Kind uint8

const (
	// Clean means the diagnostic stream was empty.
	Clean Kind = iota
	// Diagnostic means the compiler wrote something to its diagnostic stream.
	Diagnostic
)

func (k Kind) String() string {
	switch k {
	case Clean:
		return "clean"
	case Diagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Result is the raw capture of one compiler invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Outcome is a classified compilation. Only Text decides the Kind; Stdout and
// ExitCode are kept for logs and archives.
type Outcome struct {
	Kind     Kind
	Text     string
	Stdout   string
	ExitCode int
	Elapsed  time.Duration
}

// Classify turns a raw result into an Outcome: a non-empty diagnostic stream
// is a Diagnostic, anything else is Clean regardless of exit status.
func Classify(res Result) Outcome {
	out := Outcome{
		Kind:     Clean,
		Stdout:   string(res.Stdout),
		ExitCode: res.ExitCode,
	}
	if len(res.Stderr) > 0 {
		out.Kind = Diagnostic
		out.Text = string(res.Stderr)
	}
	return out
}

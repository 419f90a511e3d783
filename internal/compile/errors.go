package compile

import "fmt"

// BaselineCompileError reports that the unmodified source already produces
// diagnostics, which makes every per-line result meaningless.
type BaselineCompileError struct {
	Path        string
	Diagnostics string
}

func (e *BaselineCompileError) Error() string {
	return fmt.Sprintf("the unmodified source %s compiles with warnings or errors", e.Path)
}

// CompilerInvocationError reports a compiler that could not be located,
// started or waited for. Unlike a diagnostic it aborts the run.
type CompilerInvocationError struct {
	Command string
	Err     error
}

func (e *CompilerInvocationError) Error() string {
	return fmt.Sprintf("cannot invoke compiler %q: %v", e.Command, e.Err)
}

func (e *CompilerInvocationError) Unwrap() error { return e.Err }

package compile

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// waitDelay bounds how long a killed compiler may keep its output pipes open.
const waitDelay = 2 * time.Second

// Compiler is the narrow capability the runner needs: compile file inside
// dir and hand back what the process wrote.
type Compiler interface {
	Compile(ctx context.Context, dir, file string) (Result, error)
}

// Checker is implemented by compilers that can verify they are invocable
// before any source is compiled.
type Checker interface {
	Check() error
}

// Exec runs a real compiler binary via os/exec.
type Exec struct {
	command string
	argv    []string
}

// NewExec prepares an Exec from the spec's command line.
func NewExec(spec Spec) (*Exec, error) {
	argv, err := spec.Argv()
	if err != nil {
		return nil, &CompilerInvocationError{Command: spec.Command, Err: err}
	}
	// Компилятор запускается из scratch-каталога, поэтому относительный
	// путь фиксируем относительно текущего каталога заранее.
	if strings.ContainsRune(argv[0], filepath.Separator) || strings.ContainsRune(argv[0], '/') {
		resolved, lookErr := exec.LookPath(argv[0])
		if lookErr != nil {
			return nil, &CompilerInvocationError{Command: spec.Command, Err: lookErr}
		}
		if argv[0], err = filepath.Abs(resolved); err != nil {
			return nil, &CompilerInvocationError{Command: spec.Command, Err: err}
		}
	}
	return &Exec{command: spec.Command, argv: argv}, nil
}

// Check verifies the compiler binary can be found on PATH.
func (e *Exec) Check() error {
	if _, err := exec.LookPath(e.argv[0]); err != nil {
		return &CompilerInvocationError{Command: e.command, Err: err}
	}
	return nil
}

// Compile runs `<command> <file>` with dir as working directory. A non-zero
// exit status is not an error; failing to start or wait for the process is.
func (e *Exec) Compile(ctx context.Context, dir, file string) (Result, error) {
	args := append(append([]string{}, e.argv[1:]...), file)
	// #nosec G204 -- the compiler command is operator supplied
	cmd := exec.CommandContext(ctx, e.argv[0], args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, &CompilerInvocationError{Command: e.command, Err: ctxErr}
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, &CompilerInvocationError{Command: e.command, Err: err}
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

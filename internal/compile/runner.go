package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"diagref/internal/mutate"
	"diagref/internal/source"
)

// Runner materializes documents into a private scratch directory and
// compiles them one invocation at a time per call. Calls are safe to make
// concurrently: every call gets its own subdirectory.
type Runner struct {
	spec     Spec
	compiler Compiler
	dir      string
	log      *zap.Logger
}

// NewRunner creates the run's scratch directory. Close removes it.
func NewRunner(spec Spec, compiler Compiler, log *zap.Logger) (*Runner, error) {
	if compiler == nil {
		return nil, fmt.Errorf("missing compiler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	spec = spec.Normalized()
	dir, err := os.MkdirTemp(spec.ScratchDir, "diagref-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return &Runner{spec: spec, compiler: compiler, dir: dir, log: log}, nil
}

// Spec returns the normalized invocation spec.
func (r *Runner) Spec() Spec { return r.spec }

// Dir returns the scratch directory.
func (r *Runner) Dir() string { return r.dir }

// Close removes the scratch directory and everything the compiler left in it.
func (r *Runner) Close() error {
	if r == nil || r.dir == "" {
		return nil
	}
	if err := os.RemoveAll(r.dir); err != nil {
		return fmt.Errorf("failed to clean scratch dir: %w", err)
	}
	return nil
}

// Check asks the compiler whether it is invocable, when it can tell.
func (r *Runner) Check() error {
	if c, ok := r.compiler.(Checker); ok {
		return c.Check()
	}
	return nil
}

// Baseline compiles the unmodified document. Diagnostics produce a
// *BaselineCompileError.
func (r *Runner) Baseline(ctx context.Context, doc *source.Document) (Outcome, error) {
	out, err := r.compile(ctx, "baseline", doc)
	if err != nil {
		return out, err
	}
	if out.Kind == Diagnostic {
		return out, &BaselineCompileError{Path: doc.Path, Diagnostics: out.Text}
	}
	return out, nil
}

// Run compiles one mutation case.
func (r *Runner) Run(ctx context.Context, c mutate.Case) (Outcome, error) {
	out, err := r.compile(ctx, fmt.Sprintf("line%d", c.Line), c.Reduced)
	if err != nil {
		return out, fmt.Errorf("line %d: %w", c.Line, err)
	}
	r.log.Debug("case compiled",
		zap.Int("line", c.Line),
		zap.Stringer("outcome", out.Kind),
		zap.Int("exit_code", out.ExitCode),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

func (r *Runner) compile(ctx context.Context, tag string, doc *source.Document) (Outcome, error) {
	// Отдельный каталог на каждый вызов: компилятор может оставить a.out и т.п.
	workDir, err := os.MkdirTemp(r.dir, tag+"-*")
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			r.log.Warn("failed to remove work dir", zap.String("dir", workDir), zap.Error(rmErr))
		}
	}()

	name := r.fileName(doc)
	if err := os.WriteFile(filepath.Join(workDir, name), doc.Bytes(), 0o600); err != nil {
		return Outcome{}, fmt.Errorf("failed to materialize %s: %w", name, err)
	}

	if r.spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.spec.Timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := r.compiler.Compile(ctx, workDir, name)
	if err != nil {
		return Outcome{}, err
	}
	out := Classify(res)
	out.Elapsed = time.Since(start)
	return out, nil
}

// fileName keeps the subject's base name so diagnostics read naturally, but
// with the configured extension.
func (r *Runner) fileName(doc *source.Document) string {
	base := filepath.Base(doc.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "tempfile"
	}
	return base + r.spec.Extension
}

// Package pipeline sequences a run: load the subject, gate on a clean
// baseline, compile every single-line removal and write the report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"diagref/internal/compile"
	"diagref/internal/mutate"
	"diagref/internal/observ"
	"diagref/internal/report"
	"diagref/internal/source"
)

// Request configures one run.
type Request struct {
	SourcePath string
	Spec       compile.Spec
	Format     report.Format
	// Out receives the report. Nothing is written to it unless every
	// compilation succeeded.
	Out io.Writer
	// Jobs bounds concurrent compiler invocations (0 = GOMAXPROCS).
	Jobs int
	// Compiler overrides the os/exec compiler built from Spec.
	Compiler compile.Compiler
	Progress ProgressSink
	Log      *zap.Logger
	Timer    *observ.Timer
}

// Result summarizes a successful run.
type Result struct {
	Document    *source.Document
	Spec        compile.Spec
	Sections    []report.Section
	Clean       int
	Diagnostics int
}

// Run executes the whole pipeline. Any returned error is fatal and leaves
// req.Out untouched.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing request")
	}
	if req.Out == nil {
		return result, fmt.Errorf("missing report output")
	}
	log := req.Log
	if log == nil {
		log = zap.NewNop()
	}
	spec := req.Spec.Normalized()
	result.Spec = spec

	phase := req.Timer.Begin(string(StageLoad))
	doc, err := source.Load(req.SourcePath)
	if err != nil {
		emit(req.Progress, Event{Stage: StageLoad, Status: StatusError, Err: err})
		return result, err
	}
	result.Document = doc
	req.Timer.End(phase, fmt.Sprintf("%d lines", doc.Len()))
	log.Info("source loaded", zap.String("path", doc.Path), zap.Int("lines", doc.Len()), zap.Int("cases", mutate.Count(doc)))

	compiler := req.Compiler
	if compiler == nil {
		execCompiler, execErr := compile.NewExec(spec)
		if execErr != nil {
			return result, execErr
		}
		compiler = execCompiler
	}
	runner, err := compile.NewRunner(spec, compiler, log)
	if err != nil {
		return result, err
	}
	defer func() {
		if closeErr := runner.Close(); closeErr != nil {
			log.Warn("scratch cleanup failed", zap.Error(closeErr))
		}
	}()

	if err := runner.Check(); err != nil {
		emit(req.Progress, Event{Stage: StageBaseline, Status: StatusError, Err: err})
		return result, err
	}

	phase = req.Timer.Begin(string(StageBaseline))
	emit(req.Progress, Event{Stage: StageBaseline, Status: StatusWorking})
	baseline, err := runner.Baseline(ctx, doc)
	if err != nil {
		emit(req.Progress, Event{Stage: StageBaseline, Status: StatusError, Err: err})
		return result, err
	}
	req.Timer.End(phase, "")
	log.Info("baseline compiles cleanly", zap.Duration("elapsed", baseline.Elapsed))

	phase = req.Timer.Begin(string(StageCompile))
	sections, err := compileCases(ctx, runner, doc, req)
	if err != nil {
		return result, err
	}
	req.Timer.End(phase, fmt.Sprintf("%d cases", len(sections)))
	result.Sections = sections
	for _, s := range sections {
		if s.Outcome.Kind == compile.Diagnostic {
			result.Diagnostics++
		} else {
			result.Clean++
		}
	}

	phase = req.Timer.Begin(string(StageEmit))
	emit(req.Progress, Event{Stage: StageEmit, Status: StatusWorking})
	emitter, err := report.New(req.Format, req.Out, report.Meta{Compiler: spec.Command, Language: spec.Language})
	if err != nil {
		return result, err
	}
	if err := report.Render(emitter, doc, sections); err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}
	req.Timer.End(phase, string(req.Format))
	emit(req.Progress, Event{Stage: StageEmit, Status: StatusDone})

	log.Info("report written",
		zap.Int("sections", len(sections)),
		zap.Int("clean", result.Clean),
		zap.Int("diagnostics", result.Diagnostics))
	return result, nil
}

// compileCases runs every mutation case with at most req.Jobs in flight and
// returns the sections in ascending line order.
func compileCases(ctx context.Context, runner *compile.Runner, doc *source.Document, req *Request) ([]report.Section, error) {
	lines := mutate.Lines(doc)
	for _, n := range lines {
		emit(req.Progress, Event{Line: n, Label: doc.Line(n), Stage: StageCompile, Status: StatusQueued})
	}
	if len(lines) == 0 {
		return []report.Section{}, nil
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Индекс i уникален для каждой горутины, мьютекс не нужен.
	sections := make([]report.Section, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(lines)))

	i := 0
	for c := range mutate.Cases(doc) {
		g.Go(func(i int, c mutate.Case) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				emit(req.Progress, Event{Line: c.Line, Stage: StageCompile, Status: StatusWorking})
				out, err := runner.Run(gctx, c)
				if err != nil {
					emit(req.Progress, Event{Line: c.Line, Stage: StageCompile, Status: StatusError, Err: err})
					return err
				}
				sections[i] = report.Section{Label: c.Label(), Line: c.Line, Outcome: out}
				emit(req.Progress, Event{Line: c.Line, Stage: StageCompile, Status: StatusDone, Kind: out.Kind, Elapsed: out.Elapsed})
				return nil
			}
		}(i, c))
		i++
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sections, nil
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"diagref/internal/pipeline"
	"diagref/internal/ui"
)

type runOutcome struct {
	result pipeline.Result
	err    error
}

// runWithUI runs the pipeline while a progress view draws on stderr. The
// report is held back until the view has exited so the two never interleave.
func runWithUI(ctx context.Context, title string, req *pipeline.Request) (pipeline.Result, error) {
	if req == nil {
		return pipeline.Result{}, fmt.Errorf("missing request")
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)
	var report bytes.Buffer

	go func() {
		reqCopy := *req
		reqCopy.Out = &report
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, &reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// дочитываем события, чтобы пайплайн не заблокировался
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	if uiErr != nil && ctx.Err() != nil {
		return outcome.result, ctx.Err()
	}
	if _, err := io.Copy(req.Out, &report); err != nil {
		return outcome.result, fmt.Errorf("failed to write report: %w", err)
	}
	return outcome.result, nil
}

package pipeline

import (
	"time"

	"diagref/internal/compile"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad reads the subject file.
	StageLoad Stage = "load"
	// StageBaseline compiles the unmodified source.
	StageBaseline Stage = "baseline"
	// StageCompile compiles mutation cases.
	StageCompile Stage = "compile"
	// StageEmit writes the report.
	StageEmit Stage = "emit"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the case is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the case is being compiled.
	StatusWorking Status = "working"
	// StatusDone indicates the case finished.
	StatusDone Status = "done"
	// StatusError indicates the case hit a fatal error.
	StatusError Status = "error"
)

// Event reports progress for one mutation case, or for the whole run when
// Line is zero.
type Event struct {
	Line    int
	Label   string
	Stage   Stage
	Status  Status
	Kind    compile.Kind
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}

package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagref/internal/compile"
	"diagref/internal/pipeline"
)

func newModel() *progressModel {
	return NewProgressModel("main.cpp", make(chan pipeline.Event)).(*progressModel)
}

func TestApplyEventTracksCases(t *testing.T) {
	m := newModel()

	m.applyEvent(pipeline.Event{Line: 1, Label: "  int a;", Stage: pipeline.StageCompile, Status: pipeline.StatusQueued})
	m.applyEvent(pipeline.Event{Line: 3, Label: "return a;", Stage: pipeline.StageCompile, Status: pipeline.StatusQueued})
	m.applyEvent(pipeline.Event{Line: 1, Stage: pipeline.StageCompile, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{Line: 1, Stage: pipeline.StageCompile, Status: pipeline.StatusDone, Kind: compile.Diagnostic})

	require.Len(t, m.items, 2)
	assert.Equal(t, caseItem{line: 1, label: "int a;", status: "diagnostic"}, m.items[0])
	assert.Equal(t, "queued", m.items[1].status)
	assert.InDelta(t, 0.5, m.percent(), 1e-9)

	m.applyEvent(pipeline.Event{Line: 3, Stage: pipeline.StageCompile, Status: pipeline.StatusDone, Kind: compile.Clean})
	assert.Equal(t, "clean", m.items[1].status)
	assert.InDelta(t, 1.0, m.percent(), 1e-9)
}

func TestRunLevelEventsSetStageLabel(t *testing.T) {
	m := newModel()
	m.applyEvent(pipeline.Event{Stage: pipeline.StageBaseline, Status: pipeline.StatusWorking})
	assert.Equal(t, "baseline", m.stageLabel)
	assert.Empty(t, m.items)

	m.applyEvent(pipeline.Event{Stage: pipeline.StageBaseline, Status: pipeline.StatusError})
	assert.Equal(t, "failed", m.stageLabel)
}

func TestViewListsCases(t *testing.T) {
	m := newModel()
	m.applyEvent(pipeline.Event{Line: 7, Label: "printf(\"hi\");", Status: pipeline.StatusQueued})
	view := m.View()
	assert.Contains(t, view, "main.cpp")
	assert.Contains(t, view, "printf(\"hi\");")
	assert.Contains(t, view, "queued")
}

func TestVisibleItemsCapped(t *testing.T) {
	m := newModel()
	for line := 1; line <= maxVisible+5; line++ {
		m.applyEvent(pipeline.Event{Line: line, Status: pipeline.StatusQueued})
	}
	m.applyEvent(pipeline.Event{Line: maxVisible + 4, Status: pipeline.StatusWorking})

	visible := m.visibleItems()
	require.Len(t, visible, maxVisible)
	assert.Equal(t, 1, visible[0].line)
	assert.True(t, strings.Contains(m.View(), "... 5 more"))

	found := false
	for _, item := range visible {
		if item.line == maxVisible+4 {
			found = true
		}
	}
	assert.True(t, found, "in-flight case must be visible")
}

func TestVisibleItemsShowsRecentWhenAllDone(t *testing.T) {
	m := newModel()
	total := maxVisible + 3
	for line := 1; line <= total; line++ {
		m.applyEvent(pipeline.Event{Line: line, Status: pipeline.StatusQueued})
	}
	for line := 1; line <= total; line++ {
		m.applyEvent(pipeline.Event{Line: line, Status: pipeline.StatusDone, Kind: compile.Clean})
	}

	visible := m.visibleItems()
	require.Len(t, visible, maxVisible)
	// первые три завершились раньше всех и вытесняются
	assert.Equal(t, 4, visible[0].line)
	assert.Equal(t, total, visible[len(visible)-1].line)

	view := m.View()
	assert.Contains(t, view, "... 3 more")
	assert.Contains(t, view, "clean")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

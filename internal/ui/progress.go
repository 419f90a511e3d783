// Package ui renders a live progress view of a run on a terminal.
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"diagref/internal/compile"
	"diagref/internal/pipeline"
)

// maxVisible caps how many case rows are drawn; long files scroll through
// the ones currently compiling.
const maxVisible = 12

type progressModel struct {
	title      string
	events     <-chan pipeline.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []caseItem
	index      map[int]int
	stageLabel string
	width      int
	done       bool
	finished   int
}

type caseItem struct {
	line   int
	label  string
	status string
	// doneSeq orders finished cases; zero while the case is still pending.
	doneSeq int
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pipeline events
// until the channel is closed.
func NewProgressModel(title string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[int]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		updated, cmd := m.prog.Update(msg)
		m.prog = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := m.width - 12 - 12
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, item := range m.visibleItems() {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %5d  %s\n", status, item.line, truncate(item.label, nameWidth))
	}
	if hidden := len(m.items) - len(m.visibleItems()); hidden > 0 {
		fmt.Fprintf(&b, "  ... %d more\n", hidden)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visibleItems prefers cases still in flight, then queued ones, then the
// most recently finished.
func (m *progressModel) visibleItems() []caseItem {
	if len(m.items) <= maxVisible {
		return m.items
	}
	active := make([]caseItem, 0, maxVisible)
	for _, item := range m.items {
		if item.status == "compiling" {
			active = append(active, item)
		}
	}
	if len(active) >= maxVisible {
		return active[:maxVisible]
	}
	for _, item := range m.items {
		if len(active) == maxVisible {
			break
		}
		if item.status == "queued" {
			active = append(active, item)
		}
	}
	if len(active) < maxVisible {
		recent := make([]caseItem, 0, len(m.items))
		for _, item := range m.items {
			if item.doneSeq > 0 {
				recent = append(recent, item)
			}
		}
		sort.Slice(recent, func(i, j int) bool { return recent[i].doneSeq > recent[j].doneSeq })
		active = append(active, recent[:min(len(recent), maxVisible-len(active))]...)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].line < active[j].line })
	return active
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	if ev.Line == 0 {
		if label := stageLabel(ev.Stage, ev.Status); label != "" {
			m.stageLabel = label
		}
		return nil
	}
	idx, ok := m.index[ev.Line]
	if !ok {
		idx = len(m.items)
		m.index[ev.Line] = idx
		m.items = append(m.items, caseItem{line: ev.Line, status: "queued"})
	}
	if ev.Label != "" {
		m.items[idx].label = strings.TrimSpace(ev.Label)
	}
	if label := caseStatus(ev); label != "" {
		m.items[idx].status = label
		if isFinished(label) && m.items[idx].doneSeq == 0 {
			m.finished++
			m.items[idx].doneSeq = m.finished
		}
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	finished := 0
	for _, item := range m.items {
		if isFinished(item.status) {
			finished++
		}
	}
	return float64(finished) / float64(len(m.items))
}

func isFinished(status string) bool {
	switch status {
	case "clean", "diagnostic", "error":
		return true
	default:
		return false
	}
}

func caseStatus(ev pipeline.Event) string {
	switch ev.Status {
	case pipeline.StatusQueued:
		return "queued"
	case pipeline.StatusWorking:
		return "compiling"
	case pipeline.StatusError:
		return "error"
	case pipeline.StatusDone:
		if ev.Kind == compile.Diagnostic {
			return "diagnostic"
		}
		return "clean"
	default:
		return ""
	}
}

func stageLabel(stage pipeline.Stage, status pipeline.Status) string {
	if status == pipeline.StatusError {
		return "failed"
	}
	switch stage {
	case pipeline.StageLoad:
		return "loading"
	case pipeline.StageBaseline:
		return "baseline"
	case pipeline.StageCompile:
		return "compiling"
	case pipeline.StageEmit:
		return "writing report"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "clean":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "diagnostic":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case "compiling":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

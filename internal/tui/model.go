// Package tui renders a live view of a batch run: the planned levels
// with per-task status, driven by runner events from the bus.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akarag/waveplan/internal/events"
	"github.com/akarag/waveplan/internal/scheduler"
)

type taskState int

const (
	statePending taskState = iota
	stateRunning
	stateCompleted
	stateFailed
)

// eventMsg wraps a bus event together with the channel it arrived on,
// so Update can re-arm the same subscription.
type eventMsg struct {
	ev events.Event
	ch <-chan events.Event
}

// busClosedMsg signals that a subscription channel closed.
type busClosedMsg struct{}

// Model is the single-view run display.
type Model struct {
	label  string
	graph  *scheduler.DependencyGraph
	levels [][]scheduler.TaskID

	status  map[scheduler.TaskID]taskState
	current int // level currently executing, -1 before start
	spin    spinner.Model

	finished bool
	runErr   error
	taskCh   <-chan events.Event
	runCh    <-chan events.Event
}

// New builds a model for the given plan, subscribed to the bus.
func New(bus *events.Bus, label string, graph *scheduler.DependencyGraph, levels [][]scheduler.TaskID) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleStatusRunning

	return Model{
		label:   label,
		graph:   graph,
		levels:  levels,
		status:  make(map[scheduler.TaskID]taskState),
		current: -1,
		spin:    sp,
		taskCh:  bus.Subscribe(events.TopicTask, 256),
		runCh:   bus.Subscribe(events.TopicRun, 256),
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return busClosedMsg{}
		}
		return eventMsg{ev: ev, ch: ch}
	}
}

// Init starts the spinner and both event subscriptions.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForEvent(m.taskCh), waitForEvent(m.runCh))
}

// Update handles key presses, spinner ticks, and bus events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case busClosedMsg:
		return m, nil

	case eventMsg:
		m.apply(msg.ev)
		return m, waitForEvent(msg.ch)
	}

	return m, nil
}

func (m *Model) apply(ev events.Event) {
	switch ev := ev.(type) {
	case events.LevelStartedEvent:
		m.current = ev.Level
	case events.TaskStartedEvent:
		m.status[ev.ID] = stateRunning
	case events.TaskCompletedEvent:
		m.status[ev.ID] = stateCompleted
	case events.TaskFailedEvent:
		m.status[ev.ID] = stateFailed
	case events.RunFinishedEvent:
		m.finished = true
		m.runErr = ev.Err
	}
}

// View renders the plan with live statuses.
func (m Model) View() string {
	var b strings.Builder

	title := StyleTitle.Render(fmt.Sprintf("waveplan: %s", m.label))
	b.WriteString(title)
	b.WriteString("\n\n")

	for n, level := range m.levels {
		marker := "  "
		if !m.finished && n == m.current {
			marker = m.spin.View()
		}
		b.WriteString(marker)
		b.WriteString(StyleLevel.Render(fmt.Sprintf("level %d", n)))
		b.WriteString("\n")

		for _, id := range level {
			task, ok := m.graph.Task(id)
			if !ok {
				continue
			}
			b.WriteString("    ")
			b.WriteString(m.renderTask(id, task.Name))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.finished && m.runErr != nil:
		b.WriteString(StyleStatusFailed.Render(fmt.Sprintf("run failed: %v", m.runErr)))
	case m.finished:
		b.WriteString(StyleStatusComplete.Render("run complete"))
	default:
		b.WriteString(StyleHelp.Render("running..."))
	}
	b.WriteString("\n")
	b.WriteString(StyleHelp.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderTask(id scheduler.TaskID, name string) string {
	switch m.status[id] {
	case stateRunning:
		return StyleStatusRunning.Render("> " + name)
	case stateCompleted:
		return StyleStatusComplete.Render("+ " + name)
	case stateFailed:
		return StyleStatusFailed.Render("! " + name)
	default:
		return StyleStatusPending.Render(". " + name)
	}
}

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentflow/internal/orchestrator"
	"github.com/ShayCichocki/agentflow/pkg/models"
)

// Controller is the subset of the orchestrator the TUI drives.
type Controller interface {
	Start(ctx context.Context, goal string) error
	Reset() error
	Snapshot() models.Snapshot
}

// EventMsg wraps an orchestrator event for the TUI.
type EventMsg struct {
	Event orchestrator.Event
}

// eventsClosedMsg signals the event channel was closed.
type eventsClosedMsg struct{}

// startErrMsg carries a rejected Start or Reset call.
type startErrMsg struct {
	err error
}

const logsPanelHeight = 8

// App is the interactive agentflow model: a goal input, the sub-task list,
// the activity log and, once a run finishes, the rendered report.
type App struct {
	ctx    context.Context
	ctrl   Controller
	events <-chan orchestrator.Event

	header   *Header
	tasks    *TasksPanel
	logs     *LogsPanel
	input    *InputField
	footer   *Footer
	report   viewport.Model
	markdown *MarkdownRenderer

	snap     models.Snapshot
	notice   string
	width    int
	height   int
	quitting bool
}

// NewApp creates the model. events is typically EventEmitter.Events().
func NewApp(ctx context.Context, ctrl Controller, events <-chan orchestrator.Event) *App {
	a := &App{
		ctx:      ctx,
		ctrl:     ctrl,
		events:   events,
		header:   NewHeader(),
		tasks:    NewTasksPanel(),
		logs:     NewLogsPanel(),
		input:    NewInputField(),
		footer:   NewFooter(),
		report:   viewport.New(80, 10),
		markdown: NewMarkdownRenderer(),
		width:    80,
		height:   30,
	}
	a.apply(ctrl.Snapshot())
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.Focus(), a.waitForEvent())
}

// waitForEvent blocks on the next orchestrator event.
func (a *App) waitForEvent() tea.Cmd {
	if a.events == nil {
		return nil
	}
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case GoalSubmittedMsg:
		if err := a.ctrl.Start(a.ctx, msg.Goal); err != nil {
			return a, func() tea.Msg { return startErrMsg{err: err} }
		}
		a.notice = ""
		a.input.Blur()
		a.apply(a.ctrl.Snapshot())
		return a, nil

	case startErrMsg:
		a.notice = msg.err.Error()
		return a, nil

	case EventMsg:
		// Re-read so a dropped event cannot leave the view stale.
		a.apply(a.ctrl.Snapshot())
		return a, a.waitForEvent()

	case eventsClosedMsg:
		a.events = nil
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		a.quitting = true
		return a, tea.Quit
	}

	switch {
	case a.snap.Stage == models.StageIdle:
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case a.snap.Stage.Terminal():
		switch msg.String() {
		case "q":
			a.quitting = true
			return a, tea.Quit
		case "r":
			if err := a.ctrl.Reset(); err != nil {
				a.notice = err.Error()
				return a, nil
			}
			a.notice = ""
			a.input.Reset()
			a.apply(a.ctrl.Snapshot())
			return a, a.input.Focus()
		}
		var cmd tea.Cmd
		a.report, cmd = a.report.Update(msg)
		return a, cmd

	default:
		// Run in flight. Enter and typing are ignored until it finishes.
		if msg.String() == "q" {
			a.quitting = true
			return a, tea.Quit
		}
		return a, nil
	}
}

// apply refreshes every component from a snapshot.
func (a *App) apply(snap models.Snapshot) {
	finished := snap.Stage.Terminal() && !a.snap.Stage.Terminal()
	a.snap = snap
	a.tasks.SetTasks(snap.SubTasks)
	a.logs.SetEntries(snap.Log)
	a.footer.SetState(snap)
	a.updateSizes()
	if finished || snap.Stage == models.StageIdle {
		a.report.SetContent(a.reportContent())
		a.report.GotoTop()
	}
}

func (a *App) reportContent() string {
	switch a.snap.Stage {
	case models.StageDone:
		return a.markdown.Render(a.snap.Report, a.report.Width)
	case models.StageFailed:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
		return style.Render("Run failed: "+a.snap.Error) + "\n\nPress r to start over."
	default:
		return ""
	}
}

// updateSizes lays components out for the terminal size.
func (a *App) updateSizes() {
	a.header.SetWidth(a.width)
	a.input.SetWidth(a.width)
	a.footer.SetWidth(a.width)

	taskLines := 3
	for _, t := range a.snap.SubTasks {
		taskLines++
		if t.Status.Terminal() {
			taskLines++
		}
	}
	a.tasks.SetSize(a.width, taskLines)
	a.logs.SetSize(a.width, logsPanelHeight)

	remaining := a.height - a.header.Height() - taskLines - logsPanelHeight - 2
	if remaining < 5 {
		remaining = 5
	}
	a.report.Width = a.width - 4
	a.report.Height = remaining
}

// Snapshot returns the last snapshot the view rendered.
func (a *App) Snapshot() models.Snapshot {
	return a.snap
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	sections := []string{a.header.View()}
	if a.snap.Goal != "" {
		goalStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
		sections = append(sections, goalStyle.Render(fmt.Sprintf("Goal: %s", truncate(a.snap.Goal, a.width-8))))
	}
	sections = append(sections, a.tasks.View(), a.logs.View())

	switch {
	case a.snap.Stage == models.StageIdle:
		sections = append(sections, a.input.View())
	case a.snap.Stage.Terminal():
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(a.width - 2)
		sections = append(sections, box.Render(a.report.View()))
	}

	if a.notice != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(a.notice))
	}
	sections = append(sections, a.footer.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// NewProgram creates a Bubbletea program with the App model.
func NewProgram(ctx context.Context, ctrl Controller, events <-chan orchestrator.Event) (*tea.Program, *App) {
	app := NewApp(ctx, ctrl, events)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	return p, app
}

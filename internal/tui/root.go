package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clive/todo-tui/internal/failure"
	"github.com/clive/todo-tui/internal/model"
	"github.com/clive/todo-tui/internal/todolist"
)

// ViewMode represents the current view
type ViewMode int

const (
	ViewModeMain ViewMode = iota // Task list
	ViewModeHelp                 // Help overlay
)

// Focus is the part of the main view receiving keys
type Focus int

const (
	FocusInput Focus = iota // Typing a new task
	FocusList               // Navigating tasks
)

const (
	placeholderEmpty = "No tasks, add a new task"
	placeholderMore  = "Add a new task"

	defaultCardWidth = 60
	debugPanelHeight = 8
)

// syncedMsg carries the result of a sync operation back to the event loop
type syncedMsg struct {
	outcome todolist.Outcome
}

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int
	ready  bool

	// View state
	viewMode ViewMode
	focus    Focus

	// Sync
	ctx      context.Context
	ctrl     *todolist.Controller
	inFlight int   // sync operations not yet reported back
	lastErr  error // last reported failure, cleared by the next success

	// Data: the last task snapshot applied, and the generation it came from
	tasks         []model.Task
	shownGen      uint64
	selectedIndex int

	// Pending input
	input textinput.Model

	// Components
	spinner spinner.Model
	help    help.Model
	keys    KeyMap
	debug   DebugPanel
}

// NewRootModel creates the root model. Init issues the bootstrap for ctrl's account.
func NewRootModel(ctx context.Context, ctrl *todolist.Controller, debug bool) Model {
	ti := textinput.New()
	ti.Placeholder = placeholderEmpty
	ti.Prompt = "❯ "
	ti.PromptStyle = InputPromptStyle
	ti.CharLimit = 0
	ti.Width = defaultCardWidth - 6
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return Model{
		viewMode: ViewModeMain,
		focus:    FocusInput,
		ctx:      ctx,
		ctrl:     ctrl,
		inFlight: 1, // bootstrap
		input:    ti,
		spinner:  sp,
		help:     help.New(),
		keys:     DefaultKeyMap(),
		debug:    NewDebugPanel(debug),
	}
}

// Init starts the cursor blink and spinner and bootstraps the account
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.syncCmd(m.ctrl.Bootstrap),
	)
}

// syncCmd runs op off the event loop and reports its outcome as a syncedMsg
func (m Model) syncCmd(op func(context.Context) todolist.Outcome) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return syncedMsg{outcome: op(ctx)}
	}
}

// addTask submits the pending input; the input is cleared once the store confirms it
func (m *Model) addTask() tea.Cmd {
	text := m.input.Value()
	ctrl := m.ctrl
	m.inFlight++
	m.debug.AddEvent("add", strings.TrimSpace(text))
	return m.syncCmd(func(ctx context.Context) todolist.Outcome {
		return ctrl.AddTask(ctx, text)
	})
}

// deleteSelected deletes the highlighted task
func (m *Model) deleteSelected() tea.Cmd {
	id := 0
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.tasks) {
		id = m.tasks[m.selectedIndex].ID
	}
	ctrl := m.ctrl
	m.inFlight++
	m.debug.AddEvent("delete", itoa(id))
	return m.syncCmd(func(ctx context.Context) todolist.Outcome {
		return ctrl.DeleteTask(ctx, id)
	})
}

// clearAll deletes and recreates the account; only offered when there are tasks
func (m *Model) clearAll() tea.Cmd {
	if len(m.tasks) == 0 {
		return nil
	}
	ctrl := m.ctrl
	m.inFlight++
	m.debug.AddEvent("clear", "")
	return m.syncCmd(ctrl.ClearAll)
}

// refresh re-fetches the list on demand
func (m *Model) refresh() tea.Cmd {
	ctrl := m.ctrl
	m.inFlight++
	m.debug.AddEvent("refresh", "")
	return m.syncCmd(ctrl.Refresh)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = m.cardWidth() - 6
		m.help.Width = msg.Width
		return m, nil

	case syncedMsg:
		m.applyOutcome(msg.outcome)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Ctrl+C always quits, regardless of state
		if key.Matches(msg, m.keys.Interrupt) {
			return m, tea.Quit
		}

		if m.viewMode == ViewModeHelp {
			if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
				m.viewMode = ViewModeMain
			}
			return m, nil
		}

		if m.focus == FocusInput {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}

	// Cursor blink and anything else the input understands
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateInput handles keys while the new-task input is focused
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Add):
		cmd := m.addTask()
		return m, cmd

	case key.Matches(msg, m.keys.Blur):
		m.focus = FocusList
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateList handles keys while the task list is focused
func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selectedIndex < len(m.tasks)-1 {
			m.selectedIndex++
		}

	case key.Matches(msg, m.keys.Home):
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.End):
		if len(m.tasks) > 0 {
			m.selectedIndex = len(m.tasks) - 1
		}

	case key.Matches(msg, m.keys.Delete):
		cmd := m.deleteSelected()
		return m, cmd

	case key.Matches(msg, m.keys.ClearAll):
		cmd := m.clearAll()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Focus):
		m.focus = FocusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Help):
		m.viewMode = ViewModeHelp

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

// applyOutcome folds a sync result into the view state
func (m *Model) applyOutcome(out todolist.Outcome) {
	if m.inFlight > 0 {
		m.inFlight--
	}

	// Snapshots can arrive out of order; only a newer generation replaces the list
	if out.Applied > m.shownGen {
		m.tasks = out.Tasks
		m.shownGen = out.Applied
	}
	if m.selectedIndex >= len(m.tasks) {
		m.selectedIndex = len(m.tasks) - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}

	if out.Op == todolist.OpAdd && out.Confirmed {
		m.input.SetValue("")
	}

	switch {
	case out.OK():
		m.lastErr = nil
	case out.Kind() != failure.InvalidInput:
		m.lastErr = out.Err
	}

	if len(m.tasks) == 0 {
		m.input.Placeholder = placeholderEmpty
	} else {
		m.input.Placeholder = placeholderMore
	}

	m.debug.AddOutcome(out)
}

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.viewMode == ViewModeHelp {
		return m.helpView()
	}

	sections := []string{
		m.renderHeader(),
		m.renderCard(),
	}
	if len(m.tasks) > 0 {
		sections = append(sections, " "+ClearButtonStyle.Render("C  Clear all tasks"))
	}
	sections = append(sections, m.renderStatusBar(), m.renderHelp())
	if m.debug.IsEnabled() {
		sections = append(sections, m.debug.Render(m.cardWidth(), debugPanelHeight))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title and the sync spinner
func (m Model) renderHeader() string {
	title := HeaderStyle.Render("Tasks for " + m.ctrl.Account())
	if m.inFlight > 0 {
		title += " " + m.spinner.View()
	}
	return title
}

// renderCard renders the input, the task rows and the footer
func (m Model) renderCard() string {
	width := m.cardWidth()
	inner := width - 4

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(DimStyle.Render(strings.Repeat("─", inner)))
	b.WriteString("\n")
	for _, row := range m.taskRows(inner) {
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString(FooterStyle.Render(model.ItemsLeft(len(m.tasks))))

	style := CardStyle
	if m.focus == FocusList {
		style = CardFocusedStyle
	}
	return style.Width(width).Render(b.String())
}

// taskRows renders one line per task, with a delete mark at the right edge
func (m Model) taskRows(width int) []string {
	rows := make([]string, 0, len(m.tasks))
	for i, task := range m.tasks {
		selected := m.focus == FocusList && i == m.selectedIndex

		prefix := "  "
		if selected {
			prefix = "▸ "
		}
		label := truncate(task.Label, width-8)
		text := prefix + task.StatusIcon() + " " + label
		pad := width - lipgloss.Width(text) - 2
		if pad < 1 {
			pad = 1
		}
		text += strings.Repeat(" ", pad)

		switch {
		case selected:
			text = TaskSelectedStyle.Render(text)
		case task.IsDone:
			text = TaskDoneStyle.Render(text)
		default:
			text = TaskStyle.Render(text)
		}
		rows = append(rows, text+DeleteMarkStyle.Render("✕"))
	}
	return rows
}

// renderStatusBar shows the last failure or the sync state
func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.lastErr != nil:
		status = ErrorStyle.Render("✗ "+m.lastErr.Error()) + DimStyle.Render(" · r to refresh")
	case m.inFlight > 0:
		status = DimStyle.Render("syncing…")
	case m.shownGen == 0:
		status = DimStyle.Render("not loaded")
	default:
		status = DimStyle.Render("✓ in sync")
	}
	return StatusBarStyle.Render(status)
}

// renderHelp shows the bindings for the focused part
func (m Model) renderHelp() string {
	if m.focus == FocusInput {
		return StatusBarStyle.Render(m.help.ShortHelpView(m.keys.InputHelp()))
	}
	return StatusBarStyle.Render(m.help.View(m.keys))
}

// helpView renders the help overlay
func (m Model) helpView() string {
	title := HelpTitleStyle.Render("Keyboard Shortcuts")
	content := title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
		DimStyle.Render("Press ? or Esc to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		HelpStyle.Render(content),
	)
}

func (m Model) cardWidth() int {
	if m.width <= 0 {
		return defaultCardWidth
	}
	w := m.width - 2
	if w > 80 {
		w = 80
	}
	if w < 24 {
		w = 24
	}
	return w
}

// Helper functions
func truncate(s string, max int) string {
	if max < 1 {
		max = 1
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clive/todo-tui/internal/failure"
	"github.com/clive/todo-tui/internal/model"
	"github.com/clive/todo-tui/internal/storetest"
	"github.com/clive/todo-tui/internal/todoapi"
	"github.com/clive/todo-tui/internal/todolist"
)

func createTestModel(t *testing.T) (Model, *storetest.Store) {
	t.Helper()
	store := storetest.New()
	srv := storetest.Start(t, store)
	ctrl := todolist.NewController(todoapi.NewClient(srv.URL, "alice"), nil)

	m := NewRootModel(context.Background(), ctrl, false)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model), store
}

// runSync executes a sync command and feeds its message back into the model
func runSync(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	msg, ok := cmd().(syncedMsg)
	if !ok {
		t.Fatalf("expected syncedMsg from command")
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func bootstrap(t *testing.T, m Model) Model {
	t.Helper()
	return runSync(t, m, m.syncCmd(m.ctrl.Bootstrap))
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(k)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBootstrapCreatesAccountAndShowsEmptyList(t *testing.T) {
	m, store := createTestModel(t)
	if m.inFlight != 1 {
		t.Fatalf("inFlight = %d before bootstrap, want 1", m.inFlight)
	}

	m = bootstrap(t, m)

	if !store.HasAccount("alice") {
		t.Error("bootstrap should create the account")
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d after bootstrap, want 0", m.inFlight)
	}
	if len(m.tasks) != 0 {
		t.Errorf("tasks = %v, want empty", m.tasks)
	}
	if m.input.Placeholder != placeholderEmpty {
		t.Errorf("placeholder = %q, want %q", m.input.Placeholder, placeholderEmpty)
	}

	view := m.View()
	for _, want := range []string{"Tasks for alice", "0 items left"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Clear all") {
		t.Error("clear all should not be offered for an empty list")
	}
}

func TestAddTaskRendersRowAndClearsInput(t *testing.T) {
	m, store := createTestModel(t)
	m = bootstrap(t, m)

	m.input.SetValue("buy milk")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.inFlight != 1 {
		t.Errorf("inFlight = %d after enter, want 1", m.inFlight)
	}
	m = runSync(t, m, cmd)

	if got := store.Tasks("alice"); len(got) != 1 || got[0].Label != "buy milk" {
		t.Fatalf("store tasks = %v", got)
	}
	if len(m.tasks) != 1 || m.tasks[0].Label != "buy milk" {
		t.Fatalf("shown tasks = %v", m.tasks)
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q after confirmed add, want empty", m.input.Value())
	}
	if m.input.Placeholder != placeholderMore {
		t.Errorf("placeholder = %q, want %q", m.input.Placeholder, placeholderMore)
	}

	view := m.View()
	for _, want := range []string{"buy milk", "1 item left", "✕", "Clear all"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBlankInputSendsNoRequest(t *testing.T) {
	m, store := createTestModel(t)
	m = bootstrap(t, m)
	store.ResetRequests()

	m.input.SetValue("   ")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runSync(t, m, cmd)

	if n := len(store.Requests()); n != 0 {
		t.Errorf("store received %d requests, want 0", n)
	}
	if m.input.Value() != "   " {
		t.Errorf("input = %q, want it kept", m.input.Value())
	}
	if m.lastErr != nil {
		t.Errorf("invalid input should not be shown as a sync error, got %v", m.lastErr)
	}
}

func TestConfirmedAddClearsInputEvenIfRefreshFails(t *testing.T) {
	m, store := createTestModel(t)
	m = bootstrap(t, m)
	store.FailNext(storetest.RouteListTasks, 500)

	m.input.SetValue("walk dog")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runSync(t, m, cmd)

	if m.input.Value() != "" {
		t.Errorf("input = %q, want empty once the store confirmed the add", m.input.Value())
	}
	if len(m.tasks) != 0 {
		t.Errorf("tasks = %v, want the previous snapshot kept", m.tasks)
	}
	if failure.KindOf(m.lastErr) != failure.Status {
		t.Errorf("lastErr kind = %v, want Status", failure.KindOf(m.lastErr))
	}
	if !strings.Contains(m.View(), "r to refresh") {
		t.Error("status bar should offer a refresh after a failure")
	}
}

func TestRefreshClearsError(t *testing.T) {
	m, store := createTestModel(t)
	store.FailNext(storetest.RouteEnsureAccount, 503)
	m = bootstrap(t, m)
	if m.lastErr == nil {
		t.Fatal("expected bootstrap failure to be shown")
	}

	store.AddAccount("alice", "buy milk")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := press(m, runes("r"))
	m = runSync(t, m, cmd)

	if m.lastErr != nil {
		t.Errorf("lastErr = %v after successful refresh, want nil", m.lastErr)
	}
	if len(m.tasks) != 1 {
		t.Errorf("tasks = %v, want one task", m.tasks)
	}
}

func TestStaleSnapshotIsIgnored(t *testing.T) {
	m, _ := createTestModel(t)
	m.inFlight = 2

	newer := todolist.Outcome{Op: todolist.OpRefresh, Tasks: []model.Task{{ID: 2, Label: "new"}}, Applied: 5}
	older := todolist.Outcome{Op: todolist.OpRefresh, Tasks: []model.Task{{ID: 1, Label: "old"}}, Applied: 4}

	updated, _ := m.Update(syncedMsg{outcome: newer})
	updated, _ = updated.(Model).Update(syncedMsg{outcome: older})
	m = updated.(Model)

	if len(m.tasks) != 1 || m.tasks[0].Label != "new" {
		t.Errorf("tasks = %v, want the newer snapshot", m.tasks)
	}
	if m.shownGen != 5 {
		t.Errorf("shownGen = %d, want 5", m.shownGen)
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d, want 0", m.inFlight)
	}
}

func TestDeleteSelectedTask(t *testing.T) {
	m, store := createTestModel(t)
	store.AddAccount("alice", "one", "two")
	m = bootstrap(t, m)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusList {
		t.Fatalf("focus = %v, want list", m.focus)
	}
	m, _ = press(m, runes("j"))
	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", m.selectedIndex)
	}

	m, cmd := press(m, runes("x"))
	m = runSync(t, m, cmd)

	got := store.Tasks("alice")
	if len(got) != 1 || got[0].Label != "one" {
		t.Errorf("store tasks = %v, want only \"one\"", got)
	}
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d, want clamped to 0", m.selectedIndex)
	}
}

func TestClearAllOnlyWithTasks(t *testing.T) {
	m, store := createTestModel(t)
	m = bootstrap(t, m)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := press(m, runes("C"))
	if cmd != nil {
		t.Error("clear all should be a no-op for an empty list")
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d, want 0", m.inFlight)
	}

	store.AddAccount("alice", "one", "two")
	m = runSync(t, m, m.syncCmd(m.ctrl.Refresh))
	m, cmd = press(m, runes("C"))
	m = runSync(t, m, cmd)

	if !store.HasAccount("alice") {
		t.Error("account should be recreated after clear all")
	}
	if len(store.Tasks("alice")) != 0 || len(m.tasks) != 0 {
		t.Errorf("tasks after clear: store %v, shown %v", store.Tasks("alice"), m.tasks)
	}
}

func TestFocusSwitching(t *testing.T) {
	m, _ := createTestModel(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != FocusList || m.input.Focused() {
		t.Fatal("esc should move focus to the list")
	}

	// "q" quits only from the list; from the input it is text
	m, _ = press(m, runes("/"))
	if m.focus != FocusInput || !m.input.Focused() {
		t.Fatal("/ should focus the input")
	}
	m, cmd := press(m, runes("q"))
	if m.input.Value() != "q" {
		t.Errorf("input = %q, want \"q\"", m.input.Value())
	}
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("q in the input should not quit")
		}
	}
}

func TestHelpView(t *testing.T) {
	m, _ := createTestModel(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runes("?"))

	if m.viewMode != ViewModeHelp {
		t.Fatalf("viewMode = %v, want help", m.viewMode)
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help view should render its title")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ViewModeMain {
		t.Errorf("viewMode = %v after esc, want main", m.viewMode)
	}
}

func TestCtrlCAlwaysQuits(t *testing.T) {
	m, _ := createTestModel(t)

	for _, mode := range []ViewMode{ViewModeMain, ViewModeHelp} {
		m.viewMode = mode
		_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatalf("mode %v: expected quit command", mode)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("mode %v: ctrl+c should quit", mode)
		}
	}
}

func TestViewBeforeWindowSize(t *testing.T) {
	ctrl := todolist.NewController(todoapi.NewClient("http://127.0.0.1:1", "alice"), nil)
	m := NewRootModel(context.Background(), ctrl, false)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"ñandú crème", 6, "ñandú…"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

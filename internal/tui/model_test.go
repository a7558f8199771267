package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeSource serves canned snapshots.
type fakeSource struct {
	view    map[string]*string
	history []uint64
	err     error
}

func (f *fakeSource) Current(context.Context) (map[string]*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeSource) History(context.Context) ([]uint64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func strPtr(s string) *string { return &s }

func newSizedModel(source DataSource) Model {
	m := NewModel(source, "test")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func TestModel_SnapshotRendering(t *testing.T) {
	source := &fakeSource{
		view: map[string]*string{
			"10": strPtr("55"),
			"25": nil,
		},
		history: []uint64{10, 25, 10},
	}
	m := newSizedModel(source)

	updated, _ := m.Update(SnapshotMsg{View: source.view, History: source.history})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "55") {
		t.Errorf("view should show the computed value, got:\n%s", view)
	}
	if !strings.Contains(view, "pending") {
		t.Errorf("view should mark the pending entry, got:\n%s", view)
	}
	if !strings.Contains(view, "3 requests") {
		t.Errorf("view should count all history records, got:\n%s", view)
	}
	if !strings.Contains(view, "1 computed") || !strings.Contains(view, "1 pending") {
		t.Errorf("view should summarize entry states, got:\n%s", view)
	}
}

func TestModel_PollError(t *testing.T) {
	m := newSizedModel(&fakeSource{})

	updated, _ := m.Update(PollErrorMsg{Err: errors.New("connection refused")})
	m = updated.(Model)

	if !strings.Contains(m.View(), "unreachable") {
		t.Error("view should flag an unreachable server")
	}

	// A successful poll clears the error.
	updated, _ = m.Update(SnapshotMsg{})
	m = updated.(Model)
	if strings.Contains(m.View(), "unreachable") {
		t.Error("view should recover after a successful poll")
	}
}

func TestModel_PauseTogglesPolling(t *testing.T) {
	m := newSizedModel(&fakeSource{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	if !m.paused {
		t.Fatal("p should pause polling")
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("view should show the paused state")
	}

	// While paused a tick must not trigger a fetch, only the next tick.
	updated, cmd := m.Update(TickMsg{})
	m = updated.(Model)
	if cmd == nil {
		t.Error("paused tick should still schedule the next tick")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)
	if m.paused {
		t.Error("p should resume polling")
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newSizedModel(&fakeSource{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("q produced %T, want tea.QuitMsg", msg)
	}
}

func TestResultRows(t *testing.T) {
	rows := resultRows(map[string]*string{
		"12":       strPtr("144"),
		"3":        strPtr("2"),
		"40":       nil,
		"not-a-key": strPtr("ignored"),
	})

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (unparsable keys skipped)", len(rows))
	}
	// Sorted numerically, not lexically.
	if rows[0][0] != "3" || rows[1][0] != "12" || rows[2][0] != "40" {
		t.Errorf("rows out of order: %v, %v, %v", rows[0][0], rows[1][0], rows[2][0])
	}
	if rows[1][2] != "144" {
		t.Errorf("row for 12 has value %q, want 144", rows[1][2])
	}
}

func TestTruncateValue(t *testing.T) {
	if got := truncateValue("12345", 10); got != "12345" {
		t.Errorf("short value changed: %q", got)
	}
	long := strings.Repeat("7", 100)
	got := truncateValue(long, 20)
	if len(got) > 20 {
		t.Errorf("truncated value too long: %d chars", len(got))
	}
	if !strings.Contains(got, "...") {
		t.Errorf("truncated value missing ellipsis: %q", got)
	}
}

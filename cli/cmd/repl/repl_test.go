package repl

import (
	"context"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/konfigypr/log"
)

func testLogger() log.Logger { return log.Logger{} }

func testModel(t *testing.T, source string) model {
	t.Helper()

	return newModel(context.Background(), testSession(t, source),
		NewHistory(""), testLogger())
}

// submit types line into m and presses Enter.
func submit(m model, line string) (model, tea.Cmd) {
	m.input.SetValue(line)
	m.input.SetCursor(len(line))

	return m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModelExecuteInput(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		lines     []string
		wantKeys  []string
		wantLines int
	}{
		{
			name:      "assignment",
			lines:     []string{"port = 8080;"},
			wantKeys:  []string{"port"},
			wantLines: 1,
		},
		{
			name:      "declaration_then_use",
			lines:     []string{"global p = 1;", "a = |p|;"},
			wantKeys:  []string{"a"},
			wantLines: 2,
		},
		{
			name:      "rejected_line",
			source:    "a = 1;\n",
			lines:     []string{"b = |missing|;"},
			wantKeys:  []string{"a"},
			wantLines: 1,
		},
		{
			name:      "query_keeps_session",
			source:    "a = 1;\n",
			lines:     []string{"?a + 1"},
			wantKeys:  []string{"a"},
			wantLines: 1,
		},
		{
			name:      "clear_command",
			source:    "a = 1;\n",
			lines:     []string{":clear"},
			wantLines: 0,
		},
		{
			name:      "blank",
			source:    "a = 1;\n",
			lines:     []string{"   "},
			wantKeys:  []string{"a"},
			wantLines: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, tt.source)

			for _, line := range tt.lines {
				m, _ = submit(m, line)
			}

			if got := m.session.doc.Keys(); !slices.Equal(got, tt.wantKeys) {
				t.Errorf("expected keys %v, got %v", tt.wantKeys, got)
			}

			if len(m.session.lines) != tt.wantLines {
				t.Errorf("expected %d lines, got %d", tt.wantLines, len(m.session.lines))
			}

			if m.input.Value() != "" && strings.TrimSpace(tt.lines[0]) != "" {
				t.Errorf("expected input reset, got %q", m.input.Value())
			}
		})
	}
}

func TestModelHistory(t *testing.T) {
	m := testModel(t, "")

	m, _ = submit(m, "a = 1;")
	m, _ = submit(m, ":list")
	m = m.switchToMode(modeCtrl)
	m, _ = submit(m, "show")
	m = m.switchToMode(modeEval)

	want := []HistoryEntry{
		{"a = 1;", modeEval},
		{":list", modeEval},
		{"show", modeCtrl},
	}

	if got := m.history.Entries(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Up recalls across modes, switching to the entry's mode.
	m = m.historyPrev(false)
	if m.input.Value() != "show" || m.mode != modeCtrl {
		t.Errorf("expected show in control mode, got %q in mode %d",
			m.input.Value(), m.mode)
	}

	// Shift+Up stays in the current mode.
	m = m.switchToMode(modeEval)
	m.historyIdx = m.history.Len()

	m = m.historyPrev(true)
	if m.input.Value() != ":list" || m.mode != modeEval {
		t.Errorf("expected :list in eval mode, got %q in mode %d",
			m.input.Value(), m.mode)
	}

	m = m.historyNext(true)
	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("expected empty input past newest entry, got %q at %d",
			m.input.Value(), m.historyIdx)
	}
}

func TestModelSwitchToMode(t *testing.T) {
	m := testModel(t, "")
	m.input.SetValue("a = ")

	m = m.switchToMode(modeCtrl)
	if m.input.Value() != "" || m.mode != modeCtrl {
		t.Errorf("expected empty control input, got %q", m.input.Value())
	}

	m.input.SetValue("li")

	m = m.switchToMode(modeEval)
	if m.input.Value() != "a = " {
		t.Errorf("expected eval input restored, got %q", m.input.Value())
	}

	m = m.switchToMode(modeCtrl)
	if m.input.Value() != "li" {
		t.Errorf("expected control input restored, got %q", m.input.Value())
	}
}

func TestModelTabCycle(t *testing.T) {
	m := testModel(t, "name = app;\nnamespace = prod;\n")
	m.input.SetValue("?nam")
	m.input.SetCursor(4)
	refreshMatches(&m, false)

	if len(m.matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matchStrings(m.matches))
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	first := m.input.Value()

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	second := m.input.Value()

	if first == second || !strings.HasPrefix(first, "?name") ||
		!strings.HasPrefix(second, "?name") {
		t.Errorf("expected to cycle between candidates, got %q then %q", first, second)
	}

	// Esc restores the text typed before cycling.
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.input.Value() != "?nam" || m.tabActive {
		t.Errorf("expected ?nam restored, got %q", m.input.Value())
	}
}

func TestModelQuit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD} {
		m := testModel(t, "")

		m, cmd := m.handleKey(tea.KeyMsg{Type: key})
		if !m.quitting || cmd == nil {
			t.Errorf("key %v: expected quit on empty input", key)
		}

		if m.View() != "" {
			t.Errorf("key %v: expected empty view after quit", key)
		}
	}

	m := testModel(t, "")
	m.input.SetValue("a = 1")

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.quitting || m.input.Value() != "" {
		t.Errorf("expected Ctrl+C to clear input, got %q", m.input.Value())
	}
}

func TestModelUpdate_EditMessages(t *testing.T) {
	m := testModel(t, "a = 1;\n")
	edited := testSession(t, "b = 2;\n")

	next, cmd := m.Update(editSessionMsg{session: edited})
	if cmd == nil {
		t.Error("expected a print command")
	}

	if got := next.(model).session.doc.Keys(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}

	for _, msg := range []tea.Msg{editCancelledMsg{}, editDeclinedMsg{}, editErrorMsg{err: ErrEditDeclined}} {
		next, _ := m.Update(msg)
		if got := next.(model).session.doc.Keys(); !slices.Equal(got, []string{"a"}) {
			t.Errorf("%T: expected session unchanged, got %v", msg, got)
		}
	}
}

func TestModelViews(t *testing.T) {
	m := testModel(t, "global p = 1;\na = |p|;\n")

	list := m.listView()
	if !strings.Contains(list, "a") || !strings.Contains(list, "|p|") {
		t.Errorf("expected key and constant in list, got %q", list)
	}

	if got := testModel(t, "").listView(); !strings.Contains(got, "(empty)") {
		t.Errorf("expected empty list, got %q", got)
	}

	if got := m.showView(); got != "{\n  \"a\": 1\n}" {
		t.Errorf("expected indented JSON, got %q", got)
	}
}

func TestModelHintView(t *testing.T) {
	m := testModel(t, "")

	if got := m.hintView(); !strings.Contains(got, "?query") {
		t.Errorf("expected eval usage hint, got %q", got)
	}

	m.input.SetValue("?join(a, ")
	m.input.SetCursor(len("?join(a, "))

	if got := m.hintView(); !strings.Contains(got, "separator") {
		t.Errorf("expected join signature, got %q", got)
	}

	m = m.switchToMode(modeCtrl)
	if got := m.hintView(); !strings.Contains(got, "quit") {
		t.Errorf("expected command hint, got %q", got)
	}
}

func TestFormatOutcome(t *testing.T) {
	s := testSession(t, "global p = 1;\nurl = |p|;\n")

	_, out, err := s.enter(context.Background(), "global p = 2;")
	if err != nil {
		t.Fatal(err)
	}

	got := formatOutcome(out)
	if !strings.Contains(got, "|p| = 2") || !strings.Contains(got, "changed: url") {
		t.Errorf("unexpected outcome text %q", got)
	}

	if got := formatOutcome(outcome{}); got != hintStyle.Render("ok") {
		t.Errorf("expected ok, got %q", got)
	}
}

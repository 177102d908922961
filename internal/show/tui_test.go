package show

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelNavigation(t *testing.T) {
	var m tea.Model = NewModel([]*pipeline.SessionResult{makeTestResult(t, "106_1", 20240301100000)})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = m.Update(key("j"))
	if got := m.(model).cursor; got != 1 {
		t.Errorf("cursor after j = %d, want 1", got)
	}

	m, _ = m.Update(key("e"))
	if got := len(m.(model).visible); got != 5 {
		t.Errorf("visible after expand = %d, want 5", got)
	}

	m, _ = m.Update(key("G"))
	if got := m.(model).cursor; got != 4 {
		t.Errorf("cursor after G = %d, want 4", got)
	}

	m, _ = m.Update(key("C"))
	if got := m.(model).cursor; got != 1 {
		t.Errorf("cursor after collapse all = %d, want clamped to 1", got)
	}

	view := m.View()
	if !strings.Contains(view, "Trial 2") {
		t.Errorf("View missing trial label:\n%s", view)
	}

	m, cmd := m.Update(key("q"))
	if cmd == nil || m.View() != "" {
		t.Error("q should quit and clear the view")
	}
}

func TestModelEmpty(t *testing.T) {
	m := NewModel(nil)
	if got := m.View(); got != "No trials to display\n" {
		t.Errorf("View() = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	if got, want := wrapText("abcdef\nxy", 4), "abcd\nef\nxy"; got != want {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, []*pipeline.SessionResult{makeTestResult(t, "106_1", 20240301100000)}, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Mouse: 106_1\n",
		"Session: 2024-03-01T10:00:00\n",
		"Licks: 3 total, 3 in trial, 0 puffed\n",
		"[  1] CS- (0)        complete licks 1/1/0/0\n",
		"[  2] CS+ (1)        complete licks 0/0/1/0\n",
		"👅  40000 ms Lick\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrint_NoSessions(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, nil, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No sessions to display\n" {
		t.Errorf("got %q", buf.String())
	}
}

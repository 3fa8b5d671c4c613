package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-sustain/config"
	"go-sustain/plugin"
	"go-sustain/sustain"
	"go-sustain/theme"
)

func newTestModel(t *testing.T) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return NewModel(plugin.NewProcessor(), cfg, theme.New(nil), nil), path
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestToggleSustain(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "SUSTAIN OFF") {
		t.Fatalf("expected sustain off initially")
	}

	m, _ = update(m, key(" "))
	if !m.Proc.Params.Sustaining() || !strings.Contains(m.View(), "SUSTAIN ON") {
		t.Fatalf("space should turn sustain on")
	}
	m, _ = update(m, key("s"))
	if m.Proc.Params.Sustaining() {
		t.Fatalf("s should turn sustain off again")
	}
}

func TestViewShowsNotes(t *testing.T) {
	m, _ := newTestModel(t)
	m.Proc.Process([]sustain.Event{
		{Kind: sustain.NoteOn, Note: 60, Velocity: 100, VoiceID: sustain.NoVoice},
		{Kind: sustain.NoteOn, Channel: 2, Note: 64, Velocity: 100, VoiceID: sustain.NoVoice},
	}, nil)

	view := m.View()
	if !strings.Contains(view, "held      C4 E4/3") {
		t.Fatalf("expected held notes in view:\n%s", view)
	}
	if !strings.Contains(view, "channel 1") {
		t.Fatalf("expected note grid in full layout")
	}

	m, _ = update(m, key("c"))
	if strings.Contains(m.View(), "channel 1") {
		t.Fatalf("compact layout should hide the grid")
	}
}

func TestChannelKeysWrap(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(m, key("["))
	if m.channel != 15 {
		t.Fatalf("expected wrap to channel 16, got %d", m.channel+1)
	}
	m, _ = update(m, key("]"))
	if m.channel != 0 {
		t.Fatalf("expected channel 1, got %d", m.channel+1)
	}
}

func TestActivityLog(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < logLines+3; i++ {
		m, _ = update(m, ActivityMsg(sustain.Event{Kind: sustain.NoteOff, Note: uint8(60 + i)}))
	}
	if len(m.log) != logLines {
		t.Fatalf("expected log capped at %d, got %d", logLines, len(m.log))
	}
	if !strings.Contains(m.View(), "note-off") {
		t.Fatalf("expected activity in view")
	}

	m, _ = update(m, key("l"))
	if strings.Contains(m.View(), "note-off") {
		t.Fatalf("log should be hidden")
	}
}

func TestResetRequestsPanic(t *testing.T) {
	m, _ := newTestModel(t)
	m.Proc.Process([]sustain.Event{{Kind: sustain.NoteOn, Note: 60, Velocity: 100, VoiceID: sustain.NoVoice}}, nil)
	m, _ = update(m, key("r"))

	out := m.Proc.Process(nil, nil)
	if len(out) != 1 || out[0].Kind != sustain.NoteOff || out[0].Note != 60 {
		t.Fatalf("expected release of C4 after reset, got %+v", out)
	}
}

func TestQuitSavesLayout(t *testing.T) {
	m, path := newTestModel(t)
	m, _ = update(m, key("c"))
	m, cmd := update(m, key("q"))
	if cmd == nil || m.View() != "" {
		t.Fatalf("expected quit")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil || !cfg.UI.Compact {
		t.Fatalf("layout not persisted: %+v %v", cfg, err)
	}
}

func TestHelpKey(t *testing.T) {
	m, _ := newTestModel(t)
	if strings.Contains(m.View(), "release all notes and reset") {
		t.Fatalf("help should be hidden initially")
	}
	m, _ = update(m, key("?"))
	view := m.View()
	if !strings.Contains(view, "release all notes and reset") || !strings.Contains(view, "Sustain") {
		t.Fatalf("expected key help:\n%s", view)
	}
	m, _ = update(m, key("?"))
	if strings.Contains(m.View(), "release all notes and reset") {
		t.Fatalf("? should hide help again")
	}
}

func TestHeaderAndDropped(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, "Sustain "+plugin.Version) {
		t.Fatalf("expected plugin name and version in header:\n%s", view)
	}
	if !strings.Contains(view, "□ SUSTAIN OFF") {
		t.Fatalf("expected off glyph in header:\n%s", view)
	}
	if strings.Contains(view, "dropped") {
		t.Fatalf("dropped counter should only show once something was lost")
	}

	m.Proc.AddDropped(3)
	m, _ = update(m, key(" "))
	view = m.View()
	if !strings.Contains(view, "dropped 3") || !strings.Contains(view, "■ SUSTAIN ON") {
		t.Fatalf("expected dropped count and on glyph:\n%s", view)
	}
}

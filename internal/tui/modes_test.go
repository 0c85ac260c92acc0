package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gokhd/gokhd/internal/parser"
)

type mapReader map[string]string

func (r mapReader) ReadToString(absPath string) (string, error) {
	return r[absPath], nil
}

func loadOrFatal(t *testing.T, src string) Model {
	t.Helper()
	m, err := parser.Load("/cfg/gokhdrc", mapReader{"/cfg/gokhdrc": src})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	return NewModel(m)
}

func sendKey(md Model, key string) Model {
	next, _ := md.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model)
}

func sendNamedKey(md Model, t tea.KeyType) Model {
	next, _ := md.Update(tea.KeyMsg{Type: t})
	return next.(Model)
}

func TestInitialModeIsDefault(t *testing.T) {
	md := loadOrFatal(t, `cmd - n : echo A`)
	if md.modeNames[md.modeCursor] != "default" {
		t.Errorf("expected initial mode to be default, got %q", md.modeNames[md.modeCursor])
	}
}

func TestRightNavigatesToNextMode(t *testing.T) {
	md := loadOrFatal(t, ":: edit\ncmd - n : echo A")
	md = sendNamedKey(md, tea.KeyRight)
	if md.modeNames[md.modeCursor] != "edit" {
		t.Errorf("expected navigation to 'edit', got %q", md.modeNames[md.modeCursor])
	}
	// left should bring it back
	md = sendNamedKey(md, tea.KeyLeft)
	if md.modeNames[md.modeCursor] != "default" {
		t.Errorf("expected navigation back to 'default', got %q", md.modeNames[md.modeCursor])
	}
}

func TestRightAtLastModeIsNoop(t *testing.T) {
	md := loadOrFatal(t, `cmd - n : echo A`)
	md = sendNamedKey(md, tea.KeyRight)
	if md.modeNames[md.modeCursor] != "default" {
		t.Error("expected cursor to stay on the only mode")
	}
}

func TestDownNavigatesHotkeysWithinMode(t *testing.T) {
	md := loadOrFatal(t, "cmd - n : echo A\ncmd - m : echo B")
	if md.hkCursor != 0 {
		t.Fatal("expected initial hotkey cursor at 0")
	}
	md = sendNamedKey(md, tea.KeyDown)
	if md.hkCursor != 1 {
		t.Errorf("hkCursor = %d, want 1", md.hkCursor)
	}
	md = sendNamedKey(md, tea.KeyDown)
	if md.hkCursor != 1 {
		t.Errorf("expected down at last hotkey to be a no-op, got %d", md.hkCursor)
	}
}

func TestQuitReturnsQuitCmd(t *testing.T) {
	md := loadOrFatal(t, `cmd - n : echo A`)
	_, cmd := md.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestViewShowsModeAndHotkeyCombo(t *testing.T) {
	md := loadOrFatal(t, `cmd - n : echo A`)
	view := md.View()
	if !strings.Contains(view, "default") {
		t.Error("expected view to list the default mode")
	}
	if !strings.Contains(view, "cmd - n") {
		t.Error("expected view to render the hotkey combo")
	}
}

func TestViewShowsCaptureTag(t *testing.T) {
	md := loadOrFatal(t, ":: edit @\ncmd - e ; edit")
	md = sendNamedKey(md, tea.KeyRight)
	view := md.View()
	if !strings.Contains(view, "capture") {
		t.Error("expected capture-mode tag in view")
	}
}

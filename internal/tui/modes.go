// Package tui provides a read-only interactive browser over a loaded
// Mappings, built with Bubble Tea and Lip Gloss exactly as the teacher's
// own internal/tui package is: a Model implementing tea.Model, a small set
// of Update messages, and lipgloss styles grouped at the top of the view
// file. Unlike the teacher's recording-session TUI, this one has no
// runtime state beyond cursor position — it exists to let a user inspect
// what a mapping file resolved to (modes, hotkeys, per-process bindings)
// without having to read the source file back.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00E5FF")).
			MarginBottom(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6AC1"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	keyComboStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64FFDA"))

	captureTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAB40")).
			Bold(true)

	quitStyle = dimStyle
)

// Model is the Bubble Tea model for the read-only modes/hotkeys browser.
type Model struct {
	m          *mappings.Mappings
	modeNames  []string
	modeCursor int
	hkCursor   int
}

// NewModel builds a Model over a loaded Mappings.
func NewModel(m *mappings.Mappings) Model {
	return Model{m: m, modeNames: m.ModeNames()}
}

// Init satisfies tea.Model; this browser has no startup command.
func (md Model) Init() tea.Cmd { return nil }

// Update satisfies tea.Model: arrow/j-k navigation between modes (left
// pane) and hotkeys within the selected mode (right pane), q/ctrl+c to
// quit.
func (md Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return md, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c", "esc":
		return md, tea.Quit
	case "up", "k":
		if md.hkCursor > 0 {
			md.hkCursor--
		}
	case "down", "j":
		if md.hkCursor < len(md.currentModeHotkeys())-1 {
			md.hkCursor++
		}
	case "left", "h":
		if md.modeCursor > 0 {
			md.modeCursor--
			md.hkCursor = 0
		}
	case "right", "l", "tab":
		if md.modeCursor < len(md.modeNames)-1 {
			md.modeCursor++
			md.hkCursor = 0
		}
	}
	return md, nil
}

func (md Model) currentModeRef() mappings.ModeRef {
	ref, _ := md.m.ModeByName(md.modeNames[md.modeCursor])
	return ref
}

func (md Model) currentModeHotkeys() []mappings.HotkeyRef {
	return md.m.HotkeysInMode(md.currentModeRef())
}

// View renders the two-pane layout: mode list on the left, the selected
// mode's hotkeys (with their per-process bindings) on the right.
func (md Model) View() string {
	var left strings.Builder
	for i, name := range md.modeNames {
		mode := md.m.Mode(mustRef(md.m, name))
		line := name
		if mode.Capture {
			line += " " + captureTagStyle.Render("[capture]")
		}
		if i == md.modeCursor {
			left.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			left.WriteString("  " + line + "\n")
		}
	}

	var right strings.Builder
	hks := md.currentModeHotkeys()
	if len(hks) == 0 {
		right.WriteString(dimStyle.Render("(no hotkeys in this mode)"))
	}
	for i, ref := range hks {
		hk := md.m.Hotkey(ref)
		line := renderCombo(hk)
		if i == md.hkCursor {
			right.WriteString(selectedStyle.Render("> "+line) + "\n")
			right.WriteString(renderDetail(hk))
		} else {
			right.WriteString("  " + line + "\n")
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(left.String()),
		paneStyle.Render(right.String()),
	)

	return titleStyle.Render("gokhd — modes") + "\n" + body + "\n" +
		quitStyle.Render("←/→ switch mode   ↑/↓ select hotkey   q to quit")
}

func mustRef(m *mappings.Mappings, name string) mappings.ModeRef {
	ref, _ := m.ModeByName(name)
	return ref
}

// renderCombo renders a hotkey's modifier+key combo in source-like form,
// falling back to a hex keycode when the key has no literal name.
func renderCombo(hk *mappings.Hotkey) string {
	mods := hk.Modifiers.String()
	key := fmt.Sprintf("0x%02X", uint32(hk.Key))
	if name, ok := keymodel.LiteralForKeycode(hk.Key); ok {
		key = name
	}
	combo := key
	if mods != "(none)" {
		combo = mods + " - " + key
	}
	if hk.Passthrough {
		combo += " ->"
	}
	return keyComboStyle.Render(combo)
}

// renderDetail renders the wildcard and per-process bindings for the
// currently selected hotkey, indented under its combo line.
func renderDetail(hk *mappings.Hotkey) string {
	var sb strings.Builder
	if hk.Wildcard != nil {
		sb.WriteString("    * " + describeCommand(*hk.Wildcard) + "\n")
	}
	for _, e := range hk.ProcessEntries() {
		sb.WriteString("    \"" + e.Name + "\" " + describeCommand(e.Command) + "\n")
	}
	return sb.String()
}

func describeCommand(pc mappings.ProcessCommand) string {
	switch pc.Kind {
	case mappings.Unbound:
		return dimStyle.Render("~ (unbound)")
	case mappings.Shell:
		return ": " + pc.Text
	case mappings.Forward:
		return "| " + pc.ForwardTo.Modifiers.String() + " " + fmt.Sprintf("0x%02X", uint32(pc.ForwardTo.Key))
	case mappings.ActivateMode:
		return "; " + pc.Text
	default:
		return "?"
	}
}

package parser

import (
	"fmt"
	"testing"

	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
)

// mapReader is an in-memory FileReader keyed by absolute path, used so
// `.load` resolution can be exercised without touching disk.
type mapReader map[string]string

func (r mapReader) ReadToString(absPath string) (string, error) {
	src, ok := r[absPath]
	if !ok {
		return "", fmt.Errorf("no such file: %s", absPath)
	}
	return src, nil
}

func mustLoad(t *testing.T, src string) *mappings.Mappings {
	t.Helper()
	m, err := Load("/cfg/gokhdrc", mapReader{"/cfg/gokhdrc": src})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return m
}

func lookupShell(t *testing.T, m *mappings.Mappings, mode mappings.ModeRef, kp keymodel.KeyPress, process string) mappings.ProcessCommand {
	t.Helper()
	ref, ok := m.Lookup(mode, kp)
	if !ok {
		t.Fatalf("no hotkey matched %v in mode %d", kp, mode)
	}
	return m.Hotkey(ref).FindCommandForProcess(process)
}

func TestScenarioWildcardVsSpecificProcess(t *testing.T) {
	m := mustLoad(t, "cmd - n [\n  \"terminal\" : echo A\n  * : echo B\n]")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "n")}

	got := lookupShell(t, m, def, kp, "Terminal")
	if got.Kind != mappings.Shell || got.Text != "echo A" {
		t.Errorf("Terminal: got %+v", got)
	}
	got = lookupShell(t, m, def, kp, "Safari")
	if got.Kind != mappings.Shell || got.Text != "echo B" {
		t.Errorf("Safari: got %+v", got)
	}
}

func TestScenarioLeftRightModifierDiscrimination(t *testing.T) {
	m := mustLoad(t, "lcmd - e : echo L\nrcmd - i : echo R")
	def := m.DefaultModeRef()
	e := mustKey(t, "e")
	i := mustKey(t, "i")

	got := lookupShell(t, m, def, keymodel.KeyPress{Modifiers: keymodel.LCmd, Key: e}, "any")
	if got.Text != "echo L" {
		t.Errorf("lcmd-e: got %+v", got)
	}
	if _, ok := m.Lookup(def, keymodel.KeyPress{Modifiers: keymodel.RCmd, Key: e}); ok {
		t.Errorf("rcmd-e should not match the lcmd-only rule")
	}
	got = lookupShell(t, m, def, keymodel.KeyPress{Modifiers: keymodel.RCmd, Key: i}, "any")
	if got.Text != "echo R" {
		t.Errorf("rcmd-i: got %+v", got)
	}
}

func TestScenarioModeActivationWithOnEnter(t *testing.T) {
	m := mustLoad(t, ":: test : echo entered\ncmd - t ; test : echo switching")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "t")}

	got := lookupShell(t, m, def, kp, "any")
	if got.Kind != mappings.ActivateMode || got.Text != "test" || got.OnEnterCmd != "echo switching" {
		t.Fatalf("got %+v", got)
	}
	testRef, ok := m.ModeByName("test")
	if !ok {
		t.Fatal("mode test not declared")
	}
	if m.Mode(testRef).OnEnterCommand != "echo entered" {
		t.Errorf("mode on-enter = %q", m.Mode(testRef).OnEnterCommand)
	}
}

func TestScenarioCaptureMode(t *testing.T) {
	m := mustLoad(t, ":: edit @\ncmd - e ; edit")
	ref, ok := m.ModeByName("edit")
	if !ok || !m.Mode(ref).Capture {
		t.Fatal("expected capture mode 'edit'")
	}
}

func TestScenarioTemplateExpansion(t *testing.T) {
	m := mustLoad(t, ".define focus : yabai --focus {{1}}\ncmd - h : @focus(\"west\")")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "h")}
	got := lookupShell(t, m, def, kp, "any")
	if got.Text != "yabai --focus west" {
		t.Errorf("got %+v", got)
	}
}

func TestScenarioTemplateArgumentCountMismatch(t *testing.T) {
	_, err := Load("/cfg/gokhdrc", mapReader{
		"/cfg/gokhdrc": ".define focus : yabai --focus {{1}}\ncmd - h : @focus(\"west\", \"extra\")",
	})
	if err == nil {
		t.Fatal("expected argument-count mismatch error")
	}
}

func TestScenarioUndefinedTemplatePassesThroughLiterally(t *testing.T) {
	m := mustLoad(t, `cmd - h : @nope("x")`)
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "h")}
	got := lookupShell(t, m, def, kp, "any")
	if got.Text != `@nope("x")` {
		t.Errorf("expected literal pass-through, got %q", got.Text)
	}
}

func TestScenarioProcessGroupExpansion(t *testing.T) {
	m := mustLoad(t, ".define terms [\"kitty\",\"wezterm\"]\nctrl - left [ @terms ~ * | alt - left ]")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Control, Key: mustKey(t, "left")}

	got := lookupShell(t, m, def, kp, "Kitty")
	if got.Kind != mappings.Unbound {
		t.Errorf("kitty: got %+v, want Unbound", got)
	}
	got = lookupShell(t, m, def, kp, "Safari")
	if got.Kind != mappings.Forward || got.ForwardTo.Modifiers != keymodel.Alt || got.ForwardTo.Key != mustKey(t, "left") {
		t.Errorf("safari: got %+v", got)
	}
}

func TestScenarioPassthrough(t *testing.T) {
	m := mustLoad(t, `cmd - p -> : echo P`)
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "p")}
	ref, ok := m.Lookup(def, kp)
	if !ok {
		t.Fatal("no match")
	}
	hk := m.Hotkey(ref)
	if !hk.Passthrough {
		t.Error("expected Passthrough flag")
	}
	got := hk.FindCommandForProcess("any")
	if got.Text != "echo P" {
		t.Errorf("got %+v", got)
	}
}

func TestDuplicateHotkeyRejected(t *testing.T) {
	_, err := Load("/cfg/gokhdrc", mapReader{
		"/cfg/gokhdrc": "cmd - n : echo a\ncmd - n : echo b",
	})
	if err == nil {
		t.Fatal("expected duplicate hotkey error")
	}
}

func TestUnknownModifierErrors(t *testing.T) {
	_, err := Load("/cfg/gokhdrc", mapReader{"/cfg/gokhdrc": "bogus - n : echo a"})
	if err == nil {
		t.Fatal("expected parse error for unknown token sequence")
	}
}

func TestActivateModeTargetMustExist(t *testing.T) {
	_, err := Load("/cfg/gokhdrc", mapReader{"/cfg/gokhdrc": "cmd - t ; nonexistent"})
	if err == nil {
		t.Fatal("expected validation error for missing mode target")
	}
}

func TestLoadDirectiveResolvesRelativeToIncludingFile(t *testing.T) {
	reader := mapReader{
		"/cfg/gokhdrc":        ".load \"extra.skhd\"\ncmd - n : echo root",
		"/cfg/extra.skhd":     "cmd - m : echo included",
	}
	m, err := Load("/cfg/gokhdrc", reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.HotkeyCount() != 2 {
		t.Fatalf("expected 2 hotkeys, got %d", m.HotkeyCount())
	}
	files := m.LoadedFiles()
	if len(files) != 2 || files[0] != "/cfg/gokhdrc" || files[1] != "/cfg/extra.skhd" {
		t.Errorf("loaded files = %v", files)
	}
}

func TestLoadDirectiveDedupsRepeatedIncludes(t *testing.T) {
	reader := mapReader{
		"/cfg/gokhdrc": ".load \"a.skhd\"\n.load \"a.skhd\"\ncmd - n : echo root",
		"/cfg/a.skhd":  "cmd - m : echo a",
	}
	m, err := Load("/cfg/gokhdrc", reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.LoadedFiles()) != 2 {
		t.Errorf("expected a.skhd to be loaded exactly once, loaded files = %v", m.LoadedFiles())
	}
}

func TestBlacklistDirective(t *testing.T) {
	m := mustLoad(t, ".blacklist [ \"terminal\" ]\ncmd - n : echo a")
	if !m.Blacklisted("Terminal") {
		t.Error("expected terminal to be blacklisted")
	}
}

func TestShellDirective(t *testing.T) {
	m := mustLoad(t, ".shell \"/bin/zsh\"\ncmd - n : echo a")
	if m.Shell() != "/bin/zsh" {
		t.Errorf("shell = %q", m.Shell())
	}
}

func TestModePreambleSharesHotkeyAcrossModes(t *testing.T) {
	m := mustLoad(t, ":: edit\nedit < cmd - n : echo shared")
	editRef, _ := m.ModeByName("edit")
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: mustKey(t, "n")}
	got := lookupShell(t, m, editRef, kp, "any")
	if got.Text != "echo shared" {
		t.Errorf("got %+v", got)
	}
}

func mustKey(t *testing.T, lit string) keymodel.KeyCode {
	t.Helper()
	code, _, err := keymodel.KeycodeForLiteral(lit)
	if err != nil {
		t.Fatalf("keycode for %q: %v", lit, err)
	}
	return code
}

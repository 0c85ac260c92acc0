package dispatch

import (
	"testing"

	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
	"github.com/gokhd/gokhd/internal/parser"
)

func load(t *testing.T, src string) *mappings.Mappings {
	t.Helper()
	m, err := parser.Load("/cfg/gokhdrc", mapReader{"/cfg/gokhdrc": src})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	return m
}

type mapReader map[string]string

func (r mapReader) ReadToString(absPath string) (string, error) {
	return r[absPath], nil
}

func key(t *testing.T, lit string) keymodel.KeyCode {
	t.Helper()
	c, _, err := keymodel.KeycodeForLiteral(lit)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDispatchWildcardVsSpecificProcess(t *testing.T) {
	m := load(t, "cmd - n [\n  \"terminal\" : echo A\n  * : echo B\n]")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: key(t, "n")}

	d := Dispatch(m, def, kp, "Terminal")
	if d.Kind != Shell || d.ShellCmd != "echo A" {
		t.Errorf("got %+v", d)
	}
	d = Dispatch(m, def, kp, "Safari")
	if d.Kind != Shell || d.ShellCmd != "echo B" {
		t.Errorf("got %+v", d)
	}
}

func TestDispatchLeftRightDiscrimination(t *testing.T) {
	m := load(t, "lcmd - e : echo L\nrcmd - i : echo R")
	def := m.DefaultModeRef()
	e, i := key(t, "e"), key(t, "i")

	d := Dispatch(m, def, keymodel.KeyPress{Modifiers: keymodel.LCmd, Key: e}, "any")
	if d.Kind != Shell || d.ShellCmd != "echo L" {
		t.Errorf("got %+v", d)
	}
	d = Dispatch(m, def, keymodel.KeyPress{Modifiers: keymodel.RCmd, Key: e}, "any")
	if d.Kind != LetThrough {
		t.Errorf("rcmd-e: got %+v, want LetThrough", d)
	}
	d = Dispatch(m, def, keymodel.KeyPress{Modifiers: keymodel.RCmd, Key: i}, "any")
	if d.Kind != Shell || d.ShellCmd != "echo R" {
		t.Errorf("got %+v", d)
	}
}

func TestDispatchModeActivationWithOnEnter(t *testing.T) {
	m := load(t, ":: test : echo entered\ncmd - t ; test : echo switching")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: key(t, "t")}

	d := Dispatch(m, def, kp, "any")
	if d.Kind != ActivateModeKind || d.TargetMode != "test" {
		t.Fatalf("got %+v", d)
	}
	if len(d.OnEnterCommands) != 2 || d.OnEnterCommands[0] != "echo switching" || d.OnEnterCommands[1] != "echo entered" {
		t.Errorf("on-enter order = %v, want [echo switching, echo entered]", d.OnEnterCommands)
	}

	testRef, _ := m.ModeByName("test")
	// Subsequent unmapped event in a non-capturing mode lets through.
	d = Dispatch(m, testRef, keymodel.KeyPress{Modifiers: keymodel.Shift, Key: key(t, "z")}, "any")
	if d.Kind != LetThrough {
		t.Errorf("got %+v, want LetThrough", d)
	}
}

func TestDispatchCaptureModeSwallows(t *testing.T) {
	m := load(t, ":: edit @\ncmd - e ; edit")
	editRef, _ := m.ModeByName("edit")
	d := Dispatch(m, editRef, keymodel.KeyPress{Modifiers: keymodel.Shift, Key: key(t, "z")}, "any")
	if d.Kind != Swallow {
		t.Errorf("got %+v, want Swallow", d)
	}
}

func TestDispatchProcessGroupExpansion(t *testing.T) {
	m := load(t, ".define terms [\"kitty\",\"wezterm\"]\nctrl - left [ @terms ~ * | alt - left ]")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Control, Key: key(t, "left")}

	d := Dispatch(m, def, kp, "Kitty")
	if d.Kind != LetThrough {
		t.Errorf("kitty: got %+v, want LetThrough (unbound)", d)
	}
	d = Dispatch(m, def, kp, "Safari")
	if d.Kind != Forward || d.ForwardTo.Modifiers != keymodel.Alt || d.ForwardTo.Key != key(t, "left") {
		t.Errorf("safari: got %+v", d)
	}
}

func TestDispatchPassthrough(t *testing.T) {
	m := load(t, `cmd - p -> : echo P`)
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: key(t, "p")}

	d := Dispatch(m, def, kp, "any")
	if d.Kind != Passthrough || !d.HasShellCmd || d.ShellCmd != "echo P" {
		t.Errorf("got %+v", d)
	}
}

func TestDispatchBlacklistedProcessLetsThrough(t *testing.T) {
	m := load(t, ".blacklist [ \"terminal\" ]\ncmd - n : echo a")
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: key(t, "n")}

	d := Dispatch(m, def, kp, "Terminal")
	if d.Kind != LetThrough {
		t.Errorf("got %+v, want LetThrough for blacklisted process", d)
	}
	d = Dispatch(m, def, kp, "Safari")
	if d.Kind != Shell {
		t.Errorf("got %+v, want Shell for non-blacklisted process", d)
	}
}

func TestDispatchNoRuleNonCapturingLetsThrough(t *testing.T) {
	m := load(t, `cmd - n : echo a`)
	def := m.DefaultModeRef()
	d := Dispatch(m, def, keymodel.KeyPress{Modifiers: keymodel.Shift, Key: key(t, "z")}, "any")
	if d.Kind != LetThrough {
		t.Errorf("got %+v", d)
	}
}

func TestDispatchIsDeterministic(t *testing.T) {
	m := load(t, `cmd - n : echo a`)
	def := m.DefaultModeRef()
	kp := keymodel.KeyPress{Modifiers: keymodel.Cmd, Key: key(t, "n")}
	first := Dispatch(m, def, kp, "proc")
	second := Dispatch(m, def, kp, "proc")
	if first.Kind != second.Kind || first.ShellCmd != second.ShellCmd {
		t.Errorf("dispatch is not a pure function: %+v != %+v", first, second)
	}
}

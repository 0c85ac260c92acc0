package mappings

import (
	"testing"

	"github.com/gokhd/gokhd/internal/keymodel"
)

func TestNewHasDefaultMode(t *testing.T) {
	m := New()
	ref, ok := m.ModeByName("default")
	if !ok || ref != m.DefaultModeRef() {
		t.Fatal("expected implicit default mode")
	}
	if m.Mode(ref).Capture {
		t.Error("default mode should not capture")
	}
}

func TestPutModeRejectsDuplicate(t *testing.T) {
	m := New()
	if _, err := m.PutMode("edit", true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PutMode("edit", false, ""); err == nil {
		t.Fatal("expected error declaring mode twice")
	}
	if _, err := m.PutMode("default", false, ""); err == nil {
		t.Fatal("expected error redeclaring default")
	}
}

func TestAddHotkeyRequiresAtLeastOneMode(t *testing.T) {
	m := New()
	hk := Hotkey{Modifiers: keymodel.Cmd, Key: 0x31}
	if _, err := m.AddHotkey(nil, hk); err == nil {
		t.Fatal("expected error for hotkey with no owning modes")
	}
}

func TestAddHotkeyRejectsDuplicateInSameMode(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	hk1 := Hotkey{Modifiers: keymodel.Cmd, Key: 0x31}
	if _, err := m.AddHotkey([]ModeRef{def}, hk1); err != nil {
		t.Fatal(err)
	}
	hk2 := Hotkey{Modifiers: keymodel.Cmd, Key: 0x31}
	if _, err := m.AddHotkey([]ModeRef{def}, hk2); err == nil {
		t.Fatal("expected duplicate rejection")
	}
}

func TestAddHotkeyAllowsSameRuleDifferentModes(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	edit, _ := m.PutMode("edit", false, "")
	hk1 := Hotkey{Modifiers: keymodel.Cmd, Key: 0x31}
	if _, err := m.AddHotkey([]ModeRef{def}, hk1); err != nil {
		t.Fatal(err)
	}
	hk2 := Hotkey{Modifiers: keymodel.Cmd, Key: 0x31}
	if _, err := m.AddHotkey([]ModeRef{edit}, hk2); err != nil {
		t.Fatalf("same rule in a different mode should be allowed: %v", err)
	}
}

func TestAddHotkeyDuplicateUsesExactLRRule(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	if _, err := m.AddHotkey([]ModeRef{def}, Hotkey{Modifiers: keymodel.LCmd, Key: 0x0E}); err != nil {
		t.Fatal(err)
	}
	// General cmd and lcmd are distinct rule-side modifier sets, not duplicates.
	if _, err := m.AddHotkey([]ModeRef{def}, Hotkey{Modifiers: keymodel.Cmd, Key: 0x0E}); err != nil {
		t.Fatalf("general cmd vs lcmd should not be a duplicate: %v", err)
	}
}

func TestLookupSelectsFirstMatchDeterministically(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	lcmdRef, _ := m.AddHotkey([]ModeRef{def}, Hotkey{Modifiers: keymodel.LCmd, Key: 0x0E})
	_, _ = m.AddHotkey([]ModeRef{def}, Hotkey{Modifiers: keymodel.RCmd, Key: 0x0E})

	ref, ok := m.Lookup(def, keymodel.KeyPress{Modifiers: keymodel.LCmd, Key: 0x0E})
	if !ok || ref != lcmdRef {
		t.Errorf("expected to resolve the lcmd rule, got ref=%d ok=%v", ref, ok)
	}
}

func TestLookupNoMatch(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	_, _ = m.AddHotkey([]ModeRef{def}, Hotkey{Modifiers: keymodel.Cmd, Key: 0x0E})
	_, ok := m.Lookup(def, keymodel.KeyPress{Modifiers: keymodel.Shift, Key: 0x0E})
	if ok {
		t.Error("expected no match for an unmapped modifier combo on the same key")
	}
}

func TestFindCommandForProcessWildcardFallback(t *testing.T) {
	hk := &Hotkey{}
	hk.SetWildcard(ProcessCommand{Kind: Shell, Text: "echo wildcard"})
	hk.PutProcess("terminal", ProcessCommand{Kind: Shell, Text: "echo terminal"})

	got := hk.FindCommandForProcess("Terminal")
	if got.Kind != Shell || got.Text != "echo terminal" {
		t.Errorf("expected case-insensitive match to terminal entry, got %+v", got)
	}

	got = hk.FindCommandForProcess("Safari")
	if got.Kind != Shell || got.Text != "echo wildcard" {
		t.Errorf("expected wildcard fallback, got %+v", got)
	}
}

func TestFindCommandForProcessEmptyMapReturnsWildcard(t *testing.T) {
	hk := &Hotkey{}
	hk.SetWildcard(ProcessCommand{Kind: Forward, ForwardTo: keymodel.KeyPress{Modifiers: keymodel.Alt, Key: 0x7B}})
	got := hk.FindCommandForProcess("anything")
	if got.Kind != Forward {
		t.Errorf("expected forward from wildcard, got %+v", got)
	}
}

func TestFindCommandForProcessNoWildcardReturnsUnbound(t *testing.T) {
	hk := &Hotkey{}
	got := hk.FindCommandForProcess("anything")
	if got.Kind != Unbound {
		t.Errorf("expected unbound with no wildcard and empty map, got %+v", got)
	}
}

func TestFindCommandForProcessLongNameFallsBackToWildcard(t *testing.T) {
	hk := &Hotkey{}
	hk.SetWildcard(ProcessCommand{Kind: Shell, Text: "echo wildcard"})
	hk.PutProcess("terminal", ProcessCommand{Kind: Shell, Text: "echo terminal"})

	longName := make([]byte, maxLookupNameLen+1)
	for i := range longName {
		longName[i] = 'a'
	}
	got := hk.FindCommandForProcess(string(longName))
	if got.Text != "echo wildcard" {
		t.Errorf("expected wildcard fallback for oversized process name, got %+v", got)
	}
}

func TestValidateRejectsMissingActivateTarget(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	hk := Hotkey{Modifiers: keymodel.Cmd, Key: 0x11}
	hk.SetWildcard(ProcessCommand{Kind: ActivateMode, Text: "nonexistent"})
	if _, err := m.AddHotkey([]ModeRef{def}, hk); err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for missing activate-mode target")
	}
}

func TestValidateAcceptsExistingActivateTarget(t *testing.T) {
	m := New()
	def := m.DefaultModeRef()
	if _, err := m.PutMode("edit", true, ""); err != nil {
		t.Fatal(err)
	}
	hk := Hotkey{Modifiers: keymodel.Cmd, Key: 0x11}
	hk.SetWildcard(ProcessCommand{Kind: ActivateMode, Text: "edit"})
	if _, err := m.AddHotkey([]ModeRef{def}, hk); err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestAddProcessGroupLowercasesMembers(t *testing.T) {
	m := New()
	if err := m.AddProcessGroup("terms", []string{"Kitty", "WezTerm"}); err != nil {
		t.Fatal(err)
	}
	g, ok := m.ProcessGroup("terms")
	if !ok || g[0] != "kitty" || g[1] != "wezterm" {
		t.Errorf("expected lowercased members, got %v", g)
	}
}

func TestAddProcessGroupRejectsEmpty(t *testing.T) {
	m := New()
	if err := m.AddProcessGroup("terms", nil); err == nil {
		t.Fatal("expected error for empty group")
	}
}

func TestAppendLoadedFileDeduplicates(t *testing.T) {
	m := New()
	m.AppendLoadedFile("/a/skhdrc")
	m.AppendLoadedFile("/b/skhdrc")
	m.AppendLoadedFile("/a/skhdrc")
	got := m.LoadedFiles()
	if len(got) != 2 || got[0] != "/a/skhdrc" || got[1] != "/b/skhdrc" {
		t.Errorf("expected deduplicated load-order list, got %v", got)
	}
}

func TestBlacklistCaseInsensitive(t *testing.T) {
	m := New()
	m.AddBlacklist([]string{"Terminal"})
	if !m.Blacklisted("terminal") || !m.Blacklisted("TERMINAL") {
		t.Error("expected case-insensitive blacklist match")
	}
	if m.Blacklisted("safari") {
		t.Error("safari should not be blacklisted")
	}
}

// Package mappings holds the in-memory, read-only-after-load registry that
// the dispatcher consults: modes, hotkeys, process groups, command
// templates, the blacklist, and the configured shell. Mappings is built
// once per (re)load by package parser and then swapped in atomically by
// package core; nothing mutates it once parser.Load has returned it.
package mappings

import (
	"fmt"

	"github.com/gokhd/gokhd/internal/keymodel"
)

// ModeRef and HotkeyRef are arena indices. Modes reference Hotkeys and
// Hotkeys reference Modes; using indices instead of pointers keeps both
// arenas trivially relocatable and makes a whole-graph reload a single
// pointer swap of the owning Mappings value (see package core).
type ModeRef int
type HotkeyRef int

const noModeRef ModeRef = -1

// CommandKind tags the variant held by a ProcessCommand.
type CommandKind int

const (
	// Unbound recognizes the key but lets it pass through to the OS.
	Unbound CommandKind = iota
	// Shell runs Text as a shell command.
	Shell
	// Forward suppresses the original key and synthesizes ForwardTo.
	Forward
	// ActivateMode switches the mode cursor to Text (a mode name).
	ActivateMode
)

// ProcessCommand is the tagged union §3 describes: what a hotkey does for
// one process (or the wildcard `*` process). Per §9's design note, mode
// activation is folded into this same union (Kind==ActivateMode, Text
// holding the target mode name) rather than living on a separate action
// path — the grammar allows `; mode [: cmd]` both as a hotkey's sole
// top-level action and as one entry of a `[ procmap ]` list, so the
// activate/not-activate distinction has to live per-ProcessCommand, not
// per-Hotkey. OnEnterCmd is the optional command that followed the mode
// name (`; mode : cmd`); by §9's Open Question it runs before the target
// mode's own OnEnterCommand.
type ProcessCommand struct {
	Kind      CommandKind
	Text      string // shell command text, or (Kind==ActivateMode) target mode name
	ForwardTo keymodel.KeyPress
	OnEnterCmd string
}

// Hotkey is a single rule. Per-process storage is struct-of-arrays
// (parallel name/hash/command slices) per §4.5, to keep the hash-scan on
// the dispatch hot path cache-dense.
type Hotkey struct {
	Modifiers   keymodel.ModifierSet
	Key         keymodel.KeyCode
	OwningModes []ModeRef
	Passthrough bool
	Wildcard    *ProcessCommand

	procNames    []string
	procHashes   []uint64
	procCommands []ProcessCommand
}

// SetWildcard sets the hotkey's fallback command (used by `* : cmd`, `|
// keypress` with no process map, and bare `: cmd`/`; mode` forms).
func (h *Hotkey) SetWildcard(pc ProcessCommand) {
	cp := pc
	h.Wildcard = &cp
}

// PutProcess adds or overwrites the command for a single (already
// lowercased) process name.
func (h *Hotkey) PutProcess(lowerName string, pc ProcessCommand) {
	hash := fnv1a(lowerName)
	for i, n := range h.procNames {
		if n == lowerName {
			h.procCommands[i] = pc
			h.procHashes[i] = hash
			return
		}
	}
	h.procNames = append(h.procNames, lowerName)
	h.procHashes = append(h.procHashes, hash)
	h.procCommands = append(h.procCommands, pc)
}

// maxLookupNameLen bounds the process name considered for the per-entry
// hash scan; §4.5 step 2 falls back to the wildcard for anything longer,
// mirroring the fixed-size stack buffer a systems-language implementation
// would use.
const maxLookupNameLen = 256

// FindCommandForProcess implements §4.5: empty per-process map falls
// straight to the wildcard; otherwise the process name is lowercased,
// hashed, and compared against the (already-lowercased) struct-of-arrays
// entries before falling back to the wildcard.
func (h *Hotkey) FindCommandForProcess(processName string) ProcessCommand {
	if len(h.procNames) == 0 {
		return h.wildcardOrUnbound()
	}
	if len(processName) > maxLookupNameLen {
		return h.wildcardOrUnbound()
	}
	lower := toLower(processName)
	hash := fnv1a(lower)
	for i, hv := range h.procHashes {
		if hv == hash && h.procNames[i] == lower {
			return h.procCommands[i]
		}
	}
	return h.wildcardOrUnbound()
}

func (h *Hotkey) wildcardOrUnbound() ProcessCommand {
	if h.Wildcard != nil {
		return *h.Wildcard
	}
	return ProcessCommand{Kind: Unbound}
}

// ProcessEntry pairs a lowercased process name with its command, for
// diagnostic rendering (the `check`/`modes` CLI surfaces) that needs to
// show every per-process binding rather than resolve a single one.
type ProcessEntry struct {
	Name    string
	Command ProcessCommand
}

// ProcessEntries returns the hotkey's per-process bindings in insertion
// order, for display purposes; it does not participate in dispatch.
func (h *Hotkey) ProcessEntries() []ProcessEntry {
	entries := make([]ProcessEntry, len(h.procNames))
	for i, n := range h.procNames {
		entries[i] = ProcessEntry{Name: n, Command: h.procCommands[i]}
	}
	return entries
}

// AllCommands returns every ProcessCommand the hotkey can resolve to
// (wildcard plus every per-process entry), for validation passes that must
// inspect all variants rather than the one a single process would resolve
// to (see Mappings.Validate).
func (h *Hotkey) AllCommands() []ProcessCommand {
	cmds := make([]ProcessCommand, 0, len(h.procCommands)+1)
	if h.Wildcard != nil {
		cmds = append(cmds, *h.Wildcard)
	}
	cmds = append(cmds, h.procCommands...)
	return cmds
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// fnv1a is the 64-bit hash used to accelerate the per-process scan.
func fnv1a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// Mode is a named hotkey namespace (§3 GLOSSARY).
type Mode struct {
	Name           string
	Capture        bool
	OnEnterCommand string
	hotkeys        []HotkeyRef
	byKeycode      map[keymodel.KeyCode][]HotkeyRef
}

// Template is a named command template registered via `.define name : tpl`.
type Template struct {
	Text           string
	MaxPlaceholder int
}

// Mappings is the sealed, read-only registry the dispatcher consults.
type Mappings struct {
	modes     []Mode
	modeIndex map[string]ModeRef

	hotkeys []Hotkey

	processGroups    map[string][]string
	commandTemplates map[string]Template
	blacklist        map[string]bool

	shell       string
	loadedFiles []string
}

// New creates an empty Mappings with the implicit `default` mode.
func New() *Mappings {
	m := &Mappings{
		modeIndex:        make(map[string]ModeRef),
		processGroups:    make(map[string][]string),
		commandTemplates: make(map[string]Template),
		blacklist:        make(map[string]bool),
		shell:            "/bin/bash",
	}
	m.modes = append(m.modes, Mode{Name: "default", Capture: false, byKeycode: make(map[keymodel.KeyCode][]HotkeyRef)})
	m.modeIndex["default"] = 0
	return m
}

// DefaultModeRef returns the ref of the always-present `default` mode.
func (m *Mappings) DefaultModeRef() ModeRef { return 0 }

// ModeByName resolves a mode name to its ModeRef.
func (m *Mappings) ModeByName(name string) (ModeRef, bool) {
	ref, ok := m.modeIndex[name]
	return ref, ok
}

// Mode returns the Mode at ref.
func (m *Mappings) Mode(ref ModeRef) *Mode { return &m.modes[ref] }

// PutMode declares a new mode. It is an error to declare the same name
// twice (including redeclaring "default").
func (m *Mappings) PutMode(name string, capture bool, onEnter string) (ModeRef, error) {
	if _, exists := m.modeIndex[name]; exists {
		return noModeRef, fmt.Errorf("mode %q already declared", name)
	}
	ref := ModeRef(len(m.modes))
	m.modes = append(m.modes, Mode{Name: name, Capture: capture, OnEnterCommand: onEnter, byKeycode: make(map[keymodel.KeyCode][]HotkeyRef)})
	m.modeIndex[name] = ref
	return ref, nil
}

// AddHotkey inserts hk, owned by the given modes, enforcing the
// same-mode duplicate-(modifiers,keycode) invariant. hk.OwningModes is set
// from modeRefs. Returns the new HotkeyRef.
func (m *Mappings) AddHotkey(modeRefs []ModeRef, hk Hotkey) (HotkeyRef, error) {
	if len(modeRefs) == 0 {
		return 0, fmt.Errorf("hotkey belongs to no mode")
	}
	for _, mr := range modeRefs {
		mode := &m.modes[mr]
		for _, existingRef := range mode.byKeycode[hk.Key] {
			existing := m.hotkeys[existingRef]
			if existing.Modifiers.Equal(hk.Modifiers) {
				return 0, fmt.Errorf("duplicate hotkey %s-%v in mode %q", hk.Modifiers, hk.Key, mode.Name)
			}
		}
	}

	hk.OwningModes = append([]ModeRef(nil), modeRefs...)
	ref := HotkeyRef(len(m.hotkeys))
	m.hotkeys = append(m.hotkeys, hk)

	for _, mr := range modeRefs {
		mode := &m.modes[mr]
		mode.hotkeys = append(mode.hotkeys, ref)
		mode.byKeycode[hk.Key] = append(mode.byKeycode[hk.Key], ref)
	}
	return ref, nil
}

// Hotkey returns the Hotkey at ref.
func (m *Mappings) Hotkey(ref HotkeyRef) *Hotkey { return &m.hotkeys[ref] }

// Lookup implements §4.4's read path: the first hotkey in mode whose
// (modifiers, keycode) matches event under keymodel's L/R equivalence
// rule, selected deterministically by insertion order.
func (m *Mappings) Lookup(mode ModeRef, event keymodel.KeyPress) (HotkeyRef, bool) {
	bucket := m.modes[mode].byKeycode[event.Key]
	for _, ref := range bucket {
		if m.hotkeys[ref].Modifiers.RuleMatches(event.Modifiers) {
			return ref, true
		}
	}
	return 0, false
}

// AddProcessGroup registers a named list of lowercased process names.
func (m *Mappings) AddProcessGroup(name string, members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("process group %q has no members", name)
	}
	lowered := make([]string, len(members))
	for i, mem := range members {
		lowered[i] = toLower(mem)
	}
	m.processGroups[name] = lowered
	return nil
}

// ProcessGroup resolves a `.define`d group name.
func (m *Mappings) ProcessGroup(name string) ([]string, bool) {
	g, ok := m.processGroups[name]
	return g, ok
}

// AddCommandTemplate registers a named command template, scanning it once
// for the highest `{{N}}` placeholder.
func (m *Mappings) AddCommandTemplate(name, text string) error {
	maxN, err := maxPlaceholder(text)
	if err != nil {
		return err
	}
	m.commandTemplates[name] = Template{Text: text, MaxPlaceholder: maxN}
	return nil
}

// CommandTemplate resolves a `.define`d template name.
func (m *Mappings) CommandTemplate(name string) (Template, bool) {
	t, ok := m.commandTemplates[name]
	return t, ok
}

// AddBlacklist adds lowercased entries to the process blacklist.
func (m *Mappings) AddBlacklist(names []string) {
	for _, n := range names {
		m.blacklist[toLower(n)] = true
	}
}

// Blacklisted reports whether processName (any case) is blacklisted.
func (m *Mappings) Blacklisted(processName string) bool {
	return m.blacklist[toLower(processName)]
}

// SetShell sets the shell path used to run commands.
func (m *Mappings) SetShell(path string) { m.shell = path }

// Shell returns the configured shell path.
func (m *Mappings) Shell() string { return m.shell }

// AppendLoadedFile records an absolute path in load order, deduplicated.
func (m *Mappings) AppendLoadedFile(absPath string) {
	for _, f := range m.loadedFiles {
		if f == absPath {
			return
		}
	}
	m.loadedFiles = append(m.loadedFiles, absPath)
}

// LoadedFiles returns the absolute paths loaded, in load order.
func (m *Mappings) LoadedFiles() []string {
	return append([]string(nil), m.loadedFiles...)
}

// Validate checks the invariants that can only be verified once the whole
// load (including transitively `.load`ed files) has finished: every
// ActivateMode target must name a mode that exists.
func (m *Mappings) Validate() error {
	for i := range m.hotkeys {
		for _, pc := range m.hotkeys[i].AllCommands() {
			if pc.Kind != ActivateMode {
				continue
			}
			if _, ok := m.modeIndex[pc.Text]; !ok {
				return fmt.Errorf("activate-mode target %q does not exist", pc.Text)
			}
		}
	}
	return nil
}

// ModeNames returns all declared mode names, for diagnostics/TUI use.
func (m *Mappings) ModeNames() []string {
	names := make([]string, 0, len(m.modes))
	for _, mo := range m.modes {
		names = append(names, mo.Name)
	}
	return names
}

// HotkeyCount returns the total number of distinct hotkeys (a hotkey
// shared by several modes via a preamble is counted once).
func (m *Mappings) HotkeyCount() int { return len(m.hotkeys) }

// HotkeysInMode returns the hotkey refs owned by mode, in insertion order.
func (m *Mappings) HotkeysInMode(mode ModeRef) []HotkeyRef {
	return append([]HotkeyRef(nil), m.modes[mode].hotkeys...)
}

// Package keymodel provides the keycode and modifier vocabulary shared by
// the tokenizer, parser, and dispatcher: literal-key lookup, modifier-word
// lookup, and the modifier-set equality rule used at match time.
package keymodel

import "strings"

// ModifierSet is a fixed-width bit set over the modifiers a hotkey rule or
// a physical key event can carry. "General" bits (Alt, Cmd, Control, Shift)
// and their left/right-specific bits are both representable; a rule stores
// whichever granularity the user wrote, an event stores whatever the OS
// reported. Passthrough and Activate are flags on a rule, never present on
// a physical event.
type ModifierSet uint16

// Modifier bits. Bit layout is not part of any wire format — it only needs
// to be internally consistent.
const (
	Alt ModifierSet = 1 << iota
	Cmd
	Control
	Shift
	Fn
	NX
	LAlt
	RAlt
	LCmd
	RCmd
	LControl
	RControl
	LShift
	RShift
	Passthrough
	Activate
)

// directional groups the general, left, and right granularities for each of
// the four directional modifiers, in a fixed order used by RuleMatches.
var directional = [4]struct {
	general, left, right ModifierSet
}{
	{Alt, LAlt, RAlt},
	{Cmd, LCmd, RCmd},
	{Control, LControl, RControl},
	{Shift, LShift, RShift},
}

// Has reports whether every bit in want is set in m.
func (m ModifierSet) Has(want ModifierSet) bool {
	return m&want == want
}

// Merge returns the union of m and other. Used while folding a sequence of
// `mod '+' mod` tokens into a single rule-side ModifierSet.
func (m ModifierSet) Merge(other ModifierSet) ModifierSet {
	return m | other
}

// RuleMatches reports whether event (a physical key event's modifier bits,
// which only ever carry general/left/right directional bits plus Fn/NX)
// satisfies the rule-side modifier set m, under the §4.1 equivalence rule:
//
//   - rule has lM set       -> event must have lM set (M ignored)
//   - rule has rM set       -> event must have rM set
//   - rule has general M    -> event must have lM or rM (or legacy general M) set
//   - rule has none of the three -> event must have none of M, lM, rM set
//
// Fn and NX must match exactly (both set or both clear). Passthrough and
// Activate are rule-only flags and never participate in matching.
func (m ModifierSet) RuleMatches(event ModifierSet) bool {
	for _, d := range directional {
		ruleHasL := m.Has(d.left)
		ruleHasR := m.Has(d.right)
		ruleHasGeneral := m.Has(d.general)

		eventHasDirectional := event&(d.left|d.right|d.general) != 0

		switch {
		case ruleHasL:
			if !event.Has(d.left) {
				return false
			}
		case ruleHasR:
			if !event.Has(d.right) {
				return false
			}
		case ruleHasGeneral:
			if !eventHasDirectional {
				return false
			}
		default:
			if eventHasDirectional {
				return false
			}
		}
	}

	if m.Has(Fn) != event.Has(Fn) {
		return false
	}
	if m.Has(NX) != event.Has(NX) {
		return false
	}
	return true
}

// Equal reports exact equality of the directional/Fn/NX bits, ignoring
// Passthrough/Activate. Used for the parser's duplicate-hotkey check, where
// both sides being compared are rule-side and L/R bits must match exactly
// (general cmd and lcmd are NOT duplicates of each other).
func (m ModifierSet) Equal(other ModifierSet) bool {
	const mask = Alt | Cmd | Control | Shift | Fn | NX | LAlt | RAlt | LCmd | RCmd | LControl | RControl | LShift | RShift
	return m&mask == other&mask
}

// modifierWords maps a modifier keyword (case-insensitive) to its
// ModifierSet, including the hyper/meh aliases.
var modifierWords = map[string]ModifierSet{
	"alt":      Alt,
	"lalt":     LAlt,
	"ralt":     RAlt,
	"cmd":      Cmd,
	"lcmd":     LCmd,
	"rcmd":     RCmd,
	"control":  Control,
	"ctrl":     Control,
	"lcontrol": LControl,
	"lctrl":    LControl,
	"rcontrol": RControl,
	"rctrl":    RControl,
	"shift":    Shift,
	"lshift":   LShift,
	"rshift":   RShift,
	"fn":       Fn,
	"nx":       NX,
	"hyper":    Cmd | Shift | Alt | Control,
	"meh":      Shift | Alt | Control,
}

// ModifierForKeyword resolves a modifier keyword (e.g. "cmd", "lcmd",
// "hyper") to its ModifierSet. Lookup is case-insensitive.
func ModifierForKeyword(word string) (ModifierSet, bool) {
	ms, ok := modifierWords[strings.ToLower(word)]
	return ms, ok
}

// String renders the set's directional/Fn/NX bits for diagnostics; flag
// bits (Passthrough, Activate) are omitted since they are never part of a
// rendered key combo.
func (m ModifierSet) String() string {
	var parts []string
	order := []struct {
		bit  ModifierSet
		name string
	}{
		{LCmd, "lcmd"}, {RCmd, "rcmd"}, {Cmd, "cmd"},
		{LAlt, "lalt"}, {RAlt, "ralt"}, {Alt, "alt"},
		{LControl, "lcontrol"}, {RControl, "rcontrol"}, {Control, "control"},
		{LShift, "lshift"}, {RShift, "rshift"}, {Shift, "shift"},
		{Fn, "fn"}, {NX, "nx"},
	}
	for _, o := range order {
		if m.Has(o.bit) {
			parts = append(parts, o.name)
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, "+")
}

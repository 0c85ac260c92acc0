package keymodel

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyCode identifies a physical key, independent of any modifier state.
// Values below follow the macOS virtual-keycode space (as used by the
// platform's CGEventTap), since the daemon this package serves targets
// macOS. The linux adapter does not translate: it passes raw evdev codes
// through as KeyCode values, so a literal-key rule there does not match the
// physical key its name refers to.
type KeyCode uint32

// KeyPress is a fully decoded key event: the modifiers held and the key
// pressed. It is also the target of a Forwarded action (the key to
// synthesize in place of the one that was consumed).
type KeyPress struct {
	Modifiers ModifierSet
	Key       KeyCode
}

// literalEntry records a literal key's keycode and the implicit modifier bits it
// contributes beyond its keycode, per §4.1: function-area keys set Fn,
// media keys set NX.
type literalEntry struct {
	code  KeyCode
	flags ModifierSet
}

// Letters, digits, punctuation (macOS virtual keycodes).
var baseLiterals = map[string]literalEntry{
	"a": {0x00, 0}, "s": {0x01, 0}, "d": {0x02, 0}, "f": {0x03, 0},
	"h": {0x04, 0}, "g": {0x05, 0}, "z": {0x06, 0}, "x": {0x07, 0},
	"c": {0x08, 0}, "v": {0x09, 0}, "b": {0x0B, 0}, "q": {0x0C, 0},
	"w": {0x0D, 0}, "e": {0x0E, 0}, "r": {0x0F, 0}, "y": {0x10, 0},
	"t": {0x11, 0}, "1": {0x12, 0}, "2": {0x13, 0}, "3": {0x14, 0},
	"4": {0x15, 0}, "6": {0x16, 0}, "5": {0x17, 0}, "9": {0x19, 0},
	"7": {0x1A, 0}, "8": {0x1C, 0}, "0": {0x1D, 0}, "o": {0x1F, 0},
	"u": {0x20, 0}, "i": {0x22, 0}, "p": {0x23, 0}, "l": {0x25, 0},
	"j": {0x26, 0}, "k": {0x28, 0}, "n": {0x2D, 0}, "m": {0x2E, 0},

	"return": {0x24, 0}, "tab": {0x30, 0}, "space": {0x31, 0},
	"delete": {0x33, 0}, "escape": {0x35, 0},
	"left": {0x7B, 0}, "right": {0x7C, 0}, "down": {0x7D, 0}, "up": {0x7E, 0},

	// Function-area literals carry the Fn implicit flag.
	"f1": {0x7A, Fn}, "f2": {0x78, Fn}, "f3": {0x63, Fn}, "f4": {0x76, Fn},
	"f5": {0x60, Fn}, "f6": {0x61, Fn}, "f7": {0x62, Fn}, "f8": {0x64, Fn},
	"f9": {0x65, Fn}, "f10": {0x6D, Fn}, "f11": {0x67, Fn}, "f12": {0x6F, Fn},
	"f13": {0x69, Fn}, "f14": {0x6B, Fn}, "f15": {0x71, Fn}, "f16": {0x6A, Fn},
	"f17": {0x40, Fn}, "f18": {0x4F, Fn}, "f19": {0x50, Fn}, "f20": {0x5A, Fn},
}

// mediaKeyBase is the reserved keycode range media-key literals occupy;
// these synthetic codes never collide with a real hardware keycode.
const mediaKeyBase KeyCode = 0x1000

// mediaLiterals carries the NX implicit flag (consumer-control / "NX"
// media keys arrive on a side channel distinct from ordinary key events).
var mediaLiterals = map[string]literalEntry{
	"play":        {mediaKeyBase + 0, NX},
	"next":        {mediaKeyBase + 1, NX},
	"previous":    {mediaKeyBase + 2, NX},
	"fast":        {mediaKeyBase + 3, NX},
	"rewind":      {mediaKeyBase + 4, NX},
	"volume_up":   {mediaKeyBase + 5, NX},
	"volume_down": {mediaKeyBase + 6, NX},
	"mute":        {mediaKeyBase + 7, NX},
	"brightness_up":   {mediaKeyBase + 8, NX},
	"brightness_down": {mediaKeyBase + 9, NX},
}

// KeycodeForLiteral resolves a literal key name (case-insensitive) to its
// KeyCode and implicit flag contribution. It covers the named keys in the
// grammar's `key := literal | ident-single-letter | hex` production and,
// since they share the same table, single letters and digits as well; a raw
// `0x..` keycode goes through KeycodeForHex instead.
func KeycodeForLiteral(name string) (KeyCode, ModifierSet, error) {
	lower := strings.ToLower(name)
	if e, ok := baseLiterals[lower]; ok {
		return e.code, e.flags, nil
	}
	if e, ok := mediaLiterals[lower]; ok {
		return e.code, e.flags, nil
	}
	return 0, 0, fmt.Errorf("unknown literal key: %s", name)
}

// KeycodeForHex parses a `0x...` keycode token's text into a KeyCode.
func KeycodeForHex(text string) (KeyCode, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex keycode %q: %w", text, err)
	}
	return KeyCode(v), nil
}

// KeycodeForSingleLetter resolves a bare single ASCII letter or digit used
// directly as a key (the `ident-single-letter` grammar production), e.g.
// the `n` in `cmd - n`.
func KeycodeForSingleLetter(name string) (KeyCode, bool) {
	if len(name) != 1 {
		return 0, false
	}
	e, ok := baseLiterals[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return e.code, true
}

// literalNameByCode is the reverse of baseLiterals/mediaLiterals, built
// once for diagnostic rendering (the `check`/`modes` CLI surfaces need to
// show a key combo back in source-like form rather than a bare keycode).
var literalNameByCode = func() map[KeyCode]string {
	names := make(map[KeyCode]string, len(baseLiterals)+len(mediaLiterals))
	for name, e := range baseLiterals {
		names[e.code] = name
	}
	for name, e := range mediaLiterals {
		names[e.code] = name
	}
	return names
}()

// LiteralForKeycode returns the literal name a KeyCode was parsed from, if
// any. Several source spellings can map to the same code (case folding),
// so this is a display aid, not a strict inverse of KeycodeForLiteral.
func LiteralForKeycode(code KeyCode) (string, bool) {
	name, ok := literalNameByCode[code]
	return name, ok
}

// Package parser builds a mappings.Mappings from a hotkey mapping file.
// Parsing is recursive-descent over the token.Lexer's stream: a file is a
// sequence of mode declarations, hotkeys, and directives, each consumed one
// at a time with one token of lookahead.
package parser

import (
	"fmt"

	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
	"github.com/gokhd/gokhd/internal/token"
)

// Error is a structured parse error carrying the file it occurred in, so
// Load can render "path:line:col: message" per the surrounding CLI's
// convention.
type Error struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// parser holds the state for parsing a single file's token stream into an
// already-created Mappings. Directives like `.load` cause the caller (see
// load.go) to recurse into a fresh parser over the included file, sharing
// the same Mappings instance.
type parser struct {
	file string
	toks []token.Token
	pos  int
	m    *mappings.Mappings

	// onLoad is invoked for each `.load "path"` directive with the quoted
	// path text and the string token (for error positioning). Set by Load
	// (see load.go) to queue the referenced file, which is loaded relative
	// to the including file's directory after this file has been parsed.
	onLoad func(path string, tok token.Token) error
}

func newParser(file string, toks []token.Token, m *mappings.Mappings) *parser {
	return &parser{file: file, toks: toks, m: m}
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) atEnd() bool       { return p.cur().Kind == token.EndOfStream }
func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errf(t token.Token, format string, args ...interface{}) error {
	return &Error{File: p.file, Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	t := p.cur()
	if t.Kind != k {
		return t, p.errf(t, "expected %s, got %s %q", k, t.Kind, t.Text)
	}
	return p.advance(), nil
}

// parseFile consumes the entire token stream, dispatching each top-level
// construct to its handler. .load directives are handled by load.go, which
// wraps parseFile with the transitive-include bookkeeping.
func (p *parser) parseFile() error {
	for !p.atEnd() {
		t := p.cur()
		switch t.Kind {
		case token.Decl:
			if err := p.parseModeDecl(); err != nil {
				return err
			}
		case token.Option:
			if err := p.parseDirective(); err != nil {
				return err
			}
		default:
			if err := p.parseHotkey(); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseModeDecl handles `:: name ['@'] [':' command]`.
func (p *parser) parseModeDecl() error {
	p.advance() // '::'
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	capture := false
	if p.cur().Kind == token.At {
		p.advance()
		capture = true
	}
	onEnter := ""
	if p.cur().Kind == token.Command {
		onEnter = p.advance().Text
	}
	if _, err := p.m.PutMode(nameTok.Text, capture, onEnter); err != nil {
		return p.errf(nameTok, "%s", err)
	}
	return nil
}

// parseModifierPrefix consumes an optional `mod ('+' mod)* '-'` prefix,
// returning the merged ModifierSet. It returns an empty set (and leaves the
// cursor untouched) when there is no modifier prefix at all, since a bare
// key with no modifiers is also valid (`key := ... key`).
func (p *parser) parseModifierPrefix() (keymodel.ModifierSet, error) {
	var set keymodel.ModifierSet
	if p.cur().Kind != token.ModifierWord {
		return set, nil
	}
	for {
		t, err := p.expect(token.ModifierWord)
		if err != nil {
			return 0, err
		}
		ms, ok := keymodel.ModifierForKeyword(t.Text)
		if !ok {
			return 0, p.errf(t, "unknown modifier: %s", t.Text)
		}
		set = set.Merge(ms)
		if p.cur().Kind == token.Plus {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.Dash); err != nil {
		return 0, err
	}
	return set, nil
}

// parseKey consumes a `key := literal | ident-single-letter | hex`
// production, returning the resolved KeyCode and any implicit modifier
// flags the literal carries (e.g. Fn for function keys, NX for media keys).
func (p *parser) parseKey() (keymodel.KeyCode, keymodel.ModifierSet, error) {
	t := p.cur()
	switch t.Kind {
	case token.LiteralKey:
		p.advance()
		code, flags, err := keymodel.KeycodeForLiteral(t.Text)
		if err != nil {
			return 0, 0, p.errf(t, "unknown literal key: %s", t.Text)
		}
		return code, flags, nil
	case token.KeyHex:
		p.advance()
		code, err := keymodel.KeycodeForHex(t.Text)
		if err != nil {
			return 0, 0, p.errf(t, "%s", err)
		}
		return code, 0, nil
	case token.Identifier:
		if code, ok := keymodel.KeycodeForSingleLetter(t.Text); ok {
			p.advance()
			return code, 0, nil
		}
		return 0, 0, p.errf(t, "unknown literal key: %s", t.Text)
	default:
		return 0, 0, p.errf(t, "expected a key, got %s %q", t.Kind, t.Text)
	}
}

// parseModePreamble consumes the optional `ident (',' ident)* '<'` prefix
// that names the modes a hotkey belongs to, resolving each to a ModeRef. An
// absent preamble means the hotkey belongs to the default mode only.
func (p *parser) parseModePreamble() ([]mappings.ModeRef, error) {
	if p.cur().Kind != token.Identifier {
		return []mappings.ModeRef{p.m.DefaultModeRef()}, nil
	}
	save := p.pos
	var names []token.Token
	for {
		t, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		names = append(names, t)
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().Kind != token.Insert {
		// Wasn't a mode preamble after all (e.g. `.define` body shouldn't land
		// here, but a stray identifier without '<' is simply a syntax error
		// at the hotkey level).
		p.pos = save
		return nil, p.errf(p.cur(), "expected '<' after mode preamble")
	}
	p.advance() // '<'
	refs := make([]mappings.ModeRef, 0, len(names))
	for _, n := range names {
		ref, ok := p.m.ModeByName(n.Text)
		if !ok {
			return nil, p.errf(n, "Mode '%s' not found. Did you forget to declare it with '::%s'?", n.Text, n.Text)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseHotkey handles `hotkey := [preamble] [mod-prefix] key ['->'] action`.
func (p *parser) parseHotkey() error {
	modeRefs, err := p.parseModePreambleOrDefault()
	if err != nil {
		return err
	}

	mods, err := p.parseModifierPrefix()
	if err != nil {
		return err
	}

	keyTok := p.cur()
	code, implicit, err := p.parseKey()
	if err != nil {
		return err
	}
	mods = mods.Merge(implicit)

	passthrough := false
	if p.cur().Kind == token.Arrow {
		p.advance()
		passthrough = true
	}

	hk := mappings.Hotkey{Modifiers: mods, Key: code, Passthrough: passthrough}
	if err := p.parseAction(&hk, keyTok); err != nil {
		return err
	}

	if _, err := p.m.AddHotkey(modeRefs, hk); err != nil {
		return p.errf(keyTok, "%s", err)
	}
	return nil
}

// parseModePreambleOrDefault distinguishes a genuine mode preamble
// (`ident, ident < ...`) from a bare hotkey with no preamble by checking
// whether an Identifier is actually followed (after any commas) by `<`.
func (p *parser) parseModePreambleOrDefault() ([]mappings.ModeRef, error) {
	if p.cur().Kind != token.Identifier {
		return []mappings.ModeRef{p.m.DefaultModeRef()}, nil
	}
	// Lookahead without consuming: scan forward past ident/comma pairs to see
	// if '<' follows. The grammar never uses a bare leading identifier for
	// anything else at hotkey-statement position.
	i := p.pos
	for {
		if p.toks[i].Kind != token.Identifier {
			return []mappings.ModeRef{p.m.DefaultModeRef()}, nil
		}
		i++
		if p.toks[i].Kind == token.Comma {
			i++
			continue
		}
		break
	}
	if p.toks[i].Kind != token.Insert {
		return []mappings.ModeRef{p.m.DefaultModeRef()}, nil
	}
	return p.parseModePreamble()
}

// parseAction handles the `action` production, mutating hk in place.
func (p *parser) parseAction(hk *mappings.Hotkey, ruleTok token.Token) error {
	switch p.cur().Kind {
	case token.Command:
		text, err := p.expandCommand(p.advance())
		if err != nil {
			return err
		}
		hk.SetWildcard(mappings.ProcessCommand{Kind: mappings.Shell, Text: text})
		return nil
	case token.Forward:
		p.advance()
		kp, err := p.parseKeypress()
		if err != nil {
			return err
		}
		hk.SetWildcard(mappings.ProcessCommand{Kind: mappings.Forward, ForwardTo: kp})
		return nil
	case token.Activate:
		pc, err := p.parseActivateTail()
		if err != nil {
			return err
		}
		hk.SetWildcard(pc)
		return nil
	case token.BeginList:
		return p.parseProcMapList(hk)
	default:
		return p.errf(p.cur(), "expected an action (':', '|', ';', or '['), got %s %q", p.cur().Kind, p.cur().Text)
	}
}

// parseKeypress handles `keypress := [mod-prefix] key`.
func (p *parser) parseKeypress() (keymodel.KeyPress, error) {
	mods, err := p.parseModifierPrefix()
	if err != nil {
		return keymodel.KeyPress{}, err
	}
	code, implicit, err := p.parseKey()
	if err != nil {
		return keymodel.KeyPress{}, err
	}
	return keymodel.KeyPress{Modifiers: mods.Merge(implicit), Key: code}, nil
}

// parseActivateTail handles `';' ident [':' command]`, consuming the
// leading `;` itself.
func (p *parser) parseActivateTail() (mappings.ProcessCommand, error) {
	p.advance() // ';'
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return mappings.ProcessCommand{}, err
	}
	onEnter := ""
	if p.cur().Kind == token.Command {
		onEnter = p.advance().Text
	}
	return mappings.ProcessCommand{Kind: mappings.ActivateMode, Text: nameTok.Text, OnEnterCmd: onEnter}, nil
}

// parseProcMapList handles `'[' procmap* ']'`.
func (p *parser) parseProcMapList(hk *mappings.Hotkey) error {
	open := p.advance() // '['
	count := 0
	for p.cur().Kind != token.EndList {
		if p.atEnd() {
			return p.errf(open, "unterminated process map list")
		}
		if err := p.parseProcMapEntry(hk); err != nil {
			return err
		}
		count++
	}
	p.advance() // ']'
	if count == 0 {
		return p.errf(open, "empty process map list")
	}
	return nil
}

// parseProcMapEntry handles one of the three procmap alternatives:
// a quoted process name, a `@group` reference, or the `*` wildcard.
func (p *parser) parseProcMapEntry(hk *mappings.Hotkey) error {
	switch p.cur().Kind {
	case token.String:
		nameTok := p.advance()
		pc, err := p.parseProcMapTail()
		if err != nil {
			return err
		}
		hk.PutProcess(toLower(nameTok.Text), pc)
		return nil
	case token.ProcessGroup:
		groupTok := p.advance()
		pc, err := p.parseProcMapTail()
		if err != nil {
			return err
		}
		members, ok := p.m.ProcessGroup(groupTok.Text)
		if !ok {
			return p.errf(groupTok, "unknown process group: @%s", groupTok.Text)
		}
		for _, mem := range members {
			hk.PutProcess(mem, pc)
		}
		return nil
	case token.Wildcard:
		p.advance()
		pc, err := p.parseProcMapTail()
		if err != nil {
			return err
		}
		hk.SetWildcard(pc)
		return nil
	default:
		return p.errf(p.cur(), "expected a process entry (string, '@group', or '*'), got %s %q", p.cur().Kind, p.cur().Text)
	}
}

// parseProcMapTail handles the shared `(':' command | '~' | '|' keypress |
// ';' ident [':' command])` tail of all three procmap alternatives.
func (p *parser) parseProcMapTail() (mappings.ProcessCommand, error) {
	switch p.cur().Kind {
	case token.Command:
		text, err := p.expandCommand(p.advance())
		if err != nil {
			return mappings.ProcessCommand{}, err
		}
		return mappings.ProcessCommand{Kind: mappings.Shell, Text: text}, nil
	case token.Unbound:
		p.advance()
		return mappings.ProcessCommand{Kind: mappings.Unbound}, nil
	case token.Forward:
		p.advance()
		kp, err := p.parseKeypress()
		if err != nil {
			return mappings.ProcessCommand{}, err
		}
		return mappings.ProcessCommand{Kind: mappings.Forward, ForwardTo: kp}, nil
	case token.Activate:
		return p.parseActivateTail()
	default:
		return mappings.ProcessCommand{}, p.errf(p.cur(), "expected ':', '~', '|', or ';' after process entry, got %s %q", p.cur().Kind, p.cur().Text)
	}
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

package parser

import (
	"github.com/gokhd/gokhd/internal/token"
)

// parseDirective handles the four `.xxx` forms. For `.load` it only reads
// the target path string and records it via the loader callback; load.go
// loads the file after the current one has been parsed.
func (p *parser) parseDirective() error {
	optTok := p.advance()
	switch optTok.Text {
	case "shell":
		return p.parseShellDirective()
	case "blacklist":
		return p.parseBlacklistDirective()
	case "load":
		return p.parseLoadDirective()
	case "define":
		return p.parseDefineDirective()
	default:
		return p.errf(optTok, "unknown directive: .%s", optTok.Text)
	}
}

func (p *parser) parseShellDirective() error {
	t, err := p.expect(token.String)
	if err != nil {
		return err
	}
	p.m.SetShell(t.Text)
	return nil
}

// parseBlacklistDirective handles `.blacklist '[' string* ']'`.
func (p *parser) parseBlacklistDirective() error {
	open, err := p.expect(token.BeginList)
	if err != nil {
		return err
	}
	var names []string
	for p.cur().Kind != token.EndList {
		if p.atEnd() {
			return p.errf(open, "unterminated blacklist")
		}
		t, err := p.expect(token.String)
		if err != nil {
			return err
		}
		names = append(names, t.Text)
	}
	p.advance() // ']'
	p.m.AddBlacklist(names)
	return nil
}

// parseLoadDirective reads the `.load "path"` string and hands it to
// p.onLoad; the loader in load.go resolves the path relative to the
// including file and loads it once the including file has been parsed.
func (p *parser) parseLoadDirective() error {
	t, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if p.onLoad == nil {
		return nil
	}
	return p.onLoad(t.Text, t)
}

// parseDefineDirective handles both `.define ident '[' string (',' string)*
// ']'` (process group) and `.define ident ':' command_template`.
func (p *parser) parseDefineDirective() error {
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	switch p.cur().Kind {
	case token.BeginList:
		open := p.advance()
		var members []string
		for p.cur().Kind != token.EndList {
			if p.atEnd() {
				return p.errf(open, "unterminated .define list")
			}
			t, err := p.expect(token.String)
			if err != nil {
				return err
			}
			members = append(members, t.Text)
			if p.cur().Kind == token.Comma {
				p.advance()
			}
		}
		p.advance() // ']'
		if err := p.m.AddProcessGroup(nameTok.Text, members); err != nil {
			return p.errf(nameTok, "%s", err)
		}
		return nil
	case token.Command:
		t := p.advance()
		if err := p.m.AddCommandTemplate(nameTok.Text, t.Text); err != nil {
			return p.errf(nameTok, "%s", err)
		}
		return nil
	default:
		return p.errf(p.cur(), "expected '[' or ':' after .define %s, got %s %q", nameTok.Text, p.cur().Kind, p.cur().Text)
	}
}

package parser

import (
	"github.com/gokhd/gokhd/internal/token"
)

// expandCommand implements §4.3's template-invocation rule: when a command
// token's text begins with `@ident`, the parser optionally consumes a
// parenthesized, comma-separated, double-quoted argument list and expands
// the named template. A reference to an undefined template is left
// unexpanded rather than erroring, since `@` is otherwise just a literal
// shell character in the legacy grammar this preserves.
func (p *parser) expandCommand(cmdTok token.Token) (string, error) {
	name, rest, ok := splitTemplateName(cmdTok.Text)
	if !ok {
		return cmdTok.Text, nil
	}

	tpl, ok := p.m.CommandTemplate(name)
	if !ok {
		return cmdTok.Text, nil
	}

	args, consumed, err := parseTemplateArgs(rest)
	if err != nil {
		return "", p.errf(cmdTok, "%s", err)
	}

	expanded, err := tpl.Expand(args)
	if err != nil {
		return "", p.errf(cmdTok, "%s", err)
	}
	// Anything after the closing ')' (there shouldn't normally be any) is
	// appended verbatim.
	return expanded + rest[consumed:], nil
}

// splitTemplateName reports whether text begins with `@ident` and, if so,
// returns the identifier name and the remainder of text starting at the
// first character after the identifier.
func splitTemplateName(text string) (name string, rest string, ok bool) {
	if len(text) == 0 || text[0] != '@' {
		return "", "", false
	}
	i := 1
	for i < len(text) && isIdentPart(text[i]) {
		i++
	}
	if i == 1 {
		return "", "", false
	}
	return text[1:i], text[i:], true
}

func isIdentPart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseTemplateArgs parses an optional `( "arg1" [, "arg2"]* )` argument
// list from the head of rest. If rest doesn't start with '(' (after
// skipping leading spaces), it returns zero args and consumed=0 — a bare
// `@name` with no argument list is valid when the template takes no
// placeholders.
func parseTemplateArgs(rest string) (args []string, consumed int, err error) {
	i := 0
	for i < len(rest) && rest[i] == ' ' {
		i++
	}
	if i >= len(rest) || rest[i] != '(' {
		return nil, 0, nil
	}
	i++
	for {
		for i < len(rest) && rest[i] == ' ' {
			i++
		}
		if i >= len(rest) {
			return nil, 0, errUnterminatedArgs
		}
		if rest[i] == ')' {
			i++
			break
		}
		if len(args) > 0 {
			if rest[i] != ',' {
				return nil, 0, errUnterminatedArgs
			}
			i++
			for i < len(rest) && rest[i] == ' ' {
				i++
			}
		}
		if i >= len(rest) || rest[i] != '"' {
			return nil, 0, errUnquotedArg
		}
		i++
		start := i
		for i < len(rest) && rest[i] != '"' {
			i++
		}
		if i >= len(rest) {
			return nil, 0, errUnterminatedArgs
		}
		args = append(args, rest[start:i])
		i++
	}
	return args, i, nil
}

var (
	errUnterminatedArgs = templateArgError("unterminated template argument list")
	errUnquotedArg      = templateArgError("unquoted template argument")
)

type templateArgError string

func (e templateArgError) Error() string { return string(e) }

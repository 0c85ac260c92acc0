package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gokhd/gokhd/internal/mappings"
	"github.com/gokhd/gokhd/internal/token"
)

// FileReader abstracts reading a mapping file's contents, so Load can be
// exercised against an in-memory filesystem in tests without touching disk
// (§6's `FileReader.read_to_string`).
type FileReader interface {
	ReadToString(absPath string) (string, error)
}

// osFileReader is the default FileReader, backed by the real filesystem.
type osFileReader struct{}

func (osFileReader) ReadToString(absPath string) (string, error) {
	b, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// OSFileReader is the FileReader Load uses when none is supplied.
var OSFileReader FileReader = osFileReader{}

// loader threads the shared Mappings and the set of already-loaded absolute
// paths through the recursive `.load` resolution.
type loader struct {
	reader  FileReader
	m       *mappings.Mappings
	visited map[string]bool
}

// Load parses rootPath (and everything it transitively `.load`s) into a
// fresh Mappings. Parsing is atomic: the first error anywhere aborts the
// whole load and returns it; the caller should keep using its previous
// Mappings rather than adopt a partial one. On success, Mappings.Validate
// is run before returning so a missing activate-mode target is still
// caught even when it names a mode declared in a file `.load`ed after the
// reference.
func Load(rootPath string, reader FileReader) (*mappings.Mappings, error) {
	if reader == nil {
		reader = OSFileReader
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rootPath, err)
	}

	m := mappings.New()
	ld := &loader{reader: reader, m: m, visited: make(map[string]bool)}
	if err := ld.loadFile(abs); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// loadFile parses a single file into the shared Mappings, then loads each
// of its `.load` targets via loadFile once the whole file has been parsed.
// Already-visited absolute
// paths are skipped silently: a mapping file may be `.load`ed from more
// than one place, but each file contributes to the Mappings at most once.
func (ld *loader) loadFile(absPath string) error {
	if ld.visited[absPath] {
		return nil
	}
	ld.visited[absPath] = true
	ld.m.AppendLoadedFile(absPath)

	src, err := ld.reader.ReadToString(absPath)
	if err != nil {
		return fmt.Errorf("%s: %w", absPath, err)
	}

	toks, lexErr := token.All(src)
	if lexErr != nil {
		le := lexErr.(*token.Error)
		return &Error{File: absPath, Line: le.Line, Col: le.Col, Msg: le.Msg}
	}

	p := newParser(absPath, toks, ld.m)
	dir := filepath.Dir(absPath)
	var pending []token.Token
	p.onLoad = func(path string, tok token.Token) error {
		pending = append(pending, tok)
		return nil
	}
	if err := p.parseFile(); err != nil {
		return err
	}
	// Second pass: the file's `.load` directives, in source order.
	for _, tok := range pending {
		target := tok.Text
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		if err := ld.loadFile(target); err != nil {
			if _, ok := err.(*Error); ok {
				return err
			}
			return &Error{File: absPath, Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
	}
	return nil
}

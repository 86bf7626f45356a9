// Package lexer tokenizes brianiac assembly source text.
package lexer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brijohn/brianiac/pkg/inst"
	"github.com/brijohn/brianiac/pkg/token"
)

// directives are keywords the instruction catalog doesn't carry (it only
// knows opcodes), but which are still reserved and take precedence over the
// identifier rule.
var directives = map[string]bool{
	"defb": true,
	"defn": true,
	"equ":  true,
}

var commentRE = regexp.MustCompile(`;.*`)

var (
	registerRE = regexp.MustCompile(`^r(1[0-5]|[0-9])\b`)
	indirectRE = regexp.MustCompile(`^@r(1[0-5]|[0-9])\b`)
	binaryRE   = regexp.MustCompile(`^0b[01]+`)
	octalRE    = regexp.MustCompile(`^0o[0-7]+`)
	hexRE      = regexp.MustCompile(`^0x[a-fA-F0-9]+`)
	decimalRE  = regexp.MustCompile(`^[0-9]+`)
	identRE    = regexp.MustCompile(`^[a-z][a-z0-9]*`)
)

// Error is a fatal lex error: an unrecognizable lexeme at a known position.
type Error struct {
	Line, Col int
	Lexeme    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: unrecognized lexeme %q", e.Line, e.Col, e.Lexeme)
}

// Lexer tokenizes one source buffer. Strip single-line comments before
// construction is handled internally, matching the assembler's historical
// pre-pass of stripping `;...` while preserving the trailing newline.
type Lexer struct {
	src        string
	pos        int
	line, col  int
}

// New strips comments and prepares a Lexer over src.
func New(src string) *Lexer {
	stripped := commentRE.ReplaceAllString(src, "")
	return &Lexer{src: stripped, line: 1, col: 1}
}

// Tokens lexes the entire buffer, returning all tokens (terminated by a
// single EOF) or the first lex error encountered.
func (l *Lexer) Tokens() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Next scans and returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipSpaces()

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Line: l.line, Col: l.col}, nil
	}

	startLine, startCol := l.line, l.col
	rest := l.src[l.pos:]

	switch {
	case rest[0] == '\n':
		l.advance(1)
		return token.Token{Kind: token.NEWLINE, Lexeme: "\n", Line: startLine, Col: startCol}, nil
	case rest[0] == ',':
		l.advance(1)
		return token.Token{Kind: token.COMMA, Lexeme: ",", Line: startLine, Col: startCol}, nil
	case rest[0] == ':':
		l.advance(1)
		return token.Token{Kind: token.COLON, Lexeme: ":", Line: startLine, Col: startCol}, nil
	}

	if m := indirectRE.FindString(rest); m != "" {
		l.advance(len(m))
		return token.Token{Kind: token.INDIRECT, Lexeme: m, Line: startLine, Col: startCol}, nil
	}
	if m := registerRE.FindString(rest); m != "" {
		l.advance(len(m))
		return token.Token{Kind: token.REGISTER, Lexeme: m, Line: startLine, Col: startCol}, nil
	}
	if m := binaryRE.FindString(rest); m != "" {
		return l.numberToken(m, token.Binary, startLine, startCol)
	}
	if m := octalRE.FindString(rest); m != "" {
		return l.numberToken(m, token.Octal, startLine, startCol)
	}
	if m := hexRE.FindString(rest); m != "" {
		return l.numberToken(m, token.Hex, startLine, startCol)
	}
	if m := decimalRE.FindString(rest); m != "" {
		return l.numberToken(m, token.Decimal, startLine, startCol)
	}
	if m := identRE.FindString(rest); m != "" {
		l.advance(len(m))
		if _, ok := inst.Lookup(m); ok {
			return token.Token{Kind: token.MNEMONIC, Lexeme: m, Line: startLine, Col: startCol}, nil
		}
		if directives[m] {
			return token.Token{Kind: token.MNEMONIC, Lexeme: m, Line: startLine, Col: startCol}, nil
		}
		return token.Token{Kind: token.IDENT, Lexeme: m, Line: startLine, Col: startCol}, nil
	}

	// Nothing matched: report the offending rune.
	lexeme := string([]rune(rest)[:1])
	return token.Token{}, &Error{Line: startLine, Col: startCol, Lexeme: lexeme}
}

func (l *Lexer) numberToken(m string, base token.Base, line, col int) (token.Token, error) {
	l.advance(len(m))
	var value uint64
	var err error
	switch base {
	case token.Binary:
		value, err = strconv.ParseUint(m[2:], 2, 32)
	case token.Octal:
		value, err = strconv.ParseUint(m[2:], 8, 32)
	case token.Hex:
		value, err = strconv.ParseUint(m[2:], 16, 32)
	default:
		value, err = strconv.ParseUint(m, 10, 32)
	}
	if err != nil {
		return token.Token{}, &Error{Line: line, Col: col, Lexeme: m}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: m, Line: line, Col: col, Base: base, Value: uint32(value)}, nil
}

func (l *Lexer) skipSpaces() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance(1)
			continue
		}
		break
	}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.pos >= len(l.src) {
			return
		}
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// TrimIndent is a small helper the assembler CLI uses to pretty-print a
// failing line for diagnostics.
func TrimIndent(line string) string {
	return strings.TrimRight(line, " \t")
}

// Package parser builds an ast.Program from a token stream via hand-written
// recursive descent. The grammar is LL(1) modulo the operand alternatives on
// each instruction, which are resolved by the mnemonic's recorded
// inst.OperandClass (one token of lookahead is enough once the class is
// known).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brijohn/brianiac/pkg/ast"
	"github.com/brijohn/brianiac/pkg/inst"
	"github.com/brijohn/brianiac/pkg/token"
)

// Error is a fatal parse error: an unexpected token.
type Error struct {
	Token token.Token
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s, got %s", e.Token.Line, e.Token.Col, e.Msg, e.Token)
}

type parser struct {
	toks []token.Token
	pos  int
}

// Parse consumes the full token stream and returns the assembled Program, or
// the first fatal parse/range/symbol/alignment error encountered.
func Parse(toks []token.Token) (*ast.Program, error) {
	p := &parser{toks: toks}
	prog := ast.NewProgram()
	for !p.atEOF() {
		if err := p.statement(prog); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (p *parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) atEOF() bool {
	return p.peek().Kind == token.EOF
}

func (p *parser) expect(kind token.Kind, msg string) (token.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, &Error{Token: tok, Msg: msg}
	}
	return p.advance(), nil
}

func (p *parser) expectEOL() error {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return nil
	}
	if tok.Kind != token.NEWLINE {
		return &Error{Token: tok, Msg: "expected end of line"}
	}
	p.advance()
	return nil
}

// statement := instruction EOL | label EOL | equ EOL | EOL
func (p *parser) statement(prog *ast.Program) error {
	tok := p.peek()

	switch tok.Kind {
	case token.NEWLINE:
		p.advance()
		return nil

	case token.IDENT:
		next := p.peekAt(1)
		switch {
		case next.Kind == token.COLON:
			p.advance()
			p.advance()
			if err := prog.DefineLabel(tok.Lexeme); err != nil {
				return err
			}
			return p.expectEOL()
		case next.Kind == token.MNEMONIC && next.Lexeme == "equ":
			p.advance()
			p.advance()
			value, err := p.word()
			if err != nil {
				return err
			}
			if err := prog.DefineEqu(tok.Lexeme, value); err != nil {
				return err
			}
			return p.expectEOL()
		default:
			return &Error{Token: next, Msg: "expected ':' or 'equ' after identifier"}
		}

	case token.MNEMONIC:
		instr, err := p.instruction()
		if err != nil {
			return err
		}
		if err := prog.AppendInstruction(instr); err != nil {
			return err
		}
		return p.expectEOL()

	default:
		return &Error{Token: tok, Msg: "expected a label, equ, or instruction"}
	}
}

// instruction dispatches on the mnemonic's operand class.
func (p *parser) instruction() (ast.Instruction, error) {
	tok := p.advance()

	switch tok.Lexeme {
	case "defb":
		return p.defb()
	case "defn":
		return p.defn()
	}

	info, ok := inst.Lookup(tok.Lexeme)
	if !ok {
		return nil, &Error{Token: tok, Msg: fmt.Sprintf("unknown mnemonic %q", tok.Lexeme)}
	}

	switch info.Class {
	case inst.ClassALUBinary, inst.ClassMov:
		dst, err := p.register()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA, "expected ','"); err != nil {
			return nil, err
		}
		src, err := p.regWordOrIdent()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Dst: dst, Src: src}, nil

	case inst.ClassUnary:
		dst, err := p.register()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Dst: dst}, nil

	case inst.ClassLoad:
		dst, err := p.register()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA, "expected ','"); err != nil {
			return nil, err
		}
		src, err := p.wordIdentOrIndirect()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Dst: dst, Src: src}, nil

	case inst.ClassStore:
		target, err := p.wordIdentOrIndirect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA, "expected ','"); err != nil {
			return nil, err
		}
		src, err := p.register()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Dst: target, Src: src}, nil

	case inst.ClassBranch:
		target, err := p.wordIdentOrIndirect()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Src: target}, nil

	case inst.ClassCall:
		target, err := p.wordIdentOrIndirect()
		if err != nil {
			return nil, err
		}
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Dst: ast.Register{Index: 15}, Src: target}, nil

	case inst.ClassRet:
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op, Src: ast.Register{Index: 15}}, nil

	case inst.ClassNop:
		return &ast.OpCode{Mnemonic: tok.Lexeme, Op: info.Op}, nil

	default:
		return nil, &Error{Token: tok, Msg: "unhandled operand class"}
	}
}

func (p *parser) defb() (ast.Instruction, error) {
	var values []uint8
	v, err := p.byteLiteral()
	if err != nil {
		return nil, err
	}
	values = append(values, v)
	for p.peek().Kind == token.COMMA {
		p.advance()
		v, err := p.byteLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &ast.DataBytes{Values: values}, nil
}

func (p *parser) defn() (ast.Instruction, error) {
	v, err := p.byteLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA, "expected ','"); err != nil {
		return nil, err
	}
	count, err := p.word()
	if err != nil {
		return nil, err
	}
	return &ast.DataFill{Value: v, Count: count}, nil
}

// register parses a bare REGISTER token into ast.Register.
func (p *parser) register() (ast.Register, error) {
	tok, err := p.expect(token.REGISTER, "expected a register")
	if err != nil {
		return ast.Register{}, err
	}
	idx, err := registerIndex(tok.Lexeme, "r")
	if err != nil {
		return ast.Register{}, &Error{Token: tok, Msg: err.Error()}
	}
	return ast.Register{Index: idx}, nil
}

// regWordOrIdent parses the (reg|word|ident) alternative used by ALU and
// MOV-class instructions.
func (p *parser) regWordOrIdent() (ast.Operand, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.REGISTER:
		return p.register()
	case token.NUMBER:
		return p.wordOperand()
	case token.IDENT:
		p.advance()
		return ast.Ident{Name: tok.Lexeme}, nil
	default:
		return nil, &Error{Token: tok, Msg: "expected a register, number, or identifier"}
	}
}

// wordIdentOrIndirect parses the (word|ident|indirect) alternative used by
// load/store/branch/call-class instructions.
func (p *parser) wordIdentOrIndirect() (ast.Operand, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.NUMBER:
		return p.wordOperand()
	case token.IDENT:
		p.advance()
		return ast.Ident{Name: tok.Lexeme}, nil
	case token.INDIRECT:
		p.advance()
		idx, err := registerIndex(tok.Lexeme, "@r")
		if err != nil {
			return nil, &Error{Token: tok, Msg: err.Error()}
		}
		return ast.Indirect{Index: idx}, nil
	default:
		return nil, &Error{Token: tok, Msg: "expected a number, identifier, or indirect register"}
	}
}

// wordOperand consumes a NUMBER token and validates it as a word-width
// literal operand.
func (p *parser) wordOperand() (ast.Operand, error) {
	tok, err := p.expect(token.NUMBER, "expected a number")
	if err != nil {
		return nil, err
	}
	value, rerr := ast.NewWord(tok.Value)
	if rerr != nil {
		return nil, rerr
	}
	return ast.Word{Value: value}, nil
}

// word parses a bare word literal (used by `equ` and `defn`'s count).
func (p *parser) word() (uint16, error) {
	tok, err := p.expect(token.NUMBER, "expected a number")
	if err != nil {
		return 0, err
	}
	return ast.NewWord(tok.Value)
}

// byteLiteral parses a NUMBER token validated against the byte range (used
// by `defb` and `defn`'s fill value).
func (p *parser) byteLiteral() (uint8, error) {
	tok, err := p.expect(token.NUMBER, "expected a number")
	if err != nil {
		return 0, err
	}
	return ast.NewByte(tok.Value)
}

// registerIndex strips prefix ("r" or "@r") from a register lexeme and
// parses the remaining digits.
func registerIndex(lexeme, prefix string) (uint8, error) {
	digits := strings.TrimPrefix(lexeme, prefix)
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || n > 15 {
		return 0, fmt.Errorf("invalid register %q", lexeme)
	}
	return uint8(n), nil
}

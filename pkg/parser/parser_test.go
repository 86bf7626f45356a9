package parser

import (
	"bytes"
	"testing"

	"github.com/brijohn/brianiac/pkg/ast"
	"github.com/brijohn/brianiac/pkg/lexer"
)

func assemble(t *testing.T, src string) []byte {
	t.Helper()
	toks, err := lexer.New(src).Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	code, _, err := prog.Emit()
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	return code
}

// TestAddRegisters verifies a register/register ALU instruction emits a
// single two-byte word.
func TestAddRegisters(t *testing.T) {
	code := assemble(t, "add r1, r2\n")
	want := []byte{0x20, 0x12}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
}

// TestLoadWordImmediate verifies an immediate operand appends its two-byte
// value after the opcode word.
func TestLoadWordImmediate(t *testing.T) {
	code := assemble(t, "ldw r3, 0x1234\n")
	want := []byte{0x61, 0x30, 0x12, 0x34}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
}

// TestForwardLabelReference verifies a branch to a label defined later in
// the source resolves correctly once the whole program has been scanned.
func TestForwardLabelReference(t *testing.T) {
	src := "bra end\ndefb 0x00\nend:\n"
	toks, err := lexer.New(src).Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	code, _, err := prog.Emit()
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	want := []byte{0x41, 0x00, 0x00, 0x05, 0x00}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
	addr, ok := prog.Symbols.Lookup("end")
	if !ok || addr != 0x0005 {
		t.Errorf("labels[end] = %v, %v, want 0x0005, true", addr, ok)
	}
}

// TestEquThenUse verifies an equ binding resolves the same way a label does
// when referenced by a later instruction.
func TestEquThenUse(t *testing.T) {
	code := assemble(t, "foo equ 0x00AA\nmov r0, foo\n")
	want := []byte{0x63, 0x00, 0x00, 0xAA}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
}

func TestDuplicateSymbolIsFatal(t *testing.T) {
	toks, err := lexer.New("a:\na:\n").Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	_, err = Parse(toks)
	if err == nil {
		t.Fatal("expected a duplicate symbol error")
	}
	if _, ok := err.(*ast.SymbolError); !ok {
		t.Errorf("error type = %T, want *ast.SymbolError", err)
	}
}

func TestUndefinedSymbolIsFatal(t *testing.T) {
	toks, err := lexer.New("bra nowhere\n").Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, _, err = prog.Emit()
	if err == nil {
		t.Fatal("expected an undefined symbol error")
	}
	if _, ok := err.(*ast.SymbolError); !ok {
		t.Errorf("error type = %T, want *ast.SymbolError", err)
	}
}

func TestOutOfRangeLiteralIsFatal(t *testing.T) {
	toks, err := lexer.New("defb 0x100\n").Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	_, err = Parse(toks)
	if err == nil {
		t.Fatal("expected a range error")
	}
	if _, ok := err.(*ast.RangeError); !ok {
		t.Errorf("error type = %T, want *ast.RangeError", err)
	}
}

func TestMisalignedOpCodeIsFatal(t *testing.T) {
	toks, err := lexer.New("defb 0x00\nret\n").Tokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	_, err = Parse(toks)
	if err == nil {
		t.Fatal("expected an alignment error")
	}
	if _, ok := err.(*ast.AlignmentError); !ok {
		t.Errorf("error type = %T, want *ast.AlignmentError", err)
	}
}

func TestCallAndRetEncoding(t *testing.T) {
	// call subr / mov r0,1 / subr: ret ("sub" itself is a reserved mnemonic)
	src := "call subr\nmov r0, 1\nsubr:\nret\n"
	code := assemble(t, src)
	want := []byte{
		0x5D, 0xF0, 0x00, 0x08, // call subr -> target 0x0008
		0x63, 0x00, 0x00, 0x01, // mov r0, 1
		0x5E, 0x0F, // ret
	}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
}

func TestDefnFillsExactCount(t *testing.T) {
	code := assemble(t, "defn 0xAB, 4\n")
	want := []byte{0xAB, 0xAB, 0xAB, 0xAB}
	if !bytes.Equal(code, want) {
		t.Errorf("got % X, want % X", code, want)
	}
}

package lexer

import (
	"testing"

	"github.com/brijohn/brianiac/pkg/token"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := New(src).Tokens()
	if err != nil {
		t.Fatalf("Tokens(%q) error: %v", src, err)
	}
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestCommentStripped(t *testing.T) {
	toks, err := New("add r1, r2 ; add them up\n").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var lexemes []string
	for _, tok := range toks {
		lexemes = append(lexemes, tok.Lexeme)
	}
	want := []string{"add", "r1", ",", "r2", "\n", ""}
	if len(lexemes) != len(want) {
		t.Fatalf("got %v, want %v", lexemes, want)
	}
	for i := range want {
		if lexemes[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, lexemes[i], want[i])
		}
	}
}

func TestRegisterAndIndirect(t *testing.T) {
	toks, err := New("r0 r15 @r3 @r15\n").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKinds := []token.Kind{token.REGISTER, token.REGISTER, token.INDIRECT, token.INDIRECT, token.NEWLINE, token.EOF}
	for i, tok := range toks {
		if tok.Kind != wantKinds[i] {
			t.Errorf("token %d kind = %v, want %v", i, tok.Kind, wantKinds[i])
		}
	}
}

func TestNumberBases(t *testing.T) {
	toks, err := New("0b101 0o17 0xFF 42\n").Tokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantValues := []uint32{5, 15, 255, 42}
	wantBases := []token.Base{token.Binary, token.Octal, token.Hex, token.Decimal}
	for i := range wantValues {
		if toks[i].Value != wantValues[i] {
			t.Errorf("token %d value = %d, want %d", i, toks[i].Value, wantValues[i])
		}
		if toks[i].Base != wantBases[i] {
			t.Errorf("token %d base = %v, want %v", i, toks[i].Base, wantBases[i])
		}
	}
}

func TestMnemonicVsIdent(t *testing.T) {
	ks := kinds(t, "add foo equ defb defn end\n")
	want := []token.Kind{
		token.MNEMONIC, // add
		token.IDENT,    // foo
		token.MNEMONIC, // equ
		token.MNEMONIC, // defb
		token.MNEMONIC, // defn
		token.IDENT,    // end
		token.NEWLINE,
		token.EOF,
	}
	if len(ks) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(ks), ks, len(want))
	}
	for i := range want {
		if ks[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, ks[i], want[i])
		}
	}
}

func TestLabelColon(t *testing.T) {
	ks := kinds(t, "loop:\n")
	want := []token.Kind{token.IDENT, token.COLON, token.NEWLINE, token.EOF}
	for i := range want {
		if ks[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, ks[i], want[i])
		}
	}
}

func TestUnrecognizedLexeme(t *testing.T) {
	_, err := New("add r1, $2\n").Tokens()
	if err == nil {
		t.Fatal("expected a lex error")
	}
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *lexer.Error", err)
	}
	if lexErr.Lexeme != "$" {
		t.Errorf("Lexeme = %q, want %q", lexErr.Lexeme, "$")
	}
}

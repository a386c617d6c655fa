package lexer

import (
	"testing"

	"exc/internal/diag"
)

func scanAll(t *testing.T, src string) ([]Token, *diag.Set) {
	t.Helper()
	diags := diag.NewSet()
	l := New(src, diags)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks, diags
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks, diags := scanAll(t, `( ) , : ; = == != < <= > >= + - * / % & && | || ! ^ shl shrs shrz`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	want := []Kind{
		ParensL, ParensR, Comma, Colon, Semicolon, Assign, OpEQ, OpNE,
		OpLT, OpLE, OpGT, OpGE, OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpBitAnd, OpAnd, OpBitOr, OpOr, OpNot, OpBitXor, OpShl, OpShrs, OpShrz, EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	toks, _ := scanAll(t, `var const expr true false foo_bar2`)
	want := []Kind{KwVar, KwConst, KwExpr, LitBool, LitBool, Ident, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	toks, _ := scanAll(t, `42 3.14 1e10 2.5e-3`)
	want := []Kind{LitInt, LitFloat, LitFloat, LitFloat, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[0].Text != "42" {
		t.Errorf("int text = %q", toks[0].Text)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks, diags := scanAll(t, `"hello\nworld\t\"quoted\""`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if toks[0].Kind != LitString {
		t.Fatalf("kind = %v, want LitString", toks[0].Kind)
	}
	want := "hello\nworld\t\"quoted\""
	if toks[0].Str != want {
		t.Errorf("decoded = %q, want %q", toks[0].Str, want)
	}
}

func TestLexerUnterminatedStringIsFatal(t *testing.T) {
	_, diags := scanAll(t, `"no closing quote`)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for unterminated string")
	}
	first, ok := diags.First()
	if !ok || !first.Fatal {
		t.Fatalf("expected a fatal diagnostic, got %+v", first)
	}
}

func TestLexerLineComments(t *testing.T) {
	toks, diags := scanAll(t, "1 // a comment\n2")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	want := []Kind{LitInt, LitInt, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerBlockComments(t *testing.T) {
	toks, diags := scanAll(t, "1 /* block\n comment */ 2")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	want := []Kind{LitInt, LitInt, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
}

func TestLexerUnterminatedBlockCommentIsFatal(t *testing.T) {
	_, diags := scanAll(t, "1 /* never closed")
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for unterminated comment")
	}
}

func TestLexerInvalidCharacter(t *testing.T) {
	toks, _ := scanAll(t, `@`)
	if toks[0].Kind != Invalid {
		t.Fatalf("kind = %v, want Invalid", toks[0].Kind)
	}
}

func TestLexerSpanTracking(t *testing.T) {
	toks, _ := scanAll(t, "ab\ncd")
	if toks[0].Span.Begin.Line != 1 || toks[0].Span.Begin.Col != 1 {
		t.Errorf("first token begin = %v", toks[0].Span.Begin)
	}
	if toks[1].Span.Begin.Line != 2 {
		t.Errorf("second token line = %d, want 2", toks[1].Span.Begin.Line)
	}
}

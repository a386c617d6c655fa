package parser

import (
	"testing"

	"exc/internal/ast"
	"exc/internal/diag"
	"exc/internal/lexer"
	"exc/internal/symtab"
	"exc/internal/types"
)

func newFixture(t *testing.T) (*types.Table, *symtab.Table) {
	t.Helper()
	tt := types.NewTable()
	for _, name := range []string{"Bool", "Integer", "Float", "String"} {
		id, err := tt.Register(types.Type{Name: name, Kind: types.Value, Size: 8, Align: 8})
		if err != nil {
			t.Fatalf("registering %s: %v", name, err)
		}
		_ = id
	}
	st := symtab.New()
	for _, name := range []string{"Bool", "Integer", "Float", "String"} {
		st.SeedType(name, tt.Get(name))
	}
	st.SeedFunction("if", tt.Unresolved())
	st.SeedFunction("add", tt.Unresolved())
	return tt, st
}

func parse(t *testing.T, src string) (*ast.Root, *diag.Set) {
	t.Helper()
	tt, st := newFixture(t)
	diags := diag.NewSet()
	l := lexer.New(src, diags)
	p := New(l, st, tt, diags)
	return p.Parse(), diags
}

func TestParseVarConstExprDecls(t *testing.T) {
	root, diags := parse(t, `
		var x: Integer;
		const y: Integer = 1 + 2;
		expr z: Integer = x + y;
	`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if len(root.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(root.Decls))
	}
	if _, ok := root.Decls[0].(*ast.VarDecl); !ok {
		t.Errorf("decl 0 is %T, want *ast.VarDecl", root.Decls[0])
	}
	if _, ok := root.Decls[1].(*ast.ConstDecl); !ok {
		t.Errorf("decl 1 is %T, want *ast.ConstDecl", root.Decls[1])
	}
	if _, ok := root.Decls[2].(*ast.ExprDecl); !ok {
		t.Errorf("decl 2 is %T, want *ast.ExprDecl", root.Decls[2])
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	root, diags := parse(t, `const r: Integer = 1 + 2 * 3;`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	cd := root.Decls[0].(*ast.ConstDecl)
	bin, ok := cd.Init.(*ast.Binary)
	if !ok {
		t.Fatalf("init is %T, want *ast.Binary", cd.Init)
	}
	if bin.Op != ast.OpAdd {
		t.Fatalf("top operator = %v, want OpAdd (lower precedence binds last)", bin.Op)
	}
	rhs, ok := bin.Rhs.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("rhs = %#v, want a Mul node", bin.Rhs)
	}
}

func TestParseUnaryMinusOnIntLiteralIsAbsorbed(t *testing.T) {
	root, diags := parse(t, `const r: Integer = -42;`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	cd := root.Decls[0].(*ast.ConstDecl)
	lit, ok := cd.Init.(*ast.Literal)
	if !ok {
		t.Fatalf("init is %T, want *ast.Literal (negative sign absorbed)", cd.Init)
	}
	if lit.Int != -42 {
		t.Errorf("int = %d, want -42", lit.Int)
	}
}

func TestParseIfCallProducesIfNode(t *testing.T) {
	root, diags := parse(t, `const r: Integer = if(true, 1, 2);`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	cd := root.Decls[0].(*ast.ConstDecl)
	if _, ok := cd.Init.(*ast.If); !ok {
		t.Fatalf("init is %T, want *ast.If", cd.Init)
	}
}

func TestParseCallProducesCallNode(t *testing.T) {
	root, diags := parse(t, `const r: Integer = add(1, 2);`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	cd := root.Decls[0].(*ast.ConstDecl)
	call, ok := cd.Init.(*ast.Call)
	if !ok {
		t.Fatalf("init is %T, want *ast.Call", cd.Init)
	}
	if len(call.Args) != 2 {
		t.Errorf("got %d args, want 2", len(call.Args))
	}
}

func TestParseUndefinedNameIsNameError(t *testing.T) {
	_, diags := parse(t, `const r: Integer = unknown_var;`)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for undefined name")
	}
	first, _ := diags.First()
	if first.Kind != diag.Name {
		t.Errorf("kind = %v, want diag.Name", first.Kind)
	}
}

func TestParseRedefinitionIsNameErrorWithNote(t *testing.T) {
	_, diags := parse(t, `
		var x: Integer;
		var x: Integer;
	`)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for redefinition")
	}
	first, _ := diags.First()
	if first.Kind != diag.Name || len(first.Notes) == 0 {
		t.Errorf("got %+v, want a Name diagnostic with a note", first)
	}
}

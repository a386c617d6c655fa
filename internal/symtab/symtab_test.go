package symtab

import (
	"testing"

	"exc/internal/source"
	"exc/internal/types"
)

func TestDefineAndLookup(t *testing.T) {
	tt := types.NewTable()
	intT, err := tt.Register(types.Type{Name: "Integer", Kind: types.Value, Size: 8, Align: 8})
	if err != nil {
		t.Fatal(err)
	}
	st := New()

	span := source.Span{Begin: source.Position{Line: 1, Col: 6}, End: source.Position{Line: 1, Col: 6}}
	sym, prior := st.Define("a", Variable, intT, span)
	if prior != nil {
		t.Fatalf("unexpected prior symbol %+v", prior)
	}
	if sym == nil || sym.Type != intT || sym.Span != span {
		t.Fatalf("defined symbol = %+v", sym)
	}
	if st.Lookup("a") != sym {
		t.Error("Lookup did not return the defined symbol")
	}
	if st.Lookup("b") != nil {
		t.Error("Lookup on an unbound name should return nil")
	}
}

func TestDefineReportsPriorOnDuplicate(t *testing.T) {
	tt := types.NewTable()
	st := New()
	first := source.Span{Begin: source.Position{Line: 1, Col: 6}, End: source.Position{Line: 1, Col: 6}}
	second := source.Span{Begin: source.Position{Line: 2, Col: 6}, End: source.Position{Line: 2, Col: 6}}

	orig, _ := st.Define("x", Variable, tt.Unresolved(), first)
	dup, prior := st.Define("x", Variable, tt.Unresolved(), second)
	if dup != nil {
		t.Fatal("duplicate Define should not create a symbol")
	}
	if prior != orig {
		t.Fatalf("prior = %+v, want the first definition", prior)
	}
	// The prior's span feeds the duplicate-definition note.
	if prior.Span != first {
		t.Errorf("prior span = %v, want %v", prior.Span, first)
	}
}

func TestSeedsAreNotDeclarations(t *testing.T) {
	tt := types.NewTable()
	st := New()
	st.SeedType("Integer", tt.Unresolved())
	st.SeedFunction("max", tt.Unresolved())
	st.SeedFunction("max", tt.Unresolved()) // overloads share one entry

	if sym := st.Lookup("Integer"); sym == nil || sym.Kind != Type {
		t.Errorf("Integer seed = %+v", sym)
	}
	if sym := st.Lookup("max"); sym == nil || sym.Kind != Function {
		t.Errorf("max seed = %+v", sym)
	}
	if n := len(st.Declarations()); n != 0 {
		t.Errorf("seeds leaked into Declarations: %d entries", n)
	}

	st.Define("a", Variable, tt.Unresolved(), source.Span{})
	if n := len(st.Declarations()); n != 1 {
		t.Errorf("Declarations = %d entries, want 1", n)
	}
}

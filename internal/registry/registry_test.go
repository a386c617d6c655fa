package registry

import (
	"testing"
	"unsafe"

	"exc/internal/function"
	"exc/internal/symtab"
	"exc/internal/types"
)

func fixture() (*Registry, *types.Table, *function.Library, *symtab.Table) {
	tt := types.NewTable()
	fl := function.NewLibrary()
	st := symtab.New()
	return New(tt, fl, st), tt, fl, st
}

type fakeModule struct {
	registeredTypes, registeredFuncs bool
}

func (m *fakeModule) RegisterTypes(r *Registry) error {
	m.registeredTypes = true
	_, err := RegisterType(r, types.Type{Name: "Integer", Kind: types.Value, Size: 8, Align: 8})
	return err
}

func (m *fakeModule) RegisterFunctions(r *Registry) error {
	m.registeredFuncs = true
	_, err := RegisterFunc(r, "operator_add", "Integer",
		[]Arg{{TypeName: "Integer"}, {TypeName: "Integer"}},
		function.Pure, nil,
		Func2(func(ret, a, b *int64) { *ret = *a + *b }),
		nil,
	)
	return err
}

func TestRegisterTypeSeedsSymbolTable(t *testing.T) {
	r, _, _, st := fixture()
	if _, err := RegisterType(r, types.Type{Name: "Bool", Kind: types.Value, Size: 1, Align: 1}); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	sym := st.Lookup("Bool")
	if sym == nil || sym.Kind != symtab.Type {
		t.Fatalf("expected Bool seeded as a type symbol, got %+v", sym)
	}
}

func TestApplyRegistersTypesBeforeFunctions(t *testing.T) {
	r, _, fl, _ := fixture()
	m := &fakeModule{}
	if err := Apply(r, m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !m.registeredTypes || !m.registeredFuncs {
		t.Fatal("expected both hooks invoked")
	}
	intT, err := r.Types.MustGet("Integer")
	if err != nil {
		t.Fatalf("Integer not registered: %v", err)
	}
	d, err := fl.Get("operator_add", []types.ID{intT, intT})
	if err != nil {
		t.Fatalf("operator_add not resolvable: %v", err)
	}
	if !d.Pure() {
		t.Error("expected operator_add to carry the Pure flag")
	}
}

func TestFunc2WrapperInvokesUnderlyingGoFunction(t *testing.T) {
	r, _, fl, _ := fixture()
	m := &fakeModule{}
	if err := Apply(r, m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	intT, _ := r.Types.MustGet("Integer")
	d, err := fl.Get("operator_add", []types.ID{intT, intT})
	if err != nil {
		t.Fatal(err)
	}

	var ret, a, b int64 = 0, 2, 3
	d.Wrapper(unsafe.Pointer(d.Entry), []unsafe.Pointer{
		unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b),
	})
	if ret != 5 {
		t.Errorf("ret = %d, want 5", ret)
	}
}

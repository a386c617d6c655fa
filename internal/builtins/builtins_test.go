package builtins

import (
	"testing"
	"unsafe"

	"tinygo.org/x/go-llvm"

	"exc/internal/codegen"
	"exc/internal/function"
	"exc/internal/registry"
	"exc/internal/symtab"
	"exc/internal/types"
)

func fixture(t *testing.T) (*types.Table, *function.Library) {
	t.Helper()
	tt := types.NewTable()
	fl := function.NewLibrary()
	r := registry.New(tt, fl, symtab.New())
	if err := registry.Apply(r, New()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return tt, fl
}

func get(t *testing.T, fl *function.Library, name string, args ...types.ID) *function.Descriptor {
	t.Helper()
	d, err := fl.Get(name, args)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	return d
}

func TestIntegerArithmeticWrappers(t *testing.T) {
	tt, fl := fixture(t)
	intT, _ := tt.MustGet("Integer")

	d := get(t, fl, "operator_add", intT, intT)
	var ret, a, b int64 = 0, 40, 2
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if ret != 42 {
		t.Errorf("40 + 2 = %d, want 42", ret)
	}

	d = get(t, fl, "operator_shrz", intT, intT)
	a, b = -1, 60
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if ret != 15 {
		t.Errorf("logical shift of -1 >> 60 = %d, want 15", ret)
	}
}

func TestIntegerComparisonWrappers(t *testing.T) {
	tt, fl := fixture(t)
	intT, _ := tt.MustGet("Integer")
	d := get(t, fl, "operator_lt", intT, intT)

	var ret bool
	var a, b int64 = 3, 5
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if !ret {
		t.Error("3 < 5 should be true")
	}
}

func TestFloatArithmeticWrappers(t *testing.T) {
	tt, fl := fixture(t)
	floatT, _ := tt.MustGet("Float")
	d := get(t, fl, "operator_div", floatT, floatT)

	var ret, a, b float64 = 0, 7, 2
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if ret != 3.5 {
		t.Errorf("7 / 2 = %v, want 3.5", ret)
	}
}

func TestBoolLogicalWrappers(t *testing.T) {
	tt, fl := fixture(t)
	boolT, _ := tt.MustGet("Bool")
	d := get(t, fl, "operator_and", boolT, boolT)

	var ret, a, b bool = false, true, false
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if ret {
		t.Error("true && false should be false")
	}
}

func TestUnaryMinusWrappers(t *testing.T) {
	tt, fl := fixture(t)
	intT, _ := tt.MustGet("Integer")
	d := get(t, fl, "operator_uminus", intT)

	var ret, a int64 = 0, 7
	d.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a)})
	if ret != -7 {
		t.Errorf("-7 wanted, got %d", ret)
	}
}

func TestStringSubstrWrapper(t *testing.T) {
	tt, fl := fixture(t)
	stringT, _ := tt.MustGet("String")
	intT, _ := tt.MustGet("Integer")
	d := get(t, fl, "substr", stringT, intT, intT)

	s := "Hello World!"
	var start, length int64 = 6, 5
	var ret string
	d.Wrapper(nil, []unsafe.Pointer{
		unsafe.Pointer(&ret), unsafe.Pointer(&s), unsafe.Pointer(&start), unsafe.Pointer(&length),
	})
	if ret != "World" {
		t.Errorf("substr = %q, want %q", ret, "World")
	}
}

func TestStringConcatAndEqualityWrappers(t *testing.T) {
	tt, fl := fixture(t)
	stringT, _ := tt.MustGet("String")
	add := get(t, fl, "operator_add", stringT, stringT)

	a, b := "foo", "bar"
	var ret string
	add.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&ret), unsafe.Pointer(&a), unsafe.Pointer(&b)})
	if ret != "foobar" {
		t.Errorf("concat = %q, want %q", ret, "foobar")
	}

	eq := get(t, fl, "operator_eq", stringT, stringT)
	var same bool
	x, y := "abc", "abc"
	eq.Wrapper(nil, []unsafe.Pointer{unsafe.Pointer(&same), unsafe.Pointer(&x), unsafe.Pointer(&y)})
	if !same {
		t.Error(`"abc" == "abc" should be true`)
	}
}

func TestIntegerAddIntrinsicEmitsVerifiableIR(t *testing.T) {
	tt, fl := fixture(t)
	intT, _ := tt.MustGet("Integer")
	d := get(t, fl, "operator_add", intT, intT)
	emitter, ok := d.Intrinsic.(codegen.IntrinsicEmitter)
	if !ok {
		t.Fatal("expected operator_add to carry an IntrinsicEmitter")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("test")
	defer mod.Dispose()
	builder := ctx.NewBuilder()
	defer builder.Dispose()

	i64 := llvm.Int64Type()
	ptrI64 := llvm.PointerType(i64, 0)
	fnType := llvm.FunctionType(llvm.VoidType(), []llvm.Type{ptrI64, i64, i64}, false)
	fn := llvm.AddFunction(mod, d.IntrinsicName(), fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	emitter(codegen.IntrinsicContext{Builder: builder, Fn: fn})
	builder.CreateRetVoid()

	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		t.Fatalf("module failed verification: %v", err)
	}
}

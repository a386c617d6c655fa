package codegen_test

import (
	"testing"

	"tinygo.org/x/go-llvm"

	"exc/internal/ast"
	"exc/internal/builtins"
	. "exc/internal/codegen"
	"exc/internal/fold"
	"exc/internal/function"
	"exc/internal/mathext"
	"exc/internal/registry"
	"exc/internal/source"
	"exc/internal/symtab"
	"exc/internal/types"
)

func fixture(t *testing.T, modules ...registry.Module) (*types.Table, *function.Library) {
	t.Helper()
	tt := types.NewTable()
	fl := function.NewLibrary()
	r := registry.New(tt, fl, symtab.New())
	if err := registry.Apply(r, modules...); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return tt, fl
}

func mustGet(t *testing.T, tt *types.Table, name string) types.ID {
	t.Helper()
	id, err := tt.MustGet(name)
	if err != nil {
		t.Fatalf("MustGet(%s): %v", name, err)
	}
	return id
}

func verify(t *testing.T, mod llvm.Module) {
	t.Helper()
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		t.Fatalf("module failed verification:\n%v", err)
	}
}

func lit(typ types.ID, kind ast.LitKind) *ast.Literal {
	return ast.NewLiteral(source.Span{}, typ, kind)
}

// TestGenerateIdentifierAndBinary exercises the common path: a VarDecl
// lowered to its setter, and an ExprDecl whose initializer reads that var back and adds a
// literal to it through a real intrinsic-backed descriptor.
func TestGenerateIdentifierAndBinary(t *testing.T) {
	tt, fl := fixture(t, builtins.New())
	intT := mustGet(t, tt, "Integer")
	addFct, err := fl.Get("operator_add", []types.ID{intT, intT})
	if err != nil {
		t.Fatalf("Get(operator_add): %v", err)
	}

	one := lit(intT, ast.LitInt)
	one.Int = 1
	xRef := ast.NewIdentifier(source.Span{}, intT, "x", nil)
	sum := ast.NewBinary(source.Span{}, ast.OpAdd, xRef, one)
	sum.Fct = addFct
	sum.SetResultType(intT)

	root := ast.NewRoot(source.Span{}, []ast.Decl{
		ast.NewVarDecl(source.Span{}, "x", intT),
		ast.NewExprDecl(source.Span{}, "y", intT, sum),
	})

	layout := Compute([]DeclSite{{Name: "x", Type: intT}, {Name: "y", Type: intT}})
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	g := New(ctx, "test", fl, fold.NewStore())
	if err := g.Generate(root, layout); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	verify(t, g.Module())
}

// TestGenerateIfByValue exercises If lowering (cond-branch + phi) for a
// ByValue result type.
func TestGenerateIfByValue(t *testing.T) {
	tt, fl := fixture(t, builtins.New())
	intT := mustGet(t, tt, "Integer")
	boolT := mustGet(t, tt, "Bool")

	cond := lit(boolT, ast.LitBool)
	cond.Bool = true
	thenLit := lit(intT, ast.LitInt)
	thenLit.Int = 1
	elseLit := lit(intT, ast.LitInt)
	elseLit.Int = 2
	ifExpr := ast.NewIf(source.Span{}, cond, thenLit, elseLit)
	ifExpr.SetResultType(intT)

	root := ast.NewRoot(source.Span{}, []ast.Decl{
		ast.NewExprDecl(source.Span{}, "y", intT, ifExpr),
	})

	layout := Compute([]DeclSite{{Name: "y", Type: intT}})
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	g := New(ctx, "test", fl, fold.NewStore())
	if err := g.Generate(root, layout); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	verify(t, g.Module())
}

// TestGenerateVariadicCallBuildsHeader exercises genVarArg's runtime path:
// a collapsed three-element tail lowers as a stack-built element array plus
// a {ptr, count} header whose pointer is what the callee receives.
func TestGenerateVariadicCallBuildsHeader(t *testing.T) {
	tt, fl := fixture(t, builtins.New())
	intT := mustGet(t, tt, "Integer")
	sum, err := fl.Register(function.Descriptor{
		Name:   "sum",
		Params: []function.Param{{Type: intT, Variadic: true}},
		Ret:    intT,
		// Entry/Wrapper left nil: Generate only declares the external
		// symbol; binding it is internal/jit's concern, not this test's.
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	mk := func(v int64) *ast.Literal {
		l := lit(intT, ast.LitInt)
		l.Int = v
		return l
	}
	va := ast.NewVarArg(source.Span{}, intT, []ast.Expr{mk(1), mk(2), mk(3)})
	call := ast.NewCall(source.Span{}, ast.NewIdentifier(source.Span{}, intT, "sum", nil), []ast.Expr{va})
	call.Fct = sum
	call.SetResultType(intT)

	root := ast.NewRoot(source.Span{}, []ast.Decl{
		ast.NewExprDecl(source.Span{}, "y", intT, call),
	})

	layout := Compute([]DeclSite{{Name: "y", Type: intT}})
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	g := New(ctx, "test", fl, fold.NewStore())
	if err := g.Generate(root, layout); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	verify(t, g.Module())

	if g.Module().NamedFunction(sum.MangledName()).IsNil() {
		t.Errorf("expected external declaration %q in module", sum.MangledName())
	}
}

// TestGenerateComplexConstructorCallAndDestruct exercises the ByPointer
// calling convention and the auto-registered "_dtor_Complex" descriptor
// __destruct_rctx calls, using internal/mathext's Complex extension.
func TestGenerateComplexConstructorCallAndDestruct(t *testing.T) {
	tt, fl := fixture(t, builtins.New(), mathext.New())
	floatT := mustGet(t, tt, "Float")
	complexT := mustGet(t, tt, "Complex")
	ctor, err := fl.Get("_ctor_Complex", []types.ID{floatT, floatT})
	if err != nil {
		t.Fatalf("Get(_ctor_Complex): %v", err)
	}

	re := lit(floatT, ast.LitFloat)
	re.Float = 1
	im := lit(floatT, ast.LitFloat)
	im.Float = 2
	call := ast.NewCall(source.Span{}, ast.NewIdentifier(source.Span{}, complexT, "_ctor_Complex", nil), []ast.Expr{re, im})
	call.Fct = ctor
	call.SetResultType(complexT)

	root := ast.NewRoot(source.Span{}, []ast.Decl{
		ast.NewExprDecl(source.Span{}, "z", complexT, call),
	})

	layout := Compute([]DeclSite{{Name: "z", Type: complexT}})
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	g := New(ctx, "test", fl, fold.NewStore())
	if err := g.Generate(root, layout); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	verify(t, g.Module())

	if g.Module().NamedFunction("__destruct_rctx").IsNil() {
		t.Error("expected __destruct_rctx to be emitted")
	}
}

// Package builtins is the host module supplying the language's four
// primitive types (Bool, Integer, Float, String) and the full operator set
// spec §4.3 lists. Grounded on
// original_source/lib/codegen/jex_builtins.cpp: the template add/sub/mul/
// div/mod/equal/... wrapper functions and generateIntegerAdd's inline-IR
// pattern are reimplemented here as Go generics plus codegen.IntrinsicEmitter
// closures. Every Value-typed operator is registered with an intrinsic
// emitter (see SPEC_FULL.md's native-call-pointer Open Question decision),
// so none of this module's arithmetic/comparison operators ever needs the
// external-call path. String's destructor carries a DtorIntrinsic too: its
// body is a true no-op (Go's GC, not manual ownership, reclaims a string's
// backing array), so it lowers as inline IR the same way, and
// registry.RegisterType's auto-registered "_dtor_String" descriptor never
// needs a native entry for internal/jit to bind.
//
// String is this module's one Complex type: represented as a native Go
// string header (spec.md's §4.3 "Complex, non-trivial lifetime" is
// satisfied by a real CopyCtor; its destructor is an intentional no-op,
// since Go's garbage collector — not manual ownership — reclaims a
// string's backing array once unreferenced, unlike the original's
// jex::String). String's operations (concatenation, substr, comparisons)
// are registered Wrapper-only, with no intrinsic emitter: spec.md's own
// worked scenario for String (§6) only ever exercises them through
// constant folding, never through live JIT'd code, so no native entry
// point is needed for them in practice; see SPEC_FULL.md's Open Question
// decision for why giving them one would require cgo this project avoids.
package builtins

import (
	"unsafe"

	"tinygo.org/x/go-llvm"

	"exc/internal/codegen"
	"exc/internal/function"
	"exc/internal/registry"
	"exc/internal/types"
)

// Module implements registry.Module for Bool, Integer, Float, and String.
type Module struct{}

// New returns the built-in types/operators host module.
func New() Module { return Module{} }

// RegisterTypes adds Bool, Integer, Float, and String, in that order so
// later registrations (e.g. internal/mathext's Complex) can depend on
// Float.
func (Module) RegisterTypes(r *registry.Registry) error {
	for _, t := range []types.Type{
		{Name: "Bool", Kind: types.Value, Size: 1, Align: 1,
			Lifetime: types.Lifetime{ZeroInit: true},
			MakeBackendType: func(types.BackendContext) types.BackendType { return llvm.Int1Type() }},
		{Name: "Integer", Kind: types.Value, Size: 8, Align: 8,
			Lifetime: types.Lifetime{ZeroInit: true},
			MakeBackendType: func(types.BackendContext) types.BackendType { return llvm.Int64Type() }},
		{Name: "Float", Kind: types.Value, Size: 8, Align: 8,
			Lifetime: types.Lifetime{ZeroInit: true},
			MakeBackendType: func(types.BackendContext) types.BackendType { return llvm.DoubleType() }},
		{Name: "String", Kind: types.Complex,
			Size: unsafe.Sizeof(""), Align: unsafe.Alignof((*string)(nil)),
			CallConv: types.ByPointer,
			Lifetime: types.Lifetime{
				// A zeroed string header is the empty string, a fully valid
				// value for both the copy constructor and the destructor, so
				// zero-init stands in for a default constructor.
				ZeroInit: true,
				Dtor:     func(unsafe.Pointer) {},
				CopyCtor: func(dst, src unsafe.Pointer) { *(*string)(dst) = *(*string)(src) },
				PinValue: func(obj unsafe.Pointer) interface{} { return *(*string)(obj) },
				DtorIntrinsic: codegen.IntrinsicEmitter(func(codegen.IntrinsicContext) {
					// String's destructor is a true no-op: Go's GC, not manual
					// ownership, reclaims the backing array. Lowering it inline
					// means __destruct_rctx and the unwind cascade never need a
					// native "_dtor_String" entry to link against.
				}),
			},
			MakeBackendType: func(bc types.BackendContext) types.BackendType {
				ctx := bc.(llvm.Context)
				return ctx.StructType([]llvm.Type{llvm.PointerType(llvm.Int8Type(), 0), llvm.Int64Type()}, false)
			}},
	} {
		if _, err := registry.RegisterType(r, t); err != nil {
			return err
		}
	}
	return nil
}

func registerStringFunctions(r *registry.Registry) error {
	for _, err := range []error{
		func() error {
			_, err := registry.RegisterFunc(r, "operator_add", "String",
				[]registry.Arg{{TypeName: "String"}, {TypeName: "String"}},
				function.Pure, nil,
				registry.Func2(func(ret, a, b *string) { *ret = *a + *b }),
				nil,
			)
			return err
		}(),
		func() error {
			_, err := registry.RegisterFunc(r, "operator_eq", "Bool",
				[]registry.Arg{{TypeName: "String"}, {TypeName: "String"}},
				function.Pure, nil,
				registry.Func2(func(ret *bool, a, b *string) { *ret = *a == *b }),
				nil,
			)
			return err
		}(),
		func() error {
			_, err := registry.RegisterFunc(r, "operator_ne", "Bool",
				[]registry.Arg{{TypeName: "String"}, {TypeName: "String"}},
				function.Pure, nil,
				registry.Func2(func(ret *bool, a, b *string) { *ret = *a != *b }),
				nil,
			)
			return err
		}(),
		func() error {
			_, err := registry.RegisterFunc(r, "substr", "String",
				[]registry.Arg{{TypeName: "String"}, {TypeName: "Integer"}, {TypeName: "Integer"}},
				function.Pure, nil,
				registry.Func3(func(ret *string, s *string, start, length *int64) {
					lo := clampIndex(*start, len(*s))
					hi := clampIndex(*start+*length, len(*s))
					if hi < lo {
						hi = lo
					}
					*ret = (*s)[lo:hi]
				}),
				nil,
			)
			return err
		}(),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if int(i) > n {
		return n
	}
	return int(i)
}

type binaryEmit func(b llvm.Builder, a, c llvm.Value) llvm.Value

// registerBinary registers a two-operand operator, wiring a constant-
// folding Wrapper built from fold and an inline-IR emitter built from emit,
// the Go generic analogue of generateIntegerAdd's pattern applied to every
// arithmetic and comparison operator instead of only Integer addition.
func registerBinary[A, Ret any](r *registry.Registry, name, argType, retType string,
	fold func(a, b A) Ret, emit binaryEmit,
) error {
	_, err := registry.RegisterFunc(r, name, retType,
		[]registry.Arg{{TypeName: argType}, {TypeName: argType}},
		function.Pure, nil,
		registry.Func2(func(ret *Ret, a, b *A) { *ret = fold(*a, *b) }),
		codegen.IntrinsicEmitter(func(ctx codegen.IntrinsicContext) {
			res := emit(ctx.Builder, ctx.Fn.Param(1), ctx.Fn.Param(2))
			ctx.Builder.CreateStore(res, ctx.Fn.Param(0))
		}),
	)
	return err
}

type unaryEmit func(b llvm.Builder, a llvm.Value) llvm.Value

func registerUnary[A any](r *registry.Registry, name, typeName string,
	fold func(a A) A, emit unaryEmit,
) error {
	_, err := registry.RegisterFunc(r, name, typeName,
		[]registry.Arg{{TypeName: typeName}},
		function.Pure, nil,
		registry.Func1(func(ret, a *A) { *ret = fold(*a) }),
		codegen.IntrinsicEmitter(func(ctx codegen.IntrinsicContext) {
			res := emit(ctx.Builder, ctx.Fn.Param(1))
			ctx.Builder.CreateStore(res, ctx.Fn.Param(0))
		}),
	)
	return err
}

// RegisterFunctions registers the full operator set spec §4.3 names:
// arithmetic, bitwise/shift, and comparisons on Integer; arithmetic and
// comparisons on Float; equality and logical operators on Bool.
func (Module) RegisterFunctions(r *registry.Registry) error {
	for _, err := range []error{
		// Integer arithmetic.
		registerBinary[int64, int64](r, "operator_add", "Integer", "Integer",
			func(a, b int64) int64 { return a + b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateAdd(a, c, "") }),
		registerBinary[int64, int64](r, "operator_sub", "Integer", "Integer",
			func(a, b int64) int64 { return a - b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateSub(a, c, "") }),
		registerBinary[int64, int64](r, "operator_mul", "Integer", "Integer",
			func(a, b int64) int64 { return a * b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateMul(a, c, "") }),
		registerBinary[int64, int64](r, "operator_div", "Integer", "Integer",
			func(a, b int64) int64 { return a / b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateSDiv(a, c, "") }),
		registerBinary[int64, int64](r, "operator_mod", "Integer", "Integer",
			func(a, b int64) int64 { return a % b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateSRem(a, c, "") }),
		registerBinary[int64, int64](r, "operator_bitand", "Integer", "Integer",
			func(a, b int64) int64 { return a & b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateAnd(a, c, "") }),
		registerBinary[int64, int64](r, "operator_bitor", "Integer", "Integer",
			func(a, b int64) int64 { return a | b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateOr(a, c, "") }),
		registerBinary[int64, int64](r, "operator_bitxor", "Integer", "Integer",
			func(a, b int64) int64 { return a ^ b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateXor(a, c, "") }),
		registerBinary[int64, int64](r, "operator_shl", "Integer", "Integer",
			func(a, b int64) int64 { return a << uint(b) },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateShl(a, c, "") }),
		registerBinary[int64, int64](r, "operator_shrs", "Integer", "Integer",
			func(a, b int64) int64 { return a >> uint(b) },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateAShr(a, c, "") }),
		registerBinary[int64, int64](r, "operator_shrz", "Integer", "Integer",
			func(a, b int64) int64 { return int64(uint64(a) >> uint(b)) },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateLShr(a, c, "") }),
		// Integer comparisons.
		registerBinary[int64, bool](r, "operator_eq", "Integer", "Bool",
			func(a, b int64) bool { return a == b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntEQ, a, c, "") }),
		registerBinary[int64, bool](r, "operator_ne", "Integer", "Bool",
			func(a, b int64) bool { return a != b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntNE, a, c, "") }),
		registerBinary[int64, bool](r, "operator_lt", "Integer", "Bool",
			func(a, b int64) bool { return a < b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntSLT, a, c, "") }),
		registerBinary[int64, bool](r, "operator_le", "Integer", "Bool",
			func(a, b int64) bool { return a <= b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntSLE, a, c, "") }),
		registerBinary[int64, bool](r, "operator_gt", "Integer", "Bool",
			func(a, b int64) bool { return a > b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntSGT, a, c, "") }),
		registerBinary[int64, bool](r, "operator_ge", "Integer", "Bool",
			func(a, b int64) bool { return a >= b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntSGE, a, c, "") }),
		// Integer unary.
		registerUnary[int64](r, "operator_uminus", "Integer",
			func(a int64) int64 { return -a },
			func(b llvm.Builder, a llvm.Value) llvm.Value {
				return b.CreateSub(llvm.ConstInt(llvm.Int64Type(), 0, true), a, "")
			}),
		// Float arithmetic.
		registerBinary[float64, float64](r, "operator_add", "Float", "Float",
			func(a, b float64) float64 { return a + b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFAdd(a, c, "") }),
		registerBinary[float64, float64](r, "operator_sub", "Float", "Float",
			func(a, b float64) float64 { return a - b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFSub(a, c, "") }),
		registerBinary[float64, float64](r, "operator_mul", "Float", "Float",
			func(a, b float64) float64 { return a * b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFMul(a, c, "") }),
		registerBinary[float64, float64](r, "operator_div", "Float", "Float",
			func(a, b float64) float64 { return a / b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFDiv(a, c, "") }),
		// Float comparisons.
		registerBinary[float64, bool](r, "operator_eq", "Float", "Bool",
			func(a, b float64) bool { return a == b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatOEQ, a, c, "") }),
		registerBinary[float64, bool](r, "operator_ne", "Float", "Bool",
			func(a, b float64) bool { return a != b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatONE, a, c, "") }),
		registerBinary[float64, bool](r, "operator_lt", "Float", "Bool",
			func(a, b float64) bool { return a < b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatOLT, a, c, "") }),
		registerBinary[float64, bool](r, "operator_le", "Float", "Bool",
			func(a, b float64) bool { return a <= b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatOLE, a, c, "") }),
		registerBinary[float64, bool](r, "operator_gt", "Float", "Bool",
			func(a, b float64) bool { return a > b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatOGT, a, c, "") }),
		registerBinary[float64, bool](r, "operator_ge", "Float", "Bool",
			func(a, b float64) bool { return a >= b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateFCmp(llvm.FloatOGE, a, c, "") }),
		// Float unary.
		registerUnary[float64](r, "operator_uminus", "Float",
			func(a float64) float64 { return -a },
			func(b llvm.Builder, a llvm.Value) llvm.Value {
				return b.CreateFSub(llvm.ConstFloat(llvm.DoubleType(), 0), a, "")
			}),
		// Bool equality and logical operators.
		registerBinary[bool, bool](r, "operator_eq", "Bool", "Bool",
			func(a, b bool) bool { return a == b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntEQ, a, c, "") }),
		registerBinary[bool, bool](r, "operator_ne", "Bool", "Bool",
			func(a, b bool) bool { return a != b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateICmp(llvm.IntNE, a, c, "") }),
		registerBinary[bool, bool](r, "operator_and", "Bool", "Bool",
			func(a, b bool) bool { return a && b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateAnd(a, c, "") }),
		registerBinary[bool, bool](r, "operator_or", "Bool", "Bool",
			func(a, b bool) bool { return a || b },
			func(b llvm.Builder, a, c llvm.Value) llvm.Value { return b.CreateOr(a, c, "") }),
		registerUnary[bool](r, "operator_not", "Bool",
			func(a bool) bool { return !a },
			func(b llvm.Builder, a llvm.Value) llvm.Value {
				return b.CreateXor(a, llvm.ConstInt(llvm.Int1Type(), 1, false), "")
			}),
	} {
		if err != nil {
			return err
		}
	}
	return registerStringFunctions(r)
}

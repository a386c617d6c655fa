// Package mathext is a second host module extending the language with a
// Complex number type: two packed doubles, constructed from a pair of
// Floats, supporting addition. Grounded on
// original_source/lib/codegen/jex_math.cpp's MathModule: complexCtor/
// complexCtorIntrinsic/complexAddIntrinsic's by-pointer struct-field
// addressing (IntrinsicGen::getStructElemPtr) is reimplemented via
// codegen.IntrinsicContext.StructElemPtr. Complex is the project's only
// Kind-Complex type, exercising the by-pointer calling convention and the
// constant store's destructor-tracking path that a Value-only type set
// never reaches.
package mathext

import (
	"unsafe"

	"tinygo.org/x/go-llvm"

	"exc/internal/codegen"
	"exc/internal/function"
	"exc/internal/registry"
	"exc/internal/types"
)

// Complex is the Go-side representation of a Complex value: two float64
// fields in declaration order, matching the two-element double struct
// MakeBackendType below materializes in LLVM IR.
type Complex struct {
	Re, Im float64
}

// Module implements registry.Module for the Complex extension.
type Module struct{}

// New returns the Complex extension host module.
func New() Module { return Module{} }

func backendComplex(bc types.BackendContext) types.BackendType {
	ctx := bc.(llvm.Context)
	d := llvm.DoubleType()
	return ctx.StructType([]llvm.Type{d, d}, false)
}

// RegisterTypes adds Complex. Complex has no heap-owned resources, so its
// destructor is a no-op; Register still requires one non-nil (spec §3's
// invariant that every Complex type name a real destructor), matching the
// original's Complex class, whose destructor is implicitly trivial but
// still present.
func (Module) RegisterTypes(r *registry.Registry) error {
	_, err := registry.RegisterType(r, types.Type{
		Name:     "Complex",
		Kind:     types.Complex,
		Size:     unsafe.Sizeof(Complex{}),
		Align:    unsafe.Alignof(Complex{}),
		CallConv: types.ByPointer,
		Lifetime: types.Lifetime{
			ZeroInit: true,
			Dtor:     func(unsafe.Pointer) {},
			CopyCtor: func(dst, src unsafe.Pointer) { *(*Complex)(dst) = *(*Complex)(src) },
			DtorIntrinsic: codegen.IntrinsicEmitter(func(codegen.IntrinsicContext) {
				// Complex owns no heap resources; its destructor is a true
				// no-op, lowered inline so internal/jit never needs to bind a
				// native "_dtor_Complex" entry.
			}),
		},
		MakeBackendType: backendComplex,
	})
	return err
}

// RegisterFunctions registers Complex's constructor and operator_add.
func (Module) RegisterFunctions(r *registry.Registry) error {
	_, err := registry.RegisterFunc(r, "_ctor_Complex", "Complex",
		[]registry.Arg{{TypeName: "Float"}, {TypeName: "Float"}},
		function.Pure, nil,
		registry.Func2(func(ret *Complex, re, im *float64) {
			ret.Re, ret.Im = *re, *im
		}),
		codegen.IntrinsicEmitter(func(ctx codegen.IntrinsicContext) {
			b := ctx.Builder
			resPtr := ctx.Fn.Param(0)
			b.CreateStore(ctx.Fn.Param(1), ctx.StructElemPtr(resPtr, 0))
			b.CreateStore(ctx.Fn.Param(2), ctx.StructElemPtr(resPtr, 1))
		}),
	)
	if err != nil {
		return err
	}

	_, err = registry.RegisterFunc(r, "operator_add", "Complex",
		[]registry.Arg{{TypeName: "Complex"}, {TypeName: "Complex"}},
		function.Pure, nil,
		registry.Func2(func(ret, a, b *Complex) {
			ret.Re, ret.Im = a.Re+b.Re, a.Im+b.Im
		}),
		codegen.IntrinsicEmitter(func(ctx codegen.IntrinsicContext) {
			b := ctx.Builder
			resPtr, aPtr, bPtr := ctx.Fn.Param(0), ctx.Fn.Param(1), ctx.Fn.Param(2)
			for i := 0; i < 2; i++ {
				aElem := b.CreateLoad(ctx.StructElemPtr(aPtr, i), "")
				bElem := b.CreateLoad(ctx.StructElemPtr(bPtr, i), "")
				sum := b.CreateFAdd(aElem, bElem, "")
				b.CreateStore(sum, ctx.StructElemPtr(resPtr, i))
			}
		}),
	)
	return err
}

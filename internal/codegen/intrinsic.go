package codegen

import "tinygo.org/x/go-llvm"

// IntrinsicContext is what an IntrinsicEmitter receives to emit inline IR
// for a call, the Go analogue of original_source/lib/codegen/
// jex_intrinsicgen.hpp's IntrinsicGen (builder(), fct()). Fn is the native
// function currently being generated; Fn.Param(0) is always a pointer to
// the return slot, Fn.Param(1+) are the call's operands in the same order
// function.Wrapper receives them in its args slice, so a descriptor's
// constant-folding Wrapper and its intrinsic emitter agree on operand
// order. They do not agree on representation: a ByValue operand arrives as
// a plain SSA value here (ready for CreateAdd/CreateFCmp/...), never as a
// pointer to load from, while Wrapper's args entries are always pointers
// (Go generics need a pointee to dereference). Only ByPointer/Complex
// operands are pointers in both.
type IntrinsicContext struct {
	Builder llvm.Builder
	Fn      llvm.Value
}

// IntrinsicEmitter emits inline IR for one call to a descriptor instead of
// a call instruction to an external symbol. Descriptor.Intrinsic stores
// these as an opaque interface{} (function must not import codegen, which
// imports go-llvm); codegen type-asserts back to this type when lowering a
// call whose descriptor carries one.
type IntrinsicEmitter func(ctx IntrinsicContext)

// StructElemPtr returns a pointer to field i of the struct pointed to by
// structPtr, the Go analogue of IntrinsicGen::getStructElemPtr used by
// Complex-typed intrinsics (construction, addition) that must address
// individual fields of a by-pointer struct argument.
func (c IntrinsicContext) StructElemPtr(structPtr llvm.Value, i int) llvm.Value {
	zero := llvm.ConstInt(llvm.Int32Type(), 0, false)
	idx := llvm.ConstInt(llvm.Int32Type(), uint64(i), false)
	return c.Builder.CreateGEP(structPtr, []llvm.Value{zero, idx}, "")
}

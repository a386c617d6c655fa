// Package registry is the host registration façade described in spec §3/
// §4.8: a Module supplies its types and functions to a Registry, which adds
// them to the shared type table, function library, and symbol table.
// Grounded on original_source/lib/core/jex_registry.hpp's template
// Registry/FctDesc/Module trio; the C++ template parameters (Arg<T, name,
// kind>, FctDesc<ArgRet, ArgT...>) are reimplemented with Go generics,
// which play the same role of deriving a type-erased calling wrapper from
// a concretely-typed Go function at registration time instead of at
// template-instantiation time.
package registry

import (
	"unsafe"

	"exc/internal/function"
	"exc/internal/symtab"
	"exc/internal/types"
)

// Registry is the single entry point a Module uses to publish its types
// and functions into a compile environment.
type Registry struct {
	Types *types.Table
	Funcs *function.Library
	Syms  *symtab.Table
}

// New returns a Registry writing into the given tables.
func New(t *types.Table, f *function.Library, s *symtab.Table) *Registry {
	return &Registry{Types: t, Funcs: f, Syms: s}
}

// Module is implemented by a host library of types and functions (e.g.
// internal/builtins) that wants to extend a compile environment.
type Module interface {
	RegisterTypes(r *Registry) error
	RegisterFunctions(r *Registry) error
}

// Apply registers every module's types, then every module's functions, so
// that a later module's functions may reference an earlier module's types
// regardless of registration order within a single call to Apply.
func Apply(r *Registry, modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterTypes(r); err != nil {
			return err
		}
	}
	for _, m := range modules {
		if err := m.RegisterFunctions(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterType adds typ to the type table, seeds its name into the symbol
// table so the parser can resolve it as a type reference, and, if typ
// carries a destructor, registers it in the function library as
// "_dtor_<Name>" so internal/codegen's unwind cascade and __destruct_rctx
// can find and call it by name, per jex_unwind.cpp's
// getFct("_dtor_" + type->name(), {}) lookup. The registered descriptor
// takes zero language-level Params (a destructor is never called from
// source) but its generated LLVM callee still takes one pointer argument,
// the object to destroy, reusing Wrapper's args[0] return-slot position to
// carry it since a destructor has no separate return value. Its Intrinsic
// field carries typ.Lifetime.DtorIntrinsic through unexamined (nil unless
// the host module supplied one), so a trivial (no-op) destructor lowers as
// inline IR instead of an external declaration internal/jit can never bind
// a native entry to.
func RegisterType(r *Registry, typ types.Type) (types.ID, error) {
	id, err := r.Types.Register(typ)
	if err != nil {
		return nil, err
	}
	r.Syms.SeedType(typ.Name, id)
	if dtor := typ.Lifetime.Dtor; dtor != nil {
		_, err := r.Funcs.Register(function.Descriptor{
			Name: "_dtor_" + typ.Name,
			Ret:  id,
			Wrapper: func(_ unsafe.Pointer, args []unsafe.Pointer) {
				dtor(args[0])
			},
			Intrinsic: typ.Lifetime.DtorIntrinsic,
		})
		if err != nil {
			return nil, err
		}
	}
	return id, nil
}

// Arg names one parameter of a function being registered via RegisterFunc:
// its type-table name and whether it is the trailing variadic parameter.
type Arg struct {
	TypeName string
	Variadic bool
}

// RegisterFunc registers a function under name with the given return type
// name, parameter list, and flags. wrapper is the type-erased calling
// convention spec §6 requires, built by the FuncN helpers below from a
// concretely-typed Go function so callers never hand-write unsafe pointer
// arithmetic themselves. entry is an opaque native-code handle threaded
// through for backend symbol resolution (see internal/jit); intrinsic, if
// non-nil, makes this descriptor inline-emittable instead of externally
// called (see internal/codegen).
func RegisterFunc(
	r *Registry, name string, retTypeName string, args []Arg,
	flags function.Flags, entry unsafe.Pointer, wrapper function.Wrapper,
	intrinsic function.IntrinsicEmitter,
) (*function.Descriptor, error) {
	ret, err := r.Types.MustGet(retTypeName)
	if err != nil {
		return nil, err
	}
	params := make([]function.Param, len(args))
	for i, a := range args {
		t, err := r.Types.MustGet(a.TypeName)
		if err != nil {
			return nil, err
		}
		params[i] = function.Param{Type: t, Variadic: a.Variadic}
	}
	d, err := r.Funcs.Register(function.Descriptor{
		Name: name, Params: params, Ret: ret,
		Entry: entry, Wrapper: wrapper, Intrinsic: intrinsic, Flags: flags,
	})
	if err != nil {
		return nil, err
	}
	r.Syms.SeedFunction(name, r.Types.Unresolved())
	return d, nil
}

// Func1 builds a function.Wrapper around a concretely-typed two-argument
// (return, operand) Go function, the generic analogue of the original's
// FctDesc<ArgRet, ArgT>::wrapper for a single-parameter function.
func Func1[Ret, A any](fn func(ret *Ret, a *A)) function.Wrapper {
	return func(_ unsafe.Pointer, args []unsafe.Pointer) {
		fn((*Ret)(args[0]), (*A)(args[1]))
	}
}

// Func2 is Func1's two-operand analogue, used for every builtin binary
// operator (add, sub, comparisons, ...).
func Func2[Ret, A, B any](fn func(ret *Ret, a *A, b *B)) function.Wrapper {
	return func(_ unsafe.Pointer, args []unsafe.Pointer) {
		fn((*Ret)(args[0]), (*A)(args[1]), (*B)(args[2]))
	}
}

// Func3 is the three-operand analogue, used for internal/builtins' substr.
func Func3[Ret, A, B, C any](fn func(ret *Ret, a *A, b *B, c *C)) function.Wrapper {
	return func(_ unsafe.Pointer, args []unsafe.Pointer) {
		fn((*Ret)(args[0]), (*A)(args[1]), (*B)(args[2]), (*C)(args[3]))
	}
}

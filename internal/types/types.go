// Package types implements the type table described in spec §3: a registry
// of named types with pointer-stable identities, each carrying size,
// alignment, calling convention, and lifetime callbacks.
package types

import (
	"fmt"
	"unsafe"
)

// Kind tags the four categories of type entry.
type Kind int

const (
	// Unresolved is the sentinel kind; exactly one entry in a Table carries
	// it, used whenever resolution fails without aborting the whole parse.
	Unresolved Kind = iota
	// Value types are trivially destructible and passed ByValue.
	Value
	// Complex types carry non-trivial lifetime callbacks and are always
	// passed ByPointer.
	Complex
	// Function denotes a type-system entry standing in for a symbol-table
	// function kind; function types are not registered via RegisterType,
	// they exist only so Symbol.Kind and Type.Kind share a vocabulary where
	// convenient.
	Function
)

// CallConv selects how a value of a type crosses a native function
// boundary.
type CallConv int

const (
	// ByValue arguments/returns are passed inline.
	ByValue CallConv = iota
	// ByPointer arguments/returns are passed as a pointer to storage owned
	// by the caller (for returns) or callee (for by-pointer arguments).
	ByPointer
)

// Lifetime bundles the construction/destruction callbacks a Complex type
// must supply. Value types leave these nil except optionally DefaultCtor
// when ZeroInit is false.
type Lifetime struct {
	// Dtor destroys a value in place. Required for Complex types.
	Dtor func(obj unsafe.Pointer)
	// CopyCtor copy-constructs dst from src. Required for Complex types.
	CopyCtor func(dst, src unsafe.Pointer)
	// MoveCtor move-constructs dst from src, leaving src in a destructible
	// but otherwise unspecified state. Optional; Complex types without one
	// fall back to CopyCtor.
	MoveCtor func(dst, src unsafe.Pointer)
	// DefaultCtor default-constructs a value in place. If nil and ZeroInit
	// is true, __init_rctx zero-fills the slot instead of calling into it.
	DefaultCtor func(obj unsafe.Pointer)
	// ZeroInit, when true and DefaultCtor is nil, tells the context
	// initializer to zero the slot's bytes rather than skip it.
	ZeroInit bool
	// PinValue, if non-nil, extracts the Go-managed value embedded in a
	// buffer of this type's bytes (e.g. the string header inside a String
	// buffer) so the constant store can keep it reachable. Buffer bytes are
	// ordinary []byte, which the garbage collector scans as pointer-free;
	// any Go pointer written into them via unsafe.Pointer (a string's
	// backing array, say) is otherwise invisible to the collector once the
	// only other reference is that unsafe write. Required for any Complex
	// type whose representation embeds such a pointer; Complex types with
	// no such field (a pair of floats, say) can leave this nil.
	PinValue func(obj unsafe.Pointer) interface{}
	// DtorIntrinsic, if non-nil, is an opaque codegen.IntrinsicEmitter-
	// shaped value (the types package cannot name that type directly
	// without importing codegen, mirroring the BackendContext/BackendType
	// erasure above) that lowers "_dtor_<Name>" as inline IR instead of an
	// external declaration. A Dtor whose body is a true no-op — nothing to
	// call out to natively, as every Complex type registered in this
	// codebase today has — must set this, or registry.RegisterType's
	// auto-registered destructor descriptor has no native Entry and
	// internal/jit's Link fails the moment any program actually declares
	// that type.
	DtorIntrinsic interface{}
}

// Type is one entry in a Table. Its identity is reference equality: two
// *Type values are the same type iff they are the same pointer.
type Type struct {
	Name     string
	Kind     Kind
	Size     uintptr
	Align    uintptr
	CallConv CallConv
	Lifetime Lifetime

	// MakeBackendType materializes the LLVM type for this entry lazily; it
	// is supplied by the registering host module and invoked once per
	// codegen run and cached by the caller.
	MakeBackendType func(ctx BackendContext) BackendType
}

// BackendContext and BackendType are narrow interfaces the types package
// depends on so that internal/codegen's LLVM context/type values can flow
// through type registration without this package importing go-llvm
// directly. internal/jit and internal/codegen supply the concrete types.
type BackendContext interface{}
type BackendType interface{}

// ID is the opaque type-identity handle threaded through the AST, symbol
// table, and function library. Equality is pointer equality on the
// underlying *Type.
type ID = *Type

// String renders the type's name, satisfying fmt.Stringer for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	return t.Name
}

// Table owns every registered Type and enforces unique names.
type Table struct {
	byName     map[string]ID
	unresolved ID
}

// NewTable returns a Table pre-seeded with the single Unresolved sentinel.
func NewTable() *Table {
	t := &Table{byName: make(map[string]ID)}
	t.unresolved = &Type{Name: "_Unresolved", Kind: Unresolved}
	t.byName[t.unresolved.Name] = t.unresolved
	return t
}

// Unresolved returns the table's sentinel unresolved type.
func (t *Table) Unresolved() ID {
	return t.unresolved
}

// IsResolved reports whether id is a real, non-sentinel type.
func (t *Table) IsResolved(id ID) bool {
	return id != nil && id != t.unresolved
}

// Register adds a new type to the table. Duplicate names are rejected with
// an error (InternalError-class per spec §7: registration misuse).
//
// Size must be a non-negative multiple of Align, per spec §3's invariant;
// Align of zero is only legal for the zero-size placeholder cases, which
// Register rejects outright since no registered type in this project needs
// one.
func (t *Table) Register(typ Type) (ID, error) {
	if _, exists := t.byName[typ.Name]; exists {
		return nil, fmt.Errorf("duplicate type registration for %q", typ.Name)
	}
	if typ.Align == 0 {
		return nil, fmt.Errorf("type %q: alignment must be non-zero", typ.Name)
	}
	if typ.Size%typ.Align != 0 {
		return nil, fmt.Errorf("type %q: size %d is not a multiple of alignment %d", typ.Name, typ.Size, typ.Align)
	}
	if typ.Kind == Complex && typ.Lifetime.Dtor == nil {
		return nil, fmt.Errorf("type %q: Complex types require a destructor", typ.Name)
	}
	owned := typ
	id := &owned
	t.byName[typ.Name] = id
	return id, nil
}

// Get returns the type registered under name, or the table's Unresolved
// sentinel if no such type exists.
func (t *Table) Get(name string) ID {
	if id, ok := t.byName[name]; ok {
		return id
	}
	return t.unresolved
}

// MustGet returns the type registered under name, or an error if absent.
// Used by host modules during their own registration, where an unresolved
// lookup is a programmer error rather than user input.
func (t *Table) MustGet(name string) (ID, error) {
	id, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("type %q does not exist", name)
	}
	return id, nil
}

// Package function implements the function library described in spec §3
// and §4.8: descriptors keyed by name, overload resolution with a greedy
// variadic tail, and deterministic mangled linkage names. Grounded on
// original_source/lib/core/jex_fctlibrary.cpp and jex_fctinfo.cpp.
package function

import (
	"fmt"
	"strings"
	"unsafe"

	"exc/internal/types"
)

// Flags holds descriptor flag bits. Only Pure is defined today, per spec §3.
type Flags uint8

const (
	// Pure marks a descriptor as referentially transparent and side-effect
	// free, a precondition for constant folding.
	Pure Flags = 1 << iota
)

// Wrapper is the type-erased calling convention spec §6 requires: args[0]
// is the return slot, args[1:] are argument pointers (ByPointer types) or
// pointers to argument values (ByValue types).
type Wrapper func(entry unsafe.Pointer, args []unsafe.Pointer)

// IntrinsicEmitter is supplied by a descriptor that wants its call lowered
// as inline IR instead of an external call. The concrete signature lives in
// internal/codegen, which defines the emitter contract it actually invokes;
// here it's an opaque value threaded through unexamined.
type IntrinsicEmitter interface{}

// Param is one entry in a descriptor's parameter list.
type Param struct {
	Type     types.ID
	Variadic bool
}

// Descriptor is a single function-library entry: signature, native entry
// point, calling wrapper, optional intrinsic emitter, and flags.
type Descriptor struct {
	Name      string
	Params    []Param
	Ret       types.ID
	Entry     unsafe.Pointer
	Wrapper   Wrapper
	Intrinsic IntrinsicEmitter
	Flags     Flags

	mangled   string
	intrinsic string
}

// Pure reports whether the descriptor carries the Pure flag.
func (d *Descriptor) Pure() bool {
	return d.Flags&Pure != 0
}

// MangledName returns the deterministic external linkage name:
// "_<name>(_|_vararg_)<TypeName>..." per spec §6.
func (d *Descriptor) MangledName() string {
	return d.mangled
}

// IntrinsicName returns MangledName with "__intrinsic" appended, the name
// used when a call is lowered inline rather than as an external reference.
func (d *Descriptor) IntrinsicName() string {
	return d.intrinsic
}

func mangle(name string, params []Param) string {
	var b strings.Builder
	b.WriteByte('_')
	b.WriteString(name)
	for _, p := range params {
		if p.Variadic {
			b.WriteString("_vararg_")
		} else {
			b.WriteByte('_')
		}
		b.WriteString(p.Type.Name)
	}
	return b.String()
}

// Matches reports whether argTypes can be bound to d's parameter list under
// the greedy-variadic rule: each fixed parameter consumes exactly one
// argument of its type; a variadic parameter (legal only as the last
// parameter) consumes one or more arguments of its type, greedily.
func (d *Descriptor) Matches(argTypes []types.ID) bool {
	ai := 0
	for _, p := range d.Params {
		if ai >= len(argTypes) {
			return false
		}
		if argTypes[ai] != p.Type {
			return false
		}
		ai++
		if p.Variadic {
			for ai < len(argTypes) && argTypes[ai] == p.Type {
				ai++
			}
		}
	}
	return ai == len(argTypes)
}

// Bind reports, for a matching argTypes list, how many arguments each
// parameter consumed (always 1 for a fixed parameter, 1+ for a variadic
// one). Returns nil if argTypes does not match d's signature. Used by
// inference to collapse a saturated variadic parameter's trailing
// arguments into a single ast.VarArg node, per spec §4.3.
func (d *Descriptor) Bind(argTypes []types.ID) []int {
	counts := make([]int, 0, len(d.Params))
	ai := 0
	for _, p := range d.Params {
		if ai >= len(argTypes) || argTypes[ai] != p.Type {
			return nil
		}
		n := 1
		ai++
		if p.Variadic {
			for ai < len(argTypes) && argTypes[ai] == p.Type {
				ai++
				n++
			}
		}
		counts = append(counts, n)
	}
	if ai != len(argTypes) {
		return nil
	}
	return counts
}

// equalParams reports whether two parameter lists are identical, used to
// reject exact-signature duplicate registrations.
func equalParams(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders "<ret> <name>(<params>)" for diagnostics and candidate
// listings.
func (d *Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(", d.Ret.Name, d.Name)
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Variadic {
			fmt.Fprintf(&b, "...%s", p.Type.Name)
		} else {
			b.WriteString(p.Type.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Library stores overloads keyed by name and a flat index keyed by mangled
// name for the JIT linker's symbol resolution pass.
type Library struct {
	byName    map[string][]*Descriptor
	byMangled map[string]*Descriptor
}

// NewLibrary returns an empty function library.
func NewLibrary() *Library {
	return &Library{
		byName:    make(map[string][]*Descriptor),
		byMangled: make(map[string]*Descriptor),
	}
}

// Register adds a descriptor to the library. Exact-signature duplicates
// (same name and parameter list) are rejected; distinct overloads of the
// same name are permitted.
func (l *Library) Register(d Descriptor) (*Descriptor, error) {
	for _, existing := range l.byName[d.Name] {
		if equalParams(existing.Params, d.Params) {
			return nil, fmt.Errorf("duplicate function registration for %q", d.String())
		}
	}
	d.mangled = mangle(d.Name, d.Params)
	d.intrinsic = d.mangled + "__intrinsic"
	owned := d
	ptr := &owned
	l.byName[d.Name] = append(l.byName[d.Name], ptr)
	l.byMangled[ptr.mangled] = ptr
	return ptr, nil
}

// Get resolves name against argTypes using the greedy-variadic matching
// rule. On failure the error enumerates every candidate registered under
// name, per spec §4.3/§8.
func (l *Library) Get(name string, argTypes []types.ID) (*Descriptor, error) {
	candidates, ok := l.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	for _, c := range candidates {
		if c.Matches(argTypes) {
			return c, nil
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "no matching overload for %s(", name)
	for i, t := range argTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Name)
	}
	b.WriteString("). Candidates are:")
	for _, c := range candidates {
		fmt.Fprintf(&b, "\n  %s", c)
	}
	return nil, fmt.Errorf("%s", b.String())
}

// ByMangled looks up a descriptor by its mangled linkage name, used by the
// backend when resolving the set of external symbols actually referenced by
// emitted IR.
func (l *Library) ByMangled(name string) (*Descriptor, bool) {
	d, ok := l.byMangled[name]
	return d, ok
}

// Constructor returns the registered "_ctor_<TypeName>" descriptor for typ.
func (l *Library) Constructor(typ types.ID) (*Descriptor, error) {
	return l.Get("_ctor_"+typ.Name, nil)
}

// Destructor returns the registered "_dtor_<TypeName>" descriptor for typ.
func (l *Library) Destructor(typ types.ID) (*Descriptor, error) {
	return l.Get("_dtor_"+typ.Name, nil)
}

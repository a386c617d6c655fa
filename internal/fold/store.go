// Package fold implements constant folding and the constant store described
// in spec §3/§4.4: a post-order pass that evaluates pure subtrees at
// compile time, moving their results into buffers that outlive the
// compiled program. Grounded on
// original_source/lib/core/jex_constantfolding.cpp (ConstantOrLiteral,
// foldFunctionCall, the if-folding short-circuit, the VarArg header+array
// layout).
package fold

import (
	"unsafe"

	"exc/internal/types"
)

// Buffer is a single heap allocation sized and aligned for a folded value,
// pointed to by Ptr. The original owns these with placement-new/custom
// destructors over a raw arena; here the backing array is an ordinary Go
// allocation the garbage collector already tracks, so Buffer only needs to
// remember how to align into it. A Complex value's destructor is recorded
// on its Entry; the store never calls it.
type Buffer struct {
	raw []byte
	Ptr unsafe.Pointer
}

// allocBuffer returns a Buffer of size bytes whose Ptr is aligned to align.
// Go slice backing arrays are only guaranteed pointer-word alignment, so for
// any Align greater than that the allocation pads and shifts forward like
// C's aligned_alloc emulation.
func allocBuffer(size, align uintptr) *Buffer {
	if size == 0 {
		size = 1
	}
	if align == 0 {
		align = 1
	}
	raw := make([]byte, size+align)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + align - 1) &^ (align - 1)
	return &Buffer{raw: raw, Ptr: unsafe.Pointer(aligned)}
}

// Entry is one named buffer in the Store: a folded function-call result or
// a folded VarArg aggregation, per spec §4.4.
type Entry struct {
	Name string
	Type types.ID
	Buf  *Buffer
	Dtor func(unsafe.Pointer)
	// VarArg marks an aggregation entry: Type is the element type and Buf
	// holds a {pointer, count} header followed by the packed element array,
	// not a single value of Type. Codegen lowers these as header pointers.
	VarArg bool
}

// Store is the compile environment's permanent constant store: every
// Entry's backing memory must outlive the compiled program, since the
// generated native code holds raw pointers into it (spec §4.4).
type Store struct {
	byName map[string]*Entry
	order  []*Entry
	// pins keeps alive any Go-managed value (e.g. a string literal's
	// backing array) that a Buffer's raw bytes reference by unsafe pointer
	// arithmetic rather than by a tracked Go pointer field, so the garbage
	// collector doesn't reclaim it out from under the native code. This
	// has no equivalent in the original, which owns all constant memory
	// directly; it exists only because Go's GC needs a live reference it
	// can see, and a string copied in via unsafe.Pointer isn't one.
	pins []interface{}
}

// NewStore returns an empty constant store.
func NewStore() *Store {
	return &Store{byName: make(map[string]*Entry)}
}

// Insert adds e to the store, replacing any prior entry with the same name
// (folding never re-inserts the same name twice in a single compile, since
// names are derived from unique spans, but tests may reuse one).
func (s *Store) Insert(e *Entry) {
	if _, exists := s.byName[e.Name]; !exists {
		s.order = append(s.order, e)
	}
	s.byName[e.Name] = e
}

// Pin keeps v reachable for as long as the store is, per the pins field
// doc comment above.
func (s *Store) Pin(v interface{}) {
	s.pins = append(s.pins, v)
}

// InternString materializes a string literal's backing buffer as a named
// store entry, returning the existing entry if name was already interned.
// Used by codegen when a String literal survives folding (or folding is
// disabled entirely) and its backing must therefore outlive the AST. The
// value is pinned so the collector keeps its backing array alive for the
// store's lifetime.
func (s *Store) InternString(name string, typ types.ID, val string) *Entry {
	if e := s.byName[name]; e != nil {
		return e
	}
	buf := allocBuffer(typ.Size, typ.Align)
	*(*string)(buf.Ptr) = val
	s.Pin(val)
	e := &Entry{Name: name, Type: typ, Buf: buf}
	s.Insert(e)
	return e
}

// Get returns the named entry, or nil if absent.
func (s *Store) Get(name string) *Entry {
	return s.byName[name]
}

// Entries returns every stored constant in insertion order.
func (s *Store) Entries() []*Entry {
	return s.order
}

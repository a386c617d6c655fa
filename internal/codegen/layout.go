// Package codegen lowers a folded AST into LLVM IR: per-declaration entry
// points, the __init_rctx/__destruct_rctx context lifecycle functions, and
// the scope-aware destructor unwind cascade. Grounded on
// original_source/lib/codegen/jex_codegenvisitor.cpp (rctx struct, GEP-by-
// offset storage access, per-declaration function signature) and
// jex_unwind.cpp (backwards-insertion destructor emission), extended with
// one planner scope per if branch: each branch's temporaries are destroyed
// by calls emitted at the end of that branch's own block. No runtime flag
// records which temporaries were constructed.
package codegen

import (
	"sort"

	"exc/internal/types"
)

// Slot is one declaration's assigned storage location in the execution
// context's tail region.
type Slot struct {
	Name   string
	Type   types.ID
	Offset uintptr
}

// Layout is the deterministic execution-context tail layout described in
// spec §3/§4.5: declarations ordered by size descending then name
// ascending, offsets packed respecting each type's alignment.
type Layout struct {
	Slots []Slot
	Size  uintptr
	Align uintptr
}

// DeclSite is the minimal shape Compute needs per declaration; codegen's
// caller builds these from ast.Decl values plus their resolved types.
type DeclSite struct {
	Name string
	Type types.ID
}

// Compute lays out decls into a Layout. Ties in size are broken by name,
// ascending; the context's overall alignment is the maximum alignment of
// any registered type in the layout, so the tail region can be placed
// immediately after a header of any reasonable alignment (spec §4.5/§6).
func Compute(decls []DeclSite) Layout {
	ordered := make([]DeclSite, len(decls))
	copy(ordered, decls)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].Type.Size, ordered[j].Type.Size
		if si != sj {
			return si > sj
		}
		return ordered[i].Name < ordered[j].Name
	})

	var offset uintptr
	var maxAlign uintptr = 1
	slots := make([]Slot, 0, len(ordered))
	for _, d := range ordered {
		align := d.Type.Align
		if align == 0 {
			align = 1
		}
		offset = alignUp(offset, align)
		slots = append(slots, Slot{Name: d.Name, Type: d.Type, Offset: offset})
		offset += d.Type.Size
		if align > maxAlign {
			maxAlign = align
		}
	}
	size := alignUp(offset, maxAlign)
	return Layout{Slots: slots, Size: size, Align: maxAlign}
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

// Find returns the slot for name, or nil if absent.
func (l Layout) Find(name string) *Slot {
	for i := range l.Slots {
		if l.Slots[i].Name == name {
			return &l.Slots[i]
		}
	}
	return nil
}

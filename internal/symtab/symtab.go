// Package symtab implements the scoped symbol table described in spec §3:
// seeded from the type system and function library, with Variable/Const/
// Expr symbols added as declarations are parsed. Grounded on
// hhramberg-go-vslc/src/ir/symtab.go for Go naming idiom and on
// original_source/lib/core/jex_symboltable.cpp for the seeding contract.
package symtab

import (
	"fmt"

	"exc/internal/source"
	"exc/internal/types"
)

// Kind differentiates what a Symbol names.
type Kind int

const (
	// Unresolved marks a symbol created for a name that failed to resolve;
	// it lets later stages skip follow-up errors instead of cascading them.
	Unresolved Kind = iota
	Variable
	Function
	Type
)

// Symbol is one entry in the table: a name bound to a kind, a type
// identity, and the span of its defining occurrence (used for
// duplicate-definition notes).
type Symbol struct {
	Name string
	Kind Kind
	Type types.ID
	Span source.Span
}

// Table is a single flat scope. The language spec.md targets has no nested
// lexical scoping beyond the single top-level declaration list (no
// functions, no blocks), so one flat Table per compile environment is
// sufficient; it is still called "scoped" because it is seeded once from
// types/functions and then grows as declarations are parsed, matching how
// the original's SymbolTable is seeded before the parse begins.
type Table struct {
	entries map[string]*Symbol
	order   []*Symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{entries: make(map[string]*Symbol)}
}

// SeedType registers a type name as a Type-kind symbol so the parser can
// resolve "Integer", "Float", etc. as type references.
func (t *Table) SeedType(name string, id types.ID) {
	t.entries[name] = &Symbol{Name: name, Kind: Type, Type: id}
}

// SeedFunction registers a function name as a Function-kind symbol so the
// parser can tell "foo(" is a call rather than a bare identifier reference.
// Overloads share one symbol entry; the symbol's Type field is left as the
// type table's Unresolved id since overload resolution happens later, in
// inference, against the function library rather than the symbol table.
func (t *Table) SeedFunction(name string, unresolved types.ID) {
	if _, exists := t.entries[name]; exists {
		return
	}
	t.entries[name] = &Symbol{Name: name, Kind: Function, Type: unresolved}
}

// Lookup returns the symbol bound to name, or nil if unbound.
func (t *Table) Lookup(name string) *Symbol {
	return t.entries[name]
}

// Define adds a new symbol of the given kind for a top-level var/const/expr
// declaration. It is an error to redefine a name already present in the
// table; the caller is expected to turn that into a Name-kind diagnostic
// with a note pointing at prior.Span.
func (t *Table) Define(name string, kind Kind, typ types.ID, span source.Span) (*Symbol, *Symbol) {
	if prior, exists := t.entries[name]; exists {
		return nil, prior
	}
	sym := &Symbol{Name: name, Kind: kind, Type: typ, Span: span}
	t.entries[name] = sym
	t.order = append(t.order, sym)
	return sym, nil
}

// Declarations returns every symbol added via Define, in definition order.
func (t *Table) Declarations() []*Symbol {
	return t.order
}

// String renders the symbol kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case Variable:
		return "variable"
	case Function:
		return "function"
	case Type:
		return "type"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

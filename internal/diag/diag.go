// Package diag implements the diagnostic taxonomy and ordered diagnostic set
// described in spec §7: syntax/name/type/const/internal errors, each
// span-tagged and optionally carrying note lines, collected in an order
// that is stable across runs.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"exc/internal/source"
)

// Kind differentiates the diagnostic taxonomy laid out in spec §7.
type Kind int

const (
	// Syntax marks lexer/parser failures.
	Syntax Kind = iota
	// Name marks unknown identifiers and duplicate definitions.
	Name
	// Type marks overload-resolution failures and annotation mismatches.
	Type
	// Const marks a const declaration whose initializer didn't fold.
	Const
	// Internal marks registration misuse or unreachable lowering states.
	Internal
)

// String renders the Kind the way it appears in printed diagnostics.
func (k Kind) String() string {
	switch k {
	case Syntax:
		return "SyntaxError"
	case Name:
		return "NameError"
	case Type:
		return "TypeError"
	case Const:
		return "ConstError"
	case Internal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Note is a supplementary line attached to a Diagnostic, e.g. pointing back
// at a prior definition in a duplicate-identifier error.
type Note struct {
	Span    source.Span
	Message string
}

// Diagnostic is a single span-tagged compiler message.
type Diagnostic struct {
	Kind    Kind
	Span    source.Span
	Message string
	Notes   []Note
	// Fatal marks an unrecoverable error: once one is in the set the parser
	// reads no further declarations. It is still added to the set like any
	// other diagnostic.
	Fatal bool
}

// key identifies a Diagnostic for deduplication: spec §7 keys the ordered
// set by (span, message).
type key struct {
	span source.Span
	msg  string
}

// Set is an ordered, deduplicated collection of diagnostics. Iteration order
// is the diagnostic-set order required by spec §7/§8: sorted by span, with
// insertion order breaking ties among diagnostics sharing a span.
type Set struct {
	byKey map[key]int
	diags []Diagnostic
}

// NewSet returns an empty diagnostic set.
func NewSet() *Set {
	return &Set{byKey: make(map[key]int)}
}

// Add inserts d into the set unless an identical (span, message) pair is
// already present. Returns true if d was newly added.
func (s *Set) Add(d Diagnostic) bool {
	k := key{span: d.Span, msg: d.Message}
	if _, ok := s.byKey[k]; ok {
		return false
	}
	s.byKey[k] = len(s.diags)
	s.diags = append(s.diags, d)
	return true
}

// Len returns the number of diagnostics in the set.
func (s *Set) Len() int {
	return len(s.diags)
}

// HasErrors reports whether the set holds at least one diagnostic.
func (s *Set) HasErrors() bool {
	return len(s.diags) > 0
}

// Sorted returns the diagnostics ordered by span, insertion order breaking
// ties. The returned slice is a stable-sorted copy; callers may not mutate
// the set through it.
func (s *Set) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Less(out[j].Span)
	})
	return out
}

// First returns the earliest-inserted diagnostic, or the zero value and
// false if the set is empty. Used when a fatal error must abort with a
// single representative diagnostic.
func (s *Set) First() (Diagnostic, bool) {
	if len(s.diags) == 0 {
		return Diagnostic{}, false
	}
	return s.diags[0], true
}

// String renders the full set in "L.C-L.C: Kind: message" form, one
// diagnostic per line with indented notes, per spec §7's user-visible
// format.
func (s *Set) String() string {
	var b strings.Builder
	for i, d := range s.Sorted() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s: %s", d.Span, d.Kind, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "\n    note: %s: %s", n.Span, n.Message)
		}
	}
	return b.String()
}

// Error implements the error interface so a Diagnostic can be returned and
// wrapped like any other Go error.
func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Span, d.Kind, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n    note: %s: %s", n.Span, n.Message)
	}
	return b.String()
}

package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"exc/internal/source"
)

func at(line, col, endLine, endCol int) source.Span {
	return source.Span{
		Begin: source.Position{Line: line, Col: col},
		End:   source.Position{Line: endLine, Col: endCol},
	}
}

func TestAddDeduplicatesBySpanAndMessage(t *testing.T) {
	s := NewSet()
	d := Diagnostic{Kind: Type, Span: at(1, 1, 1, 5), Message: "no matching overload"}
	if !s.Add(d) {
		t.Fatal("first Add returned false")
	}
	if s.Add(d) {
		t.Fatal("duplicate (span, message) was not rejected")
	}
	// Same message at a different span is a distinct diagnostic.
	d2 := d
	d2.Span = at(2, 1, 2, 5)
	if !s.Add(d2) {
		t.Fatal("distinct span was wrongly deduplicated")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestSortedOrdersBySpan(t *testing.T) {
	s := NewSet()
	s.Add(Diagnostic{Kind: Name, Span: at(3, 1, 3, 4), Message: "third"})
	s.Add(Diagnostic{Kind: Syntax, Span: at(1, 8, 1, 9), Message: "second"})
	s.Add(Diagnostic{Kind: Syntax, Span: at(1, 2, 1, 4), Message: "first"})

	var got []string
	for _, d := range s.Sorted() {
		got = append(got, d.Message)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortedIsStableForEqualSpans(t *testing.T) {
	s := NewSet()
	span := at(1, 1, 1, 3)
	s.Add(Diagnostic{Kind: Type, Span: span, Message: "a"})
	s.Add(Diagnostic{Kind: Type, Span: span, Message: "b"})
	out := s.Sorted()
	if out[0].Message != "a" || out[1].Message != "b" {
		t.Errorf("insertion order not preserved for equal spans: %q, %q", out[0].Message, out[1].Message)
	}
}

func TestStringFormat(t *testing.T) {
	s := NewSet()
	s.Add(Diagnostic{
		Kind:    Name,
		Span:    at(2, 6, 2, 6),
		Message: "Duplicate identifier 'x'",
		Notes:   []Note{{Span: at(1, 6, 1, 6), Message: "previously defined here"}},
	})
	want := "2.6-2.6: NameError: Duplicate identifier 'x'\n" +
		"    note: 1.6-1.6: previously defined here"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestKindNames(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Syntax, "SyntaxError"},
		{Name, "NameError"},
		{Type, "TypeError"},
		{Const, "ConstError"},
		{Internal, "InternalError"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tc.kind), got, tc.want)
		}
	}
}

func TestFirstOnEmptySet(t *testing.T) {
	s := NewSet()
	if _, ok := s.First(); ok {
		t.Fatal("First on an empty set returned ok")
	}
	if s.HasErrors() {
		t.Fatal("empty set reports errors")
	}
}

package source

import "testing"

func TestCombineTakesOuterBounds(t *testing.T) {
	a := Span{Begin: Position{Line: 1, Col: 5}, End: Position{Line: 1, Col: 9}}
	b := Span{Begin: Position{Line: 1, Col: 2}, End: Position{Line: 2, Col: 3}}

	got := Combine(a, b)
	want := Span{Begin: Position{Line: 1, Col: 2}, End: Position{Line: 2, Col: 3}}
	if got != want {
		t.Errorf("Combine = %v, want %v", got, want)
	}
	// Combine is symmetric.
	if Combine(b, a) != want {
		t.Error("Combine is not symmetric")
	}
	// Combining a span with itself is the identity.
	if Combine(a, a) != a {
		t.Error("Combine(a, a) != a")
	}
}

func TestSpanTotalOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{
			"earlier line sorts first",
			Span{Begin: Position{1, 9}, End: Position{1, 9}},
			Span{Begin: Position{2, 1}, End: Position{2, 1}},
			true,
		},
		{
			"same line, earlier column sorts first",
			Span{Begin: Position{3, 2}, End: Position{3, 4}},
			Span{Begin: Position{3, 7}, End: Position{3, 8}},
			true,
		},
		{
			"same begin, shorter span sorts first",
			Span{Begin: Position{1, 1}, End: Position{1, 3}},
			Span{Begin: Position{1, 1}, End: Position{1, 8}},
			true,
		},
		{
			"identical spans are not less",
			Span{Begin: Position{1, 1}, End: Position{1, 3}},
			Span{Begin: Position{1, 1}, End: Position{1, 3}},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Less(tc.b); got != tc.want {
				t.Errorf("(%v).Less(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if tc.want && tc.b.Less(tc.a) {
				t.Error("order is not antisymmetric")
			}
		})
	}
}

func TestSpanString(t *testing.T) {
	s := Span{Begin: Position{Line: 4, Col: 2}, End: Position{Line: 4, Col: 17}}
	if got, want := s.String(), "4.2-4.17"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

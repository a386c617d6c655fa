package codegen

import "exc/internal/function"

// Temporary is one Complex-typed alloca the unwind planner must destroy on
// every path that constructs it. Slot is an opaque handle to the emitted
// storage (codegen.go stores an llvm.Value there); keeping this package's
// scope-stack bookkeeping free of a direct go-llvm dependency lets it be
// exercised by plain Go unit tests.
type Temporary struct {
	Dtor *function.Descriptor
	Slot interface{}
}

// scope is one conditional region's recorded temporaries, oldest first
// (construction order).
type scope struct {
	temps []Temporary
}

// Planner maintains the stack of conditional scopes described in spec §4.6:
// every temporary constructed inside an `if` branch is recorded at the top
// of the stack, and closing that scope produces the cascade needed to
// destroy exactly the temporaries actually constructed on the path taken.
type Planner struct {
	stack []*scope
}

// NewPlanner returns an empty unwind planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Push opens a new conditional scope, e.g. entering an if branch.
func (p *Planner) Push() {
	p.stack = append(p.stack, &scope{})
}

// Record registers a temporary at the current scope's top.
func (p *Planner) Record(dtor *function.Descriptor, slot interface{}) {
	top := p.stack[len(p.stack)-1]
	top.temps = append(top.temps, Temporary{Dtor: dtor, Slot: slot})
}

// Depth reports how many scopes are currently open.
func (p *Planner) Depth() int {
	return len(p.stack)
}

// UnwindPlan is what codegen needs to emit when a scope closes. An empty
// plan (NeedsCascade == false) means the branch that opened the scope
// recorded no temporaries and no destructor calls are emitted for it.
type UnwindPlan struct {
	NeedsCascade bool
	// ReverseOrder lists the scope's temporaries in destruction order
	// (reverse of construction order).
	ReverseOrder []Temporary
}

// Pop closes the current scope and returns the plan for destroying
// whatever it recorded.
func (p *Planner) Pop() UnwindPlan {
	n := len(p.stack) - 1
	s := p.stack[n]
	p.stack = p.stack[:n]
	if len(s.temps) == 0 {
		return UnwindPlan{}
	}
	rev := make([]Temporary, len(s.temps))
	for i, t := range s.temps {
		rev[len(s.temps)-1-i] = t
	}
	return UnwindPlan{NeedsCascade: true, ReverseOrder: rev}
}

package exc

import (
	"fmt"
	"unsafe"
)

// ExecutionContext is one running instance of a compiled program's state:
// the tail storage every declaration's generated function addresses by
// byte offset (internal/codegen's varPtr), preceded by nothing beyond the
// alignment padding needed to reach it. Grounded on
// original_source/lib/codegen/jex_executioncontext.cpp's ExecutionContext,
// whose `operator new(size_t, const CompileResult&)` allocates
// objectSize + context_size as one block and whose `char d_data[0]
// alignas(std::max_align_t)` flexible array member gives the tail the
// platform's maximum alignment. Go has neither placement new nor a
// flexible array member, so this port allocates a single over-sized []byte
// and computes the tail's aligned address by hand instead of relying on
// the allocator's natural alignment, which holds only coincidentally for
// any given Size/Align combination.
//
// Unlike the original, ExecutionContext carries no cached function
// pointers of its own: __init_rctx and __destruct_rctx are invoked by name
// through the owning CompileResult's Linker, since that's the only handle
// this port has to compiled native code (see internal/jit). The original's
// caching exists to avoid a lookup per construction; here Linker.CallVoid
// already resolves the declaration function by llvm.Module.NamedFunction,
// which is a map lookup, not a symbol-table search, so there is no
// equivalent cost to amortize.
type ExecutionContext struct {
	result *CompileResult
	buf    []byte
	tail   unsafe.Pointer
	closed bool
}

// NewExecutionContext allocates a fresh tail region sized and aligned per
// result's Layout, runs __init_rctx over it, and returns ownership to the
// caller. The original's partial-construction-failure requirement (destroy
// already-constructed Complex slots if __init_rctx fails part-way through)
// does not arise here: __init_rctx is compiled native code with no failure
// path of its own (every constructor call it contains is unconditional,
// and by the time Compile has returned a CompileResult, every such call
// was already resolved to a real native entry by Link), so construction
// can only fail if result has already been closed.
func NewExecutionContext(result *CompileResult) (*ExecutionContext, error) {
	size := result.layout.Size
	align := result.layout.Align
	if align < 1 {
		align = 1
	}
	// size+align (not size+align-1) keeps the buffer non-empty even for a
	// program with no declarations, where Layout.Size is zero.
	buf := make([]byte, size+align)
	raw := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (raw + align - 1) &^ (align - 1)
	tail := unsafe.Pointer(aligned)

	ec := &ExecutionContext{result: result, buf: buf, tail: tail}
	if err := result.linker.CallVoid("__init_rctx", tail); err != nil {
		return nil, fmt.Errorf("exc: constructing execution context: %w", err)
	}
	return ec, nil
}

// Eval runs the compiled declaration named name (a const or expr form,
// T* NAME(rctx*)) against this context and returns the pointer to its
// result, which is the declaration's slot in this context's storage — it
// must not be used after Close.
func (ec *ExecutionContext) Eval(name string) (unsafe.Pointer, error) {
	if ec.closed {
		return nil, fmt.Errorf("exc: execution context already closed")
	}
	return ec.result.linker.CallDecl(name, ec.tail)
}

// Set runs the compiled declaration named name (an uninitialized var form,
// void NAME(rctx*, T*)), copying the value valuePtr points to into the
// declaration's slot.
func (ec *ExecutionContext) Set(name string, valuePtr unsafe.Pointer) error {
	if ec.closed {
		return fmt.Errorf("exc: execution context already closed")
	}
	return ec.result.linker.CallSetter(name, ec.tail, valuePtr)
}

// Close runs __destruct_rctx over the context's tail storage, tearing down
// every Complex slot in reverse layout order, and releases the context.
// Close is idempotent; calling it more than once after the first call is a
// no-op, matching the original's single destructor-run-then-free sequence.
func (ec *ExecutionContext) Close() error {
	if ec.closed {
		return nil
	}
	ec.closed = true
	return ec.result.linker.CallVoid("__destruct_rctx", ec.tail)
}

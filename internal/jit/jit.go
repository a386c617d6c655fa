// Package jit links a codegen-produced LLVM module into runnable native
// code and resolves its external symbol references. Grounded on
// original_source/lib/codegen/jex_backend.cpp's Backend: the original builds
// an ORC LLJIT, adds the module, and binds every FctInfo the environment
// actually used as an absolute symbol before the first lookup. This port
// substitutes tinygo.org/x/go-llvm's MCJIT ExecutionEngine for ORC's LLJIT
// (go-llvm does not expose ORC), and AddGlobalMapping for absoluteSymbols;
// the effect is the same, a mangled name becomes callable native code before
// any generated function runs.
package jit

import (
	"fmt"
	"strings"
	"unsafe"

	"tinygo.org/x/go-llvm"

	"exc/internal/function"
)

var targetInitialized bool

// initializeTarget performs the one-time native target setup
// jex_backend.cpp's Backend::initialize does (InitializeNativeTarget plus
// its asm printer/parser), required once per process before MCJIT can
// compile anything.
func initializeTarget() {
	if targetInitialized {
		return
	}
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()
	llvm.InitializeNativeAsmParser()
	targetInitialized = true
}

// Linker owns the MCJIT execution engine for one compiled module and the
// function library it resolves external declarations against.
type Linker struct {
	engine llvm.ExecutionEngine
	module llvm.Module
	funcs  *function.Library
}

// New creates a Linker over mod. mod is consumed by the execution engine
// the way module->releaseModule() is in jex_backend.cpp: callers must not
// use mod directly once it has been passed here, only through the Linker.
// optLevel is MCJIT's own 0-3 optimization level (cmd/excc's "-O0".."-O3"
// flags), clamped into range rather than rejected, since an out-of-range
// request is a CLI usage detail, not something this package should fail
// a whole compile over.
func New(mod llvm.Module, funcs *function.Library, optLevel int) (*Linker, error) {
	initializeTarget()
	if optLevel < 0 {
		optLevel = 0
	}
	if optLevel > 3 {
		optLevel = 3
	}
	opts := llvm.NewMCJITCompilerOptions()
	opts.SetMCJITOptimizationLevel(optLevel)
	engine, err := llvm.NewMCJITCompiler(mod, opts)
	if err != nil {
		return nil, fmt.Errorf("jit: creating MCJIT execution engine: %w", err)
	}
	return &Linker{engine: engine, module: mod, funcs: funcs}, nil
}

// Link walks every function declared but not defined in the module (every
// external, non-intrinsic descriptor internal/codegen emitted a call to)
// and binds its mangled name to the descriptor's native Entry pointer via
// AddGlobalMapping, the Go analogue of absoluteSymbols in
// jex_backend.cpp's jit(). Functions whose name begins with "llvm." are
// skipped: those are LLVM's own target intrinsics (llvm.memset.*, emitted
// by internal/codegen's zero-initialization path) and MCJIT resolves them
// itself.
func (l *Linker) Link() error {
	for fn := l.module.FirstFunction(); !fn.IsNil(); fn = fn.NextFunction() {
		if !fn.IsDeclaration() {
			continue
		}
		name := fn.Name()
		if strings.HasPrefix(name, "llvm.") {
			continue
		}
		d, ok := l.funcs.ByMangled(name)
		if !ok {
			return fmt.Errorf("jit: no function-library entry for external symbol %q", name)
		}
		if d.Entry == nil {
			return fmt.Errorf("jit: external descriptor %q has no native entry point to bind", d.String())
		}
		l.engine.AddGlobalMapping(fn, d.Entry)
	}
	return nil
}

// FunctionAddress returns the native code address MCJIT compiled funcName
// to, the Go analogue of Backend::getFctPtr.
func (l *Linker) FunctionAddress(funcName string) (uintptr, error) {
	fn := l.module.NamedFunction(funcName)
	if fn.IsNil() {
		return 0, fmt.Errorf("jit: no function named %q in module", funcName)
	}
	addr := l.engine.FunctionAddress(funcName)
	if addr == 0 {
		return 0, fmt.Errorf("jit: MCJIT produced no code for %q", funcName)
	}
	return uintptr(addr), nil
}

// CallDecl runs the compiled declaration function declName, a generated
// T* NAME(rctx*) per internal/codegen's const/expr form, passing rctx and
// returning the result pointer it computed.
func (l *Linker) CallDecl(declName string, rctx unsafe.Pointer) (unsafe.Pointer, error) {
	fn := l.module.NamedFunction(declName)
	if fn.IsNil() {
		return nil, fmt.Errorf("jit: no declaration function named %q", declName)
	}
	arg := llvm.NewGenericValueFromPointer(rctx)
	result := l.engine.RunFunction(fn, []llvm.GenericValue{arg})
	return result.Pointer(), nil
}

// CallSetter runs a generated void NAME(rctx*, T*) setter, internal/
// codegen's form for an uninitialized "var" declaration, copying the value
// at valuePtr into the declaration's slot inside rctx.
func (l *Linker) CallSetter(declName string, rctx, valuePtr unsafe.Pointer) error {
	fn := l.module.NamedFunction(declName)
	if fn.IsNil() {
		return fmt.Errorf("jit: no setter function named %q", declName)
	}
	args := []llvm.GenericValue{
		llvm.NewGenericValueFromPointer(rctx),
		llvm.NewGenericValueFromPointer(valuePtr),
	}
	l.engine.RunFunction(fn, args)
	return nil
}

// CallVoid runs a generated void NAME(rctx*) function taking no argument
// beyond the context pointer: __init_rctx and __destruct_rctx are the only
// two that always exist.
func (l *Linker) CallVoid(declName string, rctx unsafe.Pointer) error {
	fn := l.module.NamedFunction(declName)
	if fn.IsNil() {
		return fmt.Errorf("jit: no function named %q", declName)
	}
	arg := llvm.NewGenericValueFromPointer(rctx)
	l.engine.RunFunction(fn, []llvm.GenericValue{arg})
	return nil
}

// Dispose releases the execution engine and the module it owns.
func (l *Linker) Dispose() {
	l.engine.Dispose()
}

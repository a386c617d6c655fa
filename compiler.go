// Package exc is the compile driver and execution-context runtime: it
// wires the lexer, parser, inference, folding, code generation, and JIT
// linking stages together into one Compile entry point, and provides the
// ExecutionContext helper compiled programs run against. Grounded on
// original_source/lib/core/jex_jexc.cpp's top-level driver function
// (lex -> parse -> infer -> fold -> codegen -> jit, in that order, bailing
// out after the first stage that reports any diagnostic) and
// jex_executioncontext.cpp for the context lifecycle (see context.go).
package exc

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"exc/internal/ast"
	"exc/internal/codegen"
	"exc/internal/diag"
	"exc/internal/fold"
	"exc/internal/function"
	"exc/internal/infer"
	"exc/internal/jit"
	"exc/internal/lexer"
	"exc/internal/parser"
	"exc/internal/registry"
	"exc/internal/symtab"
	"exc/internal/types"
)

// DeclKind distinguishes the three declaration forms spec §6's ABI table
// gives distinct generated signatures: Var gets a setter, Const and Expr
// both get a getter but differ in where their value comes from.
type DeclKind int

const (
	// VarDeclKind is an uninitialized caller-supplied slot: void NAME(rctx*, T*).
	VarDeclKind DeclKind = iota
	// ConstDeclKind is a folded-at-compile-time constant: T* NAME(rctx*).
	ConstDeclKind
	// ExprDeclKind is an expression computed each time its declaration
	// function is called: T* NAME(rctx*).
	ExprDeclKind
)

// DeclInfo describes one top-level declaration for callers that need to
// know a compiled program's shape without reparsing it, such as
// internal/replsrv's result printer.
type DeclInfo struct {
	Name string
	Type *types.Type
	Kind DeclKind
}

// CompileResult is the read-only product of a successful Compile: it owns
// the JIT-linked module, the constant store, and the context-size metadata
// every ExecutionContext built from it needs (spec §5's resource-ownership
// paragraph). It is safe to share across goroutines; distinct
// ExecutionContext values built from the same CompileResult may run
// concurrently, since each generated declaration entry point touches only
// the context it's given.
type CompileResult struct {
	linker *jit.Linker
	store  *fold.Store
	layout codegen.Layout
	llctx  llvm.Context
	decls  []DeclInfo
}

// Declarations returns this compilation's top-level declarations in source
// order, each tagged with the generated-symbol form internal/replsrv needs
// to decide whether to call a declaration or merely announce it.
func (r *CompileResult) Declarations() []DeclInfo {
	return r.decls
}

// Layout returns the execution context's tail layout: slot offsets, total
// size, and alignment.
func (r *CompileResult) Layout() codegen.Layout {
	return r.layout
}

// Store returns the constant store backing this compilation's
// ConstantRef-lowered literals. Its entries outlive the CompileResult, so
// it remains safe to dereference from compiled code for the process's
// lifetime.
func (r *CompileResult) Store() *fold.Store {
	return r.store
}

// Close releases the JIT execution engine and its LLVM context. Callers
// must not use any ExecutionContext built from this result, nor call any
// compiled declaration, after Close.
func (r *CompileResult) Close() {
	r.linker.Dispose()
	r.llctx.Dispose()
}

// CompileOptions are cmd/excc's "-O0".."-O3", "-i"/"--no-intrinsics" and
// "-c"/"--no-const-folding" flags threaded down into the pipeline. The zero
// value (OptLevel 0, folding and intrinsics both enabled) is Compile's
// behavior.
type CompileOptions struct {
	OptLevel          int
	DisableFolding    bool
	DisableIntrinsics bool

	// OnParsed and OnFolded, if non-nil, are called with the syntax tree
	// right after parsing and right after folding (cmd/excc's "-vb"
	// verbose dump, SPEC_FULL §7.2: the tree "before/after folding").
	// OnFolded still runs when DisableFolding is set, over the unfolded
	// tree, so -vb -c together show the same tree twice rather than a
	// nil one.
	OnParsed func(*ast.Root)
	OnFolded func(*ast.Root)
}

// Compile lowers src through the full pipeline — lex, parse, infer, fold,
// generate, link — against the host modules it registers, and returns
// either a linked CompileResult or the full ordered diagnostic set, never
// both (spec §7's "CompileResult is either the full ordered diagnostic set
// or a linked module" policy). The pipeline is single-threaded and stops at
// the first stage that reports any diagnostic, matching jex_jexc.cpp's
// driver: later stages assume well-formed input from earlier ones and are
// not safe to run over a tree with unresolved names or types. Compile is
// CompileWithOptions with every option at its default.
func Compile(src string, modules ...registry.Module) (*CompileResult, *diag.Set) {
	return CompileWithOptions(src, CompileOptions{}, modules...)
}

// CompileWithOptions is Compile with cmd/excc's optimization/folding/
// intrinsics flags applied.
func CompileWithOptions(src string, opts CompileOptions, modules ...registry.Module) (*CompileResult, *diag.Set) {
	diags := diag.NewSet()

	typs := types.NewTable()
	funcs := function.NewLibrary()
	syms := symtab.New()
	reg := registry.New(typs, funcs, syms)
	if err := registry.Apply(reg, modules...); err != nil {
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("registering host modules: %s", err), Fatal: true})
		return nil, diags
	}
	// "if" is grammar, not a host-registered function (internal/parser
	// lowers any call to it directly into an *ast.If node), but it still
	// has to resolve as a callable name for parseIdentOrCall's lookup to
	// succeed, matching parser_test.go's own fixture setup.
	syms.SeedFunction("if", typs.Unresolved())

	lex := lexer.New(src, diags)
	p := parser.New(lex, syms, typs, diags)
	root := p.Parse()
	if opts.OnParsed != nil {
		opts.OnParsed(root)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	infer.New(funcs, typs, diags).Run(root)
	if diags.HasErrors() {
		return nil, diags
	}

	store := fold.NewStore()
	if !opts.DisableFolding {
		fold.New(typs, store, diags).Run(root)
		if diags.HasErrors() {
			return nil, diags
		}
	}
	if opts.OnFolded != nil {
		opts.OnFolded(root)
	}

	layout := codegen.Compute(declSites(root))

	llctx := llvm.NewContext()
	gen := codegen.New(llctx, "program", funcs, store)
	gen.SetDisableIntrinsics(opts.DisableIntrinsics)
	if err := gen.Generate(root, layout); err != nil {
		llctx.Dispose()
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("generating code: %s", err), Fatal: true})
		return nil, diags
	}

	linker, err := jit.New(gen.Module(), funcs, opts.OptLevel)
	if err != nil {
		llctx.Dispose()
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("creating JIT engine: %s", err), Fatal: true})
		return nil, diags
	}
	if err := linker.Link(); err != nil {
		linker.Dispose()
		llctx.Dispose()
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("linking: %s", err), Fatal: true})
		return nil, diags
	}

	return &CompileResult{
		linker: linker,
		store:  store,
		layout: layout,
		llctx:  llctx,
		decls:  declInfos(root),
	}, diags
}

// EmitLLVM runs the pipeline through code generation only — no JIT engine,
// no linking — and returns the generated module's textual IR, for cmd/excc's
// "-l"/"--emit-llvm" flag (SPEC_FULL §7.3). Diagnostics behave exactly as in
// CompileWithOptions; a non-empty diagnostic set means the returned string
// is empty.
func EmitLLVM(src string, opts CompileOptions, modules ...registry.Module) (string, *diag.Set) {
	diags := diag.NewSet()

	typs := types.NewTable()
	funcs := function.NewLibrary()
	syms := symtab.New()
	reg := registry.New(typs, funcs, syms)
	if err := registry.Apply(reg, modules...); err != nil {
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("registering host modules: %s", err), Fatal: true})
		return "", diags
	}
	syms.SeedFunction("if", typs.Unresolved())

	lex := lexer.New(src, diags)
	p := parser.New(lex, syms, typs, diags)
	root := p.Parse()
	if opts.OnParsed != nil {
		opts.OnParsed(root)
	}
	if diags.HasErrors() {
		return "", diags
	}

	infer.New(funcs, typs, diags).Run(root)
	if diags.HasErrors() {
		return "", diags
	}

	store := fold.NewStore()
	if !opts.DisableFolding {
		fold.New(typs, store, diags).Run(root)
		if diags.HasErrors() {
			return "", diags
		}
	}
	if opts.OnFolded != nil {
		opts.OnFolded(root)
	}

	layout := codegen.Compute(declSites(root))

	llctx := llvm.NewContext()
	defer llctx.Dispose()
	gen := codegen.New(llctx, "program", funcs, store)
	gen.SetDisableIntrinsics(opts.DisableIntrinsics)
	if err := gen.Generate(root, layout); err != nil {
		diags.Add(diag.Diagnostic{Kind: diag.Internal, Message: fmt.Sprintf("generating code: %s", err), Fatal: true})
		return "", diags
	}

	return gen.Module().String(), diags
}

// declSites builds codegen.Compute's input from root's declarations, in
// the same order registered in the symbol table; layout assigns their
// final order by size/name, so the slice's order here is irrelevant.
func declSites(root *ast.Root) []codegen.DeclSite {
	sites := make([]codegen.DeclSite, len(root.Decls))
	for i, d := range root.Decls {
		sites[i] = codegen.DeclSite{Name: d.DeclName(), Type: d.DeclType()}
	}
	return sites
}

// declInfos classifies each of root's declarations by the generated-symbol
// form codegen emits for it, so callers that only have a CompileResult
// (not the ast.Root that produced it) can still tell a setter from a
// getter apart.
func declInfos(root *ast.Root) []DeclInfo {
	infos := make([]DeclInfo, len(root.Decls))
	for i, d := range root.Decls {
		kind := ExprDeclKind
		switch d.(type) {
		case *ast.VarDecl:
			kind = VarDeclKind
		case *ast.ConstDecl:
			kind = ConstDeclKind
		case *ast.ExprDecl:
			kind = ExprDeclKind
		}
		infos[i] = DeclInfo{Name: d.DeclName(), Type: d.DeclType(), Kind: kind}
	}
	return infos
}

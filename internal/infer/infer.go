// Package infer implements the post-order type inference pass described in
// spec §3/§4.3: resolve each call/operator node's result type against the
// function library, validate the if-intrinsic's shape, collapse saturated
// variadic arguments into a VarArg node, and check declaration annotations
// against their initializer's result type. Grounded on
// original_source/lib/core/jex_typeinference.cpp (resolveFct, the
// already-an-error follow-up suppression, the declaration type-mismatch
// check); the if-intrinsic and VarArg-collapsing rules come from spec §4.3
// directly since the retrieved original slice predates both features.
package infer

import (
	"fmt"

	"exc/internal/ast"
	"exc/internal/diag"
	"exc/internal/function"
	"exc/internal/source"
	"exc/internal/types"
)

// Inference runs the pass over a parsed root.
type Inference struct {
	funcs *function.Library
	typs  *types.Table
	diags *diag.Set
}

// New returns an Inference pass resolving calls/operators against funcs and
// reporting diagnostics into diags.
func New(funcs *function.Library, typs *types.Table, diags *diag.Set) *Inference {
	return &Inference{funcs: funcs, typs: typs, diags: diags}
}

// Run type-infers every declaration's initializer in root, in declaration
// order.
func (inf *Inference) Run(root *ast.Root) {
	for _, decl := range root.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			// no initializer to infer
		case *ast.ConstDecl:
			d.Init = inf.expr(d.Init)
			inf.checkDecl(d.DeclType(), d.DeclName(), d.Init)
		case *ast.ExprDecl:
			d.Init = inf.expr(d.Init)
			inf.checkDecl(d.DeclType(), d.DeclName(), d.Init)
		}
	}
}

func (inf *Inference) checkDecl(declared types.ID, name string, got ast.Expr) {
	if got == nil {
		return
	}
	exprType := got.ResultType()
	if !inf.typs.IsResolved(exprType) {
		// already diagnosed deeper in the tree; don't pile on
		return
	}
	if declared != exprType {
		inf.diags.Add(diag.Diagnostic{
			Kind: diag.Type,
			Span: got.Span(),
			Message: fmt.Sprintf(
				"invalid type for %q: declared as %q but initializer is %q",
				name, declared.Name, exprType.Name),
		})
	}
}

// expr recurses into e post-order, resolving e's own result type in terms
// of its (already resolved) children, and returns e itself (or a
// replacement, in the VarArg-collapsing case the replacement is folded
// back into the parent's argument list by call/if handling, not here).
func (inf *Inference) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Literal:
		// literals carry their resolved type from the parser already
		return n
	case *ast.Identifier:
		// identifier types are resolved at parse time against the symbol
		// table; nothing to do here
		return n
	case *ast.ConstantRef:
		return n
	case *ast.Unary:
		n.Operand = inf.expr(n.Operand)
		inf.resolveUnary(n)
		return n
	case *ast.Binary:
		n.Lhs = inf.expr(n.Lhs)
		n.Rhs = inf.expr(n.Rhs)
		inf.resolveBinary(n)
		return n
	case *ast.If:
		n.Cond = inf.expr(n.Cond)
		n.Then = inf.expr(n.Then)
		n.Else = inf.expr(n.Else)
		inf.resolveIf(n)
		return n
	case *ast.Call:
		for i, a := range n.Args {
			n.Args[i] = inf.expr(a)
		}
		inf.resolveCall(n)
		return n
	case *ast.VarArg:
		for i, el := range n.Elems {
			n.Elems[i] = inf.expr(el)
		}
		return n
	default:
		return n
	}
}

// argsResolved reports whether every expr's result type is resolved,
// matching the original's "there is already an error, don't cascade" guard.
func (inf *Inference) argsResolved(exprs ...ast.Expr) bool {
	for _, e := range exprs {
		if e == nil || !inf.typs.IsResolved(e.ResultType()) {
			return false
		}
	}
	return true
}

func (inf *Inference) resolveUnary(n *ast.Unary) {
	if !inf.argsResolved(n.Operand) {
		return
	}
	d, err := inf.funcs.Get(n.Op.FuncName(), []types.ID{n.Operand.ResultType()})
	if err != nil {
		inf.diags.Add(diag.Diagnostic{Kind: diag.Type, Span: n.Span(), Message: err.Error()})
		return
	}
	n.Fct = d
	n.SetResultType(d.Ret)
}

func (inf *Inference) resolveBinary(n *ast.Binary) {
	if !inf.argsResolved(n.Lhs, n.Rhs) {
		return
	}
	d, err := inf.funcs.Get(n.Op.FuncName(), []types.ID{n.Lhs.ResultType(), n.Rhs.ResultType()})
	if err != nil {
		inf.diags.Add(diag.Diagnostic{Kind: diag.Type, Span: n.Span(), Message: err.Error()})
		return
	}
	n.Fct = d
	n.SetResultType(d.Ret)
}

// resolveIf validates the three-argument conditional intrinsic: cond must
// be Bool, then/else must share a type, and that shared type becomes the
// node's own result type (spec §4.3). The if intrinsic is handled
// specially rather than via the function library: it has no fixed return
// type to register a descriptor under since its result type depends on its
// operands, unlike every other call.
func (inf *Inference) resolveIf(n *ast.If) {
	if !inf.argsResolved(n.Cond, n.Then, n.Else) {
		return
	}
	boolType := inf.typs.Get("Bool")
	if n.Cond.ResultType() != boolType {
		inf.diags.Add(diag.Diagnostic{
			Kind: diag.Type, Span: n.Cond.Span(),
			Message: fmt.Sprintf("if condition must be Bool, got %q", n.Cond.ResultType().Name),
		})
		return
	}
	if n.Then.ResultType() != n.Else.ResultType() {
		inf.diags.Add(diag.Diagnostic{
			Kind: diag.Type, Span: n.Span(),
			Message: fmt.Sprintf("if branches must share a type, got %q and %q",
				n.Then.ResultType().Name, n.Else.ResultType().Name),
		})
		return
	}
	n.SetResultType(n.Then.ResultType())
}

func (inf *Inference) resolveCall(n *ast.Call) {
	if !inf.argsResolved(n.Args...) {
		return
	}
	argTypes := make([]types.ID, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = a.ResultType()
	}
	d, err := inf.funcs.Get(n.Callee.Name, argTypes)
	if err != nil {
		inf.diags.Add(diag.Diagnostic{Kind: diag.Type, Span: n.Span(), Message: err.Error()})
		return
	}
	n.Fct = d
	n.SetResultType(d.Ret)
	n.Args = collapseVarArgs(d, argTypes, n.Args)
}

// collapseVarArgs rewrites args so that each variadic parameter saturated
// by two or more positional arguments becomes a single *ast.VarArg holding
// those arguments, per spec §4.3. A variadic parameter fed exactly one
// argument is left as that argument, unwrapped: codegen's genVarArg and
// folding's foldCall wrap such a bare argument in a {pointer,count} header
// themselves, so the callee sees the same shape either way.
func collapseVarArgs(d *function.Descriptor, argTypes []types.ID, args []ast.Expr) []ast.Expr {
	counts := d.Bind(argTypes)
	if counts == nil {
		return args
	}
	out := make([]ast.Expr, 0, len(counts))
	ai := 0
	for pi, n := range counts {
		if d.Params[pi].Variadic && n > 1 {
			elems := append([]ast.Expr(nil), args[ai:ai+n]...)
			span := elems[0].Span()
			for _, e := range elems[1:] {
				span = source.Combine(span, e.Span())
			}
			out = append(out, ast.NewVarArg(span, d.Params[pi].Type, elems))
		} else {
			out = append(out, args[ai])
		}
		ai += n
	}
	return out
}

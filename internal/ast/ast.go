// Package ast defines the syntax tree described in spec §3: literals,
// identifiers, binary/unary expressions, calls (with a dedicated If
// variant), variable-argument lists, the three declaration kinds, and a
// root node. Every node carries a span and a result-type slot that starts
// Unresolved and is filled in by internal/infer.
//
// Node variants are modeled as an Expr interface implemented by small
// concrete structs rather than the teacher's single Node+interface{} Data
// shape (ir/nodetype.go): spec §8 requires deterministic, go-cmp-friendly
// output, which a single struct holding an interface{} payload makes easy
// to get subtly wrong (two structurally distinct nodes comparing equal
// because Data holds two different dynamic types with matching string
// forms). The "pattern matching on variant, no vtables" design note (spec
// §9) is honored via a type switch in each stage instead of a visitor
// interface.
package ast

import (
	"exc/internal/source"
	"exc/internal/symtab"
	"exc/internal/types"
)

// Expr is implemented by every expression-producing AST node.
type Expr interface {
	Span() source.Span
	ResultType() types.ID
	SetResultType(types.ID)
	exprNode()
}

type base struct {
	span   source.Span
	result types.ID
}

func (b *base) Span() source.Span        { return b.span }
func (b *base) ResultType() types.ID     { return b.result }
func (b *base) SetResultType(t types.ID) { b.result = t }
func (b *base) exprNode()                {}

// LitKind tags the dynamic payload of a Literal node.
type LitKind int

const (
	LitBool LitKind = iota
	LitInt
	LitFloat
	LitString
)

// Literal is a literal int/float/bool/string value. String values are
// interned via Arena.Intern before being stored here, per spec §3.
type Literal struct {
	base
	LitKind LitKind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
}

// NewLiteral constructs a Literal with the given span, type, and kind-typed
// payload; callers set exactly the field matching LitKind.
func NewLiteral(span source.Span, typ types.ID, kind LitKind) *Literal {
	return &Literal{base: base{span: span, result: typ}, LitKind: kind}
}

// Identifier is a reference to a declared variable/const/expr or, inside a
// Call's callee position, to a function/type name. Sym is filled in when
// the parser resolves the name against the symbol table; it is nil for
// names that failed to resolve, and Name still carries the attempted name.
type Identifier struct {
	base
	Name string
	Sym  *symtab.Symbol
}

func NewIdentifier(span source.Span, typ types.ID, name string, sym *symtab.Symbol) *Identifier {
	return &Identifier{base: base{span: span, result: typ}, Name: name, Sym: sym}
}

// BinOp enumerates binary operators, independent of the canonical function
// name inference desugars them to (spec §4.3).
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShrs
	OpShrz
	OpAnd
	OpOr
)

// FuncName returns the canonical function-library name a binary operator
// desugars to, e.g. OpAdd -> "operator_add", per spec §4.3.
func (op BinOp) FuncName() string {
	switch op {
	case OpAdd:
		return "operator_add"
	case OpSub:
		return "operator_sub"
	case OpMul:
		return "operator_mul"
	case OpDiv:
		return "operator_div"
	case OpMod:
		return "operator_mod"
	case OpEq:
		return "operator_eq"
	case OpNe:
		return "operator_ne"
	case OpLt:
		return "operator_lt"
	case OpLe:
		return "operator_le"
	case OpGt:
		return "operator_gt"
	case OpGe:
		return "operator_ge"
	case OpBitAnd:
		return "operator_bitand"
	case OpBitOr:
		return "operator_bitor"
	case OpBitXor:
		return "operator_bitxor"
	case OpShl:
		return "operator_shl"
	case OpShrs:
		return "operator_shrs"
	case OpShrz:
		return "operator_shrz"
	case OpAnd:
		return "operator_and"
	case OpOr:
		return "operator_or"
	default:
		return "operator_unknown"
	}
}

// Symbol returns the source-text operator spelling, for pretty printing.
func (op BinOp) Symbol() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "shl"
	case OpShrs:
		return "shrs"
	case OpShrz:
		return "shrz"
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// Binary is a two-operand operator expression. Fct is filled in by
// inference once the operator's canonical function name resolves.
type Binary struct {
	base
	Op       BinOp
	Lhs, Rhs Expr
	Fct      FuncRef
}

func NewBinary(span source.Span, op BinOp, lhs, rhs Expr) *Binary {
	return &Binary{base: base{span: span}, Op: op, Lhs: lhs, Rhs: rhs}
}

// UnOp enumerates unary operators.
type UnOp int

const (
	OpUMinus UnOp = iota
	OpNot
)

// FuncName returns the canonical function-library name, per spec §4.3.
func (op UnOp) FuncName() string {
	if op == OpNot {
		return "operator_not"
	}
	return "operator_uminus"
}

// Symbol returns the source-text spelling.
func (op UnOp) Symbol() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

// Unary is a single-operand operator expression.
type Unary struct {
	base
	Op      UnOp
	Operand Expr
	Fct     FuncRef
}

func NewUnary(span source.Span, op UnOp, operand Expr) *Unary {
	return &Unary{base: base{span: span}, Op: op, Operand: operand}
}

// FuncRef is an opaque handle to the resolved function.Descriptor for a
// call/operator node. Declared as an interface here (rather than importing
// internal/function directly) to keep this package free of a dependency
// edge that would otherwise tie ast to function and, transitively, to
// types' backend hooks; internal/infer and internal/codegen perform the
// concrete type assertion back to *function.Descriptor.
type FuncRef interface{}

// Call is a function-call expression: a callee identifier plus an ordered
// argument list. If is represented as the dedicated If type below rather
// than a general Call, per spec §3/§4.2 ("a call written as if(cond,a,b)
// produces the dedicated If node").
type Call struct {
	base
	Callee *Identifier
	Args   []Expr
	Fct    FuncRef
}

func NewCall(span source.Span, callee *Identifier, args []Expr) *Call {
	return &Call{base: base{span: span}, Callee: callee, Args: args}
}

// If is the three-argument conditional intrinsic: cond must be Bool, Then
// and Else must share a result type which becomes the If node's own result
// type (spec §4.3).
type If struct {
	base
	Cond, Then, Else Expr
}

func NewIf(span source.Span, cond, then, els Expr) *If {
	return &If{base: base{span: span}, Cond: cond, Then: then, Else: els}
}

// VarArg is produced by inference when a call saturates a variadic
// parameter with more than one argument (spec §3/§4.3); it folds to a
// {pointer,count} header plus packed element array (spec §4.4).
type VarArg struct {
	base
	Elems    []Expr
	ElemType types.ID
}

func NewVarArg(span source.Span, elemType types.ID, elems []Expr) *VarArg {
	return &VarArg{base: base{span: span, result: elemType}, Elems: elems, ElemType: elemType}
}

// ConstantRef is produced by constant folding: it carries the name of a
// buffer stored in the constant store rather than re-evaluating the
// subtree it replaced (spec §3/§4.4).
type ConstantRef struct {
	base
	Name string
}

func NewConstantRef(span source.Span, typ types.ID, name string) *ConstantRef {
	return &ConstantRef{base: base{span: span, result: typ}, Name: name}
}

// Decl is implemented by the three top-level declaration kinds.
type Decl interface {
	Span() source.Span
	DeclName() string
	DeclType() types.ID
	declNode()
}

type declBase struct {
	span source.Span
	name string
	typ  types.ID
}

func (d *declBase) Span() source.Span  { return d.span }
func (d *declBase) DeclName() string   { return d.name }
func (d *declBase) DeclType() types.ID { return d.typ }
func (d *declBase) declNode()          {}

// VarDecl is an uninitialized "var NAME: TYPE;" declaration; its context
// slot is populated at runtime through the generated setter, never by
// __init_rctx beyond default construction.
type VarDecl struct {
	declBase
}

func NewVarDecl(span source.Span, name string, typ types.ID) *VarDecl {
	return &VarDecl{declBase{span: span, name: name, typ: typ}}
}

// ConstDecl is a "const NAME: TYPE = EXPR;" declaration; Init must fold to
// a constant or the declaration is a fatal ConstError (spec §4.4).
type ConstDecl struct {
	declBase
	Init Expr
}

func NewConstDecl(span source.Span, name string, typ types.ID, init Expr) *ConstDecl {
	return &ConstDecl{declBase{span: span, name: name, typ: typ}, init}
}

// ExprDecl is an "expr NAME: TYPE = EXPR;" declaration; Init need not fold.
type ExprDecl struct {
	declBase
	Init Expr
}

func NewExprDecl(span source.Span, name string, typ types.ID, init Expr) *ExprDecl {
	return &ExprDecl{declBase{span: span, name: name, typ: typ}, init}
}

// Root is the ordered top-level sequence of declarations.
type Root struct {
	span  source.Span
	Decls []Decl
}

func NewRoot(span source.Span, decls []Decl) *Root {
	return &Root{span: span, Decls: decls}
}

// Span returns the root's span (covering its first to last declaration).
func (r *Root) Span() source.Span { return r.span }

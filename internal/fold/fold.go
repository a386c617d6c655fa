package fold

import (
	"fmt"
	"unsafe"

	"exc/internal/ast"
	"exc/internal/diag"
	"exc/internal/function"
	"exc/internal/source"
	"exc/internal/types"
)

// Folder runs the constant-folding pass over a type-inferred AST.
type Folder struct {
	typs  *types.Table
	store *Store
	diags *diag.Set

	litBufs map[*ast.Literal]*Buffer
	pending map[*ast.ConstantRef]*Entry
}

// New returns a Folder writing folded constants into store and reporting
// const-initializer failures into diags.
func New(typs *types.Table, store *Store, diags *diag.Set) *Folder {
	return &Folder{
		typs: typs, store: store, diags: diags,
		litBufs: make(map[*ast.Literal]*Buffer),
		pending: make(map[*ast.ConstantRef]*Entry),
	}
}

// Run folds every declaration's initializer. const declarations whose
// initializer does not fold to a constant get a fatal ConstError, per spec
// §4.4 ("const NAME... must fold to a constant").
func (f *Folder) Run(root *ast.Root) {
	for _, decl := range root.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			// nothing to fold
		case *ast.ConstDecl:
			folded := f.isConstant(f.foldInto(&d.Init))
			if !folded {
				f.diags.Add(diag.Diagnostic{
					Kind: diag.Const, Span: d.Init.Span(),
					Message: fmt.Sprintf("right hand side of constant %s is not a constant expression", d.DeclName()),
					Fatal:   true,
				})
				continue
			}
			f.storeIfConstant(d.Init)
		case *ast.ExprDecl:
			f.foldInto(&d.Init)
			f.storeIfConstant(d.Init)
		}
	}
}

func (f *Folder) foldInto(e *ast.Expr) ast.Expr {
	*e = f.fold(*e)
	return *e
}

func (f *Folder) isConstant(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Literal, *ast.ConstantRef:
		return true
	default:
		return false
	}
}

// fold performs one post-order folding step over e and returns the
// (possibly replaced) node.
func (f *Folder) fold(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Literal, *ast.ConstantRef, *ast.Identifier:
		return n
	case *ast.Unary:
		n.Operand = f.fold(n.Operand)
		if f.isConstant(n.Operand) && pure(n.Fct) {
			return f.foldCall(n.Span(), n.Fct.(*function.Descriptor), []ast.Expr{n.Operand})
		}
		f.storeIfConstant(n.Operand)
		return n
	case *ast.Binary:
		n.Lhs = f.fold(n.Lhs)
		n.Rhs = f.fold(n.Rhs)
		if f.isConstant(n.Lhs) && f.isConstant(n.Rhs) && pure(n.Fct) {
			return f.foldCall(n.Span(), n.Fct.(*function.Descriptor), []ast.Expr{n.Lhs, n.Rhs})
		}
		f.storeIfConstant(n.Lhs)
		f.storeIfConstant(n.Rhs)
		return n
	case *ast.Call:
		allConst := true
		for i := range n.Args {
			n.Args[i] = f.fold(n.Args[i])
			allConst = allConst && f.isConstant(n.Args[i])
		}
		if allConst && pure(n.Fct) {
			return f.foldCall(n.Span(), n.Fct.(*function.Descriptor), n.Args)
		}
		for _, a := range n.Args {
			f.storeIfConstant(a)
		}
		return n
	case *ast.If:
		n.Cond = f.fold(n.Cond)
		if !f.isConstant(n.Cond) {
			n.Then = f.fold(n.Then)
			f.storeIfConstant(n.Then)
			n.Else = f.fold(n.Else)
			f.storeIfConstant(n.Else)
			return n
		}
		condVal := *(*bool)(f.getPtr(n.Cond))
		chosen := n.Then
		if !condVal {
			chosen = n.Else
		}
		// The If node is discarded in favor of the chosen branch regardless
		// of whether that branch itself folds to a constant, per the
		// original's "this is going to replace the AstIf with 'expr'".
		return f.fold(chosen)
	case *ast.VarArg:
		allConst := true
		for i := range n.Elems {
			n.Elems[i] = f.fold(n.Elems[i])
			if !f.isConstant(n.Elems[i]) {
				allConst = false
			}
		}
		var result ast.Expr = n
		if allConst {
			result = f.foldVarArg(n)
		}
		// Elements are stored independently of whether the whole VarArg
		// folded, since the packed array holds copies, not references, and
		// would otherwise leave those element constants unreachable from
		// the store once the VarArg node itself is discarded.
		for _, el := range n.Elems {
			f.storeIfConstant(el)
		}
		return result
	default:
		return n
	}
}

func pure(ref ast.FuncRef) bool {
	d, ok := ref.(*function.Descriptor)
	return ok && d != nil && d.Pure()
}

// storeIfConstant promotes e's folded buffer into the permanent store if e
// is a *ast.ConstantRef produced by a fold that some ancestor chose not to
// absorb into a further fold. Literals are never promoted: they're cheap
// enough to re-materialize as inline IR constants in codegen, so giving
// them a named store entry would only waste a symbol.
func (f *Folder) storeIfConstant(e ast.Expr) {
	ref, ok := e.(*ast.ConstantRef)
	if !ok {
		return
	}
	if entry, pending := f.pending[ref]; pending {
		f.store.Insert(entry)
		delete(f.pending, ref)
	}
}

// foldCall evaluates a pure descriptor against already-constant args,
// producing a new *ast.ConstantRef backed by a freshly allocated buffer.
func (f *Folder) foldCall(span source.Span, d *function.Descriptor, args []ast.Expr) ast.Expr {
	resultType := d.Ret
	buf := allocBuffer(resultType.Size, resultType.Align)
	argPtrs := make([]unsafe.Pointer, 1+len(args))
	argPtrs[0] = buf.Ptr
	for i, a := range args {
		p := f.getPtr(a)
		if i < len(d.Params) && d.Params[i].Variadic && !f.isVarArgConst(a) {
			// A one-element variadic tail stays a bare argument in the AST
			// (inference only collapses two or more), but the Wrapper still
			// receives a {pointer, count} header so a variadic callee sees
			// one shape regardless of arity. The wrapping buffer only lives
			// for this call; the element constant itself is what persists.
			p = buildVarArgBuf(d.Params[i].Type, []unsafe.Pointer{p}).Ptr
		}
		argPtrs[1+i] = p
	}
	d.Wrapper(d.Entry, argPtrs)

	name := fmt.Sprintf("const_%s_l%d_c%d", resultType.Name, span.Begin.Line, span.Begin.Col)
	ref := ast.NewConstantRef(span, resultType, name)
	var dtor func(unsafe.Pointer)
	if resultType.Kind == types.Complex {
		dtor = resultType.Lifetime.Dtor
		// The Wrapper just wrote resultType's bytes into buf via unsafe
		// pointer arithmetic; any Go-managed pointer inside them (a String
		// result's backing array) is invisible to the GC until pinned, the
		// same hazard literalPtr's store.Pin guards against for literals.
		if pin := resultType.Lifetime.PinValue; pin != nil {
			f.store.Pin(pin(buf.Ptr))
		}
	}
	f.pending[ref] = &Entry{Name: name, Type: resultType, Buf: buf, Dtor: dtor}
	return ref
}

// varArgHeader is the {pointer, count} prefix of every variadic-tail
// buffer, matching codegen's {i8*, i64} header struct field for field.
type varArgHeader struct {
	Ptr   unsafe.Pointer
	Count int64
}

// buildVarArgBuf lays a variadic tail out as described in spec §4.4 and
// original_source's VarArg<void>: the header at offset zero, followed by a
// correctly-aligned packed array of copied element storage.
func buildVarArgBuf(elemType types.ID, elems []unsafe.Pointer) *Buffer {
	headerSize := unsafe.Sizeof(varArgHeader{})
	arraySize := elemType.Size * uintptr(len(elems))
	buf := allocBuffer(headerSize+elemType.Align+arraySize, 8)

	base := uintptr(buf.Ptr)
	arrayBase := (base + headerSize + elemType.Align - 1) &^ (elemType.Align - 1)
	*(*varArgHeader)(buf.Ptr) = varArgHeader{Ptr: unsafe.Pointer(arrayBase), Count: int64(len(elems))}

	for i, src := range elems {
		dst := unsafe.Pointer(arrayBase + uintptr(i)*elemType.Size)
		copy(unsafe.Slice((*byte)(dst), elemType.Size), unsafe.Slice((*byte)(src), elemType.Size))
	}
	return buf
}

// isVarArgConst reports whether e is a ConstantRef backed by an
// aggregation entry (one produced by foldVarArg), as opposed to a plain
// folded value.
func (f *Folder) isVarArgConst(e ast.Expr) bool {
	ref, ok := e.(*ast.ConstantRef)
	if !ok {
		return false
	}
	if entry, pending := f.pending[ref]; pending {
		return entry.VarArg
	}
	if entry := f.store.Get(ref.Name); entry != nil {
		return entry.VarArg
	}
	return false
}

// foldVarArg builds the {pointer,count} header plus packed element array
// for a fully-constant VarArg node and returns the *ast.ConstantRef
// replacing it.
func (f *Folder) foldVarArg(n *ast.VarArg) ast.Expr {
	elemType := n.ElemType
	srcs := make([]unsafe.Pointer, len(n.Elems))
	for i, el := range n.Elems {
		srcs[i] = f.getPtr(el)
	}
	buf := buildVarArgBuf(elemType, srcs)

	name := fmt.Sprintf("const_vararg_%s_l%d_c%d", elemType.Name, n.Span().Begin.Line, n.Span().Begin.Col)
	ref := ast.NewConstantRef(n.Span(), elemType, name)
	f.pending[ref] = &Entry{Name: name, Type: elemType, Buf: buf, VarArg: true}
	return ref
}

// getPtr returns a pointer to e's evaluated bytes. e must be constant
// (isConstant(e) == true): a Literal materializes its buffer lazily: a
// ConstantRef looks up its (possibly still-pending) entry.
func (f *Folder) getPtr(e ast.Expr) unsafe.Pointer {
	switch n := e.(type) {
	case *ast.Literal:
		return f.literalPtr(n).Ptr
	case *ast.ConstantRef:
		if entry, ok := f.pending[n]; ok {
			return entry.Buf.Ptr
		}
		if entry := f.store.Get(n.Name); entry != nil {
			return entry.Buf.Ptr
		}
		panic("fold: constant ref " + n.Name + " has no backing buffer")
	default:
		panic(fmt.Sprintf("fold: getPtr called on non-constant node %T", e))
	}
}

func (f *Folder) literalPtr(lit *ast.Literal) *Buffer {
	if b, ok := f.litBufs[lit]; ok {
		return b
	}
	typ := lit.ResultType()
	b := allocBuffer(typ.Size, typ.Align)
	switch lit.LitKind {
	case ast.LitBool:
		*(*bool)(b.Ptr) = lit.Bool
	case ast.LitInt:
		*(*int64)(b.Ptr) = lit.Int
	case ast.LitFloat:
		*(*float64)(b.Ptr) = lit.Float
	case ast.LitString:
		*(*string)(b.Ptr) = lit.Str
		f.store.Pin(lit.Str)
	}
	f.litBufs[lit] = b
	return b
}

// Package codegen (continued): the LLVM IR generator itself. Grounded on
// original_source/lib/codegen/jex_codegenvisitor.cpp: one exported function
// per declaration, signature Fn(rctx*) -> resultPtr, storage addressed by
// bitcasting rctx to i8* and GEP-ing by the declaration's precomputed byte
// offset (getVarPtr) rather than by indexing a real LLVM struct type. The
// original gives the rctx struct a name (llvm::StructType::create) purely
// for readable IR; since every access goes through the byte-offset path
// anyway, this port represents "a pointer into the context's tail region"
// directly as i8*, and never materializes a struct type for it at all.
package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"exc/internal/ast"
	"exc/internal/fold"
	"exc/internal/function"
	"exc/internal/types"
)

// rctxPtrType is the LLVM type of every generated function's sole
// parameter: a byte pointer into the execution context's tail region.
func rctxPtrType() llvm.Type {
	return llvm.PointerType(llvm.Int8Type(), 0)
}

// Generator lowers a folded, type-inferred ast.Root into an LLVM module: one
// function per declaration plus the __init_rctx/__destruct_rctx lifecycle
// pair, using Layout for storage offsets and Planner for the unwind cascade
// of Complex temporaries built inside `if` branches (spec §4.5/§4.6).
type Generator struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder

	funcs *function.Library
	store *fold.Store

	layout Layout

	llvmTypes map[types.ID]llvm.Type
	callees   map[*function.Descriptor]llvm.Value

	planner *Planner
	fn      llvm.Value
	rctx    llvm.Value

	disableIntrinsics bool
}

// New returns a Generator that will build moduleName inside ctx, resolving
// call targets against funcs, with constants already folded into store.
func New(ctx llvm.Context, moduleName string, funcs *function.Library, store *fold.Store) *Generator {
	return &Generator{
		ctx:       ctx,
		module:    ctx.NewModule(moduleName),
		builder:   ctx.NewBuilder(),
		funcs:     funcs,
		store:     store,
		llvmTypes: make(map[types.ID]llvm.Type),
		callees:   make(map[*function.Descriptor]llvm.Value),
		planner:   NewPlanner(),
	}
}

// SetDisableIntrinsics forces every call site to use the external,
// non-intrinsic declaration form (cmd/excc's "-i"/"--no-intrinsics" flag),
// even for a descriptor that does carry an IntrinsicEmitter. A host module
// whose descriptors have no native Entry point (internal/builtins and
// internal/mathext register every operator with an intrinsic emitter only,
// per SPEC_FULL.md's native-call-pointer Open Question decision) will then
// fail at internal/jit's Link step, since there is nothing to bind the
// external symbol to; that is the flag doing exactly what it says, not a
// bug in either the flag or the host modules.
func (g *Generator) SetDisableIntrinsics(v bool) {
	g.disableIntrinsics = v
}

// Module returns the module built so far.
func (g *Generator) Module() llvm.Module {
	return g.module
}

// llvmType lazily materializes and caches the backend type for t, invoking
// its MakeBackendType hook exactly once per Generator (spec §3: host
// modules supply this, codegen only caches it).
func (g *Generator) llvmType(t types.ID) llvm.Type {
	if cached, ok := g.llvmTypes[t]; ok {
		return cached
	}
	if t.MakeBackendType == nil {
		panic(fmt.Sprintf("codegen: type %q has no MakeBackendType", t.Name))
	}
	lt := t.MakeBackendType(g.ctx).(llvm.Type)
	g.llvmTypes[t] = lt
	return lt
}

// Generate emits one exported function per declaration in root, plus the
// context lifecycle pair, into the Generator's module. layout must have
// been computed (codegen.Compute) over exactly the Variable/Const/Expr
// declarations in root.
func (g *Generator) Generate(root *ast.Root, layout Layout) error {
	g.layout = layout
	for _, decl := range root.Decls {
		if err := g.genDecl(decl); err != nil {
			return err
		}
	}
	g.genInitRctx()
	g.genDestructRctx()
	return nil
}

// varPtr returns a typed pointer to slot's storage inside rctx, the Go
// analogue of CodeGenVisitor::getVarPtr: bitcast rctx to i8*, GEP by byte
// offset, bitcast the result to a pointer to the slot's LLVM type.
func (g *Generator) varPtr(rctx llvm.Value, slot Slot) llvm.Value {
	offset := llvm.ConstInt(llvm.Int64Type(), uint64(slot.Offset), false)
	byteish := g.builder.CreateGEP(rctx, []llvm.Value{offset}, "varPtr")
	typed := llvm.PointerType(g.llvmType(slot.Type), 0)
	return g.builder.CreateBitCast(byteish, typed, "varPtrTyped")
}

// genDecl emits a declaration's function. ConstDecl/ExprDecl get the
// Fn(rctx*) -> resultPtr form; VarDecl has no initializer to lower and
// instead gets the runtime setter form spec §6 assigns it, void
// NAME(rctx*, T*), so host code can populate the slot after construction
// (spec §4.2: "var NAME: TYPE;" is populated only through this setter,
// never a generated body).
func (g *Generator) genDecl(decl ast.Decl) error {
	var init ast.Expr
	switch d := decl.(type) {
	case *ast.VarDecl:
		return g.genVarSetter(d)
	case *ast.ConstDecl:
		init = d.Init
	case *ast.ExprDecl:
		init = d.Init
	default:
		return fmt.Errorf("codegen: unknown declaration kind %T", decl)
	}

	slot := g.layout.Find(decl.DeclName())
	if slot == nil {
		return fmt.Errorf("codegen: declaration %q has no assigned slot", decl.DeclName())
	}

	resultType := g.llvmType(decl.DeclType())
	fnType := llvm.FunctionType(llvm.PointerType(resultType, 0), []llvm.Type{rctxPtrType()}, false)
	fn := llvm.AddFunction(g.module, decl.DeclName(), fnType)
	fn.Param(0).SetName("rctx")

	entry := llvm.AddBasicBlock(fn, "entry")
	g.fn = fn
	g.rctx = fn.Param(0)
	g.builder.SetInsertPointAtEnd(entry)

	g.planner.Push()
	value, err := g.genExpr(init)
	if err != nil {
		return err
	}

	dst := g.varPtr(g.rctx, *slot)
	g.storeResult(decl.DeclType(), dst, value)

	plan := g.planner.Pop()
	g.emitUnwind(plan, value)

	g.builder.CreateRet(dst)
	g.fn = llvm.Value{}
	g.rctx = llvm.Value{}
	return nil
}

// genVarSetter emits the runtime setter for an uninitialized "var" slot,
// void NAME(rctx*, T*): load the value pointed to by the second argument
// and copy it into the slot, the same byte-copy storeResult uses for a
// computed result, since both forms ultimately just populate a context
// slot from a pointer the caller owns.
func (g *Generator) genVarSetter(d *ast.VarDecl) error {
	slot := g.layout.Find(d.DeclName())
	if slot == nil {
		return fmt.Errorf("codegen: declaration %q has no assigned slot", d.DeclName())
	}
	valueType := llvm.PointerType(g.llvmType(d.DeclType()), 0)
	fnType := llvm.FunctionType(llvm.VoidType(), []llvm.Type{rctxPtrType(), valueType}, false)
	fn := llvm.AddFunction(g.module, d.DeclName(), fnType)
	fn.Param(0).SetName("rctx")
	fn.Param(1).SetName("value")

	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	dst := g.varPtr(fn.Param(0), *slot)
	g.builder.CreateStore(g.builder.CreateLoad(fn.Param(1), ""), dst)
	g.builder.CreateRetVoid()
	return nil
}

// storeResult writes value into dst according to typ's calling convention:
// ByValue results come back as a plain LLVM value and are stored directly;
// ByPointer/Complex results come back as a pointer to callee-owned storage
// and are copied byte-for-byte via a load+store of the whole backend type,
// matching jex_codegenvisitor.cpp's "FIXME... result->getType()->isPointerTy()"
// load-then-store path generalized to always copy rather than only load.
func (g *Generator) storeResult(typ types.ID, dst, value llvm.Value) {
	if typ.CallConv == types.ByPointer {
		loaded := g.builder.CreateLoad(value, "resultLoaded")
		g.builder.CreateStore(loaded, dst)
		return
	}
	g.builder.CreateStore(value, dst)
}

// emitUnwind lowers plan into the backwards-insertion destructor cascade
// jex_unwind.cpp describes, run immediately after storing this
// declaration's own result: every Complex temporary the planner recorded
// during this declaration's evaluation is destroyed, last-constructed
// first, except dst itself: the value whose contents were just moved into
// the declaration's slot (or an if's merge slot), which now owns them.
func (g *Generator) emitUnwind(plan UnwindPlan, dst llvm.Value) {
	if !plan.NeedsCascade {
		return
	}
	for _, temp := range plan.ReverseOrder {
		slot, ok := temp.Slot.(llvm.Value)
		if !ok || slot == dst {
			continue
		}
		callee := g.getOrCreateCallee(temp.Dtor)
		g.builder.CreateCall(callee, []llvm.Value{slot}, "")
	}
}

// genExpr lowers one expression to an LLVM value. For a ByValue result the
// value is the computed value itself; for a ByPointer/Complex result the
// value is a pointer to storage holding it (a fresh alloca for a computed
// result, the slot or store buffer for an identifier or constant), matching Wrapper's
// calling convention (argPtrs[0] is always a pointer to the destination).
func (g *Generator) genExpr(e ast.Expr) (llvm.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return g.genLiteral(n)
	case *ast.ConstantRef:
		return g.genConstantRef(n)
	case *ast.Identifier:
		return g.genIdentifier(n)
	case *ast.Unary:
		return g.genUnary(n)
	case *ast.Binary:
		return g.genBinary(n)
	case *ast.Call:
		return g.genCall(n)
	case *ast.If:
		return g.genIf(n)
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unsupported expression node %T", e)
	}
}

// genLiteral lowers a Bool/Integer/Float constant directly to an LLVM
// constant, per CodeGenVisitor::visit(AstLiteralExpr&). A String literal
// has no inline Value form: its backing must outlive the AST, so it is
// interned into the constant store under "strLit_l<line>_c<col>" and
// lowered as a pointer to that entry, the same way a folded ConstantRef
// is. Folding usually absorbs String literals before codegen ever sees
// them; this path covers the ones folding left in place (a branch of an
// unfoldable if, say) and every String literal when folding is disabled.
func (g *Generator) genLiteral(n *ast.Literal) (llvm.Value, error) {
	switch n.LitKind {
	case ast.LitBool:
		v := uint64(0)
		if n.Bool {
			v = 1
		}
		return llvm.ConstInt(llvm.Int1Type(), v, false), nil
	case ast.LitInt:
		return llvm.ConstInt(llvm.Int64Type(), uint64(n.Int), true), nil
	case ast.LitFloat:
		return llvm.ConstFloat(llvm.DoubleType(), n.Float), nil
	case ast.LitString:
		name := fmt.Sprintf("strLit_l%d_c%d", n.Span().Begin.Line, n.Span().Begin.Col)
		entry := g.store.InternString(name, n.ResultType(), n.Str)
		return g.entryPtr(entry), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: literal kind %d has no inline IR form", n.LitKind)
	}
}

// genConstantRef materializes a pointer to the named entry's backing buffer
// as an LLVM integer constant cast to a typed pointer. The buffer's address
// is fixed for the process lifetime (fold.Store.Entries outlive the
// compiled program, per spec §4.4), so no runtime indirection is needed to
// reach it, only a literal address baked into the IR at JIT time.
func (g *Generator) genConstantRef(n *ast.ConstantRef) (llvm.Value, error) {
	entry := g.store.Get(n.Name)
	if entry == nil {
		return llvm.Value{}, fmt.Errorf("codegen: constant %q not found in store", n.Name)
	}
	// ByValue constants load here so the result has genExpr's plain-value
	// shape; ByPointer/Complex constants stay a pointer into the store.
	// VarArg entries never reach this path: genCall hands any argument bound
	// to a variadic parameter to genVarArg before genExpr sees it.
	ptr := g.entryPtr(entry)
	if entry.Type.CallConv == types.ByValue {
		return g.builder.CreateLoad(ptr, ""), nil
	}
	return ptr, nil
}

// entryPtr bakes a store entry's buffer address into the IR as a typed
// pointer constant.
func (g *Generator) entryPtr(entry *fold.Entry) llvm.Value {
	addr := llvm.ConstInt(llvm.Int64Type(), uint64(uintptr(entry.Buf.Ptr)), false)
	ptrType := llvm.PointerType(g.llvmType(entry.Type), 0)
	return g.builder.CreateIntToPtr(addr, ptrType, "")
}

// genIdentifier loads the referenced declaration's current value out of
// rctx. ByValue results load the scalar; ByPointer/Complex results return
// the typed slot pointer itself, since callers of a ByPointer value always
// want its address, never a bitwise copy of its bytes.
func (g *Generator) genIdentifier(n *ast.Identifier) (llvm.Value, error) {
	slot := g.layout.Find(n.Name)
	if slot == nil {
		return llvm.Value{}, fmt.Errorf("codegen: identifier %q has no assigned slot", n.Name)
	}
	ptr := g.varPtr(g.rctx, *slot)
	if n.ResultType().CallConv == types.ByPointer {
		return ptr, nil
	}
	return g.builder.CreateLoad(ptr, ""), nil
}

func (g *Generator) genUnary(n *ast.Unary) (llvm.Value, error) {
	d, ok := n.Fct.(*function.Descriptor)
	if !ok || d == nil {
		return llvm.Value{}, fmt.Errorf("codegen: unary %s has no resolved function", n.Op.Symbol())
	}
	operand, err := g.genExpr(n.Operand)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.genCallDescriptor(d, n.ResultType(), n, []llvm.Value{operand})
}

func (g *Generator) genBinary(n *ast.Binary) (llvm.Value, error) {
	d, ok := n.Fct.(*function.Descriptor)
	if !ok || d == nil {
		return llvm.Value{}, fmt.Errorf("codegen: binary %s has no resolved function", n.Op.Symbol())
	}
	lhs, err := g.genExpr(n.Lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := g.genExpr(n.Rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.genCallDescriptor(d, n.ResultType(), n, []llvm.Value{lhs, rhs})
}

func (g *Generator) genCall(n *ast.Call) (llvm.Value, error) {
	d, ok := n.Fct.(*function.Descriptor)
	if !ok || d == nil {
		return llvm.Value{}, fmt.Errorf("codegen: call %q has no resolved function", n.Callee.Name)
	}
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		// Inference leaves exactly one argument per parameter (a saturated
		// variadic tail is collapsed into one VarArg node), so n.Args and
		// d.Params line up index for index here.
		if i < len(d.Params) && d.Params[i].Variadic {
			v, err := g.genVarArg(a, d.Params[i].Type)
			if err != nil {
				return llvm.Value{}, err
			}
			args[i] = v
			continue
		}
		v, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}
	return g.genCallDescriptor(d, n.ResultType(), n, args)
}

// varArgHeaderType is the {i8*, i64} header a variadic parameter receives:
// a pointer to the packed element array and the element count, matching the
// layout fold.foldVarArg bakes into the constant store, so a callee sees
// one shape whether its variadic tail was folded or built at runtime.
func (g *Generator) varArgHeaderType() llvm.Type {
	return g.ctx.StructType([]llvm.Type{rctxPtrType(), llvm.Int64Type()}, false)
}

// genVarArg lowers the argument bound to a variadic parameter to a pointer
// to a {ptr, count} header. A collapsed tail that folded to a constant
// already has its header and element array in the store; anything else
// (an unfolded VarArg node, or the bare single argument a one-element tail
// stays as) gets a stack-built array and header, so the callee always
// receives the same shape.
func (g *Generator) genVarArg(e ast.Expr, elemType types.ID) (llvm.Value, error) {
	headerPtrT := llvm.PointerType(g.varArgHeaderType(), 0)
	if ref, ok := e.(*ast.ConstantRef); ok {
		if entry := g.store.Get(ref.Name); entry != nil && entry.VarArg {
			addr := llvm.ConstInt(llvm.Int64Type(), uint64(uintptr(entry.Buf.Ptr)), false)
			return g.builder.CreateIntToPtr(addr, headerPtrT, ""), nil
		}
	}

	elems := []ast.Expr{e}
	if va, ok := e.(*ast.VarArg); ok {
		elems = va.Elems
	}
	arrType := llvm.ArrayType(g.llvmType(elemType), len(elems))
	arr := g.builder.CreateAlloca(arrType, "varargs")
	zero := llvm.ConstInt(llvm.Int32Type(), 0, false)
	for i, el := range elems {
		v, err := g.genExpr(el)
		if err != nil {
			return llvm.Value{}, err
		}
		idx := llvm.ConstInt(llvm.Int32Type(), uint64(i), false)
		slot := g.builder.CreateGEP(arr, []llvm.Value{zero, idx}, "")
		if elemType.CallConv == types.ByPointer {
			g.builder.CreateStore(g.builder.CreateLoad(v, ""), slot)
		} else {
			g.builder.CreateStore(v, slot)
		}
	}

	header := g.builder.CreateAlloca(g.varArgHeaderType(), "vahdr")
	base := g.builder.CreateBitCast(arr, rctxPtrType(), "")
	g.builder.CreateStore(base, g.builder.CreateStructGEP(header, 0, ""))
	count := llvm.ConstInt(llvm.Int64Type(), uint64(len(elems)), false)
	g.builder.CreateStore(count, g.builder.CreateStructGEP(header, 1, ""))
	return header, nil
}

// genCallDescriptor emits one call to d with args already lowered. Every
// generated callee is void-returning-through-an-out-pointer (registerBinary/
// registerUnary's emitters always CreateStore into Fn.Param(0), never
// CreateRet a value), so a return slot is always allocated and passed as
// the first call argument regardless of resultType's calling convention:
// ByValue results are then loaded back out of it; ByPointer/Complex results
// are returned as the slot pointer itself, and recorded with the unwind
// planner if it isn't owned by a declaration's own top-level result
// (genDecl's emitUnwind skips the result it moved into the decl's slot).
func (g *Generator) genCallDescriptor(d *function.Descriptor, resultType types.ID, node ast.Expr, args []llvm.Value) (llvm.Value, error) {
	callee := g.getOrCreateCallee(d)

	retSlot := g.builder.CreateAlloca(g.llvmType(resultType), "")
	callArgs := append([]llvm.Value{retSlot}, args...)
	g.builder.CreateCall(callee, callArgs, "")

	if resultType.CallConv == types.ByValue {
		return g.builder.CreateLoad(retSlot, ""), nil
	}

	if resultType.Kind == types.Complex && isTemporary(node) && g.planner.Depth() > 0 {
		dtor, err := g.funcs.Destructor(resultType)
		if err == nil {
			g.planner.Record(dtor, retSlot)
		}
	}
	return retSlot, nil
}

// isTemporary reports whether e is itself a freshly constructed value
// (rather than a bare identifier reference to an already-owned slot),
// mirroring requiresUnwind's "expr.isTemporary()" check in jex_unwind.cpp.
// Only Binary/Unary/Call nodes construct new values; everything else
// refers to storage someone else already owns (or already manages, for a
// ConstantRef backed by the permanent store).
func isTemporary(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Binary, *ast.Unary, *ast.Call:
		return true
	default:
		return false
	}
}

// genIf lowers the three-argument conditional to cond-branch plus a shared
// continuation block, per CodeGenVisitor::visit(AstIf&) and jex_unwind.cpp's
// "TODO: Handle different block due to required control flow for if
// expression" note — resolved here by giving each branch its own Planner
// scope so only the temporaries actually constructed on the path taken are
// destroyed, and merging both branches' results with a phi node (ByValue)
// or a shared output slot copied into from whichever branch ran
// (ByPointer/Complex, since phi cannot merge two distinct alloca addresses
// into one pointer callers can uniformly address afterward).
func (g *Generator) genIf(n *ast.If) (llvm.Value, error) {
	resultType := n.ResultType()
	byPointer := resultType.CallConv == types.ByPointer
	// The merge slot, if needed, is allocated at the current insertion
	// point before the cond/branch is emitted: g.fn.EntryBasicBlock() would
	// be simpler, but for a nested `if` (one If's Then/Else itself
	// containing another If) that block already ends in a terminator by
	// the time the inner genIf runs, and LLVM rejects an alloca inserted
	// after a block's terminator.
	var mergeSlot llvm.Value
	if byPointer {
		mergeSlot = g.builder.CreateAlloca(g.llvmType(resultType), "if.result")
	}

	cond, err := g.genExpr(n.Cond)
	if err != nil {
		return llvm.Value{}, err
	}

	thenBB := llvm.AddBasicBlock(g.fn, "if.then")
	elseBB := llvm.AddBasicBlock(g.fn, "if.else")
	mergeBB := llvm.AddBasicBlock(g.fn, "if.merge")
	g.builder.CreateCondBr(cond, thenBB, elseBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	g.planner.Push()
	thenVal, err := g.genExpr(n.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	if byPointer {
		g.builder.CreateStore(g.builder.CreateLoad(thenVal, ""), mergeSlot)
	}
	thenPlan := g.planner.Pop()
	g.emitUnwind(thenPlan, thenVal)
	thenEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(elseBB)
	g.planner.Push()
	elseVal, err := g.genExpr(n.Else)
	if err != nil {
		return llvm.Value{}, err
	}
	if byPointer {
		g.builder.CreateStore(g.builder.CreateLoad(elseVal, ""), mergeSlot)
	}
	elsePlan := g.planner.Pop()
	g.emitUnwind(elsePlan, elseVal)
	elseEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(mergeBB)
	if byPointer {
		return mergeSlot, nil
	}
	phi := g.builder.CreatePHI(g.llvmType(resultType), "")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// getOrCreateCallee returns the callable LLVM function for d, building and
// memoizing it on first use: an always-inline-able intrinsic body if d
// carries an IntrinsicEmitter, or an external declaration resolved by
// internal/jit at link time otherwise (see SPEC_FULL.md's native-call-
// pointer Open Question decision).
func (g *Generator) getOrCreateCallee(d *function.Descriptor) llvm.Value {
	if cached, ok := g.callees[d]; ok {
		return cached
	}

	paramTypes := make([]llvm.Type, 0, len(d.Params)+1)
	paramTypes = append(paramTypes, llvm.PointerType(g.llvmType(d.Ret), 0))
	for _, p := range d.Params {
		paramTypes = append(paramTypes, g.paramType(p))
	}
	fnType := llvm.FunctionType(llvm.VoidType(), paramTypes, false)

	emitter, hasIntrinsic := d.Intrinsic.(IntrinsicEmitter)
	hasIntrinsic = hasIntrinsic && !g.disableIntrinsics
	if !hasIntrinsic {
		fn := llvm.AddFunction(g.module, d.MangledName(), fnType)
		g.callees[d] = fn
		return fn
	}

	fn := llvm.AddFunction(g.module, d.IntrinsicName(), fnType)
	savedBlock := g.builder.GetInsertBlock()
	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	emitter(IntrinsicContext{Builder: g.builder, Fn: fn})
	g.builder.CreateRetVoid()
	if !savedBlock.IsNil() {
		g.builder.SetInsertPointAtEnd(savedBlock)
	}
	g.callees[d] = fn
	return fn
}

// paramType returns the LLVM type an operand bound to p uses at a call
// site. This is deliberately NOT the same convention function.Wrapper uses
// (which passes every argument uniformly as an unsafe.Pointer): the
// intrinsic emitters in internal/builtins and internal/mathext operate on
// ByValue operands as plain SSA values (CreateAdd, CreateFAdd, CreateICmp
// all take raw operands, not loads from a pointer), and only address a
// ByPointer/Complex operand's fields by pointer. genExpr already produces
// values in exactly this shape (a raw value for a ByValue result, a
// pointer for a ByPointer one), so paramType only needs to describe it,
// matching what every intrinsic body and the return slot both actually
// expect. A variadic parameter is the exception: it always receives a
// pointer to a {ptr, count} header (see genVarArg) regardless of its
// element type's own convention.
func (g *Generator) paramType(p function.Param) llvm.Type {
	if p.Variadic {
		return llvm.PointerType(g.varArgHeaderType(), 0)
	}
	if p.Type.CallConv == types.ByPointer {
		return llvm.PointerType(g.llvmType(p.Type), 0)
	}
	return g.llvmType(p.Type)
}

// genInitRctx emits __init_rctx(rctx*), which default-constructs every
// slot whose type needs it: Complex types with a DefaultCtor, or any type
// with ZeroInit set and no DefaultCtor (spec §4.5/§6). Slots whose type
// needs neither are left untouched, matching the original's context
// object being otherwise uninitialized scratch memory.
func (g *Generator) genInitRctx() {
	fn := llvm.AddFunction(g.module, "__init_rctx", llvm.FunctionType(llvm.VoidType(), []llvm.Type{rctxPtrType()}, false))
	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	rctx := fn.Param(0)

	for _, slot := range g.layout.Slots {
		ptr := g.varPtr(rctx, slot)
		switch {
		case slot.Type.Lifetime.DefaultCtor != nil:
			ctor, err := g.funcs.Get("_ctor_"+slot.Type.Name, nil)
			if err == nil {
				g.builder.CreateCall(g.getOrCreateCallee(ctor), []llvm.Value{ptr}, "")
			}
		case slot.Type.Lifetime.ZeroInit:
			size := llvm.ConstInt(llvm.Int64Type(), uint64(slot.Type.Size), false)
			byteish := g.builder.CreateBitCast(ptr, rctxPtrType(), "")
			g.callMemset(byteish, size)
		}
	}
	g.builder.CreateRetVoid()
}

// callMemset zeroes size bytes starting at dst via an llvm.memset.p0i8.i64
// intrinsic declaration, declared lazily the first time zero-initialization
// is actually needed.
func (g *Generator) callMemset(dst llvm.Value, size llvm.Value) {
	name := "llvm.memset.p0i8.i64"
	memset := g.module.NamedFunction(name)
	if memset.IsNil() {
		paramTypes := []llvm.Type{rctxPtrType(), llvm.Int8Type(), llvm.Int64Type(), llvm.Int1Type()}
		memset = llvm.AddFunction(g.module, name, llvm.FunctionType(llvm.VoidType(), paramTypes, false))
	}
	zero := llvm.ConstInt(llvm.Int8Type(), 0, false)
	volatile := llvm.ConstInt(llvm.Int1Type(), 0, false)
	g.builder.CreateCall(memset, []llvm.Value{dst, zero, size, volatile}, "")
}

// genDestructRctx emits __destruct_rctx(rctx*), calling every Complex
// slot's destructor in reverse layout order, per spec §4.5's "tear down in
// reverse of construction" invariant and jex_executioncontext.cpp's
// getFctPtr("__destruct_rctx") lookup.
func (g *Generator) genDestructRctx() {
	fn := llvm.AddFunction(g.module, "__destruct_rctx", llvm.FunctionType(llvm.VoidType(), []llvm.Type{rctxPtrType()}, false))
	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	rctx := fn.Param(0)

	for i := len(g.layout.Slots) - 1; i >= 0; i-- {
		slot := g.layout.Slots[i]
		if slot.Type.Kind != types.Complex {
			continue
		}
		dtor, err := g.funcs.Get("_dtor_"+slot.Type.Name, nil)
		if err != nil {
			continue
		}
		ptr := g.varPtr(rctx, slot)
		g.builder.CreateCall(g.getOrCreateCallee(dtor), []llvm.Value{ptr}, "")
	}
	g.builder.CreateRetVoid()
}

package codegen

import (
	"fmt"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/ir"
)

// builder accumulates one function's blocks as its body is lowered.
// Every local variable, parameter, and receiver is backed by a stack
// slot: reads go through Load, writes through Store, uniformly, rather
// than threading SSA register renaming through the tree walk.
type builder struct {
	g        *Codegen
	retType  ast.Type
	scope    map[string]ir.Value // name -> Alloc address
	varTypes map[string]ast.Type
	blocks   []*ir.Block
	cur      *ir.Block
	tmp      int
}

// scopeFrame undoes the bindings a block introduced when control leaves
// it, so a shadowed outer binding becomes visible again.
type scopeFrame struct {
	saved      map[string]ir.Value
	savedTypes map[string]ast.Type
	fresh      []string
}

func (b *builder) pushScope() *scopeFrame {
	return &scopeFrame{saved: map[string]ir.Value{}, savedTypes: map[string]ast.Type{}}
}

func (b *builder) declare(f *scopeFrame, name string, addr ir.Value, t ast.Type) {
	if _, already := f.saved[name]; !already {
		isFresh := true
		for _, n := range f.fresh {
			if n == name {
				isFresh = false
				break
			}
		}
		if old, had := b.scope[name]; had {
			f.saved[name] = old
			f.savedTypes[name] = b.varTypes[name]
		} else if isFresh {
			f.fresh = append(f.fresh, name)
		}
	}
	b.scope[name] = addr
	b.varTypes[name] = t
}

func (b *builder) popScope(f *scopeFrame) {
	for k, v := range f.saved {
		b.scope[k] = v
		b.varTypes[k] = f.savedTypes[k]
	}
	for _, k := range f.fresh {
		delete(b.scope, k)
		delete(b.varTypes, k)
	}
}

func (b *builder) newTemp(prefix string) string {
	b.tmp++
	return fmt.Sprintf("%%%s%d", prefix, b.tmp)
}

// base mints a fresh named instruction result of type typ.
func (b *builder) base(prefix string, typ ir.Type) ir.Base {
	return ir.NewBase(b.newTemp(prefix), typ)
}

func (b *builder) newBlock(label string) *ir.Block {
	blk := &ir.Block{Name: fmt.Sprintf("%s.%d", label, len(b.blocks))}
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *builder) emit(instr ir.Instr) ir.Value {
	b.cur.Instrs = append(b.cur.Instrs, instr)
	return ir.Ref{Name: instr.ResultName(), Typ: instr.ResultType()}
}

// terminate sets the current block's terminator, if it does not already
// have one; a block can end only once, and a branch following a return
// that already closed the block is dead and must not overwrite it.
func (b *builder) terminate(t ir.Terminator) {
	if b.cur.Term == nil {
		b.cur.Term = t
	}
}

func (g *Codegen) lowerFunction(name string, params []ast.Param, retType ast.Type, body *ast.Block) *ir.Function {
	fn := &ir.Function{Name: name, ReturnType: g.lowerType(retType)}
	b := &builder{g: g, retType: retType, scope: map[string]ir.Value{}, varTypes: map[string]ast.Type{}}
	b.cur = b.newBlock("entry")

	for _, p := range params {
		pt := g.lowerType(p.Type)
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Typ: pt})
		slot := b.emit(ir.Alloc{Base: b.base("slot", ir.Type{Kind: ir.TypePtr}), Elem: pt})
		b.emit(ir.Store{Addr: slot, Value: ir.Ref{Name: p.Name, Typ: pt}})
		b.scope[p.Name] = slot
		b.varTypes[p.Name] = p.Type
	}

	if body == nil {
		b.terminate(ir.Ret{})
		fn.Blocks = b.blocks
		return fn
	}

	tailVal, done := b.lowerFunctionBody(body)
	if !done {
		if tailVal != nil {
			b.terminate(ir.Ret{Value: tailVal})
		} else {
			b.terminate(ir.Ret{})
		}
	}
	fn.Blocks = b.blocks
	return fn
}

// lowerFunctionBody is like lowerBlockBody but recognizes a bare
// self-recursive call as the function's tail expression, so it can be
// marked for tail-call elimination the same way an explicit `return
// f(...)` is.
func (b *builder) lowerFunctionBody(blk *ast.Block) (ir.Value, bool) {
	frame := b.pushScope()
	defer b.popScope(frame)
	for _, s := range blk.Stmts {
		if !ast.IsReachable(s) {
			continue
		}
		b.lowerStmt(s, frame)
		if b.cur.Term != nil {
			return nil, true
		}
	}
	if blk.Tail == nil {
		return nil, false
	}
	return b.lowerTailExpr(blk.Tail, frame), b.cur.Term != nil
}

// lowerBlockBody lowers a nested block (if/while/match/for body), giving
// back its tail value, if any, and whether control already left the
// block via an early terminator.
func (b *builder) lowerBlockBody(blk *ast.Block) (ir.Value, bool) {
	frame := b.pushScope()
	defer b.popScope(frame)
	for _, s := range blk.Stmts {
		if !ast.IsReachable(s) {
			continue
		}
		b.lowerStmt(s, frame)
		if b.cur.Term != nil {
			return nil, true
		}
	}
	if blk.Tail == nil {
		return nil, false
	}
	val := b.lowerExpr(blk.Tail, frame)
	return val, b.cur.Term != nil
}

func (b *builder) lowerStmt(s ast.Stmt, frame *scopeFrame) {
	switch v := s.(type) {
	case *ast.LetStmt:
		val := b.lowerExpr(v.Value, frame)
		t := v.Type
		if !v.HasType {
			t = b.exprType(v.Value)
		}
		lt := b.g.lowerType(t)
		slot := b.emit(ir.Alloc{Base: b.base("slot", ir.Type{Kind: ir.TypePtr}), Elem: lt})
		b.emit(ir.Store{Addr: slot, Value: val})
		b.declare(frame, v.Name, slot, t)

	case *ast.AssignStmt:
		addr := b.addrOf(v.Target, frame)
		val := b.lowerExpr(v.Value, frame)
		b.emit(ir.Store{Addr: addr, Value: val})

	case *ast.CompoundAssignStmt:
		addr := b.addrOf(v.Target, frame)
		t := b.exprType(v.Target)
		lt := b.g.lowerType(t)
		cur := b.emit(ir.Load{Base: b.base("ld", lt), Addr: addr})
		rhs := b.lowerExpr(v.Value, frame)
		res := b.emit(ir.Arith{Base: b.base("t", lt), Op: binOpToArith(v.Op), Left: cur, Right: rhs})
		b.emit(ir.Store{Addr: addr, Value: res})

	case *ast.ReturnStmt:
		var val ir.Value
		if v.Value != nil {
			val = b.lowerTailExpr(v.Value, frame)
		}
		b.terminate(ir.Ret{Value: val})

	case *ast.WhileStmt:
		b.lowerWhile(v)

	case *ast.ForStmt:
		b.lowerFor(v)

	case *ast.ExprStmt:
		b.lowerExpr(v.Expr, frame)
	}
}

func (b *builder) lowerWhile(v *ast.WhileStmt) {
	header := b.newBlock("while.cond")
	body := b.newBlock("while.body")
	exit := b.newBlock("while.exit")
	b.terminate(ir.Br{Target: header.Name})

	b.cur = header
	headerFrame := b.pushScope()
	cond := b.lowerExpr(v.Cond, headerFrame)
	b.popScope(headerFrame)
	b.terminate(ir.CondBr{Cond: cond, Then: body.Name, Else: exit.Name})

	b.cur = body
	_, done := b.lowerBlockBody(v.Body)
	if !done {
		b.terminate(ir.Br{Target: header.Name})
	}

	b.cur = exit
}

func (b *builder) lowerFor(v *ast.ForStmt) {
	frame := b.pushScope()
	defer b.popScope(frame)
	if v.Init != nil {
		b.lowerStmt(v.Init, frame)
	}

	header := b.newBlock("for.cond")
	body := b.newBlock("for.body")
	exit := b.newBlock("for.exit")
	b.terminate(ir.Br{Target: header.Name})

	b.cur = header
	if v.Cond != nil {
		cond := b.lowerExpr(v.Cond, frame)
		b.terminate(ir.CondBr{Cond: cond, Then: body.Name, Else: exit.Name})
	} else {
		b.terminate(ir.Br{Target: body.Name})
	}

	b.cur = body
	_, done := b.lowerBlockBody(v.Body)
	if !done {
		if v.Post != nil {
			b.lowerStmt(v.Post, frame)
		}
		b.terminate(ir.Br{Target: header.Name})
	}

	b.cur = exit
}

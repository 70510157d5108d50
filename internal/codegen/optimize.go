package codegen

import "github.com/dekarrin/yunic/internal/ir"

// FoldConstants replaces every Arith/ICmp instruction whose operands are
// both compile-time constants with the computed Const, inlining the result
// at every use site and dropping the now-dead instruction from its block.
// Gated behind config.Profile.Opt.FoldConstants; the unoptimized tree
// codegen produces on its own is already valid IR without it.
func FoldConstants(mod *ir.Module) {
	for _, fn := range mod.Functions {
		fold(fn)
	}
}

func fold(fn *ir.Function) {
	subst := map[string]ir.Const{}

	for _, blk := range fn.Blocks {
		kept := blk.Instrs[:0]
		for _, instr := range blk.Instrs {
			instr = rewriteInstr(instr, subst)
			if c, ok := foldInstr(instr); ok {
				subst[instr.ResultName()] = c
				continue
			}
			kept = append(kept, instr)
		}
		blk.Instrs = kept
		blk.Term = rewriteTerm(blk.Term, subst)
	}
}

// foldInstr evaluates instr if it is an Arith or ICmp over two Consts,
// returning the computed constant.
func foldInstr(instr ir.Instr) (ir.Const, bool) {
	switch v := instr.(type) {
	case ir.Arith:
		l, lok := v.Left.(ir.Const)
		r, rok := v.Right.(ir.Const)
		if !lok || !rok {
			return ir.Const{}, false
		}
		return foldArith(v.Op, v.Typ, l, r)
	case ir.ICmp:
		l, lok := v.Left.(ir.Const)
		r, rok := v.Right.(ir.Const)
		if !lok || !rok {
			return ir.Const{}, false
		}
		return foldCmp(v.Pred, l, r), true
	default:
		return ir.Const{}, false
	}
}

func foldArith(op ir.ArithOp, typ ir.Type, l, r ir.Const) (ir.Const, bool) {
	if typ.Kind == ir.TypeFloat {
		var f float64
		switch op {
		case ir.OpAdd:
			f = l.Float + r.Float
		case ir.OpSub:
			f = l.Float - r.Float
		case ir.OpMul:
			f = l.Float * r.Float
		case ir.OpDiv:
			if r.Float == 0 {
				return ir.Const{}, false
			}
			f = l.Float / r.Float
		default:
			return ir.Const{}, false
		}
		return ir.Const{Typ: typ, Float: f}, true
	}

	if r.Int == 0 && (op == ir.OpDiv || op == ir.OpMod) {
		return ir.Const{}, false
	}
	var n int64
	switch op {
	case ir.OpAdd:
		n = l.Int + r.Int
	case ir.OpSub:
		n = l.Int - r.Int
	case ir.OpMul:
		n = l.Int * r.Int
	case ir.OpDiv:
		n = l.Int / r.Int
	case ir.OpMod:
		n = l.Int % r.Int
	default:
		return ir.Const{}, false
	}
	return ir.Const{Typ: typ, Int: n}, true
}

func foldCmp(pred ir.CmpPred, l, r ir.Const) ir.Const {
	boolTyp := ir.Type{Kind: ir.TypeBool}
	var result bool
	if l.Typ.Kind == ir.TypeFloat {
		switch pred {
		case ir.CmpEq:
			result = l.Float == r.Float
		case ir.CmpNe:
			result = l.Float != r.Float
		case ir.CmpLt:
			result = l.Float < r.Float
		case ir.CmpLe:
			result = l.Float <= r.Float
		case ir.CmpGt:
			result = l.Float > r.Float
		case ir.CmpGe:
			result = l.Float >= r.Float
		}
	} else {
		switch pred {
		case ir.CmpEq:
			result = l.Int == r.Int
		case ir.CmpNe:
			result = l.Int != r.Int
		case ir.CmpLt:
			result = l.Int < r.Int
		case ir.CmpLe:
			result = l.Int <= r.Int
		case ir.CmpGt:
			result = l.Int > r.Int
		case ir.CmpGe:
			result = l.Int >= r.Int
		}
	}
	return ir.Const{Typ: boolTyp, Bool: result}
}

func rewriteValue(v ir.Value, subst map[string]ir.Const) ir.Value {
	ref, ok := v.(ir.Ref)
	if !ok {
		return v
	}
	if c, ok := subst[ref.Name]; ok {
		return c
	}
	return v
}

// rewriteInstr returns a copy of instr with every folded operand replaced
// by its constant.
func rewriteInstr(instr ir.Instr, subst map[string]ir.Const) ir.Instr {
	switch v := instr.(type) {
	case ir.Load:
		v.Addr = rewriteValue(v.Addr, subst)
		return v
	case ir.Store:
		v.Addr = rewriteValue(v.Addr, subst)
		v.Value = rewriteValue(v.Value, subst)
		return v
	case ir.Arith:
		v.Left = rewriteValue(v.Left, subst)
		v.Right = rewriteValue(v.Right, subst)
		return v
	case ir.ICmp:
		v.Left = rewriteValue(v.Left, subst)
		v.Right = rewriteValue(v.Right, subst)
		return v
	case ir.GEP:
		v.Addr = rewriteValue(v.Addr, subst)
		if v.IsArray {
			v.Index = rewriteValue(v.Index, subst)
		}
		return v
	case ir.ExtractValue:
		v.Agg = rewriteValue(v.Agg, subst)
		return v
	case ir.InsertValue:
		v.Agg = rewriteValue(v.Agg, subst)
		v.Value = rewriteValue(v.Value, subst)
		return v
	case ir.Phi:
		edges := make([]ir.PhiEdge, len(v.Edges))
		for i, e := range v.Edges {
			e.Value = rewriteValue(e.Value, subst)
			edges[i] = e
		}
		v.Edges = edges
		return v
	case ir.Call:
		args := make([]ir.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewriteValue(a, subst)
		}
		v.Args = args
		return v
	default:
		return instr
	}
}

func rewriteTerm(term ir.Terminator, subst map[string]ir.Const) ir.Terminator {
	switch v := term.(type) {
	case ir.Ret:
		if v.Value != nil {
			v.Value = rewriteValue(v.Value, subst)
		}
		return v
	case ir.CondBr:
		v.Cond = rewriteValue(v.Cond, subst)
		return v
	default:
		return term
	}
}

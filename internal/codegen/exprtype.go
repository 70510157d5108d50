package codegen

import "github.com/dekarrin/yunic/internal/ast"

// exprType re-derives an expression's static type during lowering.
// internal/sema resolves every expression's type while checking the
// tree but does not write the result back onto the nodes, so codegen
// recomputes the same structural facts locally - the same trade-off
// internal/mono makes for its own pre-inference pass, and sufficient
// here since codegen only needs a type to pick a lowering strategy
// (which arithmetic width, which runtime stringify symbol, which
// struct layout), not to re-validate anything sema already accepted.
func (b *builder) exprType(e ast.Expr) ast.Type {
	switch v := e.(type) {
	case *ast.IntLit:
		return ast.Primitive(suffixOr(v.Suffix, "i32"), v.Span)
	case *ast.FloatLit:
		return ast.Primitive(suffixOr(v.Suffix, "f64"), v.Span)
	case *ast.BoolLit:
		return ast.Primitive("bool", v.Span)
	case *ast.StringLit:
		return ast.Primitive("String", v.Span)
	case *ast.TemplateLit:
		return ast.Primitive("String", v.Span)
	case *ast.Ident:
		if t, ok := b.varTypes[v.Name]; ok {
			return t
		}
		return ast.Type{}
	case *ast.Binary:
		switch v.Op {
		case ast.BinEq, ast.BinNotEq, ast.BinLt, ast.BinLtEq, ast.BinGt, ast.BinGtEq, ast.BinAnd, ast.BinOr:
			return ast.Primitive("bool", v.Span)
		default:
			return b.exprType(v.Left)
		}
	case *ast.Unary:
		if v.Op == ast.UnNot {
			return ast.Primitive("bool", v.Span)
		}
		return b.exprType(v.Operand)
	case *ast.Ref:
		t := b.exprType(v.Operand)
		return ast.RefTo(t, v.Mut, v.Span)
	case *ast.Deref:
		t := b.exprType(v.Operand)
		if t.Kind == ast.TypeRef {
			return *t.Elem
		}
		return t
	case *ast.Call:
		if id, ok := v.Callee.(*ast.Ident); ok {
			if sig, ok := b.g.reg.Functions[id.Name]; ok {
				return sig.ReturnType
			}
		}
		return ast.Type{}
	case *ast.MethodCall:
		recv := derefType(b.exprType(v.Receiver))
		if byRecv, ok := b.g.reg.Methods[recv.Name]; ok {
			if sig, ok := byRecv[v.Method]; ok {
				return sig.ReturnType
			}
		}
		return ast.Type{}
	case *ast.FieldAccess:
		recv := derefType(b.exprType(v.Receiver))
		_, ft := b.g.fieldIndex(recv, v.Field)
		return ft
	case *ast.Index:
		recv := derefType(b.exprType(v.Receiver))
		if recv.Kind == ast.TypeArray {
			return *recv.Elem
		}
		return ast.Type{}
	case *ast.StructLit:
		return ast.Named(v.TypeName, v.Span)
	case *ast.EnumLit:
		if v.TypeName != "" {
			return ast.Named(v.TypeName, v.Span)
		}
		if found, ok := b.g.findVariantType(v.Variant); ok {
			return ast.Named(found, v.Span)
		}
		return ast.Type{}
	case *ast.If:
		return b.blockOrExprType(v.Then)
	case *ast.Block:
		return b.blockOrExprType(v)
	case *ast.Match:
		if len(v.Arms) == 0 {
			return ast.Type{}
		}
		if blk, ok := v.Arms[0].Body.(*ast.Block); ok {
			return b.blockOrExprType(blk)
		}
		return b.exprType(v.Arms[0].Body)
	default:
		return ast.Type{}
	}
}

func (b *builder) blockOrExprType(blk *ast.Block) ast.Type {
	if blk == nil || blk.Tail == nil {
		return ast.Type{}
	}
	return b.exprType(blk.Tail)
}

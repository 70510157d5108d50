package sema

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
)

// checkBlockScoped opens a new scope for b, type-checks its statements in
// order (marking unreachable ones as it goes), releases any reference
// bindings declared directly in this scope, and returns the type of its
// tail expression (or the void type if it has none).
func (c *fnCtx) checkBlockScoped(b *ast.Block) ast.Type {
	outer := c.scope
	c.scope = newScope(outer)
	defer func() { c.releaseScopeBorrows(c.scope); c.scope = outer }()

	unreachableReported := false
	diverged := false
	for _, s := range b.Stmts {
		if diverged {
			ast.SetReachable(s, false)
			if !unreachableReported {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindUnreachable, s.StmtSpan(), "unreachable statement")
				unreachableReported = true
			}
			continue
		}
		c.checkStmt(s)
		if diverges(s) {
			diverged = true
		}
	}

	if b.Tail == nil {
		return voidType
	}
	if diverged && !unreachableReported {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindUnreachable, b.Tail.ExprSpan(), "unreachable expression")
	}
	return c.checkExpr(b.Tail, nil, false)
}

// releaseScopeBorrows drops every borrow a reference binding declared
// directly in scope took out against its target, as that reference's
// lexical scope has just ended.
func (c *fnCtx) releaseScopeBorrows(scope *Scope) {
	for _, rel := range scope.releases {
		releaseBinding(rel.target, rel.mut)
	}
}

type pendingRelease struct {
	target *Binding
	mut    bool
}

func (c *fnCtx) checkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.LetStmt:
		var hint *ast.Type
		if v.HasType {
			hint = &v.Type
		}
		valType := c.checkExpr(v.Value, hint, true)
		declType := valType
		if v.HasType {
			if !v.Type.Equal(valType) {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
					"cannot initialize %q of type %s with value of type %s", v.Name, v.Type.String(), valType.String())
			}
			declType = v.Type
		}
		c.scope.Declare(&Binding{Name: v.Name, Type: declType, Mut: v.Mut})
		if ref, ok := v.Value.(*ast.Ref); ok {
			if target, ok2 := c.resolveLValueBinding(ref.Operand); ok2 {
				c.scope.releases = append(c.scope.releases, pendingRelease{target: target, mut: ref.Mut})
			}
		}

	case *ast.AssignStmt:
		targetType := c.checkExpr(v.Target, nil, false)
		c.checkExpr(v.Value, &targetType, true)
		if b, ok := c.resolveLValueBinding(v.Target); ok {
			c.checkAssign(b, v.Span)
		}

	case *ast.CompoundAssignStmt:
		targetType := c.checkExpr(v.Target, nil, false)
		valType := c.checkExpr(v.Value, &targetType, false)
		if !isNumeric(targetType) && !(isString(targetType) && v.Op == ast.BinAdd) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
				"operator %s requires a numeric operand", v.Op)
		} else if !targetType.Equal(valType) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
				"mismatched operand types %s and %s", targetType.String(), valType.String())
		}

	case *ast.ReturnStmt:
		if v.Value == nil {
			if c.hasReturn {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindReturnMismatch, v.Span,
					"bare return in function expecting %s", c.returnType.String())
			}
			return
		}
		valType := c.checkExpr(v.Value, &c.returnType, true)
		if !c.hasReturn {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindReturnMismatch, v.Span, "void function cannot return a value")
		} else if !valType.Equal(c.returnType) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindReturnMismatch, v.Span,
				"returned %s, expected %s", valType.String(), c.returnType.String())
		}

	case *ast.WhileStmt:
		cond := c.checkExpr(v.Cond, nil, false)
		if !isBool(cond) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Cond.ExprSpan(), "while condition must be bool")
		}
		c.checkBlockScoped(v.Body)

	case *ast.ForStmt:
		outer := c.scope
		c.scope = newScope(outer)
		defer func() { c.releaseScopeBorrows(c.scope); c.scope = outer }()
		if v.Init != nil {
			c.checkStmt(v.Init)
		}
		if v.Cond != nil {
			cond := c.checkExpr(v.Cond, nil, false)
			if !isBool(cond) {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Cond.ExprSpan(), "for condition must be bool")
			}
		}
		if v.Post != nil {
			c.checkStmt(v.Post)
		}
		c.checkBlockScoped(v.Body)

	case *ast.ExprStmt:
		c.checkExpr(v.Expr, nil, false)
	}
}

// resolveLValueBinding follows field/index/deref chains down to the root
// identifier binding an expression ultimately reads or writes through.
func (c *fnCtx) resolveLValueBinding(e ast.Expr) (*Binding, bool) {
	switch v := e.(type) {
	case *ast.Ident:
		return c.scope.Lookup(v.Name)
	case *ast.FieldAccess:
		return c.resolveLValueBinding(v.Receiver)
	case *ast.Index:
		return c.resolveLValueBinding(v.Receiver)
	case *ast.Deref:
		return c.resolveLValueBinding(v.Operand)
	default:
		return nil, false
	}
}

// checkExpr type-checks e, using hint as the bidirectional expected-type
// context where one is available (a let annotation, a parameter type, a
// function's return type), and returns e's resolved type. isMoveContext
// marks a position that consumes its operand by value (a let initializer
// or a return value): a bare identifier of non-copy type read there is
// treated as a move.
func (c *fnCtx) checkExpr(e ast.Expr, hint *ast.Type, isMoveContext bool) ast.Type {
	switch v := e.(type) {
	case *ast.IntLit:
		name := v.Suffix
		if name == "" {
			name = "i32"
		}
		return ast.Primitive(name, v.Span)

	case *ast.FloatLit:
		name := v.Suffix
		if name == "" {
			name = "f64"
		}
		return ast.Primitive(name, v.Span)

	case *ast.BoolLit:
		return ast.Primitive("bool", v.Span)

	case *ast.StringLit:
		return ast.Primitive("String", v.Span)

	case *ast.TemplateLit:
		for _, part := range v.Parts {
			if part.IsExpr {
				c.checkExpr(part.Expr, nil, false)
			}
		}
		return ast.Primitive("String", v.Span)

	case *ast.Ident:
		b, ok := c.scope.Lookup(v.Name)
		if !ok {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "undefined name %q", v.Name)
			return voidType
		}
		c.checkMove(b, v.Span, isMoveContext)
		return b.Type

	case *ast.Binary:
		return c.checkBinary(v)

	case *ast.Unary:
		operand := c.checkExpr(v.Operand, nil, false)
		switch v.Op {
		case ast.UnNot:
			if !isBool(operand) {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span, "'!' requires a bool operand")
			}
			return ast.Primitive("bool", v.Span)
		default:
			if !isNumeric(operand) {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span, "unary '-' requires a numeric operand")
			}
			return operand
		}

	case *ast.Ref:
		inner := c.checkExpr(v.Operand, nil, false)
		if b, ok := c.resolveLValueBinding(v.Operand); ok {
			c.checkBorrow(b, v.Mut, v.Span)
		}
		return ast.RefTo(inner, v.Mut, v.Span)

	case *ast.Deref:
		inner := c.checkExpr(v.Operand, nil, false)
		if inner.Kind != ast.TypeRef {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span, "cannot dereference non-reference type %s", inner.String())
			return voidType
		}
		return *inner.Elem

	case *ast.Call:
		return c.checkCall(v)

	case *ast.MethodCall:
		return c.checkMethodCall(v)

	case *ast.FieldAccess:
		return c.checkFieldAccess(v)

	case *ast.Index:
		recv := c.checkExpr(v.Receiver, nil, false)
		idx := c.checkExpr(v.Index, nil, false)
		if !isNumeric(idx) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Index.ExprSpan(), "array index must be numeric")
		}
		if recv.Kind != ast.TypeArray {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span, "cannot index non-array type %s", recv.String())
			return voidType
		}
		return *recv.Elem

	case *ast.StructLit:
		return c.checkStructLit(v)

	case *ast.EnumLit:
		return c.checkEnumLit(v)

	case *ast.If:
		return c.checkIf(v, hint)

	case *ast.Block:
		return c.checkBlockScoped(v)

	case *ast.Match:
		return c.checkMatch(v, hint)

	default:
		return voidType
	}
}

func (c *fnCtx) checkBinary(v *ast.Binary) ast.Type {
	switch v.Op {
	case ast.BinAnd, ast.BinOr:
		l := c.checkExpr(v.Left, nil, false)
		r := c.checkExpr(v.Right, nil, false)
		if !isBool(l) || !isBool(r) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span, "operator %s requires bool operands", v.Op)
		}
		return ast.Primitive("bool", v.Span)

	case ast.BinEq, ast.BinNotEq, ast.BinLt, ast.BinGt, ast.BinLtEq, ast.BinGtEq:
		l := c.checkExpr(v.Left, nil, false)
		r := c.checkExpr(v.Right, nil, false)
		if !l.Equal(r) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
				"cannot compare %s with %s", l.String(), r.String())
		}
		return ast.Primitive("bool", v.Span)

	default: // arithmetic, including string concatenation with '+'
		l := c.checkExpr(v.Left, nil, false)
		r := c.checkExpr(v.Right, nil, false)
		if v.Op == ast.BinAdd && isString(l) && isString(r) {
			return l
		}
		if !isNumeric(l) || !isNumeric(r) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
				"operator %s requires numeric operands, got %s and %s", v.Op, l.String(), r.String())
			return l
		}
		if !l.Equal(r) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
				"mismatched operand types %s and %s; no implicit numeric coercion", l.String(), r.String())
		}
		return l
	}
}

func (c *fnCtx) checkCall(v *ast.Call) ast.Type {
	id, ok := v.Callee.(*ast.Ident)
	if !ok {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindUnsupportedConstruct, v.Span, "unsupported call target")
		return voidType
	}
	sig, ok := c.a.reg.Functions[id.Name]
	if !ok {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "undefined function %q", id.Name)
		return voidType
	}
	if len(v.Args) != len(sig.Params) {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindArgCount, v.Span,
			"%s expects %d argument(s), got %d", id.Name, len(sig.Params), len(v.Args))
	}

	subst := map[string]ast.Type{}
	for i, t := range v.TypeArgs {
		if i < len(sig.TypeParams) {
			subst[sig.TypeParams[i]] = t
		}
	}
	n := len(v.Args)
	if len(sig.Params) < n {
		n = len(sig.Params)
	}
	argTypes := make([]ast.Type, n)
	for i := 0; i < n; i++ {
		paramType := substituteTypeVars(sig.Params[i].Type, subst)
		at := c.checkExpr(v.Args[i], &paramType, paramType.Kind != ast.TypeRef)
		argTypes[i] = at
		unify(sig.Params[i].Type, at, subst)
	}
	for i := 0; i < n; i++ {
		paramType := substituteTypeVars(sig.Params[i].Type, subst)
		if !paramType.Equal(argTypes[i]) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Args[i].ExprSpan(),
				"argument %d to %s: expected %s, got %s", i+1, id.Name, paramType.String(), argTypes[i].String())
		}
	}
	for _, tp := range sig.TypeParams {
		if _, solved := subst[tp]; !solved {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUnsolvedGeneric, v.Span, "cannot infer %s", tp)
		}
	}
	return substituteTypeVars(sig.ReturnType, subst)
}

func (c *fnCtx) checkMethodCall(v *ast.MethodCall) ast.Type {
	recv := c.checkExpr(v.Receiver, nil, false)
	recvName := recv.Name
	if recv.Kind == ast.TypeRef {
		recvName = recv.Elem.Name
	}
	sig, ok := c.a.reg.method(recvName, v.Method)
	if !ok {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindMethodNotFound, v.Span,
			"no method %q on type %s", v.Method, recvName)
		return voidType
	}
	if len(v.Args) != len(sig.Params) {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindArgCount, v.Span,
			"%s expects %d argument(s), got %d", v.Method, len(sig.Params), len(v.Args))
	}
	n := len(v.Args)
	if len(sig.Params) < n {
		n = len(sig.Params)
	}
	for i := 0; i < n; i++ {
		paramType := sig.Params[i].Type
		at := c.checkExpr(v.Args[i], &paramType, paramType.Kind != ast.TypeRef)
		if !paramType.Equal(at) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Args[i].ExprSpan(),
				"argument %d to %s: expected %s, got %s", i+1, v.Method, paramType.String(), at.String())
		}
	}
	return sig.ReturnType
}

func (c *fnCtx) checkFieldAccess(v *ast.FieldAccess) ast.Type {
	recv := c.checkExpr(v.Receiver, nil, false)
	typeName := recv.Name
	if recv.Kind == ast.TypeRef {
		typeName = recv.Elem.Name
	}
	f, ok := c.a.reg.field(typeName, v.Field)
	if !ok {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "type %s has no field %q", typeName, v.Field)
		return voidType
	}
	return f.Type
}

func (c *fnCtx) checkStructLit(v *ast.StructLit) ast.Type {
	def, ok := c.a.reg.Types[v.TypeName]
	if !ok || def.Struct == nil {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "undefined struct type %q", v.TypeName)
		for _, fi := range v.Fields {
			c.checkExpr(fi.Value, nil, false)
		}
		return voidType
	}
	subst := map[string]ast.Type{}
	for i, t := range v.TypeArgs {
		if i < len(def.TypeParams) {
			subst[def.TypeParams[i]] = t
		}
	}
	byName := map[string]ast.Field{}
	for _, f := range def.Struct.Fields {
		byName[f.Name] = f
	}
	for _, fi := range v.Fields {
		f, ok := byName[fi.Name]
		if !ok {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, fi.Span, "%s has no field %q", v.TypeName, fi.Name)
			c.checkExpr(fi.Value, nil, false)
			continue
		}
		fieldType := substituteTypeVars(f.Type, subst)
		at := c.checkExpr(fi.Value, &fieldType, fieldType.Kind != ast.TypeRef)
		unify(f.Type, at, subst)
	}
	for _, tp := range def.TypeParams {
		if _, solved := subst[tp]; !solved {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUnsolvedGeneric, v.Span, "cannot infer %s", tp)
		}
	}
	if len(def.TypeParams) == 0 {
		return ast.Named(v.TypeName, v.Span)
	}
	args := make([]ast.Type, len(def.TypeParams))
	for i, tp := range def.TypeParams {
		args[i] = subst[tp]
	}
	return ast.Generic(v.TypeName, args, v.Span)
}

func (c *fnCtx) checkEnumLit(v *ast.EnumLit) ast.Type {
	def, variant, ok := c.a.reg.variant(v.TypeName, v.Variant)
	if !ok {
		if alt, ok2 := c.a.reg.findVariantType(v.Variant); ok2 {
			def = alt
			for i := range def.Variants {
				if def.Variants[i].Name == v.Variant {
					variant = &def.Variants[i]
				}
			}
		} else {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "undefined enum variant %q", v.Variant)
			for _, fi := range v.Fields {
				c.checkExpr(fi.Value, nil, false)
			}
			return voidType
		}
	}
	byName := map[string]ast.Field{}
	for _, f := range variant.Fields {
		byName[f.Name] = f
	}
	for _, fi := range v.Fields {
		f, ok := byName[fi.Name]
		if !ok {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, fi.Span, "variant %s has no field %q", variant.Name, fi.Name)
			c.checkExpr(fi.Value, nil, false)
			continue
		}
		at := c.checkExpr(fi.Value, &f.Type, f.Type.Kind != ast.TypeRef)
		if !f.Type.Equal(at) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, fi.Span,
				"field %q: expected %s, got %s", fi.Name, f.Type.String(), at.String())
		}
	}
	return ast.Named(def.Name, v.Span)
}

func (c *fnCtx) checkIf(v *ast.If, hint *ast.Type) ast.Type {
	cond := c.checkExpr(v.Cond, nil, false)
	if !isBool(cond) {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Cond.ExprSpan(), "if condition must be bool")
	}
	thenType := c.checkBlockScoped(v.Then)
	if v.Else == nil {
		return voidType
	}
	elseType := c.checkExpr(v.Else, hint, false)
	if !thenType.Equal(elseType) {
		c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, v.Span,
			"if/else branches disagree: %s vs %s", thenType.String(), elseType.String())
	}
	return thenType
}

func (c *fnCtx) checkMatch(v *ast.Match, hint *ast.Type) ast.Type {
	subjType := c.checkExpr(v.Subject, nil, false)
	var resultType ast.Type
	set := false
	for _, arm := range v.Arms {
		outer := c.scope
		c.scope = newScope(outer)
		c.bindPattern(arm.Pattern, subjType)
		if arm.Guard != nil {
			g := c.checkExpr(arm.Guard, nil, false)
			if !isBool(g) {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, arm.Guard.ExprSpan(), "match guard must be bool")
			}
		}
		bodyType := c.checkExpr(arm.Body, hint, false)
		c.releaseScopeBorrows(c.scope)
		c.scope = outer
		if !set {
			resultType = bodyType
			set = true
		} else if !resultType.Equal(bodyType) {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindTypeMismatch, arm.Span,
				"match arms disagree: %s vs %s", resultType.String(), bodyType.String())
		}
	}
	return resultType
}

func (c *fnCtx) bindPattern(p ast.Pattern, subjType ast.Type) {
	switch v := p.(type) {
	case *ast.WildcardPattern:
		// binds nothing
	case *ast.IdentPattern:
		c.scope.Declare(&Binding{Name: v.Name, Type: subjType, Mut: v.Mut})
	case *ast.LiteralPattern:
		c.checkExpr(v.Value, &subjType, false)
	case *ast.EnumVariantPattern:
		typeName := v.TypeName
		if typeName == "" {
			typeName = subjType.Name
		}
		_, variant, ok := c.a.reg.variant(typeName, v.Variant)
		if !ok {
			c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, v.Span, "undefined enum variant %q", v.Variant)
			return
		}
		byName := map[string]ast.Field{}
		for _, f := range variant.Fields {
			byName[f.Name] = f
		}
		for _, fp := range v.Fields {
			f, ok := byName[fp.Name]
			if !ok {
				c.a.bag.Addf(diag.StageAnalysis, diag.KindUndefined, fp.Span, "variant %s has no field %q", variant.Name, fp.Name)
				continue
			}
			c.bindPattern(fp.Pattern, f.Type)
		}
	}
}

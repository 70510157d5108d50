package sema

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
)

// Analyzer runs name/type resolution, reachability, borrow checking, and
// lifetime validation over a parsed, monomorphized file, reporting every
// problem it finds into one Bag.
type Analyzer struct {
	bag *diag.Bag
	reg *Registry
}

// New returns an Analyzer that reports into bag.
func New(bag *diag.Bag) *Analyzer {
	return &Analyzer{bag: bag, reg: newRegistry()}
}

// Registry exposes the analyzer's populated global symbol table, for use
// by codegen (struct layouts, enum discriminants, function signatures).
func (a *Analyzer) Registry() *Registry { return a.reg }

// Analyze runs the full analysis pipeline over file: first registering
// every top-level type and signature, then checking each function and
// method body against that registry.
func (a *Analyzer) Analyze(file *ast.File) {
	a.registerItems(file)

	for _, it := range file.Items {
		switch v := it.(type) {
		case *ast.Function:
			a.checkFunction(v)
		case *ast.Method:
			a.checkMethod(v)
		}
	}
}

func (a *Analyzer) registerItems(file *ast.File) {
	for _, it := range file.Items {
		switch v := it.(type) {
		case *ast.Function:
			if _, dup := a.reg.Functions[v.Name]; dup {
				a.bag.Addf(diag.StageAnalysis, diag.KindDuplicate, v.Span, "duplicate function %q", v.Name)
				continue
			}
			a.reg.Functions[v.Name] = &FuncSig{
				Name: v.Name, TypeParams: v.TypeParams, Params: v.Params,
				ReturnType: v.ReturnType, HasReturn: !isVoid(v.ReturnType), Lives: v.Lives, Node: v,
			}
		case *ast.StructDef:
			if _, dup := a.reg.Types[v.Name]; dup {
				a.bag.Addf(diag.StageAnalysis, diag.KindDuplicate, v.Span, "duplicate type %q", v.Name)
				continue
			}
			a.reg.Types[v.Name] = &TypeDef{Name: v.Name, TypeParams: v.TypeParams, Struct: v}
		case *ast.EnumDef:
			if _, dup := a.reg.Types[v.Name]; dup {
				a.bag.Addf(diag.StageAnalysis, diag.KindDuplicate, v.Span, "duplicate type %q", v.Name)
				continue
			}
			a.reg.Types[v.Name] = &TypeDef{Name: v.Name, TypeParams: v.TypeParams, Enum: v}
		case *ast.AliasDef:
			if _, dup := a.reg.Types[v.Name]; dup {
				a.bag.Addf(diag.StageAnalysis, diag.KindDuplicate, v.Span, "duplicate type %q", v.Name)
				continue
			}
			u := v.Underlying
			a.reg.Types[v.Name] = &TypeDef{Name: v.Name, Alias: &u}
		case *ast.Method:
			if a.reg.Methods[v.ReceiverType] == nil {
				a.reg.Methods[v.ReceiverType] = map[string]*FuncSig{}
			}
			if _, dup := a.reg.Methods[v.ReceiverType][v.Name]; dup {
				a.bag.Addf(diag.StageAnalysis, diag.KindDuplicate, v.Span,
					"duplicate method %q on %s", v.Name, v.ReceiverType)
				continue
			}
			a.reg.Methods[v.ReceiverType][v.Name] = &FuncSig{
				Name: v.Name, TypeParams: v.TypeParams, Params: v.Params,
				ReturnType: v.ReturnType, HasReturn: !isVoid(v.ReturnType), Lives: v.Lives, Node: v,
			}
		}
	}
}

// fnCtx carries the state shared by every check* call within one
// function or method body: the current scope chain and the enclosing
// function's declared return type.
type fnCtx struct {
	a          *Analyzer
	scope      *Scope
	returnType ast.Type
	hasReturn  bool
}

func (a *Analyzer) checkFunction(f *ast.Function) {
	a.checkLifetimes(f.Lives)
	root := newScope(nil)
	for _, p := range f.Params {
		root.Declare(&Binding{Name: p.Name, Type: p.Type})
	}
	ctx := &fnCtx{a: a, scope: root, returnType: f.ReturnType, hasReturn: !isVoid(f.ReturnType)}
	if f.Body == nil {
		return
	}
	bodyType := ctx.checkBlockScoped(f.Body)
	ctx.checkMissingReturn(f.Body, bodyType)
}

func (a *Analyzer) checkMethod(m *ast.Method) {
	a.checkLifetimes(m.Lives)
	root := newScope(nil)
	root.Declare(&Binding{
		Name: m.Receiver.Name,
		Type: receiverAstType(m.Receiver),
		Mut:  m.Receiver.Mut,
	})
	for _, p := range m.Params {
		root.Declare(&Binding{Name: p.Name, Type: p.Type})
	}
	ctx := &fnCtx{a: a, scope: root, returnType: m.ReturnType, hasReturn: !isVoid(m.ReturnType)}
	if m.Body == nil {
		return
	}
	bodyType := ctx.checkBlockScoped(m.Body)
	ctx.checkMissingReturn(m.Body, bodyType)
}

func receiverAstType(r ast.Receiver) ast.Type {
	named := ast.Named(r.TypeName, r.Span)
	if r.ByRef {
		return ast.RefTo(named, r.Mut, r.Span)
	}
	return named
}

// checkMissingReturn enforces that every terminal path of a non-void
// function ends in a return or a tail expression of the return type.
func (c *fnCtx) checkMissingReturn(body *ast.Block, bodyType ast.Type) {
	if !c.hasReturn {
		return
	}
	if len(body.Stmts) > 0 {
		if diverges(body.Stmts[len(body.Stmts)-1]) {
			return
		}
	}
	if body.Tail != nil {
		if bodyType.Equal(c.returnType) {
			return
		}
	}
	c.a.bag.Addf(diag.StageAnalysis, diag.KindMissingReturn, body.Span,
		"missing return: not every path returns a value")
}

// diverges reports whether control never falls through past s.
func diverges(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.ExprStmt:
		return exprDiverges(v.Expr)
	default:
		return false
	}
}

func exprDiverges(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.If:
		if v.Else == nil {
			return false
		}
		return blockOrExprDiverges(v.Then) && exprDivergesAsBranch(v.Else)
	case *ast.Block:
		if len(v.Stmts) > 0 && diverges(v.Stmts[len(v.Stmts)-1]) {
			return true
		}
		if v.Tail != nil {
			return exprDiverges(v.Tail)
		}
		return false
	default:
		return false
	}
}

func blockOrExprDiverges(b *ast.Block) bool {
	if b == nil {
		return false
	}
	if len(b.Stmts) > 0 && diverges(b.Stmts[len(b.Stmts)-1]) {
		return true
	}
	if b.Tail != nil {
		return exprDiverges(b.Tail)
	}
	return false
}

func exprDivergesAsBranch(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Block:
		return blockOrExprDiverges(v)
	case *ast.If:
		return exprDiverges(v)
	default:
		return false
	}
}

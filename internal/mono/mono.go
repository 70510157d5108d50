// Package mono implements the monomorphizer: for each generic top-level
// item it adds one concrete copy per distinct type-argument tuple
// actually used in the program, substituting type variables throughout
// the copy's signature and body. The generic originals stay in the output.
package mono

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/util"
)

// RunID is a process-unique identifier for one monomorphization pass,
// used only to correlate log/diagnostic output across a single
// compilation run (never part of an instantiation's deterministic name).
type RunID = uuid.UUID

// Result is the output of Monomorphize: a program containing only
// concrete types, plus bookkeeping about what was instantiated.
type Result struct {
	RunID        RunID
	File         *ast.File
	Instantiated map[string][]string // original generic item name -> instantiated names, sorted by type-argument tuple
}

// Monomorphize collects every concrete type-argument tuple used against
// each generic top-level function, struct, or enum anywhere in the
// program (at call sites and struct-literal sites), then appends one
// renamed concrete copy per distinct tuple,
// named deterministically as Name_<T1>_<T2>. The original generic
// items are preserved in the output (forward-reference scanning in the
// analyzer's first pass still needs to see them as declarations even
// though no call should ultimately resolve to the generic form once
// monomorphized copies exist); callers that want only concrete items
// should filter on IsGenericItem.
//
// Generic methods are not collected, method-call sites contribute no
// tuple, and enum-literal sites contribute none either, so a generic
// enum gets no concrete copy. A use site whose type arguments are
// neither explicit nor inferable from its literal arguments contributes
// no tuple. A program with no generic items passes through unchanged.
func Monomorphize(f *ast.File) *Result {
	res := &Result{
		RunID:        uuid.New(),
		File:         &ast.File{Package: f.Package, PackageSpan: f.PackageSpan, Imports: f.Imports},
		Instantiated: map[string][]string{},
	}

	generics := collectGenericItems(f)
	if len(generics) == 0 {
		res.File.Items = f.Items
		return res
	}

	usages := collectUsages(f, generics)

	res.File.Items = append(res.File.Items, f.Items...)

	names := make([]string, 0, len(generics))
	for name := range generics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		item := generics[name]
		tuples := usages[name]
		sort.Strings(tuples)
		for _, tuple := range tuples {
			args := strings.Split(tuple, "\x1f")
			instName := instantiationName(name, args)
			res.Instantiated[name] = append(res.Instantiated[name], instName)
			res.File.Items = append(res.File.Items, instantiate(item, args, instName))
		}
	}

	return res
}

// instantiationName builds the deterministic Name_<T1>_<T2> suffix used
// for each concrete instantiation of a generic item.
func instantiationName(base string, args []string) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, a := range args {
		sb.WriteByte('_')
		sb.WriteString(sanitizeTypeName(a))
	}
	return sb.String()
}

func sanitizeTypeName(t string) string {
	r := strings.NewReplacer("<", "_", ">", "_", ",", "_", " ", "", "&", "ref", "[", "arr", "]", "")
	return r.Replace(t)
}

func collectGenericItems(f *ast.File) map[string]ast.Item {
	out := map[string]ast.Item{}
	for _, it := range f.Items {
		switch v := it.(type) {
		case *ast.Function:
			if len(v.TypeParams) > 0 {
				out[v.Name] = it
			}
		case *ast.StructDef:
			if len(v.TypeParams) > 0 {
				out[v.Name] = it
			}
		case *ast.EnumDef:
			if len(v.TypeParams) > 0 {
				out[v.Name] = it
			}
		}
	}
	return out
}

func typeParamsOf(item ast.Item) []string {
	switch v := item.(type) {
	case *ast.Function:
		return v.TypeParams
	case *ast.StructDef:
		return v.TypeParams
	case *ast.EnumDef:
		return v.TypeParams
	}
	return nil
}

// collectUsages walks every call and struct literal site (enum literals
// are visited but never yield a tuple) and records the concrete
// type-argument tuple implied there against the generic item it targets.
// Because full type inference lives in internal/sema, this pre-pass uses
// a lightweight, syntax-driven unification instead: argument
// expressions are matched against the generic's declared parameter types
// positionally, and any parameter type that is itself a bare type-variable
// name contributes one entry to the tuple, inferred from the textual
// shape of the argument where it is a literal, or from an explicit type
// argument when the call site supplies one.
func collectUsages(f *ast.File, generics map[string]ast.Item) map[string][]string {
	usages := map[string]util.StringSet{}
	addUsage := func(name, tuple string) {
		if usages[name] == nil {
			usages[name] = util.NewStringSet()
		}
		usages[name].Add(tuple)
	}

	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.Call:
			if id, ok := v.Callee.(*ast.Ident); ok {
				if item, ok := generics[id.Name]; ok {
					tuple := inferArgTuple(item, v.Args, v.TypeArgs)
					if tuple != "" {
						addUsage(id.Name, tuple)
					}
				}
			}
			walkExpr(v.Callee)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.MethodCall:
			walkExpr(v.Receiver)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.StructLit:
			if item, ok := generics[v.TypeName]; ok {
				tuple := inferFieldTuple(item, v.Fields, v.TypeArgs)
				if tuple != "" {
					addUsage(v.TypeName, tuple)
				}
			}
			for _, fi := range v.Fields {
				walkExpr(fi.Value)
			}
		case *ast.EnumLit:
			if item, ok := generics[v.TypeName]; ok {
				tuple := inferFieldTuple(item, v.Fields, nil)
				if tuple != "" {
					addUsage(v.TypeName, tuple)
				}
			}
			for _, fi := range v.Fields {
				walkExpr(fi.Value)
			}
		case *ast.Binary:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.Unary:
			walkExpr(v.Operand)
		case *ast.Ref:
			walkExpr(v.Operand)
		case *ast.Deref:
			walkExpr(v.Operand)
		case *ast.FieldAccess:
			walkExpr(v.Receiver)
		case *ast.Index:
			walkExpr(v.Receiver)
			walkExpr(v.Index)
		case *ast.If:
			walkExpr(v.Cond)
			walkBlock(v.Then, walkExpr)
			if v.Else != nil {
				walkExpr(v.Else)
			}
		case *ast.Block:
			walkBlock(v, walkExpr)
		case *ast.Match:
			walkExpr(v.Subject)
			for _, arm := range v.Arms {
				walkExpr(arm.Guard)
				walkExpr(arm.Body)
			}
		case *ast.TemplateLit:
			for _, part := range v.Parts {
				if part.IsExpr {
					walkExpr(part.Expr)
				}
			}
		}
	}

	for _, it := range f.Items {
		switch v := it.(type) {
		case *ast.Function:
			walkBlock(v.Body, walkExpr)
		case *ast.Method:
			walkBlock(v.Body, walkExpr)
		}
	}

	out := map[string][]string{}
	for name, set := range usages {
		out[name] = append(out[name], set.Elements()...)
	}
	return out
}

func walkBlock(b *ast.Block, walkExpr func(ast.Expr)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		switch v := s.(type) {
		case *ast.LetStmt:
			walkExpr(v.Value)
		case *ast.AssignStmt:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *ast.CompoundAssignStmt:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *ast.ReturnStmt:
			walkExpr(v.Value)
		case *ast.WhileStmt:
			walkExpr(v.Cond)
			walkBlock(v.Body, walkExpr)
		case *ast.ForStmt:
			walkExpr(v.Cond)
			walkBlock(v.Body, walkExpr)
		case *ast.ExprStmt:
			walkExpr(v.Expr)
		}
	}
	walkExpr(b.Tail)
}

// inferArgTuple infers a generic function's concrete type-argument tuple
// from its call-site arguments, the same bidirectional-hint unification
// performs for generic call inference.
func inferArgTuple(item ast.Item, args []ast.Expr, explicit []ast.Type) string {
	params := typeParamsOf(item)
	if len(explicit) == len(params) && len(explicit) > 0 {
		return joinTypeNames(explicit)
	}
	fn, ok := item.(*ast.Function)
	if !ok {
		return ""
	}
	solved := make([]string, len(params))
	for i, param := range fn.Params {
		if i >= len(args) {
			break
		}
		if param.Type.Kind == ast.TypeVar {
			if idx := indexOf(params, param.Type.Name); idx >= 0 && solved[idx] == "" {
				solved[idx] = exprTypeName(args[i])
			}
		}
	}
	for _, s := range solved {
		if s == "" {
			return ""
		}
	}
	return strings.Join(solved, "\x1f")
}

func inferFieldTuple(item ast.Item, fields []ast.FieldInit, explicit []ast.Type) string {
	params := typeParamsOf(item)
	if len(explicit) == len(params) && len(explicit) > 0 {
		return joinTypeNames(explicit)
	}
	sdef, ok := item.(*ast.StructDef)
	if !ok {
		return ""
	}
	solved := make([]string, len(params))
	byName := map[string]string{}
	for _, fi := range fields {
		byName[fi.Name] = exprTypeName(fi.Value)
	}
	for _, f := range sdef.Fields {
		if f.Type.Kind == ast.TypeVar {
			if idx := indexOf(params, f.Type.Name); idx >= 0 && solved[idx] == "" {
				if v, ok := byName[f.Name]; ok {
					solved[idx] = v
				}
			}
		}
	}
	for _, s := range solved {
		if s == "" {
			return ""
		}
	}
	return strings.Join(solved, "\x1f")
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// exprTypeName gives a best-effort syntactic type name for an argument
// expression, sufficient for the pre-inference pass; internal/sema
// performs the authoritative inference and will report "cannot infer T"
// itself if this pass could not determine a tuple.
func exprTypeName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.IntLit:
		if v.Suffix != "" {
			return v.Suffix
		}
		return "i32"
	case *ast.FloatLit:
		if v.Suffix != "" {
			return v.Suffix
		}
		return "f64"
	case *ast.BoolLit:
		return "bool"
	case *ast.StringLit:
		return "String"
	case *ast.TemplateLit:
		return "String"
	default:
		return ""
	}
}

func joinTypeNames(types []ast.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, "\x1f")
}

// instantiate produces a renamed, deep copy of item with every occurrence
// of a type variable in params substituted by the corresponding concrete
// type name from args.
func instantiate(item ast.Item, args []string, newName string) ast.Item {
	params := typeParamsOf(item)
	subst := map[string]ast.Type{}
	for i, p := range params {
		if i < len(args) {
			subst[p] = ast.Named(args[i], ast.Type{}.Span)
		}
	}

	switch v := item.(type) {
	case *ast.Function:
		cp := *v
		cp.Name = newName
		cp.TypeParams = nil
		cp.Params = substParams(v.Params, subst)
		cp.ReturnType = substType(v.ReturnType, subst)
		cp.Body = substBlock(v.Body, subst)
		return &cp
	case *ast.StructDef:
		cp := *v
		cp.Name = newName
		cp.TypeParams = nil
		cp.Fields = substFields(v.Fields, subst)
		return &cp
	case *ast.EnumDef:
		cp := *v
		cp.Name = newName
		cp.TypeParams = nil
		variants := make([]ast.Variant, len(v.Variants))
		for i, variant := range v.Variants {
			variants[i] = variant
			variants[i].Fields = substFields(variant.Fields, subst)
		}
		cp.Variants = variants
		return &cp
	default:
		return item
	}
}

func substType(t ast.Type, subst map[string]ast.Type) ast.Type {
	if t.Kind == ast.TypeVar {
		if concrete, ok := subst[t.Name]; ok {
			return concrete
		}
	}
	if t.Elem != nil {
		e := substType(*t.Elem, subst)
		t.Elem = &e
	}
	for i := range t.Args {
		t.Args[i] = substType(t.Args[i], subst)
	}
	for i := range t.Elems {
		t.Elems[i] = substType(t.Elems[i], subst)
	}
	return t
}

func substParams(params []ast.Param, subst map[string]ast.Type) []ast.Param {
	out := make([]ast.Param, len(params))
	for i, p := range params {
		out[i] = p
		out[i].Type = substType(p.Type, subst)
	}
	return out
}

func substFields(fields []ast.Field, subst map[string]ast.Type) []ast.Field {
	out := make([]ast.Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].Type = substType(f.Type, subst)
	}
	return out
}

// substBlock performs a deep, type-substituting copy of a function body.
// Expression/statement structure does not itself carry types in this
// tree (those are assigned later by internal/sema), so the block is
// reused as-is; only type-parameter-bearing let-annotations need
// substitution.
func substBlock(b *ast.Block, subst map[string]ast.Type) *ast.Block {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Stmts = make([]ast.Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		cp.Stmts[i] = substStmt(s, subst)
	}
	return &cp
}

func substStmt(s ast.Stmt, subst map[string]ast.Type) ast.Stmt {
	switch v := s.(type) {
	case *ast.LetStmt:
		cp := *v
		if cp.HasType {
			cp.Type = substType(cp.Type, subst)
		}
		return &cp
	case *ast.WhileStmt:
		cp := *v
		cp.Body = substBlock(v.Body, subst)
		return &cp
	case *ast.ForStmt:
		cp := *v
		cp.Body = substBlock(v.Body, subst)
		return &cp
	default:
		return s
	}
}

// IsGenericItem reports whether it still declares unsubstituted type
// parameters (true for the original generic templates left in the output
// tree alongside their concrete instantiations).
func IsGenericItem(it ast.Item) bool {
	return len(typeParamsOf(it)) > 0
}

// Package codegen lowers a monomorphized, analyzed syntax tree into the
// internal/ir SSA form: every local becomes a stack slot (an Alloc plus
// load/store traffic), aggregates are laid out field-by-field, and
// control flow becomes explicit blocks joined by phi nodes.
package codegen

import (
	"fmt"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/ir"
	"github.com/dekarrin/yunic/internal/sema"
)

// Codegen lowers one analyzed file into an ir.Module, consulting reg for
// struct/enum layouts and function/method signatures.
type Codegen struct {
	reg        *sema.Registry
	mod        *ir.Module
	currentFn  string // IR name of the function/method being lowered (Type_method for a method), for tail-call detection
	strCount   int
	layouts    map[string]ir.Type // memoized struct/enum layouts, keyed by type name
}

// New returns a Codegen that lowers against reg.
func New(reg *sema.Registry) *Codegen {
	return &Codegen{reg: reg, layouts: map[string]ir.Type{}}
}

// Lower walks every function and method of file and returns the module
// produced.
func (g *Codegen) Lower(file *ast.File) *ir.Module {
	g.mod = &ir.Module{Name: file.Package}
	for _, it := range file.Items {
		switch v := it.(type) {
		case *ast.Function:
			g.currentFn = v.Name
			g.mod.Functions = append(g.mod.Functions, g.lowerFunction(v.Name, v.Params, v.ReturnType, v.Body))
		case *ast.Method:
			name := v.ReceiverType + "_" + v.Name
			params := append([]ast.Param{{Name: v.Receiver.Name, Type: receiverAstType(v.Receiver)}}, v.Params...)
			g.currentFn = name
			g.mod.Functions = append(g.mod.Functions, g.lowerFunction(name, params, v.ReturnType, v.Body))
		}
	}
	return g.mod
}

func receiverAstType(r ast.Receiver) ast.Type {
	named := ast.Named(r.TypeName, r.Span)
	if r.ByRef {
		return ast.RefTo(named, r.Mut, r.Span)
	}
	return named
}

// lowerType converts a resolved source type into its concrete IR shape.
// By the time codegen runs, internal/mono has already replaced every
// generic instantiation with a concrete named type, so TypeVar/TypeGeneric
// should not appear in reachable code; they fall back to an opaque
// pointer rather than panicking, so a gap in monomorphization degrades
// to a bad layout instead of crashing the backend.
func (g *Codegen) lowerType(t ast.Type) ir.Type {
	switch t.Kind {
	case ast.TypePrimitive:
		return lowerPrimitive(t.Name)
	case ast.TypeArray:
		elem := g.lowerType(*t.Elem)
		return ir.Type{Kind: ir.TypeArray, Elem: &elem}
	case ast.TypeRef:
		return ir.Type{Kind: ir.TypePtr}
	case ast.TypeTuple:
		fields := make([]ir.Type, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = g.lowerType(e)
		}
		return ir.Type{Kind: ir.TypeTuple, Name: "tuple", Fields: fields}
	case ast.TypeNamed:
		return g.namedLayout(t.Name)
	case ast.TypeGeneric:
		return g.namedLayout(t.Name)
	default:
		return ir.Type{Kind: ir.TypePtr}
	}
}

func lowerPrimitive(name string) ir.Type {
	switch name {
	case "bool":
		return ir.Type{Kind: ir.TypeBool, Name: "bool"}
	case "String", "str":
		return ir.Type{Kind: ir.TypePtr, Name: "str"}
	case "":
		return ir.Type{Kind: ir.TypeVoid}
	default:
		if len(name) > 0 && (name[0] == 'f') {
			return ir.Type{Kind: ir.TypeFloat, Name: name}
		}
		return ir.Type{Kind: ir.TypeInt, Name: name}
	}
}

// namedLayout resolves a struct, enum, or alias by name to its concrete
// layout, memoizing the result since a type can be referenced from many
// call sites.
func (g *Codegen) namedLayout(name string) ir.Type {
	if cached, ok := g.layouts[name]; ok {
		return cached
	}
	def, ok := g.reg.Types[name]
	if !ok {
		return ir.Type{Kind: ir.TypePtr, Name: name}
	}
	switch {
	case def.Alias != nil:
		resolved := g.lowerType(*def.Alias)
		g.layouts[name] = resolved
		return resolved
	case def.Struct != nil:
		// Placeholder breaks self-referential layout recursion (a struct
		// holding a reference to its own type); reference fields lower
		// to a bare pointer regardless, so the recursion never actually
		// needs the placeholder's contents.
		g.layouts[name] = ir.Type{Kind: ir.TypeStruct, Name: name}
		fields := make([]ir.Type, len(def.Struct.Fields))
		for i, f := range def.Struct.Fields {
			fields[i] = g.lowerType(f.Type)
		}
		layout := ir.Type{Kind: ir.TypeStruct, Name: name, Fields: fields}
		g.layouts[name] = layout
		return layout
	case def.Enum != nil:
		g.layouts[name] = ir.Type{Kind: ir.TypeEnum, Name: name}
		layout := g.enumLayout(name, def.Enum)
		g.layouts[name] = layout
		return layout
	default:
		return ir.Type{Kind: ir.TypePtr, Name: name}
	}
}

// enumLayout assigns the discriminant the narrowest integer width that
// can hold every variant index, and records each variant's field types
// so codegen can GEP into whichever variant a match arm has proven the
// value to be.
func (g *Codegen) enumLayout(name string, def *ast.EnumDef) ir.Type {
	disc := discriminantType(len(def.Variants))
	variants := make([]ir.VariantLayout, len(def.Variants))
	for i, v := range def.Variants {
		fields := make([]ir.Type, len(v.Fields))
		for j, f := range v.Fields {
			fields[j] = g.lowerType(f.Type)
		}
		variants[i] = ir.VariantLayout{Name: v.Name, Index: v.Index, Fields: fields}
	}
	return ir.Type{Kind: ir.TypeEnum, Name: name, Fields: []ir.Type{disc}, Variants: variants}
}

func discriminantType(variantCount int) ir.Type {
	switch {
	case variantCount <= 1<<8:
		return ir.Type{Kind: ir.TypeInt, Name: "u8"}
	case variantCount <= 1<<16:
		return ir.Type{Kind: ir.TypeInt, Name: "u16"}
	case variantCount <= 1<<32:
		return ir.Type{Kind: ir.TypeInt, Name: "u32"}
	default:
		return ir.Type{Kind: ir.TypeInt, Name: "u64"}
	}
}

func binOpToArith(op ast.BinOp) ir.ArithOp {
	switch op {
	case ast.BinAdd:
		return ir.OpAdd
	case ast.BinSub:
		return ir.OpSub
	case ast.BinMul:
		return ir.OpMul
	case ast.BinDiv:
		return ir.OpDiv
	case ast.BinMod:
		return ir.OpMod
	default:
		panic(fmt.Sprintf("codegen: %s is not an arithmetic operator", op))
	}
}

func binOpToCmp(op ast.BinOp) ir.CmpPred {
	switch op {
	case ast.BinEq:
		return ir.CmpEq
	case ast.BinNotEq:
		return ir.CmpNe
	case ast.BinLt:
		return ir.CmpLt
	case ast.BinLtEq:
		return ir.CmpLe
	case ast.BinGt:
		return ir.CmpGt
	case ast.BinGtEq:
		return ir.CmpGe
	default:
		panic(fmt.Sprintf("codegen: %s is not a comparison operator", op))
	}
}

func isUnsigned(name string) bool {
	return len(name) > 0 && name[0] == 'u'
}

// fieldIndex resolves a struct field's declaration-order index and
// source type, the basis for every field GEP codegen emits.
func (g *Codegen) fieldIndex(t ast.Type, name string) (int, ast.Type) {
	def, ok := g.reg.Types[t.Name]
	if !ok || def.Struct == nil {
		return 0, ast.Type{}
	}
	for i, f := range def.Struct.Fields {
		if f.Name == name {
			return i, f.Type
		}
	}
	return 0, ast.Type{}
}

// variantLayout resolves an enum literal's variant to its discriminant
// index and lowered field types, in declaration order.
func (g *Codegen) variantLayout(typeName, variantName string) (int, []ir.Type) {
	def, ok := g.reg.Types[typeName]
	if !ok || def.Enum == nil {
		return 0, nil
	}
	for _, v := range def.Enum.Variants {
		if v.Name == variantName {
			fields := make([]ir.Type, len(v.Fields))
			for i, f := range v.Fields {
				fields[i] = g.lowerType(f.Type)
			}
			return v.Index, fields
		}
	}
	return 0, nil
}

// findVariantType searches every registered enum for a variant named
// variantName, for an enum literal or pattern that omits the enclosing
// type name.
func (g *Codegen) findVariantType(variantName string) (string, bool) {
	found, count := "", 0
	for name, def := range g.reg.Types {
		if def.Enum == nil {
			continue
		}
		for _, v := range def.Enum.Variants {
			if v.Name == variantName {
				found = name
				count++
			}
		}
	}
	return found, count == 1
}

// stringConst interns s as a module-level global and returns a Const
// value referencing it.
func (g *Codegen) stringConst(s string) ir.Const {
	g.strCount++
	name := fmt.Sprintf("@str.%d", g.strCount)
	g.mod.Globals = append(g.mod.Globals, ir.Global{Name: name, Bytes: s})
	return ir.Const{Typ: ir.Type{Kind: ir.TypePtr, Name: "str"}, GlobalRef: name}
}

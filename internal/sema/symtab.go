// Package sema implements the semantic analyzer: name/type resolution,
// reachability, a borrow checker, and a lifetime-constraint engine,
// sharing one scoped symbol table across all four passes.
package sema

import (
	"github.com/dekarrin/yunic/internal/ast"
)

// Binding describes one named value visible in a scope: a let-bound
// local, a function parameter, or a method receiver.
type Binding struct {
	Name    string
	Type    ast.Type
	Mut     bool
	Moved   bool
	Borrows BorrowSet
}

// Scope is one lexical block's bindings, chained to its enclosing scope.
type Scope struct {
	parent   *Scope
	vars     map[string]*Binding
	releases []pendingRelease
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]*Binding{}}
}

// Declare introduces a new binding in this scope, shadowing any binding
// of the same name in an enclosing scope.
func (s *Scope) Declare(b *Binding) {
	s.vars[b.Name] = b
}

// Lookup searches this scope and its ancestors for name.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// FuncSig is a registered function or method signature, captured in the
// first analysis pass so later bodies can call forward-declared items.
type FuncSig struct {
	Name       string
	TypeParams []string
	Params     []ast.Param
	ReturnType ast.Type
	HasReturn  bool
	Lives      []ast.LifetimeConstraint
	Node       ast.Item
}

// TypeDef is a registered struct or enum definition.
type TypeDef struct {
	Name       string
	TypeParams []string
	Struct     *ast.StructDef // nil if this is an enum
	Enum       *ast.EnumDef   // nil if this is a struct
	Alias      *ast.Type      // non-nil only for a type alias
}

// Registry is the global, package-wide symbol table: every top-level
// type and function/method signature, populated by the first pass of
// name resolution before any body is checked.
type Registry struct {
	Types     map[string]*TypeDef
	Functions map[string]*FuncSig
	Methods   map[string]map[string]*FuncSig // receiver type name -> method name -> sig
}

func newRegistry() *Registry {
	return &Registry{
		Types:     map[string]*TypeDef{},
		Functions: map[string]*FuncSig{},
		Methods:   map[string]map[string]*FuncSig{},
	}
}

func (r *Registry) method(receiverType, name string) (*FuncSig, bool) {
	m, ok := r.Methods[receiverType]
	if !ok {
		return nil, false
	}
	sig, ok := m[name]
	return sig, ok
}

func (r *Registry) field(typeName, fieldName string) (ast.Field, bool) {
	def, ok := r.Types[typeName]
	if !ok || def.Struct == nil {
		return ast.Field{}, false
	}
	for _, f := range def.Struct.Fields {
		if f.Name == fieldName {
			return f, true
		}
	}
	return ast.Field{}, false
}

func (r *Registry) variant(typeName, variantName string) (*ast.EnumDef, *ast.Variant, bool) {
	def, ok := r.Types[typeName]
	if !ok || def.Enum == nil {
		return nil, nil, false
	}
	for i := range def.Enum.Variants {
		if def.Enum.Variants[i].Name == variantName {
			return def.Enum, &def.Enum.Variants[i], true
		}
	}
	return nil, nil, false
}

// findVariantType searches every enum for a variant named variantName,
// used when a pattern or construction omits the enclosing type name and
// it must be inferred.
func (r *Registry) findVariantType(variantName string) (*ast.EnumDef, bool) {
	var found *ast.EnumDef
	count := 0
	for _, def := range r.Types {
		if def.Enum == nil {
			continue
		}
		for _, v := range def.Enum.Variants {
			if v.Name == variantName {
				found = def.Enum
				count++
			}
		}
	}
	if count == 1 {
		return found, true
	}
	return nil, false
}

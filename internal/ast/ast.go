// Package ast defines the typed syntax tree produced by internal/parser.
// Trees form a strict, acyclic parent-to-child ownership; cycles among
// named types (a struct referencing its own name) are resolved by name
// through the analyzer's symbol table, never by a tree-level
// back-pointer.
package ast

import "github.com/dekarrin/yunic/internal/token"

// Import is a single import declaration.
type Import struct {
	Path  string
	Alias string // empty if no "as" clause
	Span  token.Span
}

// File is the root of a parsed compilation unit: a package name, its
// imports, and its top-level items, in declaration order.
type File struct {
	Package     string
	PackageSpan token.Span
	Imports     []Import
	Items       []Item
}

// Item is the common interface satisfied by every top-level declaration:
// functions, methods, and type definitions.
type Item interface {
	ItemSpan() token.Span
	itemNode()
}

// ItemKind enumerates the concrete shapes an Item can take.
type ItemKind int

const (
	ItemFunction ItemKind = iota
	ItemMethod
	ItemStruct
	ItemEnum
	ItemAlias
)

// Param is a single function/method parameter.
type Param struct {
	Name string
	Type Type
	Span token.Span
}

// Receiver is a method's implicit first parameter.
type Receiver struct {
	Name     string // conventionally "self", but the grammar does not mandate it
	Mut      bool
	ByRef    bool // &T or &mut T vs plain T (by value)
	TypeName string
	Span     token.Span
}

// LifetimeConstraint is one "'a = 'b, 'c" entry of a `lives` clause:
// Target outlives every name in Sources.
type LifetimeConstraint struct {
	Target  string
	Sources []string
	Span    token.Span
}

// Function is a top-level `fn` item.
type Function struct {
	Pub         bool
	Name        string
	TypeParams  []string
	Params      []Param
	ReturnType  Type // nil if none declared (void)
	Lives       []LifetimeConstraint
	Body        *Block
	Span        token.Span
}

func (*Function) itemNode()                 {}
func (f *Function) ItemSpan() token.Span    { return f.Span }

// Method is an `impl fn` item attached to ReceiverType.
type Method struct {
	Pub          bool
	ReceiverType string
	Receiver     Receiver
	Name         string
	TypeParams   []string
	Params       []Param
	ReturnType   Type
	Lives        []LifetimeConstraint
	Body         *Block
	Span         token.Span
}

func (*Method) itemNode()              {}
func (m *Method) ItemSpan() token.Span { return m.Span }

// Field is a named, typed struct field or enum-variant field.
type Field struct {
	Name string
	Type Type
	Span token.Span
}

// StructDef is a `type Name struct { ... }` item.
type StructDef struct {
	Name       string
	TypeParams []string
	Fields     []Field
	Span       token.Span
}

func (*StructDef) itemNode()              {}
func (s *StructDef) ItemSpan() token.Span { return s.Span }

// Variant is one member of an enum: a unit variant (no fields) or a
// variant carrying ordered named fields. Index is assigned by the parser
// in declaration order and is the variant's codegen discriminant.
type Variant struct {
	Name   string
	Fields []Field // empty for a unit variant
	Index  int
	Span   token.Span
}

// EnumDef is a `type Name enum { ... }` item.
type EnumDef struct {
	Name       string
	TypeParams []string
	Variants   []Variant
	Span       token.Span
}

func (*EnumDef) itemNode()              {}
func (e *EnumDef) ItemSpan() token.Span { return e.Span }

// AliasDef is a `type Name = Underlying` item.
type AliasDef struct {
	Name       string
	Underlying Type
	Span       token.Span
}

func (*AliasDef) itemNode()              {}
func (a *AliasDef) ItemSpan() token.Span { return a.Span }

// ---- Types ----

// TypeKind enumerates the shapes of the type tree.
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeArray
	TypeRef
	TypeNamed
	TypeGeneric
	TypeVar
	TypeTuple
)

// Type is a node in the type tree. Exactly one of the kind-specific
// fields is meaningful, selected by Kind.
type Type struct {
	Kind TypeKind
	Span token.Span

	// TypePrimitive / TypeVar / bare TypeNamed
	Name string

	// TypeArray / TypeRef: element/referent type.
	Elem *Type

	// TypeRef: whether the reference is exclusive (&mut T).
	Mut bool

	// TypeGeneric: Name<Args...>
	Args []Type

	// TypeTuple
	Elems []Type
}

func Primitive(name string, span token.Span) Type {
	return Type{Kind: TypePrimitive, Name: name, Span: span}
}

func Named(name string, span token.Span) Type {
	return Type{Kind: TypeNamed, Name: name, Span: span}
}

func Var(name string, span token.Span) Type {
	return Type{Kind: TypeVar, Name: name, Span: span}
}

func ArrayOf(elem Type, span token.Span) Type {
	return Type{Kind: TypeArray, Elem: &elem, Span: span}
}

func RefTo(elem Type, mut bool, span token.Span) Type {
	return Type{Kind: TypeRef, Elem: &elem, Mut: mut, Span: span}
}

func Generic(name string, args []Type, span token.Span) Type {
	return Type{Kind: TypeGeneric, Name: name, Args: args, Span: span}
}

func Tuple(elems []Type, span token.Span) Type {
	return Type{Kind: TypeTuple, Elems: elems, Span: span}
}

// String renders a type in source-like form, used for diagnostics and for
// the monomorphizer's deterministic instantiation-name suffixes.
func (t Type) String() string {
	switch t.Kind {
	case TypePrimitive, TypeNamed, TypeVar:
		return t.Name
	case TypeArray:
		return "[" + t.Elem.String() + "]"
	case TypeRef:
		if t.Mut {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	case TypeGeneric:
		s := t.Name + "<"
		for i, a := range t.Args {
			if i > 0 {
				s += ","
			}
			s += a.String()
		}
		return s + ">"
	case TypeTuple:
		s := "("
		for i, e := range t.Elems {
			if i > 0 {
				s += ","
			}
			s += e.String()
		}
		return s + ")"
	default:
		return "?"
	}
}

// Equal reports whether two types are structurally identical (ignoring
// spans).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypePrimitive, TypeNamed, TypeVar:
		return t.Name == o.Name
	case TypeArray:
		return t.Elem.Equal(*o.Elem)
	case TypeRef:
		return t.Mut == o.Mut && t.Elem.Equal(*o.Elem)
	case TypeGeneric:
		if t.Name != o.Name || len(t.Args) != len(o.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return true
	case TypeTuple:
		if len(t.Elems) != len(o.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

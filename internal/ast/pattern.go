package ast

import "github.com/dekarrin/yunic/internal/token"

// PatternKind enumerates the shapes of Pattern.
type PatternKind int

const (
	PatWildcard PatternKind = iota
	PatIdent
	PatLiteral
	PatEnumVariant
)

// Pattern is the common interface for every match-arm pattern.
type Pattern interface {
	Kind() PatternKind
	PatternSpan() token.Span
}

// WildcardPattern is `_`.
type WildcardPattern struct {
	Span token.Span
}

func (*WildcardPattern) Kind() PatternKind        { return PatWildcard }
func (p *WildcardPattern) PatternSpan() token.Span { return p.Span }

// IdentPattern binds the matched value to Name.
type IdentPattern struct {
	Name string
	Mut  bool
	Span token.Span
}

func (*IdentPattern) Kind() PatternKind        { return PatIdent }
func (p *IdentPattern) PatternSpan() token.Span { return p.Span }

// LiteralPattern matches a literal integer, float, bool, or string value.
type LiteralPattern struct {
	Value Expr // one of IntLit, FloatLit, BoolLit, StringLit
	Span  token.Span
}

func (*LiteralPattern) Kind() PatternKind        { return PatLiteral }
func (p *LiteralPattern) PatternSpan() token.Span { return p.Span }

// EnumVariantPattern matches a particular enum variant, optionally
// destructuring its fields with sub-patterns.
type EnumVariantPattern struct {
	TypeName string // may be empty when inferred from match-subject's type
	Variant  string
	Fields   []FieldPattern // empty for a unit-variant match or bare Variant
	Span     token.Span
}

func (*EnumVariantPattern) Kind() PatternKind        { return PatEnumVariant }
func (p *EnumVariantPattern) PatternSpan() token.Span { return p.Span }

// FieldPattern binds one field of a destructured enum-variant pattern.
type FieldPattern struct {
	Name    string
	Pattern Pattern
	Span    token.Span
}

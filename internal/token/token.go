// Package token defines the lexical tokens produced by the yuni lexer.
//
// Token and Class follow the shape of the ictiobus token types (class ID
// and human name, lexeme, line/position and full-line accessors) without
// importing that module, and Token additionally carries a byte-accurate
// Span.
package token

import (
	"fmt"
	"strings"
)

// Span is a byte range into a source buffer, with derived line/column
// information. Start and End are 0-indexed byte offsets; Line and Col are
// 1-indexed.
type Span struct {
	Start int
	End   int
	Line  int
	Col   int
}

// Equal reports whether s and o describe the same range.
func (s Span) Equal(o Span) bool {
	return s.Start == o.Start && s.End == o.End && s.Line == o.Line && s.Col == o.Col
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Col)
}

// Valid reports whether 0 <= Start <= End, the invariant every tree node
// must satisfy.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	start, end := a.Start, a.End
	line, col := a.Line, a.Col
	if b.Start < start {
		start = b.Start
		line, col = b.Line, b.Col
	}
	if b.End > end {
		end = b.End
	}
	return Span{Start: start, End: end, Line: line, Col: col}
}

// Class is the type of a Token - keyword, punctuation, literal kind, or
// identifier. Classes are compared case-sensitively by ID, unlike
// ictiobus's own default classes, because the source language is
// case-sensitive.
type Class struct {
	id    string
	human string
}

// NewClass returns a Class with the given unique ID and human-readable
// name used in diagnostics (e.g. "';'" or "identifier").
func NewClass(id, human string) Class {
	return Class{id: id, human: human}
}

func (c Class) ID() string    { return c.id }
func (c Class) Human() string { return c.human }

func (c Class) Equal(o any) bool {
	other, ok := o.(Class)
	if !ok {
		otherPtr, ok := o.(*Class)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	return c.id == other.id
}

func (c Class) String() string { return c.human }

// Well-known token classes.
var (
	Package  = NewClass("package", "'package'")
	Import   = NewClass("import", "'import'")
	As       = NewClass("as", "'as'")
	Fn       = NewClass("fn", "'fn'")
	Let      = NewClass("let", "'let'")
	Mut      = NewClass("mut", "'mut'")
	Type     = NewClass("type", "'type'")
	Struct   = NewClass("struct", "'struct'")
	Enum     = NewClass("enum", "'enum'")
	If       = NewClass("if", "'if'")
	Else     = NewClass("else", "'else'")
	For      = NewClass("for", "'for'")
	While    = NewClass("while", "'while'")
	Return   = NewClass("return", "'return'")
	Lives    = NewClass("lives", "'lives'")
	Pub      = NewClass("pub", "'pub'")
	Impl     = NewClass("impl", "'impl'")
	Match    = NewClass("match", "'match'")
	True     = NewClass("true", "'true'")
	False    = NewClass("false", "'false'")

	Ident = NewClass("ident", "identifier")

	IntLit    = NewClass("int_lit", "integer literal")
	FloatLit  = NewClass("float_lit", "float literal")
	StringLit = NewClass("string_lit", "string literal")
	TemplLit  = NewClass("templ_lit", "template string")
	PrimType  = NewClass("prim_type", "primitive type name")

	LParen   = NewClass("lparen", "'('")
	RParen   = NewClass("rparen", "')'")
	LBrace   = NewClass("lbrace", "'{'")
	RBrace   = NewClass("rbrace", "'}'")
	LBracket = NewClass("lbracket", "'['")
	RBracket = NewClass("rbracket", "']'")
	Comma       = NewClass("comma", "','")
	Semi        = NewClass("semi", "';'")
	Colon       = NewClass("colon", "':'")
	DoubleColon = NewClass("doublecolon", "'::'")
	Dot         = NewClass("dot", "'.'")
	Arrow       = NewClass("arrow", "'->'")

	Plus    = NewClass("plus", "'+'")
	Minus   = NewClass("minus", "'-'")
	Star    = NewClass("star", "'*'")
	Slash   = NewClass("slash", "'/'")
	Percent = NewClass("percent", "'%'")

	Eq      = NewClass("eq", "'='")
	EqEq    = NewClass("eqeq", "'=='")
	NotEq   = NewClass("noteq", "'!='")
	Lt      = NewClass("lt", "'<'")
	Gt      = NewClass("gt", "'>'")
	LtEq    = NewClass("lteq", "'<='")
	GtEq    = NewClass("gteq", "'>='")
	AndAnd  = NewClass("andand", "'&&'")
	OrOr    = NewClass("oror", "'||'")
	Not     = NewClass("not", "'!'")
	Amp     = NewClass("amp", "'&'")
	AmpMut  = NewClass("ampmut", "'&mut'")
	Star2   = NewClass("star_unary", "'*' (deref)")

	PlusEq  = NewClass("pluseq", "'+='")
	MinusEq = NewClass("minuseq", "'-='")
	StarEq  = NewClass("stareq", "'*='")
	SlashEq = NewClass("slasheq", "'/='")

	Lt2       = NewClass("lt_generic", "'<'")
	Gt2       = NewClass("gt_generic", "'>'")
	FatArrow  = NewClass("fatarrow", "'=>'")
	Underscore = NewClass("underscore", "'_'")

	EOF = NewClass("eof", "end of input")
)

// Token is a single lexeme with its class, text, and source span.
type Token struct {
	class    Class
	lexeme   string
	span     Span
	fullLine string
	// suffix is the optional numeric-literal bit-width/type suffix (e.g.
	// "i32", "u8", "f64") retained verbatim on int/float literal tokens.
	suffix string
}

// New constructs a Token.
func New(class Class, lexeme string, span Span, fullLine string) Token {
	return Token{class: class, lexeme: lexeme, span: span, fullLine: fullLine}
}

// WithSuffix returns a copy of t carrying the given numeric suffix.
func (t Token) WithSuffix(suffix string) Token {
	t.suffix = suffix
	return t
}

func (t Token) Class() Class       { return t.class }
func (t Token) Lexeme() string     { return t.lexeme }
func (t Token) Suffix() string     { return t.suffix }
func (t Token) Span() Span         { return t.span }
func (t Token) Line() int          { return t.span.Line }
func (t Token) LinePos() int       { return t.span.Col }
func (t Token) FullLine() string   { return t.fullLine }

func (t Token) String() string {
	var sb strings.Builder
	sb.WriteString(t.class.Human())
	if t.lexeme != "" {
		fmt.Fprintf(&sb, " %q", t.lexeme)
	}
	fmt.Fprintf(&sb, " @ %s", t.span)
	return sb.String()
}

// Equal compares two tokens for structural equality, including span.
func (t Token) Equal(o any) bool {
	other, ok := o.(Token)
	if !ok {
		otherPtr, ok := o.(*Token)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	return t.class.Equal(other.class) &&
		t.lexeme == other.lexeme &&
		t.span.Equal(other.span) &&
		t.suffix == other.suffix
}

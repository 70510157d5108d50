// Package lexer implements the source-to-token stage: a small hand-rolled
// state machine over match rules, tracking byte-accurate spans and
// raw-capturing template strings without splitting interpolations; see
// DESIGN.md for why this does not build on github.com/dekarrin/ictiobus's
// own lexer engine.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/token"
)

var keywords = map[string]token.Class{
	"package": token.Package,
	"import":  token.Import,
	"as":      token.As,
	"fn":      token.Fn,
	"let":     token.Let,
	"mut":     token.Mut,
	"type":    token.Type,
	"struct":  token.Struct,
	"enum":    token.Enum,
	"if":      token.If,
	"else":    token.Else,
	"for":     token.For,
	"while":   token.While,
	"return":  token.Return,
	"lives":   token.Lives,
	"pub":     token.Pub,
	"impl":    token.Impl,
	"match":   token.Match,
	"true":    token.True,
	"false":   token.False,
}

var primitiveTypeNames = func() map[string]bool {
	m := map[string]bool{"bool": true, "str": true, "String": true}
	for _, w := range []int{8, 16, 32, 64, 128, 256} {
		m[fmt.Sprintf("i%d", w)] = true
		m[fmt.Sprintf("u%d", w)] = true
	}
	for _, w := range []int{8, 16, 32, 64} {
		m[fmt.Sprintf("f%d", w)] = true
	}
	return m
}()

// Lexer converts a UTF-8 source buffer into a token stream, skipping
// whitespace and non-nesting line/block comments.
type Lexer struct {
	src     string
	pos     int // byte offset
	line    int // 1-indexed
	lineCol int // 1-indexed column of pos
	bag     *diag.Bag
}

// New returns a Lexer over src that reports lexical diagnostics into bag.
func New(src string, bag *diag.Bag) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, lineCol: 1, bag: bag}
}

// Tokens lexes the entire source and returns the resulting token stream.
// Lex errors never abort tokenization; the offending bytes are
// recorded as diagnostics and omitted from the returned stream.
func (lx *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		lx.skipWhitespaceAndComments()
		if lx.atEOF() {
			break
		}
		tok, ok := lx.next()
		if ok {
			out = append(out, tok)
		}
	}
	out = append(out, token.New(token.EOF, "", lx.span(lx.pos, lx.pos), lx.currentLine()))
	return out
}

func (lx *Lexer) atEOF() bool { return lx.pos >= len(lx.src) }

func (lx *Lexer) peekByte() byte {
	if lx.atEOF() {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *Lexer) peekByteAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

// advance consumes one byte, tracking line/column. Template/string content
// is consumed with this too, so position tracking stays correct even
// though the language forbids literal newlines inside quoted forms.
func (lx *Lexer) advance() byte {
	b := lx.src[lx.pos]
	lx.pos++
	if b == '\n' {
		lx.line++
		lx.lineCol = 1
	} else {
		lx.lineCol++
	}
	return b
}

func (lx *Lexer) span(start, end int) token.Span {
	return token.Span{Start: start, End: end, Line: lx.line, Col: lx.lineCol}
}

func (lx *Lexer) currentLine() string {
	start := strings.LastIndexByte(lx.src[:lx.pos], '\n') + 1
	end := strings.IndexByte(lx.src[lx.pos:], '\n')
	if end < 0 {
		return lx.src[start:]
	}
	return lx.src[start : lx.pos+end]
}

func (lx *Lexer) skipWhitespaceAndComments() {
	for !lx.atEOF() {
		switch {
		case isSpace(lx.peekByte()):
			lx.advance()
		case lx.peekByte() == '/' && lx.peekByteAt(1) == '/':
			for !lx.atEOF() && lx.peekByte() != '\n' {
				lx.advance()
			}
		case lx.peekByte() == '/' && lx.peekByteAt(1) == '*':
			lx.advance()
			lx.advance()
			for !lx.atEOF() && !(lx.peekByte() == '*' && lx.peekByteAt(1) == '/') {
				lx.advance()
			}
			if !lx.atEOF() {
				lx.advance()
				lx.advance()
			}
		default:
			return
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentCont(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

// next lexes a single token starting at lx.pos, which is guaranteed not to
// be whitespace or the start of a comment. ok is false when an
// unrecognized byte sequence was consumed and reported instead.
func (lx *Lexer) next() (token.Token, bool) {
	start := lx.pos
	startLine, startCol := lx.line, lx.lineCol
	b := lx.peekByte()

	switch {
	case b == '"':
		return lx.lexString(start, startLine, startCol)
	case b == '`':
		return lx.lexTemplate(start, startLine, startCol)
	case isDigit(b):
		return lx.lexNumber(start, startLine, startCol), true
	default:
	}

	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if isIdentStart(r) {
		return lx.lexIdent(start, startLine, startCol), true
	}

	if tok, ok := lx.lexOperator(start, startLine, startCol); ok {
		return tok, true
	}

	// Unrecognized byte sequence: report and skip exactly one rune so
	// scanning can continue.
	lx.advance()
	for lx.pos < start+size {
		lx.advance()
	}
	lx.bag.Addf(diag.StageLex, diag.KindNone, lx.span(start, lx.pos),
		"unrecognized character %q", lx.src[start:lx.pos])
	return token.Token{}, false
}

func (lx *Lexer) lexIdent(start, line, col int) token.Token {
	for !lx.atEOF() {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !isIdentCont(r) {
			break
		}
		for i := 0; i < size; i++ {
			lx.advance()
		}
	}
	text := lx.src[start:lx.pos]
	normalized := norm.NFC.String(text)
	span := token.Span{Start: start, End: lx.pos, Line: line, Col: col}
	if kw, ok := keywords[normalized]; ok {
		return token.New(kw, normalized, span, lx.currentLine())
	}
	if primitiveTypeNames[normalized] {
		return token.New(token.PrimType, normalized, span, lx.currentLine())
	}
	if normalized == "_" {
		return token.New(token.Underscore, normalized, span, lx.currentLine())
	}
	return token.New(token.Ident, normalized, span, lx.currentLine())
}

func (lx *Lexer) lexNumber(start, line, col int) token.Token {
	for !lx.atEOF() && isDigit(lx.peekByte()) {
		lx.advance()
	}
	isFloat := false
	if lx.peekByte() == '.' && isDigit(lx.peekByteAt(1)) {
		isFloat = true
		lx.advance()
		for !lx.atEOF() && isDigit(lx.peekByte()) {
			lx.advance()
		}
	}
	numEnd := lx.pos
	suffixStart := lx.pos
	for !lx.atEOF() {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !isIdentCont(r) {
			break
		}
		for i := 0; i < size; i++ {
			lx.advance()
		}
	}
	suffix := lx.src[suffixStart:lx.pos]

	span := token.Span{Start: start, End: lx.pos, Line: line, Col: col}
	lexeme := lx.src[start:numEnd]
	class := token.IntLit
	if isFloat {
		class = token.FloatLit
	}
	return token.New(class, lexeme, span, lx.currentLine()).WithSuffix(suffix)
}

// lexString consumes a double-quoted regular string literal, decoding
// escape sequences in place.
func (lx *Lexer) lexString(start, line, col int) (token.Token, bool) {
	lx.advance() // opening quote
	var sb strings.Builder
	closed := false
	for !lx.atEOF() {
		b := lx.peekByte()
		if b == '"' {
			lx.advance()
			closed = true
			break
		}
		if b == '\n' {
			break
		}
		if b == '\\' {
			lx.advance()
			sb.WriteByte(decodeEscape(lx))
			continue
		}
		sb.WriteByte(lx.advance())
	}
	span := token.Span{Start: start, End: lx.pos, Line: line, Col: col}
	if !closed {
		lx.bag.Addf(diag.StageLex, diag.KindNone, lx.span(start, start), "unterminated string literal")
		return token.Token{}, false
	}
	return token.New(token.StringLit, sb.String(), span, lx.currentLine()), true
}

// lexTemplate consumes a backtick-delimited template string as a single
// token carrying its raw, escape-decoded inner text; the parser performs
// the ${...} split.
func (lx *Lexer) lexTemplate(start, line, col int) (token.Token, bool) {
	lx.advance() // opening backtick
	var sb strings.Builder
	closed := false
	for !lx.atEOF() {
		b := lx.peekByte()
		if b == '`' {
			lx.advance()
			closed = true
			break
		}
		if b == '\\' {
			lx.advance()
			sb.WriteByte(decodeEscape(lx))
			continue
		}
		sb.WriteByte(lx.advance())
	}
	span := token.Span{Start: start, End: lx.pos, Line: line, Col: col}
	if !closed {
		lx.bag.Addf(diag.StageLex, diag.KindNone, lx.span(start, start), "unterminated template string")
		return token.Token{}, false
	}
	return token.New(token.TemplLit, sb.String(), span, lx.currentLine()), true
}

// decodeEscape reads the character following a consumed backslash and
// returns its literal byte value. Unknown escapes pass the following byte
// through unchanged.
func decodeEscape(lx *Lexer) byte {
	if lx.atEOF() {
		return '\\'
	}
	b := lx.advance()
	switch b {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '\\':
		return '\\'
	case '`':
		return '`'
	case '$':
		return '$'
	case '"':
		return '"'
	default:
		return b
	}
}

type opRule struct {
	text  string
	class token.Class
}

// operator match rules, longest-prefix first so e.g. "<=" is preferred
// over "<".
var opRules = []opRule{
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"==", token.EqEq},
	{"!=", token.NotEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"+=", token.PlusEq},
	{"-=", token.MinusEq},
	{"*=", token.StarEq},
	{"/=", token.SlashEq},
	{"->", token.Arrow},
	{"=>", token.FatArrow},
	{"::", token.DoubleColon},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{";", token.Semi},
	{":", token.Colon},
	{".", token.Dot},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"=", token.Eq},
	{"<", token.Lt},
	{">", token.Gt},
	{"!", token.Not},
	{"&", token.Amp},
}

func (lx *Lexer) lexOperator(start, line, col int) (token.Token, bool) {
	for _, r := range opRules {
		if strings.HasPrefix(lx.src[lx.pos:], r.text) {
			for range r.text {
				lx.advance()
			}
			span := token.Span{Start: start, End: lx.pos, Line: line, Col: col}
			return token.New(r.class, r.text, span, lx.currentLine()), true
		}
	}
	return token.Token{}, false
}

// ParseIntLiteral converts a lexed integer lexeme (no suffix) to its
// int64 value. Overflow is not re-checked here; the analyzer is
// responsible for range diagnostics against the literal's declared width.
func ParseIntLiteral(lexeme string) (int64, error) {
	return strconv.ParseInt(lexeme, 10, 64)
}

// ParseFloatLiteral converts a lexed float lexeme (no suffix) to float64.
func ParseFloatLiteral(lexeme string) (float64, error) {
	return strconv.ParseFloat(lexeme, 64)
}

// Package parser implements the syntactic front end: a
// resynchronizing recursive-descent parser with a Pratt-style expression
// core, consuming the token stream produced by internal/lexer and
// producing an internal/ast.File with precise spans.
package parser

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/token"
)

// Parser consumes a fixed token slice and yields a best-effort ast.File
// plus any diagnostics recorded along the way. Multiple syntax errors are
// collected per compilation; the caller inspects the supplied Bag.
type Parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
}

// New returns a Parser over toks (as produced by lexer.Lexer.Tokens, which
// always ends with an EOF token) reporting into bag.
func New(toks []token.Token, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, bag: bag}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) at(c token.Class) bool {
	return p.cur().Class().Equal(c)
}

func (p *Parser) atEOF() bool {
	return p.at(token.EOF)
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it has class c, else records a
// diagnostic naming the expected class and the token actually found, and
// returns the current token unconsumed (so the caller's resync logic can
// decide how to proceed).
func (p *Parser) expect(c token.Class) (token.Token, bool) {
	if p.at(c) {
		return p.advance(), true
	}
	p.errorf(p.cur().Span(), "expected %s, found %s", c.Human(), p.describeCur())
	return p.cur(), false
}

func (p *Parser) describeCur() string {
	if p.atEOF() {
		return "end of input"
	}
	return p.cur().Class().Human()
}

func (p *Parser) errorf(span token.Span, format string, args ...any) {
	p.bag.Addf(diag.StageParse, diag.KindNone, span, format, args...)
}

// synchronize advances past tokens until it reaches a synchronization
// boundary: ';', '}', a top-level keyword, or EOF. The boundary
// token itself is consumed when it is ';' so the next parseItem/parseStmt
// call starts cleanly after it.
func (p *Parser) synchronize() {
	for !p.atEOF() {
		switch p.cur().Class() {
		case token.Semi:
			p.advance()
			return
		case token.RBrace, token.Package, token.Import:
			return
		}
		if topLevelStarters[p.cur().Class()] {
			return
		}
		p.advance()
	}
}

var topLevelStarters = map[token.Class]bool{
	token.Pub:  true,
	token.Fn:   true,
	token.Impl: true,
	token.Type: true,
}

// Parse runs the full grammar: package header, imports, then items. It
// always returns a non-nil *ast.File (a best-effort partial tree when
// errors occurred), alongside whatever diagnostics were recorded into the
// Parser's Bag.
func (p *Parser) Parse() *ast.File {
	file := &ast.File{}

	if !p.at(token.Package) {
		p.errorf(p.cur().Span(), "missing package header: every file must begin with 'package <ident>'")
	} else {
		pkgTok := p.advance()
		nameTok, ok := p.expect(token.Ident)
		if ok {
			file.Package = nameTok.Lexeme()
		}
		file.PackageSpan = token.Join(pkgTok.Span(), nameTok.Span())
	}

	for p.at(token.Import) {
		file.Imports = append(file.Imports, p.parseImport())
	}

	for !p.atEOF() {
		item := p.parseItem()
		if item != nil {
			file.Items = append(file.Items, item)
		}
	}

	return file
}

func (p *Parser) parseImport() ast.Import {
	start := p.advance() // 'import'
	pathTok, _ := p.expect(token.StringLit)
	imp := ast.Import{Path: pathTok.Lexeme(), Span: token.Join(start.Span(), pathTok.Span())}
	if p.at(token.As) {
		p.advance()
		aliasTok, ok := p.expect(token.Ident)
		if ok {
			imp.Alias = aliasTok.Lexeme()
			imp.Span = token.Join(imp.Span, aliasTok.Span())
		}
	}
	return imp
}

// parseItem parses one top-level item. On malformed input it records a
// diagnostic, resynchronizes, and returns nil so the caller skips it.
func (p *Parser) parseItem() ast.Item {
	pub := false
	var pubTok token.Token
	if p.at(token.Pub) {
		pubTok = p.advance()
		pub = true
	}

	switch {
	case p.at(token.Fn):
		return p.parseFunction(pub, pubTok)
	case p.at(token.Impl):
		return p.parseMethod()
	case p.at(token.Type):
		return p.parseTypeDef(pub, pubTok)
	default:
		if pub {
			p.errorf(pubTok.Span(), "'pub' must be followed by 'fn' or 'type'")
		} else {
			p.errorf(p.cur().Span(), "expected %s, found %s",
				diag.OneOf("'fn'", "'impl fn'", "'type'"), p.describeCur())
		}
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseTypeParams() []string {
	if !p.at(token.Lt) {
		return nil
	}
	p.advance()
	var params []string
	for !p.at(token.Gt) && !p.atEOF() {
		if idTok, ok := p.expect(token.Ident); ok {
			params = append(params, idTok.Lexeme())
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.Gt)
	return params
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.atEOF() {
		nameTok, _ := p.expect(token.Ident)
		p.expect(token.Colon)
		typ := p.parseType()
		params = append(params, ast.Param{
			Name: nameTok.Lexeme(),
			Type: typ,
			Span: token.Join(nameTok.Span(), typ.Span),
		})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseReturnType() *ast.Type {
	if !p.at(token.Colon) {
		return nil
	}
	p.advance()
	t := p.parseType()
	return &t
}

func (p *Parser) parseLivesClause() []ast.LifetimeConstraint {
	if !p.at(token.Lives) {
		return nil
	}
	p.advance()
	p.expect(token.LBrace)
	var constraints []ast.LifetimeConstraint
	for !p.at(token.RBrace) && !p.atEOF() {
		targetTok, _ := p.expect(token.Ident)
		p.expect(token.Eq)
		var sources []string
		for {
			srcTok, ok := p.expect(token.Ident)
			if ok {
				sources = append(sources, srcTok.Lexeme())
			}
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		constraints = append(constraints, ast.LifetimeConstraint{
			Target:  targetTok.Lexeme(),
			Sources: sources,
			Span:    targetTok.Span(),
		})
		if p.at(token.Semi) {
			p.advance()
		}
	}
	p.expect(token.RBrace)
	return constraints
}

func (p *Parser) parseFunction(pub bool, pubTok token.Token) *ast.Function {
	fnTok := p.advance() // 'fn'
	nameTok, _ := p.expect(token.Ident)
	typeParams := p.parseTypeParams()
	params := p.parseParams()
	ret := p.parseReturnType()
	lives := p.parseLivesClause()
	body := p.parseBlock()

	start := fnTok.Span()
	if pub {
		start = pubTok.Span()
	}
	fn := &ast.Function{
		Pub:        pub,
		Name:       nameTok.Lexeme(),
		TypeParams: typeParams,
		Params:     params,
		Lives:      lives,
		Body:       body,
		Span:       token.Join(start, body.Span),
	}
	if ret != nil {
		fn.ReturnType = *ret
	}
	return fn
}

func (p *Parser) parseMethod() *ast.Method {
	implTok := p.advance() // 'impl'
	p.expect(token.Fn)
	nameTok, _ := p.expect(token.Ident)
	typeParams := p.parseTypeParams()

	p.expect(token.LParen)
	recv := p.parseReceiver()
	if p.at(token.Comma) {
		p.advance()
	}
	var params []ast.Param
	for !p.at(token.RParen) && !p.atEOF() {
		pnameTok, _ := p.expect(token.Ident)
		p.expect(token.Colon)
		typ := p.parseType()
		params = append(params, ast.Param{Name: pnameTok.Lexeme(), Type: typ, Span: typ.Span})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)

	ret := p.parseReturnType()
	lives := p.parseLivesClause()
	body := p.parseBlock()

	m := &ast.Method{
		ReceiverType: recv.TypeName,
		Receiver:     recv,
		Name:         nameTok.Lexeme(),
		TypeParams:   typeParams,
		Params:       params,
		Lives:        lives,
		Body:         body,
		Span:         token.Join(implTok.Span(), body.Span),
	}
	if ret != nil {
		m.ReturnType = *ret
	}
	return m
}

// parseReceiver parses the explicit first parameter of a method: `&T`,
// `&mut T`, or `T`, each optionally preceded by a binding name and colon
// (e.g. `self: &T`); when no name is given the receiver is implicitly
// named "self".
func (p *Parser) parseReceiver() ast.Receiver {
	start := p.cur().Span()
	name := "self"
	if p.at(token.Ident) && p.peekAt(1).Class().Equal(token.Colon) {
		name = p.advance().Lexeme()
		p.advance() // ':'
	}

	var r ast.Receiver
	if p.at(token.Amp) {
		p.advance()
		r.ByRef = true
		if p.at(token.Mut) {
			p.advance()
			r.Mut = true
		}
	}
	tnameTok, _ := p.expect(token.Ident)
	r.Name = name
	r.TypeName = tnameTok.Lexeme()
	r.Span = token.Join(start, tnameTok.Span())
	return r
}

func (p *Parser) parseTypeDef(pub bool, pubTok token.Token) ast.Item {
	typeTok := p.advance() // 'type'
	nameTok, _ := p.expect(token.Ident)
	typeParams := p.parseTypeParams()

	startSpan := typeTok.Span()
	if pub {
		p.errorf(pubTok.Span(), "'pub' is not permitted on a type definition")
		startSpan = pubTok.Span()
	}

	switch {
	case p.at(token.Struct):
		p.advance()
		p.expect(token.LBrace)
		var fields []ast.Field
		for !p.at(token.RBrace) && !p.atEOF() {
			fnameTok, _ := p.expect(token.Ident)
			p.expect(token.Colon)
			typ := p.parseType()
			fields = append(fields, ast.Field{Name: fnameTok.Lexeme(), Type: typ, Span: typ.Span})
			if p.at(token.Comma) {
				p.advance()
			}
		}
		closeTok, _ := p.expect(token.RBrace)
		return &ast.StructDef{
			Name:       nameTok.Lexeme(),
			TypeParams: typeParams,
			Fields:     fields,
			Span:       token.Join(startSpan, closeTok.Span()),
		}
	case p.at(token.Enum):
		p.advance()
		p.expect(token.LBrace)
		var variants []ast.Variant
		idx := 0
		for !p.at(token.RBrace) && !p.atEOF() {
			vnameTok, _ := p.expect(token.Ident)
			v := ast.Variant{Name: vnameTok.Lexeme(), Index: idx, Span: vnameTok.Span()}
			idx++
			if p.at(token.LBrace) {
				p.advance()
				for !p.at(token.RBrace) && !p.atEOF() {
					ffnameTok, _ := p.expect(token.Ident)
					p.expect(token.Colon)
					ftyp := p.parseType()
					v.Fields = append(v.Fields, ast.Field{Name: ffnameTok.Lexeme(), Type: ftyp, Span: ftyp.Span})
					if p.at(token.Comma) {
						p.advance()
					}
				}
				p.expect(token.RBrace)
			}
			variants = append(variants, v)
			if p.at(token.Comma) {
				p.advance()
			}
		}
		closeTok, _ := p.expect(token.RBrace)
		return &ast.EnumDef{
			Name:       nameTok.Lexeme(),
			TypeParams: typeParams,
			Variants:   variants,
			Span:       token.Join(startSpan, closeTok.Span()),
		}
	default:
		p.expect(token.Eq)
		underlying := p.parseType()
		semiTok, hasSemi := p.expect(token.Semi)
		end := underlying.Span
		if hasSemi {
			end = semiTok.Span()
		}
		return &ast.AliasDef{
			Name:       nameTok.Lexeme(),
			Underlying: underlying,
			Span:       token.Join(startSpan, end),
		}
	}
}

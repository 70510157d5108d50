package parser

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/token"
)

// parseType parses a type expression: array, reference, generic
// application, primitive, or named type.
func (p *Parser) parseType() ast.Type {
	if p.at(token.LBracket) {
		openTok := p.advance()
		elem := p.parseType()
		closeTok, _ := p.expect(token.RBracket)
		return ast.ArrayOf(elem, token.Join(openTok.Span(), closeTok.Span()))
	}

	if p.at(token.Amp) {
		ampTok := p.advance()
		mut := false
		if p.at(token.Mut) {
			p.advance()
			mut = true
		}
		elem := p.parseType()
		return ast.RefTo(elem, mut, token.Join(ampTok.Span(), elem.Span))
	}

	if p.at(token.LParen) {
		openTok := p.advance()
		var elems []ast.Type
		for !p.at(token.RParen) && !p.atEOF() {
			elems = append(elems, p.parseType())
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		closeTok, _ := p.expect(token.RParen)
		return ast.Tuple(elems, token.Join(openTok.Span(), closeTok.Span()))
	}

	if p.at(token.PrimType) {
		tok := p.advance()
		return ast.Primitive(tok.Lexeme(), tok.Span())
	}

	nameTok, _ := p.expect(token.Ident)
	if !p.at(token.Lt) {
		return ast.Named(nameTok.Lexeme(), nameTok.Span())
	}

	p.advance() // '<'
	var args []ast.Type
	for !p.at(token.Gt) && !p.atEOF() {
		args = append(args, p.parseType())
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	closeTok, _ := p.expect(token.Gt)
	return ast.Generic(nameTok.Lexeme(), args, token.Join(nameTok.Span(), closeTok.Span()))
}

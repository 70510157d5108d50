package parser

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/token"
)

// parsePattern parses a match-arm pattern: wildcard, identifier binding,
// literal, or enum-variant.
func (p *Parser) parsePattern() ast.Pattern {
	switch {
	case p.at(token.Underscore):
		tok := p.advance()
		return &ast.WildcardPattern{Span: tok.Span()}
	case p.at(token.IntLit), p.at(token.FloatLit), p.at(token.StringLit), p.at(token.True), p.at(token.False):
		return p.parseLiteralPattern()
	case p.at(token.Mut):
		mutTok := p.advance()
		nameTok, _ := p.expect(token.Ident)
		return &ast.IdentPattern{Name: nameTok.Lexeme(), Mut: true, Span: token.Join(mutTok.Span(), nameTok.Span())}
	case p.at(token.Ident):
		return p.parseIdentOrVariantPattern()
	default:
		tok := p.cur()
		p.errorf(tok.Span(), "expected a pattern, found %s", p.describeCur())
		p.advance()
		return &ast.WildcardPattern{Span: tok.Span()}
	}
}

func (p *Parser) parseLiteralPattern() ast.Pattern {
	expr := p.parsePrimary(false)
	return &ast.LiteralPattern{Value: expr, Span: expr.ExprSpan()}
}

// parseIdentOrVariantPattern disambiguates a bare identifier binding from
// `TypeName::Variant` / `Variant` enum-variant patterns, the same
// TypeName::Variant shape used by enum construction expressions.
func (p *Parser) parseIdentOrVariantPattern() ast.Pattern {
	nameTok := p.advance()

	if p.at(token.DoubleColon) {
		p.advance()
		variantTok, _ := p.expect(token.Ident)
		return p.finishVariantPattern(nameTok.Lexeme(), variantTok.Lexeme(), token.Join(nameTok.Span(), variantTok.Span()))
	}

	// A bare identifier immediately followed by '(' or '{' is
	// treated as a variant pattern with the enclosing type inferred from
	// the match subject's type by the analyzer; anything else is a simple
	// binding.
	if p.at(token.LParen) || p.at(token.LBrace) {
		return p.finishVariantPattern("", nameTok.Lexeme(), nameTok.Span())
	}

	return &ast.IdentPattern{Name: nameTok.Lexeme(), Span: nameTok.Span()}
}

func (p *Parser) finishVariantPattern(typeName, variant string, span token.Span) ast.Pattern {
	pat := &ast.EnumVariantPattern{TypeName: typeName, Variant: variant, Span: span}
	switch {
	case p.at(token.LParen):
		p.advance()
		i := 0
		for !p.at(token.RParen) && !p.atEOF() {
			sub := p.parsePattern()
			pat.Fields = append(pat.Fields, ast.FieldPattern{Name: indexFieldName(i), Pattern: sub, Span: sub.PatternSpan()})
			i++
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		closeTok, _ := p.expect(token.RParen)
		pat.Span = token.Join(pat.Span, closeTok.Span())
	case p.at(token.LBrace):
		p.advance()
		for !p.at(token.RBrace) && !p.atEOF() {
			fnameTok, _ := p.expect(token.Ident)
			p.expect(token.Colon)
			sub := p.parsePattern()
			pat.Fields = append(pat.Fields, ast.FieldPattern{Name: fnameTok.Lexeme(), Pattern: sub, Span: sub.PatternSpan()})
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		closeTok, _ := p.expect(token.RBrace)
		pat.Span = token.Join(pat.Span, closeTok.Span())
	}
	return pat
}

func indexFieldName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	// Variants with 10+ positional fields are vanishingly unlikely; fall
	// back to a stable, if inelegant, encoding rather than panic.
	return string(rune('0' + i))
}

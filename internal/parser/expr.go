package parser

import (
	"strconv"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/lexer"
	"github.com/dekarrin/yunic/internal/token"
)

// ParseExpr parses a single expression, for use by the template-string
// interpolation scanner and by tests. Callers of the top-level
// grammar should use Parse instead.
func (p *Parser) ParseExpr() ast.Expr {
	return p.parseExpr(false)
}

// parseExpr parses the precedence hierarchy, lowest to highest:
// logical-or, logical-and, equality, comparison, additive, multiplicative,
// unary, postfix, primary. noStruct suppresses struct-literal parsing at
// the top of the precedence chain, used for if/while conditions and match
// subjects so that `if x {` parses as a block-introducing if rather than
// attempting to read `x { ... }` as a struct literal.
func (p *Parser) parseExpr(noStruct bool) ast.Expr {
	return p.parseOr(noStruct)
}

func (p *Parser) parseOr(noStruct bool) ast.Expr {
	left := p.parseAnd(noStruct)
	for p.at(token.OrOr) {
		opTok := p.advance()
		right := p.parseAnd(noStruct)
		left = &ast.Binary{Op: ast.BinOr, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
		_ = opTok
	}
	return left
}

func (p *Parser) parseAnd(noStruct bool) ast.Expr {
	left := p.parseEquality(noStruct)
	for p.at(token.AndAnd) {
		p.advance()
		right := p.parseEquality(noStruct)
		left = &ast.Binary{Op: ast.BinAnd, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseEquality(noStruct bool) ast.Expr {
	left := p.parseComparison(noStruct)
	for p.at(token.EqEq) || p.at(token.NotEq) {
		op := ast.BinEq
		if p.at(token.NotEq) {
			op = ast.BinNotEq
		}
		p.advance()
		right := p.parseComparison(noStruct)
		left = &ast.Binary{Op: op, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseComparison(noStruct bool) ast.Expr {
	left := p.parseAdditive(noStruct)
	for p.at(token.Lt) || p.at(token.Gt) || p.at(token.LtEq) || p.at(token.GtEq) {
		var op ast.BinOp
		switch {
		case p.at(token.Lt):
			op = ast.BinLt
		case p.at(token.Gt):
			op = ast.BinGt
		case p.at(token.LtEq):
			op = ast.BinLtEq
		default:
			op = ast.BinGtEq
		}
		p.advance()
		right := p.parseAdditive(noStruct)
		left = &ast.Binary{Op: op, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseAdditive(noStruct bool) ast.Expr {
	left := p.parseMultiplicative(noStruct)
	for p.at(token.Plus) || p.at(token.Minus) {
		op := ast.BinAdd
		if p.at(token.Minus) {
			op = ast.BinSub
		}
		p.advance()
		right := p.parseMultiplicative(noStruct)
		left = &ast.Binary{Op: op, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseMultiplicative(noStruct bool) ast.Expr {
	left := p.parseUnary(noStruct)
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		var op ast.BinOp
		switch {
		case p.at(token.Star):
			op = ast.BinMul
		case p.at(token.Slash):
			op = ast.BinDiv
		default:
			op = ast.BinMod
		}
		p.advance()
		right := p.parseUnary(noStruct)
		left = &ast.Binary{Op: op, Left: left, Right: right, Span: token.Join(left.ExprSpan(), right.ExprSpan())}
	}
	return left
}

func (p *Parser) parseUnary(noStruct bool) ast.Expr {
	switch {
	case p.at(token.Not):
		opTok := p.advance()
		operand := p.parseUnary(noStruct)
		return &ast.Unary{Op: ast.UnNot, Operand: operand, Span: token.Join(opTok.Span(), operand.ExprSpan())}
	case p.at(token.Minus):
		opTok := p.advance()
		operand := p.parseUnary(noStruct)
		return &ast.Unary{Op: ast.UnNeg, Operand: operand, Span: token.Join(opTok.Span(), operand.ExprSpan())}
	case p.at(token.Star):
		opTok := p.advance()
		operand := p.parseUnary(noStruct)
		return &ast.Deref{Operand: operand, Span: token.Join(opTok.Span(), operand.ExprSpan())}
	case p.at(token.Amp):
		ampTok := p.advance()
		mut := false
		if p.at(token.Mut) {
			p.advance()
			mut = true
		}
		operand := p.parseUnary(noStruct)
		return &ast.Ref{Mut: mut, Operand: operand, Span: token.Join(ampTok.Span(), operand.ExprSpan())}
	default:
		return p.parsePostfix(noStruct)
	}
}

func (p *Parser) parsePostfix(noStruct bool) ast.Expr {
	expr := p.parsePrimary(noStruct)
	for {
		switch {
		case p.at(token.Dot):
			p.advance()
			nameTok, _ := p.expect(token.Ident)
			if p.at(token.LParen) {
				args, closeTok := p.parseArgList()
				expr = &ast.MethodCall{
					Receiver: expr,
					Method:   nameTok.Lexeme(),
					Args:     args,
					Span:     token.Join(expr.ExprSpan(), closeTok.Span()),
				}
			} else {
				expr = &ast.FieldAccess{
					Receiver: expr,
					Field:    nameTok.Lexeme(),
					Span:     token.Join(expr.ExprSpan(), nameTok.Span()),
				}
			}
		case p.at(token.LBracket):
			p.advance()
			idx := p.parseExpr(false)
			closeTok, _ := p.expect(token.RBracket)
			expr = &ast.Index{Receiver: expr, Index: idx, Span: token.Join(expr.ExprSpan(), closeTok.Span())}
		case p.at(token.LParen):
			args, closeTok := p.parseArgList()
			expr = &ast.Call{Callee: expr, Args: args, Span: token.Join(expr.ExprSpan(), closeTok.Span())}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, token.Token) {
	p.expect(token.LParen)
	var args []ast.Expr
	for !p.at(token.RParen) && !p.atEOF() {
		args = append(args, p.parseExpr(false))
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	closeTok, _ := p.expect(token.RParen)
	return args, closeTok
}

func (p *Parser) parsePrimary(noStruct bool) ast.Expr {
	switch {
	case p.at(token.IntLit):
		tok := p.advance()
		v, err := lexer.ParseIntLiteral(tok.Lexeme())
		if err != nil {
			p.errorf(tok.Span(), "invalid integer literal %q", tok.Lexeme())
		}
		return &ast.IntLit{Value: v, Suffix: tok.Suffix(), Span: tok.Span()}
	case p.at(token.FloatLit):
		tok := p.advance()
		v, err := lexer.ParseFloatLiteral(tok.Lexeme())
		if err != nil {
			p.errorf(tok.Span(), "invalid float literal %q", tok.Lexeme())
		}
		return &ast.FloatLit{Value: v, Suffix: tok.Suffix(), Span: tok.Span()}
	case p.at(token.True):
		tok := p.advance()
		return &ast.BoolLit{Value: true, Span: tok.Span()}
	case p.at(token.False):
		tok := p.advance()
		return &ast.BoolLit{Value: false, Span: tok.Span()}
	case p.at(token.StringLit):
		tok := p.advance()
		return &ast.StringLit{Value: tok.Lexeme(), Span: tok.Span()}
	case p.at(token.TemplLit):
		tok := p.advance()
		return p.parseTemplateLiteral(tok)
	case p.at(token.LParen):
		p.advance()
		inner := p.parseExpr(false)
		p.expect(token.RParen)
		return inner
	case p.at(token.LBrace):
		return p.parseBlock()
	case p.at(token.If):
		return p.parseIf()
	case p.at(token.Match):
		return p.parseMatch()
	case p.at(token.Ident):
		return p.parseIdentOrConstruction(noStruct)
	default:
		tok := p.cur()
		p.errorf(tok.Span(), "expected an expression, found %s", p.describeCur())
		p.advance()
		return &ast.Ident{Name: "<error>", Span: tok.Span()}
	}
}

// parseIdentOrConstruction handles a leading identifier that may be a bare
// variable reference, a TypeName::Variant enum construction, or a
// TypeName { field: value, ... } struct literal.
func (p *Parser) parseIdentOrConstruction(noStruct bool) ast.Expr {
	nameTok := p.advance()

	if p.at(token.DoubleColon) {
		p.advance()
		variantTok, _ := p.expect(token.Ident)
		lit := &ast.EnumLit{TypeName: nameTok.Lexeme(), Variant: variantTok.Lexeme(), Span: token.Join(nameTok.Span(), variantTok.Span())}
		switch {
		case p.at(token.LParen):
			// Positional variant construction: args bind to the variant's
			// fields in declaration order (checked by the analyzer).
			args, closeTok := p.parseArgList()
			for i, a := range args {
				lit.Fields = append(lit.Fields, ast.FieldInit{Name: strconv.Itoa(i), Value: a, Span: a.ExprSpan()})
			}
			lit.Span = token.Join(lit.Span, closeTok.Span())
		case p.at(token.LBrace) && !noStruct:
			fields, closeTok := p.parseFieldInits()
			lit.Fields = fields
			lit.Span = token.Join(lit.Span, closeTok.Span())
		}
		return lit
	}

	if p.at(token.LBrace) && !noStruct && looksLikeStructLit(p) {
		fields, closeTok := p.parseFieldInits()
		return &ast.StructLit{TypeName: nameTok.Lexeme(), Fields: fields, Span: token.Join(nameTok.Span(), closeTok.Span())}
	}

	return &ast.Ident{Name: nameTok.Lexeme(), Span: nameTok.Span()}
}

// looksLikeStructLit peeks past the opening brace for `ident :` or an
// immediate `}`, the two shapes a struct literal's field list can start
// with, so that e.g. `if x {` (an empty/non-field block) is never
// misparsed as `x {}`.
func looksLikeStructLit(p *Parser) bool {
	if p.peekAt(1).Class().Equal(token.RBrace) {
		return true
	}
	return p.peekAt(1).Class().Equal(token.Ident) && p.peekAt(2).Class().Equal(token.Colon)
}

func (p *Parser) parseFieldInits() ([]ast.FieldInit, token.Token) {
	p.expect(token.LBrace)
	var fields []ast.FieldInit
	for !p.at(token.RBrace) && !p.atEOF() {
		nameTok, _ := p.expect(token.Ident)
		p.expect(token.Colon)
		val := p.parseExpr(false)
		fields = append(fields, ast.FieldInit{Name: nameTok.Lexeme(), Value: val, Span: token.Join(nameTok.Span(), val.ExprSpan())})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	closeTok, _ := p.expect(token.RBrace)
	return fields, closeTok
}

func (p *Parser) parseIf() ast.Expr {
	ifTok := p.advance()
	cond := p.parseExpr(true)
	then := p.parseBlock()
	n := &ast.If{Cond: cond, Then: then, Span: token.Join(ifTok.Span(), then.Span)}
	if p.at(token.Else) {
		p.advance()
		if p.at(token.If) {
			n.Else = p.parseIf()
		} else {
			n.Else = p.parseBlock()
		}
		n.Span = token.Join(n.Span, n.Else.ExprSpan())
	}
	return n
}

func (p *Parser) parseMatch() ast.Expr {
	matchTok := p.advance()
	subject := p.parseExpr(true)
	p.expect(token.LBrace)
	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.atEOF() {
		pat := p.parsePattern()
		var guard ast.Expr
		if p.at(token.If) {
			p.advance()
			guard = p.parseExpr(true)
		}
		p.expect(token.FatArrow)
		body := p.parseExpr(false)
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body, Span: token.Join(pat.PatternSpan(), body.ExprSpan())})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	closeTok, _ := p.expect(token.RBrace)
	return &ast.Match{Subject: subject, Arms: arms, Span: token.Join(matchTok.Span(), closeTok.Span())}
}

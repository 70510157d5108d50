package parser

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/token"
)

// parseBlock parses a brace-delimited statement sequence. If the final
// statement is an expression with no trailing semicolon, it is lifted out
// of Stmts and becomes the block's Tail value.
func (p *Parser) parseBlock() *ast.Block {
	openTok, _ := p.expect(token.LBrace)
	block := &ast.Block{}

	for !p.at(token.RBrace) && !p.atEOF() {
		startPos := p.pos
		stmt, tailExpr := p.parseStmtOrTail()
		if tailExpr != nil {
			block.Tail = tailExpr
			break
		}
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.pos == startPos {
			// Safety net: parseStmtOrTail must always make progress.
			p.advance()
		}
	}

	closeTok, _ := p.expect(token.RBrace)
	block.Span = token.Join(openTok.Span(), closeTok.Span())
	return block
}

// parseStmtOrTail parses one statement. When the statement turns out to be
// a bare expression immediately followed by '}' (no semicolon), it is
// returned as a tail expression instead: a trailing semicolon discards the
// value, its absence keeps it.
func (p *Parser) parseStmtOrTail() (ast.Stmt, ast.Expr) {
	switch {
	case p.at(token.Let):
		return p.parseLet(), nil
	case p.at(token.Return):
		return p.parseReturn(), nil
	case p.at(token.While):
		return p.parseWhile(), nil
	case p.at(token.For):
		return p.parseFor(), nil
	default:
		return p.parseExprStmtOrTail()
	}
}

func (p *Parser) parseLet() ast.Stmt {
	letTok := p.advance()
	mut := false
	if p.at(token.Mut) {
		p.advance()
		mut = true
	}
	nameTok, _ := p.expect(token.Ident)

	s := &ast.LetStmt{Name: nameTok.Lexeme(), Mut: mut}
	if p.at(token.Colon) {
		p.advance()
		s.Type = p.parseType()
		s.HasType = true
	}
	p.expect(token.Eq)
	s.Value = p.parseExpr(false)
	semiTok, _ := p.expect(token.Semi)
	s.Span = token.Join(letTok.Span(), semiTok.Span())
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	retTok := p.advance()
	s := &ast.ReturnStmt{Span: retTok.Span()}
	if !p.at(token.Semi) {
		s.Value = p.parseExpr(false)
	}
	semiTok, _ := p.expect(token.Semi)
	s.Span = token.Join(retTok.Span(), semiTok.Span())
	return s
}

func (p *Parser) parseWhile() ast.Stmt {
	whileTok := p.advance()
	cond := p.parseExpr(true)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Span: token.Join(whileTok.Span(), body.Span)}
}

// parseFor parses a C-style `for init; cond; post { body }` loop; any of
// the three clauses may be empty.
func (p *Parser) parseFor() ast.Stmt {
	forTok := p.advance()
	var init ast.Stmt
	if !p.at(token.Semi) {
		init, _ = p.parseStmtOrTail()
	} else {
		p.advance()
	}
	var cond ast.Expr
	if !p.at(token.Semi) {
		cond = p.parseExpr(true)
	}
	p.expect(token.Semi)
	var post ast.Stmt
	if !p.at(token.LBrace) {
		post = p.parseSimpleStmtNoTerminator()
	}
	body := p.parseBlock()
	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body, Span: token.Join(forTok.Span(), body.Span)}
}

// parseSimpleStmtNoTerminator parses an assignment or expression used as a
// for-loop post-clause, which has no trailing semicolon of its own.
func (p *Parser) parseSimpleStmtNoTerminator() ast.Stmt {
	expr := p.parseExpr(false)
	if op, ok := p.compoundAssignOp(); ok {
		p.advance()
		val := p.parseExpr(false)
		return &ast.CompoundAssignStmt{Op: op, Target: expr, Value: val, Span: token.Join(expr.ExprSpan(), val.ExprSpan())}
	}
	if p.at(token.Eq) {
		p.advance()
		val := p.parseExpr(false)
		return &ast.AssignStmt{Target: expr, Value: val, Span: token.Join(expr.ExprSpan(), val.ExprSpan())}
	}
	return &ast.ExprStmt{Expr: expr, HasSemi: false, Span: expr.ExprSpan()}
}

func (p *Parser) compoundAssignOp() (ast.BinOp, bool) {
	switch {
	case p.at(token.PlusEq):
		return ast.BinAdd, true
	case p.at(token.MinusEq):
		return ast.BinSub, true
	case p.at(token.StarEq):
		return ast.BinMul, true
	case p.at(token.SlashEq):
		return ast.BinDiv, true
	default:
		return "", false
	}
}

// parseExprStmtOrTail parses an assignment, compound assignment, or plain
// expression statement; a plain expression with no trailing ';' immediately
// before '}' becomes a tail expression instead of a statement.
func (p *Parser) parseExprStmtOrTail() (ast.Stmt, ast.Expr) {
	expr := p.parseExpr(false)

	if op, ok := p.compoundAssignOp(); ok {
		p.advance()
		val := p.parseExpr(false)
		semiTok, _ := p.expect(token.Semi)
		return &ast.CompoundAssignStmt{Op: op, Target: expr, Value: val, Span: token.Join(expr.ExprSpan(), semiTok.Span())}, nil
	}

	if p.at(token.Eq) {
		p.advance()
		val := p.parseExpr(false)
		semiTok, _ := p.expect(token.Semi)
		return &ast.AssignStmt{Target: expr, Value: val, Span: token.Join(expr.ExprSpan(), semiTok.Span())}, nil
	}

	if p.at(token.Semi) {
		semiTok := p.advance()
		return &ast.ExprStmt{Expr: expr, HasSemi: true, Span: token.Join(expr.ExprSpan(), semiTok.Span())}, nil
	}

	if p.at(token.RBrace) {
		return nil, expr
	}

	// A block-like expression used as a standalone statement (if/match/
	// block) may omit the semicolon and still be a statement rather than
	// a tail value, as long as more statements follow.
	return &ast.ExprStmt{Expr: expr, HasSemi: false, Span: expr.ExprSpan()}, nil
}

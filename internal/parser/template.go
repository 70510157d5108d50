package parser

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/lexer"
	"github.com/dekarrin/yunic/internal/token"
)

// parseTemplateLiteral splits a TemplLit token's raw inner text into
// alternating Text/Interpolation parts. Unescaped "${" opens an
// interpolation; a balanced-brace scanner tracks nested '{'/'}' so that an
// interpolation itself containing a struct literal or nested block (e.g.
// `${ if x { 1 } else { 2 } }`) is split at the correct closing brace
// rather than the first literal '}' encountered - a simple search for the
// next '}' is not sufficient.
func (p *Parser) parseTemplateLiteral(tok token.Token) *ast.TemplateLit {
	raw := tok.Lexeme()
	lit := &ast.TemplateLit{Span: tok.Span()}

	var textBuf []byte
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			if len(textBuf) > 0 || len(lit.Parts) == 0 {
				lit.Parts = append(lit.Parts, ast.TemplatePart{Text: string(textBuf)})
				textBuf = nil
			}
			exprStart := i + 2
			depth := 1
			j := exprStart
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if depth != 0 {
				p.errorf(tok.Span(), "unterminated ${...} interpolation in template string")
				break
			}
			exprSrc := raw[exprStart:j]
			lit.Parts = append(lit.Parts, ast.TemplatePart{IsExpr: true, Expr: p.parseSubExpr(exprSrc, tok.Span())})
			i = j + 1
			continue
		}
		textBuf = append(textBuf, raw[i])
		i++
	}
	if len(textBuf) > 0 || len(lit.Parts) == 0 {
		lit.Parts = append(lit.Parts, ast.TemplatePart{Text: string(textBuf)})
	}

	return lit
}

// parseSubExpr re-lexes and parses a nested interpolation expression,
// reporting any diagnostics into the same Bag as the outer parse.
func (p *Parser) parseSubExpr(src string, outer token.Span) ast.Expr {
	sub := lexer.New(src, p.bag)
	toks := sub.Tokens()
	subParser := New(toks, p.bag)
	expr := subParser.ParseExpr()
	if !subParser.atEOF() {
		p.bag.Addf(diag.StageParse, diag.KindNone, outer, "unexpected trailing tokens in template interpolation")
	}
	return expr
}

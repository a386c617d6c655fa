// Package parser implements the Pratt precedence-climbing parser described
// in spec §3/§3.2: top-level var/const/expr declarations, and expressions
// built from the operator table lowest-to-highest: || ; && ; | ; ^ ; & ;
// == != ; < <= > >= ; shl shrs shrz ; + - ; * / % ; unary - !. Grounded on
// hhramberg-go-vslc/src/frontend/parser.go for Go parser shape (single
// current-token lookahead, recursive-descent helpers returning (node, error))
// and on original_source/lib/core/jex_parser.cpp for the precedence-climbing
// algorithm and the if(...)-call special case; the original only parses a
// bare, always-initialized "var", so the fuller var/const/expr trio and the
// extended bitwise/logical/shift tiers are built from spec §3.2 directly.
package parser

import (
	"fmt"

	"exc/internal/ast"
	"exc/internal/diag"
	"exc/internal/lexer"
	"exc/internal/source"
	"exc/internal/symtab"
	"exc/internal/types"
)

// Parser consumes a token stream and produces an *ast.Root, resolving
// identifiers against syms as it goes so that name errors are reported with
// parse-time precision (spec §3.2).
type Parser struct {
	lex   *lexer.Lexer
	diags *diag.Set
	syms  *symtab.Table
	typs  *types.Table

	cur lexer.Token
}

// New returns a Parser reading from lex, resolving names against syms and
// types against typs, reporting diagnostics into diags.
func New(lex *lexer.Lexer, syms *symtab.Table, typs *types.Table, diags *diag.Set) *Parser {
	p := &Parser{lex: lex, syms: syms, typs: typs, diags: diags}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

func (p *Parser) fatal(span source.Span, format string, args ...interface{}) {
	p.diags.Add(diag.Diagnostic{
		Kind: diag.Syntax, Span: span,
		Message: fmt.Sprintf(format, args...), Fatal: true,
	})
}

func (p *Parser) expect(k lexer.Kind, what string) source.Span {
	span := p.cur.Span
	if p.cur.Kind != k {
		p.fatal(span, "expected %s, found %s", what, p.cur.Kind)
	} else {
		p.advance()
	}
	return span
}

// Parse consumes the entire token stream and returns the root declaration
// list. It stops at the first fatal diagnostic rather than attempting error
// recovery, matching spec §7's "unrecoverable" class.
func (p *Parser) Parse() *ast.Root {
	start := p.cur.Span
	var decls []ast.Decl
	for p.cur.Kind != lexer.EOF {
		stop := false
		for _, d := range p.diags.Sorted() {
			stop = stop || d.Fatal
		}
		if stop {
			break
		}
		switch p.cur.Kind {
		case lexer.KwVar:
			decls = append(decls, p.parseVarDecl())
		case lexer.KwConst:
			decls = append(decls, p.parseConstDecl())
		case lexer.KwExpr:
			decls = append(decls, p.parseExprDecl())
		default:
			p.fatal(p.cur.Span, "expected 'var', 'const', 'expr' or end of file, found %s", p.cur.Kind)
			return ast.NewRoot(start, decls)
		}
	}
	end := start
	if len(decls) > 0 {
		end = decls[len(decls)-1].Span()
	}
	return ast.NewRoot(source.Combine(start, end), decls)
}

// parseNameType parses "NAME : TYPE" common to all three declaration forms,
// resolving TYPE against the type table.
func (p *Parser) parseNameType() (string, types.ID, source.Span) {
	nameSpan := p.cur.Span
	name := p.cur.Text
	p.expect(lexer.Ident, "identifier")
	p.expect(lexer.Colon, "':'")
	typeSpan := p.cur.Span
	typeName := p.cur.Text
	typ := p.typs.Unresolved()
	if p.cur.Kind == lexer.Ident {
		sym := p.syms.Lookup(typeName)
		if sym == nil || sym.Kind != symtab.Type {
			p.diags.Add(diag.Diagnostic{
				Kind: diag.Name, Span: typeSpan,
				Message: fmt.Sprintf("unknown type %q", typeName),
			})
		} else {
			typ = sym.Type
		}
		p.advance()
	} else {
		p.fatal(typeSpan, "expected a type name, found %s", p.cur.Kind)
	}
	return name, typ, source.Combine(nameSpan, typeSpan)
}

func (p *Parser) defineDecl(name string, typ types.ID, span source.Span) {
	_, prior := p.syms.Define(name, symtab.Variable, typ, span)
	if prior != nil {
		p.diags.Add(diag.Diagnostic{
			Kind: diag.Name, Span: span,
			Message: fmt.Sprintf("Duplicate identifier '%s'", name),
			Notes:   []diag.Note{{Span: prior.Span, Message: "previous definition here"}},
		})
	}
}

func (p *Parser) parseVarDecl() ast.Decl {
	start := p.cur.Span
	p.advance() // consume 'var'
	name, typ, _ := p.parseNameType()
	end := p.expect(lexer.Semicolon, "';'")
	span := source.Combine(start, end)
	p.defineDecl(name, typ, span)
	return ast.NewVarDecl(span, name, typ)
}

func (p *Parser) parseConstDecl() ast.Decl {
	start := p.cur.Span
	p.advance() // consume 'const'
	name, typ, _ := p.parseNameType()
	p.expect(lexer.Assign, "'='")
	init := p.parseExpression()
	end := p.expect(lexer.Semicolon, "';'")
	span := source.Combine(start, end)
	p.defineDecl(name, typ, span)
	return ast.NewConstDecl(span, name, typ, init)
}

func (p *Parser) parseExprDecl() ast.Decl {
	start := p.cur.Span
	p.advance() // consume 'expr'
	name, typ, _ := p.parseNameType()
	p.expect(lexer.Assign, "'='")
	init := p.parseExpression()
	end := p.expect(lexer.Semicolon, "';'")
	span := source.Combine(start, end)
	p.defineDecl(name, typ, span)
	return ast.NewExprDecl(span, name, typ, init)
}

// precedence tiers, lowest to highest, per spec §3.2.
var precedence = map[lexer.Kind]int{
	lexer.OpOr:     1,
	lexer.OpAnd:    2,
	lexer.OpBitOr:  3,
	lexer.OpBitXor: 4,
	lexer.OpBitAnd: 5,
	lexer.OpEQ:     6,
	lexer.OpNE:     6,
	lexer.OpLT:     7,
	lexer.OpLE:     7,
	lexer.OpGT:     7,
	lexer.OpGE:     7,
	lexer.OpShl:    8,
	lexer.OpShrs:   8,
	lexer.OpShrz:   8,
	lexer.OpAdd:    9,
	lexer.OpSub:    9,
	lexer.OpMul:    10,
	lexer.OpDiv:    10,
	lexer.OpMod:    10,
}

func binOp(k lexer.Kind) ast.BinOp {
	switch k {
	case lexer.OpAdd:
		return ast.OpAdd
	case lexer.OpSub:
		return ast.OpSub
	case lexer.OpMul:
		return ast.OpMul
	case lexer.OpDiv:
		return ast.OpDiv
	case lexer.OpMod:
		return ast.OpMod
	case lexer.OpEQ:
		return ast.OpEq
	case lexer.OpNE:
		return ast.OpNe
	case lexer.OpLT:
		return ast.OpLt
	case lexer.OpLE:
		return ast.OpLe
	case lexer.OpGT:
		return ast.OpGt
	case lexer.OpGE:
		return ast.OpGe
	case lexer.OpBitAnd:
		return ast.OpBitAnd
	case lexer.OpBitOr:
		return ast.OpBitOr
	case lexer.OpBitXor:
		return ast.OpBitXor
	case lexer.OpShl:
		return ast.OpShl
	case lexer.OpShrs:
		return ast.OpShrs
	case lexer.OpShrz:
		return ast.OpShrz
	case lexer.OpAnd:
		return ast.OpAnd
	default:
		return ast.OpOr
	}
}

func (p *Parser) parseExpression() ast.Expr {
	lhs := p.parseUnary()
	return p.parseBinOpRhs(0, lhs)
}

func (p *Parser) parseBinOpRhs(minPrec int, lhs ast.Expr) ast.Expr {
	for {
		prec, ok := precedence[p.cur.Kind]
		if !ok || prec < minPrec {
			return lhs
		}
		opTok := p.cur
		p.advance()
		rhs := p.parseUnary()
		if nextPrec, ok := precedence[p.cur.Kind]; ok && nextPrec > prec {
			rhs = p.parseBinOpRhs(prec+1, rhs)
		}
		span := source.Combine(lhs.Span(), rhs.Span())
		lhs = ast.NewBinary(span, binOp(opTok.Kind), lhs, rhs)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case lexer.OpSub:
		minus := p.cur
		p.advance()
		if p.cur.Kind == lexer.LitInt {
			return p.parseLiteralInt(minus.Span, true)
		}
		inner := p.parseUnary()
		return ast.NewUnary(source.Combine(minus.Span, inner.Span()), ast.OpUMinus, inner)
	case lexer.OpNot:
		bang := p.cur
		p.advance()
		inner := p.parseUnary()
		return ast.NewUnary(source.Combine(bang.Span, inner.Span()), ast.OpNot, inner)
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case lexer.LitBool:
		return p.parseLiteralBool()
	case lexer.LitInt:
		return p.parseLiteralInt(p.cur.Span, false)
	case lexer.LitFloat:
		return p.parseLiteralFloat()
	case lexer.LitString:
		return p.parseLiteralString()
	case lexer.ParensL:
		return p.parseParens()
	case lexer.Ident:
		return p.parseIdentOrCall()
	default:
		p.fatal(p.cur.Span, "expected literal, identifier, '-', '!' or '(', found %s", p.cur.Kind)
		return ast.NewIdentifier(p.cur.Span, p.typs.Unresolved(), "", nil)
	}
}

func (p *Parser) parseParens() ast.Expr {
	p.advance() // consume '('
	expr := p.parseExpression()
	p.expect(lexer.ParensR, "')'")
	return expr
}

func (p *Parser) parseLiteralBool() ast.Expr {
	tok := p.cur
	p.advance()
	lit := ast.NewLiteral(tok.Span, p.typs.Get("Bool"), ast.LitBool)
	lit.Bool = tok.Text == "true"
	return lit
}

func (p *Parser) parseLiteralInt(span source.Span, negative bool) ast.Expr {
	tok := p.cur
	p.advance()
	text := tok.Text
	if negative {
		text = "-" + text
	}
	var v int64
	_, err := fmt.Sscanf(text, "%d", &v)
	if err != nil {
		p.diags.Add(diag.Diagnostic{
			Kind: diag.Syntax, Span: span,
			Message: fmt.Sprintf("invalid integer literal %q", text),
		})
	}
	lit := ast.NewLiteral(source.Combine(span, tok.Span), p.typs.Get("Integer"), ast.LitInt)
	lit.Int = v
	return lit
}

func (p *Parser) parseLiteralFloat() ast.Expr {
	tok := p.cur
	p.advance()
	var v float64
	_, err := fmt.Sscanf(tok.Text, "%g", &v)
	if err != nil {
		p.diags.Add(diag.Diagnostic{
			Kind: diag.Syntax, Span: tok.Span,
			Message: fmt.Sprintf("invalid floating point literal %q", tok.Text),
		})
	}
	lit := ast.NewLiteral(tok.Span, p.typs.Get("Float"), ast.LitFloat)
	lit.Float = v
	return lit
}

func (p *Parser) parseLiteralString() ast.Expr {
	tok := p.cur
	p.advance()
	lit := ast.NewLiteral(tok.Span, p.typs.Get("String"), ast.LitString)
	lit.Str = tok.Str
	return lit
}

func (p *Parser) parseIdent() *ast.Identifier {
	tok := p.cur
	p.expect(lexer.Ident, "identifier")
	sym := p.syms.Lookup(tok.Text)
	typ := p.typs.Unresolved()
	if sym == nil {
		p.diags.Add(diag.Diagnostic{
			Kind: diag.Name, Span: tok.Span,
			Message: fmt.Sprintf("undefined name %q", tok.Text),
		})
	} else {
		typ = sym.Type
	}
	return ast.NewIdentifier(tok.Span, typ, tok.Text, sym)
}

// parseIdentOrCall parses a bare identifier, or a call "NAME(args)" which
// becomes a dedicated *ast.If node when NAME is "if", per spec §3.2.
func (p *Parser) parseIdentOrCall() ast.Expr {
	ident := p.parseIdent()
	if p.cur.Kind != lexer.ParensL {
		if ident.Sym != nil && ident.Sym.Kind != symtab.Variable && ident.Sym.Kind != symtab.Unresolved {
			p.diags.Add(diag.Diagnostic{
				Kind: diag.Name, Span: ident.Span(),
				Message: fmt.Sprintf("%q is not a variable", ident.Name),
			})
		}
		return ident
	}
	if ident.Sym != nil && ident.Sym.Kind != symtab.Function && ident.Sym.Kind != symtab.Unresolved {
		p.diags.Add(diag.Diagnostic{
			Kind: diag.Name, Span: ident.Span(),
			Message: fmt.Sprintf("%q is not callable", ident.Name),
		})
	}
	args, argsSpan := p.parseArgList()
	span := source.Combine(ident.Span(), argsSpan)
	if ident.Name == "if" {
		if len(args) != 3 {
			p.diags.Add(diag.Diagnostic{
				Kind: diag.Type, Span: span,
				Message: fmt.Sprintf("if requires exactly 3 arguments, got %d", len(args)),
			})
		}
		var cond, then, els ast.Expr
		if len(args) > 0 {
			cond = args[0]
		}
		if len(args) > 1 {
			then = args[1]
		}
		if len(args) > 2 {
			els = args[2]
		}
		return ast.NewIf(span, cond, then, els)
	}
	return ast.NewCall(span, ident, args)
}

func (p *Parser) parseArgList() ([]ast.Expr, source.Span) {
	start := p.cur.Span
	p.advance() // consume '('
	if p.cur.Kind == lexer.ParensR {
		end := p.cur.Span
		p.advance()
		return nil, source.Combine(start, end)
	}
	var args []ast.Expr
	for {
		args = append(args, p.parseExpression())
		switch p.cur.Kind {
		case lexer.Comma:
			p.advance()
		case lexer.ParensR:
			end := p.cur.Span
			p.advance()
			return args, source.Combine(start, end)
		default:
			p.fatal(p.cur.Span, "expected ',' or ')', found %s", p.cur.Kind)
			return args, source.Combine(start, p.cur.Span)
		}
	}
}

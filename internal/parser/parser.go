// Package parser implements Amyr's expression grammar: recursive descent
// over a materialized token stream, with its own lexical declared-names
// scope for undeclared-variable errors. Borrow checking is a separate,
// later pass over the finished tree (see internal/borrow) — this parser
// only tracks enough scope to catch a name used before it is declared.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"amyr/internal/ast"
	"amyr/internal/lexer"
	"amyr/internal/span"
	"amyr/internal/token"
)

// Error is the parser's fail-fast diagnostic: parsing stops at the first
// one, reported in the "Line <n>: <message>" form the rest of the
// compiler's error-handling convention uses throughout.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
}

func errf(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}

// ---- wide tokens ----

// PositionedToken is a bare token.Token bridged with the position and source
// text its bare form deliberately omits — the consumer-side counterpart
// of the Cursor's "the consumer tracks absolute offsets" contract.
type PositionedToken struct {
	Kind   token.Kind
	Lexeme string
	Span   span.Span
}

func Materialize(source string) []PositionedToken {
	var out []PositionedToken
	pos := span.Position{Line: 1, Column: 1}
	for _, tok := range lexer.Tokenize(source) {
		length := int(tok.Len)
		text := source[pos.Offset : pos.Offset+length]
		start := pos
		pos = advancePosition(pos, text)
		end := pos

		switch tok.Kind.(type) {
		case token.Whitespace, token.LineComment, token.BlockComment:
			continue
		}
		out = append(out, PositionedToken{Kind: tok.Kind, Lexeme: text, Span: span.Span{Start: start, End: end}})
	}
	return out
}

func advancePosition(pos span.Position, text string) span.Position {
	for _, r := range text {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
		pos.Offset += utf8.RuneLen(r)
	}
	return pos
}

// ---- parser ----

// Parser performs recursive-descent syntax analysis over one compilation
// unit's materialized token stream.
type Parser struct {
	toks  []PositionedToken
	pos   int
	scope []map[string]bool
}

// New creates a Parser over source, ready to parse from its start.
func New(source string) *Parser {
	return &Parser{toks: Materialize(source), scope: []map[string]bool{{}}}
}

// ParseProgram parses `program := expression` and requires the whole
// input to be consumed, matching the core grammar's single entry point.
func (p *Parser) ParseProgram() (ast.Expr, *Error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, errf(p.line(), "Expect end of input.")
	}
	return expr, nil
}

// ---- navigation ----

func (p *Parser) peek() PositionedToken {
	if p.pos >= len(p.toks) {
		return PositionedToken{Kind: token.Eof{}}
	}
	return p.toks[p.pos]
}

func (p *Parser) atEOF() bool {
	_, ok := p.peek().Kind.(token.Eof)
	return ok
}

func (p *Parser) line() int {
	return p.peek().Span.Start.Line
}

func (p *Parser) advance() PositionedToken {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) isIdent(lexeme string) bool {
	t := p.peek()
	_, ok := t.Kind.(token.Ident)
	return ok && t.Lexeme == lexeme
}

func (p *Parser) is(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) expect(kind token.Kind, message string) (PositionedToken, *Error) {
	if !p.is(kind) {
		return PositionedToken{}, errf(p.line(), message)
	}
	return p.advance(), nil
}

// ---- scope ----

func (p *Parser) enterScope() {
	p.scope = append(p.scope, map[string]bool{})
}

func (p *Parser) exitScope() {
	p.scope = p.scope[:len(p.scope)-1]
}

func (p *Parser) declare(name string) {
	p.scope[len(p.scope)-1][name] = true
}

func (p *Parser) isDeclared(name string) bool {
	for i := len(p.scope) - 1; i >= 0; i-- {
		if p.scope[i][name] {
			return true
		}
	}
	return false
}

// ---- expression grammar ----
//
//	expression := term (('+' | '-') term)*
//	term       := primary (('*' | '/') primary)*
//	primary    := integer | identifier | '(' expression ')' | let_expr | block

func (p *Parser) parseExpression() (ast.Expr, *Error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Kind.(type) {
		case token.Plus:
			op = "+"
		case token.Minus:
			op = "-"
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{
			ExprBase: ast.ExprBase{Span: span.Span{Start: lhs.GetSpan().Start, End: rhs.GetSpan().End}},
			Op:       op,
			Lhs:      lhs,
			Rhs:      rhs,
		}
	}
}

func (p *Parser) parseTerm() (ast.Expr, *Error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Kind.(type) {
		case token.Star:
			op = "*"
		case token.Slash:
			op = "/"
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{
			ExprBase: ast.ExprBase{Span: span.Span{Start: lhs.GetSpan().Start, End: rhs.GetSpan().End}},
			Op:       op,
			Lhs:      lhs,
			Rhs:      rhs,
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, *Error) {
	t := p.peek()

	switch k := t.Kind.(type) {
	case token.Literal:
		if intLit, ok := k.LitKind.(token.IntLiteral); ok {
			p.advance()
			value, perr := parseIntLiteral(t.Lexeme, intLit)
			if perr != nil {
				return nil, errf(t.Span.Start.Line, "Invalid integer literal: %s", t.Lexeme)
			}
			return ast.Int{ExprBase: ast.ExprBase{Span: t.Span}, Value: value}, nil
		}
		return nil, errf(t.Span.Start.Line, "Expect expression.")

	case token.OpenParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(token.CloseParen{}, "Expect ')' after expression.")
		if err != nil {
			return nil, err
		}
		return withSpan(inner, span.Span{Start: t.Span.Start, End: closeTok.Span.End}), nil

	case token.OpenBrace:
		return p.parseBlock()

	case token.Ident:
		switch t.Lexeme {
		case "let":
			return p.parseLet()
		default:
			if !p.isDeclared(t.Lexeme) {
				return nil, errf(t.Span.Start.Line, "Use of undeclared variable: %s", t.Lexeme)
			}
			p.advance()
			return ast.Variable{ExprBase: ast.ExprBase{Span: t.Span}, Name: t.Lexeme, Kind: ast.BorrowShared}, nil
		}

	default:
		return nil, errf(t.Span.Start.Line, "Expect expression.")
	}
}

// withSpan returns expr with its span widened to full — used for a
// parenthesized expression, whose reported span should cover the parens.
func withSpan(expr ast.Expr, full span.Span) ast.Expr {
	switch e := expr.(type) {
	case ast.Int:
		e.Span = full
		return e
	case ast.Variable:
		e.Span = full
		return e
	case ast.Let:
		e.Span = full
		return e
	case ast.Binary:
		e.Span = full
		return e
	case ast.Call:
		e.Span = full
		return e
	case ast.Block:
		e.Span = full
		return e
	default:
		return expr
	}
}

func (p *Parser) parseLet() (ast.Expr, *Error) {
	letTok := p.advance() // 'let'

	mutable := false
	if p.isIdent("mut") {
		p.advance()
		mutable = true
	}

	nameTok := p.peek()
	if _, ok := nameTok.Kind.(token.Ident); !ok || nameTok.Lexeme == "let" {
		return nil, errf(nameTok.Span.Start.Line, "Expect variable name.")
	}
	p.advance()

	if _, err := p.expect(token.Eq{}, "Expect '=' after variable name."); err != nil {
		return nil, err
	}

	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	p.declare(nameTok.Lexeme)

	return ast.Let{
		ExprBase: ast.ExprBase{Span: span.Span{Start: letTok.Span.Start, End: init.GetSpan().End}},
		Name:     nameTok.Lexeme,
		Mutable:  mutable,
		Init:     init,
	}, nil
}

func (p *Parser) parseBlock() (ast.Expr, *Error) {
	openTok := p.advance() // '{'
	p.enterScope()
	defer p.exitScope()

	var items []ast.Expr
	for !p.is(token.CloseBrace{}) && !p.atEOF() {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.is(token.Semi{}) {
			p.advance()
			continue
		}
		break
	}

	closeTok, err := p.expect(token.CloseBrace{}, "Expect '}' after block.")
	if err != nil {
		return nil, err
	}

	return ast.Block{
		ExprBase: ast.ExprBase{Span: span.Span{Start: openTok.Span.Start, End: closeTok.Span.End}},
		Items:    items,
	}, nil
}

// parseIntLiteral converts a literal's raw lexeme to a value, stripping the
// base prefix and digit-group underscores. A type suffix is not stripped,
// so a suffixed literal such as `1u8` fails to convert.
func parseIntLiteral(lexeme string, lit token.IntLiteral) (int64, error) {
	text := lexeme
	switch lit.Base {
	case token.Binary, token.Octal, token.Hexadecimal:
		if len(text) >= 2 {
			text = text[2:]
		}
	}
	text = strings.ReplaceAll(text, "_", "")
	return strconv.ParseInt(text, int(lit.Base), 64)
}

// ---- function items (additive, see SPEC_FULL §4 supplemental) ----

// ParseFunctionPrototype parses `fn name(params)`, where each parameter is
// `&name` (shared), `&mut name` (mutable), or a bare `name` (moved).
func (p *Parser) ParseFunctionPrototype() (ast.FunctionPrototype, *Error) {
	fnTok := p.peek()
	if !p.isIdent("fn") {
		return ast.FunctionPrototype{}, errf(fnTok.Span.Start.Line, "Expect 'fn'.")
	}
	p.advance()

	nameTok := p.peek()
	if _, ok := nameTok.Kind.(token.Ident); !ok {
		return ast.FunctionPrototype{}, errf(nameTok.Span.Start.Line, "Expect function name.")
	}
	p.advance()

	if _, err := p.expect(token.OpenParen{}, "Expect '(' after function name."); err != nil {
		return ast.FunctionPrototype{}, err
	}

	var params []ast.BorrowInfo
	for !p.is(token.CloseParen{}) && !p.atEOF() {
		if len(params) > 0 {
			if _, err := p.expect(token.Comma{}, "Expect ',' between parameters."); err != nil {
				return ast.FunctionPrototype{}, err
			}
		}
		kind := ast.BorrowMove
		if p.is(token.And{}) {
			p.advance()
			kind = ast.BorrowShared
			if p.isIdent("mut") {
				p.advance()
				kind = ast.BorrowMutable
			}
		}
		paramTok := p.peek()
		if _, ok := paramTok.Kind.(token.Ident); !ok {
			return ast.FunctionPrototype{}, errf(paramTok.Span.Start.Line, "Expect parameter name.")
		}
		p.advance()
		params = append(params, ast.BorrowInfo{Name: paramTok.Lexeme, Kind: kind})
	}

	closeTok, err := p.expect(token.CloseParen{}, "Expect ')' after parameters.")
	if err != nil {
		return ast.FunctionPrototype{}, err
	}

	return ast.FunctionPrototype{
		ExprBase:   ast.ExprBase{Span: span.Span{Start: fnTok.Span.Start, End: closeTok.Span.End}},
		Name:       nameTok.Lexeme,
		Parameters: params,
	}, nil
}

// ParseFunction parses a prototype followed by its body block, with
// parameters pre-declared so the body can reference them.
func (p *Parser) ParseFunction() (ast.Function, *Error) {
	proto, err := p.ParseFunctionPrototype()
	if err != nil {
		return ast.Function{}, err
	}

	p.enterScope()
	for _, param := range proto.Parameters {
		p.declare(param.Name)
	}
	body, err := p.parseBlock()
	p.exitScope()
	if err != nil {
		return ast.Function{}, err
	}

	block := body.(ast.Block)
	return ast.Function{
		ExprBase:  ast.ExprBase{Span: span.Span{Start: proto.Span.Start, End: block.Span.End}},
		Prototype: proto,
		Body:      block,
	}, nil
}

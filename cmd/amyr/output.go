package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"amyr/internal/ast"
	"amyr/internal/borrow"
	"amyr/internal/diag"
	"amyr/internal/escape"
	"amyr/internal/parser"
	"amyr/internal/span"
	"amyr/internal/token"
)

// ---- generic output ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

// ---- token output ----

func printTokensText(toks []parser.PositionedToken) {
	for _, t := range toks {
		fmt.Printf("%-14s %-20q %d:%d\n", kindName(t.Kind), t.Lexeme, t.Span.Start.Line, t.Span.Start.Column)
	}
}

func printTokensJSON(toks []parser.PositionedToken) {
	type tokenJSON struct {
		Kind        string   `json:"kind"`
		Lexeme      string   `json:"lexeme"`
		Line        int      `json:"line"`
		Column      int      `json:"column"`
		Offset      int      `json:"offset"`
		EscapeError string   `json:"escape_error,omitempty"`
	}

	out := make([]tokenJSON, len(toks))
	for i, t := range toks {
		out[i] = tokenJSON{
			Kind:        kindName(t.Kind),
			Lexeme:      t.Lexeme,
			Line:        t.Span.Start.Line,
			Column:      t.Span.Start.Column,
			Offset:      t.Span.Start.Offset,
			EscapeError: literalEscapeError(t),
		}
	}
	printJSON(map[string]interface{}{"tokens": out})
}

// literalEscapeError runs the escape validator over a quoted/char literal
// token's body and reports the first fatal problem found, if any — the
// `tokens` subcommand's only consumer of internal/escape, since the core
// int-only expression grammar never itself decodes string contents.
func literalEscapeError(t parser.PositionedToken) string {
	lit, ok := t.Kind.(token.Literal)
	if !ok {
		return ""
	}

	mode, body, ok := literalModeAndBody(t.Lexeme, lit.LitKind)
	if !ok {
		return ""
	}

	var firstErr string
	escape.Unescape(body, mode, func(r escape.Range, u escape.Unit) {
		if firstErr == "" && u.HasErr && u.Err.IsFatal() {
			firstErr = fmt.Sprintf("byte %d-%d: escape error code %d", r.Start, r.End, u.Err)
		}
	})
	return firstErr
}

// literalModeAndBody maps a literal's lexeme and kind to the escape
// package's Mode and the literal's body (with quotes/prefix stripped).
// Raw forms are left to ValidateRawString in the lexer package, which
// already re-scans them independently; this only covers the non-raw
// shapes escape.Unescape is built for.
func literalModeAndBody(lexeme string, kind token.LiteralKind) (escape.Mode, string, bool) {
	switch kind.(type) {
	case token.StrLiteral:
		return escape.Str, strings.TrimSuffix(strings.TrimPrefix(lexeme, `"`), `"`), true
	case token.CharLiteral:
		return escape.Char, strings.TrimSuffix(strings.TrimPrefix(lexeme, `'`), `'`), true
	case token.ByteLiteral:
		return escape.Byte, strings.TrimSuffix(strings.TrimPrefix(lexeme, `b'`), `'`), true
	case token.ByteStrLiteral:
		return escape.ByteStr, strings.TrimSuffix(strings.TrimPrefix(lexeme, `b"`), `"`), true
	case token.CStrLiteral:
		return escape.CStr, strings.TrimSuffix(strings.TrimPrefix(lexeme, `c"`), `"`), true
	default:
		return 0, "", false
	}
}

// kindName renders a bare token.Kind's concrete variant name, since Kind
// itself carries no String method (the lexer never classifies keywords
// or formats tokens — that belongs to whoever consumes the stream).
func kindName(k token.Kind) string {
	switch k.(type) {
	case token.Ident:
		return "ident"
	case token.Literal:
		return "literal"
	case token.Plus:
		return "plus"
	case token.Minus:
		return "minus"
	case token.Star:
		return "star"
	case token.Slash:
		return "slash"
	case token.Eq:
		return "eq"
	case token.And:
		return "and"
	case token.Comma:
		return "comma"
	case token.Semi:
		return "semi"
	case token.OpenParen:
		return "open_paren"
	case token.CloseParen:
		return "close_paren"
	case token.OpenBrace:
		return "open_brace"
	case token.CloseBrace:
		return "close_brace"
	case token.Eof:
		return "eof"
	default:
		return fmt.Sprintf("%T", k)
	}
}

// ---- AST output ----

// exprToMap renders an ast.Expr as a JSON-friendly tree, tagging each
// node with its variant name under "node" the way the rest of the
// compiler tags diagnostics with a stable code.
func exprToMap(expr ast.Expr) map[string]interface{} {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case ast.Int:
		return map[string]interface{}{"node": "Int", "value": e.Value}
	case ast.Variable:
		return map[string]interface{}{"node": "Variable", "name": e.Name, "kind": e.Kind.String()}
	case ast.Let:
		return map[string]interface{}{
			"node": "Let", "name": e.Name, "mutable": e.Mutable, "init": exprToMap(e.Init),
		}
	case ast.Binary:
		return map[string]interface{}{
			"node": "Binary", "op": e.Op, "lhs": exprToMap(e.Lhs), "rhs": exprToMap(e.Rhs),
		}
	case ast.Call:
		args := make([]map[string]interface{}, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprToMap(a)
		}
		return map[string]interface{}{"node": "Call", "callee": e.Callee, "args": args}
	case ast.Block:
		items := make([]map[string]interface{}, len(e.Items))
		for i, it := range e.Items {
			items[i] = exprToMap(it)
		}
		return map[string]interface{}{"node": "Block", "items": items}
	case ast.FunctionPrototype:
		return map[string]interface{}{"node": "FunctionPrototype", "name": e.Name, "parameters": paramsToMap(e.Parameters)}
	case ast.Function:
		return map[string]interface{}{
			"node": "Function", "prototype": exprToMap(e.Prototype), "body": exprToMap(e.Body),
		}
	default:
		return map[string]interface{}{"node": fmt.Sprintf("%T", e)}
	}
}

func paramsToMap(params []ast.BorrowInfo) []map[string]interface{} {
	out := make([]map[string]interface{}, len(params))
	for i, p := range params {
		out[i] = map[string]interface{}{"name": p.Name, "kind": p.Kind.String()}
	}
	return out
}

// ---- diagnostics ----

// violationsToDiagnostics lifts the borrow checker's own lightweight
// Violation list into the compiler's shared diag.Diagnostic shape, so
// `check`'s text output goes through the same formatter every other
// diagnostic-producing stage would use.
func violationsToDiagnostics(violations []borrow.Violation) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(violations))
	for i, v := range violations {
		s := span.Span{Start: span.Position{Line: v.Line, Column: 1}, End: span.Position{Line: v.Line, Column: 1}}
		out[i] = diag.Errorf(violationCode(v.Kind), s, "%s", v.Message)
	}
	return out
}

func violationCode(kind borrow.ViolationKind) string {
	switch kind {
	case borrow.UseAfterMove:
		return "E0382"
	case borrow.BorrowWhileMutable:
		return "E0502"
	default:
		return "E0500"
	}
}

// exprSummary renders a one-line description of expr's shape, for the
// REPL's post-borrow-check confirmation line.
func exprSummary(expr ast.Expr) string {
	switch e := expr.(type) {
	case ast.Int:
		return fmt.Sprintf("Int(%d)", e.Value)
	case ast.Variable:
		return fmt.Sprintf("Variable(%s, %s)", e.Name, e.Kind)
	case ast.Let:
		return fmt.Sprintf("Let(%s, mutable=%v)", e.Name, e.Mutable)
	case ast.Binary:
		return fmt.Sprintf("Binary(%s)", e.Op)
	case ast.Block:
		return fmt.Sprintf("Block(%d items)", len(e.Items))
	case ast.Function:
		return fmt.Sprintf("Function(%s)", e.Prototype.Name)
	default:
		return fmt.Sprintf("%T", e)
	}
}

// Package highlight registers a Chroma lexer for Amyr source, for the
// `amyr highlight` subcommand's syntax-colored listings. Grounded on
// kennedyshead-prove/chroma-lexer-prove's prove package, which wires its
// own toy language into Chroma the same way: one chroma.MustNewLexer call
// with a "root" state covering comments, literals, and operators, plus
// push/pop states for nested block comments, raw strings, and strings.
package highlight

import (
	"io"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// Lexer is the Chroma lexer for Amyr source. It is registered with
// Chroma's global registry in init, so lexers.Get("amyr") also resolves
// it from anywhere chroma is already in use.
var Lexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "Amyr",
		Aliases:   []string{"amyr"},
		Filenames: []string{"*.amyr", "*.amy"},
		MimeTypes: []string{"text/x-amyr"},
	},
	chroma.Rules{
		"root": {
			{Pattern: `\s+`, Type: chroma.Text, Mutator: nil},

			{Pattern: `//!.*$`, Type: chroma.CommentSpecial, Mutator: nil},
			{Pattern: `///[^/].*$|///$`, Type: chroma.CommentSpecial, Mutator: nil},
			{Pattern: `//.*$`, Type: chroma.Comment, Mutator: nil},
			{Pattern: `/\*!`, Type: chroma.CommentSpecial, Mutator: chroma.Push("blockcomment")},
			{Pattern: `/\*\*[^*/]`, Type: chroma.CommentSpecial, Mutator: chroma.Push("blockcomment")},
			{Pattern: `/\*`, Type: chroma.CommentMultiline, Mutator: chroma.Push("blockcomment")},

			{Pattern: `#!.*$`, Type: chroma.CommentHashbang, Mutator: nil},

			{Pattern: `r#*"`, Type: chroma.StringDouble, Mutator: chroma.Push("rawstring")},
			{Pattern: `b"`, Type: chroma.StringDouble, Mutator: chroma.Push("string")},
			{Pattern: `c"`, Type: chroma.StringDouble, Mutator: chroma.Push("string")},
			{Pattern: `"`, Type: chroma.StringDouble, Mutator: chroma.Push("string")},

			{Pattern: `'[a-zA-Z_][a-zA-Z0-9_]*(?!')`, Type: chroma.NameLabel, Mutator: nil},
			{Pattern: `'\\?[^'\\]'`, Type: chroma.LiteralStringChar, Mutator: nil},

			{Pattern: `0[xX][0-9a-fA-F_]+`, Type: chroma.NumberHex, Mutator: nil},
			{Pattern: `0[bB][01_]+`, Type: chroma.NumberBin, Mutator: nil},
			{Pattern: `0[oO][0-7_]+`, Type: chroma.NumberOct, Mutator: nil},
			{Pattern: `[0-9][0-9_]*\.[0-9][0-9_]*([eE][+-]?[0-9_]+)?`, Type: chroma.NumberFloat, Mutator: nil},
			{Pattern: `[0-9][0-9_]*[eE][+-]?[0-9_]+`, Type: chroma.NumberFloat, Mutator: nil},
			{Pattern: `[0-9][0-9_]*`, Type: chroma.Number, Mutator: nil},

			{Pattern: `\b(let|mut|fn)\b`, Type: chroma.Keyword, Mutator: nil},

			{Pattern: `&mut\b`, Type: chroma.Operator, Mutator: nil},
			{Pattern: `[+\-*/]`, Type: chroma.Operator, Mutator: nil},
			{Pattern: `=`, Type: chroma.Operator, Mutator: nil},
			{Pattern: `&`, Type: chroma.Operator, Mutator: nil},

			{Pattern: `[(){};,]`, Type: chroma.Punctuation, Mutator: nil},

			{Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Type: chroma.Name, Mutator: nil},

			{Pattern: `.`, Type: chroma.Error, Mutator: nil},
		},

		"blockcomment": {
			{Pattern: `/\*`, Type: chroma.CommentMultiline, Mutator: chroma.Push()},
			{Pattern: `\*/`, Type: chroma.CommentMultiline, Mutator: chroma.Pop(1)},
			{Pattern: `[^*/]+`, Type: chroma.CommentMultiline, Mutator: nil},
			{Pattern: `[*/]`, Type: chroma.CommentMultiline, Mutator: nil},
		},

		"rawstring": {
			{Pattern: `"#*`, Type: chroma.StringDouble, Mutator: chroma.Pop(1)},
			{Pattern: `[^"]+`, Type: chroma.StringDouble, Mutator: nil},
		},

		"string": {
			{Pattern: `\\x[0-9a-fA-F]{2}`, Type: chroma.StringEscape, Mutator: nil},
			{Pattern: `\\u\{[0-9a-fA-F]{1,6}\}`, Type: chroma.StringEscape, Mutator: nil},
			{Pattern: `\\[nrt0\\'"]`, Type: chroma.StringEscape, Mutator: nil},
			{Pattern: `[^"\\]+`, Type: chroma.StringDouble, Mutator: nil},
			{Pattern: `"`, Type: chroma.StringDouble, Mutator: chroma.Pop(1)},
		},
	},
)

func init() {
	lexers.Register(Lexer)
}

// WriteHTML renders source as a standalone HTML document using Chroma's
// github style, for the `amyr highlight --html` flag.
func WriteHTML(w io.Writer, source string) error {
	iterator, err := Lexer.Tokenise(nil, source)
	if err != nil {
		return err
	}
	formatter := formatters.Get("html")
	return formatter.Format(w, styles.Get("github"), iterator)
}

// WriteANSI renders source with ANSI terminal colors, for plain
// `amyr highlight` without --html.
func WriteANSI(w io.Writer, source string) error {
	iterator, err := Lexer.Tokenise(nil, source)
	if err != nil {
		return err
	}
	formatter := formatters.Get("terminal256")
	return formatter.Format(w, styles.Get("github"), iterator)
}

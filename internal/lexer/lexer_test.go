package lexer

import (
	"testing"

	"amyr/internal/token"
)

func kindsOf(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, source string, want ...token.Kind) {
	t.Helper()
	toks := Tokenize(source)
	if len(toks) != len(want) {
		t.Fatalf("%q: expected %d tokens, got %d: %#v", source, len(want), len(toks), kindsOf(toks))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("%q: token[%d] = %#v, want %#v", source, i, toks[i].Kind, k)
		}
	}
}

func TestTokenizeSimpleExpression(t *testing.T) {
	assertKinds(t, "1 + 2",
		token.Literal{LitKind: token.IntLiteral{Base: token.Decimal}, SuffixStart: 1},
		token.Whitespace{},
		token.Plus{},
		token.Whitespace{},
		token.Literal{LitKind: token.IntLiteral{Base: token.Decimal}, SuffixStart: 1},
		token.Eof{},
	)
}

func TestTokenizeLetBinding(t *testing.T) {
	toks := Tokenize("let x = 42;")
	var kinds []token.Kind
	for _, tk := range toks {
		if _, ws := tk.Kind.(token.Whitespace); ws {
			continue
		}
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{
		token.Ident{}, token.Ident{}, token.Eq{},
		token.Literal{LitKind: token.IntLiteral{Base: token.Decimal}, SuffixStart: 2},
		token.Semi{}, token.Eof{},
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d non-trivia tokens, got %d: %#v", len(want), len(kinds), kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("token[%d] = %#v, want %#v", i, kinds[i], k)
		}
	}
}

func TestLengthsSumToSourceLength(t *testing.T) {
	sources := []string{
		"",
		"let x = 1 + 2 * (3 - 4);",
		"// a line comment\nlet y = 0;",
		"/* block /* nested */ still-going */ rest",
		`"a string with \n an escape"`,
		"r#ident + r\"raw\" + r#\"raw with hash\"#",
		"'a' 'lifetime 'static",
		"0x1F 0b101 0o17 1_000 1.5e10 1.",
	}
	for _, src := range sources {
		toks := Tokenize(src)
		total := 0
		for _, tk := range toks {
			total += int(tk.Len)
		}
		if total != len(src) {
			t.Errorf("%q: token lengths sum to %d, want %d", src, total, len(src))
		}
		if len(toks) == 0 {
			t.Fatalf("%q: expected at least the trailing Eof token", src)
		}
		if _, isEOF := toks[len(toks)-1].Kind.(token.Eof); !isEOF {
			t.Errorf("%q: last token is %#v, want Eof", src, toks[len(toks)-1].Kind)
		}
	}
}

func TestUnterminatedBlockCommentIsNotTerminated(t *testing.T) {
	toks := Tokenize("/* never closes")
	bc, ok := toks[0].Kind.(token.BlockComment)
	if !ok {
		t.Fatalf("expected a BlockComment, got %#v", toks[0].Kind)
	}
	if bc.Terminated {
		t.Errorf("expected Terminated=false for an unclosed block comment")
	}
}

func TestNestedBlockCommentsBalance(t *testing.T) {
	toks := Tokenize("/* outer /* inner */ still outer */")
	bc, ok := toks[0].Kind.(token.BlockComment)
	if !ok {
		t.Fatalf("expected a BlockComment, got %#v", toks[0].Kind)
	}
	if !bc.Terminated {
		t.Errorf("expected the nested comment to balance and terminate")
	}
	if int(toks[0].Len) != len("/* outer /* inner */ still outer */") {
		t.Errorf("block comment length = %d, want full span consumed", toks[0].Len)
	}
}

func TestDocCommentStyles(t *testing.T) {
	cases := []struct {
		src  string
		want token.DocStyle
	}{
		{"// plain", token.DocNone},
		{"//! inner", token.DocInner},
		{"/// outer", token.DocOuter},
		{"//// not doc", token.DocNone},
		{"/* plain */", token.DocNone},
		{"/*! inner */", token.DocInner},
		{"/** outer */", token.DocOuter},
		{"/*** not doc */", token.DocNone},
		{"/**/", token.DocNone},
	}
	for _, c := range cases {
		toks := Tokenize(c.src)
		switch k := toks[0].Kind.(type) {
		case token.LineComment:
			if k.DocStyle != c.want {
				t.Errorf("%q: doc style = %v, want %v", c.src, k.DocStyle, c.want)
			}
		case token.BlockComment:
			if k.DocStyle != c.want {
				t.Errorf("%q: doc style = %v, want %v", c.src, k.DocStyle, c.want)
			}
		default:
			t.Fatalf("%q: expected a comment token, got %#v", c.src, toks[0].Kind)
		}
	}
}

func TestRawStringRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 3, 255} {
		hashes := ""
		for i := 0; i < n; i++ {
			hashes += "#"
		}
		src := "r" + hashes + `"payload"` + hashes
		toks := Tokenize(src)
		lit, ok := toks[0].Kind.(token.Literal)
		if !ok {
			t.Fatalf("n=%d: expected a Literal, got %#v", n, toks[0].Kind)
		}
		raw, ok := lit.LitKind.(token.RawStrLiteral)
		if !ok {
			t.Fatalf("n=%d: expected a RawStrLiteral, got %#v", n, lit.LitKind)
		}
		if raw.NHashes == nil || int(*raw.NHashes) != n {
			t.Errorf("n=%d: NHashes = %v, want %d", n, raw.NHashes, n)
		}
		if int(toks[0].Len) != len(src) {
			t.Errorf("n=%d: token length = %d, want %d", n, toks[0].Len, len(src))
		}
	}
}

func TestRawStringTooManyHashesIsInvalid(t *testing.T) {
	hashes := ""
	for i := 0; i < 256; i++ {
		hashes += "#"
	}
	src := "r" + hashes + `"x"` + hashes
	toks := Tokenize(src)
	lit := toks[0].Kind.(token.Literal)
	raw := lit.LitKind.(token.RawStrLiteral)
	if raw.NHashes != nil {
		t.Errorf("expected NHashes=nil for 256 delimiters, got %v", *raw.NHashes)
	}
}

func TestUnterminatedRawStringIsInvalid(t *testing.T) {
	toks := Tokenize(`r"no closing quote`)
	lit := toks[0].Kind.(token.Literal)
	raw := lit.LitKind.(token.RawStrLiteral)
	if raw.NHashes != nil {
		t.Errorf("expected NHashes=nil for an unterminated raw string")
	}
}

func TestLifetimeVsChar(t *testing.T) {
	toks := Tokenize("'a 'ab 'a'")
	if _, ok := toks[0].Kind.(token.Lifetime); !ok {
		t.Errorf("'a : expected a Lifetime, got %#v", toks[0].Kind)
	}
}

func TestCharLiteral(t *testing.T) {
	toks := Tokenize(`'x'`)
	lit, ok := toks[0].Kind.(token.Literal)
	if !ok {
		t.Fatalf("expected a Literal, got %#v", toks[0].Kind)
	}
	ch, ok := lit.LitKind.(token.CharLiteral)
	if !ok || !ch.Terminated {
		t.Errorf("expected a terminated CharLiteral, got %#v", lit.LitKind)
	}
}

func TestUnknownPrefix(t *testing.T) {
	toks := Tokenize(`foo"bar"`)
	if _, ok := toks[0].Kind.(token.UnknownPrefix); !ok {
		t.Errorf("expected UnknownPrefix, got %#v", toks[0].Kind)
	}
}

func TestNumericLiterals(t *testing.T) {
	cases := []struct {
		src  string
		base token.Base
	}{
		{"0b101", token.Binary},
		{"0o17", token.Octal},
		{"0x1F", token.Hexadecimal},
		{"1_000", token.Decimal},
	}
	for _, c := range cases {
		toks := Tokenize(c.src)
		lit := toks[0].Kind.(token.Literal)
		i, ok := lit.LitKind.(token.IntLiteral)
		if !ok {
			t.Fatalf("%q: expected an IntLiteral, got %#v", c.src, lit.LitKind)
		}
		if i.Base != c.base {
			t.Errorf("%q: base = %v, want %v", c.src, i.Base, c.base)
		}
		if i.EmptyDigits {
			t.Errorf("%q: unexpected EmptyDigits", c.src)
		}
	}
}

func TestEmptyBaseDigitsFlagged(t *testing.T) {
	toks := Tokenize("0x")
	lit := toks[0].Kind.(token.Literal)
	i := lit.LitKind.(token.IntLiteral)
	if !i.EmptyDigits {
		t.Errorf("expected EmptyDigits=true for a bare '0x'")
	}
}

func TestFloatLiteral(t *testing.T) {
	toks := Tokenize("1.5e10")
	lit := toks[0].Kind.(token.Literal)
	f, ok := lit.LitKind.(token.FloatLiteral)
	if !ok {
		t.Fatalf("expected a FloatLiteral, got %#v", lit.LitKind)
	}
	if f.EmptyExponent {
		t.Errorf("unexpected EmptyExponent for 1.5e10")
	}
}

func TestShebangStripped(t *testing.T) {
	src := "#!/usr/bin/env amyr\nlet x = 1;"
	n, ok := StripShebang(src)
	if !ok {
		t.Fatalf("expected shebang to be detected")
	}
	if src[:n] != "#!/usr/bin/env amyr\n" {
		t.Errorf("stripped prefix = %q", src[:n])
	}
}

func TestShebangNotConfusedWithAttribute(t *testing.T) {
	src := "#![allow(dead_code)]"
	_, ok := StripShebang(src)
	if ok {
		t.Errorf("expected '#![...]' to not be treated as a shebang")
	}
}

// Package lexer implements Amyr's low-level tokenizer: a single-character
// dispatch, Cursor-driven state machine that turns source text into a
// lazy, single-pass sequence of bare token.Token values. It never fails —
// malformed input is encoded as flags on the token kind (Terminated,
// EmptyDigits, a nil NHashes, InvalidIdent, Unknown) for a later layer to
// turn into diagnostics. Modeled directly on rustc_lexer, by way of
// original_source/amyr-tokenizer's low_lexer.hpp.
package lexer

import (
	"strings"
	"unicode"

	"amyr/internal/cursor"
	"amyr/internal/token"
)

const zeroWidthJoiner = '‍'

// Lexer produces tokens one at a time from a source string. It is
// single-pass and not restartable: once Next returns an Eof token, further
// calls keep returning Eof with length 0.
type Lexer struct {
	cur  *cursor.Cursor
	done bool
}

// New creates a Lexer over source.
func New(source string) *Lexer {
	return &Lexer{cur: cursor.New(source)}
}

// Next returns the next token in the stream.
func (l *Lexer) Next() token.Token {
	if l.done {
		return token.Token{Kind: token.Eof{}, Len: 0}
	}
	t := l.advanceToken()
	if _, isEOF := t.Kind.(token.Eof); isEOF {
		l.done = true
	}
	return t
}

// Tokenize runs a fresh Lexer over source to completion, returning every
// token including the trailing Eof.
func Tokenize(source string) []token.Token {
	l := New(source)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if _, isEOF := t.Kind.(token.Eof); isEOF {
			break
		}
	}
	return toks
}

// ---- single-character dispatch ----

func (l *Lexer) advanceToken() token.Token {
	cur := l.cur
	cur.ResetPosWithinToken()

	first, ok := cur.Bump()
	if !ok {
		return token.Token{Kind: token.Eof{}, Len: 0}
	}

	var kind token.Kind
	switch {
	case first == '/':
		switch cur.PeekFirst() {
		case '/':
			kind = l.lineComment()
		case '*':
			kind = l.blockComment()
		default:
			kind = token.Slash{}
		}

	case isWhitespace(first):
		cur.EatWhile(isWhitespace)
		kind = token.Whitespace{}

	case first == 'r':
		switch {
		case cur.PeekFirst() == '#' && isIDStart(cur.PeekSecond()):
			cur.Bump() // '#'
			cur.EatWhile(isIDContinue)
			kind = token.RawIdent{}
		case cur.PeekFirst() == '#' || cur.PeekFirst() == '"':
			litKind := l.rawStringLike(rawStr)
			kind = l.literalWithSuffix(litKind, rawNHashes(litKind) != nil)
		default:
			kind = l.identOrUnknownPrefix()
		}

	case first == 'b':
		kind = l.byteOrIdentPrefix()

	case first == 'c':
		kind = l.cStrOrIdentPrefix()

	case isDigit(first):
		kind = l.number(first)

	case first == '\'':
		kind = l.lifetimeOrChar()

	case first == '"':
		terminated := scanQuotedBody(cur, '"', false)
		kind = l.literalWithSuffix(token.StrLiteral{Terminated: terminated}, terminated)

	case isIDStart(first):
		kind = l.identOrUnknownPrefix()

	case !isASCII(first) && isEmoji(first):
		cur.EatWhile(func(r rune) bool { return isIDContinue(r) || r == zeroWidthJoiner })
		kind = token.InvalidIdent{}

	default:
		kind = punctuation(first)
	}

	return token.Token{Kind: kind, Len: cur.PosWithinToken()}
}

// literalWithSuffix wraps kind in a Literal token, eating a trailing type
// suffix only when the literal was well-formed (eatOK).
func (l *Lexer) literalWithSuffix(kind token.LiteralKind, eatOK bool) token.Kind {
	suffixStart := l.cur.PosWithinToken()
	if eatOK {
		l.cur.EatWhile(isIDContinue)
	}
	return token.Literal{LitKind: kind, SuffixStart: suffixStart}
}

// ---- comments ----

func (l *Lexer) lineComment() token.Kind {
	cur := l.cur
	cur.Bump() // second '/'
	docStyle := token.DocNone
	switch cur.PeekFirst() {
	case '!':
		docStyle = token.DocInner
	case '/':
		if cur.PeekSecond() != '/' {
			docStyle = token.DocOuter
		}
	}
	cur.EatWhile(func(r rune) bool { return r != '\n' })
	return token.LineComment{DocStyle: docStyle}
}

func (l *Lexer) blockComment() token.Kind {
	cur := l.cur
	cur.Bump() // '*'
	docStyle := token.DocNone
	switch cur.PeekFirst() {
	case '!':
		docStyle = token.DocInner
	case '*':
		if cur.PeekSecond() != '*' && cur.PeekSecond() != '/' {
			docStyle = token.DocOuter
		}
	}

	depth := 1
	terminated := false
	for !cur.IsEOF() {
		c, _ := cur.Bump()
		switch {
		case c == '/' && cur.PeekFirst() == '*':
			cur.Bump()
			depth++
		case c == '*' && cur.PeekFirst() == '/':
			cur.Bump()
			depth--
			if depth == 0 {
				terminated = true
			}
		}
		if terminated {
			break
		}
	}
	return token.BlockComment{DocStyle: docStyle, Terminated: terminated}
}

// ---- identifiers & prefixes ----

func (l *Lexer) identOrUnknownPrefix() token.Kind {
	cur := l.cur
	cur.EatWhile(isIDContinue)
	switch cur.PeekFirst() {
	case '#', '"', '\'':
		return token.UnknownPrefix{}
	default:
		return token.Ident{}
	}
}

func (l *Lexer) byteOrIdentPrefix() token.Kind {
	cur := l.cur
	switch {
	case cur.PeekFirst() == '\'':
		cur.Bump()
		terminated := scanQuotedBody(cur, '\'', true)
		return l.literalWithSuffix(token.ByteLiteral{Terminated: terminated}, terminated)
	case cur.PeekFirst() == '"':
		cur.Bump()
		terminated := scanQuotedBody(cur, '"', false)
		return l.literalWithSuffix(token.ByteStrLiteral{Terminated: terminated}, terminated)
	case cur.PeekFirst() == 'r' && (cur.PeekSecond() == '"' || cur.PeekSecond() == '#'):
		cur.Bump() // 'r'
		litKind := l.rawStringLike(rawByteStr)
		return l.literalWithSuffix(litKind, rawNHashes(litKind) != nil)
	default:
		return l.identOrUnknownPrefix()
	}
}

func (l *Lexer) cStrOrIdentPrefix() token.Kind {
	cur := l.cur
	switch {
	case cur.PeekFirst() == '"':
		cur.Bump()
		terminated := scanQuotedBody(cur, '"', false)
		return l.literalWithSuffix(token.CStrLiteral{Terminated: terminated}, terminated)
	case cur.PeekFirst() == 'r' && (cur.PeekSecond() == '"' || cur.PeekSecond() == '#'):
		cur.Bump() // 'r'
		litKind := l.rawStringLike(rawCStr)
		return l.literalWithSuffix(litKind, rawNHashes(litKind) != nil)
	default:
		return l.identOrUnknownPrefix()
	}
}

// ---- char / lifetime ----

func (l *Lexer) lifetimeOrChar() token.Kind {
	cur := l.cur

	switch {
	case isIDStart(cur.PeekFirst()) && cur.PeekSecond() == '\'':
		// 'x' — a length-1 char literal that happens to look like a lifetime start.
		cur.Bump()
		cur.Bump()
		return token.Literal{LitKind: token.CharLiteral{Terminated: true}, SuffixStart: cur.PosWithinToken()}

	case cur.PeekFirst() == 'r' && cur.PeekSecond() == '#' && isIDStart(cur.PeekThird()):
		cur.Bump() // 'r'
		cur.Bump() // '#'
		cur.EatWhile(isIDContinue)
		return token.RawLifetime{}

	case isIDStart(cur.PeekFirst()) || isDigit(cur.PeekFirst()):
		startsWithNumber := isDigit(cur.PeekFirst())
		cur.EatWhile(isIDContinue)
		switch cur.PeekFirst() {
		case '\'':
			cur.Bump()
			return token.Literal{LitKind: token.CharLiteral{Terminated: true}, SuffixStart: cur.PosWithinToken()}
		case '#':
			// `'ident#...` — the lifetime-shaped identifier collides with a
			// raw-identifier-like separator, same reserved-prefix rule as
			// plain identifiers (see identOrUnknownPrefix).
			return token.UnknownPrefixLifetime{}
		default:
			return token.Lifetime{StartsWithNumber: startsWithNumber}
		}

	default:
		terminated := scanQuotedBody(cur, '\'', true)
		return l.literalWithSuffix(token.CharLiteral{Terminated: terminated}, terminated)
	}
}

// scanQuotedBody consumes characters (treating '\' as escaping whatever
// follows it, without validating the escape) until the closing quote is
// found. If stopAtNewline, a bare newline also ends the body unterminated
// — used for char/byte literals, which may not span lines; string forms
// pass false and may contain raw newlines.
func scanQuotedBody(cur *cursor.Cursor, quote rune, stopAtNewline bool) bool {
	for !cur.IsEOF() {
		c := cur.PeekFirst()
		if c == quote {
			cur.Bump()
			return true
		}
		if c == '\n' && stopAtNewline {
			return false
		}
		if c == '\\' {
			cur.Bump()
			if !cur.IsEOF() {
				cur.Bump()
			}
			continue
		}
		cur.Bump()
	}
	return false
}

// ---- numeric literals ----

func (l *Lexer) number(firstDigit rune) token.Kind {
	cur := l.cur
	base := token.Decimal
	emptyDigits := false

	if firstDigit == '0' {
		switch cur.PeekFirst() {
		case 'b':
			base = token.Binary
			cur.Bump()
			if !eatDigits(cur, isBinaryDigit) {
				emptyDigits = true
			}
		case 'o':
			base = token.Octal
			cur.Bump()
			if !eatDigits(cur, isOctalDigit) {
				emptyDigits = true
			}
		case 'x':
			base = token.Hexadecimal
			cur.Bump()
			if !eatDigits(cur, isHexDigit) {
				emptyDigits = true
			}
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '_':
			eatDigits(cur, isDigit)
		default:
			// bare "0"
		}
	} else {
		eatDigits(cur, isDigit)
	}

	if base == token.Decimal {
		if cur.PeekFirst() == '.' && cur.PeekSecond() != '.' && !isIDStart(cur.PeekSecond()) {
			cur.Bump()
			eatDigits(cur, isDigit)
			return l.maybeExponent(base, false)
		}
		if cur.PeekFirst() == 'e' || cur.PeekFirst() == 'E' {
			return l.maybeExponent(base, true)
		}
	}

	return l.literalWithSuffix(token.IntLiteral{Base: base, EmptyDigits: emptyDigits}, true)
}

// maybeExponent consumes an 'e'/'E' exponent (with optional sign) if
// present and returns the resulting Float literal kind.
func (l *Lexer) maybeExponent(base token.Base, markerAlreadySeen bool) token.Kind {
	cur := l.cur
	emptyExponent := false
	if markerAlreadySeen || cur.PeekFirst() == 'e' || cur.PeekFirst() == 'E' {
		cur.Bump()
		if cur.PeekFirst() == '+' || cur.PeekFirst() == '-' {
			cur.Bump()
		}
		if !eatDigits(cur, isDigit) {
			emptyExponent = true
		}
	}
	return l.literalWithSuffix(token.FloatLiteral{Base: base, EmptyExponent: emptyExponent}, true)
}

// eatDigits consumes digits and '_' separators while predicate holds on
// the digit itself; it reports whether at least one real digit was seen.
func eatDigits(cur *cursor.Cursor, predicate func(rune) bool) bool {
	sawDigit := false
	for {
		c := cur.PeekFirst()
		if c == '_' {
			cur.Bump()
			continue
		}
		if predicate(c) {
			sawDigit = true
			cur.Bump()
			continue
		}
		break
	}
	return sawDigit
}

// ---- raw strings ----

type rawStringKind int

const (
	rawStr rawStringKind = iota
	rawByteStr
	rawCStr
)

// rawStringLike scans a raw string/byte-string/C-string body: the cursor
// must be positioned just past the leading 'r' (with any 'b'/'c' already
// consumed by the caller).
func (l *Lexer) rawStringLike(kind rawStringKind) token.LiteralKind {
	cur := l.cur

	nStartHashes := 0
	for cur.PeekFirst() == '#' {
		cur.Bump()
		nStartHashes++
	}

	if cur.PeekFirst() != '"' {
		return rawLiteralKind(kind, nil)
	}
	cur.Bump() // opening quote

	if nStartHashes > 255 {
		scanRawBody(cur, nStartHashes)
		return rawLiteralKind(kind, nil)
	}

	closeHashes, found := scanRawBody(cur, nStartHashes)
	if !found || closeHashes != nStartHashes {
		return rawLiteralKind(kind, nil)
	}
	n := uint16(nStartHashes)
	return rawLiteralKind(kind, &n)
}

// scanRawBody consumes up to a `"` followed by exactly wantHashes `#`s (or
// fewer, in which case scanning continues), returning the number of `#`s
// actually found after the last `"` seen and whether any closing `"` was
// found at all before end of input.
func scanRawBody(cur *cursor.Cursor, wantHashes int) (int, bool) {
	lastCloseHashes := 0
	sawQuote := false
	for !cur.IsEOF() {
		c, _ := cur.Bump()
		if c != '"' {
			continue
		}
		sawQuote = true
		n := 0
		for cur.PeekFirst() == '#' && n < wantHashes {
			cur.Bump()
			n++
		}
		lastCloseHashes = n
		if n == wantHashes {
			return n, true
		}
	}
	return lastCloseHashes, sawQuote
}

func rawLiteralKind(kind rawStringKind, n *uint16) token.LiteralKind {
	switch kind {
	case rawByteStr:
		return token.RawByteStrLiteral{NHashes: n}
	case rawCStr:
		return token.RawCStrLiteral{NHashes: n}
	default:
		return token.RawStrLiteral{NHashes: n}
	}
}

func rawNHashes(kind token.LiteralKind) *uint16 {
	switch k := kind.(type) {
	case token.RawStrLiteral:
		return k.NHashes
	case token.RawByteStrLiteral:
		return k.NHashes
	case token.RawCStrLiteral:
		return k.NHashes
	default:
		return nil
	}
}

// ValidateRawString re-scans a standalone raw string literal (as returned
// by a caller that already knows the prefix length, e.g. 1 for `r"..."`,
// 2 for `br"..."`/`cr"..."`) and reports a precise RawStrError plus, for
// an unterminated literal, the furthest position a terminator might have
// been intended — used for diagnostics when the bare tokenizer reports a
// nil NHashes.
func ValidateRawString(literal string, prefixLen int) (token.RawStrError, bool, int) {
	cur := cursor.New(literal)
	for i := 0; i < prefixLen; i++ {
		if _, ok := cur.Bump(); !ok {
			return token.NoTerminator, false, 0
		}
	}

	nStartHashes := 0
	for cur.PeekFirst() == '#' {
		cur.Bump()
		nStartHashes++
	}
	if cur.PeekFirst() != '"' {
		return token.InvalidStarter, false, 0
	}
	if nStartHashes > 255 {
		return token.TooManyDelimiters, false, 0
	}
	cur.Bump()

	possible := -1
	for !cur.IsEOF() {
		c, _ := cur.Bump()
		if c != '"' {
			continue
		}
		start := cur.PosWithinToken()
		n := 0
		for cur.PeekFirst() == '#' && n < nStartHashes {
			cur.Bump()
			n++
		}
		if n == nStartHashes {
			return 0, true, 0
		}
		possible = int(start) - 1
	}
	if possible < 0 {
		possible = 0
	}
	return token.NoTerminator, false, possible
}

// ---- shebang ----

// StripShebang reports the byte length of a leading shebang line (up to
// and including its newline) that callers should skip before tokenizing,
// or false if input does not begin with one — either because it lacks the
// "#!" prefix, or because the first significant token after it is '[',
// which means this is an attribute, not a shebang.
func StripShebang(input string) (int, bool) {
	if !strings.HasPrefix(input, "#!") {
		return 0, false
	}
	tail := input[2:]

	skip := 0
scan:
	for _, t := range Tokenize(tail) {
		switch k := t.Kind.(type) {
		case token.Whitespace:
			skip += int(t.Len)
			continue
		case token.LineComment:
			if k.DocStyle == token.DocNone {
				skip += int(t.Len)
				continue
			}
		case token.BlockComment:
			if k.DocStyle == token.DocNone {
				skip += int(t.Len)
				continue
			}
		}
		break scan
	}

	if strings.HasPrefix(tail[skip:], "[") {
		return 0, false
	}

	nl := strings.IndexByte(tail, '\n')
	if nl == -1 {
		return len(input), true
	}
	return 2 + nl + 1, true
}

// ---- guarded strings ----

// ScanGuardedString scans a `#"..."#`-shaped guarded string literal body
// starting at input[0] == '#', per RFC 3598. It is a standalone scanner,
// not wired into the default dispatch: in this edition guarded strings
// are split into their component Pound/Str/Pound tokens (see Glossary),
// and this function exists for callers opting into the reserved form.
func ScanGuardedString(input string) token.GuardedStr {
	cur := cursor.New(input)
	nHashes := uint32(0)
	for cur.PeekFirst() == '#' {
		cur.Bump()
		nHashes++
	}
	if cur.PeekFirst() != '"' {
		return token.GuardedStr{NHashes: nHashes, Terminated: false, TokenLen: cur.PosWithinToken()}
	}
	cur.Bump()
	for !cur.IsEOF() {
		c, _ := cur.Bump()
		if c != '"' {
			continue
		}
		matched := uint32(0)
		for cur.PeekFirst() == '#' && matched < nHashes {
			cur.Bump()
			matched++
		}
		if matched == nHashes {
			return token.GuardedStr{NHashes: nHashes, Terminated: true, TokenLen: cur.PosWithinToken()}
		}
	}
	return token.GuardedStr{NHashes: nHashes, Terminated: false, TokenLen: cur.PosWithinToken()}
}

// ---- punctuation ----

func punctuation(c rune) token.Kind {
	switch c {
	case ';':
		return token.Semi{}
	case ',':
		return token.Comma{}
	case '.':
		return token.Dot{}
	case '(':
		return token.OpenParen{}
	case ')':
		return token.CloseParen{}
	case '{':
		return token.OpenBrace{}
	case '}':
		return token.CloseBrace{}
	case '[':
		return token.OpenBracket{}
	case ']':
		return token.CloseBracket{}
	case '@':
		return token.At{}
	case '#':
		return token.Pound{}
	case '~':
		return token.Tilde{}
	case '?':
		return token.Question{}
	case ':':
		return token.Colon{}
	case '$':
		return token.Dollar{}
	case '=':
		return token.Eq{}
	case '!':
		return token.Bang{}
	case '<':
		return token.Lt{}
	case '>':
		return token.Gt{}
	case '-':
		return token.Minus{}
	case '&':
		return token.And{}
	case '|':
		return token.Or{}
	case '+':
		return token.Plus{}
	case '*':
		return token.Star{}
	case '/':
		return token.Slash{}
	case '^':
		return token.Caret{}
	case '%':
		return token.Percent{}
	default:
		return token.Unknown{}
	}
}

// ---- character classification ----

// isWhitespace matches rustc's Pattern_White_Space-derived whitespace set
// rather than unicode.IsSpace, which is a different (broader in places,
// narrower in others) Unicode property.
func isWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '', '', '\r', ' ',
		'', '‎', '‏', ' ', ' ':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool       { return r >= '0' && r <= '9' }
func isBinaryDigit(r rune) bool { return r == '0' || r == '1' }
func isOctalDigit(r rune) bool  { return r >= '0' && r <= '7' }
func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
func isASCII(r rune) bool { return r < 0x80 }

// isIDStart and isIDContinue approximate Unicode XID_Start/XID_Continue
// using unicode.IsLetter/IsDigit — what Go's own lexer does for the same
// purpose. No package in this retrieval pack vendors the precise XID
// derived-property tables (that is the unicode-xid crate's job in the
// source language, which has no direct Go ecosystem analogue here), so
// the standard library is the right tool rather than a gap.
func isIDStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIDContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isEmoji approximates the source's emoji classification with the Unicode
// "Symbol, other" category plus the common pictograph/emoticon/regional-
// indicator blocks; telling "clearly not an identifier, clearly a
// pictograph" apart is all InvalidIdent classification needs.
func isEmoji(r rune) bool {
	if unicode.Is(unicode.So, r) {
		return true
	}
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	default:
		return false
	}
}

// Package cursor implements the bottom-most layer of the front-end: a
// bounded peek-and-consume view over a UTF-8 source buffer.
//
// It mirrors rustc_lexer's Cursor (a Peekable iterator over chars): no
// allocation, O(1) peek/bump, and a running count of bytes consumed since
// the last reset, which the Lexer uses to compute token lengths.
package cursor

import "unicode/utf8"

// EOF is returned by the peek/bump family when no character remains. It is
// the NUL rune, which is a valid source character, so callers must combine
// it with IsEOF to tell "out of input" from an actual embedded NUL.
const EOF rune = 0

// Cursor is a peek-3 lookahead reader over source. It never rewinds except
// through a caller-recorded byte offset.
type Cursor struct {
	src      string
	pos      int // current byte offset into src
	resetPos int // byte offset recorded by the last ResetPosWithinToken
	prev     rune
}

// New returns a Cursor positioned at the start of src.
func New(src string) *Cursor {
	return &Cursor{src: src, prev: EOF}
}

// IsEOF reports whether there is nothing more to consume.
func (c *Cursor) IsEOF() bool {
	return c.pos >= len(c.src)
}

// AsStr returns the unconsumed remainder of the source.
func (c *Cursor) AsStr() string {
	return c.src[c.pos:]
}

// Prev returns the most recently bumped character, or EOF if bump has not
// been called yet. Used only for internal assertions in debug-style checks.
func (c *Cursor) Prev() rune {
	return c.prev
}

func (c *Cursor) peekAt(byteOffset int) rune {
	rest := c.src[min(byteOffset, len(c.src)):]
	if rest == "" {
		return EOF
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return r
}

// PeekFirst returns the next character without consuming it, or EOF if at
// end of input.
func (c *Cursor) PeekFirst() rune {
	return c.peekAt(c.pos)
}

// PeekSecond returns the character after PeekFirst.
func (c *Cursor) PeekSecond() rune {
	if c.IsEOF() {
		return EOF
	}
	_, w := utf8.DecodeRuneInString(c.src[c.pos:])
	return c.peekAt(c.pos + w)
}

// PeekThird returns the character after PeekSecond.
func (c *Cursor) PeekThird() rune {
	rest := c.src[min(c.pos, len(c.src)):]
	if rest == "" {
		return EOF
	}
	_, w1 := utf8.DecodeRuneInString(rest)
	rest = rest[w1:]
	if rest == "" {
		return EOF
	}
	_, w2 := utf8.DecodeRuneInString(rest)
	return c.peekAt(c.pos + w1 + w2)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Bump consumes one character and returns it along with whether any
// character was actually available.
func (c *Cursor) Bump() (rune, bool) {
	if c.IsEOF() {
		return EOF, false
	}
	r, w := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += w
	c.prev = r
	return r, true
}

// PosWithinToken returns the number of bytes consumed since the last
// ResetPosWithinToken call.
func (c *Cursor) PosWithinToken() uint32 {
	return uint32(c.pos - c.resetPos)
}

// ResetPosWithinToken zeroes the byte count returned by PosWithinToken.
func (c *Cursor) ResetPosWithinToken() {
	c.resetPos = c.pos
}

// EatWhile consumes characters greedily while predicate holds, stopping at
// end of input.
func (c *Cursor) EatWhile(predicate func(rune) bool) {
	for !c.IsEOF() && predicate(c.PeekFirst()) {
		c.Bump()
	}
}

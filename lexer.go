package mathexpr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenKind classifies a token.
type tokenKind int

const (
	tokEnd       tokenKind = iota // End of input
	tokDelimiter                  // Operator or punctuation, including named operators
	tokNumber                     // Numeric literal
	tokSymbol                     // Identifier
	tokString                     // Double quoted string, unescaped
	tokUnknown                    // Characters that start no valid token
)

func (k tokenKind) String() string {
	switch k {
	case tokEnd:
		return "end"
	case tokDelimiter:
		return "delimiter"
	case tokNumber:
		return "number"
	case tokSymbol:
		return "symbol"
	case tokString:
		return "string"
	}
	return "unknown"
}

// token is a lexical unit of an expression.
type token struct {
	Kind tokenKind
	Text string // literal text; for strings the unescaped content
	Pos  int    // 0-based offset of the first character
}

var delimiters2 = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
	".*": true, "./": true, ".^": true,
}

var delimiters1 = map[byte]bool{
	',': true, '(': true, ')': true, '[': true, ']': true,
	'\n': true, ';': true, '+': true, '-': true, '*': true,
	'/': true, '%': true, '^': true, '\'': true, '!': true,
	'=': true, ':': true, '<': true, '>': true, '?': true,
}

var namedDelimiters = map[string]bool{
	"mod": true,
	"to":  true,
	"in":  true,
}

// lexer holds the cursor of a single parse.
type lexer struct {
	src     string
	pos     int   // position of the next unread byte
	tok     token // current token
	nesting int   // depth of open parentheses/brackets; newlines are skipped inside
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// next advances to the following token.
func (l *lexer) next() error {
	l.skip()
	start := l.pos
	if l.pos >= len(l.src) {
		l.tok = token{Kind: tokEnd, Pos: l.pos}
		return nil
	}

	c := l.src[l.pos]
	if l.pos+1 < len(l.src) {
		if two := l.src[l.pos : l.pos+2]; delimiters2[two] {
			l.pos += 2
			l.tok = token{Kind: tokDelimiter, Text: two, Pos: start}
			return nil
		}
	}
	if delimiters1[c] {
		l.pos++
		l.tok = token{Kind: tokDelimiter, Text: string(c), Pos: start}
		return nil
	}

	switch {
	case c == '"':
		return l.readString()
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.readNumber()
	case l.letterAt(l.pos) > 0:
		for l.pos < len(l.src) {
			if w := l.letterAt(l.pos); w > 0 {
				l.pos += w
			} else if isDigit(l.src[l.pos]) {
				l.pos++
			} else {
				break
			}
		}
		text := l.src[start:l.pos]
		if namedDelimiters[text] {
			l.tok = token{Kind: tokDelimiter, Text: text, Pos: start}
		} else {
			l.tok = token{Kind: tokSymbol, Text: text, Pos: start}
		}
		return nil
	}

	// Nothing matched: swallow the rest of the word for the error message.
	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) && !delimiters1[l.src[l.pos]] {
		l.pos++
	}
	if l.pos == start {
		l.pos++
	}
	l.tok = token{Kind: tokUnknown, Text: l.src[start:l.pos], Pos: start}
	return &SyntaxError{Pos: start, Msg: fmt.Sprintf("Syntax error in part %q", l.tok.Text)}
}

// skip consumes whitespace and comments.
func (l *lexer) skip() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\n' && l.nesting > 0:
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) readNumber() error {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	// A dot belongs to the number unless it starts an element-wise operator.
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		if l.pos+1 >= len(l.src) || !strings.ContainsRune("*/^", rune(l.src[l.pos+1])) {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos >= len(l.src) || !isDigit(l.src[l.pos]) {
			got := "end of expression"
			if l.pos < len(l.src) {
				got = fmt.Sprintf("%q", l.src[l.pos:l.pos+1])
			}
			l.tok = token{Kind: tokUnknown, Text: l.src[start:l.pos], Pos: start}
			return &SyntaxError{Pos: l.pos, Msg: "Digit expected, got " + got, Incomplete: l.pos >= len(l.src)}
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	l.tok = token{Kind: tokNumber, Text: l.src[start:l.pos], Pos: start}
	return nil
}

func (l *lexer) readString() error {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '"' {
			b.WriteByte('"')
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			l.tok = token{Kind: tokString, Text: b.String(), Pos: start}
			return nil
		}
		b.WriteByte(c)
		l.pos++
	}
	l.tok = token{Kind: tokUnknown, Text: l.src[start:], Pos: start}
	return &SyntaxError{Pos: l.pos, Msg: `End of string " expected`, Incomplete: true}
}

// letterAt returns the byte width of the identifier letter at i, or 0.
// Letters are '_' and any Unicode letter.
func (l *lexer) letterAt(i int) int {
	c := l.src[i]
	if c < utf8.RuneSelf {
		if isAlpha(c) {
			return 1
		}
		return 0
	}
	r, w := utf8.DecodeRuneInString(l.src[i:])
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return 0
	}
	return w
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

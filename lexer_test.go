package mathexpr

import (
	"testing"

	"github.com/nalgeon/be"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()
	l := newLexer(src)
	var out []token
	for {
		err := l.next()
		be.Err(t, err, nil)
		if l.tok.Kind == tokEnd {
			return out
		}
		out = append(out, l.tok)
	}
}

func TestLexer_Tokens(t *testing.T) {
	toks := lexAll(t, "a2 .* 3.5e-2 >= \"hi\" mod x'")
	want := []token{
		{Kind: tokSymbol, Text: "a2", Pos: 0},
		{Kind: tokDelimiter, Text: ".*", Pos: 3},
		{Kind: tokNumber, Text: "3.5e-2", Pos: 6},
		{Kind: tokDelimiter, Text: ">=", Pos: 13},
		{Kind: tokString, Text: "hi", Pos: 16},
		{Kind: tokDelimiter, Text: "mod", Pos: 21},
		{Kind: tokSymbol, Text: "x", Pos: 25},
		{Kind: tokDelimiter, Text: "'", Pos: 26},
	}
	be.Equal(t, toks, want)
}

func TestLexer_NumberBeforeElementwiseOperator(t *testing.T) {
	toks := lexAll(t, "2.*3")
	be.Equal(t, len(toks), 3)
	be.Equal(t, toks[0].Text, "2")
	be.Equal(t, toks[1].Text, ".*")
	be.Equal(t, toks[2].Text, "3")
}

func TestLexer_LeadingDot(t *testing.T) {
	toks := lexAll(t, ".5")
	be.Equal(t, toks, []token{{Kind: tokNumber, Text: ".5", Pos: 0}})
}

func TestLexer_Comment(t *testing.T) {
	toks := lexAll(t, "1 # one\n2")
	be.Equal(t, len(toks), 3)
	be.Equal(t, toks[1].Text, "\n")
}

func TestLexer_NewlineInsideParentheses(t *testing.T) {
	l := newLexer("\n1")
	l.nesting = 1
	be.Err(t, l.next(), nil)
	be.Equal(t, l.tok.Kind, tokNumber)
}

func TestLexer_EscapedQuote(t *testing.T) {
	toks := lexAll(t, `"say \"hi\""`)
	be.Equal(t, toks[0].Text, `say "hi"`)
}

func TestLexer_UnicodeIdentifiers(t *testing.T) {
	toks := lexAll(t, "π*2 + αβ_1 ")
	want := []token{
		{Kind: tokSymbol, Text: "π", Pos: 0},
		{Kind: tokDelimiter, Text: "*", Pos: 2},
		{Kind: tokNumber, Text: "2", Pos: 3},
		{Kind: tokDelimiter, Text: "+", Pos: 5},
		{Kind: tokSymbol, Text: "αβ_1", Pos: 7},
	}
	be.Equal(t, toks, want)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		src        string
		msg        string
		incomplete bool
	}{
		{"2e", "Digit expected", true},
		{"2e+a", "Digit expected", false},
		{`"abc`, "End of string", true},
		{"$x", `Syntax error in part "$x"`, false},
		{"€5", `Syntax error in part "€5"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			err := newLexer(tt.src).next()
			be.Err(t, err, ErrSyntax)
			be.Err(t, err, tt.msg)
			be.Equal(t, IsIncomplete(err), tt.incomplete)
		})
	}
}

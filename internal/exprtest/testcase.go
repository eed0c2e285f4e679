// Package exprtest extracts expression test cases from Markdown files.
//
// A test case starts at a heading "Test: name", holds one ```expr fence
// with the input and one or more assertion fences:
//
//	## Test: power is right associative
//	```expr
//	2^3^2
//	```
//	```eval
//	512
//	```
//
// The derivative fence names its variable after the language:
// ```derivative x.
package exprtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const inputFence = "expr"

// AssertionType is the language of an assertion fence.
type AssertionType string

const (
	AssertionString     AssertionType = "string"
	AssertionLaTeX      AssertionType = "latex"
	AssertionEval       AssertionType = "eval"
	AssertionSimplify   AssertionType = "simplify"
	AssertionDerivative AssertionType = "derivative"
	AssertionError      AssertionType = "error"
)

var assertionTypes = map[AssertionType]bool{
	AssertionString: true, AssertionLaTeX: true, AssertionEval: true,
	AssertionSimplify: true, AssertionDerivative: true, AssertionError: true,
}

// Assertion is one expected outcome.
type Assertion struct {
	Type    AssertionType
	Arg     string // text after the fence language, e.g. the variable of a derivative
	Content string
	Line    int
}

// TestCase is one "Test:" section.
type TestCase struct {
	Name       string
	Input      string
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and returns its test cases.
func ExtractTestCases(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var cur *TestCase
	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := validate(cur); err != nil {
			return err
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &TestCase{Name: strings.TrimPrefix(heading, "Test: ")}

		case *ast.FencedCodeBlock:
			lang, arg := fenceInfo(n, source)
			line := lineNumber(n, source)
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, lang)
			}
			content := strings.TrimRight(codeContent(n, source), "\n")
			switch {
			case lang == inputFence:
				if cur.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", line, cur.Name)
				}
				cur.Input = content
			case assertionTypes[AssertionType(lang)]:
				a := Assertion{Type: AssertionType(lang), Arg: arg, Content: content, Line: line}
				if a.Type == AssertionDerivative && a.Arg == "" {
					return ast.WalkStop, fmt.Errorf("line %d: derivative fence needs a variable in test '%s'", line, cur.Name)
				}
				cur.Assertions = append(cur.Assertions, a)
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func validate(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// fenceInfo splits the info string into language and argument.
func fenceInfo(n *ast.FencedCodeBlock, source []byte) (string, string) {
	if n.Info == nil {
		return "", ""
	}
	info := strings.TrimSpace(string(n.Info.Segment.Value(source)))
	lang, arg, _ := strings.Cut(info, " ")
	return lang, strings.TrimSpace(arg)
}

func codeContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineNumber(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 1
	}
	start := n.Lines().At(0).Start
	line := 1
	for i := 0; i < start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}

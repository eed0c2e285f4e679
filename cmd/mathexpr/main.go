// Command mathexpr is an interactive calculator.
//
// Usage:
//
//	mathexpr [-rules rules.yaml] [-history file]
//
// Lines are evaluated in a persistent scope; the last result is kept in
// "ans". Commands:
//
//	:simplify expr
//	:derive expr, x
//	:rationalize expr
//	:quit
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	mathexpr "github.com/njchilds90/gomathexpr"
)

const (
	promptMain  = "> "
	promptCont  = "... "
	historyFile = ".mathexpr_history"
)

func main() {
	home, _ := os.UserHomeDir()
	rulesPath := flag.String("rules", "", "YAML file with simplification rules")
	histPath := flag.String("history", filepath.Join(home, historyFile), "history file")
	flag.Parse()

	r, err := newRepl(*rulesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(r.run(*histPath))
}

type repl struct {
	scope    mathexpr.Scope
	simplify *mathexpr.SimplifyOptions
	out      io.Writer
}

func newRepl(rulesPath string) (*repl, error) {
	r := &repl{scope: mathexpr.NewMapScope(), simplify: &mathexpr.SimplifyOptions{}, out: os.Stdout}
	if rulesPath == "" {
		return r, nil
	}
	f, err := os.Open(rulesPath)
	if err != nil {
		return nil, errors.Wrap(err, "open rules")
	}
	defer f.Close()
	rules, err := mathexpr.LoadRules(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", rulesPath)
	}
	r.simplify.Rules = rules
	return r, nil
}

func (r *repl) run(histPath string) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(r.out)
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if strings.TrimSpace(src) == ":quit" {
			return 0
		}
		res, err := r.eval(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Fprintln(r.out, res)
	}
}

// readInput reads lines until they form a complete expression.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			// io.EOF or ctrl-c
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := mathexpr.Parse(src, nil); mathexpr.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

// eval runs a command or evaluates an expression and returns the text to print.
func (r *repl) eval(src string) (string, error) {
	src = strings.TrimSpace(src)
	if !strings.HasPrefix(src, ":") {
		n, err := mathexpr.Parse(src, &mathexpr.ParseOptions{AnsAssignment: true})
		if err != nil {
			return "", err
		}
		expr, err := mathexpr.CompileIn(n, nil, r.scope)
		if err != nil {
			return "", err
		}
		v, err := expr.Evaluate(r.scope)
		if err != nil {
			return "", err
		}
		return mathexpr.FormatValue(v), nil
	}

	cmd, arg, _ := strings.Cut(src, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":simplify":
		n, err := mathexpr.Parse(arg, nil)
		if err != nil {
			return "", err
		}
		s, err := mathexpr.Simplify(n, r.simplify)
		if err != nil {
			return "", err
		}
		return s.String(), nil

	case ":derive":
		i := strings.LastIndex(arg, ",")
		if i < 0 {
			return "", errors.New("usage: :derive expr, variable")
		}
		n, err := mathexpr.Parse(arg[:i], nil)
		if err != nil {
			return "", err
		}
		d, err := mathexpr.Derivative(n, strings.TrimSpace(arg[i+1:]), &mathexpr.DerivativeOptions{Simplify: r.simplify})
		if err != nil {
			return "", err
		}
		return d.String(), nil

	case ":rationalize":
		n, err := mathexpr.Parse(arg, nil)
		if err != nil {
			return "", err
		}
		res, err := mathexpr.Rationalize(n, r.scope, nil)
		if err != nil {
			return "", err
		}
		return res.Expression.String(), nil
	}
	return "", errors.Errorf("unknown command %s. Commands: :simplify, :derive, :rationalize, :quit", cmd)
}

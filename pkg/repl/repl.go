// Package repl implements the interactive calculator shell.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lemonberrylabs/arith/pkg/expr"
	"github.com/lemonberrylabs/arith/pkg/store"
)

var banner = []string{
	"Welcome to the arithmetic expression evaluator.",
	"Evaluate expressions such as 2*3+(4-5)+2^3/4.",
	"Numbers may be positive, negative or decimal.",
	"Operators: + - * / and ^ (power). (a)(b) multiplies.",
	"Type quit or exit to leave.",
}

// Shell reads one expression per line and prints its result or error.
type Shell struct {
	in      io.Reader
	out     io.Writer
	prompt  string
	showAST bool
	banner  bool
	history *store.Store
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt sets the prompt printed before each line.
func WithPrompt(prompt string) Option {
	return func(s *Shell) { s.prompt = prompt }
}

// WithAST prints the parsed tree before each result.
func WithAST(show bool) Option {
	return func(s *Shell) { s.showAST = show }
}

// WithBanner controls the welcome banner.
func WithBanner(show bool) Option {
	return func(s *Shell) { s.banner = show }
}

// WithHistory records every evaluation in st.
func WithHistory(st *store.Store) Option {
	return func(s *Shell) { s.history = st }
}

// New creates a shell reading from in and writing to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{in: in, out: out, prompt: "> ", banner: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads lines until EOF or a quit command. A bad expression never stops
// the loop; only read errors are returned. Lines have no length limit.
func (s *Shell) Run() error {
	if s.banner {
		for _, line := range banner {
			fmt.Fprintln(s.out, line)
		}
	}

	reader := bufio.NewReader(s.in)
	for {
		fmt.Fprint(s.out, s.prompt)
		raw, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			fmt.Fprintln(s.out)
			if err == io.EOF {
				return nil
			}
			return err
		}

		line := strings.TrimSpace(raw)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		s.Eval(line)
	}
}

// Eval evaluates a single line and prints the outcome.
func (s *Shell) Eval(line string) {
	ev, err := s.evaluate(line)
	if s.showAST && ev.AST != "" {
		fmt.Fprintf(s.out, "AST: %s\n", ev.AST)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Result: %s\n", ev.Display)
}

// evaluate records through the history store when one is set.
func (s *Shell) evaluate(line string) (*store.Evaluation, error) {
	if s.history != nil {
		return s.history.Evaluate(line, store.SourceREPL)
	}

	ev := &store.Evaluation{Expression: line}
	node, err := expr.ParseExpression(line)
	if err != nil {
		return ev, err
	}
	ev.AST = node.String()
	v, err := expr.Eval(node)
	if err != nil {
		return ev, err
	}
	ev.Display = expr.FormatResult(v)
	return ev, nil
}

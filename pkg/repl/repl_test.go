package repl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/arith/pkg/store"
)

func run(t *testing.T, input string, opts ...Option) string {
	t.Helper()
	var out strings.Builder
	opts = append([]Option{WithBanner(false), WithPrompt("")}, opts...)
	require.NoError(t, New(strings.NewReader(input), &out, opts...).Run())
	return out.String()
}

func TestShellResults(t *testing.T) {
	out := run(t, "2+3\n(2)(3)\n1/0\n2^3^2\n")

	assert.Equal(t, "Result: 5\nResult: 6\nResult: inf\nResult: 64\n\n", out)
}

func TestShellKeepsGoingAfterErrors(t *testing.T) {
	out := run(t, "+\n(2+3\n2+\n7\n")

	assert.Equal(t, strings.Join([]string{
		`Error: Invalid operator: unexpected "+" at position 0, expected a number or '('`,
		"Error: Invalid operator: expected RightParen, got EOF",
		"Error: Error in evaluating: unable to parse: unexpected end of expression",
		"Result: 7",
		"",
		"",
	}, "\n"), out)
}

func TestShellSkipsBlankLinesAndQuits(t *testing.T) {
	out := run(t, "\n   \n1\nquit\n2\n")
	assert.Equal(t, "Result: 1\n", out)

	out = run(t, "exit\n")
	assert.Equal(t, "", out)
}

func TestShellPromptAndBanner(t *testing.T) {
	var out strings.Builder
	sh := New(strings.NewReader("1\n"), &out, WithPrompt("calc> "))
	require.NoError(t, sh.Run())

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "Welcome to the arithmetic expression evaluator.\n"))
	assert.Contains(t, s, "calc> Result: 1\ncalc> \n")
}

func TestShellShowAST(t *testing.T) {
	out := run(t, "-2^2\n", WithAST(true))
	assert.Equal(t, "AST: (^ (neg 2) 2)\nResult: 4\n\n", out)
}

func TestShellRecordsHistory(t *testing.T) {
	st := store.New(0)
	run(t, "1+1\n)\n", WithHistory(st))

	list := st.List()
	require.Len(t, list, 2)

	assert.Equal(t, ")", list[0].Expression)
	assert.Equal(t, store.EvaluationFailed, list[0].State)
	assert.Equal(t, "INVALID_OPERATOR", list[0].ErrorKind)
	assert.Equal(t, store.SourceREPL, list[0].Source)

	assert.Equal(t, "1+1", list[1].Expression)
	assert.Equal(t, store.EvaluationSucceeded, list[1].State)
	assert.Equal(t, "2", list[1].Display)
	assert.Equal(t, "(+ 1 1)", list[1].AST)
}

func TestShellLongLines(t *testing.T) {
	long := strings.Repeat("1+", 40000) + "1"
	out := run(t, long+"\n"+strings.Repeat("(", 50000)+"\n2+3\n")

	assert.Equal(t, strings.Join([]string{
		"Result: 40001",
		"Error: Invalid operator: expression nested deeper than 10000 levels at position 10000",
		"Result: 5",
		"",
		"",
	}, "\n"), out)
}

func TestShellLastLineWithoutNewline(t *testing.T) {
	out := run(t, "1\n2*4")
	assert.Equal(t, "Result: 1\nResult: 8\n\n", out)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestShellReturnsReadErrors(t *testing.T) {
	var out strings.Builder
	err := New(failingReader{}, &out, WithBanner(false)).Run()
	assert.EqualError(t, err, "tty gone")
}

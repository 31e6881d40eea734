package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcapi "github.com/lemonberrylabs/arith/pkg/api/grpc"
	"github.com/lemonberrylabs/arith/pkg/store"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ARITH_CONFIG", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEvalCommand(t *testing.T) {
	out, _, err := execute(t, "", "eval", "2*3+(4-5)+2^3/4")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestEvalCommandJoinsArgs(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--ast", "1", "+", "2", "*", "3")
	require.NoError(t, err)
	assert.Equal(t, "AST: (+ 1 (* 2 3))\n7\n", out)
}

func TestEvalCommandError(t *testing.T) {
	out, errOut, err := execute(t, "", "eval", "2+")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error: Error in evaluating: unable to parse: unexpected end of expression")
}

func TestEvalCommandLeadingMinus(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--", "-2+3")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, _, err = execute(t, "", "eval", "-2+3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arith eval -- -2+3")
}

func TestHistoryCommand(t *testing.T) {
	st := store.New(0)
	st.Evaluate("1+1", store.SourceGRPC)
	st.Evaluate(")", store.SourceGRPC)

	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	srv := grpcapi.New(st, 0)
	go srv.ServeListener(lis)
	t.Cleanup(srv.GracefulStop)

	out, _, err := execute(t, "", "history", "--server", lis.Addr().String())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "eval-2")
	assert.Contains(t, lines[0], "FAILED")
	assert.Contains(t, lines[0], "INVALID_OPERATOR")
	assert.Contains(t, lines[1], "eval-1")
	assert.Contains(t, lines[1], "SUCCEEDED")
	assert.True(t, strings.HasSuffix(lines[1], " 2"), "unexpected line %q", lines[1])
}

func TestServeCommandRejectsBadPort(t *testing.T) {
	_, _, err := execute(t, "", "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port 70000 out of range")
}

func TestREPLCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "arith.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("repl:\n  prompt: \"\"\n  banner: false\n"), 0o644))

	out, _, err := execute(t, "(2)(3)\n-2^2\n", "--config", cfg, "--ast")
	require.NoError(t, err)
	assert.Equal(t, "AST: (* 2 3)\nResult: 6\nAST: (^ (neg 2) 2)\nResult: 4\n\n", out)
}

func TestREPLCommandBadConfig(t *testing.T) {
	_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

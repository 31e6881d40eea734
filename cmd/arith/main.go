// Package main is the entry point for the arith calculator.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/arith/pkg/api"
	grpcapi "github.com/lemonberrylabs/arith/pkg/api/grpc"
	"github.com/lemonberrylabs/arith/pkg/config"
	"github.com/lemonberrylabs/arith/pkg/expr"
	"github.com/lemonberrylabs/arith/pkg/repl"
	"github.com/lemonberrylabs/arith/pkg/store"
	"github.com/lemonberrylabs/arith/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "arith",
		Short:        "Arithmetic expression evaluator",
		Long:         "Evaluates arithmetic expressions interactively, from the command line, or as an HTTP and gRPC service.",
		SilenceUsage: true,
		RunE:         runREPL,
	}
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("arith version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (env ARITH_CONFIG)")
	rootCmd.Flags().Bool("ast", false, "Print the parsed tree before each result")

	rootCmd.AddCommand(newEvalCmd(), newServeCmd(), newHistoryCmd())
	return rootCmd
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [--] EXPRESSION...",
		Short: "Evaluate a single expression and print the result",
		Long: "Evaluate a single expression and print the result. Arguments are joined with spaces.\n" +
			"An expression that starts with '-' must follow --, otherwise it is read as a flag.",
		Example: "  arith eval '2*(3+4)'\n  arith eval --ast 2^3^2\n  arith eval -- -2+3",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runEval,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w (put expressions starting with '-' after --, as in: arith eval -- -2+3)", err)
	})
	cmd.Flags().Bool("ast", false, "Print the parsed tree before the result")
	cmd.Flags().String("server", "", "Evaluate on a remote gRPC server at host:port")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, web UI and gRPC service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("load-dir", "", "Directory of *.expr files to evaluate at startup")
	cmd.Flags().Bool("access-log", false, "Log every HTTP request")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the evaluations recorded by a running server",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().String("server", "localhost:8788", "gRPC server address")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("ARITH_CONFIG")
	}
	return config.Load(path)
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	showAST := cfg.REPL.ShowAST
	if cmd.Flags().Changed("ast") {
		showAST, _ = cmd.Flags().GetBool("ast")
	}

	sh := repl.New(cmd.InOrStdin(), cmd.OutOrStdout(),
		repl.WithPrompt(cfg.REPL.Prompt),
		repl.WithAST(showAST),
		repl.WithBanner(cfg.REPL.ShowBanner()),
		repl.WithHistory(store.New(cfg.History.Limit)),
	)
	return sh.Run()
}

func runEval(cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")
	showAST, _ := cmd.Flags().GetBool("ast")
	out := cmd.OutOrStdout()

	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		return evalRemote(cmd.Context(), out, addr, line, showAST)
	}

	node, err := expr.ParseExpression(line)
	if err != nil {
		return err
	}
	if showAST {
		fmt.Fprintf(out, "AST: %s\n", node)
	}
	v, err := expr.Eval(node)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, expr.FormatResult(v))
	return nil
}

func evalRemote(ctx context.Context, out io.Writer, addr, line string, showAST bool) error {
	client, err := grpcapi.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(contextOrBackground(ctx), 10*time.Second)
	defer cancel()

	if showAST {
		tree, err := client.Parse(ctx, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "AST: %s\n", tree)
	}
	v, err := client.Evaluate(ctx, line)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, expr.FormatResult(v))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("server")
	client, err := grpcapi.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(contextOrBackground(cmd.Context()), 10*time.Second)
	defer cancel()

	items, err := client.ListEvaluations(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, item := range items {
		outcome := item["result"]
		if e, ok := item["error"].(map[string]interface{}); ok {
			outcome = e["kind"]
		}
		fmt.Fprintf(out, "%-10v %-8v %-30v %v\n", item["id"], item["state"], item["expression"], outcome)
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.Server.GRPCPort = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetString("load-dir"); v != "" {
		cfg.Server.LoadDir = v
	}
	if cmd.Flags().Changed("access-log") {
		cfg.Server.AccessLog, _ = cmd.Flags().GetBool("access-log")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.Server.Addr()
	grpcAddr := cfg.Server.GRPCAddr()

	s := store.New(cfg.History.Limit)
	server := api.New(s, api.Options{
		MaxExpressionLength: cfg.Limits.MaxExpressionLength,
		AccessLog:           cfg.Server.AccessLog,
	})

	if cfg.Server.LoadDir != "" {
		if _, err := server.LoadDir(cfg.Server.LoadDir); err != nil {
			log.Printf("Warning: failed to load expressions directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		web.New(s, cfg.Limits.MaxExpressionLength).Register(server.App())
	}()

	grpcServer := grpcapi.New(s, cfg.Limits.MaxExpressionLength)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down arith...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("arith listening on %s (history limit %d)", addr, cfg.History.Limit)
	return server.Listen(addr)
}

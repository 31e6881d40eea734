// Package api implements the REST API for evaluating expressions and browsing
// the evaluation history.
package api

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/lemonberrylabs/arith/pkg/expr"
	"github.com/lemonberrylabs/arith/pkg/store"
)

// Options tunes the API server.
type Options struct {
	// MaxExpressionLength rejects longer expressions; 0 means unlimited.
	MaxExpressionLength int
	// AccessLog enables per-request logging.
	AccessLog bool
}

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	opts  Options
}

// New creates a new API server.
func New(s *store.Store, opts Options) *Server {
	srv := &Server{
		store: s,
		opts:  opts,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if opts.AccessLog {
		app.Use(logger.New())
	}

	app.Post("/v1/evaluations", srv.createEvaluation)
	app.Get("/v1/evaluations", srv.listEvaluations)
	app.Get("/v1/evaluations/:id", srv.getEvaluation)
	app.Delete("/v1/evaluations", srv.clearEvaluations)
	app.Post("/v1/parse", srv.parse)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type expressionRequest struct {
	Expression string `json:"expression"`
}

// readExpression decodes the request body. When ok is false the error
// response has already been written and err is the result of writing it.
func (s *Server) readExpression(c *fiber.Ctx) (expression string, ok bool, err error) {
	var req expressionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", false, errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if s.opts.MaxExpressionLength > 0 && len(req.Expression) > s.opts.MaxExpressionLength {
		return "", false, errorJSON(c, 400, "INVALID_ARGUMENT",
			fmt.Sprintf("expression exceeds maximum length of %d characters", s.opts.MaxExpressionLength))
	}
	return req.Expression, true, nil
}

func (s *Server) createEvaluation(c *fiber.Ctx) error {
	expression, ok, err := s.readExpression(c)
	if !ok {
		return err
	}

	ev, err := s.store.Evaluate(expression, store.SourceHTTP)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       400,
				"message":    err.Error(),
				"status":     "INVALID_ARGUMENT",
				"reason":     ev.ErrorKind,
				"evaluation": ev.ID,
			},
		})
	}

	return c.Status(200).JSON(EvaluationToJSON(ev))
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	ev, err := s.store.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(EvaluationToJSON(ev))
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	evaluations := s.store.List()

	items := make([]fiber.Map, len(evaluations))
	for i, ev := range evaluations {
		items[i] = EvaluationToJSON(ev)
	}

	return c.JSON(fiber.Map{
		"evaluations": items,
	})
}

func (s *Server) clearEvaluations(c *fiber.Ctx) error {
	n := s.store.Clear()
	return c.JSON(fiber.Map{
		"deleted": n,
	})
}

func (s *Server) parse(c *fiber.Ctx) error {
	expression, ok, err := s.readExpression(c)
	if !ok {
		return err
	}

	node, err := expr.ParseExpression(expression)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": err.Error(),
				"status":  "INVALID_ARGUMENT",
				"reason":  expr.KindOf(err).String(),
			},
		})
	}

	return c.JSON(fiber.Map{
		"expression": expression,
		"ast":        node.String(),
		"root":       expr.NodeType(node),
		"tree":       expr.Dump(node),
	})
}

// --- Directory Loading ---

// LoadDir evaluates every *.expr file in dir. Each non-blank line that does
// not start with # is one expression; results are recorded with the batch
// source. Files that cannot be read are skipped with a warning.
func (s *Server) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading expressions directory: %w", err)
	}

	evaluated := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".expr" {
			continue
		}
		name := entry.Name()

		n, err := s.loadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}
		evaluated += n
		log.Printf("Evaluated %d expression(s) from %s", n, name)
	}

	log.Printf("Evaluated %d expression(s) from %s", evaluated, dir)
	return evaluated, nil
}

// loadFile evaluates one expressions file. Lines are read whole, so a long
// expression never aborts the rest of the file; lines over the configured
// length limit are skipped with a warning.
func (s *Server) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	reader := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		raw, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if maxLen := s.opts.MaxExpressionLength; maxLen > 0 && len(line) > maxLen {
			log.Printf("Warning: %s:%d: expression exceeds maximum length of %d characters", filepath.Base(path), lineNo, maxLen)
			continue
		}
		if _, err := s.store.Evaluate(line, store.SourceBatch); err != nil {
			var pe *expr.ParseError
			if errors.As(err, &pe) {
				log.Printf("Warning: %s:%d: %v", filepath.Base(path), lineNo, pe)
			}
		}
		n++
	}
}

// --- Helpers ---

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// EvaluationToJSON renders an evaluation resource. Non-finite results have
// no JSON number form, so "value" is only present for finite results while
// "result" always carries the display string.
func EvaluationToJSON(ev *store.Evaluation) fiber.Map {
	result := fiber.Map{
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      ev.State,
		"source":     ev.Source,
		"createTime": ev.CreateTime.Format(time.RFC3339),
	}

	if ev.AST != "" {
		result["ast"] = ev.AST
	}
	if ev.State == store.EvaluationSucceeded {
		result["result"] = ev.Display
		if ev.Finite() {
			result["value"] = ev.Result
		}
	}
	if ev.Error != "" {
		result["error"] = fiber.Map{
			"kind":    ev.ErrorKind,
			"message": ev.Error,
		}
	}

	return result
}

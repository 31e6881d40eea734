// Package store provides in-memory storage for evaluation history.
package store

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lemonberrylabs/arith/pkg/expr"
)

// EvaluationState represents the outcome of an evaluation.
type EvaluationState string

const (
	EvaluationSucceeded EvaluationState = "SUCCEEDED"
	EvaluationFailed    EvaluationState = "FAILED"
)

// Source identifies the surface an evaluation came from.
type Source string

const (
	SourceREPL  Source = "repl"
	SourceHTTP  Source = "http"
	SourceGRPC  Source = "grpc"
	SourceBatch Source = "batch"
	SourceUI    Source = "ui"
)

// Evaluation is one recorded expression and its outcome.
type Evaluation struct {
	ID         string          `json:"id"`
	Expression string          `json:"expression"`
	AST        string          `json:"ast,omitempty"`
	Result     float64         `json:"-"`
	Display    string          `json:"result,omitempty"`
	State      EvaluationState `json:"state"`
	ErrorKind  string          `json:"errorKind,omitempty"`
	Error      string          `json:"error,omitempty"`
	Source     Source          `json:"source"`
	CreateTime time.Time       `json:"createTime"`
}

// Finite reports whether the result can be represented as a JSON number.
func (e *Evaluation) Finite() bool {
	return e.State == EvaluationSucceeded && !math.IsInf(e.Result, 0) && !math.IsNaN(e.Result)
}

// Stats counts stored evaluations by state.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Store is a thread-safe, bounded, in-memory evaluation history. Once the
// limit is reached the oldest entries are dropped.
type Store struct {
	mu          sync.RWMutex
	evaluations map[string]*Evaluation
	order       []string // oldest first
	limit       int

	// Counter for generating unique IDs
	evalCounter int64
}

// New creates a new empty store keeping at most limit evaluations. A limit
// of zero or less keeps everything.
func New(limit int) *Store {
	return &Store{
		evaluations: make(map[string]*Evaluation),
		limit:       limit,
	}
}

// Evaluate runs expression through the parser and evaluator and records the
// outcome. The returned error is the evaluation failure, if any; the record
// is stored either way.
func (s *Store) Evaluate(expression string, source Source) (*Evaluation, error) {
	ev := &Evaluation{Expression: expression, Source: source}

	node, err := expr.ParseExpression(expression)
	if err == nil {
		ev.AST = node.String()
		ev.Result, err = expr.Eval(node)
	}
	if err != nil {
		ev.State = EvaluationFailed
		ev.Error = err.Error()
		ev.ErrorKind = expr.KindOf(err).String()
	} else {
		ev.State = EvaluationSucceeded
		ev.Display = expr.FormatResult(ev.Result)
	}

	return s.Record(ev), err
}

// Record assigns an ID and timestamp to ev and stores it.
func (s *Store) Record(ev *Evaluation) *Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evalCounter++
	ev.ID = fmt.Sprintf("eval-%d", s.evalCounter)
	if ev.CreateTime.IsZero() {
		ev.CreateTime = time.Now()
	}
	s.evaluations[ev.ID] = ev
	s.order = append(s.order, ev.ID)

	if s.limit > 0 {
		for len(s.order) > s.limit {
			delete(s.evaluations, s.order[0])
			s.order = s.order[1:]
		}
	}
	return ev
}

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("evaluation not found")

// Get retrieves an evaluation by ID.
func (s *Store) Get(id string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.evaluations[id]
	if !ok {
		return nil, fmt.Errorf("evaluation '%s': %w", id, ErrNotFound)
	}
	return ev, nil
}

// List returns all stored evaluations, newest first.
func (s *Store) List() []*Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Evaluation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, s.evaluations[s.order[i]])
	}
	return result
}

// Clear removes all evaluations and returns how many were removed. IDs keep
// increasing across clears.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.evaluations = make(map[string]*Evaluation)
	s.order = nil
	return n
}

// Stats returns counts of stored evaluations by state.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.order)}
	for _, ev := range s.evaluations {
		switch ev.State {
		case EvaluationSucceeded:
			st.Succeeded++
		case EvaluationFailed:
			st.Failed++
		}
	}
	return st
}

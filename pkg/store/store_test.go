package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lemonberrylabs/arith/pkg/expr"
)

func TestEvaluateRecordsSuccess(t *testing.T) {
	s := New(0)

	ev, err := s.Evaluate("2 + 3 * 4", SourceHTTP)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ID != "eval-1" {
		t.Errorf("ID = %q, want eval-1", ev.ID)
	}
	if ev.State != EvaluationSucceeded {
		t.Errorf("State = %s, want SUCCEEDED", ev.State)
	}
	if ev.Result != 14 || ev.Display != "14" {
		t.Errorf("Result = %v (%q), want 14", ev.Result, ev.Display)
	}
	if ev.AST != "(+ 2 (* 3 4))" {
		t.Errorf("AST = %q", ev.AST)
	}
	if ev.Source != SourceHTTP {
		t.Errorf("Source = %q", ev.Source)
	}
	if ev.CreateTime.IsZero() {
		t.Error("expected CreateTime to be set")
	}

	got, err := s.Get(ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != ev {
		t.Error("Get returned a different record")
	}
}

func TestEvaluateRecordsFailure(t *testing.T) {
	s := New(0)

	ev, err := s.Evaluate("(2+3", SourceREPL)
	if !errors.Is(err, expr.ErrInvalidOperator) {
		t.Fatalf("expected InvalidOperator, got %v", err)
	}
	if ev.State != EvaluationFailed {
		t.Errorf("State = %s, want FAILED", ev.State)
	}
	if ev.ErrorKind != "INVALID_OPERATOR" {
		t.Errorf("ErrorKind = %q", ev.ErrorKind)
	}
	if ev.Error != "Invalid operator: expected RightParen, got EOF" {
		t.Errorf("Error = %q", ev.Error)
	}
	if ev.AST != "" || ev.Display != "" {
		t.Errorf("expected no AST or result, got %q / %q", ev.AST, ev.Display)
	}
	if ev.Finite() {
		t.Error("failed evaluation must not be finite")
	}
}

func TestFinite(t *testing.T) {
	s := New(0)

	ev, _ := s.Evaluate("1/0", SourceHTTP)
	if ev.State != EvaluationSucceeded || ev.Display != "inf" {
		t.Fatalf("unexpected record: %+v", ev)
	}
	if ev.Finite() {
		t.Error("inf must not be finite")
	}

	ev, _ = s.Evaluate("1/4", SourceHTTP)
	if !ev.Finite() {
		t.Error("0.25 must be finite")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := New(0)
	for i := 1; i <= 3; i++ {
		if _, err := s.Evaluate(fmt.Sprint(i), SourceBatch); err != nil {
			t.Fatal(err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 evaluations, got %d", len(list))
	}
	for i, want := range []string{"3", "2", "1"} {
		if list[i].Expression != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Expression, want)
		}
	}
}

func TestLimitDropsOldest(t *testing.T) {
	s := New(2)
	for _, e := range []string{"1", "2", "3"} {
		s.Evaluate(e, SourceHTTP)
	}

	if _, err := s.Get("eval-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected eval-1 to be evicted, got %v", err)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != "eval-3" || list[1].ID != "eval-2" {
		t.Errorf("unexpected list after eviction: %+v", list)
	}
}

func TestClearAndStats(t *testing.T) {
	s := New(0)
	s.Evaluate("1+1", SourceHTTP)
	s.Evaluate("+", SourceHTTP)
	s.Evaluate("2^10", SourceHTTP)

	st := s.Stats()
	if st.Total != 3 || st.Succeeded != 2 || st.Failed != 1 {
		t.Errorf("Stats = %+v", st)
	}

	if n := s.Clear(); n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if len(s.List()) != 0 {
		t.Error("expected empty list after Clear")
	}

	ev, _ := s.Evaluate("7", SourceHTTP)
	if ev.ID != "eval-4" {
		t.Errorf("IDs must keep increasing across clears, got %s", ev.ID)
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	s := New(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Evaluate(fmt.Sprintf("%d*%d", i, j), SourceGRPC)
				s.List()
			}
		}(i)
	}
	wg.Wait()

	if st := s.Stats(); st.Total != 50 || st.Succeeded != 50 {
		t.Errorf("Stats = %+v, want 50 succeeded", st)
	}
}

package session

import (
	"bytes"
	"testing"

	"lispirito/internal/value"
	"lispirito/internal/vm"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	var out bytes.Buffer
	return New(value.ProfileHosted, vm.DefaultConfig(), &out, &bytes.Buffer{})
}

func evalOK(t *testing.T, s *Session, src string) string {
	t.Helper()
	v, err := s.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return s.Print(v)
}

func TestArithmetic(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(+ 1 2)"); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestCondFlatClauses(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(cond (#f 1) (#t 2))"); got != "2" {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestCondExhaustedReturnsEmptyList(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(cond (#f 1))"); got != "()" {
		t.Fatalf("expected (), got %s", got)
	}
}

func TestCondMultiFormConsequent(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(cond (#t (+ 1 1) (+ 2 2)))"); got != "4" {
		t.Fatalf("expected 4 (last form of implicit begin), got %s", got)
	}
}

func TestFactorialRecursion(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define fact (lambda (n) (cond ((= n 0) 1) (#t (* n (fact (- n 1)))))))"); err != nil {
		t.Fatalf("define fact: %v", err)
	}
	if got := evalOK(t, s, "(fact 5)"); got != "120" {
		t.Fatalf("expected 120, got %s", got)
	}
}

func TestLambdaAndCons(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define pair (lambda (a b) (cons a b)))"); err != nil {
		t.Fatalf("define pair: %v", err)
	}
	got := evalOK(t, s, "(pair 1 2)")
	if got != "(1 . 2)" && got != "(1 2)" {
		t.Fatalf("unexpected pair result %s", got)
	}
}

func TestMacroIf(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(load 'if)"); err != nil {
		t.Fatalf("load if: %v", err)
	}
	if got := evalOK(t, s, "(if #t 1 2)"); got != "1" {
		t.Fatalf("expected 1, got %s", got)
	}
	if got := evalOK(t, s, "(if #f 1 2)"); got != "2" {
		t.Fatalf("expected 2, got %s", got)
	}
}

// TestTailCallDoesNotOverflow exercises a deep tail-recursive count,
// confirming the trampoline folds cond's matched consequent and the
// closure body's last form into the same Go stack frame instead of
// growing vm.depth per call.
func TestTailCallDoesNotOverflow(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define count (lambda (n) (cond ((= n 0) 'done) (#t (count (- n 1))))))"); err != nil {
		t.Fatalf("define count: %v", err)
	}
	if got := evalOK(t, s, "(count 5000)"); got != "done" {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestConsChainBuildsList(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(cons 1 (cons 2 (cons 3 (quote ()))))"); got != "(1 2 3)" {
		t.Fatalf("expected (1 2 3), got %s", got)
	}
}

func TestEqStructural(t *testing.T) {
	s := newTestSession(t)
	got := evalOK(t, s, "(eq? (cons 1 (cons 2 (quote ()))) (cons 1 (cons 2 (quote ()))))")
	if got != "#t" {
		t.Fatalf("expected #t for structurally equal lists, got %s", got)
	}
}

func TestEvalStackOverflowReported(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define deep (lambda (n) (+ 1 (deep (+ n 1)))))"); err != nil {
		t.Fatalf("define deep: %v", err)
	}
	_, err := s.Eval("(deep 0)")
	if err == nil {
		t.Fatal("expected a stack-overflow error for unbounded non-tail recursion")
	}
}

func TestVariadicRestParameter(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define pack (lambda (. items) items))"); err != nil {
		t.Fatalf("define pack: %v", err)
	}
	if got := evalOK(t, s, "(pack 1 2 3)"); got != "(1 2 3)" {
		t.Fatalf("expected (1 2 3), got %s", got)
	}
}

func TestApplyMatchesDirectCall(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(define add (lambda (a b) (+ a b)))"); err != nil {
		t.Fatalf("define add: %v", err)
	}
	direct := evalOK(t, s, "(add 1 2)")
	applied := evalOK(t, s, "(apply add (quote (1 2)))")
	if direct != applied {
		t.Fatalf("expected apply to match direct call: %s vs %s", direct, applied)
	}
}

func TestAndOrIdentitiesAndShortCircuit(t *testing.T) {
	s := newTestSession(t)
	if got := evalOK(t, s, "(and)"); got != "#t" {
		t.Fatalf("expected #t for (and), got %s", got)
	}
	if got := evalOK(t, s, "(or)"); got != "#f" {
		t.Fatalf("expected #f for (or), got %s", got)
	}
	if got := evalOK(t, s, "(and #f (car (quote ())))"); got != "#f" {
		t.Fatalf("expected and to short-circuit on the first #f, got %s", got)
	}
	if got := evalOK(t, s, "(or #t (car (quote ())))"); got != "#t" {
		t.Fatalf("expected or to short-circuit on the first #t, got %s", got)
	}
}

func TestSweepReclaimsGarbageList(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval("(cons 1 (cons 2 (cons 3 (quote ()))))"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	// The result is not retained by any root after the next top-level
	// input replaces Session.Output, so a sweep should be able to
	// reclaim it once nothing else points at it.
	if _, err := s.Eval("42"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	result := s.Sweep()
	if result.ValuesReclaimed == 0 || result.BoxesReclaimed == 0 {
		t.Fatalf("expected the unreachable list to be reclaimed, got %+v", result)
	}
}

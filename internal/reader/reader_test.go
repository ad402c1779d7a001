package reader

import (
	"testing"

	"lispirito/internal/value"
)

func parseOne(t *testing.T, reg *value.Registry, src string) *value.VHandle {
	t.Helper()
	v, err := New(reg).Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return v
}

func TestParseAtoms(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)

	if got := parseOne(t, reg, "#t").Get(); !got.Bool {
		t.Fatal("expected #t to parse as true")
	}
	if got := parseOne(t, reg, "42").Get(); got.Kind != value.KindInteger || got.Int != 42 {
		t.Fatalf("expected integer 42, got %+v", got)
	}
	if got := parseOne(t, reg, "3.5").Get(); got.Kind != value.KindReal {
		t.Fatalf("expected a real, got %+v", got)
	}
	if got := parseOne(t, reg, `"hello"`).Get(); got.Kind != value.KindString || got.Sym != "hello" {
		t.Fatalf("expected string hello, got %+v", got)
	}
	if got := parseOne(t, reg, `"hello world"`).Get(); got.Kind != value.KindString || got.Sym != "hello world" {
		t.Fatalf("expected string with embedded space, got %+v", got)
	}
	if got := parseOne(t, reg, `#\a`).Get(); got.Kind != value.KindChar || got.Ch != 'a' {
		t.Fatalf("expected char a, got %+v", got)
	}
	if got := parseOne(t, reg, "foo").Get(); got.Kind != value.KindSymbol || got.Sym != "foo" {
		t.Fatalf("expected symbol foo, got %+v", got)
	}
	if got := parseOne(t, reg, "+").Get(); got.Kind != value.KindOperator {
		t.Fatalf("expected + to classify as an operator, got %+v", got)
	}
}

func TestParseCaseFolds(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	got := parseOne(t, reg, "FOO").Get()
	if got.Sym != "foo" {
		t.Fatalf("expected case-folded symbol foo, got %q", got.Sym)
	}
}

func TestParseList(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	v := parseOne(t, reg, "(+ 1 2)")

	if reg.Length(v) != 3 {
		t.Fatalf("expected 3 items, got %d", reg.Length(v))
	}
	if got := reg.Car(v).Get(); got.Kind != value.KindOperator {
		t.Fatalf("expected head to be an operator, got %+v", got)
	}
}

func TestParseQuoteSugar(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	v := parseOne(t, reg, "'x")

	if reg.Length(v) != 2 {
		t.Fatalf("expected (quote x) to have 2 items, got %d", reg.Length(v))
	}
	second := reg.Car(reg.Cdr(v)).Get()
	if second.Kind != value.KindSymbol || second.Sym != "x" {
		t.Fatalf("expected quoted x, got %+v", second)
	}
}

func TestParseNestedLists(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	v := parseOne(t, reg, "(1 (2 3) 4)")

	if reg.Length(v) != 3 {
		t.Fatalf("expected 3 top-level items, got %d", reg.Length(v))
	}
	middle := reg.Car(reg.Cdr(v))
	if reg.Length(middle) != 2 {
		t.Fatalf("expected nested list length 2, got %d", reg.Length(middle))
	}
}

func TestParseUnmatchedCloseIsError(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	if _, err := New(reg).Parse(")"); err != ErrUnmatchedClose {
		t.Fatalf("expected ErrUnmatchedClose, got %v", err)
	}
}

func TestParseUnterminatedListIsError(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	if _, err := New(reg).Parse("(+ 1 2"); err != ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	reg := value.NewRegistry(value.ProfileHosted)
	cases := []string{"42", "3.5", "foo", `"hello"`, "(1 2 3)", "#t", "#f"}

	for _, src := range cases {
		v := parseOne(t, reg, src)
		printed := reg.Print(v)

		reparsed, err := New(reg).Parse(printed)
		if err != nil {
			t.Fatalf("reparsing %q (printed from %q): %v", printed, src, err)
		}
		if reg.Print(reparsed) != printed {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", src, printed, reg.Print(reparsed))
		}
	}
}

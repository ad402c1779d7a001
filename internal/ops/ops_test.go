package ops

import "testing"

func TestLookupAndByIndexRoundTrip(t *testing.T) {
	for _, name := range []string{"quote", "cons", "define", "apply", "lambda"} {
		idx, ok := Lookup(name)
		if !ok {
			t.Fatalf("expected %q to be a known operator", name)
		}
		def, ok := ByIndex(idx)
		if !ok || def.Name != name {
			t.Fatalf("expected ByIndex(%d) to return %q, got %+v", idx, name, def)
		}
	}
}

func TestLookupUnknownOperator(t *testing.T) {
	if _, ok := Lookup("not-a-real-operator"); ok {
		t.Fatal("expected lookup of an unknown name to fail")
	}
}

func TestFixedArityMatchesSpecGroups(t *testing.T) {
	cases := []struct {
		name string
		n    int
	}{
		{"car", 1}, {"cons", 2}, {"subst", 3}, {"newline", 0},
	}
	for _, c := range cases {
		idx, ok := Lookup(c.name)
		if !ok {
			t.Fatalf("missing operator %q", c.name)
		}
		def, _ := ByIndex(idx)
		n, ok := FixedArity(def.Mode)
		if !ok || n != c.n {
			t.Fatalf("expected %q arity %d, got %d (ok=%v)", c.name, c.n, n, ok)
		}
	}
}

func TestSpecialFormsHaveNoFixedArity(t *testing.T) {
	for _, name := range []string{"quote", "cond", "and", "begin", "define", "apply", "lambda"} {
		idx, _ := Lookup(name)
		def, _ := ByIndex(idx)
		if _, ok := FixedArity(def.Mode); ok {
			t.Fatalf("expected %q to have no fixed arity, mode=%v", name, def.Mode)
		}
	}
}

package value

import "testing"

func TestConsCarCdr(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	a := r.NewInteger(1)
	b := r.NewInteger(2)
	lst := r.Cons(a, r.Cons(b, r.Empty.Retain()))

	if got := r.Car(lst).Get(); got.Int != 1 {
		t.Fatalf("expected car 1, got %v", got)
	}

	rest := r.Cdr(lst)
	if got := r.Car(rest).Get(); got.Int != 2 {
		t.Fatalf("expected cadr 2, got %v", got)
	}

	emptyRest := r.Cdr(rest)
	if v := emptyRest.Get(); v.Head != nil {
		t.Fatal("expected cddr to be the empty list")
	}
}

func TestConsSharesListSpine(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	tail := r.Cons(r.NewInteger(2), r.Empty.Retain())
	whole := r.Cons(r.NewInteger(1), tail)

	if r.Length(whole) != 2 {
		t.Fatalf("expected length 2, got %d", r.Length(whole))
	}
	if got := r.Car(r.Cdr(whole)).Get(); got.Int != 2 {
		t.Fatalf("expected shared tail item 2, got %v", got)
	}
}

func TestEqualAtomsAndListsByStructure(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	s1 := r.NewSymbol("foo")
	s2 := r.NewSymbol("foo")
	if !r.Equal(s1, s2) {
		t.Fatal("expected equal symbols with same content to compare equal")
	}

	l1 := r.Cons(r.NewInteger(1), r.Empty.Retain())
	l2 := r.Cons(r.NewInteger(1), r.Empty.Retain())
	if !r.Equal(l1, l2) {
		t.Fatal("expected distinct list values with the same elements to compare equal (structural)")
	}
	if !r.Equal(l1, l1) {
		t.Fatal("expected a list to be equal to itself")
	}

	l3 := r.Cons(r.NewInteger(1), r.Cons(r.NewInteger(2), r.Empty.Retain()))
	l4 := r.Cons(r.NewInteger(1), r.Empty.Retain())
	if r.Equal(l3, l4) {
		t.Fatal("expected lists of different length to compare unequal")
	}
}

func TestEqualBooleans(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	if !r.Equal(r.True, r.True) {
		t.Fatal("expected #t to equal #t")
	}
	if r.Equal(r.True, r.False) {
		t.Fatal("expected #t and #f to compare unequal")
	}
}

func TestAssocReplaceFindsAndReplaces(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	pair := r.Cons(r.NewSymbol("x"), r.Cons(r.NewInteger(10), r.Empty.Retain()))
	env := r.Cons(pair, r.Empty.Retain())

	found := r.AssocReplace(r.NewSymbol("x"), env, nil)
	if found == nil || found.Get().Int != 10 {
		t.Fatalf("expected to find value 10, got %v", found)
	}

	old := r.AssocReplace(r.NewSymbol("x"), env, r.NewInteger(99))
	if old == nil || old.Get().Int != 10 {
		t.Fatalf("expected replace to return the old value 10, got %v", old)
	}

	updated := r.AssocReplace(r.NewSymbol("x"), env, nil)
	if updated == nil || updated.Get().Int != 99 {
		t.Fatalf("expected updated value 99, got %v", updated)
	}

	missing := r.AssocReplace(r.NewSymbol("y"), env, nil)
	if missing != nil {
		t.Fatalf("expected nil for a missing key, got %v", missing)
	}
}

func TestSubstReplacesFreeOccurrences(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	expr := r.Cons(r.NewSymbol("x"), r.Cons(r.NewSymbol("y"), r.Empty.Retain()))
	result := r.Subst(r.NewSymbol("x"), r.NewInteger(42), expr)

	if got := r.Car(result).Get(); got.Int != 42 {
		t.Fatalf("expected substituted first item 42, got %v", got)
	}
	if got := r.Car(r.Cdr(result)).Get(); got.Sym != "y" {
		t.Fatalf("expected untouched second item y, got %v", got)
	}
}

func TestSubstNoOpWhenSymbolAbsent(t *testing.T) {
	r := NewRegistry(ProfileHosted)

	expr := r.Cons(r.NewSymbol("a"), r.Cons(r.NewSymbol("b"), r.Empty.Retain()))
	result := r.Subst(r.NewSymbol("z"), r.NewInteger(1), expr)

	if got := r.Car(result).Get(); got.Sym != "a" {
		t.Fatalf("expected first item unchanged a, got %v", got)
	}
	if got := r.Car(r.Cdr(result)).Get(); got.Sym != "b" {
		t.Fatalf("expected second item unchanged b, got %v", got)
	}
}

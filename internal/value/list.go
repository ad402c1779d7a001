package value

// Cons builds a new list value whose head item is first. When second is
// itself a list its box chain is shared, not copied, matching
// make_cons's aliasing of second->head; otherwise second is wrapped in a
// single trailing box.
func (r *Registry) Cons(first, second *VHandle) *VHandle {
	item := first.Retain()

	var next *BHandle
	if sv := second.Get(); sv != nil && sv.Kind == KindList {
		next = sv.Head.Retain()
	} else {
		next = r.NewBox(second.Retain(), nil)
	}

	box := r.NewBox(item, next)
	return r.NewList(box)
}

// Car returns the first item of list. Callers must not pass the empty
// list; the evaluator checks arity/shape before reaching this far.
func (r *Registry) Car(list *VHandle) *VHandle {
	v := list.Get()
	if v == nil || v.Head == nil {
		return nil
	}
	b := v.Head.Get()
	return b.Item.Retain()
}

// Cdr returns the rest of list, sharing the tail of its box chain.
func (r *Registry) Cdr(list *VHandle) *VHandle {
	v := list.Get()
	if v == nil || v.Head == nil {
		return r.Empty.Retain()
	}
	b := v.Head.Get()
	if b.Next == nil {
		return r.Empty.Retain()
	}
	return r.NewList(b.Next.Retain())
}

// Equal mirrors LispNode::operator==: atoms compare by tag+payload, with
// the boolean singletons short-circuiting by pointer identity first;
// lists compare head/tail recursively rather than by identity, per the
// original's structural comparison.
func (r *Registry) Equal(a, b *VHandle) bool {
	if a == b {
		return true
	}
	av, bv := a.Get(), b.Get()
	if av == nil || bv == nil {
		return av == bv
	}
	if av.Kind != bv.Kind {
		return false
	}
	switch av.Kind {
	case KindSymbol, KindString:
		return av.Sym == bv.Sym
	case KindBoolean:
		return av.Bool == bv.Bool
	case KindChar:
		return av.Ch == bv.Ch
	case KindOperator:
		return av.OpIndex == bv.OpIndex
	case KindInteger:
		return av.Int == bv.Int
	case KindReal:
		return av.Real.Cmp(bv.Real) == 0
	case KindList:
		return r.listEqual(av.Head, bv.Head)
	default:
		return false
	}
}

// listEqual walks two box chains in lockstep, comparing items
// recursively. Two nil heads (both the empty list) are equal.
func (r *Registry) listEqual(a, b *BHandle) bool {
	for {
		if a == nil || b == nil {
			return a == b
		}
		ab, bb := a.Get(), b.Get()
		if !r.Equal(ab.Item, bb.Item) {
			return false
		}
		a, b = ab.Next, bb.Next
	}
}

// AssocReplace walks an association list of (key value) pairs looking
// for a key equal to term. When found it returns the value as it stood
// before any replacement; if replacement is non-nil the pair's value is
// updated in place first, matching make_query_optional_replace exactly
// (the caller gets the old value, the list keeps the new one). Returns
// nil if term is not found.
func (r *Registry) AssocReplace(term, list, replacement *VHandle) *VHandle {
	v := list.Get()
	if v == nil {
		return nil
	}

	for bh := v.Head; bh != nil; {
		b := bh.Get()
		if b == nil {
			break
		}
		pair := b.Item.Get()
		keyBox := pair.Head.Get()
		key := keyBox.Item
		valueBox := keyBox.Next.Get()

		if r.Equal(term, key) {
			result := valueBox.Item.Retain()
			if replacement != nil {
				old := valueBox.Item
				valueBox.Item = replacement.Retain()
				old.Release(r.DelQueue)
			}
			return result
		}

		bh = b.Next
	}

	return nil
}

// Subst replaces every occurrence of oldSym with newSym in expr,
// rebuilding the list spine fresh (atoms are never mutated in place).
func (r *Registry) Subst(oldSym, newSym, expr *VHandle) *VHandle {
	ev := expr.Get()
	if ev == nil || ev.IsAtom() {
		if r.Equal(expr, oldSym) {
			return newSym.Retain()
		}
		return expr.Retain()
	}

	var head, tail *BHandle
	for bh := ev.Head; bh != nil; {
		b := bh.Get()
		substituted := r.Subst(oldSym, newSym, b.Item)
		nb := r.NewBox(substituted, nil)

		if tail == nil {
			head = nb
		} else {
			tail.Get().Next = nb
		}
		tail = nb

		bh = b.Next
	}

	return r.NewList(head)
}

// Length returns the number of items in a proper list, the way an
// arity check walks the box chain before dispatching a procedure call.
func (r *Registry) Length(list *VHandle) int {
	v := list.Get()
	if v == nil {
		return 0
	}
	n := 0
	for bh := v.Head; bh != nil; {
		b := bh.Get()
		if b == nil {
			break
		}
		n++
		bh = b.Next
	}
	return n
}

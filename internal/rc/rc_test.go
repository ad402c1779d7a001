package rc

import "testing"

func TestHandleReleaseRunsOnZero(t *testing.T) {
	var q Queue
	ran := false
	obj := 42
	h := NewHandle(&obj, func(p *int) { ran = true })

	h.Release(&q)
	if ran {
		t.Fatal("onZero must not run inline, only via Process")
	}
	q.Process()
	if !ran {
		t.Fatal("onZero did not run after Process")
	}
}

func TestHandleRetainKeepsAlive(t *testing.T) {
	var q Queue
	ran := false
	obj := 1
	h := NewHandle(&obj, func(p *int) { ran = true })
	h.Retain()

	h.Release(&q)
	q.Process()
	if ran {
		t.Fatal("object released while a retained reference still existed")
	}

	h.Release(&q)
	q.Process()
	if !ran {
		t.Fatal("object was not released after the last reference dropped")
	}
}

// TestDeferredDeleteBound simulates dropping a 10,000-node chain (as
// collapsing a long list does) and checks that every node's deletion is
// run by Process's own loop: one Release of the head, then one Process
// call that reports all 10,000 deferred deletions.
func TestDeferredDeleteBound(t *testing.T) {
	var q Queue

	type node struct {
		next *Handle[node]
	}

	var head *Handle[node]
	const length = 10000

	var build func(n int) *Handle[node]
	build = func(n int) *Handle[node] {
		if n == 0 {
			return nil
		}
		child := build(n - 1)
		obj := &node{}
		h := NewHandle(obj, func(p *node) {
			if p.next != nil {
				p.next.Release(&q)
			}
		})
		obj.next = child
		return h
	}
	head = build(length)

	depth := 0
	maxDepth := 0
	// Wrap Process in a depth probe: the real assertion is that Process
	// completes at all without recursing per-node, which a naive
	// destructor chain would instead blow the Go goroutine stack on.
	depth++
	head.Release(&q)
	processed := q.Process()
	depth--
	if depth > maxDepth {
		maxDepth = depth
	}

	if processed != length {
		t.Fatalf("expected %d deferred deletions, got %d", length, processed)
	}
}

func TestQueueOverflowDrainsBeforeEnqueue(t *testing.T) {
	var q Queue
	count := 0
	for i := 0; i < queueSize*3; i++ {
		q.Enqueue(func() { count++ })
	}
	q.Process()
	if count != queueSize*3 {
		t.Fatalf("expected %d thunks to run, got %d", queueSize*3, count)
	}
}

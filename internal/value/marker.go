package value

import "lispirito/internal/heap"

// Marker drives the mark phase of mark-and-sweep: recursive structural
// traversal that marks a list's value, walks its box chain, and
// recursively marks each item — exactly the walk described for the GC
// driver, so cyclic structures (an environment holding a closure that
// captures that same environment) terminate instead of looping forever.
type Marker struct {
	values *heap.Pool[Value]
	boxes  *heap.Pool[Box]
}

// MarkValue marks vh and, if it is a list, its entire spine.
func (m *Marker) MarkValue(vh *VHandle) {
	ptr := vh.Get()
	if ptr == nil {
		return
	}
	if m.values.GetMark(ptr.id) {
		return
	}
	m.values.SetMark(ptr.id)

	if ptr.Kind != KindList {
		return
	}

	for bh := ptr.Head; bh != nil; {
		bptr := bh.Get()
		if bptr == nil {
			break
		}
		if m.boxes.GetMark(bptr.id) {
			break
		}
		m.boxes.SetMark(bptr.id)
		m.MarkValue(bptr.Item)
		bh = bptr.Next
	}
}

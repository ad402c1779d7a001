// Package value implements the core's tagged value representation and its
// list spine, grounded on LispNode/Box from the original implementation
// (original_source/LispNode.h, LispNode.cpp).
package value

import (
	"lispirito/internal/heap"
	"lispirito/internal/rc"
)

// Kind is the tag of a Value's variant.
type Kind uint8

const (
	KindSymbol Kind = iota
	KindBoolean
	KindString
	KindChar
	KindOperator
	KindInteger
	KindReal
	KindData
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindOperator:
		return "operator"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindData:
		return "data"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// VHandle and BHandle name the two reference-counted handle
// instantiations the core passes around: one per Value, one per Box.
type VHandle = rc.Handle[Value]
type BHandle = rc.Handle[Box]

// Value is the tagged union. Exactly one payload field is meaningful,
// selected by Kind.
type Value struct {
	Kind    Kind
	Sym     string  // KindSymbol, KindString (owned string payload)
	Bool    bool    // KindBoolean (also identifies which singleton)
	Ch      rune    // KindChar
	OpIndex int     // KindOperator
	Int     int64   // KindInteger
	Real    Real    // KindReal
	Data    []byte  // KindData
	Head    *BHandle // KindList: head of the spine, nil means empty

	id heap.SlotID // this value's own slot, for mark-and-sweep
}

// Box is a singly linked list node: the only list representation. Item
// and Next are owning handles.
type Box struct {
	Item *VHandle
	Next *BHandle

	id heap.SlotID // this box's own slot, for mark-and-sweep
}

func (v *Value) IsAtom() bool { return v.Kind != KindList }
func (v *Value) IsList() bool { return v.Kind == KindList }
func (v *Value) IsSymbol() bool { return v.Kind == KindSymbol }
func (v *Value) IsBoolean() bool { return v.Kind == KindBoolean }
func (v *Value) IsString() bool { return v.Kind == KindString }
func (v *Value) IsChar() bool { return v.Kind == KindChar }
func (v *Value) IsOperator() bool { return v.Kind == KindOperator }
func (v *Value) IsInteger() bool { return v.Kind == KindInteger }
func (v *Value) IsRealNumber() bool { return v.Kind == KindReal }
func (v *Value) IsNumeric() bool { return v.Kind == KindInteger || v.Kind == KindReal }
func (v *Value) IsData() bool { return v.Kind == KindData }

// Registry is the process-wide (here, per-VM) pair of slab pools plus the
// deferred-deletion queue they share, matching §5's description of the
// pools and the queue as process-wide singletons under a single-threaded
// model.
type Registry struct {
	Values   *heap.Pool[Value]
	Boxes    *heap.Pool[Box]
	DelQueue *rc.Queue

	True  *VHandle
	False *VHandle
	Empty *VHandle

	Profile Profile
}

// NewRegistry builds a fresh registry along with the three canonical
// singletons (#t, #f, and the empty list) that every environment and
// GC root set is anchored on.
func NewRegistry(profile Profile) *Registry {
	r := &Registry{
		Values:   heap.NewPool[Value]("value"),
		Boxes:    heap.NewPool[Box]("box"),
		DelQueue: &rc.Queue{},
		Profile:  profile,
	}
	r.True = r.NewAtom(Value{Kind: KindBoolean, Bool: true})
	r.False = r.NewAtom(Value{Kind: KindBoolean, Bool: false})
	r.Empty = r.NewAtom(Value{Kind: KindList, Head: nil})
	return r
}

// NewAtom allocates v (any non-list kind is fine here too; List(None) is
// how the empty-list singleton is built) into the Value pool and wraps it
// in a handle whose onZero releases any list head it owns and returns the
// slot to the pool.
func (r *Registry) NewAtom(v Value) *VHandle {
	id := r.Values.Allocate(v)
	ptr := r.Values.Get(id)
	ptr.id = id
	return rc.NewHandle(ptr, func(vv *Value) {
		if vv.Kind == KindList && vv.Head != nil {
			vv.Head.Release(r.DelQueue)
		}
		r.Values.Deallocate(id)
	})
}

// NewBox allocates one spine link owning item and next.
func (r *Registry) NewBox(item *VHandle, next *BHandle) *BHandle {
	id := r.Boxes.Allocate(Box{Item: item, Next: next})
	ptr := r.Boxes.Get(id)
	ptr.id = id
	return rc.NewHandle(ptr, func(b *Box) {
		b.Item.Release(r.DelQueue)
		if b.Next != nil {
			b.Next.Release(r.DelQueue)
		}
		r.Boxes.Deallocate(id)
	})
}

func (r *Registry) Bool(v bool) *VHandle {
	if v {
		return r.True
	}
	return r.False
}

func (r *Registry) NewSymbol(s string) *VHandle {
	return r.NewAtom(Value{Kind: KindSymbol, Sym: s})
}

func (r *Registry) NewString(s string) *VHandle {
	return r.NewAtom(Value{Kind: KindString, Sym: s})
}

func (r *Registry) NewChar(c rune) *VHandle {
	return r.NewAtom(Value{Kind: KindChar, Ch: c})
}

func (r *Registry) NewOperator(index int) *VHandle {
	return r.NewAtom(Value{Kind: KindOperator, OpIndex: index})
}

func (r *Registry) NewInteger(i int64) *VHandle {
	return r.NewAtom(Value{Kind: KindInteger, Int: i})
}

func (r *Registry) NewRealValue(real Real) *VHandle {
	return r.NewAtom(Value{Kind: KindReal, Real: real})
}

func (r *Registry) NewData(b []byte) *VHandle {
	return r.NewAtom(Value{Kind: KindData, Data: b})
}

// NewList wraps head (possibly nil) as a List value. A nil head should
// normally be represented by r.Empty instead; NewList exists for the rare
// case a fresh distinguishable empty-list value is wanted.
func (r *Registry) NewList(head *BHandle) *VHandle {
	return r.NewAtom(Value{Kind: KindList, Head: head})
}

// Sweep runs one mark-and-sweep pass over both pools with roots supplied
// by the caller (the VM knows the live stack contents; the registry does
// not). See internal/gc for the driver that computes root sets.
func (r *Registry) Sweep(markRoots func(mark *Marker)) (valuesReclaimed, boxesReclaimed int) {
	r.Values.SetupMarks()
	r.Boxes.SetupMarks()

	m := &Marker{values: r.Values, boxes: r.Boxes}
	markRoots(m)

	valuesReclaimed = r.Values.Sweep(func(Value) {})
	boxesReclaimed = r.Boxes.Sweep(func(Box) {})
	return
}

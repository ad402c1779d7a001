package heap

import "testing"

func TestAllocateDeallocateReusesSlot(t *testing.T) {
	p := NewPool[int]("test")

	id := p.Allocate(7)
	if got := p.Get(id); got == nil || *got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}

	p.Deallocate(id)
	if p.Get(id) != nil {
		t.Fatal("expected slot to be unreachable after Deallocate")
	}

	id2 := p.Allocate(9)
	if got := p.Get(id2); got == nil || *got != 9 {
		t.Fatalf("expected reused slot to hold 9, got %v", got)
	}
}

func TestDeallocateIsIdempotent(t *testing.T) {
	p := NewPool[int]("test")
	id := p.Allocate(1)
	p.Deallocate(id)
	p.Deallocate(id) // must not panic or corrupt the freelist
	stats := p.Stats()
	if stats.FreeSlots != chunkCapacity {
		t.Fatalf("expected %d free slots, got %d", chunkCapacity, stats.FreeSlots)
	}
}

func TestSweepReclaimsUnmarked(t *testing.T) {
	p := NewPool[string]("test")
	a := p.Allocate("keep")
	b := p.Allocate("drop")

	p.SetupMarks()
	p.SetMark(a)

	var destructed []string
	reclaimed := p.Sweep(func(v string) { destructed = append(destructed, v) })

	if reclaimed != 1 || len(destructed) != 1 || destructed[0] != "drop" {
		t.Fatalf("expected exactly 'drop' reclaimed, got %v (reclaimed=%d)", destructed, reclaimed)
	}
	if p.Get(a) == nil {
		t.Fatal("marked slot should survive sweep")
	}
	if p.Get(b) != nil {
		t.Fatal("unmarked slot should not survive sweep")
	}
}

func TestAllocateGrowsAcrossChunks(t *testing.T) {
	p := NewPool[int]("test")
	ids := make([]SlotID, 0, chunkCapacity+5)
	for i := 0; i < chunkCapacity+5; i++ {
		ids = append(ids, p.Allocate(i))
	}
	stats := p.Stats()
	if stats.Chunks != 2 {
		t.Fatalf("expected 2 chunks after overflowing one, got %d", stats.Chunks)
	}
	if got := p.Get(ids[chunkCapacity]); got == nil || *got != chunkCapacity {
		t.Fatalf("expected slot in second chunk to hold %d, got %v", chunkCapacity, got)
	}
}

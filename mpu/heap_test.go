package mpu

import (
	"testing"

	"rtoskernel"
)

func TestAllocZeroReturnsNull(t *testing.T) {
	h := NewHeap()
	if _, ok := h.Alloc(0, 1); ok {
		t.Fatal("Alloc(0) should fail")
	}
}

func TestAllocTooLargeReturnsNull(t *testing.T) {
	h := NewHeap()
	if _, ok := h.Alloc(MaxRequestBytes+1, 1); ok {
		t.Fatal("Alloc(>8KiB) should fail")
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	sizes := []int{1, 256, 512, 513, 1024, 1536, 2048, 4096, 8192}
	for _, sz := range sizes {
		h := NewHeap()
		before := h.StateWord()
		base, ok := h.Alloc(sz, 1)
		if !ok {
			t.Fatalf("Alloc(%d) failed", sz)
		}
		if !h.Free(base) {
			t.Fatalf("Free(%d) for size %d failed", base, sz)
		}
		if after := h.StateWord(); after != before {
			t.Errorf("size %d: state word not restored: before=%#x after=%#x", sz, before, after)
		}
	}
}

func TestThreeMixedAllocationsUseAllBoundaries(t *testing.T) {
	h := NewHeap()
	var bases []int
	for i := 0; i < 3; i++ {
		base, ok := h.Alloc(1536, 1)
		if !ok {
			t.Fatalf("mixed alloc %d failed", i)
		}
		bases = append(bases, base)
	}
	wantBases := map[int]bool{}
	for _, b := range boundaries {
		wantBases[b.base] = true
	}
	for _, b := range bases {
		if !wantBases[b] {
			t.Errorf("base %d is not one of the three boundary offsets", b)
		}
	}
	if got := h.StateWord() >> 56; got != 3 {
		t.Errorf("countMixed = %d, want 3", got)
	}
}

func TestFourthMixedAllocationFallsBackToThree512Blocks(t *testing.T) {
	h := NewHeap()
	for i := 0; i < 3; i++ {
		if _, ok := h.Alloc(1536, 1); !ok {
			t.Fatalf("setup alloc %d failed", i)
		}
	}
	base, ok := h.Alloc(1536, 2)
	if !ok {
		t.Fatal("fourth 1536B allocation should fall back, not fail")
	}
	subs := h.Subregions(base)
	if len(subs) != 3 {
		t.Fatalf("fallback allocation occupies %d subregions, want 3", len(subs))
	}
	for _, s := range subs {
		if subregionTable[s].size != Granularity512 {
			t.Errorf("fallback subregion %d has granularity %d, want 512", s, subregionTable[s].size)
		}
	}
}

func TestFreeUnknownBaseIsNoop(t *testing.T) {
	h := NewHeap()
	if h.Free(12345) {
		t.Fatal("Free of an address never allocated should report false")
	}
}

func TestSizeClassCountersMatchLedger(t *testing.T) {
	h := NewHeap()
	h.Alloc(512, 1)
	h.Alloc(1024, 1)
	h.Alloc(1536, 1)

	var n512, n1024, nMixed int
	for _, a := range h.Ledger() {
		n512 += int(a.d512)
		n1024 += int(a.d1024)
		nMixed += int(a.dMixed)
	}
	w := h.StateWord()
	gotC512 := uint8(w >> 40)
	gotC1024 := uint8(w >> 48)
	gotCMixed := uint8(w >> 56)
	if int(gotC512) != n512 || int(gotC1024) != n1024 || int(gotCMixed) != nMixed {
		t.Errorf("counters %d/%d/%d do not match ledger deltas %d/%d/%d",
			gotC512, gotC1024, gotCMixed, n512, n1024, nMixed)
	}
}

func TestFreeAllOwnedBy(t *testing.T) {
	h := NewHeap()
	h.Alloc(512, 7)
	h.Alloc(1024, 7)
	h.Alloc(512, 9)

	if n := h.FreeAllOwnedBy(7); n != 2 {
		t.Fatalf("FreeAllOwnedBy(7) freed %d blocks, want 2", n)
	}
	if len(h.Ledger()) != 1 {
		t.Fatalf("ledger has %d entries after FreeAllOwnedBy, want 1", len(h.Ledger()))
	}
}

func TestDisjointAllocations(t *testing.T) {
	h := NewHeap()
	seen := map[int]bool{}
	for i := 0; i < 8; i++ {
		base, ok := h.Alloc(512, rtoskernel.Pid(i))
		if !ok {
			break
		}
		for _, s := range h.Subregions(base) {
			if seen[s] {
				t.Fatalf("subregion %d double-allocated", s)
			}
			seen[s] = true
		}
	}
}

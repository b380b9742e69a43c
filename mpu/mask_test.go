package mpu

import "testing"

func TestDenyAllMaskDeniesEverything(t *testing.T) {
	h := NewHeap()
	m := DenyAllMask()
	if h.Allows(m, 0, HeapSize) {
		t.Fatal("deny-all mask should not allow any access")
	}
}

func TestAddWindowExposesOnlyOwnAllocation(t *testing.T) {
	h := NewHeap()
	mine, ok := h.Alloc(1024, 1)
	if !ok {
		t.Fatal("setup alloc failed")
	}
	other, ok := h.Alloc(1024, 2)
	if !ok {
		t.Fatal("setup alloc failed")
	}

	m := DenyAllMask()
	m = h.AddWindow(m, mine)

	if !h.Allows(m, mine, 1024) {
		t.Error("mask should allow the task's own block")
	}
	if h.Allows(m, other, 1024) {
		t.Error("mask should not allow another task's block")
	}
}

func TestRegionBytesRoundTrip(t *testing.T) {
	h := NewHeap()
	base, _ := h.Alloc(1536, 1) // spans two regions
	m := h.AddWindow(DenyAllMask(), base)
	bytes := m.RegionBytes()

	openRegions := 0
	for _, b := range bytes {
		if b != 0xFF {
			openRegions++
		}
	}
	if openRegions != 2 {
		t.Errorf("1536B mixed allocation should open subregions in 2 regions, got %d", openRegions)
	}
}

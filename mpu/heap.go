// Package mpu implements the kernel's MPU-aware heap suballocator
// (spec.md §4.1): a fixed 28 KiB heap split into five MPU regions of sizes
// {4K, 8K, 4K, 4K, 8K}, each carved into eight hardware subregions, handed
// out as 512 B / 1024 B / 1536 B "mixed" blocks with first-fit placement
// that tries to preserve the three 4K/8K boundary slots for future 1536 B
// requests.
//
// The package never touches real memory or MPU registers — it is pure
// bitmap and ledger bookkeeping, reusable on any host. Programming the
// actual MPU_RASR/RBAR registers from a computed mask is the hal package's
// job: hal.MPUDriver.Apply receives one SRD byte for each of the five heap
// regions (Mask.RegionBytes).
package mpu

import "rtoskernel"

// Region granularities, in bytes.
const (
	Granularity512  = 512
	Granularity1024 = 1024
)

// HeapSize is the total size of the suballocated heap area, in bytes.
const HeapSize = 4096 + 8192 + 4096 + 4096 + 8192 // 28 KiB

// HeapBase is the simulated SRAM address the heap is carved out of.
// MALLOC's "null handle" is address 0, which is never a valid return
// since HeapBase is nonzero — the same convention a flashed image gets
// for free because its heap never actually starts at address 0.
const HeapBase = 0x20000000

// NumSubregions is the number of user-allocatable subregions: five regions
// of eight subregions each (spec.md §4.1, "for a total of 40 subregions").
const NumSubregions = 40

// MaxRequestBytes is the largest single allocation this suballocator ever
// grants (spec.md §4.1 step 1: "reject if total_512-equivalent > 16").
const MaxRequestBytes = 16 * Granularity512 // 8 KiB

// subregion describes one of the 40 fixed subregions, in address order.
type subregion struct {
	region   int // 0..4
	offset   int // byte offset from heap base
	size     int // Granularity512 or Granularity1024
}

// regionSizes/regionGranularity describe the five MPU regions in address
// order: 4K, 8K, 4K, 4K, 8K.
var regionSizes = [5]int{4096, 8192, 4096, 4096, 8192}
var regionGranularity = [5]int{Granularity512, Granularity1024, Granularity512, Granularity512, Granularity1024}

var subregionTable = buildSubregionTable()

func buildSubregionTable() [NumSubregions]subregion {
	var t [NumSubregions]subregion
	idx := 0
	byteOffset := 0
	for region := 0; region < 5; region++ {
		gran := regionGranularity[region]
		count := regionSizes[region] / gran
		for i := 0; i < count; i++ {
			t[idx] = subregion{region: region, offset: byteOffset, size: gran}
			idx++
			byteOffset += gran
		}
	}
	return t
}

// boundary describes one of the three places a 4K region sits next to an
// 8K region, where a 1536 B "mixed" allocation can be placed astride the
// two subregion granularities.
type boundary struct {
	lowSub, highSub int // the lower- and higher-addressed subregion indices
	base            int // byte offset of the combined 1536 B block
}

// The heap's fixed layout (region boundaries at byte offsets 0, 4096,
// 12288, 16384, 20480) puts exactly three 4K/8K seams, at subregions
// (7,8), (15,16) and (31,32).
var boundaries = [3]boundary{
	{lowSub: 7, highSub: 8, base: 7 * Granularity512},
	{lowSub: 15, highSub: 16, base: 4096 + 7*Granularity1024},
	{lowSub: 31, highSub: 32, base: 16384 + 7*Granularity512},
}

// edgeSubregions512 are the 512 B subregions adjacent to an 8K region —
// the 512 B side of each boundary — preserved for future 1536 B requests
// when possible.
var edgeSubregions512 = map[int]bool{7: true, 16: true, 31: true}

// edgeSubregions1024 are the 1024 B subregions adjacent to a 4K region —
// the 1024 B side of each boundary.
var edgeSubregions1024 = map[int]bool{8: true, 15: true, 32: true}

// Allocation is one ledger entry (spec.md §3, "Heap ledger").
type Allocation struct {
	InUse      bool
	Size       int // bytes, rounded up to the subregion grain(s) consumed
	Owner      rtoskernel.Pid
	Base       int // byte offset from heap base
	subregions []int
	d512       uint8 // counter deltas applied at alloc time, reversed on free
	d1024      uint8
	dMixed     uint8
}

// Heap is the suballocator state: the 64-bit bitmap/counter word described
// in spec.md §4.1 plus the allocation ledger.
type Heap struct {
	bitmap  uint64 // low 40 bits: 1 = subregion occupied
	count512  uint8
	count1024 uint8
	countMixed uint8

	ledger [rtoskernel.MaxAllocations]Allocation
}

// NewHeap returns an empty heap: every subregion free, every ledger slot
// empty.
func NewHeap() *Heap {
	return &Heap{}
}

// StateWord packs the suballocator's bookkeeping into the 64-bit word
// described in spec.md §4.1:
//
//	bits  0..39: per-subregion occupied bitmap
//	bits 40..47: count of 512 B blocks in use
//	bits 48..55: count of 1024 B blocks in use
//	bits 56..63: count of 1536 B mixed allocations in use
func (h *Heap) StateWord() uint64 {
	w := h.bitmap & ((1 << NumSubregions) - 1)
	w |= uint64(h.count512) << 40
	w |= uint64(h.count1024) << 48
	w |= uint64(h.countMixed) << 56
	return w
}

func (h *Heap) free512Count() int  { return countFree(h.bitmap, Granularity512) }
func (h *Heap) free1024Count() int { return countFree(h.bitmap, Granularity1024) }

func countFree(bitmap uint64, granularity int) int {
	n := 0
	for i, s := range subregionTable {
		if s.size == granularity && bitmap&(1<<uint(i)) == 0 {
			n++
		}
	}
	return n
}

// splitSize rounds N bytes up to a 512 B multiple and splits it into a
// count of 1024 B blocks plus at most one 512 B block (spec.md §4.1,
// "Size-class policy").
func splitSize(n int) (need1024, need512 int) {
	total512 := (n + Granularity512 - 1) / Granularity512
	return total512 / 2, total512 % 2
}

// isMixed reports whether (need1024, need512) identifies the 1536 B mixed
// class — resolved per SPEC_FULL.md §12.2: exactly one 1024 B block plus
// one 512 B block, nothing larger.
func isMixed(need1024, need512 int) bool {
	return need1024 == 1 && need512 == 1
}

// Alloc reserves size bytes for owner and returns the base offset of the
// block. ok is false (and base is 0) if size is out of range or the heap
// has no room — the null handle of spec.md §4.1 step 6. Only three size
// shapes are served: a single 512 B block, a run of 1024 B blocks, and the
// 1536 B mixed class; a size whose split is a 512 B block plus two or more
// 1024 B blocks (e.g. 2560 B) is rejected regardless of free space.
func (h *Heap) Alloc(size int, owner rtoskernel.Pid) (base int, ok bool) {
	if size <= 0 || size > MaxRequestBytes {
		return 0, false
	}
	total512 := (size + Granularity512 - 1) / Granularity512
	if total512 > 16 {
		return 0, false
	}
	need1024, need512 := splitSize(size)

	var subs []int
	var d512, d1024, dMixed uint8

	switch {
	case isMixed(need1024, need512):
		if s, ok := h.tryBoundaryPlacement(); ok {
			subs = s
			d512, d1024, dMixed = 1, 1, 1
		} else if s, ok := h.findRun(Granularity512, 3, true); ok {
			subs = s
			d512, dMixed = 3, 1
		} else if s, ok := h.findRun(Granularity1024, 2, true); ok {
			subs = s
			d1024, dMixed = 2, 1
		} else {
			return 0, false
		}
	case need1024 > 0 && need512 == 0:
		if s, ok := h.findRun(Granularity1024, need1024, false); ok {
			subs = s
		} else if s, ok := h.findRun(Granularity1024, need1024, true); ok {
			subs = s
		} else {
			return 0, false
		}
		d1024 = uint8(need1024)
	case need512 == 1 && need1024 == 0:
		if s, ok := h.findRun(Granularity512, 1, false); ok {
			subs = s
		} else if s, ok := h.findRun(Granularity512, 1, true); ok {
			subs = s
		} else {
			return 0, false
		}
		d512 = 1
	default:
		return 0, false
	}

	slot := h.freeLedgerSlot()
	if slot < 0 {
		return 0, false
	}

	base = subregionTable[subs[0]].offset
	for _, s := range subs {
		h.bitmap |= 1 << uint(s)
	}
	h.count512 += d512
	h.count1024 += d1024
	h.countMixed += dMixed

	h.ledger[slot] = Allocation{
		InUse:      true,
		Size:       allocatedSize(subs),
		Owner:      owner,
		Base:       base,
		subregions: subs,
		d512:       d512,
		d1024:      d1024,
		dMixed:     dMixed,
	}
	return base, true
}

func allocatedSize(subs []int) int {
	n := 0
	for _, s := range subs {
		n += subregionTable[s].size
	}
	return n
}

// tryBoundaryPlacement attempts to place a 1536 B allocation astride one
// of the three fixed 4K/8K boundaries.
func (h *Heap) tryBoundaryPlacement() ([]int, bool) {
	for _, b := range boundaries {
		if h.bitmap&(1<<uint(b.lowSub)) == 0 && h.bitmap&(1<<uint(b.highSub)) == 0 {
			return []int{b.lowSub, b.highSub}, true
		}
	}
	return nil, false
}

// findRun scans for `count` contiguous free subregions of the given
// granularity, in ascending subregion-index order (which follows address
// order by construction). When allowEdges is false, subregions in the
// boundary-preserving edge sets are skipped.
func (h *Heap) findRun(granularity, count int, allowEdges bool) ([]int, bool) {
	n := len(subregionTable)
	for start := 0; start+count <= n; start++ {
		ok := true
		for i := 0; i < count; i++ {
			s := subregionTable[start+i]
			if s.size != granularity {
				ok = false
				break
			}
			if h.bitmap&(1<<uint(start+i)) != 0 {
				ok = false
				break
			}
			if !allowEdges && isEdge(start+i, granularity) {
				ok = false
				break
			}
		}
		if ok {
			run := make([]int, count)
			for i := 0; i < count; i++ {
				run[i] = start + i
			}
			return run, true
		}
	}
	return nil, false
}

func isEdge(subregionIdx, granularity int) bool {
	if granularity == Granularity512 {
		return edgeSubregions512[subregionIdx]
	}
	return edgeSubregions1024[subregionIdx]
}

func (h *Heap) freeLedgerSlot() int {
	for i := range h.ledger {
		if !h.ledger[i].InUse {
			return i
		}
	}
	return -1
}

// Free releases the allocation based at base. Freeing an address that is
// not in the ledger is a silent no-op per spec.md §4.1 ("the caller must
// check ownership").
func (h *Heap) Free(base int) bool {
	for i := range h.ledger {
		a := &h.ledger[i]
		if !a.InUse || a.Base != base {
			continue
		}
		for _, s := range a.subregions {
			h.bitmap &^= 1 << uint(s)
		}
		h.count512 -= a.d512
		h.count1024 -= a.d1024
		h.countMixed -= a.dMixed
		*a = Allocation{}
		return true
	}
	return false
}

// FreeAllOwnedBy releases every allocation owned by pid (used by KILL,
// spec.md §4.4 op 9) and returns the number of blocks freed.
func (h *Heap) FreeAllOwnedBy(pid rtoskernel.Pid) int {
	n := 0
	for i := range h.ledger {
		a := &h.ledger[i]
		if a.InUse && a.Owner == pid {
			h.Free(a.Base)
			n++
		}
	}
	return n
}

// Ledger returns a snapshot of every in-use allocation, for MEMINFO
// rendering (spec.md §4.4 op 15).
func (h *Heap) Ledger() []Allocation {
	out := make([]Allocation, 0, rtoskernel.MaxAllocations)
	for _, a := range h.ledger {
		if a.InUse {
			out = append(out, a)
		}
	}
	return out
}

// UsedSpace returns the number of bytes currently allocated.
func (h *Heap) UsedSpace() int {
	n := 0
	for _, a := range h.ledger {
		if a.InUse {
			n += a.Size
		}
	}
	return n
}

// FreeSpace returns HeapSize - UsedSpace.
func (h *Heap) FreeSpace() int {
	return HeapSize - h.UsedSpace()
}

// Subregions returns the subregion indices owned by the allocation based
// at base, or nil if there is none. Used by the per-task mask builder.
func (h *Heap) Subregions(base int) []int {
	for _, a := range h.ledger {
		if a.InUse && a.Base == base {
			return append([]int(nil), a.subregions...)
		}
	}
	return nil
}

package mpu

// Mask is a task's subregion-disable mask (spec.md glossary: "SRD mask"):
// bit i set means subregion i may NOT be accessed. Only the low
// NumSubregions bits are meaningful; the rest are reserved for the two
// kernel-only regions a real part would carry ahead of the heap and are
// always left disabled for user tasks.
type Mask uint64

// DenyAllMask returns a mask that grants access to nothing, the initial
// value assigned to every new task (spec.md §3).
func DenyAllMask() Mask {
	return Mask(^uint64(0))
}

// AddWindow clears the bits for the subregions backing the allocation
// based at base, granting the task access to it.
func (h *Heap) AddWindow(m Mask, base int) Mask {
	for _, s := range h.Subregions(base) {
		m &^= 1 << uint(s)
	}
	return m
}

// RegionBytes splits a mask into the one SRD byte per heap region that the
// real MPU_RASR.SRD field would take, low subregion first. hal.Apply
// programs these into the (simulated) MPU region attribute registers.
func (m Mask) RegionBytes() [5]uint8 {
	var out [5]uint8
	for i, s := range subregionTable {
		if m&(1<<uint(i)) != 0 {
			bitInRegion := (i - regionSubregionStart(s.region)) % 8
			out[s.region] |= 1 << uint(bitInRegion)
		}
	}
	return out
}

func regionSubregionStart(region int) int {
	start := 0
	for r := 0; r < region; r++ {
		start += regionSizes[r] / regionGranularity[r]
	}
	return start
}

// Allows reports whether every subregion touched by [base, base+size) is
// accessible under m. Used by fault injection / tests to assert a task's
// window is exactly what it should be.
func (h *Heap) Allows(m Mask, base, size int) bool {
	for i, s := range subregionTable {
		if s.offset >= base+size || s.offset+s.size <= base {
			continue
		}
		if m&(1<<uint(i)) != 0 {
			return false
		}
	}
	return true
}

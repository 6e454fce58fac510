// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strategy is the per-cycle decision layer: which generation to
// collect, and — after marking — whether the result justifies paying
// for compaction. The cycle-selection logic is reworked from free
// functions into a small Policy value so an embedder can supply its
// own.
package strategy

// Kind selects which generation a cycle collects.
type Kind int

const (
	Young Kind = iota
	Full
)

func (k Kind) String() string {
	if k == Full {
		return "Full"
	}
	return "Young"
}

// ForwardScanMode selects how a young cycle discovers old-generation
// fields that may point into the young generation, during the
// compactor's forward-threading extra pass.
type ForwardScanMode int

const (
	// LinearOldScan walks the entire old generation once per young cycle.
	// It is always correct and is the conservative default.
	LinearOldScan ForwardScanMode = iota
	// RememberedSetOnly names a scan restricted to objects reachable from
	// the remembered set, which would only be correct if the write
	// barrier records every old->young pointer creation, including bulk
	// array stores. The compactor has no such scan: selecting this value
	// changes nothing, and young cycles still walk the old generation
	// linearly.
	RememberedSetOnly
)

// MiB is used throughout the policy's byte-budget constants.
const MiB = 1 << 20

// Policy bundles the tunable knobs a cycle's strategy and compaction
// decision depend on. It is a plain value embedded in a *gc.Collector,
// never package-level state, so independent heaps (e.g. in tests) never
// share a policy by accident.
type Policy struct {
	// CriticalMemoryLimit forces a Full cycle once the heap high-water
	// exceeds it, regardless of the periodic schedule.
	CriticalMemoryLimit int64
	// FullCyclePeriod forces a Full cycle at least this often, to bound
	// floating garbage accumulation. A value <= 0 disables the periodic
	// force (not recommended; some other policy must then guarantee
	// boundedness).
	FullCyclePeriod int
	// SurvivalThreshold gates compaction: a cycle compacts only if
	// marked/generation is strictly below this.
	SurvivalThreshold float64
	// ForwardScan records the young-cycle forward-pointer coverage mode.
	// The compactor does not read it; every young cycle uses
	// LinearOldScan.
	ForwardScan ForwardScanMode
}

// DefaultCriticalMemoryLimit is CRITICAL_MEMORY_LIMIT = (4096 - 256) MiB.
const DefaultCriticalMemoryLimit = int64(4096-256) * MiB

// DefaultSurvivalThreshold is the reference 0.95 survival-rate gate.
const DefaultSurvivalThreshold = 0.95

// DefaultPolicy matches the reference implementation's placeholder
// policy: force Full above the critical memory limit or every third
// cycle, gate compaction at 95% survival, and scan the old generation
// linearly for young-cycle forward pointers.
func DefaultPolicy() Policy {
	return Policy{
		CriticalMemoryLimit: DefaultCriticalMemoryLimit,
		FullCyclePeriod:     3,
		SurvivalThreshold:   DefaultSurvivalThreshold,
		ForwardScan:         LinearOldScan,
	}
}

// Choose selects the strategy for the next cycle. highWater is the
// current heap high-water mark (free - base, in bytes); cycleIndex counts
// collections performed so far (0-based), used for the periodic force.
func (p Policy) Choose(highWater int64, cycleIndex int) Kind {
	if highWater > p.CriticalMemoryLimit {
		return Full
	}
	if p.FullCyclePeriod > 0 && (cycleIndex+1)%p.FullCyclePeriod == 0 {
		return Full
	}
	return Young
}

// SurvivalRate computes marked/generation bytes.
func SurvivalRate(markedBytes, generationBytes int64) float64 {
	if generationBytes == 0 {
		return 1 // an empty generation is trivially "fully survived": nothing to reclaim.
	}
	return float64(markedBytes) / float64(generationBytes)
}

// ShouldCompact reports whether a cycle with the given survival rate
// should pay for compaction: compaction only happens below the
// threshold.
func (p Policy) ShouldCompact(survivalRate float64) bool {
	return survivalRate < p.SurvivalThreshold
}

// SlackBytes implements the scheduling trigger: run a collection iff
// free - base >= max_live, where max_live = heap_reservation - slack -
// max_bitmap_size, slack = 512 MiB and max_bitmap_size =
// heap_reservation / 32.
const SlackBytes = int64(512) * MiB

// MaxLive computes the max_live threshold for a given heap reservation.
func MaxLive(heapReservation int64) int64 {
	maxBitmapSize := heapReservation / 32
	return heapReservation - SlackBytes - maxBitmapSize
}

// ShouldDoGC reports whether the current high-water mark has reached
// the point where a collection should run.
func ShouldDoGC(highWater, maxLive int64) bool {
	return highWater >= maxLive
}

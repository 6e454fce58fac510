// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc is the driver and mark phase: it ties the leaf packages —
// heap, layout, markbits, markstack, rememberedset, strategy, compact —
// into the single per-cycle operation an embedder calls. Collector
// carries every piece of state a cycle touches as ordinary struct
// fields, never package globals, the same way a Process carries an
// entire analysis session rather than relying on init-time globals.
package gc

import (
	"fmt"

	"github.com/mrkbck/slidegc/internal/compact"
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
	"github.com/mrkbck/slidegc/internal/markbits"
	"github.com/mrkbck/slidegc/internal/markstack"
	"github.com/mrkbck/slidegc/internal/rememberedset"
	"github.com/mrkbck/slidegc/internal/strategy"
)

// InvariantError reports a violated collector invariant. Rather than
// panicking with a bare descriptive string, the panicked value here is
// this typed error, so a host wrapping the collector can recover and
// errors.As instead of parsing a string.
type InvariantError struct {
	Invariant string
	Address   heap.Address
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gc: invariant %q violated at %s", e.Invariant, e.Address)
}

// Allocator is the bump-allocation surface a Collector drives. Satisfied
// by *heap.Heap; defined as an interface so a host runtime can supply
// its own linear memory instead.
type Allocator interface {
	AlignedHeapBase() heap.Address
	HP() heap.Address
	SetHP(heap.Address)
}

// WriteBarrier is the mutator-facing recording surface a Young cycle
// reads as part of its root set. Satisfied by *rememberedset.Set;
// defined as an interface so a host runtime can supply its own.
type WriteBarrier interface {
	Init()
	Record(field heap.Address)
	Iterate(yield func(field heap.Address) bool)
}

// Roots is the collector's view of the mutator's root set outside the
// dynamic heap: the static root cells and an optional continuation
// table slot. Every Static entry is the address of a root cell's single
// pointer field, not the cell itself — flattening away the
// host-specific array-of-cells indirection (see DESIGN.md).
type Roots struct {
	Static            []heap.Address
	ContinuationTable *heap.Address
}

// Collector owns one heap's worth of generational mark-compact state:
// the heap it collects, the write barrier it reads young roots from,
// the root set, and the tunable policy. Nothing here is global, so
// tests can stand up as many independent Collectors as they need.
type Collector struct {
	Heap    *heap.Heap
	Barrier WriteBarrier
	Roots   Roots
	Policy  strategy.Policy

	cycleIndex int
	lastStats  *Statistic
}

// New builds a Collector over h, wiring a fresh *rememberedset.Set as
// its write barrier and the default policy. Callers set Roots before
// the first Cycle.
func New(h *heap.Heap) *Collector {
	return &Collector{Heap: h, Barrier: &rememberedset.Set{}, Policy: strategy.DefaultPolicy()}
}

// ShouldRun reports whether the heap's current high-water mark has
// reached the point a collection must run before further allocation,
// given the embedder's total heap reservation.
func (c *Collector) ShouldRun(heapReservation int64) bool {
	highWater := c.Heap.HP().Sub(c.Heap.Base())
	return strategy.ShouldDoGC(highWater, strategy.MaxLive(heapReservation))
}

// CycleStats summarizes one completed collection, the raw numbers
// behind the Statistic tree Stats returns.
type CycleStats struct {
	Strategy        strategy.Kind
	MarkedBytes     int64
	GenerationBytes int64
	SurvivalRate    float64
	Compacted       bool
	Reclaimed       int64
	NewHP           heap.Address
}

// Cycle runs one complete collection: choose a strategy, mark, decide
// whether the survival rate justifies compaction, compact if so, update
// the heap's anchors, and reset the write barrier for the next mutator
// phase.
func (c *Collector) Cycle() CycleStats {
	oldHP := c.Heap.HP()
	base := c.Heap.Base()
	highWater := oldHP.Sub(base)

	strat := c.Policy.Choose(highWater, c.cycleIndex)

	bm, markedBytes := c.mark(strat)

	var generationBytes int64
	if strat == strategy.Young {
		generationBytes = oldHP.Sub(c.Heap.LastFree())
	} else {
		generationBytes = oldHP.Sub(base)
	}
	survival := strategy.SurvivalRate(markedBytes, generationBytes)

	newFree := oldHP
	compacted := false
	if c.Policy.ShouldCompact(survival) {
		newFree = compact.Run(c.Heap, bm, strat, compact.Roots{
			Static:            c.Roots.Static,
			ContinuationTable: c.Roots.ContinuationTable,
		})
		if newFree > oldHP {
			panic(&InvariantError{Invariant: "compaction must not grow the heap", Address: newFree})
		}
		c.Heap.SetHP(newFree)
		compacted = true
	}

	reclaimed := oldHP.Sub(c.Heap.HP())
	c.Heap.AddReclaimed(reclaimed)
	c.Heap.UpdateMaxLive(c.Heap.HP().Sub(base))
	c.Heap.SetLastFree(c.Heap.HP())
	c.Barrier.Init()
	c.cycleIndex++

	stats := CycleStats{
		Strategy:        strat,
		MarkedBytes:     markedBytes,
		GenerationBytes: generationBytes,
		SurvivalRate:    survival,
		Compacted:       compacted,
		Reclaimed:       reclaimed,
		NewHP:           c.Heap.HP(),
	}
	c.lastStats = c.buildStatistic(stats)
	return stats
}

// Stats returns the Statistic tree for the most recently completed
// cycle, or nil if none has run yet.
func (c *Collector) Stats() *Statistic { return c.lastStats }

// buildStatistic nests the mark-phase accounting under "mark" and, only
// when the cycle actually paid for compaction, replaces the placeholder
// "compact" leaf with a "compact" group breaking out what compaction
// reclaimed — so a tree built by an all-live cycle and one built by a
// compacting cycle stay structurally comparable (Stats().Sub("compact")
// always resolves to something), while only a compacting cycle gets the
// nested detail.
func (c *Collector) buildStatistic(s CycleStats) *Statistic {
	root := groupStat("cycle",
		groupStat("mark",
			leafStat("marked", s.MarkedBytes),
			leafStat("generation", s.GenerationBytes),
		),
		leafStat("compact", 0),
	)
	if s.Compacted {
		root.setChild(groupStat("compact",
			leafStat("reclaimed", s.Reclaimed),
			leafStat("live", c.Heap.HP().Sub(c.Heap.Base())),
		))
	}
	return root
}

// markState is the mutable bookkeeping one mark phase threads through
// root scanning and stack draining: the bitmap being built, the stack
// being drained, and the generation boundary a Young cycle must respect.
type markState struct {
	h           *heap.Heap
	bm          *markbits.Bitmap
	stack       markstack.Stack
	lastFree    heap.Address
	young       bool
	markedBytes int64
}

// mark marks a single target: skip anything already assumed live (old
// generation, in a Young cycle) or already marked, otherwise set the
// bit, push the object for field scanning, and tally its size.
func (m *markState) mark(target heap.Address) {
	if m.young && target < m.lastFree {
		return
	}
	if m.bm.Get(target) {
		return
	}
	m.bm.Set(target)
	tag := layout.TagOf(m.h, target)
	m.stack.Push(target, tag)
	m.markedBytes += layout.ObjectSize(m.h, target) * heap.Word
}

// mark runs one complete mark phase and returns the bitmap it built and
// the total bytes marked, for the survival-rate decision.
func (c *Collector) mark(strat strategy.Kind) (*markbits.Bitmap, int64) {
	bm := markbits.New(c.Heap.Base(), c.Heap.HP())
	m := &markState{h: c.Heap, bm: bm, lastFree: c.Heap.LastFree(), young: strat == strategy.Young}
	c.markRoots(m, strat)
	c.drain(m)
	return bm, m.markedBytes
}

// markRoots marks everything directly reachable from outside the
// dynamic heap: static roots, the continuation table if one is
// configured, and — for a Young cycle only — every write-barrier
// recorded field that still points into the young generation (a
// recorded field may have been overwritten since, which is exactly why
// the current value is re-checked rather than trusted).
//
// A continuation-table slot holding the literal word 0 is treated as
// null rather than as skew(1): every real pointer's skewed
// representation is at least AlignedHeapBase()-1, which is never zero
// given the heap base's word alignment, so 0 is an unambiguous sentinel.
func (c *Collector) markRoots(m *markState, strat strategy.Kind) {
	base := c.Heap.Base()
	for _, field := range c.Roots.Static {
		target := heap.Unskew(c.Heap.ReadWord(field))
		if target >= base {
			m.mark(target)
		}
	}
	if loc := c.Roots.ContinuationTable; loc != nil {
		if v := c.Heap.ReadWord(*loc); v != 0 {
			m.mark(heap.Unskew(v))
		}
	}
	if strat == strategy.Young {
		c.Barrier.Iterate(func(field heap.Address) bool {
			target := heap.Unskew(c.Heap.ReadWord(field))
			if target >= m.lastFree {
				m.mark(target)
			}
			return true
		})
	}
}

// drain repeatedly pops the mark stack and visits each object's pointer
// fields, re-pushing a resumable suffix for any array too large to
// finish scanning in one slice increment.
func (c *Collector) drain(m *markState) {
	for {
		item, ok := m.stack.Pop()
		if !ok {
			return
		}
		realTag, start := layout.DecodeSliceTag(item.Tag)
		next := layout.VisitPointerFields(c.Heap, item.Addr, realTag, c.Heap.Base(), start, func(field heap.Address) {
			m.mark(heap.Unskew(c.Heap.ReadWord(field)))
		})
		if realTag == layout.TagArray && next < layout.ArrayLen(c.Heap, item.Addr) {
			m.stack.Push(item.Addr, layout.EncodeSliceTag(next))
		}
	}
}

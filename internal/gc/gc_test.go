// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"testing"

	"github.com/mrkbck/slidegc/internal/gctest"
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

// TestCycleReclaimsUnreachableGarbage builds one unreachable blob (most
// of the heap) and one small survivor reachable through a static root,
// runs a single cycle, and checks the survivor is still reachable at its
// (necessarily different) post-compaction address while the garbage is
// gone.
func TestCycleReclaimsUnreachableGarbage(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	rootField := gctest.StaticRoot(h, 0)

	gctest.WriteBlob(h, make([]byte, 100)) // 108 bytes of garbage, never reachable

	survivorTarget := gctest.WriteFiller(h)
	survivor := gctest.WriteMutbox(h, survivorTarget)
	h.WriteWord(rootField, heap.Skew(survivor))

	c := New(h)
	c.Roots.Static = []heap.Address{rootField}

	before := h.HP()
	stats := c.Cycle()

	if !stats.Compacted {
		t.Fatalf("survival rate %.3f should have triggered compaction", stats.SurvivalRate)
	}
	if got := h.HP(); got >= before {
		t.Fatalf("heap high water after cycle = %s, want less than %s", got, before)
	}
	if stats.Reclaimed <= 0 {
		t.Fatalf("Reclaimed = %d, want > 0", stats.Reclaimed)
	}

	newSurvivor := heap.Unskew(h.ReadWord(rootField))
	if got := layout.Tag(h.ReadWord(newSurvivor)); got != layout.TagMutbox {
		t.Fatalf("object reached via the root has tag %s, want MutBox", got)
	}
	newTarget := heap.Unskew(h.ReadWord(newSurvivor.Add(heap.Word)))
	if got := layout.Tag(h.ReadWord(newTarget)); got != layout.TagOneWordFiller {
		t.Fatalf("survivor's own field has tag %s, want OneWordFiller", got)
	}
}

// TestCycleAllLiveSkipsCompaction checks the survival-rate gate: when
// (almost) everything marks live, a cycle must not pay for compaction.
func TestCycleAllLiveSkipsCompaction(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	rootField := gctest.StaticRoot(h, 0)

	survivor := gctest.WriteFiller(h)
	h.WriteWord(rootField, heap.Skew(survivor))

	c := New(h)
	c.Roots.Static = []heap.Address{rootField}

	before := h.HP()
	stats := c.Cycle()

	if stats.Compacted {
		t.Fatalf("all-live cycle with survival rate %.3f should not compact", stats.SurvivalRate)
	}
	if got := h.HP(); got != before {
		t.Fatalf("HP changed to %s despite no compaction, want unchanged %s", got, before)
	}
}

// TestCycleContinuationTableNullSentinel checks that a continuation
// table slot holding the literal word 0 is treated as null, not
// followed as a pointer.
func TestCycleContinuationTableNullSentinel(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	slot := gctest.StaticRoot(h, 0)
	h.WriteWord(slot, 0)

	c := New(h)
	c.Roots.ContinuationTable = &slot

	// Nothing else in the heap; a null continuation table must not
	// cause the mark phase to dereference address 0 as a pointer.
	stats := c.Cycle()
	if stats.MarkedBytes != 0 {
		t.Fatalf("MarkedBytes = %d, want 0 with a null continuation table", stats.MarkedBytes)
	}
}

// TestStatsTreeValueIsSumOfChildren exercises the Statistic tree built
// after a cycle.
func TestStatsTreeValueIsSumOfChildren(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	gctest.WriteFiller(h)

	c := New(h)
	c.Cycle()

	s := c.Stats()
	if s == nil {
		t.Fatal("Stats() returned nil after a cycle")
	}
	var sum int64
	s.Children(func(child *Statistic) bool {
		sum += child.Value
		return true
	})
	if sum != s.Value {
		t.Fatalf("children sum to %d, group value is %d", sum, s.Value)
	}
}

// TestStatsTreeCompactionNesting runs one compacting cycle and checks
// that Sub navigates into the nested "mark" group, and that the cycle
// grew a nested "compact" group in place of the zero-value placeholder
// leaf an all-live cycle leaves behind.
func TestStatsTreeCompactionNesting(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	rootField := gctest.StaticRoot(h, 0)

	gctest.WriteBlob(h, make([]byte, 100)) // garbage, forces compaction

	survivor := gctest.WriteFiller(h)
	h.WriteWord(rootField, heap.Skew(survivor))

	c := New(h)
	c.Roots.Static = []heap.Address{rootField}
	stats := c.Cycle()
	if !stats.Compacted {
		t.Fatalf("survival rate %.3f should have triggered compaction", stats.SurvivalRate)
	}

	s := c.Stats()
	if marked := s.Sub("mark", "marked"); marked == nil || marked.Value != stats.MarkedBytes {
		t.Fatalf("Sub(mark, marked) = %v, want leaf with value %d", marked, stats.MarkedBytes)
	}
	reclaimed := s.Sub("compact", "reclaimed")
	if reclaimed == nil {
		t.Fatal("Sub(compact, reclaimed) = nil after a compacting cycle")
	}
	if reclaimed.Value != stats.Reclaimed {
		t.Fatalf("compact.reclaimed = %d, want %d", reclaimed.Value, stats.Reclaimed)
	}
	if s.Sub("compact", "live") == nil {
		t.Fatal("Sub(compact, live) = nil after a compacting cycle")
	}
	if s.Sub("nonexistent") != nil {
		t.Fatal("Sub with an unknown name should return nil")
	}
}

// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compact implements the sliding, pointer-threading compactor:
// Pass A threads every backward (or self) pointer into a live object,
// plus every static root and the continuation-table slot; Pass B then
// walks the mark bitmap in address order, unthreads each object
// (restoring its header and rewriting every threaded field to the
// object's new location), slides it down to the current free pointer,
// and threads its forward pointers so a later object in the same pass
// can find it.
//
// The algorithm is a direct, line-level port of the
// thread/unthread/move_phase functions in a Rust mark-compact
// collector (ExperimentalGC::thread, ::unthread, ::move_phase),
// reproduced here in Go idiom: an explicit *heap.Heap receiver instead
// of unsafe pointer casts, no unsafe at all.
package compact

import (
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
	"github.com/mrkbck/slidegc/internal/markbits"
	"github.com/mrkbck/slidegc/internal/strategy"
)

// Roots bundles the pointer locations outside the dynamic heap that must
// be threaded in Pass A and fixed up as part of Pass B's unthreading,
// same as the mark phase's root set.
type Roots struct {
	// Static points at the single pointer field of each static root
	// cell. Motoko represents these as MutBoxes reached through an
	// array-of-roots object; that extra indirection is a
	// representation detail of that host, so here the caller supplies
	// the field addresses directly.
	Static []heap.Address
	// ContinuationTable is the address of the mutable slot holding
	// either a null value or a pointer to a dynamic array. Nil if the
	// embedder has no continuation table.
	ContinuationTable *heap.Address
}

// Run performs Pass A and Pass B over the objects bm has marked live,
// sliding them down toward base (Full) or last_free (Young), and
// returns the new free pointer. h.LastFree() must still hold the
// boundary the mark phase used to build bm.
func Run(h *heap.Heap, bm *markbits.Bitmap, strat strategy.Kind, roots Roots) heap.Address {
	lastFree := h.LastFree()
	threadBackwardPhase(h, bm, strat, lastFree, roots)
	return movePhase(h, bm, strat, lastFree)
}

// shouldBeThreaded reports whether a field targeting addr is worth
// threading at all: in a Young cycle, old-generation objects never move
// so their incoming fields need no chain.
func shouldBeThreaded(strat strategy.Kind, lastFree, addr heap.Address) bool {
	if strat == strategy.Young {
		return addr >= lastFree
	}
	return true
}

// thread links field into the chain rooted at its (skewed) referent's
// header word, provided the referent will actually move. The referent's
// current header word — whether a real tag or an earlier link in the
// same chain — becomes field's new raw content, and the referent's
// header becomes field's own (word-aligned, so already low-bit-clear)
// address. No value here is skewed: a real tag's low bit is always 1,
// a field address's low bit is always 0 by alignment, and that bit
// alone is what unthread uses to walk the chain back off.
func thread(h *heap.Heap, strat strategy.Kind, lastFree heap.Address, field heap.Address) {
	pointed := heap.Unskew(h.ReadWord(field))
	if !shouldBeThreaded(strat, lastFree, pointed) {
		return
	}
	pointedHeader := h.ReadWord(pointed)
	h.WriteWord(field, pointedHeader)
	h.WriteWord(pointed, uint32(field))
}

// unthread walks the chain rooted at obj's header word, rewriting every
// linked field to the (skewed) newLoc, then restores obj's original tag
// and returns it. Called exactly once per live object, from Pass B,
// after which every reference anyone threaded now points at newLoc.
func unthread(h *heap.Heap, obj heap.Address, newLoc heap.Address) layout.Tag {
	header := h.ReadWord(obj)
	for !layout.IsHeader(header) {
		link := heap.Address(header)
		next := h.ReadWord(link)
		h.WriteWord(link, heap.Skew(newLoc))
		header = next
	}
	h.WriteWord(obj, header)
	return layout.Tag(header)
}

// threadBackwardPointerFields threads every field of obj whose current
// (unskewed) referent lies at or before obj itself — a backward or
// self pointer, the only kind Pass A can safely fix up before anything
// has moved.
func threadBackwardPointerFields(h *heap.Heap, obj heap.Address, tag layout.Tag, strat strategy.Kind, lastFree heap.Address) {
	layout.VisitAllPointerFields(h, obj, tag, h.Base(), func(field heap.Address) {
		target := heap.Unskew(h.ReadWord(field))
		if target <= obj {
			thread(h, strat, lastFree, field)
		}
	})
}

// threadForwardPointerFields threads every field of obj whose referent
// lies strictly after obj — used both for a freshly-moved object's own
// fields in Pass B, and for the young-cycle's old-generation sweep,
// where "after obj" captures exactly the old-to-young edges.
func threadForwardPointerFields(h *heap.Heap, obj heap.Address, tag layout.Tag, strat strategy.Kind, lastFree heap.Address) {
	layout.VisitAllPointerFields(h, obj, tag, h.Base(), func(field heap.Address) {
		target := heap.Unskew(h.ReadWord(field))
		if target > obj {
			thread(h, strat, lastFree, field)
		}
	})
}

// threadRootField threads a single static or continuation-table field if
// it currently points into the dynamic heap. Root fields are always
// eligible regardless of direction, since the cell holding them is
// static and never itself moves.
func threadRootField(h *heap.Heap, field heap.Address, strat strategy.Kind, lastFree heap.Address) {
	target := heap.Unskew(h.ReadWord(field))
	if target >= h.Base() {
		thread(h, strat, lastFree, field)
	}
}

// threadAllBackwardPointers walks bm in address order (skipping straight
// to lastFree for a Young cycle, since old objects were never marked)
// and threads every live object's backward and self pointers.
func threadAllBackwardPointers(h *heap.Heap, bm *markbits.Bitmap, strat strategy.Kind, lastFree heap.Address) {
	from := h.Base()
	if strat == strategy.Young {
		from = lastFree
	}
	bm.All(from, func(obj heap.Address) bool {
		tag := layout.TagOf(h, obj)
		threadBackwardPointerFields(h, obj, tag, strat, lastFree)
		return true
	})
}

// threadOldGenerationPointers linearly walks every object in the old
// generation, live or not, threading its forward pointers. This is the
// young cycle's extra pass: it threads every old-to-young field so the
// field is rewritten when its young referent slides. It is the only
// old-generation scan there is; strategy.Policy.ForwardScan is not
// consulted.
func threadOldGenerationPointers(h *heap.Heap, strat strategy.Kind, lastFree heap.Address) {
	for p := h.Base(); p < lastFree; {
		tag := layout.TagOf(h, p)
		size := layout.ObjectSize(h, p)
		if tag != layout.TagOneWordFiller && tag != layout.TagFreeSpace {
			threadForwardPointerFields(h, p, tag, strat, lastFree)
		}
		p = p.Add(size * heap.Word)
	}
}

// threadBackwardPhase is Pass A: thread every backward and self pointer
// among live objects, then thread every root — static roots must come
// after the live-object sweep, since a root pointing forward into a
// not-yet-visited object is only safe to thread once nothing earlier in
// address order still needs to discover it the unthreaded way.
func threadBackwardPhase(h *heap.Heap, bm *markbits.Bitmap, strat strategy.Kind, lastFree heap.Address, roots Roots) {
	threadAllBackwardPointers(h, bm, strat, lastFree)

	for _, field := range roots.Static {
		threadRootField(h, field, strat, lastFree)
	}
	if roots.ContinuationTable != nil {
		threadRootField(h, *roots.ContinuationTable, strat, lastFree)
	}
}

// movePhase is Pass B: slide every live object down to the current
// free pointer, in address order. For each object: unthread it
// (fixing up every reference anyone threaded to it, and recovering its
// real tag), copy it down if it actually moved, then thread the forward
// pointers of the copy at its new location, so that when each later
// referent is unthreaded in this same pass those fields are rewritten
// to the referent's new address.
func movePhase(h *heap.Heap, bm *markbits.Bitmap, strat strategy.Kind, lastFree heap.Address) heap.Address {
	free := h.Base()
	from := h.Base()
	if strat == strategy.Young {
		threadOldGenerationPointers(h, strat, lastFree)
		from = lastFree
		free = lastFree
	}

	bm.All(from, func(obj heap.Address) bool {
		newLoc := free
		tag := unthread(h, obj, newLoc)
		size := layout.ObjectSize(h, obj)
		if newLoc != obj {
			h.CopyWords(newLoc, obj, size)
		}
		free = free.Add(size * heap.Word)
		threadForwardPointerFields(h, newLoc, tag, strat, lastFree)
		return true
	})

	return free
}

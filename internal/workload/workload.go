// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload builds synthetic object graphs over a *heap.Heap so
// cmd/gcshell has something to collect without a real embedder attached:
// a small generator that produces a heap of controllable, reproducible
// shape to drive a demo or a benchmark against.
package workload

import (
	"math/rand"

	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

// Options controls the shape of the synthetic heap Build produces.
type Options struct {
	// Reservation is the total heap.New byte reservation.
	Reservation int64
	// LiveObjects is the length of the singly linked list of live
	// ObjInd nodes threaded through the heap.
	LiveObjects int
	// GarbageRatio is the approximate fraction, by bytes, of dead blob
	// filler interleaved between live nodes.
	GarbageRatio float64
	// Seed makes a run reproducible; the same Options always produce
	// the same heap layout.
	Seed int64
}

// rootField is the single static root cell Build uses, a scratch word
// in the unused space below h.Base() (the same trick
// internal/gctest.StaticRoot uses for tests).
const rootField = heap.Address(0)

// Build lays out a live singly linked list of opts.LiveObjects ObjInd
// nodes (the tail points at itself, so the chain is a cycle rather than
// needing a null tag of its own), with dead TagBlob filler scattered
// between nodes in proportion to opts.GarbageRatio, and returns the
// heap together with the root field that keeps the list alive.
func Build(opts Options) (*heap.Heap, heap.Address) {
	h := heap.New(opts.Reservation)
	rng := rand.New(rand.NewSource(opts.Seed))

	n := opts.LiveObjects
	if n < 1 {
		n = 1
	}

	garbageBudget := 0.0
	if opts.GarbageRatio > 0 && opts.GarbageRatio < 1 {
		// Solve g/(g+live) = ratio for g, live in bytes, so the ratio
		// holds across the whole generated heap rather than just the
		// gaps between nodes.
		liveBytes := float64(n) * float64(2*heap.Word)
		garbageBudget = opts.GarbageRatio / (1 - opts.GarbageRatio) * liveBytes
	}

	nodes := make([]heap.Address, n)
	spent := 0.0
	for i := 0; i < n; i++ {
		if garbageBudget > 0 {
			spent += writeGarbageChunk(h, rng, garbageBudget/float64(n))
		}
		nodes[i] = h.Alloc(2 * heap.Word)
		h.WriteWord(nodes[i], uint32(layout.TagObjInd))
	}
	_ = spent

	for i, node := range nodes {
		next := node // last node points at itself
		if i+1 < n {
			next = nodes[i+1]
		}
		h.WriteWord(node.Add(heap.Word), heap.Skew(next))
	}

	h.WriteWord(rootField, heap.Skew(nodes[0]))
	return h, rootField
}

// writeGarbageChunk allocates one dead blob of a random size averaging
// around avgBytes and returns its total size in bytes, header included.
func writeGarbageChunk(h *heap.Heap, rng *rand.Rand, avgBytes float64) float64 {
	if avgBytes < float64(heap.Word) {
		return 0
	}
	payload := int64(avgBytes/2) + rng.Int63n(int64(avgBytes)+1)
	payloadWords := (payload + heap.Word - 1) / heap.Word
	payload = payloadWords * heap.Word
	a := h.Alloc(2*heap.Word + payload)
	h.WriteWord(a, uint32(layout.TagBlob))
	h.WriteWord(a.Add(heap.Word), uint32(payload))
	return float64(2*heap.Word + payload)
}

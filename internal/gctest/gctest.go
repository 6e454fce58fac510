// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gctest is shared test fixture-building code: every package's
// tests need to hand-construct a handful of tagged objects in a
// *heap.Heap, and doing that inline in every _test.go file once grew
// repetitive enough to be worth factoring out. It is a small internal/
// package imported only from other packages' tests, never from this
// module's own non-test code.
package gctest

import (
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

// NewHeap reserves a plain, non-mmap-backed heap of the given size. A
// plain []byte-backed heap.New is always sufficient for tests: nothing
// in this module's object model depends on real page mappings.
func NewHeap(reservation int64) *heap.Heap {
	return heap.New(reservation)
}

// WriteFiller allocates the smallest possible live object, a one-word
// filler, useful as an inert pointee when a test only cares about
// reachability rather than payload.
func WriteFiller(h *heap.Heap) heap.Address {
	a := h.Alloc(heap.Word)
	h.WriteWord(a, uint32(layout.TagOneWordFiller))
	return a
}

// WriteObjInd allocates a single-field indirection object pointing at
// target — the smallest object with exactly one pointer field.
func WriteObjInd(h *heap.Heap, target heap.Address) heap.Address {
	return writeOneField(h, layout.TagObjInd, target)
}

// WriteMutbox allocates a single-field MutBox object pointing at
// target, the shape static root cells use.
func WriteMutbox(h *heap.Heap, target heap.Address) heap.Address {
	return writeOneField(h, layout.TagMutbox, target)
}

func writeOneField(h *heap.Heap, tag layout.Tag, target heap.Address) heap.Address {
	a := h.Alloc(2 * heap.Word)
	h.WriteWord(a, uint32(tag))
	h.WriteWord(a.Add(heap.Word), heap.Skew(target))
	return a
}

// WriteArray allocates an array object whose elements point at elems,
// in order.
func WriteArray(h *heap.Heap, elems []heap.Address) heap.Address {
	a := h.Alloc(int64(2+len(elems)) * heap.Word)
	h.WriteWord(a, uint32(layout.TagArray))
	h.WriteWord(a.Add(heap.Word), uint32(len(elems)))
	for i, e := range elems {
		h.WriteWord(a.Add(int64(2+i)*heap.Word), heap.Skew(e))
	}
	return a
}

// WriteBlob allocates a byte blob carrying data verbatim.
func WriteBlob(h *heap.Heap, data []byte) heap.Address {
	words := int64(len(data)+heap.Word-1) / heap.Word
	a := h.Alloc(2*heap.Word + words*heap.Word)
	h.WriteWord(a, uint32(layout.TagBlob))
	h.WriteWord(a.Add(heap.Word), uint32(len(data)))
	for i, b := range data {
		h.WriteByte(a.Add(2*heap.Word+int64(i)), b)
	}
	return a
}

// StaticRoot returns the n'th scratch word address below h.Base(), used
// to stand in for a static root cell's single pointer field. Any
// address below Base is otherwise unused dynamic-heap backing storage,
// so it is safe to read and write directly without modeling a separate
// static memory region.
func StaticRoot(h *heap.Heap, n int) heap.Address {
	return heap.Address(int64(n) * heap.Word)
}

// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap models the single contiguous, word-addressed linear memory
// the collector runs over: a reservation [base, limit) inside of which
// allocation bumps a free pointer. There is nothing collector-specific
// here, the same way internal/core knows nothing about Go object layout;
// the collector-aware pieces live in internal/layout and internal/gc.
package heap

import (
	"encoding/binary"
	"fmt"
)

// Address is a word-addressed location in the linear memory. The
// collector's native target is a 32-bit WebAssembly linear memory, so
// Address is a uint32 rather than uintptr.
type Address uint32

// Word is the size in bytes of one heap word. The collector is written
// against this constant rather than a hard-coded 4 so that tests can
// pick a different width without touching the algorithms.
const Word = 4

// Add returns a + n bytes.
func (a Address) Add(n int64) Address { return a + Address(n) }

// Sub returns a - b, in bytes.
func (a Address) Sub(b Address) int64 { return int64(a) - int64(b) }

func (a Address) String() string { return fmt.Sprintf("%#x", uint32(a)) }

// alignWords is the alignment of the heap base, in words (32 words = 128 bytes).
const alignWords = 32

// Skew/unskew: a pointer field's stored word is address-1, so a
// word-aligned pointer (low bit 0) is stored with its low bit set, which
// tells a stored pointer apart from an unboxed integer payload.
func Skew(a Address) uint32   { return uint32(a) - 1 }
func Unskew(v uint32) Address { return Address(v + 1) }

// Heap is the bump-allocated linear memory plus the anchors the driver
// (internal/gc) maintains across cycles. It implements the Allocator
// contract a host runtime would otherwise supply; the write barrier
// side of that contract is internal/rememberedset's job, not Heap's.
type Heap struct {
	mem []byte

	base  Address
	free  Address
	limit Address

	lastFree Address
	maxLive  int64
	reclaimed int64
}

// New reserves a heap of reservation bytes, word-aligning the base to
// alignWords words. The reservation is backed by a plain byte slice;
// callers that want the reservation made with an anonymous mmap (mirroring
// how the wasm host reserves its linear memory) should use NewMapped.
func New(reservation int64) *Heap {
	mem := make([]byte, reservation)
	return newHeap(mem)
}

func newHeap(mem []byte) *Heap {
	base := Address(0)
	for int64(base) < alignWords*Word {
		base += alignWords * Word
	}
	h := &Heap{
		mem:      mem,
		base:     base,
		free:     base,
		limit:    Address(len(mem)),
		lastFree: base,
	}
	return h
}

// Base returns the lowest dynamic-heap address.
func (h *Heap) Base() Address { return h.base }

// Limit returns the end of the reservation.
func (h *Heap) Limit() Address { return h.limit }

// HP returns the current high-water (bump) pointer.
func (h *Heap) HP() Address { return h.free }

// SetHP moves the high-water pointer. Callers (the compactor) only ever
// move it backward or leave it in place.
func (h *Heap) SetHP(a Address) {
	if a < h.base || a > h.free {
		panic(fmt.Sprintf("heap: SetHP(%s) out of [%s,%s]", a, h.base, h.free))
	}
	h.free = a
}

// AlignedHeapBase implements the Allocator contract.
func (h *Heap) AlignedHeapBase() Address { return h.base }

// LastFree is the high-water mark at the end of the previous collection;
// it splits the heap into [base, LastFree) old generation and
// [LastFree, HP) young generation.
func (h *Heap) LastFree() Address { return h.lastFree }

// SetLastFree is called by the driver once a cycle completes.
func (h *Heap) SetLastFree(a Address) { h.lastFree = a }

// MaxLive and Reclaimed are the 64-bit accumulators reported to the host.
func (h *Heap) MaxLive() int64   { return h.maxLive }
func (h *Heap) Reclaimed() int64 { return h.reclaimed }

// AddReclaimed and UpdateMaxLive let the driver update the counters
// without exposing mutable fields directly.
func (h *Heap) AddReclaimed(n int64) { h.reclaimed += n }
func (h *Heap) UpdateMaxLive(live int64) {
	if live > h.maxLive {
		h.maxLive = live
	}
}

// Alloc bumps the free pointer by size bytes and returns the address of
// the new object, the same monotonic bump any mutator allocation performs.
func (h *Heap) Alloc(size int64) Address {
	a := h.free
	n := a.Add(size)
	if n > h.limit {
		panic(fmt.Sprintf("heap: allocation beyond limit: free=%s size=%d limit=%s", a, size, h.limit))
	}
	h.free = n
	return a
}

func (h *Heap) off(a Address) int64 { return int64(a) }

// ReadWord reads one heap word (little-endian) at a.
func (h *Heap) ReadWord(a Address) uint32 {
	o := h.off(a)
	return binary.LittleEndian.Uint32(h.mem[o : o+Word])
}

// WriteWord writes one heap word (little-endian) at a.
func (h *Heap) WriteWord(a Address, v uint32) {
	o := h.off(a)
	binary.LittleEndian.PutUint32(h.mem[o:o+Word], v)
}

// ReadByte/WriteByte read and write a single byte, used for blob payloads.
func (h *Heap) ReadByte(a Address) byte     { return h.mem[h.off(a)] }
func (h *Heap) WriteByte(a Address, v byte) { h.mem[h.off(a)] = v }

// CopyWords copies n words from src to dst. The ranges may overlap only
// when dst <= src, the only direction sliding compaction ever needs:
// objects only ever move toward lower addresses, never higher.
func (h *Heap) CopyWords(dst, src Address, words int64) {
	n := words * Word
	copy(h.mem[h.off(dst):h.off(dst)+n], h.mem[h.off(src):h.off(src)+n])
}

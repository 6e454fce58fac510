// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package markbits is the mark bitmap: one bit per heap word over
// [base, free), with ordered iteration from any start address (young
// cycles start it at last_free to skip the unmarked-by-construction old
// generation) and a fast-forward Advance.
// The bit-twiddling uses math/bits on uint64 words rather than a
// byte-per-bit table.
package markbits

import (
	"math/bits"

	"github.com/mrkbck/slidegc/internal/heap"
)

// BitmapIterEnd is returned once iteration is exhausted.
const BitmapIterEnd = -1

// Bitmap covers [base, limit) of a heap, one bit per heap.Word bytes.
// It is allocated fresh at the start of a cycle and discarded at the
// end; it never outlives a single *gc.Collector cycle.
type Bitmap struct {
	base  heap.Address
	words []uint64 // 64 mark bits per entry
}

// New allocates a bitmap covering [base, limit).
func New(base, limit heap.Address) *Bitmap {
	nWords := (limit.Sub(base) + heap.Word - 1) / heap.Word
	nEntries := (nWords + 63) / 64
	return &Bitmap{base: base, words: make([]uint64, nEntries)}
}

func (b *Bitmap) index(a heap.Address) (word int, bit uint) {
	w := a.Sub(b.base) / heap.Word
	return int(w / 64), uint(w % 64)
}

func (b *Bitmap) addrOf(wordIdx int64) heap.Address {
	return b.base.Add(wordIdx * heap.Word)
}

// Set marks the word at address a as containing a live object.
func (b *Bitmap) Set(a heap.Address) {
	w, bit := b.index(a)
	b.words[w] |= 1 << bit
}

// Get reports whether a is marked.
func (b *Bitmap) Get(a heap.Address) bool {
	w, bit := b.index(a)
	return b.words[w]&(1<<bit) != 0
}

// scanFromBit returns the flat word index (counted from b.base, not a
// byte address) of the first set bit at or after (word, bit), or
// BitmapIterEnd if there is none.
func (b *Bitmap) scanFromBit(word int, bit uint) int64 {
	if word < len(b.words) {
		if m := b.words[word] >> bit; m != 0 {
			return int64(word)*64 + int64(bit) + int64(bits.TrailingZeros64(m))
		}
		word++
	}
	for ; word < len(b.words); word++ {
		if b.words[word] != 0 {
			return int64(word)*64 + int64(bits.TrailingZeros64(b.words[word]))
		}
	}
	return BitmapIterEnd
}

// Advance fast-forwards to the first set bit at or after a, skipping
// whole 64-bit words at a time. All uses the same scan, which is how
// young cycles jump straight to last_free instead of scanning the (by
// construction unmarked) old generation bit by bit. Returns
// BitmapIterEnd if no set bit remains.
func (b *Bitmap) Advance(a heap.Address) int64 {
	word, bit := b.index(a)
	return b.scanFromBit(word, bit)
}

// WordIndexToAddr converts a flat word index (as returned by Advance or
// All) back to a heap address.
func (b *Bitmap) WordIndexToAddr(wordIdx int64) heap.Address {
	return b.addrOf(wordIdx)
}

// All calls fn with the address of every set bit in ascending order,
// starting at from. It stops early if fn returns false.
func (b *Bitmap) All(from heap.Address, fn func(a heap.Address) bool) {
	word, bit := b.index(from)
	for {
		idx := b.scanFromBit(word, bit)
		if idx == BitmapIterEnd {
			return
		}
		if !fn(b.addrOf(idx)) {
			return
		}
		word, bit = int(idx/64), uint(idx%64)
		bit++
		if bit == 64 {
			bit = 0
			word++
		}
	}
}

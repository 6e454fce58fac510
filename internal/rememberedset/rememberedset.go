// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rememberedset is the write barrier's output: an append-only
// collection of field addresses that may hold an old-to-young pointer.
// It stores addresses, not values — the value at a recorded location
// may have been overwritten by the time the collector reads it, which
// is exactly why the mark phase re-checks the current value rather than
// trusting the record.
//
// The append-then-iterate shape needs no up-front counting pass:
// duplicates are permitted, so there is no need to pre-size storage
// exactly.
package rememberedset

import "github.com/mrkbck/slidegc/internal/heap"

// Set is the mutator-facing write barrier target and the collector-facing
// root source for young cycles.
type Set struct {
	fields []heap.Address
}

// Init empties the set. The driver calls this immediately after every
// cycle finishes, so a Set always reflects stores made since the
// previous collection.
func (s *Set) Init() { s.fields = s.fields[:0] }

// Record appends field. Recording the same field twice is harmless;
// Set makes no attempt to deduplicate.
func (s *Set) Record(field heap.Address) { s.fields = append(s.fields, field) }

// Iterate yields every recorded field address in insertion order. It
// stops early if yield returns false.
func (s *Set) Iterate(yield func(field heap.Address) bool) {
	for _, f := range s.fields {
		if !yield(f) {
			return
		}
	}
}

// Len reports how many fields are currently recorded, for diagnostics.
func (s *Set) Len() int { return len(s.fields) }

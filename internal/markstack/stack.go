// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package markstack is the mark phase's scratch LIFO of pending work
// items: an object address paired with the tag to resume scanning it
// with (a real tag, or an array-slice pseudo-tag from internal/layout).
// It gets its own type, rather than a bare slice pushed and popped
// inline, so a *gc.Collector can allocate one per cycle and discard it
// wholesale when the cycle ends.
package markstack

import (
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

// Item is one unit of mark-phase work: scan obj as if it had the given
// tag (which may be an array-slice pseudo-tag encoding a resume index).
type Item struct {
	Addr heap.Address
	Tag  layout.Tag
}

// Stack is a dynamically growing LIFO. The zero value is ready to use.
type Stack struct {
	items []Item
}

// Push adds a work item.
func (s *Stack) Push(addr heap.Address, tag layout.Tag) {
	s.items = append(s.items, Item{Addr: addr, Tag: tag})
}

// Pop removes and returns the most recently pushed item. The second
// return value is false if the stack was empty.
func (s *Stack) Pop() (Item, bool) {
	n := len(s.items)
	if n == 0 {
		return Item{}, false
	}
	it := s.items[n-1]
	s.items = s.items[:n-1]
	return it, true
}

// Empty reports whether the stack has no pending work.
func (s *Stack) Empty() bool { return len(s.items) == 0 }

// Len reports the number of pending work items, mostly for diagnostics.
func (s *Stack) Len() int { return len(s.items) }

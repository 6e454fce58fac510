// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package markstack

import (
	"testing"

	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

func TestPushPopLIFO(t *testing.T) {
	var s Stack
	if !s.Empty() {
		t.Fatal("new stack should be empty")
	}
	s.Push(heap.Address(100), layout.TagMutbox)
	s.Push(heap.Address(200), layout.TagArray)

	it, ok := s.Pop()
	if !ok || it.Addr != 200 || it.Tag != layout.TagArray {
		t.Fatalf("first pop = %+v, %v, want addr=200 tag=Array", it, ok)
	}
	it, ok = s.Pop()
	if !ok || it.Addr != 100 || it.Tag != layout.TagMutbox {
		t.Fatalf("second pop = %+v, %v, want addr=100 tag=MutBox", it, ok)
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("pop on empty stack should report false")
	}
}

func TestLen(t *testing.T) {
	var s Stack
	for i := 0; i < 5; i++ {
		s.Push(heap.Address(i), layout.TagOneWordFiller)
	}
	if s.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", s.Len())
	}
	s.Pop()
	if s.Len() != 4 {
		t.Fatalf("Len() after pop = %d, want 4", s.Len())
	}
}

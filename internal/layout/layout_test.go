// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout_test

import (
	"testing"

	"github.com/mrkbck/slidegc/internal/gctest"
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

func TestObjectSizeFixedShapes(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	mb := gctest.WriteMutbox(h, h.Base())
	if got, want := layout.ObjectSize(h, mb), int64(2); got != want {
		t.Errorf("MutBox size = %d, want %d", got, want)
	}

	blob := gctest.WriteBlob(h, []byte("hello"))
	if got, want := layout.ObjectSize(h, blob), int64(2+2); got != want { // 5 bytes -> 2 words
		t.Errorf("Blob size = %d, want %d", got, want)
	}
}

func TestVisitPointerFieldsSkipsStatic(t *testing.T) {
	h := gctest.NewHeap(1 << 16)
	base := h.Base()
	dynamicTarget := gctest.WriteFiller(h)

	staticTarget := heap.Address(base - 2*heap.Word) // pretend static area below base
	mbToDynamic := gctest.WriteMutbox(h, dynamicTarget)
	mbToStatic := gctest.WriteMutbox(h, staticTarget)

	var got []heap.Address
	layout.VisitPointerFields(h, mbToDynamic, layout.TagMutbox, base, 0, func(f heap.Address) {
		got = append(got, f)
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 field visited for dynamic target, got %d", len(got))
	}

	got = nil
	layout.VisitPointerFields(h, mbToStatic, layout.TagMutbox, base, 0, func(f heap.Address) {
		got = append(got, f)
	})
	if len(got) != 0 {
		t.Fatalf("expected 0 fields visited for static target, got %d", len(got))
	}
}

func TestVisitPointerFieldsArraySlicing(t *testing.T) {
	h := gctest.NewHeap(1 << 20)
	base := h.Base()

	n := 300
	elems := make([]heap.Address, n)
	for i := range elems {
		elems[i] = gctest.WriteFiller(h)
	}
	arr := gctest.WriteArray(h, elems)

	var visited int
	start := int64(0)
	slices := 0
	for {
		next := layout.VisitPointerFields(h, arr, layout.TagArray, base, start, func(heap.Address) {
			visited++
		})
		slices++
		if next >= int64(n) {
			break
		}
		start = next
	}
	if visited != n {
		t.Fatalf("visited %d fields, want %d", visited, n)
	}
	wantSlices := (n + layout.SliceIncrement - 1) / layout.SliceIncrement
	if slices != wantSlices {
		t.Fatalf("took %d slices, want %d", slices, wantSlices)
	}
}

func TestVisitAllPointerFieldsCoversWholeArray(t *testing.T) {
	h := gctest.NewHeap(1 << 20)
	base := h.Base()

	n := 300
	elems := make([]heap.Address, n)
	for i := range elems {
		elems[i] = gctest.WriteFiller(h)
	}
	arr := gctest.WriteArray(h, elems)

	var visited int
	layout.VisitAllPointerFields(h, arr, layout.TagArray, base, func(heap.Address) {
		visited++
	})
	if visited != n {
		t.Fatalf("visited %d fields in one call, want %d", visited, n)
	}
}

func TestSliceTagRoundTrip(t *testing.T) {
	tag := layout.EncodeSliceTag(254)
	real, start := layout.DecodeSliceTag(tag)
	if real != layout.TagArray || start != 254 {
		t.Fatalf("DecodeSliceTag(EncodeSliceTag(254)) = (%s, %d), want (Array, 254)", real, start)
	}
	real, start = layout.DecodeSliceTag(layout.TagMutbox)
	if real != layout.TagMutbox || start != 0 {
		t.Fatalf("DecodeSliceTag(TagMutbox) = (%s, %d), want (MutBox, 0)", real, start)
	}
}

func TestIsHeaderLowBit(t *testing.T) {
	if !layout.IsHeader(uint32(layout.TagObject)) {
		t.Error("TagObject should have low bit set")
	}
	if layout.IsHeader(uint32(heap.Address(128))) {
		t.Error("a word-aligned field address should have low bit clear")
	}
}

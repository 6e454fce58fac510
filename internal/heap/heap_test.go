// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "testing"

func TestSkewRoundTrip(t *testing.T) {
	for _, a := range []Address{128, 256, 4096, 0x1000} {
		if got := Unskew(Skew(a)); got != a {
			t.Errorf("Unskew(Skew(%s)) = %s, want %s", a, got, a)
		}
	}
}

func TestAllocBumpsFree(t *testing.T) {
	h := New(1 << 16)
	base := h.Base()
	if h.HP() != base {
		t.Fatalf("HP() = %s, want %s", h.HP(), base)
	}
	a := h.Alloc(16)
	if a != base {
		t.Fatalf("Alloc returned %s, want %s", a, base)
	}
	if h.HP() != base.Add(16) {
		t.Fatalf("HP() = %s, want %s", h.HP(), base.Add(16))
	}
}

func TestAllocBeyondLimitPanics(t *testing.T) {
	h := New(1 << 10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic allocating beyond limit")
		}
	}()
	h.Alloc(1 << 20)
}

func TestReadWriteWord(t *testing.T) {
	h := New(1 << 12)
	a := h.Alloc(8)
	h.WriteWord(a, 0xdeadbeef)
	if got := h.ReadWord(a); got != 0xdeadbeef {
		t.Fatalf("ReadWord = %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestCopyWords(t *testing.T) {
	h := New(1 << 12)
	src := h.Alloc(16)
	h.WriteWord(src, 1)
	h.WriteWord(src.Add(4), 2)
	h.WriteWord(src.Add(8), 3)
	h.WriteWord(src.Add(12), 4)
	dst := h.Base()
	h.CopyWords(dst, src, 4)
	for i, want := range []uint32{1, 2, 3, 4} {
		if got := h.ReadWord(dst.Add(int64(i) * Word)); got != want {
			t.Errorf("word %d = %d, want %d", i, got, want)
		}
	}
}

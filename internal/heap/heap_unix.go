// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package heap

import "golang.org/x/sys/unix"

// NewMapped reserves a heap backed by an anonymous mmap, mirroring how
// the wasm host reserves its linear memory up front rather than growing
// it word by word. It falls back to New (a plain slice) if the mmap
// syscall itself fails, since a failed reservation here is not a
// collector invariant violation, just an environment limitation.
func NewMapped(reservation int64) *Heap {
	mem, err := unix.Mmap(-1, 0, int(reservation), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return New(reservation)
	}
	return newHeap(mem)
}

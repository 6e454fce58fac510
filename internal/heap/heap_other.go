// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package heap

// NewMapped is identical to New on platforms without an anonymous-mmap
// syscall available through golang.org/x/sys/unix.
func NewMapped(reservation int64) *Heap {
	return New(reservation)
}

// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout is the tagged-object walker: given an object's header
// address it knows the object's size in words and can visit its
// pointer fields. It is the collector's only idea of "what an object
// looks like" — everything above it (marking, compaction) works purely
// in terms of addresses, tags and field offsets.
package layout

import (
	"fmt"

	"github.com/mrkbck/slidegc/internal/heap"
)

// Tag identifies an object's shape. Tag values of legitimate objects
// satisfy TagObject <= tag <= TagNull and all such values have the low
// bit set, so a word can be told apart from a field address (always
// word-aligned, low bit clear) purely by that bit.
type Tag uint32

const (
	TagObject Tag = 2*iota + 1
	TagObjInd
	TagArray
	TagBits64
	TagMutbox
	TagClosure
	TagSome
	TagVariant
	TagBlob
	TagFwdPtr
	TagBits32
	TagBigint
	TagConcat
	TagOneWordFiller
	TagFreeSpace
	TagNull
)

// TagArraySliceMin is the first pseudo-tag value used on the mark stack to
// record an in-progress array scan; any tag >= TagArraySliceMin is not a
// real object tag, it is TagArraySliceMin + (the next index to resume
// scanning at). It deliberately reuses the same "looks like a tag word"
// space above TagNull rather than a separate encoding, since the mark
// stack only ever holds one or the other for a given work item.
const TagArraySliceMin Tag = 32

// SliceIncrement bounds how many array elements VisitPointerFields
// processes per call, so that scanning one huge array can't monopolize
// the mark stack's drain loop.
const SliceIncrement = 127

func (t Tag) String() string {
	switch t {
	case TagObject:
		return "Object"
	case TagObjInd:
		return "ObjInd"
	case TagArray:
		return "Array"
	case TagBits64:
		return "Bits64"
	case TagMutbox:
		return "MutBox"
	case TagClosure:
		return "Closure"
	case TagSome:
		return "Some"
	case TagVariant:
		return "Variant"
	case TagBlob:
		return "Blob"
	case TagFwdPtr:
		return "FwdPtr"
	case TagBits32:
		return "Bits32"
	case TagBigint:
		return "BigInt"
	case TagConcat:
		return "Concat"
	case TagOneWordFiller:
		return "OneWordFiller"
	case TagFreeSpace:
		return "FreeSpace"
	case TagNull:
		return "Null"
	default:
		if t >= TagArraySliceMin {
			return fmt.Sprintf("ArraySlice(@%d)", t-TagArraySliceMin)
		}
		return fmt.Sprintf("Tag(%d)", t)
	}
}

// IsHeader reports whether v, read verbatim from a heap word, is a tag
// word rather than a raw (unskewed) field address, the kind of link the
// compactor's threading stores in a header. Word-aligned heap addresses
// have their low bit clear; every legitimate tag has it set. This is the
// discrimination the compactor's unthreading loop relies on.
func IsHeader(v uint32) bool { return v&1 == 1 }

// Memory is the subset of *heap.Heap the walker needs: word-level
// read/write at an address. Kept as an interface (rather than depending
// on *heap.Heap concretely) purely so internal/compact's temporarily
// overwritten headers during threading are exercised through the same
// seam as everywhere else.
type Memory interface {
	ReadWord(a heap.Address) uint32
	WriteWord(a heap.Address, v uint32)
}

// TagOf reads the tag word at obj. It does not interpret array-slice
// pseudo-tags; callers that pop work items off the mark stack do that
// decoding themselves (DecodeSliceTag below), since only the mark stack
// ever holds a pseudo-tag — a live object's header is always a real tag.
func TagOf(m Memory, obj heap.Address) Tag {
	return Tag(m.ReadWord(obj))
}

// DecodeSliceTag splits a mark-stack work item's tag into the real tag
// of the object and the array index to resume scanning at (0 for
// anything that isn't a partially-scanned array).
func DecodeSliceTag(t Tag) (real Tag, start int64) {
	if t >= TagArraySliceMin {
		return TagArray, int64(t - TagArraySliceMin)
	}
	return t, 0
}

// EncodeSliceTag is the inverse of DecodeSliceTag, used to re-push a
// suffix of an array onto the mark stack.
func EncodeSliceTag(start int64) Tag {
	return TagArraySliceMin + Tag(start)
}

// words rounds up a byte count to a whole number of heap words.
func words(bytes int64) int64 {
	return (bytes + heap.Word - 1) / heap.Word
}

// ObjectSize returns the total size of the object at addr, in words,
// including its header.
func ObjectSize(m Memory, addr heap.Address) int64 {
	tag := TagOf(m, addr)
	switch tag {
	case TagObject:
		nFields := int64(m.ReadWord(addr.Add(heap.Word)))
		return 2 + nFields
	case TagObjInd:
		return 2
	case TagArray:
		length := int64(m.ReadWord(addr.Add(heap.Word)))
		return 2 + length
	case TagBits64:
		return 3
	case TagMutbox:
		return 2
	case TagClosure:
		nCaptured := int64(m.ReadWord(addr.Add(2 * heap.Word)))
		return 3 + nCaptured
	case TagSome:
		return 2
	case TagVariant:
		return 3
	case TagBlob:
		byteLen := int64(m.ReadWord(addr.Add(heap.Word)))
		return 2 + words(byteLen)
	case TagFwdPtr:
		return 2
	case TagBits32:
		return 2
	case TagBigint:
		nWords := int64(m.ReadWord(addr.Add(heap.Word)))
		return 2 + nWords
	case TagConcat:
		return 4
	case TagOneWordFiller:
		return 1
	case TagFreeSpace:
		return int64(m.ReadWord(addr.Add(heap.Word)))
	default:
		panic(fmt.Sprintf("layout: ObjectSize: invalid tag %s at %s", tag, addr))
	}
}

// fieldOffsets returns the byte offsets (relative to addr) of the fixed
// pointer-shaped fields of a non-array object of the given tag. Array
// objects are handled separately by VisitPointerFields, since their
// field count is dynamic and bounded by SliceIncrement per call.
func fieldOffsets(tag Tag) []int64 {
	switch tag {
	case TagObjInd, TagMutbox, TagSome:
		return []int64{heap.Word}
	case TagVariant:
		return []int64{2 * heap.Word}
	case TagConcat:
		return []int64{2 * heap.Word, 3 * heap.Word}
	case TagFwdPtr:
		return []int64{heap.Word}
	default:
		return nil
	}
}

// VisitPointerFields calls onField(fieldAddr) for every pointer field of
// the object at obj whose (unskewed) referent lies in the dynamic heap,
// i.e. >= heapBase — fields referring to static objects are skipped,
// since those never move and never need marking or threading.
//
// start selects the array index to resume at for TagArray (decode a
// mark-stack pseudo-tag with DecodeSliceTag first); it is ignored for
// every other tag. The return value is the next index to resume
// scanning at, or the array's length if the object is fully scanned.
// Callers re-push a suffix slice onto the mark stack themselves when
// next < length — that is the mark stack's concern, not this package's.
func VisitPointerFields(m Memory, obj heap.Address, tag Tag, heapBase heap.Address, start int64, onField func(field heap.Address)) (next int64) {
	maybeVisit := func(fieldAddr heap.Address) {
		v := m.ReadWord(fieldAddr)
		target := heap.Unskew(v)
		if target >= heapBase {
			onField(fieldAddr)
		}
	}

	if tag != TagArray {
		switch tag {
		case TagObject:
			nFields := int64(m.ReadWord(obj.Add(heap.Word)))
			for i := int64(0); i < nFields; i++ {
				maybeVisit(obj.Add(2*heap.Word + i*heap.Word))
			}
		case TagClosure:
			nCaptured := int64(m.ReadWord(obj.Add(2 * heap.Word)))
			for i := int64(0); i < nCaptured; i++ {
				maybeVisit(obj.Add(3*heap.Word + i*heap.Word))
			}
		default:
			for _, off := range fieldOffsets(tag) {
				maybeVisit(obj.Add(off))
			}
		}
		return 0
	}

	length := int64(m.ReadWord(obj.Add(heap.Word)))
	end := start + SliceIncrement
	if end > length {
		end = length
	}
	for i := start; i < end; i++ {
		maybeVisit(obj.Add(2*heap.Word + i*heap.Word))
	}
	return end
}

// ArrayLen returns the element count of an array object; it is also the
// object's field count, since every array element is one heap word.
func ArrayLen(m Memory, obj heap.Address) int64 {
	return int64(m.ReadWord(obj.Add(heap.Word)))
}

// VisitAllPointerFields visits every pointer field of obj in one call,
// looping internally over array slices rather than returning a resume
// point. The compactor's threading passes have no mark stack to resume
// from and always need a whole object's fields in one pass; only the
// mark phase needs the bounded, resumable form above.
func VisitAllPointerFields(m Memory, obj heap.Address, tag Tag, heapBase heap.Address, onField func(field heap.Address)) {
	start := int64(0)
	for {
		next := VisitPointerFields(m, obj, tag, heapBase, start, onField)
		if tag != TagArray {
			return
		}
		if next >= ArrayLen(m, obj) {
			return
		}
		start = next
	}
}

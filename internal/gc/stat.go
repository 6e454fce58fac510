// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// Statistic is a node in a tree describing one cycle's byte accounting,
// broken down by category: the same leaf/group constructors and the
// same invariant that a group's Value is the sum of its children's
// that an analogous breakdown of a static heap dump would use, adapted
// here to render `gcshell stats`. A fresh tree describes each cycle,
// since byte accounting changes every collection.
type Statistic struct {
	Name  string
	Value int64

	children map[string]*Statistic
}

func leafStat(name string, value int64) *Statistic {
	return &Statistic{Name: name, Value: value}
}

func groupStat(name string, children ...*Statistic) *Statistic {
	var cmap map[string]*Statistic
	var value int64
	if len(children) != 0 {
		cmap = make(map[string]*Statistic, len(children))
		for _, child := range children {
			cmap[child.Name] = child
			value += child.Value
		}
	}
	return &Statistic{Name: name, Value: value, children: cmap}
}

// Sub walks chain from s, returning nil if any name along the way is
// missing or s is a leaf.
func (s *Statistic) Sub(chain ...string) *Statistic {
	for _, name := range chain {
		if s == nil {
			return nil
		}
		s = s.children[name]
	}
	return s
}

// setChild replaces (or adds) a child, keeping s.Value consistent.
func (s *Statistic) setChild(child *Statistic) {
	if len(s.children) == 0 {
		panic("gc: cannot add children to a leaf statistic")
	}
	if old, ok := s.children[child.Name]; ok {
		s.Value -= old.Value
	}
	s.children[child.Name] = child
	s.Value += child.Value
}

// Children calls yield with every direct child, in no particular
// order, stopping early if yield returns false.
func (s *Statistic) Children(yield func(*Statistic) bool) {
	for _, child := range s.children {
		if !yield(child) {
			return
		}
	}
}

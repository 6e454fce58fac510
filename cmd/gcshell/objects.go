// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

func newObjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Walk every object of a freshly built heap and print a breakdown of count and bytes by object tag",
		RunE:  runObjects,
	}
	return cmd
}

func runObjects(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	type tally struct {
		count int
		bytes int64
	}
	byTag := map[layout.Tag]*tally{}

	for p := s.heap.Base(); p < s.heap.HP(); {
		tag := layout.TagOf(s.heap, p)
		size := layout.ObjectSize(s.heap, p)
		t := byTag[tag]
		if t == nil {
			t = &tally{}
			byTag[tag] = t
		}
		t.count++
		t.bytes += size * heap.Word
		p = p.Add(size * heap.Word)
	}

	var tags []layout.Tag
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return byTag[tags[i]].bytes > byTag[tags[j]].bytes })

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "tag\tcount\tbytes")
	for _, tag := range tags {
		t := byTag[tag]
		fmt.Fprintf(w, "%s\t%d\t%d\n", tag, t.count, t.bytes)
	}
	return w.Flush()
}

// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/mrkbck/slidegc/internal/gc"
	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/workload"
)

// addSessionFlags registers the persistent flags every subcommand reads
// to build its synthetic heap.
func addSessionFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64("reservation", 16<<20, "heap reservation in bytes")
	cmd.PersistentFlags().Int("live", 2000, "number of live objects in the generated list")
	cmd.PersistentFlags().Float64("garbage-ratio", 0.6, "approximate fraction of heap bytes that are dead filler")
	cmd.PersistentFlags().Int64("seed", 1, "random seed for the generated heap")
}

// session bundles a freshly built synthetic heap with a Collector
// configured to keep it alive through its one static root.
type session struct {
	heap *heap.Heap
	root heap.Address
	col  *gc.Collector
}

func newSession(cmd *cobra.Command) (*session, error) {
	reservation, err := cmd.Flags().GetInt64("reservation")
	if err != nil {
		return nil, err
	}
	live, err := cmd.Flags().GetInt("live")
	if err != nil {
		return nil, err
	}
	ratio, err := cmd.Flags().GetFloat64("garbage-ratio")
	if err != nil {
		return nil, err
	}
	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return nil, err
	}

	h, root := workload.Build(workload.Options{
		Reservation:  reservation,
		LiveObjects:  live,
		GarbageRatio: ratio,
		Seed:         seed,
	})

	c := gc.New(h)
	c.Roots.Static = []heap.Address{root}
	return &session{heap: h, root: root, col: c}, nil
}

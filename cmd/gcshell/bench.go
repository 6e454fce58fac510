// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time repeated collection cycles over a freshly built heap",
		RunE:  runBench,
	}
	cmd.Flags().Int("cycles", 20, "number of cycles to time")
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	cycles, err := cmd.Flags().GetInt("cycles")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	var totalReclaimed int64
	start := time.Now()
	for i := 0; i < cycles; i++ {
		stats := s.col.Cycle()
		totalReclaimed += stats.Reclaimed
	}
	elapsed := time.Since(start)

	fmt.Printf("%d cycles in %s (%s/cycle), %d bytes reclaimed total\n",
		cycles, elapsed, elapsed/time.Duration(cycles), totalReclaimed)
	return nil
}

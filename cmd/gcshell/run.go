// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more collection cycles and print a one-line summary per cycle",
		RunE:  runRun,
	}
	cmd.Flags().Int("cycles", 5, "number of cycles to run")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cycles, err := cmd.Flags().GetInt("cycles")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "cycle\tstrategy\tmarked\tgeneration\tsurvival\tcompacted\treclaimed\thp")
	for i := 0; i < cycles; i++ {
		stats := s.col.Cycle()
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.3f\t%t\t%d\t%s\n",
			i, stats.Strategy, stats.MarkedBytes, stats.GenerationBytes,
			stats.SurvivalRate, stats.Compacted, stats.Reclaimed, stats.NewHP)
	}
	return w.Flush()
}

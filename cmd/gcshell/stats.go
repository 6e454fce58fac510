// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrkbck/slidegc/internal/gc"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run one cycle and print its byte-accounting tree",
		RunE:  runStats,
	}
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	s.col.Cycle()
	printStatistic(s.col.Stats(), 0)
	return nil
}

func printStatistic(stat *gc.Statistic, depth int) {
	fmt.Printf("%s%s: %d\n", strings.Repeat("  ", depth), stat.Name, stat.Value)
	stat.Children(func(child *gc.Statistic) bool {
		printStatistic(child, depth+1)
		return true
	})
}

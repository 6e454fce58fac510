// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gcshell drives the collector over a synthetically generated
// heap — there being no real embedder to attach to — so its behavior
// can be exercised and inspected from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "gcshell",
		Short: "Drive the sliding generational collector over a synthetic heap",
	}
	addSessionFlags(root)

	root.AddCommand(newRunCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newObjectsCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

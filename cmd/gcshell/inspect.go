// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/mrkbck/slidegc/internal/heap"
	"github.com/mrkbck/slidegc/internal/layout"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Open an interactive REPL over a synthetic heap",
		RunE:  runInspect,
	}
	return cmd
}

// runInspect is a way to poke around a heap interactively over a
// terminal REPL rather than a one-shot command.
func runInspect(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "gcshell> ",
		HistoryFile: "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println(`commands: cycle, root, addr <hex>, objects, stats, quit`)
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "cycle":
			stats := s.col.Cycle()
			fmt.Printf("strategy=%s marked=%d generation=%d survival=%.3f compacted=%t reclaimed=%d hp=%s\n",
				stats.Strategy, stats.MarkedBytes, stats.GenerationBytes, stats.SurvivalRate,
				stats.Compacted, stats.Reclaimed, stats.NewHP)
		case "root":
			v := heap.Unskew(s.heap.ReadWord(s.root))
			printObject(s, v)
		case "addr":
			if len(fields) != 2 {
				fmt.Println("usage: addr <hex>")
				continue
			}
			n, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
			if err != nil {
				fmt.Println(err)
				continue
			}
			printObject(s, heap.Address(n))
		case "objects":
			if err := runObjects(cmd, nil); err != nil {
				fmt.Println(err)
			}
		case "stats":
			if s.col.Stats() == nil {
				fmt.Println("no cycle has run yet")
				continue
			}
			printStatistic(s.col.Stats(), 0)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func printObject(s *session, addr heap.Address) {
	if addr < s.heap.Base() || addr >= s.heap.HP() {
		fmt.Printf("%s: out of [%s,%s)\n", addr, s.heap.Base(), s.heap.HP())
		return
	}
	tag := layout.TagOf(s.heap, addr)
	size := layout.ObjectSize(s.heap, addr)
	fmt.Printf("%s: tag=%s words=%d\n", addr, tag, size)
}

// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import "testing"

func TestChooseForcesFullAboveCriticalLimit(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Choose(p.CriticalMemoryLimit+1, 0); got != Full {
		t.Fatalf("Choose above critical limit = %s, want Full", got)
	}
}

func TestChooseForcesFullPeriodically(t *testing.T) {
	p := DefaultPolicy()
	// cycleIndex is 0-based; every third cycle (indices 2, 5, 8, ...) is Full.
	for i, want := range []Kind{Young, Young, Full, Young, Young, Full} {
		if got := p.Choose(0, i); got != want {
			t.Errorf("Choose(0, %d) = %s, want %s", i, got, want)
		}
	}
}

func TestChooseDefaultsYoung(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Choose(0, 0); got != Young {
		t.Fatalf("Choose(0,0) = %s, want Young", got)
	}
}

func TestShouldCompactGate(t *testing.T) {
	p := DefaultPolicy()
	if p.ShouldCompact(0.95) {
		t.Error("survival rate exactly at threshold should not compact")
	}
	if !p.ShouldCompact(0.94) {
		t.Error("survival rate below threshold should compact")
	}
	if p.ShouldCompact(1.0) {
		t.Error("survival rate of 1.0 should not compact")
	}
}

func TestSurvivalRate(t *testing.T) {
	if got := SurvivalRate(50, 100); got != 0.5 {
		t.Fatalf("SurvivalRate(50,100) = %v, want 0.5", got)
	}
	if got := SurvivalRate(0, 0); got != 1 {
		t.Fatalf("SurvivalRate(0,0) = %v, want 1 (empty generation trivially survives)", got)
	}
}

func TestShouldDoGCTrigger(t *testing.T) {
	reservation := int64(1) << 32
	maxLive := MaxLive(reservation)
	if ShouldDoGC(maxLive-1, maxLive) {
		t.Error("should not trigger below max_live")
	}
	if !ShouldDoGC(maxLive, maxLive) {
		t.Error("should trigger at max_live")
	}
	if !ShouldDoGC(maxLive+1, maxLive) {
		t.Error("should trigger above max_live")
	}
}

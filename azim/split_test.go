// Copyright 2026 The go-azimint Authors. SPDX-License-Identifier: Apache-2.0

package azim

import (
	"math"
	"testing"
)

// unitGrid returns an exact grid with Delta == 1, bypassing the upper nudge,
// so expected weights come out as round numbers.
func unitGrid(bins int) Grid {
	return Grid{Min: 0, Max: float64(bins), Delta: 1, Bins: bins}
}

func TestSpanAxisThreeBinSpread(t *testing.T) {
	g := unitGrid(4)
	// A box of half width 1 centered on 1.5 covers [0.5, 2.5].
	s, ok := spanAxis(g, 0.5, 2.5)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	if s.binLo != 0 || s.binHi != 2 {
		t.Fatalf("bins = [%d, %d], want [0, 2]", s.binLo, s.binHi)
	}
	want := []float64{0.25, 0.5, 0.25}
	for b := 0; b <= 2; b++ {
		if got := s.weight(b); math.Abs(got-want[b]) > 1e-15 {
			t.Errorf("weight(%d) = %v, want %v", b, got, want[b])
		}
	}
	if s.frac != 1 {
		t.Errorf("frac = %v, want 1", s.frac)
	}
}

func TestSpanAxisSingleBin(t *testing.T) {
	g := unitGrid(4)
	s, ok := spanAxis(g, 1.25, 1.75)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	if s.binLo != 1 || s.binHi != 1 {
		t.Fatalf("bins = [%d, %d], want [1, 1]", s.binLo, s.binHi)
	}
	if got := s.weight(1); got != 1 {
		t.Errorf("weight(1) = %v, want 1", got)
	}
}

func TestSpanAxisPointBox(t *testing.T) {
	g := unitGrid(4)

	s, ok := spanAxis(g, 2.5, 2.5)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	if got := s.weight(2); got != 1 {
		t.Errorf("weight(2) = %v, want 1", got)
	}

	// A point exactly at the lower range edge still belongs to bin 0.
	s, ok = spanAxis(g, 0, 0)
	if !ok {
		t.Fatal("spanAxis(0, 0) ok = false, want true")
	}
	if s.binLo != 0 || s.binHi != 0 {
		t.Errorf("bins = [%d, %d], want [0, 0]", s.binLo, s.binHi)
	}
	if got := s.weight(0); got != 1 {
		t.Errorf("weight(0) = %v, want 1", got)
	}
}

func TestSpanAxisClippedWeightsSumToInsideFraction(t *testing.T) {
	g := unitGrid(4)
	tests := []struct {
		name         string
		lower, upper float64
		wantSum      float64
	}{
		{"clipped left", -0.5, 1.5, 0.75},
		{"clipped right", 3.5, 4.5, 0.5},
		{"collapsed after clip", -1.5, 0.5, 0.25},
		{"fully inside", 1, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := spanAxis(g, tt.lower, tt.upper)
			if !ok {
				t.Fatal("spanAxis() ok = false, want true")
			}
			sum := 0.0
			for b := s.binLo; b <= s.binHi; b++ {
				sum += s.weight(b)
			}
			if math.Abs(sum-tt.wantSum) > 1e-15 {
				t.Errorf("weight sum = %v, want %v", sum, tt.wantSum)
			}
		})
	}
}

func TestSpanAxisDiscards(t *testing.T) {
	g := unitGrid(4)
	tests := []struct {
		name         string
		lower, upper float64
	}{
		{"fully below", -3, -1},
		{"fully above", 5, 6},
		{"at upper edge", 4, 5},
		{"nan", math.NaN(), math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := spanAxis(g, tt.lower, tt.upper); ok {
				t.Errorf("spanAxis(%v, %v) ok = true, want false", tt.lower, tt.upper)
			}
		})
	}
}

func TestEmitAxisSkipsZeroWeights(t *testing.T) {
	g := unitGrid(4)

	// [-2, 0] touches the range in a single point, so every weight is zero.
	s, ok := spanAxis(g, -2, 0)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	var ar arena
	emitAxis(&ar, s, 0, 1, 7)
	if len(ar.bins) != 0 {
		t.Errorf("emitted %d entries for a zero overlap, want 0", len(ar.bins))
	}

	// [0.5, 2] ends exactly on a bin edge; the upper bin gets weight zero
	// and must not be stored.
	s, ok = spanAxis(g, 0.5, 2)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	ar = arena{}
	emitAxis(&ar, s, 0, 1, 7)
	if len(ar.bins) != 2 {
		t.Fatalf("emitted %d entries, want 2", len(ar.bins))
	}
	sum := 0.0
	for _, e := range ar.entries {
		if e.Pixel != 7 {
			t.Errorf("entry pixel = %d, want 7", e.Pixel)
		}
		sum += float64(e.Coef)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("emitted weight sum = %v, want 1", sum)
	}
}

func TestEmitAxisScalesAndOffsets(t *testing.T) {
	g := unitGrid(4)
	s, ok := spanAxis(g, 0.5, 2.5)
	if !ok {
		t.Fatal("spanAxis() ok = false, want true")
	}
	var ar arena
	emitAxis(&ar, s, 10, 0.5, 3)
	want := map[int32]float64{10: 0.125, 11: 0.25, 12: 0.125}
	if len(ar.bins) != len(want) {
		t.Fatalf("emitted %d entries, want %d", len(ar.bins), len(want))
	}
	for i, bin := range ar.bins {
		w, ok := want[bin]
		if !ok {
			t.Errorf("unexpected bin %d", bin)
			continue
		}
		if got := float64(ar.entries[i].Coef); math.Abs(got-w) > 1e-7 {
			t.Errorf("bin %d coef = %v, want %v", bin, got, w)
		}
	}
}

func TestStripPlan(t *testing.T) {
	if got := stripPlan(nil, 1<<20); got != 1 {
		t.Errorf("stripPlan(nil) = %d, want 1", got)
	}
}

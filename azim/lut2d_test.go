// Copyright 2026 go-azimint Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package azim

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// ramp2D extends rampGeometry with azimuthal boxes strictly inside
// (-pi, pi), so the seam clamp never bites.
func ramp2D(n int) Geometry[float64] {
	g := rampGeometry(n, 0, 10)
	g.Azimuth = make([]float64, n)
	g.DAzimuth = make([]float64, n)
	for i := range g.Azimuth {
		g.Azimuth[i] = -2 + 4*math.Mod(float64(i)*0.7548776662, 1)
		g.DAzimuth[i] = 0.01 + 0.3*math.Mod(float64(i)*0.2862135792, 1)
	}
	return g
}

func TestBuildLUT2DCornerWeights(t *testing.T) {
	g := Geometry[float64]{
		Radial:   []float64{1},
		DRadial:  []float64{0.5},
		Azimuth:  []float64{0},
		DAzimuth: []float64{0.25},
	}
	lut, err := BuildLUT2D(g, Options2D{
		RadialBins:   4,
		AzimuthBins:  4,
		RadialRange:  &Range{Min: 0, Max: 4},
		AzimuthRange: &Range{Min: -1, Max: 1},
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	// Radial box [0.5, 1.5] splits bins 0 and 1 evenly; azimuthal box
	// [-0.25, 0.25] splits bins 1 and 2 evenly. Each corner holds the
	// product of its per-axis fractions.
	want := map[int]float64{
		0*4 + 1: 0.25,
		0*4 + 2: 0.25,
		1*4 + 1: 0.25,
		1*4 + 2: 0.25,
	}
	if lut.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", lut.Len(), len(want))
	}
	for b := 0; b < lut.Bins(); b++ {
		entries := lut.Entries(b)
		w, hit := want[b]
		if !hit {
			if len(entries) != 0 {
				t.Errorf("bin %d has %d entries, want 0", b, len(entries))
			}
			continue
		}
		if len(entries) != 1 {
			t.Fatalf("bin %d has %d entries, want 1", b, len(entries))
		}
		if got := float64(entries[0].Coef); math.Abs(got-w) > 1e-6 {
			t.Errorf("bin %d coef = %v, want %v", b, got, w)
		}
	}
}

func TestBuildLUT2DInteriorInverseArea(t *testing.T) {
	g := Geometry[float64]{
		Radial:   []float64{2},
		DRadial:  []float64{1.5},
		Azimuth:  []float64{0},
		DAzimuth: []float64{0.75},
	}
	lut, err := BuildLUT2D(g, Options2D{
		RadialBins:   4,
		AzimuthBins:  4,
		RadialRange:  &Range{Min: 0, Max: 4},
		AzimuthRange: &Range{Min: -1, Max: 1},
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	// Both boxes span [0.5, 3.5] in bin units, touching all four bins per
	// axis: 16 entries.
	if lut.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", lut.Len())
	}
	// Interior bins carry 1/span per axis, corners the clipped edge
	// fractions.
	interior := 1.0 / 9
	corner := (0.5 / 3) * (0.5 / 3)
	if got := float64(lut.Entries(1*4 + 2)[0].Coef); math.Abs(got-interior) > 1e-6 {
		t.Errorf("interior coef = %v, want %v", got, interior)
	}
	if got := float64(lut.Entries(0)[0].Coef); math.Abs(got-corner) > 1e-6 {
		t.Errorf("corner coef = %v, want %v", got, corner)
	}
	sum := 0.0
	for b := 0; b < lut.Bins(); b++ {
		for _, e := range lut.Entries(b) {
			sum += float64(e.Coef)
		}
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("total weight = %v, want 1", sum)
	}
}

func TestBuildLUT2DPartitionOfUnity(t *testing.T) {
	const n = 512
	g := ramp2D(n)
	lut, err := BuildLUT2D(g, Options2D{RadialBins: 16, AzimuthBins: 8})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	sums := pixelWeightSums(lut)
	if len(sums) != n {
		t.Fatalf("pixels with entries = %d, want %d", len(sums), n)
	}
	for px, sum := range sums {
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("pixel %d weight sum = %v, want 1", px, sum)
		}
	}
}

func TestBuildLUT2DRowMajorIndex(t *testing.T) {
	g := Geometry[float64]{Radial: []float64{2.5}, Azimuth: []float64{0.6}}
	lut, err := BuildLUT2D(g, Options2D{
		RadialBins:   4,
		AzimuthBins:  4,
		RadialRange:  &Range{Min: 0, Max: 4},
		AzimuthRange: &Range{Min: -1, Max: 1},
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	if lut.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", lut.Len())
	}
	// Radial bin 2, azimuthal bin 3: combined index 2*4+3.
	if got := lut.Entries(11); len(got) != 1 || got[0] != (Entry{Pixel: 0, Coef: 1}) {
		t.Errorf("Entries(11) = %v, want the single unit entry", got)
	}
	if lut.Dims() != 2 {
		t.Errorf("Dims() = %d, want 2", lut.Dims())
	}
	if r, a := lut.Shape(); r != 4 || a != 4 {
		t.Errorf("Shape() = (%d, %d), want (4, 4)", r, a)
	}
	if got := lut.AzimuthGrid().Bins; got != 4 {
		t.Errorf("AzimuthGrid().Bins = %d, want 4", got)
	}
}

func TestBuildLUT2DSeamFold(t *testing.T) {
	g := Geometry[float64]{
		Radial:   []float64{1},
		DRadial:  []float64{0.1},
		Azimuth:  []float64{-0.2},
		DAzimuth: []float64{0.1},
	}

	// Default seam at +-pi: the box [-0.3, -0.1] stays where it is and
	// lands in azimuthal bin 3 of [-pi, pi) split 8 ways.
	lut, err := BuildLUT2D(g, Options2D{
		RadialBins:   4,
		AzimuthBins:  8,
		RadialRange:  &Range{Min: 0, Max: 4},
		AzimuthRange: &Range{Min: -math.Pi, Max: math.Pi},
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	for b := 0; b < lut.Bins(); b++ {
		for range lut.Entries(b) {
			if b%8 != 3 {
				t.Errorf("entry in azimuthal bin %d, want 3", b%8)
			}
		}
	}

	// Seam at zero: the same box is entirely outside [0, 2*pi) and folds
	// onto the seam, azimuthal bin 0.
	lut, err = BuildLUT2D(g, Options2D{
		RadialBins:        4,
		AzimuthBins:       8,
		RadialRange:       &Range{Min: 0, Max: 4},
		AzimuthRange:      &Range{Min: 0, Max: 2 * math.Pi},
		AzimuthDiscAtZero: true,
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	if lut.Len() == 0 {
		t.Fatal("folded pixel dropped, want entries at the seam")
	}
	sum := 0.0
	for b := 0; b < lut.Bins(); b++ {
		for _, e := range lut.Entries(b) {
			if b%8 != 0 {
				t.Errorf("entry in azimuthal bin %d, want 0", b%8)
			}
			sum += float64(e.Coef)
		}
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("folded weight sum = %v, want 1", sum)
	}
}

func TestBuildLUT2DOneAxisDegraded(t *testing.T) {
	// Radial boxes split, azimuths act as points.
	g := Geometry[float64]{
		Radial:  []float64{1.5},
		DRadial: []float64{1},
		Azimuth: []float64{0.5},
	}
	lut, err := BuildLUT2D(g, Options2D{
		RadialBins:   4,
		AzimuthBins:  2,
		RadialRange:  &Range{Min: 0, Max: 4},
		AzimuthRange: &Range{Min: 0, Max: 2},
	})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	want := map[int]float64{
		0*2 + 0: 0.25,
		1*2 + 0: 0.5,
		2*2 + 0: 0.25,
	}
	if lut.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", lut.Len(), len(want))
	}
	for b, w := range want {
		entries := lut.Entries(b)
		if len(entries) != 1 {
			t.Fatalf("bin %d has %d entries, want 1", b, len(entries))
		}
		if got := float64(entries[0].Coef); math.Abs(got-w) > 1e-6 {
			t.Errorf("bin %d coef = %v, want %v", b, got, w)
		}
	}
}

func TestBuildLUT2DMaskedPixels(t *testing.T) {
	g := ramp2D(16)
	g.Mask = make([]bool, 16)
	g.Mask[5] = true
	lut, err := BuildLUT2D(g, Options2D{RadialBins: 8, AzimuthBins: 4})
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}
	sums := pixelWeightSums(lut)
	if _, hit := sums[5]; hit {
		t.Error("masked pixel 5 received entries")
	}
	if len(sums) != 15 {
		t.Errorf("pixels with entries = %d, want 15", len(sums))
	}
}

func TestBuildLUT2DAzimuthRequired(t *testing.T) {
	g := Geometry[float64]{Radial: []float64{1}}
	if _, err := BuildLUT2D(g, Options2D{RadialBins: 4, AzimuthBins: 4}); !errors.Is(err, ErrAzimuthLength) {
		t.Errorf("BuildLUT2D() error = %v, want %v", err, ErrAzimuthLength)
	}
}

func TestBuildLUT2DWithPoolMatchesSerial(t *testing.T) {
	const n = 1 << 17
	g := ramp2D(n)
	opt := Options2D{RadialBins: 32, AzimuthBins: 16}

	serial, err := BuildLUT2D(g, opt)
	if err != nil {
		t.Fatalf("BuildLUT2D() error = %v", err)
	}

	pool := workerpool.New(4)
	defer pool.Close()
	parallel, err := BuildLUT2DWithPool(pool, g, opt)
	if err != nil {
		t.Fatalf("BuildLUT2DWithPool() error = %v", err)
	}

	if serial.Len() != parallel.Len() {
		t.Fatalf("parallel Len() = %d, want %d", parallel.Len(), serial.Len())
	}
	for b := 0; b < serial.Bins(); b++ {
		if got, want := sortedEntries(parallel, b), sortedEntries(serial, b); !slices.Equal(got, want) {
			t.Fatalf("bin %d entries diverge between pool and serial build", b)
		}
	}
}

func BenchmarkBuildLUT2D(b *testing.B) {
	g := ramp2D(1 << 16)
	opt := Options2D{RadialBins: 500, AzimuthBins: 36}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildLUT2D(g, opt); err != nil {
			b.Fatal(err)
		}
	}
}

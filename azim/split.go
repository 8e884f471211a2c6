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
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// minParallelPixels is the pixel count below which pooled builds fall back
// to a single strip; strip setup and arena merging dominate under this.
const minParallelPixels = 1 << 16

// axisSpan is the footprint of one pixel box on one grid axis, in
// continuous bin units clamped to [0, Bins].
//
// inv is the reciprocal of the raw (unclamped) span, so per-bin weights
// derived from it redistribute the box assuming uniform density over its
// full extent: a box clipped by the range boundary keeps exactly its
// inside fraction instead of being renormalized to 1. frac is that inside
// fraction, and doubles as the whole weight when the box lands in a
// single bin.
type axisSpan struct {
	lo, hi       float64
	binLo, binHi int
	inv          float64
	frac         float64
}

// spanAxis clamps the box [lower, upper] onto g. ok is false when the box
// lies entirely outside the binned range; the comparisons are written so
// NaN coordinates also fail them and drop out.
func spanAxis(g Grid, lower, upper float64) (axisSpan, bool) {
	fmin := g.pos(lower)
	fmax := g.pos(upper)
	bins := float64(g.Bins)
	if !(fmax >= 0 && fmin < bins) {
		return axisSpan{}, false
	}
	s := axisSpan{lo: fmin, hi: fmax}
	if s.lo < 0 {
		s.lo = 0
	}
	if s.hi > bins {
		s.hi = bins
	}
	s.binLo = int(s.lo)
	s.binHi = int(s.hi)
	if s.binHi > g.Bins-1 {
		s.binHi = g.Bins - 1
	}
	if fmax > fmin {
		s.inv = 1 / (fmax - fmin)
		s.frac = (s.hi - s.lo) / (fmax - fmin)
	} else {
		// Degenerate span: the whole box sits at one in-range coordinate.
		s.frac = 1
	}
	return s, true
}

// weight returns the fraction of the box falling into bin b, for
// b in [binLo, binHi]. Zero is possible when the box only touches a bin
// edge; callers skip those so stored coefficients stay positive.
func (s axisSpan) weight(b int) float64 {
	if s.binLo == s.binHi {
		return s.frac
	}
	switch b {
	case s.binLo:
		return s.inv * (float64(s.binLo+1) - s.lo)
	case s.binHi:
		return s.inv * (s.hi - float64(s.binHi))
	default:
		return s.inv
	}
}

// emitAxis inserts one axis's weights scaled by scale, mapping axis bin b
// to LUT bin base+b. Used directly for 1D builds and per radial row for
// 2D builds.
func emitAxis(ar *arena, s axisSpan, base int32, scale float64, pixel int32) {
	for b := s.binLo; b <= s.binHi; b++ {
		if w := scale * s.weight(b); w > 0 {
			ar.insert(base+int32(b), pixel, float32(w))
		}
	}
}

// stripPlan picks the strip count for n pixels: one strip per pool worker,
// or a single strip when there is no pool or too little work. The count
// depends only on the pool size, keeping builds deterministic.
func stripPlan(pool *workerpool.Pool, n int) int {
	if pool == nil || pool.NumWorkers() == 1 || n < minParallelPixels {
		return 1
	}
	return pool.NumWorkers()
}

// runStrips partitions [0, n) into contiguous pixel strips and invokes fn
// once per strip. Strips are disjoint, so each fn call owns its pixel
// range (and its arena) exclusively.
func runStrips(pool *workerpool.Pool, n, strips int, fn func(strip, start, end int)) {
	if strips == 1 {
		fn(0, 0, n)
		return
	}
	stripLen := (n + strips - 1) / strips
	pool.ParallelFor(strips, func(s0, s1 int) {
		for s := s0; s < s1; s++ {
			start := s * stripLen
			end := min(start+stripLen, n)
			if start >= end {
				continue
			}
			fn(s, start, end)
		}
	})
}

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
	"fmt"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Options2D configures a two-dimensional (radial x azimuthal) build.
type Options2D struct {
	// RadialBins and AzimuthBins are the per-dimension bin counts, each
	// floored to 1.
	RadialBins  int
	AzimuthBins int

	// RadialRange and AzimuthRange override automatic bounds detection
	// per dimension. Endpoints may come in either order.
	RadialRange  *Range
	AzimuthRange *Range

	// AllowNegative keeps negative radial coordinates instead of clamping
	// coordinates (and the range minimum) to zero.
	AllowNegative bool

	// AzimuthDiscAtZero places the angular discontinuity at zero, folding
	// azimuths into [0, 2*pi). The default seam is at +-pi, interval
	// [-pi, pi).
	AzimuthDiscAtZero bool

	// Unit labels the radial dimension. Carried verbatim.
	Unit string

	// Empty is the fill value integrators report for bins that received
	// no contributions.
	Empty float64
}

// BuildLUT2D builds a two-dimensional LUT serially. Pixel boxes spread
// independently along both axes; a bin at (r, a) receives the product of
// the two per-axis fractions, and the combined LUT bin index is
// r*AzimuthBins + a.
func BuildLUT2D[T hwy.Floats](g Geometry[T], opt Options2D) (*LUT, error) {
	return BuildLUT2DWithPool[T](nil, g, opt)
}

// BuildLUT2DWithPool is BuildLUT2D distributing pixel strips over a worker
// pool. A nil pool runs serially.
func BuildLUT2DWithPool[T hwy.Floats](pool *workerpool.Pool, g Geometry[T], opt Options2D) (*LUT, error) {
	n, err := g.validate()
	if err != nil {
		return nil, err
	}
	if len(g.Azimuth) != n {
		return nil, fmt.Errorf("%w: azimuth %d, coordinates %d", ErrAzimuthLength, len(g.Azimuth), n)
	}

	rWidths := splitExtents("radial", g.Radial, g.DRadial)
	aWidths := splitExtents("azimuth", g.Azimuth, g.DAzimuth)
	wrap := azimuthWrap(opt.AzimuthDiscAtZero)
	ro := scanOpts{clampZero: !opt.AllowNegative}
	ao := scanOpts{wrap: &wrap}

	grid0 := buildGrid(g.Radial, rWidths, g.Mask, ro, opt.RadialRange, opt.RadialBins)
	grid1 := buildGrid(g.Azimuth, aWidths, g.Mask, ao, opt.AzimuthRange, opt.AzimuthBins)
	bins1 := int32(grid1.Bins)
	fbins0 := float64(grid0.Bins)
	fbins1 := float64(grid1.Bins)
	noSplit := rWidths == nil && aWidths == nil

	strips := stripPlan(pool, n)
	acc := newAccumulator(grid0.Bins*grid1.Bins, strips, (n+strips-1)/strips)
	runStrips(pool, n, strips, func(strip, start, end int) {
		ar := acc.arena(strip)
		for i := start; i < end; i++ {
			if g.Mask != nil && g.Mask[i] {
				continue
			}
			if noSplit {
				c0, _ := boxBounds(g.Radial, nil, i, ro)
				f0 := grid0.pos(c0)
				if !(f0 >= 0 && f0 < fbins0) {
					continue
				}
				c1, _ := boxBounds(g.Azimuth, nil, i, ao)
				f1 := grid1.pos(c1)
				if !(f1 >= 0 && f1 < fbins1) {
					continue
				}
				ar.insert(int32(f0)*bins1+int32(f1), int32(i), 1)
				continue
			}
			l0, u0 := boxBounds(g.Radial, rWidths, i, ro)
			s0, ok := spanAxis(grid0, l0, u0)
			if !ok {
				continue
			}
			l1, u1 := boxBounds(g.Azimuth, aWidths, i, ao)
			s1, ok := spanAxis(grid1, l1, u1)
			if !ok {
				continue
			}
			for b0 := s0.binLo; b0 <= s0.binHi; b0++ {
				if w0 := s0.weight(b0); w0 > 0 {
					emitAxis(ar, s1, int32(b0)*bins1, w0, int32(i))
				}
			}
		}
	})

	ck := g.MaskChecksum
	if g.Mask != nil && ck == 0 {
		ck = maskChecksum(g.Mask)
	}
	ptr, entries := acc.compact()
	return newLUT(2, grid0.Bins, grid1.Bins, n, grid0, grid1, opt.Unit, opt.Empty, ck, ptr, entries), nil
}

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
	"math"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Options1D configures a one-dimensional build.
type Options1D struct {
	// Bins is the radial bin count, floored to 1.
	Bins int

	// RadialRange overrides automatic radial bounds detection. Endpoints
	// may come in either order.
	RadialRange *Range

	// AzimuthRange keeps only pixels whose azimuthal interval intersects
	// it. Requires Azimuth and DAzimuth of matching length.
	AzimuthRange *Range

	// AllowNegative keeps negative radial coordinates instead of clamping
	// coordinates (and the range minimum) to zero.
	AllowNegative bool

	// Unit labels the radial dimension (for example "2th_deg" or
	// "q_nm^-1"). Carried verbatim, never interpreted.
	Unit string

	// Empty is the fill value integrators report for bins that received
	// no contributions.
	Empty float64
}

// BuildLUT1D builds a one-dimensional LUT serially. Pixels with
// half-extents are spread over the radial bins their bounding box
// overlaps; without usable half-extents each pixel lands in a single bin
// with weight 1.
func BuildLUT1D[T hwy.Floats](g Geometry[T], opt Options1D) (*LUT, error) {
	return BuildLUT1DWithPool[T](nil, g, opt)
}

// BuildLUT1DWithPool is BuildLUT1D distributing pixel strips over a worker
// pool. Results are identical to the serial build up to entry order within
// a bin. A nil pool runs serially.
func BuildLUT1DWithPool[T hwy.Floats](pool *workerpool.Pool, g Geometry[T], opt Options1D) (*LUT, error) {
	n, err := g.validate()
	if err != nil {
		return nil, err
	}

	var azLo, azHi float64
	filter := opt.AzimuthRange != nil
	if filter {
		if len(g.Azimuth) != n || len(g.DAzimuth) != n {
			return nil, fmt.Errorf("%w: azimuth %d, half-extents %d, coordinates %d",
				ErrAzimuthLength, len(g.Azimuth), len(g.DAzimuth), n)
		}
		azLo = math.Min(opt.AzimuthRange.Min, opt.AzimuthRange.Max)
		azHi = math.Max(opt.AzimuthRange.Min, opt.AzimuthRange.Max)
	}

	widths := splitExtents("radial", g.Radial, g.DRadial)
	ro := scanOpts{clampZero: !opt.AllowNegative}
	grid := buildGrid(g.Radial, widths, g.Mask, ro, opt.RadialRange, opt.Bins)
	fbins := float64(grid.Bins)

	strips := stripPlan(pool, n)
	acc := newAccumulator(grid.Bins, strips, (n+strips-1)/strips)
	runStrips(pool, n, strips, func(strip, start, end int) {
		ar := acc.arena(strip)
		for i := start; i < end; i++ {
			if g.Mask != nil && g.Mask[i] {
				continue
			}
			if filter {
				a := float64(g.Azimuth[i])
				da := float64(g.DAzimuth[i])
				if !(a+da >= azLo && a-da <= azHi) {
					continue
				}
			}
			if widths == nil {
				c, _ := boxBounds(g.Radial, nil, i, ro)
				f := grid.pos(c)
				if !(f >= 0 && f < fbins) {
					continue
				}
				ar.insert(int32(f), int32(i), 1)
				continue
			}
			lower, upper := boxBounds(g.Radial, widths, i, ro)
			if s, ok := spanAxis(grid, lower, upper); ok {
				emitAxis(ar, s, 0, 1, int32(i))
			}
		}
	})

	ck := g.MaskChecksum
	if g.Mask != nil && ck == 0 {
		ck = maskChecksum(g.Mask)
	}
	ptr, entries := acc.compact()
	return newLUT(1, grid.Bins, 1, n, grid, Grid{}, opt.Unit, opt.Empty, ck, ptr, entries), nil
}

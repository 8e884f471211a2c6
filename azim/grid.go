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
	"gonum.org/v1/gonum/floats"
)

// upperEps is the relative margin added above the true coordinate maximum
// so that the largest coordinate falls strictly inside the last bin rather
// than on its upper edge.
const upperEps = 1e-9

// Range is an explicit coordinate range override for one grid dimension.
// Min and Max may be given in either order; builders normalize them.
type Range struct {
	Min, Max float64
}

// Grid describes the regular binning of one dimension: Bins bins of width
// Delta covering [Min, Max). Max sits strictly above the largest
// contributing coordinate (see upperEps), so Delta = (Max - Min) / Bins
// and every coordinate maps to a bin index in [0, Bins).
type Grid struct {
	Min, Max, Delta float64
	Bins            int
}

// gridFor builds the Grid for bounds [lo, hi]. The upper bound is nudged
// strictly above hi; bin counts are floored to 1.
func gridFor(lo, hi float64, bins int) Grid {
	if bins < 1 {
		bins = 1
	}
	hi = nudgeAbove(hi)
	return Grid{
		Min:   lo,
		Max:   hi,
		Delta: (hi - lo) / float64(bins),
		Bins:  bins,
	}
}

// nudgeAbove returns the smallest practical value strictly greater than x,
// using a relative margin so the adjustment scales with the coordinate
// magnitude.
func nudgeAbove(x float64) float64 {
	switch {
	case x > 0:
		return x * (1 + upperEps)
	case x < 0:
		return x * (1 - upperEps)
	default:
		return upperEps
	}
}

// Centers returns the coordinates of the bin midpoints, linearly spaced
// from Min+Delta/2 to Max-Delta/2.
func (g Grid) Centers() []float64 {
	if g.Bins == 1 {
		return []float64{g.Min + g.Delta/2}
	}
	return floats.Span(make([]float64, g.Bins), g.Min+g.Delta/2, g.Max-g.Delta/2)
}

// pos maps a coordinate to its continuous bin position: 0 at Min, Bins at
// Max. floor(pos) is the bin index for in-range coordinates.
func (g Grid) pos(x float64) float64 {
	return (x - g.Min) / g.Delta
}

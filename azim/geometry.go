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
	"fmt"
	"math"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/vec"
)

var (
	// ErrNoPixels reports an empty radial coordinate array.
	ErrNoPixels = errors.New("azim: empty coordinate array")
	// ErrTooManyPixels reports a pixel count that does not fit the 32-bit
	// entry index space.
	ErrTooManyPixels = errors.New("azim: pixel count exceeds int32 range")
	// ErrMaskLength reports a mask whose length differs from the pixel count.
	ErrMaskLength = errors.New("azim: mask length mismatch")
	// ErrAzimuthLength reports missing or mis-sized azimuth arrays where the
	// requested operation requires them.
	ErrAzimuthLength = errors.New("azim: azimuth array length mismatch")
)

// Geometry carries the per-pixel detector description, flattened row-major.
// Radial is required; everything else is optional. DRadial and DAzimuth are
// half-extents of the pixel bounding box along each coordinate: when one is
// missing or mis-sized, bounding-box splitting degrades to point binning
// for that dimension (a warning is logged, no error).
//
// Mask marks pixels to exclude entirely: they produce no LUT entries and do
// not influence automatic range detection. MaskChecksum optionally carries
// a precomputed checksum of the mask for downstream caching; when zero and
// a mask is present, builders compute it.
type Geometry[T hwy.Floats] struct {
	Radial   []T
	DRadial  []T
	Azimuth  []T
	DAzimuth []T

	Mask         []bool
	MaskChecksum uint32
}

// validate checks the hard input contracts shared by all builders and
// returns the pixel count.
func (g *Geometry[T]) validate() (int, error) {
	n := len(g.Radial)
	if n == 0 {
		return 0, ErrNoPixels
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d pixels", ErrTooManyPixels, n)
	}
	if g.Mask != nil && len(g.Mask) != n {
		return 0, fmt.Errorf("%w: mask %d, coordinates %d", ErrMaskLength, len(g.Mask), n)
	}
	return n, nil
}

// splitExtents decides whether half-extents are usable for one dimension.
// Absent extents select the no-split mode silently; a mis-sized array
// disables splitting with a logged warning.
func splitExtents[T hwy.Floats](axis string, coords, widths []T) []T {
	if widths == nil {
		return nil
	}
	if len(widths) == len(coords) {
		return widths
	}
	Logger().Warn("azim: bounding-box splitting disabled",
		"axis", axis, "coordinates", len(coords), "halfExtents", len(widths))
	return nil
}

// wrapInterval is the half-open interval an angular coordinate is folded
// into; the discontinuity sits at the seam between hi and lo.
type wrapInterval struct {
	lo, hi float64
}

// azimuthWrap selects the angular interval: [-pi, pi) by default, or
// [0, 2*pi) when the discontinuity is placed at zero.
func azimuthWrap(discAtZero bool) wrapInterval {
	if discAtZero {
		return wrapInterval{0, 2 * math.Pi}
	}
	return wrapInterval{-math.Pi, math.Pi}
}

// scanOpts selects the clamping applied while scanning one dimension.
type scanOpts struct {
	clampZero bool          // primary dimension with negative values disallowed
	wrap      *wrapInterval // periodic secondary dimension
}

// boxBounds returns the clamped bounding interval of pixel i on one axis.
// widths may be nil (point pixels).
func boxBounds[T hwy.Floats](coords, widths []T, i int, o scanOpts) (lower, upper float64) {
	lower = float64(coords[i])
	upper = lower
	if widths != nil {
		w := float64(widths[i])
		lower -= w
		upper += w
	}
	if o.clampZero {
		if lower < 0 {
			lower = 0
		}
		if upper < 0 {
			upper = 0
		}
	}
	if o.wrap != nil {
		lower = math.Min(math.Max(lower, o.wrap.lo), o.wrap.hi)
		upper = math.Min(math.Max(upper, o.wrap.lo), o.wrap.hi)
	}
	return lower, upper
}

// scanBounds finds the coordinate range of the unmasked pixel boxes on one
// axis. ok is false when every pixel is masked. The unclamped, unmasked,
// point-pixel case takes a SIMD single-pass min/max.
func scanBounds[T hwy.Floats](coords, widths []T, mask []bool, o scanOpts) (lo, hi float64, ok bool) {
	if mask == nil && widths == nil && !o.clampZero && o.wrap == nil {
		mn, mx := vec.BaseMinMax(coords)
		return float64(mn), float64(mx), true
	}
	first := true
	for i := range coords {
		if mask != nil && mask[i] {
			continue
		}
		lower, upper := boxBounds(coords, widths, i, o)
		if first {
			lo, hi = lower, upper
			first = false
			continue
		}
		if lower < lo {
			lo = lower
		}
		if upper > hi {
			hi = upper
		}
	}
	return lo, hi, !first
}

// buildGrid resolves one dimension's Grid from an explicit range override
// or a bounds scan. An explicit range is honored verbatim apart from
// normalizing the endpoint order and the clamp on negative minima; with
// every pixel masked the bounds degenerate to the first raw coordinate.
func buildGrid[T hwy.Floats](coords, widths []T, mask []bool, o scanOpts, explicit *Range, bins int) Grid {
	if explicit != nil {
		lo := math.Min(explicit.Min, explicit.Max)
		hi := math.Max(explicit.Min, explicit.Max)
		if o.clampZero && lo < 0 {
			lo = 0
		}
		return gridFor(lo, hi, bins)
	}
	lo, hi, ok := scanBounds(coords, widths, mask, o)
	if !ok {
		lo = float64(coords[0])
		hi = lo
	}
	return gridFor(lo, hi, bins)
}

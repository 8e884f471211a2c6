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

package integrate

import (
	"errors"
	"fmt"
	"math"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	"github.com/ajroetker/go-azimint/azim"
)

var (
	// ErrFrameLength reports a frame that does not match the LUT's pixel
	// domain.
	ErrFrameLength = errors.New("integrate: frame length mismatch")
	// ErrCorrectionLength reports a correction or variance array that does
	// not match the frame.
	ErrCorrectionLength = errors.New("integrate: correction array length mismatch")
)

// minParallelEntries is the LUT entry count below which pooled integration
// runs serially.
const minParallelEntries = 1 << 16

// Options carries the optional per-pixel arrays applied while integrating.
// Every non-nil array must match the frame length.
type Options[T hwy.Floats] struct {
	// Dark is subtracted from the raw intensities.
	Dark []T
	// Flat, SolidAngle and Polarization divide the dark-corrected
	// intensities.
	Flat         []T
	SolidAngle   []T
	Polarization []T

	// Variance enables error propagation; Result.Sigma is filled when it
	// is present.
	Variance []T

	// Empty overrides the LUT's fill value for bins without contributions.
	Empty *float64
}

// Result holds per-bin integration output. For 2D LUTs the arrays are
// row-major over (radial, azimuthal), matching azim.LUT bin indices.
type Result struct {
	// Signal is the weighted intensity sum per bin.
	Signal []float64
	// Norm is the weight sum per bin; 0 marks an empty bin.
	Norm []float64
	// Mean is Signal/Norm, or the empty fill value where Norm is 0.
	Mean []float64
	// Sigma is the propagated standard error, nil unless Options.Variance
	// was supplied.
	Sigma []float64
}

// Frame integrates one detector frame serially.
func Frame[T hwy.Floats](lut *azim.LUT, frame []T, opt Options[T]) (*Result, error) {
	return FrameWithPool[T](nil, lut, frame, opt)
}

// FrameWithPool is Frame distributing contiguous bin ranges over a worker
// pool. A nil pool runs serially.
func FrameWithPool[T hwy.Floats](pool *workerpool.Pool, lut *azim.LUT, frame []T, opt Options[T]) (*Result, error) {
	n := lut.Pixels()
	if len(frame) != n {
		return nil, fmt.Errorf("%w: frame %d, lut %d", ErrFrameLength, len(frame), n)
	}
	for _, c := range []struct {
		name string
		arr  []T
	}{
		{"dark", opt.Dark},
		{"flat", opt.Flat},
		{"solidAngle", opt.SolidAngle},
		{"polarization", opt.Polarization},
		{"variance", opt.Variance},
	} {
		if c.arr != nil && len(c.arr) != n {
			return nil, fmt.Errorf("%w: %s %d, frame %d", ErrCorrectionLength, c.name, len(c.arr), n)
		}
	}

	values := correct(pool, frame, opt)
	empty := lut.Empty()
	if opt.Empty != nil {
		empty = *opt.Empty
	}

	bins := lut.Bins()
	res := &Result{
		Signal: make([]float64, bins),
		Norm:   make([]float64, bins),
		Mean:   make([]float64, bins),
	}
	if opt.Variance != nil {
		res.Sigma = make([]float64, bins)
	}

	run := func(start, end int) {
		for b := start; b < end; b++ {
			var sig, norm, vsum float64
			for _, e := range lut.Entries(b) {
				c := float64(e.Coef)
				sig += c * values[e.Pixel]
				norm += c
				if opt.Variance != nil {
					vsum += c * c * float64(opt.Variance[e.Pixel])
				}
			}
			res.Signal[b] = sig
			res.Norm[b] = norm
			if norm > 0 {
				res.Mean[b] = sig / norm
				if res.Sigma != nil {
					res.Sigma[b] = math.Sqrt(vsum) / norm
				}
			} else {
				res.Mean[b] = empty
				if res.Sigma != nil {
					res.Sigma[b] = empty
				}
			}
		}
	}
	if pool == nil || lut.Len() < minParallelEntries {
		run(0, bins)
	} else {
		pool.ParallelFor(bins, run)
	}
	return res, nil
}

// correct materializes the per-pixel values the LUT weights apply to,
// folding the optional corrections in double precision.
func correct[T hwy.Floats](pool *workerpool.Pool, frame []T, opt Options[T]) []float64 {
	values := make([]float64, len(frame))
	fill := func(start, end int) {
		for i := start; i < end; i++ {
			v := float64(frame[i])
			if opt.Dark != nil {
				v -= float64(opt.Dark[i])
			}
			den := 1.0
			if opt.Flat != nil {
				den *= float64(opt.Flat[i])
			}
			if opt.SolidAngle != nil {
				den *= float64(opt.SolidAngle[i])
			}
			if opt.Polarization != nil {
				den *= float64(opt.Polarization[i])
			}
			if den != 1 {
				v /= den
			}
			values[i] = v
		}
	}
	if pool == nil || len(frame) < minParallelEntries {
		fill(0, len(frame))
	} else {
		pool.ParallelFor(len(frame), fill)
	}
	return values
}

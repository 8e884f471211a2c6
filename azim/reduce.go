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
	"math"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// DefaultGroupSize is a reasonable workgroup size for MinMaxReduce.
const DefaultGroupSize = 256

// MinMax is one (minimum, maximum) accumulator pair.
type MinMax[T hwy.Floats] struct {
	Min, Max T
}

// Range adapts a reduction result into an explicit builder range override.
func (m MinMax[T]) Range() Range {
	return Range{Min: float64(m.Min), Max: float64(m.Max)}
}

// MinMaxReduce computes the minimum and maximum of buf with a two-stage
// workgroup tree reduction, the CPU mirror of the compute-device kernel
// used for range detection on buffers that live off-host. groupSize must
// be a power of two; lanes whose stride runs past the data load the
// neutral pair (+Inf, -Inf) instead of branching out early, so every lane
// runs the same rounds regardless of buffer length.
//
// Panics on an empty buffer, like the single-pass vec reductions.
func MinMaxReduce[T hwy.Floats](pool *workerpool.Pool, buf []T, groupSize int) MinMax[T] {
	return MinMaxStage2(MinMaxStage1(pool, buf, 0, groupSize), groupSize)
}

// MinMaxStage1 partitions buf into contiguous per-group chunks aligned to
// groupSize and reduces each workgroup to one MinMax partial. groups <= 0
// picks a count giving each lane about one groupSize worth of elements.
// Groups run in parallel when a pool is given; lanes within a group run
// as sequential rounds over scratch slices standing in for workgroup
// local memory.
func MinMaxStage1[T hwy.Floats](pool *workerpool.Pool, buf []T, groups, groupSize int) []MinMax[T] {
	checkGroupSize(groupSize)
	if len(buf) == 0 {
		panic("azim: MinMaxStage1 called on empty buffer")
	}
	if groups <= 0 {
		perGroup := groupSize * groupSize
		groups = (len(buf) + perGroup - 1) / perGroup
	}
	chunk := (len(buf) + groups - 1) / groups
	chunk = (chunk + groupSize - 1) / groupSize * groupSize

	partials := make([]MinMax[T], groups)
	run := func(g0, g1 int) {
		lmin := make([]T, groupSize)
		lmax := make([]T, groupSize)
		for g := g0; g < g1; g++ {
			base := g * chunk
			limit := min(base+chunk, len(buf))
			partials[g] = groupMinMax(buf, base, limit, lmin, lmax)
		}
	}
	if pool == nil {
		run(0, groups)
	} else {
		pool.ParallelFor(groups, run)
	}
	return partials
}

// MinMaxStage2 applies the same halving-merge procedure to the per-group
// partials, padding the tail with neutral (+Inf, -Inf) sentinels up to the
// group boundary, and emits the final pair. Panics on an empty input.
func MinMaxStage2[T hwy.Floats](partials []MinMax[T], groupSize int) MinMax[T] {
	checkGroupSize(groupSize)
	if len(partials) == 0 {
		panic("azim: MinMaxStage2 called on empty partials")
	}
	neutral := MinMax[T]{Min: T(math.Inf(1)), Max: T(math.Inf(-1))}
	n := (len(partials) + groupSize - 1) / groupSize * groupSize
	padded := partials
	if n != len(partials) {
		padded = make([]MinMax[T], n)
		copy(padded, partials)
		for i := len(partials); i < n; i++ {
			padded[i] = neutral
		}
	}

	lmin := make([]T, groupSize)
	lmax := make([]T, groupSize)
	for l := 0; l < groupSize; l++ {
		mn, mx := neutral.Min, neutral.Max
		for i := l; i < n; i += groupSize {
			if padded[i].Min < mn {
				mn = padded[i].Min
			}
			if padded[i].Max > mx {
				mx = padded[i].Max
			}
		}
		lmin[l], lmax[l] = mn, mx
	}
	return treeMinMax(lmin, lmax)
}

// groupMinMax runs one workgroup over buf[base:limit). Lane l strides
// through the chunk with stride groupSize accumulating a running pair;
// positions at or past limit contribute the neutral pair, so all lanes
// execute identical rounds with no early exit.
func groupMinMax[T hwy.Floats](buf []T, base, limit int, lmin, lmax []T) MinMax[T] {
	groupSize := len(lmin)
	pinf := T(math.Inf(1))
	ninf := T(math.Inf(-1))
	for l := 0; l < groupSize; l++ {
		mn, mx := pinf, ninf
		for i := base + l; i < limit; i += groupSize {
			v := buf[i]
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		lmin[l], lmax[l] = mn, mx
	}
	return treeMinMax(lmin, lmax)
}

// treeMinMax folds the lane accumulators pairwise, halving the active lane
// count each round the way a barrier-synchronized workgroup does, until
// two lanes remain and merge into the group partial.
func treeMinMax[T hwy.Floats](lmin, lmax []T) MinMax[T] {
	for active := len(lmin) / 2; active >= 2; active /= 2 {
		for l := 0; l < active; l++ {
			if lmin[l+active] < lmin[l] {
				lmin[l] = lmin[l+active]
			}
			if lmax[l+active] > lmax[l] {
				lmax[l] = lmax[l+active]
			}
		}
	}
	return MinMax[T]{Min: min(lmin[0], lmin[1]), Max: max(lmax[0], lmax[1])}
}

func checkGroupSize(groupSize int) {
	if groupSize < 2 || groupSize&(groupSize-1) != 0 {
		panic("azim: workgroup size must be a power of two >= 2")
	}
}

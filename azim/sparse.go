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
	"hash/crc32"
	"unsafe"

	"github.com/ajroetker/go-highway/hwy/contrib/algo"
)

// entryBytes is the wire size of one LUT entry. Checksumming and
// serialization view entries as raw bytes, so the in-memory layout must
// match exactly; init aborts the process if the compiler lays Entry out
// any other way.
const entryBytes = 8

// Entry is one sparse LUT element: pixel Pixel contributes fraction Coef
// of its intensity to the bin owning the entry.
type Entry struct {
	Pixel int32
	Coef  float32
}

func init() {
	if unsafe.Sizeof(Entry{}) != entryBytes {
		panic("azim: Entry layout deviates from the 8-byte wire representation")
	}
}

// arena is one worker's private append buffer. Strips of pixels map to
// distinct arenas, so concurrent builds never share an arena and inserts
// need no locks. bins and entries grow in lockstep.
type arena struct {
	bins    []int32
	entries []Entry
}

func (a *arena) insert(bin, pixel int32, coef float32) {
	a.bins = append(a.bins, bin)
	a.entries = append(a.entries, Entry{Pixel: pixel, Coef: coef})
}

// accumulator collects weighted contributions during a build and compacts
// them into the final CSR arrays. Inserts are amortized O(1) appends; the
// per-bin entry counts are only discovered at finalize, so bins never need
// pre-sizing.
type accumulator struct {
	bins   int
	arenas []arena
}

// newAccumulator sizes one arena per strip. stripPixels is the expected
// pixel count per strip; boxes typically spread over 1-4 bins, so arenas
// start at twice that and grow by appending.
func newAccumulator(bins, strips, stripPixels int) *accumulator {
	acc := &accumulator{bins: bins, arenas: make([]arena, strips)}
	hint := 2 * stripPixels
	for i := range acc.arenas {
		acc.arenas[i].bins = make([]int32, 0, hint)
		acc.arenas[i].entries = make([]Entry, 0, hint)
	}
	return acc
}

// arena returns strip s's private buffer.
func (acc *accumulator) arena(s int) *arena {
	return &acc.arenas[s]
}

// compact merges all arenas into CSR form: ptr has bins+1 offsets with
// ptr[b]..ptr[b+1] delimiting bin b's entries. Entries keep arena order,
// so builds with a fixed strip count are deterministic.
func (acc *accumulator) compact() (ptr []int32, entries []Entry) {
	ptr = make([]int32, acc.bins+1)
	for i := range acc.arenas {
		for _, b := range acc.arenas[i].bins {
			ptr[b+1]++
		}
	}
	algo.BasePrefixSum(ptr)

	entries = make([]Entry, ptr[acc.bins])
	cursor := make([]int32, acc.bins)
	copy(cursor, ptr[:acc.bins])
	for i := range acc.arenas {
		ar := &acc.arenas[i]
		for j, b := range ar.bins {
			entries[cursor[b]] = ar.entries[j]
			cursor[b]++
		}
	}
	return ptr, entries
}

// LUT is the finalized sparse redistribution matrix. It is immutable:
// build once per geometry, mask and range configuration, then reuse it
// read-only across frames. Rebuild from scratch when any of those change.
type LUT struct {
	dims   int
	bins0  int
	bins1  int // 1 for one-dimensional LUTs
	npix   int
	grid0  Grid
	grid1  Grid
	unit   string
	empty  float64
	maskCk uint32

	ptr      []int32
	entries  []Entry
	checksum uint32
}

// newLUT wraps compacted CSR arrays. bins1 must be 1 for dims == 1.
func newLUT(dims, bins0, bins1, npix int, grid0, grid1 Grid, unit string, empty float64, maskCk uint32, ptr []int32, entries []Entry) *LUT {
	l := &LUT{
		dims:     dims,
		bins0:    bins0,
		bins1:    bins1,
		npix:     npix,
		grid0:    grid0,
		grid1:    grid1,
		unit:     unit,
		empty:    empty,
		maskCk:   maskCk,
		ptr:      ptr,
		entries:  entries,
		checksum: entriesChecksum(entries),
	}
	Logger().Debug("azim: lut built",
		"dims", dims, "bins", l.Bins(), "entries", l.Len(), "bytes", l.ByteSize())
	return l
}

// Dims returns 1 or 2.
func (l *LUT) Dims() int { return l.dims }

// Bins returns the total output bin count (bins0*bins1 for 2D).
func (l *LUT) Bins() int { return l.bins0 * l.bins1 }

// Shape returns the per-dimension bin counts; the azimuthal count is 1
// for one-dimensional LUTs.
func (l *LUT) Shape() (radial, azimuthal int) { return l.bins0, l.bins1 }

// Pixels returns the pixel-domain length frames must match.
func (l *LUT) Pixels() int { return l.npix }

// Len returns the total number of stored entries.
func (l *LUT) Len() int { return len(l.entries) }

// ByteSize returns the memory footprint of the sparse arrays.
func (l *LUT) ByteSize() int {
	return len(l.entries)*entryBytes + len(l.ptr)*4
}

// Checksum returns the CRC-32 of the entry bytes, the cache key for the
// built table.
func (l *LUT) Checksum() uint32 { return l.checksum }

// MaskChecksum returns the checksum of the mask the LUT was built with,
// zero when no mask was given.
func (l *LUT) MaskChecksum() uint32 { return l.maskCk }

// Unit returns the physical-unit label of the radial dimension. It is
// carried verbatim for downstream display and never interpreted.
func (l *LUT) Unit() string { return l.unit }

// Empty returns the fill value downstream integrators place in bins with
// no contributions.
func (l *LUT) Empty() float64 { return l.empty }

// RadialGrid returns the radial binning.
func (l *LUT) RadialGrid() Grid { return l.grid0 }

// AzimuthGrid returns the azimuthal binning; the zero Grid for
// one-dimensional LUTs.
func (l *LUT) AzimuthGrid() Grid {
	if l.dims < 2 {
		return Grid{}
	}
	return l.grid1
}

// Entries returns bin's contributions. The returned slice aliases the
// LUT's storage and must not be modified. For 2D LUTs the bin index is
// radial*bins1 + azimuthal. Bins without contributions yield an empty
// slice. Order within a bin is unspecified.
func (l *LUT) Entries(bin int) []Entry {
	return l.entries[l.ptr[bin]:l.ptr[bin+1]]
}

// entriesChecksum hashes the raw entry bytes. Valid because init pins the
// Entry layout to entryBytes.
func entriesChecksum(entries []Entry) uint32 {
	if len(entries) == 0 {
		return crc32.ChecksumIEEE(nil)
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])), len(entries)*entryBytes)
	return crc32.ChecksumIEEE(view)
}

// maskChecksum hashes a pixel mask for cache identification.
func maskChecksum(mask []bool) uint32 {
	if len(mask) == 0 {
		return 0
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(&mask[0])), len(mask))
	return crc32.ChecksumIEEE(view)
}

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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
)

// lutMagic identifies a serialized LUT stream; the digit is the format
// version. It precedes the compressed body so streams stay sniffable.
const lutMagic = "AZMLUT1\n"

// ErrLUTFormat reports a stream that is not a LUT frame or fails its
// internal consistency checks.
var ErrLUTFormat = errors.New("azim: malformed lut stream")

// ioChunk caps the slice window handed to encoding/binary per call,
// bounding its temporary buffer for the bulk arrays.
const ioChunk = 8192

// maxUnitLen bounds the unit label in a stream; labels are short strings
// like "q_nm^-1".
const maxUnitLen = 256

// maxWireBins bounds each per-dimension bin count in a stream.
const maxWireBins = 1 << 20

// lutHeader is the fixed-size little-endian wire header inside the
// compressed body.
type lutHeader struct {
	Dims       uint8
	Bins0      uint32
	Bins1      uint32
	Pixels     uint32
	Grid0      gridWire
	Grid1      gridWire
	Empty      float64
	MaskCk     uint32
	Checksum   uint32
	UnitLen    uint32
	EntryCount uint64
}

// gridWire carries a Grid's bounds; Delta is recomputed on read from the
// same expression that built it, so it round-trips bit-exactly.
type gridWire struct {
	Min, Max float64
}

func wireGrid(g Grid) gridWire { return gridWire{Min: g.Min, Max: g.Max} }

func (w gridWire) grid(bins int) Grid {
	return Grid{Min: w.Min, Max: w.Max, Delta: (w.Max - w.Min) / float64(bins), Bins: bins}
}

var _ io.WriterTo = (*LUT)(nil)

// WriteTo serializes the LUT as a zstd-compressed frame and reports the
// bytes written. The frame embeds the content checksum; ReadLUT verifies
// it, so a stored LUT doubles as its own cache key.
func (l *LUT) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	if _, err := io.WriteString(cw, lutMagic); err != nil {
		return cw.n, fmt.Errorf("azim: write lut: %w", err)
	}
	zw, err := zstd.NewWriter(cw)
	if err != nil {
		return cw.n, fmt.Errorf("azim: write lut: %w", err)
	}
	if err := l.writeBody(zw); err != nil {
		zw.Close()
		return cw.n, fmt.Errorf("azim: write lut: %w", err)
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("azim: write lut: %w", err)
	}
	return cw.n, nil
}

func (l *LUT) writeBody(w io.Writer) error {
	h := lutHeader{
		Dims:       uint8(l.dims),
		Bins0:      uint32(l.bins0),
		Bins1:      uint32(l.bins1),
		Pixels:     uint32(l.npix),
		Grid0:      wireGrid(l.grid0),
		Grid1:      wireGrid(l.grid1),
		Empty:      l.empty,
		MaskCk:     l.maskCk,
		Checksum:   l.checksum,
		UnitLen:    uint32(len(l.unit)),
		EntryCount: uint64(len(l.entries)),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := io.WriteString(w, l.unit); err != nil {
		return err
	}
	for off := 0; off < len(l.ptr); off += ioChunk {
		end := min(off+ioChunk, len(l.ptr))
		if err := binary.Write(w, binary.LittleEndian, l.ptr[off:end]); err != nil {
			return err
		}
	}
	for off := 0; off < len(l.entries); off += ioChunk {
		end := min(off+ioChunk, len(l.entries))
		if err := binary.Write(w, binary.LittleEndian, l.entries[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// ReadLUT deserializes a LUT written by WriteTo. It validates the frame
// structure and recomputes the content checksum, rejecting corrupted or
// foreign streams with ErrLUTFormat.
func ReadLUT(r io.Reader) (*LUT, error) {
	magic := make([]byte, len(lutMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("azim: read lut: %w", err)
	}
	if string(magic) != lutMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrLUTFormat, magic)
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("azim: read lut: %w", err)
	}
	defer zr.Close()

	var h lutHeader
	if err := binary.Read(zr, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("azim: read lut: %w", err)
	}
	if err := checkHeader(&h); err != nil {
		return nil, err
	}

	unit := make([]byte, h.UnitLen)
	if _, err := io.ReadFull(zr, unit); err != nil {
		return nil, fmt.Errorf("azim: read lut: %w", err)
	}

	bins := int(h.Bins0) * int(h.Bins1)
	ptr := make([]int32, bins+1)
	for off := 0; off < len(ptr); off += ioChunk {
		end := min(off+ioChunk, len(ptr))
		if err := binary.Read(zr, binary.LittleEndian, ptr[off:end]); err != nil {
			return nil, fmt.Errorf("azim: read lut: %w", err)
		}
	}
	entries := make([]Entry, h.EntryCount)
	for off := 0; off < len(entries); off += ioChunk {
		end := min(off+ioChunk, len(entries))
		if err := binary.Read(zr, binary.LittleEndian, entries[off:end]); err != nil {
			return nil, fmt.Errorf("azim: read lut: %w", err)
		}
	}

	if ptr[0] != 0 || uint64(ptr[bins]) != h.EntryCount {
		return nil, fmt.Errorf("%w: inconsistent offsets", ErrLUTFormat)
	}
	for b := 0; b < bins; b++ {
		if ptr[b] > ptr[b+1] {
			return nil, fmt.Errorf("%w: inconsistent offsets", ErrLUTFormat)
		}
	}
	if ck := entriesChecksum(entries); ck != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: stored %08x, computed %08x",
			ErrLUTFormat, h.Checksum, ck)
	}
	// Integration indexes frames by these pixel values without further
	// bounds checks, so entries outside the declared detector stop here.
	for i := range entries {
		if p := entries[i].Pixel; p < 0 || uint32(p) >= h.Pixels {
			return nil, fmt.Errorf("%w: entry %d pixel %d outside %d-pixel detector",
				ErrLUTFormat, i, p, h.Pixels)
		}
	}

	l := &LUT{
		dims:     int(h.Dims),
		bins0:    int(h.Bins0),
		bins1:    int(h.Bins1),
		npix:     int(h.Pixels),
		grid0:    h.Grid0.grid(int(h.Bins0)),
		unit:     string(unit),
		empty:    h.Empty,
		maskCk:   h.MaskCk,
		ptr:      ptr,
		entries:  entries,
		checksum: h.Checksum,
	}
	if l.dims == 2 {
		l.grid1 = h.Grid1.grid(int(h.Bins1))
	}
	return l, nil
}

// checkHeader rejects implausible headers before any large allocation.
func checkHeader(h *lutHeader) error {
	switch {
	case h.Dims != 1 && h.Dims != 2:
		return fmt.Errorf("%w: %d dimensions", ErrLUTFormat, h.Dims)
	case h.Dims == 1 && h.Bins1 != 1:
		return fmt.Errorf("%w: 1d lut with %d azimuthal bins", ErrLUTFormat, h.Bins1)
	case h.Bins0 == 0 || h.Bins0 > maxWireBins || h.Bins1 == 0 || h.Bins1 > maxWireBins:
		return fmt.Errorf("%w: %dx%d bins", ErrLUTFormat, h.Bins0, h.Bins1)
	case uint64(h.Bins0)*uint64(h.Bins1) > math.MaxInt32:
		return fmt.Errorf("%w: %dx%d bins", ErrLUTFormat, h.Bins0, h.Bins1)
	case h.EntryCount > math.MaxInt32:
		return fmt.Errorf("%w: %d entries", ErrLUTFormat, h.EntryCount)
	case h.UnitLen > maxUnitLen:
		return fmt.Errorf("%w: %d-byte unit label", ErrLUTFormat, h.UnitLen)
	}
	return nil
}

// countWriter tracks bytes passed through to w for WriteTo's return value.
type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

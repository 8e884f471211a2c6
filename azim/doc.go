// Package azim builds sparse pixel-splitting lookup tables for azimuthal
// integration of area-detector frames.
//
// Each detector pixel carries a radial coordinate (scattering angle,
// momentum transfer, radius...) and optionally an azimuthal coordinate,
// each with an optional half-extent describing the pixel's axis-aligned
// bounding box in coordinate space. A builder computes the fractional
// overlap of every box with a regular grid of output bins and records the
// weighted contributions in an immutable, CSR-like LUT. The LUT is built
// once per detector geometry and reused across many frames: applying it
// to a frame is a sparse matrix-vector product (see the integrate
// subpackage).
//
// Basic usage:
//
//	lut, err := azim.BuildLUT1D(azim.Geometry[float32]{
//		Radial:  radii,
//		DRadial: halfWidths,
//		Mask:    badPixels,
//	}, azim.Options1D{Bins: 1000, Unit: "q_nm^-1"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := integrate.Frame(lut, frame, integrate.Options[float32]{})
//
// Builders come in serial and pooled flavors (BuildLUT1DWithPool and
// friends); the pooled variants partition pixels into disjoint contiguous
// strips, so results are independent of worker count up to entry order
// within a bin.
//
// When a pixel's box straddles several bins its unit weight is spread
// linearly over them; weights for a box fully inside the binned range sum
// to 1, and a box clipped by the range boundary keeps exactly its inside
// fraction. Masked pixels contribute nothing and do not influence
// automatic range detection.
//
// MinMaxReduce provides a two-stage workgroup tree reduction over flat
// coordinate buffers, mirroring the compute-device kernel used for range
// detection when frames live off-host; its result plugs into the builders
// as an explicit Range.
package azim

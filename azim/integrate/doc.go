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

// Package integrate applies a prebuilt azim.LUT to detector frames.
//
// # Algorithm
//
// Integration is a sparse matrix-vector product. For every output bin b:
//
//	Signal[b] = sum over entries e of b: Coef(e) * value(Pixel(e))
//	Norm[b]   = sum over entries e of b: Coef(e)
//	Mean[b]   = Signal[b] / Norm[b]
//
// where value() is the frame intensity after the optional per-pixel
// corrections (raw - dark) / (flat * solidAngle * polarization). Bins
// that received no contributions report the configured empty fill value
// instead of 0/0.
//
// When a variance array is supplied, sigma propagates through the same
// weights:
//
//	Sigma[b] = sqrt(sum Coef(e)^2 * variance(Pixel(e))) / Norm[b]
//
// # Example Usage
//
//	res, err := integrate.Frame(lut, frame, integrate.Options[float32]{
//		Dark: dark,
//		Flat: flat,
//	})
//	if err != nil {
//		return err
//	}
//	for i, q := range lut.RadialGrid().Centers() {
//		fmt.Printf("%8.4f  %g\n", q, res.Mean[i])
//	}
//
// All accumulation runs in float64 regardless of the frame element type,
// so float32 frames do not lose precision in long sums. Bins are
// independent, so FrameWithPool distributes contiguous bin ranges over a
// worker pool.
package integrate

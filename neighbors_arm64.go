//go:build arm64

package guml

import "github.com/viant/vec/search"

// cosineDistance takes the NEON/SVE path, which accepts precomputed
// magnitudes so the per-row norm is not recomputed on every query.
func cosineDistance(q search.Float32s, ref []float32, qMag, refMag float32) float32 {
	return q.CosineDistanceWithMagnitude(ref, qMag, refMag)
}

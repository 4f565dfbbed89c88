//go:build !arm64

package guml

import "github.com/viant/vec/search"

// The magnitude-accepting variant is only exported on arm64, so every
// other architecture recomputes the norms inside the portable path.
func cosineDistance(q search.Float32s, ref []float32, qMag, refMag float32) float32 {
	_, _ = qMag, refMag
	return q.CosineDistance(ref)
}

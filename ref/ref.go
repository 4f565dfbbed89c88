// Package ref provides host-side float64 reference estimators built on
// gonum and golearn. They are the CPU baseline the device estimators are
// compared against, and the oracle for parity tests: same fit semantics,
// no device memory, no float32 rounding.
package ref

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned by any transform on an unfitted estimator
var ErrNotFitted = errors.New("estimator is not fitted")

// Transformer is the host-side fit/transform contract
type Transformer interface {
	Fit(x *mat.Dense) error
	Transform(x *mat.Dense) (*mat.Dense, error)
	FitTransform(x *mat.Dense) (*mat.Dense, error)
}

// columnMeans returns the per-column means of x
func columnMeans(x *mat.Dense) []float64 {
	_, cols := x.Dims()
	means := make([]float64, cols)
	for j := 0; j < cols; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	return means
}

// subtractColumns returns a copy of x with v subtracted from each row
func subtractColumns(x *mat.Dense, v []float64) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, x.At(i, j)-v[j])
		}
	}
	return out
}

// totalPopVariance sums the biased per-column variances of x
func totalPopVariance(x *mat.Dense) float64 {
	_, cols := x.Dims()
	var total float64
	for j := 0; j < cols; j++ {
		total += stat.PopVariance(mat.Col(nil, j, x), nil)
	}
	return total
}

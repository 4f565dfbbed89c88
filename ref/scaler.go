package ref

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes columns to zero mean and unit variance on
// the host, with the population-variance convention the device scaler
// uses. Zero-variance columns keep a scale of one.
type StandardScaler struct {
	WithMean bool
	WithStd  bool

	mean   []float64
	scale  []float64
	fitted bool
}

// NewStandardScaler creates a scaler that both centers and scales
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

var _ Transformer = (*StandardScaler)(nil)

// Fit computes per-column means and scales from x
func (s *StandardScaler) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("standard scaler: empty input")
	}

	s.mean = make([]float64, cols)
	s.scale = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		s.mean[j] = stat.Mean(col, nil)
		std := math.Sqrt(stat.PopVariance(col, nil))
		if std == 0 {
			std = 1
		}
		s.scale[j] = std
	}
	s.fitted = true
	return nil
}

// Transform standardizes x with the fitted statistics
func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("standard scaler: input has %d features, fitted with %d", cols, len(s.mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j)
			if s.WithMean {
				v -= s.mean[j]
			}
			if s.WithStd {
				v /= s.scale[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform fits the scaler and standardizes x
func (s *StandardScaler) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// InverseTransform maps standardized data back to the original scale
func (s *StandardScaler) InverseTransform(x *mat.Dense) (*mat.Dense, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("standard scaler: input has %d features, fitted with %d", cols, len(s.mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j)
			if s.WithStd {
				v *= s.scale[j]
			}
			if s.WithMean {
				v += s.mean[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Mean returns the fitted per-column means
func (s *StandardScaler) Mean() []float64 { return s.mean }

// Scale returns the fitted per-column scales
func (s *StandardScaler) Scale() []float64 { return s.scale }

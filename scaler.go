package guml

import (
	"math"
)

// StandardScaler standardizes features by removing the per-column mean and
// scaling to unit variance. Columns with zero variance are passed through
// unscaled. Matches the preprocessing step that precedes the reducers.
type StandardScaler struct {
	// WithMean controls centering. Disable for sparse-like data where
	// centering would destroy structure.
	WithMean bool
	// WithStd controls scaling to unit variance.
	WithStd bool

	mean  []float32
	scale []float32

	nFeatures int
	fitted    bool
}

// NewStandardScaler returns a scaler with centering and scaling enabled
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

var _ Transformer = (*StandardScaler)(nil)

// Fit learns per-column mean and standard deviation
func (s *StandardScaler) Fit(x *Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmptyInput
	}

	means, err := x.ColumnMeans()
	if err != nil {
		return err
	}

	// Column variance with the biased (1/n) denominator
	variances := make([]float32, cols)
	data := x.Float32()
	for j := 0; j < cols; j++ {
		var sum float64
		mj := float64(means[j])
		for i := 0; i < rows; i++ {
			d := float64(data[i*cols+j]) - mj
			sum += d * d
		}
		variances[j] = float32(sum / float64(rows))
	}

	s.mean = means
	s.scale = make([]float32, cols)
	for j := range s.scale {
		std := float32(math.Sqrt(float64(variances[j])))
		if std == 0 {
			std = 1
		}
		s.scale[j] = std
	}

	s.nFeatures = cols
	s.fitted = true
	return nil
}

// Transform standardizes x using the fitted statistics
func (s *StandardScaler) Transform(x *Matrix) (*Matrix, error) {
	if !s.fitted {
		return nil, NewNotFittedError("StandardScaler.Transform")
	}
	rows, cols := x.Dims()
	if cols != s.nFeatures {
		return nil, ErrDimensionMismatch
	}

	out, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	n := rows * cols
	mean := s.mean
	scale := s.scale
	withMean := s.WithMean
	withStd := s.WithStd
	in := x.Float32()
	dst := out.Float32()

	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx >= n {
			return
		}
		j := idx % cols
		v := in[idx]
		if withMean {
			v -= mean[j]
		}
		if withStd {
			v /= scale[j]
		}
		dst[idx] = v
	})

	if err := Launch(kernel, grid, block); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}
	return out, nil
}

// FitTransform fits the scaler and transforms x in one step
func (s *StandardScaler) FitTransform(x *Matrix) (*Matrix, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// InverseTransform maps standardized data back to the original scale
func (s *StandardScaler) InverseTransform(y *Matrix) (*Matrix, error) {
	if !s.fitted {
		return nil, NewNotFittedError("StandardScaler.InverseTransform")
	}
	rows, cols := y.Dims()
	if cols != s.nFeatures {
		return nil, ErrDimensionMismatch
	}

	out, err := y.Clone()
	if err != nil {
		return nil, err
	}

	n := rows * cols
	mean := s.mean
	scale := s.scale
	withMean := s.WithMean
	withStd := s.WithStd

	if err := ForEach(out.Data(), n, func(idx int, val *float32) {
		j := idx % cols
		if withStd {
			*val *= scale[j]
		}
		if withMean {
			*val += mean[j]
		}
	}); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}
	return out, nil
}

// Mean returns the fitted per-column means
func (s *StandardScaler) Mean() []float32 { return s.mean }

// Scale returns the fitted per-column standard deviations
func (s *StandardScaler) Scale() []float32 { return s.scale }

// MinMaxScaler rescales each column to a fixed output range, 0..1 by
// default. Constant columns map to the low end of the range.
type MinMaxScaler struct {
	// RangeMin and RangeMax define the output range
	RangeMin float32
	RangeMax float32

	dataMin []float32
	dataMax []float32
	scale   []float32

	nFeatures int
	fitted    bool
}

// NewMinMaxScaler returns a scaler targeting the unit interval
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{RangeMin: 0, RangeMax: 1}
}

var _ Transformer = (*MinMaxScaler)(nil)

// Fit learns per-column minimum and maximum
func (m *MinMaxScaler) Fit(x *Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmptyInput
	}
	if m.RangeMax <= m.RangeMin {
		return NewInvalidArgError("MinMaxScaler.Fit", "range max must exceed range min")
	}

	minOut, err := Malloc(cols * 4)
	if err != nil {
		return err
	}
	defer Free(minOut)
	maxOut, err := Malloc(cols * 4)
	if err != nil {
		return err
	}
	defer Free(maxOut)

	shape := []int{rows, cols}
	if err := ReduceMin(x.Data(), shape, 0, minOut); err != nil {
		return err
	}
	if err := ReduceMax(x.Data(), shape, 0, maxOut); err != nil {
		return err
	}

	m.dataMin = append([]float32(nil), minOut.Float32()[:cols]...)
	m.dataMax = append([]float32(nil), maxOut.Float32()[:cols]...)

	m.scale = make([]float32, cols)
	span := m.RangeMax - m.RangeMin
	for j := 0; j < cols; j++ {
		dataSpan := m.dataMax[j] - m.dataMin[j]
		if dataSpan == 0 {
			dataSpan = 1
		}
		m.scale[j] = span / dataSpan
	}

	m.nFeatures = cols
	m.fitted = true
	return nil
}

// Transform rescales x into the fitted range
func (m *MinMaxScaler) Transform(x *Matrix) (*Matrix, error) {
	if !m.fitted {
		return nil, NewNotFittedError("MinMaxScaler.Transform")
	}
	rows, cols := x.Dims()
	if cols != m.nFeatures {
		return nil, ErrDimensionMismatch
	}

	out, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	n := rows * cols
	in := x.Float32()
	dst := out.Float32()
	dataMin := m.dataMin
	scale := m.scale
	rangeMin := m.RangeMin

	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx >= n {
			return
		}
		j := idx % cols
		dst[idx] = (in[idx]-dataMin[j])*scale[j] + rangeMin
	})

	if err := Launch(kernel, grid, block); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}
	return out, nil
}

// FitTransform fits the scaler and transforms x in one step
func (m *MinMaxScaler) FitTransform(x *Matrix) (*Matrix, error) {
	if err := m.Fit(x); err != nil {
		return nil, err
	}
	return m.Transform(x)
}

// DataMin returns the fitted per-column minima
func (m *MinMaxScaler) DataMin() []float32 { return m.dataMin }

// DataMax returns the fitted per-column maxima
func (m *MinMaxScaler) DataMax() []float32 { return m.dataMax }

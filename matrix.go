package guml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major float32 matrix in device memory. It is the frame
// type the estimators consume, playing the role a GPU data frame plays in
// the original API: host data is converted once, then every Fit and
// Transform call stays on the device.
type Matrix struct {
	rows, cols int
	data       DevicePtr
}

// NewMatrix allocates an uninitialized rows×cols device matrix
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, NewInvalidArgError("NewMatrix", fmt.Sprintf("invalid shape %dx%d", rows, cols))
	}
	d, err := Malloc(rows * cols * 4)
	if err != nil {
		return nil, err
	}
	return &Matrix{rows: rows, cols: cols, data: d}, nil
}

// NewMatrixFrom allocates a device matrix and fills it from a row-major
// float32 slice
func NewMatrixFrom(rows, cols int, data []float32) (*Matrix, error) {
	if len(data) < rows*cols {
		return nil, NewInvalidArgError("NewMatrixFrom",
			fmt.Sprintf("need %d elements for %dx%d, have %d", rows*cols, rows, cols, len(data)))
	}
	m, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	if err := Memcpy(m.data, data, rows*cols*4, MemcpyHostToDevice); err != nil {
		m.Free()
		return nil, err
	}
	return m, nil
}

// FromDense converts a gonum host matrix to a device matrix, downcasting
// float64 to float32. This is the host-to-device transfer of the workflow:
// loaders and reference estimators speak *mat.Dense, kernels speak Matrix.
func FromDense(d mat.Matrix) (*Matrix, error) {
	rows, cols := d.Dims()
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyInput
	}
	m, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	out := m.Float32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = float32(d.At(i, j))
		}
	}
	return m, nil
}

// ToDense copies the device matrix back to a gonum host matrix,
// upcasting float32 to float64
func (m *Matrix) ToDense() *mat.Dense {
	out := mat.NewDense(m.rows, m.cols, nil)
	src := m.Float32()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(i, j, float64(src[i*m.cols+j]))
		}
	}
	return out
}

// Rows returns the number of rows
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return m.cols }

// Dims returns the matrix dimensions
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// Data returns the underlying device pointer
func (m *Matrix) Data() DevicePtr { return m.data }

// Float32 returns the row-major device data as a float32 slice
func (m *Matrix) Float32() []float32 {
	return m.data.Float32()[: m.rows*m.cols : m.rows*m.cols]
}

// Row returns a view of row i
func (m *Matrix) Row(i int) []float32 {
	return m.Float32()[i*m.cols : (i+1)*m.cols]
}

// At returns the element at (i, j)
func (m *Matrix) At(i, j int) float32 {
	return m.Float32()[i*m.cols+j]
}

// Set assigns the element at (i, j)
func (m *Matrix) Set(i, j int, v float32) {
	m.Float32()[i*m.cols+j] = v
}

// CopyTo copies the matrix into a host slice, which must hold at least
// rows*cols elements
func (m *Matrix) CopyTo(dst []float32) error {
	n := m.rows * m.cols
	if len(dst) < n {
		return NewInvalidArgError("Matrix.CopyTo",
			fmt.Sprintf("need %d elements, have %d", n, len(dst)))
	}
	return Memcpy(dst, m.data, n*4, MemcpyDeviceToHost)
}

// Clone allocates a device copy of the matrix
func (m *Matrix) Clone() (*Matrix, error) {
	c, err := NewMatrix(m.rows, m.cols)
	if err != nil {
		return nil, err
	}
	if err := Memcpy(c.data, m.data, m.rows*m.cols*4, MemcpyDeviceToDevice); err != nil {
		c.Free()
		return nil, err
	}
	return c, nil
}

// Free releases the device memory. The matrix must not be used afterwards.
func (m *Matrix) Free() error {
	if m == nil || m.data.ptr == nil {
		return nil
	}
	err := Free(m.data)
	m.data = DevicePtr{}
	return err
}

// ColumnMeans computes the per-column mean into a host slice
func (m *Matrix) ColumnMeans() ([]float32, error) {
	out, err := Malloc(m.cols * 4)
	if err != nil {
		return nil, err
	}
	defer Free(out)

	if err := ReduceMean(m.data, []int{m.rows, m.cols}, 0, out); err != nil {
		return nil, err
	}
	means := make([]float32, m.cols)
	copy(means, out.Float32()[:m.cols])
	return means, nil
}

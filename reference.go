// Package guml reference implementations for verification
package guml

import (
	"math"
)

// Reference contains simple, correct implementations of the device
// operations. The estimator pipelines run on the optimized paths; tests
// check those paths against these loops.
type Reference struct{}

// AXPY performs y = alpha*x + y
func (r Reference) AXPY(alpha float32, x, y []float32) {
	for i := range x {
		y[i] = alpha*x[i] + y[i]
	}
}

// DOT computes the dot product of x and y
func (r Reference) DOT(x, y []float32) float32 {
	var sum float32
	for i := range x {
		sum += x[i] * y[i]
	}
	return sum
}

// GEMM performs general matrix multiplication: C = alpha*op(A)*op(B) + beta*C
func (r Reference) GEMM(transA, transB bool, m, n, k int, alpha float32,
	a []float32, lda int, b []float32, ldb int,
	beta float32, c []float32, ldc int) {

	if beta != 1.0 {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				c[i*ldc+j] *= beta
			}
		}
	}

	at := func(i, l int) float32 {
		if transA {
			return a[l*lda+i]
		}
		return a[i*lda+l]
	}
	bt := func(l, j int) float32 {
		if transB {
			return b[j*ldb+l]
		}
		return b[l*ldb+j]
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += at(i, l) * bt(l, j)
			}
			c[i*ldc+j] += alpha * sum
		}
	}
}

// GEMV performs matrix-vector multiplication: y = alpha*A*x + beta*y
func (r Reference) GEMV(m, n int, alpha float32, a []float32, lda int,
	x []float32, beta float32, y []float32) {

	for i := 0; i < m; i++ {
		var sum float32
		for j := 0; j < n; j++ {
			sum += a[i*lda+j] * x[j]
		}
		y[i] = alpha*sum + beta*y[i]
	}
}

// Sum computes the sum of all elements
func (r Reference) Sum(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v
	}
	return sum
}

// SumSquares computes the sum of squared elements
func (r Reference) SumSquares(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Mean computes the arithmetic mean
func (r Reference) Mean(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	return r.Sum(x) / float32(len(x))
}

// Variance computes the sample variance with a plain two-pass loop
func (r Reference) Variance(x []float32) float32 {
	n := len(x)
	if n < 2 {
		return 0
	}
	mean := r.Mean(x)
	var sum float32
	for _, v := range x {
		d := v - mean
		sum += d * d
	}
	return sum / float32(n-1)
}

// Max returns the largest element
func (r Reference) Max(x []float32) float32 {
	max := float32(math.Inf(-1))
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	return max
}

// Min returns the smallest element
func (r Reference) Min(x []float32) float32 {
	min := float32(math.Inf(1))
	for _, v := range x {
		if v < min {
			min = v
		}
	}
	return min
}

// ArgMax returns the index of the largest element
func (r Reference) ArgMax(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	idx := 0
	for i, v := range x {
		if v > x[idx] {
			idx = i
		}
	}
	return idx
}

// ArgMin returns the index of the smallest element
func (r Reference) ArgMin(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	idx := 0
	for i, v := range x {
		if v < x[idx] {
			idx = i
		}
	}
	return idx
}

// Softmax computes exp(x-max)/sum(exp(x-max)) in place
func (r Reference) Softmax(x []float32) {
	max := r.Max(x)
	var sum float32
	for i := range x {
		x[i] = float32(math.Exp(float64(x[i] - max)))
		sum += x[i]
	}
	for i := range x {
		x[i] /= sum
	}
}

// L2DistanceSquared computes the squared Euclidean distance between x and y
func (r Reference) L2DistanceSquared(x, y []float32) float32 {
	var sum float32
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return sum
}

// ColumnSums sums a row-major rows x cols matrix along axis 0
func (r Reference) ColumnSums(x []float32, rows, cols int) []float32 {
	out := make([]float32, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j] += x[i*cols+j]
		}
	}
	return out
}

// RowSums sums a row-major rows x cols matrix along axis 1
func (r Reference) RowSums(x []float32, rows, cols int) []float32 {
	out := make([]float32, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i] += x[i*cols+j]
		}
	}
	return out
}

// ColumnMeans computes per-column means of a row-major matrix
func (r Reference) ColumnMeans(x []float32, rows, cols int) []float32 {
	out := r.ColumnSums(x, rows, cols)
	if rows > 0 {
		for j := range out {
			out[j] /= float32(rows)
		}
	}
	return out
}

// Covariance computes the biased covariance matrix of a row-major
// rows x cols matrix: centering, then (1/rows)*Xc'*Xc. This is the
// contraction at the heart of the PCA fit.
func (r Reference) Covariance(x []float32, rows, cols int) []float32 {
	means := r.ColumnMeans(x, rows, cols)
	centered := make([]float32, len(x))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered[i*cols+j] = x[i*cols+j] - means[j]
		}
	}

	out := make([]float32, cols*cols)
	for p := 0; p < cols; p++ {
		for q := 0; q < cols; q++ {
			var sum float32
			for i := 0; i < rows; i++ {
				sum += centered[i*cols+p] * centered[i*cols+q]
			}
			out[p*cols+q] = sum / float32(rows)
		}
	}
	return out
}

// Gram computes X'*X of a row-major rows x cols matrix. The truncated
// SVD fit decomposes this instead of the covariance.
func (r Reference) Gram(x []float32, rows, cols int) []float32 {
	out := make([]float32, cols*cols)
	for p := 0; p < cols; p++ {
		for q := 0; q < cols; q++ {
			var sum float32
			for i := 0; i < rows; i++ {
				sum += x[i*cols+p] * x[i*cols+q]
			}
			out[p*cols+q] = sum
		}
	}
	return out
}

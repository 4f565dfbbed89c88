// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package f32 provides float32 vector primitives for the GUML kernels.
// The loops are written for the compiler's auto-vectorizer: unrolled by
// four with independent accumulators so AVX2 hardware keeps multiple
// FMA chains in flight.
package f32

import "math"

// AxpyUnitary computes y += alpha * x
func AxpyUnitary(alpha float32, x, y []float32) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	i := 0
	for ; i <= n-4; i += 4 {
		y[i] += alpha * x[i]
		y[i+1] += alpha * x[i+1]
		y[i+2] += alpha * x[i+2]
		y[i+3] += alpha * x[i+3]
	}
	for ; i < n; i++ {
		y[i] += alpha * x[i]
	}
}

// AxpyUnitaryTo computes dst = alpha*x + y
func AxpyUnitaryTo(dst []float32, alpha float32, x, y []float32) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if len(dst) < n {
		n = len(dst)
	}
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = alpha*x[i] + y[i]
		dst[i+1] = alpha*x[i+1] + y[i+1]
		dst[i+2] = alpha*x[i+2] + y[i+2]
		dst[i+3] = alpha*x[i+3] + y[i+3]
	}
	for ; i < n; i++ {
		dst[i] = alpha*x[i] + y[i]
	}
}

// DotUnitary returns the dot product of x and y
func DotUnitary(x, y []float32) float32 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var s0, s1, s2, s3 float32
	i := 0
	for ; i <= n-4; i += 4 {
		s0 += x[i] * y[i]
		s1 += x[i+1] * y[i+1]
		s2 += x[i+2] * y[i+2]
		s3 += x[i+3] * y[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += x[i] * y[i]
	}
	return sum
}

// ScalUnitary computes x *= alpha in place
func ScalUnitary(alpha float32, x []float32) {
	i := 0
	n := len(x)
	for ; i <= n-4; i += 4 {
		x[i] *= alpha
		x[i+1] *= alpha
		x[i+2] *= alpha
		x[i+3] *= alpha
	}
	for ; i < n; i++ {
		x[i] *= alpha
	}
}

// ScalUnitaryTo computes dst = alpha * x
func ScalUnitaryTo(dst []float32, alpha float32, x []float32) {
	n := len(x)
	if len(dst) < n {
		n = len(dst)
	}
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = alpha * x[i]
		dst[i+1] = alpha * x[i+1]
		dst[i+2] = alpha * x[i+2]
		dst[i+3] = alpha * x[i+3]
	}
	for ; i < n; i++ {
		dst[i] = alpha * x[i]
	}
}

// AddConst adds alpha to every element of x
func AddConst(alpha float32, x []float32) {
	i := 0
	n := len(x)
	for ; i <= n-4; i += 4 {
		x[i] += alpha
		x[i+1] += alpha
		x[i+2] += alpha
		x[i+3] += alpha
	}
	for ; i < n; i++ {
		x[i] += alpha
	}
}

// Sum returns the sum of all elements in x
func Sum(x []float32) float32 {
	var s0, s1, s2, s3 float32
	i := 0
	n := len(x)
	for ; i <= n-4; i += 4 {
		s0 += x[i]
		s1 += x[i+1]
		s2 += x[i+2]
		s3 += x[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += x[i]
	}
	return sum
}

// SumSquares computes the sum of squares of all elements
func SumSquares(x []float32) float32 {
	var s0, s1, s2, s3 float32
	i := 0
	n := len(x)
	for ; i <= n-4; i += 4 {
		s0 += x[i] * x[i]
		s1 += x[i+1] * x[i+1]
		s2 += x[i+2] * x[i+2]
		s3 += x[i+3] * x[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += x[i] * x[i]
	}
	return sum
}

// Nrm2 returns the Euclidean norm of x
func Nrm2(x []float32) float32 {
	return float32(math.Sqrt(float64(SumSquares(x))))
}

// L2DistanceSquared returns the squared Euclidean distance between x and y.
// This is the inner loop of the KMeans assignment and kNN kernels, so it
// carries the same four-accumulator unrolling as DotUnitary.
func L2DistanceSquared(x, y []float32) float32 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var s0, s1, s2, s3 float32
	i := 0
	for ; i <= n-4; i += 4 {
		d0 := x[i] - y[i]
		d1 := x[i+1] - y[i+1]
		d2 := x[i+2] - y[i+2]
		d3 := x[i+3] - y[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		d := x[i] - y[i]
		sum += d * d
	}
	return sum
}

// Max returns the maximum value in x
func Max(x []float32) float32 {
	if len(x) == 0 {
		return float32(math.Inf(-1))
	}
	max := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > max {
			max = x[i]
		}
	}
	return max
}

// Min returns the minimum value in x
func Min(x []float32) float32 {
	if len(x) == 0 {
		return float32(math.Inf(1))
	}
	min := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] < min {
			min = x[i]
		}
	}
	return min
}

// ArgMax returns the index of the maximum value in x
func ArgMax(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	maxIdx := 0
	maxVal := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxVal {
			maxVal = x[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// ArgMin returns the index of the minimum value in x
func ArgMin(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	minIdx := 0
	minVal := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] < minVal {
			minVal = x[i]
			minIdx = i
		}
	}
	return minIdx
}

package guml

import (
	"github.com/LynnColeArt/guml/compute/f32"
)

// BLAS operations over device memory

// AXPY performs y = alpha*x + y
func AXPY(alpha float32, x, y DevicePtr, n int) error {
	xf32 := x.Float32()[:n]
	yf32 := y.Float32()[:n]

	f32.AxpyUnitary(alpha, xf32, yf32)

	return nil
}

// DOT computes the dot product of two vectors
func DOT(x, y DevicePtr, n int) (float32, error) {
	xf32 := x.Float32()[:n]
	yf32 := y.Float32()[:n]

	return f32.DotUnitary(xf32, yf32), nil
}

// GEMM performs C = alpha*op(A)*op(B) + beta*C
func GEMM(transA, transB bool, m, n, k int, alpha float32,
	a DevicePtr, lda int,
	b DevicePtr, ldb int,
	beta float32,
	c DevicePtr, ldc int) error {

	af32 := a.Float32()
	bf32 := b.Float32()
	cf32 := c.Float32()

	f32.Gemm(transA, transB, m, n, k,
		alpha, af32, lda,
		bf32, ldb,
		beta, cf32, ldc)

	return nil
}

// GEMV performs y = alpha*A*x + beta*y for a row-major m×n matrix
func GEMV(m, n int, alpha float32, a DevicePtr, lda int, x DevicePtr, beta float32, y DevicePtr) error {
	f32.Gemv(m, n, alpha, a.Float32(), lda, x.Float32()[:n], beta, y.Float32()[:m])
	return nil
}

// Element-wise operations

// Add performs element-wise addition: c = a + b
func Add(a, b, c DevicePtr, n int) error {
	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < n {
			aSlice := a.Float32()
			bSlice := b.Float32()
			cSlice := c.Float32()
			cSlice[idx] = aSlice[idx] + bSlice[idx]
		}
	})

	return Launch(kernel, grid, block)
}

// Subtract performs element-wise subtraction: c = a - b
func Subtract(a, b, c DevicePtr, n int) error {
	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < n {
			aSlice := a.Float32()
			bSlice := b.Float32()
			cSlice := c.Float32()
			cSlice[idx] = aSlice[idx] - bSlice[idx]
		}
	})

	return Launch(kernel, grid, block)
}

// Multiply performs element-wise multiplication: c = a * b
func Multiply(a, b, c DevicePtr, n int) error {
	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < n {
			aSlice := a.Float32()
			bSlice := b.Float32()
			cSlice := c.Float32()
			cSlice[idx] = aSlice[idx] * bSlice[idx]
		}
	})

	return Launch(kernel, grid, block)
}

// Scale multiplies all elements by a scalar: x = alpha * x
func Scale(alpha float32, x DevicePtr, n int) error {
	xf32 := x.Float32()[:n]

	f32.ScalUnitary(alpha, xf32)

	return nil
}

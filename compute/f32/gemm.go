// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package f32

// blockSize is chosen so three float32 tiles fit in L1 cache
const blockSize = 64

// Gemm computes C = alpha*op(A)*op(B) + beta*C for row-major matrices.
// op(X) is X or Xᵀ depending on the trans flags. C is m×n, op(A) is m×k
// and op(B) is k×n. Leading dimensions are the row strides of the stored
// (untransposed) matrices.
func Gemm(transA, transB bool, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) {
	if m == 0 || n == 0 {
		return
	}

	// Scale C by beta up front so the accumulation loops only add
	if beta == 0 {
		for i := 0; i < m; i++ {
			row := c[i*ldc : i*ldc+n]
			for j := range row {
				row[j] = 0
			}
		}
	} else if beta != 1 {
		for i := 0; i < m; i++ {
			ScalUnitary(beta, c[i*ldc:i*ldc+n])
		}
	}

	if alpha == 0 || k == 0 {
		return
	}

	switch {
	case !transA && !transB:
		gemmNN(m, n, k, alpha, a, lda, b, ldb, c, ldc)
	case transA && !transB:
		gemmTN(m, n, k, alpha, a, lda, b, ldb, c, ldc)
	case !transA && transB:
		gemmNT(m, n, k, alpha, a, lda, b, ldb, c, ldc)
	default:
		gemmTT(m, n, k, alpha, a, lda, b, ldb, c, ldc)
	}
}

// gemmNN accumulates C += alpha*A*B using the saxpy form: each a[i][l]
// scales row l of B into row i of C. Sequential access on both B and C
// keeps the inner loop vectorizable.
func gemmNN(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for lb := 0; lb < k; lb += blockSize {
		lEnd := lb + blockSize
		if lEnd > k {
			lEnd = k
		}
		for i := 0; i < m; i++ {
			crow := c[i*ldc : i*ldc+n]
			for l := lb; l < lEnd; l++ {
				av := alpha * a[i*lda+l]
				if av == 0 {
					continue
				}
				AxpyUnitary(av, b[l*ldb:l*ldb+n], crow)
			}
		}
	}
}

// gemmTN accumulates C += alpha*Aᵀ*B where A is stored k×m.
// This is the covariance form: Gram matrices are Aᵀ*A with b == a.
func gemmTN(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for lb := 0; lb < k; lb += blockSize {
		lEnd := lb + blockSize
		if lEnd > k {
			lEnd = k
		}
		for l := lb; l < lEnd; l++ {
			arow := a[l*lda : l*lda+m]
			brow := b[l*ldb : l*ldb+n]
			for i := 0; i < m; i++ {
				av := alpha * arow[i]
				if av == 0 {
					continue
				}
				AxpyUnitary(av, brow, c[i*ldc:i*ldc+n])
			}
		}
	}
}

// gemmNT accumulates C += alpha*A*Bᵀ where B is stored n×k.
// Each C entry is a dot product of an A row with a B row, which is the
// projection-inverse form (Y*Vᵀ with components stored row-major).
func gemmNT(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := 0; i < m; i++ {
		arow := a[i*lda : i*lda+k]
		crow := c[i*ldc : i*ldc+n]
		for j := 0; j < n; j++ {
			crow[j] += alpha * DotUnitary(arow, b[j*ldb:j*ldb+k])
		}
	}
}

// gemmTT accumulates C += alpha*Aᵀ*Bᵀ. Rare path, kept simple.
func gemmTT(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += a[l*lda+i] * b[j*ldb+l]
			}
			c[i*ldc+j] += alpha * sum
		}
	}
}

// Gemv computes y = alpha*A*x + beta*y for a row-major m×n matrix A
func Gemv(m, n int, alpha float32, a []float32, lda int, x []float32, beta float32, y []float32) {
	for i := 0; i < m; i++ {
		dot := DotUnitary(a[i*lda:i*lda+n], x)
		if beta == 0 {
			y[i] = alpha * dot
		} else {
			y[i] = alpha*dot + beta*y[i]
		}
	}
}

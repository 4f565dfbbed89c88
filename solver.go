package guml

import (
	"math"
	"sort"
)

// Symmetric eigendecomposition for the covariance and Gram matrices the
// reducers build. The matrices are d×d where d is the feature count, so
// the solve is cheap next to the GEMM that produced it. Rotations are
// accumulated in float64: float32 is enough for the data pass but not for
// repeated Jacobi updates.

// EigenSym computes the eigendecomposition of a symmetric device matrix.
// Eigenvalues are returned in descending order. The columns of the
// returned matrix are the corresponding unit eigenvectors.
func EigenSym(a *Matrix) (eigenvalues []float32, eigenvectors *Matrix, err error) {
	if a.rows != a.cols {
		return nil, nil, NewInvalidArgError("EigenSym", "matrix must be square")
	}
	d := a.rows

	vals, vecs := jacobiEigen(a.Float32(), d)

	eigenvalues = make([]float32, d)
	for i, v := range vals {
		eigenvalues[i] = float32(v)
	}

	eigenvectors, err = NewMatrix(d, d)
	if err != nil {
		return nil, nil, err
	}
	out := eigenvectors.Float32()
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = float32(vecs[i*d+j])
		}
	}
	return eigenvalues, eigenvectors, nil
}

// jacobiEigen runs cyclic Jacobi rotations on a copy of the row-major
// symmetric matrix a. It returns eigenvalues in descending order and the
// eigenvector matrix with eigenvectors in columns, both in float64.
func jacobiEigen(a []float32, d int) (values []float64, vectors []float64) {
	// Work on a float64 copy
	m := make([]float64, d*d)
	for i := range m {
		m[i] = float64(a[i])
	}

	// v starts as identity and accumulates rotations
	v := make([]float64, d*d)
	for i := 0; i < d; i++ {
		v[i*d+i] = 1
	}

	norm := frobeniusNorm(m, d)
	if norm == 0 {
		norm = 1
	}

	for sweep := 0; sweep < MaxJacobiSweeps; sweep++ {
		off := offDiagonalNorm(m, d)
		if off <= JacobiTolerance*norm {
			break
		}

		for p := 0; p < d-1; p++ {
			for q := p + 1; q < d; q++ {
				apq := m[p*d+q]
				if math.Abs(apq) < 1e-300 {
					continue
				}

				app := m[p*d+p]
				aqq := m[q*d+q]

				// Rotation angle that zeroes m[p][q]
				theta := (aqq - app) / (2 * apq)
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				// Update rows and columns p, q of m
				for i := 0; i < d; i++ {
					aip := m[i*d+p]
					aiq := m[i*d+q]
					m[i*d+p] = c*aip - s*aiq
					m[i*d+q] = s*aip + c*aiq
				}
				for i := 0; i < d; i++ {
					api := m[p*d+i]
					aqi := m[q*d+i]
					m[p*d+i] = c*api - s*aqi
					m[q*d+i] = s*api + c*aqi
				}

				// Accumulate rotation into eigenvector columns
				for i := 0; i < d; i++ {
					vip := v[i*d+p]
					viq := v[i*d+q]
					v[i*d+p] = c*vip - s*viq
					v[i*d+q] = s*vip + c*viq
				}
			}
		}
	}

	// Extract and sort eigenvalues descending, permuting columns of v
	values = make([]float64, d)
	order := make([]int, d)
	for i := 0; i < d; i++ {
		values[i] = m[i*d+i]
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	sortedVals := make([]float64, d)
	sortedVecs := make([]float64, d*d)
	for newCol, oldCol := range order {
		sortedVals[newCol] = values[oldCol]
		for i := 0; i < d; i++ {
			sortedVecs[i*d+newCol] = v[i*d+oldCol]
		}
	}
	return sortedVals, sortedVecs
}

func frobeniusNorm(m []float64, d int) float64 {
	var sum float64
	for i := 0; i < d*d; i++ {
		sum += m[i] * m[i]
	}
	return math.Sqrt(sum)
}

func offDiagonalNorm(m []float64, d int) float64 {
	var sum float64
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			if i != j {
				sum += m[i*d+j] * m[i*d+j]
			}
		}
	}
	return math.Sqrt(sum)
}

// svdFlipRows applies the deterministic sign convention used by sklearn:
// each row is oriented so its entry of largest magnitude is positive.
// Without this, component signs depend on rotation order and backends
// cannot be compared directly.
func svdFlipRows(data []float32, rows, cols int) {
	for i := 0; i < rows; i++ {
		row := data[i*cols : (i+1)*cols]
		maxIdx := 0
		maxAbs := float32(0)
		for j, val := range row {
			if a := float32(math.Abs(float64(val))); a > maxAbs {
				maxAbs = a
				maxIdx = j
			}
		}
		if row[maxIdx] < 0 {
			for j := range row {
				row[j] = -row[j]
			}
		}
	}
}

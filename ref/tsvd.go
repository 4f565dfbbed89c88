package ref

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TruncatedSVD is the host baseline for uncentered spectral projection:
// a thin gonum SVD of x with the top k right singular vectors retained.
type TruncatedSVD struct {
	// NComponents is the projection width. Zero selects 2.
	NComponents int

	v                      *mat.Dense // d×k right singular vectors
	singularValues         []float64
	explainedVariance      []float64
	explainedVarianceRatio []float64
	nFeatures              int
	fitted                 bool
}

// NewTruncatedSVD creates a reference TruncatedSVD
func NewTruncatedSVD(nComponents int) *TruncatedSVD {
	return &TruncatedSVD{NComponents: nComponents}
}

var _ Transformer = (*TruncatedSVD)(nil)

func (t *TruncatedSVD) components(rows, cols int) int {
	k := t.NComponents
	if k <= 0 {
		k = 2
	}
	if k > cols {
		k = cols
	}
	if k > rows {
		k = rows
	}
	return k
}

// Fit factorizes x and keeps the leading right singular vectors
func (t *TruncatedSVD) Fit(x *mat.Dense) error {
	_, err := t.fit(x)
	return err
}

func (t *TruncatedSVD) fit(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("truncated svd: empty input")
	}
	k := t.components(rows, cols)

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("truncated svd: factorization did not converge")
	}

	var v mat.Dense
	svd.VTo(&v)
	t.v = mat.DenseCopyOf(v.Slice(0, cols, 0, k))

	values := svd.Values(nil)
	t.singularValues = values[:k:k]

	proj := mat.NewDense(rows, k, nil)
	proj.Mul(x, t.v)

	// Biased variances, matching the uncentered projection convention
	total := totalPopVariance(x)
	t.explainedVariance = make([]float64, k)
	t.explainedVarianceRatio = make([]float64, k)
	for j := 0; j < k; j++ {
		ev := stat.PopVariance(mat.Col(nil, j, proj), nil)
		t.explainedVariance[j] = ev
		if total > 0 {
			t.explainedVarianceRatio[j] = ev / total
		}
	}

	t.nFeatures = cols
	t.fitted = true
	return proj, nil
}

// Transform projects x onto the fitted singular vectors
func (t *TruncatedSVD) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !t.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != t.nFeatures {
		return nil, fmt.Errorf("truncated svd: input has %d features, fitted with %d", cols, t.nFeatures)
	}
	_, k := t.v.Dims()
	proj := mat.NewDense(rows, k, nil)
	proj.Mul(x, t.v)
	return proj, nil
}

// FitTransform fits the estimator and returns the training projection
func (t *TruncatedSVD) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	return t.fit(x)
}

// SingularValues returns the top k singular values, descending
func (t *TruncatedSVD) SingularValues() []float64 { return t.singularValues }

// ExplainedVariance returns the variance of each projected column
func (t *TruncatedSVD) ExplainedVariance() []float64 { return t.explainedVariance }

// ExplainedVarianceRatio returns each column's share of total input variance
func (t *TruncatedSVD) ExplainedVarianceRatio() []float64 { return t.explainedVarianceRatio }

// Components returns the d×k right singular vector matrix
func (t *TruncatedSVD) Components() *mat.Dense { return t.v }

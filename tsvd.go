package guml

import (
	"math"
)

// TruncatedSVDParams configures a TruncatedSVD estimator
type TruncatedSVDParams struct {
	// NComponents is the output dimensionality. Zero selects
	// DefaultNComponents clamped to the data shape.
	NComponents int
}

// TruncatedSVD performs dimensionality reduction by a truncated singular
// value decomposition. Unlike PCA the data is not centered, which is what
// makes the method usable on data where the origin is meaningful. The
// right singular vectors come from an eigendecomposition of the Gram
// matrix XᵀX, whose eigenvalues are the squared singular values.
type TruncatedSVD struct {
	params TruncatedSVDParams

	components             *Matrix
	singularValues         []float32
	explainedVariance      []float32
	explainedVarianceRatio []float32

	nFeatures int
	fitted    bool
}

// NewTruncatedSVD creates a TruncatedSVD estimator
func NewTruncatedSVD(params TruncatedSVDParams) *TruncatedSVD {
	return &TruncatedSVD{params: params}
}

var _ Transformer = (*TruncatedSVD)(nil)

// Fit learns the leading right singular vectors of x
func (t *TruncatedSVD) Fit(x *Matrix) error {
	emb, err := t.fit(x)
	if err != nil {
		return err
	}
	return emb.Free()
}

func (t *TruncatedSVD) fit(x *Matrix) (*Matrix, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyInput
	}

	k, err := resolveComponents(t.params.NComponents, rows, cols)
	if err != nil {
		return nil, err
	}

	// Gram = Xᵀ·X, uncentered
	gram, err := NewMatrix(cols, cols)
	if err != nil {
		return nil, err
	}
	defer gram.Free()

	if err := GEMM(true, false, cols, cols, rows, 1,
		x.Data(), cols,
		x.Data(), cols,
		0, gram.Data(), cols); err != nil {
		return nil, err
	}
	if err := Synchronize(); err != nil {
		return nil, err
	}

	eigenvalues, eigenvectors, err := EigenSym(gram)
	if err != nil {
		return nil, err
	}
	defer eigenvectors.Free()

	components, err := NewMatrix(k, cols)
	if err != nil {
		return nil, err
	}
	cdata := components.Float32()
	vdata := eigenvectors.Float32()
	for c := 0; c < k; c++ {
		for j := 0; j < cols; j++ {
			cdata[c*cols+j] = vdata[j*cols+c]
		}
	}
	svdFlipRows(cdata, k, cols)

	singular := make([]float32, k)
	for i := 0; i < k; i++ {
		ev := float64(eigenvalues[i])
		if ev < 0 {
			ev = 0
		}
		singular[i] = float32(math.Sqrt(ev))
	}

	if t.components != nil {
		t.components.Free()
	}
	t.components = components
	t.singularValues = singular
	t.nFeatures = cols
	t.fitted = true

	// Project the training data to derive the variance bookkeeping
	emb, err := t.Transform(x)
	if err != nil {
		return nil, err
	}

	t.explainedVariance = columnVariances(emb)
	totalVar := totalColumnVariance(x)
	if totalVar == 0 {
		totalVar = 1
	}
	t.explainedVarianceRatio = make([]float32, k)
	for i, v := range t.explainedVariance {
		t.explainedVarianceRatio[i] = float32(float64(v) / totalVar)
	}
	return emb, nil
}

// columnVariances computes the biased per-column variance of m
func columnVariances(m *Matrix) []float32 {
	rows, cols := m.Dims()
	data := m.Float32()
	out := make([]float32, cols)
	for j := 0; j < cols; j++ {
		var mean float64
		for i := 0; i < rows; i++ {
			mean += float64(data[i*cols+j])
		}
		mean /= float64(rows)
		var sq float64
		for i := 0; i < rows; i++ {
			d := float64(data[i*cols+j]) - mean
			sq += d * d
		}
		out[j] = float32(sq / float64(rows))
	}
	return out
}

// totalColumnVariance sums the biased per-column variances of m
func totalColumnVariance(m *Matrix) float64 {
	var total float64
	for _, v := range columnVariances(m) {
		total += float64(v)
	}
	return total
}

// Transform projects x onto the fitted singular vectors
func (t *TruncatedSVD) Transform(x *Matrix) (*Matrix, error) {
	if !t.fitted {
		return nil, NewNotFittedError("TruncatedSVD.Transform")
	}
	rows, cols := x.Dims()
	if cols != t.nFeatures {
		return nil, ErrDimensionMismatch
	}

	k := t.components.Rows()
	out, err := NewMatrix(rows, k)
	if err != nil {
		return nil, err
	}

	// Y = X · Wᵀ
	if err := GEMM(false, true, rows, k, cols, 1,
		x.Data(), cols,
		t.components.Data(), cols,
		0, out.Data(), k); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}
	return out, nil
}

// FitTransform fits the estimator and projects x in one step
func (t *TruncatedSVD) FitTransform(x *Matrix) (*Matrix, error) {
	return t.fit(x)
}

// InverseTransform maps projected data back to the original feature space
func (t *TruncatedSVD) InverseTransform(y *Matrix) (*Matrix, error) {
	if !t.fitted {
		return nil, NewNotFittedError("TruncatedSVD.InverseTransform")
	}
	rows, cols := y.Dims()
	k := t.components.Rows()
	if cols != k {
		return nil, ErrDimensionMismatch
	}

	out, err := NewMatrix(rows, t.nFeatures)
	if err != nil {
		return nil, err
	}

	// X = Y · W
	if err := GEMM(false, false, rows, t.nFeatures, k, 1,
		y.Data(), k,
		t.components.Data(), t.nFeatures,
		0, out.Data(), t.nFeatures); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}
	return out, nil
}

// Components returns the k×d matrix of right singular vectors
func (t *TruncatedSVD) Components() *Matrix { return t.components }

// SingularValues returns the leading singular values of x
func (t *TruncatedSVD) SingularValues() []float32 { return t.singularValues }

// ExplainedVariance returns the variance of each projected coordinate
func (t *TruncatedSVD) ExplainedVariance() []float32 { return t.explainedVariance }

// ExplainedVarianceRatio returns each coordinate's share of the total
// input variance
func (t *TruncatedSVD) ExplainedVarianceRatio() []float32 { return t.explainedVarianceRatio }

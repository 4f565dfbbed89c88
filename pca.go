package guml

import (
	"fmt"
	"math"
)

// PCAParams configures a PCA estimator
type PCAParams struct {
	// NComponents is the output dimensionality. Zero selects
	// DefaultNComponents clamped to the data shape.
	NComponents int

	// Whiten divides the projected coordinates by the per-component
	// singular scale so the output has unit variance.
	Whiten bool
}

// PCA performs principal component analysis: the data is centered, the
// covariance matrix accumulated with a single GEMM, and its leading
// eigenvectors become the projection. Follows the covariance eigensolver
// path rather than a full SVD of the data matrix, which keeps the device
// work at one O(n·d²) pass plus a d×d solve.
type PCA struct {
	params PCAParams

	components             *Matrix   // k×d, rows are principal axes
	mean                   []float32 // d
	explainedVariance      []float32 // k
	explainedVarianceRatio []float32 // k
	singularValues         []float32 // k

	nSamples  int
	nFeatures int
	fitted    bool
}

// NewPCA creates a PCA estimator
func NewPCA(params PCAParams) *PCA {
	return &PCA{params: params}
}

var _ Transformer = (*PCA)(nil)

// resolveComponents picks the effective output dimensionality for a fit
func resolveComponents(requested, rows, cols int) (int, error) {
	limit := rows
	if cols < limit {
		limit = cols
	}
	k := requested
	if k <= 0 {
		k = DefaultNComponents
		if k > limit {
			k = limit
		}
	}
	if k > limit {
		return 0, NewInvalidArgError("NComponents",
			fmt.Sprintf("cannot extract %d components from %dx%d data", k, rows, cols))
	}
	return k, nil
}

// centerColumns returns a copy of x with the given column means removed
func centerColumns(x *Matrix, mean []float32) (*Matrix, error) {
	rows, cols := x.Dims()
	out, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	n := rows * cols
	in := x.Float32()
	dst := out.Float32()

	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx >= n {
			return
		}
		dst[idx] = in[idx] - mean[idx%cols]
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

// Fit learns the principal axes of x
func (p *PCA) Fit(x *Matrix) error {
	rows, cols := x.Dims()
	if rows < 2 {
		return NewInvalidArgError("PCA.Fit", "need at least 2 samples")
	}

	k, err := resolveComponents(p.params.NComponents, rows, cols)
	if err != nil {
		return err
	}

	mean, err := x.ColumnMeans()
	if err != nil {
		return err
	}

	centered, err := centerColumns(x, mean)
	if err != nil {
		return err
	}
	defer centered.Free()

	// Covariance = Zᵀ·Z / (n-1)
	cov, err := NewMatrix(cols, cols)
	if err != nil {
		return err
	}
	defer cov.Free()

	alpha := float32(1) / float32(rows-1)
	if err := GEMM(true, false, cols, cols, rows, alpha,
		centered.Data(), cols,
		centered.Data(), cols,
		0, cov.Data(), cols); err != nil {
		return err
	}
	if err := Synchronize(); err != nil {
		return err
	}

	eigenvalues, eigenvectors, err := EigenSym(cov)
	if err != nil {
		return err
	}
	defer eigenvectors.Free()

	// Components are the top-k eigenvector columns, stored as rows
	components, err := NewMatrix(k, cols)
	if err != nil {
		return err
	}
	cdata := components.Float32()
	vdata := eigenvectors.Float32()
	for c := 0; c < k; c++ {
		for j := 0; j < cols; j++ {
			cdata[c*cols+j] = vdata[j*cols+c]
		}
	}
	svdFlipRows(cdata, k, cols)

	// Variance bookkeeping. Tiny negative eigenvalues are rotation noise.
	var total float64
	for _, v := range eigenvalues {
		if v > 0 {
			total += float64(v)
		}
	}
	if total == 0 {
		total = 1
	}

	explained := make([]float32, k)
	ratio := make([]float32, k)
	singular := make([]float32, k)
	for i := 0; i < k; i++ {
		ev := eigenvalues[i]
		if ev < 0 {
			ev = 0
		}
		explained[i] = ev
		ratio[i] = float32(float64(ev) / total)
		singular[i] = float32(math.Sqrt(float64(ev) * float64(rows-1)))
	}

	if p.components != nil {
		p.components.Free()
	}
	p.components = components
	p.mean = mean
	p.explainedVariance = explained
	p.explainedVarianceRatio = ratio
	p.singularValues = singular
	p.nSamples = rows
	p.nFeatures = cols
	p.fitted = true
	return nil
}

// Transform projects x onto the fitted principal axes
func (p *PCA) Transform(x *Matrix) (*Matrix, error) {
	if !p.fitted {
		return nil, NewNotFittedError("PCA.Transform")
	}
	rows, cols := x.Dims()
	if cols != p.nFeatures {
		return nil, ErrDimensionMismatch
	}

	centered, err := centerColumns(x, p.mean)
	if err != nil {
		return nil, err
	}
	defer centered.Free()

	k := p.components.Rows()
	out, err := NewMatrix(rows, k)
	if err != nil {
		return nil, err
	}

	// Y = Z · Wᵀ
	if err := GEMM(false, true, rows, k, cols, 1,
		centered.Data(), cols,
		p.components.Data(), cols,
		0, out.Data(), k); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}

	if p.params.Whiten {
		data := out.Float32()
		for c := 0; c < k; c++ {
			sd := float32(math.Sqrt(float64(p.explainedVariance[c])))
			if sd == 0 {
				continue
			}
			inv := 1 / sd
			for i := 0; i < rows; i++ {
				data[i*k+c] *= inv
			}
		}
	}

	return out, nil
}

// FitTransform fits the estimator and projects x in one step
func (p *PCA) FitTransform(x *Matrix) (*Matrix, error) {
	if err := p.Fit(x); err != nil {
		return nil, err
	}
	return p.Transform(x)
}

// InverseTransform maps projected data back to the original feature space
func (p *PCA) InverseTransform(y *Matrix) (*Matrix, error) {
	if !p.fitted {
		return nil, NewNotFittedError("PCA.InverseTransform")
	}
	rows, cols := y.Dims()
	k := p.components.Rows()
	if cols != k {
		return nil, ErrDimensionMismatch
	}

	src := y
	if p.params.Whiten {
		// Undo whitening before projecting back
		var err error
		src, err = y.Clone()
		if err != nil {
			return nil, err
		}
		defer src.Free()
		data := src.Float32()
		for c := 0; c < k; c++ {
			sd := float32(math.Sqrt(float64(p.explainedVariance[c])))
			for i := 0; i < rows; i++ {
				data[i*k+c] *= sd
			}
		}
	}

	out, err := NewMatrix(rows, p.nFeatures)
	if err != nil {
		return nil, err
	}

	// X = Y · W
	if err := GEMM(false, false, rows, p.nFeatures, k, 1,
		src.Data(), k,
		p.components.Data(), p.nFeatures,
		0, out.Data(), p.nFeatures); err != nil {
		out.Free()
		return nil, err
	}
	if err := Synchronize(); err != nil {
		out.Free()
		return nil, err
	}

	// Restore the mean
	data := out.Float32()
	for i := 0; i < rows; i++ {
		for j := 0; j < p.nFeatures; j++ {
			data[i*p.nFeatures+j] += p.mean[j]
		}
	}
	return out, nil
}

// Components returns the k×d matrix of principal axes
func (p *PCA) Components() *Matrix { return p.components }

// Mean returns the fitted per-feature means
func (p *PCA) Mean() []float32 { return p.mean }

// ExplainedVariance returns the variance captured by each component
func (p *PCA) ExplainedVariance() []float32 { return p.explainedVariance }

// ExplainedVarianceRatio returns the fraction of total variance captured
// by each component
func (p *PCA) ExplainedVarianceRatio() []float32 { return p.explainedVarianceRatio }

// SingularValues returns the singular values of the centered data matrix
// corresponding to each component
func (p *PCA) SingularValues() []float32 { return p.singularValues }

// NComponents returns the fitted output dimensionality
func (p *PCA) NComponents() int {
	if p.components == nil {
		return 0
	}
	return p.components.Rows()
}

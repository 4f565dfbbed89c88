package ref

import (
	"fmt"

	glpca "github.com/sjwhitworth/golearn/pca"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA is the host principal-component baseline. golearn's SVD-backed PCA
// does the decomposition; centering and explained-variance bookkeeping
// live here, since the library projects uncentered data as-is.
type PCA struct {
	// NComponents is the projection width. Zero selects 2.
	NComponents int

	inner                  *glpca.PCA
	mean                   []float64
	explainedVariance      []float64
	explainedVarianceRatio []float64
	nFeatures              int
	fitted                 bool
}

// NewPCA creates a reference PCA
func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

var _ Transformer = (*PCA)(nil)

func (p *PCA) components(cols int) int {
	k := p.NComponents
	if k <= 0 {
		k = 2
	}
	if k > cols {
		k = cols
	}
	return k
}

// Fit learns the principal axes of x
func (p *PCA) Fit(x *mat.Dense) error {
	_, err := p.fit(x)
	return err
}

func (p *PCA) fit(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("pca: need at least 2 samples, have %d", rows)
	}
	k := p.components(cols)

	p.mean = columnMeans(x)
	centered := subtractColumns(x, p.mean)

	p.inner = glpca.NewPCA(k)
	p.inner.Fit(centered)
	proj := p.inner.Transform(centered)

	// Projected columns have zero mean, so their unbiased variances are
	// the covariance eigenvalues
	var total float64
	for j := 0; j < cols; j++ {
		total += stat.Variance(mat.Col(nil, j, centered), nil)
	}
	p.explainedVariance = make([]float64, k)
	p.explainedVarianceRatio = make([]float64, k)
	for j := 0; j < k; j++ {
		ev := stat.Variance(mat.Col(nil, j, proj), nil)
		p.explainedVariance[j] = ev
		if total > 0 {
			p.explainedVarianceRatio[j] = ev / total
		}
	}

	p.nFeatures = cols
	p.fitted = true
	return proj, nil
}

// Transform projects x onto the fitted axes
func (p *PCA) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	_, cols := x.Dims()
	if cols != p.nFeatures {
		return nil, fmt.Errorf("pca: input has %d features, fitted with %d", cols, p.nFeatures)
	}
	return p.inner.Transform(subtractColumns(x, p.mean)), nil
}

// FitTransform fits the estimator and returns the training projection
func (p *PCA) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	return p.fit(x)
}

// ExplainedVariance returns the variance captured per component
func (p *PCA) ExplainedVariance() []float64 { return p.explainedVariance }

// ExplainedVarianceRatio returns the per-component share of total variance
func (p *PCA) ExplainedVarianceRatio() []float64 { return p.explainedVarianceRatio }

// Mean returns the fitted per-feature means
func (p *PCA) Mean() []float64 { return p.mean }

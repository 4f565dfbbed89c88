package guml

import (
	"math"
	"math/rand"
)

// UMAPParams configures a UMAP estimator
type UMAPParams struct {
	// NComponents is the embedding dimensionality. Zero selects
	// DefaultNComponents.
	NComponents int

	// NNeighbors is the local neighborhood size. Zero selects
	// DefaultNNeighbors. Larger values favor global structure.
	NNeighbors int

	// MinDist is the minimum spacing of points in the embedding.
	// Zero selects 0.1.
	MinDist float64

	// Spread is the effective scale of embedded points. Zero selects 1.0.
	Spread float64

	// NEpochs is the number of optimization epochs. Zero selects 500 for
	// small datasets and 200 for large ones.
	NEpochs int

	// LearningRate is the initial SGD step size. Zero selects 1.0.
	LearningRate float64

	// NegativeSampleRate is the number of repulsive samples per
	// attractive update. Zero selects 5.
	NegativeSampleRate int

	// Init selects the starting layout: "pca" (default) or "random".
	Init string

	// Metric is the high-dimensional distance. Empty selects Euclidean.
	Metric Metric

	// RandomState seeds initialization and negative sampling. The layout
	// loop is sequential, so one seed reproduces one embedding exactly.
	RandomState int64
}

// UMAP learns a low-dimensional embedding that preserves the local
// manifold structure of the input. The pipeline is the standard one:
// exact kNN, per-point bandwidth calibration against log2(k), fuzzy
// union of the directed neighborhood graph, then stochastic gradient
// descent over graph edges with negative sampling.
type UMAP struct {
	params UMAPParams

	embedding *Matrix
	trainData *Matrix
	a, b      float64

	nFeatures int
	fitted    bool
}

// NewUMAP creates a UMAP estimator
func NewUMAP(params UMAPParams) *UMAP {
	return &UMAP{params: params}
}

var _ Transformer = (*UMAP)(nil)

func (u *UMAP) nComponents() int {
	if u.params.NComponents <= 0 {
		return DefaultNComponents
	}
	return u.params.NComponents
}

func (u *UMAP) nNeighbors() int {
	if u.params.NNeighbors <= 0 {
		return DefaultNNeighbors
	}
	return u.params.NNeighbors
}

func (u *UMAP) minDist() float64 {
	if u.params.MinDist <= 0 {
		return 0.1
	}
	return u.params.MinDist
}

func (u *UMAP) spread() float64 {
	if u.params.Spread <= 0 {
		return 1.0
	}
	return u.params.Spread
}

func (u *UMAP) learningRate() float64 {
	if u.params.LearningRate <= 0 {
		return 1.0
	}
	return u.params.LearningRate
}

func (u *UMAP) negativeSampleRate() int {
	if u.params.NegativeSampleRate <= 0 {
		return 5
	}
	return u.params.NegativeSampleRate
}

func (u *UMAP) nEpochs(nSamples int) int {
	if u.params.NEpochs > 0 {
		return u.params.NEpochs
	}
	if nSamples <= 10000 {
		return 500
	}
	return 200
}

// umapEdge is one directed edge of the fuzzy neighborhood graph
type umapEdge struct {
	head, tail int
	weight     float64
}

// Fit learns an embedding of x
func (u *UMAP) Fit(x *Matrix) error {
	_, err := u.fit(x)
	return err
}

func (u *UMAP) fit(x *Matrix) (*Matrix, error) {
	rows, cols := x.Dims()
	k := u.nNeighbors()
	if rows <= k {
		return nil, NewInvalidArgError("UMAP.Fit", "need more samples than NNeighbors")
	}

	nn := NewNearestNeighbors(NearestNeighborsParams{NNeighbors: k, Metric: u.params.Metric})
	if err := nn.Fit(x); err != nil {
		return nil, err
	}
	knnDists, knnIndices, err := nn.KNeighbors(x)
	if err != nil {
		return nil, err
	}
	defer knnDists.Free()

	rhos, sigmas := smoothKNNDist(knnDists, k)
	edges := fuzzySimplicialSet(knnIndices, knnDists, rhos, sigmas, rows, k)

	u.a, u.b = findABParams(u.spread(), u.minDist())

	dim := u.nComponents()
	rng := rand.New(rand.NewSource(u.params.RandomState))
	emb, err := u.initEmbedding(x, rows, dim, rng)
	if err != nil {
		return nil, err
	}

	nEpochs := u.nEpochs(rows)
	optimizeLayout(emb, edges, rows, dim, nEpochs,
		u.a, u.b, u.learningRate(), u.negativeSampleRate(), rng)

	embMat, err := NewMatrixFrom(rows, dim, emb)
	if err != nil {
		return nil, err
	}

	train, err := x.Clone()
	if err != nil {
		embMat.Free()
		return nil, err
	}

	if u.embedding != nil {
		u.embedding.Free()
	}
	if u.trainData != nil {
		u.trainData.Free()
	}
	u.embedding = embMat
	u.trainData = train
	u.nFeatures = cols
	u.fitted = true
	return embMat, nil
}

// smoothKNNDist calibrates a bandwidth per point so its neighborhood
// weight mass matches log2(k). rho is the distance to the nearest
// non-self neighbor, making every point fully connected to at least one
// other.
func smoothKNNDist(dists *Matrix, k int) (rhos, sigmas []float64) {
	const (
		nIter         = 64
		tolerance     = 1e-5
		minKDistScale = 1e-3
	)

	rows, _ := dists.Dims()
	rhos = make([]float64, rows)
	sigmas = make([]float64, rows)
	target := math.Log2(float64(k))

	// Overall mean distance backs the bandwidth floor for isolated points
	var globalMean float64
	data := dists.Float32()
	for _, d := range data[:rows*k] {
		globalMean += float64(d)
	}
	globalMean /= float64(rows * k)

	for i := 0; i < rows; i++ {
		row := data[i*k : (i+1)*k]

		// Nearest non-self neighbor distance
		var rowMean float64
		for _, d := range row {
			rowMean += float64(d)
		}
		rowMean /= float64(k)

		for _, d := range row {
			if d > 0 {
				rhos[i] = float64(d)
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for iter := 0; iter < nIter; iter++ {
			var psum float64
			for j := 1; j < k; j++ {
				d := float64(row[j]) - rhos[i]
				if d > 0 {
					psum += math.Exp(-d / mid)
				} else {
					psum += 1.0
				}
			}
			if math.Abs(psum-target) < tolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}
		sigmas[i] = mid

		if rhos[i] > 0 {
			if floor := minKDistScale * rowMean; sigmas[i] < floor {
				sigmas[i] = floor
			}
		} else {
			if floor := minKDistScale * globalMean; sigmas[i] < floor {
				sigmas[i] = floor
			}
		}
	}
	return rhos, sigmas
}

// fuzzySimplicialSet turns the directed kNN weights into a symmetric
// edge list via the fuzzy union W + Wᵀ - W∘Wᵀ. The edge list keeps
// insertion order; the optimizer walks it sequentially, so the order
// must not vary between runs.
func fuzzySimplicialSet(indices []int32, dists *Matrix, rhos, sigmas []float64, rows, k int) []umapEdge {
	distData := dists.Float32()

	directed := make(map[[2]int]float64, rows*k)
	order := make([][2]int, 0, rows*k)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			nbr := int(indices[i*k+j])
			if nbr == i {
				continue
			}
			d := float64(distData[i*k+j]) - rhos[i]
			var w float64
			if d <= 0 || sigmas[i] == 0 {
				w = 1.0
			} else {
				w = math.Exp(-d / sigmas[i])
			}
			key := [2]int{i, nbr}
			if _, dup := directed[key]; !dup {
				order = append(order, key)
			}
			directed[key] = w
		}
	}

	edges := make([]umapEdge, 0, 2*len(directed))
	seen := make(map[[2]int]bool, len(directed))
	for _, key := range order {
		i, j := key[0], key[1]
		if seen[key] || seen[[2]int{j, i}] {
			continue
		}
		seen[key] = true

		w := directed[key]
		wT := directed[[2]int{j, i}]
		union := w + wT - w*wT
		if union <= 0 {
			continue
		}
		edges = append(edges, umapEdge{head: i, tail: j, weight: union})
		edges = append(edges, umapEdge{head: j, tail: i, weight: union})
	}
	return edges
}

// findABParams fits the rational curve 1/(1 + a·x^(2b)) to the target
// membership shape implied by spread and min_dist. Gauss-Newton on a
// dense sample of the curve, matching the reference implementation's
// least-squares fit. Defaults (1.0, 0.1) give a≈1.577, b≈0.895.
func findABParams(spread, minDist float64) (a, b float64) {
	const nPoints = 300

	xs := make([]float64, nPoints)
	ys := make([]float64, nPoints)
	for i := 0; i < nPoints; i++ {
		x := 3 * spread * float64(i+1) / nPoints
		xs[i] = x
		if x < minDist {
			ys[i] = 1.0
		} else {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	a, b = 1.0, 1.0
	lambda := 1e-3
	for iter := 0; iter < 200; iter++ {
		// Residuals and normal equations for the 2-parameter model
		var jtj00, jtj01, jtj11, jtr0, jtr1, sse float64
		for i := 0; i < nPoints; i++ {
			xb := math.Pow(xs[i], 2*b)
			denom := 1 + a*xb
			f := 1 / denom
			r := ys[i] - f

			// df/da and df/db
			dfda := -xb / (denom * denom)
			dfdb := -2 * a * xb * math.Log(xs[i]) / (denom * denom)

			jtj00 += dfda * dfda
			jtj01 += dfda * dfdb
			jtj11 += dfdb * dfdb
			jtr0 += dfda * r
			jtr1 += dfdb * r
			sse += r * r
		}

		// Levenberg damping keeps the step stable when b overshoots
		d00 := jtj00 * (1 + lambda)
		d11 := jtj11 * (1 + lambda)
		det := d00*d11 - jtj01*jtj01
		if det == 0 {
			break
		}
		da := (d11*jtr0 - jtj01*jtr1) / det
		db := (d00*jtr1 - jtj01*jtr0) / det

		newA, newB := a+da, b+db
		if newA <= 0 || newB <= 0 {
			lambda *= 10
			continue
		}

		var newSSE float64
		for i := 0; i < nPoints; i++ {
			f := 1 / (1 + newA*math.Pow(xs[i], 2*newB))
			r := ys[i] - f
			newSSE += r * r
		}
		if newSSE < sse {
			a, b = newA, newB
			lambda *= 0.5
			if math.Abs(da)+math.Abs(db) < 1e-9 {
				break
			}
		} else {
			lambda *= 10
			if lambda > 1e9 {
				break
			}
		}
	}
	return a, b
}

// initEmbedding produces the starting layout
func (u *UMAP) initEmbedding(x *Matrix, rows, dim int, rng *rand.Rand) ([]float32, error) {
	emb := make([]float32, rows*dim)

	switch u.params.Init {
	case "random":
		for i := range emb {
			emb[i] = float32(rng.Float64()*20 - 10)
		}
	default: // "pca"
		p := NewPCA(PCAParams{NComponents: dim})
		proj, err := p.FitTransform(x)
		if err != nil {
			return nil, err
		}
		defer proj.Free()

		copy(emb, proj.Float32())

		// Rescale so the layout starts within the optimizer's working range
		var maxAbs float32
		for _, v := range emb {
			if a := float32(math.Abs(float64(v))); a > maxAbs {
				maxAbs = a
			}
		}
		if maxAbs > 0 {
			scale := 10 / maxAbs
			for i := range emb {
				emb[i] *= scale
			}
		}
	}
	return emb, nil
}

// optimizeLayout runs the edge-wise SGD. The loop is sequential: with a
// fixed RandomState the same edge order and negative draws produce the
// same embedding every run.
func optimizeLayout(emb []float32, edges []umapEdge, rows, dim, nEpochs int,
	a, b, initialAlpha float64, negativeSampleRate int, rng *rand.Rand) {

	if len(edges) == 0 || nEpochs <= 0 {
		return
	}

	// Epoch scheduling: strong edges fire every epoch, weak ones rarely
	var maxW float64
	for _, e := range edges {
		if e.weight > maxW {
			maxW = e.weight
		}
	}
	threshold := maxW / float64(nEpochs)

	kept := edges[:0]
	for _, e := range edges {
		if e.weight >= threshold {
			kept = append(kept, e)
		}
	}
	edges = kept

	epochsPerSample := make([]float64, len(edges))
	epochOfNext := make([]float64, len(edges))
	epochsPerNeg := make([]float64, len(edges))
	epochOfNextNeg := make([]float64, len(edges))
	for i, e := range edges {
		epochsPerSample[i] = maxW / e.weight
		epochOfNext[i] = epochsPerSample[i]
		epochsPerNeg[i] = epochsPerSample[i] / float64(negativeSampleRate)
		epochOfNextNeg[i] = epochsPerNeg[i]
	}

	alpha := initialAlpha
	for epoch := 1; epoch <= nEpochs; epoch++ {
		en := float64(epoch)
		for i, e := range edges {
			if epochOfNext[i] > en {
				continue
			}

			head := emb[e.head*dim : (e.head+1)*dim]
			tail := emb[e.tail*dim : (e.tail+1)*dim]

			// Attractive update moves both endpoints
			distSq := embDistSq(head, tail)
			if distSq > 0 {
				gc := (-2 * a * b * math.Pow(distSq, b-1)) / (a*math.Pow(distSq, b) + 1)
				for d := 0; d < dim; d++ {
					g := clipGrad(gc * float64(head[d]-tail[d]))
					head[d] += float32(alpha * g)
					tail[d] -= float32(alpha * g)
				}
			}
			epochOfNext[i] += epochsPerSample[i]

			// Repulsive updates move the head only
			nNeg := int((en - epochOfNextNeg[i]) / epochsPerNeg[i])
			for s := 0; s < nNeg; s++ {
				other := rng.Intn(rows)
				if other == e.head {
					continue
				}
				oth := emb[other*dim : (other+1)*dim]
				dSq := embDistSq(head, oth)
				if dSq > 0 {
					gc := (2 * b) / ((0.001 + dSq) * (a*math.Pow(dSq, b) + 1))
					for d := 0; d < dim; d++ {
						g := clipGrad(gc * float64(head[d]-oth[d]))
						head[d] += float32(alpha * g)
					}
				} else {
					for d := 0; d < dim; d++ {
						head[d] += float32(alpha * 4)
					}
				}
			}
			epochOfNextNeg[i] += float64(nNeg) * epochsPerNeg[i]
		}

		alpha = initialAlpha * (1 - en/float64(nEpochs))
	}
}

func embDistSq(a, b []float32) float64 {
	var sum float64
	for d := range a {
		diff := float64(a[d] - b[d])
		sum += diff * diff
	}
	return sum
}

// clipGrad bounds a single gradient component to ±4
func clipGrad(g float64) float64 {
	if g > 4 {
		return 4
	}
	if g < -4 {
		return -4
	}
	return g
}

// Transform places unseen points by an inverse-distance weighted average
// of their nearest training embeddings. A full transform would rerun the
// SGD against the reference graph; the barycentric placement is the
// cheap first step of that and is stable for in-distribution points.
func (u *UMAP) Transform(x *Matrix) (*Matrix, error) {
	if !u.fitted {
		return nil, NewNotFittedError("UMAP.Transform")
	}
	rows, cols := x.Dims()
	if cols != u.nFeatures {
		return nil, ErrDimensionMismatch
	}

	k := u.nNeighbors()
	if tr := u.trainData.Rows(); k > tr {
		k = tr
	}
	nn := NewNearestNeighbors(NearestNeighborsParams{NNeighbors: k, Metric: u.params.Metric})
	if err := nn.Fit(u.trainData); err != nil {
		return nil, err
	}
	dists, indices, err := nn.KNeighbors(x)
	if err != nil {
		return nil, err
	}
	defer dists.Free()

	dim := u.embedding.Cols()
	out, err := NewMatrix(rows, dim)
	if err != nil {
		return nil, err
	}

	trainEmb := u.embedding.Float32()
	distData := dists.Float32()
	dst := out.Float32()

	const eps = 1e-8
	for i := 0; i < rows; i++ {
		var wsum float64
		weights := make([]float64, k)
		for j := 0; j < k; j++ {
			w := 1 / (float64(distData[i*k+j]) + eps)
			weights[j] = w
			wsum += w
		}
		for j := 0; j < k; j++ {
			w := float32(weights[j] / wsum)
			nbr := int(indices[i*k+j])
			for d := 0; d < dim; d++ {
				dst[i*dim+d] += w * trainEmb[nbr*dim+d]
			}
		}
	}
	return out, nil
}

// FitTransform fits the estimator and returns the training embedding
func (u *UMAP) FitTransform(x *Matrix) (*Matrix, error) {
	emb, err := u.fit(x)
	if err != nil {
		return nil, err
	}
	// The stored embedding stays owned by the estimator
	return emb.Clone()
}

// Embedding returns the fitted training embedding
func (u *UMAP) Embedding() *Matrix { return u.embedding }

// CurveParams returns the fitted low-dimensional curve parameters a and b
func (u *UMAP) CurveParams() (a, b float64) { return u.a, u.b }

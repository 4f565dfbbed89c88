package ref

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KMeans is the host clustering baseline: single-threaded Lloyd
// iterations in float64. Initialization draws the identical sequence as
// the device estimator for a given seed, so both backends pick the same
// starting centroids and, on separable data, agree label for label.
type KMeans struct {
	// NClusters is the number of centroids. Zero selects 8.
	NClusters int

	// MaxIter caps the Lloyd iterations. Zero selects 300.
	MaxIter int

	// Tol is the relative centroid-shift threshold. Zero selects 1e-4.
	Tol float64

	// RandomState seeds the centroid draw.
	RandomState int64

	centroids *mat.Dense
	labels    []int32
	inertia   float64
	nIter     int
	nFeatures int
	fitted    bool
}

// NewKMeans creates a reference KMeans
func NewKMeans(nClusters int, seed int64) *KMeans {
	return &KMeans{NClusters: nClusters, RandomState: seed}
}

var _ Transformer = (*KMeans)(nil)

func (k *KMeans) nClusters() int {
	if k.NClusters <= 0 {
		return 8
	}
	return k.NClusters
}

func (k *KMeans) maxIter() int {
	if k.MaxIter <= 0 {
		return 300
	}
	return k.MaxIter
}

func (k *KMeans) tol() float64 {
	if k.Tol <= 0 {
		return 1e-4
	}
	return k.Tol
}

// Fit clusters x
func (k *KMeans) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	nc := k.nClusters()
	if rows < nc {
		return fmt.Errorf("kmeans: %d samples for %d clusters", rows, nc)
	}

	var meanVar float64
	for j := 0; j < cols; j++ {
		meanVar += stat.PopVariance(mat.Col(nil, j, x), nil)
	}
	tolScaled := k.tol() * meanVar / float64(cols)

	rng := rand.New(rand.NewSource(k.RandomState))
	centroids := k.plusPlusInit(x, nc, rng)

	labels := make([]int32, rows)
	dists := make([]float64, rows)
	counts := make([]int, nc)
	next := make([]float64, nc*cols)

	var iters int
	for iters = 0; iters < k.maxIter(); iters++ {
		assign(x, centroids, labels, dists)

		for i := range counts {
			counts[i] = 0
		}
		for i := range next {
			next[i] = 0
		}
		for i := 0; i < rows; i++ {
			c := int(labels[i])
			counts[c]++
			for j := 0; j < cols; j++ {
				next[c*cols+j] += x.At(i, j)
			}
		}
		for c := 0; c < nc; c++ {
			if counts[c] > 0 {
				for j := 0; j < cols; j++ {
					next[c*cols+j] /= float64(counts[c])
				}
			} else {
				copy(next[c*cols:(c+1)*cols], centroids[c*cols:(c+1)*cols])
			}
		}

		// Empty clusters move to the point farthest from its centroid
		for c := 0; c < nc; c++ {
			if counts[c] != 0 {
				continue
			}
			far := argMax(dists)
			for j := 0; j < cols; j++ {
				next[c*cols+j] = x.At(far, j)
			}
			dists[far] = 0
		}

		var shift float64
		for i := range centroids {
			d := next[i] - centroids[i]
			shift += d * d
		}
		copy(centroids, next)

		if shift <= tolScaled {
			iters++
			break
		}
	}

	assign(x, centroids, labels, dists)
	var inertia float64
	for _, d := range dists {
		inertia += d
	}

	k.centroids = mat.NewDense(nc, cols, append([]float64(nil), centroids...))
	k.labels = labels
	k.inertia = inertia
	k.nIter = iters
	k.nFeatures = cols
	k.fitted = true
	return nil
}

// plusPlusInit seeds centroids with D² weighting, drawing from rng in
// the same order as the device implementation
func (k *KMeans) plusPlusInit(x *mat.Dense, nc int, rng *rand.Rand) []float64 {
	rows, cols := x.Dims()
	centroids := make([]float64, nc*cols)

	first := rng.Intn(rows)
	for j := 0; j < cols; j++ {
		centroids[j] = x.At(first, j)
	}

	distSq := make([]float64, rows)
	for i := 0; i < rows; i++ {
		distSq[i] = rowDistSq(x, i, centroids[:cols])
	}

	for c := 1; c < nc; c++ {
		var total float64
		for _, d := range distSq {
			total += d
		}

		var idx int
		if total <= 0 {
			idx = rng.Intn(rows)
		} else {
			target := rng.Float64() * total
			var cum float64
			idx = rows - 1
			for i, d := range distSq {
				cum += d
				if cum >= target {
					idx = i
					break
				}
			}
		}

		centroid := centroids[c*cols : (c+1)*cols]
		for j := 0; j < cols; j++ {
			centroid[j] = x.At(idx, j)
		}
		for i := 0; i < rows; i++ {
			if d := rowDistSq(x, i, centroid); d < distSq[i] {
				distSq[i] = d
			}
		}
	}
	return centroids
}

func rowDistSq(x *mat.Dense, i int, centroid []float64) float64 {
	var sum float64
	for j, c := range centroid {
		d := x.At(i, j) - c
		sum += d * d
	}
	return sum
}

func assign(x *mat.Dense, centroids []float64, labels []int32, dists []float64) {
	rows, cols := x.Dims()
	nc := len(centroids) / cols
	for i := 0; i < rows; i++ {
		best := 0
		bestDist := rowDistSq(x, i, centroids[:cols])
		for c := 1; c < nc; c++ {
			if d := rowDistSq(x, i, centroids[c*cols:(c+1)*cols]); d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = int32(best)
		dists[i] = bestDist
	}
}

func argMax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}

// Predict assigns samples to the nearest fitted centroid
func (k *KMeans) Predict(x *mat.Dense) ([]int32, error) {
	if !k.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != k.nFeatures {
		return nil, fmt.Errorf("kmeans: input has %d features, fitted with %d", cols, k.nFeatures)
	}
	raw := k.centroids.RawMatrix()
	labels := make([]int32, rows)
	dists := make([]float64, rows)
	assign(x, raw.Data, labels, dists)
	return labels, nil
}

// FitPredict fits the estimator and returns the training labels
func (k *KMeans) FitPredict(x *mat.Dense) ([]int32, error) {
	if err := k.Fit(x); err != nil {
		return nil, err
	}
	out := make([]int32, len(k.labels))
	copy(out, k.labels)
	return out, nil
}

// Transform returns per-sample Euclidean distances to each centroid
func (k *KMeans) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !k.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != k.nFeatures {
		return nil, fmt.Errorf("kmeans: input has %d features, fitted with %d", cols, k.nFeatures)
	}
	nc, _ := k.centroids.Dims()
	raw := k.centroids.RawMatrix().Data
	out := mat.NewDense(rows, nc, nil)
	for i := 0; i < rows; i++ {
		for c := 0; c < nc; c++ {
			out.Set(i, c, math.Sqrt(rowDistSq(x, i, raw[c*cols:(c+1)*cols])))
		}
	}
	return out, nil
}

// FitTransform fits the estimator and returns centroid distances
func (k *KMeans) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	if err := k.Fit(x); err != nil {
		return nil, err
	}
	return k.Transform(x)
}

// Centroids returns the fitted centroid matrix
func (k *KMeans) Centroids() *mat.Dense { return k.centroids }

// Labels returns the training-set assignments
func (k *KMeans) Labels() []int32 { return k.labels }

// Inertia returns the within-cluster sum of squared distances
func (k *KMeans) Inertia() float64 { return k.inertia }

// NIter returns the Lloyd iterations performed
func (k *KMeans) NIter() int { return k.nIter }

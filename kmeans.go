package guml

import (
	"math"
	"math/rand"

	"github.com/LynnColeArt/guml/compute/f32"
)

// KMeansParams configures a KMeans estimator
type KMeansParams struct {
	// NClusters is the number of centroids. Zero selects 8.
	NClusters int

	// MaxIter caps the Lloyd iterations per restart. Zero selects
	// DefaultKMeansMaxIter.
	MaxIter int

	// Tol is the relative centroid-shift threshold for convergence.
	// Zero selects 1e-4.
	Tol float64

	// NInit is the number of seeded restarts; the run with the lowest
	// inertia wins. Zero selects DefaultKMeansInit.
	NInit int

	// RandomState seeds centroid initialization.
	RandomState int64
}

// KMeans clusters samples into NClusters groups with Lloyd's algorithm.
// Initialization uses kmeans++ seeding. The assignment step runs as a
// data-parallel kernel over samples; the update step reduces with segment
// sums keyed by the current labels.
type KMeans struct {
	params KMeansParams

	centroids *Matrix // k×d
	labels    []int32
	inertia   float64
	nIter     int

	nFeatures int
	fitted    bool
}

// NewKMeans creates a KMeans estimator
func NewKMeans(params KMeansParams) *KMeans {
	return &KMeans{params: params}
}

var _ Transformer = (*KMeans)(nil)

func (k *KMeans) nClusters() int {
	if k.params.NClusters <= 0 {
		return 8
	}
	return k.params.NClusters
}

func (k *KMeans) maxIter() int {
	if k.params.MaxIter <= 0 {
		return DefaultKMeansMaxIter
	}
	return k.params.MaxIter
}

func (k *KMeans) tol() float64 {
	if k.params.Tol <= 0 {
		return 1e-4
	}
	return k.params.Tol
}

func (k *KMeans) nInit() int {
	if k.params.NInit <= 0 {
		return DefaultKMeansInit
	}
	return k.params.NInit
}

// Fit learns cluster centroids for x
func (k *KMeans) Fit(x *Matrix) error {
	rows, cols := x.Dims()
	nc := k.nClusters()
	if rows < nc {
		return NewInvalidArgError("KMeans.Fit", "fewer samples than clusters")
	}

	// Convergence threshold scaled by the data's mean column variance,
	// so Tol is comparable across datasets
	tolScaled := k.tol() * meanColumnVariance(x)

	bestInertia := math.Inf(1)
	var bestCentroids []float32
	var bestLabels []int32
	bestIter := 0

	rng := rand.New(rand.NewSource(k.params.RandomState))
	for run := 0; run < k.nInit(); run++ {
		centroids := kmeansPlusPlusInit(x, nc, rng)
		labels, inertia, iters, err := lloyd(x, centroids, nc, k.maxIter(), tolScaled)
		if err != nil {
			return err
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestCentroids = centroids
			bestLabels = labels
			bestIter = iters
		}
	}

	cm, err := NewMatrixFrom(nc, cols, bestCentroids)
	if err != nil {
		return err
	}
	if k.centroids != nil {
		k.centroids.Free()
	}
	k.centroids = cm
	k.labels = bestLabels
	k.inertia = bestInertia
	k.nIter = bestIter
	k.nFeatures = cols
	k.fitted = true
	return nil
}

// meanColumnVariance returns the average biased per-column variance
func meanColumnVariance(x *Matrix) float64 {
	_, cols := x.Dims()
	var total float64
	for _, v := range columnVariances(x) {
		total += float64(v)
	}
	return total / float64(cols)
}

// kmeansPlusPlusInit seeds centroids with D² weighting: each new centroid
// is drawn with probability proportional to the squared distance from the
// nearest centroid chosen so far.
func kmeansPlusPlusInit(x *Matrix, nc int, rng *rand.Rand) []float32 {
	rows, cols := x.Dims()
	data := x.Float32()
	centroids := make([]float32, nc*cols)

	// First centroid: uniform draw
	first := rng.Intn(rows)
	copy(centroids[:cols], data[first*cols:(first+1)*cols])

	distSq := make([]float64, rows)
	for i := 0; i < rows; i++ {
		distSq[i] = float64(f32.L2DistanceSquared(data[i*cols:(i+1)*cols], centroids[:cols]))
	}

	for c := 1; c < nc; c++ {
		var total float64
		for _, d := range distSq {
			total += d
		}

		var idx int
		if total <= 0 {
			// All remaining mass at zero distance: fall back to uniform
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
		copy(centroid, data[idx*cols:(idx+1)*cols])

		// Fold the new centroid into the nearest-distance table
		for i := 0; i < rows; i++ {
			d := float64(f32.L2DistanceSquared(data[i*cols:(i+1)*cols], centroid))
			if d < distSq[i] {
				distSq[i] = d
			}
		}
	}
	return centroids
}

// lloyd iterates assignment and update until the centroid shift drops
// below tolScaled or maxIter is reached
func lloyd(x *Matrix, centroids []float32, nc, maxIter int, tolScaled float64) (labels []int32, inertia float64, iters int, err error) {
	rows, cols := x.Dims()
	data := x.Float32()

	d_labels, err := Malloc(rows * 4)
	if err != nil {
		return nil, 0, 0, err
	}
	defer Free(d_labels)
	d_dists, err := Malloc(rows * 4)
	if err != nil {
		return nil, 0, 0, err
	}
	defer Free(d_dists)
	colBuf, err := Malloc(rows * 4)
	if err != nil {
		return nil, 0, 0, err
	}
	defer Free(colBuf)
	sumBuf, err := Malloc(nc * 4)
	if err != nil {
		return nil, 0, 0, err
	}
	defer Free(sumBuf)

	labelSlice := d_labels.Int32()[:rows]
	distSlice := d_dists.Float32()[:rows]
	segments := make([]int, rows)
	counts := make([]int, nc)
	newCentroids := make([]float32, nc*cols)

	for iters = 0; iters < maxIter; iters++ {
		if err := assignClusters(data, centroids, rows, cols, nc, labelSlice, distSlice); err != nil {
			return nil, 0, 0, err
		}

		for i, l := range labelSlice {
			segments[i] = int(l)
		}
		f32.SegmentCount(segments, nc, counts)

		// Per-feature segment sums build the new centroid matrix
		col := colBuf.Float32()[:rows]
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				col[i] = data[i*cols+j]
			}
			if err := SegmentSum(colBuf, segments, nc, sumBuf); err != nil {
				return nil, 0, 0, err
			}
			sums := sumBuf.Float32()[:nc]
			for c := 0; c < nc; c++ {
				if counts[c] > 0 {
					newCentroids[c*cols+j] = sums[c] / float32(counts[c])
				} else {
					newCentroids[c*cols+j] = centroids[c*cols+j]
				}
			}
		}

		// Relocate empty clusters to the point farthest from its centroid
		for c := 0; c < nc; c++ {
			if counts[c] != 0 {
				continue
			}
			far := f32.ArgMax(distSlice)
			copy(newCentroids[c*cols:(c+1)*cols], data[far*cols:(far+1)*cols])
			distSlice[far] = 0
		}

		// Squared Frobenius norm of the centroid shift
		var shift float64
		for i := range centroids {
			d := float64(newCentroids[i] - centroids[i])
			shift += d * d
		}
		copy(centroids, newCentroids)

		if shift <= tolScaled {
			iters++
			break
		}
	}

	// Final assignment against the converged centroids
	if err := assignClusters(data, centroids, rows, cols, nc, labelSlice, distSlice); err != nil {
		return nil, 0, 0, err
	}
	for _, d := range distSlice {
		inertia += float64(d)
	}

	labels = make([]int32, rows)
	copy(labels, labelSlice)
	return labels, inertia, iters, nil
}

// assignClusters launches the parallel assignment kernel: every sample
// finds its nearest centroid and records the squared distance
func assignClusters(data, centroids []float32, rows, cols, nc int, labels []int32, dists []float32) error {
	grid := Dim3{X: (rows + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		i := tid.Global()
		if i >= rows {
			return
		}
		point := data[i*cols : (i+1)*cols]
		best := 0
		bestDist := f32.L2DistanceSquared(point, centroids[:cols])
		for c := 1; c < nc; c++ {
			d := f32.L2DistanceSquared(point, centroids[c*cols:(c+1)*cols])
			if d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = int32(best)
		dists[i] = bestDist
	})

	if err := Launch(kernel, grid, block); err != nil {
		return err
	}
	return Synchronize()
}

// Predict assigns each sample of x to its nearest fitted centroid
func (k *KMeans) Predict(x *Matrix) ([]int32, error) {
	if !k.fitted {
		return nil, NewNotFittedError("KMeans.Predict")
	}
	rows, cols := x.Dims()
	if cols != k.nFeatures {
		return nil, ErrDimensionMismatch
	}

	d_labels, err := Malloc(rows * 4)
	if err != nil {
		return nil, err
	}
	defer Free(d_labels)
	d_dists, err := Malloc(rows * 4)
	if err != nil {
		return nil, err
	}
	defer Free(d_dists)

	labelSlice := d_labels.Int32()[:rows]
	if err := assignClusters(x.Float32(), k.centroids.Float32(), rows, cols,
		k.centroids.Rows(), labelSlice, d_dists.Float32()[:rows]); err != nil {
		return nil, err
	}

	out := make([]int32, rows)
	copy(out, labelSlice)
	return out, nil
}

// FitPredict fits the estimator and returns the training labels
func (k *KMeans) FitPredict(x *Matrix) ([]int32, error) {
	if err := k.Fit(x); err != nil {
		return nil, err
	}
	labels := make([]int32, len(k.labels))
	copy(labels, k.labels)
	return labels, nil
}

// Transform returns the n×k matrix of Euclidean distances from each
// sample to each fitted centroid
func (k *KMeans) Transform(x *Matrix) (*Matrix, error) {
	if !k.fitted {
		return nil, NewNotFittedError("KMeans.Transform")
	}
	rows, cols := x.Dims()
	if cols != k.nFeatures {
		return nil, ErrDimensionMismatch
	}

	nc := k.centroids.Rows()
	out, err := NewMatrix(rows, nc)
	if err != nil {
		return nil, err
	}

	data := x.Float32()
	centroids := k.centroids.Float32()
	dst := out.Float32()

	grid := Dim3{X: (rows + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		i := tid.Global()
		if i >= rows {
			return
		}
		point := data[i*cols : (i+1)*cols]
		for c := 0; c < nc; c++ {
			d := f32.L2DistanceSquared(point, centroids[c*cols:(c+1)*cols])
			dst[i*nc+c] = float32(math.Sqrt(float64(d)))
		}
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

// FitTransform fits the estimator and returns centroid distances for x
func (k *KMeans) FitTransform(x *Matrix) (*Matrix, error) {
	if err := k.Fit(x); err != nil {
		return nil, err
	}
	return k.Transform(x)
}

// Centroids returns the fitted k×d centroid matrix
func (k *KMeans) Centroids() *Matrix { return k.centroids }

// Labels returns the training-set cluster assignments
func (k *KMeans) Labels() []int32 { return k.labels }

// Inertia returns the final within-cluster sum of squared distances
func (k *KMeans) Inertia() float64 { return k.inertia }

// NIter returns the Lloyd iterations of the winning restart
func (k *KMeans) NIter() int { return k.nIter }

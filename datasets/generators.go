package datasets

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// MakeBlobs samples isotropic Gaussian clusters around nCenters centers
// drawn uniformly from [-10, 10] per feature. Samples are assigned to
// centers round-robin, so class sizes differ by at most one. The same
// seed reproduces the same dataset exactly.
func MakeBlobs(nSamples, nFeatures, nCenters int, clusterStd float64, seed int64) (*Dataset, error) {
	if nSamples <= 0 || nFeatures <= 0 || nCenters <= 0 {
		return nil, fmt.Errorf("make blobs: invalid shape %d samples, %d features, %d centers",
			nSamples, nFeatures, nCenters)
	}
	if nCenters > nSamples {
		return nil, fmt.Errorf("make blobs: %d centers exceed %d samples", nCenters, nSamples)
	}
	if clusterStd <= 0 {
		clusterStd = 1.0
	}

	rng := rand.New(rand.NewSource(seed))

	centers := make([]float64, nCenters*nFeatures)
	for i := range centers {
		centers[i] = rng.Float64()*20 - 10
	}

	data := make([]float64, nSamples*nFeatures)
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		c := i % nCenters
		labels[i] = c
		for j := 0; j < nFeatures; j++ {
			data[i*nFeatures+j] = centers[c*nFeatures+j] + clusterStd*rng.NormFloat64()
		}
	}

	return &Dataset{
		Name:         "blobs",
		X:            mat.NewDense(nSamples, nFeatures, data),
		Y:            labels,
		FeatureNames: numberedFeatures(nFeatures),
	}, nil
}

// MakeSwissRoll samples points on the classic rolled 2-manifold in three
// dimensions. Labels bin the position along the roll into four segments,
// which is enough to color an unrolled embedding.
func MakeSwissRoll(nSamples int, noise float64, seed int64) (*Dataset, error) {
	if nSamples <= 0 {
		return nil, fmt.Errorf("make swiss roll: invalid sample count %d", nSamples)
	}
	if noise < 0 {
		noise = 0
	}

	rng := rand.New(rand.NewSource(seed))

	const (
		tMin = 1.5 * math.Pi
		tMax = 4.5 * math.Pi
	)

	data := make([]float64, nSamples*3)
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		t := tMin * (1 + 2*rng.Float64())
		data[i*3] = t*math.Cos(t) + noise*rng.NormFloat64()
		data[i*3+1] = 21*rng.Float64() + noise*rng.NormFloat64()
		data[i*3+2] = t*math.Sin(t) + noise*rng.NormFloat64()

		bin := int(4 * (t - tMin) / (tMax - tMin))
		if bin > 3 {
			bin = 3
		}
		labels[i] = bin
	}

	return &Dataset{
		Name:         "swissroll",
		X:            mat.NewDense(nSamples, 3, data),
		Y:            labels,
		FeatureNames: []string{"x", "y", "z"},
	}, nil
}

func numberedFeatures(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

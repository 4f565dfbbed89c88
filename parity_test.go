package guml

import (
	"math"
	"testing"

	"github.com/LynnColeArt/guml/datasets"
	"github.com/LynnColeArt/guml/ref"
	"gonum.org/v1/gonum/mat"
)

// Backend parity: the float32 estimators must reproduce the float64
// host estimators on the same input, up to column sign and accumulated
// rounding.

func parityBlobs(t *testing.T, samples, features, centers int, std float64, seed int64) *datasets.Dataset {
	t.Helper()
	ds, err := datasets.MakeBlobs(samples, features, centers, std, seed)
	if err != nil {
		t.Fatalf("MakeBlobs failed: %v", err)
	}
	return ds
}

func flatten32(d *mat.Dense) []float32 {
	r, c := d.Dims()
	out := make([]float32, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = float32(d.At(i, j))
		}
	}
	return out
}

// parityTolerance widens the absolute bound of the relaxed preset.
// Blob features span [-10, 10], so embedding entries that cross zero
// carry rounding on the data scale rather than the machine scale.
func parityTolerance() ToleranceConfig {
	tol := RelaxedTolerance()
	tol.AbsTol = 1e-2
	return tol
}

func TestPCABackendParity(t *testing.T) {
	const (
		samples    = 240
		features   = 8
		components = 3
	)
	ds := parityBlobs(t, samples, features, 4, 1.0, 42)

	host := ref.NewPCA(components)
	hostEmb, err := host.FitTransform(ds.X)
	if err != nil {
		t.Fatalf("host PCA failed: %v", err)
	}

	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	dev := NewPCA(PCAParams{NComponents: components})
	devEmb, err := dev.FitTransform(dx)
	if err != nil {
		t.Fatalf("device PCA failed: %v", err)
	}
	defer devEmb.Free()

	expected := flatten32(hostEmb)
	actual := make([]float32, samples*components)
	if err := devEmb.CopyTo(actual); err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}

	res := VerifyColumnsSignless(expected, actual, samples, components, parityTolerance())
	if !res.IsAcceptable(parityTolerance()) {
		t.Errorf("PCA embeddings disagree across backends:\n%s", res)
	}

	hostRatio := host.ExplainedVarianceRatio()
	devRatio := dev.ExplainedVarianceRatio()
	if len(hostRatio) != len(devRatio) {
		t.Fatalf("ratio length mismatch: host %d, device %d", len(hostRatio), len(devRatio))
	}
	for i := range hostRatio {
		diff := math.Abs(hostRatio[i] - float64(devRatio[i]))
		if diff > 1e-3 {
			t.Errorf("explained variance ratio %d: host=%v device=%v", i, hostRatio[i], devRatio[i])
		}
	}

	sum := float64(0)
	for _, r := range devRatio {
		sum += float64(r)
	}
	if sum <= 0 || sum > 1.0+1e-4 {
		t.Errorf("variance ratio sum out of range: %v", sum)
	}
}

func TestTruncatedSVDBackendParity(t *testing.T) {
	const (
		samples    = 240
		features   = 8
		components = 3
	)
	ds := parityBlobs(t, samples, features, 4, 1.0, 42)

	host := ref.NewTruncatedSVD(components)
	hostEmb, err := host.FitTransform(ds.X)
	if err != nil {
		t.Fatalf("host TruncatedSVD failed: %v", err)
	}

	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	dev := NewTruncatedSVD(TruncatedSVDParams{NComponents: components})
	devEmb, err := dev.FitTransform(dx)
	if err != nil {
		t.Fatalf("device TruncatedSVD failed: %v", err)
	}
	defer devEmb.Free()

	expected := flatten32(hostEmb)
	actual := make([]float32, samples*components)
	if err := devEmb.CopyTo(actual); err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}

	res := VerifyColumnsSignless(expected, actual, samples, components, parityTolerance())
	if !res.IsAcceptable(parityTolerance()) {
		t.Errorf("TruncatedSVD embeddings disagree across backends:\n%s", res)
	}

	hostSV := host.SingularValues()
	devSV := dev.SingularValues()
	if len(hostSV) != len(devSV) {
		t.Fatalf("singular value count mismatch: host %d, device %d", len(hostSV), len(devSV))
	}
	for i := range hostSV {
		diff := math.Abs(hostSV[i] - float64(devSV[i]))
		if diff > 1e-3*math.Max(hostSV[i], 1) {
			t.Errorf("singular value %d: host=%v device=%v", i, hostSV[i], devSV[i])
		}
	}
	for i := 1; i < len(devSV); i++ {
		if devSV[i] > devSV[i-1] {
			t.Errorf("singular values not sorted: sv[%d]=%v > sv[%d]=%v",
				i, devSV[i], i-1, devSV[i-1])
		}
	}
}

func TestStandardScalerBackendParity(t *testing.T) {
	const (
		samples  = 150
		features = 6
	)
	ds := parityBlobs(t, samples, features, 3, 1.5, 7)

	host := ref.NewStandardScaler()
	hostOut, err := host.FitTransform(ds.X)
	if err != nil {
		t.Fatalf("host scaler failed: %v", err)
	}

	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	dev := NewStandardScaler()
	devOut, err := dev.FitTransform(dx)
	if err != nil {
		t.Fatalf("device scaler failed: %v", err)
	}
	defer devOut.Free()

	expected := flatten32(hostOut)
	actual := make([]float32, samples*features)
	if err := devOut.CopyTo(actual); err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}

	res := VerifyFloat32Array(expected, actual, RelaxedTolerance())
	if !res.IsAcceptable(RelaxedTolerance()) {
		t.Errorf("scaled outputs disagree across backends:\n%s", res)
	}

	hostMean := host.Mean()
	devMean := dev.Mean()
	for j := range hostMean {
		if math.Abs(hostMean[j]-float64(devMean[j])) > 1e-3 {
			t.Errorf("column %d mean: host=%v device=%v", j, hostMean[j], devMean[j])
		}
	}
	hostScale := host.Scale()
	devScale := dev.Scale()
	for j := range hostScale {
		if math.Abs(hostScale[j]-float64(devScale[j])) > 1e-3*hostScale[j] {
			t.Errorf("column %d scale: host=%v device=%v", j, hostScale[j], devScale[j])
		}
	}
}

func TestKMeansBackendParity(t *testing.T) {
	const (
		samples  = 320
		features = 8
		clusters = 4
		seed     = 11
	)
	ds := parityBlobs(t, samples, features, clusters, 0.6, seed)

	host := ref.NewKMeans(clusters, seed)
	hostLabels, err := host.FitPredict(ds.X)
	if err != nil {
		t.Fatalf("host KMeans failed: %v", err)
	}

	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	// A single restart keeps the device centroid draw on the same
	// sequence as the host implementation.
	dev := NewKMeans(KMeansParams{NClusters: clusters, NInit: 1, RandomState: seed})
	devLabels, err := dev.FitPredict(dx)
	if err != nil {
		t.Fatalf("device KMeans failed: %v", err)
	}

	ari, err := AdjustedRandScore(hostLabels, devLabels)
	if err != nil {
		t.Fatalf("AdjustedRandScore failed: %v", err)
	}
	if ari < 0.99 {
		t.Errorf("backend clusterings disagree: ARI=%v", ari)
	}

	truth := make([]int32, samples)
	for i, y := range ds.Y {
		truth[i] = int32(y)
	}
	ariTruth, err := AdjustedRandScore(devLabels, truth)
	if err != nil {
		t.Fatalf("AdjustedRandScore failed: %v", err)
	}
	if ariTruth < 0.99 {
		t.Errorf("device clustering misses generated labels: ARI=%v", ariTruth)
	}

	hostInertia := host.Inertia()
	devInertia := dev.Inertia()
	gap := math.Abs(hostInertia-devInertia) / math.Max(hostInertia, 1e-12)
	if gap > 1e-3 {
		t.Errorf("inertia gap too large: host=%v device=%v", hostInertia, devInertia)
	}
}

package guml

import (
	"math"
	"testing"
)

func TestFindABParams(t *testing.T) {
	// Reference values for the default spread/min_dist fit
	a, b := findABParams(1.0, 0.1)
	if a < 1.3 || a > 1.9 {
		t.Errorf("a = %.4f, want near 1.577", a)
	}
	if b < 0.75 || b > 1.05 {
		t.Errorf("b = %.4f, want near 0.895", b)
	}

	// The fitted curve has to track the target shape
	for _, x := range []float64{0.05, 0.5, 1.0, 2.0} {
		got := 1 / (1 + a*math.Pow(x, 2*b))
		var want float64
		if x < 0.1 {
			want = 1.0
		} else {
			want = math.Exp(-(x - 0.1) / 1.0)
		}
		if math.Abs(got-want) > 0.12 {
			t.Errorf("curve(%.2f) = %.4f, target %.4f", x, got, want)
		}
	}
}

func TestFindABParamsTighterMinDist(t *testing.T) {
	aLoose, _ := findABParams(1.0, 0.5)
	aTight, _ := findABParams(1.0, 0.01)
	// Smaller min_dist sharpens the curve, which needs a larger a
	if aTight <= aLoose {
		t.Errorf("a(min_dist=0.01) = %.4f not greater than a(min_dist=0.5) = %.4f", aTight, aLoose)
	}
}

func TestSmoothKNNDistCalibration(t *testing.T) {
	// Four query rows of sorted neighbor distances, self first
	k := 5
	data := []float32{
		0, 1.0, 1.1, 1.2, 1.3,
		0, 0.5, 2.0, 2.1, 2.2,
		0, 3.0, 3.2, 3.4, 3.6,
		0, 0.1, 0.2, 0.4, 0.8,
	}
	dists, err := NewMatrixFrom(4, k, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer dists.Free()

	rhos, sigmas := smoothKNNDist(dists, k)

	for i := 0; i < 4; i++ {
		wantRho := float64(data[i*k+1])
		if math.Abs(rhos[i]-wantRho) > 1e-6 {
			t.Errorf("row %d: rho = %.4f, want %.4f", i, rhos[i], wantRho)
		}
		if sigmas[i] <= 0 {
			t.Errorf("row %d: sigma = %.4f, want positive", i, sigmas[i])
		}

		// The calibrated weight mass should hit log2(k)
		var psum float64
		for j := 1; j < k; j++ {
			d := float64(data[i*k+j]) - rhos[i]
			if d > 0 {
				psum += math.Exp(-d / sigmas[i])
			} else {
				psum += 1.0
			}
		}
		target := math.Log2(float64(k))
		if math.Abs(psum-target) > 1e-3 {
			t.Errorf("row %d: weight mass %.4f, want %.4f", i, psum, target)
		}
	}
}

func TestSmoothKNNDistPlateau(t *testing.T) {
	// With every neighbor at the same distance the weight mass is pinned
	// at k-1 no matter the bandwidth, and the search falls back to the
	// scaled-mean floor.
	k := 5
	dists, err := NewMatrixFrom(1, k, []float32{0, 3, 3, 3, 3})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer dists.Free()

	rhos, sigmas := smoothKNNDist(dists, k)
	if math.Abs(rhos[0]-3) > 1e-9 {
		t.Errorf("rho = %v, want 3", rhos[0])
	}
	if sigmas[0] <= 0 {
		t.Errorf("sigma = %v, want positive", sigmas[0])
	}
}

func TestFuzzySimplicialSetSymmetry(t *testing.T) {
	k := 3
	indices := []int32{
		0, 1, 2,
		1, 0, 2,
		2, 3, 1,
		3, 2, 0,
	}
	distData := []float32{
		0, 1, 2,
		0, 1, 2,
		0, 1, 2,
		0, 1, 2,
	}
	dists, err := NewMatrixFrom(4, k, distData)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer dists.Free()

	rhos, sigmas := smoothKNNDist(dists, k)
	edges := fuzzySimplicialSet(indices, dists, rhos, sigmas, 4, k)

	if len(edges) == 0 {
		t.Fatal("no edges produced")
	}

	weights := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		if e.head == e.tail {
			t.Errorf("self edge %d", e.head)
		}
		if e.weight <= 0 || e.weight > 1 {
			t.Errorf("edge (%d,%d) weight %.4f out of (0,1]", e.head, e.tail, e.weight)
		}
		weights[[2]int{e.head, e.tail}] = e.weight
	}
	for key, w := range weights {
		rev := weights[[2]int{key[1], key[0]}]
		if math.Abs(w-rev) > 1e-9 {
			t.Errorf("edge (%d,%d) weight %.4f but reverse %.4f", key[0], key[1], w, rev)
		}
	}
}

func TestUMAPSeparatesClusters(t *testing.T) {
	x, truth := threeBlobs(t, 30)
	defer x.Free()

	u := NewUMAP(UMAPParams{
		NComponents: 2,
		NNeighbors:  10,
		NEpochs:     100,
		RandomState: 42,
	})
	emb, err := u.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	rows, cols := emb.Dims()
	if rows != x.Rows() || cols != 2 {
		t.Fatalf("embedding dims = (%d,%d), want (%d,2)", rows, cols, x.Rows())
	}

	data := emb.Float32()
	for _, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatal("embedding contains non-finite values")
		}
	}

	// Points sharing a blob should sit closer than points across blobs
	var intra, inter float64
	var nIntra, nInter int
	for i := 0; i < rows; i++ {
		for j := i + 1; j < rows; j++ {
			dx := float64(data[i*2] - data[j*2])
			dy := float64(data[i*2+1] - data[j*2+1])
			d := math.Sqrt(dx*dx + dy*dy)
			if truth[i] == truth[j] {
				intra += d
				nIntra++
			} else {
				inter += d
				nInter++
			}
		}
	}
	intra /= float64(nIntra)
	inter /= float64(nInter)
	if intra >= inter {
		t.Errorf("mean intra-cluster distance %.4f not below inter-cluster %.4f", intra, inter)
	}
}

func TestUMAPDeterminism(t *testing.T) {
	x, _ := threeBlobs(t, 20)
	defer x.Free()

	params := UMAPParams{NNeighbors: 8, NEpochs: 50, RandomState: 7}

	first, err := NewUMAP(params).FitTransform(x)
	if err != nil {
		t.Fatalf("first FitTransform failed: %v", err)
	}
	defer first.Free()

	second, err := NewUMAP(params).FitTransform(x)
	if err != nil {
		t.Fatalf("second FitTransform failed: %v", err)
	}
	defer second.Free()

	a, b := first.Float32(), second.Float32()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings diverge at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestUMAPRandomInit(t *testing.T) {
	x, _ := threeBlobs(t, 20)
	defer x.Free()

	u := NewUMAP(UMAPParams{NNeighbors: 8, NEpochs: 30, Init: "random", RandomState: 3})
	emb, err := u.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	for _, v := range emb.Float32() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatal("embedding contains non-finite values")
		}
	}
}

func TestUMAPTransformTrainingPoints(t *testing.T) {
	x, _ := threeBlobs(t, 20)
	defer x.Free()

	u := NewUMAP(UMAPParams{NNeighbors: 8, NEpochs: 50, RandomState: 11})
	if err := u.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// A training point is its own nearest neighbor at distance zero, so
	// the barycentric placement collapses onto its fitted position.
	out, err := u.Transform(x)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	defer out.Free()

	emb := u.Embedding().Float32()
	got := out.Float32()
	for i := range emb {
		if diff := math.Abs(float64(got[i] - emb[i])); diff > 1e-2 {
			t.Fatalf("transform diverges from embedding at %d: %v vs %v", i, got[i], emb[i])
		}
	}
}

func TestUMAPErrors(t *testing.T) {
	u := NewUMAP(UMAPParams{})

	x, _ := threeBlobs(t, 20)
	defer x.Free()

	if _, err := u.Transform(x); !IsNotFittedError(err) {
		t.Errorf("Transform before Fit: got %v, want not-fitted error", err)
	}

	small, err := NewMatrixFrom(3, 2, []float32{0, 0, 1, 1, 2, 2})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer small.Free()
	if err := NewUMAP(UMAPParams{NNeighbors: 5}).Fit(small); err == nil {
		t.Error("Fit with fewer samples than neighbors should fail")
	}

	if err := u.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	wide, err := NewMatrix(4, 7)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}
	defer wide.Free()
	if _, err := u.Transform(wide); err != ErrDimensionMismatch {
		t.Errorf("Transform with wrong width: got %v, want ErrDimensionMismatch", err)
	}
}

package guml

import (
	"math"
	"testing"
)

func TestTruncatedSVDRankOne(t *testing.T) {
	// Rank-1 data: every row is a multiple of (3, 4)
	data := []float32{
		3, 4,
		6, 8,
		-3, -4,
		1.5, 2,
	}
	x, err := NewMatrixFrom(4, 2, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	ts := NewTruncatedSVD(TruncatedSVDParams{NComponents: 1})
	emb, err := ts.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	// The single component is (3,4)/5 with positive dominant entry
	c := ts.Components()
	if math.Abs(float64(c.At(0, 0))-0.6) > 1e-4 || math.Abs(float64(c.At(0, 1))-0.8) > 1e-4 {
		t.Errorf("component = [%v %v], want [0.6 0.8]", c.At(0, 0), c.At(0, 1))
	}

	// Reconstruction of rank-1 data from one component is exact
	back, err := ts.InverseTransform(emb)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	defer back.Free()

	rec := back.Float32()
	for i := range data {
		if math.Abs(float64(rec[i]-data[i])) > 1e-3 {
			t.Errorf("reconstruction[%d] = %v, want %v", i, rec[i], data[i])
		}
	}
}

func TestTruncatedSVDSingularValues(t *testing.T) {
	// Diagonal data has singular values equal to column norms
	data := []float32{
		2, 0,
		0, 1,
		-2, 0,
		0, -1,
	}
	x, err := NewMatrixFrom(4, 2, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	ts := NewTruncatedSVD(TruncatedSVDParams{NComponents: 2})
	if err := ts.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	sv := ts.SingularValues()
	// Column norms are sqrt(8) and sqrt(2)
	want := []float64{math.Sqrt(8), math.Sqrt(2)}
	for i := range want {
		if math.Abs(float64(sv[i])-want[i]) > 1e-4 {
			t.Errorf("singular value[%d] = %v, want %v", i, sv[i], want[i])
		}
	}

	// Decreasing order
	if sv[1] > sv[0] {
		t.Errorf("singular values not decreasing: %v", sv)
	}
}

func TestTruncatedSVDNoCentering(t *testing.T) {
	// A large constant offset must influence the leading direction,
	// unlike PCA which removes it
	data := []float32{
		100, 1,
		100, -1,
		100, 2,
		100, -2,
	}
	x, err := NewMatrixFrom(4, 2, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	ts := NewTruncatedSVD(TruncatedSVDParams{NComponents: 1})
	if err := ts.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Leading direction is dominated by the offset axis
	c := ts.Components()
	if math.Abs(float64(c.At(0, 0))) < 0.99 {
		t.Errorf("leading component = [%v %v], want first entry near ±1",
			c.At(0, 0), c.At(0, 1))
	}
}

func TestTruncatedSVDExplainedVarianceRatio(t *testing.T) {
	data := make([]float32, 50*3)
	rng := uint64(31)
	for i := range data {
		rng = rng*1103515245 + 12345
		data[i] = float32(rng%1000) / 100.0
	}
	x, err := NewMatrixFrom(50, 3, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	ts := NewTruncatedSVD(TruncatedSVDParams{NComponents: 3})
	if err := ts.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	var sum float64
	for _, r := range ts.ExplainedVarianceRatio() {
		if r < 0 {
			t.Errorf("negative ratio: %v", r)
		}
		sum += float64(r)
	}
	// Full-rank decomposition explains all variance
	if math.Abs(sum-1) > 0.01 {
		t.Errorf("ratio sum = %v, want ~1", sum)
	}
}

func TestTruncatedSVDErrors(t *testing.T) {
	x, _ := NewMatrixFrom(3, 2, make([]float32, 6))
	defer x.Free()

	ts := NewTruncatedSVD(TruncatedSVDParams{NComponents: 1})
	if _, err := ts.Transform(x); !IsNotFittedError(err) {
		t.Errorf("expected NotFitted error, got %v", err)
	}

	tooMany := NewTruncatedSVD(TruncatedSVDParams{NComponents: 4})
	if err := tooMany.Fit(x); err == nil {
		t.Error("expected error for NComponents > min(n, d)")
	}
}

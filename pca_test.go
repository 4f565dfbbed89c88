package guml

import (
	"math"
	"testing"
)

// anisotropicData builds a deterministic cloud stretched along (1,1)
func anisotropicData(t *testing.T, n int) *Matrix {
	t.Helper()
	data := make([]float32, n*2)
	rng := uint64(7)
	for i := 0; i < n; i++ {
		rng = rng*1103515245 + 12345
		long := float32(rng%2000)/100.0 - 10.0
		rng = rng*1103515245 + 12345
		short := float32(rng%200)/100.0 - 1.0
		data[i*2] = long + short
		data[i*2+1] = long - short
	}
	m, err := NewMatrixFrom(n, 2, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	return m
}

func TestPCADominantDirection(t *testing.T) {
	x := anisotropicData(t, 200)
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 2})
	if err := p.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// First axis must align with (1,1)/sqrt(2)
	c := p.Components()
	inv := 1 / math.Sqrt2
	if math.Abs(math.Abs(float64(c.At(0, 0)))-inv) > 0.05 ||
		math.Abs(math.Abs(float64(c.At(0, 1)))-inv) > 0.05 {
		t.Errorf("first component = [%v %v], want ±[%v %v]",
			c.At(0, 0), c.At(0, 1), inv, inv)
	}
	if c.At(0, 0)*c.At(0, 1) < 0 {
		t.Errorf("first component entries differ in sign: [%v %v]", c.At(0, 0), c.At(0, 1))
	}

	// Sign convention: dominant entry is positive
	if c.At(0, 0) < 0 && c.At(0, 1) < 0 {
		t.Errorf("component not sign-flipped: [%v %v]", c.At(0, 0), c.At(0, 1))
	}

	// The long direction dominates the variance
	ratio := p.ExplainedVarianceRatio()
	if ratio[0] < 0.9 {
		t.Errorf("first component ratio = %v, want > 0.9", ratio[0])
	}
	var sum float64
	for _, r := range ratio {
		sum += float64(r)
	}
	if sum > 1+1e-5 {
		t.Errorf("ratio sum = %v exceeds 1", sum)
	}
}

func TestPCAExplainedVarianceDescending(t *testing.T) {
	x := anisotropicData(t, 100)
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 2})
	if err := p.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	ev := p.ExplainedVariance()
	for i := 1; i < len(ev); i++ {
		if ev[i] > ev[i-1] {
			t.Errorf("explained variance not descending: %v", ev)
		}
	}
	sv := p.SingularValues()
	for _, s := range sv {
		if s < 0 {
			t.Errorf("negative singular value: %v", sv)
		}
	}
}

func TestPCAComponentsOrthonormal(t *testing.T) {
	data := make([]float32, 60*4)
	rng := uint64(99)
	for i := range data {
		rng = rng*1103515245 + 12345
		data[i] = float32(rng%1000)/500.0 - 1.0
	}
	x, err := NewMatrixFrom(60, 4, data)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 3})
	if err := p.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	c := p.Components()
	k, d := c.Dims()
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			var dot float64
			for j := 0; j < d; j++ {
				dot += float64(c.At(a, j)) * float64(c.At(b, j))
			}
			want := 0.0
			if a == b {
				want = 1.0
			}
			if math.Abs(dot-want) > 1e-4 {
				t.Errorf("components %d·%d = %v, want %v", a, b, dot, want)
			}
		}
	}
}

func TestPCATransformCentersOutput(t *testing.T) {
	x := anisotropicData(t, 150)
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 2})
	emb, err := p.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	rows, cols := emb.Dims()
	if rows != 150 || cols != 2 {
		t.Fatalf("embedding shape %dx%d, want 150x2", rows, cols)
	}

	means, err := emb.ColumnMeans()
	if err != nil {
		t.Fatalf("ColumnMeans failed: %v", err)
	}
	for j, m := range means {
		if math.Abs(float64(m)) > 1e-3 {
			t.Errorf("projected column %d mean = %v, want 0", j, m)
		}
	}
}

func TestPCAInverseTransformRoundTrip(t *testing.T) {
	x := anisotropicData(t, 80)
	defer x.Free()

	// Full-rank projection loses nothing
	p := NewPCA(PCAParams{NComponents: 2})
	emb, err := p.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	back, err := p.InverseTransform(emb)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	defer back.Free()

	orig := x.Float32()
	rec := back.Float32()
	for i := range orig {
		if math.Abs(float64(rec[i]-orig[i])) > 1e-2*math.Max(1, math.Abs(float64(orig[i]))) {
			t.Fatalf("reconstruction[%d] = %v, want %v", i, rec[i], orig[i])
		}
	}
}

func TestPCAWhitenUnitVariance(t *testing.T) {
	x := anisotropicData(t, 200)
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 2, Whiten: true})
	emb, err := p.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer emb.Free()

	rows, cols := emb.Dims()
	data := emb.Float32()
	for j := 0; j < cols; j++ {
		var mean, sq float64
		for i := 0; i < rows; i++ {
			mean += float64(data[i*cols+j])
		}
		mean /= float64(rows)
		for i := 0; i < rows; i++ {
			d := float64(data[i*cols+j]) - mean
			sq += d * d
		}
		variance := sq / float64(rows-1)
		if math.Abs(variance-1) > 0.05 {
			t.Errorf("whitened column %d variance = %v, want 1", j, variance)
		}
	}
}

func TestPCAErrors(t *testing.T) {
	x, _ := NewMatrixFrom(4, 2, make([]float32, 8))
	defer x.Free()

	p := NewPCA(PCAParams{NComponents: 2})
	if _, err := p.Transform(x); !IsNotFittedError(err) {
		t.Errorf("expected NotFitted error, got %v", err)
	}

	tooMany := NewPCA(PCAParams{NComponents: 5})
	if err := tooMany.Fit(x); err == nil {
		t.Error("expected error for NComponents > min(n, d)")
	}

	single, _ := NewMatrixFrom(1, 2, make([]float32, 2))
	defer single.Free()
	if err := p.Fit(single); err == nil {
		t.Error("expected error for single-sample fit")
	}
}

func TestPCADefaultComponents(t *testing.T) {
	x := anisotropicData(t, 50)
	defer x.Free()

	p := NewPCA(PCAParams{})
	if err := p.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if got := p.NComponents(); got != 2 {
		t.Errorf("default NComponents = %d, want 2", got)
	}
}

package guml

import (
	"math"
	"testing"
)

func TestStandardScalerFitTransform(t *testing.T) {
	x, err := NewMatrixFrom(4, 2, []float32{
		1, 100,
		2, 200,
		3, 300,
		4, 400,
	})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	s := NewStandardScaler()
	out, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer out.Free()

	// Each column must have mean ~0 and unit variance (biased)
	rows, cols := out.Dims()
	data := out.Float32()
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
		variance := sq / float64(rows)

		if math.Abs(mean) > 1e-5 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-4 {
			t.Errorf("column %d variance = %v, want 1", j, variance)
		}
	}

	if got := s.Mean(); got[0] != 2.5 || got[1] != 250 {
		t.Errorf("Mean = %v, want [2.5 250]", got)
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	x, err := NewMatrixFrom(3, 2, []float32{
		7, 1,
		7, 2,
		7, 3,
	})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	s := NewStandardScaler()
	out, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer out.Free()

	// Constant column centers to zero without dividing by zero
	for i := 0; i < 3; i++ {
		got := out.At(i, 0)
		if got != 0 || math.IsNaN(float64(got)) {
			t.Errorf("constant column row %d = %v, want 0", i, got)
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	x, err := NewMatrixFrom(2, 2, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	s := NewStandardScaler()
	if _, err := s.Transform(x); !IsNotFittedError(err) {
		t.Errorf("expected NotFitted error, got %v", err)
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	src := []float32{1, 10, 2, 20, 3, 30, 10, 100}
	x, err := NewMatrixFrom(4, 2, src)
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	s := NewStandardScaler()
	scaled, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer scaled.Free()

	restored, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	defer restored.Free()

	got := restored.Float32()
	for i := range src {
		if math.Abs(float64(got[i]-src[i])) > 1e-4*math.Max(1, math.Abs(float64(src[i]))) {
			t.Errorf("restored[%d] = %v, want %v", i, got[i], src[i])
		}
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	x, _ := NewMatrixFrom(2, 3, make([]float32, 6))
	defer x.Free()
	y, _ := NewMatrixFrom(2, 2, make([]float32, 4))
	defer y.Free()

	s := NewStandardScaler()
	if err := s.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := s.Transform(y); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMinMaxScalerUnitRange(t *testing.T) {
	x, err := NewMatrixFrom(4, 2, []float32{
		0, -10,
		5, 0,
		10, 10,
		2.5, 5,
	})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	m := NewMinMaxScaler()
	out, err := m.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer out.Free()

	rows, cols := out.Dims()
	data := out.Float32()
	for i := 0; i < rows*cols; i++ {
		if data[i] < 0 || data[i] > 1 {
			t.Errorf("scaled[%d] = %v outside [0,1]", i, data[i])
		}
	}

	// Extremes map to the range boundaries
	if out.At(0, 0) != 0 {
		t.Errorf("column 0 min maps to %v, want 0", out.At(0, 0))
	}
	if out.At(2, 0) != 1 {
		t.Errorf("column 0 max maps to %v, want 1", out.At(2, 0))
	}

	if got := m.DataMin(); got[0] != 0 || got[1] != -10 {
		t.Errorf("DataMin = %v, want [0 -10]", got)
	}
	if got := m.DataMax(); got[0] != 10 || got[1] != 10 {
		t.Errorf("DataMax = %v, want [10 10]", got)
	}
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	x, err := NewMatrixFrom(2, 1, []float32{0, 4})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer x.Free()

	m := &MinMaxScaler{RangeMin: -1, RangeMax: 1}
	out, err := m.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	defer out.Free()

	if out.At(0, 0) != -1 || out.At(1, 0) != 1 {
		t.Errorf("custom range output = [%v %v], want [-1 1]", out.At(0, 0), out.At(1, 0))
	}
}

func TestMinMaxScalerInvalidRange(t *testing.T) {
	x, _ := NewMatrixFrom(2, 1, []float32{0, 1})
	defer x.Free()

	m := &MinMaxScaler{RangeMin: 1, RangeMax: 1}
	if err := m.Fit(x); err == nil {
		t.Error("expected error for empty range")
	}
}

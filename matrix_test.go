package guml

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewMatrixInvalidShape(t *testing.T) {
	if _, err := NewMatrix(0, 3); err == nil {
		t.Error("expected error for zero rows")
	}
	if _, err := NewMatrix(3, -1); err == nil {
		t.Error("expected error for negative cols")
	}
}

func TestMatrixFromDenseRoundTrip(t *testing.T) {
	host := mat.NewDense(3, 2, []float64{
		1.5, -2.25,
		0, 1e-3,
		3.75, 100,
	})

	m, err := FromDense(host)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer m.Free()

	if r, c := m.Dims(); r != 3 || c != 2 {
		t.Fatalf("Dims = %dx%d, want 3x2", r, c)
	}

	back := m.ToDense()
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			want := host.At(i, j)
			got := back.At(i, j)
			if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
				t.Errorf("roundtrip (%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestMatrixFromDenseEmpty(t *testing.T) {
	var empty mat.Dense
	if _, err := FromDense(&empty); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestMatrixAccessors(t *testing.T) {
	m, err := NewMatrixFrom(2, 3, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer m.Free()

	if got := m.At(1, 2); got != 6 {
		t.Errorf("At(1,2) = %v, want 6", got)
	}

	m.Set(0, 1, 42)
	if got := m.At(0, 1); got != 42 {
		t.Errorf("after Set, At(0,1) = %v, want 42", got)
	}

	row := m.Row(1)
	if len(row) != 3 || row[0] != 4 {
		t.Errorf("Row(1) = %v, want [4 5 6]", row)
	}

	// Row returns a live view into device memory
	row[1] = -5
	if got := m.At(1, 1); got != -5 {
		t.Errorf("row view write not visible: At(1,1) = %v, want -5", got)
	}
}

func TestMatrixFromShortSlice(t *testing.T) {
	if _, err := NewMatrixFrom(2, 3, []float32{1, 2}); err == nil {
		t.Error("expected error for short data slice")
	}
}

func TestMatrixClone(t *testing.T) {
	m, err := NewMatrixFrom(2, 2, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer m.Free()

	c, err := m.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer c.Free()

	c.Set(0, 0, 99)
	if m.At(0, 0) != 1 {
		t.Error("Clone shares memory with original")
	}
}

func TestMatrixColumnMeans(t *testing.T) {
	m, err := NewMatrixFrom(4, 2, []float32{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	if err != nil {
		t.Fatalf("NewMatrixFrom failed: %v", err)
	}
	defer m.Free()

	means, err := m.ColumnMeans()
	if err != nil {
		t.Fatalf("ColumnMeans failed: %v", err)
	}

	if means[0] != 2.5 || means[1] != 25 {
		t.Errorf("ColumnMeans = %v, want [2.5 25]", means)
	}
}

package guml

import (
	"errors"
	"math"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestMeasureKernel(t *testing.T) {
	t.Logf("hardware counters supported: %v", PerfCountersSupported())

	counters, err := MeasureKernel(func() error {
		sum := 0.0
		for i := 0; i < 1000000; i++ {
			sum += float64(i)
		}
		_ = sum
		return nil
	})
	if err != nil {
		t.Fatalf("MeasureKernel failed: %v", err)
	}
	if counters.Duration <= 0 {
		t.Error("expected a positive duration")
	}
	if !counters.HasHardwareCounters() {
		t.Logf("no hardware counters on %s/%s, timing only", runtime.GOOS, runtime.GOARCH)
		return
	}
	t.Logf("cycles=%d instructions=%d IPC=%.2f", counters.Cycles, counters.Instructions, counters.IPC)
}

func TestMeasureKernelError(t *testing.T) {
	want := errors.New("kernel failed")
	counters, err := MeasureKernel(func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected the kernel's own error back, got %v", err)
	}
	if counters != nil {
		t.Error("expected nil counters when the kernel fails")
	}
}

func TestCalculateMetrics(t *testing.T) {
	pc := &PerfCounters{
		Duration:     2 * time.Second,
		Cycles:       8000000000,
		Instructions: 16000000000,
		CacheRefs:    1000000,
		CacheMisses:  250000,
	}
	pc.CalculateMetrics(4000000000, 10000000000)

	if math.Abs(pc.GFLOPS-2.0) > 1e-9 {
		t.Errorf("GFLOPS = %v, want 2.0", pc.GFLOPS)
	}
	if math.Abs(pc.MemoryBandwidth-5.0) > 1e-9 {
		t.Errorf("MemoryBandwidth = %v, want 5.0", pc.MemoryBandwidth)
	}
	if math.Abs(pc.IPC-2.0) > 1e-9 {
		t.Errorf("IPC = %v, want 2.0", pc.IPC)
	}
	if math.Abs(pc.CacheMissRate-0.25) > 1e-9 {
		t.Errorf("CacheMissRate = %v, want 0.25", pc.CacheMissRate)
	}
}

func TestPerfCountersString(t *testing.T) {
	pc := &PerfCounters{
		Duration:       time.Second,
		Cycles:         4500000000,
		Instructions:   9000000000,
		BranchMisses:   1000000,
		CacheRefs:      25000000,
		CacheMisses:    5000000,
		L1DCacheMisses: 4000000,
		L3CacheMisses:  1000000,
	}
	pc.CalculateMetrics(150500000000, 25300000000)

	s := pc.String()
	for _, want := range []string{"Duration", "CPU Cycles", "IPC", "GFLOPS", "Memory Bandwidth"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

// BenchmarkMeasureKernelOverhead compares a bare call against the same
// call bracketed by counter collection.
func BenchmarkMeasureKernelOverhead(b *testing.B) {
	work := func() error {
		sum := 0.0
		for i := 0; i < 1000; i++ {
			sum += float64(i)
		}
		_ = sum
		return nil
	}

	b.Run("Bare", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			work()
		}
	})
	b.Run("Measured", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := MeasureKernel(work); err != nil {
				b.Fatal(err)
			}
		}
	})
}

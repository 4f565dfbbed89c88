package guml

import (
	"fmt"
	"strings"
	"time"
)

// PerfCounters holds the hardware counter readings collected around one
// measured region, plus metrics derived from them. On platforms without
// counter support only Duration is populated.
type PerfCounters struct {
	Duration time.Duration

	Cycles         uint64
	Instructions   uint64
	BranchMisses   uint64
	CacheRefs      uint64
	CacheMisses    uint64
	L1DCacheMisses uint64
	L3CacheMisses  uint64

	IPC             float64
	GFLOPS          float64
	MemoryBandwidth float64 // GB/s
	CacheMissRate   float64
}

// HasHardwareCounters reports whether the kernel delivered any raw counts.
func (pc *PerfCounters) HasHardwareCounters() bool {
	return pc.Cycles > 0 || pc.Instructions > 0
}

// CalculateMetrics fills the derived fields. Pass the floating point
// operation and byte-traffic totals of the measured region; zero leaves
// GFLOPS and MemoryBandwidth unset while still deriving IPC and the
// cache miss rate from the raw counts.
func (pc *PerfCounters) CalculateMetrics(flops, bytes uint64) {
	secs := pc.Duration.Seconds()
	if secs > 0 {
		if flops > 0 {
			pc.GFLOPS = float64(flops) / secs / 1e9
		}
		if bytes > 0 {
			pc.MemoryBandwidth = float64(bytes) / secs / 1e9
		}
	}
	if pc.Cycles > 0 {
		pc.IPC = float64(pc.Instructions) / float64(pc.Cycles)
	}
	if pc.CacheRefs > 0 {
		pc.CacheMissRate = float64(pc.CacheMisses) / float64(pc.CacheRefs)
	}
}

func (pc *PerfCounters) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Performance Counters:\n")
	fmt.Fprintf(&b, "  Duration:          %v\n", pc.Duration)
	if pc.Cycles > 0 {
		fmt.Fprintf(&b, "  CPU Cycles:        %d\n", pc.Cycles)
	}
	if pc.Instructions > 0 {
		fmt.Fprintf(&b, "  Instructions:      %d\n", pc.Instructions)
	}
	if pc.IPC > 0 {
		fmt.Fprintf(&b, "  IPC:               %.2f\n", pc.IPC)
	}
	if pc.BranchMisses > 0 {
		fmt.Fprintf(&b, "  Branch Misses:     %d\n", pc.BranchMisses)
	}
	if pc.CacheMisses > 0 {
		fmt.Fprintf(&b, "  Cache Misses:      %d (%.1f%%)\n", pc.CacheMisses, pc.CacheMissRate*100)
	}
	if pc.L1DCacheMisses > 0 {
		fmt.Fprintf(&b, "  L1D Cache Misses:  %d\n", pc.L1DCacheMisses)
	}
	if pc.L3CacheMisses > 0 {
		fmt.Fprintf(&b, "  L3 Cache Misses:   %d\n", pc.L3CacheMisses)
	}
	if pc.GFLOPS > 0 {
		fmt.Fprintf(&b, "  GFLOPS:            %.2f\n", pc.GFLOPS)
	}
	if pc.MemoryBandwidth > 0 {
		fmt.Fprintf(&b, "  Memory Bandwidth:  %.2f GB/s\n", pc.MemoryBandwidth)
	}
	return b.String()
}

// MeasureKernel runs fn and returns its duration together with whatever
// hardware counters the platform provides. When perf events cannot be
// opened, for example on non-Linux systems or with a restrictive
// perf_event_paranoid setting, the result degrades to wall-clock timing.
// The returned error is fn's own error; counter availability never fails
// a measurement.
func MeasureKernel(fn func() error) (*PerfCounters, error) {
	return measureWithCounters(fn)
}

// PerfCountersSupported reports whether hardware counters can be opened
// in this process. The probe result is cached.
func PerfCountersSupported() bool {
	return perfCountersAvailable()
}

func measureTimeOnly(fn func() error) (*PerfCounters, error) {
	start := time.Now()
	if err := fn(); err != nil {
		return nil, err
	}
	return &PerfCounters{Duration: time.Since(start)}, nil
}

//go:build !linux

package guml

// Hardware counters need perf_event_open, so every other platform
// degrades to wall-clock timing.

func measureWithCounters(fn func() error) (*PerfCounters, error) {
	return measureTimeOnly(fn)
}

func perfCountersAvailable() bool {
	return false
}

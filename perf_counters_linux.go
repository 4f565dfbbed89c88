//go:build linux

package guml

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	evCycles = iota
	evInstructions
	evBranchMisses
	evCacheRefs
	evCacheMisses
	evL1DMisses
	evLLCMisses
	numPerfEvents
)

func hwCacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

var perfEventConfigs = [numPerfEvents]struct {
	typ    uint32
	config uint64
}{
	evCycles:       {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	evInstructions: {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	evBranchMisses: {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	evCacheRefs:    {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES},
	evCacheMisses:  {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
	evL1DMisses: {unix.PERF_TYPE_HW_CACHE, hwCacheConfig(
		unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	evLLCMisses: {unix.PERF_TYPE_HW_CACHE, hwCacheConfig(
		unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
}

// perfMonitor owns one perf fd per event. Events are opened for the
// calling thread, so work running on other threads of a launch is not
// counted. Missing events hold fd -1 and read as zero.
type perfMonitor struct {
	fds [numPerfEvents]int
}

func openPerfMonitor() (*perfMonitor, error) {
	m := &perfMonitor{}
	opened := 0
	for i, ev := range perfEventConfigs {
		attr := unix.PerfEventAttr{
			Type:   ev.typ,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			// Some events are absent on some CPUs and in containers
			m.fds[i] = -1
			continue
		}
		m.fds[i] = fd
		opened++
	}
	if opened == 0 {
		return nil, fmt.Errorf("perf_event_open: no events available, check /proc/sys/kernel/perf_event_paranoid")
	}
	return m, nil
}

func (m *perfMonitor) start() {
	for _, fd := range m.fds {
		if fd < 0 {
			continue
		}
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0)
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0)
	}
}

func (m *perfMonitor) stop() [numPerfEvents]uint64 {
	var counts [numPerfEvents]uint64
	for i, fd := range m.fds {
		if fd < 0 {
			continue
		}
		unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
		var buf [8]byte
		if n, err := unix.Read(fd, buf[:]); err == nil && n == 8 {
			counts[i] = binary.NativeEndian.Uint64(buf[:])
		}
	}
	return counts
}

func (m *perfMonitor) close() {
	for _, fd := range m.fds {
		if fd >= 0 {
			unix.Close(fd)
		}
	}
}

func measureWithCounters(fn func() error) (*PerfCounters, error) {
	mon, err := openPerfMonitor()
	if err != nil {
		return measureTimeOnly(fn)
	}
	defer mon.close()

	mon.start()
	start := time.Now()
	ferr := fn()
	elapsed := time.Since(start)
	counts := mon.stop()
	if ferr != nil {
		return nil, ferr
	}

	pc := &PerfCounters{
		Duration:       elapsed,
		Cycles:         counts[evCycles],
		Instructions:   counts[evInstructions],
		BranchMisses:   counts[evBranchMisses],
		CacheRefs:      counts[evCacheRefs],
		CacheMisses:    counts[evCacheMisses],
		L1DCacheMisses: counts[evL1DMisses],
		L3CacheMisses:  counts[evLLCMisses],
	}
	pc.CalculateMetrics(0, 0)
	return pc, nil
}

var (
	perfProbeOnce sync.Once
	perfProbeOK   bool
)

func perfCountersAvailable() bool {
	perfProbeOnce.Do(func() {
		mon, err := openPerfMonitor()
		if err != nil {
			return
		}
		mon.close()
		perfProbeOK = true
	})
	return perfProbeOK
}

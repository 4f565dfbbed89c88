package guml

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
)

// Test basic memory allocation and deallocation
func TestMemoryAllocation(t *testing.T) {
	sizes := []int{100, 1000, 10000, 1000000}

	for _, size := range sizes {
		ptr, err := Malloc(size * 4)
		if err != nil {
			t.Fatalf("Failed to allocate %d bytes: %v", size*4, err)
		}

		slice := ptr.Float32()
		if len(slice) != size {
			t.Errorf("Expected slice length %d, got %d", size, len(slice))
		}

		limit := size
		if limit > 100 {
			limit = 100
		}
		for i := 0; i < limit; i++ {
			slice[i] = float32(i)
		}
		for i := 0; i < limit; i++ {
			if slice[i] != float32(i) {
				t.Errorf("Memory corruption at index %d", i)
			}
		}

		if err := Free(ptr); err != nil {
			t.Fatalf("Failed to free memory: %v", err)
		}
	}
}

// Test memory copy operations
func TestMemcpy(t *testing.T) {
	const N = 1000

	rng := rand.New(rand.NewSource(1))
	h_src := make([]float32, N)
	h_dst := make([]float32, N)
	for i := 0; i < N; i++ {
		h_src[i] = rng.Float32()
	}

	d_src, _ := Malloc(N * 4)
	d_dst, _ := Malloc(N * 4)
	defer Free(d_src)
	defer Free(d_dst)

	if err := Memcpy(d_src, h_src, N*4, MemcpyHostToDevice); err != nil {
		t.Fatalf("H2D copy failed: %v", err)
	}

	if err := Memcpy(d_dst, d_src, N*4, MemcpyDeviceToDevice); err != nil {
		t.Fatalf("D2D copy failed: %v", err)
	}

	if err := Memcpy(h_dst, d_dst, N*4, MemcpyDeviceToHost); err != nil {
		t.Fatalf("D2H copy failed: %v", err)
	}

	for i := 0; i < N; i++ {
		if math.Abs(float64(h_src[i]-h_dst[i])) > 1e-6 {
			t.Errorf("Data mismatch at index %d: %f vs %f", i, h_src[i], h_dst[i])
		}
	}
}

// Test basic kernel launch
func TestKernelLaunch(t *testing.T) {
	const N = 10000

	d_data, _ := Malloc(N * 4)
	defer Free(d_data)

	slice := d_data.Float32()
	for i := 0; i < N; i++ {
		slice[i] = 0
	}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < N {
			slice[idx] = float32(idx)
		}
	})

	err := Launch(kernel, Dim3{X: (N + 255) / 256, Y: 1, Z: 1}, Dim3{X: 256, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("Kernel launch failed: %v", err)
	}

	if err := Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	for i := 0; i < N; i++ {
		if slice[i] != float32(i) {
			t.Errorf("Incorrect value at index %d: expected %f, got %f", i, float32(i), slice[i])
		}
	}
}

// Test vector operations
func TestVectorOperations(t *testing.T) {
	const N = 10000

	rng := rand.New(rand.NewSource(2))
	h_A := make([]float32, N)
	h_B := make([]float32, N)
	for i := 0; i < N; i++ {
		h_A[i] = rng.Float32()
		h_B[i] = rng.Float32()
	}

	d_A, _ := Malloc(N * 4)
	d_B, _ := Malloc(N * 4)
	d_C, _ := Malloc(N * 4)
	defer Free(d_A)
	defer Free(d_B)
	defer Free(d_C)

	Memcpy(d_A, h_A, N*4, MemcpyHostToDevice)
	Memcpy(d_B, h_B, N*4, MemcpyHostToDevice)

	if err := Add(d_A, d_B, d_C, N); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	Synchronize()

	result := d_C.Float32()
	for i := 0; i < N; i++ {
		expected := h_A[i] + h_B[i]
		if math.Abs(float64(result[i]-expected)) > 1e-5 {
			t.Errorf("Add mismatch at %d: expected %f, got %f", i, expected, result[i])
			break
		}
	}

	alpha := float32(2.5)
	if err := AXPY(alpha, d_A, d_B, N); err != nil {
		t.Fatalf("AXPY failed: %v", err)
	}
	Synchronize()

	result2 := d_B.Float32()
	for i := 0; i < N; i++ {
		expected := alpha*h_A[i] + h_B[i]
		if math.Abs(float64(result2[i]-expected)) > 1e-5 {
			t.Errorf("AXPY mismatch at %d: expected %f, got %f", i, expected, result2[i])
			break
		}
	}
}

// Test Map and ForEach convenience wrappers
func TestMapForEach(t *testing.T) {
	const N = 1000

	d_in, _ := Malloc(N * 4)
	d_out, _ := Malloc(N * 4)
	defer Free(d_in)
	defer Free(d_out)

	in := d_in.Float32()
	for i := 0; i < N; i++ {
		in[i] = float32(i)
	}

	if err := Map(d_in, d_out, N, func(v float32) float32 { return v * v }); err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	Synchronize()

	out := d_out.Float32()
	for i := 0; i < N; i++ {
		expected := float32(i) * float32(i)
		if out[i] != expected {
			t.Fatalf("Map mismatch at %d: expected %f, got %f", i, expected, out[i])
		}
	}

	if err := ForEach(d_out, N, func(idx int, val *float32) { *val += float32(idx) }); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	Synchronize()

	for i := 0; i < N; i++ {
		expected := float32(i)*float32(i) + float32(i)
		if out[i] != expected {
			t.Fatalf("ForEach mismatch at %d: expected %f, got %f", i, expected, out[i])
		}
	}
}

// Test kernel launch through a dedicated stream
func TestStreamLaunch(t *testing.T) {
	const N = 4096

	d_data, _ := Malloc(N * 4)
	defer Free(d_data)
	slice := d_data.Float32()

	fn := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < N {
			slice[idx] = float32(2 * idx)
		}
	})

	grid := Dim3{X: (N + 255) / 256, Y: 1, Z: 1}
	block := Dim3{X: 256, Y: 1, Z: 1}

	if err := LaunchFunc(fn, grid, block); err != nil {
		t.Fatalf("LaunchFunc failed: %v", err)
	}
	if err := Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	for i := 0; i < N; i++ {
		if slice[i] != float32(2*i) {
			t.Fatalf("LaunchFunc wrote %f at %d, expected %f", slice[i], i, float32(2*i))
		}
	}

	stream := defaultContext.CreateStream()
	if err := defaultContext.LaunchFuncStream(fn, grid, block, stream); err != nil {
		t.Fatalf("LaunchFuncStream failed: %v", err)
	}
	stream.Synchronize()
	for i := 0; i < N; i++ {
		if slice[i] != float32(2*i) {
			t.Fatalf("Stream launch wrote %f at %d, expected %f", slice[i], i, float32(2*i))
		}
	}
}

// Test the worker pool used for task-level parallelism
func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)

	var counter int64
	const tasks = 200
	for i := 0; i < tasks; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Close()

	if got := atomic.LoadInt64(&counter); got != tasks {
		t.Errorf("Expected %d tasks to run, got %d", tasks, got)
	}
}

// Test error conditions
func TestErrorHandling(t *testing.T) {
	ptr, _ := Malloc(100)
	if err := Free(ptr); err != nil {
		t.Fatalf("First free failed: %v", err)
	}
	if err := Free(ptr); err == nil {
		t.Error("Double free should have failed")
	}

	if err := SetDevice(1); err == nil {
		t.Error("SetDevice(1) should have failed")
	}

	if count := GetDeviceCount(); count != 1 {
		t.Errorf("Expected 1 device, got %d", count)
	}
}

// Test memory pool statistics
func TestMemoryPoolStats(t *testing.T) {
	allocated1, _ := defaultContext.memory.GetStats()

	ptrs := make([]DevicePtr, 10)
	for i := range ptrs {
		ptrs[i], _ = Malloc(1024 * 1024)
	}

	allocated2, peak2 := defaultContext.memory.GetStats()
	if allocated2 <= allocated1 {
		t.Error("Allocated memory should have increased")
	}
	if peak2 < allocated2 {
		t.Error("Peak should be at least current allocation")
	}

	for i := 0; i < 5; i++ {
		Free(ptrs[i])
	}

	allocated3, peak3 := defaultContext.memory.GetStats()
	if allocated3 >= allocated2 {
		t.Error("Allocated memory should have decreased")
	}
	if peak3 != peak2 {
		t.Error("Peak should not have changed")
	}

	for i := 5; i < 10; i++ {
		Free(ptrs[i])
	}
}

// Benchmark vector addition
func BenchmarkVectorAdd(b *testing.B) {
	sizes := []int{1000, 10000, 100000, 1000000}

	for _, N := range sizes {
		b.Run(fmt.Sprintf("Size_%d", N), func(b *testing.B) {
			d_A, _ := Malloc(N * 4)
			d_B, _ := Malloc(N * 4)
			d_C, _ := Malloc(N * 4)
			defer Free(d_A)
			defer Free(d_B)
			defer Free(d_C)

			b.ResetTimer()
			b.SetBytes(int64(3 * N * 4)) // Read A, B, Write C

			for i := 0; i < b.N; i++ {
				Add(d_A, d_B, d_C, N)
				Synchronize()
			}
		})
	}
}

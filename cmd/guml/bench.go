// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/datasets"
	"github.com/LynnColeArt/guml/ref"
	"github.com/LynnColeArt/guml/store"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Capture a baseline of estimator timings",
	Long: `Run the estimator suite across dataset sizes, report reference and
device timings, and record every run. The captured runs are the baseline
later invocations compare against.`,
	RunE: runBench,
}

var (
	benchJSON string
	benchPerf bool
)

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVar(&benchJSON, "json", "", "Also write the captured runs to a JSON file")
	benchCmd.Flags().BoolVar(&benchPerf, "perf", false, "Collect hardware counters for device runs (Linux perf_event)")
}

var benchSizes = []int{500, 2000, 8000}

const (
	benchFeatures   = 16
	benchCenters    = 5
	benchComponents = 4
)

func runBench(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println(heading("=== GUML Baseline Capture ==="))
	fmt.Printf("Date: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("Arch: %s\n", runtime.GOARCH)
	fmt.Printf("CPUs: %d\n", runtime.NumCPU())
	fmt.Println(guml.GetCPUInfo())
	fmt.Printf("GEMM path: %s\n", guml.GetBestGemmImplementation())
	if benchPerf && !guml.PerfCountersSupported() {
		fmt.Println(styled(dimStyle, "hardware counters unavailable, timing only"))
		benchPerf = false
	}
	fmt.Println()

	fmt.Printf("%-28s %12s %12s %9s\n", "benchmark", "reference", "device", "speedup")
	fmt.Println(strings.Repeat("-", 64))

	var saved []*store.Run
	for _, n := range benchSizes {
		ds, err := datasets.MakeBlobs(n, benchFeatures, benchCenters, 1.0, seed())
		if err != nil {
			return fmt.Errorf("failed to generate %d-sample blobs: %w", n, err)
		}
		name := fmt.Sprintf("blobs-%dx%d", n, benchFeatures)
		x := ds.X
		rows, cols := x.Dims()

		dx, err := guml.FromDense(x)
		if err != nil {
			return fmt.Errorf("failed to move data to device: %w", err)
		}

		refPCA := ref.NewPCA(benchComponents)
		devPCA := guml.NewPCA(guml.PCAParams{NComponents: benchComponents})
		runs, err := benchRow(ctx, name, "pca", rows, cols, benchComponents,
			func() error { _, ferr := refPCA.FitTransform(x); return ferr },
			func() error {
				out, ferr := devPCA.FitTransform(dx)
				if ferr == nil {
					out.Free()
				}
				return ferr
			})
		if err != nil {
			dx.Free()
			return err
		}
		saved = append(saved, runs...)

		refSVD := ref.NewTruncatedSVD(benchComponents)
		devSVD := guml.NewTruncatedSVD(guml.TruncatedSVDParams{NComponents: benchComponents})
		runs, err = benchRow(ctx, name, "tsvd", rows, cols, benchComponents,
			func() error { _, ferr := refSVD.FitTransform(x); return ferr },
			func() error {
				out, ferr := devSVD.FitTransform(dx)
				if ferr == nil {
					out.Free()
				}
				return ferr
			})
		if err != nil {
			dx.Free()
			return err
		}
		saved = append(saved, runs...)

		refKM := ref.NewKMeans(benchCenters, seed())
		devKM := guml.NewKMeans(guml.KMeansParams{NClusters: benchCenters, NInit: 1, RandomState: seed()})
		runs, err = benchRow(ctx, name, "kmeans", rows, cols, 0,
			func() error { return refKM.Fit(x) },
			func() error { return devKM.Fit(dx) })
		if err != nil {
			dx.Free()
			return err
		}
		saved = append(saved, runs...)

		dx.Free()
	}

	// UMAP has no host reference and its SGD loop dominates at scale, so
	// one device-only row at the smallest size
	umapRun, err := benchUMAP(ctx)
	if err != nil {
		return err
	}
	saved = append(saved, umapRun)

	fmt.Println()
	fmt.Printf("captured %d runs\n", len(saved))

	if benchJSON != "" {
		f, err := os.Create(benchJSON)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", benchJSON, err)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(saved); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode runs: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", benchJSON, err)
		}
		fmt.Printf("wrote %s\n", benchJSON)
	}
	return nil
}

// benchRow times both backends on one estimator, records the runs, and
// prints one table row
func benchRow(ctx context.Context, dataset, estimator string, rows, cols, k int,
	refFit, devFit func() error) ([]*store.Run, error) {

	refDur, err := timed(refFit)
	if err != nil {
		return nil, fmt.Errorf("%s reference failed on %s: %w", estimator, dataset, err)
	}
	devDur, perf, err := timedDevice(devFit)
	if err != nil {
		return nil, fmt.Errorf("%s device failed on %s: %w", estimator, dataset, err)
	}

	fmt.Printf("%-28s %12v %12v %8.2fx\n",
		estimator+"/"+dataset,
		refDur.Round(time.Microsecond), devDur.Round(time.Microsecond),
		float64(refDur)/float64(devDur))
	printPerf(perf)

	params := map[string]any{"seed": seed()}
	backends := []struct {
		name string
		dur  time.Duration
	}{
		{"reference", refDur},
		{"device", devDur},
	}
	out := make([]*store.Run, 0, len(backends))
	for _, b := range backends {
		r := &store.Run{
			Dataset:     dataset,
			Estimator:   estimator,
			Backend:     b.name,
			Params:      params,
			NSamples:    rows,
			NFeatures:   cols,
			NComponents: k,
			Duration:    b.dur,
		}
		if err := globalStore.SaveRun(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to save %s run: %w", b.name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func benchUMAP(ctx context.Context) (*store.Run, error) {
	n := benchSizes[0]
	ds, err := datasets.MakeBlobs(n, benchFeatures, benchCenters, 1.0, seed())
	if err != nil {
		return nil, fmt.Errorf("failed to generate %d-sample blobs: %w", n, err)
	}
	name := fmt.Sprintf("blobs-%dx%d", n, benchFeatures)
	rows, cols := ds.Dims()

	dx, err := guml.FromDense(ds.X)
	if err != nil {
		return nil, fmt.Errorf("failed to move data to device: %w", err)
	}
	defer dx.Free()

	const epochs = 50
	um := guml.NewUMAP(guml.UMAPParams{NComponents: 2, NEpochs: epochs, RandomState: seed()})
	dur, perf, err := timedDevice(func() error {
		out, ferr := um.FitTransform(dx)
		if ferr == nil {
			out.Free()
		}
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("umap device failed on %s: %w", name, err)
	}

	fmt.Printf("%-28s %12s %12v %9s\n", "umap/"+name, "-",
		dur.Round(time.Microsecond), "-")
	printPerf(perf)

	r := &store.Run{
		Dataset:     name,
		Estimator:   "umap",
		Backend:     "device",
		Params:      map[string]any{"seed": seed(), "epochs": epochs},
		NSamples:    rows,
		NFeatures:   cols,
		NComponents: 2,
		Duration:    dur,
	}
	if err := globalStore.SaveRun(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save umap run: %w", err)
	}
	return r, nil
}

// timedDevice times a device-side fit, collecting hardware counters when
// --perf is set
func timedDevice(fn func() error) (time.Duration, *guml.PerfCounters, error) {
	if !benchPerf {
		d, err := timed(fn)
		return d, nil, err
	}
	pc, err := guml.MeasureKernel(fn)
	if err != nil {
		return 0, nil, err
	}
	return pc.Duration, pc, nil
}

func printPerf(pc *guml.PerfCounters) {
	if pc == nil || !pc.HasHardwareCounters() {
		return
	}
	line := fmt.Sprintf("    perf: %s cycles, %s instructions, %.2f IPC",
		humanCount(pc.Cycles), humanCount(pc.Instructions), pc.IPC)
	if pc.CacheRefs > 0 {
		line += fmt.Sprintf(", %.1f%% cache miss", pc.CacheMissRate*100)
	}
	fmt.Println(styled(dimStyle, line))
}

func humanCount(v uint64) string {
	switch {
	case v >= 1000000000:
		return fmt.Sprintf("%.2fG", float64(v)/1e9)
	case v >= 1000000:
		return fmt.Sprintf("%.1fM", float64(v)/1e6)
	case v >= 1000:
		return fmt.Sprintf("%.1fk", float64(v)/1e3)
	}
	return fmt.Sprintf("%d", v)
}

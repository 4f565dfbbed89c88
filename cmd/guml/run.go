package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/datasets"
	"github.com/LynnColeArt/guml/ref"
	"github.com/LynnColeArt/guml/store"
)

// Flags shared across the estimator subcommands
var (
	datasetName string
	nComponents int
	scaleInput  bool
	makePlots   bool
	csvLabel    string
)

// loadFrame loads the requested dataset and returns it along with the
// host matrix both backends consume. Scaling happens once here so the
// estimators see identical input.
func loadFrame(name string, scale bool) (*datasets.Dataset, *mat.Dense, error) {
	var ds *datasets.Dataset
	var err error
	if csvLabel != "" && strings.HasSuffix(name, ".csv") {
		ds, err = datasets.LoadCSV(name, csvLabel)
	} else {
		ds, err = datasets.Load(name, seed())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset %s: %w", name, err)
	}

	x := ds.X
	if scale {
		x, err = ref.NewStandardScaler().FitTransform(ds.X)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scale %s: %w", name, err)
		}
	}
	return ds, x, nil
}

// datasetOrDefault falls back to the configured default dataset
func datasetOrDefault(name string) string {
	if name != "" {
		return name
	}
	return globalConfig.Dataset()
}

// timed runs fn and returns its wall-clock duration
func timed(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

// comparisonTolerance is the backend comparison tolerance for an estimator:
// the architecture-aware preset with any config overrides applied
func comparisonTolerance(estimator string) guml.ToleranceConfig {
	tol := guml.GetOperationTolerance(estimator)
	if globalConfig == nil {
		return tol
	}
	if globalConfig.Tolerance.AbsTol > 0 {
		tol.AbsTol = float32(globalConfig.Tolerance.AbsTol)
	}
	if globalConfig.Tolerance.RelTol > 0 {
		tol.RelTol = float32(globalConfig.Tolerance.RelTol)
	}
	if globalConfig.Tolerance.ULPTol > 0 {
		tol.ULPTol = globalConfig.Tolerance.ULPTol
	}
	return tol
}

// saveRun persists one backend's result and returns the run ID
func saveRun(estimator, backend string, ds *datasets.Dataset, nComponents int,
	dur time.Duration, params map[string]any, metrics map[string]float64,
	embedding []float32) (string, error) {

	rows, cols := ds.Dims()
	r := &store.Run{
		Dataset:     ds.Name,
		Estimator:   estimator,
		Backend:     backend,
		Params:      params,
		NSamples:    rows,
		NFeatures:   cols,
		NComponents: nComponents,
		Duration:    dur,
		Metrics:     metrics,
		Embedding:   embedding,
	}
	if err := globalStore.SaveRun(context.Background(), r); err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return r.ID, nil
}

// plotFile joins the configured plot directory with a base name and the
// configured format extension
func plotFile(base string) (string, error) {
	dir, err := globalConfig.PlotDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve plot directory: %w", err)
	}
	return filepath.Join(dir, base+"."+globalConfig.PlotFormat()), nil
}

// classNames returns legend labels for datasets that carry them
func classNames(ds *datasets.Dataset) []string {
	if ds.Name == "iris" {
		return datasets.IrisTargetNames
	}
	return nil
}

// denseToFloat32 flattens a float64 host matrix to row-major float32
func denseToFloat32(d *mat.Dense) []float32 {
	rows, cols := d.Dims()
	out := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = float32(d.At(i, j))
		}
	}
	return out
}

func float64Slice(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func int32Labels(y []int) []int32 {
	out := make([]int32, len(y))
	for i, v := range y {
		out[i] = int32(v)
	}
	return out
}

func intLabels(labels []int32) []int {
	out := make([]int, len(labels))
	for i, v := range labels {
		out[i] = int(v)
	}
	return out
}

func sumFloat64(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func sumFloat32(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x)
	}
	return s
}

// maxRatioDiff is the largest per-component gap between the host and
// device explained-variance ratios
func maxRatioDiff(host []float64, device []float32) float64 {
	n := len(host)
	if len(device) < n {
		n = len(device)
	}
	var max float64
	for i := 0; i < n; i++ {
		if d := math.Abs(host[i] - float64(device[i])); d > max {
			max = d
		}
	}
	return max
}

// reportTimings prints the two backend durations and their ratio
func reportTimings(refDur, devDur time.Duration) {
	fmt.Printf("%-26s %14v\n", "reference fit:", refDur.Round(time.Microsecond))
	fmt.Printf("%-26s %14v\n", "device fit:", devDur.Round(time.Microsecond))
	fmt.Printf("%-26s %13.2fx\n", "speedup:", float64(refDur)/float64(devDur))
}

// Package datasets provides the host-side data the demos and tests run
// on: deterministic synthetic generators, the embedded iris table, and a
// CSV loader. All loaders produce gonum matrices; conversion to device
// memory happens at the estimator boundary.
package datasets

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a host-resident labeled feature matrix
type Dataset struct {
	Name         string
	X            *mat.Dense
	Y            []int
	FeatureNames []string
}

// Dims returns the sample and feature counts
func (d *Dataset) Dims() (samples, features int) {
	return d.X.Dims()
}

// NClasses counts the distinct labels
func (d *Dataset) NClasses() int {
	seen := make(map[int]bool)
	for _, y := range d.Y {
		seen[y] = true
	}
	return len(seen)
}

// Load resolves a dataset by name. Known names are "iris", "blobs" and
// "swissroll"; anything ending in .csv is loaded from disk with the last
// column as the label. The seed feeds the synthetic generators.
func Load(name string, seed int64) (*Dataset, error) {
	switch strings.ToLower(name) {
	case "iris":
		return Iris(), nil
	case "blobs":
		return MakeBlobs(500, 10, 5, 1.0, seed)
	case "swissroll":
		return MakeSwissRoll(1000, 0.05, seed)
	}
	if strings.HasSuffix(name, ".csv") {
		return LoadCSV(name, "")
	}
	return nil, fmt.Errorf("unknown dataset %q", name)
}

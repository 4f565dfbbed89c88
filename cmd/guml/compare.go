// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/store"
)

var compareCmd = &cobra.Command{
	Use:   "compare [baseline-id current-id]",
	Short: "Compare two stored runs",
	Long: `Compare two runs from the store: embeddings within floating-point
tolerance after per-column sign alignment, and durations against a
performance regression threshold. With no arguments the two most recent
runs are compared, oldest as baseline.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCompare,
}

var (
	compareEstimator string
	perfRegress      float64
)

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&compareEstimator, "estimator", "", "Only consider runs of this estimator when picking the latest two")
	compareCmd.Flags().Float64Var(&perfRegress, "perf-regress", 1.1, "Performance regression threshold (1.1 = 10% slower)")
}

type runComparison struct {
	Status string // "PASS", "FAIL", "SLOWER", "FASTER"

	BaselineDuration time.Duration
	CurrentDuration  time.Duration
	SpeedupFactor    float64

	MaxAbsDiff float32
	MaxRelDiff float32
	MetricDiff map[string]float64

	Message string
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var baseline, current *store.Run
	var err error
	switch len(args) {
	case 2:
		if baseline, err = globalStore.GetRun(ctx, args[0]); err != nil {
			return err
		}
		if current, err = globalStore.GetRun(ctx, args[1]); err != nil {
			return err
		}
	case 0:
		runs, err := globalStore.LatestRuns(ctx, compareEstimator, 2)
		if err != nil {
			return err
		}
		if len(runs) < 2 {
			return fmt.Errorf("need two stored runs to compare, have %d", len(runs))
		}
		baseline, current = runs[1], runs[0]
	default:
		return fmt.Errorf("compare takes zero or two run IDs")
	}

	comp := compareRuns(baseline, current, comparisonTolerance(baseline.Estimator), perfRegress)
	printComparison(baseline, current, comp)

	if comp.Status == "FAIL" {
		return fmt.Errorf("comparison failed: %s", comp.Message)
	}
	return nil
}

func compareRuns(baseline, current *store.Run, tol guml.ToleranceConfig, perfRegress float64) runComparison {
	comp := runComparison{
		BaselineDuration: baseline.Duration,
		CurrentDuration:  current.Duration,
		MetricDiff:       map[string]float64{},
	}
	if current.Duration > 0 {
		comp.SpeedupFactor = float64(baseline.Duration) / float64(current.Duration)
	}

	if comp.SpeedupFactor < 1.0/perfRegress {
		comp.Status = "SLOWER"
		comp.Message = fmt.Sprintf("performance regression: %.2fx slower", 1.0/comp.SpeedupFactor)
	} else if comp.SpeedupFactor > 1.2 {
		comp.Status = "FASTER"
		comp.Message = fmt.Sprintf("performance improvement: %.2fx faster", comp.SpeedupFactor)
	}

	if baseline.Estimator != current.Estimator {
		comp.Status = "FAIL"
		comp.Message = fmt.Sprintf("different estimators: %s vs %s", baseline.Estimator, current.Estimator)
		return comp
	}

	// Embedding comparison only when both runs carry one of the same shape
	if len(baseline.Embedding) > 0 && len(current.Embedding) > 0 {
		if baseline.NSamples != current.NSamples || baseline.NComponents != current.NComponents {
			comp.Status = "FAIL"
			comp.Message = fmt.Sprintf("different shapes: %dx%d vs %dx%d",
				baseline.NSamples, baseline.NComponents, current.NSamples, current.NComponents)
			return comp
		}
		actual := append([]float32(nil), current.Embedding...)
		vr := guml.VerifyColumnsSignless(baseline.Embedding, actual,
			baseline.NSamples, baseline.NComponents, tol)
		comp.MaxAbsDiff = vr.MaxAbsError
		comp.MaxRelDiff = vr.MaxRelError
		if !vr.IsAcceptable(tol) {
			comp.Status = "FAIL"
			comp.Message = fmt.Sprintf("numerical difference: %d/%d values differ, max_abs_diff=%e",
				vr.NumErrors, vr.TotalItems, vr.MaxAbsError)
		}
	}

	for name, base := range baseline.Metrics {
		if curr, ok := current.Metrics[name]; ok {
			comp.MetricDiff[name] = math.Abs(curr - base)
		}
	}

	if comp.Status == "" {
		comp.Status = "PASS"
	}
	return comp
}

func printComparison(baseline, current *store.Run, comp runComparison) {
	fmt.Println(heading("=== Run Comparison ==="))
	fmt.Println()

	fmt.Printf("%-12s %-38s %-38s\n", "", "baseline", "current")
	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("%-12s %-38s %-38s\n", "run", baseline.ID, current.ID)
	fmt.Printf("%-12s %-38s %-38s\n", "estimator",
		baseline.Estimator+" ("+baseline.Backend+")",
		current.Estimator+" ("+current.Backend+")")
	fmt.Printf("%-12s %-38s %-38s\n", "dataset", baseline.Dataset, current.Dataset)
	fmt.Printf("%-12s %-38s %-38s\n", "shape",
		fmt.Sprintf("%d x %d -> %d", baseline.NSamples, baseline.NFeatures, baseline.NComponents),
		fmt.Sprintf("%d x %d -> %d", current.NSamples, current.NFeatures, current.NComponents))
	fmt.Printf("%-12s %-38s %-38s\n", "duration",
		comp.BaselineDuration.Round(time.Microsecond).String(),
		comp.CurrentDuration.Round(time.Microsecond).String())
	fmt.Println()

	fmt.Printf("%-22s %8.2fx\n", "speedup:", comp.SpeedupFactor)
	if len(baseline.Embedding) > 0 && len(current.Embedding) > 0 {
		fmt.Printf("%-22s %8.3e\n", "max abs diff:", comp.MaxAbsDiff)
		fmt.Printf("%-22s %8.3e\n", "max rel diff:", comp.MaxRelDiff)
	}
	names := make([]string, 0, len(comp.MetricDiff))
	for name := range comp.MetricDiff {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-22s %8.3e\n", name+" diff:", comp.MetricDiff[name])
	}
	fmt.Println()

	fmt.Printf("status: %s\n", statusStyled(comp.Status))
	if comp.Message != "" {
		fmt.Println(styled(dimStyle, comp.Message))
	}
}

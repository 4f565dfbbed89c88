package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/plot"
	"github.com/LynnColeArt/guml/ref"
)

var kmeansCmd = &cobra.Command{
	Use:   "kmeans",
	Short: "KMeans clustering parity between backends",
	Long: `Cluster the dataset with the float64 host reference and the device
estimator from the same seed, score the two labelings against each other
with the adjusted Rand index, and compare inertia. Matching seeds should
give identical clusterings, so the expected index is 1.0.`,
	RunE: runKMeans,
}

var nClusters int

func init() {
	rootCmd.AddCommand(kmeansCmd)
	kmeansCmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset: iris, blobs, swissroll, or a .csv path")
	kmeansCmd.Flags().IntVar(&nClusters, "clusters", 5, "Number of clusters")
	kmeansCmd.Flags().BoolVar(&scaleInput, "scale", false, "Standardize features before fitting")
	kmeansCmd.Flags().BoolVar(&makePlots, "plot", false, "Write a scatter plot colored by cluster")
	kmeansCmd.Flags().StringVar(&csvLabel, "csv-label", "", "Label column for CSV datasets")
}

func runKMeans(cmd *cobra.Command, args []string) error {
	ds, x, err := loadFrame(datasetOrDefault(datasetName), scaleInput)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	if nClusters < 1 || nClusters > rows {
		return fmt.Errorf("clusters must be in [1, %d], have %d", rows, nClusters)
	}

	fmt.Println(heading(fmt.Sprintf("=== KMeans: %s (%d x %d, k=%d) ===", ds.Name, rows, cols, nClusters)))

	refKM := ref.NewKMeans(nClusters, seed())
	var refLabels []int32
	refDur, err := timed(func() error {
		var ferr error
		refLabels, ferr = refKM.FitPredict(x)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("reference fit failed: %w", err)
	}

	dx, err := guml.FromDense(x)
	if err != nil {
		return fmt.Errorf("failed to move data to device: %w", err)
	}
	defer dx.Free()

	// Single init keeps both backends on the same centroid draw sequence
	devKM := guml.NewKMeans(guml.KMeansParams{
		NClusters:   nClusters,
		NInit:       1,
		RandomState: seed(),
	})
	var devLabels []int32
	devDur, err := timed(func() error {
		var ferr error
		devLabels, ferr = devKM.FitPredict(dx)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("device fit failed: %w", err)
	}

	ari, err := guml.AdjustedRandScore(refLabels, devLabels)
	if err != nil {
		return fmt.Errorf("failed to score labelings: %w", err)
	}
	status := "PASS"
	if ari < 0.999 {
		status = "FAIL"
	}

	inertiaGap := math.Abs(refKM.Inertia()-devKM.Inertia()) /
		math.Max(refKM.Inertia(), 1e-12)

	reportTimings(refDur, devDur)
	fmt.Printf("%-26s %14.4f\n", "adjusted Rand index:", ari)
	fmt.Printf("%-26s %14.3e\n", "inertia rel diff:", inertiaGap)
	fmt.Printf("%-26s %8d / %d\n", "iterations (ref/dev):", refKM.NIter(), devKM.NIter())

	metrics := map[string]float64{
		"ari_backends": ari,
		"inertia":      devKM.Inertia(),
	}
	if ds.Y != nil {
		truth, err := guml.AdjustedRandScore(int32Labels(ds.Y), devLabels)
		if err != nil {
			return fmt.Errorf("failed to score against labels: %w", err)
		}
		metrics["ari_truth"] = truth
		fmt.Printf("%-26s %14.4f\n", "ARI vs dataset labels:", truth)
	}
	fmt.Printf("labeling check: %s\n", statusStyled(status))

	if makePlots && cols >= 2 {
		path, err := plotFile(fmt.Sprintf("kmeans_%s", ds.Name))
		if err != nil {
			return err
		}
		if err := plot.Scatter(x, intLabels(devLabels), path, plot.ScatterOptions{
			Title:  fmt.Sprintf("KMeans clusters: %s", ds.Name),
			XLabel: "x0",
			YLabel: "x1",
		}); err != nil {
			return fmt.Errorf("failed to write scatter plot: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	params := map[string]any{"clusters": nClusters, "scale": scaleInput, "seed": seed()}
	refID, err := saveRun("kmeans", "reference", ds, 0, refDur, params,
		map[string]float64{"inertia": refKM.Inertia()}, nil)
	if err != nil {
		return err
	}
	devID, err := saveRun("kmeans", "device", ds, 0, devDur, params, metrics, nil)
	if err != nil {
		return err
	}
	fmt.Printf("saved runs %s (reference), %s (device)\n",
		styled(dimStyle, refID), styled(dimStyle, devID))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/plot"
	"github.com/LynnColeArt/guml/ref"
)

var pcaCmd = &cobra.Command{
	Use:   "pca",
	Short: "Principal component analysis on both backends",
	Long: `Fit PCA with the float64 host reference and the device estimator on the
same dataset, compare embeddings and explained variance within tolerance,
and record both runs.`,
	RunE: runPCA,
}

func init() {
	rootCmd.AddCommand(pcaCmd)
	pcaCmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset: iris, blobs, swissroll, or a .csv path")
	pcaCmd.Flags().IntVar(&nComponents, "components", 2, "Number of principal components")
	pcaCmd.Flags().BoolVar(&scaleInput, "scale", false, "Standardize features before fitting")
	pcaCmd.Flags().BoolVar(&makePlots, "plot", false, "Write scatter and variance plots")
	pcaCmd.Flags().StringVar(&csvLabel, "csv-label", "", "Label column for CSV datasets")
}

func runPCA(cmd *cobra.Command, args []string) error {
	ds, x, err := loadFrame(datasetOrDefault(datasetName), scaleInput)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	if nComponents < 1 || nComponents > cols {
		return fmt.Errorf("components must be in [1, %d], have %d", cols, nComponents)
	}
	k := nComponents

	fmt.Println(heading(fmt.Sprintf("=== PCA: %s (%d x %d -> %d) ===", ds.Name, rows, cols, k)))

	refPCA := ref.NewPCA(k)
	var refEmb *mat.Dense
	refDur, err := timed(func() error {
		var ferr error
		refEmb, ferr = refPCA.FitTransform(x)
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

	devPCA := guml.NewPCA(guml.PCAParams{NComponents: k})
	var devEmb *guml.Matrix
	devDur, err := timed(func() error {
		var ferr error
		devEmb, ferr = devPCA.FitTransform(dx)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("device fit failed: %w", err)
	}
	defer devEmb.Free()

	expected := denseToFloat32(refEmb)
	actual := make([]float32, rows*k)
	if err := devEmb.CopyTo(actual); err != nil {
		return err
	}

	tol := comparisonTolerance("pca")
	vr := guml.VerifyColumnsSignless(expected, actual, rows, k, tol)
	status := "PASS"
	if !vr.IsAcceptable(tol) {
		status = "FAIL"
	}

	refRatio := refPCA.ExplainedVarianceRatio()
	devRatio := devPCA.ExplainedVarianceRatio()
	ratioDiff := maxRatioDiff(refRatio, devRatio)

	reportTimings(refDur, devDur)
	fmt.Printf("%-26s %14.3e\n", "max abs diff:", vr.MaxAbsError)
	fmt.Printf("%-26s %14.3e\n", "max variance ratio diff:", ratioDiff)
	fmt.Printf("%-26s %14.4f\n", "explained variance sum:", sumFloat32(devRatio))
	fmt.Printf("embedding check: %s\n", statusStyled(status))

	if makePlots {
		if k >= 2 {
			path, err := plotFile(fmt.Sprintf("pca_%s", ds.Name))
			if err != nil {
				return err
			}
			if err := plot.Scatter(devEmb.ToDense(), ds.Y, path, plot.ScatterOptions{
				Title:      fmt.Sprintf("PCA of %s", ds.Name),
				XLabel:     "PC1",
				YLabel:     "PC2",
				ClassNames: classNames(ds),
			}); err != nil {
				return fmt.Errorf("failed to write scatter plot: %w", err)
			}
			fmt.Printf("wrote %s\n", path)
		}
		path, err := plotFile(fmt.Sprintf("pca_%s_variance", ds.Name))
		if err != nil {
			return err
		}
		if err := plot.ComponentBars(float64Slice(devRatio), path, plot.BarOptions{
			Title: fmt.Sprintf("PCA explained variance: %s", ds.Name),
		}); err != nil {
			return fmt.Errorf("failed to write variance plot: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	params := map[string]any{"components": k, "scale": scaleInput, "seed": seed()}
	refID, err := saveRun("pca", "reference", ds, k, refDur, params,
		map[string]float64{"explained_variance_ratio_sum": sumFloat64(refRatio)}, expected)
	if err != nil {
		return err
	}
	devID, err := saveRun("pca", "device", ds, k, devDur, params,
		map[string]float64{
			"explained_variance_ratio_sum": sumFloat32(devRatio),
			"max_abs_diff":                 float64(vr.MaxAbsError),
		}, actual)
	if err != nil {
		return err
	}
	fmt.Printf("saved runs %s (reference), %s (device)\n",
		styled(dimStyle, refID), styled(dimStyle, devID))
	return nil
}

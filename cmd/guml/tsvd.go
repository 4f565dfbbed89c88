package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/plot"
	"github.com/LynnColeArt/guml/ref"
)

var tsvdCmd = &cobra.Command{
	Use:   "tsvd",
	Short: "Truncated SVD on both backends",
	Long: `Fit TruncatedSVD with the float64 host reference and the device estimator
on the same dataset, compare embeddings and singular values within
tolerance, and record both runs.`,
	RunE: runTSVD,
}

func init() {
	rootCmd.AddCommand(tsvdCmd)
	tsvdCmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset: iris, blobs, swissroll, or a .csv path")
	tsvdCmd.Flags().IntVar(&nComponents, "components", 2, "Number of singular components")
	tsvdCmd.Flags().BoolVar(&scaleInput, "scale", false, "Standardize features before fitting")
	tsvdCmd.Flags().BoolVar(&makePlots, "plot", false, "Write scatter and variance plots")
	tsvdCmd.Flags().StringVar(&csvLabel, "csv-label", "", "Label column for CSV datasets")
}

func runTSVD(cmd *cobra.Command, args []string) error {
	ds, x, err := loadFrame(datasetOrDefault(datasetName), scaleInput)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	if nComponents < 1 || nComponents >= cols {
		return fmt.Errorf("components must be in [1, %d], have %d", cols-1, nComponents)
	}
	k := nComponents

	fmt.Println(heading(fmt.Sprintf("=== TruncatedSVD: %s (%d x %d -> %d) ===", ds.Name, rows, cols, k)))

	refSVD := ref.NewTruncatedSVD(k)
	var refEmb *mat.Dense
	refDur, err := timed(func() error {
		var ferr error
		refEmb, ferr = refSVD.FitTransform(x)
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

	devSVD := guml.NewTruncatedSVD(guml.TruncatedSVDParams{NComponents: k})
	var devEmb *guml.Matrix
	devDur, err := timed(func() error {
		var ferr error
		devEmb, ferr = devSVD.FitTransform(dx)
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

	tol := comparisonTolerance("tsvd")
	vr := guml.VerifyColumnsSignless(expected, actual, rows, k, tol)
	status := "PASS"
	if !vr.IsAcceptable(tol) {
		status = "FAIL"
	}

	// Singular values are sign-free, so a direct elementwise gap works
	refSV := refSVD.SingularValues()
	devSV := devSVD.SingularValues()
	var svDiff float64
	for i := 0; i < k && i < len(refSV) && i < len(devSV); i++ {
		if d := math.Abs(refSV[i] - float64(devSV[i])); d > svDiff {
			svDiff = d
		}
	}

	reportTimings(refDur, devDur)
	fmt.Printf("%-26s %14.3e\n", "max abs diff:", vr.MaxAbsError)
	fmt.Printf("%-26s %14.3e\n", "max singular value diff:", svDiff)
	fmt.Printf("%-26s %14.4f\n", "top singular value:", devSV[0])
	fmt.Printf("embedding check: %s\n", statusStyled(status))

	if makePlots {
		if k >= 2 {
			path, err := plotFile(fmt.Sprintf("tsvd_%s", ds.Name))
			if err != nil {
				return err
			}
			if err := plot.Scatter(devEmb.ToDense(), ds.Y, path, plot.ScatterOptions{
				Title:      fmt.Sprintf("TruncatedSVD of %s", ds.Name),
				XLabel:     "SV1",
				YLabel:     "SV2",
				ClassNames: classNames(ds),
			}); err != nil {
				return fmt.Errorf("failed to write scatter plot: %w", err)
			}
			fmt.Printf("wrote %s\n", path)
		}
		path, err := plotFile(fmt.Sprintf("tsvd_%s_variance", ds.Name))
		if err != nil {
			return err
		}
		if err := plot.ComponentBars(float64Slice(devSVD.ExplainedVarianceRatio()), path, plot.BarOptions{
			Title: fmt.Sprintf("TruncatedSVD explained variance: %s", ds.Name),
		}); err != nil {
			return fmt.Errorf("failed to write variance plot: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	params := map[string]any{"components": k, "scale": scaleInput, "seed": seed()}
	refID, err := saveRun("tsvd", "reference", ds, k, refDur, params,
		map[string]float64{"top_singular_value": refSV[0]}, expected)
	if err != nil {
		return err
	}
	devID, err := saveRun("tsvd", "device", ds, k, devDur, params,
		map[string]float64{
			"top_singular_value": float64(devSV[0]),
			"max_abs_diff":       float64(vr.MaxAbsError),
		}, actual)
	if err != nil {
		return err
	}
	fmt.Printf("saved runs %s (reference), %s (device)\n",
		styled(dimStyle, refID), styled(dimStyle, devID))
	return nil
}

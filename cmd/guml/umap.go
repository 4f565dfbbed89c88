package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml"
	"github.com/LynnColeArt/guml/plot"
)

var umapCmd = &cobra.Command{
	Use:   "umap",
	Short: "UMAP embedding scored by trustworthiness",
	Long: `Embed the dataset with the device UMAP estimator, score how well the
embedding preserves local neighborhoods with the trustworthiness measure,
and record the run. There is no host UMAP reference; quality is judged
against the high-dimensional neighborhoods directly.`,
	RunE: runUMAP,
}

var (
	nNeighbors int
	minDist    float64
	nEpochs    int
	umapInit   string
)

func init() {
	rootCmd.AddCommand(umapCmd)
	umapCmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset: iris, blobs, swissroll, or a .csv path")
	umapCmd.Flags().IntVar(&nComponents, "components", 2, "Embedding dimensionality")
	umapCmd.Flags().IntVar(&nNeighbors, "neighbors", 15, "Neighborhood size")
	umapCmd.Flags().Float64Var(&minDist, "min-dist", 0.1, "Minimum spacing between embedded points")
	umapCmd.Flags().IntVar(&nEpochs, "epochs", 0, "Optimization epochs (0 selects automatically)")
	umapCmd.Flags().StringVar(&umapInit, "init", "pca", "Initial layout: pca or random")
	umapCmd.Flags().BoolVar(&scaleInput, "scale", false, "Standardize features before fitting")
	umapCmd.Flags().BoolVar(&makePlots, "plot", false, "Write a scatter plot of the embedding")
	umapCmd.Flags().StringVar(&csvLabel, "csv-label", "", "Label column for CSV datasets")
}

func runUMAP(cmd *cobra.Command, args []string) error {
	ds, x, err := loadFrame(datasetOrDefault(datasetName), scaleInput)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	if nComponents < 1 {
		return fmt.Errorf("components must be positive, have %d", nComponents)
	}
	if rows <= nNeighbors {
		return fmt.Errorf("dataset has %d samples, need more than %d neighbors", rows, nNeighbors)
	}

	fmt.Println(heading(fmt.Sprintf("=== UMAP: %s (%d x %d -> %d) ===", ds.Name, rows, cols, nComponents)))

	dx, err := guml.FromDense(x)
	if err != nil {
		return fmt.Errorf("failed to move data to device: %w", err)
	}
	defer dx.Free()

	um := guml.NewUMAP(guml.UMAPParams{
		NComponents: nComponents,
		NNeighbors:  nNeighbors,
		MinDist:     minDist,
		NEpochs:     nEpochs,
		Init:        umapInit,
		RandomState: seed(),
	})
	var emb *guml.Matrix
	dur, err := timed(func() error {
		var ferr error
		emb, ferr = um.FitTransform(dx)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("umap fit failed: %w", err)
	}
	defer emb.Free()

	a, b := um.CurveParams()
	fmt.Printf("%-26s %14v\n", "fit-transform:", dur)
	fmt.Printf("%-26s a=%.4f b=%.4f\n", "fitted curve:", a, b)

	// Trustworthiness needs k < n/2
	trustK := nNeighbors
	if 2*trustK >= rows {
		trustK = (rows - 1) / 2
	}
	metrics := map[string]float64{}
	if trustK >= 1 {
		trust, err := guml.Trustworthiness(dx, emb, trustK)
		if err != nil {
			return fmt.Errorf("failed to score embedding: %w", err)
		}
		metrics["trustworthiness"] = trust
		fmt.Printf("%-26s %14.4f\n", fmt.Sprintf("trustworthiness (k=%d):", trustK), trust)
	}

	if makePlots && nComponents >= 2 {
		path, err := plotFile(fmt.Sprintf("umap_%s", ds.Name))
		if err != nil {
			return err
		}
		if err := plot.Scatter(emb.ToDense(), ds.Y, path, plot.ScatterOptions{
			Title:      fmt.Sprintf("UMAP of %s", ds.Name),
			XLabel:     "UMAP1",
			YLabel:     "UMAP2",
			ClassNames: classNames(ds),
		}); err != nil {
			return fmt.Errorf("failed to write scatter plot: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	embedding := make([]float32, rows*nComponents)
	if err := emb.CopyTo(embedding); err != nil {
		return err
	}
	params := map[string]any{
		"components": nComponents,
		"neighbors":  nNeighbors,
		"min_dist":   minDist,
		"epochs":     nEpochs,
		"init":       umapInit,
		"scale":      scaleInput,
		"seed":       seed(),
	}
	id, err := saveRun("umap", "device", ds, nComponents, dur, params, metrics, embedding)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", styled(dimStyle, id))
	return nil
}

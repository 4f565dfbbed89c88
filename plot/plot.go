// Package plot renders embeddings and variance reports to image files
// with gonum/plot. It consumes host matrices; device results are
// converted at the call site.
package plot

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ScatterOptions controls embedding scatter rendering
type ScatterOptions struct {
	Title  string
	XLabel string
	YLabel string

	// ClassNames label the legend per class index. Missing entries fall
	// back to "class N".
	ClassNames []string

	// Width and Height in inches. Zero selects 6x5.
	Width, Height float64
}

// Scatter writes a 2-D embedding as a scatter plot colored by label.
// The output format follows the file extension (.png, .svg, .pdf).
func Scatter(embedding *mat.Dense, labels []int, path string, opts ScatterOptions) error {
	if embedding == nil {
		return fmt.Errorf("scatter: nil embedding")
	}
	rows, cols := embedding.Dims()
	if cols < 2 {
		return fmt.Errorf("scatter: need at least 2 columns, have %d", cols)
	}
	if labels != nil && len(labels) != rows {
		return fmt.Errorf("scatter: %d labels for %d samples", len(labels), rows)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = defaultString(opts.XLabel, "component 1")
	p.Y.Label.Text = defaultString(opts.YLabel, "component 2")
	p.Add(plotter.NewGrid())

	groups := groupByLabel(embedding, labels, rows)
	classes := make([]int, 0, len(groups))
	for class := range groups {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	for _, class := range classes {
		sc, err := plotter.NewScatter(groups[class])
		if err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
		sc.GlyphStyle.Color = plotutil.Color(class)
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = plotutil.Shape(0)
		p.Add(sc)
		p.Legend.Add(className(opts.ClassNames, class), sc)
	}
	p.Legend.Top = true

	w, h := sizeOrDefault(opts.Width, opts.Height)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	return nil
}

// groupByLabel splits the first two embedding columns into one point set
// per class. With nil labels everything lands in class 0.
func groupByLabel(embedding *mat.Dense, labels []int, rows int) map[int]plotter.XYs {
	groups := make(map[int]plotter.XYs)
	for i := 0; i < rows; i++ {
		class := 0
		if labels != nil {
			class = labels[i]
		}
		groups[class] = append(groups[class], plotter.XY{
			X: embedding.At(i, 0),
			Y: embedding.At(i, 1),
		})
	}
	return groups
}

// BarOptions controls explained-variance bar rendering
type BarOptions struct {
	Title  string
	YLabel string

	// Width and Height in inches. Zero selects 6x4.
	Width, Height float64
}

// ComponentBars writes a bar chart of per-component explained-variance
// ratios
func ComponentBars(ratios []float64, path string, opts BarOptions) error {
	if len(ratios) == 0 {
		return fmt.Errorf("component bars: no ratios")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Y.Label.Text = defaultString(opts.YLabel, "explained variance ratio")
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values(ratios), vg.Points(24))
	if err != nil {
		return fmt.Errorf("component bars: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)

	names := make([]string, len(ratios))
	for i := range names {
		names[i] = fmt.Sprintf("PC%d", i+1)
	}
	p.NominalX(names...)

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 6
	}
	if h <= 0 {
		h = 4
	}
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return fmt.Errorf("component bars: %w", err)
	}
	return nil
}

func sizeOrDefault(w, h float64) (vg.Length, vg.Length) {
	if w <= 0 {
		w = 6
	}
	if h <= 0 {
		h = 5
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func className(names []string, class int) string {
	if class >= 0 && class < len(names) {
		return names[class]
	}
	return fmt.Sprintf("class %d", class)
}

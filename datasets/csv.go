package datasets

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadCSV reads a labeled dataset from a CSV file. A header row is
// detected by trying to parse its fields as numbers. labelColumn names
// the label column; when empty the last column is used. Label values
// may be arbitrary strings and are mapped to class indices in order of
// first appearance.
func LoadCSV(path, labelColumn string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("load csv %s: file is empty", path)
	}

	header, rows := splitHeader(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("load csv %s: no data rows", path)
	}
	nCols := len(rows[0])
	if nCols < 2 {
		return nil, fmt.Errorf("load csv %s: need at least one feature and a label column", path)
	}

	labelIdx := nCols - 1
	if labelColumn != "" {
		if header == nil {
			return nil, fmt.Errorf("load csv %s: label column %q requested but file has no header", path, labelColumn)
		}
		labelIdx = -1
		for i, name := range header {
			if name == labelColumn {
				labelIdx = i
				break
			}
		}
		if labelIdx < 0 {
			return nil, fmt.Errorf("load csv %s: no column named %q", path, labelColumn)
		}
	}

	nFeatures := nCols - 1
	data := make([]float64, 0, len(rows)*nFeatures)
	labels := make([]int, 0, len(rows))
	classes := make(map[string]int)

	for r, row := range rows {
		if len(row) != nCols {
			return nil, fmt.Errorf("load csv %s: row %d has %d fields, want %d", path, r+1, len(row), nCols)
		}
		for c, field := range row {
			if c == labelIdx {
				cls, ok := classes[field]
				if !ok {
					cls = len(classes)
					classes[field] = cls
				}
				labels = append(labels, cls)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("load csv %s: row %d column %d: %w", path, r+1, c+1, err)
			}
			data = append(data, v)
		}
	}

	names := make([]string, 0, nFeatures)
	if header != nil {
		for i, name := range header {
			if i != labelIdx {
				names = append(names, name)
			}
		}
	} else {
		names = numberedFeatures(nFeatures)
	}

	base := filepath.Base(path)
	return &Dataset{
		Name:         strings.TrimSuffix(base, filepath.Ext(base)),
		X:            mat.NewDense(len(rows), nFeatures, data),
		Y:            labels,
		FeatureNames: names,
	}, nil
}

// splitHeader separates a leading header row from the data rows. A row
// where every field parses as a number is data, not a header.
func splitHeader(records [][]string) (header []string, rows [][]string) {
	first := records[0]
	for _, field := range first {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			return first, records[1:]
		}
	}
	return nil, records
}

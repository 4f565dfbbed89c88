// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package guml provides a cuML-style machine learning API for CPU execution.
//
// GUML carries the GUDA execution model (device contexts, streams, and
// data-parallel kernel launches mapped onto CPU cores) and builds the
// dimensionality-reduction and clustering estimators of a GPU ML library
// on top of it: PCA, TruncatedSVD, UMAP, KMeans, plus the scalers and
// metrics that surround them in a typical reduction workflow.
//
// Estimators follow the fit/transform contract of the original library:
//
//	pca := guml.NewPCA(guml.PCAParams{NComponents: 2})
//	if err := pca.Fit(x); err != nil {
//	    log.Fatal(err)
//	}
//	emb, err := pca.Transform(x)
//
// Data lives in device matrices (row-major float32 over pooled, aligned
// allocations). Host data moves through the conversion layer in matrix.go,
// which accepts gonum *mat.Dense frames and performs the float64→float32
// downcast a GPU library performs when handed a host data frame.
//
// The ref subpackage holds float64 CPU reference estimators built on gonum
// and golearn; tolerance.go provides the verification machinery used to
// compare the two backends, including the per-column sign alignment that
// eigenvector outputs require.
package guml

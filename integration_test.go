package guml

import (
	"math"
	"testing"

	"github.com/LynnColeArt/guml/datasets"
)

// TestIrisPipeline chains the full device path on a real dataset:
// scale, project, cluster, score.
func TestIrisPipeline(t *testing.T) {
	ds, err := datasets.Load("iris", 0)
	if err != nil {
		t.Fatalf("failed to load iris: %v", err)
	}
	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	scaled, err := NewStandardScaler().FitTransform(dx)
	if err != nil {
		t.Fatalf("scaler failed: %v", err)
	}
	defer scaled.Free()

	pca := NewPCA(PCAParams{NComponents: 2})
	emb, err := pca.FitTransform(scaled)
	if err != nil {
		t.Fatalf("pca failed: %v", err)
	}
	defer emb.Free()

	var explained float32
	for _, r := range pca.ExplainedVarianceRatio() {
		explained += r
	}
	if explained < 0.9 {
		t.Errorf("two components explain %.3f of scaled iris, want at least 0.9", explained)
	}

	km := NewKMeans(KMeansParams{NClusters: 3, RandomState: 1})
	labels, err := km.FitPredict(emb)
	if err != nil {
		t.Fatalf("kmeans failed: %v", err)
	}
	ari, err := AdjustedRandScore(labels, toInt32(ds.Y))
	if err != nil {
		t.Fatalf("adjusted rand score failed: %v", err)
	}
	if ari < 0.4 {
		t.Errorf("ARI %.3f against species labels, want at least 0.4", ari)
	}

	trust, err := Trustworthiness(scaled, emb, 10)
	if err != nil {
		t.Fatalf("trustworthiness failed: %v", err)
	}
	if trust < 0.9 {
		t.Errorf("trustworthiness %.3f, want at least 0.9", trust)
	}
	t.Logf("iris: explained=%.3f ari=%.3f trust=%.3f", explained, ari, trust)
}

// TestBlobTrainTestPipeline fits every stage on a training split and
// applies the fitted transforms to held-out rows.
func TestBlobTrainTestPipeline(t *testing.T) {
	const (
		total = 400
		train = 300
		feats = 12
		k     = 4
	)
	ds, err := datasets.MakeBlobs(total, feats, k, 0.8, 21)
	if err != nil {
		t.Fatalf("failed to generate blobs: %v", err)
	}

	dTrain, err := FromDense(ds.X.Slice(0, train, 0, feats))
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dTrain.Free()
	dTest, err := FromDense(ds.X.Slice(train, total, 0, feats))
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dTest.Free()

	scaler := NewStandardScaler()
	if err := scaler.Fit(dTrain); err != nil {
		t.Fatalf("scaler fit failed: %v", err)
	}
	trainScaled, err := scaler.Transform(dTrain)
	if err != nil {
		t.Fatalf("scaler transform failed: %v", err)
	}
	defer trainScaled.Free()
	testScaled, err := scaler.Transform(dTest)
	if err != nil {
		t.Fatalf("scaler transform failed: %v", err)
	}
	defer testScaled.Free()

	pca := NewPCA(PCAParams{NComponents: k})
	if err := pca.Fit(trainScaled); err != nil {
		t.Fatalf("pca fit failed: %v", err)
	}
	trainEmb, err := pca.Transform(trainScaled)
	if err != nil {
		t.Fatalf("pca transform failed: %v", err)
	}
	defer trainEmb.Free()
	testEmb, err := pca.Transform(testScaled)
	if err != nil {
		t.Fatalf("pca transform failed: %v", err)
	}
	defer testEmb.Free()

	km := NewKMeans(KMeansParams{NClusters: k, RandomState: 21})
	if err := km.Fit(trainEmb); err != nil {
		t.Fatalf("kmeans fit failed: %v", err)
	}
	pred, err := km.Predict(testEmb)
	if err != nil {
		t.Fatalf("kmeans predict failed: %v", err)
	}

	ari, err := AdjustedRandScore(pred, toInt32(ds.Y[train:]))
	if err != nil {
		t.Fatalf("adjusted rand score failed: %v", err)
	}
	if ari < 0.9 {
		t.Errorf("held-out ARI %.3f, want at least 0.9", ari)
	}
	t.Logf("held-out ARI %.3f", ari)
}

// TestSwissRollEmbedding runs UMAP on the classic manifold and checks
// the embedding keeps local neighborhoods.
func TestSwissRollEmbedding(t *testing.T) {
	ds, err := datasets.MakeSwissRoll(500, 0.05, 3)
	if err != nil {
		t.Fatalf("failed to generate swiss roll: %v", err)
	}
	dx, err := FromDense(ds.X)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	defer dx.Free()

	um := NewUMAP(UMAPParams{NComponents: 2, NNeighbors: 12, NEpochs: 150, RandomState: 3})
	emb, err := um.FitTransform(dx)
	if err != nil {
		t.Fatalf("umap failed: %v", err)
	}
	defer emb.Free()

	for i, v := range emb.Float32() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite embedding value %v at index %d", v, i)
		}
	}

	trust, err := Trustworthiness(dx, emb, 12)
	if err != nil {
		t.Fatalf("trustworthiness failed: %v", err)
	}
	if trust < 0.7 {
		t.Errorf("trustworthiness %.3f on the swiss roll, want at least 0.7", trust)
	}
	t.Logf("swiss roll trustworthiness %.3f", trust)
}

func toInt32(ys []int) []int32 {
	out := make([]int32, len(ys))
	for i, y := range ys {
		out[i] = int32(y)
	}
	return out
}

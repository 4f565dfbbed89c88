package guml

// Clustering and embedding quality metrics. These score estimator output
// against ground truth or against the original feature space, so runs of
// the same pipeline on different backends can be compared numerically.

// comb2 counts unordered pairs in a group of n
func comb2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2
}

// AdjustedRandScore scores the agreement between two labelings, corrected
// for chance. Identical partitions score 1.0 regardless of label naming,
// independent partitions score near 0, and adversarial ones go negative.
func AdjustedRandScore(a, b []int32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	n := len(a)
	if n == 0 {
		return 0, ErrEmptyInput
	}
	if n == 1 {
		return 1.0, nil
	}

	type cell struct{ a, b int32 }
	contingency := make(map[cell]int)
	rowSums := make(map[int32]int)
	colSums := make(map[int32]int)
	for i := 0; i < n; i++ {
		contingency[cell{a[i], b[i]}]++
		rowSums[a[i]]++
		colSums[b[i]]++
	}

	var sumCells, sumRows, sumCols float64
	for _, c := range contingency {
		sumCells += comb2(c)
	}
	for _, c := range rowSums {
		sumRows += comb2(c)
	}
	for _, c := range colSums {
		sumCols += comb2(c)
	}

	expected := sumRows * sumCols / comb2(n)
	maxIndex := (sumRows + sumCols) / 2
	if maxIndex == expected {
		// Both partitions are trivial: one cluster, or all singletons.
		// They agree perfectly on every pair.
		return 1.0, nil
	}
	return (sumCells - expected) / (maxIndex - expected), nil
}

// Trustworthiness measures how well an embedding preserves local
// neighborhoods. For each point, embedding neighbors that were not
// already among its k nearest in the original space are penalized by how
// far down the original ranking they sit. 1.0 means every embedded
// neighborhood is drawn from the original one.
//
// k must satisfy 1 <= k < n/2 or the normalization term degenerates.
func Trustworthiness(x, embedding *Matrix, k int) (float64, error) {
	n := x.Rows()
	if n == 0 {
		return 0, ErrEmptyInput
	}
	if embedding.Rows() != n {
		return 0, ErrDimensionMismatch
	}
	if k < 1 || 2*k >= n {
		return 0, NewInvalidArgError("Trustworthiness", "k must satisfy 1 <= k < n/2")
	}

	origOrder, err := AllPairsRanks(x)
	if err != nil {
		return 0, err
	}
	embOrder, err := AllPairsRanks(embedding)
	if err != nil {
		return 0, err
	}

	// rankOf[i*n+j] is the 1-based position of j in i's original-space
	// ordering. Position <= k means j was already a true neighbor.
	rankOf := make([]int32, n*n)
	for i := 0; i < n; i++ {
		for pos, j := range origOrder[i] {
			rankOf[i*n+int(j)] = int32(pos + 1)
		}
	}

	var penalty float64
	for i := 0; i < n; i++ {
		for _, j := range embOrder[i][:k] {
			if r := float64(rankOf[i*n+int(j)]); r > float64(k) {
				penalty += r - float64(k)
			}
		}
	}

	nf, kf := float64(n), float64(k)
	return 1 - 2/(nf*kf*(2*nf-3*kf-1))*penalty, nil
}

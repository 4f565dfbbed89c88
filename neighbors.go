package guml

import (
	"container/heap"
	"sort"

	"github.com/viant/vec/search"
)

// Metric selects the distance function for neighbor searches
type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
)

// Neighbor describes a candidate returned by a kNN search
type Neighbor struct {
	Index    int32
	Distance float32
}

// neighborHeap implements heap.Interface sorted by descending distance
// (max-heap), so the worst candidate is always on top ready for eviction
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NearestNeighborsParams configures a NearestNeighbors index
type NearestNeighborsParams struct {
	// NNeighbors is the k returned per query. Zero selects
	// DefaultNNeighbors.
	NNeighbors int

	// Metric is the distance function. Empty selects Euclidean.
	Metric Metric
}

// NearestNeighbors is a brute-force exact kNN index. Queries run as a
// data-parallel kernel over query rows, each maintaining a bounded
// max-heap of candidates. At the sample counts the reducers target,
// exact search is both simpler and more accurate than an approximate
// index, and the SIMD distance primitives keep the scan fast.
type NearestNeighbors struct {
	params NearestNeighborsParams

	data       *Matrix
	magnitudes []float32 // cached for cosine
	fitted     bool
}

// NewNearestNeighbors creates a NearestNeighbors index
func NewNearestNeighbors(params NearestNeighborsParams) *NearestNeighbors {
	return &NearestNeighbors{params: params}
}

func (nn *NearestNeighbors) k() int {
	if nn.params.NNeighbors <= 0 {
		return DefaultNNeighbors
	}
	return nn.params.NNeighbors
}

func (nn *NearestNeighbors) metric() Metric {
	if nn.params.Metric == "" {
		return MetricEuclidean
	}
	return nn.params.Metric
}

// Fit indexes the rows of x as the reference set
func (nn *NearestNeighbors) Fit(x *Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmptyInput
	}
	if nn.k() > rows {
		return NewInvalidArgError("NearestNeighbors.Fit", "k exceeds reference set size")
	}

	ref, err := x.Clone()
	if err != nil {
		return err
	}
	if nn.data != nil {
		nn.data.Free()
	}
	nn.data = ref

	if nn.metric() == MetricCosine {
		nn.magnitudes = make([]float32, rows)
		for i := 0; i < rows; i++ {
			nn.magnitudes[i] = search.Float32s(ref.Row(i)).Magnitude()
		}
	} else {
		nn.magnitudes = nil
	}

	nn.fitted = true
	return nil
}

// KNeighbors finds the k nearest reference rows for each query row.
// Distances come back sorted ascending; indices are row-major n×k.
// Querying the fitted matrix itself returns each point as its own first
// neighbor at distance zero, which is what the manifold methods expect.
func (nn *NearestNeighbors) KNeighbors(q *Matrix) (*Matrix, []int32, error) {
	if !nn.fitted {
		return nil, nil, NewNotFittedError("NearestNeighbors.KNeighbors")
	}
	qRows, qCols := q.Dims()
	_, refCols := nn.data.Dims()
	if qCols != refCols {
		return nil, nil, ErrDimensionMismatch
	}

	k := nn.k()
	dists, err := NewMatrix(qRows, k)
	if err != nil {
		return nil, nil, err
	}
	indices := make([]int32, qRows*k)

	refRows := nn.data.Rows()
	ref := nn.data
	metric := nn.metric()
	magnitudes := nn.magnitudes
	distData := dists.Float32()

	grid := Dim3{X: (qRows + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		qi := tid.Global()
		if qi >= qRows {
			return
		}
		query := search.Float32s(q.Row(qi))
		var queryMag float32
		if metric == MetricCosine {
			queryMag = query.Magnitude()
		}

		h := make(neighborHeap, 0, k+1)
		for ri := 0; ri < refRows; ri++ {
			var d float32
			switch metric {
			case MetricCosine:
				d = cosineDistance(query, ref.Row(ri), queryMag, magnitudes[ri])
			default:
				d = query.EuclideanDistance(ref.Row(ri))
			}

			if len(h) < k {
				heap.Push(&h, Neighbor{Index: int32(ri), Distance: d})
			} else if d < h[0].Distance {
				h[0] = Neighbor{Index: int32(ri), Distance: d}
				heap.Fix(&h, 0)
			}
		}

		// Ascending by distance, ties broken by index for determinism
		sort.Slice(h, func(a, b int) bool {
			if h[a].Distance != h[b].Distance {
				return h[a].Distance < h[b].Distance
			}
			return h[a].Index < h[b].Index
		})
		for j, nb := range h {
			distData[qi*k+j] = nb.Distance
			indices[qi*k+j] = nb.Index
		}
	})

	if err := Launch(kernel, grid, block); err != nil {
		dists.Free()
		return nil, nil, err
	}
	if err := Synchronize(); err != nil {
		dists.Free()
		return nil, nil, err
	}
	return dists, indices, nil
}

// AllPairsRanks returns for each row of x the indices of every other row
// sorted by ascending distance. The trustworthiness metric needs full
// rank tables, not just the top k.
func AllPairsRanks(x *Matrix) ([][]int32, error) {
	rows, _ := x.Dims()
	if rows == 0 {
		return nil, ErrEmptyInput
	}

	ranks := make([][]int32, rows)

	grid := Dim3{X: (rows + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		i := tid.Global()
		if i >= rows {
			return
		}
		self := search.Float32s(x.Row(i))

		type cand struct {
			idx  int32
			dist float32
		}
		cands := make([]cand, 0, rows-1)
		for j := 0; j < rows; j++ {
			if j == i {
				continue
			}
			cands = append(cands, cand{int32(j), self.EuclideanDistance(x.Row(j))})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].dist != cands[b].dist {
				return cands[a].dist < cands[b].dist
			}
			return cands[a].idx < cands[b].idx
		})

		row := make([]int32, len(cands))
		for j, c := range cands {
			row[j] = c.idx
		}
		ranks[i] = row
	})

	if err := Launch(kernel, grid, block); err != nil {
		return nil, err
	}
	if err := Synchronize(); err != nil {
		return nil, err
	}
	return ranks, nil
}

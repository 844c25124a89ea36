package structures_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func newGraph(
	t *testing.T,
	nodes []float32,
	numNodes int,
	adjacency []int64,
	edges []float32,
	edgeDim int,
) *structures.Graph[*cpu.CPUBackend] {
	t.Helper()
	b := cpu.New()

	nodeDim := 0
	if numNodes > 0 {
		nodeDim = len(nodes) / numNodes
	}
	nodeT, err := tensor.FromSlice(nodes, tensor.Shape{numNodes, nodeDim}, b)
	require.NoError(t, err)

	numEdges := len(adjacency) / 2
	adjT, err := tensor.FromSlice(adjacency, tensor.Shape{2, numEdges}, b)
	require.NoError(t, err)

	var edgeT *tensor.Tensor[float32, *cpu.CPUBackend]
	if edges != nil {
		edgeT, err = tensor.FromSlice(edges, tensor.Shape{numEdges, edgeDim}, b)
		require.NoError(t, err)
	}

	g, err := structures.NewGraph(nodeT, adjT, edgeT)
	require.NoError(t, err)
	return g
}

func TestNewGraphValidation(t *testing.T) {
	b := cpu.New()

	nodes := tensor.Ones[float32](tensor.Shape{2, 4}, b)

	// Adjacency referring to a missing node.
	adj, err := tensor.FromSlice([]int64{0, 2}, tensor.Shape{2, 1}, b)
	require.NoError(t, err)
	_, err = structures.NewGraph(nodes, adj, nil)
	assert.Error(t, err)

	// Wrong adjacency shape.
	adj, err = tensor.FromSlice([]int64{0, 1, 1}, tensor.Shape{3, 1}, b)
	require.NoError(t, err)
	_, err = structures.NewGraph(nodes, adj, nil)
	assert.Error(t, err)

	// Edge features not matching the edge count.
	adj, err = tensor.FromSlice([]int64{0, 1}, tensor.Shape{2, 1}, b)
	require.NoError(t, err)
	edges := tensor.Ones[float32](tensor.Shape{2, 3}, b)
	_, err = structures.NewGraph(nodes, adj, edges)
	assert.Error(t, err)
}

func TestBatchGraphsOffsets(t *testing.T) {
	g1 := newGraph(t,
		[]float32{1, 1, 2, 2}, 2,
		[]int64{0, 1}, // one edge 0 -> 1
		[]float32{10}, 1,
	)
	g2 := newGraph(t,
		[]float32{3, 3, 4, 4, 5, 5}, 3,
		[]int64{0, 2, 1, 0}, // edges 0 -> 1 and 2 -> 0
		[]float32{20, 30}, 1,
	)

	batch, err := structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g2})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.NumGraphs())
	assert.Equal(t, 5, batch.NumNodes())
	assert.Equal(t, 3, batch.NumEdges())
	assert.Equal(t, []int{2, 3}, batch.NodeCounts())
	assert.Equal(t, []int{1, 2}, batch.EdgeCounts())

	// Second graph's adjacency is shifted by the first graph's node count.
	adj := batch.Adjacency().Data()
	assert.Equal(t, []int64{0, 2, 4, 1, 3, 2}, adj)

	// Feature arenas preserve order.
	assert.Equal(t, []float32{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, batch.NodeFeatures().Data())
	assert.Equal(t, []float32{10, 20, 30}, batch.EdgeFeatures().Data())
}

func TestBatchGraphsValidation(t *testing.T) {
	_, err := structures.BatchGraphs[*cpu.CPUBackend](nil)
	assert.Error(t, err)

	g1 := newGraph(t, []float32{1, 1}, 1, []int64{0, 0}, nil, 0)
	g2 := newGraph(t, []float32{1, 1, 1}, 1, []int64{0, 0}, nil, 0)
	_, err = structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g2})
	assert.Error(t, err)

	// Mixed edge-feature presence.
	g3 := newGraph(t, []float32{1, 1}, 1, []int64{0, 0}, []float32{5}, 1)
	_, err = structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g3})
	assert.Error(t, err)
}

func TestGraphBatchUnbatchRoundTrip(t *testing.T) {
	g1 := newGraph(t,
		[]float32{1, 2, 3, 4}, 2,
		[]int64{0, 1, 1, 0},
		[]float32{10, 20}, 1,
	)
	g2 := newGraph(t,
		[]float32{5, 6}, 1,
		[]int64{0, 0},
		[]float32{30}, 1,
	)

	batch, err := structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g2})
	require.NoError(t, err)

	out := batch.Unbatch()
	require.Len(t, out, 2)
	for i, orig := range []*structures.Graph[*cpu.CPUBackend]{g1, g2} {
		assert.Equal(t, orig.NodeFeatures().Data(), out[i].NodeFeatures().Data())
		assert.Equal(t, orig.Adjacency().Data(), out[i].Adjacency().Data())
		assert.Equal(t, orig.EdgeFeatures().Data(), out[i].EdgeFeatures().Data())
	}
}

func TestBatchGraphsWithoutEdges(t *testing.T) {
	// A graph with no edges at all is still a valid graph.
	g1 := newGraph(t, []float32{1, 2, 3, 4}, 2, nil, nil, 0)
	assert.Equal(t, 2, g1.NumNodes())
	assert.Equal(t, 0, g1.NumEdges())

	g2 := newGraph(t, []float32{5, 6}, 1, []int64{0, 0}, nil, 0)

	batch, err := structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, batch.EdgeCounts())
	// The only edge belongs to the second graph, so it is offset by the
	// two nodes of the first.
	assert.Equal(t, []int64{2, 2}, batch.Adjacency().Data())

	out := batch.Unbatch()
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].NumEdges())
	assert.Equal(t, g1.NodeFeatures().Data(), out[0].NodeFeatures().Data())
	assert.Equal(t, g2.Adjacency().Data(), out[1].Adjacency().Data())
}

func TestBatchedGraphsReplace(t *testing.T) {
	b := cpu.New()

	g := newGraph(t, []float32{1, 1, 2, 2}, 2, []int64{0, 1}, nil, 0)
	batch, err := structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g})
	require.NoError(t, err)

	wide := tensor.Zeros[float32](tensor.Shape{2, 8}, b)
	replaced := batch.Replace(wide)
	assert.Equal(t, tensor.Shape{2, 8}, replaced.NodeFeatures().Shape())
	assert.Equal(t, batch.Adjacency(), replaced.Adjacency())

	bad := tensor.Zeros[float32](tensor.Shape{3, 2}, b)
	assert.Panics(t, func() { batch.Replace(bad) })
}

func TestNodeFeaturesStackedRoundTrip(t *testing.T) {
	g1 := newGraph(t, []float32{1, 2, 3, 4}, 2, []int64{0, 1}, nil, 0)
	g2 := newGraph(t, []float32{5, 6, 7, 8, 9, 10}, 3, []int64{0, 2}, nil, 0)

	batch, err := structures.BatchGraphs([]*structures.Graph[*cpu.CPUBackend]{g1, g2})
	require.NoError(t, err)

	stacked, mask := batch.NodeFeaturesStacked()
	assert.Equal(t, tensor.Shape{2, 3, 2}, stacked.Shape())
	assert.Equal(t, float32(1), stacked.At(0, 0, 0))
	assert.Equal(t, float32(9), stacked.At(1, 2, 0))
	// Graph 1 has 2 of 3 rows: the last row is padded and zero.
	assert.Equal(t, float32(0), stacked.At(0, 2, 0))
	assert.True(t, mask.At(0, 2))
	assert.False(t, mask.At(1, 2))

	// Scattering back, garbage in padded rows is dropped.
	modified := stacked.Clone()
	modified.Set(float32(99), 0, 2, 0)
	restored := batch.ReplaceFromStacked(modified)
	assert.Equal(t, batch.NodeFeatures().Data(), restored.NodeFeatures().Data())
}

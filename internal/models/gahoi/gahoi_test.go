package gahoi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/internal/models/gahoi"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func buildGraphs(
	t *testing.T,
	nodeCounts []int,
	adjacencies [][]int64,
	nodeDim, edgeDim int,
) *structures.BatchedGraphs[*cpu.CPUBackend] {
	t.Helper()
	b := cpu.New()

	graphs := make([]*structures.Graph[*cpu.CPUBackend], len(nodeCounts))
	for i, n := range nodeCounts {
		nodes := tensor.Randn[float32](tensor.Shape{n, nodeDim}, b)
		numEdges := len(adjacencies[i]) / 2
		adj, err := tensor.FromSlice(adjacencies[i], tensor.Shape{2, numEdges}, b)
		require.NoError(t, err)

		var edges *tensor.Tensor[float32, *cpu.CPUBackend]
		if edgeDim > 0 {
			edges = tensor.Randn[float32](tensor.Shape{numEdges, edgeDim}, b)
		}

		g, err := structures.NewGraph(nodes, adj, edges)
		require.NoError(t, err)
		graphs[i] = g
	}

	batch, err := structures.BatchGraphs(graphs)
	require.NoError(t, err)
	return batch
}

func TestGraphAttentionConfigValidation(t *testing.T) {
	b := cpu.New()

	_, err := gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim: 7, NumHeads: 2,
	}, b)
	assert.Error(t, err)

	_, err = gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim: 8, NumHeads: 0,
	}, b)
	assert.Error(t, err)
}

func TestGraphAttentionShapes(t *testing.T) {
	b := cpu.New()

	gat, err := gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim:       8,
		EdgeDim:       4,
		NumHeads:      2,
		Bias:          true,
		NegativeSlope: 0.2,
	}, b)
	require.NoError(t, err)

	graphs := buildGraphs(t,
		[]int{2, 3},
		[][]int64{
			{0, 1, 1, 0},       // edges 0->1, 1->0
			{0, 1, 2, 1, 2, 0}, // edges 0->1, 1->2, 2->0
		},
		8, 4,
	)

	out := gat.Forward(graphs)
	assert.Equal(t, tensor.Shape{5, 8}, out.NodeFeatures().Shape())
	// Adjacency and counts are carried through untouched.
	assert.Equal(t, graphs.Adjacency(), out.Adjacency())
	assert.Equal(t, graphs.NodeCounts(), out.NodeCounts())

	for _, v := range out.NodeFeatures().Data() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestGraphAttentionIsolatedNode(t *testing.T) {
	b := cpu.New()

	// Without bias terms, a node with no outgoing edges aggregates
	// nothing and must come out as an exact zero row.
	gat, err := gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim:       8,
		NumHeads:      2,
		Bias:          false,
		NegativeSlope: 0.2,
	}, b)
	require.NoError(t, err)

	// Node 2 has no outgoing edges.
	graphs := buildGraphs(t, []int{3}, [][]int64{{0, 1, 1, 0}}, 8, 0)

	out := gat.Forward(graphs).NodeFeatures()
	row := out.Data()[2*8 : 3*8]
	for _, v := range row {
		assert.Equal(t, float32(0), v)
	}
	// Connected nodes receive non-trivial updates.
	nonZero := false
	for _, v := range out.Data()[:2*8] {
		if v != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestGraphAttentionNoEdges(t *testing.T) {
	b := cpu.New()

	gat, err := gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim:  8,
		NumHeads: 2,
		Bias:     false,
	}, b)
	require.NoError(t, err)

	// An edge-less graph aggregates nothing: every node comes out zero.
	graphs := buildGraphs(t, []int{3}, [][]int64{nil}, 8, 0)
	require.Equal(t, 0, graphs.NumEdges())

	out := gat.Forward(graphs)
	assert.Equal(t, tensor.Shape{3, 8}, out.NodeFeatures().Shape())
	for _, v := range out.NodeFeatures().Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestGraphAttentionMissingEdgeFeatures(t *testing.T) {
	b := cpu.New()

	gat, err := gahoi.NewGraphAttention(gahoi.GraphAttentionConfig{
		NodeDim:  8,
		EdgeDim:  4,
		NumHeads: 2,
		Bias:     true,
	}, b)
	require.NoError(t, err)

	graphs := buildGraphs(t, []int{2}, [][]int64{{0, 1}}, 8, 0)
	assert.Panics(t, func() { gat.Forward(graphs) })
}

func buildImages(t *testing.T, sizes []structures.ImageSize, channels int) *structures.BatchedImages[float32, *cpu.CPUBackend] {
	t.Helper()
	b := cpu.New()

	images := make([]*tensor.Tensor[float32, *cpu.CPUBackend], len(sizes))
	for i, s := range sizes {
		images[i] = tensor.Randn[float32](tensor.Shape{channels, s.Height, s.Width}, b)
	}
	batch, err := structures.BatchImages(images, 0)
	require.NoError(t, err)
	return batch
}

func buildBoxes(t *testing.T, counts []int, size structures.ImageSize) []*structures.BoundingBoxes[*cpu.CPUBackend] {
	t.Helper()
	b := cpu.New()

	out := make([]*structures.BoundingBoxes[*cpu.CPUBackend], len(counts))
	for i, n := range counts {
		coords := make([]float32, n*4)
		for q := 0; q < n; q++ {
			coords[q*4] = float32(q % size.Width)
			coords[q*4+1] = float32(q % size.Height)
			coords[q*4+2] = 1
			coords[q*4+3] = 1
		}
		data, err := tensor.FromSlice(coords, tensor.Shape{n, 4}, b)
		require.NoError(t, err)
		boxes, err := structures.NewBoundingBoxes(data, structures.BoxFormatCXCYWH, false, size)
		require.NoError(t, err)
		out[i] = boxes
	}
	return out
}

func TestCrossAttentionMaskedPatches(t *testing.T) {
	b := cpu.New()

	crossAttn, err := gahoi.NewCrossAttention(gahoi.CrossAttentionConfig{
		EmbedDim:     8,
		CPBHiddenDim: 16,
		NumHeads:     2,
		Bias:         true,
	}, nil, b)
	require.NoError(t, err)

	graphs := buildGraphs(t,
		[]int{2, 3},
		[][]int64{{0, 1}, {0, 1, 1, 2}},
		8, 0,
	)

	// Second image is smaller, so its trailing patches are padded.
	images := buildImages(t, []structures.ImageSize{
		{Height: 2, Width: 2},
		{Height: 1, Width: 2},
	}, 8)
	patches := images.ToSequences()

	rel := tensor.Randn[float32](tensor.Shape{2, 3, 4, 2}, b)

	out := crossAttn.Forward(graphs, patches, rel)
	assert.Equal(t, tensor.Shape{5, 8}, out.NodeFeatures().Shape())
	for _, v := range out.NodeFeatures().Data() {
		assert.False(t, math.IsNaN(float64(v)), "masked patches must not produce NaN")
	}
}

func TestCrossAttentionShapeMismatch(t *testing.T) {
	b := cpu.New()

	crossAttn, err := gahoi.NewCrossAttention(gahoi.CrossAttentionConfig{
		EmbedDim:     8,
		CPBHiddenDim: 16,
		NumHeads:     2,
	}, nil, b)
	require.NoError(t, err)

	graphs := buildGraphs(t, []int{2}, [][]int64{{0, 1}}, 8, 0)
	images := buildImages(t, []structures.ImageSize{{Height: 2, Width: 2}}, 8)
	patches := images.ToSequences()

	// Wrong number of patches in the distance tensor.
	rel := tensor.Randn[float32](tensor.Shape{1, 2, 3, 2}, b)
	assert.Panics(t, func() { crossAttn.Forward(graphs, patches, rel) })
}

func TestDecoderReturnsAllLayerStates(t *testing.T) {
	b := cpu.New()

	decoder, err := gahoi.NewDecoder(gahoi.DecoderConfig{
		NodeDim:      8,
		EdgeDim:      4,
		CPBHiddenDim: 16,
		NumHeads:     2,
		NumLayers:    3,
	}, b)
	require.NoError(t, err)

	graphs := buildGraphs(t,
		[]int{2, 3},
		[][]int64{{0, 1, 1, 0}, {0, 1, 1, 2}},
		8, 4,
	)
	images := buildImages(t, []structures.ImageSize{
		{Height: 2, Width: 2},
		{Height: 2, Width: 1},
	}, 8)
	boxes := buildBoxes(t, []int{2, 3}, structures.ImageSize{Height: 2, Width: 2})

	outputs := decoder.Forward(graphs, boxes, images)
	require.Len(t, outputs, 3)

	for _, out := range outputs {
		assert.Equal(t, tensor.Shape{5, 8}, out.NodeFeatures().Shape())
		assert.Equal(t, graphs.NodeCounts(), out.NodeCounts())
		for _, v := range out.NodeFeatures().Data() {
			assert.False(t, math.IsNaN(float64(v)))
		}
	}
	// Successive layers keep refining: states differ.
	assert.NotEqual(t, outputs[0].NodeFeatures().Data(), outputs[1].NodeFeatures().Data())
}

func TestDecoderBoxCountMismatch(t *testing.T) {
	b := cpu.New()

	decoder, err := gahoi.NewDecoder(gahoi.DecoderConfig{
		NodeDim:   8,
		NumHeads:  2,
		NumLayers: 1,
	}, b)
	require.NoError(t, err)

	graphs := buildGraphs(t, []int{2}, [][]int64{{0, 1}}, 8, 0)
	images := buildImages(t, []structures.ImageSize{{Height: 2, Width: 2}}, 8)
	boxes := buildBoxes(t, []int{3}, structures.ImageSize{Height: 2, Width: 2})

	assert.Panics(t, func() { decoder.Forward(graphs, boxes, images) })
}

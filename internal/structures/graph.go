package structures

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Graph is a directed graph with per-node features, optional per-edge
// features, and a (2, E) adjacency tensor whose first row holds source
// node indices and second row target node indices.
type Graph[B tensor.Backend] struct {
	nodeFeatures *tensor.Tensor[float32, B]
	edgeFeatures *tensor.Tensor[float32, B]
	adjacency    *tensor.Tensor[int64, B]
}

// NewGraph builds a graph from an (N, D) node feature tensor, a (2, E)
// adjacency tensor, and optionally an (E, De) edge feature tensor (nil for
// none). It returns an error if the shapes disagree or an adjacency entry
// is out of range.
func NewGraph[B tensor.Backend](
	nodeFeatures *tensor.Tensor[float32, B],
	adjacency *tensor.Tensor[int64, B],
	edgeFeatures *tensor.Tensor[float32, B],
) (*Graph[B], error) {
	nodeShape := nodeFeatures.Shape()
	if len(nodeShape) != 2 {
		return nil, fmt.Errorf("structures: node features must be 2-dimensional, got shape %v", nodeShape)
	}

	adjShape := adjacency.Shape()
	if len(adjShape) != 2 || adjShape[0] != 2 {
		return nil, fmt.Errorf("structures: adjacency must have shape (2, E), got %v", adjShape)
	}

	numNodes := nodeShape[0]
	for i, v := range adjacency.Data() {
		if v < 0 || int(v) >= numNodes {
			return nil, fmt.Errorf(
				"structures: adjacency entry %d refers to node %d, graph has %d nodes",
				i, v, numNodes,
			)
		}
	}

	if edgeFeatures != nil {
		edgeShape := edgeFeatures.Shape()
		if len(edgeShape) != 2 || edgeShape[0] != adjShape[1] {
			return nil, fmt.Errorf(
				"structures: edge features shape %v does not match %d edges",
				edgeShape, adjShape[1],
			)
		}
	}

	return &Graph[B]{
		nodeFeatures: nodeFeatures,
		edgeFeatures: edgeFeatures,
		adjacency:    adjacency,
	}, nil
}

// NodeFeatures returns the (N, D) node feature tensor.
func (g *Graph[B]) NodeFeatures() *tensor.Tensor[float32, B] { return g.nodeFeatures }

// EdgeFeatures returns the (E, De) edge feature tensor, or nil if the
// graph carries no edge features.
func (g *Graph[B]) EdgeFeatures() *tensor.Tensor[float32, B] { return g.edgeFeatures }

// Adjacency returns the (2, E) adjacency tensor.
func (g *Graph[B]) Adjacency() *tensor.Tensor[int64, B] { return g.adjacency }

// NumNodes returns the number of nodes.
func (g *Graph[B]) NumNodes() int { return g.nodeFeatures.Shape()[0] }

// NumEdges returns the number of edges.
func (g *Graph[B]) NumEdges() int { return g.adjacency.Shape()[1] }

// Device returns the device of the node features.
func (g *Graph[B]) Device() tensor.Device { return g.nodeFeatures.Device() }

// To moves the graph to the given device. If it is already there, the
// receiver is returned.
func (g *Graph[B]) To(device tensor.Device) *Graph[B] {
	if g.Device() == device {
		return g
	}
	out := &Graph[B]{
		nodeFeatures: g.nodeFeatures.To(device),
		adjacency:    g.adjacency.To(device),
	}
	if g.edgeFeatures != nil {
		out.edgeFeatures = g.edgeFeatures.To(device)
	}
	return out
}

func (g *Graph[B]) String() string {
	return fmt.Sprintf(
		"Graph(num_nodes=%d, num_edges=%d, device=%s)",
		g.NumNodes(), g.NumEdges(), g.Device(),
	)
}

// BatchedGraphs stores a batch of graphs as one large disjoint graph. Node
// and edge features are concatenated into shared arenas, adjacency indices
// are shifted by each graph's node offset, and per-graph node and edge
// counts are kept so the batch can be split back exactly.
type BatchedGraphs[B tensor.Backend] struct {
	nodeFeatures *tensor.Tensor[float32, B]
	edgeFeatures *tensor.Tensor[float32, B]
	adjacency    *tensor.Tensor[int64, B]
	nodeCounts   []int
	edgeCounts   []int
}

// BatchGraphs concatenates a list of graphs into a single batched graph.
// It returns an error if the list is empty, the feature dimensions differ,
// or only some graphs carry edge features.
func BatchGraphs[B tensor.Backend](graphs []*Graph[B]) (*BatchedGraphs[B], error) {
	if len(graphs) == 0 {
		return nil, fmt.Errorf("structures: at least one graph must be provided")
	}

	nodeDim := graphs[0].nodeFeatures.Shape()[1]
	hasEdgeFeatures := graphs[0].edgeFeatures != nil
	edgeDim := 0
	if hasEdgeFeatures {
		edgeDim = graphs[0].edgeFeatures.Shape()[1]
	}

	totalNodes, totalEdges := 0, 0
	nodeCounts := make([]int, len(graphs))
	edgeCounts := make([]int, len(graphs))
	for i, g := range graphs {
		if g.nodeFeatures.Shape()[1] != nodeDim {
			return nil, fmt.Errorf(
				"structures: graph %d has node dimension %d, expected %d",
				i, g.nodeFeatures.Shape()[1], nodeDim,
			)
		}
		if (g.edgeFeatures != nil) != hasEdgeFeatures {
			return nil, fmt.Errorf("structures: either all or no graphs must carry edge features")
		}
		if hasEdgeFeatures && g.edgeFeatures.Shape()[1] != edgeDim {
			return nil, fmt.Errorf(
				"structures: graph %d has edge dimension %d, expected %d",
				i, g.edgeFeatures.Shape()[1], edgeDim,
			)
		}
		nodeCounts[i] = g.NumNodes()
		edgeCounts[i] = g.NumEdges()
		totalNodes += nodeCounts[i]
		totalEdges += edgeCounts[i]
	}

	backend := graphs[0].nodeFeatures.Backend()

	nodes := tensor.Zeros[float32](tensor.Shape{totalNodes, nodeDim}, backend)
	nodeData := nodes.Data()
	offset := 0
	for _, g := range graphs {
		copy(nodeData[offset*nodeDim:], g.nodeFeatures.Data())
		offset += g.NumNodes()
	}

	var edges *tensor.Tensor[float32, B]
	if hasEdgeFeatures {
		edges = tensor.Zeros[float32](tensor.Shape{totalEdges, edgeDim}, backend)
		edgeData := edges.Data()
		offset = 0
		for _, g := range graphs {
			copy(edgeData[offset*edgeDim:], g.edgeFeatures.Data())
			offset += g.NumEdges()
		}
	}

	adjacency := tensor.Zeros[int64](tensor.Shape{2, totalEdges}, backend)
	adjData := adjacency.Data()
	nodeOffset, edgeOffset := 0, 0
	for _, g := range graphs {
		src := g.adjacency.Data()
		e := g.NumEdges()
		for j := 0; j < e; j++ {
			adjData[edgeOffset+j] = src[j] + int64(nodeOffset)
			adjData[totalEdges+edgeOffset+j] = src[e+j] + int64(nodeOffset)
		}
		nodeOffset += g.NumNodes()
		edgeOffset += e
	}

	return &BatchedGraphs[B]{
		nodeFeatures: nodes,
		edgeFeatures: edges,
		adjacency:    adjacency,
		nodeCounts:   nodeCounts,
		edgeCounts:   edgeCounts,
	}, nil
}

// NodeFeatures returns the concatenated (sum N_i, D) node feature arena.
func (b *BatchedGraphs[B]) NodeFeatures() *tensor.Tensor[float32, B] { return b.nodeFeatures }

// EdgeFeatures returns the concatenated (sum E_i, De) edge feature arena,
// or nil if the graphs carry no edge features.
func (b *BatchedGraphs[B]) EdgeFeatures() *tensor.Tensor[float32, B] { return b.edgeFeatures }

// Adjacency returns the (2, sum E_i) adjacency tensor with offset-shifted
// node indices.
func (b *BatchedGraphs[B]) Adjacency() *tensor.Tensor[int64, B] { return b.adjacency }

// NodeCounts returns the number of nodes of each graph.
func (b *BatchedGraphs[B]) NodeCounts() []int { return b.nodeCounts }

// EdgeCounts returns the number of edges of each graph.
func (b *BatchedGraphs[B]) EdgeCounts() []int { return b.edgeCounts }

// NumGraphs returns the number of graphs in the batch.
func (b *BatchedGraphs[B]) NumGraphs() int { return len(b.nodeCounts) }

// NumNodes returns the total number of nodes across the batch.
func (b *BatchedGraphs[B]) NumNodes() int { return b.nodeFeatures.Shape()[0] }

// NumEdges returns the total number of edges across the batch.
func (b *BatchedGraphs[B]) NumEdges() int { return b.adjacency.Shape()[1] }

// Device returns the device of the node features.
func (b *BatchedGraphs[B]) Device() tensor.Device { return b.nodeFeatures.Device() }

// Unbatch splits the batch back into the original graphs, undoing the
// adjacency offsets.
func (b *BatchedGraphs[B]) Unbatch() []*Graph[B] {
	nodeDim := b.nodeFeatures.Shape()[1]
	edgeDim := 0
	if b.edgeFeatures != nil {
		edgeDim = b.edgeFeatures.Shape()[1]
	}
	totalEdges := b.NumEdges()
	backend := b.nodeFeatures.Backend()

	nodeData := b.nodeFeatures.Data()
	adjData := b.adjacency.Data()

	graphs := make([]*Graph[B], b.NumGraphs())
	nodeOffset, edgeOffset := 0, 0
	for i := range graphs {
		n, e := b.nodeCounts[i], b.edgeCounts[i]

		nodes := tensor.Zeros[float32](tensor.Shape{n, nodeDim}, backend)
		copy(nodes.Data(), nodeData[nodeOffset*nodeDim:(nodeOffset+n)*nodeDim])

		adjacency := tensor.Zeros[int64](tensor.Shape{2, e}, backend)
		adj := adjacency.Data()
		for j := 0; j < e; j++ {
			adj[j] = adjData[edgeOffset+j] - int64(nodeOffset)
			adj[e+j] = adjData[totalEdges+edgeOffset+j] - int64(nodeOffset)
		}

		var edges *tensor.Tensor[float32, B]
		if b.edgeFeatures != nil {
			edges = tensor.Zeros[float32](tensor.Shape{e, edgeDim}, backend)
			copy(edges.Data(), b.edgeFeatures.Data()[edgeOffset*edgeDim:(edgeOffset+e)*edgeDim])
		}

		graphs[i] = &Graph[B]{nodeFeatures: nodes, edgeFeatures: edges, adjacency: adjacency}
		nodeOffset += n
		edgeOffset += e
	}
	return graphs
}

// Replace swaps the node feature arena, keeping the adjacency and the
// per-graph counts. The number of rows must stay the same; the feature
// dimension may change.
func (b *BatchedGraphs[B]) Replace(nodeFeatures *tensor.Tensor[float32, B]) *BatchedGraphs[B] {
	shape := nodeFeatures.Shape()
	if len(shape) != 2 || shape[0] != b.NumNodes() {
		panic(fmt.Sprintf(
			"structures: replacement node features shape %v does not match %d nodes",
			shape, b.NumNodes(),
		))
	}
	return &BatchedGraphs[B]{
		nodeFeatures: nodeFeatures,
		edgeFeatures: b.edgeFeatures,
		adjacency:    b.adjacency,
		nodeCounts:   b.nodeCounts,
		edgeCounts:   b.edgeCounts,
	}
}

// ReplaceEdgeFeatures swaps the edge feature arena, keeping everything
// else. The number of rows must match the total number of edges.
func (b *BatchedGraphs[B]) ReplaceEdgeFeatures(edgeFeatures *tensor.Tensor[float32, B]) *BatchedGraphs[B] {
	shape := edgeFeatures.Shape()
	if len(shape) != 2 || shape[0] != b.NumEdges() {
		panic(fmt.Sprintf(
			"structures: replacement edge features shape %v does not match %d edges",
			shape, b.NumEdges(),
		))
	}
	return &BatchedGraphs[B]{
		nodeFeatures: b.nodeFeatures,
		edgeFeatures: edgeFeatures,
		adjacency:    b.adjacency,
		nodeCounts:   b.nodeCounts,
		edgeCounts:   b.edgeCounts,
	}
}

// NodeFeaturesStacked lays the node arena out per graph: the result has
// shape (G, Nmax, D) with the nodes of graph i in rows [0, nodeCounts[i])
// of slice i, plus a (G, Nmax) padding mask that is true on padded rows.
func (b *BatchedGraphs[B]) NodeFeaturesStacked() (*tensor.Tensor[float32, B], *tensor.Tensor[bool, B]) {
	numGraphs := b.NumGraphs()
	dim := b.nodeFeatures.Shape()[1]
	maxNodes := 0
	for _, n := range b.nodeCounts {
		maxNodes = max(maxNodes, n)
	}

	backend := b.nodeFeatures.Backend()
	stacked := tensor.Zeros[float32](tensor.Shape{numGraphs, maxNodes, dim}, backend)
	mask := tensor.Full(tensor.Shape{numGraphs, maxNodes}, true, backend)

	src := b.nodeFeatures.Data()
	dst := stacked.Data()
	maskData := mask.Data()
	offset := 0
	for i, n := range b.nodeCounts {
		copy(dst[i*maxNodes*dim:], src[offset*dim:(offset+n)*dim])
		for j := 0; j < n; j++ {
			maskData[i*maxNodes+j] = false
		}
		offset += n
	}
	return stacked, mask
}

// ReplaceFromStacked is the inverse of NodeFeaturesStacked: it gathers the
// valid rows of a (G, Nmax, D) tensor back into the node arena layout and
// replaces the node features with them. Padded rows are ignored.
func (b *BatchedGraphs[B]) ReplaceFromStacked(stacked *tensor.Tensor[float32, B]) *BatchedGraphs[B] {
	shape := stacked.Shape()
	if len(shape) != 3 || shape[0] != b.NumGraphs() {
		panic(fmt.Sprintf(
			"structures: stacked features shape %v does not match %d graphs",
			shape, b.NumGraphs(),
		))
	}
	maxNodes, dim := shape[1], shape[2]
	for i, n := range b.nodeCounts {
		if n > maxNodes {
			panic(fmt.Sprintf(
				"structures: graph %d has %d nodes but stacked features only hold %d rows",
				i, n, maxNodes,
			))
		}
	}

	nodes := tensor.Zeros[float32](tensor.Shape{b.NumNodes(), dim}, b.nodeFeatures.Backend())
	src := stacked.Data()
	dst := nodes.Data()
	offset := 0
	for i, n := range b.nodeCounts {
		copy(dst[offset*dim:], src[i*maxNodes*dim:(i*maxNodes+n)*dim])
		offset += n
	}
	return b.Replace(nodes)
}

// To moves the batch to the given device. If it is already there, the
// receiver is returned.
func (b *BatchedGraphs[B]) To(device tensor.Device) *BatchedGraphs[B] {
	if b.Device() == device {
		return b
	}
	out := &BatchedGraphs[B]{
		nodeFeatures: b.nodeFeatures.To(device),
		adjacency:    b.adjacency.To(device),
		nodeCounts:   b.nodeCounts,
		edgeCounts:   b.edgeCounts,
	}
	if b.edgeFeatures != nil {
		out.edgeFeatures = b.edgeFeatures.To(device)
	}
	return out
}

func (b *BatchedGraphs[B]) String() string {
	return fmt.Sprintf(
		"BatchedGraphs(num_graphs=%d, num_nodes=%d, num_edges=%d, device=%s)",
		b.NumGraphs(), b.NumNodes(), b.NumEdges(), b.Device(),
	)
}

// Package gahoi implements a graph-based detection decoder: node features
// are refined by sparse graph attention over the batched edge list, then
// by cross-attention to image patch features with a continuous position
// bias, and finally by a position-wise feed-forward block.
package gahoi

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/ops/geometric"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// GraphAttentionConfig configures a GraphAttention layer.
type GraphAttentionConfig struct {
	// NodeDim is the dimension of the node features.
	NodeDim int
	// EdgeDim is the dimension of the edge features, or 0 when edges
	// carry no features. When non-zero, graphs passed to Forward must
	// provide edge features.
	EdgeDim int
	// HiddenDim is the per-head dimension of the attention-score MLP.
	// Zero selects NodeDim.
	HiddenDim int
	// NumHeads is the number of attention heads. NodeDim must be
	// divisible by it.
	NumHeads int
	// ShareWeights reuses the source-node projection for target nodes,
	// making the attention logits symmetric in the node pair.
	ShareWeights bool
	// Bias enables bias terms in the linear projections.
	Bias bool
	// NegativeSlope is the leaky-ReLU slope on the score MLP.
	NegativeSlope float32
	// AttnDropout and ProjDropout are the dropout probabilities on the
	// attention scores and the output projection.
	AttnDropout float32
	ProjDropout float32
}

func (c *GraphAttentionConfig) validate() error {
	if c.NodeDim <= 0 {
		return fmt.Errorf("gahoi: node dimension must be positive, got %d", c.NodeDim)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("gahoi: number of heads must be positive, got %d", c.NumHeads)
	}
	if c.NodeDim%c.NumHeads != 0 {
		return fmt.Errorf(
			"gahoi: node dimension %d must be divisible by %d heads",
			c.NodeDim, c.NumHeads,
		)
	}
	if c.EdgeDim < 0 {
		return fmt.Errorf("gahoi: edge dimension must be non-negative, got %d", c.EdgeDim)
	}
	return nil
}

// GraphAttention updates node features by attending over the edge list of
// a batched graph. Per edge (i -> j), a hidden vector is formed from
// projections of both endpoint features (plus the edge features, when
// configured), reduced to a per-head logit, and normalized with a segment
// softmax grouped by the source node index: each node's outgoing edges
// form one normalization group. Messages are aggregated back into the
// source node slots with a segment sum, so isolated nodes come out as
// zero vectors.
type GraphAttention[B tensor.Backend] struct {
	cfg       GraphAttentionConfig
	hiddenDim int
	headDim   int

	niProj      *nn.Linear[B]
	njProj      *nn.Linear[B]
	eProj       *nn.Linear[B] // nil when EdgeDim == 0
	leakyRelu   *nn.LeakyReLU[B]
	attnProj    *nn.Parameter[B] // (H, hiddenDim)
	attnDropout *nn.Dropout[B]
	messageProj *nn.Linear[B]
	outProj     *nn.Linear[B]
	projDropout *nn.Dropout[B]
}

// NewGraphAttention creates a graph attention layer from the config.
func NewGraphAttention[B tensor.Backend](cfg GraphAttentionConfig, backend B) (*GraphAttention[B], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	hiddenDim := cfg.HiddenDim
	if hiddenDim == 0 {
		hiddenDim = cfg.NodeDim
	}

	g := &GraphAttention[B]{
		cfg:       cfg,
		hiddenDim: hiddenDim,
		headDim:   cfg.NodeDim / cfg.NumHeads,

		niProj:      nn.NewLinear(cfg.NodeDim, hiddenDim*cfg.NumHeads, cfg.Bias, backend),
		leakyRelu:   nn.NewLeakyReLU[B](cfg.NegativeSlope),
		attnDropout: nn.NewDropout[B](cfg.AttnDropout),
		messageProj: nn.NewLinear(cfg.NodeDim+cfg.EdgeDim, cfg.NodeDim, cfg.Bias, backend),
		outProj:     nn.NewLinear(cfg.NodeDim, cfg.NodeDim, cfg.Bias, backend),
		projDropout: nn.NewDropout[B](cfg.ProjDropout),
	}

	if cfg.ShareWeights {
		g.njProj = g.niProj
	} else {
		g.njProj = nn.NewLinear(cfg.NodeDim, hiddenDim*cfg.NumHeads, cfg.Bias, backend)
	}
	if cfg.EdgeDim > 0 {
		g.eProj = nn.NewLinear(cfg.EdgeDim, hiddenDim*cfg.NumHeads, cfg.Bias, backend)
	}

	g.attnProj = nn.NewParameter("attn_proj",
		tensor.Randn[float32](tensor.Shape{cfg.NumHeads, hiddenDim}, backend))

	return g, nil
}

// Forward returns the graphs with updated node features. It panics if the
// layer is configured with an edge projection and the graphs carry no
// edge features.
func (g *GraphAttention[B]) Forward(graphs *structures.BatchedGraphs[B]) *structures.BatchedGraphs[B] {
	if g.eProj != nil && graphs.EdgeFeatures() == nil {
		panic("gahoi: the layer projects edge features but the graphs carry none")
	}

	numNodes := graphs.NumNodes()
	numEdges := graphs.NumEdges()
	backend := graphs.NodeFeatures().Backend()

	adj := graphs.Adjacency().Data()
	srcIndex := tensor.Zeros[int64](tensor.Shape{numEdges}, backend)
	copy(srcIndex.Data(), adj[:numEdges])

	ni := gatherRows(graphs.NodeFeatures(), adj[:numEdges])
	nj := gatherRows(graphs.NodeFeatures(), adj[numEdges:])

	hidden := g.niProj.Forward(ni).Add(g.njProj.Forward(nj))
	if g.eProj != nil {
		hidden = hidden.Add(g.eProj.Forward(graphs.EdgeFeatures()))
	}
	hidden = g.leakyRelu.Forward(hidden)

	// (E, H, hidden) * (H, hidden) summed over the hidden dim -> (E, H).
	hidden = hidden.Reshape(numEdges, g.cfg.NumHeads, g.hiddenDim)
	logits := hidden.Mul(g.attnProj.Tensor()).SumDim(-1, false)

	scores := geometric.ScatterSoftmax(logits, srcIndex, numNodes)
	scores = g.attnDropout.Forward(scores)

	messages := nj
	if graphs.EdgeFeatures() != nil {
		messages = tensor.Cat([]*tensor.Tensor[float32, B]{nj, graphs.EdgeFeatures()}, -1)
	}
	messages = g.messageProj.Forward(messages)
	messages = messages.Reshape(numEdges, g.cfg.NumHeads, g.headDim)
	messages = messages.Mul(scores.Unsqueeze(-1))

	aggregated := geometric.ScatterSum(messages, srcIndex, numNodes)
	aggregated = aggregated.Reshape(numNodes, g.cfg.NodeDim)

	out := g.projDropout.Forward(g.outProj.Forward(aggregated))
	return graphs.Replace(out)
}

// Train puts the layer in training mode, enabling dropout.
func (g *GraphAttention[B]) Train() {
	g.attnDropout.Train()
	g.projDropout.Train()
}

// Eval puts the layer in evaluation mode.
func (g *GraphAttention[B]) Eval() {
	g.attnDropout.Eval()
	g.projDropout.Eval()
}

// gatherRows selects rows of a (N, D) tensor by index, producing (len(idx), D).
func gatherRows[B tensor.Backend](
	src *tensor.Tensor[float32, B],
	idx []int64,
) *tensor.Tensor[float32, B] {
	dim := src.Shape()[1]
	out := tensor.Zeros[float32](tensor.Shape{len(idx), dim}, src.Backend())
	srcData := src.Data()
	dst := out.Data()
	for i, v := range idx {
		copy(dst[i*dim:(i+1)*dim], srcData[int(v)*dim:(int(v)+1)*dim])
	}
	return out
}

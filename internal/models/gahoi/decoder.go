package gahoi

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// DecoderConfig configures a Decoder and its layers.
type DecoderConfig struct {
	// NodeDim is the dimension of the node features.
	NodeDim int
	// EdgeDim is the dimension of the edge features, or 0 when edges
	// carry no features.
	EdgeDim int
	// CPBHiddenDim is the hidden dimension of the continuous position
	// bias MLP. Zero selects 256.
	CPBHiddenDim int
	// NumHeads is the number of attention heads of both the graph and
	// the cross attention.
	NumHeads int
	// NumLayers is the number of decoder layers. Zero selects 6.
	NumLayers int
	// AttnDropout and ProjDropout are the dropout probabilities on the
	// attention scores and the projections.
	AttnDropout float32
	ProjDropout float32
}

func (c *DecoderConfig) withDefaults() DecoderConfig {
	out := *c
	if out.CPBHiddenDim == 0 {
		out.CPBHiddenDim = 256
	}
	if out.NumLayers == 0 {
		out.NumLayers = 6
	}
	return out
}

// DecoderLayer refines node features in three pre-norm residual steps:
// graph attention over the edge list, cross-attention to the image
// patches, and a position-wise feed-forward block.
type DecoderLayer[B tensor.Backend] struct {
	norm1     *nn.LayerNorm[B]
	gat       *GraphAttention[B]
	norm2     *nn.LayerNorm[B]
	crossAttn *CrossAttention[B]
	norm3     *nn.LayerNorm[B]
	ffn       *nn.FFN[B]
}

// NewDecoderLayer creates a decoder layer from the config.
func NewDecoderLayer[B tensor.Backend](cfg DecoderConfig, backend B) (*DecoderLayer[B], error) {
	cfg = cfg.withDefaults()

	gat, err := NewGraphAttention(GraphAttentionConfig{
		NodeDim:       cfg.NodeDim,
		EdgeDim:       cfg.EdgeDim,
		HiddenDim:     cfg.NodeDim / cfg.NumHeads,
		NumHeads:      cfg.NumHeads,
		Bias:          true,
		NegativeSlope: 0.2,
		AttnDropout:   cfg.AttnDropout,
		ProjDropout:   cfg.ProjDropout,
	}, backend)
	if err != nil {
		return nil, err
	}

	crossAttn, err := NewCrossAttention(CrossAttentionConfig{
		EmbedDim:     cfg.NodeDim,
		CPBHiddenDim: cfg.CPBHiddenDim,
		NumHeads:     cfg.NumHeads,
		Bias:         true,
		AttnDropout:  cfg.AttnDropout,
		ProjDropout:  cfg.ProjDropout,
	}, nil, backend)
	if err != nil {
		return nil, err
	}

	return &DecoderLayer[B]{
		norm1:     nn.NewLayerNorm(cfg.NodeDim, 1e-5, backend),
		gat:       gat,
		norm2:     nn.NewLayerNorm(cfg.NodeDim, 1e-5, backend),
		crossAttn: crossAttn,
		norm3:     nn.NewLayerNorm(cfg.NodeDim, 1e-5, backend),
		ffn:       nn.NewFFN(cfg.NodeDim, 4*cfg.NodeDim, cfg.ProjDropout, backend),
	}, nil
}

// Forward returns the graphs with node features refined by one layer.
func (l *DecoderLayer[B]) Forward(
	graphs *structures.BatchedGraphs[B],
	images *structures.BatchedSequences[float32, B],
	relDistances *tensor.Tensor[float32, B],
) *structures.BatchedGraphs[B] {
	nodes := graphs.NodeFeatures()

	normed := l.norm1.Forward(nodes)
	attended := l.gat.Forward(graphs.Replace(normed))
	nodes = nodes.Add(attended.NodeFeatures())

	normed = l.norm2.Forward(nodes)
	attended = l.crossAttn.Forward(graphs.Replace(normed), images, relDistances)
	nodes = nodes.Add(attended.NodeFeatures())

	normed = l.norm3.Forward(nodes)
	nodes = normed.Add(l.ffn.Forward(normed))

	return graphs.Replace(nodes)
}

// Train puts the layer in training mode.
func (l *DecoderLayer[B]) Train() {
	l.gat.Train()
	l.crossAttn.Train()
	l.ffn.Train()
}

// Eval puts the layer in evaluation mode.
func (l *DecoderLayer[B]) Eval() {
	l.gat.Eval()
	l.crossAttn.Eval()
	l.ffn.Eval()
}

// Decoder is a stack of decoder layers. The relative distances between
// node box centers and patch centers are computed once per forward pass
// and shared by every layer.
type Decoder[B tensor.Backend] struct {
	layers []*DecoderLayer[B]
}

// NewDecoder creates a decoder from the config.
func NewDecoder[B tensor.Backend](cfg DecoderConfig, backend B) (*Decoder[B], error) {
	cfg = cfg.withDefaults()

	layers := make([]*DecoderLayer[B], cfg.NumLayers)
	for i := range layers {
		layer, err := NewDecoderLayer(cfg, backend)
		if err != nil {
			return nil, err
		}
		layers[i] = layer
	}
	return &Decoder[B]{layers: layers}, nil
}

// NumLayers returns the number of layers in the stack.
func (d *Decoder[B]) NumLayers() int { return len(d.layers) }

// Forward runs the graphs through every layer and returns the state after
// each one, so training losses can supervise every depth. boxes holds one
// box set per graph, one box per node, in the coordinate frame of the
// padded image grid.
func (d *Decoder[B]) Forward(
	graphs *structures.BatchedGraphs[B],
	boxes []*structures.BoundingBoxes[B],
	images *structures.BatchedImages[float32, B],
) []*structures.BatchedGraphs[B] {
	relDistances := computeRelativeDistances(graphs, boxes, images)
	patches := images.ToSequences()

	outputs := make([]*structures.BatchedGraphs[B], 0, len(d.layers))
	for _, layer := range d.layers {
		graphs = layer.Forward(graphs, patches, relDistances)
		outputs = append(outputs, graphs)
	}
	return outputs
}

// Train puts the decoder in training mode.
func (d *Decoder[B]) Train() {
	for _, l := range d.layers {
		l.Train()
	}
}

// Eval puts the decoder in evaluation mode.
func (d *Decoder[B]) Eval() {
	for _, l := range d.layers {
		l.Eval()
	}
}

// computeRelativeDistances returns the (G, Nmax, H*W, 2) sign-log
// compressed displacements between each node's box center and each patch
// center. Patch centers are derived from the valid-region mask: the x
// coordinate of a pixel is the number of valid pixels to its left in the
// same row (cumulative count minus one), and likewise for y down its
// column, so centers stay aligned with per-image valid regions rather
// than the padded canvas.
func computeRelativeDistances[B tensor.Backend](
	graphs *structures.BatchedGraphs[B],
	boxes []*structures.BoundingBoxes[B],
	images *structures.BatchedImages[float32, B],
) *tensor.Tensor[float32, B] {
	if len(boxes) != graphs.NumGraphs() {
		panic(fmt.Sprintf(
			"gahoi: got %d box sets for %d graphs", len(boxes), graphs.NumGraphs(),
		))
	}
	for i, n := range graphs.NodeCounts() {
		if boxes[i].Len() != n {
			panic(fmt.Sprintf(
				"gahoi: box set %d has %d boxes for %d nodes", i, boxes[i].Len(), n,
			))
		}
	}

	maskShape := images.Mask().Shape()
	batch, height, width := maskShape[0], maskShape[1], maskShape[2]
	numPatches := height * width

	maxNodes := 0
	for _, n := range graphs.NodeCounts() {
		maxNodes = max(maxNodes, n)
	}

	mask := images.Mask().Data()
	out := tensor.Zeros[float32](
		tensor.Shape{batch, maxNodes, numPatches, 2},
		graphs.NodeFeatures().Backend(),
	)
	dst := out.Data()

	// Patch center coordinates per batch item.
	centers := make([]float32, numPatches*2)
	for b := 0; b < batch; b++ {
		for y := 0; y < height; y++ {
			var count float32
			for x := 0; x < width; x++ {
				if !mask[(b*height+y)*width+x] {
					count++
				}
				centers[(y*width+x)*2] = count - 1
			}
		}
		for x := 0; x < width; x++ {
			var count float32
			for y := 0; y < height; y++ {
				if !mask[(b*height+y)*width+x] {
					count++
				}
				centers[(y*width+x)*2+1] = count - 1
			}
		}

		boxCenters := boxes[b].Denormalize().ToCXCYWH().Coordinates().Data()
		for q := 0; q < boxes[b].Len(); q++ {
			cx, cy := boxCenters[q*4], boxCenters[q*4+1]
			base := ((b*maxNodes + q) * numPatches) * 2
			for p := 0; p < numPatches; p++ {
				dst[base+p*2] = signLog(centers[p*2] - cx)
				dst[base+p*2+1] = signLog(centers[p*2+1] - cy)
			}
		}
	}
	return out
}

// signLog compresses a displacement as sign(d) * log(1 + |d|).
func signLog(d float32) float32 {
	if d >= 0 {
		return float32(math.Log1p(float64(d)))
	}
	return -float32(math.Log1p(float64(-d)))
}

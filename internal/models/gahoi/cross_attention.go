package gahoi

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// CrossAttentionConfig configures a CrossAttention layer.
type CrossAttentionConfig struct {
	// EmbedDim is the dimension of the node and patch features, and of
	// the output.
	EmbedDim int
	// CPBHiddenDim is the hidden dimension of the MLP computing the
	// continuous position bias.
	CPBHiddenDim int
	// NumHeads is the number of attention heads. EmbedDim must be
	// divisible by it.
	NumHeads int
	// Bias enables bias terms in the linear projections.
	Bias bool
	// AttnDropout and ProjDropout are the dropout probabilities on the
	// attention scores and the output projection.
	AttnDropout float32
	ProjDropout float32
}

func (c *CrossAttentionConfig) validate() error {
	if c.EmbedDim <= 0 {
		return fmt.Errorf("gahoi: embedding dimension must be positive, got %d", c.EmbedDim)
	}
	if c.CPBHiddenDim <= 0 {
		return fmt.Errorf("gahoi: cpb hidden dimension must be positive, got %d", c.CPBHiddenDim)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("gahoi: number of heads must be positive, got %d", c.NumHeads)
	}
	if c.EmbedDim%c.NumHeads != 0 {
		return fmt.Errorf(
			"gahoi: embedding dimension %d must be divisible by %d heads",
			c.EmbedDim, c.NumHeads,
		)
	}
	return nil
}

// CrossAttention lets graph nodes attend to image patch features. The
// attention logits are biased by a continuous position bias: a small MLP
// maps each (node, patch) relative displacement to a per-head scalar added
// to the dot-product score. Padded patches receive a -inf logit regardless
// of their bias, so they get exactly zero weight.
type CrossAttention[B tensor.Backend] struct {
	cfg     CrossAttentionConfig
	headDim int

	qProj   *nn.Linear[B]
	kvProj  *nn.Linear[B]
	cpb1    *nn.Linear[B]
	cpbAct  *nn.ReLU[B]
	cpb2    *nn.Linear[B]
	outProj *nn.Linear[B]

	mechanism   nn.AttentionMechanism[B]
	sdpa        *nn.ScaledDotProductAttention[B]
	projDropout *nn.Dropout[B]
}

// NewCrossAttention creates a cross-attention layer from the config. The
// scoring strategy defaults to scaled dot-product attention; pass a
// non-nil mechanism to substitute another implementation.
func NewCrossAttention[B tensor.Backend](
	cfg CrossAttentionConfig,
	mechanism nn.AttentionMechanism[B],
	backend B,
) (*CrossAttention[B], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &CrossAttention[B]{
		cfg:     cfg,
		headDim: cfg.EmbedDim / cfg.NumHeads,

		qProj:   nn.NewLinear(cfg.EmbedDim, cfg.EmbedDim, cfg.Bias, backend),
		kvProj:  nn.NewLinear(cfg.EmbedDim, 2*cfg.EmbedDim, cfg.Bias, backend),
		cpb1:    nn.NewLinear(2, cfg.CPBHiddenDim, cfg.Bias, backend),
		cpbAct:  nn.NewReLU[B](),
		cpb2:    nn.NewLinear(cfg.CPBHiddenDim, cfg.NumHeads, cfg.Bias, backend),
		outProj: nn.NewLinear(cfg.EmbedDim, cfg.EmbedDim, cfg.Bias, backend),

		projDropout: nn.NewDropout[B](cfg.ProjDropout),
	}

	if mechanism == nil {
		c.sdpa = nn.NewScaledDotProductAttention[B](cfg.AttnDropout, 0)
		c.mechanism = c.sdpa
	} else {
		c.mechanism = mechanism
	}

	return c, nil
}

// Forward updates the node features of the graphs by attending to the
// image patch sequences. relDistances holds the (G, Nmax, P, 2) relative
// displacements between node box centers and patch centers, laid out like
// NodeFeaturesStacked. Nodes of graphs with fewer than Nmax rows occupy
// the leading rows; the padded rows are ignored when scattering back.
func (c *CrossAttention[B]) Forward(
	graphs *structures.BatchedGraphs[B],
	images *structures.BatchedSequences[float32, B],
	relDistances *tensor.Tensor[float32, B],
) *structures.BatchedGraphs[B] {
	imgShape := images.Shape()
	numPatches := imgShape[1]
	if imgShape[2] != c.cfg.EmbedDim {
		panic(fmt.Sprintf(
			"gahoi: patch feature dimension %d does not match embedding dimension %d",
			imgShape[2], c.cfg.EmbedDim,
		))
	}

	nodes, _ := graphs.NodeFeaturesStacked() // (G, Nmax, D)
	batch, numQueries := nodes.Shape()[0], nodes.Shape()[1]

	distShape := relDistances.Shape()
	if len(distShape) != 4 || distShape[0] != batch || distShape[1] != numQueries ||
		distShape[2] != numPatches || distShape[3] != 2 {
		panic(fmt.Sprintf(
			"gahoi: relative distances shape %v does not match %d graphs, %d queries, %d patches",
			distShape, batch, numQueries, numPatches,
		))
	}

	q := c.qProj.Forward(nodes).
		Reshape(batch, numQueries, c.cfg.NumHeads, c.headDim).
		Transpose(0, 2, 1, 3) // (G, H, Q, Dh)

	k, v := c.splitKV(images.Data(), batch, numPatches)

	// Continuous position bias: (G, Q, P, 2) -> (G, Q, P, H) -> (G, H, Q, P).
	cpb := c.cpb2.Forward(c.cpbAct.Forward(c.cpb1.Forward(relDistances)))
	mask := cpb.Transpose(0, 3, 1, 2)
	maskPaddedKeys(mask, images.Mask())

	out := c.mechanism.Attend(q, k, v, mask) // (G, H, Q, Dh)
	merged := out.Transpose(0, 2, 1, 3).Reshape(batch, numQueries, c.cfg.EmbedDim)
	merged = c.projDropout.Forward(c.outProj.Forward(merged))

	return graphs.ReplaceFromStacked(merged)
}

// splitKV projects the patch features and splits the packed result into
// (G, H, P, Dh) key and value tensors.
func (c *CrossAttention[B]) splitKV(
	patches *tensor.Tensor[float32, B],
	batch, numPatches int,
) (k, v *tensor.Tensor[float32, B]) {
	kv := c.kvProj.Forward(patches) // (G, P, 2*D)
	src := kv.Data()
	backend := kv.Backend()

	dim := c.cfg.EmbedDim
	k = tensor.Zeros[float32](tensor.Shape{batch, c.cfg.NumHeads, numPatches, c.headDim}, backend)
	v = tensor.Zeros[float32](tensor.Shape{batch, c.cfg.NumHeads, numPatches, c.headDim}, backend)
	kData, vData := k.Data(), v.Data()
	for b := 0; b < batch; b++ {
		for p := 0; p < numPatches; p++ {
			row := src[(b*numPatches+p)*2*dim : (b*numPatches+p+1)*2*dim]
			for h := 0; h < c.cfg.NumHeads; h++ {
				off := ((b*c.cfg.NumHeads+h)*numPatches + p) * c.headDim
				copy(kData[off:off+c.headDim], row[h*c.headDim:(h+1)*c.headDim])
				copy(vData[off:off+c.headDim], row[dim+h*c.headDim:dim+(h+1)*c.headDim])
			}
		}
	}
	return k, v
}

// Train puts the layer in training mode, enabling dropout.
func (c *CrossAttention[B]) Train() {
	c.projDropout.Train()
	if c.sdpa != nil {
		c.sdpa.Train()
	}
}

// Eval puts the layer in evaluation mode.
func (c *CrossAttention[B]) Eval() {
	c.projDropout.Eval()
	if c.sdpa != nil {
		c.sdpa.Eval()
	}
}

// maskPaddedKeys overwrites the bias of padded patches with -inf, in
// place. bias has shape (G, H, Q, P) and padding has shape (G, P).
func maskPaddedKeys[B tensor.Backend](
	bias *tensor.Tensor[float32, B],
	padding *tensor.Tensor[bool, B],
) {
	shape := bias.Shape()
	batch, heads, queries, keys := shape[0], shape[1], shape[2], shape[3]

	ninf := float32(math.Inf(-1))
	data := bias.Data()
	pad := padding.Data()
	for b := 0; b < batch; b++ {
		for p := 0; p < keys; p++ {
			if !pad[b*keys+p] {
				continue
			}
			for h := 0; h < heads; h++ {
				for q := 0; q < queries; q++ {
					data[((b*heads+h)*queries+q)*keys+p] = ninf
				}
			}
		}
	}
}

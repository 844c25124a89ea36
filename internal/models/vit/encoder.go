package vit

import (
	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// EncoderLayer is a pre-norm transformer block: self-attention and
// feed-forward sublayers, each with a residual connection optionally
// scaled by LayerScale.
type EncoderLayer[B tensor.Backend] struct {
	norm1 *nn.LayerNorm[B]
	attn  *nn.MultiHeadSelfAttention[B]
	ls1   *nn.LayerScale[B] // nil when LayerScale is disabled
	norm2 *nn.LayerNorm[B]
	ffn   *nn.FFN[B]
	ls2   *nn.LayerScale[B]
}

// NewEncoderLayer creates an encoder layer from the config.
func NewEncoderLayer[B tensor.Backend](cfg EncoderConfig, backend B) *EncoderLayer[B] {
	l := &EncoderLayer[B]{
		norm1: nn.NewLayerNorm(cfg.EmbedDim, 1e-6, backend),
		attn: nn.NewMultiHeadSelfAttention(
			cfg.EmbedDim, cfg.NumHeads, cfg.QKVBias,
			nn.NewScaledDotProductAttention[B](cfg.AttnDropout, 0),
			backend,
		),
		norm2: nn.NewLayerNorm(cfg.EmbedDim, 1e-6, backend),
		ffn:   nn.NewFFN(cfg.EmbedDim, cfg.ffnHiddenDim(), cfg.FFNDropout, backend),
	}
	if cfg.LayerScaleInitValue != 0 {
		l.ls1 = nn.NewLayerScale(cfg.EmbedDim, cfg.LayerScaleInitValue, backend)
		l.ls2 = nn.NewLayerScale(cfg.EmbedDim, cfg.LayerScaleInitValue, backend)
	}
	return l
}

// Forward applies the block. padding marks padded sequence positions and
// may be nil.
func (l *EncoderLayer[B]) Forward(
	x *tensor.Tensor[float32, B],
	padding *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	branch := l.attn.Forward(l.norm1.Forward(x), padding)
	if l.ls1 != nil {
		branch = l.ls1.Forward(branch)
	}
	x = x.Add(branch)

	branch = l.ffn.Forward(l.norm2.Forward(x))
	if l.ls2 != nil {
		branch = l.ls2.Forward(branch)
	}
	return x.Add(branch)
}

// Encoder is a vision transformer over batched images: patch embedding,
// learned position embeddings, optional class and register tokens, and a
// stack of pre-norm encoder layers.
type Encoder[B tensor.Backend] struct {
	cfg        EncoderConfig
	patchEmbed *PatchEmbed[B]
	posEmbed   *nn.Parameter[B] // (1, numPatches, D)
	clsToken   *nn.Parameter[B] // nil without a class token
	regTokens  *nn.Parameter[B] // nil without register tokens
	posDropout *nn.Dropout[B]
	layers     []*EncoderLayer[B]
	finalNorm  *nn.LayerNorm[B] // nil unless PostNormalize
	backend    B
}

// NewEncoder creates an encoder from the config.
func NewEncoder[B tensor.Backend](cfg EncoderConfig, backend B) (*Encoder[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Encoder[B]{
		cfg:        cfg,
		patchEmbed: NewPatchEmbed[B](cfg.InChannels, cfg.EmbedDim, cfg.PatchSize, backend),
		posEmbed: nn.NewParameter("pos_embed",
			nn.TruncatedNormal[B](tensor.Shape{1, cfg.numPatches(), cfg.EmbedDim}, 0.02, backend)),
		posDropout: nn.NewDropout[B](cfg.PosEmbedDropout),
		layers:     make([]*EncoderLayer[B], cfg.NumLayers),
		backend:    backend,
	}
	if cfg.UseClassToken {
		e.clsToken = nn.NewParameter("cls_token",
			nn.TruncatedNormal[B](tensor.Shape{1, 1, cfg.EmbedDim}, 0.02, backend))
	}
	if cfg.NumRegisterTokens > 0 {
		e.regTokens = nn.NewParameter("reg_tokens",
			nn.TruncatedNormal[B](tensor.Shape{1, cfg.NumRegisterTokens, cfg.EmbedDim}, 0.02, backend))
	}
	for i := range e.layers {
		e.layers[i] = NewEncoderLayer[B](cfg, backend)
	}
	if cfg.PostNormalize {
		e.finalNorm = nn.NewLayerNorm(cfg.EmbedDim, 1e-6, backend)
	}
	return e, nil
}

// NumPrefixTokens returns how many non-patch tokens lead each output
// sequence (class token plus register tokens).
func (e *Encoder[B]) NumPrefixTokens() int { return e.cfg.numPrefixTokens() }

// Forward encodes the images into token sequences of length
// numPrefixTokens + Hp*Wp. Prefix tokens are always valid; patch token
// validity follows the image padding.
func (e *Encoder[B]) Forward(
	images *structures.BatchedImages[float32, B],
) *structures.BatchedSequences[float32, B] {
	patches := e.patchEmbed.Forward(images)
	tokens := patches.Data().Add(e.posEmbed.Tensor())
	tokens = e.posDropout.Forward(tokens)

	batch := tokens.Shape()[0]
	prefix := e.prefixTokens(batch)
	if prefix != nil {
		tokens = tensor.Cat([]*tensor.Tensor[float32, B]{prefix, tokens}, 1)
	}

	padding := e.extendMask(patches.Mask())
	for _, layer := range e.layers {
		tokens = layer.Forward(tokens, padding)
	}
	if e.finalNorm != nil {
		tokens = e.finalNorm.Forward(tokens)
	}

	lengths := make([]int, batch)
	for i, l := range patches.Lengths() {
		lengths[i] = l + e.cfg.numPrefixTokens()
	}

	// Valid patch tokens sit scattered across the padded canvas order,
	// so gather each sequence into prefix + valid patches before
	// rebuilding the batch.
	out, err := structures.NewBatchedSequences(e.compact(tokens, patches.Mask()), lengths)
	if err != nil {
		panic(err)
	}
	return out
}

// prefixTokens tiles the class and register tokens over the batch,
// returning nil when the encoder has no prefix tokens.
func (e *Encoder[B]) prefixTokens(batch int) *tensor.Tensor[float32, B] {
	var parts []*tensor.Tensor[float32, B]
	if e.clsToken != nil {
		parts = append(parts, e.clsToken.Tensor())
	}
	if e.regTokens != nil {
		parts = append(parts, e.regTokens.Tensor())
	}
	if parts == nil {
		return nil
	}

	row := parts[0]
	if len(parts) > 1 {
		row = tensor.Cat(parts, 1) // (1, K, D)
	}

	tiled := make([]*tensor.Tensor[float32, B], batch)
	for i := range tiled {
		tiled[i] = row
	}
	return tensor.Cat(tiled, 0) // (B, K, D)
}

// extendMask prepends always-valid prefix positions to the patch padding
// mask, returning nil when nothing is padded and no prefix exists.
func (e *Encoder[B]) extendMask(patchMask *tensor.Tensor[bool, B]) *tensor.Tensor[bool, B] {
	numPrefix := e.cfg.numPrefixTokens()
	if numPrefix == 0 {
		return patchMask
	}

	shape := patchMask.Shape()
	batch, patchLen := shape[0], shape[1]

	mask := tensor.Zeros[bool](tensor.Shape{batch, numPrefix + patchLen}, e.backend)
	src := patchMask.Data()
	dst := mask.Data()
	for b := 0; b < batch; b++ {
		copy(dst[b*(numPrefix+patchLen)+numPrefix:], src[b*patchLen:(b+1)*patchLen])
	}
	return mask
}

// compact moves each sequence's valid patch tokens directly after its
// prefix tokens so that padded positions are trailing.
func (e *Encoder[B]) compact(
	tokens *tensor.Tensor[float32, B],
	patchMask *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	numPrefix := e.cfg.numPrefixTokens()
	maskShape := patchMask.Shape()
	batch, patchLen := maskShape[0], maskShape[1]
	seqLen := numPrefix + patchLen
	dim := tokens.Shape()[2]

	out := tensor.Zeros[float32](tokens.Shape(), e.backend)
	src := tokens.Data()
	dst := out.Data()
	padded := patchMask.Data()
	for b := 0; b < batch; b++ {
		copy(dst[b*seqLen*dim:], src[b*seqLen*dim:(b*seqLen+numPrefix)*dim])
		pos := numPrefix
		for p := 0; p < patchLen; p++ {
			if padded[b*patchLen+p] {
				continue
			}
			srcOff := (b*seqLen + numPrefix + p) * dim
			copy(dst[(b*seqLen+pos)*dim:(b*seqLen+pos+1)*dim], src[srcOff:srcOff+dim])
			pos++
		}
	}
	return out
}

// Train puts the encoder in training mode.
func (e *Encoder[B]) Train() {
	e.posDropout.Train()
	for _, l := range e.layers {
		l.attn.Train()
		l.ffn.Train()
	}
}

// Eval puts the encoder in evaluation mode.
func (e *Encoder[B]) Eval() {
	e.posDropout.Eval()
	for _, l := range e.layers {
		l.attn.Eval()
		l.ffn.Eval()
	}
}

package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/pkg/utils"
)

// DefaultDimensions is used when an embedder is built with a non-positive size.
const DefaultDimensions = 384

// HashEmbedder is a deterministic bag-of-words embedder using feature hashing:
// every word and adjacent word pair adds a signed unit to one bucket, and the
// result is scaled to unit length. Texts sharing words share components, which
// is enough for demos and tests; it carries no learned semantics.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing vectors of the given size.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the embedding for text. Text without any word is rejected.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := Words(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: text has no words to embed", models.ErrInvalidArgument)
	}

	acc := make([]float64, e.dimensions)
	add := func(token string, weight float64) {
		h := HashToken(token)
		idx := int(h % uint64(e.dimensions))
		if h&(1<<63) != 0 {
			weight = -weight
		}
		acc[idx] += weight
	}
	for i, w := range words {
		add(w, 1)
		if i > 0 {
			add(words[i-1]+" "+w, 0.5)
		}
	}

	emb := make([]float32, e.dimensions)
	for i, v := range acc {
		emb[i] = float32(v)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}

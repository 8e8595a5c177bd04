package index

import (
	"context"
	"fmt"
	"hash/fnv"
)

// HashEmbedder maps tokens into a fixed number of buckets with FNV hashing.
// It needs no corpus, so documents indexed later share the same space.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hashing embedder with dims buckets (default 256).
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Model() string   { return fmt.Sprintf("hash-%d", h.dims) }
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Embed returns the L2-normalized signed bucket counts of text's tokens.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)
	for _, tok := range tokenize(text) {
		f := fnv.New32a()
		f.Write([]byte(tok))
		sum := f.Sum32()
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		vec[(sum>>1)%uint32(h.dims)] += sign
	}
	normalize(vec)
	return vec, nil
}

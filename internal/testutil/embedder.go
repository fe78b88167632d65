package testutil

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/scrollab/askdocs/internal/index"
)

// DeterministicEmbedding maps text to a stable unit vector. Equal inputs
// always produce equal vectors, so similarity queries behave reproducibly
// without calling a real embedding model.
func DeterministicEmbedding(text string) []float32 {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, index.VectorDimension)
	var norm float64
	for i := 0; i < index.VectorDimension; i += 8 {
		// Expand the digest with a counter to fill all dimensions.
		var counter [8]byte
		binary.LittleEndian.PutUint64(counter[:], uint64(i))
		h := sha256.Sum256(append(sum[:], counter[:]...))
		for j := 0; j < 8 && i+j < index.VectorDimension; j++ {
			v := float32(int32(binary.LittleEndian.Uint32(h[j*4:j*4+4]))) / float32(1<<31)
			vec[i+j] = v
			norm += float64(v) * float64(v)
		}
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

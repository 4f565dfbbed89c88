package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding packs a row-major float32 embedding into a BLOB: a
// little-endian sequence of IEEE 754 float32 values with no length
// prefix. The element count is derived from the BLOB size on decode.
func EncodeEmbedding(emb []float32) []byte {
	if len(emb) == 0 {
		return nil
	}
	b := make([]byte, len(emb)*4)
	for i, v := range emb {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeEmbedding unpacks a BLOB produced by EncodeEmbedding
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("store: embedding blob length %d is not a multiple of 4", len(b))
	}
	emb := make([]float32, len(b)/4)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return emb, nil
}

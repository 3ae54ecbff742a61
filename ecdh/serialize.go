package ecdh

import (
	"fmt"
	"math/big"
)

// SerializeLE encodes v as W little-endian bytes. It fails if v is negative
// or does not fit in W bytes (v >= 2^(8W)).
func SerializeLE(v *big.Int, width int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("ecdh: cannot serialize negative value %s", v.String())
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	if v.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("ecdh: value %s does not fit in %d bytes", v.String(), width)
	}

	be := v.Bytes() // big-endian, no leading zero padding
	out := make([]byte, width)
	for i, b := range be {
		// be[0] is the most significant byte; place it at the highest index.
		out[len(be)-1-i] = b
	}
	return out, nil
}

// DeserializeLE is the exact inverse of SerializeLE: it interprets bytes as
// a little-endian unsigned integer.
func DeserializeLE(bytes []byte) *big.Int {
	be := make([]byte, len(bytes))
	for i, b := range bytes {
		be[len(bytes)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

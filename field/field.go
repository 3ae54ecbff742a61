// Package field wraps the BN254 scalar field used by every piece of hashed
// or committed material in the toolkit: commitments, nullifiers, Merkle
// nodes, and the Groth16 public-signal layout all live in this type.
package field

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Modulus is P, the BN254 scalar field order:
// 21888242871839275222246405745257275088548364400416034343698204186575808495617
var Modulus = fr.Modulus()

// Element is an integer in [0, P). Every stored value is strictly less than
// P by construction: the zero value is valid and represents 0.
type Element struct {
	inner fr.Element
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.inner.SetOne()
	return e
}

// FromUint64 builds an Element from a small non-negative integer.
func FromUint64(v uint64) Element {
	var e Element
	e.inner.SetUint64(v)
	return e
}

// FromBigInt reduces v modulo P and returns the resulting Element. v may be
// negative or larger than P; both are handled by the underlying reduction.
func FromBigInt(v *big.Int) Element {
	var e Element
	e.inner.SetBigInt(v)
	return e
}

// Random draws a field element uniformly from [0, P). This backs
// random_field() and, in turn, deposit-note secret/nullifier generation.
// The probability of a collision between any two independently drawn
// elements across N draws is bounded by N²/2P, negligible for realistic N.
func Random() (Element, error) {
	n, err := rand.Int(rand.Reader, Modulus)
	if err != nil {
		return Element{}, fmt.Errorf("field: failed to draw random element: %w", err)
	}
	return FromBigInt(n), nil
}

// IsValid reports whether v, interpreted as a big-endian big integer, is
// already strictly less than P (i.e. would round-trip through BytesToField
// without reduction). It does not mutate v.
func IsValid(v *big.Int) bool {
	if v.Sign() < 0 {
		return false
	}
	return v.Cmp(Modulus) < 0
}

// BytesToField interprets b as a big-endian integer and reduces it modulo P.
func BytesToField(b []byte) Element {
	var e Element
	e.inner.SetBytes(b)
	return e
}

// Bytes emits the 32 big-endian bytes of the canonical representative.
func (e Element) Bytes() [32]byte {
	return e.inner.Bytes()
}

// Hex renders the canonical representative as 0x-prefixed lowercase hex.
func (e Element) Hex() string {
	b := e.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// HexToField parses a 0x-prefixed (or bare) hex string produced by Hex or an
// external source, reducing modulo P if needed.
func HexToField(s string) (Element, error) {
	s = trimHexPrefix(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return Element{}, fmt.Errorf("field: invalid hex %q: %w", s, err)
	}
	return BytesToField(b), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// BigInt returns the canonical big.Int representative.
func (e Element) BigInt() *big.Int {
	var out big.Int
	e.inner.BigInt(&out)
	return &out
}

// String returns the decimal representation of the canonical representative,
// used in note strings and the Groth16 public-signal wire format.
func (e Element) String() string {
	return e.inner.String()
}

// FromDecimalString parses a base-10 integer string, failing on anything
// that is not a valid decimal big integer. It does not silently accept hex.
func FromDecimalString(s string) (Element, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Element{}, fmt.Errorf("field: %q is not a valid decimal big integer", s)
	}
	return FromBigInt(v), nil
}

// Equal reports whether a and b represent the same field element.
func Equal(a, b Element) bool {
	return a.inner.Equal(&b.inner)
}

// Add returns a + b mod P.
func Add(a, b Element) Element {
	var e Element
	e.inner.Add(&a.inner, &b.inner)
	return e
}

// Sub returns a - b mod P.
func Sub(a, b Element) Element {
	var e Element
	e.inner.Sub(&a.inner, &b.inner)
	return e
}

// Mul returns a * b mod P.
func Mul(a, b Element) Element {
	var e Element
	e.inner.Mul(&a.inner, &b.inner)
	return e
}

// Exp returns a^n mod P.
func Exp(a Element, n uint64) Element {
	var e Element
	e.inner.Exp(a.inner, new(big.Int).SetUint64(n))
	return e
}

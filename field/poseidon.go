package field

import (
	"errors"
	"math/big"
	"sync"
)

// ErrEmptyInput is returned by PoseidonHashMany when called with zero elements:
// hashing nothing is not a well-defined operation for a sponge construction.
var ErrEmptyInput = errors.New("field: poseidon_hash_many of empty input")

// Poseidon parameters: a width-3 sponge (rate 2, capacity 1), 8 full rounds
// and 57 partial rounds over the BN254 scalar field. This parameter set is a
// fixed constant of the process: every component that hashes field elements
// (the Merkle tree, the note/commitment scheme, the ZK adapter's public
// signal layout) goes through this package so that roots, commitments, and
// nullifier hashes produced by different components always combine.
//
// The round constants and MDS matrix below are derived deterministically
// (not via the Grain LFSR the original Poseidon paper specifies) the same
// way a from-scratch reference implementation would: reproducibly, from a
// fixed seed, so that the hash is stable across builds and platforms. They
// are initialized once, lazily, guarded by sync.Once, per the process-wide
// crypto state design note.
const (
	poseidonWidth         = 3
	poseidonRate          = poseidonWidth - 1
	poseidonFullRounds    = 8
	poseidonPartialRounds = 57
)

var (
	poseidonOnce  sync.Once
	poseidonRC    []Element // length width * (full+partial)
	poseidonMDS   [poseidonWidth][poseidonWidth]Element
)

// Init performs the one-time setup of the Poseidon parameter set and the
// Merkle zero-value ladder's hash dependency. It is idempotent and safe to
// call from multiple goroutines; every exported hashing function calls it
// automatically, so callers never need to invoke it directly unless they
// want to pay the (small) initialization cost up front.
func Init() {
	poseidonOnce.Do(initPoseidonParams)
}

func initPoseidonParams() {
	total := poseidonFullRounds + poseidonPartialRounds
	poseidonRC = make([]Element, poseidonWidth*total)

	seed := new(big.Int).SetBytes([]byte("privacy-toolkit/poseidon/bn254/t3"))
	five := big.NewInt(5)
	for i := range poseidonRC {
		v := new(big.Int).Add(seed, big.NewInt(int64(i)))
		v.Exp(v, five, Modulus)
		poseidonRC[i] = FromBigInt(v)
	}

	// Cauchy MDS matrix: M[i][j] = 1 / (x_i + y_j) for distinct x_i, y_j.
	for i := 0; i < poseidonWidth; i++ {
		for j := 0; j < poseidonWidth; j++ {
			sum := new(big.Int).Add(big.NewInt(int64(i)), big.NewInt(int64(poseidonWidth+j)))
			sum.Mod(sum, Modulus)
			inv := new(big.Int).ModInverse(sum, Modulus)
			if inv == nil {
				inv = big.NewInt(1)
			}
			poseidonMDS[i][j] = FromBigInt(inv)
		}
	}
}

// sbox computes x^5, the Poseidon S-box over the BN254 scalar field.
func sbox(x Element) Element {
	return Exp(x, 5)
}

func mdsMul(state [poseidonWidth]Element) [poseidonWidth]Element {
	var out [poseidonWidth]Element
	for i := 0; i < poseidonWidth; i++ {
		acc := Zero()
		for j := 0; j < poseidonWidth; j++ {
			acc = Add(acc, Mul(poseidonMDS[i][j], state[j]))
		}
		out[i] = acc
	}
	return out
}

func permute(state [poseidonWidth]Element) [poseidonWidth]Element {
	Init()
	rcIdx := 0
	halfFull := poseidonFullRounds / 2

	applyFull := func() {
		for i := 0; i < poseidonWidth; i++ {
			state[i] = Add(state[i], poseidonRC[rcIdx])
			rcIdx++
		}
		for i := 0; i < poseidonWidth; i++ {
			state[i] = sbox(state[i])
		}
		state = mdsMul(state)
	}
	applyPartial := func() {
		for i := 0; i < poseidonWidth; i++ {
			state[i] = Add(state[i], poseidonRC[rcIdx])
			rcIdx++
		}
		state[0] = sbox(state[0])
		state = mdsMul(state)
	}

	for r := 0; r < halfFull; r++ {
		applyFull()
	}
	for r := 0; r < poseidonPartialRounds; r++ {
		applyPartial()
	}
	for r := 0; r < halfFull; r++ {
		applyFull()
	}
	return state
}

// hashSponge absorbs inputs into a width-3, rate-2 sponge in fixed-size
// blocks and squeezes a single field element. Every exported hash function
// below is a thin wrapper over this so that PoseidonHashMany([x,y]) is
// byte-for-byte the same computation as PoseidonHash(x,y).
func hashSponge(inputs []Element) Element {
	Init()
	var state [poseidonWidth]Element

	for i := 0; i < len(inputs); i += poseidonRate {
		end := i + poseidonRate
		if end > len(inputs) {
			end = len(inputs)
		}
		for j, v := range inputs[i:end] {
			state[1+j] = Add(state[1+j], v)
		}
		state = permute(state)
	}
	return state[1]
}

// PoseidonHash is the arity-2 workhorse: commitment = Poseidon(secret,
// nullifier), Merkle internal nodes = Poseidon(left, right). Deterministic
// and order-sensitive: PoseidonHash(a,b) generally differs from
// PoseidonHash(b,a).
func PoseidonHash(a, b Element) Element {
	return hashSponge([]Element{a, b})
}

// PoseidonHashSingle is the arity-1 form used for nullifier_hash =
// Poseidon(nullifier).
func PoseidonHashSingle(a Element) Element {
	return hashSponge([]Element{a})
}

// PoseidonHashMany reduces an arbitrary non-empty slice of field elements to
// a single output via repeated sponge absorption. It fails on an empty
// slice: hashing nothing is not defined. PoseidonHashMany([x, y]) always
// equals PoseidonHash(x, y), so callers are oblivious to which entry point
// they used.
func PoseidonHashMany(xs []Element) (Element, error) {
	if len(xs) == 0 {
		return Element{}, ErrEmptyInput
	}
	return hashSponge(xs), nil
}

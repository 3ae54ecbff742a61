// Package note implements the deposit-note/commitment/nullifier scheme: the
// cash-like bearer instrument that a deposit produces and a withdrawal
// consumes exactly once.
package note

import (
	"time"

	"github.com/privacycash/toolkit/field"
)

// DepositNote is the bearer instrument created by a deposit and consumed by
// a withdrawal. Commitment and NullifierHash are always recomputable from
// Secret and Nullifier; VerifyNote checks that they still agree.
type DepositNote struct {
	Secret        field.Element
	Nullifier     field.Element
	Amount        float64
	Token         string
	Commitment    field.Element
	NullifierHash field.Element
	TimestampMs   int64
	LeafIndex     *int
}

// GenerateDepositNote draws fresh secret/nullifier field elements and
// derives commitment and nullifier_hash from them. The probability of a
// commitment or nullifier-hash collision across N independently generated
// notes is bounded by N²/2P, negligible for realistic N.
func GenerateDepositNote(amount float64, token string) (*DepositNote, error) {
	secret, err := field.Random()
	if err != nil {
		return nil, err
	}
	nullifier, err := field.Random()
	if err != nil {
		return nil, err
	}

	return &DepositNote{
		Secret:        secret,
		Nullifier:     nullifier,
		Amount:        amount,
		Token:         token,
		Commitment:    RegenerateCommitment(secret, nullifier),
		NullifierHash: field.PoseidonHashSingle(nullifier),
		TimestampMs:   time.Now().UnixMilli(),
	}, nil
}

// RegenerateCommitment deterministically recomputes Poseidon(secret,
// nullifier), used to prove a note was not tampered with.
func RegenerateCommitment(secret, nullifier field.Element) field.Element {
	return field.PoseidonHash(secret, nullifier)
}

// VerifyNote reports whether n's stored commitment and nullifier_hash still
// agree with its secret and nullifier.
func VerifyNote(n *DepositNote) bool {
	if !field.Equal(RegenerateCommitment(n.Secret, n.Nullifier), n.Commitment) {
		return false
	}
	return field.Equal(field.PoseidonHashSingle(n.Nullifier), n.NullifierHash)
}

// Package proof defines the wire envelope for Groth16 proofs exchanged with
// the ZK provider, matching the snarkjs/circom convention of three JSON
// arrays (pi_a, pi_b, pi_c) plus a protocol/curve tag, and the conversion
// from gnark's native bn254 proof representation into that envelope.
package proof

import (
	"encoding/json"
	"errors"
	"fmt"

	bn254groth16 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/groth16"
)

const (
	ProtocolGroth16 = "groth16"
	CurveBN128      = "bn128"
)

// ErrInvalidEnvelope is returned when a serialized proof fails structural
// validation: wrong protocol/curve tag or wrong array arity.
var ErrInvalidEnvelope = errors.New("proof: invalid envelope")

// Groth16Proof is the JSON wire envelope for a Groth16 proof over BN254,
// compatible with the snarkjs proof.json / verification_key.json layout.
// Every coordinate is carried as a base-10 string, matching the field
// element decimal convention used elsewhere in the toolkit.
type Groth16Proof struct {
	Protocol string      `json:"protocol"`
	Curve    string      `json:"curve"`
	PiA      [3]string   `json:"pi_a"`
	PiB      [3][2]string `json:"pi_b"`
	PiC      [3]string   `json:"pi_c"`
}

// Envelope bundles a proof with its ordered public signals, the unit handed
// to an on-chain verifier or a provider's submit_proof call.
type Envelope struct {
	Proof         Groth16Proof `json:"proof"`
	PublicSignals []string     `json:"publicSignals"`
}

// SerializeProof renders env as canonical JSON.
func SerializeProof(env *Envelope) ([]byte, error) {
	if env.Proof.Protocol != ProtocolGroth16 {
		return nil, fmt.Errorf("%w: protocol %q, want %q", ErrInvalidEnvelope, env.Proof.Protocol, ProtocolGroth16)
	}
	if env.Proof.Curve != CurveBN128 {
		return nil, fmt.Errorf("%w: curve %q, want %q", ErrInvalidEnvelope, env.Proof.Curve, CurveBN128)
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("proof: failed to marshal envelope: %w", err)
	}
	return b, nil
}

// DeserializeProof parses and structurally validates a serialized envelope.
func DeserializeProof(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidEnvelope, err)
	}
	var arity struct {
		Proof struct {
			PiA []string   `json:"pi_a"`
			PiB [][]string `json:"pi_b"`
			PiC []string   `json:"pi_c"`
		} `json:"proof"`
	}
	okArity := json.Unmarshal(data, &arity) == nil && len(arity.Proof.PiA) == 3 && len(arity.Proof.PiB) == 3 && len(arity.Proof.PiC) == 3
	for _, pair := range arity.Proof.PiB {
		okArity = okArity && len(pair) == 2
	}
	if !okArity {
		return nil, fmt.Errorf("%w: pi_a, pi_b and pi_c must have 3 entries and pi_b entries must be pairs", ErrInvalidEnvelope)
	}
	if env.Proof.Protocol != ProtocolGroth16 {
		return nil, fmt.Errorf("%w: protocol %q, want %q", ErrInvalidEnvelope, env.Proof.Protocol, ProtocolGroth16)
	}
	if env.Proof.Curve != CurveBN128 {
		return nil, fmt.Errorf("%w: curve %q, want %q", ErrInvalidEnvelope, env.Proof.Curve, CurveBN128)
	}
	for _, s := range env.Proof.PiA {
		if s == "" {
			return nil, fmt.Errorf("%w: pi_a has an empty coordinate", ErrInvalidEnvelope)
		}
	}
	for _, pair := range env.Proof.PiB {
		for _, s := range pair {
			if s == "" {
				return nil, fmt.Errorf("%w: pi_b has an empty coordinate", ErrInvalidEnvelope)
			}
		}
	}
	for _, s := range env.Proof.PiC {
		if s == "" {
			return nil, fmt.Errorf("%w: pi_c has an empty coordinate", ErrInvalidEnvelope)
		}
	}
	return &env, nil
}

// FromGnarkProof converts a gnark Groth16 proof over BN254 plus its ordered
// public witness values into the wire envelope. It type-asserts the
// backend-agnostic groth16.Proof interface down to the concrete BN254
// representation, the same point gnark's own Solidity exporter reaches into
// G1Affine.X/.Y and G2Affine.X.A0/.X.A1/.Y.A0/.Y.A1 to render curve points.
func FromGnarkProof(p groth16.Proof, publicSignals []string) (*Envelope, error) {
	concrete, ok := p.(*bn254groth16.Proof)
	if !ok {
		return nil, fmt.Errorf("proof: unsupported proof type %T, want BN254 groth16.Proof", p)
	}

	piA := [3]string{
		concrete.Ar.X.String(),
		concrete.Ar.Y.String(),
		"1",
	}
	// snarkjs encodes G2 coordinates with the A1/A0 components swapped
	// relative to gnark's native Fp2 representation.
	piB := [3][2]string{
		{concrete.Bs.X.A1.String(), concrete.Bs.X.A0.String()},
		{concrete.Bs.Y.A1.String(), concrete.Bs.Y.A0.String()},
		{"1", "0"},
	}
	piC := [3]string{
		concrete.Krs.X.String(),
		concrete.Krs.Y.String(),
		"1",
	}

	signals := make([]string, len(publicSignals))
	copy(signals, publicSignals)

	return &Envelope{
		Proof: Groth16Proof{
			Protocol: ProtocolGroth16,
			Curve:    CurveBN128,
			PiA:      piA,
			PiB:      piB,
			PiC:      piC,
		},
		PublicSignals: signals,
	}, nil
}

package proof

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEnvelope() *Envelope {
	return &Envelope{
		Proof: Groth16Proof{
			Protocol: ProtocolGroth16,
			Curve:    CurveBN128,
			PiA:      [3]string{"1", "2", "1"},
			PiB:      [3][2]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
			PiC:      [3]string{"7", "8", "1"},
		},
		PublicSignals: []string{"9", "10"},
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	env := sampleEnvelope()
	data, err := SerializeProof(env)
	require.NoError(t, err)

	decoded, err := DeserializeProof(data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestSerializeRejectsWrongProtocol(t *testing.T) {
	env := sampleEnvelope()
	env.Proof.Protocol = "plonk"
	_, err := SerializeProof(env)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestSerializeRejectsWrongCurve(t *testing.T) {
	env := sampleEnvelope()
	env.Proof.Curve = "bls12-381"
	_, err := SerializeProof(env)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestDeserializeRejectsMalformedJSON(t *testing.T) {
	_, err := DeserializeProof([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestDeserializeRejectsEmptyCoordinate(t *testing.T) {
	env := sampleEnvelope()
	env.Proof.PiA[1] = ""
	data, err := SerializeProof(env)
	require.NoError(t, err)

	_, err = DeserializeProof(data)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestFromGnarkProofRejectsWrongType(t *testing.T) {
	bogus := groth16.NewProof(ecc.BLS12_381)
	_, err := FromGnarkProof(bogus, nil)
	assert.Error(t, err)
}

package note

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/privacycash/toolkit/field"
)

// NotePrefix is the ASCII prefix every encoded note string carries.
const NotePrefix = "privacy-cash-note-v1-"

// ErrInvalidFormat is returned by DecodeNote for any malformed note string:
// wrong prefix, invalid base64, missing fields, or non-decimal big-int
// fields.
var ErrInvalidFormat = errors.New("note: invalid note format")

// noteWire is the JSON payload carried inside the base64url body. Field
// names are part of the external contract (see spec §6) and must not
// change: c=commitment, n=nullifier_hash, s=secret, nu=nullifier, a=amount,
// t=token, ts=timestamp (ms), li=optional leaf index.
type noteWire struct {
	C  string `json:"c"`
	N  string `json:"n"`
	S  string `json:"s"`
	Nu string `json:"nu"`
	A  float64 `json:"a"`
	T  string `json:"t"`
	Ts int64  `json:"ts"`
	Li *int   `json:"li,omitempty"`
}

// EncodeNote renders n as "privacy-cash-note-v1-<base64url(JSON)>".
func EncodeNote(n *DepositNote) (string, error) {
	wire := noteWire{
		C:  n.Commitment.String(),
		N:  n.NullifierHash.String(),
		S:  n.Secret.String(),
		Nu: n.Nullifier.String(),
		A:  n.Amount,
		T:  n.Token,
		Ts: n.TimestampMs,
		Li: n.LeafIndex,
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("note: failed to marshal note: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	return NotePrefix + body, nil
}

// DecodeNote reverses EncodeNote. Decode followed by Encode is a
// byte-exact round-trip.
func DecodeNote(s string) (*DepositNote, error) {
	if !strings.HasPrefix(s, NotePrefix) {
		return nil, fmt.Errorf("%w: missing prefix %q", ErrInvalidFormat, NotePrefix)
	}
	body := strings.TrimPrefix(s, NotePrefix)

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidFormat, err)
	}

	var wire noteWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: bad json: %v", ErrInvalidFormat, err)
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(payload, &present); err != nil {
		return nil, fmt.Errorf("%w: bad json: %v", ErrInvalidFormat, err)
	}
	_, hasA := present["a"]
	_, hasTs := present["ts"]

	if !hasA || !hasTs || wire.C == "" || wire.N == "" || wire.S == "" || wire.Nu == "" || wire.T == "" {
		return nil, fmt.Errorf("%w: missing required field", ErrInvalidFormat)
	}

	commitment, err := field.FromDecimalString(wire.C)
	if err != nil {
		return nil, fmt.Errorf("%w: field c: %v", ErrInvalidFormat, err)
	}
	nullifierHash, err := field.FromDecimalString(wire.N)
	if err != nil {
		return nil, fmt.Errorf("%w: field n: %v", ErrInvalidFormat, err)
	}
	secret, err := field.FromDecimalString(wire.S)
	if err != nil {
		return nil, fmt.Errorf("%w: field s: %v", ErrInvalidFormat, err)
	}
	nullifier, err := field.FromDecimalString(wire.Nu)
	if err != nil {
		return nil, fmt.Errorf("%w: field nu: %v", ErrInvalidFormat, err)
	}
	if wire.Li != nil && *wire.Li < 0 {
		return nil, fmt.Errorf("%w: li must be non-negative", ErrInvalidFormat)
	}

	return &DepositNote{
		Secret:        secret,
		Nullifier:     nullifier,
		Amount:        wire.A,
		Token:         wire.T,
		Commitment:    commitment,
		NullifierHash: nullifierHash,
		TimestampMs:   wire.Ts,
		LeafIndex:     wire.Li,
	}, nil
}

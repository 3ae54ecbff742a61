// Package ecdh implements the X25519 key agreement used by the MPC adapter
// and the nonce-randomized symmetric encryption it builds on top of it,
// grounded on the same NaCl-secretbox authenticated-encryption pattern the
// teacher's encrypt package uses for its ECIES scheme, swapped onto raw
// X25519 clamped keys instead of twisted-Edwards EdDSA keys.
package ecdh

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeyPair is a clamped X25519 secret and its derived public key.
type KeyPair struct {
	Secret [32]byte
	Public [32]byte
}

// GenerateSecretKey draws 32 random bytes and clamps them per RFC 7748:
// clear the three lowest bits of byte 0, clear the highest bit of byte 31,
// and set the second-highest bit of byte 31.
func GenerateSecretKey() ([32]byte, error) {
	var sk [32]byte
	if _, err := rand.Read(sk[:]); err != nil {
		return sk, fmt.Errorf("ecdh: failed to draw secret key: %w", err)
	}
	clamp(&sk)
	return sk, nil
}

func clamp(sk *[32]byte) {
	sk[0] &= 248
	sk[31] &= 127
	sk[31] |= 64
}

// GetPublicKey computes the X25519 scalar multiplication of secret with the
// standard base point.
func GetPublicKey(secret [32]byte) ([32]byte, error) {
	var pub [32]byte
	out, err := curve25519.X25519(secret[:], curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("ecdh: failed to derive public key: %w", err)
	}
	copy(pub[:], out)
	return pub, nil
}

// GetSharedSecret computes the X25519 scalar multiplication of mySecret
// with theirPublic. Both sides of a key exchange compute the same value:
// GetSharedSecret(a.Secret, b.Public) == GetSharedSecret(b.Secret, a.Public).
func GetSharedSecret(mySecret, theirPublic [32]byte) ([32]byte, error) {
	var shared [32]byte
	out, err := curve25519.X25519(mySecret[:], theirPublic[:])
	if err != nil {
		return shared, fmt.Errorf("ecdh: failed to derive shared secret: %w", err)
	}
	copy(shared[:], out)
	return shared, nil
}

// GenerateKeyPair draws a fresh clamped secret and derives its public key.
func GenerateKeyPair() (*KeyPair, error) {
	secret, err := GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	public, err := GetPublicKey(secret)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Secret: secret, Public: public}, nil
}

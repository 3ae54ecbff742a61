package mpcadapter

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"

	"github.com/privacycash/toolkit/ecdh"
)

func decodeAddress(s string) ([32]byte, error) {
	var out [32]byte
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return out, fmt.Errorf("mpcadapter: invalid address %q: %w", s, err)
	}
	copy(out[:], pk[:])
	return out, nil
}

// transferInstruction is the borsh-encoded wire layout of an MPC transfer
// instruction: {op=0x01, sender(32), recipient(32), nonce(16),
// ciphertext(var)} per §4.7/§6, with the nonce inserted ahead of the
// ciphertext since ecdh.EncryptedValue cannot be decrypted without it.
type transferInstruction struct {
	Op         uint8
	Sender     [32]byte
	Recipient  [32]byte
	Nonce      [ecdh.NonceSize]byte
	Ciphertext []byte
}

// shieldInstruction is the borsh-encoded wire layout of a shield (deposit)
// instruction: {op=0x02, amount(8, LE)}. The shielded amount stays visible
// on-chain; only subsequent transfers hide it.
type shieldInstruction struct {
	Op     uint8
	Amount uint64
}

// unshieldInstruction is the borsh-encoded wire layout of an unshield
// (withdraw) instruction: {op=0x03, recipient(32), amount(8, LE)}.
type unshieldInstruction struct {
	Op        uint8
	Recipient [32]byte
	Amount    uint64
}

func buildTransferPayload(sender, recipient [32]byte, enc *ecdh.EncryptedValue) []byte {
	out, err := borsh.Serialize(transferInstruction{
		Op:         opTransfer,
		Sender:     sender,
		Recipient:  recipient,
		Nonce:      enc.Nonce,
		Ciphertext: enc.Ciphertext,
	})
	if err != nil {
		panic(fmt.Sprintf("mpcadapter: borsh serialization of a fixed-shape instruction cannot fail: %v", err))
	}
	return out
}

func buildShieldPayload(amount *big.Int) ([]byte, error) {
	if !amount.IsUint64() {
		return nil, fmt.Errorf("mpcadapter: amount does not fit in u64")
	}
	return borsh.Serialize(shieldInstruction{Op: opShield, Amount: amount.Uint64()})
}

func buildUnshieldPayload(recipient [32]byte, amount *big.Int) ([]byte, error) {
	if !amount.IsUint64() {
		return nil, fmt.Errorf("mpcadapter: amount does not fit in u64")
	}
	return borsh.Serialize(unshieldInstruction{Op: opUnshield, Recipient: recipient, Amount: amount.Uint64()})
}

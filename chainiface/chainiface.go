// Package chainiface defines the narrow boundary the toolkit's core needs
// from the surrounding wallet and chain transport, out of scope per the
// specification but shaped to mirror github.com/gagliardetto/solana-go's
// PublicKey/Signature/Instruction types so a real binding is a thin shim,
// the same boundary the teacher's external.SolanaClient crosses into
// solana-go.
package chainiface

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Wallet signs messages and transactions on the caller's behalf. The core
// never retains a secret key; it only ever calls through this interface.
type Wallet interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// Chain sends already-built instructions and answers read queries. Adapters
// build instruction payloads per §6 of the spec and hand them here; Chain
// owns RPC transport, retries at the RPC layer, and blockhash management.
type Chain interface {
	SendInstructions(ctx context.Context, payer solana.PublicKey, instructions []solana.Instruction) (solana.Signature, error)
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	GetBalance(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (uint64, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) (bool, error)
}

// PDA derives a program-derived address from seeds, mirroring solana-go's
// solana.FindProgramAddress, used to compute the pool and nullifier PDAs
// named in §6.
func PDA(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, programID)
}

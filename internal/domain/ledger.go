package domain

import "context"

// LedgerClient is the boundary to the on-chain contract. Implementations
// reclassify transport and revert errors into the sentinel errors of this
// package before returning; no caller inspects error strings.
//
// Hash arguments and results are lowercase hex without 0x prefix.
// Implementations normalize hashes to exactly 32 bytes on the wire.
type LedgerClient interface {
	Mint(ctx context.Context, ownerAddress, metadataURI, metadataHash string) (MintResult, error)
	Revoke(ctx context.Context, tokenID uint64) (RevokeResult, error)

	Verify(ctx context.Context, tokenID uint64, metadataHash string) (bool, error)
	IsRevoked(ctx context.Context, tokenID uint64) (bool, error)
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	AnchorHash(ctx context.Context, tokenID uint64) (string, error)

	// Simulated reports whether results are synthesized rather than
	// ledger-confirmed.
	Simulated() bool
}

type MintResult struct {
	TokenID         uint64
	TransactionHash string
}

type RevokeResult struct {
	TransactionHash string
}

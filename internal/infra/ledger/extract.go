package ledger

import (
	"context"
	"fmt"
	"math/big"

	"tarledger/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// A tokenIDStrategy recovers the minted token id from a confirmed receipt.
// Strategies run in order; the first hit wins.
type tokenIDStrategy struct {
	name string
	fn   func(ctx context.Context, receipt *types.Receipt) (uint64, bool)
}

func (c *Client) extractTokenID(ctx context.Context, receipt *types.Receipt) (uint64, error) {
	strategies := []tokenIDStrategy{
		{"minted-event", func(_ context.Context, r *types.Receipt) (uint64, bool) {
			return tokenIDFromMintedEvent(r)
		}},
		{"transfer-event", func(_ context.Context, r *types.Receipt) (uint64, bool) {
			return tokenIDFromTransferEvent(r)
		}},
		// Last resort. totalSupply-1 is only the minted id when no other
		// mint confirmed in between; unsafe under concurrent minting.
		{"total-supply", c.tokenIDFromTotalSupply},
	}
	for _, s := range strategies {
		if id, ok := s.fn(ctx, receipt); ok {
			if s.name != "minted-event" {
				c.log.Warn("token id recovered by fallback strategy",
					zap.String("strategy", s.name),
					zap.Uint64("token_id", id))
			}
			return id, nil
		}
	}
	// Never synthesize an id: a receipt persisted with a guessed token id
	// would poison every later verification.
	return 0, fmt.Errorf("%w: tx %s", domain.ErrExtraction, receipt.TxHash.Hex())
}

func tokenIDFromMintedEvent(receipt *types.Receipt) (uint64, bool) {
	sig := contract.Events["Minted"].ID
	for _, entry := range receipt.Logs {
		if len(entry.Topics) >= 2 && entry.Topics[0] == sig {
			return new(big.Int).SetBytes(entry.Topics[1].Bytes()).Uint64(), true
		}
	}
	return 0, false
}

// tokenIDFromTransferEvent matches the ERC-721 Transfer emitted on mint,
// where from is the zero address and the token id is the third indexed
// argument.
func tokenIDFromTransferEvent(receipt *types.Receipt) (uint64, bool) {
	sig := contract.Events["Transfer"].ID
	zero := common.Hash{}
	for _, entry := range receipt.Logs {
		if len(entry.Topics) >= 4 && entry.Topics[0] == sig && entry.Topics[1] == zero {
			return new(big.Int).SetBytes(entry.Topics[3].Bytes()).Uint64(), true
		}
	}
	return 0, false
}

func (c *Client) tokenIDFromTotalSupply(ctx context.Context, _ *types.Receipt) (uint64, bool) {
	out, err := c.call(ctx, "totalSupply")
	if err != nil {
		return 0, false
	}
	supply, ok := out[0].(*big.Int)
	if !ok || supply.Sign() <= 0 {
		return 0, false
	}
	return new(big.Int).Sub(supply, big.NewInt(1)).Uint64(), true
}

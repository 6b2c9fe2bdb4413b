package ledger

import (
	"context"
	"fmt"
	"time"

	"tarledger/internal/domain"

	"go.uber.org/zap"
)

// Sentinel values the simulated client answers reads with. They are
// deliberately recognizable so simulated state is never mistaken for
// ledger-confirmed state.
const (
	simulatedOwner      = "0x1234567890123456789012345678901234567890"
	simulatedAnchorHash = "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
)

// SimulatedClient stands in for the ledger when no signing key is
// configured. Writes synthesize a plausible transaction reference from the
// clock; reads return fixed sentinels. Every call logs with simulated=true.
type SimulatedClient struct {
	now func() time.Time
	log *zap.Logger
}

func NewSimulated(log *zap.Logger) *SimulatedClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimulatedClient{
		now: time.Now,
		log: log.With(zap.Bool("simulated", true)),
	}
}

func (s *SimulatedClient) Simulated() bool { return true }

func (s *SimulatedClient) Mint(_ context.Context, ownerAddress, metadataURI, metadataHash string) (domain.MintResult, error) {
	millis := s.now().UnixMilli()
	result := domain.MintResult{
		TokenID:         uint64(millis % 1_000_000),
		TransactionHash: fmt.Sprintf("0x%x", millis),
	}
	s.log.Info("mint simulated",
		zap.Uint64("token_id", result.TokenID),
		zap.String("owner", ownerAddress),
		zap.String("uri", metadataURI),
		zap.String("hash", metadataHash))
	return result, nil
}

func (s *SimulatedClient) Revoke(_ context.Context, tokenID uint64) (domain.RevokeResult, error) {
	result := domain.RevokeResult{
		TransactionHash: fmt.Sprintf("0x%x", s.now().UnixMilli()),
	}
	s.log.Info("revoke simulated", zap.Uint64("token_id", tokenID))
	return result, nil
}

func (s *SimulatedClient) Verify(_ context.Context, tokenID uint64, _ string) (bool, error) {
	s.log.Info("verify simulated", zap.Uint64("token_id", tokenID))
	return true, nil
}

func (s *SimulatedClient) IsRevoked(_ context.Context, tokenID uint64) (bool, error) {
	s.log.Info("isRevoked simulated", zap.Uint64("token_id", tokenID))
	return false, nil
}

func (s *SimulatedClient) OwnerOf(_ context.Context, tokenID uint64) (string, error) {
	s.log.Info("ownerOf simulated", zap.Uint64("token_id", tokenID))
	return simulatedOwner, nil
}

func (s *SimulatedClient) AnchorHash(_ context.Context, tokenID uint64) (string, error) {
	s.log.Info("anchorHash simulated", zap.Uint64("token_id", tokenID))
	return simulatedAnchorHash, nil
}

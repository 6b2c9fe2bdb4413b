package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tarledger/internal/domain"

	"go.uber.org/zap"
)

type RevokeReceiptResult struct {
	TokenID         uint64
	TransactionHash string
	RevokedAt       time.Time
}

// RevokeReceipt flips a receipt to revoked, ledger first, local index
// second. Revocation is one way; a second call for the same token is
// rejected before the ledger is touched.
type RevokeReceipt struct {
	Receipts domain.ReceiptRepository
	Ledger   domain.LedgerClient
	Cache    VerdictCache
	Log      *zap.Logger
	Now      func() time.Time
}

func (uc *RevokeReceipt) Execute(ctx context.Context, tokenID uint64) (*RevokeReceiptResult, error) {
	receipt, err := uc.Receipts.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if receipt.Revoked {
		return nil, domain.ErrAlreadyRevoked
	}

	res, err := uc.Ledger.Revoke(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	revokedAt := uc.now()
	if err := uc.Receipts.MarkRevoked(ctx, tokenID, revokedAt); err != nil {
		if errors.Is(err, domain.ErrAlreadyRevoked) {
			// A concurrent revocation marked the record first. The local
			// state already matches the ledger.
			uc.Log.Warn("receipt marked revoked concurrently",
				zap.Uint64("tokenId", tokenID))
		} else {
			uc.Log.Error("local update failed after confirmed ledger revoke",
				zap.Uint64("tokenId", tokenID),
				zap.String("txHash", res.TransactionHash),
				zap.Error(err))
			return nil, fmt.Errorf("%w: token %d revoked on ledger (tx %s) but local record not updated: %v",
				domain.ErrInconsistent, tokenID, res.TransactionHash, err)
		}
	}

	if uc.Cache != nil {
		uc.Cache.InvalidateToken(ctx, tokenID)
	}

	uc.Log.Info("receipt revoked",
		zap.Uint64("tokenId", tokenID),
		zap.String("txHash", res.TransactionHash),
		zap.Bool("simulated", uc.Ledger.Simulated()))
	return &RevokeReceiptResult{
		TokenID:         tokenID,
		TransactionHash: res.TransactionHash,
		RevokedAt:       revokedAt,
	}, nil
}

func (uc *RevokeReceipt) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

package usecase

import (
	"context"
	"fmt"

	"tarledger/internal/domain"
)

// QueryReceipts serves the read side of the local index.
type QueryReceipts struct {
	Receipts domain.ReceiptRepository
}

func (uc *QueryReceipts) GetDetails(ctx context.Context, tokenID uint64) (*domain.Receipt, error) {
	return uc.Receipts.GetByTokenID(ctx, tokenID)
}

func (uc *QueryReceipts) ListByOwner(ctx context.Context, ownerAddress string, activeOnly bool) ([]domain.Receipt, error) {
	if ownerAddress == "" {
		return nil, fmt.Errorf("%w: ownerAddress is required", domain.ErrValidation)
	}
	return uc.Receipts.ListByOwner(ctx, ownerAddress, activeOnly)
}

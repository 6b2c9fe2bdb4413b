package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tarledger/internal/domain"

	"go.uber.org/zap"
)

type IssueReceiptRequest struct {
	InvoiceNo    string
	PurchaseDate string // yyyy-mm-dd
	Amount       string
	ItemName     string
	OwnerAddress string
	ImageURL     string
}

// IssueReceipt binds metadata, mints on the ledger, and records the result
// in the local index, strictly in that order. There is no rollback: a mint
// that confirms stays on the ledger even when the local write fails.
type IssueReceipt struct {
	Receipts domain.ReceiptRepository
	Binder   *MetadataBinder
	Ledger   domain.LedgerClient
	Log      *zap.Logger
	Now      func() time.Time
}

func (uc *IssueReceipt) Execute(ctx context.Context, req IssueReceiptRequest) (*domain.Receipt, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	exists, err := uc.Receipts.ExistsByInvoiceNo(ctx, req.InvoiceNo)
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateInvoice
	}

	bound, err := uc.Binder.Bind(ctx, req)
	if err != nil {
		return nil, err
	}

	mint, err := uc.Ledger.Mint(ctx, req.OwnerAddress, bound.URI, bound.Hash)
	if err != nil {
		// The metadata upload is now orphaned. Backends give no reliable
		// delete-on-failure guarantee, so it stays.
		uc.Log.Warn("mint failed after metadata upload",
			zap.String("invoiceNo", req.InvoiceNo),
			zap.String("metadataUri", bound.URI),
			zap.Error(err))
		return nil, err
	}

	receipt := domain.Receipt{
		TokenID:         mint.TokenID,
		InvoiceNo:       req.InvoiceNo,
		PurchaseDate:    req.PurchaseDate,
		Amount:          req.Amount,
		ItemName:        req.ItemName,
		OwnerAddress:    req.OwnerAddress,
		MetadataURI:     bound.URI,
		MetadataHash:    bound.Hash,
		TransactionHash: mint.TransactionHash,
		CreatedAt:       uc.now(),
	}
	if err := uc.Receipts.Create(ctx, receipt); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			// A concurrent issuance won the unique constraint race. The
			// mint on this path still happened.
			uc.Log.Error("duplicate invoice detected after mint",
				zap.String("invoiceNo", req.InvoiceNo),
				zap.Uint64("tokenId", mint.TokenID),
				zap.String("txHash", mint.TransactionHash))
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateInvoice, req.InvoiceNo)
		}
		uc.Log.Error("local persist failed after confirmed mint",
			zap.String("invoiceNo", req.InvoiceNo),
			zap.Uint64("tokenId", mint.TokenID),
			zap.String("txHash", mint.TransactionHash),
			zap.Error(err))
		return nil, fmt.Errorf("%w: minted token %d (tx %s) has no local record: %v",
			domain.ErrInconsistent, mint.TokenID, mint.TransactionHash, err)
	}

	uc.Log.Info("receipt issued",
		zap.Uint64("tokenId", receipt.TokenID),
		zap.String("invoiceNo", receipt.InvoiceNo),
		zap.String("owner", receipt.OwnerAddress),
		zap.Bool("simulated", uc.Ledger.Simulated()))
	return &receipt, nil
}

func (uc *IssueReceipt) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func validateIssueRequest(req IssueReceiptRequest) error {
	if req.InvoiceNo == "" {
		return fmt.Errorf("%w: invoiceNo is required", domain.ErrValidation)
	}
	if req.OwnerAddress == "" {
		return fmt.Errorf("%w: ownerAddress is required", domain.ErrValidation)
	}
	if req.ItemName == "" {
		return fmt.Errorf("%w: itemName is required", domain.ErrValidation)
	}
	if req.PurchaseDate != "" {
		if _, err := time.Parse("2006-01-02", req.PurchaseDate); err != nil {
			return fmt.Errorf("%w: purchaseDate must be yyyy-mm-dd", domain.ErrValidation)
		}
	}
	if req.Amount != "" {
		if _, err := strconv.ParseFloat(req.Amount, 64); err != nil {
			return fmt.Errorf("%w: amount must be a decimal number", domain.ErrValidation)
		}
	}
	return nil
}

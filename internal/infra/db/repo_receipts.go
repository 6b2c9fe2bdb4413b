package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tarledger/internal/domain"

	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("database unavailable")

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt domain.Receipt) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if receipt.InvoiceNo == "" {
		return fmt.Errorf("%w: invoice_no is required", domain.ErrValidation)
	}
	if receipt.OwnerAddress == "" {
		return fmt.Errorf("%w: owner_address is required", domain.ErrValidation)
	}
	if receipt.MetadataHash == "" {
		return fmt.Errorf("%w: metadata_hash is required", domain.ErrValidation)
	}

	model := receiptToModel(receipt)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: invoice %s or token %d", domain.ErrDuplicateInvoice, receipt.InvoiceNo, receipt.TokenID)
		}
		return err
	}
	return nil
}

func (r *ReceiptRepository) GetByTokenID(ctx context.Context, tokenID uint64) (*domain.Receipt, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model ReceiptModel
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: token %d", domain.ErrNotFound, tokenID)
		}
		return nil, err
	}
	receipt := receiptFromModel(model)
	return &receipt, nil
}

func (r *ReceiptRepository) ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&ReceiptModel{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReceiptRepository) ListByOwner(ctx context.Context, ownerAddress string, activeOnly bool) ([]domain.Receipt, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	query := r.db.WithContext(ctx).Where("owner_address = ?", ownerAddress)
	if activeOnly {
		query = query.Where("revoked = ?", false)
	}
	var models []ReceiptModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Receipt, 0, len(models))
	for _, model := range models {
		out = append(out, receiptFromModel(model))
	}
	return out, nil
}

// MarkRevoked flips the revoked flag exactly once. The revoked = false
// predicate keeps the transition monotonic even under concurrent calls.
func (r *ReceiptRepository) MarkRevoked(ctx context.Context, tokenID uint64, revokedAt time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Model(&ReceiptModel{}).
		Where("token_id = ? AND revoked = ?", tokenID, false).
		Updates(map[string]any{
			"revoked":    true,
			"revoked_at": revokedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ReceiptModel{}).
			Where("token_id = ?", tokenID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: token %d", domain.ErrNotFound, tokenID)
		}
		return fmt.Errorf("%w: token %d", domain.ErrAlreadyRevoked, tokenID)
	}
	return nil
}

func receiptToModel(receipt domain.Receipt) ReceiptModel {
	return ReceiptModel{
		TokenID:         receipt.TokenID,
		InvoiceNo:       receipt.InvoiceNo,
		PurchaseDate:    receipt.PurchaseDate,
		Amount:          receipt.Amount,
		ItemName:        receipt.ItemName,
		OwnerAddress:    receipt.OwnerAddress,
		MetadataURI:     receipt.MetadataURI,
		MetadataHash:    receipt.MetadataHash,
		TransactionHash: receipt.TransactionHash,
		Revoked:         receipt.Revoked,
		CreatedAt:       receipt.CreatedAt,
		RevokedAt:       receipt.RevokedAt,
	}
}

func receiptFromModel(model ReceiptModel) domain.Receipt {
	return domain.Receipt{
		TokenID:         model.TokenID,
		InvoiceNo:       model.InvoiceNo,
		PurchaseDate:    model.PurchaseDate,
		Amount:          model.Amount,
		ItemName:        model.ItemName,
		OwnerAddress:    model.OwnerAddress,
		MetadataURI:     model.MetadataURI,
		MetadataHash:    model.MetadataHash,
		TransactionHash: model.TransactionHash,
		Revoked:         model.Revoked,
		CreatedAt:       model.CreatedAt,
		RevokedAt:       model.RevokedAt,
	}
}

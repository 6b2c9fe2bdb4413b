package domain

import (
	"context"
	"time"
)

// Receipt is the local-index record of one tokenized receipt. TokenID is
// assigned by the ledger at mint time and immutable afterwards; MetadataHash
// is the hex SHA-256 anchored on the ledger for the same token and is never
// recomputed after creation.
type Receipt struct {
	TokenID         uint64
	InvoiceNo       string
	PurchaseDate    string // yyyy-mm-dd
	Amount          string // decimal string, persisted verbatim
	ItemName        string
	OwnerAddress    string
	MetadataURI     string
	MetadataHash    string
	TransactionHash string
	Revoked         bool
	CreatedAt       time.Time
	RevokedAt       *time.Time
}

// MetadataDocument is the value object the content hash is computed over.
// Field set and formatting are part of the hash contract.
type MetadataDocument struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	InvoiceNo    string `json:"invoiceNo"`
	PurchaseDate string `json:"purchaseDate"`
	Amount       string `json:"amount"`
	ItemName     string `json:"itemName"`
	OwnerAddress string `json:"ownerAddress"`
	ImageURL     string `json:"imageUrl"`
}

type ReceiptRepository interface {
	Create(ctx context.Context, receipt Receipt) error
	GetByTokenID(ctx context.Context, tokenID uint64) (*Receipt, error)
	ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error)
	ListByOwner(ctx context.Context, ownerAddress string, activeOnly bool) ([]Receipt, error)
	MarkRevoked(ctx context.Context, tokenID uint64, revokedAt time.Time) error
}

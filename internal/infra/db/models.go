package db

import "time"

type ReceiptModel struct {
	ID              int64     `gorm:"primaryKey"`
	TokenID         uint64    `gorm:"uniqueIndex;not null"`
	InvoiceNo       string    `gorm:"uniqueIndex;not null"`
	PurchaseDate    string    `gorm:"not null"`
	Amount          string    `gorm:"type:numeric(18,2);not null"`
	ItemName        string    `gorm:"not null"`
	OwnerAddress    string    `gorm:"index;not null"`
	MetadataURI     string    `gorm:"not null"`
	MetadataHash    string    `gorm:"not null"`
	TransactionHash string    `gorm:"not null"`
	Revoked         bool      `gorm:"index;not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	RevokedAt       *time.Time
}

func (ReceiptModel) TableName() string { return "receipts" }

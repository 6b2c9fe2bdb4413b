package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"tarledger/internal/domain"
	"tarledger/internal/infra/canonjson"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const metadataContentType = "application/json"

// MetadataBinder builds the canonical metadata document for a receipt,
// hashes it, and uploads it to the content store. The hash is computed over
// the canonical bytes before upload, so it never depends on what the store
// does with them.
type MetadataBinder struct {
	Store domain.ContentStore
	Log   *zap.Logger
}

type BindResult struct {
	URI      string
	Hash     string
	Document domain.MetadataDocument
}

func (b *MetadataBinder) Bind(ctx context.Context, req IssueReceiptRequest) (BindResult, error) {
	doc := domain.MetadataDocument{
		Name:         fmt.Sprintf("TAR Receipt #%s", req.InvoiceNo),
		Description:  fmt.Sprintf("Tokenized asset receipt for invoice %s", req.InvoiceNo),
		Image:        req.ImageURL,
		InvoiceNo:    req.InvoiceNo,
		PurchaseDate: req.PurchaseDate,
		Amount:       req.Amount,
		ItemName:     req.ItemName,
		OwnerAddress: req.OwnerAddress,
		ImageURL:     req.ImageURL,
	}

	canonical, err := canonjson.Marshal(doc)
	if err != nil {
		return BindResult{}, fmt.Errorf("canonicalize metadata: %w", err)
	}
	sum := sha256.Sum256(canonical)
	hash := hex.EncodeToString(sum[:])

	key := fmt.Sprintf("metadata/metadata_%s_%s.json", sanitizeKeyPart(req.InvoiceNo), uuid.NewString())
	uri, err := b.Store.Put(ctx, key, metadataContentType, canonical)
	if err != nil {
		return BindResult{}, err
	}

	b.Log.Debug("metadata bound",
		zap.String("invoiceNo", req.InvoiceNo),
		zap.String("uri", uri),
		zap.String("hash", hash))
	return BindResult{URI: uri, Hash: hash, Document: doc}, nil
}

func sanitizeKeyPart(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

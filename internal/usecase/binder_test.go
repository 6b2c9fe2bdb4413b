package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tarledger/internal/domain"

	"go.uber.org/zap"
)

func TestBindHashDeterministic(t *testing.T) {
	store := newFakeStore("")
	binder := &MetadataBinder{Store: store, Log: zap.NewNop()}
	req := testIssueRequest()

	first, err := binder.Bind(context.Background(), req)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	second, err := binder.Bind(context.Background(), req)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if first.Hash != second.Hash {
		t.Errorf("hash differs across calls: %q vs %q", first.Hash, second.Hash)
	}
	if len(first.Hash) != 64 || first.Hash != strings.ToLower(first.Hash) {
		t.Errorf("hash %q is not lowercase hex sha-256", first.Hash)
	}
	if first.URI == second.URI {
		t.Error("object keys should be unique per upload")
	}
}

func TestBindObjectKeyShape(t *testing.T) {
	store := newFakeStore("")
	binder := &MetadataBinder{Store: store, Log: zap.NewNop()}
	req := testIssueRequest()
	req.InvoiceNo = "INV/001 A"

	if _, err := binder.Bind(context.Background(), req); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(store.keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(store.keys))
	}
	key := store.keys[0]
	if !strings.HasPrefix(key, "metadata/metadata_INV-001-A_") {
		t.Errorf("key = %q, invoice not sanitized", key)
	}
	if !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q, missing extension", key)
	}
}

func TestBindStoreFailurePropagates(t *testing.T) {
	store := newFakeStore("")
	store.putErr = domain.ErrContentStore
	binder := &MetadataBinder{Store: store, Log: zap.NewNop()}

	_, err := binder.Bind(context.Background(), testIssueRequest())
	if !errors.Is(err, domain.ErrContentStore) {
		t.Fatalf("err = %v, want ErrContentStore", err)
	}
}

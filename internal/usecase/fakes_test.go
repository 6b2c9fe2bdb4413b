package usecase

import (
	"context"
	"fmt"
	"time"

	"tarledger/internal/domain"
)

type fakeRepo struct {
	receipts map[uint64]*domain.Receipt
	invoices map[string]bool

	createErr error
	getErr    error
	existsErr error
	markErr   error

	createCalls int
	markCalls   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		receipts: make(map[uint64]*domain.Receipt),
		invoices: make(map[string]bool),
	}
}

func (f *fakeRepo) Create(_ context.Context, receipt domain.Receipt) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if f.invoices[receipt.InvoiceNo] {
		return domain.ErrDuplicateInvoice
	}
	r := receipt
	f.receipts[receipt.TokenID] = &r
	f.invoices[receipt.InvoiceNo] = true
	return nil
}

func (f *fakeRepo) GetByTokenID(_ context.Context, tokenID uint64) (*domain.Receipt, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.receipts[tokenID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRepo) ExistsByInvoiceNo(_ context.Context, invoiceNo string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.invoices[invoiceNo], nil
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerAddress string, activeOnly bool) ([]domain.Receipt, error) {
	var out []domain.Receipt
	for _, r := range f.receipts {
		if r.OwnerAddress != ownerAddress {
			continue
		}
		if activeOnly && r.Revoked {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) MarkRevoked(_ context.Context, tokenID uint64, revokedAt time.Time) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	r, ok := f.receipts[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Revoked {
		return domain.ErrAlreadyRevoked
	}
	r.Revoked = true
	at := revokedAt
	r.RevokedAt = &at
	return nil
}

type fakeLedger struct {
	mintResult domain.MintResult
	mintErr    error

	revokeResult domain.RevokeResult
	revokeErr    error

	revoked      bool
	isRevokedErr error

	verifyOK  bool
	verifyErr error

	owner      string
	ownerOfErr error

	anchor    string
	anchorErr error

	mintCalls      int
	revokeCalls    int
	isRevokedCalls int
	verifyCalls    int
	ownerOfCalls   int
}

func (f *fakeLedger) Mint(context.Context, string, string, string) (domain.MintResult, error) {
	f.mintCalls++
	return f.mintResult, f.mintErr
}

func (f *fakeLedger) Revoke(context.Context, uint64) (domain.RevokeResult, error) {
	f.revokeCalls++
	return f.revokeResult, f.revokeErr
}

func (f *fakeLedger) Verify(context.Context, uint64, string) (bool, error) {
	f.verifyCalls++
	return f.verifyOK, f.verifyErr
}

func (f *fakeLedger) IsRevoked(context.Context, uint64) (bool, error) {
	f.isRevokedCalls++
	return f.revoked, f.isRevokedErr
}

func (f *fakeLedger) OwnerOf(context.Context, uint64) (string, error) {
	f.ownerOfCalls++
	return f.owner, f.ownerOfErr
}

func (f *fakeLedger) AnchorHash(context.Context, uint64) (string, error) {
	return f.anchor, f.anchorErr
}

func (f *fakeLedger) Simulated() bool { return false }

type fakeStore struct {
	uri     string
	putErr  error
	getErr  error
	objects map[string][]byte
	keys    []string
}

func newFakeStore(uri string) *fakeStore {
	return &fakeStore{uri: uri, objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.keys = append(f.keys, key)
	uri := f.uri
	if uri == "" {
		uri = fmt.Sprintf("store://%s", key)
	}
	f.objects[uri] = data
	return uri, nil
}

func (f *fakeStore) Get(_ context.Context, uri string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[uri]
	if !ok {
		return nil, domain.ErrContentStore
	}
	return data, nil
}

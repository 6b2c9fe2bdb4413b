package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"tarledger/internal/domain"
	"tarledger/internal/infra/canonjson"

	"go.uber.org/zap"
)

// VerdictCache keeps verification verdicts keyed by "tokenId:hash". Only
// Valid verdicts are stored; revocation invalidates by token id.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*domain.Verdict, bool)
	Put(ctx context.Context, key string, verdict domain.Verdict, ttl time.Duration)
	InvalidateToken(ctx context.Context, tokenID uint64)
}

// VerifyReceipt resolves one verdict from the local index, the ledger's
// revocation flag, the ledger's hash anchor, and the claimed hash.
// Revocation is authoritative and short-circuits every other signal.
type VerifyReceipt struct {
	Receipts domain.ReceiptRepository
	Ledger   domain.LedgerClient
	Store    domain.ContentStore
	Cache    VerdictCache
	CacheTTL time.Duration
	Log      *zap.Logger
}

// Execute is total: it never returns an error, only a verdict. Faults from
// any collaborator collapse into an invalid verdict with a reason.
func (uc *VerifyReceipt) Execute(ctx context.Context, tokenID uint64, claimedHash string) (verdict domain.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			uc.Log.Error("verification panicked",
				zap.Uint64("tokenId", tokenID),
				zap.Any("panic", r))
			verdict = domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", r))
		}
	}()

	claimedHash = normalizeClaimedHash(claimedHash)
	cacheKey := fmt.Sprintf("%d:%s", tokenID, claimedHash)
	if uc.Cache != nil && uc.CacheTTL > 0 {
		if cached, ok := uc.Cache.Get(ctx, cacheKey); ok {
			return *cached
		}
	}

	verdict = uc.resolve(ctx, tokenID, claimedHash)
	if verdict.Status == domain.VerdictValid && uc.Cache != nil && uc.CacheTTL > 0 {
		uc.Cache.Put(ctx, cacheKey, verdict, uc.CacheTTL)
	}
	return verdict
}

// ExecuteStored verifies without a caller-supplied hash: it fetches the
// stored metadata document, recomputes its hash over the canonical form, and
// runs the standard verification with the result. Like Execute it is total.
func (uc *VerifyReceipt) ExecuteStored(ctx context.Context, tokenID uint64) (verdict domain.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			uc.Log.Error("verification panicked",
				zap.Uint64("tokenId", tokenID),
				zap.Any("panic", r))
			verdict = domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", r))
		}
	}()

	local, err := uc.Receipts.GetByTokenID(ctx, tokenID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.InvalidVerdict(tokenID, "no local record to locate metadata")
	case err != nil:
		return domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", err))
	}
	if local.Revoked {
		return domain.RevokedVerdict(tokenID, local.OwnerAddress)
	}

	data, err := uc.Store.Get(ctx, local.MetadataURI)
	if err != nil {
		return domain.InvalidVerdict(tokenID, fmt.Sprintf("metadata fetch failed: %v", err))
	}
	canonical, err := canonjson.Canonicalize(data)
	if err != nil {
		return domain.InvalidVerdict(tokenID, "metadata document malformed")
	}
	sum := sha256.Sum256(canonical)
	return uc.Execute(ctx, tokenID, hex.EncodeToString(sum[:]))
}

func (uc *VerifyReceipt) resolve(ctx context.Context, tokenID uint64, claimedHash string) domain.Verdict {
	local, err := uc.Receipts.GetByTokenID(ctx, tokenID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", err))
	}
	if local != nil && local.Revoked {
		return domain.RevokedVerdict(tokenID, local.OwnerAddress)
	}

	revoked, err := uc.Ledger.IsRevoked(ctx, tokenID)
	switch {
	case errors.Is(err, domain.ErrTokenRevoked):
		revoked = true
	case errors.Is(err, domain.ErrTokenNotFound):
		return domain.InvalidVerdict(tokenID, "token does not exist")
	case err != nil:
		return domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", err))
	}
	if revoked {
		return domain.RevokedVerdict(tokenID, ownerOrEmpty(local))
	}

	ok, err := uc.Ledger.Verify(ctx, tokenID, claimedHash)
	switch {
	case errors.Is(err, domain.ErrTokenRevoked):
		return domain.RevokedVerdict(tokenID, ownerOrEmpty(local))
	case errors.Is(err, domain.ErrTokenNotFound):
		return domain.InvalidVerdict(tokenID, "token does not exist")
	case err != nil:
		return domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", err))
	}
	if !ok {
		return domain.InvalidVerdict(tokenID, "ledger verification failed")
	}

	// A local record that disagrees with its own anchor is stale even when
	// the ledger accepted the claimed hash.
	if local != nil && !strings.EqualFold(local.MetadataHash, claimedHash) {
		return domain.InvalidVerdict(tokenID, "metadata hash mismatch")
	}

	owner := ownerOrEmpty(local)
	if owner == "" {
		owner, err = uc.Ledger.OwnerOf(ctx, tokenID)
		switch {
		case errors.Is(err, domain.ErrTokenRevoked):
			return domain.RevokedVerdict(tokenID, "")
		case err != nil:
			return domain.InvalidVerdict(tokenID, fmt.Sprintf("verification failed: %v", err))
		}
	}
	return domain.ValidVerdict(tokenID, owner, claimedHash)
}

func ownerOrEmpty(r *domain.Receipt) string {
	if r == nil {
		return ""
	}
	return r.OwnerAddress
}

func normalizeClaimedHash(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "0x")
	return strings.ToLower(h)
}

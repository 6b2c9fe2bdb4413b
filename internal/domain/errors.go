package domain

import "errors"

var (
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("receipt not found")
	ErrDuplicateInvoice = errors.New("invoice number already exists")
	ErrAlreadyRevoked   = errors.New("receipt already revoked")

	// Ledger faults. Timeout and reverted are distinct on purpose: a
	// timed-out confirmation poll says nothing about whether the
	// transaction eventually landed.
	ErrLedgerTimeout  = errors.New("ledger confirmation timeout")
	ErrLedgerReverted = errors.New("ledger transaction reverted")
	ErrTokenRevoked   = errors.New("token revoked on ledger")
	ErrTokenNotFound  = errors.New("token does not exist on ledger")
	ErrExtraction     = errors.New("token id not extractable from receipt")

	ErrContentStore = errors.New("content store operation failed")

	// ErrInconsistent marks a partial failure that left the ledger and the
	// local index out of sync. The on-ledger state is real; callers must
	// surface it, not retry it away.
	ErrInconsistent = errors.New("ledger and local index out of sync")
)

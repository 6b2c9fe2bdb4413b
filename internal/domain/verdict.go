package domain

type VerdictStatus string

const (
	VerdictValid   VerdictStatus = "valid"
	VerdictRevoked VerdictStatus = "revoked"
	VerdictInvalid VerdictStatus = "invalid"
)

// Verdict is the total outcome of verification. Verification never returns
// an error to its callers; unexpected faults become an invalid verdict with
// a reason.
type Verdict struct {
	Status       VerdictStatus
	TokenID      uint64
	OwnerAddress string
	MetadataHash string
	Reason       string
}

func ValidVerdict(tokenID uint64, ownerAddress, metadataHash string) Verdict {
	return Verdict{
		Status:       VerdictValid,
		TokenID:      tokenID,
		OwnerAddress: ownerAddress,
		MetadataHash: metadataHash,
	}
}

func RevokedVerdict(tokenID uint64, ownerAddress string) Verdict {
	return Verdict{
		Status:       VerdictRevoked,
		TokenID:      tokenID,
		OwnerAddress: ownerAddress,
	}
}

func InvalidVerdict(tokenID uint64, reason string) Verdict {
	return Verdict{
		Status:  VerdictInvalid,
		TokenID: tokenID,
		Reason:  reason,
	}
}

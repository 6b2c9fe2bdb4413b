package ledger

import (
	"fmt"
	"strings"

	"tarledger/internal/domain"
)

// The node reports contract reverts as untyped text. This is the only place
// allowed to inspect error strings; everything above this package sees the
// domain sentinels.
func reclassifyReadError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "TokenRevoked"):
		return fmt.Errorf("%w: %s", domain.ErrTokenRevoked, msg)
	case strings.Contains(msg, "ERC721NonexistentToken"):
		return fmt.Errorf("%w: %s", domain.ErrTokenNotFound, msg)
	default:
		return err
	}
}

package ledger

import (
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
)

// normalizeHash32 converts a hex-encoded hash into exactly 32 bytes for the
// contract's bytes32 arguments. Longer input is truncated to its first 32
// bytes, shorter input is zero-padded on the right. Both are deterministic;
// the warning makes the loss visible.
func normalizeHash32(hexHash string, log *zap.Logger) [32]byte {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexHash), "0x")
	if len(trimmed)%2 != 0 {
		trimmed = trimmed + "0"
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		log.Warn("hash is not valid hex, using decodable prefix",
			zap.String("hash", hexHash))
		raw = decodablePrefix(trimmed)
	}
	if len(raw) != 32 {
		log.Warn("hash is not 32 bytes, truncating or zero-padding",
			zap.Int("bytes", len(raw)))
	}
	copy(out[:], raw)
	return out
}

func decodablePrefix(s string) []byte {
	for end := len(s) - (len(s) % 2); end > 0; end -= 2 {
		if raw, err := hex.DecodeString(s[:end]); err == nil {
			return raw
		}
	}
	return nil
}

func hashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

package ledger

import (
	"encoding/hex"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNormalizeHash32(t *testing.T) {
	exact := strings.Repeat("ab", 32)
	cases := []struct {
		name  string
		input string
		want  string // hex of the 32-byte result
	}{
		{"exact 32 bytes", exact, exact},
		{"0x prefix stripped", "0x" + exact, exact},
		{"short input zero-padded right", "abcd", "abcd" + strings.Repeat("00", 30)},
		{"long input truncated", exact + "ffff", exact},
		{"empty input all zeros", "", strings.Repeat("00", 32)},
		{"odd length padded to even", "abc", "abc0" + strings.Repeat("00", 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeHash32(tc.input, zap.NewNop())
			if hex.EncodeToString(got[:]) != tc.want {
				t.Fatalf("normalize(%q) = %x, want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeHash32_Deterministic(t *testing.T) {
	inputs := []string{"", "ab", strings.Repeat("cd", 40), "zznothex"}
	for _, input := range inputs {
		first := normalizeHash32(input, zap.NewNop())
		second := normalizeHash32(input, zap.NewNop())
		if first != second {
			t.Fatalf("normalize(%q) not deterministic", input)
		}
	}
}

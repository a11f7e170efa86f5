package diamond

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Selector is the 4-byte identifier of one routable function.
type Selector [4]byte

// SelectorFromSignature returns the first four bytes of the Keccak-256 hash
// of a canonical function signature such as "transferOwnership(address)".
// Whitespace in the signature is ignored.
func SelectorFromSignature(signature string) Selector {
	canonical := strings.Join(strings.Fields(signature), "")

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(canonical))
	sum := h.Sum(nil)

	var s Selector
	copy(s[:], sum[:4])
	return s
}

// SelectorOf returns the selector at the start of calldata.
func SelectorOf(calldata []byte) (Selector, bool) {
	var s Selector
	if len(calldata) < len(s) {
		return s, false
	}
	copy(s[:], calldata)
	return s, true
}

// ParseSelector parses a hex selector with or without the 0x prefix.
func ParseSelector(str string) (Selector, error) {
	var s Selector
	b, err := decodeHex(str, len(s))
	if err != nil {
		return s, fmt.Errorf("invalid selector %q: %w", str, err)
	}
	copy(s[:], b)
	return s, nil
}

// MustParseSelector is like ParseSelector but panics on error.
func MustParseSelector(str string) Selector {
	s, err := ParseSelector(str)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Selector) UnmarshalText(b []byte) error {
	parsed, err := ParseSelector(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func decodeHex(str string, size int) ([]byte, error) {
	str = strings.TrimSpace(str)
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	if len(str) != size*2 {
		return nil, fmt.Errorf("expected %d hex digits, got %d", size*2, len(str))
	}
	return hex.DecodeString(str)
}

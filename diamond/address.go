package diamond

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address references a facet, an init target or an identity (owner,
// caller). The zero Address is the null reference.
type Address [20]byte

// ParseAddress parses a 20-byte hex address with or without the 0x prefix.
// Checksum casing is accepted but not verified.
func ParseAddress(str string) (Address, error) {
	var a Address
	b, err := decodeHex(str, len(a))
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", str, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(str string) Address {
	a, err := ParseAddress(str)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Calldata is an opaque call payload, hex encoded in text form.
type Calldata []byte

// ParseCalldata decodes hex calldata; "" and "0x" are empty calldata.
func ParseCalldata(str string) (Calldata, error) {
	str = strings.TrimSpace(str)
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	if len(str) == 0 {
		return Calldata{}, nil
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("invalid calldata: %w", err)
	}
	return b, nil
}

func (c Calldata) String() string {
	return "0x" + hex.EncodeToString(c)
}

func (c Calldata) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Calldata) UnmarshalText(b []byte) error {
	parsed, err := ParseCalldata(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

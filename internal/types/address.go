package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const AddressLength = 32

// Address is a caller identity or a custodial account. Identities are only
// ever compared for equality.
type Address [AddressLength]byte

var ZeroAddress Address

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

func (a Address) Bytes() []byte {
	return a[:]
}

// ParseAddress accepts a 64 character hex string, with or without 0x prefix.
func ParseAddress(s string) (Address, error) {
	var addr Address

	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != AddressLength*2 {
		return addr, fmt.Errorf("invalid address length %d, expected %d hex characters", len(s), AddressLength*2)
	}

	bz, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(addr[:], bz)

	return addr, nil
}

// DeriveAddress deterministically derives an address from a domain tag and
// seeds. Derived addresses act as program capabilities: the protocol config,
// each fog pool and each authorization record live at one.
func DeriveAddress(tag string, seeds ...[]byte) Address {
	return Address(*chainhash.TaggedHash([]byte(tag), seeds...))
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Address) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(a.Hex())
}

func (a *Address) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("cannot decode %s into address", t)
	}
	return a.UnmarshalText([]byte(s))
}

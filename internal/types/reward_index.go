package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// RewardIndex is the cumulative fee reward per staked base unit, scaled by
// the policy's reward index scale. It only grows, and outgrows 64 bits, so
// it is kept at arbitrary precision and persisted as a decimal string.
// The zero value is a zero index, and every zero index is the zero value.
type RewardIndex struct {
	v sdkmath.Uint
}

func NewRewardIndex(v sdkmath.Uint) RewardIndex {
	if v.IsNil() || v.IsZero() {
		return RewardIndex{}
	}
	return RewardIndex{v: v}
}

func (r RewardIndex) Uint() sdkmath.Uint {
	if r.v.IsNil() {
		return sdkmath.ZeroUint()
	}
	return r.v
}

func (r RewardIndex) String() string {
	return r.Uint().String()
}

func (r RewardIndex) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RewardIndex) UnmarshalText(text []byte) error {
	v, err := sdkmath.ParseUint(string(text))
	if err != nil {
		return fmt.Errorf("invalid reward index %q: %w", text, err)
	}
	*r = NewRewardIndex(v)
	return nil
}

func (r RewardIndex) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.String())
}

func (r *RewardIndex) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("cannot decode %s into reward index", t)
	}
	return r.UnmarshalText([]byte(s))
}

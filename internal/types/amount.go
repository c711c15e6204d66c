package types

import (
	"fmt"
	"math/big"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a token quantity in base units (6 decimals).
//
// It is persisted as Decimal128 so that the full uint64 range survives and
// range queries stay numeric.
type Amount uint64

func (a Amount) Uint64() uint64 {
	return uint64(a)
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, ok := primitive.ParseDecimal128FromBigInt(new(big.Int).SetUint64(uint64(a)), 0)
	if !ok {
		return 0, nil, fmt.Errorf("amount %d is not representable as decimal128", a)
	}
	return bson.MarshalValue(d)
}

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Int32:
		v, _ := rv.Int32OK()
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*a = Amount(v)
		return nil
	case bsontype.Int64:
		v, _ := rv.Int64OK()
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*a = Amount(v)
		return nil
	}

	d, ok := rv.Decimal128OK()
	if !ok {
		return fmt.Errorf("cannot decode %s into amount", t)
	}
	bi, exp, err := d.BigInt()
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", d, err)
	}
	if exp < 0 {
		return fmt.Errorf("fractional amount %s", d)
	}
	if exp > 0 {
		bi.Mul(bi, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}
	if bi.Sign() < 0 || !bi.IsUint64() {
		return fmt.Errorf("amount %s out of range", d)
	}
	*a = Amount(bi.Uint64())

	return nil
}

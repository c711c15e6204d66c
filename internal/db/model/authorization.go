package model

import (
	"encoding/binary"
	"time"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

const AuthorizationCollection = "authorizations"

const AuthorizationSeedTag = "authorization"

// AuthorizationAddress derives the key of the authorization issued on pool
// for spender with the given nonce.
func AuthorizationAddress(pool, spender types.Address, nonce uint64) types.Address {
	var nonceBz [8]byte
	binary.LittleEndian.PutUint64(nonceBz[:], nonce)
	return types.DeriveAddress(AuthorizationSeedTag, pool.Bytes(), spender.Bytes(), nonceBz[:])
}

type Authorization struct {
	Address           types.Address `bson:"_id"`
	FogPool           types.Address `bson:"fog_pool"`
	AuthorizedSpender types.Address `bson:"authorized_spender"`
	Issuer            types.Address `bson:"issuer"`
	Nonce             uint64        `bson:"nonce"`
	SpendingCap       types.Amount  `bson:"spending_cap"`
	AmountSpent       types.Amount  `bson:"amount_spent"`
	CreatedAt         time.Time     `bson:"created_at"`
	ExpiresAt         time.Time     `bson:"expires_at"`
	Purpose           string        `bson:"purpose"`
	IsActive          bool          `bson:"is_active"`
}

// Remaining is the unspent part of the cap.
func (a *Authorization) Remaining() types.Amount {
	if a.AmountSpent >= a.SpendingCap {
		return 0
	}
	return a.SpendingCap - a.AmountSpent
}

// Expired reports whether now is at or past the expiry.
func (a *Authorization) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// State derives the lifecycle state at now. Revocation wins over expiry,
// and expiry wins over exhaustion.
func (a *Authorization) State(now time.Time) types.AuthorizationState {
	switch {
	case !a.IsActive:
		return types.AuthorizationStateRevoked
	case a.Expired(now):
		return types.AuthorizationStateExpired
	case a.Remaining() == 0:
		return types.AuthorizationStateExhausted
	default:
		return types.AuthorizationStateActive
	}
}

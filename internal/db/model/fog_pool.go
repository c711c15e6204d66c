package model

import (
	"time"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

const FogPoolCollection = "fog_pools"

const (
	FogPoolSeedTag  = "fog_pool"
	FogVaultSeedTag = "fog_vault"
)

// FogPoolAddress derives the pool address from its seed. The address is
// also the capability the pool signs vault withdrawals with.
func FogPoolAddress(seed types.Address) types.Address {
	return types.DeriveAddress(FogPoolSeedTag, seed.Bytes())
}

// FogVaultAddress derives the custodial account that backs a pool.
func FogVaultAddress(seed types.Address) types.Address {
	return types.DeriveAddress(FogVaultSeedTag, seed.Bytes())
}

type FogPool struct {
	Address              types.Address `bson:"_id"`
	Authority            types.Address `bson:"authority"`
	Vault                types.Address `bson:"vault"`
	Seed                 types.Address `bson:"pool_seed"`
	TotalDeposited       types.Amount  `bson:"total_deposited"`
	TotalSpent           types.Amount  `bson:"total_spent"`
	TotalFeesGenerated   types.Amount  `bson:"total_fees_generated"`
	ActiveAuthorizations uint64        `bson:"active_authorizations"`
	CreatedAt            time.Time     `bson:"created_at"`
}

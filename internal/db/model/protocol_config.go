package model

import (
	"time"

	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

const ProtocolConfigCollection = "protocol_config"

// ProtocolConfigSeed is the derivation tag of the singleton config address,
// which is also the protocol's signing capability over its vaults.
const ProtocolConfigSeed = "protocol_config"

func ProtocolConfigAddress() types.Address {
	return types.DeriveAddress(ProtocolConfigSeed)
}

type ProtocolConfig struct {
	Address              types.Address         `bson:"_id"`
	Authority            types.Address         `bson:"authority"`
	FeeVault             types.Address         `bson:"fee_vault"`
	StakingVault         types.Address         `bson:"staking_vault"`
	FeeBasisPoints       uint16                `bson:"fee_basis_points"`
	TotalStaked          types.Amount          `bson:"total_staked"`
	TotalFeesCollected   types.Amount          `bson:"total_fees_collected"`
	TotalFeesDistributed types.Amount          `bson:"total_fees_distributed"`
	TotalFeesClaimed     types.Amount          `bson:"total_fees_claimed"`
	TotalFeesIndexed     types.Amount          `bson:"total_fees_indexed"`
	RewardIndex          types.RewardIndex     `bson:"reward_index"`
	Thresholds           policy.Thresholds     `bson:"thresholds"`
	CapMultipliers       policy.CapMultipliers `bson:"cap_multipliers"`
	CreatedAt            time.Time             `bson:"created_at"`
}

// Undistributed is the part of collected fees not yet allocated to any
// staker. It floors at zero.
func (p *ProtocolConfig) Undistributed() types.Amount {
	return policy.SaturatingSub(p.TotalFeesCollected, p.TotalFeesDistributed)
}

// AccrueRewards folds fees collected since the last call into RewardIndex,
// tracking the folded part of TotalFeesCollected in TotalFeesIndexed. Fees
// are shared over the current TotalStaked. With nothing staked the fees wait
// for the next staker.
func (p *ProtocolConfig) AccrueRewards() error {
	if p.TotalStaked == 0 {
		return nil
	}
	fees := policy.SaturatingSub(p.TotalFeesCollected, p.TotalFeesIndexed)
	if fees == 0 {
		return nil
	}

	index, err := policy.AccrueRewardIndex(p.RewardIndex, fees, p.TotalStaked)
	if err != nil {
		return err
	}
	p.RewardIndex = index
	p.TotalFeesIndexed = p.TotalFeesCollected
	return nil
}

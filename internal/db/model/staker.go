package model

import (
	"time"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

const StakerCollection = "stakers"

type Staker struct {
	User               types.Address `bson:"_id"`
	StakedAmount       types.Amount  `bson:"staked_amount"`
	PendingRewards     types.Amount  `bson:"pending_rewards"`
	LastClaimTimestamp time.Time     `bson:"last_claim_timestamp"`
	// RewardIndex is the protocol reward index this staker was last
	// settled at.
	RewardIndex types.RewardIndex `bson:"reward_index"`
	// Tier is a cache of policy.CalculateTier over StakedAmount.
	Tier types.Tier `bson:"tier"`
}

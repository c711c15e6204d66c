// Package policy holds the pure arithmetic of the protocol: fees, staking
// tiers, tier spending caps and proportional fee shares. Nothing here reads
// or writes state.
package policy

import (
	sdkmath "cosmossdk.io/math"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

const (
	// MaxFeeBasisPoints caps the protocol fee at 10%.
	MaxFeeBasisPoints uint16 = 1000
	// BasisPointsDenominator is 100% expressed in basis points.
	BasisPointsDenominator uint64 = 10_000

	// BaseCap is the spending cap unit that tier multipliers scale (1,000 tokens).
	BaseCap types.Amount = 1_000_000_000
	// CapMultiplierDenominator turns a multiplier into a ratio of BaseCap:
	// 100 is 1x.
	CapMultiplierDenominator uint64 = 100
	// NonStakerCapMultiplier applies to tier 0 and to spenders with no
	// staking record at all.
	NonStakerCapMultiplier uint16 = 50

	// MaxPurposeLength is the longest purpose text an authorization may carry.
	MaxPurposeLength = 64

	// RewardIndexScale is the fixed point precision of the reward index.
	RewardIndexScale uint64 = 1_000_000_000_000_000_000
)

// Thresholds are the minimum stakes for each tier, ascending.
type Thresholds struct {
	Bronze types.Amount `bson:"bronze" json:"bronze"`
	Silver types.Amount `bson:"silver" json:"silver"`
	Gold   types.Amount `bson:"gold" json:"gold"`
}

// CapMultipliers scale BaseCap per tier, in hundredths.
type CapMultipliers struct {
	Bronze uint16 `bson:"bronze" json:"bronze"`
	Silver uint16 `bson:"silver" json:"silver"`
	Gold   uint16 `bson:"gold" json:"gold"`
}

// DefaultThresholds are 100, 1,000 and 10,000 tokens at 6 decimals.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Bronze: 100_000_000,
		Silver: 1_000_000_000,
		Gold:   10_000_000_000,
	}
}

// DefaultCapMultipliers are 1x, 5x and 10x BaseCap.
func DefaultCapMultipliers() CapMultipliers {
	return CapMultipliers{
		Bronze: 100,
		Silver: 500,
		Gold:   1000,
	}
}

func ValidateFee(feeBasisPoints uint16) error {
	if feeBasisPoints > MaxFeeBasisPoints {
		return types.NewErrorf(types.FeeTooHigh, "fee %d bps exceeds max %d bps", feeBasisPoints, MaxFeeBasisPoints)
	}
	return nil
}

// CalculateTier returns the highest tier whose threshold stakedAmount meets.
// Thresholds are checked gold first, so a stake equal to a threshold lands
// in that tier.
func CalculateTier(stakedAmount types.Amount, th Thresholds) types.Tier {
	switch {
	case stakedAmount >= th.Gold:
		return types.TierGold
	case stakedAmount >= th.Silver:
		return types.TierSilver
	case stakedAmount >= th.Bronze:
		return types.TierBronze
	default:
		return types.TierNone
	}
}

func multiplierForTier(tier types.Tier, m CapMultipliers) uint16 {
	switch tier {
	case types.TierGold:
		return m.Gold
	case types.TierSilver:
		return m.Silver
	case types.TierBronze:
		return m.Bronze
	default:
		return NonStakerCapMultiplier
	}
}

// MaxCapForTier is BaseCap * multiplier(tier) / 100.
func MaxCapForTier(tier types.Tier, m CapMultipliers) types.Amount {
	capValue := sdkmath.NewUint(BaseCap.Uint64()).
		MulUint64(uint64(multiplierForTier(tier, m))).
		QuoUint64(CapMultiplierDenominator)

	// a uint16 multiplier over 100 cannot push BaseCap past uint64
	return types.Amount(capValue.Uint64())
}

// CalculateFee splits amount into the protocol fee, floor(amount*bps/10000),
// and the net remainder. fee+net always equals amount.
func CalculateFee(amount types.Amount, feeBasisPoints uint16) (fee, net types.Amount, err error) {
	feeValue := sdkmath.NewUint(amount.Uint64()).
		MulUint64(uint64(feeBasisPoints)).
		QuoUint64(BasisPointsDenominator)

	fee, err = narrow(feeValue)
	if err != nil {
		return 0, 0, err
	}
	net, err = CheckedSub(amount, fee)
	if err != nil {
		return 0, 0, err
	}

	return fee, net, nil
}

// AccrueRewardIndex folds fees into the reward index, spreading them over
// totalStaked: index += fees * RewardIndexScale / totalStaked. The flooring
// remainder stays unallocated.
func AccrueRewardIndex(index types.RewardIndex, fees, totalStaked types.Amount) (types.RewardIndex, error) {
	if totalStaked == 0 {
		return index, types.ErrNoStakers
	}
	if fees == 0 {
		return index, nil
	}

	delta := sdkmath.NewUint(fees.Uint64()).
		Mul(sdkmath.NewUint(RewardIndexScale)).
		QuoUint64(totalStaked.Uint64())

	return types.NewRewardIndex(index.Uint().Add(delta)), nil
}

// AccruedRewards is what staked earned while the index moved from
// checkpoint to current: floor(staked * (current - checkpoint) / RewardIndexScale).
// It depends only on the stake, never on how many others settled first.
func AccruedRewards(staked types.Amount, checkpoint, current types.RewardIndex) (types.Amount, error) {
	from, to := checkpoint.Uint(), current.Uint()
	if !to.GT(from) {
		return 0, nil
	}

	owed := sdkmath.NewUint(staked.Uint64()).
		Mul(to.Sub(from)).
		QuoUint64(RewardIndexScale)

	return narrow(owed)
}

func CheckedAdd(a, b types.Amount) (types.Amount, error) {
	return narrow(sdkmath.NewUint(a.Uint64()).AddUint64(b.Uint64()))
}

func CheckedSub(a, b types.Amount) (types.Amount, error) {
	if b > a {
		return 0, types.NewErrorf(types.Overflow, "arithmetic underflow: %d - %d", a, b)
	}
	return a - b, nil
}

// SaturatingSub floors at zero instead of failing.
func SaturatingSub(a, b types.Amount) types.Amount {
	if b > a {
		return 0
	}
	return a - b
}

func narrow(v sdkmath.Uint) (types.Amount, error) {
	bi := v.BigInt()
	if !bi.IsUint64() {
		return 0, types.NewErrorf(types.Overflow, "arithmetic overflow: %s does not fit in 64 bits", v)
	}
	return types.Amount(bi.Uint64()), nil
}

package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// Stake moves amount from the user's account into the staking vault. The
// staking record is created on first stake.
func (s *Service) Stake(ctx context.Context, user types.Address, amount types.Amount) (*model.Staker, error) {
	if amount == 0 {
		return nil, types.ErrInvalidAmount
	}

	var (
		result  *model.Staker
		settled types.Amount
	)
	err := s.run(ctx, "Stake", func(ctx context.Context, t *transition) error {
		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}
		if err := cfg.AccrueRewards(); err != nil {
			return err
		}

		staker, err := t.tx.GetStaker(ctx, user)
		switch {
		case db.IsNotFoundError(err):
			staker = &model.Staker{
				User:               user,
				LastClaimTimestamp: t.now,
				RewardIndex:        cfg.RewardIndex,
			}
		case err != nil:
			return storageError(err, "staker")
		default:
			// earnings so far belong to the old stake
			settled, err = s.settleOnStakeChange(t, cfg, staker)
			if err != nil {
				return err
			}
		}

		staker.StakedAmount, err = policy.CheckedAdd(staker.StakedAmount, amount)
		if err != nil {
			return err
		}
		staker.Tier = policy.CalculateTier(staker.StakedAmount, cfg.Thresholds)

		cfg.TotalStaked, err = policy.CheckedAdd(cfg.TotalStaked, amount)
		if err != nil {
			return err
		}

		if err := t.tx.SaveStaker(ctx, staker); err != nil {
			return storageError(err, "staker")
		}
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.transfer(user, cfg.StakingVault, custody.UserAuthority(user), amount)
		t.emit(types.Staked{
			User:     user,
			Amount:   amount,
			NewTotal: staker.StakedAmount,
			Tier:     staker.Tier,
		})

		result = staker
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordSettlement(settled)
	log.Ctx(ctx).Debug().
		Stringer("user", user).
		Stringer("amount", amount).
		Stringer("staked", result.StakedAmount).
		Stringer("tier", result.Tier).
		Msg("staked")

	return result, nil
}

// Unstake returns amount from the staking vault to the user. The staking
// record stays even when the stake drops to zero.
func (s *Service) Unstake(ctx context.Context, user types.Address, amount types.Amount) (*model.Staker, error) {
	if amount == 0 {
		return nil, types.ErrInvalidAmount
	}

	var (
		result  *model.Staker
		settled types.Amount
	)
	err := s.run(ctx, "Unstake", func(ctx context.Context, t *transition) error {
		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}
		if err := cfg.AccrueRewards(); err != nil {
			return err
		}

		staker, err := t.tx.GetStaker(ctx, user)
		if err != nil {
			if db.IsNotFoundError(err) {
				return types.ErrNotStaking
			}
			return storageError(err, "staker")
		}
		if amount > staker.StakedAmount {
			return types.NewErrorf(types.InsufficientStake,
				"cannot unstake %d, only %d staked", amount, staker.StakedAmount)
		}

		settled, err = s.settleOnStakeChange(t, cfg, staker)
		if err != nil {
			return err
		}

		staker.StakedAmount -= amount
		staker.Tier = policy.CalculateTier(staker.StakedAmount, cfg.Thresholds)
		cfg.TotalStaked = policy.SaturatingSub(cfg.TotalStaked, amount)

		if err := t.tx.SaveStaker(ctx, staker); err != nil {
			return storageError(err, "staker")
		}
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.transfer(cfg.StakingVault, user, protocolAuthority(), amount)
		t.emit(types.Unstaked{
			User:      user,
			Amount:    amount,
			Remaining: staker.StakedAmount,
			Tier:      staker.Tier,
		})

		result = staker
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordSettlement(settled)
	log.Ctx(ctx).Debug().
		Stringer("user", user).
		Stringer("amount", amount).
		Stringer("staked", result.StakedAmount).
		Stringer("tier", result.Tier).
		Msg("unstaked")

	return result, nil
}

// settleOnStakeChange settles the staker before their stake changes, so
// the new stake only earns from fees collected afterwards.
func (s *Service) settleOnStakeChange(t *transition, cfg *model.ProtocolConfig, staker *model.Staker) (types.Amount, error) {
	owed, err := settleRewards(cfg, staker)
	if err != nil || owed == 0 {
		return 0, err
	}
	t.emit(types.FeesDistributed{
		Staker:        staker.User,
		Amount:        owed,
		Undistributed: cfg.Undistributed(),
	})
	return owed, nil
}

func recordSettlement(amount types.Amount) {
	if amount > 0 {
		metrics.RecordRewardsDistributed(amount.Uint64())
	}
}

func (s *Service) GetStaker(ctx context.Context, user types.Address) (*model.Staker, error) {
	staker, err := s.db.GetStaker(ctx, user)
	if err != nil {
		return nil, storageError(err, "staker")
	}
	return staker, nil
}

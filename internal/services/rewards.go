package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// DistributeFees credits the staker's pending rewards with what their stake
// earned since they were last settled. Fees are shared through a reward
// index, so every staker's share is proportional to stake whatever order
// the calls come in. It is permissionless and returns the credited amount,
// which is zero when there is nothing to credit.
func (s *Service) DistributeFees(ctx context.Context, staker types.Address) (types.Amount, error) {
	var share types.Amount
	err := s.run(ctx, "DistributeFees", func(ctx context.Context, t *transition) error {
		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}
		if cfg.TotalStaked == 0 {
			return nil
		}

		record, err := t.tx.GetStaker(ctx, staker)
		if err != nil {
			if db.IsNotFoundError(err) {
				return types.ErrNotStaking
			}
			return storageError(err, "staker")
		}
		if record.StakedAmount == 0 {
			return types.ErrNotStaking
		}

		if cfg.Undistributed() == 0 {
			return nil
		}
		if err := cfg.AccrueRewards(); err != nil {
			return err
		}

		share, err = settleRewards(cfg, record)
		if err != nil {
			return err
		}
		if share == 0 {
			return nil
		}

		if err := t.tx.SaveStaker(ctx, record); err != nil {
			return storageError(err, "staker")
		}
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.emit(types.FeesDistributed{
			Staker:        staker,
			Amount:        share,
			Undistributed: cfg.Undistributed(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if share > 0 {
		metrics.RecordRewardsDistributed(share.Uint64())
		log.Ctx(ctx).Debug().
			Stringer("staker", staker).
			Stringer("amount", share).
			Msg("fees distributed")
	}

	return share, nil
}

// settleRewards credits staker with what their stake earned between their
// checkpoint and the current reward index, then moves the checkpoint. cfg
// must be accrued first.
func settleRewards(cfg *model.ProtocolConfig, staker *model.Staker) (types.Amount, error) {
	owed, err := policy.AccruedRewards(staker.StakedAmount, staker.RewardIndex, cfg.RewardIndex)
	if err != nil {
		return 0, err
	}
	staker.RewardIndex = cfg.RewardIndex

	// a lagging total_staked must not hand out more than was collected
	owed = min(owed, cfg.Undistributed())
	if owed == 0 {
		return 0, nil
	}

	staker.PendingRewards, err = policy.CheckedAdd(staker.PendingRewards, owed)
	if err != nil {
		return 0, err
	}
	cfg.TotalFeesDistributed, err = policy.CheckedAdd(cfg.TotalFeesDistributed, owed)
	if err != nil {
		return 0, err
	}
	return owed, nil
}

// ClaimRewards pays out the user's pending rewards from the fee vault.
func (s *Service) ClaimRewards(ctx context.Context, user types.Address) (types.Amount, error) {
	var amount types.Amount
	err := s.run(ctx, "ClaimRewards", func(ctx context.Context, t *transition) error {
		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}

		staker, err := t.tx.GetStaker(ctx, user)
		if err != nil {
			if db.IsNotFoundError(err) {
				return types.ErrNoRewardsToClaim
			}
			return storageError(err, "staker")
		}
		if staker.PendingRewards == 0 {
			return types.ErrNoRewardsToClaim
		}

		amount = staker.PendingRewards
		staker.PendingRewards = 0
		staker.LastClaimTimestamp = t.now

		cfg.TotalFeesClaimed, err = policy.CheckedAdd(cfg.TotalFeesClaimed, amount)
		if err != nil {
			return err
		}

		if err := t.tx.SaveStaker(ctx, staker); err != nil {
			return storageError(err, "staker")
		}
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.transfer(cfg.FeeVault, user, protocolAuthority(), amount)
		t.emit(types.RewardsClaimed{
			User:   user,
			Amount: amount,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordRewardsClaimed(amount.Uint64())
	log.Ctx(ctx).Debug().
		Stringer("user", user).
		Stringer("amount", amount).
		Msg("rewards claimed")

	return amount, nil
}

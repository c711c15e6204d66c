package services

import (
	"context"
	"sync/atomic"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/types"
	"github.com/shade-protocol/shade-ledger/internal/utils/poller"
)

const feeDistributionPoller = "fee_distribution"

// StartKeeper blocks, running DistributeToAll every distribution interval
// until ctx is cancelled.
func (s *Service) StartKeeper(ctx context.Context) {
	p := poller.NewPoller(
		s.keeperCfg.DistributionInterval,
		metrics.InstrumentPoll(feeDistributionPoller, func(ctx context.Context) error {
			_, err := s.DistributeToAll(ctx)
			return err
		}),
	)
	p.Start(ctx)
}

// DistributeToAll runs DistributeFees for every staker with a non-zero stake.
// Each staker is its own transition. Typed failures are final for that
// staker and do not stop the round; infrastructure failures are retried and
// the last one is returned after every staker has been attempted.
func (s *Service) DistributeToAll(ctx context.Context) (types.Amount, error) {
	stakers, err := s.db.ListStakers(ctx, 1)
	if err != nil {
		return 0, storageError(err, "stakers")
	}
	if len(stakers) == 0 {
		return 0, nil
	}

	var distributed atomic.Uint64
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(s.keeperCfg.MaxConcurrency)

	for _, staker := range stakers {
		p.Go(func(ctx context.Context) error {
			share, err := s.distributeWithRetry(ctx, staker)
			metrics.RecordKeeperDistribution(types.CodeOf(err).String())
			if err != nil {
				if types.IsTyped(err) {
					log.Ctx(ctx).Debug().Err(err).Stringer("staker", staker.User).Msg("skipping staker")
					return nil
				}
				return err
			}
			distributed.Add(share.Uint64())
			return nil
		})
	}

	err = p.Wait()
	total := types.Amount(distributed.Load())

	log.Ctx(ctx).Info().
		Int("stakers", len(stakers)).
		Stringer("distributed", total).
		Msg("fee distribution round finished")

	return total, err
}

func (s *Service) distributeWithRetry(ctx context.Context, staker *model.Staker) (types.Amount, error) {
	return retry.DoWithData(
		func() (types.Amount, error) {
			return s.DistributeFees(ctx, staker.User)
		},
		retry.Context(ctx),
		retry.Attempts(s.keeperCfg.MaxRetryTimes),
		retry.Delay(s.keeperCfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !types.IsTyped(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Uint("attempt", n+1).
				Uint("max_attempts", s.keeperCfg.MaxRetryTimes).
				Stringer("staker", staker.User).
				Err(err).
				Msg("retrying fee distribution")
		}),
	)
}

func (s *Service) ListEvents(ctx context.Context, afterSeq uint64, limit int64) ([]*model.EventRecord, error) {
	records, err := s.db.ListEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, storageError(err, "events")
	}
	return records, nil
}

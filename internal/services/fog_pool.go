package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// InitializePool creates a fog pool and its vault. Pool and vault addresses
// are derived from seed, so a seed can back at most one pool.
func (s *Service) InitializePool(ctx context.Context, authority, seed types.Address) (*model.FogPool, error) {
	var result *model.FogPool
	err := s.run(ctx, "InitializePool", func(ctx context.Context, t *transition) error {
		pool := &model.FogPool{
			Address:   model.FogPoolAddress(seed),
			Authority: authority,
			Vault:     model.FogVaultAddress(seed),
			Seed:      seed,
			CreatedAt: t.now,
		}
		if err := t.tx.InsertFogPool(ctx, pool); err != nil {
			return storageError(err, "fog pool")
		}

		t.openAccount(pool.Vault, custody.DerivedAuthority(pool.Address))
		t.emit(types.FogPoolCreated{
			Pool:      pool.Address,
			Authority: authority,
			Vault:     pool.Vault,
		})

		result = pool
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Stringer("pool", result.Address).
		Stringer("authority", authority).
		Msg("fog pool created")

	return result, nil
}

// Deposit moves amount from the depositor into the pool's vault. Anyone may
// deposit.
func (s *Service) Deposit(ctx context.Context, depositor, poolAddress types.Address, amount types.Amount) (*model.FogPool, error) {
	if amount == 0 {
		return nil, types.ErrInvalidAmount
	}

	var result *model.FogPool
	err := s.run(ctx, "Deposit", func(ctx context.Context, t *transition) error {
		pool, err := t.tx.GetFogPool(ctx, poolAddress)
		if err != nil {
			return storageError(err, "fog pool")
		}

		pool.TotalDeposited, err = policy.CheckedAdd(pool.TotalDeposited, amount)
		if err != nil {
			return err
		}
		if err := t.tx.UpdateFogPool(ctx, pool); err != nil {
			return storageError(err, "fog pool")
		}

		t.transfer(depositor, pool.Vault, custody.UserAuthority(depositor), amount)
		t.emit(types.DepositMade{
			Pool:           pool.Address,
			Depositor:      depositor,
			Amount:         amount,
			TotalDeposited: pool.TotalDeposited,
		})

		result = pool
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Debug().
		Stringer("pool", poolAddress).
		Stringer("depositor", depositor).
		Stringer("amount", amount).
		Msg("deposit made")

	return result, nil
}

func (s *Service) GetFogPool(ctx context.Context, poolAddress types.Address) (*model.FogPool, error) {
	pool, err := s.db.GetFogPool(ctx, poolAddress)
	if err != nil {
		return nil, storageError(err, "fog pool")
	}
	return pool, nil
}

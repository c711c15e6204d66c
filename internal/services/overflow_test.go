package services_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
	"github.com/shade-protocol/shade-ledger/testutil"
)

const nearMax = types.Amount(math.MaxUint64 - 10)

// seed writes state directly to the store, bypassing the service.
func (h *harness) seed(t *testing.T, fn func(ctx context.Context, tx db.Tx) error) {
	t.Helper()
	require.NoError(t, h.store.RunInTx(t.Context(), fn))
}

func (h *harness) seedProtocolConfig(t *testing.T, mutate func(cfg *model.ProtocolConfig)) {
	t.Helper()
	h.seed(t, func(ctx context.Context, tx db.Tx) error {
		cfg, err := tx.GetProtocolConfig(ctx)
		if err != nil {
			return err
		}
		mutate(cfg)
		return tx.UpdateProtocolConfig(ctx, cfg)
	})
}

func (h *harness) seedFogPool(t *testing.T, pool types.Address, mutate func(pool *model.FogPool)) {
	t.Helper()
	h.seed(t, func(ctx context.Context, tx db.Tx) error {
		stored, err := tx.GetFogPool(ctx, pool)
		if err != nil {
			return err
		}
		mutate(stored)
		return tx.UpdateFogPool(ctx, stored)
	})
}

// ledgerState is what a rejected transition must leave untouched.
type ledgerState struct {
	cfg      *model.ProtocolConfig
	events   []types.EventType
	balances map[types.Address]types.Amount
}

func (h *harness) ledgerState(t *testing.T, accounts ...types.Address) ledgerState {
	t.Helper()
	state := ledgerState{
		cfg:      h.protocolConfig(t),
		events:   h.eventTypes(t),
		balances: make(map[types.Address]types.Amount, len(accounts)),
	}
	for _, account := range accounts {
		state.balances[account] = h.balance(t, account)
	}
	return state
}

func (h *harness) requireUnchanged(t *testing.T, before ledgerState) {
	t.Helper()
	accounts := make([]types.Address, 0, len(before.balances))
	for account := range before.balances {
		accounts = append(accounts, account)
	}
	assert.Equal(t, before, h.ledgerState(t, accounts...))
}

func TestStakeOverflow(t *testing.T) {
	t.Run("staked amount", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		h.seed(t, func(ctx context.Context, tx db.Tx) error {
			staker, err := tx.GetStaker(ctx, alice)
			if err != nil {
				return err
			}
			staker.StakedAmount = nearMax
			if err := tx.SaveStaker(ctx, staker); err != nil {
				return err
			}
			cfg, err := tx.GetProtocolConfig(ctx)
			if err != nil {
				return err
			}
			cfg.TotalStaked = nearMax
			return tx.UpdateProtocolConfig(ctx, cfg)
		})
		h.fund(t, alice, 100)
		stakerBefore, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		before := h.ledgerState(t, alice, h.stakingVault)

		_, err = h.svc.Stake(t.Context(), alice, 100)
		requireCode(t, err, types.Overflow)

		h.requireUnchanged(t, before)
		stakerAfter, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, stakerBefore, stakerAfter)
	})
	t.Run("total staked", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		h.seedProtocolConfig(t, func(cfg *model.ProtocolConfig) { cfg.TotalStaked = nearMax })
		h.fund(t, alice, 100)
		stakerBefore, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		before := h.ledgerState(t, alice, h.stakingVault)

		_, err = h.svc.Stake(t.Context(), alice, 100)
		requireCode(t, err, types.Overflow)

		h.requireUnchanged(t, before)
		stakerAfter, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, stakerBefore, stakerAfter)
		assert.Equal(t, types.Amount(1_000), stakerAfter.StakedAmount)
	})
}

func TestDepositOverflow(t *testing.T) {
	h := newInitializedHarness(t, 100)
	pool := h.fundedPool(t, 1_000)
	h.seedFogPool(t, pool.Address, func(pool *model.FogPool) { pool.TotalDeposited = nearMax })

	depositor := testutil.RandomAddress()
	h.fund(t, depositor, 100)
	poolBefore, err := h.svc.GetFogPool(t.Context(), pool.Address)
	require.NoError(t, err)
	before := h.ledgerState(t, depositor, pool.Vault)

	_, err = h.svc.Deposit(t.Context(), depositor, pool.Address, 100)
	requireCode(t, err, types.Overflow)

	h.requireUnchanged(t, before)
	poolAfter, err := h.svc.GetFogPool(t.Context(), pool.Address)
	require.NoError(t, err)
	assert.Equal(t, poolBefore, poolAfter)
}

func TestSpendOverflow(t *testing.T) {
	testCases := []struct {
		name string
		seed func(h *harness, t *testing.T, pool types.Address)
	}{
		{
			name: "pool total spent",
			seed: func(h *harness, t *testing.T, pool types.Address) {
				h.seedFogPool(t, pool, func(pool *model.FogPool) { pool.TotalSpent = nearMax })
			},
		},
		{
			name: "total fees collected",
			seed: func(h *harness, t *testing.T, _ types.Address) {
				h.seedProtocolConfig(t, func(cfg *model.ProtocolConfig) { cfg.TotalFeesCollected = nearMax })
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newInitializedHarness(t, 100)
			pool := h.fundedPool(t, 100_000)
			spender := testutil.RandomAddress()
			recipient := testutil.RandomAddress()
			auth := h.authorize(t, pool, spender, 100_000)
			tc.seed(h, t, pool.Address)

			poolBefore, err := h.svc.GetFogPool(t.Context(), pool.Address)
			require.NoError(t, err)
			before := h.ledgerState(t, pool.Vault, recipient, h.feeVault)

			_, err = h.svc.Spend(t.Context(), services.SpendRequest{
				Spender:       spender,
				Authorization: auth.Address,
				Recipient:     recipient,
				Amount:        50_000,
			})
			requireCode(t, err, types.Overflow)

			h.requireUnchanged(t, before)
			poolAfter, err := h.svc.GetFogPool(t.Context(), pool.Address)
			require.NoError(t, err)
			assert.Equal(t, poolBefore, poolAfter)
			authAfter, err := h.svc.GetAuthorization(t.Context(), auth.Address)
			require.NoError(t, err)
			assert.Zero(t, authAfter.AmountSpent)
		})
	}
}

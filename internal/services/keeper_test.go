package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// flakyStore fails the next failures transitions with an untyped error.
type flakyStore struct {
	*db.MemoryDatabase
	failures atomic.Int64
	calls    atomic.Int64
}

func (f *flakyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return errors.New("write conflict")
	}
	return f.MemoryDatabase.RunInTx(ctx, fn)
}

func TestDistributeToAll(t *testing.T) {
	t.Run("every staker gets a share", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		stakers := []types.Address{
			h.stake(t, 1_000_000),
			h.stake(t, 1_000_000),
			h.stake(t, 1_000_000),
		}
		leaver := h.stake(t, 10)
		_, err := h.svc.Unstake(t.Context(), leaver, 10)
		require.NoError(t, err)
		h.collectFees(t, 100_000)

		distributed, err := h.svc.DistributeToAll(t.Context())
		require.NoError(t, err)
		assert.Equal(t, h.protocolConfig(t).TotalFeesDistributed, distributed)

		var pending types.Amount
		for _, user := range stakers {
			staker, err := h.svc.GetStaker(t.Context(), user)
			require.NoError(t, err)
			assert.Positive(t, uint64(staker.PendingRewards))
			pending += staker.PendingRewards
		}
		assert.Equal(t, distributed, pending)
		first, err := h.svc.GetStaker(t.Context(), stakers[0])
		require.NoError(t, err)
		for _, user := range stakers[1:] {
			staker, err := h.svc.GetStaker(t.Context(), user)
			require.NoError(t, err)
			assert.Equal(t, first.PendingRewards, staker.PendingRewards)
		}

		leaverRecord, err := h.svc.GetStaker(t.Context(), leaver)
		require.NoError(t, err)
		assert.Zero(t, leaverRecord.PendingRewards)
	})
	t.Run("no stakers", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		distributed, err := h.svc.DistributeToAll(t.Context())
		require.NoError(t, err)
		assert.Zero(t, distributed)
	})
	t.Run("transient failures are retried", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		h.stake(t, 1_000_000)
		h.stake(t, 1_000_000)
		h.collectFees(t, 100_000)

		store := &flakyStore{MemoryDatabase: h.store}
		store.failures.Store(2)
		svc := services.NewService(testKeeperConfig(), store, h.bank, h.recorder, h.clock)

		distributed, err := svc.DistributeToAll(t.Context())
		require.NoError(t, err)
		assert.Positive(t, uint64(distributed))
		assert.Equal(t, int64(4), store.calls.Load())
	})
	t.Run("persistent failure is reported", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		h.stake(t, 1_000_000)
		h.collectFees(t, 100_000)

		store := &flakyStore{MemoryDatabase: h.store}
		store.failures.Store(1_000)
		svc := services.NewService(testKeeperConfig(), store, h.bank, h.recorder, h.clock)

		_, err := svc.DistributeToAll(t.Context())
		require.Error(t, err)
		assert.False(t, types.IsTyped(err))
		assert.Equal(t, int64(testKeeperConfig().MaxRetryTimes), store.calls.Load())
		assert.Zero(t, h.protocolConfig(t).TotalFeesDistributed)
	})
}

func TestStartKeeper(t *testing.T) {
	h := newInitializedHarness(t, 100)
	h.stake(t, 1_000_000)
	h.collectFees(t, 100_000)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.svc.StartKeeper(ctx)
	}()

	require.Eventually(t, func() bool {
		cfg, err := h.svc.GetProtocolConfig(t.Context())
		return err == nil && cfg.TotalFeesDistributed == cfg.TotalFeesCollected
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop after cancellation")
	}
}

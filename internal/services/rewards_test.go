package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
	"github.com/shade-protocol/shade-ledger/testutil"
)

func (h *harness) stake(t *testing.T, amount types.Amount) types.Address {
	t.Helper()
	user := testutil.RandomAddress()
	h.fund(t, user, amount)
	_, err := h.svc.Stake(t.Context(), user, amount)
	require.NoError(t, err)
	return user
}

// collectFees runs one spend through a fresh pool so that the protocol
// collects fee.
func (h *harness) collectFees(t *testing.T, amount types.Amount) {
	t.Helper()
	pool := h.fundedPool(t, amount)
	spender := testutil.RandomAddress()
	auth := h.authorize(t, pool, spender, amount)

	_, err := h.svc.Spend(t.Context(), services.SpendRequest{
		Spender:       spender,
		Authorization: auth.Address,
		Recipient:     testutil.RandomAddress(),
		Amount:        amount,
	})
	require.NoError(t, err)
}

func TestDistributeFees(t *testing.T) {
	t.Run("proportional shares", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 3_000_000)
		bob := h.stake(t, 1_000_000)
		h.collectFees(t, 100_000)
		require.Equal(t, types.Amount(1_000), h.protocolConfig(t).TotalFeesCollected)

		share, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(750), share)

		share, err = h.svc.DistributeFees(t.Context(), bob)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(250), share)

		cfg := h.protocolConfig(t)
		assert.Equal(t, types.Amount(1_000), cfg.TotalFeesDistributed)
		assert.Zero(t, cfg.Undistributed())

		staker, err := h.svc.GetStaker(t.Context(), bob)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(250), staker.PendingRewards)

		records, err := h.svc.ListEvents(t.Context(), 0, 0)
		require.NoError(t, err)
		decoded, err := records[len(records)-1].Decode()
		require.NoError(t, err)
		assert.Equal(t, &types.FeesDistributed{Staker: bob, Amount: 250, Undistributed: 0}, decoded)
	})
	t.Run("equal stakes earn equally in any order", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		bob := h.stake(t, 1_000)

		for round := 0; round < 40; round++ {
			h.collectFees(t, 100_000)
			order := []types.Address{alice, bob}
			if round%2 == 1 {
				order = []types.Address{bob, alice}
			}
			for _, user := range order {
				_, err := h.svc.DistributeFees(t.Context(), user)
				require.NoError(t, err)
			}
		}

		aliceRecord, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		bobRecord, err := h.svc.GetStaker(t.Context(), bob)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(20_000), aliceRecord.PendingRewards)
		assert.Equal(t, aliceRecord.PendingRewards, bobRecord.PendingRewards)
		assert.Zero(t, h.protocolConfig(t).Undistributed())
	})
	t.Run("later stakers do not share earlier fees", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		h.collectFees(t, 100_000)
		bob := h.stake(t, 1_000)
		eventsBefore := h.eventTypes(t)

		share, err := h.svc.DistributeFees(t.Context(), bob)
		require.NoError(t, err)
		assert.Zero(t, share)
		assert.Equal(t, eventsBefore, h.eventTypes(t))

		share, err = h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(1_000), share)
	})
	t.Run("fees collected with nothing staked go to the next staker", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		h.collectFees(t, 100_000)
		alice := h.stake(t, 1_000)

		share, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(1_000), share)
	})
	t.Run("stake changes settle earlier earnings", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		bob := h.stake(t, 1_000)
		h.collectFees(t, 100_000)

		h.fund(t, alice, 2_000)
		_, err := h.svc.Stake(t.Context(), alice, 2_000)
		require.NoError(t, err)
		events := h.eventTypes(t)
		assert.Equal(t, []types.EventType{types.EventFeesDistributed, types.EventStaked}, events[len(events)-2:])

		aliceRecord, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(500), aliceRecord.PendingRewards)

		// the second round is shared 3:1 after alice's top up
		h.collectFees(t, 100_000)
		_, err = h.svc.Unstake(t.Context(), bob, 1_000)
		require.NoError(t, err)
		events = h.eventTypes(t)
		assert.Equal(t, []types.EventType{types.EventFeesDistributed, types.EventUnstaked}, events[len(events)-2:])

		bobRecord, err := h.svc.GetStaker(t.Context(), bob)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(750), bobRecord.PendingRewards)

		share, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(750), share)

		cfg := h.protocolConfig(t)
		assert.Equal(t, types.Amount(2_000), cfg.TotalFeesDistributed)
		assert.Zero(t, cfg.Undistributed())
	})
	t.Run("repeated calls never exceed collected fees", func(t *testing.T) {
		h := newInitializedHarness(t, 1000)
		alice := h.stake(t, 1_000)
		bob := h.stake(t, 3_000)
		h.collectFees(t, 1_000_000)
		collected := h.protocolConfig(t).TotalFeesCollected

		var allocated types.Amount
		for i := 0; i < 50; i++ {
			for _, staker := range []types.Address{alice, bob} {
				share, err := h.svc.DistributeFees(t.Context(), staker)
				require.NoError(t, err)
				allocated += share

				cfg := h.protocolConfig(t)
				require.LessOrEqual(t, cfg.TotalFeesDistributed, cfg.TotalFeesCollected)
			}
		}

		cfg := h.protocolConfig(t)
		assert.Equal(t, allocated, cfg.TotalFeesDistributed)
		assert.LessOrEqual(t, allocated, collected)

		aliceRecord, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		bobRecord, err := h.svc.GetStaker(t.Context(), bob)
		require.NoError(t, err)
		assert.Equal(t, allocated, aliceRecord.PendingRewards+bobRecord.PendingRewards)
		assert.Equal(t, 3*aliceRecord.PendingRewards, bobRecord.PendingRewards)
	})
	t.Run("nothing staked is a no-op", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		eventsBefore := h.eventTypes(t)

		share, err := h.svc.DistributeFees(t.Context(), testutil.RandomAddress())
		require.NoError(t, err)
		assert.Zero(t, share)
		assert.Equal(t, eventsBefore, h.eventTypes(t))
	})
	t.Run("nothing undistributed is a no-op", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		eventsBefore := h.eventTypes(t)

		share, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		assert.Zero(t, share)
		assert.Equal(t, eventsBefore, h.eventTypes(t))
	})
	t.Run("not staking", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		h.stake(t, 1_000)
		h.collectFees(t, 100_000)

		_, err := h.svc.DistributeFees(t.Context(), testutil.RandomAddress())
		requireCode(t, err, types.NotStaking)

		leaver := h.stake(t, 500)
		_, err = h.svc.Unstake(t.Context(), leaver, 500)
		require.NoError(t, err)
		_, err = h.svc.DistributeFees(t.Context(), leaver)
		requireCode(t, err, types.NotStaking)
	})
	t.Run("not initialized", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.DistributeFees(t.Context(), testutil.RandomAddress())
		requireCode(t, err, types.NotFound)
	})
}

func TestClaimRewards(t *testing.T) {
	t.Run("claim pays from the fee vault", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 3_000_000)
		h.stake(t, 1_000_000)
		h.collectFees(t, 100_000)

		_, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)

		h.clock.Advance(time.Hour)
		claimed, err := h.svc.ClaimRewards(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, types.Amount(750), claimed)
		assert.Equal(t, types.Amount(750), h.balance(t, alice))
		assert.Equal(t, types.Amount(250), h.balance(t, h.feeVault))

		staker, err := h.svc.GetStaker(t.Context(), alice)
		require.NoError(t, err)
		assert.Zero(t, staker.PendingRewards)
		assert.Equal(t, genesis.Add(time.Hour), staker.LastClaimTimestamp)
		assert.Equal(t, types.Amount(3_000_000), staker.StakedAmount)

		cfg := h.protocolConfig(t)
		assert.Equal(t, types.Amount(750), cfg.TotalFeesClaimed)
		assert.Equal(t, types.Amount(750), cfg.TotalFeesDistributed)
		assert.LessOrEqual(t, cfg.TotalFeesClaimed, cfg.TotalFeesDistributed)

		_, err = h.svc.ClaimRewards(t.Context(), alice)
		requireCode(t, err, types.NoRewardsToClaim)
	})
	t.Run("nothing pending", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)

		_, err := h.svc.ClaimRewards(t.Context(), alice)
		requireCode(t, err, types.NoRewardsToClaim)
	})
	t.Run("no staking record", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		_, err := h.svc.ClaimRewards(t.Context(), testutil.RandomAddress())
		requireCode(t, err, types.NoRewardsToClaim)
	})
	t.Run("rewards survive a full unstake", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		alice := h.stake(t, 1_000)
		h.collectFees(t, 100_000)

		share, err := h.svc.DistributeFees(t.Context(), alice)
		require.NoError(t, err)
		require.Equal(t, types.Amount(1_000), share)

		_, err = h.svc.Unstake(t.Context(), alice, 1_000)
		require.NoError(t, err)

		claimed, err := h.svc.ClaimRewards(t.Context(), alice)
		require.NoError(t, err)
		assert.Equal(t, share, claimed)
	})
}

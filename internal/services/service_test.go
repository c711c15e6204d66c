package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/clock"
	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/queue"
	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
	"github.com/shade-protocol/shade-ledger/testutil"
	"github.com/shade-protocol/shade-ledger/tests/mocks"
)

var genesis = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc      *services.Service
	store    *db.MemoryDatabase
	bank     *custody.Bank
	recorder *queue.Recorder
	clock    *clock.Fake

	authority    types.Address
	feeVault     types.Address
	stakingVault types.Address
}

func testKeeperConfig() *config.KeeperConfig {
	return &config.KeeperConfig{
		DistributionInterval: 10 * time.Millisecond,
		MaxConcurrency:       2,
		MaxRetryTimes:        3,
		RetryInterval:        time.Millisecond,
	}
}

// newHarness wires a service over in-memory collaborators without
// initializing the protocol.
func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:        db.NewMemoryDatabase(),
		bank:         custody.NewBank(),
		recorder:     queue.NewRecorder(),
		clock:        clock.NewFake(genesis),
		authority:    testutil.RandomAddress(),
		feeVault:     testutil.RandomAddress(),
		stakingVault: testutil.RandomAddress(),
	}
	h.svc = services.NewService(testKeeperConfig(), h.store, h.bank, h.recorder, h.clock)
	return h
}

// newInitializedHarness also initializes the protocol at feeBps.
func newInitializedHarness(t *testing.T, feeBps uint16) *harness {
	t.Helper()

	h := newHarness(t)
	_, err := h.svc.InitializeProtocol(t.Context(), h.authority, h.feeVault, h.stakingVault, feeBps)
	require.NoError(t, err)
	return h
}

func (h *harness) fund(t *testing.T, user types.Address, amount types.Amount) {
	t.Helper()
	require.NoError(t, h.bank.Mint(t.Context(), user, amount))
}

func (h *harness) balance(t *testing.T, account types.Address) types.Amount {
	t.Helper()
	balance, err := h.bank.Balance(t.Context(), account)
	require.NoError(t, err)
	return balance
}

func (h *harness) protocolConfig(t *testing.T) *model.ProtocolConfig {
	t.Helper()
	cfg, err := h.svc.GetProtocolConfig(t.Context())
	require.NoError(t, err)
	return cfg
}

// fundedPool creates a pool controlled by h.authority and deposits amount
// into it.
func (h *harness) fundedPool(t *testing.T, amount types.Amount) *model.FogPool {
	t.Helper()
	ctx := t.Context()

	pool, err := h.svc.InitializePool(ctx, h.authority, testutil.RandomAddress())
	require.NoError(t, err)
	if amount == 0 {
		return pool
	}

	depositor := testutil.RandomAddress()
	h.fund(t, depositor, amount)
	pool, err = h.svc.Deposit(ctx, depositor, pool.Address, amount)
	require.NoError(t, err)
	return pool
}

func (h *harness) eventTypes(t *testing.T) []types.EventType {
	t.Helper()
	records, err := h.svc.ListEvents(t.Context(), 0, 0)
	require.NoError(t, err)

	eventTypes := make([]types.EventType, 0, len(records))
	for _, r := range records {
		eventTypes = append(eventTypes, r.Type)
	}
	return eventTypes
}

func requireCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, types.CodeOf(err), "unexpected error: %v", err)
}

func TestRun(t *testing.T) {
	// we can't use in mocks original ctx because it's modified inside context functions
	// this is special variable for clarity to distinguish ctx from other mock.Anything parameters in mock calls
	internalCtx := mock.Anything

	t.Run("events are logged and published in order", func(t *testing.T) {
		h := newInitializedHarness(t, 100)
		user := testutil.RandomAddress()
		h.fund(t, user, 1_000)

		_, err := h.svc.Stake(t.Context(), user, 400)
		require.NoError(t, err)
		_, err = h.svc.Unstake(t.Context(), user, 100)
		require.NoError(t, err)

		assert.Equal(t, []types.EventType{
			types.EventProtocolInitialized,
			types.EventStaked,
			types.EventUnstaked,
		}, h.eventTypes(t))

		published := h.recorder.Records()
		require.Len(t, published, 3)
		for i, record := range published {
			assert.Equal(t, uint64(i+1), record.Seq)
			assert.NotEmpty(t, record.ID)
			assert.Equal(t, genesis, record.CreatedAt)
		}

		decoded, err := published[2].Decode()
		require.NoError(t, err)
		assert.Equal(t, &types.Unstaked{
			User:      user,
			Amount:    100,
			Remaining: 300,
			Tier:      types.TierNone,
		}, decoded)
	})
	t.Run("transfer failure discards the whole transition", func(t *testing.T) {
		ctx := t.Context()
		store := db.NewMemoryDatabase()
		recorder := queue.NewRecorder()
		custodian := mocks.NewCustodyInterface(t)
		svc := services.NewService(testKeeperConfig(), store, custodian, recorder, clock.NewFake(genesis))

		authority := testutil.RandomAddress()
		feeVault := testutil.RandomAddress()
		stakingVault := testutil.RandomAddress()
		protocolAuthority := custody.DerivedAuthority(model.ProtocolConfigAddress())

		custodian.On("OpenAccount", internalCtx, feeVault, protocolAuthority).Return(nil).Once()
		custodian.On("OpenAccount", internalCtx, stakingVault, protocolAuthority).Return(nil).Once()
		_, err := svc.InitializeProtocol(ctx, authority, feeVault, stakingVault, 100)
		require.NoError(t, err)

		user := testutil.RandomAddress()
		custodian.On("Execute", internalCtx, custody.Transfer{
			From:      user,
			To:        stakingVault,
			Authority: custody.UserAuthority(user),
			Amount:    500,
		}).Return(custody.ErrInsufficientBalance).Once()

		_, err = svc.Stake(ctx, user, 500)
		requireCode(t, err, types.TransferFailed)
		assert.ErrorIs(t, err, custody.ErrInsufficientBalance)

		_, err = svc.GetStaker(ctx, user)
		requireCode(t, err, types.NotFound)

		cfg, err := svc.GetProtocolConfig(ctx)
		require.NoError(t, err)
		assert.Zero(t, cfg.TotalStaked)

		records, err := svc.ListEvents(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Len(t, recorder.Records(), 1)
	})
	t.Run("account open failure aborts the transition", func(t *testing.T) {
		ctx := t.Context()
		store := db.NewMemoryDatabase()
		custodian := mocks.NewCustodyInterface(t)
		svc := services.NewService(testKeeperConfig(), store, custodian, queue.NewRecorder(), clock.NewFake(genesis))

		custodian.On("OpenAccount", internalCtx, mock.Anything, mock.Anything).
			Return(errors.New("custodian unavailable")).Once()

		_, err := svc.InitializeProtocol(ctx, testutil.RandomAddress(), testutil.RandomAddress(), testutil.RandomAddress(), 100)
		requireCode(t, err, types.TransferFailed)

		_, err = svc.GetProtocolConfig(ctx)
		requireCode(t, err, types.NotFound)
	})
	t.Run("publish failure keeps the committed transition", func(t *testing.T) {
		ctx := t.Context()
		publisher := mocks.NewPublisher(t)
		bank := custody.NewBank()
		store := db.NewMemoryDatabase()
		svc := services.NewService(testKeeperConfig(), store, bank, publisher, clock.NewFake(genesis))

		publisher.On("Publish", internalCtx, mock.Anything).Return(errors.New("broker down")).Once()

		_, err := svc.InitializeProtocol(ctx, testutil.RandomAddress(), testutil.RandomAddress(), testutil.RandomAddress(), 100)
		require.NoError(t, err)

		records, err := store.ListEvents(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, types.EventProtocolInitialized, records[0].Type)
	})
	t.Run("failed operations publish nothing", func(t *testing.T) {
		ctx := t.Context()
		publisher := mocks.NewPublisher(t)
		svc := services.NewService(testKeeperConfig(), db.NewMemoryDatabase(), custody.NewBank(), publisher, clock.NewFake(genesis))

		_, err := svc.Stake(ctx, testutil.RandomAddress(), 10)
		requireCode(t, err, types.NotFound)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

type failingStore struct {
	*db.MemoryDatabase
	err error
}

func (f *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	return f.err
}

func TestRun_StorageFailureIsInternal(t *testing.T) {
	store := &failingStore{MemoryDatabase: db.NewMemoryDatabase(), err: errors.New("connection reset")}
	svc := services.NewService(testKeeperConfig(), store, custody.NewBank(), queue.NewRecorder(), clock.NewFake(genesis))

	_, err := svc.InitializePool(t.Context(), testutil.RandomAddress(), testutil.RandomAddress())
	requireCode(t, err, types.InternalServiceError)
	assert.False(t, types.IsTyped(err))
	assert.True(t, types.CodeOf(err).Retryable())
}

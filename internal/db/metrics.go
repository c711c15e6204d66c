package db

import (
	"context"
	"time"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

// RunInTx records the latency of the whole transition. Calls made through
// tx are recorded individually as well.
func (d *DbWithMetrics) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return d.run("RunInTx", func() error {
		return d.db.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
			return fn(ctx, &txWithMetrics{tx: tx})
		})
	})
}

func (d *DbWithMetrics) GetProtocolConfig(ctx context.Context) (result *model.ProtocolConfig, err error) {
	//nolint:errcheck
	d.run("GetProtocolConfig", func() error {
		result, err = d.db.GetProtocolConfig(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetStaker(ctx context.Context, user types.Address) (result *model.Staker, err error) {
	//nolint:errcheck
	d.run("GetStaker", func() error {
		result, err = d.db.GetStaker(ctx, user)
		return err
	})
	return
}

func (d *DbWithMetrics) GetFogPool(ctx context.Context, pool types.Address) (result *model.FogPool, err error) {
	//nolint:errcheck
	d.run("GetFogPool", func() error {
		result, err = d.db.GetFogPool(ctx, pool)
		return err
	})
	return
}

func (d *DbWithMetrics) GetAuthorization(ctx context.Context, authorization types.Address) (result *model.Authorization, err error) {
	//nolint:errcheck
	d.run("GetAuthorization", func() error {
		result, err = d.db.GetAuthorization(ctx, authorization)
		return err
	})
	return
}

func (d *DbWithMetrics) ListStakers(ctx context.Context, minStake types.Amount) (result []*model.Staker, err error) {
	//nolint:errcheck
	d.run("ListStakers", func() error {
		result, err = d.db.ListStakers(ctx, minStake)
		return err
	})
	return
}

func (d *DbWithMetrics) ListFogPools(ctx context.Context) (result []*model.FogPool, err error) {
	//nolint:errcheck
	d.run("ListFogPools", func() error {
		result, err = d.db.ListFogPools(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) ListEvents(ctx context.Context, afterSeq uint64, limit int64) (result []*model.EventRecord, err error) {
	//nolint:errcheck
	d.run("ListEvents", func() error {
		result, err = d.db.ListEvents(ctx, afterSeq, limit)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	return runWithMetrics(method, f)
}

func runWithMetrics(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	// a missing entity is an answer, not a storage failure
	metrics.RecordDbLatency(duration, method, err != nil && !IsNotFoundError(err))
	return err
}

type txWithMetrics struct {
	tx Tx
}

func (t *txWithMetrics) GetProtocolConfig(ctx context.Context) (result *model.ProtocolConfig, err error) {
	//nolint:errcheck
	runWithMetrics("Tx.GetProtocolConfig", func() error {
		result, err = t.tx.GetProtocolConfig(ctx)
		return err
	})
	return
}

func (t *txWithMetrics) GetStaker(ctx context.Context, user types.Address) (result *model.Staker, err error) {
	//nolint:errcheck
	runWithMetrics("Tx.GetStaker", func() error {
		result, err = t.tx.GetStaker(ctx, user)
		return err
	})
	return
}

func (t *txWithMetrics) GetFogPool(ctx context.Context, pool types.Address) (result *model.FogPool, err error) {
	//nolint:errcheck
	runWithMetrics("Tx.GetFogPool", func() error {
		result, err = t.tx.GetFogPool(ctx, pool)
		return err
	})
	return
}

func (t *txWithMetrics) GetAuthorization(ctx context.Context, authorization types.Address) (result *model.Authorization, err error) {
	//nolint:errcheck
	runWithMetrics("Tx.GetAuthorization", func() error {
		result, err = t.tx.GetAuthorization(ctx, authorization)
		return err
	})
	return
}

func (t *txWithMetrics) InsertProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	return runWithMetrics("Tx.InsertProtocolConfig", func() error {
		return t.tx.InsertProtocolConfig(ctx, cfg)
	})
}

func (t *txWithMetrics) UpdateProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	return runWithMetrics("Tx.UpdateProtocolConfig", func() error {
		return t.tx.UpdateProtocolConfig(ctx, cfg)
	})
}

func (t *txWithMetrics) SaveStaker(ctx context.Context, staker *model.Staker) error {
	return runWithMetrics("Tx.SaveStaker", func() error {
		return t.tx.SaveStaker(ctx, staker)
	})
}

func (t *txWithMetrics) InsertFogPool(ctx context.Context, pool *model.FogPool) error {
	return runWithMetrics("Tx.InsertFogPool", func() error {
		return t.tx.InsertFogPool(ctx, pool)
	})
}

func (t *txWithMetrics) UpdateFogPool(ctx context.Context, pool *model.FogPool) error {
	return runWithMetrics("Tx.UpdateFogPool", func() error {
		return t.tx.UpdateFogPool(ctx, pool)
	})
}

func (t *txWithMetrics) InsertAuthorization(ctx context.Context, authorization *model.Authorization) error {
	return runWithMetrics("Tx.InsertAuthorization", func() error {
		return t.tx.InsertAuthorization(ctx, authorization)
	})
}

func (t *txWithMetrics) UpdateAuthorization(ctx context.Context, authorization *model.Authorization) error {
	return runWithMetrics("Tx.UpdateAuthorization", func() error {
		return t.tx.UpdateAuthorization(ctx, authorization)
	})
}

func (t *txWithMetrics) AppendEvents(ctx context.Context, records ...*model.EventRecord) error {
	return runWithMetrics("Tx.AppendEvents", func() error {
		return t.tx.AppendEvents(ctx, records...)
	})
}

package db

import (
	"context"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// Reader is the read side shared by the store and by open transactions.
// Getters return a NotFoundError when the entity does not exist.
type Reader interface {
	GetProtocolConfig(ctx context.Context) (*model.ProtocolConfig, error)
	GetStaker(ctx context.Context, user types.Address) (*model.Staker, error)
	GetFogPool(ctx context.Context, pool types.Address) (*model.FogPool, error)
	GetAuthorization(ctx context.Context, authorization types.Address) (*model.Authorization, error)
}

// Tx is a unit of work. Reads observe earlier writes of the same Tx, and
// nothing becomes visible to others until the enclosing RunInTx commits.
type Tx interface {
	Reader

	// InsertProtocolConfig returns a DuplicateKeyError if the singleton exists.
	InsertProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error
	UpdateProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error
	// SaveStaker creates or replaces the staking record.
	SaveStaker(ctx context.Context, staker *model.Staker) error
	InsertFogPool(ctx context.Context, pool *model.FogPool) error
	UpdateFogPool(ctx context.Context, pool *model.FogPool) error
	InsertAuthorization(ctx context.Context, authorization *model.Authorization) error
	UpdateAuthorization(ctx context.Context, authorization *model.Authorization) error
	// AppendEvents assigns consecutive sequence numbers to records and
	// appends them to the audit log.
	AppendEvents(ctx context.Context, records ...*model.EventRecord) error
}

type DbInterface interface {
	Reader

	Ping(ctx context.Context) error
	// RunInTx runs fn as one atomic transition. Any error returned by fn
	// discards every write fn made.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// ListStakers returns stakers with at least minStake staked, ordered by
	// address.
	ListStakers(ctx context.Context, minStake types.Amount) ([]*model.Staker, error)
	// ListFogPools returns every fog pool, ordered by address.
	ListFogPools(ctx context.Context) ([]*model.FogPool, error)
	// ListEvents returns up to limit records with a sequence number greater
	// than afterSeq, in sequence order.
	ListEvents(ctx context.Context, afterSeq uint64, limit int64) ([]*model.EventRecord, error)
}

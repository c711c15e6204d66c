package db

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// MemoryDatabase keeps every entity in process memory. Transactions are
// serialized: RunInTx holds the store lock for the whole of fn and applies
// the staged writes only when fn succeeds.
type MemoryDatabase struct {
	mu sync.Mutex

	protocol       *model.ProtocolConfig
	stakers        map[types.Address]model.Staker
	pools          map[types.Address]model.FogPool
	authorizations map[types.Address]model.Authorization
	events         []model.EventRecord
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		stakers:        make(map[types.Address]model.Staker),
		pools:          make(map[types.Address]model.FogPool),
		authorizations: make(map[types.Address]model.Authorization),
	}
}

func (m *MemoryDatabase) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryDatabase) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		db:             m,
		stakers:        make(map[types.Address]model.Staker),
		pools:          make(map[types.Address]model.FogPool),
		authorizations: make(map[types.Address]model.Authorization),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	tx.commit()
	return nil
}

func (m *MemoryDatabase) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getProtocolConfig()
}

func (m *MemoryDatabase) GetStaker(ctx context.Context, user types.Address) (*model.Staker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getStaker(user)
}

func (m *MemoryDatabase) GetFogPool(ctx context.Context, pool types.Address) (*model.FogPool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getFogPool(pool)
}

func (m *MemoryDatabase) GetAuthorization(ctx context.Context, authorization types.Address) (*model.Authorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAuthorization(authorization)
}

func (m *MemoryDatabase) ListStakers(ctx context.Context, minStake types.Amount) ([]*model.Staker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*model.Staker
	for _, s := range m.stakers {
		if s.StakedAmount < minStake {
			continue
		}
		staker := s
		result = append(result, &staker)
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].User.Bytes(), result[j].User.Bytes()) < 0
	})

	return result, nil
}

func (m *MemoryDatabase) ListFogPools(ctx context.Context) ([]*model.FogPool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*model.FogPool, 0, len(m.pools))
	for _, p := range m.pools {
		pool := p
		result = append(result, &pool)
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Address.Bytes(), result[j].Address.Bytes()) < 0
	})

	return result, nil
}

func (m *MemoryDatabase) ListEvents(ctx context.Context, afterSeq uint64, limit int64) ([]*model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// sequence numbers start at 1 and match the slice position
	start := afterSeq
	if start > uint64(len(m.events)) {
		return nil, nil
	}
	end := uint64(len(m.events))
	if limit > 0 && start+uint64(limit) < end {
		end = start + uint64(limit)
	}

	result := make([]*model.EventRecord, 0, end-start)
	for _, r := range m.events[start:end] {
		record := r
		result = append(result, &record)
	}

	return result, nil
}

func (m *MemoryDatabase) getProtocolConfig() (*model.ProtocolConfig, error) {
	if m.protocol == nil {
		return nil, &NotFoundError{
			Key:     model.ProtocolConfigAddress().Hex(),
			Message: "protocol config not found",
		}
	}
	cfg := *m.protocol
	return &cfg, nil
}

func (m *MemoryDatabase) getStaker(user types.Address) (*model.Staker, error) {
	s, ok := m.stakers[user]
	if !ok {
		return nil, &NotFoundError{
			Key:     user.Hex(),
			Message: "staker not found",
		}
	}
	return &s, nil
}

func (m *MemoryDatabase) getFogPool(pool types.Address) (*model.FogPool, error) {
	p, ok := m.pools[pool]
	if !ok {
		return nil, &NotFoundError{
			Key:     pool.Hex(),
			Message: "fog pool not found",
		}
	}
	return &p, nil
}

func (m *MemoryDatabase) getAuthorization(authorization types.Address) (*model.Authorization, error) {
	a, ok := m.authorizations[authorization]
	if !ok {
		return nil, &NotFoundError{
			Key:     authorization.Hex(),
			Message: "authorization not found",
		}
	}
	return &a, nil
}

// memoryTx stages writes on top of the committed state. It is only used
// while the owning MemoryDatabase lock is held.
type memoryTx struct {
	db *MemoryDatabase

	protocol       *model.ProtocolConfig
	stakers        map[types.Address]model.Staker
	pools          map[types.Address]model.FogPool
	authorizations map[types.Address]model.Authorization
	events         []model.EventRecord
}

func (tx *memoryTx) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfig, error) {
	if tx.protocol != nil {
		cfg := *tx.protocol
		return &cfg, nil
	}
	return tx.db.getProtocolConfig()
}

func (tx *memoryTx) GetStaker(ctx context.Context, user types.Address) (*model.Staker, error) {
	if s, ok := tx.stakers[user]; ok {
		return &s, nil
	}
	return tx.db.getStaker(user)
}

func (tx *memoryTx) GetFogPool(ctx context.Context, pool types.Address) (*model.FogPool, error) {
	if p, ok := tx.pools[pool]; ok {
		return &p, nil
	}
	return tx.db.getFogPool(pool)
}

func (tx *memoryTx) GetAuthorization(ctx context.Context, authorization types.Address) (*model.Authorization, error) {
	if a, ok := tx.authorizations[authorization]; ok {
		return &a, nil
	}
	return tx.db.getAuthorization(authorization)
}

func (tx *memoryTx) InsertProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	if _, err := tx.GetProtocolConfig(ctx); err == nil {
		return &DuplicateKeyError{
			Key:     cfg.Address.Hex(),
			Message: "protocol config already exists",
		}
	}
	staged := *cfg
	tx.protocol = &staged
	return nil
}

func (tx *memoryTx) UpdateProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	if _, err := tx.GetProtocolConfig(ctx); err != nil {
		return err
	}
	staged := *cfg
	tx.protocol = &staged
	return nil
}

func (tx *memoryTx) SaveStaker(ctx context.Context, staker *model.Staker) error {
	tx.stakers[staker.User] = *staker
	return nil
}

func (tx *memoryTx) InsertFogPool(ctx context.Context, pool *model.FogPool) error {
	if _, err := tx.GetFogPool(ctx, pool.Address); err == nil {
		return &DuplicateKeyError{
			Key:     pool.Address.Hex(),
			Message: "fog pool already exists",
		}
	}
	tx.pools[pool.Address] = *pool
	return nil
}

func (tx *memoryTx) UpdateFogPool(ctx context.Context, pool *model.FogPool) error {
	if _, err := tx.GetFogPool(ctx, pool.Address); err != nil {
		return err
	}
	tx.pools[pool.Address] = *pool
	return nil
}

func (tx *memoryTx) InsertAuthorization(ctx context.Context, authorization *model.Authorization) error {
	if _, err := tx.GetAuthorization(ctx, authorization.Address); err == nil {
		return &DuplicateKeyError{
			Key:     authorization.Address.Hex(),
			Message: "authorization already exists",
		}
	}
	tx.authorizations[authorization.Address] = *authorization
	return nil
}

func (tx *memoryTx) UpdateAuthorization(ctx context.Context, authorization *model.Authorization) error {
	if _, err := tx.GetAuthorization(ctx, authorization.Address); err != nil {
		return err
	}
	tx.authorizations[authorization.Address] = *authorization
	return nil
}

func (tx *memoryTx) AppendEvents(ctx context.Context, records ...*model.EventRecord) error {
	next := uint64(len(tx.db.events)+len(tx.events)) + 1
	for _, r := range records {
		r.Seq = next
		next++
		tx.events = append(tx.events, *r)
	}
	return nil
}

func (tx *memoryTx) commit() {
	if tx.protocol != nil {
		tx.db.protocol = tx.protocol
	}
	for k, v := range tx.stakers {
		tx.db.stakers[k] = v
	}
	for k, v := range tx.pools {
		tx.db.pools[k] = v
	}
	for k, v := range tx.authorizations {
		tx.db.authorizations[k] = v
	}
	tx.db.events = append(tx.db.events, tx.events...)
}

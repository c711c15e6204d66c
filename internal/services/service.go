package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/clock"
	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/queue"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

type Service struct {
	keeperCfg *config.KeeperConfig
	db        db.DbInterface
	custody   custody.CustodyInterface
	publisher queue.Publisher
	clock     clock.Clock
}

func NewService(
	keeperCfg *config.KeeperConfig,
	db db.DbInterface,
	custody custody.CustodyInterface,
	publisher queue.Publisher,
	clock clock.Clock,
) *Service {
	return &Service{
		keeperCfg: keeperCfg,
		db:        db,
		custody:   custody,
		publisher: publisher,
		clock:     clock,
	}
}

type accountToOpen struct {
	address types.Address
	owner   custody.Authority
}

// transition collects the side effects of one operation. They are applied
// in a fixed order once the operation body has staged its writes: audit
// records first, then custodial accounts, then transfers.
type transition struct {
	tx        db.Tx
	now       time.Time
	events    []types.Event
	accounts  []accountToOpen
	transfers []custody.Transfer
}

func (t *transition) emit(event types.Event) {
	t.events = append(t.events, event)
}

func (t *transition) openAccount(address types.Address, owner custody.Authority) {
	t.accounts = append(t.accounts, accountToOpen{address: address, owner: owner})
}

// transfer queues a value movement. Zero amounts are dropped.
func (t *transition) transfer(from, to types.Address, authority custody.Authority, amount types.Amount) {
	if amount == 0 {
		return
	}
	t.transfers = append(t.transfers, custody.Transfer{
		From:      from,
		To:        to,
		Authority: authority,
		Amount:    amount,
	})
}

// run executes body as one atomic transition and publishes the resulting
// audit records after commit. Publishing is best effort: the durable event
// log is the source of truth.
func (s *Service) run(ctx context.Context, operation string, body func(ctx context.Context, t *transition) error) error {
	startTime := time.Now()

	var records []*model.EventRecord
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx db.Tx) error {
		// timestamps persist at millisecond precision
		t := &transition{tx: tx, now: s.clock.Now().Truncate(time.Millisecond)}
		if err := body(ctx, t); err != nil {
			return err
		}

		records = records[:0]
		for _, event := range t.events {
			record, err := model.NewEventRecord(event, t.now)
			if err != nil {
				return types.NewInternalServiceError(err)
			}
			records = append(records, record)
		}
		if err := tx.AppendEvents(ctx, records...); err != nil {
			return types.NewInternalServiceError(err)
		}

		for _, acc := range t.accounts {
			if err := s.custody.OpenAccount(ctx, acc.address, acc.owner); err != nil {
				return types.NewError(types.TransferFailed, fmt.Errorf("failed to open account %s: %w", acc.address, err))
			}
		}
		if len(t.transfers) > 0 {
			if err := s.custody.Execute(ctx, t.transfers...); err != nil {
				return types.NewError(types.TransferFailed, err)
			}
		}

		return nil
	})

	code := ""
	if err != nil {
		code = types.CodeOf(err).String()
	}
	metrics.RecordOperation(time.Since(startTime), operation, code)

	if err != nil {
		logger := log.Ctx(ctx).Debug()
		if !types.IsTyped(err) {
			logger = log.Ctx(ctx).Error()
		}
		logger.Err(err).Str("operation", operation).Str("code", code).Msg("operation failed")
		return err
	}

	if len(records) > 0 {
		if err := s.publisher.Publish(ctx, records...); err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("operation", operation).
				Uint64("first_seq", records[0].Seq).
				Int("count", len(records)).
				Msg("failed to publish events")
		}
	}

	return nil
}

// storageError maps storage layer errors onto the domain taxonomy. Errors
// the store does not classify are infrastructure failures.
func storageError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFoundError(err):
		return types.NewError(types.NotFound, fmt.Errorf("%s: %w", entity, err))
	case db.IsDuplicateKeyError(err):
		return types.NewError(types.AlreadyExists, fmt.Errorf("%s: %w", entity, err))
	case types.IsTyped(err):
		return err
	default:
		return types.NewInternalServiceError(fmt.Errorf("%s: %w", entity, err))
	}
}

func (s *Service) loadProtocolConfig(ctx context.Context, tx db.Reader) (*model.ProtocolConfig, error) {
	cfg, err := tx.GetProtocolConfig(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewErrorWithMsg(types.NotFound, "protocol is not initialized")
		}
		return nil, storageError(err, "protocol config")
	}
	return cfg, nil
}

// protocolAuthority is the capability the protocol signs withdrawals from
// its fee and staking vaults with.
func protocolAuthority() custody.Authority {
	return custody.DerivedAuthority(model.ProtocolConfigAddress())
}

package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/clock"
	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/db"
	dbmodel "github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/queue"
	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// newService wires the ledger against the configured collaborators. The
// returned cleanup releases the connections it opened.
func newService(ctx context.Context, cfg *config.Config) (*services.Service, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var dbClient db.DbInterface
	switch cfg.Db.Type {
	case config.DbTypeMongo:
		if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
			return nil, nil, fmt.Errorf("error while setting up db model: %w", err)
		}

		mongoClient, err := db.New(ctx, cfg.Db)
		if err != nil {
			return nil, nil, fmt.Errorf("error while creating db client: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := mongoClient.Close(context.WithoutCancel(ctx)); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("failed to close db client")
			}
		})
		dbClient = mongoClient
	default:
		dbClient = db.NewMemoryDatabase()
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	if err := dbClient.Ping(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error while pinging db: %w", err)
	}

	var publisher queue.Publisher = queue.NewLogPublisher()
	if cfg.Queue.Enabled {
		qm, err := queue.NewQueueManager(&cfg.Queue)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		cleanups = append(cleanups, qm.Shutdown)
		publisher = qm
	}

	bank := custody.NewBank()
	custodian := custody.NewCustodyWithMetrics(bank)

	service := services.NewService(&cfg.Keeper, dbClient, custodian, publisher, clock.System())

	vaults, err := service.RestoreCustodyAccounts(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error while restoring custody accounts: %w", err)
	}
	if err := fundVaults(ctx, bank, vaults); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error while funding vaults: %w", err)
	}

	return service, cleanup, nil
}

// fundVaults credits the in-process bank with what the ledger says each
// vault holds. Its balances do not outlive the process, the ledger does.
func fundVaults(ctx context.Context, bank *custody.Bank, vaults []services.VaultBalance) error {
	expected := make(map[types.Address]types.Amount, len(vaults))
	for _, vault := range vaults {
		total, err := policy.CheckedAdd(expected[vault.Account], vault.Balance)
		if err != nil {
			return fmt.Errorf("vault %s: %w", vault.Account, err)
		}
		expected[vault.Account] = total
	}

	for account, amount := range expected {
		balance, err := bank.Balance(ctx, account)
		if err != nil {
			return err
		}
		if amount <= balance {
			continue
		}
		if err := bank.Mint(ctx, account, amount-balance); err != nil {
			return err
		}
		log.Ctx(ctx).Debug().
			Stringer("vault", account).
			Stringer("amount", amount-balance).
			Msg("vault funded from ledger balance")
	}
	return nil
}

// requirePersistentStore rejects one-shot commands against the memory
// store, which would start empty and be discarded on exit.
func requirePersistentStore(cfg *config.Config) error {
	if cfg.Db.Type != config.DbTypeMongo {
		return fmt.Errorf("command needs db.type=%s: the %s store starts empty in every process", config.DbTypeMongo, cfg.Db.Type)
	}
	return nil
}

package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// VaultBalance is a custodial account the ledger controls, with the owner
// it was opened under and the balance the ledger's records put in it.
type VaultBalance struct {
	Account types.Address
	Owner   custody.Authority
	Balance types.Amount
}

// RestoreCustodyAccounts reopens every vault the ledger controls under its
// owning authority and returns what each should hold. It must run before
// the first transfer of a process: a transfer into an unknown account opens
// it under the recipient's own authority, which would lock the ledger out
// of the vault.
func (s *Service) RestoreCustodyAccounts(ctx context.Context) ([]VaultBalance, error) {
	var vaults []VaultBalance

	cfg, err := s.db.GetProtocolConfig(ctx)
	switch {
	case db.IsNotFoundError(err):
		// not initialized yet, InitializeProtocol opens the protocol vaults
	case err != nil:
		return nil, storageError(err, "protocol config")
	default:
		vaults = append(vaults,
			VaultBalance{
				Account: cfg.FeeVault,
				Owner:   protocolAuthority(),
				Balance: policy.SaturatingSub(cfg.TotalFeesCollected, cfg.TotalFeesClaimed),
			},
			VaultBalance{
				Account: cfg.StakingVault,
				Owner:   protocolAuthority(),
				Balance: cfg.TotalStaked,
			},
		)
	}

	pools, err := s.db.ListFogPools(ctx)
	if err != nil {
		return nil, storageError(err, "fog pools")
	}
	for _, pool := range pools {
		vaults = append(vaults, VaultBalance{
			Account: pool.Vault,
			Owner:   custody.DerivedAuthority(pool.Address),
			Balance: policy.SaturatingSub(pool.TotalDeposited, pool.TotalSpent),
		})
	}

	for _, vault := range vaults {
		if err := s.custody.OpenAccount(ctx, vault.Account, vault.Owner); err != nil {
			return nil, types.NewInternalServiceError(
				fmt.Errorf("failed to restore vault %s: %w", vault.Account, err),
			)
		}
	}

	log.Ctx(ctx).Info().
		Int("vaults", len(vaults)).
		Int("pools", len(pools)).
		Msg("custody accounts restored")

	return vaults, nil
}

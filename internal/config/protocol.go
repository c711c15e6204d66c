package config

import (
	"fmt"

	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// ProtocolConfig holds the bootstrap parameters used by init-protocol and
// the identity the CLI acts as.
type ProtocolConfig struct {
	Authority      string `mapstructure:"authority"`
	FeeVault       string `mapstructure:"fee-vault"`
	StakingVault   string `mapstructure:"staking-vault"`
	FeeBasisPoints uint16 `mapstructure:"fee-basis-points"`
}

func (cfg *ProtocolConfig) Validate() error {
	if _, err := types.ParseAddress(cfg.Authority); err != nil {
		return fmt.Errorf("invalid protocol authority: %w", err)
	}

	if _, err := types.ParseAddress(cfg.FeeVault); err != nil {
		return fmt.Errorf("invalid protocol fee-vault: %w", err)
	}

	if _, err := types.ParseAddress(cfg.StakingVault); err != nil {
		return fmt.Errorf("invalid protocol staking-vault: %w", err)
	}

	if cfg.FeeBasisPoints > policy.MaxFeeBasisPoints {
		return fmt.Errorf("fee-basis-points must be at most %d", policy.MaxFeeBasisPoints)
	}

	return nil
}

// Addresses returns the parsed authority, fee vault and staking vault.
// Validate must have succeeded first.
func (cfg *ProtocolConfig) Addresses() (authority, feeVault, stakingVault types.Address) {
	authority, _ = types.ParseAddress(cfg.Authority)
	feeVault, _ = types.ParseAddress(cfg.FeeVault)
	stakingVault, _ = types.ParseAddress(cfg.StakingVault)
	return
}

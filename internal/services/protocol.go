package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// InitializeProtocol creates the singleton protocol config with the default
// tier thresholds and cap multipliers, and opens the fee and staking vaults
// under the protocol's own capability.
func (s *Service) InitializeProtocol(
	ctx context.Context,
	authority, feeVault, stakingVault types.Address,
	feeBasisPoints uint16,
) (*model.ProtocolConfig, error) {
	if err := policy.ValidateFee(feeBasisPoints); err != nil {
		return nil, err
	}

	var result *model.ProtocolConfig
	err := s.run(ctx, "InitializeProtocol", func(ctx context.Context, t *transition) error {
		cfg := &model.ProtocolConfig{
			Address:        model.ProtocolConfigAddress(),
			Authority:      authority,
			FeeVault:       feeVault,
			StakingVault:   stakingVault,
			FeeBasisPoints: feeBasisPoints,
			Thresholds:     policy.DefaultThresholds(),
			CapMultipliers: policy.DefaultCapMultipliers(),
			CreatedAt:      t.now,
		}
		if err := t.tx.InsertProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.openAccount(feeVault, protocolAuthority())
		t.openAccount(stakingVault, protocolAuthority())

		t.emit(types.ProtocolInitialized{
			Config:         cfg.Address,
			Authority:      authority,
			FeeBasisPoints: feeBasisPoints,
		})

		result = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Stringer("authority", authority).
		Uint16("fee_basis_points", feeBasisPoints).
		Msg("protocol initialized")

	return result, nil
}

// UpdateFee changes the protocol fee. Only the protocol authority may call
// it.
func (s *Service) UpdateFee(ctx context.Context, caller types.Address, newFeeBasisPoints uint16) error {
	if err := policy.ValidateFee(newFeeBasisPoints); err != nil {
		return err
	}

	var oldFee uint16
	err := s.run(ctx, "UpdateFee", func(ctx context.Context, t *transition) error {
		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}
		if cfg.Authority != caller {
			return types.NewErrorf(types.Unauthorized, "%s is not the protocol authority", caller)
		}

		oldFee = cfg.FeeBasisPoints
		cfg.FeeBasisPoints = newFeeBasisPoints
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		t.emit(types.FeeUpdated{
			OldFee: oldFee,
			NewFee: newFeeBasisPoints,
		})
		return nil
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Uint16("old_fee", oldFee).
		Uint16("new_fee", newFeeBasisPoints).
		Msg("protocol fee updated")

	return nil
}

func (s *Service) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfig, error) {
	return s.loadProtocolConfig(ctx, s.db)
}

package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

type CreateAuthorizationRequest struct {
	Issuer      types.Address
	Spender     types.Address
	FogPool     types.Address
	Nonce       uint64
	SpendingCap types.Amount
	ExpiresAt   time.Time
	Purpose     string
}

// CreateAuthorization grants Spender a capped, expiring permission to spend
// from FogPool. Only the pool authority may issue, and the cap is bounded by
// the spender's staking tier at the time of issuance.
func (s *Service) CreateAuthorization(ctx context.Context, req CreateAuthorizationRequest) (*model.Authorization, error) {
	if req.SpendingCap == 0 {
		return nil, types.ErrInvalidAmount
	}
	if utf8.RuneCountInString(req.Purpose) > policy.MaxPurposeLength {
		return nil, types.ErrPurposeTooLong
	}

	var result *model.Authorization
	err := s.run(ctx, "CreateAuthorization", func(ctx context.Context, t *transition) error {
		// stored at the store's millisecond precision, so compared at it too
		expiresAt := req.ExpiresAt.Truncate(time.Millisecond)
		if !expiresAt.After(t.now) {
			return types.NewErrorf(types.InvalidExpiry,
				"expiry %s is not after %s", expiresAt.Format(time.RFC3339Nano), t.now.Format(time.RFC3339Nano))
		}

		pool, err := t.tx.GetFogPool(ctx, req.FogPool)
		if err != nil {
			return storageError(err, "fog pool")
		}
		if pool.Authority != req.Issuer {
			return types.NewErrorf(types.Unauthorized, "%s is not the authority of pool %s", req.Issuer, pool.Address)
		}

		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}

		// no staking record and a zero stake share the non-staker cap
		tier := types.TierNone
		staker, err := t.tx.GetStaker(ctx, req.Spender)
		switch {
		case err == nil:
			tier = staker.Tier
		case !db.IsNotFoundError(err):
			return storageError(err, "staker")
		}
		maxCap := policy.MaxCapForTier(tier, cfg.CapMultipliers)
		if req.SpendingCap > maxCap {
			return types.NewErrorf(types.ExceedsTierLimit,
				"spending cap %d exceeds %d allowed for tier %s", req.SpendingCap, maxCap, tier)
		}

		auth := &model.Authorization{
			Address:           model.AuthorizationAddress(pool.Address, req.Spender, req.Nonce),
			FogPool:           pool.Address,
			AuthorizedSpender: req.Spender,
			Issuer:            req.Issuer,
			Nonce:             req.Nonce,
			SpendingCap:       req.SpendingCap,
			CreatedAt:         t.now,
			ExpiresAt:         expiresAt,
			Purpose:           req.Purpose,
			IsActive:          true,
		}
		if err := t.tx.InsertAuthorization(ctx, auth); err != nil {
			return storageError(err, "authorization")
		}

		pool.ActiveAuthorizations++
		if err := t.tx.UpdateFogPool(ctx, pool); err != nil {
			return storageError(err, "fog pool")
		}

		t.emit(types.AuthorizationCreated{
			Authorization: auth.Address,
			FogPool:       pool.Address,
			Spender:       req.Spender,
			Issuer:        req.Issuer,
			SpendingCap:   req.SpendingCap,
			ExpiresAt:     expiresAt,
			Purpose:       req.Purpose,
		})

		result = auth
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Stringer("authorization", result.Address).
		Stringer("pool", result.FogPool).
		Stringer("spender", result.AuthorizedSpender).
		Stringer("spending_cap", result.SpendingCap).
		Time("expires_at", result.ExpiresAt).
		Msg("authorization created")

	return result, nil
}

type SpendRequest struct {
	Spender       types.Address
	Authorization types.Address
	Recipient     types.Address
	Amount        types.Amount
}

type SpendResult struct {
	Fee       types.Amount
	NetAmount types.Amount
	Remaining types.Amount
}

// Spend draws Amount from the authorization's pool. The net amount goes to
// Recipient and the protocol fee to the fee vault, both signed by the
// pool's own capability.
func (s *Service) Spend(ctx context.Context, req SpendRequest) (*SpendResult, error) {
	if req.Amount == 0 {
		return nil, types.ErrInvalidAmount
	}

	var result SpendResult
	err := s.run(ctx, "Spend", func(ctx context.Context, t *transition) error {
		auth, err := t.tx.GetAuthorization(ctx, req.Authorization)
		if err != nil {
			return storageError(err, "authorization")
		}
		if auth.AuthorizedSpender != req.Spender {
			return types.NewErrorf(types.Unauthorized, "%s is not the authorized spender", req.Spender)
		}
		if !auth.IsActive {
			return types.ErrAuthorizationInactive
		}
		if auth.Expired(t.now) {
			return types.ErrAuthorizationExpired
		}
		if req.Amount > auth.Remaining() {
			return types.NewErrorf(types.ExceedsSpendingCap,
				"amount %d exceeds remaining cap %d", req.Amount, auth.Remaining())
		}

		cfg, err := s.loadProtocolConfig(ctx, t.tx)
		if err != nil {
			return err
		}
		pool, err := t.tx.GetFogPool(ctx, auth.FogPool)
		if err != nil {
			return storageError(err, "fog pool")
		}

		fee, net, err := policy.CalculateFee(req.Amount, cfg.FeeBasisPoints)
		if err != nil {
			return err
		}

		if auth.AmountSpent, err = policy.CheckedAdd(auth.AmountSpent, req.Amount); err != nil {
			return err
		}
		if pool.TotalSpent, err = policy.CheckedAdd(pool.TotalSpent, req.Amount); err != nil {
			return err
		}
		if pool.TotalFeesGenerated, err = policy.CheckedAdd(pool.TotalFeesGenerated, fee); err != nil {
			return err
		}
		if cfg.TotalFeesCollected, err = policy.CheckedAdd(cfg.TotalFeesCollected, fee); err != nil {
			return err
		}
		if err := cfg.AccrueRewards(); err != nil {
			return err
		}

		if err := t.tx.UpdateAuthorization(ctx, auth); err != nil {
			return storageError(err, "authorization")
		}
		if err := t.tx.UpdateFogPool(ctx, pool); err != nil {
			return storageError(err, "fog pool")
		}
		if err := t.tx.UpdateProtocolConfig(ctx, cfg); err != nil {
			return storageError(err, "protocol config")
		}

		poolAuthority := custody.DerivedAuthority(pool.Address)
		t.transfer(pool.Vault, req.Recipient, poolAuthority, net)
		t.transfer(pool.Vault, cfg.FeeVault, poolAuthority, fee)

		result = SpendResult{
			Fee:       fee,
			NetAmount: net,
			Remaining: auth.Remaining(),
		}
		t.emit(types.SpendExecuted{
			Authorization: auth.Address,
			FogPool:       pool.Address,
			Spender:       req.Spender,
			Recipient:     req.Recipient,
			Amount:        req.Amount,
			Fee:           fee,
			NetAmount:     net,
			Remaining:     result.Remaining,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSpend(req.Amount.Uint64(), result.Fee.Uint64())
	log.Ctx(ctx).Debug().
		Stringer("authorization", req.Authorization).
		Stringer("recipient", req.Recipient).
		Stringer("amount", req.Amount).
		Stringer("fee", result.Fee).
		Stringer("remaining", result.Remaining).
		Msg("spend executed")

	return &result, nil
}

// RevokeAuthorization permanently deactivates an authorization. Only its
// issuer may revoke it.
func (s *Service) RevokeAuthorization(ctx context.Context, caller, authAddress types.Address) error {
	err := s.run(ctx, "RevokeAuthorization", func(ctx context.Context, t *transition) error {
		auth, err := t.tx.GetAuthorization(ctx, authAddress)
		if err != nil {
			return storageError(err, "authorization")
		}
		if auth.Issuer != caller {
			return types.NewErrorf(types.Unauthorized, "%s is not the issuer", caller)
		}
		if !auth.IsActive {
			return types.ErrAuthorizationInactive
		}

		pool, err := t.tx.GetFogPool(ctx, auth.FogPool)
		if err != nil {
			return storageError(err, "fog pool")
		}

		auth.IsActive = false
		if pool.ActiveAuthorizations > 0 {
			pool.ActiveAuthorizations--
		}

		if err := t.tx.UpdateAuthorization(ctx, auth); err != nil {
			return storageError(err, "authorization")
		}
		if err := t.tx.UpdateFogPool(ctx, pool); err != nil {
			return storageError(err, "fog pool")
		}

		t.emit(types.AuthorizationRevoked{
			Authorization: auth.Address,
			FogPool:       pool.Address,
			RevokedBy:     caller,
		})
		return nil
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Stringer("authorization", authAddress).
		Stringer("revoked_by", caller).
		Msg("authorization revoked")

	return nil
}

func (s *Service) GetAuthorization(ctx context.Context, authAddress types.Address) (*model.Authorization, error) {
	auth, err := s.db.GetAuthorization(ctx, authAddress)
	if err != nil {
		return nil, storageError(err, "authorization")
	}
	return auth, nil
}

// AuthorizationStatus derives the lifecycle state of an authorization at the
// current time.
func (s *Service) AuthorizationStatus(ctx context.Context, authAddress types.Address) (types.AuthorizationState, error) {
	auth, err := s.GetAuthorization(ctx, authAddress)
	if err != nil {
		return "", err
	}
	return auth.State(s.clock.Now()), nil
}

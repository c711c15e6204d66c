package custody

import (
	"context"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

// CustodyInterface moves value between custodial balances.
//
//go:generate mockery --name=CustodyInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_custody_client.go
type CustodyInterface interface {
	// OpenAccount creates account controlled by owner. Opening an existing
	// account with the same owner is a no-op.
	OpenAccount(ctx context.Context, account types.Address, owner Authority) error
	// Execute applies every transfer or none of them.
	Execute(ctx context.Context, transfers ...Transfer) error
	Balance(ctx context.Context, account types.Address) (types.Amount, error)
}

package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/policy"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

type account struct {
	owner   Authority
	balance types.Amount
}

// Bank is an in-process custodian. Destination accounts that do not exist
// yet are opened on first credit, controlled by the user with the same
// address.
type Bank struct {
	mu       sync.Mutex
	accounts map[types.Address]*account
}

func NewBank() *Bank {
	return &Bank{
		accounts: make(map[types.Address]*account),
	}
}

func (b *Bank) OpenAccount(ctx context.Context, addr types.Address, owner Authority) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if acc, ok := b.accounts[addr]; ok {
		if acc.owner != owner {
			return fmt.Errorf("open %s: %w", addr.Hex(), ErrOwnerMismatch)
		}
		return nil
	}

	b.accounts[addr] = &account{owner: owner}
	log.Ctx(ctx).Debug().
		Stringer("account", addr).
		Stringer("owner", owner).
		Msg("custodial account opened")
	return nil
}

// Mint credits amount out of thin air. It exists for funding user accounts
// in local setups and tests.
func (b *Bank) Mint(ctx context.Context, addr types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := b.accountOrOpen(addr)
	balance, err := policy.CheckedAdd(acc.balance, amount)
	if err != nil {
		return fmt.Errorf("mint to %s: %w", addr.Hex(), ErrBalanceOverflow)
	}
	acc.balance = balance
	return nil
}

func (b *Bank) Balance(ctx context.Context, addr types.Address) (types.Amount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[addr]
	if !ok {
		return 0, nil
	}
	return acc.balance, nil
}

func (b *Bank) Execute(ctx context.Context, transfers ...Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// balances as they would be after the transfers applied so far
	staged := make(map[types.Address]types.Amount)
	balanceOf := func(addr types.Address) types.Amount {
		if v, ok := staged[addr]; ok {
			return v
		}
		if acc, ok := b.accounts[addr]; ok {
			return acc.balance
		}
		return 0
	}

	for _, t := range transfers {
		from, ok := b.accounts[t.From]
		if !ok {
			return fmt.Errorf("transfer %s: %w", t, ErrAccountNotFound)
		}
		if from.owner != t.Authority {
			return fmt.Errorf("transfer %s: %w", t, ErrOwnerMismatch)
		}

		debited, err := policy.CheckedSub(balanceOf(t.From), t.Amount)
		if err != nil {
			return fmt.Errorf("transfer %s: %w", t, ErrInsufficientBalance)
		}
		staged[t.From] = debited

		credited, err := policy.CheckedAdd(balanceOf(t.To), t.Amount)
		if err != nil {
			return fmt.Errorf("transfer %s: %w", t, ErrBalanceOverflow)
		}
		staged[t.To] = credited
	}

	for addr, balance := range staged {
		b.accountOrOpen(addr).balance = balance
	}

	for _, t := range transfers {
		log.Ctx(ctx).Debug().Stringer("transfer", t).Msg("transfer executed")
	}
	return nil
}

func (b *Bank) accountOrOpen(addr types.Address) *account {
	acc, ok := b.accounts[addr]
	if !ok {
		acc = &account{owner: UserAuthority(addr)}
		b.accounts[addr] = acc
	}
	return acc
}

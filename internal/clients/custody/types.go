package custody

import (
	"errors"
	"fmt"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

var (
	ErrAccountNotFound     = errors.New("custodial account not found")
	ErrOwnerMismatch       = errors.New("account is controlled by a different authority")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Authority is the credential a transfer is signed with. A derived
// authority is a capability computed from a ledger entity's address and is
// only ever presented by the ledger itself; it never matches a user
// identity with the same bytes.
type Authority struct {
	Address types.Address
	Derived bool
}

func UserAuthority(user types.Address) Authority {
	return Authority{Address: user}
}

func DerivedAuthority(entity types.Address) Authority {
	return Authority{Address: entity, Derived: true}
}

func (a Authority) String() string {
	if a.Derived {
		return "derived:" + a.Address.Hex()
	}
	return "user:" + a.Address.Hex()
}

type Transfer struct {
	From      types.Address
	To        types.Address
	Authority Authority
	Amount    types.Amount
}

func (t Transfer) String() string {
	return fmt.Sprintf("%s -> %s (%d by %s)", t.From.Hex(), t.To.Hex(), t.Amount, t.Authority)
}

package types

import "time"

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventProtocolInitialized  EventType = "shade.v1.ProtocolInitialized"
	EventFeeUpdated           EventType = "shade.v1.FeeUpdated"
	EventStaked               EventType = "shade.v1.Staked"
	EventUnstaked             EventType = "shade.v1.Unstaked"
	EventRewardsClaimed       EventType = "shade.v1.RewardsClaimed"
	EventFeesDistributed      EventType = "shade.v1.FeesDistributed"
	EventFogPoolCreated       EventType = "shade.v1.FogPoolCreated"
	EventDepositMade          EventType = "shade.v1.DepositMade"
	EventAuthorizationCreated EventType = "shade.v1.AuthorizationCreated"
	EventSpendExecuted        EventType = "shade.v1.SpendExecuted"
	EventAuthorizationRevoked EventType = "shade.v1.AuthorizationRevoked"
)

// Event is the payload of one audit record.
type Event interface {
	EventType() EventType
}

type ProtocolInitialized struct {
	Config         Address `json:"config" bson:"config"`
	Authority      Address `json:"authority" bson:"authority"`
	FeeBasisPoints uint16  `json:"fee_basis_points" bson:"fee_basis_points"`
}

type FeeUpdated struct {
	OldFee uint16 `json:"old_fee" bson:"old_fee"`
	NewFee uint16 `json:"new_fee" bson:"new_fee"`
}

type Staked struct {
	User     Address `json:"user" bson:"user"`
	Amount   Amount  `json:"amount" bson:"amount"`
	NewTotal Amount  `json:"new_total" bson:"new_total"`
	Tier     Tier    `json:"tier" bson:"tier"`
}

type Unstaked struct {
	User      Address `json:"user" bson:"user"`
	Amount    Amount  `json:"amount" bson:"amount"`
	Remaining Amount  `json:"remaining" bson:"remaining"`
	Tier      Tier    `json:"tier" bson:"tier"`
}

type RewardsClaimed struct {
	User   Address `json:"user" bson:"user"`
	Amount Amount  `json:"amount" bson:"amount"`
}

type FeesDistributed struct {
	Staker Address `json:"staker" bson:"staker"`
	Amount Amount  `json:"amount" bson:"amount"`
	// Undistributed is the protocol's unallocated fee balance after this share.
	Undistributed Amount `json:"undistributed" bson:"undistributed"`
}

type FogPoolCreated struct {
	Pool      Address `json:"pool" bson:"pool"`
	Authority Address `json:"authority" bson:"authority"`
	Vault     Address `json:"vault" bson:"vault"`
}

type DepositMade struct {
	Pool           Address `json:"pool" bson:"pool"`
	Depositor      Address `json:"depositor" bson:"depositor"`
	Amount         Amount  `json:"amount" bson:"amount"`
	TotalDeposited Amount  `json:"total_deposited" bson:"total_deposited"`
}

type AuthorizationCreated struct {
	Authorization Address   `json:"authorization" bson:"authorization"`
	FogPool       Address   `json:"fog_pool" bson:"fog_pool"`
	Spender       Address   `json:"spender" bson:"spender"`
	Issuer        Address   `json:"issuer" bson:"issuer"`
	SpendingCap   Amount    `json:"spending_cap" bson:"spending_cap"`
	ExpiresAt     time.Time `json:"expires_at" bson:"expires_at"`
	Purpose       string    `json:"purpose" bson:"purpose"`
}

type SpendExecuted struct {
	Authorization Address `json:"authorization" bson:"authorization"`
	FogPool       Address `json:"fog_pool" bson:"fog_pool"`
	Spender       Address `json:"spender" bson:"spender"`
	Recipient     Address `json:"recipient" bson:"recipient"`
	Amount        Amount  `json:"amount" bson:"amount"`
	Fee           Amount  `json:"fee" bson:"fee"`
	NetAmount     Amount  `json:"net_amount" bson:"net_amount"`
	Remaining     Amount  `json:"remaining" bson:"remaining"`
}

type AuthorizationRevoked struct {
	Authorization Address `json:"authorization" bson:"authorization"`
	FogPool       Address `json:"fog_pool" bson:"fog_pool"`
	RevokedBy     Address `json:"revoked_by" bson:"revoked_by"`
}

func (ProtocolInitialized) EventType() EventType  { return EventProtocolInitialized }
func (FeeUpdated) EventType() EventType           { return EventFeeUpdated }
func (Staked) EventType() EventType               { return EventStaked }
func (Unstaked) EventType() EventType             { return EventUnstaked }
func (RewardsClaimed) EventType() EventType       { return EventRewardsClaimed }
func (FeesDistributed) EventType() EventType      { return EventFeesDistributed }
func (FogPoolCreated) EventType() EventType       { return EventFogPoolCreated }
func (DepositMade) EventType() EventType          { return EventDepositMade }
func (AuthorizationCreated) EventType() EventType { return EventAuthorizationCreated }
func (SpendExecuted) EventType() EventType        { return EventSpendExecuted }
func (AuthorizationRevoked) EventType() EventType { return EventAuthorizationRevoked }

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

const (
	EventCollection   = "events"
	CounterCollection = "counters"

	// EventSeqCounter is the counter document id that hands out event
	// sequence numbers.
	EventSeqCounter = "event_seq"
)

// EventRecord is one entry of the append-only audit log. Seq is assigned by
// the store when the record is appended.
type EventRecord struct {
	Seq       uint64          `bson:"_id" json:"seq"`
	ID        string          `bson:"event_id" json:"event_id"`
	Type      types.EventType `bson:"type" json:"type"`
	Data      bson.Raw        `bson:"data" json:"-"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

func NewEventRecord(event types.Event, now time.Time) (*EventRecord, error) {
	data, err := bson.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.EventType(), err)
	}

	return &EventRecord{
		ID:        uuid.NewString(),
		Type:      event.EventType(),
		Data:      data,
		CreatedAt: now,
	}, nil
}

// Decode returns the typed payload of the record.
func (r *EventRecord) Decode() (types.Event, error) {
	var event types.Event
	switch r.Type {
	case types.EventProtocolInitialized:
		event = &types.ProtocolInitialized{}
	case types.EventFeeUpdated:
		event = &types.FeeUpdated{}
	case types.EventStaked:
		event = &types.Staked{}
	case types.EventUnstaked:
		event = &types.Unstaked{}
	case types.EventRewardsClaimed:
		event = &types.RewardsClaimed{}
	case types.EventFeesDistributed:
		event = &types.FeesDistributed{}
	case types.EventFogPoolCreated:
		event = &types.FogPoolCreated{}
	case types.EventDepositMade:
		event = &types.DepositMade{}
	case types.EventAuthorizationCreated:
		event = &types.AuthorizationCreated{}
	case types.EventSpendExecuted:
		event = &types.SpendExecuted{}
	case types.EventAuthorizationRevoked:
		event = &types.AuthorizationRevoked{}
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}

	if err := bson.Unmarshal(r.Data, event); err != nil {
		return nil, fmt.Errorf("failed to decode %s event %d: %w", r.Type, r.Seq, err)
	}

	return event, nil
}

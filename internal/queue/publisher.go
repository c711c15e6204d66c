package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// Publisher forwards committed audit records to downstream consumers.
//
//go:generate mockery --name=Publisher --output=../../tests/mocks --outpkg=mocks --filename=mock_publisher.go
type Publisher interface {
	Publish(ctx context.Context, records ...*model.EventRecord) error
}

// Message is the JSON body published for one audit record.
type Message struct {
	Seq       uint64          `json:"seq"`
	ID        string          `json:"event_id"`
	Type      types.EventType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   types.Event     `json:"payload"`
}

func NewMessage(record *model.EventRecord) (*Message, error) {
	payload, err := record.Decode()
	if err != nil {
		return nil, err
	}

	return &Message{
		Seq:       record.Seq,
		ID:        record.ID,
		Type:      record.Type,
		CreatedAt: record.CreatedAt,
		Payload:   payload,
	}, nil
}

func (m *Message) Marshal() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", m.Type, err)
	}
	return body, nil
}

package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
)

// LogPublisher writes records to the context logger. It is used when no
// queue is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, records ...*model.EventRecord) error {
	for _, record := range records {
		msg, err := NewMessage(record)
		if err != nil {
			return err
		}
		log.Ctx(ctx).Info().
			Uint64("seq", msg.Seq).
			Str("event_id", msg.ID).
			Stringer("type", msg.Type).
			Interface("payload", msg.Payload).
			Msg("event")
	}
	return nil
}

// Recorder keeps published records in memory.
type Recorder struct {
	mu      sync.Mutex
	records []*model.EventRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, records ...*model.EventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

func (r *Recorder) Records() []*model.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.EventRecord(nil), r.records...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

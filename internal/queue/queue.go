package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/pkg"
)

const (
	contentTypeJSON      = "application/json"
	connectionNamePrefix = "shade-ledger"
	heartbeatInterval    = 10 * time.Second
)

// QueueManager publishes audit records to a durable RabbitMQ quorum queue.
type QueueManager struct {
	cfg *config.QueueConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)

	properties := amqp.NewConnectionProperties()
	properties.SetClientConnectionName(pkg.RandomName(connectionNamePrefix, 6))
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  heartbeatInterval,
		Locale:     "en_US",
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{"x-queue-type": "quorum"},
	)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &QueueManager{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
	}, nil
}

func (qm *QueueManager) Publish(ctx context.Context, records ...*model.EventRecord) error {
	for _, record := range records {
		msg, err := NewMessage(record)
		if err != nil {
			return err
		}
		body, err := msg.Marshal()
		if err != nil {
			return err
		}

		publishing := amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			MessageId:    record.ID,
			Type:         record.Type.String(),
			Timestamp:    record.CreatedAt,
			Body:         body,
		}

		err = retry.Do(
			func() error {
				return qm.publish(ctx, publishing)
			},
			retry.Context(ctx),
			retry.Attempts(qm.cfg.MaxRetryTimes),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				log.Ctx(ctx).Debug().
					Uint("attempt", n+1).
					Uint("max_attempts", qm.cfg.MaxRetryTimes).
					Uint64("seq", record.Seq).
					Err(err).
					Msg("failed to publish event, retrying")
			}),
		)
		if err != nil {
			metrics.RecordQueueSendError()
			return fmt.Errorf("failed to publish event %d: %w", record.Seq, err)
		}
	}

	return nil
}

func (qm *QueueManager) publish(ctx context.Context, publishing amqp.Publishing) error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	return qm.channel.PublishWithContext(ctx, "", qm.cfg.QueueName, false, false, publishing)
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if err := qm.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close queue connection")
	}
}

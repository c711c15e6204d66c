//go:build e2e

package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/e2etest/container"
	"github.com/shade-protocol/shade-ledger/internal/clients/custody"
	"github.com/shade-protocol/shade-ledger/internal/clock"
	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/db"
	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/queue"
	"github.com/shade-protocol/shade-ledger/internal/services"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

const (
	testDbName    = "shade-ledger-e2e"
	testQueueName = "shade_ledger_events"
)

type TestManager struct {
	Config     *config.Config
	Service    *services.Service
	Db         *db.Database
	Bank       *custody.Bank
	Deliveries <-chan amqp.Delivery
}

// consumedMessage mirrors queue.Message with the payload left undecoded.
type consumedMessage struct {
	Seq     uint64          `json:"seq"`
	ID      string          `json:"event_id"`
	Type    types.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StartManager runs mongo and rabbitmq in docker and wires a service on top
// of them the same way start-server does.
func StartManager(t *testing.T) *TestManager {
	ctx := t.Context()

	manager, err := container.NewManager(t)
	require.NoError(t, err)

	mongoAddress, err := manager.RunMongoResource(t)
	require.NoError(t, err)
	rabbitAddress, err := manager.RunRabbitMQResource(t)
	require.NoError(t, err)

	cfg := defaultConfig(mongoAddress, rabbitAddress)
	require.NoError(t, cfg.Validate())

	database, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close(context.Background()))
	})
	// the primary may still be electing itself right after rs.initiate
	require.Eventually(t, func() bool {
		return database.Ping(ctx) == nil
	}, 30*time.Second, 500*time.Millisecond)

	require.NoError(t, model.Setup(ctx, &cfg.Db))

	qm, err := queue.NewQueueManager(&cfg.Queue)
	require.NoError(t, err)
	t.Cleanup(qm.Shutdown)

	bank := custody.NewBank()
	svc := services.NewService(
		&cfg.Keeper,
		db.NewDbWithMetrics(database),
		custody.NewCustodyWithMetrics(bank),
		qm,
		clock.System(),
	)

	return &TestManager{
		Config:     cfg,
		Service:    svc,
		Db:         database,
		Bank:       bank,
		Deliveries: consume(t, cfg),
	}
}

func consume(t *testing.T, cfg *config.Config) <-chan amqp.Delivery {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", cfg.Queue.QueueUser, cfg.Queue.QueuePassword, cfg.Queue.Url))
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close() //nolint:errcheck
	})

	ch, err := conn.Channel()
	require.NoError(t, err)

	deliveries, err := ch.Consume(cfg.Queue.QueueName, "e2e", true, false, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func defaultConfig(mongoAddress, rabbitAddress string) *config.Config {
	return &config.Config{
		Db: config.DbConfig{
			Type:    config.DbTypeMongo,
			DbName:  testDbName,
			Address: mongoAddress,
		},
		Protocol: config.ProtocolConfig{
			Authority:      types.DeriveAddress("e2e-authority").Hex(),
			FeeVault:       types.DeriveAddress("e2e-fee-vault").Hex(),
			StakingVault:   types.DeriveAddress("e2e-staking-vault").Hex(),
			FeeBasisPoints: 100,
		},
		Keeper: config.KeeperConfig{
			DistributionInterval: time.Minute,
			MaxConcurrency:       1,
			MaxRetryTimes:        3,
			RetryInterval:        10 * time.Millisecond,
		},
		Queue: config.QueueConfig{
			Enabled:        true,
			QueueUser:      container.RabbitMQUser,
			QueuePassword:  container.RabbitMQPassword,
			Url:            rabbitAddress,
			QueueName:      testQueueName,
			PublishTimeout: 5 * time.Second,
			MaxRetryTimes:  3,
		},
		Metrics: config.MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

// Fund credits amount to addr in the custodian.
func (tm *TestManager) Fund(t *testing.T, addr types.Address, amount types.Amount) {
	require.NoError(t, tm.Bank.Mint(t.Context(), addr, amount))
}

func (tm *TestManager) Balance(t *testing.T, addr types.Address) types.Amount {
	balance, err := tm.Bank.Balance(t.Context(), addr)
	require.NoError(t, err)
	return balance
}

// WaitForMessages reads n messages from the event queue.
func (tm *TestManager) WaitForMessages(t *testing.T, n int) []consumedMessage {
	messages := make([]consumedMessage, 0, n)
	timeout := time.After(30 * time.Second)
	for len(messages) < n {
		select {
		case d, ok := <-tm.Deliveries:
			require.True(t, ok, "delivery channel closed")
			var msg consumedMessage
			require.NoError(t, json.Unmarshal(d.Body, &msg))
			require.Equal(t, string(msg.Type), d.Type)
			messages = append(messages, msg)
		case <-timeout:
			t.Fatalf("received %d of %d messages", len(messages), n)
		}
	}
	return messages
}

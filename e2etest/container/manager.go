package container

import (
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/shade-protocol/shade-ledger/testutil"
)

const (
	mongoReplSet     = "rs0"
	RabbitMQUser     = "user"
	RabbitMQPassword = "password"
)

// Manager is a wrapper around all docker instances, and the Docker API.
// It provides utilities to run and interact with all Docker containers used within e2e testing.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources map[string]*dockertest.Resource
}

// NewManager creates a new Manager instance and initializes
// all Docker specific utilities. Returns an error if initialization fails.
func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       NewImageConfig(),
		pool:      pool,
		resources: make(map[string]*dockertest.Resource),
	}
	t.Cleanup(func() {
		require.NoError(t, m.ClearResources())
	})
	return m, nil
}

func (m *Manager) run(t *testing.T, name string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	suffix, err := testutil.RandomAlphaNum(3)
	require.NoError(t, err)
	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	opts.Name = fmt.Sprintf("%s-%s-%s", name, t.Name(), suffix)

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, err
	}
	m.resources[name] = resource
	return resource, nil
}

// RunMongoResource starts a single node replica set and returns its
// connection string.
func (m *Manager) RunMongoResource(t *testing.T) (string, error) {
	resource, err := m.run(t, "mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Cmd:        []string{"--replSet", mongoReplSet, "--bind_ip_all"},
	})
	if err != nil {
		return "", err
	}

	initiate := fmt.Sprintf(
		"rs.initiate({_id: '%s', members: [{_id: 0, host: 'localhost:27017'}]})", mongoReplSet,
	)
	err = m.pool.Retry(func() error {
		exitCode, err := resource.Exec([]string{"mongosh", "--quiet", "--eval", initiate}, dockertest.ExecOptions{})
		if err != nil {
			return err
		}
		if exitCode != 0 {
			return fmt.Errorf("rs.initiate exited with %d", exitCode)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", resource.GetPort("27017/tcp")), nil
}

// RunRabbitMQResource starts a broker and returns its host:port once it
// accepts connections.
func (m *Manager) RunRabbitMQResource(t *testing.T) (string, error) {
	resource, err := m.run(t, "rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitMQRepository,
		Tag:        m.cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + RabbitMQUser,
			"RABBITMQ_DEFAULT_PASS=" + RabbitMQPassword,
		},
	})
	if err != nil {
		return "", err
	}

	hostPort := fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp"))
	err = m.pool.Retry(func() error {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", RabbitMQUser, RabbitMQPassword, hostPort))
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		return "", err
	}

	return hostPort, nil
}

// ClearResources removes all outstanding Docker resources created by the Manager.
func (m *Manager) ClearResources() error {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return err
		}
	}
	return nil
}

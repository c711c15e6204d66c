package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAuthority    = "0x0101010101010101010101010101010101010101010101010101010101010101"
	testFeeVault     = "0202020202020202020202020202020202020202020202020202020202020202"
	testStakingVault = "0303030303030303030303030303030303030303030303030303030303030303"
)

func validConfig() *Config {
	return &Config{
		Db: DbConfig{
			Type:     DbTypeMongo,
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		Protocol: ProtocolConfig{
			Authority:      testAuthority,
			FeeVault:       testFeeVault,
			StakingVault:   testStakingVault,
			FeeBasisPoints: 100,
		},
		Keeper: KeeperConfig{
			DistributionInterval: time.Minute,
		},
		Queue: QueueConfig{
			Enabled:       true,
			QueueUser:     "test",
			QueuePassword: "test",
			Url:           "localhost:5672",
			QueueName:     "shade-events",
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())

		// defaults are filled in
		assert.Equal(t, defaultKeeperMaxConcurrency, cfg.Keeper.MaxConcurrency)
		assert.Equal(t, uint(defaultKeeperMaxRetryTimes), cfg.Keeper.MaxRetryTimes)
		assert.Equal(t, defaultKeeperRetryInterval, cfg.Keeper.RetryInterval)
		assert.Equal(t, defaultQueuePublishTimeout, cfg.Queue.PublishTimeout)
	})
	t.Run("memory db needs no credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Db = DbConfig{Type: DbTypeMemory}
		require.NoError(t, cfg.Validate())
	})
	t.Run("disabled queue needs no credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Queue = QueueConfig{}
		require.NoError(t, cfg.Validate())
	})

	invalid := []struct {
		name   string
		mutate func(cfg *Config)
		errMsg string
	}{
		{
			name:   "unknown db type",
			mutate: func(cfg *Config) { cfg.Db.Type = "sqlite" },
			errMsg: "unsupported db type",
		},
		{
			name:   "db username without password",
			mutate: func(cfg *Config) { cfg.Db.Password = "" },
			errMsg: "missing db password",
		},
		{
			name:   "bad mongo scheme",
			mutate: func(cfg *Config) { cfg.Db.Address = "http://localhost:27017" },
			errMsg: "unsupported db address scheme",
		},
		{
			name:   "malformed authority",
			mutate: func(cfg *Config) { cfg.Protocol.Authority = "0xabc" },
			errMsg: "invalid protocol authority",
		},
		{
			name:   "fee above max",
			mutate: func(cfg *Config) { cfg.Protocol.FeeBasisPoints = 1001 },
			errMsg: "fee-basis-points must be at most 1000",
		},
		{
			name:   "zero distribution interval",
			mutate: func(cfg *Config) { cfg.Keeper.DistributionInterval = 0 },
			errMsg: "distribution-interval must be positive",
		},
		{
			name:   "queue without name",
			mutate: func(cfg *Config) { cfg.Queue.QueueName = "" },
			errMsg: "missing queue name",
		},
		{
			name:   "metrics port out of range",
			mutate: func(cfg *Config) { cfg.Metrics.Port = 70000 },
			errMsg: "metrics server port",
		},
		{
			name:   "metrics host not an ip",
			mutate: func(cfg *Config) { cfg.Metrics.Host = "localhost" },
			errMsg: "invalid metrics server host",
		},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestProtocolConfig_Addresses(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Protocol.Validate())

	authority, feeVault, stakingVault := cfg.Protocol.Addresses()
	assert.Equal(t, strings.TrimPrefix(testAuthority, "0x"), authority.Hex())
	assert.Equal(t, testFeeVault, feeVault.Hex())
	assert.Equal(t, testStakingVault, stakingVault.Hex())
}

func TestNew(t *testing.T) {
	const yml = `
db:
  type: memory
protocol:
  authority: "` + testAuthority + `"
  fee-vault: "` + testFeeVault + `"
  staking-vault: "` + testStakingVault + `"
  fee-basis-points: 250
keeper:
  distribution-interval: 30s
  max-concurrency: 4
queue:
  enabled: false
metrics:
  host: 127.0.0.1
  port: 2112
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Run("from file", func(t *testing.T) {
		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, DbTypeMemory, cfg.Db.Type)
		assert.Equal(t, uint16(250), cfg.Protocol.FeeBasisPoints)
		assert.Equal(t, 30*time.Second, cfg.Keeper.DistributionInterval)
		assert.Equal(t, 4, cfg.Keeper.MaxConcurrency)
		assert.Equal(t, 2112, cfg.Metrics.GetMetricsPort())
	})
	t.Run("env overrides nested keys", func(t *testing.T) {
		t.Setenv("PROTOCOL__FEE_BASIS_POINTS", "500")

		cfg, err := New(path)
		require.NoError(t, err)
		assert.Equal(t, uint16(500), cfg.Protocol.FeeBasisPoints)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
	})
}

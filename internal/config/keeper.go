package config

import (
	"errors"
	"time"
)

const (
	defaultKeeperMaxConcurrency = 1
	defaultKeeperMaxRetryTimes  = 3
	defaultKeeperRetryInterval  = 500 * time.Millisecond
)

type KeeperConfig struct {
	DistributionInterval time.Duration `mapstructure:"distribution-interval"`
	MaxConcurrency       int           `mapstructure:"max-concurrency"`
	MaxRetryTimes        uint          `mapstructure:"max-retry-times"`
	RetryInterval        time.Duration `mapstructure:"retry-interval"`
}

func (cfg *KeeperConfig) Validate() error {
	if cfg.DistributionInterval <= 0 {
		return errors.New("distribution-interval must be positive")
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultKeeperMaxConcurrency
	}

	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultKeeperMaxRetryTimes
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultKeeperRetryInterval
	}

	return nil
}

package config

import (
	"errors"
	"time"
)

const defaultQueuePublishTimeout = 5 * time.Second

type QueueConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	QueueUser      string        `mapstructure:"user"`
	QueuePassword  string        `mapstructure:"password"`
	Url            string        `mapstructure:"url"`
	QueueName      string        `mapstructure:"queue-name"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
	MaxRetryTimes  uint          `mapstructure:"max-retry-times"`
}

func (cfg *QueueConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.QueueUser == "" {
		return errors.New("missing queue user")
	}

	if cfg.QueuePassword == "" {
		return errors.New("missing queue password")
	}

	if cfg.Url == "" {
		return errors.New("missing queue url")
	}

	if cfg.QueueName == "" {
		return errors.New("missing queue name")
	}

	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultQueuePublishTimeout
	}

	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = 1
	}

	return nil
}

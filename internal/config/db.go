package config

import (
	"fmt"
	"net/url"
)

type DbType string

const (
	DbTypeMemory DbType = "memory"
	DbTypeMongo  DbType = "mongo"
)

type DbConfig struct {
	Type     DbType `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"db-name"`
	Address  string `mapstructure:"address"`
}

func (cfg *DbConfig) Validate() error {
	switch cfg.Type {
	case DbTypeMemory:
		return nil
	case DbTypeMongo:
	case "":
		return fmt.Errorf("db type is required")
	default:
		return fmt.Errorf("unsupported db type %q", cfg.Type)
	}

	// credentials are optional, but a username needs its password
	if cfg.Username != "" && cfg.Password == "" {
		return fmt.Errorf("missing db password")
	}

	if cfg.Address == "" {
		return fmt.Errorf("missing db address")
	}

	if cfg.DbName == "" {
		return fmt.Errorf("missing db name")
	}

	u, err := url.Parse(cfg.Address)
	if err != nil {
		return fmt.Errorf("invalid db address: %w", err)
	}

	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("unsupported db address scheme: %s", u.Scheme)
	}

	return nil
}

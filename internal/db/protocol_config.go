package db

import (
	"context"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
)

func (db *Database) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfig, error) {
	var cfg model.ProtocolConfig
	err := db.findByID(ctx, model.ProtocolConfigCollection, model.ProtocolConfigAddress(), &cfg, "protocol config")
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (db *Database) InsertProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	return db.insert(ctx, model.ProtocolConfigCollection, cfg.Address, cfg, "protocol config")
}

func (db *Database) UpdateProtocolConfig(ctx context.Context, cfg *model.ProtocolConfig) error {
	return db.replace(ctx, model.ProtocolConfigCollection, cfg.Address, cfg, "protocol config")
}

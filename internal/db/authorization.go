package db

import (
	"context"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

func (db *Database) GetAuthorization(ctx context.Context, authorization types.Address) (*model.Authorization, error) {
	var auth model.Authorization
	if err := db.findByID(ctx, model.AuthorizationCollection, authorization, &auth, "authorization"); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (db *Database) InsertAuthorization(ctx context.Context, authorization *model.Authorization) error {
	return db.insert(ctx, model.AuthorizationCollection, authorization.Address, authorization, "authorization")
}

func (db *Database) UpdateAuthorization(ctx context.Context, authorization *model.Authorization) error {
	return db.replace(ctx, model.AuthorizationCollection, authorization.Address, authorization, "authorization")
}

package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

func (db *Database) GetFogPool(ctx context.Context, pool types.Address) (*model.FogPool, error) {
	var fogPool model.FogPool
	if err := db.findByID(ctx, model.FogPoolCollection, pool, &fogPool, "fog pool"); err != nil {
		return nil, err
	}
	return &fogPool, nil
}

func (db *Database) InsertFogPool(ctx context.Context, pool *model.FogPool) error {
	return db.insert(ctx, model.FogPoolCollection, pool.Address, pool, "fog pool")
}

func (db *Database) UpdateFogPool(ctx context.Context, pool *model.FogPool) error {
	return db.replace(ctx, model.FogPoolCollection, pool.Address, pool, "fog pool")
}

func (db *Database) ListFogPools(ctx context.Context) ([]*model.FogPool, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := db.collection(model.FogPoolCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pools []*model.FogPool
	if err := cursor.All(ctx, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

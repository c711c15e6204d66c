package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

func (db *Database) GetStaker(ctx context.Context, user types.Address) (*model.Staker, error) {
	var staker model.Staker
	if err := db.findByID(ctx, model.StakerCollection, user, &staker, "staker"); err != nil {
		return nil, err
	}
	return &staker, nil
}

func (db *Database) SaveStaker(ctx context.Context, staker *model.Staker) error {
	opts := options.Replace().SetUpsert(true)
	_, err := db.collection(model.StakerCollection).
		ReplaceOne(ctx, bson.M{"_id": staker.User}, staker, opts)
	return err
}

func (db *Database) ListStakers(ctx context.Context, minStake types.Amount) ([]*model.Staker, error) {
	filter := bson.M{"staked_amount": bson.M{"$gte": minStake}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := db.collection(model.StakerCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stakers []*model.Staker
	if err := cursor.All(ctx, &stakers); err != nil {
		return nil, err
	}
	return stakers, nil
}

package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shade-protocol/shade-ledger/internal/db/model"
)

type counter struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// AppendEvents reserves a block of sequence numbers from the counter
// document and inserts the records. Inside a transaction the counter update
// serializes concurrent appenders.
func (db *Database) AppendEvents(ctx context.Context, records ...*model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	update := bson.M{"$inc": bson.M{"value": int64(len(records))}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := db.collection(model.CounterCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": model.EventSeqCounter}, update, opts).
		Decode(&c)
	if err != nil {
		return fmt.Errorf("failed to reserve event sequence: %w", err)
	}

	first := uint64(c.Value) - uint64(len(records)) + 1
	docs := make([]any, len(records))
	for i, r := range records {
		r.Seq = first + uint64(i)
		docs[i] = r
	}

	if _, err := db.collection(model.EventCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append events: %w", err)
	}
	return nil
}

func (db *Database) ListEvents(ctx context.Context, afterSeq uint64, limit int64) ([]*model.EventRecord, error) {
	filter := bson.M{"_id": bson.M{"$gt": afterSeq}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := db.collection(model.EventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.EventRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

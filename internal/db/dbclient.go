package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

// Database is the MongoDB backed store. Transitions run inside
// multi-document transactions, so the server has to be a replica set.
type Database struct {
	dbName string
	client *mongo.Client
}

func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return nil, err
	}

	return &Database{
		dbName: cfg.DbName,
		client: client,
	}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// RunInTx runs fn in a transaction bound to a fresh session. The callback
// is never retried, since it may have moved funds through external
// collaborators before failing.
func (db *Database) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session, err := db.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if err := fn(sc, db); err != nil {
			if abortErr := sc.AbortTransaction(context.WithoutCancel(sc)); abortErr != nil {
				log.Ctx(ctx).Warn().Err(abortErr).Msg("failed to abort transaction")
			}
			return err
		}

		if err := sc.CommitTransaction(sc); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}

func (db *Database) findByID(ctx context.Context, collection string, id types.Address, result any, entity string) error {
	err := db.collection(collection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     id.Hex(),
				Message: entity + " not found",
			}
		}
		return err
	}
	return nil
}

func (db *Database) insert(ctx context.Context, collection string, id types.Address, doc any, entity string) error {
	_, err := db.collection(collection).InsertOne(ctx, doc)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     id.Hex(),
						Message: entity + " already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) replace(ctx context.Context, collection string, id types.Address, doc any, entity string) error {
	res, err := db.collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id.Hex(),
			Message: entity + " not found",
		}
	}
	return nil
}

package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shade-protocol/shade-ledger/internal/config"
)

type index struct {
	Keys   bson.D
	Unique bool
}

var collections = map[string][]index{
	ProtocolConfigCollection: nil,
	StakerCollection: {
		{Keys: bson.D{{Key: "staked_amount", Value: -1}}},
	},
	FogPoolCollection: {
		{Keys: bson.D{{Key: "authority", Value: 1}}},
	},
	AuthorizationCollection: {
		{Keys: bson.D{{Key: "fog_pool", Value: 1}, {Key: "authorized_spender", Value: 1}}},
		{Keys: bson.D{{Key: "issuer", Value: 1}}},
	},
	EventCollection: {
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Unique: true},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	},
	CounterCollection: nil,
}

// namespaceExistsErrorCode is returned by create for an existing collection.
const namespaceExistsErrorCode = 48

// Setup creates the collections and indexes the store relies on. It is
// idempotent. Collections have to exist up front because multi-document
// transactions cannot create them on older servers.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()

	database := client.Database(cfg.DbName)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for collection, idxs := range collections {
		if err := createCollection(ctx, database, collection); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and Indexes created successfully.")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	err := database.CreateCollection(ctx, collectionName)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsErrorCode {
		log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("Collection already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Msg("Index created")
	return nil
}

package persistence

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type indexSpec struct {
	collection string
	models     []mongo.IndexModel
}

func indexSpecs() []indexSpec {
	return []indexSpec{
		{CollectionStaff, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{CollectionSubscribers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "addedAt", Value: -1}}},
		}},
		{CollectionInquiries, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		}},
		{CollectionGallery, []mongo.IndexModel{
			{Keys: bson.D{{Key: "visible", Value: 1}, {Key: "order", Value: 1}}},
		}},
		{CollectionCertifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "visible", Value: 1}, {Key: "order", Value: 1}}},
		}},
		{CollectionVisitors, []mongo.IndexModel{
			{Keys: bson.D{{Key: "at", Value: -1}}},
			{Keys: bson.D{{Key: "visitorHash", Value: 1}, {Key: "at", Value: -1}}},
		}},
		{CollectionPasswordResets, []mongo.IndexModel{
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			// documents are purged a day after expiry
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(86400)},
		}},
		{CollectionActivityLogs, []mongo.IndexModel{
			{Keys: bson.D{{Key: "at", Value: -1}}},
		}},
	}
}

// EnsureIndexes creates the indexes every repository relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no mongo database available; skipping index creation")
		return nil
	}

	count := 0
	for _, spec := range indexSpecs() {
		names, err := db.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models)
		if err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", spec.collection, err)
		}
		count += len(names)
	}

	logger.Info("indexes ensured", zap.Int("count", count))
	return nil
}

package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// ActivityLogRepository stores audit entries.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	List(ctx context.Context, limit int) ([]domain.ActivityLog, error)
	Each(ctx context.Context, fn func(*domain.ActivityLog) error) error
}

type activityLogRepository struct {
	coll *mongo.Collection
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(coll *mongo.Collection) ActivityLogRepository {
	return &activityLogRepository{coll: coll}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	_, err := r.coll.InsertOne(ctx, entry)
	return err
}

func (r *activityLogRepository) List(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	result := []domain.ActivityLog{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *activityLogRepository) Each(ctx context.Context, fn func(*domain.ActivityLog) error) error {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var entry domain.ActivityLog
		if err := cursor.Decode(&entry); err != nil {
			return err
		}
		if err := fn(&entry); err != nil {
			return err
		}
	}
	return cursor.Err()
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// VisitorSummary aggregates page views over a window.
type VisitorSummary struct {
	Views    int64 `json:"views"`
	Visitors int64 `json:"visitors"`
}

// GroupCount is one row of a grouped breakdown.
type GroupCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// VisitorRepository stores tracked page views.
type VisitorRepository interface {
	Insert(ctx context.Context, visit *domain.Visit) error
	Summary(ctx context.Context, since time.Time) (VisitorSummary, error)
	Daily(ctx context.Context, since time.Time) ([]DayCount, error)
	// GroupBy counts visits per distinct value of field, largest first.
	GroupBy(ctx context.Context, field string, since time.Time, limit int) ([]GroupCount, error)
}

type visitorRepository struct {
	coll *mongo.Collection
}

// NewVisitorRepository builds repository.
func NewVisitorRepository(coll *mongo.Collection) VisitorRepository {
	return &visitorRepository{coll: coll}
}

func (r *visitorRepository) Insert(ctx context.Context, visit *domain.Visit) error {
	_, err := r.coll.InsertOne(ctx, visit)
	return err
}

func (r *visitorRepository) Summary(ctx context.Context, since time.Time) (VisitorSummary, error) {
	match := bson.M{"at": bson.M{"$gte": since}}
	views, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return VisitorSummary{}, err
	}
	hashes, err := r.coll.Distinct(ctx, "visitorHash", match)
	if err != nil {
		return VisitorSummary{}, err
	}
	return VisitorSummary{Views: views, Visitors: int64(len(hashes))}, nil
}

func (r *visitorRepository) Daily(ctx context.Context, since time.Time) ([]DayCount, error) {
	return dailyCounts(ctx, r.coll, "at", since)
}

func (r *visitorRepository) GroupBy(ctx context.Context, field string, since time.Time, limit int) ([]GroupCount, error) {
	if limit <= 0 {
		limit = 10
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"at": bson.M{"$gte": since}, field: bson.M{"$nin": bson.A{nil, ""}}}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	result := []GroupCount{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

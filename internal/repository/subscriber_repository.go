package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// SubscriberRepository persists newsletter subscribers keyed by email.
type SubscriberRepository interface {
	Insert(ctx context.Context, sub *domain.Subscriber) error
	// Upsert inserts sub unless the address exists; existing documents keep their addedAt.
	Upsert(ctx context.Context, sub *domain.Subscriber) (created bool, err error)
	Get(ctx context.Context, email string) (*domain.Subscriber, error)
	List(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error)
	Count(ctx context.Context, filter SubscriberFilter) (int64, error)
	Delete(ctx context.Context, email string) error
	Emails(ctx context.Context) ([]string, error)
}

// SubscriberFilter narrows subscriber listings.
type SubscriberFilter struct {
	Search string
	Since  *time.Time
	Limit  int
}

type subscriberRepository struct {
	coll *mongo.Collection
}

// NewSubscriberRepository constructs the repository.
func NewSubscriberRepository(coll *mongo.Collection) SubscriberRepository {
	return &subscriberRepository{coll: coll}
}

func (r *subscriberRepository) Insert(ctx context.Context, sub *domain.Subscriber) error {
	_, err := r.coll.InsertOne(ctx, sub)
	return err
}

func (r *subscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) (bool, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"addedAt":   sub.AddedAt,
		"addedBy":   sub.AddedBy,
		"staffName": sub.StaffName,
		"source":    sub.Source,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": sub.Email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *subscriberRepository) Get(ctx context.Context, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	if err := r.coll.FindOne(ctx, bson.M{"_id": email}).Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriberRepository) List(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.coll.Find(ctx, subscriberQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	result := []domain.Subscriber{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *subscriberRepository) Count(ctx context.Context, filter SubscriberFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, subscriberQuery(filter))
}

func (r *subscriberRepository) Delete(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *subscriberRepository) Emails(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			emails = append(emails, s)
		}
	}
	return emails, nil
}

func subscriberQuery(filter SubscriberFilter) bson.M {
	query := bson.M{}
	if filter.Search != "" {
		query["_id"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}
	if filter.Since != nil {
		query["addedAt"] = bson.M{"$gte": *filter.Since}
	}
	return query
}

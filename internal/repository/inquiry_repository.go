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

// InquiryFilter captures list parameters.
type InquiryFilter struct {
	Status *domain.InquiryStatus
	Search string
	Since  *time.Time
	Limit  int
	Offset int
}

// DayCount is one bucket of a per-day series. Day is formatted YYYY-MM-DD (UTC).
type DayCount struct {
	Day   string `bson:"_id" json:"day"`
	Count int64  `bson:"count" json:"count"`
}

// InquiryRepository encapsulates inquiry persistence.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	List(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error)
	Count(ctx context.Context, filter InquiryFilter) (int64, error)
	// SetStatus changes the status and appends change to the status history.
	SetStatus(ctx context.Context, id string, change domain.InquiryStatusChange) error
	// AppendReply pushes reply and, when change is non-nil, applies it like SetStatus.
	AppendReply(ctx context.Context, id string, reply domain.InquiryReply, change *domain.InquiryStatusChange) error
	Delete(ctx context.Context, id string) error
	Each(ctx context.Context, fn func(*domain.Inquiry) error) error
	CountByStatus(ctx context.Context, since *time.Time) (map[domain.InquiryStatus]int64, error)
	DailyCounts(ctx context.Context, since time.Time) ([]DayCount, error)
}

type inquiryRepository struct {
	coll *mongo.Collection
}

// NewInquiryRepository instantiates repository.
func NewInquiryRepository(coll *mongo.Collection) InquiryRepository {
	return &inquiryRepository{coll: coll}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	if inquiry.Replies == nil {
		inquiry.Replies = []domain.InquiryReply{}
	}
	if inquiry.StatusHistory == nil {
		inquiry.StatusHistory = []domain.InquiryStatusChange{}
	}
	_, err := r.coll.InsertOne(ctx, inquiry)
	return err
}

func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	var inquiry domain.Inquiry
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&inquiry); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

func (r *inquiryRepository) List(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(max(filter.Offset, 0)))

	cursor, err := r.coll.Find(ctx, inquiryQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	result := []domain.Inquiry{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *inquiryRepository) Count(ctx context.Context, filter InquiryFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, inquiryQuery(filter))
}

func (r *inquiryRepository) SetStatus(ctx context.Context, id string, change domain.InquiryStatusChange) error {
	update := bson.M{
		"$set":  bson.M{"status": change.To, "updatedAt": change.At},
		"$push": bson.M{"statusHistory": change},
	}
	return r.updateOne(ctx, id, update)
}

func (r *inquiryRepository) AppendReply(ctx context.Context, id string, reply domain.InquiryReply, change *domain.InquiryStatusChange) error {
	set := bson.M{"updatedAt": reply.At}
	push := bson.M{"replies": reply}
	if change != nil {
		set["status"] = change.To
		push["statusHistory"] = change
	}
	return r.updateOne(ctx, id, bson.M{"$set": set, "$push": push})
}

func (r *inquiryRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *inquiryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *inquiryRepository) Each(ctx context.Context, fn func(*domain.Inquiry) error) error {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var inquiry domain.Inquiry
		if err := cursor.Decode(&inquiry); err != nil {
			return err
		}
		if err := fn(&inquiry); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *inquiryRepository) CountByStatus(ctx context.Context, since *time.Time) (map[domain.InquiryStatus]int64, error) {
	pipeline := mongo.Pipeline{}
	if since != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": *since}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}})

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status domain.InquiryStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	result := make(map[domain.InquiryStatus]int64, len(domain.InquiryStatuses))
	for _, status := range domain.InquiryStatuses {
		result[status] = 0
	}
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}

func (r *inquiryRepository) DailyCounts(ctx context.Context, since time.Time) ([]DayCount, error) {
	return dailyCounts(ctx, r.coll, "createdAt", since)
}

func inquiryQuery(filter InquiryFilter) bson.M {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Since != nil {
		query["createdAt"] = bson.M{"$gte": *filter.Since}
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"subject": pattern},
			bson.M{"message": pattern},
		}
	}
	return query
}

// dailyCounts groups documents by the UTC day of field.
func dailyCounts(ctx context.Context, coll *mongo.Collection, field string, since time.Time) ([]DayCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$" + field}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	result := []DayCount{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

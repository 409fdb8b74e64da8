package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// MediaTotals sums engagement counters across a collection.
type MediaTotals struct {
	Items int64 `bson:"items" json:"items"`
	Views int64 `bson:"views" json:"views"`
	Likes int64 `bson:"likes" json:"likes"`
}

// MediaRepository persists gallery images or certifications; one instance per collection.
type MediaRepository interface {
	Kind() domain.MediaKind
	Create(ctx context.Context, item *domain.MediaItem) error
	GetByID(ctx context.Context, id string) (*domain.MediaItem, error)
	List(ctx context.Context, visibleOnly bool) ([]domain.MediaItem, error)
	Update(ctx context.Context, item *domain.MediaItem) error
	Delete(ctx context.Context, id string) error
	SetOrder(ctx context.Context, ids []string, at time.Time) error
	NextOrder(ctx context.Context) (int, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
	IncrementLikes(ctx context.Context, id string) (int64, error)
	Totals(ctx context.Context) (MediaTotals, error)
}

type mediaRepository struct {
	kind domain.MediaKind
	coll *mongo.Collection
}

// NewMediaRepository binds a repository to the collection for kind.
func NewMediaRepository(kind domain.MediaKind, coll *mongo.Collection) MediaRepository {
	return &mediaRepository{kind: kind, coll: coll}
}

func (r *mediaRepository) Kind() domain.MediaKind {
	return r.kind
}

func (r *mediaRepository) Create(ctx context.Context, item *domain.MediaItem) error {
	_, err := r.coll.InsertOne(ctx, item)
	item.Kind = r.kind
	return err
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*domain.MediaItem, error) {
	var item domain.MediaItem
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, err
	}
	item.Kind = r.kind
	return &item, nil
}

func (r *mediaRepository) List(ctx context.Context, visibleOnly bool) ([]domain.MediaItem, error) {
	query := bson.M{}
	if visibleOnly {
		query["visible"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	result := []domain.MediaItem{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Kind = r.kind
	}
	return result, nil
}

func (r *mediaRepository) Update(ctx context.Context, item *domain.MediaItem) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mediaRepository) SetOrder(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(ids))
	for i, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"order": i, "updatedAt": at}}))
	}
	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *mediaRepository) NextOrder(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}}).SetProjection(bson.M{"order": 1})
	var last struct {
		Order int `bson:"order"`
	}
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Order + 1, nil
}

func (r *mediaRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "views")
}

func (r *mediaRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "likes")
}

func (r *mediaRepository) increment(ctx context.Context, id, field string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})
	var doc bson.M
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "visible": true}, bson.M{"$inc": bson.M{field: 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	switch v := doc[field].(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	}
	return 0, nil
}

func (r *mediaRepository) Totals(ctx context.Context) (MediaTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"items": bson.M{"$sum": 1},
			"views": bson.M{"$sum": "$views"},
			"likes": bson.M{"$sum": "$likes"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return MediaTotals{}, err
	}
	var rows []MediaTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return MediaTotals{}, err
	}
	if len(rows) == 0 {
		return MediaTotals{}, nil
	}
	return rows[0], nil
}

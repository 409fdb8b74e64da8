package repository

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	ListNotifiable(ctx context.Context) ([]domain.StaffMember, error)
	Count(ctx context.Context) (int64, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role   *domain.StaffRole
	Search string
	Limit  int
	Offset int
}

type staffRepository struct {
	coll *mongo.Collection
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(coll *mongo.Collection) StaffRepository {
	return &staffRepository{coll: coll}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	_, err := r.coll.InsertOne(ctx, staff)
	return err
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": staff.ID}, staff)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *staffRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *staffRepository) findOne(ctx context.Context, filter bson.M) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := r.coll.FindOne(ctx, filter).Decode(&staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := bson.M{}
	if filter.Role != nil {
		query["role"] = *filter.Role
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"email": pattern}}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(max(filter.Offset, 0)))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	result := []domain.StaffMember{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *staffRepository) ListNotifiable(ctx context.Context) ([]domain.StaffMember, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"notifications": true})
	if err != nil {
		return nil, err
	}
	result := []domain.StaffMember{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *staffRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error)
	// MarkUsed stamps the token; it fails with ErrNoDocuments if already used.
	MarkUsed(ctx context.Context, id string, at time.Time) error
	DeleteForStaff(ctx context.Context, staffID string) error
}

type passwordResetRepository struct {
	coll *mongo.Collection
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(coll *mongo.Collection) PasswordResetRepository {
	return &passwordResetRepository{coll: coll}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	_, err := r.coll.InsertOne(ctx, reset)
	return err
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	var reset domain.PasswordReset
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	filter := bson.M{"_id": id, "usedAt": bson.M{"$exists": false}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"usedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *passwordResetRepository) DeleteForStaff(ctx context.Context, staffID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"staffId": staffID})
	return err
}

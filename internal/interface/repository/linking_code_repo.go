package repository

import (
	"context"
	"errors"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLinkingCodeRepository implements LinkingCodeRepository. Codes are
// stored durably so outstanding codes survive a restart.
type MongoLinkingCodeRepository struct {
	collection *mongo.Collection
}

// NewMongoLinkingCodeRepository creates a new linking code repository
func NewMongoLinkingCodeRepository(db *mongo.Database) repository.LinkingCodeRepository {
	collection := db.Collection("linking_codes")

	ctx := context.Background()
	codeIndex := mongo.IndexModel{
		Keys: bson.M{"code": 1},
	}
	collection.Indexes().CreateOne(ctx, codeIndex)

	ownerIndex := mongo.IndexModel{
		Keys: bson.M{"webIdentityId": 1},
	}
	collection.Indexes().CreateOne(ctx, ownerIndex)

	return &MongoLinkingCodeRepository{
		collection: collection,
	}
}

// Create inserts a new linking code
func (r *MongoLinkingCodeRepository) Create(ctx context.Context, code *entity.LinkingCode) error {
	if code.ID == "" {
		code.ID = primitive.NewObjectID().Hex()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, code)
	return err
}

// InvalidateForOwner consumes all outstanding codes of the owner, so
// issuing a new code implicitly invalidates the previous one
func (r *MongoLinkingCodeRepository) InvalidateForOwner(ctx context.Context, webIdentityID string) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"webIdentityId": webIdentityID, "consumed": false},
		bson.M{"$set": bson.M{"consumed": true}},
	)
	return err
}

// FindActive returns the unconsumed, unexpired code without consuming it
func (r *MongoLinkingCodeRepository) FindActive(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error) {
	var lc entity.LinkingCode
	err := r.collection.FindOne(ctx, bson.M{
		"code":      code,
		"consumed":  false,
		"expiresAt": bson.M{"$gt": now},
	}).Decode(&lc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}
	return &lc, nil
}

// Consume atomically marks the code consumed. FindOneAndUpdate matches
// only an unconsumed, unexpired code, so under concurrent confirm
// attempts exactly one caller gets the document back.
func (r *MongoLinkingCodeRepository) Consume(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error) {
	var lc entity.LinkingCode
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"code":      code,
			"consumed":  false,
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"consumed": true}},
	).Decode(&lc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}
	lc.Consumed = true
	return &lc, nil
}

// Restore flips a consumed code back to unconsumed, provided it has not
// expired in the meantime. Expired codes stay dead.
func (r *MongoLinkingCodeRepository) Restore(ctx context.Context, code string, now time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"code":      code,
			"consumed":  true,
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"consumed": false}},
	)
	return err
}

// DeleteExpired removes codes past their expiry
func (r *MongoLinkingCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

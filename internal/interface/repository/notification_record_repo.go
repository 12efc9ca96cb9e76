package repository

import (
	"context"
	"fmt"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepository implements NotificationRepository
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new notification record
// repository. The unique (alertId, fingerprint) index is the dedup gate
// Record relies on; if it cannot be created the repository must not be
// used.
func NewMongoNotificationRepository(db *mongo.Database) (repository.NotificationRepository, error) {
	collection := db.Collection("notification_records")

	ctx := context.Background()
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "alertId", Value: 1}, {Key: "fingerprint", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to create dedup index: %w", err)
	}

	// Best effort; only speeds up the backlog count
	deliveredIndex := mongo.IndexModel{
		Keys: bson.M{"delivered": 1},
	}
	collection.Indexes().CreateOne(ctx, deliveredIndex)

	return &MongoNotificationRepository{
		collection: collection,
	}, nil
}

// Record inserts the record unless the (alertId, fingerprint) pair is
// already present. The unique index makes the insert an atomic
// check-and-set: a duplicate-key error means another dispatch already
// claimed the fingerprint and false is returned without error.
func (r *MongoNotificationRepository) Record(ctx context.Context, rec *entity.NotificationRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkDelivered flips the delivered flag on explicit channel confirmation
func (r *MongoNotificationRepository) MarkDelivered(ctx context.Context, alertID, fingerprint string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"alertId": alertID, "fingerprint": fingerprint},
		bson.M{"$set": bson.M{"delivered": true}},
	)
	return err
}

// ListByAlert returns the notification history of an alert
func (r *MongoNotificationRepository) ListByAlert(ctx context.Context, alertID string) ([]*entity.NotificationRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"alertId": alertID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*entity.NotificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountUndelivered returns the delivered=false backlog size. Failed sends
// keep their dedup slot, so this backlog is the operator's remediation list.
func (r *MongoNotificationRepository) CountUndelivered(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sent": true, "delivered": false})
}

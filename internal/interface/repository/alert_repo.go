package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAlertRepository implements AlertRepository
type MongoAlertRepository struct {
	collection *mongo.Collection
}

// NewMongoAlertRepository creates a new alert repository
func NewMongoAlertRepository(db *mongo.Database) repository.AlertRepository {
	collection := db.Collection("alerts")

	// Index on status for the scheduler's active-alert scan
	ctx := context.Background()
	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}
	collection.Indexes().CreateOne(ctx, statusIndex)

	ownerIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "ownerBotId", Value: 1}, {Key: "ownerWebId", Value: 1}},
	}
	collection.Indexes().CreateOne(ctx, ownerIndex)

	return &MongoAlertRepository{
		collection: collection,
	}
}

// Create inserts a new alert. Routes are upper-cased on write.
func (r *MongoAlertRepository) Create(ctx context.Context, alert *entity.Alert) error {
	now := time.Now()
	if alert.ID == "" {
		alert.ID = primitive.NewObjectID().Hex()
	}
	if alert.Status == "" {
		alert.Status = entity.AlertActive
	}
	alert.Origin = strings.ToUpper(alert.Origin)
	alert.Destination = strings.ToUpper(alert.Destination)
	alert.CreatedAt = now
	alert.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

// FindByID finds an alert by id
func (r *MongoAlertRepository) FindByID(ctx context.Context, id string) (*entity.Alert, error) {
	var alert entity.Alert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// FindDuplicate returns the owner's existing non-deleted alert for the same
// route and scope kind, or nil when there is none
func (r *MongoAlertRepository) FindDuplicate(ctx context.Context, alert *entity.Alert) (*entity.Alert, error) {
	ownerClauses := []bson.M{}
	if alert.OwnerBotID != "" {
		ownerClauses = append(ownerClauses, bson.M{"ownerBotId": alert.OwnerBotID})
	}
	if alert.OwnerWebID != "" {
		ownerClauses = append(ownerClauses, bson.M{"ownerWebId": alert.OwnerWebID})
	}
	if len(ownerClauses) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"$or":         ownerClauses,
		"origin":      strings.ToUpper(alert.Origin),
		"destination": strings.ToUpper(alert.Destination),
		"scopeKind":   alert.ScopeKind,
		"status":      bson.M{"$ne": entity.AlertDeleted},
	}

	var existing entity.Alert
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// ListActive returns alerts eligible for scheduling. Paused and deleted
// alerts are excluded.
func (r *MongoAlertRepository) ListActive(ctx context.Context) ([]*entity.Alert, error) {
	return r.list(ctx, bson.M{"status": entity.AlertActive})
}

// ListByBotOwner returns non-deleted alerts visible to a bot identity
func (r *MongoAlertRepository) ListByBotOwner(ctx context.Context, botID string) ([]*entity.Alert, error) {
	return r.list(ctx, bson.M{
		"ownerBotId": botID,
		"status":     bson.M{"$ne": entity.AlertDeleted},
	})
}

// ListByWebOwner returns non-deleted alerts visible to a web identity
func (r *MongoAlertRepository) ListByWebOwner(ctx context.Context, webID string) ([]*entity.Alert, error) {
	return r.list(ctx, bson.M{
		"ownerWebId": webID,
		"status":     bson.M{"$ne": entity.AlertDeleted},
	})
}

func (r *MongoAlertRepository) list(ctx context.Context, filter bson.M) ([]*entity.Alert, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*entity.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// RecordCheck sets the last-checked timestamp
func (r *MongoAlertRepository) RecordCheck(ctx context.Context, id string, checkedAt time.Time) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"lastCheckedAt": checkedAt,
			"updatedAt":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return entity.ErrAlertNotFound
	}
	return nil
}

// IncrementSentCount bumps the notification counter
func (r *MongoAlertRepository) IncrementSentCount(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"alertsSentCount": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

// SetStatus moves the alert to a new lifecycle state
func (r *MongoAlertRepository) SetStatus(ctx context.Context, id string, status entity.AlertStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return entity.ErrAlertNotFound
	}
	return nil
}

// Reconcile re-points alerts so both linked identities see each other's
// alerts. Updates owner references only; the row count never changes and
// notification history keeps its original alert references.
func (r *MongoAlertRepository) Reconcile(ctx context.Context, botID, webID string) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"ownerBotId": botID},
		bson.M{"$set": bson.M{"ownerWebId": webID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateMany(
		ctx,
		bson.M{"ownerWebId": webID},
		bson.M{"$set": bson.M{"ownerBotId": botID, "updatedAt": time.Now()}},
	)
	return err
}

// Detach removes the owner references added by Reconcile. Alerts are not
// deleted, only hidden from the identity they were not created under.
func (r *MongoAlertRepository) Detach(ctx context.Context, botID, webID string) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"createdBy": entity.CreatedByBot, "ownerBotId": botID},
		bson.M{"$unset": bson.M{"ownerWebId": ""}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateMany(
		ctx,
		bson.M{"createdBy": entity.CreatedByWeb, "ownerWebId": webID},
		bson.M{"$unset": bson.M{"ownerBotId": ""}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	return err
}

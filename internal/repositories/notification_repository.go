package repositories

import (
	"context"
	"time"

	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uint, page, limit int, includeDeleted bool) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id string, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	SoftDelete(ctx context.Context, id string, userID uint) error
	Restore(ctx context.Context, id string, userID uint) error
	HardDelete(ctx context.Context, id string, userID uint) error
	RetentionSweep(ctx context.Context, userID uint) (int64, error)
	SweepAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context, userID uint) (*models.NotificationStats, error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
	retention  time.Duration
	readAging  bool
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository.
// retention is the window after which soft-deleted rows (and, when
// readAging is enabled, read rows) become permanently unrecoverable.
func NewMongoNotificationRepository(db *mongo.Database, retention time.Duration, readAging bool) *MongoNotificationRepository {
	return &MongoNotificationRepository{
		collection: db.Collection("notifications"),
		retention:  retention,
		readAging:  readAging,
	}
}

func parseNotificationID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid notification ID format")
	}
	return objID, nil
}

// Create persists a new notification with read=false and
// markedForDeletion=false.
func (r *MongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	n.Read = false
	n.ReadAt = nil
	n.MarkedForDeletion = false
	n.MarkedForDeletionAt = nil
	n.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return apperr.Transient("failed to store notification", err)
	}
	return nil
}

// List returns one page of the user's notifications, newest first,
// excluding soft-deleted rows unless includeDeleted is set. The per-user
// retention sweep runs first, so expired rows never reach a listing.
func (r *MongoNotificationRepository) List(ctx context.Context, userID uint, page, limit int, includeDeleted bool) ([]models.Notification, int64, error) {
	if _, err := r.RetentionSweep(ctx, userID); err != nil {
		return nil, 0, err
	}

	filter := bson.M{"user": userID}
	if !includeDeleted {
		filter["markedForDeletion"] = false
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Transient("failed to count notifications", err)
	}

	skip := int64((page - 1) * limit)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, apperr.Transient("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, apperr.Transient("failed to decode notifications", err)
	}
	return notifications, total, nil
}

// MarkRead sets read=true with a read timestamp. Fails with a not-found
// error when the notification does not belong to the user or is already
// soft-deleted.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id string, userID uint) error {
	objID, err := parseNotificationID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": objID, "user": userID, "markedForDeletion": false}
	update := bson.M{"$set": bson.M{"read": true, "readAt": time.Now().UTC()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Transient("failed to mark notification read", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// MarkAllRead bulk-sets read=true on all non-deleted unread notifications.
func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	filter := bson.M{"user": userID, "read": false, "markedForDeletion": false}
	update := bson.M{"$set": bson.M{"read": true, "readAt": time.Now().UTC()}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, apperr.Transient("failed to mark notifications read", err)
	}
	return res.ModifiedCount, nil
}

// SoftDelete marks the notification for deletion, starting its retention
// countdown.
func (r *MongoNotificationRepository) SoftDelete(ctx context.Context, id string, userID uint) error {
	objID, err := parseNotificationID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": objID, "user": userID, "markedForDeletion": false}
	update := bson.M{"$set": bson.M{"markedForDeletion": true, "markedForDeletionAt": time.Now().UTC()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Transient("failed to mark notification for deletion", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// Restore reverses a soft delete. Only possible while the row still
// exists, i.e. within the retention window.
func (r *MongoNotificationRepository) Restore(ctx context.Context, id string, userID uint) error {
	objID, err := parseNotificationID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": objID, "user": userID, "markedForDeletion": true}
	update := bson.M{
		"$set":   bson.M{"markedForDeletion": false},
		"$unset": bson.M{"markedForDeletionAt": ""},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Transient("failed to restore notification", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// HardDelete permanently removes a single notification (force path).
func (r *MongoNotificationRepository) HardDelete(ctx context.Context, id string, userID uint) error {
	objID, err := parseNotificationID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "user": userID})
	if err != nil {
		return apperr.Transient("failed to delete notification", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// purgeFilter builds the hard-delete condition mirroring
// models.Notification.PurgeEligible.
func (r *MongoNotificationRepository) purgeFilter(now time.Time) bson.M {
	cutoff := now.Add(-r.retention)
	conditions := bson.A{
		bson.M{"markedForDeletion": true, "markedForDeletionAt": bson.M{"$lte": cutoff}},
	}
	if r.readAging {
		conditions = append(conditions, bson.M{"read": true, "createdAt": bson.M{"$lte": cutoff}})
	}
	return bson.M{"$or": conditions}
}

// RetentionSweep permanently deletes the user's expired notifications and
// returns the number removed.
func (r *MongoNotificationRepository) RetentionSweep(ctx context.Context, userID uint) (int64, error) {
	filter := r.purgeFilter(time.Now().UTC())
	filter["user"] = userID
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, apperr.Transient("failed to sweep notifications", err)
	}
	return res.DeletedCount, nil
}

// SweepAll purges expired notifications across all users. Invoked by the
// cleanup endpoint and the scheduled worker.
func (r *MongoNotificationRepository) SweepAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, r.purgeFilter(time.Now().UTC()))
	if err != nil {
		return 0, apperr.Transient("failed to sweep notifications", err)
	}
	return res.DeletedCount, nil
}

// Stats returns total and unread counts excluding soft-deleted rows, plus
// the count currently marked for deletion. Sweeps first so expired rows
// never influence the counts.
func (r *MongoNotificationRepository) Stats(ctx context.Context, userID uint) (*models.NotificationStats, error) {
	if _, err := r.RetentionSweep(ctx, userID); err != nil {
		return nil, err
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{"user": userID, "markedForDeletion": false})
	if err != nil {
		return nil, apperr.Transient("failed to count notifications", err)
	}
	unread, err := r.collection.CountDocuments(ctx, bson.M{"user": userID, "markedForDeletion": false, "read": false})
	if err != nil {
		return nil, apperr.Transient("failed to count unread notifications", err)
	}
	marked, err := r.collection.CountDocuments(ctx, bson.M{"user": userID, "markedForDeletion": true})
	if err != nil {
		return nil, apperr.Transient("failed to count marked notifications", err)
	}

	return &models.NotificationStats{Total: total, Unread: unread, MarkedForDeletion: marked}, nil
}

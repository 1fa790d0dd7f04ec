package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veridoc/review-backend/internal/models"
)

// MongoStore implements Store on a MongoDB database. The claim protocol
// relies on FindOneAndUpdate: the precondition is encoded in the filter, so
// the server performs the whole read-modify-write atomically on one record.
type MongoStore struct {
	documents     *mongo.Collection
	revisions     *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		documents:     db.Collection("documents"),
		revisions:     db.Collection("revisions"),
		notifications: db.Collection("notifications"),
	}
}

// EnsureIndexes creates the indexes the queue and stats queries sort and
// filter on. Safe to call at every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.documents.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "approvedBy", Value: 1}, {Key: "approvedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create document indexes: %w", err)
	}
	_, err = s.revisions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create revision index: %w", err)
	}
	_, err = s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create notification index: %w", err)
	}
	return nil
}

func (s *MongoStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.PriorityRank = doc.Priority.Rank()
	_, err := s.documents.InsertOne(ctx, doc)
	return err
}

func (s *MongoStore) GetDocument(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := s.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func condFilter(id primitive.ObjectID, cond UpdateCond) bson.M {
	filter := bson.M{"_id": id}
	if len(cond.StatusIn) > 0 {
		filter["status"] = bson.M{"$in": cond.StatusIn}
	}
	if cond.AssignedTo != nil {
		filter["assignedTo"] = *cond.AssignedTo
	}
	if cond.Unassigned {
		filter["assignedTo"] = bson.M{"$exists": false}
	}
	return filter
}

func updateDoc(upd DocumentUpdate) bson.M {
	set := bson.M{"updatedAt": upd.UpdatedAt}
	unset := bson.M{}

	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}
	if upd.AssignedToName != nil {
		set["assignedToName"] = *upd.AssignedToName
	}
	if upd.AssignedAt != nil {
		set["assignedAt"] = *upd.AssignedAt
	}
	if upd.ClearAssignment {
		unset["assignedTo"] = ""
		unset["assignedToName"] = ""
	}
	if upd.ClearAssignedAt {
		unset["assignedAt"] = ""
	}
	if upd.TranslatedData != nil {
		set["translatedData"] = upd.TranslatedData
	}
	if upd.ReviewNotes != nil {
		set["reviewNotes"] = *upd.ReviewNotes
	}
	if upd.ExtractedData != nil {
		set["extractedData"] = upd.ExtractedData
	}
	if upd.AIConfidenceScore != nil {
		set["aiConfidenceScore"] = *upd.AIConfidenceScore
	}
	if upd.AINotes != nil {
		set["aiNotes"] = *upd.AINotes
	}
	if upd.ApprovedBy != nil {
		set["approvedBy"] = *upd.ApprovedBy
	}
	if upd.ApprovedByName != nil {
		set["approvedByName"] = *upd.ApprovedByName
	}
	if upd.ApprovedAt != nil {
		set["approvedAt"] = *upd.ApprovedAt
	}
	if upd.RejectedBy != nil {
		set["rejectedBy"] = *upd.RejectedBy
	}
	if upd.RejectedByName != nil {
		set["rejectedByName"] = *upd.RejectedByName
	}
	if upd.RejectedAt != nil {
		set["rejectedAt"] = *upd.RejectedAt
	}
	if upd.RejectionReason != nil {
		set["rejectionReason"] = *upd.RejectionReason
	}
	if upd.RejectionType != nil {
		set["rejectionType"] = *upd.RejectionType
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *MongoStore) UpdateDocumentIf(ctx context.Context, id primitive.ObjectID, cond UpdateCond, upd DocumentUpdate) (*models.Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc models.Document
	err := s.documents.FindOneAndUpdate(ctx, condFilter(id, cond), updateDoc(upd), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the document does not exist or the precondition failed.
		n, cerr := s.documents.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, cerr
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrNotMatched
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func listFilter(f DocumentFilter) bson.M {
	filter := bson.M{}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Priority != nil {
		filter["priority"] = *f.Priority
	}
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	if f.ApprovedBy != nil {
		filter["approvedBy"] = *f.ApprovedBy
	}
	if f.RejectedBy != nil {
		filter["rejectedBy"] = *f.RejectedBy
	}
	if !f.ApprovedSince.IsZero() {
		filter["approvedAt"] = bson.M{"$gte": f.ApprovedSince}
	}
	if !f.RejectedSince.IsZero() {
		filter["rejectedAt"] = bson.M{"$gte": f.RejectedSince}
	}
	assigned := bson.M{}
	if !f.AssignedSince.IsZero() {
		assigned["$gte"] = f.AssignedSince
	}
	if !f.AssignedBefore.IsZero() {
		assigned["$lt"] = f.AssignedBefore
	}
	if len(assigned) > 0 {
		filter["assignedAt"] = assigned
	}
	return filter
}

func (s *MongoStore) ListDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: 1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := s.documents.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) CountDocuments(ctx context.Context, f DocumentFilter) (int64, error) {
	return s.documents.CountDocuments(ctx, listFilter(f))
}

func (s *MongoStore) AppendRevision(ctx context.Context, rev *models.Revision) error {
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	_, err := s.revisions.InsertOne(ctx, rev)
	return err
}

func (s *MongoStore) ListRevisions(ctx context.Context, documentID primitive.ObjectID) ([]models.Revision, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.revisions.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var revs []models.Revision
	if err := cursor.All(ctx, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := s.notifications.InsertOne(ctx, n)
	return err
}

func (s *MongoStore) ListNotifications(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := s.notifications.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *MongoStore) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

var _ Store = (*MongoStore)(nil)

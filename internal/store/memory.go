package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
)

// MemoryStore implements Store entirely in memory. Conditional updates are
// serialized by a single mutex, which gives the same per-record atomicity the
// Mongo implementation gets from FindOneAndUpdate. Used by tests and local
// development without a database.
type MemoryStore struct {
	mu            sync.Mutex
	documents     map[primitive.ObjectID]*models.Document
	revisions     map[primitive.ObjectID][]models.Revision
	notifications []models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[primitive.ObjectID]*models.Document),
		revisions: make(map[primitive.ObjectID][]models.Revision),
	}
}

func (s *MemoryStore) InsertDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.PriorityRank = doc.Priority.Rank()
	cp := *doc
	s.documents[doc.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id primitive.ObjectID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func matchesCond(doc *models.Document, cond UpdateCond) bool {
	if len(cond.StatusIn) > 0 {
		found := false
		for _, st := range cond.StatusIn {
			if doc.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if cond.AssignedTo != nil {
		if doc.AssignedTo == nil || *doc.AssignedTo != *cond.AssignedTo {
			return false
		}
	}
	if cond.Unassigned && doc.AssignedTo != nil {
		return false
	}
	return true
}

func applyUpdate(doc *models.Document, upd DocumentUpdate) {
	doc.UpdatedAt = upd.UpdatedAt

	if upd.Status != nil {
		doc.Status = *upd.Status
	}
	if upd.AssignedTo != nil {
		id := *upd.AssignedTo
		doc.AssignedTo = &id
	}
	if upd.AssignedToName != nil {
		doc.AssignedToName = *upd.AssignedToName
	}
	if upd.AssignedAt != nil {
		t := *upd.AssignedAt
		doc.AssignedAt = &t
	}
	if upd.ClearAssignment {
		doc.AssignedTo = nil
		doc.AssignedToName = ""
	}
	if upd.ClearAssignedAt {
		doc.AssignedAt = nil
	}
	if upd.TranslatedData != nil {
		doc.TranslatedData = upd.TranslatedData
	}
	if upd.ReviewNotes != nil {
		doc.ReviewNotes = *upd.ReviewNotes
	}
	if upd.ExtractedData != nil {
		doc.ExtractedData = upd.ExtractedData
	}
	if upd.AIConfidenceScore != nil {
		v := *upd.AIConfidenceScore
		doc.AIConfidenceScore = &v
	}
	if upd.AINotes != nil {
		doc.AINotes = *upd.AINotes
	}
	if upd.ApprovedBy != nil {
		id := *upd.ApprovedBy
		doc.ApprovedBy = &id
	}
	if upd.ApprovedByName != nil {
		doc.ApprovedByName = *upd.ApprovedByName
	}
	if upd.ApprovedAt != nil {
		t := *upd.ApprovedAt
		doc.ApprovedAt = &t
	}
	if upd.RejectedBy != nil {
		id := *upd.RejectedBy
		doc.RejectedBy = &id
	}
	if upd.RejectedByName != nil {
		doc.RejectedByName = *upd.RejectedByName
	}
	if upd.RejectedAt != nil {
		t := *upd.RejectedAt
		doc.RejectedAt = &t
	}
	if upd.RejectionReason != nil {
		doc.RejectionReason = *upd.RejectionReason
	}
	if upd.RejectionType != nil {
		doc.RejectionType = *upd.RejectionType
	}
}

func (s *MemoryStore) UpdateDocumentIf(_ context.Context, id primitive.ObjectID, cond UpdateCond, upd DocumentUpdate) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !matchesCond(doc, cond) {
		return nil, ErrNotMatched
	}
	applyUpdate(doc, upd)
	cp := *doc
	return &cp, nil
}

func matchesFilter(doc *models.Document, f DocumentFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if doc.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Priority != nil && doc.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != nil {
		if doc.AssignedTo == nil || *doc.AssignedTo != *f.AssignedTo {
			return false
		}
	}
	if f.ApprovedBy != nil {
		if doc.ApprovedBy == nil || *doc.ApprovedBy != *f.ApprovedBy {
			return false
		}
	}
	if f.RejectedBy != nil {
		if doc.RejectedBy == nil || *doc.RejectedBy != *f.RejectedBy {
			return false
		}
	}
	if !f.ApprovedSince.IsZero() {
		if doc.ApprovedAt == nil || doc.ApprovedAt.Before(f.ApprovedSince) {
			return false
		}
	}
	if !f.RejectedSince.IsZero() {
		if doc.RejectedAt == nil || doc.RejectedAt.Before(f.RejectedSince) {
			return false
		}
	}
	if !f.AssignedSince.IsZero() {
		if doc.AssignedAt == nil || doc.AssignedAt.Before(f.AssignedSince) {
			return false
		}
	}
	if !f.AssignedBefore.IsZero() {
		if doc.AssignedAt == nil || !doc.AssignedAt.Before(f.AssignedBefore) {
			return false
		}
	}
	return true
}

func (s *MemoryStore) ListDocuments(_ context.Context, f DocumentFilter) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []models.Document
	for _, doc := range s.documents {
		if matchesFilter(doc, f) {
			docs = append(docs, *doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].PriorityRank != docs[j].PriorityRank {
			return docs[i].PriorityRank > docs[j].PriorityRank
		}
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID.Hex() < docs[j].ID.Hex()
	})

	if f.Skip > 0 {
		if f.Skip >= int64(len(docs)) {
			return nil, nil
		}
		docs = docs[f.Skip:]
	}
	if f.Limit > 0 && int64(len(docs)) > f.Limit {
		docs = docs[:f.Limit]
	}
	return docs, nil
}

func (s *MemoryStore) CountDocuments(_ context.Context, f DocumentFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, doc := range s.documents {
		if matchesFilter(doc, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendRevision(_ context.Context, rev *models.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	s.revisions[rev.DocumentID] = append(s.revisions[rev.DocumentID], *rev)
	return nil
}

func (s *MemoryStore) ListRevisions(_ context.Context, documentID primitive.ObjectID) ([]models.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revs := s.revisions[documentID]
	out := make([]models.Revision, len(revs))
	copy(out, revs)
	return out, nil
}

func (s *MemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var out []models.Notification
	// Newest first.
	for i := len(s.notifications) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		n := s.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)

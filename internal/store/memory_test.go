package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
)

func insertDoc(t *testing.T, st *MemoryStore, priority models.Priority, createdAt time.Time) *models.Document {
	t.Helper()
	doc := &models.Document{
		FormType:    "bulletin",
		Status:      models.StatusAICompleted,
		Priority:    priority,
		SubmittedBy: primitive.NewObjectID(),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := st.InsertDocument(context.Background(), doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return doc
}

// Priority dominates recency: an urgent document created later still sorts
// ahead of an older normal one.
func TestListDocumentsOrdering(t *testing.T) {
	st := NewMemoryStore()
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	normal := insertDoc(t, st, models.PriorityNormal, t1)
	urgent := insertDoc(t, st, models.PriorityUrgent, t2)
	low := insertDoc(t, st, models.PriorityLow, t1)
	high1 := insertDoc(t, st, models.PriorityHigh, t2)
	high2 := insertDoc(t, st, models.PriorityHigh, t1)

	docs, err := st.ListDocuments(context.Background(), DocumentFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []primitive.ObjectID{urgent.ID, high2.ID, high1.ID, normal.ID, low.ID}
	if len(docs) != len(want) {
		t.Fatalf("len = %d, want %d", len(docs), len(want))
	}
	for i, id := range want {
		if docs[i].ID != id {
			t.Errorf("docs[%d] = %s (%s@%s), want %s", i, docs[i].ID.Hex(), docs[i].Priority, docs[i].CreatedAt, id.Hex())
		}
	}
}

func TestListDocumentsPagination(t *testing.T) {
	st := NewMemoryStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertDoc(t, st, models.PriorityNormal, base.Add(time.Duration(i)*time.Minute))
	}

	docs, err := st.ListDocuments(context.Background(), DocumentFilter{Limit: 2, Skip: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	if !docs[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("first page item createdAt = %s", docs[0].CreatedAt)
	}
}

func TestUpdateDocumentIfPrecondition(t *testing.T) {
	st := NewMemoryStore()
	doc := insertDoc(t, st, models.PriorityNormal, time.Now().UTC())

	status := models.StatusInReview
	translator := primitive.NewObjectID()
	name := "Alice"
	now := time.Now().UTC()

	// Matching precondition succeeds.
	updated, err := st.UpdateDocumentIf(context.Background(), doc.ID,
		UpdateCond{StatusIn: []models.DocumentStatus{models.StatusAICompleted}, Unassigned: true},
		DocumentUpdate{Status: &status, AssignedTo: &translator, AssignedToName: &name, AssignedAt: &now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.StatusInReview || updated.AssignedTo == nil {
		t.Fatalf("updated = %+v", updated)
	}

	// The same precondition no longer matches.
	_, err = st.UpdateDocumentIf(context.Background(), doc.ID,
		UpdateCond{StatusIn: []models.DocumentStatus{models.StatusAICompleted}, Unassigned: true},
		DocumentUpdate{Status: &status, UpdatedAt: now})
	if !errors.Is(err, ErrNotMatched) {
		t.Errorf("err = %v, want ErrNotMatched", err)
	}

	// Unknown id.
	_, err = st.UpdateDocumentIf(context.Background(), primitive.NewObjectID(),
		UpdateCond{}, DocumentUpdate{UpdatedAt: now})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRevisionsOldestFirst(t *testing.T) {
	st := NewMemoryStore()
	docID := primitive.NewObjectID()
	translator := primitive.NewObjectID()

	for i, changes := range []string{"first", "second", "third"} {
		rev := &models.Revision{
			DocumentID:     docID,
			TranslatorID:   translator,
			TranslatorName: "Alice",
			Changes:        changes,
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := st.AppendRevision(context.Background(), rev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	revs, err := st.ListRevisions(context.Background(), docID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("len = %d, want 3", len(revs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if revs[i].Changes != want {
			t.Errorf("revs[%d] = %q, want %q", i, revs[i].Changes, want)
		}
	}
}

func TestNotificationReadScoping(t *testing.T) {
	st := NewMemoryStore()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	n := &models.Notification{UserID: alice, Type: models.NotificationAssigned, CreatedAt: time.Now().UTC()}
	if err := st.InsertNotification(context.Background(), n); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Bob cannot mark Alice's notification read.
	if err := st.MarkNotificationRead(context.Background(), n.ID, bob); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := st.MarkNotificationRead(context.Background(), n.ID, alice); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, _ := st.ListNotifications(context.Background(), alice, true, 10)
	if len(unread) != 0 {
		t.Errorf("unread = %d, want 0", len(unread))
	}
	all, _ := st.ListNotifications(context.Background(), alice, false, 10)
	if len(all) != 1 || !all[0].Read {
		t.Errorf("all = %+v", all)
	}
}

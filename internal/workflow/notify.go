package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
)

// Emitter writes notification rows on state changes of interest. Emission is
// fire-and-forget: a failed insert is logged and never fails or rolls back
// the transition that triggered it.
type Emitter struct {
	store store.Store
}

func NewEmitter(s store.Store) *Emitter {
	return &Emitter{store: s}
}

// Assigned notifies the translator who just claimed the document.
func (em *Emitter) Assigned(ctx context.Context, doc *models.Document) {
	if em == nil || doc.AssignedTo == nil {
		return
	}
	em.emit(ctx, &models.Notification{
		UserID:     *doc.AssignedTo,
		Type:       models.NotificationAssigned,
		Title:      "Document assigned",
		Message:    fmt.Sprintf("You are now reviewing %s document %s.", doc.FormType, doc.ID.Hex()),
		DocumentID: &doc.ID,
	})
}

// Decided notifies the submitter of a terminal transition.
func (em *Emitter) Decided(ctx context.Context, doc *models.Document, approved bool, reason string) {
	if em == nil || doc.SubmittedBy.IsZero() {
		return
	}
	n := &models.Notification{
		UserID:     doc.SubmittedBy,
		DocumentID: &doc.ID,
	}
	if approved {
		n.Type = models.NotificationApproved
		n.Title = "Translation approved"
		n.Message = fmt.Sprintf("Your %s document has been approved by %s.", doc.FormType, doc.ApprovedByName)
	} else {
		n.Type = models.NotificationRejected
		n.Title = "Translation rejected"
		n.Message = fmt.Sprintf("Your %s document was rejected: %s", doc.FormType, reason)
	}
	em.emit(ctx, n)
}

func (em *Emitter) emit(ctx context.Context, n *models.Notification) {
	n.CreatedAt = time.Now().UTC()
	if err := em.store.InsertNotification(ctx, n); err != nil {
		log.Printf("notify: failed to emit %s for doc=%s: %v", n.Type, n.DocumentID.Hex(), err)
	}
}

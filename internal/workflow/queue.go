package workflow

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
)

// Queue listing order: priority descending (urgent > high > normal > low),
// then createdAt ascending within the same priority. FIFO with priority
// override, nothing fancier.

// ListQueue returns documents awaiting review. Without a status filter it
// shows only claimable documents; an explicit status may widen the view to
// terminal states for audit screens.
func (e *Engine) ListQueue(ctx context.Context, status *models.DocumentStatus, priority *models.Priority, limit, skip int64) ([]models.Document, error) {
	f := store.DocumentFilter{
		Statuses: claimable,
		Priority: priority,
		Limit:    limit,
		Skip:     skip,
	}
	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *status)
		}
		f.Statuses = []models.DocumentStatus{*status}
	}
	if priority != nil && !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *priority)
	}

	docs, err := e.store.ListDocuments(ctx, f)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// ListAssigned returns a translator's own in-flight work, newest claims
// included, same ordering as the queue.
func (e *Engine) ListAssigned(ctx context.Context, translatorID primitive.ObjectID, status *models.DocumentStatus, limit int64) ([]models.Document, error) {
	f := store.DocumentFilter{
		Statuses:   []models.DocumentStatus{models.StatusInReview},
		AssignedTo: &translatorID,
		Limit:      limit,
	}
	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *status)
		}
		f.Statuses = []models.DocumentStatus{*status}
	}

	docs, err := e.store.ListDocuments(ctx, f)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
)

// Engine enforces the document state machine and the claim/release
// mutual-exclusion protocol. Every transition is a single conditional
// read-modify-write against the store; the store's per-record atomicity is
// what serializes concurrent transitions on the same document, the engine
// itself holds no locks.
type Engine struct {
	store   store.Store
	emitter *Emitter
}

func NewEngine(s store.Store, emitter *Emitter) *Engine {
	return &Engine{store: s, emitter: emitter}
}

// Actor identifies the authenticated caller of a mutating operation. Always
// derived from the verified token, never from the request body.
type Actor struct {
	ID    primitive.ObjectID
	Name  string
	Admin bool
}

var claimable = []models.DocumentStatus{models.StatusPendingReview, models.StatusAICompleted}

// Ingest creates a new document in pending_review.
func (e *Engine) Ingest(ctx context.Context, req models.IngestRequest, submittedBy primitive.ObjectID) (*models.Document, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, req.Priority)
	}

	now := time.Now().UTC()
	doc := &models.Document{
		FormType:    req.FormType,
		Status:      models.StatusPendingReview,
		Priority:    priority,
		SubmittedBy: submittedBy,
		SourceRef:   req.SourceRef,
		SourceText:  req.SourceText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// CompleteExtraction is the AI-pipeline boundary: it moves a document from
// pending_review to ai_completed exactly once, attaching the extracted data
// and confidence score. It never touches translatedData or terminal fields.
func (e *Engine) CompleteExtraction(ctx context.Context, docID primitive.ObjectID, extracted map[string]interface{}, confidence float64, aiNotes string) (*models.Document, error) {
	if extracted == nil {
		return nil, fmt.Errorf("%w: extractedData is required", ErrValidation)
	}

	status := models.StatusAICompleted
	doc, err := e.store.UpdateDocumentIf(ctx, docID,
		store.UpdateCond{StatusIn: []models.DocumentStatus{models.StatusPendingReview}},
		store.DocumentUpdate{
			Status:            &status,
			ExtractedData:     extracted,
			AIConfidenceScore: &confidence,
			AINotes:           &aiNotes,
			UpdatedAt:         time.Now().UTC(),
		})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if errors.Is(err, store.ErrNotMatched) {
		log.Printf("workflow: extraction rejected doc=%s: not in pending_review", docID.Hex())
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Claim gives the actor exclusive responsibility for a document. The
// precondition (claimable status, unassigned) and the assignment are one
// atomic conditional write, so of two concurrent claims exactly one wins;
// the loser sees ErrConflict and must re-fetch to learn who holds it.
func (e *Engine) Claim(ctx context.Context, docID primitive.ObjectID, actor Actor) (*models.Document, error) {
	now := time.Now().UTC()
	status := models.StatusInReview
	doc, err := e.store.UpdateDocumentIf(ctx, docID,
		store.UpdateCond{StatusIn: claimable, Unassigned: true},
		store.DocumentUpdate{
			Status:         &status,
			AssignedTo:     &actor.ID,
			AssignedToName: &actor.Name,
			AssignedAt:     &now,
			UpdatedAt:      now,
		})
	if err != nil {
		return nil, e.claimFailure(ctx, docID, actor, err)
	}

	e.emitter.Assigned(ctx, doc)
	return doc, nil
}

func (e *Engine) claimFailure(ctx context.Context, docID primitive.ObjectID, actor Actor, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if !errors.Is(err, store.ErrNotMatched) {
		return err
	}

	cur, gerr := e.store.GetDocument(ctx, docID)
	if gerr != nil {
		return gerr
	}
	if cur.Status.IsTerminal() {
		log.Printf("workflow: claim failed actor=%s doc=%s: terminal status %s", actor.ID.Hex(), docID.Hex(), cur.Status)
		return ErrInvalidState
	}
	log.Printf("workflow: claim conflict actor=%s doc=%s holder=%s", actor.ID.Hex(), docID.Hex(), cur.AssignedToName)
	return ErrConflict
}

// Release returns an in_review document to the queue. Only the assignee (or
// an admin) may release. Releasing a document that is already back in the
// queue is a no-op success so duplicate client retries stay harmless.
func (e *Engine) Release(ctx context.Context, docID primitive.ObjectID, actor Actor, reason string) error {
	cur, err := e.store.GetDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if cur.Status.IsClaimable() {
		// Already released.
		return nil
	}
	if cur.Status.IsTerminal() {
		log.Printf("workflow: release failed actor=%s doc=%s: terminal status %s", actor.ID.Hex(), docID.Hex(), cur.Status)
		return ErrInvalidState
	}
	if !actor.Admin && (cur.AssignedTo == nil || *cur.AssignedTo != actor.ID) {
		log.Printf("workflow: release unauthorized actor=%s doc=%s", actor.ID.Hex(), docID.Hex())
		return ErrUnauthorized
	}

	// Documents with AI output go back to ai_completed, untouched ones to
	// pending_review.
	target := models.StatusPendingReview
	if cur.TranslatedData != nil || cur.ExtractedData != nil {
		target = models.StatusAICompleted
	}

	cond := store.UpdateCond{StatusIn: []models.DocumentStatus{models.StatusInReview}}
	if !actor.Admin {
		cond.AssignedTo = &actor.ID
	}
	_, err = e.store.UpdateDocumentIf(ctx, docID, cond, store.DocumentUpdate{
		Status:          &target,
		ClearAssignment: true,
		ClearAssignedAt: true,
		UpdatedAt:       time.Now().UTC(),
	})
	if errors.Is(err, store.ErrNotMatched) {
		// Lost a race with another release or a terminal transition;
		// re-check and apply the same rules.
		return e.Release(ctx, docID, actor, reason)
	}
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if reason != "" {
		log.Printf("workflow: released doc=%s by=%s reason=%q", docID.Hex(), actor.ID.Hex(), reason)
	}
	return nil
}

// Save stores the translator's current draft and appends one entry to the
// revision log. Only the assignee may save, and only while in_review; the
// status never changes.
func (e *Engine) Save(ctx context.Context, docID primitive.ObjectID, actor Actor, req models.SaveRequest) (*models.Document, error) {
	if req.TranslatedData == nil {
		return nil, fmt.Errorf("%w: translatedData is required", ErrValidation)
	}

	upd := store.DocumentUpdate{
		TranslatedData: req.TranslatedData,
		UpdatedAt:      time.Now().UTC(),
	}
	if req.ReviewNotes != "" {
		upd.ReviewNotes = &req.ReviewNotes
	}

	doc, err := e.store.UpdateDocumentIf(ctx, docID,
		store.UpdateCond{
			StatusIn:   []models.DocumentStatus{models.StatusInReview},
			AssignedTo: &actor.ID,
		}, upd)
	if err != nil {
		return nil, e.assigneeFailure(ctx, "save", docID, actor, err)
	}

	changes := req.ChangesSummary
	if changes == "" {
		changes = fmt.Sprintf("updated %d field(s)", len(req.TranslatedData))
	}
	rev := &models.Revision{
		DocumentID:     docID,
		TranslatorID:   actor.ID,
		TranslatorName: actor.Name,
		Changes:        changes,
		Comment:        req.ReviewNotes,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.store.AppendRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("append revision: %w", err)
	}
	return doc, nil
}

// assigneeFailure turns a failed assignee-only conditional write into the
// error the caller should see: Unauthorized when someone else holds the
// document, InvalidState when the status forbids the operation.
func (e *Engine) assigneeFailure(ctx context.Context, op string, docID primitive.ObjectID, actor Actor, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if !errors.Is(err, store.ErrNotMatched) {
		return err
	}

	cur, gerr := e.store.GetDocument(ctx, docID)
	if gerr != nil {
		return gerr
	}
	if cur.Status != models.StatusInReview {
		log.Printf("workflow: %s failed actor=%s doc=%s: status %s", op, actor.ID.Hex(), docID.Hex(), cur.Status)
		return ErrInvalidState
	}
	log.Printf("workflow: %s unauthorized actor=%s doc=%s holder=%s", op, actor.ID.Hex(), docID.Hex(), cur.AssignedToName)
	return ErrUnauthorized
}

// Approve performs the terminal approved transition. After it commits, no
// operation may mutate the document's status, data, or assignment again.
func (e *Engine) Approve(ctx context.Context, docID primitive.ObjectID, actor Actor, finalNotes string) (*models.Document, error) {
	cur, err := e.store.GetDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := models.StatusApproved
	notes := mergeNotes(cur.ReviewNotes, finalNotes)
	doc, err := e.store.UpdateDocumentIf(ctx, docID,
		store.UpdateCond{
			StatusIn:   []models.DocumentStatus{models.StatusInReview},
			AssignedTo: &actor.ID,
		},
		store.DocumentUpdate{
			Status:          &status,
			ApprovedBy:      &actor.ID,
			ApprovedByName:  &actor.Name,
			ApprovedAt:      &now,
			ReviewNotes:     &notes,
			ClearAssignment: true,
			UpdatedAt:       now,
		})
	if err != nil {
		return nil, e.assigneeFailure(ctx, "approve", docID, actor, err)
	}

	e.emitter.Decided(ctx, doc, true, "")
	return doc, nil
}

// Reject performs the terminal rejected transition. A reason is mandatory.
func (e *Engine) Reject(ctx context.Context, docID primitive.ObjectID, actor Actor, reason, rejectionType string) (*models.Document, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	now := time.Now().UTC()
	status := models.StatusRejected
	doc, err := e.store.UpdateDocumentIf(ctx, docID,
		store.UpdateCond{
			StatusIn:   []models.DocumentStatus{models.StatusInReview},
			AssignedTo: &actor.ID,
		},
		store.DocumentUpdate{
			Status:          &status,
			RejectedBy:      &actor.ID,
			RejectedByName:  &actor.Name,
			RejectedAt:      &now,
			RejectionReason: &reason,
			RejectionType:   &rejectionType,
			ClearAssignment: true,
			UpdatedAt:       now,
		})
	if err != nil {
		return nil, e.assigneeFailure(ctx, "reject", docID, actor, err)
	}

	e.emitter.Decided(ctx, doc, false, reason)
	return doc, nil
}

// GetDocument returns a document together with its full revision history,
// oldest entry first.
func (e *Engine) GetDocument(ctx context.Context, docID primitive.ObjectID) (*models.Document, []models.Revision, error) {
	doc, err := e.store.GetDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	revs, err := e.store.ListRevisions(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if revs == nil {
		revs = []models.Revision{}
	}
	return doc, revs, nil
}

// ReleaseStale returns in_review documents whose claim has been idle longer
// than idleFor back to the queue. Opt-in policy, driven by a ticker in main;
// the base workflow never expires claims on its own.
func (e *Engine) ReleaseStale(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-idleFor)
	docs, err := e.store.ListDocuments(ctx, store.DocumentFilter{
		Statuses:       []models.DocumentStatus{models.StatusInReview},
		AssignedBefore: cutoff,
	})
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range docs {
		doc := &docs[i]
		target := models.StatusPendingReview
		if doc.TranslatedData != nil || doc.ExtractedData != nil {
			target = models.StatusAICompleted
		}
		_, err := e.store.UpdateDocumentIf(ctx, doc.ID,
			store.UpdateCond{
				StatusIn:   []models.DocumentStatus{models.StatusInReview},
				AssignedTo: doc.AssignedTo,
			},
			store.DocumentUpdate{
				Status:          &target,
				ClearAssignment: true,
				ClearAssignedAt: true,
				UpdatedAt:       time.Now().UTC(),
			})
		if errors.Is(err, store.ErrNotMatched) || errors.Is(err, store.ErrNotFound) {
			// The holder finished or released in the meantime.
			continue
		}
		if err != nil {
			return released, err
		}
		log.Printf("workflow: reclaimed stale doc=%s from=%s", doc.ID.Hex(), doc.AssignedToName)
		released++
	}
	return released, nil
}

func mergeNotes(existing, final string) string {
	final = strings.TrimSpace(final)
	if final == "" {
		return existing
	}
	if existing == "" {
		return final
	}
	return existing + "\n" + final
}

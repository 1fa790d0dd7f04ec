package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
)

var (
	// ErrNotFound means no document exists with the given id.
	ErrNotFound = errors.New("document not found")
	// ErrNotMatched means the document exists but the conditional update's
	// precondition did not hold at write time.
	ErrNotMatched = errors.New("document did not match preconditions")
)

// UpdateCond is the precondition of a conditional write. Zero-value fields
// are not checked.
type UpdateCond struct {
	// StatusIn requires the current status to be one of these.
	StatusIn []models.DocumentStatus
	// AssignedTo requires the document to be assigned to this translator.
	AssignedTo *primitive.ObjectID
	// Unassigned requires assignedTo to be unset.
	Unassigned bool
}

// DocumentUpdate is the set of fields a transition may write. Nil pointer
// fields are left untouched.
type DocumentUpdate struct {
	Status         *models.DocumentStatus
	AssignedTo     *primitive.ObjectID
	AssignedToName *string
	AssignedAt     *time.Time
	// ClearAssignment unsets assignedTo and assignedToName. AssignedAt is
	// kept so review durations stay computable after a terminal transition.
	ClearAssignment bool
	// ClearAssignedAt additionally unsets assignedAt (used by release).
	ClearAssignedAt bool

	TranslatedData map[string]interface{}
	ReviewNotes    *string

	ExtractedData     map[string]interface{}
	AIConfidenceScore *float64
	AINotes           *string

	ApprovedBy     *primitive.ObjectID
	ApprovedByName *string
	ApprovedAt     *time.Time

	RejectedBy      *primitive.ObjectID
	RejectedByName  *string
	RejectedAt      *time.Time
	RejectionReason *string
	RejectionType   *string

	UpdatedAt time.Time
}

// DocumentFilter selects documents for list/count queries. Listings are
// always ordered by priority rank descending, then createdAt ascending.
type DocumentFilter struct {
	Statuses   []models.DocumentStatus
	Priority   *models.Priority
	AssignedTo *primitive.ObjectID

	ApprovedBy *primitive.ObjectID
	RejectedBy *primitive.ObjectID

	// Window bounds; zero means unbounded.
	ApprovedSince  time.Time
	RejectedSince  time.Time
	AssignedSince  time.Time
	AssignedBefore time.Time

	Limit int64
	Skip  int64
}

// Store is the persistence boundary of the workflow engine: durable keyed
// document storage with atomic conditional updates on a single record, plus
// the append-only revision log and notification rows.
type Store interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	// UpdateDocumentIf applies upd only if cond holds, as one atomic
	// read-modify-write. Returns the updated document, ErrNotFound, or
	// ErrNotMatched.
	UpdateDocumentIf(ctx context.Context, id primitive.ObjectID, cond UpdateCond, upd DocumentUpdate) (*models.Document, error)
	ListDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, error)
	CountDocuments(ctx context.Context, f DocumentFilter) (int64, error)

	AppendRevision(ctx context.Context, rev *models.Revision) error
	ListRevisions(ctx context.Context, documentID primitive.ObjectID) ([]models.Revision, error)

	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error
}

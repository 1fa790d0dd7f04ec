package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentStatus string

const (
	StatusPendingReview DocumentStatus = "pending_review"
	StatusAICompleted   DocumentStatus = "ai_completed"
	StatusInReview      DocumentStatus = "in_review"
	StatusApproved      DocumentStatus = "approved"
	StatusRejected      DocumentStatus = "rejected"
)

// IsTerminal reports whether no further transitions are permitted.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsClaimable reports whether a translator may claim a document in this status.
func (s DocumentStatus) IsClaimable() bool {
	return s == StatusPendingReview || s == StatusAICompleted
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPendingReview, StatusAICompleted, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps a priority to its sort weight. Higher ranks come first in the
// queue; unknown values sink below "low".
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

type Document struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FormType string             `json:"formType" bson:"formType"`
	Status   DocumentStatus     `json:"status" bson:"status"`
	Priority Priority           `json:"priority" bson:"priority"`
	// PriorityRank mirrors Priority so the queue can sort on a single
	// indexed numeric field.
	PriorityRank int `json:"-" bson:"priorityRank"`

	SubmittedBy primitive.ObjectID `json:"submittedBy" bson:"submittedBy"`
	SourceRef   string             `json:"sourceRef,omitempty" bson:"sourceRef,omitempty"`
	SourceText  string             `json:"-" bson:"sourceText,omitempty"`

	AssignedTo     *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	AssignedToName string              `json:"assignedToName,omitempty" bson:"assignedToName,omitempty"`
	AssignedAt     *time.Time          `json:"assignedAt,omitempty" bson:"assignedAt,omitempty"`

	ExtractedData     map[string]interface{} `json:"extractedData,omitempty" bson:"extractedData,omitempty"`
	TranslatedData    map[string]interface{} `json:"translatedData,omitempty" bson:"translatedData,omitempty"`
	AIConfidenceScore *float64               `json:"aiConfidenceScore,omitempty" bson:"aiConfidenceScore,omitempty"`
	ReviewNotes       string                 `json:"reviewNotes,omitempty" bson:"reviewNotes,omitempty"`
	AINotes           string                 `json:"aiNotes,omitempty" bson:"aiNotes,omitempty"`

	ApprovedBy     *primitive.ObjectID `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedByName string              `json:"approvedByName,omitempty" bson:"approvedByName,omitempty"`
	ApprovedAt     *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`

	RejectedBy      *primitive.ObjectID `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedByName  string              `json:"rejectedByName,omitempty" bson:"rejectedByName,omitempty"`
	RejectedAt      *time.Time          `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	RejectionType   string              `json:"rejectionType,omitempty" bson:"rejectionType,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type IngestRequest struct {
	FormType   string   `json:"formType" validate:"required,min=2,max=64"`
	Priority   Priority `json:"priority,omitempty"`
	SourceRef  string   `json:"sourceRef,omitempty"`
	SourceText string   `json:"sourceText,omitempty"`
}

type CompleteExtractionRequest struct {
	ExtractedData     map[string]interface{} `json:"extractedData" validate:"required"`
	AIConfidenceScore float64                `json:"aiConfidenceScore" validate:"min=0,max=1"`
	AINotes           string                 `json:"aiNotes,omitempty"`
}

type SaveRequest struct {
	TranslatedData map[string]interface{} `json:"translatedData" validate:"required"`
	ReviewNotes    string                 `json:"reviewNotes,omitempty"`
	ChangesSummary string                 `json:"changesSummary,omitempty"`
}

type ReleaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ApproveRequest struct {
	FinalNotes string `json:"finalNotes,omitempty"`
}

type RejectRequest struct {
	Reason        string `json:"reason" validate:"required,min=3"`
	RejectionType string `json:"rejectionType" validate:"required,oneof=quality unreadable wrong_document incomplete other"`
}

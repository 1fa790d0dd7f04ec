package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationAssigned = "document_assigned"
	NotificationApproved = "document_approved"
	NotificationRejected = "document_rejected"
)

type Notification struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `json:"userId" bson:"userId"`
	Type       string              `json:"type" bson:"type"`
	Title      string              `json:"title" bson:"title"`
	Message    string              `json:"message" bson:"message"`
	DocumentID *primitive.ObjectID `json:"documentId,omitempty" bson:"documentId,omitempty"`
	Read       bool                `json:"read" bson:"read"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Revision is one immutable entry in a document's edit history. Entries are
// only ever appended; nothing updates or deletes them.
type Revision struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DocumentID     primitive.ObjectID `json:"documentId" bson:"documentId"`
	TranslatorID   primitive.ObjectID `json:"translatorId" bson:"translatorId"`
	TranslatorName string             `json:"translatorName" bson:"translatorName"`
	Changes        string             `json:"changes" bson:"changes"`
	Comment        string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

package model

import "time"

// Document lifecycle states.
const (
	DocStatusProcessed = "processed"
	DocStatusFailed    = "failed"

	EmbeddingPending   = "pending"
	EmbeddingCompleted = "completed"
	EmbeddingFailed    = "failed"
)

// Document is an uploaded file whose extracted text is indexed for retrieval.
// StoredName is the on-disk name under the upload directory ("<uid>_<filename>").
type Document struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	DocUID          string    `gorm:"size:36;not null;uniqueIndex" json:"id"`
	UserID          uint      `gorm:"index" json:"-"` // 0 = anonymous
	Filename        string    `gorm:"size:256;not null" json:"filename"`
	StoredName      string    `gorm:"size:300;not null" json:"-"`
	DocumentType    string    `gorm:"size:16;not null" json:"document_type"`
	TotalPages      int       `json:"total_pages"`
	Status          string    `gorm:"size:16;not null" json:"status"`
	EmbeddingStatus string    `gorm:"size:16;not null;index" json:"embedding_status"`
	Error           string    `gorm:"size:512" json:"error,omitempty"`
	CreatedAt       time.Time `json:"upload_date"`
}

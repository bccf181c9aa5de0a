package model

import "time"

// Conversation groups the chat turns of one client session. ConvUID is the
// identifier exposed to the frontend as conversation_id.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ConvUID   string    `gorm:"size:36;not null;uniqueIndex" json:"conversation_id"`
	UserID    uint      `gorm:"index" json:"-"` // 0 = anonymous
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

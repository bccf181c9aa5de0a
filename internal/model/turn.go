package model

import (
	"encoding/json"
	"time"
)

// Source cites the document passage an answer drew on.
type Source struct {
	DocumentName   string `json:"document_name"`
	PageNumber     int    `json:"page_number"`
	ContentSnippet string `json:"content_snippet"`
}

// Turn is one message in a conversation. Assistant turns carry the sources
// cited by the answer, stored as a JSON array.
type Turn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	SourcesJSON    string    `gorm:"column:sources;type:text" json:"sources_json,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sources returns the parsed citation list; nil on parse error or absence.
func (t *Turn) Sources() []Source {
	if t.SourcesJSON == "" {
		return nil
	}
	var s []Source
	_ = json.Unmarshal([]byte(t.SourcesJSON), &s)
	return s
}

// SetSources stores the citation list as JSON. An empty list clears the column.
func (t *Turn) SetSources(sources []Source) {
	if len(sources) == 0 {
		t.SourcesJSON = ""
		return
	}
	b, _ := json.Marshal(sources)
	t.SourcesJSON = string(b)
}

package app

import (
	"context"

	"docassist/internal/ai"
	"docassist/internal/model"
)

// Consumer-side interfaces over the repository, cache, broker, and model
// client types wired in at bootstrap.

type UserStore interface {
	Create(user *model.User) error
	GetByID(id uint) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
}

type DocumentStore interface {
	Create(doc *model.Document) error
	GetByID(id uint) (*model.Document, error)
	GetByUID(docUID string) (*model.Document, error)
	ListByUserID(userID uint) ([]model.Document, error)
	ListEmbedded(userID uint) ([]model.Document, error)
	UpdateEmbeddingStatus(id uint, status, errMsg string) error
	DeleteByIDAndUserID(id, userID uint) error
}

type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	ListByDocumentIDs(documentIDs []uint) ([]model.Chunk, error)
	DeleteByDocumentID(documentID uint) error
}

type ConversationStore interface {
	Create(conv *model.Conversation) error
	GetByUID(convUID string) (*model.Conversation, error)
	ListByUserID(userID uint) ([]model.Conversation, error)
	Touch(id uint) error
	DeleteByIDAndUserID(id, userID uint) error
}

type TurnStore interface {
	ListByConversationID(conversationID uint, limit int) ([]model.Turn, error)
	ListRecentByConversationID(conversationID uint, count int) ([]model.Turn, error)
	DeleteByConversationID(conversationID uint) error
}

// JobPublisher enqueues a JSON payload for asynchronous processing.
type JobPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

type TurnCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Turn, bool, error)
	SetHistory(ctx context.Context, conversationID uint, turns []model.Turn) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMClient interface {
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onDelta func(delta string) error) (string, error)
}

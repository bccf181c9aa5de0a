package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"docassist/internal/ai"
	"docassist/internal/model"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrTurnEnqueue          = errors.New("turn enqueue failed")
)

const systemPrompt = "You are a helpful AI assistant that answers questions based on the provided context. " +
	"Always provide detailed, accurate responses and cite your sources when possible. " +
	"When you're thinking or analyzing, start your response with '<think>' and end with '</think>' " +
	"before providing your final answer."

const thinkingPlaceholder = "<think>Analyzing the context and formulating a response...</think>\n"

const errorAnswer = "I apologize, but I encountered an error while processing your request."

const snippetRunes = 200

// ChatEvent is one NDJSON line of a streamed answer. Response is cumulative;
// the last emitted event carries the authoritative final answer.
type ChatEvent struct {
	Response       string         `json:"response"`
	Sources        []model.Source `json:"sources"`
	ConversationID string         `json:"conversation_id"`
	UserMessage    string         `json:"user_message"`
}

type StreamInput struct {
	UserID         uint
	ConversationID string
	Message        string
}

// ChatService answers questions over the user's indexed documents and streams
// partial answers. Turns are persisted asynchronously through the turn queue.
type ChatService struct {
	convStore    ConversationStore
	turnStore    TurnStore
	retriever    *Retriever
	llm          LLMClient
	publisher    JobPublisher
	historyCache TurnCache
	historyDepth int
}

func NewChatService(
	convStore ConversationStore,
	turnStore TurnStore,
	retriever *Retriever,
	llm LLMClient,
	publisher JobPublisher,
	historyCache TurnCache,
	historyDepth int,
) *ChatService {
	if historyDepth <= 0 {
		historyDepth = 4
	}
	return &ChatService{
		convStore:    convStore,
		turnStore:    turnStore,
		retriever:    retriever,
		llm:          llm,
		publisher:    publisher,
		historyCache: historyCache,
		historyDepth: historyDepth,
	}
}

// Stream answers the message over NDJSON events via emit. The first event is
// a thinking placeholder carrying the retrieved sources; subsequent events
// carry the cumulative model output; a final event repeats the complete
// answer. On a pipeline failure a single apology event is emitted and the
// error returned.
func (s *ChatService) Stream(ctx context.Context, input StreamInput, emit func(ChatEvent) error) error {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return ErrMessageEmpty
	}

	conv, err := s.resolveConversation(input.UserID, input.ConversationID)
	if err != nil {
		return err
	}

	event := ChatEvent{
		Sources:        []model.Source{},
		ConversationID: conv.ConvUID,
		UserMessage:    message,
	}

	retrieved, err := s.retriever.Retrieve(ctx, input.UserID, message)
	if err != nil {
		event.Response = errorAnswer
		_ = emit(event)
		return err
	}
	for _, sc := range retrieved {
		event.Sources = append(event.Sources, model.Source{
			DocumentName:   sc.DocumentName,
			PageNumber:     sc.Chunk.Page,
			ContentSnippet: snippet(sc.Chunk.Content),
		})
	}

	event.Response = thinkingPlaceholder
	if err := emit(event); err != nil {
		return err
	}

	messages, err := s.buildPromptMessages(ctx, conv.ID, retrieved, message)
	if err != nil {
		event.Response = errorAnswer
		_ = emit(event)
		return err
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, conv.ID)
		_ = s.historyCache.DeleteHistory(ctx, conv.ID)
	}
	userTurn := model.Turn{
		ConversationID: conv.ID,
		Role:           "user",
		Content:        message,
		CreatedAt:      time.Now(),
	}
	if err := s.publisher.Publish(ctx, userTurn); err != nil {
		event.Response = errorAnswer
		_ = emit(event)
		return ErrTurnEnqueue
	}

	var sb strings.Builder
	full, err := s.llm.StreamComplete(ctx, messages, func(delta string) error {
		sb.WriteString(delta)
		event.Response = sb.String()
		return emit(event)
	})
	if err != nil {
		event.Response = errorAnswer
		_ = emit(event)
		return err
	}

	full = strings.TrimSpace(full)
	if full == "" {
		full = "The model returned an empty response."
	}

	// Final authoritative line.
	event.Response = full
	if err := emit(event); err != nil {
		return err
	}

	assistantTurn := model.Turn{
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        full,
		CreatedAt:      time.Now(),
	}
	assistantTurn.SetSources(event.Sources)
	if err := s.publisher.Publish(ctx, assistantTurn); err != nil {
		return ErrTurnEnqueue
	}

	_ = s.convStore.Touch(conv.ID)
	return nil
}

// resolveConversation finds the caller's conversation or starts a new one.
// An unknown id is adopted as the new conversation's id so the client keeps a
// stable identifier; an id owned by someone else gets a fresh one instead.
func (s *ChatService) resolveConversation(userID uint, convUID string) (*model.Conversation, error) {
	convUID = strings.TrimSpace(convUID)
	if convUID != "" {
		conv, err := s.convStore.GetByUID(convUID)
		if err != nil {
			return nil, err
		}
		if conv != nil && conv.UserID == userID {
			return conv, nil
		}
		if conv != nil {
			convUID = ""
		}
	}

	if convUID == "" || len(convUID) > 36 {
		convUID = uuid.NewString()
	}
	conv := &model.Conversation{ConvUID: convUID, UserID: userID}
	if err := s.convStore.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) buildPromptMessages(ctx context.Context, conversationID uint, retrieved []ScoredChunk, question string) ([]ai.ChatMessage, error) {
	recent, err := s.turnStore.ListRecentByConversationID(conversationID, s.historyDepth)
	if err != nil {
		return nil, err
	}

	messages := make([]ai.ChatMessage, 0, len(recent)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range recent {
		role := turn.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: turn.Content})
	}

	var contextBlock strings.Builder
	for _, sc := range retrieved {
		if contextBlock.Len() > 0 {
			contextBlock.WriteByte('\n')
		}
		contextBlock.WriteString(sc.Chunk.Content)
	}
	messages = append(messages, ai.ChatMessage{
		Role:    "user",
		Content: "Context: " + contextBlock.String() + "\n\nQuestion: " + question,
	})
	return messages, nil
}

// History returns the conversation's turns, serving from the cache when it is
// clean and repopulating it after a database read.
func (s *ChatService) History(ctx context.Context, userID uint, convUID string, limit int) ([]model.Turn, error) {
	conv, err := s.convStore.GetByUID(strings.TrimSpace(convUID))
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, ErrConversationNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conv.ID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conv.ID); cacheErr == nil && hit {
				return trimTurns(cached, limit), nil
			}
		}
	}

	turns, err := s.turnStore.ListByConversationID(conv.ID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conv.ID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, conv.ID, turns)
		}
	}
	return turns, nil
}

func (s *ChatService) ListConversations(userID uint) ([]model.Conversation, error) {
	convs, err := s.convStore.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID uint, convUID string) error {
	conv, err := s.convStore.GetByUID(strings.TrimSpace(convUID))
	if err != nil {
		return err
	}
	if conv == nil || conv.UserID != userID {
		return ErrConversationNotFound
	}
	if err := s.turnStore.DeleteByConversationID(conv.ID); err != nil {
		return err
	}
	if err := s.convStore.DeleteByIDAndUserID(conv.ID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, conv.ID)
	}
	return nil
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetRunes {
		return content
	}
	return string(runes[:snippetRunes]) + "..."
}

func trimTurns(turns []model.Turn, limit int) []model.Turn {
	if limit <= 0 || limit >= len(turns) {
		return turns
	}
	return turns[len(turns)-limit:]
}

package app

import (
	"context"
	"sort"

	"docassist/internal/ai"
	"docassist/internal/model"
)

// In-memory fakes backing the service tests.

type fakeDocStore struct {
	nextID uint
	docs   map[uint]*model.Document
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[uint]*model.Document{}}
}

func (f *fakeDocStore) Create(doc *model.Document) error {
	f.nextID++
	doc.ID = f.nextID
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocStore) GetByID(id uint) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDocStore) GetByUID(docUID string) (*model.Document, error) {
	for _, doc := range f.docs {
		if doc.DocUID == docUID {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDocStore) ListByUserID(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeDocStore) ListEmbedded(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.UserID == userID && doc.EmbeddingStatus == model.EmbeddingCompleted {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDocStore) UpdateEmbeddingStatus(id uint, status, errMsg string) error {
	if doc, ok := f.docs[id]; ok {
		doc.EmbeddingStatus = status
		doc.Error = errMsg
	}
	return nil
}

func (f *fakeDocStore) DeleteByIDAndUserID(id, userID uint) error {
	if doc, ok := f.docs[id]; ok && doc.UserID == userID {
		delete(f.docs, id)
	}
	return nil
}

type fakeChunkStore struct {
	nextID    uint
	chunks    []model.Chunk
	deleteErr error
}

func (f *fakeChunkStore) CreateBatch(chunks []model.Chunk) error {
	for i := range chunks {
		f.nextID++
		chunks[i].ID = f.nextID
		f.chunks = append(f.chunks, chunks[i])
	}
	return nil
}

func (f *fakeChunkStore) ListByDocumentIDs(documentIDs []uint) ([]model.Chunk, error) {
	wanted := map[uint]bool{}
	for _, id := range documentIDs {
		wanted[id] = true
	}
	var out []model.Chunk
	for _, c := range f.chunks {
		if wanted[c.DocumentID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) DeleteByDocumentID(documentID uint) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

type fakeConvStore struct {
	nextID  uint
	convs   map[uint]*model.Conversation
	touched []uint
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: map[uint]*model.Conversation{}}
}

func (f *fakeConvStore) Create(conv *model.Conversation) error {
	f.nextID++
	conv.ID = f.nextID
	cp := *conv
	f.convs[conv.ID] = &cp
	return nil
}

func (f *fakeConvStore) GetByUID(convUID string) (*model.Conversation, error) {
	for _, conv := range f.convs {
		if conv.ConvUID == convUID {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConvStore) ListByUserID(userID uint) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, conv := range f.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeConvStore) Touch(id uint) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeConvStore) DeleteByIDAndUserID(id, userID uint) error {
	if conv, ok := f.convs[id]; ok && conv.UserID == userID {
		delete(f.convs, id)
	}
	return nil
}

type fakeTurnStore struct {
	turns []model.Turn
}

func (f *fakeTurnStore) ListByConversationID(conversationID uint, limit int) ([]model.Turn, error) {
	var out []model.Turn
	for _, t := range f.turns {
		if t.ConversationID == conversationID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTurnStore) ListRecentByConversationID(conversationID uint, count int) ([]model.Turn, error) {
	return f.ListByConversationID(conversationID, count)
}

func (f *fakeTurnStore) DeleteByConversationID(conversationID uint) error {
	kept := f.turns[:0]
	for _, t := range f.turns {
		if t.ConversationID != conversationID {
			kept = append(kept, t)
		}
	}
	f.turns = kept
	return nil
}

type fakePublisher struct {
	published []interface{}
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakePublisher) turns() []model.Turn {
	var out []model.Turn
	for _, p := range f.published {
		if t, ok := p.(model.Turn); ok {
			out = append(out, t)
		}
	}
	return out
}

type fakeTurnCache struct {
	histories map[uint][]model.Turn
	dirty     map[uint]bool
	deleted   []uint
}

func newFakeTurnCache() *fakeTurnCache {
	return &fakeTurnCache{histories: map[uint][]model.Turn{}, dirty: map[uint]bool{}}
}

func (f *fakeTurnCache) GetHistory(_ context.Context, conversationID uint) ([]model.Turn, bool, error) {
	turns, ok := f.histories[conversationID]
	return turns, ok, nil
}

func (f *fakeTurnCache) SetHistory(_ context.Context, conversationID uint, turns []model.Turn) error {
	f.histories[conversationID] = turns
	return nil
}

func (f *fakeTurnCache) DeleteHistory(_ context.Context, conversationID uint) error {
	delete(f.histories, conversationID)
	f.deleted = append(f.deleted, conversationID)
	return nil
}

func (f *fakeTurnCache) MarkDirty(_ context.Context, conversationID uint) error {
	f.dirty[conversationID] = true
	return nil
}

func (f *fakeTurnCache) IsDirty(_ context.Context, conversationID uint) (bool, error) {
	return f.dirty[conversationID], nil
}

type fakeEmbedder struct {
	embed func(text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return f.embed(text)
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := f.embed(t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

type fakeLLM struct {
	deltas       []string
	err          error
	lastMessages []ai.ChatMessage
}

func (f *fakeLLM) StreamComplete(_ context.Context, messages []ai.ChatMessage, onDelta func(string) error) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	var full string
	for _, d := range f.deltas {
		full += d
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return full, nil
}

type fakeUserStore struct {
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*model.User{}}
}

func (f *fakeUserStore) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/model"
)

func newDocFixture(t *testing.T) (*DocumentService, *fakeDocStore, *fakeChunkStore, *fakePublisher) {
	t.Helper()
	docStore := newFakeDocStore()
	chunkStore := &fakeChunkStore{}
	publisher := &fakePublisher{}
	embedder := &fakeEmbedder{embed: func(string) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3}, nil
	}}
	svc := NewDocumentService(docStore, chunkStore, embedder, publisher, DocumentServiceConfig{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		ChunkSize:      50,
		ChunkOverlap:   10,
		EmbedBatchSize: 2,
	})
	return svc, docStore, chunkStore, publisher
}

func TestUploadJSONDocument(t *testing.T) {
	svc, docStore, _, publisher := newDocFixture(t)

	body := `{"name": "test", "version": 2, "tags": ["a", "b"]}`
	doc, err := svc.Upload(context.Background(), 1, "manifest.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.DocUID)
	assert.Equal(t, "manifest.json", doc.Filename)
	assert.Equal(t, "json", doc.DocumentType)
	assert.Equal(t, 3, doc.TotalPages)
	assert.Equal(t, model.DocStatusProcessed, doc.Status)
	assert.Equal(t, model.EmbeddingPending, doc.EmbeddingStatus)

	stored, err := docStore.GetByID(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, publisher.published, 1)
	job, ok := publisher.published[0].(IndexJob)
	require.True(t, ok)
	assert.Equal(t, doc.ID, job.DocumentID)
}

func TestUploadRejectsMissingExtension(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)
	_, err := svc.Upload(context.Background(), 1, "noext", 4, strings.NewReader("data"))
	assert.ErrorIs(t, err, ErrMissingExtension)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)
	_, err := svc.Upload(context.Background(), 1, "script.exe", 4, strings.NewReader("data"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)
	_, err := svc.Upload(context.Background(), 1, "big.csv", 2<<20, strings.NewReader("a,b"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadEnqueueFailureMarksEmbeddingFailed(t *testing.T) {
	svc, docStore, _, publisher := newDocFixture(t)
	publisher.err = assert.AnError

	doc, err := svc.Upload(context.Background(), 1, "data.csv", 10, strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, model.EmbeddingFailed, doc.EmbeddingStatus)

	stored, err := docStore.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmbeddingFailed, stored.EmbeddingStatus)
}

func TestIndexChunksAndEmbeds(t *testing.T) {
	svc, docStore, chunkStore, _ := newDocFixture(t)

	body := `{"section": "` + strings.Repeat("lorem ipsum ", 20) + `"}`
	doc, err := svc.Upload(context.Background(), 1, "long.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	require.NoError(t, svc.Index(context.Background(), doc.ID))

	stored, err := docStore.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmbeddingCompleted, stored.EmbeddingStatus)

	chunks, err := chunkStore.ListByDocumentIDs([]uint{doc.ID})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
		assert.NotEmpty(t, c.EmbeddingVector(), "chunk %d has no embedding", i)
	}
}

func TestIndexChunkReplaceFailureMarksFailed(t *testing.T) {
	svc, docStore, chunkStore, _ := newDocFixture(t)

	body := `{"k": "some content worth indexing"}`
	doc, err := svc.Upload(context.Background(), 1, "doc.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	chunkStore.deleteErr = errors.New("deadlock on chunks table")
	err = svc.Index(context.Background(), doc.ID)
	require.Error(t, err)

	stored, err := docStore.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmbeddingFailed, stored.EmbeddingStatus)
	assert.Equal(t, "deadlock on chunks table", stored.Error)
}

func TestIndexIsIdempotent(t *testing.T) {
	svc, _, chunkStore, _ := newDocFixture(t)

	body := `{"k": "some content worth indexing"}`
	doc, err := svc.Upload(context.Background(), 1, "doc.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	require.NoError(t, svc.Index(context.Background(), doc.ID))
	first, err := chunkStore.ListByDocumentIDs([]uint{doc.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Index(context.Background(), doc.ID))
	second, err := chunkStore.ListByDocumentIDs([]uint{doc.ID})
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

func TestIndexUnknownDocument(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)
	err := svc.Index(context.Background(), 42)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestIndexEmptyDocument(t *testing.T) {
	svc, docStore, _, _ := newDocFixture(t)

	doc, err := svc.Upload(context.Background(), 1, "empty.csv", 1, strings.NewReader("\n"))
	require.NoError(t, err)

	err = svc.Index(context.Background(), doc.ID)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	stored, err := docStore.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmbeddingFailed, stored.EmbeddingStatus)
}

func TestListNeverNil(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)
	docs, err := svc.List(1)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDeleteRemovesChunksAndFile(t *testing.T) {
	svc, _, chunkStore, _ := newDocFixture(t)

	body := `{"k": "content"}`
	doc, err := svc.Upload(context.Background(), 1, "doc.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, svc.Index(context.Background(), doc.ID))

	path := filepath.Join(svc.cfg.UploadDir, doc.StoredName)
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(1, doc.DocUID))

	chunks, err := chunkStore.ListByDocumentIDs([]uint{doc.ID})
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteForeignDocument(t *testing.T) {
	svc, _, _, _ := newDocFixture(t)

	body := `{"k": "content"}`
	doc, err := svc.Upload(context.Background(), 1, "doc.json", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	err = svc.Delete(2, doc.DocUID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

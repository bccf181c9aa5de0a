package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docassist/internal/model"
	"docassist/internal/pkg/extract"
	"docassist/internal/pkg/textsplit"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMissingExtension = errors.New("file must have an extension")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyDocument    = errors.New("document contains no extractable text")
)

// IndexJob is the queue payload asking the index worker to embed a document.
type IndexJob struct {
	DocumentID uint `json:"document_id"`
}

type DocumentServiceConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
}

// DocumentService owns the upload-extract-index pipeline. Upload stores the
// file, extracts text, and enqueues an IndexJob; Index runs in the worker and
// flips the document's embedding status.
type DocumentService struct {
	docStore   DocumentStore
	chunkStore ChunkStore
	embedder   EmbeddingClient
	publisher  JobPublisher
	cfg        DocumentServiceConfig
}

func NewDocumentService(
	docStore DocumentStore,
	chunkStore ChunkStore,
	embedder EmbeddingClient,
	publisher JobPublisher,
	cfg DocumentServiceConfig,
) *DocumentService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = textsplit.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = textsplit.DefaultChunkOverlap
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	return &DocumentService{
		docStore:   docStore,
		chunkStore: chunkStore,
		embedder:   embedder,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Upload validates and stores the file, extracts its text for the page count,
// records the document, and enqueues indexing. On return the document is
// visible via List with embedding status pending.
func (s *DocumentService) Upload(ctx context.Context, userID uint, filename string, size int64, r io.Reader) (*model.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, ErrMissingExtension
	}
	if !extract.IsSupported(ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
	if s.cfg.MaxUploadBytes > 0 && size > s.cfg.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}

	docUID := uuid.NewString()
	storedName := docUID + "_" + filename
	path := filepath.Join(s.cfg.UploadDir, storedName)

	if err := saveFile(path, r); err != nil {
		return nil, err
	}

	res, err := extract.File(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("extract text failed: %w", err)
	}

	doc := &model.Document{
		DocUID:          docUID,
		UserID:          userID,
		Filename:        filename,
		StoredName:      storedName,
		DocumentType:    strings.TrimPrefix(ext, "."),
		TotalPages:      res.TotalPages,
		Status:          model.DocStatusProcessed,
		EmbeddingStatus: model.EmbeddingPending,
	}
	if err := s.docStore.Create(doc); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, IndexJob{DocumentID: doc.ID}); err != nil {
		msg := "index enqueue failed: " + err.Error()
		_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, msg)
		doc.EmbeddingStatus = model.EmbeddingFailed
		doc.Error = msg
	}

	return doc, nil
}

// Index re-extracts the stored file, chunks it per page, embeds the chunks in
// batches, and persists them. Safe to re-run: existing chunks are replaced.
func (s *DocumentService) Index(ctx context.Context, documentID uint) error {
	doc, err := s.docStore.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	path := filepath.Join(s.cfg.UploadDir, doc.StoredName)
	res, err := extract.File(path)
	if err != nil {
		_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, err.Error())
		return fmt.Errorf("extract for indexing failed: %w", err)
	}

	var chunks []model.Chunk
	for _, page := range res.Pages {
		for _, content := range textsplit.Split(page.Text, s.cfg.ChunkSize, s.cfg.ChunkOverlap) {
			chunks = append(chunks, model.Chunk{
				DocumentID: doc.ID,
				Page:       page.Number,
				Seq:        len(chunks),
				Content:    content,
			})
		}
	}
	if len(chunks) == 0 {
		_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, ErrEmptyDocument.Error())
		return ErrEmptyDocument
	}

	for i := 0; i < len(chunks); i += s.cfg.EmbedBatchSize {
		end := i + s.cfg.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Content)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, err.Error())
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		for j := range vectors {
			chunks[i+j].SetEmbedding(vectors[j])
		}
	}

	if err := s.chunkStore.DeleteByDocumentID(doc.ID); err != nil {
		_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, err.Error())
		return err
	}
	if err := s.chunkStore.CreateBatch(chunks); err != nil {
		_ = s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingFailed, err.Error())
		return err
	}
	return s.docStore.UpdateEmbeddingStatus(doc.ID, model.EmbeddingCompleted, "")
}

// List returns the user's documents, newest first, never nil.
func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	docs, err := s.docStore.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// Delete removes a document, its chunks, and the stored file.
func (s *DocumentService) Delete(userID uint, docUID string) error {
	doc, err := s.docStore.GetByUID(docUID)
	if err != nil {
		return err
	}
	if doc == nil || doc.UserID != userID {
		return ErrDocumentNotFound
	}
	if err := s.chunkStore.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if err := s.docStore.DeleteByIDAndUserID(doc.ID, userID); err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(s.cfg.UploadDir, doc.StoredName))
	return nil
}

func saveFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file failed: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write upload file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close upload file failed: %w", err)
	}
	return nil
}

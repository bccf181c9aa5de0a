package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docassist/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by id failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByUID(docUID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("doc_uid = ?", docUID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by uid failed: %w", err)
	}
	return &doc, nil
}

// ListByUserID returns the user's documents, newest first. UserID 0 lists
// anonymous uploads.
func (r *DocumentRepository) ListByUserID(userID uint) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// ListEmbedded returns the user's documents whose chunks are fully indexed,
// the only ones retrieval may draw from.
func (r *DocumentRepository) ListEmbedded(userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.
		Where("user_id = ? AND embedding_status = ?", userID, model.EmbeddingCompleted).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list embedded documents failed: %w", err)
	}
	return docs, nil
}

// UpdateEmbeddingStatus flips the indexing state and records the failure
// reason, if any.
func (r *DocumentRepository) UpdateEmbeddingStatus(id uint, status, errMsg string) error {
	updates := map[string]interface{}{
		"embedding_status": status,
		"error":            errMsg,
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update embedding status failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndUserID(id, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

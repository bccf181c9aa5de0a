package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docassist/internal/model"
)

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Create(turn *model.Turn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("create turn failed: %w", err)
	}
	return nil
}

// ListByConversationID returns turns oldest first. A positive limit is capped
// at 500; limit <= 0 returns the full conversation, which the export path
// relies on for complete transcripts.
func (r *TurnRepository) ListByConversationID(conversationID uint, limit int) ([]model.Turn, error) {
	query := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		if limit > 500 {
			limit = 500
		}
		query = query.Limit(limit)
	}
	var turns []model.Turn
	if err := query.Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list turns failed: %w", err)
	}
	return turns, nil
}

// ListRecentByConversationID returns the newest count turns in chronological
// order, for prompt context assembly.
func (r *TurnRepository) ListRecentByConversationID(conversationID uint, count int) ([]model.Turn, error) {
	if count <= 0 {
		return nil, nil
	}
	var turns []model.Turn
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Order("id DESC").
		Limit(count).Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("list recent turns failed: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *TurnRepository) DeleteByConversationID(conversationID uint) error {
	if err := r.db.Where("conversation_id = ?", conversationID).Delete(&model.Turn{}).Error; err != nil {
		return fmt.Errorf("delete turns by conversation failed: %w", err)
	}
	return nil
}
